package config

const (
	defaultProvider = "ollama"
	defaultTarget   = "http://localhost:11434"

	defaultModelName = "llama3.1"

	defaultTemperature = 0.0
	defaultMaxTokens   = 1024

	defaultAssistantMode = "qa"
	defaultTopK          = 7
	defaultMaxIterations = 2
	defaultWindow        = 3
	defaultTokenLimit    = 4096
	defaultGreeting      = "How can I help you?"

	defaultVectorProvider   = "sqlite"
	defaultVectorCollection = "products"

	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultOrdersProvider = "fixture"

	defaultAPIListen       = ":8081"
	defaultClientAPITarget = "http://localhost:8081"

	defaultEventStreamTopic = "shopbot.exchanges"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Model: ModelConfig{
			Provider: defaultProvider,
			Name:     defaultModelName,
			Target:   defaultTarget,
		},
		Generation: GenerationConfig{
			Temperature: defaultTemperature,
			MaxTokens:   defaultMaxTokens,
		},
		Assistant: AssistantConfig{
			Mode:          defaultAssistantMode,
			TopK:          defaultTopK,
			MaxIterations: defaultMaxIterations,
			Window:        defaultWindow,
			TokenLimit:    defaultTokenLimit,
			Greeting:      defaultGreeting,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Collection: defaultVectorCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultProvider,
			Target:     defaultTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Orders: OrdersConfig{
			Provider: defaultOrdersProvider,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		EventStream: EventStreamConfig{
			Enabled: false,
			Topic:   defaultEventStreamTopic,
		},
	}
}

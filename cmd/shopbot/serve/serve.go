// Package servecmder provides the serve command for running the shopbot
// API server.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anycompanyretail/shopbot/api"
	"github.com/anycompanyretail/shopbot/api/mcp"
	"github.com/anycompanyretail/shopbot/pkg/assistant"
	"github.com/anycompanyretail/shopbot/pkg/config"
	"github.com/anycompanyretail/shopbot/pkg/embeddings"
	embeddingutils "github.com/anycompanyretail/shopbot/pkg/embeddings/utils"
	"github.com/anycompanyretail/shopbot/pkg/eventstream"
	"github.com/anycompanyretail/shopbot/pkg/eventstream/kafka"
	"github.com/anycompanyretail/shopbot/pkg/eventstream/nop"
	"github.com/anycompanyretail/shopbot/pkg/llm"
	llmutils "github.com/anycompanyretail/shopbot/pkg/llm/utils"
	"github.com/anycompanyretail/shopbot/pkg/logger"
	orderutils "github.com/anycompanyretail/shopbot/pkg/orders/utils"
	"github.com/anycompanyretail/shopbot/pkg/retriever"
	"github.com/anycompanyretail/shopbot/pkg/session"
	"github.com/anycompanyretail/shopbot/pkg/tools"
	"github.com/anycompanyretail/shopbot/pkg/vector"
	vectorutils "github.com/anycompanyretail/shopbot/pkg/vector/utils"
)

// serveFlags is the flag registry for the serve command. Each entry maps a
// CLI flag to its viper key so flag > env > config file > default precedence
// holds without per-flag wiring.
var serveFlags = config.FlagSet{
	config.FlagAPIListen:       {Name: "api-listen", Shorthand: "a", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
	config.FlagModelProvider:   {Name: "model-provider", ViperKey: "model.provider", Description: "LLM provider (anthropic, openai, ollama)"},
	config.FlagModelName:       {Name: "model-name", Shorthand: "m", ViperKey: "model.name", Description: "Model name (e.g., llama3.1)"},
	config.FlagModelTarget:     {Name: "model-target", ViperKey: "model.target", Description: "LLM provider base URL"},
	config.FlagAssistantMode:   {Name: "mode", ViperKey: "assistant.mode", Description: "Assistant mode (chat, qa, agent)"},
	config.FlagTopK:            {Name: "top-k", ViperKey: "assistant.top_k", Description: "Documents retrieved per question"},
	config.FlagVectorStoreProv: {Name: "vector-store-provider", ViperKey: "vector_store.provider", Description: "Vector store provider (memory, sqlite, qdrant)"},
	config.FlagVectorStoreTgt:  {Name: "vector-store-target", ViperKey: "vector_store.target", Description: "Vector store path or URL"},
	config.FlagVectorStoreColl: {Name: "vector-store-collection", ViperKey: "vector_store.collection", Description: "Vector store collection name"},
	config.FlagEmbeddingProv:   {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider (ollama, openai)"},
	config.FlagEmbeddingTgt:    {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding provider base URL"},
	config.FlagEmbeddingModel:  {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model name"},
	config.FlagEmbeddingDims:   {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding vector dimensions"},
	config.FlagOrdersProvider:  {Name: "orders-provider", ViperKey: "orders.provider", Description: "Order store provider (fixture, sqlite, postgres)"},
	config.FlagOrdersTarget:    {Name: "orders-target", ViperKey: "orders.target", Description: "Order store path or DSN"},
}

// serveFlagKeys lists every registry key the serve command registers,
// in help-output order.
var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagModelProvider,
	config.FlagModelName,
	config.FlagModelTarget,
	config.FlagAssistantMode,
	config.FlagTopK,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagVectorStoreColl,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagOrdersProvider,
	config.FlagOrdersTarget,
}

type serveCommander struct {
	apiListen string

	modelProvider string
	modelName     string
	modelTarget   string

	mode string
	topK uint

	vectorStoreProvider   string
	vectorStoreTarget     string
	vectorStoreCollection string

	embeddingProvider   string
	embeddingTarget     string
	embeddingModel      string
	embeddingDimensions uint

	ordersProvider string
	ordersTarget   string

	// config-file-only settings (no flags)
	temperature        float64
	maxTokens          uint
	maxIterations      uint
	window             uint
	tokenLimit         uint
	greeting           string
	eventStreamEnabled bool
	eventStreamBrokers []string
	eventStreamTopic   string

	debug  bool
	logger *slog.Logger
}

const serveLongDesc string = `Run the shopbot API server.

The server hosts the conversational assistant (POST /v1/chat), session
transcripts, semantic product search (GET /v1/search), and an MCP endpoint
exposing the product search tool at /mcp.

Settings resolve with flag > SHOPBOT_* environment variable > config.toml >
default precedence.

Examples:
  shopbot serve
  shopbot serve --mode agent --model-name llama3.1
  shopbot serve --vector-store-provider qdrant --vector-store-target localhost:6334`

const serveShortDesc string = "Run the shopbot API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, serveFlags, serveFlagKeys)

			cmder.apiListen = v.GetString("api.listen")
			cmder.modelProvider = v.GetString("model.provider")
			cmder.modelName = v.GetString("model.name")
			cmder.modelTarget = v.GetString("model.target")
			cmder.mode = v.GetString("assistant.mode")
			cmder.topK = v.GetUint("assistant.top_k")
			cmder.vectorStoreProvider = v.GetString("vector_store.provider")
			cmder.vectorStoreTarget = v.GetString("vector_store.target")
			cmder.vectorStoreCollection = v.GetString("vector_store.collection")
			cmder.embeddingProvider = v.GetString("embedding.provider")
			cmder.embeddingTarget = v.GetString("embedding.target")
			cmder.embeddingModel = v.GetString("embedding.model")
			cmder.embeddingDimensions = v.GetUint("embedding.dimensions")
			cmder.ordersProvider = v.GetString("orders.provider")
			cmder.ordersTarget = v.GetString("orders.target")

			cmder.temperature = v.GetFloat64("generation.temperature")
			cmder.maxTokens = v.GetUint("generation.max_tokens")
			cmder.maxIterations = v.GetUint("assistant.max_iterations")
			cmder.window = v.GetUint("assistant.window")
			cmder.tokenLimit = v.GetUint("assistant.token_limit")
			cmder.greeting = v.GetString("assistant.greeting")
			cmder.eventStreamEnabled = v.GetBool("eventstream.enabled")
			cmder.eventStreamBrokers = v.GetStringSlice("eventstream.brokers")
			cmder.eventStreamTopic = v.GetString("eventstream.topic")

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	for _, key := range serveFlagKeys {
		switch key {
		case config.FlagTopK:
			config.AddUintFlag(cmd, serveFlags, key, &cmder.topK)
		case config.FlagEmbeddingDims:
			config.AddUintFlag(cmd, serveFlags, key, &cmder.embeddingDimensions)
		default:
			config.AddStringFlag(cmd, serveFlags, key, stringTarget(cmder, key))
		}
	}

	return cmd
}

// stringTarget maps a registry key to its commander field.
func stringTarget(c *serveCommander, key string) *string {
	switch key {
	case config.FlagAPIListen:
		return &c.apiListen
	case config.FlagModelProvider:
		return &c.modelProvider
	case config.FlagModelName:
		return &c.modelName
	case config.FlagModelTarget:
		return &c.modelTarget
	case config.FlagAssistantMode:
		return &c.mode
	case config.FlagVectorStoreProv:
		return &c.vectorStoreProvider
	case config.FlagVectorStoreTgt:
		return &c.vectorStoreTarget
	case config.FlagVectorStoreColl:
		return &c.vectorStoreCollection
	case config.FlagEmbeddingProv:
		return &c.embeddingProvider
	case config.FlagEmbeddingTgt:
		return &c.embeddingTarget
	case config.FlagEmbeddingModel:
		return &c.embeddingModel
	case config.FlagOrdersProvider:
		return &c.ordersProvider
	case config.FlagOrdersTarget:
		return &c.ordersTarget
	default:
		panic(fmt.Sprintf("unmapped serve flag: %s", key))
	}
}

func (c *serveCommander) run(ctx context.Context) error {
	c.logger = logger.New(
		logger.WithDebug(c.debug),
		logger.WithJSON(!c.debug),
	)

	backend, err := llmutils.NewClient(&llmutils.NewClientOpts{
		ProviderType: c.modelProvider,
		TargetURL:    c.modelTarget,
		Model:        c.modelName,
	})
	if err != nil {
		return fmt.Errorf("creating model backend: %w", err)
	}
	defer backend.Close()

	embedder, driver, err := c.newSearchStack(ctx)
	if err != nil {
		return err
	}
	defer embedder.Close()
	defer driver.Close()

	ret, err := retriever.New(embedder, driver, retriever.Config{TopK: int(c.topK)}, c.logger)
	if err != nil {
		return fmt.Errorf("creating retriever: %w", err)
	}

	var registry *tools.Registry
	if assistant.Mode(c.mode) == assistant.ModeAgent {
		store, err := orderutils.NewStore(ctx, &orderutils.NewStoreOpts{
			ProviderType: c.ordersProvider,
			Target:       c.ordersTarget,
			Logger:       c.logger,
		})
		if err != nil {
			return fmt.Errorf("creating order store: %w", err)
		}
		defer store.Close()

		registry, err = tools.NewRetailRegistry(ret, store, c.logger)
		if err != nil {
			return fmt.Errorf("creating tool registry: %w", err)
		}
	}

	factory := func() (*assistant.Assistant, error) {
		return assistant.New(assistant.Config{
			Model:   c.modelName,
			Backend: backend,
			Mode:    assistant.Mode(c.mode),
			Params: llm.GenerationParams{
				Temperature: c.temperature,
				MaxTokens:   c.maxTokens,
			},
			Retriever:     ret,
			Tools:         registry,
			TokenLimit:    int(c.tokenLimit),
			MaxIterations: int(c.maxIterations),
			Window:        int(c.window),
			Greeting:      c.greeting,
		}, c.logger)
	}

	sessions, err := session.NewManager(factory, 0, c.logger)
	if err != nil {
		return fmt.Errorf("creating session manager: %w", err)
	}

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	apiServer := api.NewServer(api.Config{
		ListenAddr:   c.apiListen,
		VectorDriver: driver,
		Embedder:     embedder,
		Publisher:    publisher,
		Provider:     c.modelProvider,
		Model:        c.modelName,
		Mode:         c.mode,
		Greeting:     c.greeting,
	}, sessions, c.logger)

	mcpServer, err := mcp.NewServer(mcp.Config{
		VectorDriver: driver,
		Embedder:     embedder,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}
	apiServer.MountMCP(mcpServer.Handler())

	c.logger.Info("starting api server",
		"listen", c.apiListen,
		"provider", c.modelProvider,
		"model", c.modelName,
		"mode", c.mode,
	)

	errChan := make(chan error, 1)
	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return apiServer.Shutdown()
	}
}

// newSearchStack builds the embedder and vector driver powering retrieval
// and product search. A sqlite vector store with no target falls back to
// the in-memory driver so a zero-config serve still comes up.
func (c *serveCommander) newSearchStack(ctx context.Context) (embeddings.Embedder, vector.Driver, error) {
	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: c.embeddingProvider,
		TargetURL:    c.embeddingTarget,
		Model:        c.embeddingModel,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating embedder: %w", err)
	}

	vectorProvider := c.vectorStoreProvider
	if vectorProvider == "sqlite" && c.vectorStoreTarget == "" {
		c.logger.Info("no vector store target configured, using in-memory vector store")
		vectorProvider = "memory"
	}

	driver, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: vectorProvider,
		Target:       c.vectorStoreTarget,
		Collection:   c.vectorStoreCollection,
		Dimensions:   c.embeddingDimensions,
		Logger:       c.logger,
	})
	if err != nil {
		embedder.Close()
		return nil, nil, fmt.Errorf("creating vector driver: %w", err)
	}

	c.logger.Info("vector storage enabled",
		"vector_store_provider", vectorProvider,
		"vector_store_target", c.vectorStoreTarget,
		"embedding_provider", c.embeddingProvider,
		"embedding_model", c.embeddingModel,
	)

	return embedder, driver, nil
}

// newPublisher builds the exchange event publisher: Kafka when the event
// stream is enabled, a nop publisher otherwise.
func (c *serveCommander) newPublisher() (eventstream.Publisher, error) {
	if !c.eventStreamEnabled {
		return nop.NewPublisher(), nil
	}

	publisher, err := kafka.NewPublisher(kafka.Config{
		Brokers: c.eventStreamBrokers,
		Topic:   c.eventStreamTopic,
	}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}

	c.logger.Info("exchange event stream enabled",
		"brokers", c.eventStreamBrokers,
		"topic", c.eventStreamTopic,
	)

	return publisher, nil
}

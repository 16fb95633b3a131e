// Package configcmder provides the config command for managing persistent
// shopbot configuration stored in the .shopbot/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent shopbot configuration.

Configuration is stored as config.toml in the .shopbot/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values, and SHOPBOT_* environment variables sit between the two.

Keys use dotted notation matching the TOML section structure:
  model.provider, model.name, model.target,
  generation.temperature, generation.max_tokens,
  assistant.mode, assistant.top_k, assistant.max_iterations,
  assistant.window, assistant.token_limit, assistant.greeting,
  vector_store.provider, vector_store.target, vector_store.collection,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  orders.provider, orders.target,
  api.listen, client.api_target,
  eventstream.enabled, eventstream.brokers, eventstream.topic

Use subcommands to get, set, or list configuration values:
  shopbot config set <key> <value>    Set a configuration value
  shopbot config get <key>            Get a configuration value
  shopbot config list                 List all configuration values
  shopbot config preset <name>        Overwrite the config with a provider preset

Examples:
  shopbot config set model.provider anthropic
  shopbot config set assistant.mode agent
  shopbot config get embedding.model
  shopbot config preset ollama
  shopbot config list`

const configShortDesc string = "Manage persistent shopbot configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newPresetCmd())

	return cmd
}

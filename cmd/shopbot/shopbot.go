// Package shopbotcmder
package shopbotcmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/anycompanyretail/shopbot/cmd/shopbot/chat"
	configcmder "github.com/anycompanyretail/shopbot/cmd/shopbot/config"
	servecmder "github.com/anycompanyretail/shopbot/cmd/shopbot/serve"
	versioncmder "github.com/anycompanyretail/shopbot/cmd/shopbot/version"
)

const shopbotLongDesc string = `Shopbot is a conversational shopping assistant for the AnyCompanyRetail catalog.

Run the assistant using:
  shopbot serve        Run the API server (chat, search, MCP)
  shopbot chat         Start an interactive chat session against a running server
  shopbot config       Manage persistent configuration`

const shopbotShortDesc string = "Shopbot - Conversational Shopping Assistant"

func NewShopbotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shopbot",
		Short: shopbotShortDesc,
		Long:  shopbotLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Path to the .shopbot/ config directory (default: walk up from cwd, then $HOME)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}

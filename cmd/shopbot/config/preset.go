package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anycompanyretail/shopbot/pkg/cliui"
	"github.com/anycompanyretail/shopbot/pkg/config"
)

const presetLongDesc string = `Overwrite the configuration with a provider preset.

Writes a full config.toml for the named provider, including model and
embedding settings. This replaces the existing configuration; use
"shopbot config set" afterwards to adjust individual keys.

Available presets: openai, anthropic, ollama

Examples:
  shopbot config preset ollama
  shopbot config preset openai`

const presetShortDesc string = "Overwrite the configuration with a provider preset"

func newPresetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset <name>",
		Short: presetShortDesc,
		Long:  presetLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runPreset(args[0], configDir)
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.ValidPresetNames(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	return cmd
}

func runPreset(name, configDir string) error {
	cfg, err := config.PresetConfig(name)
	if err != nil {
		return fmt.Errorf("%w\n\nAvailable presets: %s",
			err, strings.Join(config.ValidPresetNames(), ", "))
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\n  %s Applied preset %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(name),
	)
	fmt.Printf("  %s %s\n\n",
		cliui.KeyStyle.Render("Config file:"),
		cliui.DimStyle.Render(cfger.GetTarget()),
	)

	return nil
}

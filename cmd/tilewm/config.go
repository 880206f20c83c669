package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/hotkeys"
	"github.com/1broseidon/tilewm/internal/wm"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate the configuration",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load the config and check keybindings and commands",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		res, err := loadConfig()
		if err != nil {
			return err
		}
		if err := validateBindings(res.Config); err != nil {
			return err
		}
		fmt.Printf("OK: %d file(s), %d workspace(s), %d keybinding(s), %d binding mode(s)\n",
			len(res.Files), len(res.Config.Workspaces), len(res.Config.Keybindings), len(res.Config.BindingModes))
		return nil
	},
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the effective config as YAML",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		res, err := loadConfig()
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(res.Config)
	},
}

var configExplainCmd = &cobra.Command{
	Use:     "explain <path>",
	Short:   "Show an effective value and where it was set",
	Example: "  tilewm config explain gaps.inner_gap\n  tilewm config explain workspaces[0].name",
	Args:    cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		res, err := loadConfig()
		if err != nil {
			return err
		}
		value, src, err := config.Explain(res, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s = %v\n", args[0], value)
		if src.Kind == config.SourceFile {
			fmt.Printf("  set in %s:%d:%d\n", src.File, src.Line, src.Column)
		} else {
			fmt.Println("  default")
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configPathCmd, configValidateCmd, configPrintCmd, configExplainCmd)
	rootCmd.AddCommand(configCmd)
}

func loadConfig() (*config.LoadResult, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return config.LoadFromPath(path)
}

// validateBindings checks what Validate cannot: that every key combination
// parses and every command is known.
func validateBindings(cfg *config.Config) error {
	check := func(path string, bindings []config.KeybindingConfig) error {
		for i, kb := range bindings {
			for _, b := range kb.Bindings {
				if _, err := hotkeys.ParseBinding(b); err != nil {
					return fmt.Errorf("%s[%d].bindings: %w", path, i, err)
				}
			}
			for _, c := range kb.Commands {
				if _, err := wm.ParseCommand(c); err != nil {
					return fmt.Errorf("%s[%d].commands: %w", path, i, err)
				}
			}
		}
		return nil
	}
	if err := check("keybindings", cfg.Keybindings); err != nil {
		return err
	}
	for i, mode := range cfg.BindingModes {
		if err := check(fmt.Sprintf("binding_modes[%d].keybindings", i), mode.Keybindings); err != nil {
			return err
		}
	}
	return nil
}

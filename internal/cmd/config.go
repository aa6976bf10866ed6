package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write configuration values",
	Long: heredoc.Doc(`
		Read a value from the effective configuration, or persist one into the
		data config file that is merged under the project configs.
	`),
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a configuration value",
	Example: heredoc.Doc(`
		vlist config get engine.padding_item_count
		vlist config get options.tui
	`),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setupApp(cmd)
		if err != nil {
			return err
		}
		value, ok, err := cfg.Get(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("unknown config key: %s", args[0])
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
		return err
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist a configuration value",
	Long: heredoc.Doc(`
		Persist a value into the data config file. Values that parse as JSON
		(numbers, booleans, objects) are stored as such, anything else as a
		string.
	`),
	Example: heredoc.Doc(`
		vlist config set engine.estimated_item_height 72
		vlist config set options.tui.wrap true
	`),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setupApp(cmd)
		if err != nil {
			return err
		}
		if err := cfg.SetConfigField(args[0], parseConfigValue(args[1])); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Set %s in %s\n", args[0], cfg.DataConfigPath())
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

func parseConfigValue(raw string) any {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}
	return value
}

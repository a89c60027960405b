package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/modhost/internal/config"
)

var configSetCmd = &cobra.Command{
	Use:   "config:set KEY VALUE",
	Short: "Set a dotted config key in the config file",
	Long: `Set a dotted config key in the config file, keeping comments.

VALUE is read as YAML, so "true", "5" and "[a, b]" keep their types.

Examples:
  modhost config:set cache.enabled true
  modhost config:set scan.paths '[vendor/*/*, packages/*]'
  modhost config:set flags.strict-hooks true`,
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationNoApp: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var value any
		if err := yaml.Unmarshal([]byte(args[1]), &value); err != nil {
			return fmt.Errorf("parsing value: %w", err)
		}

		path, err := configPath()
		if err != nil {
			return err
		}
		if err := config.SaveValue(path, args[0], value); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s set in %s\n", args[0], path)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configSetCmd)
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteForce bool

var moduleEnableCmd = &cobra.Command{
	Use:   "module:enable NAME...",
	Short: "Enable modules",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return eachModule(cmd, args, "enabled", app.registry.Enable)
	},
}

var moduleDisableCmd = &cobra.Command{
	Use:   "module:disable NAME...",
	Short: "Disable modules",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return eachModule(cmd, args, "disabled", app.registry.Disable)
	},
}

var moduleDeleteCmd = &cobra.Command{
	Use:   "module:delete NAME",
	Short: "Delete a module directory",
	Long: `Delete a module's directory tree from disk. This cannot be undone.

Requires --force.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !deleteForce {
			return fmt.Errorf("refusing to delete %s without --force", args[0])
		}
		return eachModule(cmd, args, "deleted", app.registry.Delete)
	},
}

func init() {
	moduleDeleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Delete without asking")
	rootCmd.AddCommand(moduleEnableCmd, moduleDisableCmd, moduleDeleteCmd)
}

// eachModule applies fn to every named module, stopping at the first error.
func eachModule(cmd *cobra.Command, names []string, done string, fn func(context.Context, string) error) error {
	for _, name := range names {
		if err := fn(cmd.Context(), name); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Module [%s] %s.\n", name, done); err != nil {
			return err
		}
	}
	return nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/modhost/internal/presentation"
)

var moduleShowCmd = &cobra.Command{
	Use:   "module:show NAME",
	Short: "Show one module as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := app.registry
		m, err := reg.FindOrFail(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		used, err := reg.Used()
		if err != nil {
			return err
		}
		return presentation.NewFormatter(cmd.OutOrStdout()).FormatModule(presentation.FromModule(m, used))
	},
}

var moduleRequiresCmd = &cobra.Command{
	Use:   "module:requires NAME",
	Short: "Resolve the modules a module requires",
	Long: `Resolve each alias in the module's requires list.

Aliases without a matching module are reported with "resolved": false.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		m, err := app.registry.FindOrFail(ctx, args[0])
		if err != nil {
			return err
		}
		required, err := app.registry.FindRequirements(ctx, args[0])
		if err != nil {
			return err
		}
		dtos := presentation.FromRequirements(m.Requires(), required)
		return presentation.NewFormatter(cmd.OutOrStdout()).FormatRequirements(dtos)
	},
}

var modulePathCmd = &cobra.Command{
	Use:   "module:path NAME",
	Short: "Print the directory of a module",
	Long: `Print the directory of a module, with a trailing slash.

For an unknown module this is where the module would live:
{paths.modules}/{StudlyName}/.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := app.registry.ModulePath(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), p)
		return err
	},
}

func init() {
	rootCmd.AddCommand(moduleShowCmd, moduleRequiresCmd, modulePathCmd)
}

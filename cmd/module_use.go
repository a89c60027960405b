package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var moduleUseCmd = &cobra.Command{
	Use:   "module:use [NAME]",
	Short: "Set or print the module used by generators",
	Long: `With NAME, store NAME as the used module. The module must exist.
Without NAME, print the used module, or nothing when none is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if len(args) == 0 {
			name, err := app.registry.Used()
			if err != nil || name == "" {
				return err
			}
			m, err := app.registry.UsedNow(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, m.Name())
			return err
		}

		if err := app.registry.SetUsed(ctx, args[0]); err != nil {
			return err
		}
		_, err := fmt.Fprintf(out, "Module [%s] used.\n", args[0])
		return err
	},
}

var moduleUnuseCmd = &cobra.Command{
	Use:   "module:unuse",
	Short: "Forget the used module",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := app.registry.ForgetUsed(); err != nil {
			return err
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "Previous module used successfully forgotten.")
		return err
	},
}

func init() {
	rootCmd.AddCommand(moduleUseCmd, moduleUnuseCmd)
}

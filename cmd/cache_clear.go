package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheClearAll bool

var cacheClearCmd = &cobra.Command{
	Use:   "cache:clear",
	Short: "Forget the cached module discovery",
	Long: `Forget the cached module discovery.

With --all the whole cache store is emptied, not only the discovery key.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cacheClearAll {
			if err := app.registry.FlushAllCache(cmd.Context()); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Cache store cleared.")
			return err
		}
		if err := app.registry.FlushCache(cmd.Context()); err != nil {
			return err
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "Module cache cleared.")
		return err
	},
}

func init() {
	cacheClearCmd.Flags().BoolVar(&cacheClearAll, "all", false, "Empty the whole cache store")
	rootCmd.AddCommand(cacheClearCmd)
}

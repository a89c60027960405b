package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/modhost/internal/module"
	"github.com/zjrosen/modhost/internal/presentation"
	"github.com/zjrosen/modhost/internal/registry"
)

var (
	listStatus    string
	listDirection string
	listJSON      bool
)

var moduleListCmd = &cobra.Command{
	Use:   "module:list",
	Short: "List discovered modules",
	Long: `List discovered modules in discovery order.

Use --status to keep only enabled or disabled modules.
Use --direction to list enabled modules in boot order (asc) or reverse (desc).
The module stored by module:use is marked with *.

Examples:
  # All modules as a table
  modhost module:list

  # Boot order
  modhost module:list --direction asc

  # Disabled module names with jq
  modhost module:list --status disabled --json | jq '.[].name'`,
	Args: cobra.NoArgs,
	RunE: runModuleList,
}

func init() {
	moduleListCmd.Flags().StringVarP(&listStatus, "status", "s", "", "Filter by status: enabled or disabled")
	moduleListCmd.Flags().StringVar(&listDirection, "direction", "", "List enabled modules ordered by order: asc or desc")
	moduleListCmd.Flags().BoolVar(&listJSON, "json", false, "Output JSON")
	rootCmd.AddCommand(moduleListCmd)
}

func runModuleList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	reg := app.registry

	var (
		mods []*module.Module
		err  error
	)
	switch {
	case listDirection != "":
		dir, perr := registry.ParseDirection(listDirection)
		if perr != nil {
			return perr
		}
		mods, err = reg.GetOrdered(ctx, dir)
	case listStatus == "enabled":
		mods, err = reg.Enabled(ctx)
	case listStatus == "disabled":
		mods, err = reg.Disabled(ctx)
	case listStatus == "":
		mods, err = reg.All(ctx)
	default:
		return fmt.Errorf("unknown status %q: want enabled or disabled", listStatus)
	}
	if err != nil {
		return err
	}

	used, err := reg.Used()
	if err != nil {
		return err
	}

	formatter := presentation.NewFormatter(cmd.OutOrStdout())
	dtos := presentation.FromModules(mods, used)
	if listJSON {
		return formatter.FormatModules(dtos)
	}
	return formatter.ModuleTable(dtos)
}

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/modhost/internal/module"
	"github.com/zjrosen/modhost/internal/templates"
)

var makeActive bool

var moduleMakeCmd = &cobra.Command{
	Use:   "module:make NAME",
	Short: "Create a new module from the built-in stubs",
	Long: `Create {paths.modules}/{StudlyName} with a module.json, a composer.json
and an English translation file.

The new module is disabled unless --active is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		reg := app.registry

		existing, err := reg.Find(ctx, args[0])
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("module [%s] already exists at %s", existing.Name(), existing.Path())
		}

		name := module.Studly(args[0])
		lower := strings.ToLower(name)
		data := templates.StubData{
			Name:      name,
			Alias:     lower,
			Namespace: `Modules\` + name,
			Package:   "modules/" + lower,
		}
		if makeActive {
			data.Active = 1
		}

		written, err := templates.Scaffold(app.host.Files, filepath.Join(reg.BasePath(), name), data)
		if err != nil {
			return err
		}
		if err := reg.FlushCache(ctx); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, p := range written {
			if _, err := fmt.Fprintf(out, "Created : %s\n", p); err != nil {
				return err
			}
		}
		_, err = fmt.Fprintf(out, "Module [%s] created.\n", name)
		return err
	},
}

func init() {
	moduleMakeCmd.Flags().BoolVar(&makeActive, "active", false, "Enable the new module")
	rootCmd.AddCommand(moduleMakeCmd)
}

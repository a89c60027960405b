package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/modhost/internal/host"
	"github.com/zjrosen/modhost/internal/presentation"
	"github.com/zjrosen/modhost/internal/pubsub"
)

var bootEvents bool

var moduleBootCmd = &cobra.Command{
	Use:   "module:boot",
	Short: "Register and boot every enabled module",
	Long: `Register, then boot, every enabled module in ascending order and print
the routes they declared.

Init hooks, providers and route files are resolved against the hooks the host
application registers; this binary registers none, so unknown names are
skipped with a warning unless the strict-hooks flag is set.

With --events, every lifecycle event dispatched during the run is printed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		reg := app.registry

		var collect func() []string
		if bootEvents {
			collect = collectEvents(ctx, app.host.Events)
		}

		if err := reg.Register(ctx); err != nil {
			return fmt.Errorf("registering modules: %w", err)
		}
		if err := reg.Boot(ctx); err != nil {
			return fmt.Errorf("booting modules: %w", err)
		}

		mods, err := reg.Enabled(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if collect != nil {
			for _, line := range collect() {
				if _, err := fmt.Fprintln(out, line); err != nil {
					return err
				}
			}
		}
		if _, err := fmt.Fprintf(out, "Booted %d modules.\n", len(mods)); err != nil {
			return err
		}
		if ns := app.host.Translator.Namespaces(); len(ns) > 0 {
			if _, err := fmt.Fprintf(out, "Translations: %v locales %v\n", ns, app.host.Translator.Locales()); err != nil {
				return err
			}
		}

		routes := app.host.Router.Routes()
		if len(routes) == 0 {
			return nil
		}
		return presentation.NewFormatter(out).RouteTable(presentation.FromRoutes(routes))
	},
}

func init() {
	moduleBootCmd.Flags().BoolVar(&bootEvents, "events", false, "Print lifecycle events")
	rootCmd.AddCommand(moduleBootCmd)
}

// collectEvents subscribes to events and returns a function that closes
// the broker and returns every event received, as "type module" lines.
func collectEvents(ctx context.Context, events *pubsub.Broker[host.Subject]) func() []string {
	listener := pubsub.NewContinuousListener(ctx, events)
	var lines []string
	drained := make(chan struct{})

	go func() {
		defer close(drained)
		for {
			ev, ok := listener.Next()
			if !ok {
				return
			}
			lines = append(lines, fmt.Sprintf("%s %s", ev.Type, ev.Payload.Name()))
		}
	}()

	return func() []string {
		// Buffered events stay readable after Close.
		events.Close()
		<-drained
		return lines
	}
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/modhost/internal/log"
	"github.com/zjrosen/modhost/internal/watcher"
)

var moduleWatchCmd = &cobra.Command{
	Use:   "module:watch",
	Short: "Flush the module cache whenever a manifest changes",
	Long: `Watch every module root for module.json changes and new or removed
module directories, flushing the discovery cache after each burst of
changes. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runModuleWatch,
}

func init() {
	rootCmd.AddCommand(moduleWatchCmd)
}

func runModuleWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	roots := watcher.RootsFromScanPaths(app.registry.ScanPaths())
	if len(roots) == 0 {
		return fmt.Errorf("no module directories to watch")
	}

	w, err := watcher.New(watcher.DefaultConfig(roots...))
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Watching %d directories.\n", len(roots))
	return flushOnChange(ctx, changes, func(ctx context.Context) error {
		if err := app.registry.FlushCache(ctx); err != nil {
			return err
		}
		count, err := app.registry.Count(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "Modules changed, %d found.\n", count)
		return err
	})
}

// flushOnChange calls flush for every signal on changes until ctx ends.
// Failed flushes are logged and do not stop the loop.
func flushOnChange(ctx context.Context, changes <-chan struct{}, flush func(context.Context) error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			if err := flush(ctx); err != nil {
				log.ErrorErr(log.CatWatcher, "flushing module cache", err)
			}
		}
	}
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/agentic-research/lifecards/internal/graph"
	"github.com/agentic-research/lifecards/internal/view"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var (
	renderNavigate []string
	renderWatch    bool
)

func init() {
	renderCmd.Flags().StringSliceVar(&renderNavigate, "navigate", nil, "Identities to navigate to, in order, after the first render")
	renderCmd.Flags().BoolVar(&renderWatch, "watch", false, "Re-render when hint files change (hint directory only)")
}

var renderCmd = &cobra.Command{
	Use:   "render [identity]",
	Short: "Render an identity and print the resulting tree",
	Long: `Render queries an identity, mounts the resulting node and prints the tree.
With --watch, changes to hint files reload the affected segment and the tree
is rendered again in place. Reloading merges: records and fields added to a
hint show up, existing fields keep their first value.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		identity := cfg.Root
		if len(args) == 1 {
			identity = args[0]
		}
		if renderWatch && cfg.HintsDB != "" {
			return errors.New("--watch needs a hint directory, not a database")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		st, err := openStack(cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = st.close() }()

		out := cmd.OutOrStdout()
		root := view.NewBox("root")
		if err := renderTree(ctx, st, identity, renderNavigate, root); err != nil {
			return err
		}
		if err := view.Fprint(out, root); err != nil {
			return err
		}
		if !renderWatch {
			return nil
		}
		return watchHints(ctx, cfg.HintsDir, logger, func(segment string) error {
			if err := st.store.Reload(ctx, segment); err != nil {
				logger.Warn("reload failed", "segment", segment, "err", err)
			}
			if err := renderTree(ctx, st, identity, nil, root); err != nil {
				return err
			}
			fmt.Fprintln(out, "---")
			return view.Fprint(out, root)
		})
	},
}

// renderTree renders identity under root and then follows navigate.
func renderTree(ctx context.Context, st *stack, identity string, navigate []string, root *view.Box) error {
	if _, err := st.rec.Render(ctx, identity, root); err != nil {
		return err
	}
	for _, to := range navigate {
		st.router.Navigate(ctx, to)
	}
	return nil
}

// watchHints calls changed with the segment of every hint file written
// under dir until ctx ends. Events are handled on the calling goroutine.
func watchHints(ctx context.Context, dir string, log *slog.Logger, changed func(segment string) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer func() { _ = w.Close() }()

	if err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	log.Info("watching hints", "dir", dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "err", err)
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := w.Add(event.Name); err != nil {
						log.Warn("watch new directory", "dir", event.Name, "err", err)
					}
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			segment, ok := segmentFor(dir, event.Name)
			if !ok {
				continue
			}
			log.Debug("hint changed", "segment", segment, "op", event.Op.String())
			if err := changed(segment); err != nil {
				return err
			}
		}
	}
}

func segmentFor(dir, name string) (string, bool) {
	rel, err := filepath.Rel(dir, name)
	if err != nil {
		return "", false
	}
	return graph.SegmentForHintPath(filepath.ToSlash(rel))
}

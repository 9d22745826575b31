package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/agentic-research/lifecards/internal/graph"
	"github.com/agentic-research/lifecards/internal/ingest"
	"github.com/agentic-research/lifecards/internal/nav"
	"github.com/agentic-research/lifecards/internal/render"
	"github.com/agentic-research/lifecards/internal/view"
	"github.com/go-git/go-billy/v5/osfs"
)

// stack is one wired store, router and reconciler.
type stack struct {
	store  *graph.MemoryStore
	router *nav.Router
	rec    *render.Reconciler
	close  func() error
}

// hintSource opens the configured hint backend: the packed database when
// one is named, the hint directory otherwise.
func hintSource(c settings) (graph.HintSource, func() error, error) {
	dec, err := ingest.NewDecoder(c.HintSelector)
	if err != nil {
		return nil, nil, err
	}
	if c.HintsDB != "" {
		src, err := ingest.OpenSQLiteHints(c.HintsDB, dec)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	}
	if c.HintsDir == "" {
		return nil, nil, errors.New("no hint source: set hints_dir or hints_db")
	}
	return ingest.NewFSHintSource(osfs.New(c.HintsDir), dec), func() error { return nil }, nil
}

func openStore(c settings, log *slog.Logger) (*graph.MemoryStore, func() error, error) {
	src, closeFn, err := hintSource(c)
	if err != nil {
		return nil, nil, err
	}
	store := graph.NewMemoryStore(
		graph.WithHints(src),
		graph.WithLogger(log),
		graph.WithDefaultLimit(c.DefaultLimit),
	)
	return store, closeFn, nil
}

func openStack(c settings, log *slog.Logger) (*stack, error) {
	store, closeFn, err := openStore(c, log)
	if err != nil {
		return nil, err
	}
	kinds := render.NewRegistry()
	if err := view.Register(kinds); err != nil {
		_ = closeFn()
		return nil, err
	}
	router := nav.New(nav.WithLogger(log))
	rec, err := render.New(store, kinds,
		render.WithLogger(log),
		render.WithRouter(router),
		render.WithPruneStaleChildren(c.Prune),
		render.WithDefaultChildKind(c.DefaultChildKind),
		render.WithGenericKind(c.GenericKind),
	)
	if err != nil {
		_ = closeFn()
		return nil, fmt.Errorf("reconciler: %w", err)
	}
	return &stack{store: store, router: router, rec: rec, close: func() error {
		rec.Close()
		return closeFn()
	}}, nil
}

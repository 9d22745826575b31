package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/agentic-research/lifecards/api"
	"github.com/agentic-research/lifecards/internal/graph"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"
)

var queryFilter graph.Filter

func init() {
	f := queryCmd.Flags()
	f.StringVar(&queryFilter.Identity, "identity", "", "Exact identity (ignores every other criterion)")
	f.StringVar(&queryFilter.Parent, "parent", "", "Exact parent identity")
	f.StringVar(&queryFilter.Includes, "includes", "", "Substring of the parent identity")
	f.StringSliceVar(&queryFilter.Tags, "tags", nil, "Tags every result must carry")
	f.IntVar(&queryFilter.Offset, "offset", 0, "Results to skip")
	f.IntVar(&queryFilter.Limit, "limit", 0, "Maximum results (0 uses default_limit)")
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run one query against the store and print the results as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeFn, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = closeFn() }()
		return runQuery(cmd.Context(), store, queryFilter, cmd.OutOrStdout())
	},
}

func runQuery(ctx context.Context, store *graph.MemoryStore, f graph.Filter, w io.Writer) error {
	var results []api.Record
	sub := store.Query(ctx, f, func(r []api.Record) { results = r })
	defer sub.Cancel()

	out := make([]any, len(results))
	for i, r := range results {
		out[i] = map[string]any(r)
	}
	_, err := fmt.Fprintln(w, oj.JSON(out, &oj.Options{Indent: 2, Sort: true}))
	return err
}

package cmd

import (
	"fmt"
	"time"

	"github.com/agentic-research/lifecards/internal/ingest"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build [source] [output.db]",
	Short: "Pack a directory of hint files into a SQLite hint database",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		st, err := buildHints(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "packed %d hints (%d records, %d skipped) into %s in %v\n",
			st.Segments, st.Records, st.Skipped, args[1], time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func buildHints(source, output string) (ingest.Stats, error) {
	dec, err := ingest.NewDecoder(cfg.HintSelector)
	if err != nil {
		return ingest.Stats{}, err
	}
	w, err := ingest.NewSQLiteHintWriter(output)
	if err != nil {
		return ingest.Stats{}, err
	}
	eng := ingest.NewEngine(dec, w)
	eng.Logger = logger
	st, err := eng.Ingest(osfs.New(source), ".")
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return st, fmt.Errorf("build %s: %w", output, err)
	}
	return st, nil
}

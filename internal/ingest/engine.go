package ingest

import (
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/agentic-research/lifecards/internal/graph"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Engine walks a tree of hint files and hands each one to a HintTarget,
// keyed by the segment the file describes. Files that do not decode are
// skipped and logged so one bad hint does not sink the whole build.
type Engine struct {
	Decoder *Decoder
	Target  HintTarget
	Logger  *slog.Logger
}

// NewEngine creates an engine writing to target.
func NewEngine(dec *Decoder, target HintTarget) *Engine {
	if dec == nil {
		dec = &Decoder{}
	}
	return &Engine{Decoder: dec, Target: target, Logger: slog.Default()}
}

// Stats summarizes one Ingest run.
type Stats struct {
	Segments int // hints written
	Records  int // records they decode to
	Skipped  int // hint files that failed to decode
}

// Ingest walks root and writes every hint file found.
func (e *Engine) Ingest(fsys billy.Filesystem, root string) (Stats, error) {
	var st Stats
	err := util.Walk(fsys, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		seg, ok := graph.SegmentForHintPath(p)
		if !ok {
			return nil
		}
		body, err := util.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		recs, err := e.Decoder.Decode(body)
		if err != nil {
			e.Logger.Warn("skipping hint", "path", p, "err", err)
			st.Skipped++
			return nil
		}
		if err := e.Target.Put(seg, body); err != nil {
			return err
		}
		st.Segments++
		st.Records += len(recs)
		e.Logger.Debug("packed hint", "segment", seg, "records", len(recs))
		return nil
	})
	return st, err
}

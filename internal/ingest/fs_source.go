package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/agentic-research/lifecards/api"
	"github.com/agentic-research/lifecards/internal/graph"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// FSHintSource reads hint files laid out next to the content they describe:
// the hint for segment /a/b lives at a/b/.b.hints, the root's at .hints.
type FSHintSource struct {
	fs  billy.Filesystem
	dec *Decoder
}

// NewFSHintSource serves hints from fs. A nil decoder decodes whole files.
func NewFSHintSource(fs billy.Filesystem, dec *Decoder) *FSHintSource {
	if dec == nil {
		dec = &Decoder{}
	}
	return &FSHintSource{fs: fs, dec: dec}
}

// Fetch implements graph.HintSource.
func (s *FSHintSource) Fetch(ctx context.Context, segment string) ([]api.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := graph.HintPath(segment)
	body, err := util.ReadFile(s.fs, name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrHintNotFound)
		}
		return nil, fmt.Errorf("read hint %s: %w", name, err)
	}
	recs, err := s.dec.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("decode hint %s: %w", name, err)
	}
	return recs, nil
}

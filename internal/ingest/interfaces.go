package ingest

import (
	"errors"

	"github.com/agentic-research/lifecards/internal/graph"
)

// ErrHintNotFound is returned by every HintSource here when a segment has no
// hint resource. It is the store's sentinel, so the loader can tell a
// missing hint from a broken one.
var ErrHintNotFound = graph.ErrHintNotFound

// ErrUndecodable is returned when a hint body is neither a record, a list of
// records, nor a JSONPath selection of them.
var ErrUndecodable = errors.New("undecodable hint")

// HintTarget receives raw hint bodies keyed by segment identity.
// SQLiteHintWriter implements it for the build command.
type HintTarget interface {
	Put(segment string, body []byte) error
}

// Interface compliance
var (
	_ graph.HintSource = (*FSHintSource)(nil)
	_ graph.HintSource = (*SQLiteHintSource)(nil)
	_ HintTarget       = (*SQLiteHintWriter)(nil)
)

package graph

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/agentic-research/lifecards/api"
	"golang.org/x/sync/singleflight"
)

// DefaultLimit caps a query window when the caller gives no limit.
const DefaultLimit = 999

// Store is the interface the reconciler and the CLI program against.
// This allows us to swap the backend later (Memory -> SQLite).
type Store interface {
	Write(records ...api.Record) ([]string, error)
	Load(ctx context.Context, identity string) error
	Query(ctx context.Context, f Filter, observer Observer) *Subscription
	Delete(identity string) error
}

// HintSource fetches the descriptor records declared for one path segment.
// It returns an error wrapping ErrHintNotFound when the segment has no hint
// resource at all.
type HintSource interface {
	Fetch(ctx context.Context, segment string) ([]api.Record, error)
}

// HintSourceFunc adapts a function to HintSource.
type HintSourceFunc func(ctx context.Context, segment string) ([]api.Record, error)

// Fetch implements HintSource.
func (f HintSourceFunc) Fetch(ctx context.Context, segment string) ([]api.Record, error) {
	return f(ctx, segment)
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithHints sets the collaborator the lazy loader fetches segments from.
// A store without hints only ever contains what callers write.
func WithHints(h HintSource) Option {
	return func(s *MemoryStore) { s.hints = h }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *MemoryStore) {
		if l != nil {
			s.log = l
		}
	}
}

// WithDefaultLimit changes the window applied to queries with no limit.
func WithDefaultLimit(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.limit = n
		}
	}
}

// -----------------------------------------------------------------------------
// In-memory record store
// -----------------------------------------------------------------------------

// MemoryStore owns every record, keyed by identity, in insertion order.
// Insertion order is the default result order for queries.
type MemoryStore struct {
	mu       sync.RWMutex
	records  []api.Record      // insertion ordered
	index    map[string]uint32 // identity → position in records
	tags     *bitmapIndex      // tag → positions
	parents  *bitmapIndex      // parent identity → positions
	counters map[string]int    // parent identity → last minted n<k>

	hints  HintSource
	loadMu sync.Mutex
	loaded map[string]loadState // segment → memo
	flight singleflight.Group

	// Background work (seeds, async loads) that queries must wait for.
	// Jobs run one at a time in the order they were queued.
	pendMu   sync.Mutex
	pending  []chan struct{}
	queue    []job
	draining bool

	limit int
	log   *slog.Logger
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		index:    make(map[string]uint32),
		tags:     newBitmapIndex(),
		parents:  newBitmapIndex(),
		counters: make(map[string]int),
		loaded:   make(map[string]loadState),
		limit:    DefaultLimit,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Write stores records and returns their derived identities in order.
// Identities are derived for every record before anything is stored: if
// any record is malformed the whole write is rejected, nothing is stored,
// and no localId counter advances.
//
// Writing an identity that already exists merges into the stored record.
// Fields already present on the stored record win; fields only the
// incoming record has are adopted.
func (s *MemoryStore) Write(records ...api.Record) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counters := maps.Clone(s.counters)
	staged := make([]api.Record, 0, len(records))
	for i, r := range records {
		rec, err := DeriveIdentity(r, counters)
		if err != nil {
			err = fmt.Errorf("write item %d: %w", i, err)
			s.log.Error("rejecting write", "err", err, "items", len(records))
			return nil, err
		}
		staged = append(staged, rec)
	}
	s.counters = counters

	ids := make([]string, len(staged))
	for i, rec := range staged {
		s.put(rec)
		ids[i] = rec.Identity()
	}
	return ids, nil
}

// put stores or merges one derived record. Must be called with s.mu held.
func (s *MemoryStore) put(rec api.Record) {
	id := rec.Identity()
	if rec.Has(api.FieldTags) {
		rec[api.FieldTags] = NormalizeTags(rec.Tags())
	}

	if pos, ok := s.index[id]; ok {
		s.log.Warn("merging into existing record", "identity", id, "err", ErrDuplicateIdentity)
		existing := s.records[pos]
		_, hadTags := existing[api.FieldTags]
		for k, v := range rec {
			if _, present := existing[k]; !present {
				existing[k] = v
			}
		}
		if !hadTags && existing.Has(api.FieldTags) {
			s.tags.addAll(existing.Tags(), pos)
		}
		return
	}

	pos := uint32(len(s.records))
	s.records = append(s.records, rec)
	s.index[id] = pos
	if p := rec.Parent(); p != "" {
		s.parents.add(p, pos)
	}
	s.tags.addAll(rec.Tags(), pos)
	s.log.Debug("stored record", "identity", id)
}

// Get returns a shallow copy of the record stored under identity. It does
// not trigger lazy loading.
func (s *MemoryStore) Get(identity string) (api.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.index[identity]
	if !ok {
		return nil, ErrNotFound
	}
	return s.records[pos].Clone(), nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// TagCount returns how many records carry the (normalized) tag.
func (s *MemoryStore) TagCount(tag string) int {
	t := NormalizeTags([]string{tag})
	if len(t) == 0 {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int(s.tags.count(t[0]))
}

// Delete is a placeholder: records are never removed today.
func (s *MemoryStore) Delete(identity string) error {
	return fmt.Errorf("delete %s: %w", identity, ErrNotImplemented)
}

// Seed writes records in the background. Queries issued afterwards wait
// for the write to land.
func (s *MemoryStore) Seed(records ...api.Record) {
	s.background(func() {
		_, _ = s.Write(records...) // logged by Write
	})
}

// LoadAsync lazily loads identity in the background. Queries issued
// afterwards wait for the load to finish.
func (s *MemoryStore) LoadAsync(ctx context.Context, identity string) {
	s.background(func() {
		if err := s.Load(ctx, identity); err != nil {
			s.log.WarnContext(ctx, "background load aborted", "identity", identity, "err", err)
		}
	})
}

type job struct {
	fn   func()
	done chan struct{}
}

// background queues fn behind every job queued before it. A single
// goroutine drains the queue and exits once it is empty.
func (s *MemoryStore) background(fn func()) {
	j := job{fn: fn, done: make(chan struct{})}
	s.pendMu.Lock()
	s.pending = append(s.pending, j.done)
	s.queue = append(s.queue, j)
	start := !s.draining
	s.draining = true
	s.pendMu.Unlock()
	if start {
		go s.drain()
	}
}

func (s *MemoryStore) drain() {
	for {
		s.pendMu.Lock()
		if len(s.queue) == 0 {
			s.draining = false
			s.pendMu.Unlock()
			return
		}
		j := s.queue[0]
		s.queue = s.queue[1:]
		s.pendMu.Unlock()

		j.fn()
		close(j.done)
	}
}

// Wait blocks until every background write or load queued so far, and any
// queued while waiting, has finished.
func (s *MemoryStore) Wait(ctx context.Context) error {
	for {
		s.pendMu.Lock()
		for len(s.pending) > 0 && isClosed(s.pending[0]) {
			s.pending = s.pending[1:]
		}
		if len(s.pending) == 0 {
			s.pendMu.Unlock()
			return nil
		}
		head := s.pending[0]
		s.pendMu.Unlock()

		select {
		case <-head:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// Interface compliance
var _ Store = (*MemoryStore)(nil)

package graph

import (
	"context"
	"errors"
	"fmt"
)

type loadState int

const (
	loadComplete loadState = iota + 1
	// loadIncomplete is the sentinel for a segment whose hint could not be
	// fetched. It is never retried and never matches a query.
	loadIncomplete
)

// Load walks identity from the root down and fetches the hint resource of
// every segment not read before, writing whatever records it yields.
// Each segment is fetched at most once for the life of the store; a failed
// fetch is remembered as incomplete rather than retried. Concurrent loads of
// the same segment share one fetch.
//
// Fetch failures are logged, not returned. The only error is the context's.
func (s *MemoryStore) Load(ctx context.Context, identity string) error {
	if s.hints == nil {
		return nil
	}
	for _, seg := range Segments(identity) {
		if err := s.loadSegment(ctx, seg); err != nil {
			return err
		}
	}
	return nil
}

// Reload forgets the memo for one segment and fetches it again. Records it
// yields merge into the store with the usual existing-wins policy.
func (s *MemoryStore) Reload(ctx context.Context, segment string) error {
	s.loadMu.Lock()
	delete(s.loaded, segment)
	s.loadMu.Unlock()
	return s.loadSegment(ctx, segment)
}

// Loaded reports whether segment has been fetched, successfully or not.
func (s *MemoryStore) Loaded(segment string) bool {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	return s.loaded[segment] != 0
}

// Incomplete reports whether segment was marked incomplete.
func (s *MemoryStore) Incomplete(segment string) bool {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	return s.loaded[segment] == loadIncomplete
}

func (s *MemoryStore) loadSegment(ctx context.Context, seg string) error {
	if s.Loaded(seg) {
		return nil
	}
	_, err, _ := s.flight.Do(seg, func() (any, error) {
		if s.Loaded(seg) {
			return nil, nil
		}
		records, err := s.hints.Fetch(ctx, seg)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				// Not memoized: a later caller may still succeed.
				return nil, ctxErr
			}
			s.markIncomplete(ctx, seg, err)
			return nil, nil
		}
		if len(records) > 0 {
			if _, err := s.Write(records...); err != nil {
				s.markIncomplete(ctx, seg, err)
				return nil, nil
			}
		}
		s.mark(seg, loadComplete)
		s.log.DebugContext(ctx, "loaded hint segment", "segment", seg, "records", len(records))
		return nil, nil
	})
	return err
}

func (s *MemoryStore) markIncomplete(ctx context.Context, seg string, cause error) {
	s.mark(seg, loadIncomplete)
	err := fmt.Errorf("%w: %s: %w", ErrIncompleteLoad, seg, cause)
	if errors.Is(cause, ErrHintNotFound) {
		s.log.DebugContext(ctx, "no hint for segment", "segment", seg, "err", err)
		return
	}
	s.log.WarnContext(ctx, "hint segment incomplete", "segment", seg, "err", err)
}

func (s *MemoryStore) mark(seg string, st loadState) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	s.loaded[seg] = st
}

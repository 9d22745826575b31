package graph

import (
	"context"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/agentic-research/lifecards/api"
)

// Filter selects records. Identity short-circuits everything else and
// ignores the window. Parent is an exact match, Includes a substring match
// against the candidate's parent, and Tags requires every listed tag.
// Extra holds criteria nobody understands yet; they are ignored.
type Filter struct {
	Identity string
	Parent   string
	Includes string
	Tags     []string
	Offset   int
	Limit    int
	Handle   string
	Extra    map[string]any
}

// Observer receives the full result set of a query exactly once.
type Observer func(results []api.Record)

// FilterFrom builds a Filter from a declarative query object.
func FilterFrom(q api.Record) Filter {
	var f Filter
	f.Apply(q)
	return f
}

// Apply overwrites the criteria named in q and leaves the others alone, so
// a durable filter keeps its window across repeated applications.
func (f *Filter) Apply(q api.Record) {
	for k, v := range q {
		switch k {
		case api.QueryIdentity:
			f.Identity, _ = v.(string)
		case api.QueryParent:
			f.Parent, _ = v.(string)
		case api.QueryIncludes:
			f.Includes, _ = v.(string)
		case api.QueryTags:
			f.Tags = api.Record{api.FieldTags: v}.Tags()
		case api.QueryOffset:
			f.Offset = toInt(v)
		case api.QueryLimit:
			f.Limit = toInt(v)
		case api.QueryHandle:
			f.Handle, _ = v.(string)
		default:
			if f.Extra == nil {
				f.Extra = make(map[string]any)
			}
			f.Extra[k] = v
		}
	}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case int32:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// Query matches f against the store and hands the results to observer,
// exactly once, before returning. An empty result is a valid delivery.
//
// When f names an identity or a parent, that path is lazily loaded first.
// Every pending background write or load is awaited before matching, so a
// query never races a load already in flight.
//
// Results are shallow copies in insertion order, windowed by Offset and
// Limit. The returned handle is already closed: today every query is a
// one-shot delivery.
func (s *MemoryStore) Query(ctx context.Context, f Filter, observer Observer) *Subscription {
	sub := newSubscription(f.Handle)
	if observer == nil {
		s.log.ErrorContext(ctx, "query has no observer", "handle", sub.Handle())
		sub.Cancel()
		return sub
	}

	for _, p := range []string{f.Identity, f.Parent} {
		if p == "" {
			continue
		}
		if err := s.Load(ctx, p); err != nil {
			s.log.WarnContext(ctx, "lazy load aborted", "identity", p, "err", err)
		}
	}
	if err := s.Wait(ctx); err != nil {
		s.log.WarnContext(ctx, "query did not wait for pending loads", "err", err)
	}

	if err := sub.deliver(observer, s.match(f)); err != nil {
		s.log.WarnContext(ctx, "query result dropped", "handle", sub.Handle(), "err", err)
	}
	return sub
}

func (s *MemoryStore) match(f Filter) []api.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []api.Record{}
	if f.Identity != "" {
		if pos, ok := s.index[f.Identity]; ok {
			results = append(results, s.records[pos].Clone())
		}
		return results
	}

	offset := max(f.Offset, 0)
	limit := f.Limit
	if limit <= 0 {
		limit = s.limit
	}
	tags := NormalizeTags(f.Tags)

	visit := func(pos uint32) bool {
		rec := s.records[pos]
		if !matches(rec, f, tags) {
			return true
		}
		if offset > 0 {
			offset--
			return true
		}
		results = append(results, rec.Clone())
		limit--
		return limit > 0
	}

	candidates := s.candidates(f.Parent, tags)
	if candidates == nil {
		for i := range s.records {
			if !visit(uint32(i)) {
				break
			}
		}
		return results
	}
	it := candidates.Iterator()
	for it.HasNext() {
		if !visit(it.Next()) {
			break
		}
	}
	return results
}

// candidates narrows the scan using the parent and tag bitmaps. A nil
// result means no index applies and every record must be visited.
func (s *MemoryStore) candidates(parent string, tags []string) *roaring.Bitmap {
	var bm *roaring.Bitmap
	if len(tags) > 0 {
		bm = s.tags.intersect(tags)
	}
	if parent != "" {
		pb := s.parents.intersect([]string{parent})
		if bm == nil {
			bm = pb
		} else {
			bm.And(pb)
		}
	}
	return bm
}

func matches(rec api.Record, f Filter, tags []string) bool {
	parent := rec.Parent()
	if f.Parent != "" && parent != f.Parent {
		return false
	}
	if f.Includes != "" && (parent == "" || !strings.Contains(parent, f.Includes)) {
		return false
	}
	have := rec.Tags()
	for _, want := range tags {
		if !slices.Contains(have, want) {
			return false
		}
	}
	return true
}

package graph

import (
	"strings"

	"github.com/RoaringBitmap/roaring"
	"golang.org/x/text/cases"
)

// bitmapIndex maps a key (a tag, a parent identity) to the set of record
// positions carrying it. Positions are insertion indexes into the store's
// record slice, so iterating a bitmap in ascending order yields records in
// insertion order.
type bitmapIndex struct {
	sets map[string]*roaring.Bitmap
}

func newBitmapIndex() *bitmapIndex {
	return &bitmapIndex{sets: make(map[string]*roaring.Bitmap)}
}

func (x *bitmapIndex) add(key string, pos uint32) {
	bm, ok := x.sets[key]
	if !ok {
		bm = roaring.New()
		x.sets[key] = bm
	}
	bm.Add(pos)
}

func (x *bitmapIndex) addAll(keys []string, pos uint32) {
	for _, k := range keys {
		x.add(k, pos)
	}
}

// count returns how many positions carry key.
func (x *bitmapIndex) count(key string) uint64 {
	if bm, ok := x.sets[key]; ok {
		return bm.GetCardinality()
	}
	return 0
}

// intersect returns the positions carrying every key. A key nobody carries
// yields an empty bitmap. The result is a fresh bitmap the caller owns.
func (x *bitmapIndex) intersect(keys []string) *roaring.Bitmap {
	var out *roaring.Bitmap
	for _, k := range keys {
		bm, ok := x.sets[k]
		if !ok {
			return roaring.New()
		}
		if out == nil {
			out = bm.Clone()
			continue
		}
		out.And(bm)
	}
	if out == nil {
		return roaring.New()
	}
	return out
}

// NormalizeTags trims, case-folds and de-duplicates tags, keeping first
// occurrence order and dropping empties.
func NormalizeTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	fold := cases.Fold()
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = fold.String(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

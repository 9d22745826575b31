package graph

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/agentic-research/lifecards/api"
)

// Identity path helpers. These are pure functions with no store dependency;
// the store, the loader and the reconciler all derive paths through them.

// Join joins path segments into one identity. Leading and trailing slashes
// of every segment are folded, "." and ".." are collapsed, and the result
// keeps the absolute leading slash only when the first segment had one.
func Join(segments ...string) string {
	return path.Join(segments...)
}

// ValidIdentity reports whether id is a canonical absolute identity: it
// starts with "/", has no trailing slash (except the lone root), and has no
// empty, "." or ".." segments.
func ValidIdentity(id string) bool {
	if !strings.HasPrefix(id, "/") {
		return false
	}
	return path.Clean(id) == id
}

// Split breaks an identity into its parent and local id. The root has no
// parent; ok is false for it.
// E.g. "/site/splash" → ("/site", "splash", true), "/a" → ("/", "a", true).
func Split(identity string) (parent, localID string, ok bool) {
	if identity == api.Root || identity == "" {
		return "", "", false
	}
	i := strings.LastIndex(identity, "/")
	if i < 0 {
		return "", identity, false
	}
	parent = identity[:i]
	if parent == "" {
		parent = api.Root
	}
	return parent, identity[i+1:], true
}

// Segments lists every path segment from the root down to identity,
// inclusive. E.g. "/a/b" → ["/", "/a", "/a/b"].
func Segments(identity string) []string {
	if !ValidIdentity(identity) {
		return nil
	}
	out := []string{api.Root}
	if identity == api.Root {
		return out
	}
	cur := ""
	for _, part := range strings.Split(identity[1:], "/") {
		cur += "/" + part
		out = append(out, cur)
	}
	return out
}

// HintPath returns the relative location of the hint resource for a
// directory-like segment: "segment/.{leaf}.hints". The root's resource is
// ".hints".
func HintPath(segment string) string {
	_, leaf, ok := Split(segment)
	if !ok {
		return ".hints"
	}
	return strings.TrimPrefix(segment, "/") + "/." + leaf + ".hints"
}

// SegmentForHintPath is the inverse of HintPath. It returns false for paths
// that do not follow the naming convention.
func SegmentForHintPath(rel string) (string, bool) {
	rel = strings.TrimPrefix(path.Clean("/"+rel), "/")
	if rel == ".hints" {
		return api.Root, true
	}
	dir, file := path.Split(rel)
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" || !strings.HasPrefix(file, ".") || !strings.HasSuffix(file, ".hints") {
		return "", false
	}
	leaf := strings.TrimSuffix(strings.TrimPrefix(file, "."), ".hints")
	if path.Base(dir) != leaf {
		return "", false
	}
	return "/" + dir, true
}

// DeriveIdentity completes the identity triple of a record and returns the
// completed copy. Exactly one half may be supplied: either identity, from
// which parent and localId are split off, or parent (with an optional
// localId) from which identity is joined. A parent with no localId mints
// "n<k>" from the per-parent counter in counters, which is advanced.
func DeriveIdentity(rec api.Record, counters map[string]int) (api.Record, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", ErrMalformedRecord)
	}
	out := rec.Clone()

	identity, err := stringField(out, api.FieldIdentity)
	if err != nil {
		return nil, err
	}
	parent, err := stringField(out, api.FieldParent)
	if err != nil {
		return nil, err
	}
	localID, err := stringField(out, api.FieldLocalID)
	if err != nil {
		return nil, err
	}

	if identity != "" && !ValidIdentity(identity) {
		return nil, fmt.Errorf("%w: identity %q must start with a slash and must not end with one", ErrMalformedRecord, identity)
	}
	if parent != "" && !ValidIdentity(parent) {
		return nil, fmt.Errorf("%w: parent %q must start with a slash and must not end with one", ErrMalformedRecord, parent)
	}
	if strings.Contains(localID, "/") || localID == "." || localID == ".." {
		return nil, fmt.Errorf("%w: localId %q may not contain a slash", ErrMalformedRecord, localID)
	}

	switch {
	case identity != "":
		p, l, ok := Split(identity)
		if parent != "" && parent != p {
			return nil, fmt.Errorf("%w: parent %q disagrees with identity %q", ErrMalformedRecord, parent, identity)
		}
		if localID != "" && localID != l {
			return nil, fmt.Errorf("%w: localId %q disagrees with identity %q", ErrMalformedRecord, localID, identity)
		}
		out[api.FieldLocalID] = l
		if ok {
			out[api.FieldParent] = p
		} else {
			delete(out, api.FieldParent)
		}
	case parent != "" && localID == "":
		counters[parent]++
		localID = "n" + strconv.Itoa(counters[parent])
		out[api.FieldLocalID] = localID
		out[api.FieldIdentity] = Join(parent, localID)
	case parent != "":
		out[api.FieldIdentity] = Join(parent, localID)
	default:
		return nil, fmt.Errorf("%w: no identity or parent", ErrMalformedRecord)
	}
	return out, nil
}

func stringField(rec api.Record, key string) (string, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrMalformedRecord, key, v)
	}
	return s, nil
}

package api

import (
	"maps"
	"strings"
)

// Reserved record fields. Everything else on a Record is presentation data
// that the store carries without interpreting.
const (
	FieldIdentity = "identity"
	FieldParent   = "parent"
	FieldLocalID  = "localId"
	FieldTags     = "tags"
	FieldChildren = "children"
	FieldQuery    = "query"
)

// Presentation fields read by the reconciler.
const (
	FieldKind          = "kind"
	FieldContent       = "content"
	FieldText          = "text"
	FieldMarkdown      = "markdown"
	FieldStylize       = "stylize"
	FieldClasses       = "classes"
	FieldQueryRender   = "queryrender"
	FieldKindChildren  = "kindchildren"
	FieldDefault       = "default"
	FieldLink          = "link"
	FieldHref          = "href"
	FieldArt           = "art"
	FieldLabel         = "label"
	FieldStyle         = "style"
	FieldQueryWildcard = "*"
)

// Filter keys accepted in a declarative query.
const (
	QueryIdentity = "identity"
	QueryParent   = "parent"
	QueryIncludes = "includes"
	QueryTags     = "tags"
	QueryOffset   = "offset"
	QueryLimit    = "limit"
	QueryHandle   = "handle"
)

// Root is the identity of the top of the forest.
const Root = "/"

// Record is the open field map every descriptor, blob and stored entry uses.
type Record map[string]any

// Clone returns a shallow copy. Nested maps and slices are shared.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// String returns the named field when it holds a string.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Has reports whether the field is present, whatever its value.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Identity is shorthand for r.String(FieldIdentity).
func (r Record) Identity() string { return r.String(FieldIdentity) }

// Parent is shorthand for r.String(FieldParent).
func (r Record) Parent() string { return r.String(FieldParent) }

// LocalID is shorthand for r.String(FieldLocalID).
func (r Record) LocalID() string { return r.String(FieldLocalID) }

// Kind is shorthand for r.String(FieldKind).
func (r Record) Kind() string { return r.String(FieldKind) }

// Tags returns the record's tag list. Stored records always carry []string;
// freshly decoded ones may carry []any or a comma separated string.
func (r Record) Tags() []string {
	switch v := r[FieldTags].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := t.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return strings.Split(v, ",")
	default:
		return nil
	}
}

// Children returns the inline child descriptors, skipping entries that are
// not objects.
func (r Record) Children() []Record {
	var raw []any
	switch v := r[FieldChildren].(type) {
	case []Record:
		return v
	case []map[string]any:
		out := make([]Record, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out
	case []any:
		raw = v
	default:
		return nil
	}
	out := make([]Record, 0, len(raw))
	for _, c := range raw {
		switch m := c.(type) {
		case Record:
			out = append(out, m)
		case map[string]any:
			out = append(out, m)
		}
	}
	return out
}

// Map returns a nested object field as a Record.
func (r Record) Map(key string) (Record, bool) {
	switch v := r[key].(type) {
	case Record:
		return v, true
	case map[string]any:
		return v, true
	default:
		return nil, false
	}
}

// Strings returns a field that may be a single string or a list of strings.
func (r Record) Strings(key string) []string {
	switch v := r[key].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

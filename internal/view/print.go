package view

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/agentic-research/lifecards/internal/render"
)

// Fprint writes b and its descendants as an indented outline, one box per
// line. Style and attribute keys are sorted so the output is stable.
func Fprint(w io.Writer, b *Box) error {
	return fprint(w, b, 0)
}

func fprint(w io.Writer, b *Box, depth int) error {
	var sb strings.Builder
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(b.Tag)
	if b.ID != "" {
		fmt.Fprintf(&sb, " id=%s", b.ID)
	}
	if len(b.Classes) > 0 {
		fmt.Fprintf(&sb, " class=%s", strings.Join(b.Classes, ","))
	}
	if len(b.Style) > 0 {
		props := sortedKeys(b.Style)
		decl := make([]string, len(props))
		for i, k := range props {
			decl[i] = k + ":" + b.Style[k]
		}
		fmt.Fprintf(&sb, " style=%q", strings.Join(decl, ";"))
	}
	for _, k := range sortedKeys(b.Attrs) {
		fmt.Fprintf(&sb, " %s=%q", k, b.Attrs[k])
	}
	if b.Format != render.FormatNone {
		fmt.Fprintf(&sb, " %s=%q", b.Format, b.Content)
	}
	sb.WriteByte('\n')
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}
	for _, c := range b.Children {
		if err := fprint(w, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

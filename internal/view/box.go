// Package view is an in-memory view tree the reconciler can drive: every
// kind builds a Box, and Fprint renders the tree as indented text.
package view

import (
	"slices"

	"github.com/agentic-research/lifecards/internal/render"
)

// Box is a generic view primitive.
type Box struct {
	Tag      string
	ID       string
	Classes  []string
	Style    map[string]string
	Attrs    map[string]string
	Format   render.Format
	Content  string
	Children []*Box
}

// NewBox creates an empty box.
func NewBox(tag string) *Box {
	return &Box{Tag: tag, Style: make(map[string]string), Attrs: make(map[string]string)}
}

func (b *Box) box() *Box { return b }

// boxer is implemented by *Box and by every kind that embeds one.
type boxer interface{ box() *Box }

// SetID implements render.Element.
func (b *Box) SetID(id string) { b.ID = id }

// AddClass implements render.Element. Classes already present are skipped.
func (b *Box) AddClass(classes ...string) {
	for _, c := range classes {
		if c != "" && !slices.Contains(b.Classes, c) {
			b.Classes = append(b.Classes, c)
		}
	}
}

// ClearClasses implements render.Element.
func (b *Box) ClearClasses() { b.Classes = nil }

// SetStyle implements render.Element.
func (b *Box) SetStyle(prop, value string) { b.Style[prop] = value }

// SetContent implements render.Element.
func (b *Box) SetContent(format render.Format, body string) {
	b.Format, b.Content = format, body
}

// AppendChild implements render.Element.
func (b *Box) AppendChild(child render.Element) {
	if c, ok := child.(boxer); ok {
		b.Children = append(b.Children, c.box())
	}
}

// RemoveChild implements render.Element.
func (b *Box) RemoveChild(child render.Element) {
	c, ok := child.(boxer)
	if !ok {
		return
	}
	target := c.box()
	b.Children = slices.DeleteFunc(b.Children, func(x *Box) bool { return x == target })
}

// RemoveChildren implements render.Element.
func (b *Box) RemoveChildren() { b.Children = nil }

var _ render.Element = (*Box)(nil)

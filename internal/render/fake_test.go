package render

import (
	"slices"

	"github.com/agentic-research/lifecards/api"
)

// fakeElem records what the reconciler asked of it.
type fakeElem struct {
	kind     string
	id       string
	classes  []string
	style    map[string]string
	format   Format
	body     string
	children []*fakeElem
	resolved int
}

func (e *fakeElem) SetID(id string) { e.id = id }
func (e *fakeElem) AddClass(cs ...string) {
	for _, c := range cs {
		if !slices.Contains(e.classes, c) {
			e.classes = append(e.classes, c)
		}
	}
}
func (e *fakeElem) ClearClasses()               { e.classes = nil }
func (e *fakeElem) SetStyle(prop, value string) { e.style[prop] = value }
func (e *fakeElem) SetContent(f Format, body string) {
	e.format, e.body = f, body
}
func (e *fakeElem) AppendChild(c Element) { e.children = append(e.children, unwrap(c)) }
func (e *fakeElem) RemoveChild(c Element) {
	target := unwrap(c)
	e.children = slices.DeleteFunc(e.children, func(x *fakeElem) bool { return x == target })
}
func (e *fakeElem) RemoveChildren() { e.children = nil }

func (e *fakeElem) childIDs() []string {
	out := []string{}
	for _, c := range e.children {
		out = append(out, c.id)
	}
	return out
}

// resolvingElem also implements Resolver.
type resolvingElem struct{ *fakeElem }

func (e resolvingElem) Resolve(d api.Record) {
	e.resolved++
	if l := d.String(api.FieldLink); l != "" {
		e.SetContent(FormatText, "link:"+l)
	}
}

type fakeKinds struct {
	reg   *Registry
	built []string
}

func newFakeKinds() *fakeKinds {
	fk := &fakeKinds{reg: NewRegistry()}
	plain := func(kind string) Constructor {
		return func(api.Record) Element {
			fk.built = append(fk.built, kind)
			return &fakeElem{kind: kind, style: map[string]string{}}
		}
	}
	for _, k := range []string{"div", "card", "site"} {
		_ = fk.reg.Register(k, Kind{New: plain(k)})
	}
	_ = fk.reg.Register("area", Kind{New: plain("area"), Behavior: Collection})
	_ = fk.reg.Register("routable", Kind{New: plain("routable"), Behavior: Routing})
	_ = fk.reg.Register("link", Kind{New: func(api.Record) Element {
		fk.built = append(fk.built, "link")
		return resolvingElem{&fakeElem{kind: "link", style: map[string]string{}}}
	}})
	_ = fk.reg.Register("broken", Kind{New: func(api.Record) Element { return nil }})
	return fk
}

func elemOf(n *Node) *fakeElem { return unwrap(n.Element()) }

func unwrap(el Element) *fakeElem {
	switch e := el.(type) {
	case *fakeElem:
		return e
	case resolvingElem:
		return e.fakeElem
	}
	return nil
}

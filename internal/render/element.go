package render

import "github.com/agentic-research/lifecards/api"

// Format says how an element should interpret its content body.
type Format int

const (
	FormatNone Format = iota
	FormatMarkdown
	FormatText
	FormatRaw
)

func (f Format) String() string {
	switch f {
	case FormatMarkdown:
		return "markdown"
	case FormatText:
		return "text"
	case FormatRaw:
		return "raw"
	default:
		return "none"
	}
}

// Element is the concrete view primitive a kind constructs. The reconciler
// never paints anything itself; it only drives these calls.
type Element interface {
	SetID(id string)
	AddClass(classes ...string)
	ClearClasses()
	SetStyle(prop, value string)
	SetContent(format Format, body string)

	AppendChild(child Element)
	RemoveChild(child Element)
	RemoveChildren()
}

// Resolver is implemented by elements with kind specific behaviour. It runs
// after the generic field appliers on every resolve.
type Resolver interface {
	Resolve(d api.Record)
}

package render

import (
	"fmt"
	"slices"

	"github.com/agentic-research/lifecards/api"
)

// applier copies one group of descriptor fields onto an element.
type applier func(e Element, d api.Record)

// appliers run in order on every resolve, before kind specific behaviour.
var appliers = []applier{
	applyClasses,
	applyStylize,
	applyText,
	applyID,
}

func applyClasses(e Element, d api.Record) {
	if cs := d.Strings(api.FieldClasses); len(cs) > 0 {
		e.AddClass(cs...)
	}
}

func applyStylize(e Element, d api.Record) {
	style, ok := d.Map(api.FieldStylize)
	if !ok {
		return
	}
	props := make([]string, 0, len(style))
	for k := range style {
		props = append(props, k)
	}
	slices.Sort(props)
	for _, k := range props {
		e.SetStyle(k, fmt.Sprint(style[k]))
	}
}

// applyText picks markdown over text over raw content. A descriptor with
// none of them leaves the element's content alone.
func applyText(e Element, d api.Record) {
	switch {
	case d.String(api.FieldMarkdown) != "":
		e.SetContent(FormatMarkdown, d.String(api.FieldMarkdown))
	case d.String(api.FieldText) != "":
		e.SetContent(FormatText, d.String(api.FieldText))
	case d.String(api.FieldContent) != "":
		e.SetContent(FormatRaw, d.String(api.FieldContent))
	}
}

func applyID(e Element, d api.Record) {
	e.SetID(d.Identity())
}

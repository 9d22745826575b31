package view

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/agentic-research/lifecards/api"
	"github.com/agentic-research/lifecards/internal/render"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultArt is the card image used when a record has none.
const DefaultArt = "/assets/bird.jpg"

var title = cases.Title(language.Und, cases.NoLower)

// label capitalizes the last segment of a path.
func label(p string) string {
	return title.String(path.Base(p))
}

func styled(tag string, style map[string]string) render.Constructor {
	return func(api.Record) render.Element {
		b := NewBox(tag)
		for k, v := range style {
			b.Style[k] = v
		}
		return b
	}
}

func plain(tag string) render.Constructor {
	return func(api.Record) render.Element { return NewBox(tag) }
}

// Register adds the built-in kinds to reg.
func Register(reg *render.Registry) error {
	kinds := map[string]render.Kind{
		"div":  {New: plain("div")},
		"base": {New: plain("base")},
		"p":    {New: plain("p")},
		"span": {New: plain("span")},
		"h1":   {New: plain("h1")},
		"h2":   {New: plain("h2")},
		"h3":   {New: plain("h3")},
		"area": {New: styled("area", map[string]string{
			"display":         "flex",
			"flex-wrap":       "wrap",
			"justify-content": "center",
			"max-width":       "1200px",
			"width":           "100%",
		}), Behavior: render.Collection},
		"nav": {New: styled("nav", map[string]string{
			"display":         "flex",
			"gap":             "10%",
			"justify-content": "center",
			"width":           "100%",
		})},
		"footer": {New: styled("footer", map[string]string{
			"text-align": "center",
			"width":      "100%",
		})},
		"routable": {New: plain("routable"), Behavior: render.Routing},
		"site":     {New: func(api.Record) render.Element { return &Site{NewBox("site")} }},
		"link":     {New: func(api.Record) render.Element { return &Link{NewBox("link")} }},
		"card":     {New: func(api.Record) render.Element { return &Card{NewBox("card")} }},
		"logo":     {New: func(api.Record) render.Element { return &Logo{NewBox("logo")} }},
	}
	for name, k := range kinds {
		if err := reg.Register(name, k); err != nil {
			return fmt.Errorf("register built-in kinds: %w", err)
		}
	}
	return nil
}

// Site lays its children out as a centered wrapping row.
type Site struct{ *Box }

// Resolve implements render.Resolver.
func (s *Site) Resolve(api.Record) {
	s.SetStyle("display", "flex")
	s.SetStyle("flex-wrap", "wrap")
	s.SetStyle("justify-content", "center")
	s.SetStyle("align-items", "center")
}

// Link is an anchor. Its label is the content, the text, or the capitalized
// last segment of the target, in that order.
type Link struct{ *Box }

// Resolve implements render.Resolver.
func (l *Link) Resolve(d api.Record) {
	href := d.String(api.FieldLink)
	l.Attrs["href"] = href
	switch {
	case d.String(api.FieldContent) != "":
		l.SetContent(render.FormatRaw, d.String(api.FieldContent))
	case d.String(api.FieldText) != "":
		l.SetContent(render.FormatText, d.String(api.FieldText))
	default:
		l.SetContent(render.FormatText, label(href))
	}
}

// Card shows a record as a labelled tile with art and tags.
type Card struct{ *Box }

// Resolve implements render.Resolver.
func (c *Card) Resolve(d api.Record) {
	c.Attrs["label"] = label(d.Identity())

	href := d.String(api.FieldHref)
	if href == "" {
		href = d.String(api.FieldLink)
	}
	if href == "" {
		href = d.Identity()
	}
	if href == "" {
		href = "#"
	}
	c.Attrs["href"] = href

	art := d.String(api.FieldArt)
	if art == "" {
		art = DefaultArt
	}
	c.Attrs["art"] = art

	if tags := d.Tags(); len(tags) > 0 {
		c.Attrs["tags"] = strings.Join(tags, ",")
	}
	if sponsor := d.String("sponsor"); sponsor != "" {
		c.Attrs["creator"] = sponsor
	}

	text := d.String(api.FieldText)
	if text == "" {
		text = d.String(api.FieldContent)
	}
	c.SetContent(render.FormatText, text)
}

// Logo renders a wordmark. Its style field is a space separated list of
// effects: small, multicolor, minimal, reflect, pivot.
type Logo struct{ *Box }

// Resolve implements render.Resolver.
func (l *Logo) Resolve(d api.Record) {
	effects := strings.Fields(d.String(api.FieldStyle))
	has := func(e string) bool { return slices.Contains(effects, e) }

	size, scrunch := "1310%", "10px"
	if has("small") {
		size, scrunch = "500%", "2px"
	}
	if !has("minimal") {
		l.SetStyle("font-size", size)
		l.SetStyle("letter-spacing", "-"+scrunch)
		l.SetStyle("font-weight", "bold")
	}
	if len(effects) > 0 {
		l.Attrs["effects"] = strings.Join(effects, ",")
	}
	if link := d.String(api.FieldLink); link != "" {
		l.Attrs["href"] = link
	}
}

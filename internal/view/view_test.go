package view

import (
	"bytes"
	"context"
	"testing"

	"github.com/agentic-research/lifecards/api"
	"github.com/agentic-research/lifecards/internal/graph"
	"github.com/agentic-research/lifecards/internal/nav"
	"github.com/agentic-research/lifecards/internal/render"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func siteStore(t *testing.T) *graph.MemoryStore {
	t.Helper()
	store := graph.NewMemoryStore()
	_, err := store.Write(
		api.Record{
			"identity": "/",
			"kind":     "site",
			"children": []any{
				map[string]any{
					"kind": "nav",
					"children": []any{
						map[string]any{"kind": "link", "link": "/splash", "content": "&nbsp;/&nbsp;"},
						map[string]any{"kind": "link", "link": "/usage"},
						map[string]any{"kind": "link", "link": "/design"},
					},
				},
				map[string]any{"kind": "routable", "default": "/splash"},
			},
		},
		api.Record{
			"identity": "/splash",
			"stylize":  map[string]any{"maxWidth": "800px", "margin": "auto"},
			"markdown": "# Lifecards\n",
		},
		api.Record{"identity": "/design", "kind": "area"},
		api.Record{"parent": "/design", "content": "Graph store", "tags": "store, Query"},
		api.Record{"identity": "/design/reconciler", "text": "Identity continuity", "art": "/assets/r.jpg"},
	)
	require.NoError(t, err)
	return store
}

func newSite(t *testing.T) (*render.Reconciler, *nav.Router, *Box) {
	t.Helper()
	reg := render.NewRegistry()
	require.NoError(t, Register(reg))
	router := nav.New()
	r, err := render.New(siteStore(t), reg, render.WithRouter(router))
	require.NoError(t, err)
	return r, router, NewBox("root")
}

func golden(t *testing.T, name string, root *Box) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Fprint(&buf, root))
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, buf.Bytes())
}

func TestSite_Golden(t *testing.T) {
	r, router, root := newSite(t)
	ctx := context.Background()

	_, err := r.Render(ctx, "/", root)
	require.NoError(t, err)
	golden(t, "site_root", root)

	router.Navigate(ctx, "/design")
	golden(t, "site_design", root)
}

func TestSite_NavigateBackReusesNodes(t *testing.T) {
	r, router, root := newSite(t)
	ctx := context.Background()

	site, err := r.Render(ctx, "/", root)
	require.NoError(t, err)
	routable, ok := site.Child("/v2")
	require.True(t, ok)
	splash := routable.Shown()
	require.NotNil(t, splash)

	router.Navigate(ctx, "/design")
	built := r.Constructed()
	router.Navigate(ctx, "/splash")
	assert.Same(t, splash, routable.Shown())
	assert.Equal(t, built, r.Constructed())

	// Re-rendering the root updates every node in place.
	_, err = r.Render(ctx, "/", root)
	require.NoError(t, err)
	assert.Equal(t, built, r.Constructed())
	assert.Len(t, root.Children, 1)
}

func TestRegister_Twice(t *testing.T) {
	reg := render.NewRegistry()
	require.NoError(t, Register(reg))
	assert.ErrorIs(t, Register(reg), render.ErrDuplicateKind)
	assert.NoError(t, reg.Validate(render.DefaultGenericKind))
	assert.Contains(t, reg.Kinds(), render.DefaultChildKind)
}

func TestLink_Label(t *testing.T) {
	tests := []struct {
		d      api.Record
		format render.Format
		want   string
	}{
		{api.Record{"link": "/getting started"}, render.FormatText, "Getting Started"},
		{api.Record{"link": "/usage", "text": "How"}, render.FormatText, "How"},
		{api.Record{"link": "/usage", "text": "How", "content": "<b>raw</b>"}, render.FormatRaw, "<b>raw</b>"},
	}
	for _, tt := range tests {
		l := &Link{NewBox("link")}
		l.Resolve(tt.d)
		assert.Equal(t, tt.format, l.Format)
		assert.Equal(t, tt.want, l.Content)
		assert.Equal(t, tt.d["link"], l.Attrs["href"])
	}
}

func TestCard_Defaults(t *testing.T) {
	c := &Card{NewBox("card")}
	c.Resolve(api.Record{})
	assert.Equal(t, "#", c.Attrs["href"])
	assert.Equal(t, DefaultArt, c.Attrs["art"])
	assert.NotContains(t, c.Attrs, "tags")

	c = &Card{NewBox("card")}
	c.Resolve(api.Record{"identity": "/a/b", "link": "/x", "tags": []string{"t1", "t2"}, "sponsor": "bird"})
	assert.Equal(t, "B", c.Attrs["label"])
	assert.Equal(t, "/x", c.Attrs["href"])
	assert.Equal(t, "t1,t2", c.Attrs["tags"])
	assert.Equal(t, "bird", c.Attrs["creator"])
}

func TestLogo_Effects(t *testing.T) {
	l := &Logo{NewBox("logo")}
	l.Resolve(api.Record{"style": "small center", "link": "/"})
	assert.Equal(t, "500%", l.Style["font-size"])
	assert.Equal(t, "-2px", l.Style["letter-spacing"])
	assert.Equal(t, "small,center", l.Attrs["effects"])
	assert.Equal(t, "/", l.Attrs["href"])

	l = &Logo{NewBox("logo")}
	l.Resolve(api.Record{"style": "minimal"})
	assert.NotContains(t, l.Style, "font-size")
}

func TestBox_Children(t *testing.T) {
	parent := NewBox("div")
	a, b := NewBox("p"), &Card{NewBox("card")}
	parent.AppendChild(a)
	parent.AppendChild(b)
	require.Len(t, parent.Children, 2)
	assert.Same(t, b.Box, parent.Children[1])

	parent.RemoveChild(a)
	assert.Equal(t, []*Box{b.Box}, parent.Children)
	parent.RemoveChildren()
	assert.Empty(t, parent.Children)

	parent.AddClass("x", "x", "", "y")
	assert.Equal(t, []string{"x", "y"}, parent.Classes)
}

func TestFprint(t *testing.T) {
	root := NewBox("root")
	child := NewBox("p")
	child.SetID("/a")
	child.AddClass("big", "bold")
	child.SetStyle("margin", "0")
	child.Attrs["href"] = "/b"
	child.SetContent(render.FormatText, `say "hi"`)
	root.AppendChild(child)

	var buf bytes.Buffer
	require.NoError(t, Fprint(&buf, root))
	assert.Equal(t, "root\n  p id=/a class=big,bold style=\"margin:0\" href=\"/b\" text=\"say \\\"hi\\\"\"\n", buf.String())
}

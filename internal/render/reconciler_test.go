package render

import (
	"context"
	"testing"

	"github.com/agentic-research/lifecards/api"
	"github.com/agentic-research/lifecards/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReconciler(t *testing.T, store *graph.MemoryStore, opts ...Option) (*Reconciler, *fakeKinds, *fakeElem) {
	t.Helper()
	fk := newFakeKinds()
	r, err := New(store, fk.reg, opts...)
	require.NoError(t, err)
	return r, fk, &fakeElem{style: map[string]string{}}
}

func kindsOf(nodes []*Node) []string {
	out := []string{}
	for _, n := range nodes {
		out = append(out, n.Kind())
	}
	return out
}

func TestReconciler_IdentityContinuity(t *testing.T) {
	r, _, root := newTestReconciler(t, graph.NewMemoryStore())
	ctx := context.Background()

	n, err := r.Mount(ctx, api.Record{
		"identity": "/a",
		"text":     "one",
		"children": []any{map[string]any{"content": "x"}},
	}, root)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Constructed())
	child, ok := n.Child("/a/v1")
	require.True(t, ok)

	err = r.Resolve(ctx, n, api.Record{
		"identity": "/a",
		"text":     "two",
		"children": []any{map[string]any{"content": "y"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Constructed(), "no node may be built for a known identity")
	assert.Equal(t, "two", elemOf(n).body)

	again, ok := n.Child("/a/v1")
	require.True(t, ok)
	assert.Same(t, child, again)
	assert.Equal(t, "y", elemOf(child).body)
	assert.Equal(t, FormatRaw, elemOf(child).format)
	assert.Len(t, elemOf(n).children, 1)
	assert.Len(t, root.children, 1)
}

func TestReconciler_RenderTwiceReusesRoot(t *testing.T) {
	store := graph.NewMemoryStore()
	_, err := store.Write(api.Record{"identity": "/page", "markdown": "# hi"})
	require.NoError(t, err)
	r, _, root := newTestReconciler(t, store)
	ctx := context.Background()

	first, err := r.Render(ctx, "/page", root)
	require.NoError(t, err)
	second, err := r.Render(ctx, "/page", root)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, r.Constructed())
	assert.Len(t, root.children, 1)
	assert.Equal(t, FormatMarkdown, elemOf(first).format)

	_, err = r.Render(ctx, "/missing", root)
	assert.ErrorIs(t, err, graph.ErrNotFound)
}

func TestReconciler_QueryKindCoercion(t *testing.T) {
	tests := []struct {
		name   string
		parent api.Record
		want   []string
	}{
		{"queryrender forces", api.Record{"queryrender": "card"}, []string{"card", "card", "card"}},
		{"kindchildren star keeps own", api.Record{"kindchildren": "*"}, []string{"link", "site", "div"}},
		{"default coercion", api.Record{}, []string{"card", "card", "card"}},
		{"kindchildren forces", api.Record{"kindchildren": "link"}, []string{"link", "link", "link"}},
		{"queryrender beats kindchildren", api.Record{"queryrender": "site", "kindchildren": "*"}, []string{"site", "site", "site"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := graph.NewMemoryStore()
			_, err := store.Write(
				api.Record{"parent": "/list", "kind": "link", "link": "/x"},
				api.Record{"parent": "/list", "kind": "site"},
				api.Record{"parent": "/list"},
			)
			require.NoError(t, err)
			r, _, root := newTestReconciler(t, store)

			d := tt.parent.Clone()
			d["identity"] = "/list"
			d["query"] = "*"
			n, err := r.Mount(context.Background(), d, root)
			require.NoError(t, err)
			assert.Equal(t, tt.want, kindsOf(n.Children()))
			assert.Equal(t, []string{"/list/n1", "/list/n2", "/list/n3"}, elemOf(n).childIDs())
		})
	}
}

func TestReconciler_UnknownKindFallsBack(t *testing.T) {
	r, fk, root := newTestReconciler(t, graph.NewMemoryStore())
	ctx := context.Background()

	n, err := r.Mount(ctx, api.Record{"identity": "/u", "kind": "hologram"}, root)
	require.NoError(t, err)
	assert.Equal(t, "div", n.Kind())

	n, err = r.Mount(ctx, api.Record{"identity": "/b", "kind": "broken"}, root)
	require.NoError(t, err)
	assert.Equal(t, "div", n.Kind())
	assert.Equal(t, []string{"div", "div"}, fk.built)
}

func TestReconciler_IdentityMismatch(t *testing.T) {
	r, _, root := newTestReconciler(t, graph.NewMemoryStore())
	ctx := context.Background()
	n, err := r.Mount(ctx, api.Record{"identity": "/a", "text": "mine"}, root)
	require.NoError(t, err)

	err = r.Resolve(ctx, n, api.Record{"identity": "/b", "text": "theirs"})
	assert.ErrorIs(t, err, ErrIdentityMismatch)
	assert.Equal(t, "/a", n.Identity())
	assert.Equal(t, "mine", elemOf(n).body)
	assert.Equal(t, "mine", n.Descriptor()["text"])
}

func TestReconciler_MismatchedChildDoesNotStopSiblings(t *testing.T) {
	store := graph.NewMemoryStore()
	r, _, root := newTestReconciler(t, store)
	ctx := context.Background()
	n, err := r.Mount(ctx, api.Record{
		"identity": "/p",
		"children": []any{map[string]any{"text": "a"}, map[string]any{"text": "b"}},
	}, root)
	require.NoError(t, err)

	// Corrupt one child's binding by hand; its sibling still updates.
	bad, _ := n.Child("/p/v1")
	bad.identity = "/somewhere/else"
	err = r.Resolve(ctx, n, api.Record{
		"identity": "/p",
		"children": []any{map[string]any{"text": "a2"}, map[string]any{"text": "b2"}},
	})
	require.NoError(t, err)
	good, _ := n.Child("/p/v2")
	assert.Equal(t, "b2", elemOf(good).body)
	assert.Equal(t, "a", elemOf(bad).body)
}

func TestReconciler_InlineIdentities(t *testing.T) {
	r, _, root := newTestReconciler(t, graph.NewMemoryStore())
	n, err := r.Mount(context.Background(), api.Record{
		"identity": "/p",
		"children": []any{
			map[string]any{"identity": "/elsewhere/x"},
			map[string]any{"localId": "named"},
			map[string]any{"text": "anon"},
			map[string]any{"localId": "bad/slash"},
		},
	}, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"/elsewhere/x", "/p/named", "/p/v3", "/p/v4"}, elemOf(n).childIDs())
}

func TestReconciler_Appliers(t *testing.T) {
	r, _, root := newTestReconciler(t, graph.NewMemoryStore())
	ctx := context.Background()
	n, err := r.Mount(ctx, api.Record{
		"identity": "/s",
		"classes":  []any{"a", "b"},
		"stylize":  map[string]any{"maxWidth": "800px", "margin": "auto"},
		"markdown": "# m",
		"text":     "t",
		"content":  "c",
	}, root)
	require.NoError(t, err)
	e := elemOf(n)
	assert.Equal(t, "/s", e.id)
	assert.Equal(t, []string{"a", "b"}, e.classes)
	assert.Equal(t, map[string]string{"maxWidth": "800px", "margin": "auto"}, e.style)
	assert.Equal(t, FormatMarkdown, e.format)
	assert.Equal(t, "# m", e.body)

	require.NoError(t, r.Resolve(ctx, n, api.Record{"identity": "/s", "classes": "c", "text": "t", "content": "c"}))
	assert.Equal(t, []string{"a", "b", "c"}, e.classes)
	assert.Equal(t, FormatText, e.format)
	assert.Equal(t, "t", e.body)

	require.NoError(t, r.Resolve(ctx, n, api.Record{"identity": "/s"}))
	assert.Equal(t, "t", e.body, "no text fields leaves content alone")
}

func TestReconciler_KindResolverRunsAfterAppliers(t *testing.T) {
	r, _, root := newTestReconciler(t, graph.NewMemoryStore())
	n, err := r.Mount(context.Background(), api.Record{"identity": "/l", "kind": "link", "link": "/usage", "text": "ignored"}, root)
	require.NoError(t, err)
	e := elemOf(n)
	assert.Equal(t, "link:/usage", e.body)
	assert.Equal(t, 1, e.resolved)
}

func TestReconciler_NilDescriptorClears(t *testing.T) {
	r, _, root := newTestReconciler(t, graph.NewMemoryStore())
	ctx := context.Background()
	n, err := r.Mount(ctx, api.Record{
		"identity": "/p",
		"classes":  "x",
		"children": []any{map[string]any{"text": "a"}},
	}, root)
	require.NoError(t, err)

	require.NoError(t, r.Resolve(ctx, n, nil))
	assert.Empty(t, elemOf(n).children)
	assert.Empty(t, elemOf(n).classes)
	assert.Empty(t, n.Children())
	assert.Equal(t, "/p", n.Identity())
}

func durableStore(t *testing.T) *graph.MemoryStore {
	t.Helper()
	store := graph.NewMemoryStore()
	_, err := store.Write(
		api.Record{"parent": "/x"},
		api.Record{"parent": "/x"},
		api.Record{"parent": "/x"},
	)
	require.NoError(t, err)
	return store
}

func TestReconciler_DurableQueryKeepsWindow(t *testing.T) {
	r, _, root := newTestReconciler(t, durableStore(t))
	ctx := context.Background()

	n, err := r.Mount(ctx, api.Record{"identity": "/p", "query": map[string]any{"parent": "/x", "limit": 1}}, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"/x/n1"}, elemOf(n).childIDs())

	require.NoError(t, r.Resolve(ctx, n, api.Record{"identity": "/p", "query": map[string]any{"offset": 1}}))
	assert.Equal(t, []string{"/x/n1", "/x/n2"}, elemOf(n).childIDs(), "stale children stay mounted")

	f, ok := n.Query()
	require.True(t, ok)
	assert.Equal(t, "/x", f.Parent)
	assert.Equal(t, 1, f.Offset)
	assert.Equal(t, 1, f.Limit)
	assert.Equal(t, "/p", f.Handle)
}

func TestReconciler_PruneStaleChildren(t *testing.T) {
	r, _, root := newTestReconciler(t, durableStore(t), WithPruneStaleChildren(true))
	ctx := context.Background()

	n, err := r.Mount(ctx, api.Record{"identity": "/p", "query": map[string]any{"parent": "/x", "limit": 1}}, root)
	require.NoError(t, err)
	require.NoError(t, r.Resolve(ctx, n, api.Record{"identity": "/p", "query": map[string]any{"offset": 1}}))
	assert.Equal(t, []string{"/x/n2"}, elemOf(n).childIDs())
	_, ok := n.Child("/x/n1")
	assert.False(t, ok)
}

func TestReconciler_CollectionQueriesChildren(t *testing.T) {
	store := graph.NewMemoryStore()
	_, err := store.Write(
		api.Record{"parent": "/gallery", "kind": "link"},
		api.Record{"parent": "/gallery"},
	)
	require.NoError(t, err)
	r, _, root := newTestReconciler(t, store, WithDefaultChildKind("site"))

	n, err := r.Mount(context.Background(), api.Record{"identity": "/gallery", "kind": "area"}, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"site", "site"}, kindsOf(n.Children()))
}

func TestReconciler_MalformedQueryIgnored(t *testing.T) {
	r, _, root := newTestReconciler(t, durableStore(t))
	n, err := r.Mount(context.Background(), api.Record{"identity": "/x", "query": "everything please"}, root)
	require.NoError(t, err)
	assert.Empty(t, n.Children())
	_, ok := n.Query()
	assert.False(t, ok)
}

func TestNew_RequiresGenericKind(t *testing.T) {
	_, err := New(graph.NewMemoryStore(), NewRegistry())
	assert.ErrorIs(t, err, ErrNoGenericKind)

	fk := newFakeKinds()
	_, err = New(graph.NewMemoryStore(), fk.reg, WithGenericKind("routable"))
	assert.ErrorIs(t, err, ErrNoGenericKind)
}

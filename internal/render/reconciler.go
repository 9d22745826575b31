package render

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/agentic-research/lifecards/api"
	"github.com/agentic-research/lifecards/internal/graph"
	"github.com/agentic-research/lifecards/internal/nav"
)

const (
	// DefaultChildKind is the kind query children are coerced to by default.
	DefaultChildKind = "card"
	// DefaultGenericKind is the fallback kind for unknown or missing kinds.
	DefaultGenericKind = "div"
)

// Querier is the part of the store the reconciler needs.
type Querier interface {
	Query(ctx context.Context, f graph.Filter, observer graph.Observer) *graph.Subscription
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.log = l
		}
	}
}

// WithRouter sets the navigation observer routing kinds subscribe to.
func WithRouter(rt *nav.Router) Option {
	return func(r *Reconciler) { r.router = rt }
}

// WithPruneStaleChildren unmounts children that a later pass no longer
// delivers. Off by default: children stay mounted once built.
func WithPruneStaleChildren(on bool) Option {
	return func(r *Reconciler) { r.prune = on }
}

// WithDefaultChildKind sets the kind query children are coerced to when
// their parent declares neither queryrender nor kindchildren.
func WithDefaultChildKind(kind string) Option {
	return func(r *Reconciler) {
		if kind != "" {
			r.childKind = kind
		}
	}
}

// WithGenericKind sets the fallback kind for unknown or missing kinds.
func WithGenericKind(kind string) Option {
	return func(r *Reconciler) {
		if kind != "" {
			r.generic = kind
		}
	}
}

// Reconciler turns descriptors into mounted nodes and keeps them in sync
// across repeated renders. A node whose identity recurs is always updated
// in place, never rebuilt.
//
// A Reconciler is not safe for concurrent use: drive renders and
// navigation from one goroutine.
type Reconciler struct {
	store  Querier
	kinds  *Registry
	router *nav.Router
	log    *slog.Logger

	prune     bool
	childKind string
	generic   string

	roots       map[string]*Node
	routing     []*Node
	constructed int
}

// New creates a reconciler. It fails if the registry cannot build the
// generic kind.
func New(store Querier, kinds *Registry, opts ...Option) (*Reconciler, error) {
	r := &Reconciler{
		store:     store,
		kinds:     kinds,
		log:       slog.Default(),
		childKind: DefaultChildKind,
		generic:   DefaultGenericKind,
		roots:     make(map[string]*Node),
	}
	for _, o := range opts {
		o(r)
	}
	if err := kinds.Validate(r.generic); err != nil {
		return nil, err
	}
	return r, nil
}

// Constructed returns how many nodes have been built so far.
func (r *Reconciler) Constructed() int { return r.constructed }

// Render queries identity and mounts the resulting node under mount. Rendering
// an identity a second time updates the node mounted the first time.
func (r *Reconciler) Render(ctx context.Context, identity string, mount Element) (*Node, error) {
	var d api.Record
	r.store.Query(ctx, graph.Filter{Identity: identity}, func(results []api.Record) {
		if len(results) > 0 {
			d = results[0]
		}
	})
	if d == nil {
		return nil, fmt.Errorf("render %s: %w", identity, graph.ErrNotFound)
	}
	return r.Mount(ctx, d, mount)
}

// Mount builds a node for d and appends its element to mount. A descriptor
// whose identity is already mounted as a root is resolved into that node.
func (r *Reconciler) Mount(ctx context.Context, d api.Record, mount Element) (*Node, error) {
	if n, ok := r.roots[d.Identity()]; ok && d.Identity() != "" {
		return n, r.Resolve(ctx, n, d)
	}
	n := r.build(ctx, d, "")
	if n == nil {
		return nil, fmt.Errorf("mount %s: %w", d.Identity(), ErrNoGenericKind)
	}
	if mount != nil {
		mount.AppendChild(n.elem)
	}
	if n.identity != "" {
		r.roots[n.identity] = n
	}
	return n, nil
}

// Resolve binds d to n: field appliers, kind behaviour, then inline, query
// and routed children. A nil d clears the node's children and classes.
// Binding a descriptor with another identity fails with ErrIdentityMismatch
// and leaves n untouched.
func (r *Reconciler) Resolve(ctx context.Context, n *Node, d api.Record) error {
	if d == nil {
		n.elem.RemoveChildren()
		n.elem.ClearClasses()
		n.reset()
		n.desc = nil
		return nil
	}

	id := d.Identity()
	if n.identity != "" && id != "" && id != n.identity {
		err := fmt.Errorf("node %s given %s: %w", n.identity, id, ErrIdentityMismatch)
		r.log.ErrorContext(ctx, "refusing to rebind node", "err", err)
		return err
	}
	if n.identity == "" {
		n.identity = id
	}
	if id == "" && n.identity != "" {
		d = d.Clone()
		d[api.FieldIdentity] = n.identity
	}
	n.desc = d.Clone()

	for _, apply := range appliers {
		apply(n.elem, d)
	}
	if res, ok := n.elem.(Resolver); ok {
		res.Resolve(d)
	}

	if n.identity == "" {
		return nil
	}

	seen := make(map[string]struct{})
	r.resolveInline(ctx, n, d, seen)
	r.resolveQuery(ctx, n, d, seen)
	if n.behavior == Routing {
		r.subscribe(ctx, n, d)
		return nil
	}
	if r.prune {
		r.pruneStale(ctx, n, seen)
	}
	return nil
}

// resolveInline reconciles the descriptor's own children. Each gets an
// identity: its own when valid, its localId under n, else n + "/v<i>".
func (r *Reconciler) resolveInline(ctx context.Context, n *Node, d api.Record, seen map[string]struct{}) {
	for i, cd := range d.Children() {
		cd = cd.Clone()
		cd[api.FieldIdentity] = inlineIdentity(n.identity, cd, i+1)
		if c := r.reconcileChild(ctx, n, cd); c != nil {
			seen[c.identity] = struct{}{}
		}
	}
}

func inlineIdentity(parent string, d api.Record, pos int) string {
	if id := d.Identity(); graph.ValidIdentity(id) {
		return id
	}
	if local := d.LocalID(); local != "" {
		if rec, err := graph.DeriveIdentity(api.Record{api.FieldParent: parent, api.FieldLocalID: local}, nil); err == nil {
			return rec.Identity()
		}
	}
	return graph.Join(parent, "v"+strconv.Itoa(pos))
}

// resolveQuery runs the node's durable query, if the descriptor asks for
// one, and reconciles what it delivers.
func (r *Reconciler) resolveQuery(ctx context.Context, n *Node, d api.Record, seen map[string]struct{}) {
	raw, ok := d[api.FieldQuery]
	if !ok && n.behavior == Collection {
		raw, ok = api.FieldQueryWildcard, true
	}
	if !ok {
		return
	}

	var apply func(f *graph.Filter)
	switch q := raw.(type) {
	case string:
		if q != api.FieldQueryWildcard && q != "" {
			r.log.WarnContext(ctx, "ignoring query", "identity", n.identity, "query", q)
			return
		}
		apply = func(f *graph.Filter) { f.Parent = n.identity }
	case api.Record:
		apply = func(f *graph.Filter) { f.Apply(q) }
	case map[string]any:
		apply = func(f *graph.Filter) { f.Apply(q) }
	default:
		r.log.WarnContext(ctx, "ignoring query", "identity", n.identity, "query", raw)
		return
	}
	if n.query == nil {
		n.query = &graph.Filter{Handle: n.identity}
	}
	apply(n.query)

	r.store.Query(ctx, *n.query, func(results []api.Record) {
		for _, cd := range results {
			cd[api.FieldKind] = r.coerceKind(d, cd)
			if c := r.reconcileChild(ctx, n, cd); c != nil {
				seen[c.identity] = struct{}{}
			}
		}
	})
}

// coerceKind decides the kind of a query delivered child. queryrender
// forces a kind; kindchildren "*" keeps the child's own; any other
// kindchildren forces that kind; otherwise the default child kind wins.
func (r *Reconciler) coerceKind(parent, child api.Record) string {
	if k := parent.String(api.FieldQueryRender); k != "" {
		return k
	}
	switch k := parent.String(api.FieldKindChildren); k {
	case api.FieldQueryWildcard:
		return child.Kind()
	case "":
		return r.childKind
	default:
		return k
	}
}

// reconcileChild updates the child of n keyed by d's identity, or builds,
// mounts and registers a new one.
func (r *Reconciler) reconcileChild(ctx context.Context, n *Node, d api.Record) *Node {
	if c, ok := n.children[d.Identity()]; ok {
		if err := r.Resolve(ctx, c, d); err != nil {
			return nil
		}
		return c
	}
	c := r.build(ctx, d, n.identity)
	if c == nil {
		return nil
	}
	n.elem.AppendChild(c.elem)
	n.adopt(c)
	return c
}

// build constructs a node for d, falling back to the generic kind, and
// resolves it.
func (r *Reconciler) build(ctx context.Context, d api.Record, parent string) *Node {
	kind := d.Kind()
	if kind == "" {
		kind = r.generic
	}
	e, b, ok := r.kinds.Build(kind, d)
	if !ok {
		r.log.WarnContext(ctx, "falling back to generic kind",
			"identity", d.Identity(), "parent", parent,
			"err", fmt.Errorf("%q: %w", kind, ErrUnknownKind))
		kind = r.generic
		e, b, ok = r.kinds.Build(kind, d)
		if !ok {
			r.log.ErrorContext(ctx, "could not build node", "identity", d.Identity(), "kind", kind)
			return nil
		}
	}

	n := newNode(kind, b, e)
	r.constructed++
	_ = r.Resolve(ctx, n, d) // a fresh node cannot mismatch
	return n
}

// pruneStale unmounts children of n that this pass did not deliver.
func (r *Reconciler) pruneStale(ctx context.Context, n *Node, seen map[string]struct{}) {
	for _, id := range append([]string(nil), n.order...) {
		if _, ok := seen[id]; ok {
			continue
		}
		n.elem.RemoveChild(n.children[id].elem)
		n.drop(id)
		r.log.DebugContext(ctx, "pruned stale child", "parent", n.identity, "identity", id)
	}
}

// Close unsubscribes every routing node from the navigation observer.
func (r *Reconciler) Close() {
	for _, n := range r.routing {
		if n.unsubscribe != nil {
			n.unsubscribe()
			n.unsubscribe = nil
		}
	}
	r.routing = nil
}

package render

import (
	"context"
	"strings"

	"github.com/agentic-research/lifecards/api"
	"github.com/agentic-research/lifecards/internal/graph"
	"github.com/agentic-research/lifecards/internal/nav"
)

// subscribe hooks a routing node to the navigation observer, once. The
// observer routes the current location straight away.
func (r *Reconciler) subscribe(ctx context.Context, n *Node, d api.Record) {
	if def := d.String(api.FieldDefault); def != "" {
		n.defaultRoute = def
	}
	if n.unsubscribe != nil {
		return
	}
	if r.router == nil {
		r.log.WarnContext(ctx, "routing node has no router", "identity", n.identity)
		return
	}
	r.routing = append(r.routing, n)
	n.unsubscribe = r.router.Observe(ctx, func(ctx context.Context, e nav.Event) bool {
		r.route(ctx, n, e.Identity)
		return true
	})
}

// route shows the child for location, mapping the root to the node's
// default. The previously shown child is detached but stays in the table,
// so returning to it later reuses the same node.
func (r *Reconciler) route(ctx context.Context, n *Node, location string) {
	target := location
	if target == api.Root {
		target = n.defaultRoute
	}
	if target == "" {
		r.log.DebugContext(ctx, "nothing to route to", "identity", n.identity, "location", location)
		return
	}
	if encloses(target, n.identity) {
		r.log.WarnContext(ctx, "refusing to route a node into itself", "identity", n.identity, "target", target)
		return
	}

	r.store.Query(ctx, graph.Filter{Identity: target}, func(results []api.Record) {
		if len(results) == 0 {
			r.log.DebugContext(ctx, "no record for route", "identity", n.identity, "target", target)
			return
		}
		d := results[0]

		n.elem.RemoveChildren()
		n.shown = nil

		if c, ok := n.children[d.Identity()]; ok {
			n.elem.AppendChild(c.elem)
			n.shown = c
			_ = r.Resolve(ctx, c, d) // logged
			return
		}
		c := r.build(ctx, d, n.identity)
		if c == nil {
			return
		}
		n.elem.AppendChild(c.elem)
		n.adopt(c)
		n.shown = c
	})
}

// encloses reports whether target is identity or one of its ancestors.
// Showing such a record inside identity would rebuild identity forever.
func encloses(target, identity string) bool {
	return target == api.Root || target == identity || strings.HasPrefix(identity, target+"/")
}

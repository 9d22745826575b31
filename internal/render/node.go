package render

import (
	"github.com/agentic-research/lifecards/api"
	"github.com/agentic-research/lifecards/internal/graph"
)

// Node is a mounted view node, keyed by the identity of the record that
// produced it. It lives from construction until the reconciler is closed
// and is updated in place whenever its identity recurs.
type Node struct {
	identity string
	kind     string
	behavior Behavior
	desc     api.Record
	elem     Element

	children map[string]*Node // child identity → node
	order    []string         // child identities in mount order

	query *graph.Filter // durable across re-resolves

	// Routing kinds only.
	defaultRoute string
	shown        *Node
	unsubscribe  func()
}

func newNode(kind string, b Behavior, e Element) *Node {
	return &Node{kind: kind, behavior: b, elem: e, children: make(map[string]*Node)}
}

// Identity returns the identity the node is bound to.
func (n *Node) Identity() string { return n.identity }

// Kind returns the kind the node was constructed as.
func (n *Node) Kind() string { return n.kind }

// Element returns the node's view primitive.
func (n *Node) Element() Element { return n.elem }

// Descriptor returns a copy of the last descriptor the node was given.
func (n *Node) Descriptor() api.Record { return n.desc.Clone() }

// Child looks up a mounted child by identity.
func (n *Node) Child(identity string) (*Node, bool) {
	c, ok := n.children[identity]
	return c, ok
}

// Children returns mounted children in mount order. For a routing node this
// includes children that are currently detached.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, len(n.order))
	for _, id := range n.order {
		out = append(out, n.children[id])
	}
	return out
}

// Shown returns the child a routing node currently displays.
func (n *Node) Shown() *Node { return n.shown }

// Query returns a copy of the node's durable filter, if it has one.
func (n *Node) Query() (graph.Filter, bool) {
	if n.query == nil {
		return graph.Filter{}, false
	}
	return *n.query, true
}

func (n *Node) adopt(child *Node) {
	if _, ok := n.children[child.identity]; !ok {
		n.order = append(n.order, child.identity)
	}
	n.children[child.identity] = child
}

func (n *Node) drop(identity string) {
	delete(n.children, identity)
	for i, id := range n.order {
		if id == identity {
			n.order = append(n.order[:i], n.order[i+1:]...)
			return
		}
	}
}

func (n *Node) reset() {
	n.children = make(map[string]*Node)
	n.order = nil
	n.query = nil
	n.shown = nil
}

package render

import (
	"fmt"
	"slices"
	"sync"

	"github.com/agentic-research/lifecards/api"
)

// Constructor builds a fresh element for a descriptor. Returning nil means
// it could not, and the generic kind is used instead.
type Constructor func(d api.Record) Element

// Behavior selects how the reconciler treats children of a kind.
type Behavior int

const (
	// Plain kinds render inline children and, when asked, query children.
	Plain Behavior = iota
	// Collection kinds query their children even without a query field.
	Collection
	// Routing kinds show a single child picked by the navigation observer.
	Routing
)

// Kind is one registry entry.
type Kind struct {
	New      Constructor
	Behavior Behavior
}

// Registry maps kind names to constructors.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]Kind
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]Kind)}
}

// Register adds a kind. Registering a name twice is an error.
func (r *Registry) Register(name string, k Kind) error {
	if name == "" || k.New == nil {
		return fmt.Errorf("register %q: empty name or constructor", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.kinds[name]; ok {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateKind)
	}
	r.kinds[name] = k
	return nil
}

// Lookup returns the entry for name.
func (r *Registry) Lookup(name string) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[name]
	return k, ok
}

// Build constructs an element for kind. The second result is false when
// the kind is unknown or its constructor gave up.
func (r *Registry) Build(kind string, d api.Record) (Element, Behavior, bool) {
	k, ok := r.Lookup(kind)
	if !ok {
		return nil, Plain, false
	}
	e := k.New(d)
	if e == nil {
		return nil, Plain, false
	}
	return e, k.Behavior, true
}

// Validate checks that generic can serve as the fallback kind. Call it once
// at startup.
func (r *Registry) Validate(generic string) error {
	k, ok := r.Lookup(generic)
	if !ok {
		return fmt.Errorf("%q: %w", generic, ErrNoGenericKind)
	}
	if k.Behavior == Routing {
		return fmt.Errorf("%q is a routing kind: %w", generic, ErrNoGenericKind)
	}
	return nil
}

// Kinds lists registered names in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.kinds))
	for k := range r.kinds {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

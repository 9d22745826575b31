// Package nav is the navigation observer: it tracks the active location and
// tells every registered handler when it changes.
package nav

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/agentic-research/lifecards/api"
	"github.com/agentic-research/lifecards/internal/graph"
)

// Event announces the active location.
type Event struct {
	Identity string
}

// Handler reacts to a navigation event. Returning false stops the event
// from reaching handlers registered after this one.
type Handler func(ctx context.Context, e Event) bool

type entry struct {
	id uint64
	h  Handler
}

// Router dispatches navigation events to handlers in registration order.
type Router struct {
	mu       sync.RWMutex
	handlers []entry
	nextID   uint64
	current  string
	log      *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.log = l
		}
	}
}

// WithLocation sets the location a fresh router starts at. Default "/".
func WithLocation(identity string) Option {
	return func(r *Router) {
		if id, ok := normalize(identity); ok {
			r.current = id
		}
	}
}

// New creates a router positioned at the root.
func New(opts ...Option) *Router {
	r := &Router{current: api.Root, log: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Location returns the active location.
func (r *Router) Location() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Observe registers h and immediately routes the active location to it, so
// a late subscriber still shows the right thing. The returned func
// unregisters h.
func (r *Router) Observe(ctx context.Context, h Handler) (unsubscribe func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.handlers = append(r.handlers, entry{id: id, h: h})
	current := r.current
	r.mu.Unlock()

	h(ctx, Event{Identity: current})

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, e := range r.handlers {
			if e.id == id {
				r.handlers = append(r.handlers[:i], r.handlers[i+1:]...)
				break
			}
		}
	}
}

// Navigate moves to identity and dispatches the event. It returns how many
// handlers saw the event. An identity that is not a valid absolute path is
// logged and ignored.
func (r *Router) Navigate(ctx context.Context, identity string) int {
	id, ok := normalize(identity)
	if !ok {
		r.log.WarnContext(ctx, "ignoring navigation", "to", identity)
		return 0
	}

	r.mu.Lock()
	r.current = id
	handlers := append([]entry(nil), r.handlers...)
	r.mu.Unlock()

	r.log.DebugContext(ctx, "navigate", "to", id, "handlers", len(handlers))
	n := 0
	for _, e := range handlers {
		n++
		if !e.h(ctx, Event{Identity: id}) {
			break
		}
	}
	return n
}

// Follow treats href as a clicked link. Local links navigate and return
// true. External links (anything with a scheme, mail links) are left alone
// and return false.
func (r *Router) Follow(ctx context.Context, href string) bool {
	if href == "" || strings.HasPrefix(href, "http") || strings.HasPrefix(href, "mail") || strings.Contains(href, ":") {
		return false
	}
	u, err := url.Parse(href)
	if err != nil {
		r.log.WarnContext(ctx, "unparseable link", "href", href, "err", err)
		return false
	}
	p := u.Path
	if !strings.HasPrefix(p, "/") {
		p = graph.Join(r.Location(), p)
	}
	r.Navigate(ctx, p)
	return true
}

// normalize decodes escapes and cleans the path. The result always starts
// with "/".
func normalize(identity string) (string, bool) {
	if p, err := url.PathUnescape(identity); err == nil {
		identity = p
	}
	if !strings.HasPrefix(identity, "/") {
		return "", false
	}
	return graph.Join(identity), true
}

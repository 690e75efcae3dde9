// Package hub implements the current-scope model: the scope of ambient
// context (tags, breadcrumbs, user) applied to events captured through it.
// Per the explicit redesign away from thread-local storage, a Hub is carried
// explicitly through context.Context rather than inherited implicitly by
// new goroutines — a goroutine that wants the parent's Hub must be handed
// the parent's context.
package hub

import "context"

// Hub wraps the scope that should annotate events captured through it. The
// facade client keeps one default Hub and looks one up from context on
// every capture call, falling back to the default when none is attached.
type Hub struct {
	scope *Scope
}

// New returns a Hub with a fresh, empty Scope.
func New() *Hub {
	return &Hub{scope: NewScope()}
}

// Scope returns the Hub's current scope.
func (h *Hub) Scope() *Scope { return h.scope }

// Clone returns a Hub with an independent copy of the current scope, the
// building block for WithScope.
func (h *Hub) Clone() *Hub {
	return &Hub{scope: h.scope.clone()}
}

// WithScope runs fn against a cloned Hub whose scope mutations are discarded
// once fn returns, mirroring the common "temporarily tag this one event"
// pattern without mutating the caller's scope.
func (h *Hub) WithScope(fn func(*Hub)) {
	fn(h.Clone())
}

type hubContextKey struct{}

// WithHub returns a context carrying hub as its current Hub.
func WithHub(ctx context.Context, h *Hub) context.Context {
	return context.WithValue(ctx, hubContextKey{}, h)
}

// FromContext returns the Hub carried by ctx, or ok=false if none was
// attached — there is no ambient fallback at this layer; the root facade
// package owns the fallback-to-default-hub policy.
func FromContext(ctx context.Context) (*Hub, bool) {
	h, ok := ctx.Value(hubContextKey{}).(*Hub)
	return h, ok
}

package hub

import "github.com/nimbusobs/nimbus-go/protocol"

// Scope carries ambient context applied to every event captured through a
// Hub: tags, a user identity, and a rolling breadcrumb trail.
type Scope struct {
	tags        map[string]string
	user        map[string]string
	breadcrumbs []protocol.Breadcrumb
	maxBreadcrumbs int
}

// NewScope returns an empty Scope retaining up to 100 breadcrumbs.
func NewScope() *Scope {
	return &Scope{
		tags:           make(map[string]string),
		user:           make(map[string]string),
		maxBreadcrumbs: 100,
	}
}

// SetTag attaches a tag to every event captured through this scope.
func (s *Scope) SetTag(key, value string) {
	s.tags[key] = value
}

// SetUser replaces the scope's user context.
func (s *Scope) SetUser(user map[string]string) {
	s.user = user
}

// AddBreadcrumb appends a breadcrumb, dropping the oldest once the scope's
// cap is exceeded.
func (s *Scope) AddBreadcrumb(b protocol.Breadcrumb) {
	s.breadcrumbs = append(s.breadcrumbs, b)
	if over := len(s.breadcrumbs) - s.maxBreadcrumbs; over > 0 {
		s.breadcrumbs = s.breadcrumbs[over:]
	}
}

// Apply stamps the scope's ambient context onto ev, without overwriting
// fields the caller already populated explicitly.
func (s *Scope) Apply(ev protocol.Event) protocol.Event {
	if len(s.tags) > 0 {
		ev.Tags = mergeStrings(s.tags, ev.Tags)
	}
	if len(s.user) > 0 && ev.User == nil {
		ev.User = s.user
	}
	if len(s.breadcrumbs) > 0 {
		ev.Breadcrumbs = append(append([]protocol.Breadcrumb{}, s.breadcrumbs...), ev.Breadcrumbs...)
	}
	return ev
}

func (s *Scope) clone() *Scope {
	c := &Scope{
		tags:           make(map[string]string, len(s.tags)),
		user:           make(map[string]string, len(s.user)),
		breadcrumbs:    append([]protocol.Breadcrumb{}, s.breadcrumbs...),
		maxBreadcrumbs: s.maxBreadcrumbs,
	}
	for k, v := range s.tags {
		c.tags[k] = v
	}
	for k, v := range s.user {
		c.user[k] = v
	}
	return c
}

// mergeStrings layers override on top of base, favoring override's values on
// key collision.
func mergeStrings(base, override map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

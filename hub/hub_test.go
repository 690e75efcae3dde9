package hub

import (
	"context"
	"testing"

	"github.com/nimbusobs/nimbus-go/protocol"
)

func TestFromContextRoundTrip(t *testing.T) {
	h := New()
	ctx := WithHub(context.Background(), h)

	got, ok := FromContext(ctx)
	if !ok || got != h {
		t.Fatalf("FromContext did not return the attached hub")
	}
}

func TestFromContextMissing(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatalf("expected ok=false for a context with no hub attached")
	}
}

func TestWithScopeDoesNotMutateParent(t *testing.T) {
	h := New()
	h.Scope().SetTag("env", "prod")

	h.WithScope(func(scoped *Hub) {
		scoped.Scope().SetTag("request_id", "abc123")
	})

	ev := h.Scope().Apply(protocol.Event{})
	if _, ok := ev.Tags["request_id"]; ok {
		t.Fatalf("WithScope mutation leaked into the parent scope")
	}
	if ev.Tags["env"] != "prod" {
		t.Fatalf("parent tag lost: %+v", ev.Tags)
	}
}

func TestScopeApplyPreservesExplicitFields(t *testing.T) {
	s := NewScope()
	s.SetTag("env", "prod")
	s.SetUser(map[string]string{"id": "1"})

	ev := protocol.Event{Tags: map[string]string{"env": "staging"}, User: map[string]string{"id": "2"}}
	merged := s.Apply(ev)

	if merged.Tags["env"] != "staging" {
		t.Errorf("explicit event tag overwritten: %+v", merged.Tags)
	}
	if merged.User["id"] != "2" {
		t.Errorf("explicit event user overwritten: %+v", merged.User)
	}
}

func TestBreadcrumbCap(t *testing.T) {
	s := NewScope()
	s.maxBreadcrumbs = 3
	for i := 0; i < 5; i++ {
		s.AddBreadcrumb(protocol.Breadcrumb{Message: string(rune('a' + i))})
	}
	if len(s.breadcrumbs) != 3 {
		t.Fatalf("len(breadcrumbs) = %d, want 3", len(s.breadcrumbs))
	}
	if s.breadcrumbs[0].Message != "c" {
		t.Errorf("expected oldest breadcrumbs dropped, got %+v", s.breadcrumbs)
	}
}

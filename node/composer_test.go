package node

import (
	"testing"

	"github.com/halcyon-dev/telecore/dctx"
)

type widgetNode struct{ id int }

func TestComposePerCallRecomputes(t *testing.T) {
	calls := 0
	typ := &Type{
		Name:   "widget",
		GoType: TypeOf(&widgetNode{}),
		Scope:  PerCall,
		Compose: func() (*widgetNode, error) {
			calls++
			return &widgetNode{id: calls}, nil
		},
	}
	Register(typ)

	c := NewComposer()
	ctx := dctx.New(nil)

	for i := 0; i < 2; i++ {
		sess, err := c.Compose(ctx, nil, map[string]*Type{"w": typ})
		if err != nil {
			t.Fatalf("compose: %v", err)
		}
		w := sess.Values["w"].(*widgetNode)
		if w.id != i+1 {
			t.Fatalf("iteration %d: id = %d, want %d (per-call should recompute)", i, w.id, i+1)
		}
	}
}

func TestComposePerEventMemoizes(t *testing.T) {
	calls := 0
	typ := &Type{
		Name:   "widget-per-event",
		GoType: TypeOf(&widgetNode{}),
		Scope:  PerEvent,
		Compose: func() (*widgetNode, error) {
			calls++
			return &widgetNode{id: calls}, nil
		},
	}
	Register(typ)

	c := NewComposer()
	ctx := dctx.New(nil)

	sess1, err := c.Compose(ctx, nil, map[string]*Type{"w": typ})
	if err != nil {
		t.Fatalf("compose 1: %v", err)
	}
	sess2, err := c.Compose(ctx, nil, map[string]*Type{"w": typ})
	if err != nil {
		t.Fatalf("compose 2: %v", err)
	}
	if sess1.Values["w"] != sess2.Values["w"] {
		t.Fatal("per-event node recomputed within the same Context")
	}

	otherCtx := dctx.New(nil)
	sess3, err := c.Compose(otherCtx, nil, map[string]*Type{"w": typ})
	if err != nil {
		t.Fatalf("compose 3: %v", err)
	}
	if sess3.Values["w"] == sess1.Values["w"] {
		t.Fatal("per-event node reused across distinct Contexts")
	}
}

func TestComposePolymorphicFallsThrough(t *testing.T) {
	typ := &Type{
		Name:   "polymorphic-widget",
		GoType: TypeOf(&widgetNode{}),
		Scope:  PerCall,
		Impls: []any{
			func() (*widgetNode, error) {
				return nil, newComposeError("impl 1 declines")
			},
			func() (*widgetNode, error) {
				return &widgetNode{id: 99}, nil
			},
		},
	}
	Register(typ)

	c := NewComposer()
	ctx := dctx.New(nil)
	sess, err := c.Compose(ctx, nil, map[string]*Type{"w": typ})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if w := sess.Values["w"].(*widgetNode); w.id != 99 {
		t.Fatalf("id = %d, want 99 (second impl)", w.id)
	}
}

func TestComposeNoImplementationSucceeds(t *testing.T) {
	typ := &Type{
		Name:   "always-fails",
		GoType: TypeOf(&widgetNode{}),
		Scope:  PerCall,
		Impls: []any{
			func() (*widgetNode, error) { return nil, newComposeError("nope") },
		},
	}
	Register(typ)

	c := NewComposer()
	ctx := dctx.New(nil)
	_, err := c.Compose(ctx, nil, map[string]*Type{"w": typ})
	if err == nil || !IsComposeError(err) {
		t.Fatalf("expected ComposeError, got %v", err)
	}
}

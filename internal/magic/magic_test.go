package magic

import (
	"reflect"
	"testing"
)

type widget struct{ name string }

func TestBindMatchesByType(t *testing.T) {
	t.Parallel()

	fn := func(w *widget, n int) string {
		return w.name
	}
	sources := Sources{
		reflect.TypeOf(&widget{}): &widget{name: "gizmo"},
		reflect.TypeOf(0):         42,
	}

	results, err := Call(fn, sources)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got := results[0].String(); got != "gizmo" {
		t.Fatalf("result = %q, want gizmo", got)
	}
}

func TestBindMissingSource(t *testing.T) {
	t.Parallel()
	fn := func(n int) int { return n }
	if _, err := Bind(fn, Sources{}); err == nil {
		t.Fatal("expected error for unresolved parameter")
	}
}

func TestBindNotAFunc(t *testing.T) {
	t.Parallel()
	if _, err := Bind(42, Sources{}); err == nil {
		t.Fatal("expected error binding a non-function")
	}
}

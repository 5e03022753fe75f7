package dctx

import "testing"

func TestGetOrSet(t *testing.T) {
	t.Parallel()
	c := New(nil)
	v := c.GetOrSet("k", 1)
	if v != 1 {
		t.Fatalf("first GetOrSet = %v, want 1", v)
	}
	v = c.GetOrSet("k", 2)
	if v != 1 {
		t.Fatalf("second GetOrSet = %v, want 1 (existing)", v)
	}
}

func TestCopyIsIndependent(t *testing.T) {
	t.Parallel()
	c := New(nil)
	c.Set("a", 1)
	cp := c.Copy()
	cp.Set("a", 2)
	cp.Set("b", 3)

	if v, _ := c.Get("a"); v != 1 {
		t.Fatalf("original mutated: a = %v", v)
	}
	if _, ok := c.Get("b"); ok {
		t.Fatal("original saw key added to copy")
	}
}

func TestResetPreservesIdentityButReplacesValues(t *testing.T) {
	t.Parallel()
	c := New(nil)
	c.Set("a", 1)
	snapshot := c.Copy()

	c.Set("b", 2)
	other := c // same pointer, e.g. held by another caller
	c.Reset(snapshot)

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be gone after Reset to the pre-b snapshot")
	}
	if v, _ := c.Get("a"); v != 1 {
		t.Fatalf("a = %v, want 1", v)
	}
	if _, ok := other.Get("b"); ok {
		t.Fatal("a second holder of the same *Context pointer must also see the reset, not a stale copy")
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()
	c := New(nil)
	c.Set("a", 1)
	other := New(nil)
	other.Set("a", 2)
	other.Set("b", 3)

	c.Merge(other)
	if v, _ := c.Get("a"); v != 2 {
		t.Fatalf("a = %v, want 2 (overwritten)", v)
	}
	if v, _ := c.Get("b"); v != 3 {
		t.Fatalf("b = %v, want 3", v)
	}
}

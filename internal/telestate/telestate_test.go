package telestate

import (
	"path/filepath"
	"testing"
)

func TestStoreSetGetDelete(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "state.bbolt")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if err := s.Set("k", []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := s.Get("k")
	if err != nil || !ok || string(v) != "v" {
		t.Fatalf("get = %q, %v, %v", v, ok, err)
	}

	if err := s.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, ok, err = s.Get("k")
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if ok {
		t.Fatal("expected key to be gone after Delete")
	}
}

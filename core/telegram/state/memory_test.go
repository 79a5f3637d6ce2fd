package state

import (
	"sync"
	"testing"
)

func TestStoreLifecycle(t *testing.T) {
	s := NewStore[string]()
	if s.InProgress(1) {
		t.Fatalf("empty store reports progress")
	}
	s.Set(1, "quiz")
	s.Set(1, "welcome")
	if got, ok := s.Get(1); !ok || got != "welcome" {
		t.Fatalf("Get = %q,%v; want welcome,true", got, ok)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
	if !s.Clear(1) || s.Clear(1) {
		t.Fatalf("Clear should report presence exactly once")
	}
}

func TestCompareAndClear(t *testing.T) {
	s := NewStore[string]()
	s.Set(7, "announce")
	if s.CompareAndClear(7, func(v string) bool { return v == "quiz" }) {
		t.Fatalf("cleared a non-matching step")
	}
	if !s.CompareAndClear(7, func(v string) bool { return v == "announce" }) {
		t.Fatalf("matching step not cleared")
	}
	if s.InProgress(7) {
		t.Fatalf("step still present")
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore[int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Set(id, int(id))
			s.InProgress(id)
			s.Clear(id)
		}(int64(i))
	}
	wg.Wait()
	if s.Len() != 0 {
		t.Fatalf("len = %d, want 0", s.Len())
	}
}

package state

import (
	"sync"
	"testing"
)

type testSession struct {
	step  string
	count int
}

func TestMemoryManagerLifecycle(t *testing.T) {
	m := NewMemoryManager[testSession]()

	if _, ok := m.Get(1); ok {
		t.Fatalf("unexpected session for new user")
	}
	m.Set(1, testSession{step: "wait"})
	got, ok := m.Get(1)
	if !ok || got.step != "wait" {
		t.Fatalf("Get = %+v, %v", got, ok)
	}
	m.Clear(1)
	if _, ok := m.Get(1); ok {
		t.Fatalf("session survived Clear")
	}
	if m.Len() != 0 {
		t.Fatalf("Len = %d, want 0", m.Len())
	}
}

func TestMemoryManagerUpdateIsAtomic(t *testing.T) {
	m := NewMemoryManager[testSession]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Update(7, func(s testSession) testSession {
				s.count++
				return s
			})
		}()
	}
	wg.Wait()
	got, _ := m.Get(7)
	if got.count != 50 {
		t.Fatalf("count = %d, want 50", got.count)
	}
}

func TestMemoryManagerUsersAreIsolated(t *testing.T) {
	m := NewMemoryManager[testSession]()
	m.Set(1, testSession{step: "a"})
	m.Set(2, testSession{step: "b"})
	m.Clear(1)
	if got, ok := m.Get(2); !ok || got.step != "b" {
		t.Fatalf("user 2 session = %+v, %v", got, ok)
	}
}

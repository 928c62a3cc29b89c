package state

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewStoreStartsIdle(t *testing.T) {
	store := NewStore()
	snap := store.Snapshot()
	if snap.UserActive || snap.SessionRunning {
		t.Fatalf("expected both flags false, got %+v", snap)
	}
	if store.Phase() != IDLE {
		t.Errorf("expected phase idle, got %v", store.Phase())
	}
}

func TestMarkActiveAndIdle(t *testing.T) {
	store := NewStore()
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	store.MarkActive(now)
	if !store.UserActive() {
		t.Fatal("expected user active after MarkActive")
	}
	if got := store.Snapshot().LastActivity; !got.Equal(now) {
		t.Errorf("LastActivity = %v, want %v", got, now)
	}

	store.MarkIdle()
	if store.UserActive() {
		t.Fatal("expected user inactive after MarkIdle")
	}
	if got := store.Snapshot().LastActivity; !got.Equal(now) {
		t.Errorf("MarkIdle must keep LastActivity, got %v", got)
	}
}

func TestTryBeginSessionIsExclusive(t *testing.T) {
	store := NewStore()

	if !store.TryBeginSession() {
		t.Fatal("first session should start")
	}
	if store.TryBeginSession() {
		t.Fatal("second session must be refused while the first runs")
	}
	if store.Phase() != RUNNING {
		t.Errorf("expected running phase, got %v", store.Phase())
	}

	store.EndSession()
	if store.SessionRunning() {
		t.Fatal("expected session flag cleared")
	}
	if !store.TryBeginSession() {
		t.Fatal("session should start again after EndSession")
	}
	if got := store.Snapshot().Sessions; got != 2 {
		t.Errorf("Sessions = %d, want 2", got)
	}
}

func TestTryBeginSessionConcurrent(t *testing.T) {
	store := NewStore()

	const goroutines = 64
	var started atomic.Int32
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			if store.TryBeginSession() {
				started.Add(1)
			}
		}()
	}
	wg.Wait()

	if started.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", started.Load())
	}
}

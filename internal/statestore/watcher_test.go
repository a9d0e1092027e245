package statestore

import (
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnExternalWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	logger := testLogger(t)

	store, err := New(path, logger)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	if err := store.SetOnboardingCompleted(false); err != nil {
		t.Fatalf("SetOnboardingCompleted() returned error: %v", err)
	}

	reloaded := make(chan Document, 1)
	watcher := NewWatcher(store, 20*time.Millisecond, func(doc Document) {
		select {
		case reloaded <- doc:
		default:
		}
	}, logger)

	if err := watcher.Start(); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}
	defer watcher.Stop()

	if !watcher.IsRunning() {
		t.Fatal("watcher should report running after Start()")
	}

	// Give the file a distinct modification time before the external write.
	time.Sleep(50 * time.Millisecond)

	// Simulate another process rewriting the state file.
	external, err := New(path, logger)
	if err != nil {
		t.Fatalf("New() for external writer returned error: %v", err)
	}
	if err := external.SetOnboardingCompleted(true); err != nil {
		t.Fatalf("external SetOnboardingCompleted() returned error: %v", err)
	}

	select {
	case doc := <-reloaded:
		if !doc.OnboardingCompleted {
			t.Error("reloaded document should carry the external change")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not reload after an external write")
	}

	if !store.OnboardingCompleted() {
		t.Error("store should see the external change after reload")
	}
}

func TestWatcherStartTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store, err := New(path, testLogger(t))
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	watcher := NewWatcher(store, 20*time.Millisecond, nil, testLogger(t))
	if err := watcher.Start(); err != nil {
		t.Fatalf("first Start() returned error: %v", err)
	}
	defer watcher.Stop()

	if err := watcher.Start(); err == nil {
		t.Error("second Start() should fail while running")
	}
}

func TestWatcherStopIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store, err := New(path, testLogger(t))
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	watcher := NewWatcher(store, 20*time.Millisecond, nil, testLogger(t))
	if err := watcher.Start(); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}
	if err := watcher.Stop(); err != nil {
		t.Errorf("Stop() returned error: %v", err)
	}
	if watcher.IsRunning() {
		t.Error("watcher should not report running after Stop()")
	}
	if err := watcher.Stop(); err != nil {
		t.Errorf("second Stop() returned error: %v", err)
	}
}

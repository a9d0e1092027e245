package statestore

import (
	"os"
	"path/filepath"
	"testing"

	"rezzy/internal/errors"
	"rezzy/internal/types"
)

func testLogger(t *testing.T) *errors.Logger {
	t.Helper()
	logger, err := errors.New("error")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return logger
}

func TestNewMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	store, err := New(path, testLogger(t))
	if err != nil {
		t.Fatalf("New() with missing file returned error: %v", err)
	}
	if store.OnboardingCompleted() {
		t.Error("fresh store should start with onboarding not completed")
	}
	if account, usage := store.CachedAccount(); account != nil || usage != nil {
		t.Error("fresh store should have no cached account")
	}
}

func TestNewCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("failed to seed corrupt file: %v", err)
	}

	store, err := New(path, testLogger(t))
	if err != nil {
		t.Fatalf("New() with corrupt file returned error: %v", err)
	}
	if store.OnboardingCompleted() {
		t.Error("corrupt file should yield a zero document, not partial state")
	}
}

func TestOnboardingFlagRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	store, err := New(path, testLogger(t))
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	if err := store.SetOnboardingCompleted(true); err != nil {
		t.Fatalf("SetOnboardingCompleted() returned error: %v", err)
	}

	reopened, err := New(path, testLogger(t))
	if err != nil {
		t.Fatalf("New() on reopen returned error: %v", err)
	}
	if !reopened.OnboardingCompleted() {
		t.Error("onboarding flag should survive a restart")
	}

	doc := reopened.Snapshot()
	if doc.UpdatedAt.IsZero() {
		t.Error("persisted document should carry an update timestamp")
	}
}

func TestCacheAccountRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	store, err := New(path, testLogger(t))
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	account := types.Account{
		UserID: "u-123",
		Email:  "user@example.com",
		Plan:   types.PlanStarter,
	}
	usage := types.UsageSnapshot{ScansUsed: 3, Month: "2025-06"}
	if err := store.CacheAccount(account, usage); err != nil {
		t.Fatalf("CacheAccount() returned error: %v", err)
	}

	reopened, err := New(path, testLogger(t))
	if err != nil {
		t.Fatalf("New() on reopen returned error: %v", err)
	}
	cached, cachedUsage := reopened.CachedAccount()
	if cached == nil || cachedUsage == nil {
		t.Fatal("cached account should survive a restart")
	}
	if cached.UserID != "u-123" || cached.Plan != types.PlanStarter {
		t.Errorf("cached account = %+v, want the stored one", cached)
	}
	if cachedUsage.ScansUsed != 3 || cachedUsage.Month != "2025-06" {
		t.Errorf("cached usage = %+v, want the stored one", cachedUsage)
	}
}

func TestCachedAccountReturnsCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	store, err := New(path, testLogger(t))
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	if err := store.CacheAccount(types.Account{UserID: "u-1", Plan: types.PlanFree},
		types.UsageSnapshot{ScansUsed: 1, Month: "2025-06"}); err != nil {
		t.Fatalf("CacheAccount() returned error: %v", err)
	}

	first, _ := store.CachedAccount()
	first.UserID = "mutated"

	second, _ := store.CachedAccount()
	if second.UserID != "u-1" {
		t.Error("mutating a returned account should not affect the store")
	}
}

func TestPersistCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")

	store, err := New(path, testLogger(t))
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	if err := store.SetOnboardingCompleted(true); err != nil {
		t.Fatalf("SetOnboardingCompleted() returned error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("state file should exist after persist: %v", err)
	}
}

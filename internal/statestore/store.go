// Package statestore persists small pieces of client state between runs:
// the local onboarding-completed flag and the last known account snapshot.
// State lives in a single JSON document written atomically, so another
// process (or a second instance) always observes a complete document.
package statestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"rezzy/internal/errors"
	"rezzy/internal/types"
)

// Document is the on-disk state schema.
type Document struct {
	// OnboardingCompleted is set the moment the user finishes onboarding,
	// before the profile sync reaches the backend. It wins over a failed
	// remote profile fetch.
	OnboardingCompleted bool `json:"onboardingCompleted"`

	// Account is the last account snapshot received from the backend,
	// used to seed degraded mode on the next start.
	Account *types.Account `json:"account,omitempty"`

	// Usage is the last usage snapshot paired with Account.
	Usage *types.UsageSnapshot `json:"usage,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// Store reads and writes the state document. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	path   string
	doc    Document
	logger *errors.Logger
}

// New creates a store backed by the given file path and loads any
// existing document. A missing file is not an error; the store starts
// with a zero document.
func New(path string, logger *errors.Logger) (*Store, error) {
	s := &Store{
		path:   path,
		logger: logger,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.NewIOError(errors.ErrCodeStateStore,
			fmt.Sprintf("failed to read state file %s", s.path), err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		// A corrupt state file should not brick the client. Start fresh
		// and let the next save overwrite it.
		if s.logger != nil {
			s.logger.Warn("State file is corrupt, starting with empty state",
				"path", s.path, "error", err)
		}
		return nil
	}

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	return nil
}

// Reload re-reads the document from disk, replacing in-memory state.
// Used by the watcher when another process updates the file.
func (s *Store) Reload() error {
	return s.load()
}

// Snapshot returns a copy of the current document.
func (s *Store) Snapshot() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// OnboardingCompleted reports the persisted local completion flag.
func (s *Store) OnboardingCompleted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.OnboardingCompleted
}

// SetOnboardingCompleted persists the local completion flag. The write
// happens before the caller syncs the profile to the backend, so the
// flag survives a failed or interrupted sync.
func (s *Store) SetOnboardingCompleted(completed bool) error {
	s.mu.Lock()
	s.doc.OnboardingCompleted = completed
	s.doc.UpdatedAt = time.Now().UTC()
	doc := s.doc
	s.mu.Unlock()

	return s.persist(doc)
}

// CacheAccount stores the most recent account and usage snapshot.
func (s *Store) CacheAccount(account types.Account, usage types.UsageSnapshot) error {
	s.mu.Lock()
	acct := account
	u := usage
	s.doc.Account = &acct
	s.doc.Usage = &u
	s.doc.UpdatedAt = time.Now().UTC()
	doc := s.doc
	s.mu.Unlock()

	return s.persist(doc)
}

// CachedAccount returns the cached account and usage, if any.
func (s *Store) CachedAccount() (*types.Account, *types.UsageSnapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc.Account == nil {
		return nil, nil
	}
	acct := *s.doc.Account
	var usage *types.UsageSnapshot
	if s.doc.Usage != nil {
		u := *s.doc.Usage
		usage = &u
	}
	return &acct, usage
}

// persist writes the document atomically: marshal to a temp file in the
// same directory, fsync, then rename over the target.
func (s *Store) persist(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeStateStore,
			"failed to encode state document", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.NewIOError(errors.ErrCodeStateStore,
			fmt.Sprintf("failed to create state directory %s", dir), err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return errors.NewIOError(errors.ErrCodeStateStore,
			"failed to create temporary state file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewIOError(errors.ErrCodeStateStore,
			"failed to write state document", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewIOError(errors.ErrCodeStateStore,
			"failed to sync state document", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewIOError(errors.ErrCodeStateStore,
			"failed to close temporary state file", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.NewIOError(errors.ErrCodeStateStore,
			fmt.Sprintf("failed to replace state file %s", s.path), err)
	}

	if s.logger != nil {
		s.logger.Debug("State document persisted", "path", s.path)
	}
	return nil
}

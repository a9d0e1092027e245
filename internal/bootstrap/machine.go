// Package bootstrap drives the account startup sequence: verify the backend
// is reachable, upsert the account, fetch the plan, and fetch the onboarding
// profile. The sequence is bounded by a hard deadline; when the backend
// cannot be reached in time the machine lands in degraded mode with a
// synthesized free-plan account instead of blocking the user.
package bootstrap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rezzy/internal/config"
	"rezzy/internal/errors"
	"rezzy/internal/identity"
	"rezzy/internal/statestore"
	"rezzy/internal/types"
)

// Phase is one state of the bootstrap machine.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseCheckingBackend Phase = "checkingBackend"
	PhaseCreatingAccount Phase = "creatingAccount"
	PhaseFetchingPlan    Phase = "fetchingPlan"
	PhaseFetchingProfile Phase = "fetchingProfile"
	PhaseReady           Phase = "ready"
	PhaseErrored         Phase = "errored"
	PhaseDegraded        Phase = "degraded"
)

// Terminal reports whether the machine has finished for this session.
func (p Phase) Terminal() bool {
	return p == PhaseReady || p == PhaseDegraded
}

// Backend is the slice of the gateway the bootstrap sequence needs.
type Backend interface {
	Health(ctx context.Context) error
	CreateAccount(ctx context.Context, session types.Session) error
	GetPlan(ctx context.Context, session types.Session) (types.Account, types.UsageSnapshot, error)
	GetProfile(ctx context.Context, userID string) (types.Profile, error)
	UpdateProfile(ctx context.Context, profile types.Profile) error
}

// MetricsRecorder receives bootstrap outcome measurements. May be nil.
type MetricsRecorder interface {
	RecordBootstrapOutcome(ctx context.Context, outcome string, elapsed time.Duration)
}

// Snapshot is a point-in-time copy of machine state for callers to render.
type Snapshot struct {
	Phase      Phase
	Account    *types.Account
	Usage      *types.UsageSnapshot
	Onboarding types.OnboardingState
	Degraded   bool

	// LastErr is advisory once the machine is terminal: in degraded mode it
	// explains why, and it never blocks the dashboard.
	LastErr  error
	Attempts int
}

// Machine is the account bootstrap state machine. Safe for concurrent use;
// Run is idempotent once a terminal phase is reached.
type Machine struct {
	mu sync.Mutex

	phase      Phase
	account    *types.Account
	usage      *types.UsageSnapshot
	onboarding types.OnboardingState
	lastErr    error
	attempts   int

	backend  Backend
	store    *statestore.Store
	provider identity.Provider
	cfg      config.BootstrapConfig
	metrics  MetricsRecorder
	logger   *errors.Logger

	clock func() time.Time

	syncWG sync.WaitGroup
}

// New creates the machine in the idle phase.
func New(backend Backend, store *statestore.Store, provider identity.Provider, cfg config.BootstrapConfig, metrics MetricsRecorder, logger *errors.Logger) *Machine {
	return &Machine{
		phase:    PhaseIdle,
		backend:  backend,
		store:    store,
		provider: provider,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		clock:    time.Now,
	}
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	s := Snapshot{
		Phase:      m.phase,
		Onboarding: m.onboarding,
		Degraded:   m.phase == PhaseDegraded,
		LastErr:    m.lastErr,
		Attempts:   m.attempts,
	}
	if m.account != nil {
		acct := *m.account
		s.Account = &acct
	}
	if m.usage != nil {
		u := *m.usage
		s.Usage = &u
	}
	return s
}

// Run executes the bootstrap sequence under the configured hard deadline.
// Calling Run after a terminal phase returns the existing snapshot without
// touching the backend. A failed run leaves the machine in the errored
// phase; Retry re-runs it until MaxAttempts, after which the machine
// degrades on its own.
func (m *Machine) Run(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	if m.phase.Terminal() {
		s := m.snapshotLocked()
		m.mu.Unlock()
		return s, nil
	}
	if m.attempts >= m.cfg.MaxAttempts {
		m.degradeLocked(m.lastErr)
		s := m.snapshotLocked()
		m.mu.Unlock()
		return s, nil
	}
	m.attempts++
	attempt := m.attempts
	m.mu.Unlock()

	start := m.clock()
	runCtx, cancel := context.WithTimeout(ctx, m.cfg.HardTimeout)
	defer cancel()

	err := m.runSequence(runCtx)

	m.mu.Lock()
	defer m.mu.Unlock()

	elapsed := m.clock().Sub(start)

	if err == nil {
		m.phase = PhaseReady
		m.lastErr = nil
		m.recordOutcome(ctx, "ready", elapsed)
		m.logger.Info("Bootstrap complete",
			"attempt", attempt,
			"elapsed", elapsed,
			"plan", m.account.Plan,
			"onboarding_required", m.onboarding.Required)
		return m.snapshotLocked(), nil
	}

	m.lastErr = err

	// The hard deadline expiring, or exhausting attempts, forces degraded
	// mode. Anything else is a retryable errored phase.
	if runCtx.Err() != nil || m.attempts >= m.cfg.MaxAttempts {
		m.degradeLocked(err)
		m.recordOutcome(ctx, "degraded", elapsed)
		return m.snapshotLocked(), nil
	}

	m.phase = PhaseErrored
	m.recordOutcome(ctx, "errored", elapsed)
	m.logger.Warn("Bootstrap attempt failed",
		"attempt", attempt,
		"max_attempts", m.cfg.MaxAttempts,
		"error", err.Error())
	return m.snapshotLocked(), err
}

// Retry re-runs a failed bootstrap. It is a no-op after a terminal phase.
func (m *Machine) Retry(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	if m.phase.Terminal() {
		s := m.snapshotLocked()
		m.mu.Unlock()
		return s, nil
	}
	m.phase = PhaseIdle
	m.mu.Unlock()
	return m.Run(ctx)
}

// ContinueDegraded is the user-facing escape hatch: abandon the backend for
// this session and proceed with the synthesized account.
func (m *Machine) ContinueDegraded() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == PhaseReady {
		return m.snapshotLocked()
	}
	if m.phase != PhaseDegraded {
		m.degradeLocked(m.lastErr)
	}
	return m.snapshotLocked()
}

// runSequence walks the phases in order. The lock is not held across
// backend calls; only phase transitions take it.
func (m *Machine) runSequence(ctx context.Context) error {
	session, err := m.provider.Session(ctx)
	if err != nil {
		return err
	}
	if !session.SignedIn() {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"no signed-in user; bootstrap requires an identity", nil)
	}

	m.setPhase(PhaseCheckingBackend)
	if err := m.backend.Health(ctx); err != nil {
		return err
	}

	m.setPhase(PhaseCreatingAccount)
	if err := m.backend.CreateAccount(ctx, session); err != nil {
		return err
	}

	m.setPhase(PhaseFetchingPlan)
	account, usage, err := m.backend.GetPlan(ctx, session)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.account = &account
	m.usage = &usage
	m.mu.Unlock()

	if err := m.store.CacheAccount(account, usage); err != nil {
		// A cache write failure degrades the next cold start, not this one.
		m.logger.Warn("Failed to cache account snapshot", "error", err.Error())
	}

	m.setPhase(PhaseFetchingProfile)
	m.resolveOnboarding(ctx, session)

	return nil
}

// resolveOnboarding decides whether the one-time onboarding flow must run.
// A failed profile fetch is advisory: the locally persisted completion flag
// wins, so a flaky backend never re-prompts a user who already onboarded.
func (m *Machine) resolveOnboarding(ctx context.Context, session types.Session) {
	completedLocally := m.store.OnboardingCompleted()

	profile, err := m.backend.GetProfile(ctx, session.UserID)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.onboarding.CompletedLocally = completedLocally

	if err != nil {
		m.logger.Warn("Profile fetch failed, deciding onboarding from local state",
			"error", err.Error(),
			"completed_locally", completedLocally)
		m.onboarding.Required = !completedLocally
		return
	}

	m.onboarding.Required = !profile.Complete() && !completedLocally
}

// CompleteOnboarding persists the local completion flag, then syncs the
// profile to the backend in the background. The flag is written first so an
// interrupted or failed sync never re-prompts onboarding.
func (m *Machine) CompleteOnboarding(ctx context.Context, profile types.Profile) error {
	if !types.ValidPositionLevel(profile.PositionLevel) {
		return errors.NewValidationError(errors.ErrCodeRequestRejected,
			fmt.Sprintf("unknown position level: %s", profile.PositionLevel), nil)
	}
	if !types.ValidJobCategory(profile.JobCategory) {
		return errors.NewValidationError(errors.ErrCodeRequestRejected,
			fmt.Sprintf("unknown job category: %s", profile.JobCategory), nil)
	}

	if err := m.store.SetOnboardingCompleted(true); err != nil {
		return err
	}

	m.mu.Lock()
	m.onboarding.Required = false
	m.onboarding.CompletedLocally = true
	m.mu.Unlock()

	m.syncWG.Add(1)
	go func() {
		defer m.syncWG.Done()
		syncCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.HardTimeout)
		defer cancel()
		if err := m.backend.UpdateProfile(syncCtx, profile); err != nil {
			m.logger.Warn("Profile sync failed after onboarding; local completion stands",
				"error", err.Error())
		}
	}()

	return nil
}

// WaitForProfileSync blocks until any in-flight onboarding profile sync
// finishes. Used at shutdown so the sync is not cut off mid-flight.
func (m *Machine) WaitForProfileSync() {
	m.syncWG.Wait()
}

func (m *Machine) setPhase(p Phase) {
	m.mu.Lock()
	m.phase = p
	m.mu.Unlock()
	m.logger.Debug("Bootstrap phase entered", "phase", string(p))
}

// degradeLocked moves to degraded mode, preferring the cached account from
// the last successful session and synthesizing a free-plan account when
// there is none. Callers hold the lock.
func (m *Machine) degradeLocked(cause error) {
	m.phase = PhaseDegraded
	m.lastErr = cause

	if m.account == nil {
		if cached, cachedUsage := m.store.CachedAccount(); cached != nil {
			m.account = cached
			m.usage = cachedUsage
		}
	}
	if m.account == nil {
		session, _ := m.provider.Session(context.Background())
		m.account = &types.Account{
			UserID:    session.UserID,
			Email:     session.Email,
			FirstName: session.FirstName,
			LastName:  session.LastName,
			Plan:      types.PlanFree,
		}
	}
	if m.usage == nil {
		m.usage = &types.UsageSnapshot{
			ScansUsed: 0,
			Month:     types.CurrentMonthKey(m.clock()),
		}
	}

	// The profile fetch never ran, so the local flag is the only signal.
	m.onboarding.CompletedLocally = m.store.OnboardingCompleted()
	m.onboarding.Required = !m.onboarding.CompletedLocally

	msg := "unknown"
	if cause != nil {
		msg = cause.Error()
	}
	m.logger.Warn("Entering degraded mode with synthesized account",
		"cause", msg,
		"plan", m.account.Plan)
}

func (m *Machine) recordOutcome(ctx context.Context, outcome string, elapsed time.Duration) {
	if m.metrics != nil {
		m.metrics.RecordBootstrapOutcome(ctx, outcome, elapsed)
	}
}

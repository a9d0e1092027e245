// Package plangate makes the client-side pre-check before quota-consuming
// actions. The check is pure and advisory: it saves a doomed round trip on
// an obviously exhausted free plan, but the backend's own enforcement (a
// quota-exceeded refusal) remains authoritative and must be handled by
// callers even after an allow here.
package plangate

import (
	"time"

	"rezzy/internal/errors"
	"rezzy/internal/types"
)

// Gate evaluates plan limits against usage snapshots.
type Gate struct {
	freeScansPerMonth int
}

// New creates a gate with the configured free-tier monthly scan limit.
func New(freeScansPerMonth int) *Gate {
	return &Gate{freeScansPerMonth: freeScansPerMonth}
}

// FreeScansPerMonth returns the configured free-tier limit.
func (g *Gate) FreeScansPerMonth() int {
	return g.freeScansPerMonth
}

// CheckScan decides whether a scan may start under the given plan and usage.
// Paid plans are unmetered. A usage snapshot from a previous month counts as
// zero used: the server resets counters monthly, and a stale snapshot must
// not lock a user out of a fresh month.
func (g *Gate) CheckScan(plan types.Plan, usage types.UsageSnapshot, now time.Time) types.PlanGateDecision {
	if plan.Unlimited() {
		return types.PlanGateDecision{Allowed: true, Reason: types.GateUnlimitedPlan}
	}

	used := usage.ScansUsed
	if usage.Month != "" && usage.Month != types.CurrentMonthKey(now) {
		used = 0
	}

	if used >= g.freeScansPerMonth {
		return types.PlanGateDecision{Allowed: false, Reason: types.GateQuotaExceeded}
	}
	return types.PlanGateDecision{Allowed: true, Reason: types.GateWithinQuota}
}

// Denied converts a blocking decision into a taxonomy error, so callers on
// the gated path handle the local refusal exactly like the backend's.
func Denied(decision types.PlanGateDecision) error {
	if decision.Allowed {
		return nil
	}
	return errors.NewQuotaExceededError(errors.ErrCodeQuotaExceeded,
		"Monthly scan limit reached on the free plan", nil)
}

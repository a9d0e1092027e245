package plangate

import (
	"testing"
	"time"

	"rezzy/internal/errors"
	"rezzy/internal/types"
)

func TestCheckScan(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	gate := New(5)

	tests := []struct {
		name        string
		plan        types.Plan
		usage       types.UsageSnapshot
		wantAllowed bool
		wantReason  types.GateReason
	}{
		{
			name:        "free plan within quota",
			plan:        types.PlanFree,
			usage:       types.UsageSnapshot{ScansUsed: 2, Month: "2025-06"},
			wantAllowed: true,
			wantReason:  types.GateWithinQuota,
		},
		{
			name:        "free plan at limit",
			plan:        types.PlanFree,
			usage:       types.UsageSnapshot{ScansUsed: 5, Month: "2025-06"},
			wantAllowed: false,
			wantReason:  types.GateQuotaExceeded,
		},
		{
			name:        "free plan over limit",
			plan:        types.PlanFree,
			usage:       types.UsageSnapshot{ScansUsed: 7, Month: "2025-06"},
			wantAllowed: false,
			wantReason:  types.GateQuotaExceeded,
		},
		{
			name:        "starter plan is unmetered",
			plan:        types.PlanStarter,
			usage:       types.UsageSnapshot{ScansUsed: 100, Month: "2025-06"},
			wantAllowed: true,
			wantReason:  types.GateUnlimitedPlan,
		},
		{
			name:        "premium plan is unmetered",
			plan:        types.PlanPremium,
			usage:       types.UsageSnapshot{ScansUsed: 100, Month: "2025-06"},
			wantAllowed: true,
			wantReason:  types.GateUnlimitedPlan,
		},
		{
			name:        "stale snapshot from last month counts as zero",
			plan:        types.PlanFree,
			usage:       types.UsageSnapshot{ScansUsed: 5, Month: "2025-05"},
			wantAllowed: true,
			wantReason:  types.GateWithinQuota,
		},
		{
			name:        "empty month is trusted as current",
			plan:        types.PlanFree,
			usage:       types.UsageSnapshot{ScansUsed: 5},
			wantAllowed: false,
			wantReason:  types.GateQuotaExceeded,
		},
		{
			name:        "zero usage on free plan",
			plan:        types.PlanFree,
			usage:       types.UsageSnapshot{ScansUsed: 0, Month: "2025-06"},
			wantAllowed: true,
			wantReason:  types.GateWithinQuota,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := gate.CheckScan(tt.plan, tt.usage, now)
			if decision.Allowed != tt.wantAllowed {
				t.Errorf("CheckScan() allowed = %v, want %v", decision.Allowed, tt.wantAllowed)
			}
			if decision.Reason != tt.wantReason {
				t.Errorf("CheckScan() reason = %v, want %v", decision.Reason, tt.wantReason)
			}
		})
	}
}

func TestDenied(t *testing.T) {
	if err := Denied(types.PlanGateDecision{Allowed: true, Reason: types.GateWithinQuota}); err != nil {
		t.Errorf("Denied() on allowed decision = %v, want nil", err)
	}

	err := Denied(types.PlanGateDecision{Allowed: false, Reason: types.GateQuotaExceeded})
	if err == nil {
		t.Fatal("Denied() on blocked decision = nil, want error")
	}
	if !errors.IsQuotaExceeded(err) {
		t.Errorf("Denied() error kind = %v, want quota exceeded", errors.KindOf(err))
	}
}

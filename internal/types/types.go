package types

import (
	"encoding/json"
	"time"
)

// Plan identifies a subscription tier.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanStarter Plan = "starter"
	PlanPremium Plan = "premium"
)

// Unlimited reports whether scan-type actions are unmetered on this plan.
func (p Plan) Unlimited() bool {
	return p == PlanStarter || p == PlanPremium
}

// Valid reports whether p is a known tier.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanStarter, PlanPremium:
		return true
	}
	return false
}

// Session is the identity provider's view of the current user. It flips from
// not-ready to ready exactly once per process lifetime; UserID is set only
// when somebody is signed in.
type Session struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Ready     bool   `json:"ready"`
}

// SignedIn reports whether the session is ready with a present user id.
func (s Session) SignedIn() bool {
	return s.Ready && s.UserID != ""
}

// Account is the backend account record. The backend is the source of truth;
// the client caches a copy, and synthesizes a free-plan default in degraded mode.
type Account struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Plan      Plan      `json:"plan"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// UsageSnapshot is the per-month consumption counter set. Month uses the
// YYYY-MM key the server reports; the client never resets counters locally.
type UsageSnapshot struct {
	ScansUsed                   int    `json:"scansUsed"`
	Month                       string `json:"month"`
	CoverLettersGenerated       int    `json:"coverLettersGenerated,omitempty"`
	InterviewQuestionsGenerated int    `json:"interviewQuestionsGenerated,omitempty"`
}

// CurrentMonthKey returns the YYYY-MM key for now, used only when
// synthesizing a snapshot in degraded mode.
func CurrentMonthKey(now time.Time) string {
	return now.UTC().Format("2006-01")
}

// Profile carries the onboarding fields the backend stores per account.
// Missing fields mean onboarding has not run yet.
type Profile struct {
	UserID        string          `json:"userId"`
	FirstName     string          `json:"firstName,omitempty"`
	LastName      string          `json:"lastName,omitempty"`
	PositionLevel string          `json:"positionLevel,omitempty"`
	JobCategory   string          `json:"jobCategory,omitempty"`
	CurrentResume *ResumeRef      `json:"currentResume,omitempty"`
	Extra         json.RawMessage `json:"-"`
}

// ResumeRef identifies the stored resume attached to a profile.
type ResumeRef struct {
	ID       string `json:"id"`
	Filename string `json:"filename,omitempty"`
}

// Complete reports whether both onboarding fields are present.
func (p Profile) Complete() bool {
	return p.PositionLevel != "" && p.JobCategory != ""
}

// OnboardingState tracks whether the one-time onboarding flow must run.
// CompletedLocally is the client-persisted escape hatch: once set, onboarding
// is never re-prompted even when the backend profile fetch fails.
type OnboardingState struct {
	Required         bool `json:"required"`
	CompletedLocally bool `json:"completedLocally"`
}

// GateReason explains a plan gate decision.
type GateReason string

const (
	GateWithinQuota   GateReason = "withinQuota"
	GateUnlimitedPlan GateReason = "unlimitedPlan"
	GateQuotaExceeded GateReason = "quotaExceeded"
)

// PlanGateDecision is the outcome of the pure pre-check before a
// quota-consuming action. It is advisory: the backend's 403 path must be
// handled even when Allowed is true.
type PlanGateDecision struct {
	Allowed bool       `json:"allowed"`
	Reason  GateReason `json:"reason"`
}

// PositionLevels are the selectable targeting levels offered at onboarding.
var PositionLevels = []string{
	"intern", "entry_level", "junior", "mid_level", "senior", "staff",
	"principal", "lead", "manager", "director", "vp", "cto",
}

// JobCategories are the selectable role categories offered at onboarding.
var JobCategories = []string{
	"software_engineer", "frontend_developer", "backend_developer",
	"full_stack_developer", "data_engineer", "data_scientist",
	"machine_learning_engineer", "devops_engineer", "site_reliability_engineer",
	"product_manager", "project_manager", "ui_ux_designer", "qa_engineer",
	"security_engineer", "mobile_developer", "game_developer",
	"embedded_engineer", "cloud_engineer", "blockchain_developer",
	"ai_researcher",
}

// ValidPositionLevel reports whether v is a known position level.
func ValidPositionLevel(v string) bool {
	for _, l := range PositionLevels {
		if l == v {
			return true
		}
	}
	return false
}

// ValidJobCategory reports whether v is a known job category.
func ValidJobCategory(v string) bool {
	for _, c := range JobCategories {
		if c == v {
			return true
		}
	}
	return false
}

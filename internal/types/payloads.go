package types

import "encoding/json"

// The feature payloads below are decoded only as far as the client core needs
// them; everything else the backend returns rides along in Raw.

// ResumeUpload is the acknowledgement of a resume upload.
type ResumeUpload struct {
	ResumeID string          `json:"resumeId"`
	Filename string          `json:"filename"`
	Raw      json.RawMessage `json:"-"`
}

// JobAnalysis is the keyword/requirements breakdown of a job description.
type JobAnalysis struct {
	Keywords      []string        `json:"keywords,omitempty"`
	MissingSkills []string        `json:"missingSkills,omitempty"`
	MatchScore    int             `json:"matchScore,omitempty"`
	Raw           json.RawMessage `json:"-"`
}

// Evaluation is the AI assessment of a resume against an analyzed job.
type Evaluation struct {
	Score   int             `json:"score,omitempty"`
	Summary string          `json:"summary,omitempty"`
	Raw     json.RawMessage `json:"-"`
}

// JobPosting is one matched job returned by the matcher.
type JobPosting struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Company      string `json:"company"`
	Description  string `json:"description,omitempty"`
	Requirements string `json:"requirements,omitempty"`
	URL          string `json:"url,omitempty"`
}

// JobMatches is the matcher response.
type JobMatches struct {
	Jobs []JobPosting    `json:"jobs"`
	Raw  json.RawMessage `json:"-"`
}

// OptimizedResume is an AI-optimized resume stored server-side.
type OptimizedResume struct {
	ID       string `json:"id"`
	JobTitle string `json:"jobTitle,omitempty"`
	Company  string `json:"company,omitempty"`
	Content  string `json:"content,omitempty"`
}

// InterviewPrep is the generated question/answer set for one application.
type InterviewPrep struct {
	ApplicationID string          `json:"applicationId,omitempty"`
	Questions     []string        `json:"questions,omitempty"`
	Raw           json.RawMessage `json:"-"`
}

// JobApplication is one tracked application.
type JobApplication struct {
	ID       string `json:"id"`
	JobTitle string `json:"jobTitle"`
	Company  string `json:"company"`
	Status   string `json:"status,omitempty"`
	Location string `json:"location,omitempty"`
	URL      string `json:"url,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Subscription is the billing view of the account.
type Subscription struct {
	Plan             Plan   `json:"plan"`
	Status           string `json:"status,omitempty"`
	CurrentPeriodEnd string `json:"currentPeriodEnd,omitempty"`
}

// CheckoutSession is the payment processor handoff for an upgrade.
type CheckoutSession struct {
	SessionID string `json:"sessionId"`
}

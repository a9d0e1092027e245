package gateway

import (
	"rezzy/internal/types"
)

// Wire types mirror the backend's snake_case JSON. They stay private to the
// gateway; everything above works with the types package.

type planResponse struct {
	Plan                        string `json:"plan"`
	ScansUsed                   int    `json:"scans_used"`
	Month                       string `json:"month"`
	CoverLettersGenerated       int    `json:"cover_letters_generated"`
	InterviewQuestionsGenerated int    `json:"interview_questions_generated"`
}

func (r planResponse) toAccountUsage(userID, email string) (types.Account, types.UsageSnapshot) {
	plan := types.Plan(r.Plan)
	if !plan.Valid() {
		plan = types.PlanFree
	}
	account := types.Account{
		UserID: userID,
		Email:  email,
		Plan:   plan,
	}
	usage := types.UsageSnapshot{
		ScansUsed:                   r.ScansUsed,
		Month:                       r.Month,
		CoverLettersGenerated:       r.CoverLettersGenerated,
		InterviewQuestionsGenerated: r.InterviewQuestionsGenerated,
	}
	return account, usage
}

type resumeRefWire struct {
	ID               string `json:"id"`
	OriginalFilename string `json:"original_filename"`
}

type profileResponse struct {
	UserID        string         `json:"user_id"`
	FirstName     string         `json:"first_name"`
	LastName      string         `json:"last_name"`
	PositionLevel string         `json:"position_level"`
	JobCategory   string         `json:"job_category"`
	CurrentResume *resumeRefWire `json:"current_resume"`
}

func (r profileResponse) toProfile() types.Profile {
	profile := types.Profile{
		UserID:        r.UserID,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		PositionLevel: r.PositionLevel,
		JobCategory:   r.JobCategory,
	}
	if r.CurrentResume != nil {
		profile.CurrentResume = &types.ResumeRef{
			ID:       r.CurrentResume.ID,
			Filename: r.CurrentResume.OriginalFilename,
		}
	}
	return profile
}

type uploadResponse struct {
	ResumeID string `json:"resume_id"`
	Filename string `json:"filename"`
}

type analysisResponse struct {
	Keywords      []string `json:"keywords"`
	MissingSkills []string `json:"missing_skills"`
	MatchScore    int      `json:"match_score"`
}

type evaluationResponse struct {
	Score   int    `json:"score"`
	Summary string `json:"summary"`
}

type jobPostingWire struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Company      string `json:"company"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	URL          string `json:"url"`
}

type matchesResponse struct {
	Jobs []jobPostingWire `json:"jobs"`
}

func (r matchesResponse) toMatches() types.JobMatches {
	return types.JobMatches{Jobs: toPostings(r.Jobs)}
}

type recommendationsResponse struct {
	Recommendations []jobPostingWire `json:"recommendations"`
}

func (r recommendationsResponse) toMatches() types.JobMatches {
	return types.JobMatches{Jobs: toPostings(r.Recommendations)}
}

func toPostings(wire []jobPostingWire) []types.JobPosting {
	out := make([]types.JobPosting, 0, len(wire))
	for _, j := range wire {
		out = append(out, types.JobPosting{
			ID:           j.ID,
			Title:        j.Title,
			Company:      j.Company,
			Description:  j.Description,
			Requirements: j.Requirements,
			URL:          j.URL,
		})
	}
	return out
}

type optimizedResumeWire struct {
	ID       string `json:"id"`
	JobTitle string `json:"job_title"`
	Company  string `json:"company"`
	Content  string `json:"content"`
}

type optimizedResumesResponse struct {
	Resumes []optimizedResumeWire `json:"resumes"`
}

type interviewPrepResponse struct {
	ApplicationID string   `json:"application_id"`
	Questions     []string `json:"questions"`
}

type jobApplicationWire struct {
	ID       string `json:"id"`
	JobTitle string `json:"job_title"`
	Company  string `json:"company"`
	Status   string `json:"status"`
	Location string `json:"location"`
	JobURL   string `json:"job_url"`
	Notes    string `json:"notes"`
}

func (w jobApplicationWire) toApplication() types.JobApplication {
	return types.JobApplication{
		ID:       w.ID,
		JobTitle: w.JobTitle,
		Company:  w.Company,
		Status:   w.Status,
		Location: w.Location,
		URL:      w.JobURL,
		Notes:    w.Notes,
	}
}

type jobApplicationsResponse struct {
	Applications []jobApplicationWire `json:"applications"`
}

type subscriptionResponse struct {
	Plan             string `json:"plan"`
	Status           string `json:"status"`
	CurrentPeriodEnd string `json:"current_period_end"`
}

type checkoutSessionResponse struct {
	SessionID string `json:"session_id"`
}

type healthResponse struct {
	Status string `json:"status"`
}

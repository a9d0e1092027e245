package gateway

import (
	"context"
	"net/url"

	"rezzy/internal/errors"
	"rezzy/internal/types"
)

// Health probes the backend. A nil error means the service answered and
// reported itself up.
func (c *Client) Health(ctx context.Context) error {
	var resp healthResponse
	if err := c.get(ctx, "health", "/api/health", nil, c.shortTimeout, &resp); err != nil {
		return err
	}
	if resp.Status != "" && resp.Status != "ok" {
		return errors.NewBackendUnavailableError(errors.ErrCodeBackendUnreachable,
			"Backend reported status "+resp.Status, nil)
	}
	return nil
}

// CreateAccount upserts the account record for the signed-in user. The
// backend treats an existing account as a no-op, so bootstrap may call this
// on every start.
func (c *Client) CreateAccount(ctx context.Context, session types.Session) error {
	form := url.Values{}
	form.Set("user_id", session.UserID)
	form.Set("email", session.Email)
	form.Set("first_name", session.FirstName)
	form.Set("last_name", session.LastName)
	return c.postForm(ctx, "create_account", "/api/create-account", form, c.longTimeout, nil)
}

// GetPlan fetches the account's plan tier and usage counters.
func (c *Client) GetPlan(ctx context.Context, session types.Session) (types.Account, types.UsageSnapshot, error) {
	form := url.Values{}
	form.Set("user_id", session.UserID)

	var resp planResponse
	if err := c.postForm(ctx, "get_plan", "/api/get-plan", form, c.shortTimeout, &resp); err != nil {
		return types.Account{}, types.UsageSnapshot{}, err
	}

	account, usage := resp.toAccountUsage(session.UserID, session.Email)
	account.FirstName = session.FirstName
	account.LastName = session.LastName
	return account, usage, nil
}

// GetProfile fetches the stored onboarding profile.
func (c *Client) GetProfile(ctx context.Context, userID string) (types.Profile, error) {
	form := url.Values{}
	form.Set("user_id", userID)

	var resp profileResponse
	if err := c.postForm(ctx, "get_profile", "/api/get-profile", form, c.shortTimeout, &resp); err != nil {
		return types.Profile{}, err
	}
	return resp.toProfile(), nil
}

// UpdateProfile writes the onboarding profile fields.
func (c *Client) UpdateProfile(ctx context.Context, profile types.Profile) error {
	form := url.Values{}
	form.Set("user_id", profile.UserID)
	form.Set("first_name", profile.FirstName)
	form.Set("last_name", profile.LastName)
	form.Set("position_level", profile.PositionLevel)
	form.Set("job_category", profile.JobCategory)
	return c.postForm(ctx, "update_profile", "/api/update-profile", form, c.shortTimeout, nil)
}

// UploadResume sends resume file content for server-side parsing and
// storage.
func (c *Client) UploadResume(ctx context.Context, userID, filename string, content []byte) (types.ResumeUpload, error) {
	var resp uploadResponse
	err := c.postMultipart(ctx, "upload_resume", "/api/upload-resume",
		map[string]string{"user_id": userID}, "file", filename, content,
		c.longTimeout, &resp)
	if err != nil {
		return types.ResumeUpload{}, err
	}
	return types.ResumeUpload{ResumeID: resp.ResumeID, Filename: resp.Filename}, nil
}

// AnalyzeJob extracts keywords and gaps from a job description against the
// uploaded resume.
func (c *Client) AnalyzeJob(ctx context.Context, userID, resumeID, jobDescription string) (types.JobAnalysis, error) {
	form := url.Values{}
	form.Set("user_id", userID)
	form.Set("resume_id", resumeID)
	form.Set("job_description", jobDescription)

	var resp analysisResponse
	if err := c.postForm(ctx, "analyze_job", "/api/analyze-job", form, c.longTimeout, &resp); err != nil {
		return types.JobAnalysis{}, err
	}
	return types.JobAnalysis{
		Keywords:      resp.Keywords,
		MissingSkills: resp.MissingSkills,
		MatchScore:    resp.MatchScore,
	}, nil
}

// EvaluateResume runs the scan evaluation. This is the quota-consuming
// operation: a quota-exceeded error here means the backend refused the scan.
func (c *Client) EvaluateResume(ctx context.Context, userID, resumeID, jobDescription string) (types.Evaluation, error) {
	form := url.Values{}
	form.Set("user_id", userID)
	form.Set("resume_id", resumeID)
	form.Set("job_description", jobDescription)

	var resp evaluationResponse
	if err := c.postForm(ctx, "evaluate_resume", "/api/evaluate-resume", form, c.longTimeout, &resp); err != nil {
		return types.Evaluation{}, err
	}
	return types.Evaluation{Score: resp.Score, Summary: resp.Summary}, nil
}

// MatchJobs asks the backend for job postings matching the stored resume.
func (c *Client) MatchJobs(ctx context.Context, userID string) (types.JobMatches, error) {
	form := url.Values{}
	form.Set("user_id", userID)

	var resp matchesResponse
	if err := c.postForm(ctx, "match_jobs", "/api/match-jobs", form, c.longTimeout, &resp); err != nil {
		return types.JobMatches{}, err
	}
	return resp.toMatches(), nil
}

// OptimizeResume generates an optimized resume for one matched job.
func (c *Client) OptimizeResume(ctx context.Context, userID, jobID string) (types.OptimizedResume, error) {
	form := url.Values{}
	form.Set("user_id", userID)
	form.Set("job_id", jobID)

	var resp optimizedResumeWire
	if err := c.postForm(ctx, "optimize_resume", "/api/optimize-resume", form, c.longTimeout, &resp); err != nil {
		return types.OptimizedResume{}, err
	}
	return types.OptimizedResume{
		ID:       resp.ID,
		JobTitle: resp.JobTitle,
		Company:  resp.Company,
		Content:  resp.Content,
	}, nil
}

// ListOptimizedResumes returns previously generated optimized resumes.
func (c *Client) ListOptimizedResumes(ctx context.Context, userID string) ([]types.OptimizedResume, error) {
	form := url.Values{}
	form.Set("user_id", userID)

	var resp optimizedResumesResponse
	if err := c.postForm(ctx, "optimized_resumes", "/api/optimized-resumes", form, c.shortTimeout, &resp); err != nil {
		return nil, err
	}

	out := make([]types.OptimizedResume, 0, len(resp.Resumes))
	for _, r := range resp.Resumes {
		out = append(out, types.OptimizedResume{
			ID:       r.ID,
			JobTitle: r.JobTitle,
			Company:  r.Company,
			Content:  r.Content,
		})
	}
	return out, nil
}

// DownloadResume fetches the file content of the resume attached to the
// profile.
func (c *Client) DownloadResume(ctx context.Context, userID, resumeID string) ([]byte, error) {
	query := url.Values{}
	query.Set("user_id", userID)
	return c.getRaw(ctx, "download_resume",
		"/api/download-resume/"+url.PathEscape(resumeID), query, c.longTimeout)
}

// DownloadOptimizedResume fetches a generated optimized resume as a file.
func (c *Client) DownloadOptimizedResume(ctx context.Context, userID, optimizedID string) ([]byte, error) {
	query := url.Values{}
	query.Set("user_id", userID)
	return c.getRaw(ctx, "download_optimized_resume",
		"/api/download-optimized-resume/"+url.PathEscape(optimizedID), query, c.longTimeout)
}

// JobRecommendations returns recommended postings within the time window.
// Accepted filters follow the backend ("1d", "3d", "1w", "1m").
func (c *Client) JobRecommendations(ctx context.Context, userID, timeFilter string) (types.JobMatches, error) {
	query := url.Values{}
	query.Set("time_filter", timeFilter)

	var resp recommendationsResponse
	err := c.get(ctx, "job_recommendations",
		"/api/job-recommendations/"+url.PathEscape(userID), query, c.longTimeout, &resp)
	if err != nil {
		return types.JobMatches{}, err
	}
	return resp.toMatches(), nil
}

// GenerateInterviewPrep generates interview questions for an application.
func (c *Client) GenerateInterviewPrep(ctx context.Context, userID, applicationID string) (types.InterviewPrep, error) {
	form := url.Values{}
	form.Set("user_id", userID)
	form.Set("application_id", applicationID)

	var resp interviewPrepResponse
	if err := c.postForm(ctx, "generate_interview_prep", "/api/generate-interview-prep", form, c.longTimeout, &resp); err != nil {
		return types.InterviewPrep{}, err
	}
	return types.InterviewPrep{
		ApplicationID: resp.ApplicationID,
		Questions:     resp.Questions,
	}, nil
}

// ListJobApplications returns the tracked job applications.
func (c *Client) ListJobApplications(ctx context.Context, userID string) ([]types.JobApplication, error) {
	form := url.Values{}
	form.Set("user_id", userID)

	var resp jobApplicationsResponse
	if err := c.postForm(ctx, "job_applications", "/api/job-applications", form, c.shortTimeout, &resp); err != nil {
		return nil, err
	}

	out := make([]types.JobApplication, 0, len(resp.Applications))
	for _, a := range resp.Applications {
		out = append(out, a.toApplication())
	}
	return out, nil
}

// CreateJobApplication records a new tracked application.
func (c *Client) CreateJobApplication(ctx context.Context, userID string, app types.JobApplication) (types.JobApplication, error) {
	form := url.Values{}
	form.Set("user_id", userID)
	form.Set("job_title", app.JobTitle)
	form.Set("company", app.Company)
	form.Set("status", app.Status)
	form.Set("location", app.Location)
	form.Set("job_url", app.URL)
	form.Set("notes", app.Notes)

	var resp jobApplicationWire
	if err := c.postForm(ctx, "create_job_application", "/api/create-job-application", form, c.longTimeout, &resp); err != nil {
		return types.JobApplication{}, err
	}
	return resp.toApplication(), nil
}

// UpdateJobApplication rewrites the editable fields of a tracked
// application.
func (c *Client) UpdateJobApplication(ctx context.Context, userID string, app types.JobApplication) (types.JobApplication, error) {
	form := url.Values{}
	form.Set("user_id", userID)
	form.Set("job_title", app.JobTitle)
	form.Set("company", app.Company)
	form.Set("location", app.Location)
	form.Set("job_url", app.URL)
	form.Set("notes", app.Notes)

	var resp jobApplicationWire
	err := c.putForm(ctx, "update_job_application",
		"/api/job-applications/"+url.PathEscape(app.ID), form, c.longTimeout, &resp)
	if err != nil {
		return types.JobApplication{}, err
	}
	return resp.toApplication(), nil
}

// UpdateJobApplicationStatus moves a tracked application through the
// pipeline (applied, interviewing, offered, rejected).
func (c *Client) UpdateJobApplicationStatus(ctx context.Context, userID, applicationID, status string) (types.JobApplication, error) {
	form := url.Values{}
	form.Set("user_id", userID)
	form.Set("status", status)

	var resp jobApplicationWire
	err := c.putForm(ctx, "update_application_status",
		"/api/job-applications/"+url.PathEscape(applicationID)+"/status", form, c.shortTimeout, &resp)
	if err != nil {
		return types.JobApplication{}, err
	}
	return resp.toApplication(), nil
}

// GetSubscription returns the billing view of the account.
func (c *Client) GetSubscription(ctx context.Context, userID string) (types.Subscription, error) {
	form := url.Values{}
	form.Set("user_id", userID)

	var resp subscriptionResponse
	if err := c.postForm(ctx, "get_subscription", "/api/get-subscription", form, c.shortTimeout, &resp); err != nil {
		return types.Subscription{}, err
	}
	return types.Subscription{
		Plan:             types.Plan(resp.Plan),
		Status:           resp.Status,
		CurrentPeriodEnd: resp.CurrentPeriodEnd,
	}, nil
}

// UpgradeSubscription starts a checkout session for the target plan. The
// returned session id hands off to the hosted payment page.
func (c *Client) UpgradeSubscription(ctx context.Context, userID string, target types.Plan) (types.CheckoutSession, error) {
	form := url.Values{}
	form.Set("user_id", userID)
	form.Set("plan", string(target))

	var resp checkoutSessionResponse
	if err := c.postForm(ctx, "upgrade_subscription", "/api/create-checkout-session", form, c.longTimeout, &resp); err != nil {
		return types.CheckoutSession{}, err
	}
	return types.CheckoutSession{SessionID: resp.SessionID}, nil
}

// CancelSubscription cancels the paid plan at period end.
func (c *Client) CancelSubscription(ctx context.Context, userID string) (types.Subscription, error) {
	form := url.Values{}
	form.Set("user_id", userID)

	var resp subscriptionResponse
	if err := c.postForm(ctx, "cancel_subscription", "/api/cancel-subscription", form, c.longTimeout, &resp); err != nil {
		return types.Subscription{}, err
	}
	return types.Subscription{
		Plan:             types.Plan(resp.Plan),
		Status:           resp.Status,
		CurrentPeriodEnd: resp.CurrentPeriodEnd,
	}, nil
}

package wizard

import (
	"context"
	"time"

	"rezzy/internal/errors"
	"rezzy/internal/plangate"
	"rezzy/internal/types"
)

// Scan flow stages: upload a resume, analyze a job description against it,
// run the quota-gated evaluation, then collect results.
const (
	StageUpload   StageID = "upload"
	StageAnalyze  StageID = "analyze"
	StageEvaluate StageID = "evaluate"
	StageResults  StageID = "results"
)

// Matcher flow stages.
const (
	StageMatch    StageID = "match"
	StageOptimize StageID = "optimize"
)

// Interview prep flow stage.
const StagePrep StageID = "prep"

// ScanBackend is the slice of the gateway the scan flow calls.
type ScanBackend interface {
	UploadResume(ctx context.Context, userID, filename string, content []byte) (types.ResumeUpload, error)
	AnalyzeJob(ctx context.Context, userID, resumeID, jobDescription string) (types.JobAnalysis, error)
	EvaluateResume(ctx context.Context, userID, resumeID, jobDescription string) (types.Evaluation, error)
}

// PrepBackend is the slice of the gateway the interview prep flow calls.
type PrepBackend interface {
	GenerateInterviewPrep(ctx context.Context, userID, applicationID string) (types.InterviewPrep, error)
}

// MatchBackend is the slice of the gateway the matcher flow calls.
type MatchBackend interface {
	MatchJobs(ctx context.Context, userID string) (types.JobMatches, error)
	OptimizeResume(ctx context.Context, userID, jobID string) (types.OptimizedResume, error)
}

// PlanFunc reports the current plan and usage snapshot, typically backed by
// the bootstrap machine's state.
type PlanFunc func() (types.Plan, types.UsageSnapshot)

// UploadInput is the payload for the upload stage.
type UploadInput struct {
	Filename string
	Content  []byte
}

// JobInput is the payload for the analyze and evaluate stages.
type JobInput struct {
	JobDescription string
}

// ScanResult is the output of the results stage.
type ScanResult struct {
	Upload     types.ResumeUpload
	Analysis   types.JobAnalysis
	Evaluation types.Evaluation
}

// OptimizeInput selects the matched job to optimize for.
type OptimizeInput struct {
	JobID string
}

// PrepInput selects the tracked application to generate prep for.
type PrepInput struct {
	ApplicationID string
}

// NewScanFlow builds a scan wizard for one user. The evaluate stage runs
// the plan gate before calling the backend; both the local refusal and a
// backend quota refusal park the wizard on the upsell interstitial.
func NewScanFlow(backend ScanBackend, gate *plangate.Gate, plan PlanFunc, userID string, metrics MetricsRecorder, logger *errors.Logger) (*Wizard, error) {
	stages := []Stage{
		{
			ID:    StageUpload,
			Title: "Upload resume",
			Run: func(ctx context.Context, input any, _ Outputs) (any, error) {
				in, ok := input.(UploadInput)
				if !ok || in.Filename == "" || len(in.Content) == 0 {
					return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
						"upload stage requires a resume file", nil)
				}
				return backend.UploadResume(ctx, userID, in.Filename, in.Content)
			},
		},
		{
			ID:        StageAnalyze,
			Title:     "Analyze job description",
			DependsOn: []StageID{StageUpload},
			Run: func(ctx context.Context, input any, prior Outputs) (any, error) {
				in, ok := input.(JobInput)
				if !ok || in.JobDescription == "" {
					return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
						"analyze stage requires a job description", nil)
				}
				upload := mustUpload(prior)
				analysis, err := backend.AnalyzeJob(ctx, userID, upload.ResumeID, in.JobDescription)
				if err != nil {
					return nil, err
				}
				// Carry the description forward for the evaluate stage.
				return analyzedJob{Analysis: analysis, JobDescription: in.JobDescription}, nil
			},
		},
		{
			ID:        StageEvaluate,
			Title:     "Evaluate match",
			DependsOn: []StageID{StageAnalyze},
			Run: func(ctx context.Context, _ any, prior Outputs) (any, error) {
				currentPlan, usage := plan()
				if err := plangate.Denied(gate.CheckScan(currentPlan, usage, time.Now())); err != nil {
					return nil, err
				}
				upload := mustUpload(prior)
				job := mustAnalyzed(prior)
				return backend.EvaluateResume(ctx, userID, upload.ResumeID, job.JobDescription)
			},
		},
		{
			ID:        StageResults,
			Title:     "Results",
			DependsOn: []StageID{StageEvaluate},
			Run: func(_ context.Context, _ any, prior Outputs) (any, error) {
				job := mustAnalyzed(prior)
				ev, _ := prior.Get(StageEvaluate)
				return ScanResult{
					Upload:     mustUpload(prior),
					Analysis:   job.Analysis,
					Evaluation: ev.(types.Evaluation),
				}, nil
			},
		},
	}

	return New("scan", stages, metrics, logger)
}

// NewMatcherFlow builds a job matcher wizard. Optimization is quota-gated
// the same way scans are.
func NewMatcherFlow(backend MatchBackend, gate *plangate.Gate, plan PlanFunc, userID string, metrics MetricsRecorder, logger *errors.Logger) (*Wizard, error) {
	stages := []Stage{
		{
			ID:    StageMatch,
			Title: "Match jobs",
			Run: func(ctx context.Context, _ any, _ Outputs) (any, error) {
				return backend.MatchJobs(ctx, userID)
			},
		},
		{
			ID:        StageOptimize,
			Title:     "Optimize resume for job",
			DependsOn: []StageID{StageMatch},
			Run: func(ctx context.Context, input any, _ Outputs) (any, error) {
				in, ok := input.(OptimizeInput)
				if !ok || in.JobID == "" {
					return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
						"optimize stage requires a job id", nil)
				}
				currentPlan, usage := plan()
				if err := plangate.Denied(gate.CheckScan(currentPlan, usage, time.Now())); err != nil {
					return nil, err
				}
				return backend.OptimizeResume(ctx, userID, in.JobID)
			},
		},
	}

	return New("matcher", stages, metrics, logger)
}

// NewPrepFlow builds the single-stage interview prep wizard. Prep consumes
// quota like scans do, so the plan gate runs before the backend call and a
// refusal parks the wizard on the upsell interstitial.
func NewPrepFlow(backend PrepBackend, gate *plangate.Gate, plan PlanFunc, userID string, metrics MetricsRecorder, logger *errors.Logger) (*Wizard, error) {
	stages := []Stage{
		{
			ID:    StagePrep,
			Title: "Generate interview prep",
			Run: func(ctx context.Context, input any, _ Outputs) (any, error) {
				in, ok := input.(PrepInput)
				if !ok || in.ApplicationID == "" {
					return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
						"prep stage requires an application id", nil)
				}
				currentPlan, usage := plan()
				if err := plangate.Denied(gate.CheckScan(currentPlan, usage, time.Now())); err != nil {
					return nil, err
				}
				return backend.GenerateInterviewPrep(ctx, userID, in.ApplicationID)
			},
		},
	}

	return New("prep", stages, metrics, logger)
}

// analyzedJob pairs the analysis output with the job description that
// produced it.
type analyzedJob struct {
	Analysis       types.JobAnalysis
	JobDescription string
}

func mustUpload(prior Outputs) types.ResumeUpload {
	out, _ := prior.Get(StageUpload)
	upload, _ := out.(types.ResumeUpload)
	return upload
}

func mustAnalyzed(prior Outputs) analyzedJob {
	out, _ := prior.Get(StageAnalyze)
	job, _ := out.(analyzedJob)
	return job
}

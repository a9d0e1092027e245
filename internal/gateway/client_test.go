package gateway

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"rezzy/internal/config"
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

func testClient(t *testing.T, baseURL string, maxRetries int) *Client {
	t.Helper()
	cfg := &config.APIConfig{
		BaseURL:      baseURL,
		Token:        "test-token",
		ShortTimeout: 2 * time.Second,
		LongTimeout:  2 * time.Second,
		MaxRetries:   maxRetries,
	}
	client, err := New(cfg, nil, testLogger(t))
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	return client
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(&config.APIConfig{}, nil, testLogger(t))
	if err == nil {
		t.Fatal("New() without baseURL should fail")
	}
	if errors.KindOf(err) != errors.KindConfig {
		t.Errorf("New() error kind = %v, want config", errors.KindOf(err))
	}
}

func TestHealthOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0)
	defer client.Close()

	if err := client.Health(context.Background()); err != nil {
		t.Errorf("Health() returned error: %v", err)
	}
}

func TestHealthNotOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "maintenance"})
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0)
	defer client.Close()

	err := client.Health(context.Background())
	if errors.KindOf(err) != errors.KindBackendUnavailable {
		t.Errorf("Health() on non-ok status kind = %v, want backend unavailable", errors.KindOf(err))
	}
}

func TestForbiddenClassifiesAsQuota(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Monthly scan limit reached"})
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0)
	defer client.Close()

	_, err := client.EvaluateResume(context.Background(), "u-1", "r-1", "job text")
	if !errors.IsQuotaExceeded(err) {
		t.Errorf("EvaluateResume() on 403 kind = %v, want quota exceeded", errors.KindOf(err))
	}
}

func TestBadRequestCarriesDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "job description too short"})
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0)
	defer client.Close()

	_, err := client.AnalyzeJob(context.Background(), "u-1", "r-1", "x")
	if errors.KindOf(err) != errors.KindValidationRejected {
		t.Fatalf("AnalyzeJob() on 400 kind = %v, want validation rejected", errors.KindOf(err))
	}
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		t.Fatal("expected an AppError")
	}
	if appErr.Message != "job description too short" {
		t.Errorf("error message = %q, want backend detail verbatim", appErr.Message)
	}
}

func TestServerFaultRetriedThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"plan": "free", "scans_used": 1, "month": "2025-06"})
	}))
	defer server.Close()

	client := testClient(t, server.URL, 2)
	defer client.Close()

	account, usage, err := client.GetPlan(context.Background(), types.Session{UserID: "u-1", Ready: true})
	if err != nil {
		t.Fatalf("GetPlan() after retry returned error: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("server saw %d calls, want 2 (one failure, one retry)", calls.Load())
	}
	if account.Plan != types.PlanFree || usage.ScansUsed != 1 {
		t.Errorf("GetPlan() = %+v / %+v, want free plan with one scan used", account, usage)
	}
}

func TestValidationErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"detail": "bad input"})
	}))
	defer server.Close()

	client := testClient(t, server.URL, 3)
	defer client.Close()

	_, err := client.GetProfile(context.Background(), "u-1")
	if errors.KindOf(err) != errors.KindValidationRejected {
		t.Fatalf("GetProfile() kind = %v, want validation rejected", errors.KindOf(err))
	}
	if calls.Load() != 1 {
		t.Errorf("server saw %d calls, want 1 (validation errors are terminal)", calls.Load())
	}
}

func TestUnreachableBackendClassified(t *testing.T) {
	client := testClient(t, "http://127.0.0.1:1", 0)
	defer client.Close()

	err := client.Health(context.Background())
	if errors.KindOf(err) != errors.KindBackendUnavailable {
		t.Errorf("Health() against closed port kind = %v, want backend unavailable", errors.KindOf(err))
	}
}

func TestFormEncoding(t *testing.T) {
	var gotUserID, gotContentType, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() returned error: %v", err)
		}
		gotUserID = r.PostFormValue("user_id")
		gotContentType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"plan": "starter", "scans_used": 0, "month": "2025-06"})
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0)
	defer client.Close()

	_, _, err := client.GetPlan(context.Background(), types.Session{UserID: "u-42", Email: "a@b.c", Ready: true})
	if err != nil {
		t.Fatalf("GetPlan() returned error: %v", err)
	}
	if gotUserID != "u-42" {
		t.Errorf("user_id field = %q, want u-42", gotUserID)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %q, want form encoding", gotContentType)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
}

func TestUploadResumeMultipart(t *testing.T) {
	var gotFilename, gotUserID string
	var gotContent []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() returned error: %v", err)
		}
		gotUserID = r.FormValue("user_id")
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile() returned error: %v", err)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		buf := make([]byte, header.Size)
		file.Read(buf)
		gotContent = buf
		json.NewEncoder(w).Encode(map[string]string{"resume_id": "r-9", "filename": header.Filename})
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0)
	defer client.Close()

	upload, err := client.UploadResume(context.Background(), "u-1", "resume.pdf", []byte("pdf bytes"))
	if err != nil {
		t.Fatalf("UploadResume() returned error: %v", err)
	}
	if upload.ResumeID != "r-9" {
		t.Errorf("ResumeID = %q, want r-9", upload.ResumeID)
	}
	if gotFilename != "resume.pdf" || gotUserID != "u-1" {
		t.Errorf("multipart fields = (%q, %q), want (resume.pdf, u-1)", gotFilename, gotUserID)
	}
	if string(gotContent) != "pdf bytes" {
		t.Errorf("file content = %q, want the uploaded bytes", gotContent)
	}
}

func TestMalformedResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0)
	defer client.Close()

	_, err := client.GetProfile(context.Background(), "u-1")
	if errors.KindOf(err) != errors.KindServerFault {
		t.Errorf("GetProfile() on malformed body kind = %v, want server fault", errors.KindOf(err))
	}
}

func TestDownloadResumeReturnsRawBytes(t *testing.T) {
	pdf := []byte("%PDF-1.4 resume bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/download-resume/r-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("user_id"); got != "u-1" {
			t.Errorf("user_id = %q, want u-1", got)
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(pdf)
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0)
	defer client.Close()

	content, err := client.DownloadResume(context.Background(), "u-1", "r-1")
	if err != nil {
		t.Fatalf("DownloadResume() returned error: %v", err)
	}
	if string(content) != string(pdf) {
		t.Errorf("DownloadResume() content = %q, want the served file bytes", content)
	}
}

func TestDownloadOptimizedResumePath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/download-optimized-resume/opt-3" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte("optimized"))
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0)
	defer client.Close()

	content, err := client.DownloadOptimizedResume(context.Background(), "u-1", "opt-3")
	if err != nil {
		t.Fatalf("DownloadOptimizedResume() returned error: %v", err)
	}
	if string(content) != "optimized" {
		t.Errorf("DownloadOptimizedResume() content = %q", content)
	}
}

func TestJobRecommendations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/job-recommendations/u-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("time_filter"); got != "1w" {
			t.Errorf("time_filter = %q, want 1w", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"recommendations": []map[string]any{
				{"id": "j-9", "title": "Platform Engineer", "company": "Acme"},
			},
		})
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0)
	defer client.Close()

	matches, err := client.JobRecommendations(context.Background(), "u-1", "1w")
	if err != nil {
		t.Fatalf("JobRecommendations() returned error: %v", err)
	}
	if len(matches.Jobs) != 1 || matches.Jobs[0].ID != "j-9" {
		t.Errorf("JobRecommendations() = %+v, want one posting j-9", matches.Jobs)
	}
}

func TestUpdateApplicationStatusUsesPut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if r.URL.Path != "/api/job-applications/app-1/status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if got := r.PostForm.Get("status"); got != "interviewing" {
			t.Errorf("status = %q, want interviewing", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id": "app-1", "job_title": "Backend Engineer", "company": "Acme", "status": "interviewing",
		})
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0)
	defer client.Close()

	app, err := client.UpdateJobApplicationStatus(context.Background(), "u-1", "app-1", "interviewing")
	if err != nil {
		t.Fatalf("UpdateJobApplicationStatus() returned error: %v", err)
	}
	if app.Status != "interviewing" {
		t.Errorf("updated status = %q, want interviewing", app.Status)
	}
}

func TestUpdateJobApplicationRewritesFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if r.URL.Path != "/api/job-applications/app-2" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":        "app-2",
			"job_title": r.PostForm.Get("job_title"),
			"company":   r.PostForm.Get("company"),
			"notes":     r.PostForm.Get("notes"),
		})
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0)
	defer client.Close()

	app, err := client.UpdateJobApplication(context.Background(), "u-1", types.JobApplication{
		ID:       "app-2",
		JobTitle: "Staff Engineer",
		Company:  "Globex",
		Notes:    "recruiter follow-up",
	})
	if err != nil {
		t.Fatalf("UpdateJobApplication() returned error: %v", err)
	}
	if app.JobTitle != "Staff Engineer" || app.Notes != "recruiter follow-up" {
		t.Errorf("UpdateJobApplication() = %+v", app)
	}
}

func TestUnknownPlanDefaultsToFree(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"plan": "platinum_deluxe", "scans_used": 0, "month": "2025-06"})
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0)
	defer client.Close()

	account, _, err := client.GetPlan(context.Background(), types.Session{UserID: "u-1", Ready: true})
	if err != nil {
		t.Fatalf("GetPlan() returned error: %v", err)
	}
	if account.Plan != types.PlanFree {
		t.Errorf("unknown plan tier mapped to %q, want free", account.Plan)
	}
}

package formatters

import (
	"encoding/json"
	"strings"
	"testing"

	"rezzy/internal/types"
	"rezzy/internal/wizard"
)

func sampleScanResult() wizard.ScanResult {
	return wizard.ScanResult{
		Upload: types.ResumeUpload{ResumeID: "r-1", Filename: "resume.pdf"},
		Analysis: types.JobAnalysis{
			Keywords:      []string{"go", "postgres"},
			MissingSkills: []string{"kubernetes"},
			MatchScore:    78,
		},
		Evaluation: types.Evaluation{Score: 82, Summary: "strong backend profile"},
	}
}

func TestRegistryFormatsScanResult(t *testing.T) {
	registry := NewFormatterRegistry()

	text, err := registry.Format(sampleScanResult(), "text")
	if err != nil {
		t.Fatalf("Format(text) returned error: %v", err)
	}
	for _, want := range []string{"resume.pdf", "78/100", "82/100", "kubernetes"} {
		if !strings.Contains(text, want) {
			t.Errorf("text output missing %q:\n%s", want, text)
		}
	}

	md, err := registry.Format(sampleScanResult(), "markdown")
	if err != nil {
		t.Fatalf("Format(markdown) returned error: %v", err)
	}
	if !strings.HasPrefix(md, "# Resume Scan") {
		t.Errorf("markdown output should start with a heading:\n%s", md)
	}
}

func TestRegistryJSONFallback(t *testing.T) {
	registry := NewFormatterRegistry()

	// Subscription has no dedicated formatter; JSON falls back to generic.
	out, err := registry.Format(types.Subscription{Plan: types.PlanStarter, Status: "active"}, "json")
	if err != nil {
		t.Fatalf("Format(json) returned error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("JSON output is not valid JSON: %v", err)
	}
	if decoded["plan"] != "starter" {
		t.Errorf("JSON output plan = %v, want starter", decoded["plan"])
	}
}

func TestRegistryUnknownFormat(t *testing.T) {
	registry := NewFormatterRegistry()
	if _, err := registry.Format(sampleScanResult(), "xml"); err == nil {
		t.Error("Format(xml) should fail, no formatter is registered")
	}
}

func TestRegistryTextWithoutSpecificFormatter(t *testing.T) {
	registry := NewFormatterRegistry()

	// Text has no formatter for arbitrary data and no generic fallback.
	if _, err := registry.Format(types.Subscription{}, "text"); err == nil {
		t.Error("Format(text) on an unsupported type should fail")
	}
}

func TestMatchesTextFormatter(t *testing.T) {
	matches := types.JobMatches{Jobs: []types.JobPosting{
		{ID: "j-1", Title: "Backend Engineer", Company: "Acme", URL: "https://jobs.example.com/j-1"},
		{ID: "j-2", Title: "Platform Engineer", Company: "Globex"},
	}}

	out, err := NewFormatterRegistry().Format(matches, "text")
	if err != nil {
		t.Fatalf("Format() returned error: %v", err)
	}
	for _, want := range []string{"Backend Engineer at Acme", "j-2", "https://jobs.example.com/j-1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMatchesTextFormatterEmpty(t *testing.T) {
	out, err := NewFormatterRegistry().Format(types.JobMatches{}, "text")
	if err != nil {
		t.Fatalf("Format() returned error: %v", err)
	}
	if !strings.Contains(out, "No matching jobs found") {
		t.Errorf("empty matches output = %q", out)
	}
}

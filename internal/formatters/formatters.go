package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"rezzy/internal/types"
	"rezzy/internal/wizard"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "ScanResult", &ScanTextFormatter{})
	registry.RegisterFormatter("markdown", "ScanResult", &ScanMarkdownFormatter{})
	registry.RegisterFormatter("text", "JobMatches", &MatchesTextFormatter{})
	registry.RegisterFormatter("markdown", "JobMatches", &MatchesMarkdownFormatter{})
	registry.RegisterFormatter("text", "InterviewPrep", &InterviewPrepTextFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case wizard.ScanResult:
		return "ScanResult"
	case types.JobMatches:
		return "JobMatches"
	case types.InterviewPrep:
		return "InterviewPrep"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ScanTextFormatter handles text formatting for scan results
type ScanTextFormatter struct{}

func (stf *ScanTextFormatter) Format(data any) (string, error) {
	result, ok := data.(wizard.ScanResult)
	if !ok {
		return "", fmt.Errorf("expected ScanResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== RESUME SCAN ===\n\n")
	output.WriteString(fmt.Sprintf("Resume: %s\n", result.Upload.Filename))
	output.WriteString(fmt.Sprintf("Match Score: %d/100\n", result.Analysis.MatchScore))
	output.WriteString(fmt.Sprintf("Evaluation Score: %d/100\n\n", result.Evaluation.Score))

	if result.Evaluation.Summary != "" {
		output.WriteString("Summary:\n")
		output.WriteString(result.Evaluation.Summary)
		output.WriteString("\n\n")
	}

	if len(result.Analysis.Keywords) > 0 {
		output.WriteString("Keywords:\n")
		for _, kw := range result.Analysis.Keywords {
			output.WriteString(fmt.Sprintf("- %s\n", kw))
		}
		output.WriteString("\n")
	}

	if len(result.Analysis.MissingSkills) > 0 {
		output.WriteString("Missing Skills:\n")
		for _, skill := range result.Analysis.MissingSkills {
			output.WriteString(fmt.Sprintf("- %s\n", skill))
		}
		output.WriteString("\n")
	} else {
		output.WriteString("No missing skills found.\n")
	}

	return output.String(), nil
}

func (stf *ScanTextFormatter) SupportedType() string {
	return "ScanResult"
}

// ScanMarkdownFormatter handles markdown formatting for scan results
type ScanMarkdownFormatter struct{}

func (smf *ScanMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(wizard.ScanResult)
	if !ok {
		return "", fmt.Errorf("expected ScanResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Resume Scan\n\n")
	output.WriteString(fmt.Sprintf("**Resume:** %s\n\n", result.Upload.Filename))
	output.WriteString(fmt.Sprintf("**Match Score:** %d/100\n\n", result.Analysis.MatchScore))
	output.WriteString(fmt.Sprintf("**Evaluation Score:** %d/100\n\n", result.Evaluation.Score))

	if result.Evaluation.Summary != "" {
		output.WriteString("## Summary\n\n")
		output.WriteString(result.Evaluation.Summary)
		output.WriteString("\n\n")
	}

	if len(result.Analysis.Keywords) > 0 {
		output.WriteString("## Keywords\n\n")
		for _, kw := range result.Analysis.Keywords {
			output.WriteString(fmt.Sprintf("- %s\n", kw))
		}
		output.WriteString("\n")
	}

	if len(result.Analysis.MissingSkills) > 0 {
		output.WriteString("## Missing Skills\n\n")
		for _, skill := range result.Analysis.MissingSkills {
			output.WriteString(fmt.Sprintf("- %s\n", skill))
		}
		output.WriteString("\n")
	} else {
		output.WriteString("## No Missing Skills\n\nThe resume covers the skills this job asks for.\n")
	}

	return output.String(), nil
}

func (smf *ScanMarkdownFormatter) SupportedType() string {
	return "ScanResult"
}

// MatchesTextFormatter handles text formatting for job match results
type MatchesTextFormatter struct{}

func (mtf *MatchesTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.JobMatches)
	if !ok {
		return "", fmt.Errorf("expected JobMatches, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== MATCHED JOBS ===\n\n")
	if len(result.Jobs) == 0 {
		output.WriteString("No matching jobs found.\n")
		return output.String(), nil
	}

	for i, job := range result.Jobs {
		output.WriteString(fmt.Sprintf("%d. %s at %s\n", i+1, job.Title, job.Company))
		output.WriteString(fmt.Sprintf("   ID: %s\n", job.ID))
		if job.URL != "" {
			output.WriteString(fmt.Sprintf("   URL: %s\n", job.URL))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (mtf *MatchesTextFormatter) SupportedType() string {
	return "JobMatches"
}

// MatchesMarkdownFormatter handles markdown formatting for job match results
type MatchesMarkdownFormatter struct{}

func (mmf *MatchesMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.JobMatches)
	if !ok {
		return "", fmt.Errorf("expected JobMatches, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Matched Jobs\n\n")
	if len(result.Jobs) == 0 {
		output.WriteString("No matching jobs found.\n")
		return output.String(), nil
	}

	for i, job := range result.Jobs {
		output.WriteString(fmt.Sprintf("## %d. %s at %s\n\n", i+1, job.Title, job.Company))
		output.WriteString(fmt.Sprintf("**ID:** %s\n\n", job.ID))
		if job.URL != "" {
			output.WriteString(fmt.Sprintf("**URL:** %s\n\n", job.URL))
		}
		if job.Description != "" {
			output.WriteString(job.Description)
			output.WriteString("\n\n")
		}
	}

	return output.String(), nil
}

func (mmf *MatchesMarkdownFormatter) SupportedType() string {
	return "JobMatches"
}

// InterviewPrepTextFormatter handles text formatting for interview prep
type InterviewPrepTextFormatter struct{}

func (itf *InterviewPrepTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.InterviewPrep)
	if !ok {
		return "", fmt.Errorf("expected InterviewPrep, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== INTERVIEW PREP ===\n\n")
	if len(result.Questions) == 0 {
		output.WriteString("No questions generated.\n")
		return output.String(), nil
	}

	for i, q := range result.Questions {
		output.WriteString(fmt.Sprintf("%d. %s\n", i+1, q))
	}

	return output.String(), nil
}

func (itf *InterviewPrepTextFormatter) SupportedType() string {
	return "InterviewPrep"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()

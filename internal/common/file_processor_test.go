package common

import (
	"os"
	"path/filepath"
	"testing"

	"rezzy/internal/errors"
)

func TestReadResumeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.pdf")
	if err := os.WriteFile(path, []byte("pdf content"), 0600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	fp := NewFileProcessor(nil)
	content, err := fp.ReadResumeFile(path, 1024)
	if err != nil {
		t.Fatalf("ReadResumeFile() returned error: %v", err)
	}
	if string(content) != "pdf content" {
		t.Errorf("ReadResumeFile() = %q, want file content", content)
	}
}

func TestReadResumeFileTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.pdf")
	if err := os.WriteFile(path, make([]byte, 100), 0600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	fp := NewFileProcessor(nil)
	_, err := fp.ReadResumeFile(path, 50)
	if err == nil {
		t.Fatal("ReadResumeFile() should reject a file over the size limit")
	}
	if errors.KindOf(err) != errors.KindValidationRejected {
		t.Errorf("ReadResumeFile() error kind = %v, want validation rejected", errors.KindOf(err))
	}
}

func TestReadResumeFileMissing(t *testing.T) {
	fp := NewFileProcessor(nil)
	_, err := fp.ReadResumeFile(filepath.Join(t.TempDir(), "nope.pdf"), 0)
	if err == nil {
		t.Fatal("ReadResumeFile() should fail for a missing file")
	}
}

func TestReadTextFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.txt")
	if err := os.WriteFile(path, []byte("job description"), 0600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	fp := NewFileProcessor(nil)
	content, err := fp.ReadTextFile(path)
	if err != nil {
		t.Fatalf("ReadTextFile() returned error: %v", err)
	}
	if content != "job description" {
		t.Errorf("ReadTextFile() = %q, want file content", content)
	}
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")

	fp := NewFileProcessor(nil)
	if err := fp.WriteFile(path, "{}"); err != nil {
		t.Fatalf("WriteFile() returned error: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written file: %v", err)
	}
	if string(content) != "{}" {
		t.Errorf("written content = %q, want {}", content)
	}
}

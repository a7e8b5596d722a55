// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"
)

// Report is the YAML run summary written by --report.
type Report struct {
	Input      string      `yaml:"input"`
	Output     string      `yaml:"output"`
	ImagesDir  string      `yaml:"images_dir,omitempty"`
	CachePath  string      `yaml:"cache_path,omitempty"`
	StartedAt  time.Time   `yaml:"started_at"`
	FinishedAt time.Time   `yaml:"finished_at"`
	Elapsed    string      `yaml:"elapsed"`
	Error      string      `yaml:"error,omitempty"`
	Result     BatchResult `yaml:"result"`
}

// NewReport fills the timing fields and the error message, if any.
func NewReport(input, output string, started time.Time, result BatchResult, runErr error) Report {
	finished := time.Now()
	r := Report{
		Input:      input,
		Output:     output,
		StartedAt:  started.UTC().Truncate(time.Second),
		FinishedAt: finished.UTC().Truncate(time.Second),
		Elapsed:    finished.Sub(started).Round(time.Second).String(),
		Result:     result,
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}
	return r
}

// WriteReport marshals r to path through a temporary file.
func WriteReport(path string, r Report) error {
	data, err := yaml.Marshal(&r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".report-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing report: %w", errors.Join(writeErr, closeErr))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

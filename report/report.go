// Package report exports a completed run as a standalone HTML document or
// as JSON.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"earcheck/engine"
)

type Format string

const (
	HTML Format = "html"
	JSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case HTML:
		return HTML, nil
	case JSON:
		return JSON, nil
	}
	return "", fmt.Errorf("unknown report format %q (want html or json)", s)
}

// Filename is hearing_test_results_<YYYY-MM-DD_HH-MM>.<ext>, stamped in UTC.
func Filename(at time.Time, f Format) string {
	return "hearing_test_results_" + at.UTC().Format("2006-01-02_15-04") + "." + string(f)
}

// Write encodes the report for rs in format f.
func Write(w io.Writer, rs engine.ResultSet, at time.Time, f Format) error {
	switch f {
	case HTML:
		return WriteHTML(w, rs, at)
	case JSON:
		return WriteJSON(w, rs, at)
	}
	return fmt.Errorf("unknown report format %q", f)
}

// Save writes the report into dir and returns the file path.
func Save(dir string, rs engine.ResultSet, at time.Time, f Format) (string, error) {
	if !rs.Complete() {
		return "", fmt.Errorf("results incomplete: %d of %d trials", rs.Len(), engine.TotalTrials)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, Filename(at, f))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	if err := Write(file, rs, at, f); err != nil {
		file.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	return path, nil
}

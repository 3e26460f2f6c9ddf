// Package errtrack accumulates per-row upload failures and renders
// them to the four artifact files of §4.6, grounded on the teacher's
// internal/filesystem.Organizer writing reports to a dedicated
// directory, generalized from move-conflict reports to validation
// artifacts.
package errtrack

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Kind classifies one row failure.
type Kind string

const (
	KindValidation Kind = "VALIDATION_ERROR"
	KindSkipped    Kind = "DEPENDENCY_SKIPPED"
	KindDuplicate  Kind = "DUPLICATE_ERROR"
	KindSystem     Kind = "SYSTEM_ERROR"
)

// Entry is one recorded row failure.
type Entry struct {
	RowNumber int
	RowData   map[string]string
	Kind      Kind
	Message   string
}

// Tracker collects Entry values for one upload and can render them to
// the standard artifact file set.
type Tracker struct {
	headers []string
	entries []Entry
}

// New creates a Tracker whose artifact files render columns in header order.
func New(headers []string) *Tracker {
	return &Tracker{headers: headers}
}

func (t *Tracker) Record(rowNumber int, rowData map[string]string, kind Kind, message string) {
	t.entries = append(t.entries, Entry{RowNumber: rowNumber, RowData: rowData, Kind: kind, Message: message})
}

func (t *Tracker) HasFailures() bool {
	for _, e := range t.entries {
		if e.Kind == KindValidation || e.Kind == KindDuplicate {
			return true
		}
	}
	return false
}

func (t *Tracker) CountByKind(kind Kind) int {
	n := 0
	for _, e := range t.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (t *Tracker) Entries() []Entry { return t.entries }

// ArtifactPaths names the four files a run produces, keyed by kind.
type ArtifactPaths struct {
	ValidationErrors       string
	SkippedRows            string
	AllFailedRowsWithErrors string
	ErrorSummary           string
}

// WriteArtifacts renders the four files under dir, each named
// {fileType}_{taskID}_{ts}_{suffix}.tsv, and returns their paths. If
// there are no entries at all, no files are written and an empty
// ArtifactPaths is returned.
func (t *Tracker) WriteArtifacts(dir, fileType string, taskID uint64, ts time.Time) (ArtifactPaths, error) {
	if len(t.entries) == 0 {
		return ArtifactPaths{}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ArtifactPaths{}, fmt.Errorf("errtrack: create dir: %w", err)
	}

	prefix := fmt.Sprintf("%s_%d_%d", fileType, taskID, ts.Unix())
	paths := ArtifactPaths{
		ValidationErrors:        filepath.Join(dir, prefix+"_validation_errors.tsv"),
		SkippedRows:             filepath.Join(dir, prefix+"_skipped_rows.tsv"),
		AllFailedRowsWithErrors: filepath.Join(dir, prefix+"_all_failed_rows_with_errors.tsv"),
		ErrorSummary:            filepath.Join(dir, prefix+"_error_summary.tsv"),
	}

	if err := t.writeRowFile(paths.ValidationErrors, KindValidation, KindDuplicate); err != nil {
		return paths, err
	}
	if err := t.writeRowFile(paths.SkippedRows, KindSkipped); err != nil {
		return paths, err
	}
	if err := t.writeAllFailed(paths.AllFailedRowsWithErrors); err != nil {
		return paths, err
	}
	if err := t.writeSummary(paths.ErrorSummary); err != nil {
		return paths, err
	}
	return paths, nil
}

func (t *Tracker) writeRowFile(path string, kinds ...Kind) error {
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	var b strings.Builder
	b.WriteString(strings.Join(t.headers, "\t"))
	b.WriteByte('\n')
	for _, e := range t.entries {
		if !want[e.Kind] {
			continue
		}
		b.WriteString(t.rowLine(e.RowData))
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func (t *Tracker) writeAllFailed(path string) error {
	var b strings.Builder
	b.WriteString(strings.Join(t.headers, "\t"))
	b.WriteString("\tRow_Number\tError_Type\tError_Reason\n")
	for _, e := range t.entries {
		b.WriteString(t.rowLine(e.RowData))
		b.WriteString(fmt.Sprintf("\t%d\t%s\t%s\n", e.RowNumber, e.Kind, e.Message))
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func (t *Tracker) writeSummary(path string) error {
	var b strings.Builder
	b.WriteString("Error_Type\tCount\n")
	for _, kind := range []Kind{KindValidation, KindSkipped, KindDuplicate, KindSystem} {
		count := t.CountByKind(kind)
		if count == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("%s\t%d\n", kind, count))
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func (t *Tracker) rowLine(row map[string]string) string {
	cells := make([]string, len(t.headers))
	for i, h := range t.headers {
		cells[i] = row[h]
	}
	return strings.Join(cells, "\t")
}

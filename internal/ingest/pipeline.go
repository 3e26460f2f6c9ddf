// Package ingest implements the generic parse -> validate -> resolve
// -> dedupe -> persist shape of an upload, instantiated once per
// entity kind (styles/skus/stores/sales). Grounded on the teacher's
// internal/engine.Manager orchestrating a download through fixed
// phases while reporting progress back to its own Task-equivalent
// record, generalized from a byte-transfer pipeline to a row-transfer
// one.
package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/increff/noos-service/internal/audit"
	"github.com/increff/noos-service/internal/errtrack"
	"github.com/increff/noos-service/internal/storage"
)

// ErrCancelled is returned by a Run* method when the task's
// cancellation flag was observed at one of the three checkpoints.
var ErrCancelled = fmt.Errorf("ingest: task was cancelled by user")

// Pipeline wires together parsing, validation, FK resolution,
// deduplication and persistence for every entity kind.
type Pipeline struct {
	storage *storage.Storage
	audit   *audit.Logger
	tempDir string
}

func New(s *storage.Storage, auditLogger *audit.Logger, tempDir string) *Pipeline {
	return &Pipeline{storage: s, audit: auditLogger, tempDir: tempDir}
}

// progress updates a task's phase/progress/message and persists it
// immediately so pollers see monotonic progress (§4.7 "Progress
// reporting from C7 to C1").
func (p *Pipeline) progress(task *storage.Task, pct float64, phase, message string) error {
	task.Progress = pct
	task.Phase = phase
	task.Message = message
	return p.storage.UpdateTask(task)
}

// cancelled re-reads the task's cancellation flag from storage, since
// a concurrent request may have called RequestCancellation on a
// different goroutine after this task started running.
func (p *Pipeline) cancelled(task *storage.Task) (bool, error) {
	fresh, err := p.storage.GetTask(task.ID)
	if err != nil {
		return false, err
	}
	return fresh.CancellationRequested, nil
}

func (p *Pipeline) markCancelled(task *storage.Task) error {
	task.Message = "Task was cancelled by user"
	return p.storage.FinishTask(task, storage.TaskCancelled)
}

func (p *Pipeline) markFailed(task *storage.Task, err error) error {
	task.ErrorMessage = err.Error()
	task.Message = err.Error()
	return p.storage.FinishTask(task, storage.TaskFailed)
}

// checkCancel is the common shape of the three cancellation
// checkpoints of §4.7/§4.8: re-read the flag, and if still running,
// advance progress to pct/phase. Returns true when the caller must
// stop and finish via finishCancelOrFail.
func (p *Pipeline) checkCancel(task *storage.Task, phase string, pct float64) (bool, error) {
	isCancelled, err := p.cancelled(task)
	if err != nil {
		return false, err
	}
	if isCancelled {
		return true, nil
	}
	if err := p.progress(task, pct, phase, phase); err != nil {
		return false, err
	}
	return false, nil
}

// finishCancelOrFail converts a checkCancel result into the terminal
// state: a storage error propagates as-is, otherwise the task is
// marked CANCELLED and ErrCancelled is returned.
func (p *Pipeline) finishCancelOrFail(task *storage.Task, err error) (*UploadResult, error) {
	if err != nil {
		return nil, err
	}
	if err := p.markCancelled(task); err != nil {
		return nil, err
	}
	return nil, ErrCancelled
}

func describeDiffs(diffs []storage.FieldDiff) string {
	parts := make([]string, 0, len(diffs))
	for _, d := range diffs {
		if d.Old == "" && d.New == "" {
			parts = append(parts, d.Field+" changed")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %q -> %q", d.Field, d.Old, d.New))
	}
	return strings.Join(parts, "; ")
}

func (p *Pipeline) markCompleted(task *storage.Task, processed int64) error {
	task.Progress = 100
	task.Phase = "complete"
	task.ProcessedRecords = processed
	return p.storage.FinishTask(task, storage.TaskCompleted)
}

// buildResult turns a Tracker's accumulated entries into the external
// UploadResponse shape, writing artifact files to disk when any entry
// was recorded at all.
func (p *Pipeline) buildResult(tracker *errtrack.Tracker, fileType string, taskID uint64, recordCount int) (*UploadResult, error) {
	result := &UploadResult{
		Success:     !tracker.HasFailures(),
		RecordCount: recordCount,
		ErrorCount:  tracker.CountByKind(errtrack.KindValidation) + tracker.CountByKind(errtrack.KindDuplicate),
		SkippedCount: tracker.CountByKind(errtrack.KindSkipped),
		ErrorFiles:  map[string]string{},
	}

	summary := ErrorSummary{Counts: map[string]int{}}
	for _, kind := range []errtrack.Kind{errtrack.KindValidation, errtrack.KindSkipped, errtrack.KindDuplicate, errtrack.KindSystem} {
		if n := tracker.CountByKind(kind); n > 0 {
			summary.Counts[string(kind)] = n
		}
	}
	for _, e := range tracker.Entries() {
		if len(summary.TopErrors) >= 5 {
			break
		}
		summary.TopErrors = append(summary.TopErrors, fmt.Sprintf("row %d: %s", e.RowNumber, e.Message))
	}
	result.ErrorSummary = summary

	for _, e := range tracker.Entries() {
		switch e.Kind {
		case errtrack.KindValidation, errtrack.KindDuplicate:
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", e.RowNumber, e.Message))
		case errtrack.KindSkipped:
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %s", e.RowNumber, e.Message))
		}
	}

	if len(tracker.Entries()) > 0 {
		paths, err := tracker.WriteArtifacts(p.tempDir, fileType, taskID, time.Now())
		if err != nil {
			return nil, err
		}
		if paths.ValidationErrors != "" {
			result.ErrorFiles["validationErrors"] = paths.ValidationErrors
			result.ErrorFiles["skippedRows"] = paths.SkippedRows
			result.ErrorFiles["allFailedRowsWithErrors"] = paths.AllFailedRowsWithErrors
			result.ErrorFiles["errorSummary"] = paths.ErrorSummary
		}
	}

	if result.Success {
		result.Message = fmt.Sprintf("Processed %d records successfully", recordCount)
	} else {
		result.Message = "Upload failed validation"
	}
	return result, nil
}

func upperKey(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// normaliseKeys upper-cases the named natural-key fields of row in
// place, immediately after parsing and before validation, so every
// later stage (validation, lookup, dedupe, persistence) sees the one
// canonical case (SPEC_FULL.md §13.2).
func normaliseKeys(values map[string]string, fields ...string) {
	for _, f := range fields {
		values[f] = upperKey(values[f])
	}
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func parseDate(s string) time.Time {
	t, _ := time.Parse("2006-01-02", strings.TrimSpace(s))
	return t
}

package ingest

import (
	"fmt"

	"github.com/increff/noos-service/internal/errtrack"
	"github.com/increff/noos-service/internal/storage"
	"github.com/increff/noos-service/internal/tsv"
	"github.com/increff/noos-service/internal/validate"
)

// StyleHeaders is the mandatory, ordered header row for a styles upload.
var StyleHeaders = []string{"style", "brand", "category", "sub_category", "mrp", "gender"}

// RunStyles executes the full styles-upload pipeline for task, whose
// status is expected to already be RUNNING.
func (p *Pipeline) RunStyles(task *storage.Task, data []byte) (*UploadResult, error) {
	if cancel, err := p.checkCancel(task, "validating", 10); cancel || err != nil {
		return p.finishCancelOrFail(task, err)
	}

	rows, parseErr := tsv.Parse(data, StyleHeaders)
	if parseErr != nil {
		_ = p.markFailed(task, parseErr)
		return nil, parseErr
	}
	if err := p.progress(task, 20, "parsing", fmt.Sprintf("parsed %d rows", len(rows))); err != nil {
		return nil, err
	}

	if cancel, err := p.checkCancel(task, "parsed", 40); cancel || err != nil {
		return p.finishCancelOrFail(task, err)
	}

	tracker := errtrack.New(StyleHeaders)
	seen := map[string]int{}
	type built struct {
		row   storage.Style
		rowNo int
	}
	var entities []built

	for _, row := range rows {
		normaliseKeys(row.Values, "style")
		fieldErrs := validate.ValidateRow(validate.StyleBindings, row.Values)
		if len(fieldErrs) > 0 {
			for _, fe := range fieldErrs {
				tracker.Record(row.Number, row.Values, errtrack.KindValidation, fe.Field+": "+fe.Message)
			}
			continue
		}

		code := row.Values["style"]
		if firstRow, dup := seen[code]; dup {
			tracker.Record(row.Number, row.Values, errtrack.KindDuplicate,
				fmt.Sprintf("duplicate styleCode %s (first seen row %d)", code, firstRow))
			continue
		}
		seen[code] = row.Number

		entities = append(entities, built{
			row: storage.Style{
				StyleCode:   code,
				Brand:       row.Values["brand"],
				Category:    row.Values["category"],
				SubCategory: row.Values["sub_category"],
				Mrp:         parseFloat(row.Values["mrp"]),
				Gender:      row.Values["gender"],
			},
			rowNo: row.Number,
		})
	}

	if err := p.progress(task, 50, "processing", "validated rows, resolving and persisting"); err != nil {
		return nil, err
	}

	if tracker.HasFailures() {
		result, err := p.buildResult(tracker, "styles", task.ID, len(rows))
		if err != nil {
			return nil, err
		}
		_ = p.markFailed(task, fmt.Errorf("%d row(s) failed validation", tracker.CountByKind(errtrack.KindValidation)+tracker.CountByKind(errtrack.KindDuplicate)))
		return result, nil
	}

	if cancel, err := p.checkCancel(task, "persisting", 80); cancel || err != nil {
		return p.finishCancelOrFail(task, err)
	}

	inserted, updated := 0, 0
	for _, e := range entities {
		isInsert, diffs, err := p.storage.UpsertStyle(e.row)
		if err != nil {
			_ = p.markFailed(task, err)
			return nil, err
		}
		if isInsert {
			inserted++
			p.audit.Record("Style", e.row.StyleCode, "INSERT", "New style created: "+e.row.StyleCode, "system")
		} else if len(diffs) > 0 {
			updated++
			p.audit.Record("Style", e.row.StyleCode, "UPDATE", describeDiffs(diffs), "system")
		}
	}

	result, err := p.buildResult(tracker, "styles", task.ID, len(rows))
	if err != nil {
		return nil, err
	}
	result.Messages = append(result.Messages, fmt.Sprintf("%d inserted, %d updated", inserted, updated))

	if err := p.markCompleted(task, int64(len(entities))); err != nil {
		return nil, err
	}
	return result, nil
}

package ingest

import (
	"fmt"

	"github.com/increff/noos-service/internal/errtrack"
	"github.com/increff/noos-service/internal/storage"
	"github.com/increff/noos-service/internal/tsv"
	"github.com/increff/noos-service/internal/validate"
)

// StoreHeaders is the mandatory, ordered header row for a stores upload.
var StoreHeaders = []string{"branch", "city"}

// RunStores executes the full stores-upload pipeline.
func (p *Pipeline) RunStores(task *storage.Task, data []byte) (*UploadResult, error) {
	if cancel, err := p.checkCancel(task, "validating", 10); cancel || err != nil {
		return p.finishCancelOrFail(task, err)
	}

	rows, parseErr := tsv.Parse(data, StoreHeaders)
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

	tracker := errtrack.New(StoreHeaders)
	seen := map[string]int{}
	type built struct {
		row   storage.Store
		rowNo int
	}
	var entities []built

	for _, row := range rows {
		normaliseKeys(row.Values, "branch")
		fieldErrs := validate.ValidateRow(validate.StoreBindings, row.Values)
		if len(fieldErrs) > 0 {
			for _, fe := range fieldErrs {
				tracker.Record(row.Number, row.Values, errtrack.KindValidation, fe.Field+": "+fe.Message)
			}
			continue
		}

		branch := row.Values["branch"]
		if firstRow, dup := seen[branch]; dup {
			tracker.Record(row.Number, row.Values, errtrack.KindDuplicate,
				fmt.Sprintf("duplicate branch %s (first seen row %d)", branch, firstRow))
			continue
		}
		seen[branch] = row.Number

		entities = append(entities, built{
			row:   storage.Store{Branch: branch, City: row.Values["city"]},
			rowNo: row.Number,
		})
	}

	if err := p.progress(task, 50, "processing", "validated rows, resolving and persisting"); err != nil {
		return nil, err
	}

	if tracker.HasFailures() {
		result, err := p.buildResult(tracker, "stores", task.ID, len(rows))
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
		isInsert, diffs, err := p.storage.UpsertStore(e.row)
		if err != nil {
			_ = p.markFailed(task, err)
			return nil, err
		}
		if isInsert {
			inserted++
			p.audit.Record("Store", e.row.Branch, "INSERT", "New store created: "+e.row.Branch, "system")
		} else if len(diffs) > 0 {
			updated++
			p.audit.Record("Store", e.row.Branch, "UPDATE", describeDiffs(diffs), "system")
		}
	}

	result, err := p.buildResult(tracker, "stores", task.ID, len(rows))
	if err != nil {
		return nil, err
	}
	result.Messages = append(result.Messages, fmt.Sprintf("%d inserted, %d updated", inserted, updated))

	if err := p.markCompleted(task, int64(len(entities))); err != nil {
		return nil, err
	}
	return result, nil
}

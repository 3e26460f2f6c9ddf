package ingest

import (
	"fmt"

	"github.com/increff/noos-service/internal/errtrack"
	"github.com/increff/noos-service/internal/storage"
	"github.com/increff/noos-service/internal/tsv"
	"github.com/increff/noos-service/internal/validate"
)

// SkuHeaders is the mandatory, ordered header row for a skus upload.
var SkuHeaders = []string{"sku", "style", "size"}

// RunSkus executes the full skus-upload pipeline: parse, validate,
// resolve the style foreign key, dedupe, upsert.
func (p *Pipeline) RunSkus(task *storage.Task, data []byte) (*UploadResult, error) {
	if cancel, err := p.checkCancel(task, "validating", 10); cancel || err != nil {
		return p.finishCancelOrFail(task, err)
	}

	rows, parseErr := tsv.Parse(data, SkuHeaders)
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

	tracker := errtrack.New(SkuHeaders)
	seen := map[string]int{}
	type built struct {
		row   storage.Sku
		rowNo int
	}
	var entities []built

	for _, row := range rows {
		normaliseKeys(row.Values, "sku", "style")
		fieldErrs := validate.ValidateRow(validate.SkuBindings, row.Values)
		if len(fieldErrs) > 0 {
			for _, fe := range fieldErrs {
				tracker.Record(row.Number, row.Values, errtrack.KindValidation, fe.Field+": "+fe.Message)
			}
			continue
		}

		skuCode := row.Values["sku"]
		styleCode := row.Values["style"]

		style, err := p.storage.FindStyleByCode(styleCode)
		if err == storage.ErrNotFound {
			tracker.Record(row.Number, row.Values, errtrack.KindSkipped,
				fmt.Sprintf("style %s not found", styleCode))
			continue
		}
		if err != nil {
			_ = p.markFailed(task, err)
			return nil, err
		}

		if firstRow, dup := seen[skuCode]; dup {
			tracker.Record(row.Number, row.Values, errtrack.KindDuplicate,
				fmt.Sprintf("duplicate sku %s (first seen row %d)", skuCode, firstRow))
			continue
		}
		seen[skuCode] = row.Number

		entities = append(entities, built{
			row: storage.Sku{
				Sku:     skuCode,
				StyleID: style.ID,
				Size:    row.Values["size"],
			},
			rowNo: row.Number,
		})
	}

	if err := p.progress(task, 50, "processing", "validated rows, resolving and persisting"); err != nil {
		return nil, err
	}

	if tracker.HasFailures() {
		result, err := p.buildResult(tracker, "skus", task.ID, len(rows))
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
		isInsert, diffs, err := p.storage.UpsertSku(e.row)
		if err != nil {
			_ = p.markFailed(task, err)
			return nil, err
		}
		if isInsert {
			inserted++
			p.audit.Record("Sku", e.row.Sku, "INSERT", "New sku created: "+e.row.Sku, "system")
		} else if len(diffs) > 0 {
			updated++
			p.audit.Record("Sku", e.row.Sku, "UPDATE", describeDiffs(diffs), "system")
		}
	}

	result, err := p.buildResult(tracker, "skus", task.ID, len(rows))
	if err != nil {
		return nil, err
	}
	result.Messages = append(result.Messages, fmt.Sprintf("%d inserted, %d updated", inserted, updated))

	if err := p.markCompleted(task, int64(len(entities))); err != nil {
		return nil, err
	}
	return result, nil
}

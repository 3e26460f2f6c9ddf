package ingest

import (
	"fmt"

	"github.com/increff/noos-service/internal/errtrack"
	"github.com/increff/noos-service/internal/storage"
	"github.com/increff/noos-service/internal/tsv"
	"github.com/increff/noos-service/internal/validate"
)

// SaleHeaders is the mandatory, ordered header row for a sales upload.
var SaleHeaders = []string{"day", "sku", "channel", "quantity", "discount", "revenue"}

// RunSales executes the full sales-upload pipeline: sales is
// transactional data, so there is no in-file duplicate check and
// persistence is a complete table replacement rather than an upsert
// (§4.7, invariant 5/6).
func (p *Pipeline) RunSales(task *storage.Task, data []byte) (*UploadResult, error) {
	if cancel, err := p.checkCancel(task, "validating", 10); cancel || err != nil {
		return p.finishCancelOrFail(task, err)
	}

	rows, parseErr := tsv.Parse(data, SaleHeaders)
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

	tracker := errtrack.New(SaleHeaders)
	skuCache := map[string]*storage.Sku{}
	storeCache := map[string]*storage.Store{}
	var entities []storage.Sale

	for _, row := range rows {
		normaliseKeys(row.Values, "sku", "channel")
		fieldErrs := validate.ValidateRow(validate.SaleBindings, row.Values)
		if len(fieldErrs) > 0 {
			for _, fe := range fieldErrs {
				tracker.Record(row.Number, row.Values, errtrack.KindValidation, fe.Field+": "+fe.Message)
			}
			continue
		}

		skuCode := row.Values["sku"]
		sku, ok := skuCache[skuCode]
		if !ok {
			found, err := p.storage.FindSkuByCode(skuCode)
			if err == storage.ErrNotFound {
				tracker.Record(row.Number, row.Values, errtrack.KindSkipped, fmt.Sprintf("sku %s not found", skuCode))
				continue
			}
			if err != nil {
				_ = p.markFailed(task, err)
				return nil, err
			}
			sku = found
			skuCache[skuCode] = sku
		}

		branch := row.Values["channel"]
		store, ok := storeCache[branch]
		if !ok {
			found, err := p.storage.FindStoreByBranch(branch)
			if err == storage.ErrNotFound {
				tracker.Record(row.Number, row.Values, errtrack.KindSkipped, fmt.Sprintf("store %s not found", branch))
				continue
			}
			if err != nil {
				_ = p.markFailed(task, err)
				return nil, err
			}
			store = found
			storeCache[branch] = store
		}

		entities = append(entities, storage.Sale{
			Date:     parseDate(row.Values["day"]),
			SkuID:    sku.ID,
			StoreID:  store.ID,
			Quantity: parseInt(row.Values["quantity"]),
			Discount: parseFloat(row.Values["discount"]),
			Revenue:  parseFloat(row.Values["revenue"]),
		})
	}

	if err := p.progress(task, 50, "processing", "validated rows, resolving and persisting"); err != nil {
		return nil, err
	}

	if tracker.HasFailures() {
		result, err := p.buildResult(tracker, "sales", task.ID, len(rows))
		if err != nil {
			return nil, err
		}
		_ = p.markFailed(task, fmt.Errorf("%d row(s) failed validation", tracker.CountByKind(errtrack.KindValidation)))
		return result, nil
	}

	if cancel, err := p.checkCancel(task, "persisting", 80); cancel || err != nil {
		return p.finishCancelOrFail(task, err)
	}

	if err := p.storage.ReplaceSales(entities); err != nil {
		_ = p.markFailed(task, err)
		return nil, err
	}
	p.audit.Record("Sale", "*", "BULK_DELETE", "sales table truncated before replacement", "system")
	p.audit.Record("Sale", "*", "BULK_INSERT", fmt.Sprintf("%d sale rows inserted", len(entities)), "system")

	result, err := p.buildResult(tracker, "sales", task.ID, len(rows))
	if err != nil {
		return nil, err
	}

	if err := p.markCompleted(task, int64(len(entities))); err != nil {
		return nil, err
	}
	return result, nil
}

package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrNotFound is returned by natural-key lookups with no match.
var ErrNotFound = errors.New("storage: not found")

// FieldDiff captures one changed field for an audit "details" string.
type FieldDiff struct {
	Field string
	Old   string
	New   string
}

// FindStyleByCode looks up a Style by its natural key.
func (s *Storage) FindStyleByCode(code string) (*Style, error) {
	var row Style
	err := s.DB.Where("style_code = ?", code).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &row, err
}

// UpsertStyle inserts style if styleCode is new, else updates mutable
// fields in place. Returns whether a row was inserted and the diff of
// changed fields (empty on insert or on a no-op update).
func (s *Storage) UpsertStyle(style Style) (inserted bool, diffs []FieldDiff, err error) {
	existing, lookupErr := s.FindStyleByCode(style.StyleCode)
	if lookupErr == ErrNotFound {
		err = s.DB.Create(&style).Error
		return true, nil, err
	}
	if lookupErr != nil {
		return false, nil, lookupErr
	}

	diffs = diffStyle(*existing, style)
	if len(diffs) == 0 {
		return false, nil, nil
	}
	style.ID = existing.ID
	err = s.DB.Model(&Style{}).Where("id = ?", existing.ID).Updates(map[string]interface{}{
		"brand":        style.Brand,
		"category":     style.Category,
		"sub_category": style.SubCategory,
		"mrp":          style.Mrp,
		"gender":       style.Gender,
	}).Error
	return false, diffs, err
}

func diffStyle(old, updated Style) []FieldDiff {
	var diffs []FieldDiff
	add := func(field, o, n string) {
		if o != n {
			diffs = append(diffs, FieldDiff{Field: field, Old: o, New: n})
		}
	}
	add("brand", old.Brand, updated.Brand)
	add("category", old.Category, updated.Category)
	add("subCategory", old.SubCategory, updated.SubCategory)
	add("gender", old.Gender, updated.Gender)
	if old.Mrp != updated.Mrp {
		diffs = append(diffs, FieldDiff{Field: "mrp"})
	}
	return diffs
}

// FindSkuByCode looks up a Sku by its natural key.
func (s *Storage) FindSkuByCode(code string) (*Sku, error) {
	var row Sku
	err := s.DB.Where("sku = ?", code).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &row, err
}

// UpsertSku inserts sku if its code is new, else updates its style
// association and size.
func (s *Storage) UpsertSku(sku Sku) (inserted bool, diffs []FieldDiff, err error) {
	existing, lookupErr := s.FindSkuByCode(sku.Sku)
	if lookupErr == ErrNotFound {
		err = s.DB.Create(&sku).Error
		return true, nil, err
	}
	if lookupErr != nil {
		return false, nil, lookupErr
	}

	if existing.StyleID == sku.StyleID && existing.Size == sku.Size {
		return false, nil, nil
	}
	if existing.StyleID != sku.StyleID {
		diffs = append(diffs, FieldDiff{Field: "styleId"})
	}
	if existing.Size != sku.Size {
		diffs = append(diffs, FieldDiff{Field: "size", Old: existing.Size, New: sku.Size})
	}
	err = s.DB.Model(&Sku{}).Where("id = ?", existing.ID).Updates(map[string]interface{}{
		"style_id": sku.StyleID,
		"size":     sku.Size,
	}).Error
	return false, diffs, err
}

// FindStoreByBranch looks up a Store by its natural key.
func (s *Storage) FindStoreByBranch(branch string) (*Store, error) {
	var row Store
	err := s.DB.Where("branch = ?", branch).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &row, err
}

// UpsertStore inserts store if its branch is new, else updates city.
func (s *Storage) UpsertStore(store Store) (inserted bool, diffs []FieldDiff, err error) {
	existing, lookupErr := s.FindStoreByBranch(store.Branch)
	if lookupErr == ErrNotFound {
		err = s.DB.Create(&store).Error
		return true, nil, err
	}
	if lookupErr != nil {
		return false, nil, lookupErr
	}
	if existing.City == store.City {
		return false, nil, nil
	}
	diffs = append(diffs, FieldDiff{Field: "city", Old: existing.City, New: store.City})
	err = s.DB.Model(&Store{}).Where("id = ?", existing.ID).Update("city", store.City).Error
	return false, diffs, err
}

// ReplaceSales truncates the sales table and batch-inserts rows, all
// within one transaction (§4.7 "TRUNCATE table, batch-insert new
// rows"; §5 "a NOOS run truncates then inserts within one
// transaction" applies equally to sales replacement).
func (s *Storage) ReplaceSales(rows []Sale) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM sales").Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 500).Error
	})
}

// AllStyles returns every Style row, used by NoosEngine to build its
// in-memory sku/style lookup maps for one run.
func (s *Storage) AllStyles() ([]Style, error) {
	var rows []Style
	err := s.DB.Find(&rows).Error
	return rows, err
}

// AllSkus returns every Sku row, same purpose as AllStyles.
func (s *Storage) AllSkus() ([]Sku, error) {
	var rows []Sku
	err := s.DB.Find(&rows).Error
	return rows, err
}

// AllStores returns every Store row.
func (s *Storage) AllStores() ([]Store, error) {
	var rows []Store
	err := s.DB.Find(&rows).Error
	return rows, err
}

// SalesInRange returns sales with date in [start, end] inclusive. A
// nil bound is unbounded on that side.
func (s *Storage) SalesInRange(start, end *time.Time) ([]Sale, error) {
	q := s.DB.Model(&Sale{})
	if start != nil {
		q = q.Where("date >= ?", *start)
	}
	if end != nil {
		q = q.Where("date <= ?", *end)
	}
	var rows []Sale
	err := q.Find(&rows).Error
	return rows, err
}

// ReplaceNoosResults deletes every prior NoosResult row and
// batch-inserts results (§4.8 Phase 6), flushing in chunks of
// batchSize to bound memory for large runs.
func (s *Storage) ReplaceNoosResults(results []NoosResult, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 50
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM noos_results").Error; err != nil {
			return err
		}
		if len(results) == 0 {
			return nil
		}
		return tx.CreateInBatches(results, batchSize).Error
	})
}

// NoosResultsByRun returns every result row for one algorithm run.
func (s *Storage) NoosResultsByRun(runID uint64) ([]NoosResult, error) {
	var rows []NoosResult
	err := s.DB.Where("algorithm_run_id = ?", runID).Find(&rows).Error
	return rows, err
}

// LatestNoosRunID returns the most recent algorithmRunId present in
// noos_results, or 0 if the table is empty.
func (s *Storage) LatestNoosRunID() (uint64, error) {
	var runID uint64
	err := s.DB.Model(&NoosResult{}).Select("COALESCE(MAX(algorithm_run_id), 0)").Row().Scan(&runID)
	return runID, err
}

// ClearAll purges every data table in FK-safe order inside one
// transaction, then resets identity counters (§6 DELETE
// /api/data/clear-all).
func (s *Storage) ClearAll() error {
	tables := []string{"sales", "skus", "styles", "stores", "tasks", "noos_results"}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return err
			}
			if err := tx.Exec("DELETE FROM sqlite_sequence WHERE name = ?", table).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

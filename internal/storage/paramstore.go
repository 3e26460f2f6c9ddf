package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// DefaultParameterSetName is auto-created if absent, per §3. Seeding
// happens once at process start via EnsureDefault, never from inside a
// read path (§9 open question 4, SPEC_FULL.md §13.4).
const DefaultParameterSetName = "default"

// ErrActiveParameterSetConflict names the state of more than one
// active set. ActivateParameterSet does not return it: it deactivates
// every other set in the same transaction instead.
var ErrActiveParameterSetConflict = errors.New("storage: another parameter set is already active")

// EnsureDefault creates the "default" AlgorithmParameters row if no
// row of that name exists yet, leaving any existing row untouched.
func (s *Storage) EnsureDefault() error {
	var existing AlgorithmParameters
	err := s.DB.Where("parameter_set = ?", DefaultParameterSetName).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return s.DB.Create(&AlgorithmParameters{
		ParameterSet:           DefaultParameterSetName,
		LiquidationThreshold:   0.20,
		BestsellerMultiplier:   1.5,
		MinVolumeThreshold:     0,
		ConsistencyThreshold:   0.65,
		CoreDurationMonths:     6,
		BestsellerDurationDays: 90,
		DaysAvailablePolicy:    PolicyDistinctSaleDays,
		IsActive:               true,
	}).Error
}

// ActiveParameterSet returns the single active AlgorithmParameters
// row, or the default set if none is marked active.
func (s *Storage) ActiveParameterSet() (*AlgorithmParameters, error) {
	var row AlgorithmParameters
	err := s.DB.Where("is_active = ?", true).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.GetParameterSet(DefaultParameterSetName)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetParameterSet looks up a named parameter set.
func (s *Storage) GetParameterSet(name string) (*AlgorithmParameters, error) {
	var row AlgorithmParameters
	err := s.DB.Where("parameter_set = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &row, err
}

// ListParameterSets returns every named parameter set.
func (s *Storage) ListParameterSets() ([]AlgorithmParameters, error) {
	var rows []AlgorithmParameters
	err := s.DB.Order("parameter_set").Find(&rows).Error
	return rows, err
}

// CreateParameterSet inserts a new, inactive parameter set.
func (s *Storage) CreateParameterSet(p AlgorithmParameters) error {
	p.IsActive = false
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	return s.DB.Create(&p).Error
}

// ActivateParameterSet marks name active and deactivates every other
// set, inside one transaction, preserving "exactly zero or one active
// set at a time" (§3).
func (s *Storage) ActivateParameterSet(name string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&AlgorithmParameters{}).Where("is_active = ?", true).Update("is_active", false).Error; err != nil {
			return err
		}
		res := tx.Model(&AlgorithmParameters{}).Where("parameter_set = ?", name).Update("is_active", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeactivateAll clears every active flag, leaving zero active sets.
func (s *Storage) DeactivateAll() error {
	return s.DB.Model(&AlgorithmParameters{}).Where("is_active = ?", true).Update("is_active", false).Error
}

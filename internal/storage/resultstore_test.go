package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUpsertStyleInsertThenUpdate(t *testing.T) {
	s := setupTestDB(t)

	inserted, diffs, err := s.UpsertStyle(Style{StyleCode: "STY1", Brand: "Acme", Category: "A", Mrp: 10})
	require.NoError(t, err)
	require.True(t, inserted)
	require.Empty(t, diffs)

	inserted, diffs, err = s.UpsertStyle(Style{StyleCode: "STY1", Brand: "Acme2", Category: "A", Mrp: 10})
	require.NoError(t, err)
	require.False(t, inserted)
	require.Len(t, diffs, 1)
	require.Equal(t, "brand", diffs[0].Field)

	// Identical re-upload is a no-op diff (idempotence property, §8).
	inserted, diffs, err = s.UpsertStyle(Style{StyleCode: "STY1", Brand: "Acme2", Category: "A", Mrp: 10})
	require.NoError(t, err)
	require.False(t, inserted)
	require.Empty(t, diffs)
}

func TestUpsertPreservesRowsNotInFile(t *testing.T) {
	s := setupTestDB(t)

	_, _, err := s.UpsertStyle(Style{StyleCode: "KEEP", Brand: "Old"})
	require.NoError(t, err)
	_, _, err = s.UpsertStyle(Style{StyleCode: "NEW", Brand: "Fresh"})
	require.NoError(t, err)

	kept, err := s.FindStyleByCode("KEEP")
	require.NoError(t, err)
	require.Equal(t, "Old", kept.Brand)
}

func TestReplaceSalesIsCompleteReplacement(t *testing.T) {
	s := setupTestDB(t)

	require.NoError(t, s.ReplaceSales([]Sale{{SkuID: 1, StoreID: 1, Quantity: 1, Revenue: 10}}))
	rows, err := s.SalesInRange(nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, s.ReplaceSales([]Sale{{SkuID: 2, StoreID: 1, Quantity: 2, Revenue: 20}}))
	rows, err = s.SalesInRange(nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, uint64(2), rows[0].SkuID)
}

func TestSalesInRangeBounds(t *testing.T) {
	s := setupTestDB(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.ReplaceSales([]Sale{
		{Date: base, SkuID: 1, StoreID: 1, Quantity: 1, Revenue: 10},
		{Date: base.AddDate(0, 0, 10), SkuID: 1, StoreID: 1, Quantity: 1, Revenue: 10},
	}))

	start := base.AddDate(0, 0, 5)
	rows, err := s.SalesInRange(&start, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestReplaceNoosResultsAndLatestRun(t *testing.T) {
	s := setupTestDB(t)

	require.NoError(t, s.ReplaceNoosResults([]NoosResult{
		{AlgorithmRunID: 5, StyleCode: "S1", Type: NoosCore},
		{AlgorithmRunID: 5, StyleCode: "S2", Type: NoosFashion},
	}, 1))

	latest, err := s.LatestNoosRunID()
	require.NoError(t, err)
	require.Equal(t, uint64(5), latest)

	rows, err := s.NoosResultsByRun(5)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, s.ReplaceNoosResults(nil, 50))
	rows, err = s.NoosResultsByRun(5)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestClearAllPurgesInFKSafeOrder(t *testing.T) {
	s := setupTestDB(t)

	_, _, _ = s.UpsertStyle(Style{StyleCode: "S1"})
	_, _, _ = s.UpsertStore(Store{Branch: "B1"})
	require.NoError(t, s.ReplaceSales([]Sale{{SkuID: 1, StoreID: 1, Quantity: 1, Revenue: 10}}))
	require.NoError(t, s.CreateTask(&Task{Kind: KindStylesUpload, Status: TaskCompleted}))

	require.NoError(t, s.ClearAll())

	_, err := s.FindStyleByCode("S1")
	require.ErrorIs(t, err, ErrNotFound)

	sales, err := s.SalesInRange(nil, nil)
	require.NoError(t, err)
	require.Empty(t, sales)

	tasks, err := s.ListRecentTasks(10)
	require.NoError(t, err)
	require.Empty(t, tasks)
}

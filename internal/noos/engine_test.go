package noos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/increff/noos-service/internal/storage"
)

func setupNoosDB(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func noProgress(pct float64, phase, message string) error { return nil }
func neverCancelled() (bool, error)                        { return false, nil }

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func seedCatalogue(t *testing.T, s *storage.Storage) {
	t.Helper()
	require.NoError(t, s.DB.Create(&storage.Style{StyleCode: "BEST1", Category: "Footwear"}).Error)
	require.NoError(t, s.DB.Create(&storage.Style{StyleCode: "CORE1", Category: "Footwear"}).Error)
	require.NoError(t, s.DB.Create(&storage.Sku{Sku: "SKU-BEST1", StyleID: 1}).Error)
	require.NoError(t, s.DB.Create(&storage.Sku{Sku: "SKU-CORE1", StyleID: 2}).Error)
	require.NoError(t, s.DB.Create(&storage.Store{Branch: "BR01", City: "Pune"}).Error)
}

func TestRunFailsWhenNoSalesInRange(t *testing.T) {
	s := setupNoosDB(t)
	e := New(s)
	_, err := e.Run(storage.AlgorithmParameters{}, 1, noProgress, neverCancelled)
	assert.ErrorIs(t, err, ErrNoSalesInRange)
}

func TestRunClassifiesBestsellerAboveThreshold(t *testing.T) {
	s := setupNoosDB(t)
	seedCatalogue(t, s)

	sales := []storage.Sale{
		{Date: day("2026-01-01"), SkuID: 1, StoreID: 1, Quantity: 100, Discount: 0, Revenue: 10000},
		{Date: day("2026-01-02"), SkuID: 1, StoreID: 1, Quantity: 100, Discount: 0, Revenue: 10000},
		{Date: day("2026-01-01"), SkuID: 2, StoreID: 1, Quantity: 5, Discount: 0, Revenue: 500},
		{Date: day("2026-01-02"), SkuID: 2, StoreID: 1, Quantity: 5, Discount: 0, Revenue: 500},
	}
	require.NoError(t, s.ReplaceSales(sales))

	e := New(s)
	params := storage.AlgorithmParameters{
		LiquidationThreshold: 0.20,
		BestsellerMultiplier: 1.5,
		ConsistencyThreshold: 0.65,
		DaysAvailablePolicy:  storage.PolicyDistinctSaleDays,
	}
	results, err := e.Run(params, 42, noProgress, neverCancelled)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byStyle := map[string]storage.NoosResult{}
	for _, r := range results {
		byStyle[r.StyleCode] = r
		assert.Equal(t, uint64(42), r.AlgorithmRunID)
	}
	assert.Equal(t, storage.NoosBestseller, byStyle["BEST1"].Type)

	persisted, err := s.NoosResultsByRun(42)
	require.NoError(t, err)
	assert.Len(t, persisted, 2)
}

func TestRunStripsLiquidationSales(t *testing.T) {
	s := setupNoosDB(t)
	seedCatalogue(t, s)

	sales := []storage.Sale{
		// 90% discount ratio, must be dropped by the liquidation filter.
		{Date: day("2026-01-01"), SkuID: 1, StoreID: 1, Quantity: 50, Discount: 900, Revenue: 100},
		{Date: day("2026-01-02"), SkuID: 2, StoreID: 1, Quantity: 10, Discount: 0, Revenue: 1000},
	}
	require.NoError(t, s.ReplaceSales(sales))

	e := New(s)
	params := storage.AlgorithmParameters{LiquidationThreshold: 0.20}
	results, err := e.Run(params, 1, noProgress, neverCancelled)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "CORE1", results[0].StyleCode)
}

func TestRunHonorsCancellation(t *testing.T) {
	s := setupNoosDB(t)
	seedCatalogue(t, s)
	require.NoError(t, s.ReplaceSales([]storage.Sale{
		{Date: day("2026-01-01"), SkuID: 1, StoreID: 1, Quantity: 5, Discount: 0, Revenue: 100},
	}))

	e := New(s)
	cancelled := func() (bool, error) { return true, nil }
	_, err := e.Run(storage.AlgorithmParameters{}, 1, noProgress, cancelled)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestDaysAvailablePolicyDistinctSaleDaysAlwaysFullConsistency(t *testing.T) {
	s := setupNoosDB(t)
	seedCatalogue(t, s)
	require.NoError(t, s.ReplaceSales([]storage.Sale{
		{Date: day("2026-01-01"), SkuID: 1, StoreID: 1, Quantity: 5, Discount: 0, Revenue: 100},
		{Date: day("2026-01-10"), SkuID: 1, StoreID: 1, Quantity: 5, Discount: 0, Revenue: 100},
	}))

	e := New(s)
	params := storage.AlgorithmParameters{DaysAvailablePolicy: storage.PolicyDistinctSaleDays}
	results, err := e.Run(params, 1, noProgress, neverCancelled)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].DaysAvailable)
	assert.Equal(t, 2, results[0].DaysWithSales)
}

package ingest

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/increff/noos-service/internal/audit"
	"github.com/increff/noos-service/internal/storage"
)

func setupPipeline(t *testing.T) (*Pipeline, *storage.Storage) {
	t.Helper()
	s, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditLogger := audit.New(s, logger)
	return New(s, auditLogger, t.TempDir()), s
}

func newUploadTask(t *testing.T, s *storage.Storage, kind storage.TaskKind) *storage.Task {
	t.Helper()
	task := &storage.Task{Kind: kind, Status: storage.TaskRunning, FileName: "test.tsv"}
	require.NoError(t, s.CreateTask(task))
	return task
}

func TestRunStylesInsertsNewRows(t *testing.T) {
	p, s := setupPipeline(t)
	task := newUploadTask(t, s, storage.KindStylesUpload)

	data := []byte("style\tbrand\tcategory\tsub_category\tmrp\tgender\n" +
		"st001\tNike\tFootwear\tShoes\t2999.00\tMale\n" +
		"st002\tAdidas\tFootwear\tShoes\t3499.00\tFemale\n")

	result, err := p.RunStyles(task, data)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.RecordCount)

	style, err := s.FindStyleByCode("ST001")
	require.NoError(t, err)
	assert.Equal(t, "Nike", style.Brand)

	reloaded, err := s.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.TaskCompleted, reloaded.Status)
	assert.Equal(t, float64(100), reloaded.Progress)
}

func TestRunStylesAbortsOnValidationError(t *testing.T) {
	p, s := setupPipeline(t)
	task := newUploadTask(t, s, storage.KindStylesUpload)

	data := []byte("style\tbrand\tcategory\tsub_category\tmrp\tgender\n" +
		"st001\tNike\tFootwear\tShoes\tnotanumber\tMale\n")

	result, err := p.RunStyles(task, data)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Errors)

	_, lookupErr := s.FindStyleByCode("ST001")
	assert.ErrorIs(t, lookupErr, storage.ErrNotFound)

	reloaded, err := s.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.TaskFailed, reloaded.Status)
}

func TestRunStylesRejectsDuplicateInFile(t *testing.T) {
	p, s := setupPipeline(t)
	task := newUploadTask(t, s, storage.KindStylesUpload)

	data := []byte("style\tbrand\tcategory\tsub_category\tmrp\tgender\n" +
		"st001\tNike\tFootwear\tShoes\t2999.00\tMale\n" +
		"ST001\tNike\tFootwear\tShoes\t2999.00\tMale\n")

	result, err := p.RunStyles(task, data)
	require.NoError(t, err)
	assert.False(t, result.Success)

	_, lookupErr := s.FindStyleByCode("ST001")
	assert.ErrorIs(t, lookupErr, storage.ErrNotFound, "nothing should persist when any row is rejected")
}

func TestRunSkusSkipsUnknownStyle(t *testing.T) {
	p, s := setupPipeline(t)
	task := newUploadTask(t, s, storage.KindSkusUpload)

	data := []byte("sku\tstyle\tsize\n" +
		"sku001\tst001\tM\n")

	result, err := p.RunSkus(task, data)
	require.NoError(t, err)
	assert.True(t, result.Success, "dependency-skipped rows still succeed")
	assert.Equal(t, 1, result.SkippedCount)

	_, lookupErr := s.FindSkuByCode("SKU001")
	assert.ErrorIs(t, lookupErr, storage.ErrNotFound)
}

func TestRunSalesReplacesEntireTable(t *testing.T) {
	p, s := setupPipeline(t)

	require.NoError(t, s.DB.Create(&storage.Style{StyleCode: "ST001", Brand: "Nike"}).Error)
	require.NoError(t, s.DB.Create(&storage.Sku{Sku: "SKU001", StyleID: 1, Size: "M"}).Error)
	require.NoError(t, s.DB.Create(&storage.Store{Branch: "BR01", City: "Pune"}).Error)
	require.NoError(t, s.ReplaceSales([]storage.Sale{{SkuID: 1, StoreID: 1, Quantity: 99}}))

	task := newUploadTask(t, s, storage.KindSalesUpload)
	data := []byte("day\tsku\tchannel\tquantity\tdiscount\trevenue\n" +
		"2026-01-15\tsku001\tbr01\t3\t0\t299.99\n")

	result, err := p.RunSales(task, data)
	require.NoError(t, err)
	assert.True(t, result.Success)

	rows, err := s.SalesInRange(nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].Quantity)
}

func TestRunStoresPreservesRowsNotInFile(t *testing.T) {
	p, s := setupPipeline(t)
	require.NoError(t, s.DB.Create(&storage.Store{Branch: "BR02", City: "Mumbai"}).Error)

	task := newUploadTask(t, s, storage.KindStoresUpload)
	data := []byte("branch\tcity\n" + "br01\tPune\n")

	result, err := p.RunStores(task, data)
	require.NoError(t, err)
	assert.True(t, result.Success)

	_, err = s.FindStoreByBranch("BR02")
	assert.NoError(t, err, "existing branch absent from the file must survive (upsert, not truncate)")
}

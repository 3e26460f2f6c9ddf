// Package download streams entity data to a TSV file on disk for the
// async download pipeline, grounded on the teacher's
// internal/core.Engine.downloadID-per-transfer naming
// (github.com/google/uuid) and internal/core.BandwidthManager's
// token-bucket throttling (golang.org/x/time/rate), repurposed here
// from network bandwidth shaping to bounding how fast the writer
// flushes rows so a very large export doesn't starve other disk I/O.
package download

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/increff/noos-service/internal/integrity"
	"github.com/increff/noos-service/internal/storage"
)

// Builder streams entity rows to temp files under dir.
type Builder struct {
	dir     string
	limiter *rate.Limiter
}

// New creates a Builder writing under dir, flushing at most
// rowsPerSecond rows/sec to disk (0 means unlimited).
func New(dir string, rowsPerSecond int) *Builder {
	limit := rate.Inf
	if rowsPerSecond > 0 {
		limit = rate.Limit(rowsPerSecond)
	}
	return &Builder{dir: dir, limiter: rate.NewLimiter(limit, 1)}
}

// Result is the outcome of one streamed export.
type Result struct {
	Path        string
	RecordCount int64
	Checksum    string
}

// newPath allocates a collision-free temp file path for one export,
// named with a UUID so two concurrent downloads of the same kind
// never collide.
func (b *Builder) newPath(fileType string) (string, error) {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", fmt.Errorf("download: create dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s.tsv", fileType, uuid.New().String())
	return filepath.Join(b.dir, name), nil
}

// writeRows opens path, writes header then each row (throttled by the
// limiter), and returns the data-row count.
func (b *Builder) writeRows(ctx context.Context, path string, header []string, rows [][]string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("download: create file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(joinTab(header) + "\n"); err != nil {
		return 0, err
	}

	var count int64
	for _, row := range rows {
		if err := b.limiter.Wait(ctx); err != nil {
			return count, err
		}
		if _, err := w.WriteString(joinTab(row) + "\n"); err != nil {
			return count, err
		}
		count++
	}
	if err := w.Flush(); err != nil {
		return count, err
	}
	return count, nil
}

// finish wraps the outcome of writeRows into a Result, stamping a
// sha256 checksum on success so a caller can detect a truncated or
// corrupted file before serving it.
func finish(path string, count int64, werr error) (Result, error) {
	if werr != nil {
		return Result{}, werr
	}
	sum, err := integrity.Checksum(path)
	if err != nil {
		return Result{}, err
	}
	return Result{Path: path, RecordCount: count, Checksum: sum}, nil
}

func joinTab(cells []string) string {
	out := cells[0]
	for _, c := range cells[1:] {
		out += "\t" + c
	}
	return out
}

// Styles streams every Style row in the upload header format.
func (b *Builder) Styles(ctx context.Context, styles []storage.Style) (Result, error) {
	path, err := b.newPath("styles")
	if err != nil {
		return Result{}, err
	}
	rows := make([][]string, 0, len(styles))
	for _, s := range styles {
		rows = append(rows, []string{s.StyleCode, s.Brand, s.Category, s.SubCategory, strconv.FormatFloat(s.Mrp, 'f', 2, 64), s.Gender})
	}
	count, err := b.writeRows(ctx, path, []string{"style", "brand", "category", "sub_category", "mrp", "gender"}, rows)
	return finish(path, count, err)
}

// Skus streams every Sku row, resolving its style code for the natural-key column.
func (b *Builder) Skus(ctx context.Context, skus []storage.Sku, styleCodeByID map[uint64]string) (Result, error) {
	path, err := b.newPath("skus")
	if err != nil {
		return Result{}, err
	}
	rows := make([][]string, 0, len(skus))
	for _, sk := range skus {
		rows = append(rows, []string{sk.Sku, styleCodeByID[sk.StyleID], sk.Size})
	}
	count, err := b.writeRows(ctx, path, []string{"sku", "style", "size"}, rows)
	return finish(path, count, err)
}

// Stores streams every Store row.
func (b *Builder) Stores(ctx context.Context, stores []storage.Store) (Result, error) {
	path, err := b.newPath("stores")
	if err != nil {
		return Result{}, err
	}
	rows := make([][]string, 0, len(stores))
	for _, st := range stores {
		rows = append(rows, []string{st.Branch, st.City})
	}
	count, err := b.writeRows(ctx, path, []string{"branch", "city"}, rows)
	return finish(path, count, err)
}

// Sales streams every Sale row, resolving sku code and store branch.
func (b *Builder) Sales(ctx context.Context, sales []storage.Sale, skuByID map[uint64]string, branchByID map[uint64]string) (Result, error) {
	path, err := b.newPath("sales")
	if err != nil {
		return Result{}, err
	}
	rows := make([][]string, 0, len(sales))
	for _, sale := range sales {
		rows = append(rows, []string{
			sale.Date.Format("2006-01-02"),
			skuByID[sale.SkuID],
			branchByID[sale.StoreID],
			strconv.Itoa(sale.Quantity),
			strconv.FormatFloat(sale.Discount, 'f', 2, 64),
			strconv.FormatFloat(sale.Revenue, 'f', 2, 64),
		})
	}
	count, err := b.writeRows(ctx, path, []string{"day", "sku", "channel", "quantity", "discount", "revenue"}, rows)
	return finish(path, count, err)
}

// noosHeader is the fixed extended header for a NOOS results export (§6).
var noosHeader = []string{
	"Category", "Style Code", "Style ROS", "Type", "Style Rev Contri",
	"Total Quantity", "Total Revenue", "Days Available", "Days With Sales",
	"Avg Discount", "Calculated Date",
}

// Noos streams the NOOS result rows for one run.
func (b *Builder) Noos(ctx context.Context, results []storage.NoosResult) (Result, error) {
	path, err := b.newPath("noos")
	if err != nil {
		return Result{}, err
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Category, r.StyleCode,
			strconv.FormatFloat(r.StyleROS, 'f', 4, 64),
			string(r.Type),
			strconv.FormatFloat(r.StyleRevContribution, 'f', 4, 64),
			strconv.FormatInt(r.TotalQuantitySold, 10),
			strconv.FormatFloat(r.TotalRevenue, 'f', 2, 64),
			strconv.Itoa(r.DaysAvailable),
			strconv.Itoa(r.DaysWithSales),
			strconv.FormatFloat(r.AvgDiscount, 'f', 4, 64),
			r.CalculatedAt.Format(time.RFC3339),
		})
	}
	count, err := b.writeRows(ctx, path, noosHeader, rows)
	return finish(path, count, err)
}

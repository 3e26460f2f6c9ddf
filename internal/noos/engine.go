// Package noos implements the Never-Out-Of-Stock classification
// algorithm: liquidation cleanup, per-style aggregation, category
// benchmarks, and rule-based classification into
// bestseller/core/fashion. Grounded on the teacher's
// internal/core.Engine phase-driven orchestration (load -> transform
// -> persist, reporting percentage progress to its own task record at
// each phase boundary), generalized from a transfer engine to a
// batch-analytics engine.
package noos

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/increff/noos-service/internal/storage"
)

// ErrNoSalesInRange is returned when Phase 1 finds nothing to analyze.
var ErrNoSalesInRange = fmt.Errorf("noos: no sales data in range")

// ErrCancelled is returned when the task's cancellation flag is
// observed between phases or during Phase 5.
var ErrCancelled = fmt.Errorf("noos: task was cancelled by user")

// persistMu serializes Phase 6's whole-table replacement across
// concurrent runs (SPEC_FULL.md §13.3): the scheduler still accepts
// two ALGORITHM_RUN submissions back to back, but the second one
// queues here rather than racing the first on noos_results.
var persistMu sync.Mutex

// Engine runs one classification pass per invocation.
type Engine struct {
	storage *storage.Storage
}

func New(s *storage.Storage) *Engine {
	return &Engine{storage: s}
}

// styleAgg accumulates one style's totals across Phase 3.
type styleAgg struct {
	styleCode     string
	category      string
	totalQuantity int64
	totalRevenue  float64
	totalDiscount float64
	saleDays      map[string]struct{}
	daysAvailable int
}

// categoryBenchmark holds Phase 4's per-category aggregates.
type categoryBenchmark struct {
	totalRevenue     float64
	avgRevenuePerDay float64
	avgConsistency   float64
}

// progressFunc reports phase/percentage to the caller's task record.
type progressFunc func(pct float64, phase, message string) error

// cancelledFunc re-reads the task's cancellation flag.
type cancelledFunc func() (bool, error)

// Run executes all six phases and returns the resulting rows, already
// persisted via ReplaceNoosResults. runID stamps every row's
// AlgorithmRunID (the producing Task.ID).
func (e *Engine) Run(params storage.AlgorithmParameters, runID uint64, onProgress progressFunc, isCancelled cancelledFunc) ([]storage.NoosResult, error) {
	if cancel, err := e.checkpoint(isCancelled); cancel || err != nil {
		return nil, firstNonNil(err, ErrCancelled)
	}

	// Phase 1 — Load (0 -> 20%)
	sales, err := e.storage.SalesInRange(params.AnalysisStartDate, params.AnalysisEndDate)
	if err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return nil, ErrNoSalesInRange
	}
	if err := onProgress(20, "loaded", fmt.Sprintf("loaded %d sales", len(sales))); err != nil {
		return nil, err
	}

	styles, err := e.storage.AllStyles()
	if err != nil {
		return nil, err
	}
	skus, err := e.storage.AllSkus()
	if err != nil {
		return nil, err
	}
	styleByID := make(map[uint64]storage.Style, len(styles))
	for _, st := range styles {
		styleByID[st.ID] = st
	}
	styleOfSku := make(map[uint64]storage.Style, len(skus))
	for _, sk := range skus {
		if st, ok := styleByID[sk.StyleID]; ok {
			styleOfSku[sk.ID] = st
		}
	}

	if cancel, err := e.checkpoint(isCancelled); cancel || err != nil {
		return nil, firstNonNil(err, ErrCancelled)
	}

	// Phase 2 — Liquidation cleanup (20 -> 35%)
	threshold := params.LiquidationThreshold
	if threshold == 0 {
		threshold = 0.20
	}
	cleaned := make([]storage.Sale, 0, len(sales))
	for _, sale := range sales {
		if sale.Revenue <= 0 {
			continue
		}
		discountPct := sale.Discount / (sale.Discount + sale.Revenue)
		if discountPct > threshold {
			continue
		}
		cleaned = append(cleaned, sale)
	}
	if err := onProgress(35, "cleaned", fmt.Sprintf("%d sales after liquidation filter", len(cleaned))); err != nil {
		return nil, err
	}

	if cancel, err := e.checkpoint(isCancelled); cancel || err != nil {
		return nil, firstNonNil(err, ErrCancelled)
	}

	// Phase 3 — Aggregate by style (35 -> 50%)
	aggs := make(map[string]*styleAgg)
	for _, sale := range cleaned {
		style, ok := styleOfSku[sale.SkuID]
		if !ok {
			continue
		}
		agg, ok := aggs[style.StyleCode]
		if !ok {
			agg = &styleAgg{styleCode: style.StyleCode, category: style.Category, saleDays: map[string]struct{}{}}
			aggs[style.StyleCode] = agg
		}
		agg.totalQuantity += int64(sale.Quantity)
		agg.totalRevenue += sale.Revenue
		agg.totalDiscount += sale.Discount
		agg.saleDays[sale.Date.Format("2006-01-02")] = struct{}{}
	}
	if err := onProgress(50, "aggregated", fmt.Sprintf("%d styles aggregated", len(aggs))); err != nil {
		return nil, err
	}

	daysAvailable := daysAvailableResolver(params, cleaned)
	for _, agg := range aggs {
		agg.daysAvailable = daysAvailable(agg)
	}

	if cancel, err := e.checkpoint(isCancelled); cancel || err != nil {
		return nil, firstNonNil(err, ErrCancelled)
	}

	// Phase 4 — Category benchmarks (50 -> 55%)
	benchmarks := computeBenchmarks(aggs)
	if err := onProgress(55, "benchmarked", fmt.Sprintf("%d categories benchmarked", len(benchmarks))); err != nil {
		return nil, err
	}

	// Phase 5 — Classify (55 -> 85%)
	results := make([]storage.NoosResult, 0, len(aggs))
	now := time.Now()
	checked := 0
	for _, agg := range aggs {
		checked++
		if checked%50 == 0 {
			if cancel, err := e.checkpoint(isCancelled); cancel || err != nil {
				return nil, firstNonNil(err, ErrCancelled)
			}
		}

		daysAvail := agg.daysAvailable
		if daysAvail < 1 {
			daysAvail = 1
		}
		daysWithSales := len(agg.saleDays)

		styleROS := round4(float64(agg.totalQuantity) / float64(daysAvail))
		benchmark := benchmarks[agg.category]
		revContribution := 0.0
		if benchmark.totalRevenue > 0 {
			revContribution = round4((agg.totalRevenue / benchmark.totalRevenue) * 100)
		}
		revenuePerDay := agg.totalRevenue / float64(daysAvail)
		consistencyRatio := float64(daysWithSales) / float64(daysAvail)
		avgDiscountRatio := 0.0
		if agg.totalDiscount+agg.totalRevenue > 0 {
			avgDiscountRatio = agg.totalDiscount / (agg.totalDiscount + agg.totalRevenue)
		}

		noosType := classify(revenuePerDay, benchmark.avgRevenuePerDay, params.BestsellerMultiplier,
			float64(agg.totalQuantity), params.MinVolumeThreshold, consistencyRatio, params.ConsistencyThreshold, avgDiscountRatio)

		results = append(results, storage.NoosResult{
			AlgorithmRunID:       runID,
			Category:             agg.category,
			StyleCode:            agg.styleCode,
			StyleROS:             styleROS,
			Type:                 noosType,
			StyleRevContribution: revContribution,
			TotalQuantitySold:    agg.totalQuantity,
			TotalRevenue:         agg.totalRevenue,
			DaysAvailable:        daysAvail,
			DaysWithSales:        daysWithSales,
			AvgDiscount:          avgDiscountRatio,
			CalculatedAt:         now,
		})
	}
	if err := onProgress(85, "classified", fmt.Sprintf("%d styles classified", len(results))); err != nil {
		return nil, err
	}

	// Phase 6 — Persist (85 -> 100%)
	persistMu.Lock()
	defer persistMu.Unlock()
	if err := e.storage.ReplaceNoosResults(results, 50); err != nil {
		return nil, err
	}
	if err := onProgress(100, "complete", fmt.Sprintf("%d results persisted", len(results))); err != nil {
		return nil, err
	}

	return results, nil
}

func (e *Engine) checkpoint(isCancelled cancelledFunc) (bool, error) {
	return isCancelled()
}

func firstNonNil(err, fallback error) error {
	if err != nil {
		return err
	}
	return fallback
}

// classify applies the three ordered rules of Phase 5, first match wins.
func classify(revenuePerDay, categoryAvgRevenuePerDay, bestsellerMultiplier, totalQuantity, minVolumeThreshold, consistencyRatio, consistencyThreshold, avgDiscountRatio float64) storage.NoosType {
	if revenuePerDay > categoryAvgRevenuePerDay*bestsellerMultiplier && totalQuantity > minVolumeThreshold {
		return storage.NoosBestseller
	}
	if consistencyRatio > consistencyThreshold && avgDiscountRatio < 0.15 && totalQuantity > minVolumeThreshold/2 {
		return storage.NoosCore
	}
	return storage.NoosFashion
}

func computeBenchmarks(aggs map[string]*styleAgg) map[string]categoryBenchmark {
	type acc struct {
		totalRevenue       float64
		sumRevenuePerDay   float64
		sumConsistency     float64
		count              int
	}
	byCategory := make(map[string]*acc)
	for _, agg := range aggs {
		a, ok := byCategory[agg.category]
		if !ok {
			a = &acc{}
			byCategory[agg.category] = a
		}
		daysAvail := agg.daysAvailable
		if daysAvail < 1 {
			daysAvail = 1
		}
		a.totalRevenue += agg.totalRevenue
		a.sumRevenuePerDay += agg.totalRevenue / float64(daysAvail)
		a.sumConsistency += float64(len(agg.saleDays)) / float64(daysAvail)
		a.count++
	}

	benchmarks := make(map[string]categoryBenchmark, len(byCategory))
	for category, a := range byCategory {
		b := categoryBenchmark{totalRevenue: a.totalRevenue}
		if a.count > 0 {
			b.avgRevenuePerDay = a.sumRevenuePerDay / float64(a.count)
			b.avgConsistency = a.sumConsistency / float64(a.count)
		}
		benchmarks[category] = b
	}
	return benchmarks
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

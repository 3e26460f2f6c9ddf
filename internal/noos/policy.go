package noos

import (
	"time"

	"github.com/increff/noos-service/internal/storage"
)

// daysAvailableFunc computes one style's daysAvailable denominator.
type daysAvailableFunc func(agg *styleAgg) int

// daysAvailableResolver selects the daysAvailable policy named by
// params.DaysAvailablePolicy (SPEC_FULL.md §13.1). The default,
// distinct_sale_days, is the literal original behavior: every
// style's denominator is just the count of distinct days it sold on,
// which makes consistencyRatio always equal to 1. The other two
// policies are real alternatives callers can opt into.
func daysAvailableResolver(params storage.AlgorithmParameters, cleaned []storage.Sale) daysAvailableFunc {
	switch params.DaysAvailablePolicy {
	case storage.PolicyAnalysisWindow:
		span := windowSpanDays(params, cleaned)
		return func(agg *styleAgg) int {
			return maxInt(span, 1)
		}
	case storage.PolicyCatalogueDays:
		return func(agg *styleAgg) int {
			return maxInt(catalogueSpanDays(agg), 1)
		}
	default: // PolicyDistinctSaleDays
		return func(agg *styleAgg) int {
			return maxInt(len(agg.saleDays), 1)
		}
	}
}

// windowSpanDays is the inclusive day count of the configured analysis
// window, falling back to the observed span of the cleaned dataset
// when no explicit start/end date was given.
func windowSpanDays(params storage.AlgorithmParameters, cleaned []storage.Sale) int {
	if params.AnalysisStartDate != nil && params.AnalysisEndDate != nil {
		return daysBetween(*params.AnalysisStartDate, *params.AnalysisEndDate)
	}
	start, end, ok := dataSpan(cleaned)
	if !ok {
		return 1
	}
	return daysBetween(start, end)
}

// catalogueSpanDays is how long a style has been selling: the
// inclusive span between its earliest and latest distinct sale day.
func catalogueSpanDays(agg *styleAgg) int {
	if len(agg.saleDays) == 0 {
		return 1
	}
	var earliest, latest time.Time
	first := true
	for day := range agg.saleDays {
		t, err := time.Parse("2006-01-02", day)
		if err != nil {
			continue
		}
		if first || t.Before(earliest) {
			earliest = t
		}
		if first || t.After(latest) {
			latest = t
		}
		first = false
	}
	return daysBetween(earliest, latest)
}

func dataSpan(sales []storage.Sale) (start, end time.Time, ok bool) {
	for i, sale := range sales {
		if i == 0 || sale.Date.Before(start) {
			start = sale.Date
		}
		if i == 0 || sale.Date.After(end) {
			end = sale.Date
		}
	}
	return start, end, len(sales) > 0
}

func daysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

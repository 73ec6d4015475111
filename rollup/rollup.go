/*
Package rollup derives read-time aggregates from raw production reports.

PURPOSE:
  Dashboards need monthly totals, trends, per-operation comparisons and
  per-type summaries. None of these are stored: every call re-reads the
  raw rows through the ledger and folds them in memory.

KEY CONCEPTS:
  Range:  inclusive [Start, End] of YYYY-MM-DD dates
  Metric: which report figure a view extracts
    - today_production: a daily flow, summed across dates
    - total_completed, dispatched, in_hand: cumulative stocks, a view that
      reduces many dates to one number takes the latest date

VOLUMES:
  A single facility produces low thousands of rows over years, so every
  view is a full scan of the requested range.

SEE ALSO:
  - monthly.go: Calendar month totals and the target summary
  - views.go: Trend, operation comparison, type summary, dispatch totals
  - dashboard.go: Concurrent fan-out of the dashboard panels
  - production.go: Container status counts and the operation workload
*/
package rollup

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/production-ledger/ledger"
)

// Source is the read side of the ledger that rollups consume.
type Source interface {
	ReportsInRange(ctx context.Context, start, end string, filter ledger.DimensionFilter) ([]ledger.DailyProductionReport, error)
	EnhancedMasterOrder(ctx context.Context) (ledger.EnhancedMasterOrderStatus, error)
	OpeningBalance(ctx context.Context) (ledger.HistoricalOpeningBalance, error)
	DispatchesInRange(ctx context.Context, from, to int64) ([]ledger.DispatchEntry, error)
	ProductionEntries(ctx context.Context, filter ledger.ProductionEntryFilter) ([]ledger.ProductionEntry, error)
}

// Engine computes rollups over a Source.
type Engine struct {
	src           Source
	monthlyTarget int64
}

// New creates an engine. monthlyTarget feeds MonthlySummary; zero disables
// the target figures.
func New(src Source, monthlyTarget int64) *Engine {
	return &Engine{src: src, monthlyTarget: monthlyTarget}
}

// =============================================================================
// RANGE
// =============================================================================

// Range is an inclusive span of calendar dates.
type Range struct {
	Start string
	End   string
}

// Day returns the range covering a single date.
func Day(date string) Range {
	return Range{Start: date, End: date}
}

// MonthRange returns the first and last calendar day of a month.
func MonthRange(year int, month time.Month) Range {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return Range{Start: first.Format(ledger.DateLayout), End: last.Format(ledger.DateLayout)}
}

func (r Range) Validate() error {
	return ledger.ValidateRange(r.Start, r.End)
}

// =============================================================================
// METRIC
// =============================================================================

type Metric string

const (
	MetricTodayProduction Metric = "today_production"
	MetricTotalCompleted  Metric = "total_completed"
	MetricDispatched      Metric = "dispatched"
	MetricInHand          Metric = "in_hand"
)

// ParseMetric accepts a metric name. Empty selects today_production.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case "":
		return MetricTodayProduction, nil
	case MetricTodayProduction, MetricTotalCompleted, MetricDispatched, MetricInHand:
		return m, nil
	}
	return "", &ledger.ValidationError{Field: "metric", Message: fmt.Sprintf("unknown metric %q", s)}
}

// Cumulative reports whether the metric is a running stock rather than a
// daily flow.
func (m Metric) Cumulative() bool {
	return m != MetricTodayProduction
}

// Of extracts the metric from a report.
func (m Metric) Of(r ledger.DailyProductionReport) int64 {
	switch m {
	case MetricTotalCompleted:
		return r.TotalCompleted
	case MetricDispatched:
		return r.Dispatched
	case MetricInHand:
		return r.InHand
	default:
		return r.TodayProduction
	}
}

// ofOpening maps the opening balance onto the metric.
func (m Metric) ofOpening(b ledger.HistoricalOpeningBalance) int64 {
	switch m {
	case MetricDispatched:
		return b.DispatchedBeforeSystem
	case MetricInHand:
		return ledger.ComputeInHand(b.ManufacturedBeforeSystem, b.DispatchedBeforeSystem)
	default:
		return b.ManufacturedBeforeSystem
	}
}

func (e *Engine) reports(ctx context.Context, r Range, filter ledger.DimensionFilter) ([]ledger.DailyProductionReport, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return e.src.ReportsInRange(ctx, r.Start, r.End, filter)
}

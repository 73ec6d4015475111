package rollup

import (
	"context"
	"errors"
	"sort"

	"github.com/warp/production-ledger/ledger"
)

// OpeningLabel marks the synthetic opening balance point of a trend.
const OpeningLabel = "opening-balance"

// =============================================================================
// PRODUCTION TREND
// =============================================================================

// TrendPoint is one value of a trend series. Regular points carry their
// date as Label; the opening point carries OpeningLabel.
type TrendPoint struct {
	Label     string
	Date      string
	Value     int64
	IsOpening bool
}

// Trend sums the metric per date, ascending. With includeOpening and a
// recorded opening balance, the balance is prepended as the first point.
func (e *Engine) Trend(ctx context.Context, r Range, filter ledger.DimensionFilter, m Metric, includeOpening bool) ([]TrendPoint, error) {
	rows, err := e.reports(ctx, r, filter)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]int64)
	for _, row := range rows {
		byDate[row.Date] += m.Of(row)
	}

	points := make([]TrendPoint, 0, len(byDate)+1)
	if includeOpening {
		b, err := e.src.OpeningBalance(ctx)
		switch {
		case err == nil:
			points = append(points, TrendPoint{
				Label:     OpeningLabel,
				Date:      b.OpeningDate,
				Value:     m.ofOpening(b),
				IsOpening: true,
			})
		case !errors.Is(err, ledger.ErrNoOpeningBalance):
			return nil, err
		}
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	for _, d := range dates {
		points = append(points, TrendPoint{Label: d, Date: d, Value: byDate[d]})
	}
	return points, nil
}

// =============================================================================
// OPERATION COMPARISON
// =============================================================================

// OperationValue is one row of the operation comparison. Reports is zero
// for operations with no data in the range.
type OperationValue struct {
	Operation  string
	Value      int64
	Reports    int
	LatestDate string
}

// OperationComparison returns exactly one row per canonical operation, in
// canonical order. Flow metrics are summed over the range; cumulative
// metrics take the rows of each operation's latest date and sum those.
func (e *Engine) OperationComparison(ctx context.Context, r Range, filter ledger.DimensionFilter, m Metric) ([]OperationValue, error) {
	rows, err := e.reports(ctx, r, filter)
	if err != nil {
		return nil, err
	}

	out := make([]OperationValue, len(ledger.Operations))
	for i, op := range ledger.Operations {
		out[i].Operation = op
	}

	for _, row := range rows {
		i := ledger.OperationIndex(row.OperationName)
		if i < 0 {
			continue
		}
		v := &out[i]
		v.Reports++

		if !m.Cumulative() {
			v.Value += m.Of(row)
			if row.Date > v.LatestDate {
				v.LatestDate = row.Date
			}
			continue
		}
		switch {
		case row.Date > v.LatestDate:
			v.LatestDate = row.Date
			v.Value = m.Of(row)
		case row.Date == v.LatestDate:
			v.Value += m.Of(row)
		}
	}
	return out, nil
}

// =============================================================================
// TYPE-WISE SUMMARY
// =============================================================================

// TypeTotals aggregates every report of one container type.
type TypeTotals struct {
	ContainerTypeID ledger.ContainerTypeID
	TodayProduction int64
	TotalCompleted  int64
	Dispatched      int64
	InHand          int64
	Count           int
}

// TypeSummary groups the range by container type, summing across dates
// and operations. Types are returned in ascending ID order.
func (e *Engine) TypeSummary(ctx context.Context, r Range, filter ledger.DimensionFilter) ([]TypeTotals, error) {
	rows, err := e.reports(ctx, r, filter)
	if err != nil {
		return nil, err
	}

	byType := make(map[ledger.ContainerTypeID]*TypeTotals)
	for _, row := range rows {
		t, ok := byType[row.ContainerTypeID]
		if !ok {
			t = &TypeTotals{ContainerTypeID: row.ContainerTypeID}
			byType[row.ContainerTypeID] = t
		}
		t.TodayProduction += row.TodayProduction
		t.TotalCompleted += row.TotalCompleted
		t.Dispatched += row.Dispatched
		t.InHand += row.InHand
		t.Count++
	}

	out := make([]TypeTotals, 0, len(byType))
	for _, t := range byType {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ContainerTypeID < out[j].ContainerTypeID })
	return out, nil
}

// =============================================================================
// DISPATCH TOTALS
// =============================================================================

// DispatchTotal is the shipped volume of one container type.
type DispatchTotal struct {
	ContainerTypeID ledger.ContainerTypeID
	Quantity        int64
	Entries         int
}

// DispatchTotals sums the dispatch log per container type over [from, to]
// nanoseconds. Cancelled dispatches are excluded.
func (e *Engine) DispatchTotals(ctx context.Context, from, to int64) ([]DispatchTotal, error) {
	entries, err := e.src.DispatchesInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byType := make(map[ledger.ContainerTypeID]*DispatchTotal)
	for _, d := range entries {
		if d.DeliveryStatus == ledger.DeliveryCancelled {
			continue
		}
		t, ok := byType[d.ContainerTypeID]
		if !ok {
			t = &DispatchTotal{ContainerTypeID: d.ContainerTypeID}
			byType[d.ContainerTypeID] = t
		}
		t.Quantity += d.Quantity
		t.Entries++
	}

	out := make([]DispatchTotal, 0, len(byType))
	for _, t := range byType {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ContainerTypeID < out[j].ContainerTypeID })
	return out, nil
}

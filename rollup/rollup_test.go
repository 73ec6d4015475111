package rollup_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/production-ledger/ledger"
	"github.com/warp/production-ledger/ledger/store"
	"github.com/warp/production-ledger/rollup"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestEngine(t *testing.T, target int64) (*rollup.Engine, *ledger.Ledger) {
	l := ledger.New(store.NewTxMemory())
	err := l.SeedDimensions(context.Background(),
		[]ledger.ContainerType{
			{ID: 1, Name: "Full Container", IsActive: true},
			{ID: 2, Name: "Flat Pack", IsActive: true},
		},
		[]ledger.ContainerSize{
			{ID: 1, Size: "20ft", IsActive: true},
			{ID: 2, Size: "40ft", IsActive: true},
		},
	)
	require.NoError(t, err)
	return rollup.New(l, target), l
}

func submit(t *testing.T, l *ledger.Ledger, date, op string, typ ledger.ContainerTypeID, size ledger.ContainerSizeID, today, total, dispatched int64) {
	_, err := l.SubmitReport(context.Background(), ledger.ReportInput{
		Date:            date,
		OperationName:   op,
		ContainerTypeID: typ,
		ContainerSizeID: size,
		Quantities:      ledger.Quantities{TodayProduction: today, TotalCompleted: total, Dispatched: dispatched},
	})
	require.NoError(t, err)
}

// =============================================================================
// MONTHLY TESTS
// =============================================================================

func TestMonthlyTotals(t *testing.T) {
	// GIVEN: Reports on Jan 31, Feb 1, Feb 28 and Mar 1
	// WHEN: Totalling February
	// THEN: Only the two February rows count

	e, l := newTestEngine(t, 0)
	submit(t, l, "2026-01-31", "Boxing", 1, 1, 100, 0, 0)
	submit(t, l, "2026-02-01", "Boxing", 1, 1, 3, 0, 0)
	submit(t, l, "2026-02-28", "Roof", 2, 2, 4, 0, 0)
	submit(t, l, "2026-03-01", "Boxing", 1, 1, 100, 0, 0)

	got, err := e.MonthlyTotals(context.Background(), 2026, time.February)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.TotalContainers)
	assert.Equal(t, 2, got.Reports)
}

func TestMonthlyTotals_InvalidMonth(t *testing.T) {
	e, _ := newTestEngine(t, 0)
	_, err := e.MonthlyTotals(context.Background(), 2026, 13)
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestMonthRange_LeapYear(t *testing.T) {
	assert.Equal(t, rollup.Range{Start: "2028-02-01", End: "2028-02-29"}, rollup.MonthRange(2028, time.February))
	assert.Equal(t, rollup.Range{Start: "2026-12-01", End: "2026-12-31"}, rollup.MonthRange(2026, time.December))
}

func TestMonthlySummary(t *testing.T) {
	e, l := newTestEngine(t, 100)
	submit(t, l, "2026-03-01", "Boxing", 1, 1, 20, 0, 0)
	submit(t, l, "2026-03-05", "Boxing", 1, 1, 25, 0, 0)

	tests := []struct {
		name        string
		today       time.Time
		daysElapsed int
		average     float64
	}{
		{"current month", time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), 10, 4.5},
		{"past month", time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), 31, 1.45},
		{"future month", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := e.MonthlySummary(context.Background(), 2026, time.March, tt.today)
			require.NoError(t, err)
			assert.Equal(t, int64(45), s.TotalContainers)
			assert.Equal(t, int64(100), s.Target)
			assert.Equal(t, int64(55), s.RemainingToTarget)
			assert.Equal(t, 45.0, s.CompletionPercentage)
			assert.Equal(t, tt.daysElapsed, s.DaysElapsed)
			assert.Equal(t, tt.average, s.DailyAverage)
		})
	}
}

func TestMonthlySummary_CapsCompletion(t *testing.T) {
	e, l := newTestEngine(t, 10)
	submit(t, l, "2026-03-01", "Boxing", 1, 1, 25, 0, 0)

	s, err := e.MonthlySummary(context.Background(), 2026, time.March, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 100.0, s.CompletionPercentage)
	assert.Zero(t, s.RemainingToTarget)
}

// =============================================================================
// TREND TESTS
// =============================================================================

func TestTrend_SumsPerDateAscending(t *testing.T) {
	e, l := newTestEngine(t, 0)
	submit(t, l, "2026-03-03", "Boxing", 1, 1, 5, 0, 0)
	submit(t, l, "2026-03-01", "Boxing", 1, 1, 2, 0, 0)
	submit(t, l, "2026-03-01", "Roof", 1, 1, 3, 0, 0)
	submit(t, l, "2026-03-01", "Roof", 2, 1, 4, 0, 0)

	points, err := e.Trend(context.Background(), rollup.Range{Start: "2026-03-01", End: "2026-03-31"}, ledger.DimensionFilter{}, rollup.MetricTodayProduction, false)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, rollup.TrendPoint{Label: "2026-03-01", Date: "2026-03-01", Value: 9}, points[0])
	assert.Equal(t, int64(5), points[1].Value)

	typ := ledger.ContainerTypeID(2)
	points, err = e.Trend(context.Background(), rollup.Range{Start: "2026-03-01", End: "2026-03-31"}, ledger.DimensionFilter{ContainerTypeID: &typ}, rollup.MetricTodayProduction, false)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, int64(4), points[0].Value)
}

func TestTrend_OpeningBalancePoint(t *testing.T) {
	// GIVEN: An opening balance of 500 manufactured / 400 dispatched
	// WHEN: A trend is requested with the opening point
	// THEN: The first point is the distinctly labelled opening balance

	e, l := newTestEngine(t, 0)
	ctx := context.Background()
	r := rollup.Range{Start: "2026-03-01", End: "2026-03-31"}
	submit(t, l, "2026-03-02", "Boxing", 1, 1, 1, 10, 4)

	// Without a balance the flag is a no-op.
	points, err := e.Trend(ctx, r, ledger.DimensionFilter{}, rollup.MetricTotalCompleted, true)
	require.NoError(t, err)
	require.Len(t, points, 1)

	require.NoError(t, l.CreateOpeningBalance(ctx, ledger.OpeningBalanceInput{
		OpeningDate:              "2026-01-01",
		ManufacturedBeforeSystem: 500,
		DispatchedBeforeSystem:   400,
		ManufacturingStartDate:   "2025-01-01",
		SystemGoLiveDate:         "2026-01-01",
	}))

	points, err = e.Trend(ctx, r, ledger.DimensionFilter{}, rollup.MetricTotalCompleted, true)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.True(t, points[0].IsOpening)
	assert.Equal(t, rollup.OpeningLabel, points[0].Label)
	assert.Equal(t, int64(500), points[0].Value)
	assert.False(t, points[1].IsOpening)

	points, err = e.Trend(ctx, r, ledger.DimensionFilter{}, rollup.MetricDispatched, true)
	require.NoError(t, err)
	assert.Equal(t, int64(400), points[0].Value)

	points, err = e.Trend(ctx, r, ledger.DimensionFilter{}, rollup.MetricInHand, true)
	require.NoError(t, err)
	assert.Equal(t, int64(100), points[0].Value)
	assert.Equal(t, int64(6), points[1].Value)
}

func TestTrend_InvalidRange(t *testing.T) {
	e, _ := newTestEngine(t, 0)
	_, err := e.Trend(context.Background(), rollup.Range{Start: "2026-03-31", End: "2026-03-01"}, ledger.DimensionFilter{}, rollup.MetricTodayProduction, false)
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

// =============================================================================
// OPERATION COMPARISON TESTS
// =============================================================================

func TestOperationComparison_AlwaysSeventeenRows(t *testing.T) {
	// GIVEN: Reports for only 3 operations on the day
	// THEN: 17 rows in canonical order, the missing 14 reporting zero

	e, l := newTestEngine(t, 0)
	submit(t, l, "2026-03-01", "Roof", 1, 1, 4, 40, 0)
	submit(t, l, "2026-03-01", "Boxing", 1, 1, 5, 50, 0)
	submit(t, l, "2026-03-01", "Black Paint", 1, 1, 6, 60, 0)

	rows, err := e.OperationComparison(context.Background(), rollup.Day("2026-03-01"), ledger.DimensionFilter{}, rollup.MetricTodayProduction)
	require.NoError(t, err)
	require.Len(t, rows, 17)

	nonZero := 0
	for i, r := range rows {
		assert.Equal(t, ledger.Operations[i], r.Operation)
		if r.Value != 0 {
			nonZero++
		}
	}
	assert.Equal(t, 3, nonZero)
	assert.Equal(t, int64(5), rows[0].Value)
	assert.Equal(t, int64(4), rows[5].Value)
	assert.Equal(t, int64(6), rows[16].Value)
	assert.Zero(t, rows[1].Reports)
}

func TestOperationComparison_LatestVersusSum(t *testing.T) {
	// GIVEN: Boxing on 03-01 (today 5, total 50) and 03-02 in two sizes
	//        (today 2+3, total 55+20)
	// THEN: today_production sums to 10; total_completed takes 03-02 = 75

	e, l := newTestEngine(t, 0)
	submit(t, l, "2026-03-01", "Boxing", 1, 1, 5, 50, 0)
	submit(t, l, "2026-03-02", "Boxing", 1, 1, 2, 55, 0)
	submit(t, l, "2026-03-02", "Boxing", 1, 2, 3, 20, 0)

	r := rollup.Range{Start: "2026-03-01", End: "2026-03-31"}

	rows, err := e.OperationComparison(context.Background(), r, ledger.DimensionFilter{}, rollup.MetricTodayProduction)
	require.NoError(t, err)
	assert.Equal(t, int64(10), rows[0].Value)
	assert.Equal(t, 3, rows[0].Reports)

	rows, err = e.OperationComparison(context.Background(), r, ledger.DimensionFilter{}, rollup.MetricTotalCompleted)
	require.NoError(t, err)
	assert.Equal(t, int64(75), rows[0].Value)
	assert.Equal(t, "2026-03-02", rows[0].LatestDate)
}

func TestParseMetric(t *testing.T) {
	m, err := rollup.ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, rollup.MetricTodayProduction, m)

	m, err = rollup.ParseMetric("total_completed")
	require.NoError(t, err)
	assert.True(t, m.Cumulative())

	_, err = rollup.ParseMetric("velocity")
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

// =============================================================================
// TYPE SUMMARY TESTS
// =============================================================================

func TestTypeSummary(t *testing.T) {
	e, l := newTestEngine(t, 0)
	submit(t, l, "2026-03-01", "Boxing", 2, 1, 1, 10, 4)
	submit(t, l, "2026-03-01", "Roof", 1, 1, 2, 20, 5)
	submit(t, l, "2026-03-02", "Roof", 1, 2, 3, 30, 40)

	rows, err := e.TypeSummary(context.Background(), rollup.Range{Start: "2026-03-01", End: "2026-03-02"}, ledger.DimensionFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, rollup.TypeTotals{
		ContainerTypeID: 1,
		TodayProduction: 5,
		TotalCompleted:  50,
		Dispatched:      45,
		InHand:          15,
		Count:           2,
	}, rows[0])
	assert.Equal(t, ledger.ContainerTypeID(2), rows[1].ContainerTypeID)

	size := ledger.ContainerSizeID(2)
	rows, err = e.TypeSummary(context.Background(), rollup.Range{Start: "2026-03-01", End: "2026-03-02"}, ledger.DimensionFilter{ContainerSizeID: &size})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Count)
}

// =============================================================================
// DISPATCH TOTALS TESTS
// =============================================================================

func TestDispatchTotals_SkipsCancelled(t *testing.T) {
	e, l := newTestEngine(t, 0)
	ctx := context.Background()

	for i, status := range []string{"pending", "delivered", "cancelled"} {
		_, err := l.CreateDispatch(ctx, ledger.DispatchInput{
			ContainerTypeID: 1,
			Quantity:        int64(i + 1),
			DispatchDate:    int64(100 + i),
			Destination:     fmt.Sprintf("Dock %d", i),
			DeliveryStatus:  status,
		})
		require.NoError(t, err)
	}

	totals, err := e.DispatchTotals(ctx, 0, 1000)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, int64(3), totals[0].Quantity)
	assert.Equal(t, 2, totals[0].Entries)
}

// =============================================================================
// DASHBOARD TESTS
// =============================================================================

func TestDashboard_EmptyLedger(t *testing.T) {
	e, _ := newTestEngine(t, 100)

	d, err := e.Dashboard(context.Background(), rollup.MonthRange(2026, time.March), time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, d.MasterOrder)
	assert.Nil(t, d.OpeningBalance)
	assert.Empty(t, d.Types)
	assert.Len(t, d.Operations, 17)
	assert.Equal(t, int64(100), d.Month.RemainingToTarget)
}

func TestDashboard_Populated(t *testing.T) {
	e, l := newTestEngine(t, 100)
	ctx := context.Background()

	require.NoError(t, l.InitMasterOrder(ctx, "Order", 1000))
	require.NoError(t, l.UpdateMasterOrder(ctx, 344, 300))
	submit(t, l, "2026-03-02", "Boxing", 1, 1, 12, 344, 300)

	d, err := e.Dashboard(ctx, rollup.MonthRange(2026, time.March), time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, d.MasterOrder)
	assert.Equal(t, 34.4, d.MasterOrder.CompletionPercentage)
	assert.Equal(t, int64(12), d.Month.TotalContainers)
	require.Len(t, d.Types, 1)
	assert.Equal(t, int64(44), d.Types[0].InHand)
	assert.Equal(t, int64(344), d.Operations[0].Value)
}

type failingSource struct {
	rollup.Source
}

func (failingSource) EnhancedMasterOrder(context.Context) (ledger.EnhancedMasterOrderStatus, error) {
	return ledger.EnhancedMasterOrderStatus{}, errors.New("disk on fire")
}

func TestDashboard_PropagatesErrors(t *testing.T) {
	_, l := newTestEngine(t, 0)
	e := rollup.New(failingSource{Source: l}, 0)

	_, err := e.Dashboard(context.Background(), rollup.Day("2026-03-01"), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "master order")
}

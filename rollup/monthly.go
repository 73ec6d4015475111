package rollup

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/production-ledger/ledger"
)

// MonthlyTotal is the production of one calendar month.
type MonthlyTotal struct {
	Year            int
	Month           time.Month
	TotalContainers int64
	Reports         int
}

// MonthlyTotals sums TodayProduction over every report dated in the month.
func (e *Engine) MonthlyTotals(ctx context.Context, year int, month time.Month) (MonthlyTotal, error) {
	if month < time.January || month > time.December {
		return MonthlyTotal{}, &ledger.ValidationError{Field: "month", Message: fmt.Sprintf("%d is not a month", month)}
	}
	if year < 1 || year > 9999 {
		return MonthlyTotal{}, &ledger.ValidationError{Field: "year", Message: fmt.Sprintf("%d is out of range", year)}
	}

	rows, err := e.reports(ctx, MonthRange(year, month), ledger.DimensionFilter{})
	if err != nil {
		return MonthlyTotal{}, err
	}

	t := MonthlyTotal{Year: year, Month: month, Reports: len(rows)}
	for _, r := range rows {
		t.TotalContainers += r.TodayProduction
	}
	return t, nil
}

// MonthlySummary measures a month's production against the monthly target.
type MonthlySummary struct {
	MonthlyTotal
	Target               int64
	RemainingToTarget    int64
	CompletionPercentage float64
	DaysElapsed          int
	DailyAverage         float64
}

// MonthlySummary computes the month's progress as seen on the day today.
// Days elapsed is the full month for past months, today's day of month for
// the current month and zero for future months.
func (e *Engine) MonthlySummary(ctx context.Context, year int, month time.Month, today time.Time) (MonthlySummary, error) {
	total, err := e.MonthlyTotals(ctx, year, month)
	if err != nil {
		return MonthlySummary{}, err
	}

	s := MonthlySummary{MonthlyTotal: total, Target: e.monthlyTarget}
	if e.monthlyTarget > 0 {
		s.RemainingToTarget = max(0, e.monthlyTarget-total.TotalContainers)
		s.CompletionPercentage = min(100, ledger.Percentage(total.TotalContainers, e.monthlyTarget))
	}

	s.DaysElapsed = daysElapsed(year, month, today)
	if s.DaysElapsed > 0 {
		s.DailyAverage = decimal.NewFromInt(total.TotalContainers).
			DivRound(decimal.NewFromInt(int64(s.DaysElapsed)), 2).
			InexactFloat64()
	}
	return s, nil
}

func daysElapsed(year int, month time.Month, today time.Time) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	current := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	switch {
	case first.Equal(current):
		return today.Day()
	case first.Before(current):
		return first.AddDate(0, 1, -1).Day()
	default:
		return 0
	}
}

package rollup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/warp/production-ledger/ledger"
	"golang.org/x/sync/errgroup"
)

// Dashboard bundles the panels of the production dashboard. MasterOrder
// and OpeningBalance are nil when not recorded yet.
type Dashboard struct {
	MasterOrder    *ledger.EnhancedMasterOrderStatus
	OpeningBalance *ledger.HistoricalOpeningBalance
	Month          MonthlySummary
	Types          []TypeTotals
	Operations     []OperationValue
}

// Dashboard loads every panel concurrently. The month panel follows today;
// the type and operation panels cover r.
func (e *Engine) Dashboard(ctx context.Context, r Range, today time.Time) (Dashboard, error) {
	const op = "rollup.Dashboard"

	if err := r.Validate(); err != nil {
		return Dashboard{}, err
	}

	var d Dashboard

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := e.src.EnhancedMasterOrder(gCtx)
		if errors.Is(err, ledger.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("master order: %w", err)
		}
		d.MasterOrder = &m
		return nil
	})
	g.Go(func() error {
		b, err := e.src.OpeningBalance(gCtx)
		if errors.Is(err, ledger.ErrNoOpeningBalance) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("opening balance: %w", err)
		}
		d.OpeningBalance = &b
		return nil
	})
	g.Go(func() error {
		var err error
		d.Month, err = e.MonthlySummary(gCtx, today.Year(), today.Month(), today)
		if err != nil {
			return fmt.Errorf("monthly summary: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		d.Types, err = e.TypeSummary(gCtx, r, ledger.DimensionFilter{})
		if err != nil {
			return fmt.Errorf("type summary: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		d.Operations, err = e.OperationComparison(gCtx, r, ledger.DimensionFilter{}, MetricTotalCompleted)
		if err != nil {
			return fmt.Errorf("operation comparison: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

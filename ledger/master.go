package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MASTER ORDER TRACKER
// =============================================================================

// InitMasterOrder seeds the master order once. Later calls leave the stored
// record untouched.
func (l *Ledger) InitMasterOrder(ctx context.Context, name string, quantity int64) error {
	if name == "" {
		return invalid("orderName", "is required")
	}
	if quantity < 0 {
		return invalid("totalOrderQuantity", "must not be negative")
	}

	return l.store.WithTx(ctx, func(s Store) error {
		_, err := s.GetMasterOrder(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		return s.SaveMasterOrder(ctx, MasterOrderStatus{
			ID:                 MasterOrderID,
			OrderName:          name,
			TotalOrderQuantity: quantity,
		})
	})
}

// UpdateMasterOrder replaces both cumulative totals together. Values are
// absolute, not deltas; concurrent edits are last-writer-wins on the pair.
func (l *Ledger) UpdateMasterOrder(ctx context.Context, totalManufactured, totalDispatched int64) error {
	if totalManufactured < 0 {
		return invalid("totalManufactured", "must not be negative")
	}
	if totalDispatched < 0 {
		return invalid("totalDispatched", "must not be negative")
	}

	return l.store.WithTx(ctx, func(s Store) error {
		m, err := s.GetMasterOrder(ctx)
		if err != nil {
			return err
		}
		m.TotalManufactured = totalManufactured
		m.TotalDispatched = totalDispatched
		return s.SaveMasterOrder(ctx, m)
	})
}

func (l *Ledger) MasterOrder(ctx context.Context) (MasterOrderStatus, error) {
	return l.store.GetMasterOrder(ctx)
}

// EnhancedMasterOrder reads one snapshot and derives progress metrics.
func (l *Ledger) EnhancedMasterOrder(ctx context.Context) (EnhancedMasterOrderStatus, error) {
	m, err := l.store.GetMasterOrder(ctx)
	if err != nil {
		return EnhancedMasterOrderStatus{}, err
	}
	return Enhance(m), nil
}

// Enhance computes the derived master order fields. The completion
// percentage is rounded to two decimals and is 0 when there is no target.
func Enhance(m MasterOrderStatus) EnhancedMasterOrderStatus {
	e := EnhancedMasterOrderStatus{
		MasterOrderStatus:  m,
		RemainingToProduce: m.TotalOrderQuantity - m.TotalManufactured,
		FinishedStock:      m.TotalManufactured - m.TotalDispatched,
	}
	if m.TotalOrderQuantity != 0 {
		e.CompletionPercentage = Percentage(m.TotalManufactured, m.TotalOrderQuantity)
	}
	return e
}

// Percentage returns part/whole*100 rounded to two decimals, 0 for whole == 0.
func Percentage(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return decimal.NewFromInt(part).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(whole), 2).
		InexactFloat64()
}

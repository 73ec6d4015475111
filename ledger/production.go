package ledger

import (
	"context"
	"strings"
)

// =============================================================================
// PRODUCTION ENTRIES
// =============================================================================

// CreateProductionEntry logs a shift's batch. The container type must be an
// active dimension row.
func (l *Ledger) CreateProductionEntry(ctx context.Context, in ProductionEntryInput) (ProductionEntryID, error) {
	if in.TotalQty <= 0 {
		return 0, invalid("totalQty", "must be positive")
	}
	if in.Shift.ID <= 0 {
		return 0, invalid("shiftDetail.shiftId", "must be positive")
	}
	name := strings.TrimSpace(in.Shift.Name)
	if name == "" {
		return 0, invalid("shiftDetail.name", "is required")
	}
	if in.Shift.ContainerQty < 0 {
		return 0, invalid("shiftDetail.containerQty", "must not be negative")
	}

	status := StatusPendingOperations
	if in.Status != "" {
		st, ok := ParseContainerStatus(in.Status)
		if !ok {
			return 0, invalid("status", "unknown status %q", in.Status)
		}
		status = st
	}

	dims, err := l.loadDimensions(ctx, l.store)
	if err != nil {
		return 0, err
	}
	if !dims.types[in.ContainerTypeID] {
		return 0, invalid("containerTypeId", "unknown or inactive container type %d", in.ContainerTypeID)
	}

	now := l.now().UnixNano()
	return l.store.InsertProductionEntry(ctx, ProductionEntry{
		ContainerTypeID: in.ContainerTypeID,
		Shift:           Shift{ID: in.Shift.ID, Name: name, ContainerQty: in.Shift.ContainerQty},
		Status:          status,
		TotalQty:        in.TotalQty,
		StatusTime:      now,
		CreatedAt:       now,
		ModifiedAt:      now,
	})
}

// UpdateProductionStatus moves an entry to another status. Any status may
// follow any other, since a batch that fails testing goes back to pending.
// Setting the current status again leaves the entry untouched.
func (l *Ledger) UpdateProductionStatus(ctx context.Context, id ProductionEntryID, status string) error {
	st, ok := ParseContainerStatus(status)
	if !ok {
		return invalid("status", "unknown status %q", status)
	}

	return l.store.WithTx(ctx, func(s Store) error {
		e, err := s.GetProductionEntry(ctx, id)
		if err != nil {
			return err
		}
		if e.Status == st {
			return nil
		}
		now := l.now().UnixNano()
		e.Status = st
		e.StatusTime = now
		e.ModifiedAt = now
		return s.UpdateProductionEntry(ctx, e)
	})
}

// ProductionEntries returns entries matching the filter in creation order.
func (l *Ledger) ProductionEntries(ctx context.Context, filter ProductionEntryFilter) ([]ProductionEntry, error) {
	return l.store.ProductionEntries(ctx, filter)
}

package ledger

import (
	"context"
	"strings"
)

// =============================================================================
// DISPATCH LOG
// =============================================================================

// CreateDispatch records a shipment. Status defaults to pending.
func (l *Ledger) CreateDispatch(ctx context.Context, in DispatchInput) (DispatchID, error) {
	if in.Quantity <= 0 {
		return 0, invalid("quantity", "must be positive")
	}
	if in.DispatchDate <= 0 {
		return 0, invalid("dispatchDate", "must be a timestamp in nanoseconds")
	}
	dest := strings.TrimSpace(in.Destination)
	if dest == "" {
		return 0, invalid("destination", "is required")
	}

	status := DeliveryPending
	if in.DeliveryStatus != "" {
		st, ok := ParseDeliveryStatus(in.DeliveryStatus)
		if !ok {
			return 0, invalid("deliveryStatus", "unknown status %q", in.DeliveryStatus)
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

	return l.store.InsertDispatch(ctx, DispatchEntry{
		ContainerTypeID: in.ContainerTypeID,
		Quantity:        in.Quantity,
		DispatchDate:    in.DispatchDate,
		Destination:     dest,
		DeliveryStatus:  status,
		CreatedAt:       l.now().UnixNano(),
	})
}

// DispatchesInRange returns shipments dispatched in [from, to] nanoseconds.
func (l *Ledger) DispatchesInRange(ctx context.Context, from, to int64) ([]DispatchEntry, error) {
	if to < from {
		return nil, invalid("rangeEnd", "before range start")
	}
	return l.store.DispatchesInRange(ctx, from, to)
}

func (l *Ledger) UpdateDispatchStatus(ctx context.Context, id DispatchID, status string) error {
	st, ok := ParseDeliveryStatus(status)
	if !ok {
		return invalid("deliveryStatus", "unknown status %q", status)
	}
	return l.store.UpdateDispatchStatus(ctx, id, st)
}

package ledger

import "context"

// =============================================================================
// HISTORICAL OPENING BALANCE
// =============================================================================

// CreateOpeningBalance records the pre-go-live baseline. It can succeed
// only once; later calls fail with *AlreadyExistsError and change nothing.
func (l *Ledger) CreateOpeningBalance(ctx context.Context, in OpeningBalanceInput) error {
	dates := []struct{ field, value string }{
		{"openingDate", in.OpeningDate},
		{"manufacturingStartDate", in.ManufacturingStartDate},
		{"systemGoLiveDate", in.SystemGoLiveDate},
	}
	for _, d := range dates {
		if _, err := ParseDate(d.value); err != nil {
			return invalid(d.field, "%q is not a YYYY-MM-DD date", d.value)
		}
	}
	if in.ManufacturedBeforeSystem < 0 {
		return invalid("manufacturedBeforeSystem", "must not be negative")
	}
	if in.DispatchedBeforeSystem < 0 {
		return invalid("dispatchedBeforeSystem", "must not be negative")
	}

	return l.store.InsertOpeningBalance(ctx, HistoricalOpeningBalance{
		ID:                       OpeningBalanceID,
		OpeningDate:              in.OpeningDate,
		ManufacturingStartDate:   in.ManufacturingStartDate,
		SystemGoLiveDate:         in.SystemGoLiveDate,
		ManufacturedBeforeSystem: in.ManufacturedBeforeSystem,
		DispatchedBeforeSystem:   in.DispatchedBeforeSystem,
		EntryType:                EntryTypeHistorical,
		IsLocked:                 true,
	})
}

// OpeningBalance returns the baseline or ErrNoOpeningBalance.
func (l *Ledger) OpeningBalance(ctx context.Context) (HistoricalOpeningBalance, error) {
	return l.store.GetOpeningBalance(ctx)
}

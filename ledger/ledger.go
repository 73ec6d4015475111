/*
ledger.go - Daily report store operations

PURPOSE:
  The Ledger is the only write path for production data. It validates
  operation names and dimension references, recomputes derived fields and
  hands fully formed rows to the Store.

CRITICAL INVARIANTS:
  1. DERIVED: InHand = max(0, TotalCompleted - Dispatched) on every write
  2. UNIQUE: at most one report per (date, operation, type, size)
  3. IDEMPOTENT: SubmitReport and BatchSubmit can be retried safely
  4. ATOMIC BATCHES: a batch commits every entry or none

WRITE PATHS:
  CreateReport      insert only, rejects an existing natural key
  SubmitReport      upsert by natural key (single-entry form)
  BatchSubmit       upsert many operations for one date, all-or-nothing
  UpdateReportByID  point update by synthetic ID (history edit dialog)

The ledger performs no identity checks. Callers are authorised before
they reach it.

SEE ALSO:
  - store.go: Persistence interface
  - master.go, opening.go, dispatch.go: Singleton records and dispatch log
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Ledger implements the production ledger over a TxStore.
type Ledger struct {
	store TxStore
	now   func() time.Time
}

func New(store TxStore) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// WithClock overrides the clock used for audit timestamps.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// =============================================================================
// WRITES
// =============================================================================

// CreateReport inserts a new report. An existing natural key is a
// validation failure; use SubmitReport to overwrite.
func (l *Ledger) CreateReport(ctx context.Context, in ReportInput) (ReportID, error) {
	dims, err := l.loadDimensions(ctx, l.store)
	if err != nil {
		return 0, err
	}
	if err := dims.validate(in); err != nil {
		return 0, err
	}

	var id ReportID
	err = l.store.WithTx(ctx, func(s Store) error {
		existing, ok, err := s.FindReport(ctx, in.key())
		if err != nil {
			return err
		}
		if ok {
			return invalid("date", "report %d for %s / %s already exists, submit to update it",
				existing.ID, in.Date, in.OperationName)
		}
		id, err = s.InsertReport(ctx, in.toReport())
		if errors.Is(err, ErrDuplicateKey) {
			return invalid("date", "report for %s / %s already exists, submit to update it", in.Date, in.OperationName)
		}
		return err
	})
	return id, err
}

// SubmitReport upserts by natural key. Submitting identical arguments twice
// leaves one row with the same ID.
func (l *Ledger) SubmitReport(ctx context.Context, in ReportInput) (ReportID, error) {
	dims, err := l.loadDimensions(ctx, l.store)
	if err != nil {
		return 0, err
	}
	if err := dims.validate(in); err != nil {
		return 0, err
	}
	return l.store.UpsertReport(ctx, in.toReport())
}

// BatchSubmit upserts every entry for one date. Every entry is validated
// before anything is written, and the writes share one transaction, so a
// failure leaves the store as it was.
func (l *Ledger) BatchSubmit(ctx context.Context, date string, entries []BatchEntry) error {
	if _, err := ParseDate(date); err != nil {
		return invalid("date", "%q is not a YYYY-MM-DD date", date)
	}
	if len(entries) == 0 {
		return invalid("operations", "batch is empty")
	}

	dims, err := l.loadDimensions(ctx, l.store)
	if err != nil {
		return err
	}

	inputs := make([]ReportInput, len(entries))
	seen := make(map[NaturalKey]int, len(entries))
	for i, e := range entries {
		in := ReportInput{
			Date:            date,
			OperationName:   e.OperationName,
			ContainerTypeID: e.ContainerTypeID,
			ContainerSizeID: e.ContainerSizeID,
			Quantities:      e.Quantities,
		}
		if err := dims.validate(in); err != nil {
			return &BatchEntryError{Index: i, Operation: e.OperationName, Err: err}
		}
		if j, dup := seen[in.key()]; dup {
			return &BatchEntryError{Index: i, Operation: e.OperationName,
				Err: invalid("operationName", "duplicates entry %d", j)}
		}
		seen[in.key()] = i
		inputs[i] = in
	}

	return l.store.WithTx(ctx, func(s Store) error {
		for i, in := range inputs {
			if _, err := s.UpsertReport(ctx, in.toReport()); err != nil {
				return &BatchEntryError{Index: i, Operation: in.OperationName, Err: err}
			}
		}
		return nil
	})
}

// UpdateReportByID replaces the quantities of an existing report. A non-nil
// filter field must match the stored row; it never re-keys the row.
func (l *Ledger) UpdateReportByID(ctx context.Context, id ReportID, filter DimensionFilter, q Quantities) error {
	if err := validateQuantities(q); err != nil {
		return err
	}

	return l.store.WithTx(ctx, func(s Store) error {
		r, err := s.GetReport(ctx, id)
		if err != nil {
			return err
		}
		if !filter.Matches(r) {
			return &NotFoundError{Kind: "report", Key: id}
		}
		r.TodayProduction = q.TodayProduction
		r.TotalCompleted = q.TotalCompleted
		r.Dispatched = q.Dispatched
		r.InHand = ComputeInHand(q.TotalCompleted, q.Dispatched)
		return s.UpdateReport(ctx, r)
	})
}

// =============================================================================
// READS
// =============================================================================

func (l *Ledger) Report(ctx context.Context, id ReportID) (DailyProductionReport, error) {
	return l.store.GetReport(ctx, id)
}

// ReportsByDate returns the reports of one day, optionally narrowed.
func (l *Ledger) ReportsByDate(ctx context.Context, date string, filter DimensionFilter) ([]DailyProductionReport, error) {
	if _, err := ParseDate(date); err != nil {
		return nil, invalid("date", "%q is not a YYYY-MM-DD date", date)
	}
	return l.store.ReportsInRange(ctx, date, date, filter)
}

// ReportsInRange returns reports with start <= date <= end.
func (l *Ledger) ReportsInRange(ctx context.Context, start, end string, filter DimensionFilter) ([]DailyProductionReport, error) {
	if err := ValidateRange(start, end); err != nil {
		return nil, err
	}
	return l.store.ReportsInRange(ctx, start, end, filter)
}

func (l *Ledger) ReportsByOperation(ctx context.Context, operation string) ([]DailyProductionReport, error) {
	if !IsOperation(operation) {
		return nil, invalid("operationName", "unknown operation %q", operation)
	}
	return l.store.ReportsByOperation(ctx, operation)
}

// Operations lists the canonical operation names in display order.
func (l *Ledger) Operations() []string {
	return Operations[:]
}

func (l *Ledger) ContainerTypes(ctx context.Context) ([]ContainerType, error) {
	return l.store.ContainerTypes(ctx)
}

func (l *Ledger) ContainerSizes(ctx context.Context) ([]ContainerSize, error) {
	return l.store.ContainerSizes(ctx)
}

// SeedDimensions writes reference rows. Existing IDs are overwritten.
func (l *Ledger) SeedDimensions(ctx context.Context, types []ContainerType, sizes []ContainerSize) error {
	return l.store.WithTx(ctx, func(s Store) error {
		for _, t := range types {
			if t.ID <= 0 || t.Name == "" {
				return invalid("containerType", "id and name are required")
			}
			if err := s.SaveContainerType(ctx, t); err != nil {
				return err
			}
		}
		for _, sz := range sizes {
			if sz.ID <= 0 || sz.Size == "" {
				return invalid("containerSize", "id and size are required")
			}
			if err := s.SaveContainerSize(ctx, sz); err != nil {
				return err
			}
		}
		return nil
	})
}

// ValidateRange checks that both ends are calendar dates and start <= end.
func ValidateRange(start, end string) error {
	if _, err := ParseDate(start); err != nil {
		return invalid("startDate", "%q is not a YYYY-MM-DD date", start)
	}
	if _, err := ParseDate(end); err != nil {
		return invalid("endDate", "%q is not a YYYY-MM-DD date", end)
	}
	if end < start {
		return invalid("endDate", "%s is before %s", end, start)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

type dimensionSet struct {
	types map[ContainerTypeID]bool
	sizes map[ContainerSizeID]bool
}

func (l *Ledger) loadDimensions(ctx context.Context, s Store) (dimensionSet, error) {
	types, err := s.ContainerTypes(ctx)
	if err != nil {
		return dimensionSet{}, fmt.Errorf("load container types: %w", err)
	}
	sizes, err := s.ContainerSizes(ctx)
	if err != nil {
		return dimensionSet{}, fmt.Errorf("load container sizes: %w", err)
	}

	d := dimensionSet{
		types: make(map[ContainerTypeID]bool, len(types)),
		sizes: make(map[ContainerSizeID]bool, len(sizes)),
	}
	for _, t := range types {
		d.types[t.ID] = t.IsActive
	}
	for _, sz := range sizes {
		d.sizes[sz.ID] = sz.IsActive
	}
	return d, nil
}

func (d dimensionSet) validate(in ReportInput) error {
	if _, err := ParseDate(in.Date); err != nil {
		return invalid("date", "%q is not a YYYY-MM-DD date", in.Date)
	}
	if !IsOperation(in.OperationName) {
		return invalid("operationName", "unknown operation %q", in.OperationName)
	}
	if active, ok := d.types[in.ContainerTypeID]; !ok {
		return invalid("containerTypeId", "unknown container type %d", in.ContainerTypeID)
	} else if !active {
		return invalid("containerTypeId", "container type %d is inactive", in.ContainerTypeID)
	}
	if active, ok := d.sizes[in.ContainerSizeID]; !ok {
		return invalid("containerSizeId", "unknown container size %d", in.ContainerSizeID)
	} else if !active {
		return invalid("containerSizeId", "container size %d is inactive", in.ContainerSizeID)
	}
	return validateQuantities(in.Quantities)
}

// validateQuantities rejects negative figures. Dispatched above
// TotalCompleted is accepted; InHand floors at zero.
func validateQuantities(q Quantities) error {
	switch {
	case q.TodayProduction < 0:
		return invalid("todayProduction", "must not be negative")
	case q.TotalCompleted < 0:
		return invalid("totalCompleted", "must not be negative")
	case q.Dispatched < 0:
		return invalid("dispatched", "must not be negative")
	}
	return nil
}

/*
store.go - Persistence interface for the production ledger

PURPOSE:
  Defines the boundary between ledger logic (validation, derived fields)
  and storage. Stores persist what they are given; they do not validate
  operations or dimensions and do not compute InHand.

KEY INTERFACES:
  Store:   Reports, dimensions, singletons, dispatch log and production entries
  TxStore: Store plus WithTx for all-or-nothing batches

NATURAL KEY CONTRACT:
  A store keeps at most one report per NaturalKey:
  - InsertReport fails with ErrDuplicateKey when the key exists
  - UpsertReport overwrites the quantities of the existing row and keeps
    its ID, or inserts a new row
  Writers to the same key are serialised; readers never observe a
  partially written row.

SINGLETONS:
  Master order and opening balance live at well-known IDs. InsertOpeningBalance
  fails with ErrAlreadyExists when one is present.

IMPLEMENTATIONS:
  - ledger/store/memory.go: In-memory for tests and development
  - store/sqlite/sqlite.go: SQLite with a unique index on the natural key
*/
package ledger

import "context"

// =============================================================================
// STORE
// =============================================================================

type Store interface {
	// InsertReport persists a new row and returns its ID.
	InsertReport(ctx context.Context, r DailyProductionReport) (ReportID, error)

	// UpsertReport writes the row by natural key and returns the row ID.
	UpsertReport(ctx context.Context, r DailyProductionReport) (ReportID, error)

	// UpdateReport replaces the quantity fields of the row with r.ID.
	// Returns *NotFoundError when the row does not exist.
	UpdateReport(ctx context.Context, r DailyProductionReport) error

	// GetReport returns the row or *NotFoundError.
	GetReport(ctx context.Context, id ReportID) (DailyProductionReport, error)

	// FindReport looks a row up by natural key. ok is false when absent.
	FindReport(ctx context.Context, key NaturalKey) (r DailyProductionReport, ok bool, err error)

	// ReportsInRange returns rows with start <= date <= end, ordered by
	// date then operation order then ID.
	ReportsInRange(ctx context.Context, start, end string, filter DimensionFilter) ([]DailyProductionReport, error)

	// ReportsByOperation returns all rows of one operation ordered by date.
	ReportsByOperation(ctx context.Context, operation string) ([]DailyProductionReport, error)

	ContainerTypes(ctx context.Context) ([]ContainerType, error)
	ContainerSizes(ctx context.Context) ([]ContainerSize, error)
	SaveContainerType(ctx context.Context, t ContainerType) error
	SaveContainerSize(ctx context.Context, s ContainerSize) error

	// GetMasterOrder returns the singleton or *NotFoundError.
	GetMasterOrder(ctx context.Context) (MasterOrderStatus, error)
	// SaveMasterOrder writes the whole singleton row in one statement.
	SaveMasterOrder(ctx context.Context, m MasterOrderStatus) error

	// GetOpeningBalance returns ErrNoOpeningBalance when absent.
	GetOpeningBalance(ctx context.Context) (HistoricalOpeningBalance, error)
	InsertOpeningBalance(ctx context.Context, b HistoricalOpeningBalance) error

	InsertDispatch(ctx context.Context, d DispatchEntry) (DispatchID, error)
	// DispatchesInRange returns entries with from <= DispatchDate <= to (ns).
	DispatchesInRange(ctx context.Context, from, to int64) ([]DispatchEntry, error)
	UpdateDispatchStatus(ctx context.Context, id DispatchID, status DeliveryStatus) error

	InsertProductionEntry(ctx context.Context, e ProductionEntry) (ProductionEntryID, error)
	// GetProductionEntry returns the entry or *NotFoundError.
	GetProductionEntry(ctx context.Context, id ProductionEntryID) (ProductionEntry, error)
	// UpdateProductionEntry replaces status and timestamps of e.ID.
	UpdateProductionEntry(ctx context.Context, e ProductionEntry) error
	// ProductionEntries returns matching entries ordered by ID.
	ProductionEntries(ctx context.Context, filter ProductionEntryFilter) ([]ProductionEntry, error)
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// TxStore wraps Store with transaction support.
// If fn returns an error nothing written inside it is kept.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}

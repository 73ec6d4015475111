/*
Package ledger provides the production ledger engine.

PURPOSE:
  Records daily manufacturing production per operation, container type and
  container size, and keeps the two singleton aggregates (master order and
  historical opening balance) that dashboards reconcile against.

KEY CONCEPTS IN THIS FILE (types.go):
  - DailyProductionReport: one row per natural key (date, operation, type, size)
  - NaturalKey: the business identity of a report row
  - MasterOrderStatus: the single order target and its cumulative totals
  - HistoricalOpeningBalance: write-once pre-go-live baseline
  - DispatchEntry: individual shipments leaving the yard
  - ProductionEntry: shift-level batches moving through a status lifecycle

DESIGN PRINCIPLES:
  1. Derived fields are recomputed on write, never trusted from the caller
  2. Singletons are ordinary rows with a well-known ID
  3. Dates are ISO calendar strings (YYYY-MM-DD) so they sort lexically

SEE ALSO:
  - ledger.go: Write/read operations with validation
  - store.go: Persistence interface
  - dimensions.go: Canonical operations and dimension rows
*/
package ledger

import (
	"strings"
	"time"
)

// DateLayout is the only accepted calendar date format.
const DateLayout = "2006-01-02"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ReportID int64
type DispatchID int64
type ProductionEntryID int64
type ContainerTypeID int64
type ContainerSizeID int64

// Well-known IDs of the singleton records.
const (
	MasterOrderID    int64 = 1
	OpeningBalanceID int64 = 1
)

// =============================================================================
// DAILY PRODUCTION REPORT
// =============================================================================

// DailyProductionReport is one operation's production figures for a day,
// container type and container size.
//
// INVARIANT: InHand == max(0, TotalCompleted - Dispatched)
type DailyProductionReport struct {
	ID              ReportID
	Date            string
	OperationName   string
	ContainerTypeID ContainerTypeID
	ContainerSizeID ContainerSizeID
	TodayProduction int64
	TotalCompleted  int64
	Dispatched      int64
	InHand          int64
}

// Key returns the natural key of the report.
func (r DailyProductionReport) Key() NaturalKey {
	return NaturalKey{
		Date:            r.Date,
		OperationName:   r.OperationName,
		ContainerTypeID: r.ContainerTypeID,
		ContainerSizeID: r.ContainerSizeID,
	}
}

// NaturalKey uniquely identifies a report row.
type NaturalKey struct {
	Date            string
	OperationName   string
	ContainerTypeID ContainerTypeID
	ContainerSizeID ContainerSizeID
}

// Quantities are the caller-supplied figures of a report. InHand is accepted
// for wire compatibility and then discarded.
type Quantities struct {
	TodayProduction int64
	TotalCompleted  int64
	Dispatched      int64
	InHand          int64
}

// ComputeInHand derives units completed but not yet dispatched.
func ComputeInHand(totalCompleted, dispatched int64) int64 {
	if d := totalCompleted - dispatched; d > 0 {
		return d
	}
	return 0
}

// ReportInput is the argument set of create and upsert.
type ReportInput struct {
	Date            string
	OperationName   string
	ContainerTypeID ContainerTypeID
	ContainerSizeID ContainerSizeID
	Quantities
}

func (in ReportInput) key() NaturalKey {
	return NaturalKey{
		Date:            in.Date,
		OperationName:   in.OperationName,
		ContainerTypeID: in.ContainerTypeID,
		ContainerSizeID: in.ContainerSizeID,
	}
}

// toReport builds the row to persist with InHand recomputed.
func (in ReportInput) toReport() DailyProductionReport {
	return DailyProductionReport{
		Date:            in.Date,
		OperationName:   in.OperationName,
		ContainerTypeID: in.ContainerTypeID,
		ContainerSizeID: in.ContainerSizeID,
		TodayProduction: in.TodayProduction,
		TotalCompleted:  in.TotalCompleted,
		Dispatched:      in.Dispatched,
		InHand:          ComputeInHand(in.TotalCompleted, in.Dispatched),
	}
}

// BatchEntry is one operation of a batch submission. The date comes from
// the batch itself.
type BatchEntry struct {
	OperationName   string
	ContainerTypeID ContainerTypeID
	ContainerSizeID ContainerSizeID
	Quantities
}

// DimensionFilter narrows reads by container type and/or size. Nil fields
// match everything; both set are ANDed.
type DimensionFilter struct {
	ContainerTypeID *ContainerTypeID
	ContainerSizeID *ContainerSizeID
}

// Matches reports whether r satisfies the filter.
func (f DimensionFilter) Matches(r DailyProductionReport) bool {
	if f.ContainerTypeID != nil && *f.ContainerTypeID != r.ContainerTypeID {
		return false
	}
	if f.ContainerSizeID != nil && *f.ContainerSizeID != r.ContainerSizeID {
		return false
	}
	return true
}

// Apply returns the subset of reports matching the filter.
func (f DimensionFilter) Apply(reports []DailyProductionReport) []DailyProductionReport {
	if f.ContainerTypeID == nil && f.ContainerSizeID == nil {
		return reports
	}
	out := make([]DailyProductionReport, 0, len(reports))
	for _, r := range reports {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// =============================================================================
// MASTER ORDER
// =============================================================================

// MasterOrderStatus is the single order the factory is producing against.
// By convention its totals already include the historical opening balance.
type MasterOrderStatus struct {
	ID                 int64
	OrderName          string
	TotalOrderQuantity int64
	TotalManufactured  int64
	TotalDispatched    int64
}

// EnhancedMasterOrderStatus adds read-time derived metrics.
type EnhancedMasterOrderStatus struct {
	MasterOrderStatus
	RemainingToProduce   int64
	FinishedStock        int64
	CompletionPercentage float64
}

// =============================================================================
// HISTORICAL OPENING BALANCE
// =============================================================================

// EntryTypeHistorical is the entry type stamped on every opening balance.
const EntryTypeHistorical = "historical_opening_balance"

// HistoricalOpeningBalance captures what was manufactured and dispatched
// before the ledger went live. Immutable once created.
type HistoricalOpeningBalance struct {
	ID                       int64
	OpeningDate              string
	ManufacturingStartDate   string
	SystemGoLiveDate         string
	ManufacturedBeforeSystem int64
	DispatchedBeforeSystem   int64
	EntryType                string
	IsLocked                 bool
}

// OpeningBalanceInput is the argument set of CreateOpeningBalance.
type OpeningBalanceInput struct {
	OpeningDate              string
	ManufacturedBeforeSystem int64
	DispatchedBeforeSystem   int64
	ManufacturingStartDate   string
	SystemGoLiveDate         string
}

// =============================================================================
// DISPATCH LOG
// =============================================================================

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryInTransit DeliveryStatus = "in_transit"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryCancelled DeliveryStatus = "cancelled"
)

// ParseDeliveryStatus normalises a caller-supplied status.
func ParseDeliveryStatus(s string) (DeliveryStatus, bool) {
	switch st := DeliveryStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case DeliveryPending, DeliveryInTransit, DeliveryDelivered, DeliveryCancelled:
		return st, true
	}
	return "", false
}

// DispatchEntry records containers leaving for a destination. Timestamps
// are nanoseconds since the Unix epoch.
type DispatchEntry struct {
	ID              DispatchID
	ContainerTypeID ContainerTypeID
	Quantity        int64
	DispatchDate    int64
	Destination     string
	DeliveryStatus  DeliveryStatus
	CreatedAt       int64
}

// DispatchInput is the argument set of CreateDispatch.
type DispatchInput struct {
	ContainerTypeID ContainerTypeID
	Quantity        int64
	DispatchDate    int64
	Destination     string
	DeliveryStatus  string
}

// ParseDate validates a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// =============================================================================
// PRODUCTION ENTRIES
// =============================================================================

// ContainerStatus is where a shift's batch of containers stands.
type ContainerStatus string

const (
	StatusPendingOperations ContainerStatus = "pending_operations"
	StatusUnderTesting      ContainerStatus = "under_testing"
	StatusReadyForDispatch  ContainerStatus = "ready_for_dispatch"
)

// ContainerStatuses lists the lifecycle in order.
var ContainerStatuses = []ContainerStatus{StatusPendingOperations, StatusUnderTesting, StatusReadyForDispatch}

// ParseContainerStatus normalises a caller-supplied status.
func ParseContainerStatus(s string) (ContainerStatus, bool) {
	switch st := ContainerStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPendingOperations, StatusUnderTesting, StatusReadyForDispatch:
		return st, true
	}
	return "", false
}

// Shift identifies the crew that produced a batch.
type Shift struct {
	ID           int64
	Name         string
	ContainerQty int64
}

// ProductionEntry is a batch of containers logged by a shift. Timestamps
// are nanoseconds since the Unix epoch; StatusTime is the last status change.
type ProductionEntry struct {
	ID              ProductionEntryID
	ContainerTypeID ContainerTypeID
	Shift           Shift
	Status          ContainerStatus
	TotalQty        int64
	StatusTime      int64
	CreatedAt       int64
	ModifiedAt      int64
}

// ProductionEntryInput is the argument set of CreateProductionEntry. An
// empty Status starts the batch at pending_operations.
type ProductionEntryInput struct {
	ContainerTypeID ContainerTypeID
	Shift           Shift
	Status          string
	TotalQty        int64
}

// ProductionEntryFilter narrows entry reads. Nil fields match everything.
type ProductionEntryFilter struct {
	ContainerTypeID *ContainerTypeID
	Status          *ContainerStatus
}

// Matches reports whether e satisfies the filter.
func (f ProductionEntryFilter) Matches(e ProductionEntry) bool {
	if f.ContainerTypeID != nil && *f.ContainerTypeID != e.ContainerTypeID {
		return false
	}
	if f.Status != nil && *f.Status != e.Status {
		return false
	}
	return true
}

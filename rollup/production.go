package rollup

import (
	"context"
	"sort"
	"time"

	"github.com/warp/production-ledger/ledger"
)

// firstDate bounds workload scans from below; reports carry no earlier date.
const firstDate = "0001-01-01"

// =============================================================================
// CONTAINER STATUS
// =============================================================================

// StatusCount is the share of production entries of one container type
// sitting in one status.
type StatusCount struct {
	ContainerTypeID ledger.ContainerTypeID
	Status          ledger.ContainerStatus
	Entries         int
	Quantity        int64
}

// ContainerStatuses counts every production entry by (type, status). Only
// pairs with at least one entry are returned, by type then lifecycle order.
func (e *Engine) ContainerStatuses(ctx context.Context) ([]StatusCount, error) {
	entries, err := e.src.ProductionEntries(ctx, ledger.ProductionEntryFilter{})
	if err != nil {
		return nil, err
	}
	return groupByStatus(entries), nil
}

// DailyProductionByStatus is ContainerStatuses narrowed to entries created
// on one UTC calendar day.
func (e *Engine) DailyProductionByStatus(ctx context.Context, date string) ([]StatusCount, error) {
	day, err := ledger.ParseDate(date)
	if err != nil {
		return nil, &ledger.ValidationError{Field: "date", Message: "not a YYYY-MM-DD date"}
	}
	from := day.UnixNano()
	to := day.Add(24 * time.Hour).UnixNano()

	entries, err := e.src.ProductionEntries(ctx, ledger.ProductionEntryFilter{})
	if err != nil {
		return nil, err
	}
	created := entries[:0]
	for _, en := range entries {
		if from <= en.CreatedAt && en.CreatedAt < to {
			created = append(created, en)
		}
	}
	return groupByStatus(created), nil
}

func groupByStatus(entries []ledger.ProductionEntry) []StatusCount {
	type pair struct {
		typeID ledger.ContainerTypeID
		status ledger.ContainerStatus
	}
	byPair := make(map[pair]*StatusCount)
	for _, en := range entries {
		k := pair{en.ContainerTypeID, en.Status}
		c, ok := byPair[k]
		if !ok {
			c = &StatusCount{ContainerTypeID: en.ContainerTypeID, Status: en.Status}
			byPair[k] = c
		}
		c.Entries++
		c.Quantity += en.TotalQty
	}

	out := make([]StatusCount, 0, len(byPair))
	for _, c := range byPair {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ContainerTypeID != out[j].ContainerTypeID {
			return out[i].ContainerTypeID < out[j].ContainerTypeID
		}
		return statusRank(out[i].Status) < statusRank(out[j].Status)
	})
	return out
}

func statusRank(s ledger.ContainerStatus) int {
	for i, st := range ledger.ContainerStatuses {
		if st == s {
			return i
		}
	}
	return len(ledger.ContainerStatuses)
}

// =============================================================================
// OPERATION WORKLOAD
// =============================================================================

// OperationStatus is the work waiting at one operation: the in-hand count
// of its latest report on or before the as-of date.
type OperationStatus struct {
	Operation    string
	PendingCount int64
	LatestDate   string
}

// OperationWorkload returns one row per canonical operation, in order. An
// operation with no reports yet has zero pending and no LatestDate.
func (e *Engine) OperationWorkload(ctx context.Context, asOf string, filter ledger.DimensionFilter) ([]OperationStatus, error) {
	values, err := e.OperationComparison(ctx, Range{Start: firstDate, End: asOf}, filter, MetricInHand)
	if err != nil {
		return nil, err
	}

	out := make([]OperationStatus, len(values))
	for i, v := range values {
		out[i] = OperationStatus{Operation: v.Operation, PendingCount: v.Value, LatestDate: v.LatestDate}
	}
	return out, nil
}

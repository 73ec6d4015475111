package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/production-ledger/ledger"
)

func row(date, op string) ledger.DailyProductionReport {
	return ledger.DailyProductionReport{Date: date, OperationName: op, ContainerTypeID: 1, ContainerSizeID: 1}
}

func TestTxMemory_RollbackRestoresSnapshot(t *testing.T) {
	// GIVEN: One stored report and a dispatch
	// WHEN: A transaction upserts, inserts and then fails
	// THEN: State and ID counters are exactly as before

	ctx := context.Background()
	m := NewTxMemory()

	id, err := m.InsertReport(ctx, row("2026-03-01", "Boxing"))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = m.WithTx(ctx, func(s ledger.Store) error {
		r := row("2026-03-01", "Boxing")
		r.TotalCompleted = 99
		if _, err := s.UpsertReport(ctx, r); err != nil {
			return err
		}
		if _, err := s.InsertReport(ctx, row("2026-03-01", "Roof")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	r, err := m.GetReport(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, r.TotalCompleted)

	next, err := m.InsertReport(ctx, row("2026-03-02", "Boxing"))
	require.NoError(t, err)
	assert.Equal(t, id+1, next, "rolled back inserts must not consume ids")
}

func TestMemory_InsertDuplicateKey(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.InsertReport(ctx, row("2026-03-01", "Boxing"))
	require.NoError(t, err)
	_, err = m.InsertReport(ctx, row("2026-03-01", "Boxing"))
	assert.ErrorIs(t, err, ledger.ErrDuplicateKey)

	_, ok, err := m.FindReport(ctx, row("2026-03-01", "Boxing").Key())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemory_SaveMasterOrderForcesSingletonID(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.SaveMasterOrder(ctx, ledger.MasterOrderStatus{ID: 42, OrderName: "A"}))
	mo, err := m.GetMasterOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, ledger.MasterOrderID, mo.ID)
}

func TestMemory_ResetKeepsReferenceRows(t *testing.T) {
	ctx := context.Background()
	m := NewTxMemory()

	// GIVEN: Dimensions, singletons and some production data
	require.NoError(t, m.SaveContainerType(ctx, ledger.ContainerType{ID: 1, Name: "Full Container", IsActive: true}))
	require.NoError(t, m.SaveMasterOrder(ctx, ledger.MasterOrderStatus{OrderName: "Order", TotalOrderQuantity: 10}))
	require.NoError(t, m.InsertOpeningBalance(ctx, ledger.HistoricalOpeningBalance{OpeningDate: "2025-01-01", ManufacturedBeforeSystem: 9999}))
	_, err := m.InsertReport(ctx, row("2026-03-01", "Boxing"))
	require.NoError(t, err)
	_, err = m.InsertDispatch(ctx, ledger.DispatchEntry{ContainerTypeID: 1, Quantity: 3, DispatchDate: 10, Destination: "Port"})
	require.NoError(t, err)
	_, err = m.InsertProductionEntry(ctx, ledger.ProductionEntry{ContainerTypeID: 1, Status: ledger.StatusUnderTesting, TotalQty: 5})
	require.NoError(t, err)

	// WHEN: The store is reset
	require.NoError(t, m.Reset(ctx))

	// THEN: Production data is gone
	reports, err := m.ReportsInRange(ctx, "2026-01-01", "2026-12-31", ledger.DimensionFilter{})
	require.NoError(t, err)
	assert.Empty(t, reports)
	entries, err := m.ProductionEntries(ctx, ledger.ProductionEntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)

	// AND: Dimensions and singletons survive
	types, err := m.ContainerTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 1)
	mo, err := m.GetMasterOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), mo.TotalOrderQuantity)
	ob, err := m.GetOpeningBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(9999), ob.ManufacturedBeforeSystem)

	// AND: Ids keep counting
	id, err := m.InsertReport(ctx, row("2026-03-02", "Boxing"))
	require.NoError(t, err)
	assert.Equal(t, ledger.ReportID(2), id)
	did, err := m.InsertDispatch(ctx, ledger.DispatchEntry{ContainerTypeID: 1, Quantity: 1, DispatchDate: 11, Destination: "Port"})
	require.NoError(t, err)
	assert.Equal(t, ledger.DispatchID(2), did)
	eid, err := m.InsertProductionEntry(ctx, ledger.ProductionEntry{ContainerTypeID: 1, Status: ledger.StatusPendingOperations, TotalQty: 2})
	require.NoError(t, err)
	assert.Equal(t, ledger.ProductionEntryID(2), eid)
}

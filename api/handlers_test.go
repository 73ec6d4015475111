/*
handlers_test.go - HTTP tests for API handlers

Tests run the full router against an in-memory ledger:
- Report writes: InHand recomputation, upsert identity, strict JSON
- Admin capability: 401 / 403 on mutations
- Batch atomicity over HTTP
- Point update guard, reads by operation name containing "/"
- Master order, opening balance and dispatch log endpoints
- Production entries and the admin named in mutation logs
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/production-ledger/auth"
	"github.com/warp/production-ledger/factory"
	"github.com/warp/production-ledger/ledger"
	"github.com/warp/production-ledger/ledger/store"
	"github.com/warp/production-ledger/report"
	"github.com/warp/production-ledger/rollup"
)

const testSecret = "test-secret"

var fixedNow = time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

// =============================================================================
// TEST HELPERS
// =============================================================================

type testAPI struct {
	router http.Handler
	ledger *ledger.Ledger
	admin  string
	viewer string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	return buildTestAPI(t, io.Discard, true)
}

// buildTestAPI writes handler logs as JSON to logs. demo mounts the demo
// loader.
func buildTestAPI(t *testing.T, logs io.Writer, demo bool) *testAPI {
	t.Helper()

	mem := store.NewTxMemory()
	l := ledger.New(mem).WithClock(func() time.Time { return fixedNow })
	require.NoError(t, factory.NewDimensionFactory().Apply(context.Background(), l, factory.DefaultSeed()))

	engine := rollup.New(l, 100)
	log := slog.New(slog.NewJSONHandler(logs, nil))

	h := NewHandler(log, l, engine, report.NewExcelGenerator(l, engine), mem)
	h.now = func() time.Time { return fixedNow }

	admin, err := auth.GenerateToken(testSecret, "supervisor", auth.RoleAdmin, time.Hour)
	require.NoError(t, err)
	viewer, err := auth.GenerateToken(testSecret, "floor", auth.RoleViewer, time.Hour)
	require.NoError(t, err)

	return &testAPI{
		router: NewRouter(h, testSecret, nil, demo),
		ledger: l,
		admin:  admin,
		viewer: viewer,
	}
}

func (a *testAPI) do(t *testing.T, method, target string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func boxing(total, dispatched int64) ReportRequest {
	return ReportRequest{
		Date:            "2026-03-02",
		OperationName:   "Boxing",
		ContainerTypeID: 1,
		ContainerSizeID: 1,
		TodayProduction: 5,
		TotalCompleted:  total,
		Dispatched:      dispatched,
	}
}

// =============================================================================
// REPORT TESTS
// =============================================================================

func TestSubmitReport_RecomputesInHand(t *testing.T) {
	a := newTestAPI(t)

	// GIVEN: A submission claiming InHand 999
	req := boxing(100, 80)
	req.InHand = 999

	// WHEN: Submitting it
	rec := a.do(t, http.MethodPut, "/api/reports", req, a.admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decodeBody[CreatedResponse](t, rec)

	// THEN: The stored InHand is derived
	rec = a.do(t, http.MethodGet, fmt.Sprintf("/api/reports/%d", first.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(20), decodeBody[ReportDTO](t, rec).InHand)

	// WHEN: Resubmitting the same key with new figures
	rec = a.do(t, http.MethodPut, "/api/reports", boxing(100, 70), a.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeBody[CreatedResponse](t, rec)

	// THEN: Same row, updated InHand
	assert.Equal(t, first.ID, second.ID)
	rec = a.do(t, http.MethodGet, "/api/reports?date=2026-03-02", nil, "")
	reports := decodeBody[[]ReportDTO](t, rec)
	require.Len(t, reports, 1)
	assert.Equal(t, int64(30), reports[0].InHand)
}

func TestCreateReport_ExistingKeyIsBadRequest(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/reports", boxing(10, 0), a.admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/api/reports", boxing(12, 0), a.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[ErrorResponse](t, rec).Details, "already exists")
}

func TestSubmitReport_Rejections(t *testing.T) {
	a := newTestAPI(t)

	tests := []struct {
		name string
		body any
	}{
		{"unknown field", `{"date":"2026-03-02","operationName":"Boxing","containerTypeId":1,"containerSizeId":1,"despatched":3}`},
		{"malformed json", `{"date":`},
		{"unknown operation", ReportRequest{Date: "2026-03-02", OperationName: "boxing", ContainerTypeID: 1, ContainerSizeID: 1}},
		{"bad date", ReportRequest{Date: "2026-02-30", OperationName: "Boxing", ContainerTypeID: 1, ContainerSizeID: 1}},
		{"inactive dimension", ReportRequest{Date: "2026-03-02", OperationName: "Boxing", ContainerTypeID: 9, ContainerSizeID: 1}},
		{"negative quantity", ReportRequest{Date: "2026-03-02", OperationName: "Boxing", ContainerTypeID: 1, ContainerSizeID: 1, TotalCompleted: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, http.MethodPut, "/api/reports", tt.body, a.admin)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeBody[ErrorResponse](t, rec).Error)
		})
	}
}

func TestMutations_RequireAdmin(t *testing.T) {
	a := newTestAPI(t)

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized},
		{"viewer", a.viewer, http.StatusForbidden},
		{"admin", a.admin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, http.MethodPut, "/api/reports", boxing(10, 0), tt.token)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	// Reads stay public
	rec := a.do(t, http.MethodGet, "/api/operations", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]string](t, rec), 17)
}

func TestBatchSubmit_AllOrNothing(t *testing.T) {
	a := newTestAPI(t)

	// GIVEN: All 17 operations with entry #10 naming an unknown operation
	batch := BatchRequest{Date: "2026-03-03"}
	for i, name := range ledger.Operations {
		batch.Operations = append(batch.Operations, BatchEntryRequest{
			OperationName:   name,
			ContainerTypeID: 1,
			ContainerSizeID: 1,
			TodayProduction: int64(i + 1),
			TotalCompleted:  int64(10 * (i + 1)),
		})
	}
	bad := batch
	bad.Operations = append([]BatchEntryRequest(nil), batch.Operations...)
	bad.Operations[10].OperationName = "Painting"

	// WHEN: Submitting the bad batch
	rec := a.do(t, http.MethodPost, "/api/reports/batch", bad, a.admin)

	// THEN: Rejected and nothing written
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[ErrorResponse](t, rec).Details, "batch entry 10")
	rec = a.do(t, http.MethodGet, "/api/reports?date=2026-03-03", nil, "")
	assert.Empty(t, decodeBody[[]ReportDTO](t, rec))

	// WHEN: Submitting the corrected batch
	rec = a.do(t, http.MethodPost, "/api/reports/batch", batch, a.admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, BatchResponse{Date: "2026-03-03", Committed: 17}, decodeBody[BatchResponse](t, rec))

	// THEN: 17 rows in canonical order
	rec = a.do(t, http.MethodGet, "/api/reports?date=2026-03-03", nil, "")
	reports := decodeBody[[]ReportDTO](t, rec)
	require.Len(t, reports, 17)
	for i, r := range reports {
		assert.Equal(t, ledger.Operations[i], r.OperationName)
	}
}

func TestUpdateReport_GuardAndRecompute(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/reports", boxing(10, 0), a.admin)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[CreatedResponse](t, rec).ID
	path := fmt.Sprintf("/api/reports/%d", id)

	wrongType := int64(2)
	rightType := int64(1)

	tests := []struct {
		name   string
		path   string
		body   UpdateReportRequest
		status int
	}{
		{"unknown id", "/api/reports/999", UpdateReportRequest{TotalCompleted: 1}, http.StatusNotFound},
		{"non-numeric id", "/api/reports/abc", UpdateReportRequest{TotalCompleted: 1}, http.StatusBadRequest},
		{"filter mismatch", path, UpdateReportRequest{ContainerTypeID: &wrongType, TotalCompleted: 1}, http.StatusNotFound},
		{"negative", path, UpdateReportRequest{TotalCompleted: -5}, http.StatusBadRequest},
		{"match", path, UpdateReportRequest{ContainerTypeID: &rightType, TodayProduction: 3, TotalCompleted: 50, Dispatched: 45}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, http.MethodPut, tt.path, tt.body, a.admin)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	rec = a.do(t, http.MethodGet, path, nil, "")
	got := decodeBody[ReportDTO](t, rec)
	assert.Equal(t, int64(50), got.TotalCompleted)
	assert.Equal(t, int64(5), got.InHand)
}

func TestListReports_Queries(t *testing.T) {
	a := newTestAPI(t)

	for _, r := range []ReportRequest{
		{Date: "2026-03-01", OperationName: "Welding/Finishing", ContainerTypeID: 1, ContainerSizeID: 1, TotalCompleted: 4},
		{Date: "2026-03-02", OperationName: "Welding/Finishing", ContainerTypeID: 2, ContainerSizeID: 1, TotalCompleted: 6},
		{Date: "2026-03-02", OperationName: "Boxing", ContainerTypeID: 1, ContainerSizeID: 2, TotalCompleted: 8},
	} {
		rec := a.do(t, http.MethodPut, "/api/reports", r, a.admin)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	tests := []struct {
		name   string
		query  string
		status int
		count  int
	}{
		{"by operation with slash", "operation=" + url.QueryEscape("Welding/Finishing"), http.StatusOK, 2},
		{"by operation and type", "operation=" + url.QueryEscape("Welding/Finishing") + "&containerTypeId=2", http.StatusOK, 1},
		{"by date", "date=2026-03-02", http.StatusOK, 2},
		{"range", "startDate=2026-03-01&endDate=2026-03-02", http.StatusOK, 3},
		{"range by size", "startDate=2026-03-01&endDate=2026-03-02&containerSizeId=2", http.StatusOK, 1},
		{"inverted range", "startDate=2026-03-02&endDate=2026-03-01", http.StatusBadRequest, 0},
		{"missing range", "", http.StatusBadRequest, 0},
		{"bad filter", "date=2026-03-02&containerTypeId=x", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, http.MethodGet, "/api/reports?"+tt.query, nil, "")
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status == http.StatusOK {
				assert.Len(t, decodeBody[[]ReportDTO](t, rec), tt.count)
			}
		})
	}
}

func TestReferenceData(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/container-types", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	types := decodeBody[[]ContainerTypeDTO](t, rec)
	require.Len(t, types, 3)
	assert.Equal(t, "Full Container", types[0].Name)

	rec = a.do(t, http.MethodGet, "/api/container-sizes", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	sizes := decodeBody[[]ContainerSizeDTO](t, rec)
	require.Len(t, sizes, 3)
	assert.True(t, sizes[2].IsHighCube)
}

// =============================================================================
// MASTER ORDER & OPENING BALANCE TESTS
// =============================================================================

func TestMasterOrder_Endpoints(t *testing.T) {
	a := newTestAPI(t)

	// GIVEN: No master order yet
	rec := a.do(t, http.MethodGet, "/api/master-order", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, a.ledger.InitMasterOrder(context.Background(), "Order 2026", 1000))

	// WHEN: Replacing both totals
	rec = a.do(t, http.MethodPut, "/api/master-order", UpdateMasterOrderRequest{TotalManufactured: 344, TotalDispatched: 300}, a.admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: Derived metrics come back with the write
	got := decodeBody[EnhancedMasterOrderDTO](t, rec)
	assert.Equal(t, int64(656), got.RemainingToProduce)
	assert.Equal(t, int64(44), got.FinishedStock)
	assert.Equal(t, 34.4, got.CompletionPercentage)
	assert.Equal(t, "Order 2026", got.OrderName)

	rec = a.do(t, http.MethodGet, "/api/master-order/enhanced", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, got, decodeBody[EnhancedMasterOrderDTO](t, rec))

	rec = a.do(t, http.MethodPut, "/api/master-order", UpdateMasterOrderRequest{TotalManufactured: -1}, a.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOpeningBalance_WriteOnce(t *testing.T) {
	a := newTestAPI(t)

	// GIVEN: No opening balance is distinct from a zero one
	rec := a.do(t, http.MethodGet, "/api/opening-balance", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := CreateOpeningBalanceRequest{
		OpeningDate:              "2026-02-28",
		ManufacturedBeforeSystem: 500,
		DispatchedBeforeSystem:   400,
		ManufacturingStartDate:   "2025-01-01",
		SystemGoLiveDate:         "2026-03-01",
	}

	// WHEN: Creating it
	rec = a.do(t, http.MethodPost, "/api/opening-balance", body, a.admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[OpeningBalanceDTO](t, rec)
	assert.True(t, created.IsLocked)
	assert.Equal(t, ledger.EntryTypeHistorical, created.EntryType)

	// THEN: A second create conflicts and the first survives
	body.ManufacturedBeforeSystem = 1
	rec = a.do(t, http.MethodPost, "/api/opening-balance", body, a.admin)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/opening-balance", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(500), decodeBody[OpeningBalanceDTO](t, rec).ManufacturedBeforeSystem)
}

// =============================================================================
// DISPATCH TESTS
// =============================================================================

func TestDispatch_Lifecycle(t *testing.T) {
	a := newTestAPI(t)
	at := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC).UnixNano()
	window := fmt.Sprintf("from=%d&to=%d", at-int64(time.Hour), at+int64(time.Hour))

	rec := a.do(t, http.MethodPost, "/api/dispatches", CreateDispatchRequest{
		ContainerType: 1, Quantity: 6, DispatchDate: at, Destination: "Chattogram Port",
	}, a.admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decodeBody[CreatedResponse](t, rec).ID

	rec = a.do(t, http.MethodGet, "/api/dispatches?"+window, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decodeBody[[]DispatchDTO](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, "pending", entries[0].DeliveryStatus)

	rec = a.do(t, http.MethodGet, "/api/rollups/dispatch-totals?"+window, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []DispatchTotalDTO{{ContainerTypeID: 1, Quantity: 6, Entries: 1}}, decodeBody[[]DispatchTotalDTO](t, rec))

	// WHEN: Cancelling the dispatch
	rec = a.do(t, http.MethodPut, fmt.Sprintf("/api/dispatches/%d/status", id), UpdateDispatchStatusRequest{DeliveryStatus: "cancelled"}, a.admin)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	// THEN: It no longer counts
	rec = a.do(t, http.MethodGet, "/api/rollups/dispatch-totals?"+window, nil, "")
	assert.Empty(t, decodeBody[[]DispatchTotalDTO](t, rec))

	rec = a.do(t, http.MethodPut, fmt.Sprintf("/api/dispatches/%d/status", id), UpdateDispatchStatusRequest{DeliveryStatus: "lost"}, a.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(t, http.MethodPut, "/api/dispatches/77/status", UpdateDispatchStatusRequest{DeliveryStatus: "delivered"}, a.admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = a.do(t, http.MethodGet, "/api/dispatches", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// SEED TESTS
// =============================================================================

func TestSeed_AppliesDocument(t *testing.T) {
	a := newTestAPI(t)

	doc := `{
		"container_types": [{"id": 4, "name": "Reefer"}],
		"container_sizes": [{"id": 4, "size": "45ft High Cube", "is_high_cube": true, "length_ft": 45, "width_ft": 8, "height_ft": 9.5}],
		"master_order": {"name": "Seeded Order", "total_order_quantity": 750}
	}`

	rec := a.do(t, http.MethodPost, "/api/admin/seed", doc, a.admin)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/api/container-types", nil, "")
	assert.Len(t, decodeBody[[]ContainerTypeDTO](t, rec), 4)

	rec = a.do(t, http.MethodGet, "/api/master-order", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(750), decodeBody[MasterOrderDTO](t, rec).TotalOrderQuantity)

	rec = a.do(t, http.MethodPost, "/api/admin/seed", `{"container_typos": []}`, a.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// PRODUCTION ENTRY TESTS
// =============================================================================

func TestProductionEntries_Lifecycle(t *testing.T) {
	a := newTestAPI(t)

	// GIVEN: A night shift batch logged without a status
	rec := a.do(t, http.MethodPost, "/api/production-entries", CreateProductionEntryRequest{
		ContainerType: 1,
		ShiftDetail:   ShiftDTO{ShiftID: 3, Name: "Night", ContainerQty: 12},
		TotalQty:      12,
	}, a.admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decodeBody[CreatedResponse](t, rec).ID

	rec = a.do(t, http.MethodGet, "/api/production-entries?status=pending_operations", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	entries := decodeBody[[]ProductionEntryDTO](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, "Night", entries[0].ShiftDetail.Name)
	assert.Equal(t, fixedNow.UnixNano(), entries[0].StatusTime)

	// WHEN: It passes to testing
	rec = a.do(t, http.MethodPut, fmt.Sprintf("/api/production-entries/%d/status", id),
		UpdateProductionStatusRequest{Status: "under_testing"}, a.admin)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	// THEN: Status reads and rollups follow it
	rec = a.do(t, http.MethodGet, "/api/production-entries?containerTypeId=1&status=under_testing", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]ProductionEntryDTO](t, rec), 1)

	rec = a.do(t, http.MethodGet, "/api/rollups/container-statuses", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []StatusCountDTO{{ContainerTypeID: 1, Status: "under_testing", Entries: 1, Quantity: 12}},
		decodeBody[[]StatusCountDTO](t, rec))

	// The batch was logged today, so the default date picks it up
	rec = a.do(t, http.MethodGet, "/api/rollups/daily-by-status", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]StatusCountDTO](t, rec), 1)
	rec = a.do(t, http.MethodGet, "/api/rollups/daily-by-status?date=2026-03-14", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]StatusCountDTO](t, rec))
}

func TestProductionEntries_Rejections(t *testing.T) {
	a := newTestAPI(t)
	valid := CreateProductionEntryRequest{ContainerType: 1, ShiftDetail: ShiftDTO{ShiftID: 1, Name: "Morning"}, TotalQty: 4}

	rec := a.do(t, http.MethodPost, "/api/production-entries", valid, a.viewer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	bad := valid
	bad.TotalQty = 0
	rec = a.do(t, http.MethodPost, "/api/production-entries", bad, a.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/production-entries", `{"containerType": 1, "shift": "A"}`, a.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/production-entries?status=shipped", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPut, "/api/production-entries/77/status",
		UpdateProductionStatusRequest{Status: "ready_for_dispatch"}, a.admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/rollups/daily-by-status?date=yesterday", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOperationWorkload_Endpoint(t *testing.T) {
	a := newTestAPI(t)

	// GIVEN: Boxing with 50 completed and 30 out, reported before today
	rec := a.do(t, http.MethodPut, "/api/reports", boxing(50, 30), a.admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// WHEN: Asking for the workload with no date
	rec = a.do(t, http.MethodGet, "/api/rollups/workload", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: Every operation has a row and Boxing holds its in-hand count
	rows := decodeBody[[]OperationStatusDTO](t, rec)
	require.Len(t, rows, len(ledger.Operations))
	assert.Equal(t, OperationStatusDTO{Operation: "Boxing", PendingCount: 20, LatestDate: "2026-03-02"}, rows[0])
	assert.Zero(t, rows[1].PendingCount)

	// The day before the report nothing is pending
	rec = a.do(t, http.MethodGet, "/api/rollups/workload?date=2026-03-01", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decodeBody[[]OperationStatusDTO](t, rec)[0].PendingCount)
}

// =============================================================================
// AUDIT LOG TESTS
// =============================================================================

func TestMutationLogs_NameTheAdmin(t *testing.T) {
	var logs bytes.Buffer
	a := buildTestAPI(t, &logs, true)

	rec := a.do(t, http.MethodPut, "/api/reports", boxing(10, 0), a.admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var entry struct {
		Msg string `json:"msg"`
		By  string `json:"by"`
	}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(logs.Bytes()), &entry), logs.String())
	assert.Equal(t, "report submitted", entry.Msg)
	assert.Equal(t, "supervisor", entry.By)
}

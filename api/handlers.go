/*
handlers.go - HTTP API handlers for the production ledger

PURPOSE:
  Exposes the ledger and its rollups via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Reference data:
    GET    /api/operations                 17 canonical operation names
    GET    /api/container-types            Container type dimension rows
    GET    /api/container-sizes            Container size dimension rows

  Reports:
    GET    /api/reports                    ?date= | ?startDate=&endDate= | ?operation=
                                           plus ?containerTypeId=&containerSizeId=
    GET    /api/reports/{id}               Point lookup
    POST   /api/reports                    Create (admin)
    PUT    /api/reports                    Submit or update by natural key (admin)
    POST   /api/reports/batch              All-or-nothing batch for one date (admin)
    PUT    /api/reports/{id}               Point update by id (admin)

  Master order / opening balance:
    GET    /api/master-order               Raw singleton
    GET    /api/master-order/enhanced      With derived metrics
    PUT    /api/master-order               Replace both totals (admin)
    GET    /api/opening-balance            404 when none recorded
    POST   /api/opening-balance            Write-once (admin)

  Dispatch log:
    GET    /api/dispatches                 ?from=&to= (ns)
    POST   /api/dispatches                 (admin)
    PUT    /api/dispatches/{id}/status     (admin)

  Production entries:
    GET    /api/production-entries         ?containerTypeId=&status=
    POST   /api/production-entries         Log a shift batch (admin)
    PUT    /api/production-entries/{id}/status  (admin)

  Rollups:
    GET    /api/rollups/monthly            ?year=&month=
    GET    /api/rollups/monthly-summary    ?year=&month=
    GET    /api/rollups/trend              range, filters, ?metric=&includeOpening=
    GET    /api/rollups/operations         ?date= or range, filters, ?metric=
    GET    /api/rollups/types              range, filters
    GET    /api/rollups/dispatch-totals    ?from=&to= (ns)
    GET    /api/rollups/container-statuses Entry counts per type and status
    GET    /api/rollups/daily-by-status    ?date= (default today)
    GET    /api/rollups/workload           ?date= (default today), filters
    GET    /api/dashboard                  range
    GET    /api/export                     range, filters -> xlsx

  Admin:
    POST   /api/admin/seed                 Apply a seed document
    POST   /api/admin/demo                 Load demo data (not mounted in prod)

ERROR HANDLING:
  Errors are returned as JSON {"error", "details"} with:
  - 400: Validation errors, malformed or unknown JSON fields
  - 401/403: Missing token / non-admin role
  - 404: Record not found, no opening balance
  - 409: Opening balance already exists
  - 500: Internal errors (details are logged, not returned)

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo data loader
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/warp/production-ledger/auth"
	"github.com/warp/production-ledger/factory"
	"github.com/warp/production-ledger/ledger"
	"github.com/warp/production-ledger/rollup"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// LedgerService is the ledger surface the handlers use.
type LedgerService interface {
	factory.Seeder

	CreateReport(ctx context.Context, in ledger.ReportInput) (ledger.ReportID, error)
	SubmitReport(ctx context.Context, in ledger.ReportInput) (ledger.ReportID, error)
	BatchSubmit(ctx context.Context, date string, entries []ledger.BatchEntry) error
	UpdateReportByID(ctx context.Context, id ledger.ReportID, filter ledger.DimensionFilter, q ledger.Quantities) error

	Report(ctx context.Context, id ledger.ReportID) (ledger.DailyProductionReport, error)
	ReportsByDate(ctx context.Context, date string, filter ledger.DimensionFilter) ([]ledger.DailyProductionReport, error)
	ReportsInRange(ctx context.Context, start, end string, filter ledger.DimensionFilter) ([]ledger.DailyProductionReport, error)
	ReportsByOperation(ctx context.Context, operation string) ([]ledger.DailyProductionReport, error)

	Operations() []string
	ContainerTypes(ctx context.Context) ([]ledger.ContainerType, error)
	ContainerSizes(ctx context.Context) ([]ledger.ContainerSize, error)

	MasterOrder(ctx context.Context) (ledger.MasterOrderStatus, error)
	EnhancedMasterOrder(ctx context.Context) (ledger.EnhancedMasterOrderStatus, error)
	UpdateMasterOrder(ctx context.Context, totalManufactured, totalDispatched int64) error

	OpeningBalance(ctx context.Context) (ledger.HistoricalOpeningBalance, error)

	CreateDispatch(ctx context.Context, in ledger.DispatchInput) (ledger.DispatchID, error)
	DispatchesInRange(ctx context.Context, from, to int64) ([]ledger.DispatchEntry, error)
	UpdateDispatchStatus(ctx context.Context, id ledger.DispatchID, status string) error

	CreateProductionEntry(ctx context.Context, in ledger.ProductionEntryInput) (ledger.ProductionEntryID, error)
	UpdateProductionStatus(ctx context.Context, id ledger.ProductionEntryID, status string) error
	ProductionEntries(ctx context.Context, filter ledger.ProductionEntryFilter) ([]ledger.ProductionEntry, error)
}

// RollupService computes read-time aggregates.
type RollupService interface {
	MonthlyTotals(ctx context.Context, year int, month time.Month) (rollup.MonthlyTotal, error)
	MonthlySummary(ctx context.Context, year int, month time.Month, today time.Time) (rollup.MonthlySummary, error)
	Trend(ctx context.Context, r rollup.Range, filter ledger.DimensionFilter, m rollup.Metric, includeOpening bool) ([]rollup.TrendPoint, error)
	OperationComparison(ctx context.Context, r rollup.Range, filter ledger.DimensionFilter, m rollup.Metric) ([]rollup.OperationValue, error)
	TypeSummary(ctx context.Context, r rollup.Range, filter ledger.DimensionFilter) ([]rollup.TypeTotals, error)
	DispatchTotals(ctx context.Context, from, to int64) ([]rollup.DispatchTotal, error)
	Dashboard(ctx context.Context, r rollup.Range, today time.Time) (rollup.Dashboard, error)
	ContainerStatuses(ctx context.Context) ([]rollup.StatusCount, error)
	DailyProductionByStatus(ctx context.Context, date string) ([]rollup.StatusCount, error)
	OperationWorkload(ctx context.Context, asOf string, filter ledger.DimensionFilter) ([]rollup.OperationStatus, error)
}

// Exporter renders a range of reports as a spreadsheet.
type Exporter interface {
	Generate(ctx context.Context, r rollup.Range, filter ledger.DimensionFilter) ([]byte, error)
}

// Resetter clears production data before a demo load.
type Resetter interface {
	Reset(ctx context.Context) error
}

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	log      *slog.Logger
	ledger   LedgerService
	rollups  RollupService
	exporter Exporter
	factory  *factory.DimensionFactory
	resetter Resetter
	now      func() time.Time
}

// NewHandler creates a handler. resetter may be nil, in which case the
// demo loader writes on top of existing data.
func NewHandler(log *slog.Logger, l LedgerService, rollups RollupService, exporter Exporter, resetter Resetter) *Handler {
	return &Handler{
		log:      log,
		ledger:   l,
		rollups:  rollups,
		exporter: exporter,
		factory:  factory.NewDimensionFactory(),
		resetter: resetter,
		now:      time.Now,
	}
}

// =============================================================================
// REFERENCE DATA HANDLERS
// =============================================================================

func (h *Handler) ListOperations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.ledger.Operations())
}

func (h *Handler) ListContainerTypes(w http.ResponseWriter, r *http.Request) {
	const op = "api.ListContainerTypes"

	types, err := h.ledger.ContainerTypes(r.Context())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	dtos := make([]ContainerTypeDTO, len(types))
	for i, t := range types {
		dtos[i] = toContainerTypeDTO(t)
	}
	writeJSON(w, r, http.StatusOK, dtos)
}

func (h *Handler) ListContainerSizes(w http.ResponseWriter, r *http.Request) {
	const op = "api.ListContainerSizes"

	sizes, err := h.ledger.ContainerSizes(r.Context())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	dtos := make([]ContainerSizeDTO, len(sizes))
	for i, s := range sizes {
		dtos[i] = toContainerSizeDTO(s)
	}
	writeJSON(w, r, http.StatusOK, dtos)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// ListReports dispatches on the query: operation, date, or a range.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	const op = "api.ListReports"

	q := r.URL.Query()
	filter, err := parseFilter(r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	var reports []ledger.DailyProductionReport
	switch {
	case q.Get("operation") != "":
		reports, err = h.ledger.ReportsByOperation(r.Context(), q.Get("operation"))
		reports = filter.Apply(reports)
	case q.Get("date") != "":
		reports, err = h.ledger.ReportsByDate(r.Context(), q.Get("date"), filter)
	default:
		var rng rollup.Range
		rng, err = parseRange(r)
		if err == nil {
			reports, err = h.ledger.ReportsInRange(r.Context(), rng.Start, rng.End, filter)
		}
	}
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toReportDTOs(reports))
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.GetReport"

	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	report, err := h.ledger.Report(r.Context(), ledger.ReportID(id))
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toReportDTO(report))
}

func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.CreateReport"

	var req ReportRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, op, err)
		return
	}

	id, err := h.ledger.CreateReport(r.Context(), req.toInput())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	h.log.Info("report created", slog.String("op", op), actor(r), slog.Int64("id", int64(id)),
		slog.String("date", req.Date), slog.String("operation", req.OperationName))
	writeJSON(w, r, http.StatusCreated, CreatedResponse{ID: int64(id)})
}

func (h *Handler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.SubmitReport"

	var req ReportRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, op, err)
		return
	}

	id, err := h.ledger.SubmitReport(r.Context(), req.toInput())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	h.log.Info("report submitted", slog.String("op", op), actor(r), slog.Int64("id", int64(id)))
	writeJSON(w, r, http.StatusOK, CreatedResponse{ID: int64(id)})
}

func (h *Handler) BatchSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.BatchSubmit"

	var req BatchRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, op, err)
		return
	}

	if err := h.ledger.BatchSubmit(r.Context(), req.Date, req.toEntries()); err != nil {
		h.fail(w, r, op, err)
		return
	}

	h.log.Info("batch committed", slog.String("op", op), actor(r), slog.String("date", req.Date),
		slog.Int("entries", len(req.Operations)))
	writeJSON(w, r, http.StatusOK, BatchResponse{Date: req.Date, Committed: len(req.Operations)})
}

func (h *Handler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.UpdateReport"

	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	var req UpdateReportRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, op, err)
		return
	}

	q := ledger.Quantities{
		TodayProduction: req.TodayProduction,
		TotalCompleted:  req.TotalCompleted,
		Dispatched:      req.Dispatched,
		InHand:          req.InHand,
	}
	if err := h.ledger.UpdateReportByID(r.Context(), ledger.ReportID(id), req.filter(), q); err != nil {
		h.fail(w, r, op, err)
		return
	}

	report, err := h.ledger.Report(r.Context(), ledger.ReportID(id))
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toReportDTO(report))
}

// =============================================================================
// MASTER ORDER & OPENING BALANCE HANDLERS
// =============================================================================

func (h *Handler) GetMasterOrder(w http.ResponseWriter, r *http.Request) {
	const op = "api.GetMasterOrder"

	m, err := h.ledger.MasterOrder(r.Context())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toMasterOrderDTO(m))
}

func (h *Handler) GetEnhancedMasterOrder(w http.ResponseWriter, r *http.Request) {
	const op = "api.GetEnhancedMasterOrder"

	m, err := h.ledger.EnhancedMasterOrder(r.Context())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toEnhancedDTO(m))
}

func (h *Handler) UpdateMasterOrder(w http.ResponseWriter, r *http.Request) {
	const op = "api.UpdateMasterOrder"

	var req UpdateMasterOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, op, err)
		return
	}

	if err := h.ledger.UpdateMasterOrder(r.Context(), req.TotalManufactured, req.TotalDispatched); err != nil {
		h.fail(w, r, op, err)
		return
	}

	m, err := h.ledger.EnhancedMasterOrder(r.Context())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	h.log.Info("master order updated", slog.String("op", op), actor(r),
		slog.Int64("manufactured", req.TotalManufactured), slog.Int64("dispatched", req.TotalDispatched))
	writeJSON(w, r, http.StatusOK, toEnhancedDTO(m))
}

func (h *Handler) GetOpeningBalance(w http.ResponseWriter, r *http.Request) {
	const op = "api.GetOpeningBalance"

	b, err := h.ledger.OpeningBalance(r.Context())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toOpeningBalanceDTO(b))
}

func (h *Handler) CreateOpeningBalance(w http.ResponseWriter, r *http.Request) {
	const op = "api.CreateOpeningBalance"

	var req CreateOpeningBalanceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, op, err)
		return
	}

	err := h.ledger.CreateOpeningBalance(r.Context(), ledger.OpeningBalanceInput{
		OpeningDate:              req.OpeningDate,
		ManufacturedBeforeSystem: req.ManufacturedBeforeSystem,
		DispatchedBeforeSystem:   req.DispatchedBeforeSystem,
		ManufacturingStartDate:   req.ManufacturingStartDate,
		SystemGoLiveDate:         req.SystemGoLiveDate,
	})
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	b, err := h.ledger.OpeningBalance(r.Context())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	h.log.Info("opening balance recorded", slog.String("op", op), actor(r), slog.String("openingDate", b.OpeningDate))
	writeJSON(w, r, http.StatusCreated, toOpeningBalanceDTO(b))
}

// =============================================================================
// DISPATCH HANDLERS
// =============================================================================

func (h *Handler) ListDispatches(w http.ResponseWriter, r *http.Request) {
	const op = "api.ListDispatches"

	from, to, err := parseNanoRange(r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	entries, err := h.ledger.DispatchesInRange(r.Context(), from, to)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	dtos := make([]DispatchDTO, len(entries))
	for i, d := range entries {
		dtos[i] = toDispatchDTO(d)
	}
	writeJSON(w, r, http.StatusOK, dtos)
}

func (h *Handler) CreateDispatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.CreateDispatch"

	var req CreateDispatchRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, op, err)
		return
	}

	id, err := h.ledger.CreateDispatch(r.Context(), ledger.DispatchInput{
		ContainerTypeID: ledger.ContainerTypeID(req.ContainerType),
		Quantity:        req.Quantity,
		DispatchDate:    req.DispatchDate,
		Destination:     req.Destination,
		DeliveryStatus:  req.DeliveryStatus,
	})
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, CreatedResponse{ID: int64(id)})
}

func (h *Handler) UpdateDispatchStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.UpdateDispatchStatus"

	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	var req UpdateDispatchStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, op, err)
		return
	}

	if err := h.ledger.UpdateDispatchStatus(r.Context(), ledger.DispatchID(id), req.DeliveryStatus); err != nil {
		h.fail(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PRODUCTION ENTRY HANDLERS
// =============================================================================

func (h *Handler) ListProductionEntries(w http.ResponseWriter, r *http.Request) {
	const op = "api.ListProductionEntries"

	var filter ledger.ProductionEntryFilter
	typeID, err := parseInt(r, "containerTypeId")
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	if typeID != nil {
		id := ledger.ContainerTypeID(*typeID)
		filter.ContainerTypeID = &id
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, ok := ledger.ParseContainerStatus(raw)
		if !ok {
			h.fail(w, r, op, &ledger.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", raw)})
			return
		}
		filter.Status = &st
	}

	entries, err := h.ledger.ProductionEntries(r.Context(), filter)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	dtos := make([]ProductionEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toProductionEntryDTO(e)
	}
	writeJSON(w, r, http.StatusOK, dtos)
}

func (h *Handler) CreateProductionEntry(w http.ResponseWriter, r *http.Request) {
	const op = "api.CreateProductionEntry"

	var req CreateProductionEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, op, err)
		return
	}

	id, err := h.ledger.CreateProductionEntry(r.Context(), req.toInput())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	h.log.Info("production entry logged", slog.String("op", op), actor(r),
		slog.Int64("id", int64(id)), slog.Int64("totalQty", req.TotalQty))
	writeJSON(w, r, http.StatusCreated, CreatedResponse{ID: int64(id)})
}

func (h *Handler) UpdateProductionStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.UpdateProductionStatus"

	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	var req UpdateProductionStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, op, err)
		return
	}

	if err := h.ledger.UpdateProductionStatus(r.Context(), ledger.ProductionEntryID(id), req.Status); err != nil {
		h.fail(w, r, op, err)
		return
	}

	h.log.Info("production status changed", slog.String("op", op), actor(r),
		slog.Int64("id", id), slog.String("status", req.Status))
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ROLLUP HANDLERS
// =============================================================================

func (h *Handler) MonthlyTotals(w http.ResponseWriter, r *http.Request) {
	const op = "api.MonthlyTotals"

	year, month, err := h.parseMonth(r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	t, err := h.rollups.MonthlyTotals(r.Context(), year, month)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toMonthlyTotalDTO(t))
}

func (h *Handler) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.MonthlySummary"

	year, month, err := h.parseMonth(r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	s, err := h.rollups.MonthlySummary(r.Context(), year, month, h.now())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toMonthlySummaryDTO(s))
}

func (h *Handler) Trend(w http.ResponseWriter, r *http.Request) {
	const op = "api.Trend"

	rng, filter, metric, err := parseView(r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	includeOpening, err := parseBool(r, "includeOpening")
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	points, err := h.rollups.Trend(r.Context(), rng, filter, metric, includeOpening)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	dtos := make([]TrendPointDTO, len(points))
	for i, p := range points {
		dtos[i] = TrendPointDTO{Label: p.Label, Date: p.Date, Value: p.Value, IsOpening: p.IsOpening}
	}
	writeJSON(w, r, http.StatusOK, dtos)
}

func (h *Handler) OperationComparison(w http.ResponseWriter, r *http.Request) {
	const op = "api.OperationComparison"

	rng, filter, metric, err := parseView(r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	values, err := h.rollups.OperationComparison(r.Context(), rng, filter, metric)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toOperationValueDTOs(values))
}

func (h *Handler) TypeSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.TypeSummary"

	rng, filter, _, err := parseView(r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	totals, err := h.rollups.TypeSummary(r.Context(), rng, filter)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toTypeTotalsDTOs(totals))
}

func (h *Handler) DispatchTotals(w http.ResponseWriter, r *http.Request) {
	const op = "api.DispatchTotals"

	from, to, err := parseNanoRange(r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	totals, err := h.rollups.DispatchTotals(r.Context(), from, to)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	dtos := make([]DispatchTotalDTO, len(totals))
	for i, t := range totals {
		dtos[i] = DispatchTotalDTO{ContainerTypeID: int64(t.ContainerTypeID), Quantity: t.Quantity, Entries: t.Entries}
	}
	writeJSON(w, r, http.StatusOK, dtos)
}

func (h *Handler) ContainerStatuses(w http.ResponseWriter, r *http.Request) {
	const op = "api.ContainerStatuses"

	counts, err := h.rollups.ContainerStatuses(r.Context())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toStatusCountDTOs(counts))
}

func (h *Handler) DailyProductionByStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.DailyProductionByStatus"

	counts, err := h.rollups.DailyProductionByStatus(r.Context(), h.dateOrToday(r))
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toStatusCountDTOs(counts))
}

func (h *Handler) OperationWorkload(w http.ResponseWriter, r *http.Request) {
	const op = "api.OperationWorkload"

	filter, err := parseFilter(r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	rows, err := h.rollups.OperationWorkload(r.Context(), h.dateOrToday(r), filter)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	dtos := make([]OperationStatusDTO, len(rows))
	for i, row := range rows {
		dtos[i] = OperationStatusDTO{Operation: row.Operation, PendingCount: row.PendingCount, LatestDate: row.LatestDate}
	}
	writeJSON(w, r, http.StatusOK, dtos)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.Dashboard"

	rng, err := parseRange(r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	d, err := h.rollups.Dashboard(r.Context(), rng, h.now())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toDashboardDTO(d))
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	const op = "api.Export"

	rng, filter, _, err := parseView(r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	data, err := h.exporter.Generate(r.Context(), rng, filter)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	fileName := fmt.Sprintf("production_%s_%s.xlsx", rng.Start, rng.End)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// Seed applies a JSON seed document. An empty body applies the defaults.
func (h *Handler) Seed(w http.ResponseWriter, r *http.Request) {
	const op = "api.Seed"

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.fail(w, r, op, badRequest("unreadable body"))
		return
	}

	seed := factory.DefaultSeed()
	if len(bytes.TrimSpace(body)) > 0 {
		seed, err = h.factory.ParseSeed(body)
		if err != nil {
			h.fail(w, r, op, &ledger.ValidationError{Field: "body", Message: err.Error()})
			return
		}
	}

	if err := h.factory.Apply(r.Context(), h.ledger, seed); err != nil {
		h.fail(w, r, op, err)
		return
	}

	h.log.Info("seed applied", slog.String("op", op), actor(r),
		slog.Int("types", len(seed.Types)), slog.Int("sizes", len(seed.Sizes)))
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, data)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, r, status, resp)
}

// fail maps err onto a status code and writes the error envelope. Server
// errors are logged with their cause and reported without details.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()),
		)
		writeError(w, r, status, "internal error", nil)
		return
	}

	h.log.Debug("request rejected", slog.String("op", op), slog.Int("status", status), slog.String("error", err.Error()))
	writeError(w, r, status, http.StatusText(status), err)
}

// actor names the admin behind a mutation.
func actor(r *http.Request) slog.Attr {
	if c, ok := auth.ClaimsFrom(r.Context()); ok {
		return slog.String("by", c.Subject)
	}
	return slog.String("by", "anonymous")
}

// writeAuthError is the auth.ErrorWriter of the admin group.
func (h *Handler) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	h.fail(w, r, "api.RequireAdmin", err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrValidation):
		return http.StatusBadRequest
	case ledger.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(format string, args ...any) error {
	return &ledger.ValidationError{Message: fmt.Sprintf(format, args...)}
}

// decodeJSON decodes the body strictly: unknown fields are rejected.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &ledger.ValidationError{Field: "id", Message: fmt.Sprintf("%q is not a valid id", raw)}
	}
	return id, nil
}

func parseInt(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, &ledger.ValidationError{Field: name, Message: fmt.Sprintf("%q is not an integer", raw)}
	}
	return &v, nil
}

func parseBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &ledger.ValidationError{Field: name, Message: fmt.Sprintf("%q is not a boolean", raw)}
	}
	return v, nil
}

func parseFilter(r *http.Request) (ledger.DimensionFilter, error) {
	var f ledger.DimensionFilter

	typeID, err := parseInt(r, "containerTypeId")
	if err != nil {
		return f, err
	}
	sizeID, err := parseInt(r, "containerSizeId")
	if err != nil {
		return f, err
	}

	if typeID != nil {
		id := ledger.ContainerTypeID(*typeID)
		f.ContainerTypeID = &id
	}
	if sizeID != nil {
		id := ledger.ContainerSizeID(*sizeID)
		f.ContainerSizeID = &id
	}
	return f, nil
}

// parseRange reads ?date= or ?startDate=&endDate=. Both ends are required
// for a range.
func parseRange(r *http.Request) (rollup.Range, error) {
	q := r.URL.Query()
	if d := q.Get("date"); d != "" {
		rng := rollup.Day(d)
		return rng, rng.Validate()
	}

	rng := rollup.Range{Start: q.Get("startDate"), End: q.Get("endDate")}
	if rng.Start == "" || rng.End == "" {
		return rng, badRequest("date or startDate and endDate are required")
	}
	return rng, rng.Validate()
}

func parseView(r *http.Request) (rollup.Range, ledger.DimensionFilter, rollup.Metric, error) {
	rng, err := parseRange(r)
	if err != nil {
		return rng, ledger.DimensionFilter{}, "", err
	}
	filter, err := parseFilter(r)
	if err != nil {
		return rng, filter, "", err
	}
	metric, err := rollup.ParseMetric(r.URL.Query().Get("metric"))
	return rng, filter, metric, err
}

func parseNanoRange(r *http.Request) (int64, int64, error) {
	from, err := parseInt(r, "from")
	if err != nil {
		return 0, 0, err
	}
	to, err := parseInt(r, "to")
	if err != nil {
		return 0, 0, err
	}
	if from == nil || to == nil {
		return 0, 0, badRequest("from and to are required")
	}
	return *from, *to, nil
}

// dateOrToday reads ?date=, defaulting to today's UTC date. The callee
// validates it.
func (h *Handler) dateOrToday(r *http.Request) string {
	if d := r.URL.Query().Get("date"); d != "" {
		return d
	}
	return h.now().UTC().Format(ledger.DateLayout)
}

// parseMonth reads ?year=&month=, defaulting to the current month.
func (h *Handler) parseMonth(r *http.Request) (int, time.Month, error) {
	now := h.now()
	year, month := now.Year(), now.Month()

	y, err := parseInt(r, "year")
	if err != nil {
		return 0, 0, err
	}
	m, err := parseInt(r, "month")
	if err != nil {
		return 0, 0, err
	}
	if y != nil {
		year = int(*y)
	}
	if m != nil {
		month = time.Month(*m)
	}
	return year, month, nil
}

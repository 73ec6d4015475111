/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the ledger's domain model from the wire contract used by the production
  dashboard.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Small response wrappers

WIRE FORMAT:
  Field names are camelCase. Dates are YYYY-MM-DD strings; dispatch
  timestamps are int64 nanoseconds since the Unix epoch. Request bodies are
  decoded strictly: unknown fields (e.g. the legacy "despatched") are
  rejected with 400.

  inHand is accepted on report requests for compatibility and ignored; the
  stored value is always recomputed.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/seed.go: SeedJSON for POST /api/admin/seed
*/
package api

import (
	"github.com/warp/production-ledger/ledger"
	"github.com/warp/production-ledger/rollup"
)

// =============================================================================
// REPORTS
// =============================================================================

// ReportDTO represents a daily production report in API responses.
type ReportDTO struct {
	ID              int64  `json:"id"`
	Date            string `json:"date"`
	OperationName   string `json:"operationName"`
	ContainerTypeID int64  `json:"containerTypeId"`
	ContainerSizeID int64  `json:"containerSizeId"`
	TodayProduction int64  `json:"todayProduction"`
	TotalCompleted  int64  `json:"totalCompleted"`
	Dispatched      int64  `json:"dispatched"`
	InHand          int64  `json:"inHand"`
}

// ReportRequest is the body of create and submit.
type ReportRequest struct {
	Date            string `json:"date"`
	OperationName   string `json:"operationName"`
	ContainerTypeID int64  `json:"containerTypeId"`
	ContainerSizeID int64  `json:"containerSizeId"`
	TodayProduction int64  `json:"todayProduction"`
	TotalCompleted  int64  `json:"totalCompleted"`
	Dispatched      int64  `json:"dispatched"`
	InHand          int64  `json:"inHand,omitempty"`
}

// BatchRequest submits many operations for one date.
type BatchRequest struct {
	Date       string              `json:"date"`
	Operations []BatchEntryRequest `json:"operations"`
}

type BatchEntryRequest struct {
	OperationName   string `json:"operationName"`
	ContainerTypeID int64  `json:"containerTypeId"`
	ContainerSizeID int64  `json:"containerSizeId"`
	TodayProduction int64  `json:"todayProduction"`
	TotalCompleted  int64  `json:"totalCompleted"`
	Dispatched      int64  `json:"dispatched"`
	InHand          int64  `json:"inHand,omitempty"`
}

// UpdateReportRequest is the body of the point update. The optional
// dimension ids must match the stored row.
type UpdateReportRequest struct {
	ContainerTypeID *int64 `json:"containerTypeId,omitempty"`
	ContainerSizeID *int64 `json:"containerSizeId,omitempty"`
	TodayProduction int64  `json:"todayProduction"`
	TotalCompleted  int64  `json:"totalCompleted"`
	Dispatched      int64  `json:"dispatched"`
	InHand          int64  `json:"inHand,omitempty"`
}

// BatchResponse acknowledges a committed batch.
type BatchResponse struct {
	Date      string `json:"date"`
	Committed int    `json:"committed"`
}

// CreatedResponse carries the id of a written record.
type CreatedResponse struct {
	ID int64 `json:"id"`
}

// =============================================================================
// DIMENSIONS
// =============================================================================

type ContainerTypeDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"containerTypeName"`
	Description string `json:"description"`
	IsActive    bool   `json:"isActive"`
}

type ContainerSizeDTO struct {
	ID         int64   `json:"id"`
	Size       string  `json:"containerSize"`
	IsHighCube bool    `json:"isHighCube"`
	LengthFt   int64   `json:"lengthFt"`
	HeightFt   float64 `json:"heightFt"`
	WidthFt    int64   `json:"widthFt"`
	IsActive   bool    `json:"isActive"`
}

// =============================================================================
// MASTER ORDER & OPENING BALANCE
// =============================================================================

type MasterOrderDTO struct {
	ID                 int64  `json:"id"`
	OrderName          string `json:"orderName"`
	TotalOrderQuantity int64  `json:"totalOrderQuantity"`
	TotalManufactured  int64  `json:"totalManufactured"`
	TotalDispatched    int64  `json:"totalDispatched"`
}

type EnhancedMasterOrderDTO struct {
	MasterOrderDTO
	RemainingToProduce   int64   `json:"remainingToProduce"`
	FinishedStock        int64   `json:"finishedStock"`
	CompletionPercentage float64 `json:"completionPercentage"`
}

type UpdateMasterOrderRequest struct {
	TotalManufactured int64 `json:"totalManufactured"`
	TotalDispatched   int64 `json:"totalDispatched"`
}

type OpeningBalanceDTO struct {
	ID                       int64  `json:"id"`
	OpeningDate              string `json:"openingDate"`
	ManufacturingStartDate   string `json:"manufacturingStartDate"`
	SystemGoLiveDate         string `json:"systemGoLiveDate"`
	ManufacturedBeforeSystem int64  `json:"manufacturedBeforeSystem"`
	DispatchedBeforeSystem   int64  `json:"dispatchedBeforeSystem"`
	EntryType                string `json:"entryType"`
	IsLocked                 bool   `json:"isLocked"`
}

type CreateOpeningBalanceRequest struct {
	OpeningDate              string `json:"openingDate"`
	ManufacturedBeforeSystem int64  `json:"manufacturedBeforeSystem"`
	DispatchedBeforeSystem   int64  `json:"dispatchedBeforeSystem"`
	ManufacturingStartDate   string `json:"manufacturingStartDate"`
	SystemGoLiveDate         string `json:"systemGoLiveDate"`
}

// =============================================================================
// DISPATCH LOG
// =============================================================================

type DispatchDTO struct {
	ID             int64  `json:"id"`
	ContainerType  int64  `json:"containerType"`
	Quantity       int64  `json:"quantity"`
	DispatchDate   int64  `json:"dispatchDate"`
	Destination    string `json:"destination"`
	DeliveryStatus string `json:"deliveryStatus"`
	CreatedAt      int64  `json:"createdAt"`
}

type CreateDispatchRequest struct {
	ContainerType  int64  `json:"containerType"`
	Quantity       int64  `json:"quantity"`
	DispatchDate   int64  `json:"dispatchDate"`
	Destination    string `json:"destination"`
	DeliveryStatus string `json:"deliveryStatus,omitempty"`
}

type UpdateDispatchStatusRequest struct {
	DeliveryStatus string `json:"deliveryStatus"`
}

// =============================================================================
// PRODUCTION ENTRIES
// =============================================================================

type ShiftDTO struct {
	ShiftID      int64  `json:"shiftId"`
	Name         string `json:"name"`
	ContainerQty int64  `json:"containerQty"`
}

type ProductionEntryDTO struct {
	ID            int64    `json:"id"`
	ContainerType int64    `json:"containerType"`
	ShiftDetail   ShiftDTO `json:"shiftDetail"`
	Status        string   `json:"status"`
	TotalQty      int64    `json:"totalQty"`
	StatusTime    int64    `json:"statusTime"`
	CreatedAt     int64    `json:"createdAt"`
	ModifiedAt    int64    `json:"modifiedAt"`
}

type CreateProductionEntryRequest struct {
	ContainerType int64    `json:"containerType"`
	ShiftDetail   ShiftDTO `json:"shiftDetail"`
	Status        string   `json:"status,omitempty"`
	TotalQty      int64    `json:"totalQty"`
}

type UpdateProductionStatusRequest struct {
	Status string `json:"status"`
}

// =============================================================================
// ROLLUPS
// =============================================================================

type MonthlyTotalDTO struct {
	Year            int   `json:"year"`
	Month           int   `json:"month"`
	TotalContainers int64 `json:"totalContainers"`
	Reports         int   `json:"reports"`
}

type MonthlySummaryDTO struct {
	MonthlyTotalDTO
	Target               int64   `json:"target"`
	RemainingToTarget    int64   `json:"remainingToTarget"`
	CompletionPercentage float64 `json:"completionPercentage"`
	DaysElapsed          int     `json:"daysElapsed"`
	DailyAverage         float64 `json:"dailyAverage"`
}

type TrendPointDTO struct {
	Label     string `json:"label"`
	Date      string `json:"date"`
	Value     int64  `json:"value"`
	IsOpening bool   `json:"isOpening"`
}

type OperationValueDTO struct {
	OperationName string `json:"operationName"`
	Value         int64  `json:"value"`
	Reports       int    `json:"reports"`
	LatestDate    string `json:"latestDate,omitempty"`
}

// TypeTotalsDTO mirrors the tuple of the original production summary:
// type id, today's production, total completed, dispatched, in hand.
type TypeTotalsDTO struct {
	ContainerTypeID int64 `json:"containerTypeId"`
	TodayProduction int64 `json:"todayProduction"`
	TotalCompleted  int64 `json:"totalCompleted"`
	Dispatched      int64 `json:"dispatched"`
	InHand          int64 `json:"inHand"`
	Count           int   `json:"count"`
}

type DispatchTotalDTO struct {
	ContainerTypeID int64 `json:"containerTypeId"`
	Quantity        int64 `json:"quantity"`
	Entries         int   `json:"entries"`
}

type StatusCountDTO struct {
	ContainerTypeID int64  `json:"containerTypeId"`
	Status          string `json:"status"`
	Entries         int    `json:"entries"`
	Quantity        int64  `json:"quantity"`
}

type OperationStatusDTO struct {
	Operation    string `json:"operation"`
	PendingCount int64  `json:"pendingCount"`
	LatestDate   string `json:"latestDate,omitempty"`
}

type DashboardDTO struct {
	MasterOrder    *EnhancedMasterOrderDTO `json:"masterOrder"`
	OpeningBalance *OpeningBalanceDTO      `json:"openingBalance"`
	Month          MonthlySummaryDTO       `json:"month"`
	Types          []TypeTotalsDTO         `json:"types"`
	Operations     []OperationValueDTO     `json:"operations"`
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// DemoRequest configures the demo loader. Omitted fields default to 14
// days ending today with reset on.
type DemoRequest struct {
	Days    int    `json:"days"`
	EndDate string `json:"endDate"`
	Reset   bool   `json:"reset"`
}

// DemoResponse summarises what the demo loader wrote.
type DemoResponse struct {
	Days       int `json:"days"`
	Reports    int `json:"reports"`
	Dispatches int `json:"dispatches"`
	Entries    int `json:"entries"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toReportDTO(r ledger.DailyProductionReport) ReportDTO {
	return ReportDTO{
		ID:              int64(r.ID),
		Date:            r.Date,
		OperationName:   r.OperationName,
		ContainerTypeID: int64(r.ContainerTypeID),
		ContainerSizeID: int64(r.ContainerSizeID),
		TodayProduction: r.TodayProduction,
		TotalCompleted:  r.TotalCompleted,
		Dispatched:      r.Dispatched,
		InHand:          r.InHand,
	}
}

func toReportDTOs(rs []ledger.DailyProductionReport) []ReportDTO {
	dtos := make([]ReportDTO, len(rs))
	for i, r := range rs {
		dtos[i] = toReportDTO(r)
	}
	return dtos
}

func (req ReportRequest) toInput() ledger.ReportInput {
	return ledger.ReportInput{
		Date:            req.Date,
		OperationName:   req.OperationName,
		ContainerTypeID: ledger.ContainerTypeID(req.ContainerTypeID),
		ContainerSizeID: ledger.ContainerSizeID(req.ContainerSizeID),
		Quantities: ledger.Quantities{
			TodayProduction: req.TodayProduction,
			TotalCompleted:  req.TotalCompleted,
			Dispatched:      req.Dispatched,
			InHand:          req.InHand,
		},
	}
}

func (req BatchRequest) toEntries() []ledger.BatchEntry {
	entries := make([]ledger.BatchEntry, len(req.Operations))
	for i, e := range req.Operations {
		entries[i] = ledger.BatchEntry{
			OperationName:   e.OperationName,
			ContainerTypeID: ledger.ContainerTypeID(e.ContainerTypeID),
			ContainerSizeID: ledger.ContainerSizeID(e.ContainerSizeID),
			Quantities: ledger.Quantities{
				TodayProduction: e.TodayProduction,
				TotalCompleted:  e.TotalCompleted,
				Dispatched:      e.Dispatched,
				InHand:          e.InHand,
			},
		}
	}
	return entries
}

func (req UpdateReportRequest) filter() ledger.DimensionFilter {
	var f ledger.DimensionFilter
	if req.ContainerTypeID != nil {
		id := ledger.ContainerTypeID(*req.ContainerTypeID)
		f.ContainerTypeID = &id
	}
	if req.ContainerSizeID != nil {
		id := ledger.ContainerSizeID(*req.ContainerSizeID)
		f.ContainerSizeID = &id
	}
	return f
}

func toContainerTypeDTO(t ledger.ContainerType) ContainerTypeDTO {
	return ContainerTypeDTO{ID: int64(t.ID), Name: t.Name, Description: t.Description, IsActive: t.IsActive}
}

func toContainerSizeDTO(s ledger.ContainerSize) ContainerSizeDTO {
	return ContainerSizeDTO{
		ID:         int64(s.ID),
		Size:       s.Size,
		IsHighCube: s.IsHighCube,
		LengthFt:   s.LengthFt,
		HeightFt:   s.HeightFt,
		WidthFt:    s.WidthFt,
		IsActive:   s.IsActive,
	}
}

func toMasterOrderDTO(m ledger.MasterOrderStatus) MasterOrderDTO {
	return MasterOrderDTO{
		ID:                 m.ID,
		OrderName:          m.OrderName,
		TotalOrderQuantity: m.TotalOrderQuantity,
		TotalManufactured:  m.TotalManufactured,
		TotalDispatched:    m.TotalDispatched,
	}
}

func toEnhancedDTO(e ledger.EnhancedMasterOrderStatus) EnhancedMasterOrderDTO {
	return EnhancedMasterOrderDTO{
		MasterOrderDTO:       toMasterOrderDTO(e.MasterOrderStatus),
		RemainingToProduce:   e.RemainingToProduce,
		FinishedStock:        e.FinishedStock,
		CompletionPercentage: e.CompletionPercentage,
	}
}

func toOpeningBalanceDTO(b ledger.HistoricalOpeningBalance) OpeningBalanceDTO {
	return OpeningBalanceDTO{
		ID:                       b.ID,
		OpeningDate:              b.OpeningDate,
		ManufacturingStartDate:   b.ManufacturingStartDate,
		SystemGoLiveDate:         b.SystemGoLiveDate,
		ManufacturedBeforeSystem: b.ManufacturedBeforeSystem,
		DispatchedBeforeSystem:   b.DispatchedBeforeSystem,
		EntryType:                b.EntryType,
		IsLocked:                 b.IsLocked,
	}
}

func toDispatchDTO(d ledger.DispatchEntry) DispatchDTO {
	return DispatchDTO{
		ID:             int64(d.ID),
		ContainerType:  int64(d.ContainerTypeID),
		Quantity:       d.Quantity,
		DispatchDate:   d.DispatchDate,
		Destination:    d.Destination,
		DeliveryStatus: string(d.DeliveryStatus),
		CreatedAt:      d.CreatedAt,
	}
}

func toProductionEntryDTO(e ledger.ProductionEntry) ProductionEntryDTO {
	return ProductionEntryDTO{
		ID:            int64(e.ID),
		ContainerType: int64(e.ContainerTypeID),
		ShiftDetail:   ShiftDTO{ShiftID: e.Shift.ID, Name: e.Shift.Name, ContainerQty: e.Shift.ContainerQty},
		Status:        string(e.Status),
		TotalQty:      e.TotalQty,
		StatusTime:    e.StatusTime,
		CreatedAt:     e.CreatedAt,
		ModifiedAt:    e.ModifiedAt,
	}
}

func (req CreateProductionEntryRequest) toInput() ledger.ProductionEntryInput {
	return ledger.ProductionEntryInput{
		ContainerTypeID: ledger.ContainerTypeID(req.ContainerType),
		Shift:           ledger.Shift{ID: req.ShiftDetail.ShiftID, Name: req.ShiftDetail.Name, ContainerQty: req.ShiftDetail.ContainerQty},
		Status:          req.Status,
		TotalQty:        req.TotalQty,
	}
}

func toStatusCountDTOs(counts []rollup.StatusCount) []StatusCountDTO {
	out := make([]StatusCountDTO, len(counts))
	for i, c := range counts {
		out[i] = StatusCountDTO{
			ContainerTypeID: int64(c.ContainerTypeID),
			Status:          string(c.Status),
			Entries:         c.Entries,
			Quantity:        c.Quantity,
		}
	}
	return out
}

func toMonthlyTotalDTO(t rollup.MonthlyTotal) MonthlyTotalDTO {
	return MonthlyTotalDTO{Year: t.Year, Month: int(t.Month), TotalContainers: t.TotalContainers, Reports: t.Reports}
}

func toMonthlySummaryDTO(s rollup.MonthlySummary) MonthlySummaryDTO {
	return MonthlySummaryDTO{
		MonthlyTotalDTO:      toMonthlyTotalDTO(s.MonthlyTotal),
		Target:               s.Target,
		RemainingToTarget:    s.RemainingToTarget,
		CompletionPercentage: s.CompletionPercentage,
		DaysElapsed:          s.DaysElapsed,
		DailyAverage:         s.DailyAverage,
	}
}

func toOperationValueDTOs(vs []rollup.OperationValue) []OperationValueDTO {
	dtos := make([]OperationValueDTO, len(vs))
	for i, v := range vs {
		dtos[i] = OperationValueDTO{OperationName: v.Operation, Value: v.Value, Reports: v.Reports, LatestDate: v.LatestDate}
	}
	return dtos
}

func toTypeTotalsDTOs(ts []rollup.TypeTotals) []TypeTotalsDTO {
	dtos := make([]TypeTotalsDTO, len(ts))
	for i, t := range ts {
		dtos[i] = TypeTotalsDTO{
			ContainerTypeID: int64(t.ContainerTypeID),
			TodayProduction: t.TodayProduction,
			TotalCompleted:  t.TotalCompleted,
			Dispatched:      t.Dispatched,
			InHand:          t.InHand,
			Count:           t.Count,
		}
	}
	return dtos
}

func toDashboardDTO(d rollup.Dashboard) DashboardDTO {
	dto := DashboardDTO{
		Month:      toMonthlySummaryDTO(d.Month),
		Types:      toTypeTotalsDTOs(d.Types),
		Operations: toOperationValueDTOs(d.Operations),
	}
	if d.MasterOrder != nil {
		m := toEnhancedDTO(*d.MasterOrder)
		dto.MasterOrder = &m
	}
	if d.OpeningBalance != nil {
		b := toOpeningBalanceDTO(*d.OpeningBalance)
		dto.OpeningBalance = &b
	}
	return dto
}

// Package report renders production history as an xlsx workbook.
package report

import (
	"context"
	"fmt"

	"github.com/warp/production-ledger/ledger"
	"github.com/warp/production-ledger/rollup"
	"github.com/xuri/excelize/v2"
)

const (
	historySheet    = "Production"
	comparisonSheet = "Operations"
)

// ReportSource is the ledger read side the export needs.
type ReportSource interface {
	ReportsInRange(ctx context.Context, start, end string, filter ledger.DimensionFilter) ([]ledger.DailyProductionReport, error)
	ContainerTypes(ctx context.Context) ([]ledger.ContainerType, error)
	ContainerSizes(ctx context.Context) ([]ledger.ContainerSize, error)
}

// Comparer produces the per-operation summary sheet.
type Comparer interface {
	OperationComparison(ctx context.Context, r rollup.Range, filter ledger.DimensionFilter, m rollup.Metric) ([]rollup.OperationValue, error)
}

type ExcelGenerator struct {
	src      ReportSource
	comparer Comparer
}

func NewExcelGenerator(src ReportSource, comparer Comparer) *ExcelGenerator {
	return &ExcelGenerator{src: src, comparer: comparer}
}

var historyHeaders = []string{
	"Date", "Operation", "Container Type", "Container Size",
	"Today Production", "Total Completed", "Dispatched", "In Hand",
}

// Generate builds a workbook with every report in the range and a sheet
// comparing the 17 operations over the same range.
func (g *ExcelGenerator) Generate(ctx context.Context, r rollup.Range, filter ledger.DimensionFilter) ([]byte, error) {
	const op = "report.Generate"

	if err := r.Validate(); err != nil {
		return nil, err
	}

	reports, err := g.src.ReportsInRange(ctx, r.Start, r.End, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch reports: %w", op, err)
	}
	typeNames, sizeNames, err := g.dimensionNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	production, err := g.comparer.OperationComparison(ctx, r, filter, rollup.MetricTodayProduction)
	if err != nil {
		return nil, fmt.Errorf("%s: comparison: %w", op, err)
	}
	completed, err := g.comparer.OperationComparison(ctx, r, filter, rollup.MetricTotalCompleted)
	if err != nil {
		return nil, fmt.Errorf("%s: comparison: %w", op, err)
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", historySheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: style: %w", op, err)
	}

	// History sheet
	writeHeader(f, historySheet, historyHeaders, headerStyle)
	for i, rep := range reports {
		row := i + 2
		f.SetCellValue(historySheet, cellName(1, row), rep.Date)
		f.SetCellValue(historySheet, cellName(2, row), rep.OperationName)
		f.SetCellValue(historySheet, cellName(3, row), nameOr(typeNames[rep.ContainerTypeID], int64(rep.ContainerTypeID)))
		f.SetCellValue(historySheet, cellName(4, row), nameOr(sizeNames[rep.ContainerSizeID], int64(rep.ContainerSizeID)))
		f.SetCellValue(historySheet, cellName(5, row), rep.TodayProduction)
		f.SetCellValue(historySheet, cellName(6, row), rep.TotalCompleted)
		f.SetCellValue(historySheet, cellName(7, row), rep.Dispatched)
		f.SetCellValue(historySheet, cellName(8, row), rep.InHand)
	}
	freezeHeader(f, historySheet)
	f.SetColWidth(historySheet, "A", "D", 18)

	// Comparison sheet
	if _, err := f.NewSheet(comparisonSheet); err != nil {
		return nil, fmt.Errorf("%s: sheet: %w", op, err)
	}
	writeHeader(f, comparisonSheet, []string{"Operation", "Production (sum)", "Total Completed (latest)", "Latest Date"}, headerStyle)
	for i := range production {
		row := i + 2
		f.SetCellValue(comparisonSheet, cellName(1, row), production[i].Operation)
		f.SetCellValue(comparisonSheet, cellName(2, row), production[i].Value)
		f.SetCellValue(comparisonSheet, cellName(3, row), completed[i].Value)
		f.SetCellValue(comparisonSheet, cellName(4, row), completed[i].LatestDate)
	}
	freezeHeader(f, comparisonSheet)
	f.SetColWidth(comparisonSheet, "A", "D", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: write: %w", op, err)
	}
	return buf.Bytes(), nil
}

func (g *ExcelGenerator) dimensionNames(ctx context.Context) (map[ledger.ContainerTypeID]string, map[ledger.ContainerSizeID]string, error) {
	types, err := g.src.ContainerTypes(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("container types: %w", err)
	}
	sizes, err := g.src.ContainerSizes(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("container sizes: %w", err)
	}

	typeNames := make(map[ledger.ContainerTypeID]string, len(types))
	for _, t := range types {
		typeNames[t.ID] = t.Name
	}
	sizeNames := make(map[ledger.ContainerSizeID]string, len(sizes))
	for _, s := range sizes {
		sizeNames[s.ID] = s.Size
	}
	return typeNames, sizeNames, nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) {
	for i, name := range headers {
		f.SetCellValue(sheet, cellName(i+1, 1), name)
	}
	f.SetCellStyle(sheet, "A1", cellName(len(headers), 1), style)
}

func freezeHeader(f *excelize.File, sheet string) {
	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
	})
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func nameOr(name string, id int64) string {
	if name == "" {
		return fmt.Sprintf("#%d", id)
	}
	return name
}

package interfaces

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	billing "ecometer/internal/billing/domain"
)

const exportDayLayout = "2006-01-02"

// BuildHistoryCSV renders the calculation history as CSV.
func BuildHistoryCSV(results []billing.CalculationResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"meter", "period_start", "period_end", "days",
		"consumed_kWh", "kWh_per_day", "gross_total", "paid_amount", "settlement_diff", "note"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, result := range results {
		record := []string{
			result.MeterIdentifier,
			result.PeriodStart.Format(exportDayLayout),
			result.PeriodEnd.Format(exportDayLayout),
			strconv.Itoa(result.DaysInPeriod),
			strconv.FormatFloat(result.ConsumedUnits, 'f', 3, 64),
			strconv.FormatFloat(result.UnitsPerDay, 'f', 3, 64),
			strconv.FormatFloat(result.GrossTotalCost, 'f', 2, 64),
			strconv.FormatFloat(result.PaidAmount, 'f', 2, 64),
			strconv.FormatFloat(result.SettlementDiff, 'f', 2, 64),
			result.Note,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildHistoryPDF renders a minimal PDF of the calculation history.
func BuildHistoryPDF(results []billing.CalculationResult) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Billing Reconciliation History")
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(28, 6, "Start", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 6, "End", "1", 0, "C", false, 0, "")
	pdf.CellFormat(16, 6, "Days", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "kWh", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Gross", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Paid", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Settlement", "1", 0, "C", false, 0, "")
	pdf.CellFormat(80, 6, "Note", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, result := range results {
		pdf.CellFormat(28, 6, result.PeriodStart.Format(exportDayLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(28, 6, result.PeriodEnd.Format(exportDayLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(16, 6, strconv.Itoa(result.DaysInPeriod), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.3f", result.ConsumedUnits), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", result.GrossTotalCost), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", result.PaidAmount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", result.SettlementDiff), "1", 0, "R", false, 0, "")
		pdf.CellFormat(80, 6, result.Note, "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildHistoryXLSX renders the calculation history as a workbook.
func BuildHistoryXLSX(results []billing.CalculationResult) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "history"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Meter", "Period Start", "Period End", "Days",
		"Consumed (kWh)", "kWh/day", "Gross Total", "Paid Amount", "Settlement Diff", "Note"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
	}
	for rowIdx, result := range results {
		row := rowIdx + 2
		values := []any{
			result.MeterIdentifier,
			result.PeriodStart.Format(exportDayLayout),
			result.PeriodEnd.Format(exportDayLayout),
			result.DaysInPeriod,
			result.ConsumedUnits,
			result.UnitsPerDay,
			result.GrossTotalCost,
			result.PaidAmount,
			result.SettlementDiff,
			result.Note,
		}
		for i, value := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

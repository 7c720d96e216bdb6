// Package report renders company expense data into spreadsheets for
// download by administrators.
package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
)

const (
	sheetName        = "Expenses"
	summarySheetName = "Summary"
)

var headers = []string{
	"ID", "Claimant", "Category", "Description",
	"Amount", "Currency", "Status", "Date Spent", "Submitted At",
}

var summaryHeaders = []string{"Status", "Count", "Total Amount"}

// Exporter implements port.ReportExporter using xlsx workbooks
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates a new report exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// ExpenseReport renders the rows into a single-sheet workbook and
// returns the serialized file.
func (e *Exporter) ExpenseReport(rows []port.ExpenseReportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, row := range rows {
		values := []interface{}{
			row.ExpenseID,
			row.ClaimantName,
			row.Category,
			row.Description,
			row.Amount,
			row.Currency,
			row.Status,
			row.DateSpent,
			row.SubmittedAt,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("failed to build cell name: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write cell: %w", err)
			}
		}
	}

	if err := e.writeSummary(f, rows); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	e.logger.Info("Expense report generated", zap.Int("rows", len(rows)), zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

// writeSummary adds a second sheet with per-status counts and amount
// totals, in the order each status first appears in the rows.
func (e *Exporter) writeSummary(f *excelize.File, rows []port.ExpenseReportRow) error {
	if _, err := f.NewSheet(summarySheetName); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	for col, h := range summaryHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to build summary header cell: %w", err)
		}
		if err := f.SetCellValue(summarySheetName, cell, h); err != nil {
			return fmt.Errorf("failed to write summary header: %w", err)
		}
	}

	type statusTotal struct {
		count  int
		amount float64
	}
	totals := make(map[string]*statusTotal)
	var order []string
	for _, row := range rows {
		t, ok := totals[row.Status]
		if !ok {
			t = &statusTotal{}
			totals[row.Status] = t
			order = append(order, row.Status)
		}
		t.count++
		t.amount += row.Amount
	}

	for i, status := range order {
		t := totals[status]
		values := []interface{}{status, t.count, t.amount}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("failed to build summary cell name: %w", err)
			}
			if err := f.SetCellValue(summarySheetName, cell, v); err != nil {
				return fmt.Errorf("failed to write summary cell: %w", err)
			}
		}
	}

	return nil
}

var _ port.ReportExporter = (*Exporter)(nil)

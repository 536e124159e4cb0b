package service

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// BuildProfitWorkbook serializes a profit report to an xlsx workbook:
// a header row, one row per product, the grand-total row, and a footer
// noting how many unmatched sales were excluded.
func BuildProfitWorkbook(report Report) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Profit Report"

	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headers := []string{"Product ID", "Title", "Quantity", "Revenue", "Cost", "Tax", "Expense", "Profit"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	writeRow := func(rowNo int, productID string, row ReportRow) error {
		values := []interface{}{
			productID,
			row.Title,
			row.Quantity,
			row.Revenue.Round(2).InexactFloat64(),
			row.Cost.Round(2).InexactFloat64(),
			row.Tax.Round(2).InexactFloat64(),
			row.Expense.Round(2).InexactFloat64(),
			row.Profit.Round(2).InexactFloat64(),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, rowNo)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
		return nil
	}

	rowNo := 2
	for _, row := range report.Rows {
		if err := writeRow(rowNo, row.ProductID.String(), row); err != nil {
			return nil, err
		}
		rowNo++
	}

	if err := writeRow(rowNo, "", report.Totals); err != nil {
		return nil, err
	}
	rowNo += 2

	footer := fmt.Sprintf("Period %s to %s, %d unmatched sale(s) excluded",
		report.PeriodStart.Format(time.DateOnly), report.PeriodEnd.Format(time.DateOnly),
		report.ExcludedUnmatchedCount)
	cell, _ := excelize.CoordinatesToCellName(1, rowNo)
	if err := f.SetCellValue(sheet, cell, footer); err != nil {
		return nil, err
	}

	return f, nil
}

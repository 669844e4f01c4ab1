package gateway

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"udhaar-book/internal/domain"
)

var statementHeader = []string{"Date", "Name", "Note", "Debit", "Credit", "Balance"}

// XLSXStatementExporter writes statements as a spreadsheet, the format the
// pharmacy's accountant already works with.
type XLSXStatementExporter struct{}

func NewXLSXStatementExporter() *XLSXStatementExporter {
	return &XLSXStatementExporter{}
}

// Export writes the rows to path as an XLSX workbook with a single
// "Statement" sheet: one header row, then one row per entry with the
// running balance in the last column.
func (e *XLSXStatementExporter) Export(path string, rows []domain.StatementRow) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Statement"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create statement sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for i, h := range statementHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write statement header: %w", err)
		}
	}

	for rowIdx, row := range rows {
		values := []interface{}{
			row.Date.Format(domain.DateLayout),
			row.CustomerName,
			row.Note,
			row.Debit,
			row.Credit,
			row.RunningBalance,
		}
		for colIdx, val := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("failed to write statement row %d: %w", rowIdx+1, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}

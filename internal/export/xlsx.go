package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mstarsupply/mstarsupply/internal/stock"
)

// SheetName is the worksheet holding the export.
const SheetName = "Relatorio"

// XLSXFileName is the attachment name of a period workbook.
func XLSXFileName(month, year int) string {
	return fmt.Sprintf("relatorio_%d_%d.xlsx", month, year)
}

// WriteXLSX writes the summary as a single sheet workbook. Quantities and
// costs are stored as numbers.
func WriteXLSX(w io.Writer, summary stock.Summary) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}
	if err := setRow(f, 1, toAny(Header)); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", "H1", bold); err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}
	if err := f.SetColWidth(SheetName, "B", "B", 32); err != nil {
		return fmt.Errorf("export: column width: %w", err)
	}

	rowNo := 2
	for _, row := range summary.Rows {
		values := []any{
			row.ItemID,
			row.Name,
			"UNID",
			row.InflowQty,
			row.InflowCost.Round(2).InexactFloat64(),
			row.OutflowQty,
			row.OutflowCost.Round(2).InexactFloat64(),
			row.Balance,
		}
		if err := setRow(f, rowNo, values); err != nil {
			return err
		}
		rowNo++
	}
	t := summary.Totals
	if err := setRow(f, rowNo, []any{
		TotalLabel, "", "",
		t.InflowQty,
		t.InflowCost.Round(2).InexactFloat64(),
		t.OutflowQty,
		t.OutflowCost.Round(2).InexactFloat64(),
		t.Balance,
	}); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, rowNo)
	last, _ := excelize.CoordinatesToCellName(len(Header), rowNo)
	if err := f.SetCellStyle(SheetName, first, last, bold); err != nil {
		return fmt.Errorf("export: totals style: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write xlsx: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, rowNo int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNo)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, v); err != nil {
			return fmt.Errorf("export: set %s: %w", cell, err)
		}
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// Package export writes period summaries as spreadsheet downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/mstarsupply/mstarsupply/internal/stock"
)

// BOM lets spreadsheet tools detect UTF-8.
const BOM = "\ufeff"

// TotalLabel opens the aggregate row.
const TotalLabel = "Total Geral"

// Header is the column header shared by every export format.
var Header = []string{"Código", "Descrição", "U.M.", "Entradas", "Custo (R$)", "Saídas", "Custo (R$)", "Saldo"}

// CSVFileName is the attachment name of a period export.
func CSVFileName(month, year int) string {
	return fmt.Sprintf("relatorio_%d_%d.csv", month, year)
}

// Records expands a summary into header, item rows and the total row.
func Records(summary stock.Summary) [][]string {
	records := make([][]string, 0, len(summary.Rows)+2)
	records = append(records, Header)
	for _, row := range summary.Rows {
		records = append(records, []string{
			strconv.FormatInt(row.ItemID, 10),
			row.Name,
			"UNID",
			strconv.FormatInt(row.InflowQty, 10),
			row.InflowCost.StringFixed(2),
			strconv.FormatInt(row.OutflowQty, 10),
			row.OutflowCost.StringFixed(2),
			strconv.FormatInt(row.Balance, 10),
		})
	}
	t := summary.Totals
	records = append(records, []string{
		TotalLabel, "", "",
		strconv.FormatInt(t.InflowQty, 10),
		t.InflowCost.StringFixed(2),
		strconv.FormatInt(t.OutflowQty, 10),
		t.OutflowCost.StringFixed(2),
		strconv.FormatInt(t.Balance, 10),
	})
	return records
}

// WriteCSV writes the summary as comma separated UTF-8 with a byte order mark.
func WriteCSV(w io.Writer, summary stock.Summary) error {
	if _, err := io.WriteString(w, BOM); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(Records(summary)); err != nil {
		return fmt.Errorf("export: write csv: %w", err)
	}
	return nil
}

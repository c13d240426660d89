package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mstarsupply/mstarsupply/internal/ledger"
	"github.com/mstarsupply/mstarsupply/internal/stock"
)

func sampleSummary() stock.Summary {
	at := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	items := []ledger.Item{
		{ID: 1, Name: "Parafuso Sextavado Inox M8, caixa", UnitCost: decimal.RequireFromString("2.50")},
		{ID: 2, Name: "Porca", UnitCost: decimal.RequireFromString("0.10")},
		{ID: 3, Name: "Arruela", UnitCost: decimal.RequireFromString("1.00")},
	}
	inflows := []ledger.Movement{
		{ItemID: 1, Quantity: 100, Timestamp: at},
		{ItemID: 2, Quantity: 30, Timestamp: at},
	}
	outflows := []ledger.Movement{
		{ItemID: 1, Quantity: 20, Timestamp: at.AddDate(0, 0, 5)},
		{ItemID: 2, Quantity: 27, Timestamp: at},
	}
	return stock.PeriodAggregate(items, inflows, outflows)
}

func readCSV(t *testing.T, raw []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(raw, []byte(BOM)))
	records, err := csv.NewReader(bytes.NewReader(raw[len(BOM):])).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteCSVLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleSummary()))
	assert.NotContains(t, buf.String(), "\r\n")

	records := readCSV(t, buf.Bytes())
	require.Len(t, records, 4)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, []string{"1", "Parafuso Sextavado Inox M8, caixa", "UNID", "100", "250.00", "20", "50.00", "80"}, records[1])
	assert.Equal(t, []string{"2", "Porca", "UNID", "30", "3.00", "27", "2.70", "3"}, records[2])
	assert.Equal(t, []string{"Total Geral", "", "", "130", "253.00", "47", "52.70", "83"}, records[3])
	assert.Contains(t, buf.String(), `"Parafuso Sextavado Inox M8, caixa"`)
}

func TestCSVTotalsMatchRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleSummary()))
	records := readCSV(t, buf.Bytes())

	var in, out int64
	for _, rec := range records[1 : len(records)-1] {
		n, err := strconv.ParseInt(rec[3], 10, 64)
		require.NoError(t, err)
		in += n
		n, err = strconv.ParseInt(rec[5], 10, 64)
		require.NoError(t, err)
		out += n
	}
	total := records[len(records)-1]
	assert.Equal(t, strconv.FormatInt(in, 10), total[3])
	assert.Equal(t, strconv.FormatInt(out, 10), total[5])
}

func TestWriteCSVEmptyPeriod(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, stock.PeriodAggregate(nil, nil, nil)))
	records := readCSV(t, buf.Bytes())
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Total Geral", "", "", "0", "0.00", "0", "0.00", "0"}, records[1])
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "relatorio_3_2024.csv", CSVFileName(3, 2024))
	assert.Equal(t, "relatorio_12_2023.xlsx", XLSXFileName(12, 2023))
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleSummary()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, "Total Geral", rows[3][0])

	inCost, err := f.GetCellValue(SheetName, "E2")
	require.NoError(t, err)
	assert.Equal(t, "250", strings.TrimSuffix(inCost, ".00"))
	balance, err := f.GetCellValue(SheetName, "H4")
	require.NoError(t, err)
	assert.Equal(t, "83", balance)
}

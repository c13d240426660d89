package stock

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mstarsupply/mstarsupply/internal/ledger"
)

// ErrItemNotFound marks movements that reference an unknown item.
var ErrItemNotFound = errors.New("stock: item not found")

// Row is the period aggregate of one item.
type Row struct {
	ItemID      int64           `json:"item_id"`
	Name        string          `json:"name"`
	Missing     bool            `json:"missing,omitempty"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	InflowQty   int64           `json:"inflow_qty"`
	OutflowQty  int64           `json:"outflow_qty"`
	InflowCost  decimal.Decimal `json:"inflow_cost"`
	OutflowCost decimal.Decimal `json:"outflow_cost"`
	Balance     int64           `json:"balance"`
	Marker      Marker          `json:"marker"`
}

// Totals sums every row of a period.
type Totals struct {
	MovedItems  int             `json:"moved_items"`
	InflowQty   int64           `json:"inflow_qty"`
	OutflowQty  int64           `json:"outflow_qty"`
	InflowCost  decimal.Decimal `json:"inflow_cost"`
	OutflowCost decimal.Decimal `json:"outflow_cost"`
	Balance     int64           `json:"balance"`
	Marker      Marker          `json:"marker"`
}

// Summary is the result of PeriodAggregate.
type Summary struct {
	Rows     []Row   `json:"rows"`
	Totals   Totals  `json:"totals"`
	Warnings []error `json:"-"`
}

// Row looks up the aggregate of one item.
func (s Summary) Row(itemID int64) (Row, bool) {
	for _, row := range s.Rows {
		if row.ItemID == itemID {
			return row, true
		}
	}
	return Row{}, false
}

// WarningMessages renders the warnings for transport.
func (s Summary) WarningMessages() []string {
	out := make([]string, 0, len(s.Warnings))
	for _, w := range s.Warnings {
		out = append(out, w.Error())
	}
	return out
}

// Availability is the sum of all inflows minus all outflows of an item.
func Availability(itemID int64, inflows, outflows []ledger.Movement) int64 {
	return SumByItem(inflows).Get(itemID) - SumByItem(outflows).Get(itemID)
}

// OrphanName is the label used for movements whose item no longer resolves.
func OrphanName(itemID int64) string {
	return fmt.Sprintf("Desconhecido (ID: %d)", itemID)
}

// PeriodAggregate folds the movements of one period per item. Items without
// movement are skipped. Movements whose item is missing produce a row named
// by OrphanName with zero cost plus a warning; their quantities still count
// in the totals so that the balances add up.
func PeriodAggregate(items []ledger.Item, inflows, outflows []ledger.Movement) Summary {
	in := SumByItem(inflows)
	out := SumByItem(outflows)

	summary := Summary{
		Rows: []Row{},
		Totals: Totals{
			InflowCost:  decimal.Zero,
			OutflowCost: decimal.Zero,
		},
	}
	known := make(map[int64]struct{}, len(items))
	for _, item := range items {
		known[item.ID] = struct{}{}
		inQty, outQty := in.Get(item.ID), out.Get(item.ID)
		if inQty == 0 && outQty == 0 {
			continue
		}
		row := Row{
			ItemID:      item.ID,
			Name:        item.Name,
			UnitCost:    item.UnitCost,
			InflowQty:   inQty,
			OutflowQty:  outQty,
			InflowCost:  item.UnitCost.Mul(decimal.NewFromInt(inQty)),
			OutflowCost: item.UnitCost.Mul(decimal.NewFromInt(outQty)),
			Balance:     inQty - outQty,
		}
		row.Marker = Classify(row.Balance)
		summary.add(row)
	}

	seen := SumByItem(append(append([]ledger.Movement{}, inflows...), outflows...))
	for _, id := range seen.Keys {
		if _, ok := known[id]; ok {
			continue
		}
		row := Row{
			ItemID:      id,
			Name:        OrphanName(id),
			Missing:     true,
			UnitCost:    decimal.Zero,
			InflowQty:   in.Get(id),
			OutflowQty:  out.Get(id),
			InflowCost:  decimal.Zero,
			OutflowCost: decimal.Zero,
		}
		row.Balance = row.InflowQty - row.OutflowQty
		row.Marker = Classify(row.Balance)
		summary.add(row)
		summary.Warnings = append(summary.Warnings, fmt.Errorf("%w: id %d", ErrItemNotFound, id))
	}

	summary.Totals.Balance = summary.Totals.InflowQty - summary.Totals.OutflowQty
	summary.Totals.Marker = Classify(summary.Totals.Balance)
	return summary
}

func (s *Summary) add(row Row) {
	s.Rows = append(s.Rows, row)
	s.Totals.MovedItems++
	s.Totals.InflowQty += row.InflowQty
	s.Totals.OutflowQty += row.OutflowQty
	s.Totals.InflowCost = s.Totals.InflowCost.Add(row.InflowCost)
	s.Totals.OutflowCost = s.Totals.OutflowCost.Add(row.OutflowCost)
}

package stock

import "sort"

// DefaultTopN is the ranking size used by the management report.
const DefaultTopN = 5

// Mover is one entry of the movement ranking.
type Mover struct {
	ItemID  int64  `json:"item_id"`
	Name    string `json:"name"`
	Inflow  int64  `json:"inflow"`
	Outflow int64  `json:"outflow"`
	Total   int64  `json:"total"`
}

// TopMovers ranks rows by inflow plus outflow, highest first. Ties are
// broken by ascending item id. Rows without movement never appear.
func TopMovers(rows []Row, n int) []Mover {
	if n <= 0 {
		n = DefaultTopN
	}
	movers := make([]Mover, 0, len(rows))
	for _, row := range rows {
		total := row.InflowQty + row.OutflowQty
		if total <= 0 {
			continue
		}
		movers = append(movers, Mover{
			ItemID:  row.ItemID,
			Name:    row.Name,
			Inflow:  row.InflowQty,
			Outflow: row.OutflowQty,
			Total:   total,
		})
	}
	sort.SliceStable(movers, func(i, j int) bool {
		if movers[i].Total != movers[j].Total {
			return movers[i].Total > movers[j].Total
		}
		return movers[i].ItemID < movers[j].ItemID
	})
	if len(movers) > n {
		movers = movers[:n]
	}
	return movers
}

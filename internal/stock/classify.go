package stock

// Marker is the visual class of a balance.
type Marker string

const (
	// MarkerLowStock flags balances below LowStockThreshold.
	MarkerLowStock Marker = "low_stock"
	// MarkerNormal flags positive balances at or above the threshold.
	MarkerNormal Marker = "normal"
	// MarkerNeutral is the fallback for balances that are neither.
	MarkerNeutral Marker = "neutral"
)

// LowStockThreshold is the balance under which stock is considered low.
const LowStockThreshold = 5

// Alert labels reported by the availability listing.
const (
	AlertLowStock = "Estoque Baixo"
	AlertNormal   = "Normal"
)

// Classify maps a balance to its marker. The checks run in this order, so
// zero and negative balances are low stock and MarkerNeutral is never
// produced for integer input.
func Classify(balance int64) Marker {
	switch {
	case balance < LowStockThreshold:
		return MarkerLowStock
	case balance > 0:
		return MarkerNormal
	default:
		return MarkerNeutral
	}
}

// Alert returns the availability alert label for a balance.
func Alert(balance int64) string {
	if Classify(balance) == MarkerLowStock {
		return AlertLowStock
	}
	return AlertNormal
}

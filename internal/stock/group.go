// Package stock derives availability, period aggregates and rankings from
// ledger records. It performs no I/O.
package stock

import "github.com/mstarsupply/mstarsupply/internal/ledger"

// Groups holds folded values per key. Keys preserves first-seen order.
type Groups[K comparable, V any] struct {
	Keys   []K
	Values map[K]V
}

// Get returns the folded value for k or the zero value.
func (g Groups[K, V]) Get(k K) V {
	return g.Values[k]
}

// Has reports whether k was seen.
func (g Groups[K, V]) Has(k K) bool {
	_, ok := g.Values[k]
	return ok
}

// GroupBy folds records into per-key accumulators.
func GroupBy[T any, K comparable, V any](records []T, key func(T) K, fold func(V, T) V) Groups[K, V] {
	groups := Groups[K, V]{Values: make(map[K]V)}
	for _, record := range records {
		k := key(record)
		current, ok := groups.Values[k]
		if !ok {
			groups.Keys = append(groups.Keys, k)
		}
		groups.Values[k] = fold(current, record)
	}
	return groups
}

// SumByItem totals movement quantities per item id.
func SumByItem(movements []ledger.Movement) Groups[int64, int64] {
	return GroupBy(movements, movementItem, func(acc int64, m ledger.Movement) int64 {
		return acc + m.Quantity
	})
}

// CollectByItem groups the movements themselves per item id, keeping record order.
func CollectByItem(movements []ledger.Movement) Groups[int64, []ledger.Movement] {
	return GroupBy(movements, movementItem, func(acc []ledger.Movement, m ledger.Movement) []ledger.Movement {
		return append(acc, m)
	})
}

func movementItem(m ledger.Movement) int64 {
	return m.ItemID
}

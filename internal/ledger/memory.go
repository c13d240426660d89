package ledger

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
)

// MemoryStore keeps the ledger in process memory. Writers are serialised by
// a single mutex, which also covers WithTx callbacks.
type MemoryStore struct {
	mu       sync.RWMutex
	items    []Item
	inflows  []Movement
	outflows []Movement
	nextItem int64
	nextMove map[Kind]int64
	now      func() time.Time
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextMove: map[Kind]int64{KindInflow: 0, KindOutflow: 0},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Seed loads raw records without validation. Item ids in movements are not
// required to exist, which lets callers model orphaned records.
func (s *MemoryStore) Seed(items []Item, movements []Movement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		if item.ID == 0 {
			s.nextItem++
			item.ID = s.nextItem
		} else if item.ID > s.nextItem {
			s.nextItem = item.ID
		}
		s.items = append(s.items, item)
	}
	for _, m := range movements {
		s.appendMovement(m)
	}
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memoryTx{store: s}
	if err := fn(ctx, tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (s *MemoryStore) Snapshot(ctx context.Context, fn func(context.Context, Reader) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, memoryReader{store: s})
}

func (s *MemoryStore) InsertItem(ctx context.Context, item Item) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.RegistrationNumber == item.RegistrationNumber {
			return Item{}, ErrDuplicateRegistration
		}
	}
	s.nextItem++
	item.ID = s.nextItem
	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.now()
	}
	s.items = append(s.items, item)
	return item, nil
}

func (s *MemoryStore) InsertMovement(ctx context.Context, m Movement) (Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertMovement(m)
}

func (s *MemoryStore) GetItem(ctx context.Context, id int64) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return memoryReader{store: s}.GetItem(ctx, id)
}

func (s *MemoryStore) ListItems(ctx context.Context) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return memoryReader{store: s}.ListItems(ctx)
}

func (s *MemoryStore) CountItems(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.items)), nil
}

func (s *MemoryStore) SearchItems(ctx context.Context, term string) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return memoryReader{store: s}.SearchItems(ctx, term)
}

func (s *MemoryStore) ListMovements(ctx context.Context, kind Kind, filter Filter) ([]Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return memoryReader{store: s}.ListMovements(ctx, kind, filter)
}

func (s *MemoryStore) SumQuantity(ctx context.Context, kind Kind, itemID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sum(kind, itemID)
}

func (s *MemoryStore) insertMovement(m Movement) (Movement, error) {
	if !m.Kind.Valid() {
		return Movement{}, ErrInvalidKind
	}
	if _, ok := s.find(m.ItemID); !ok {
		return Movement{}, ErrNotFound
	}
	return s.appendMovement(m), nil
}

func (s *MemoryStore) appendMovement(m Movement) Movement {
	s.nextMove[m.Kind]++
	m.ID = s.nextMove[m.Kind]
	switch m.Kind {
	case KindInflow:
		s.inflows = append(s.inflows, m)
	case KindOutflow:
		s.outflows = append(s.outflows, m)
	}
	return m
}

func (s *MemoryStore) records(kind Kind) []Movement {
	if kind == KindInflow {
		return s.inflows
	}
	return s.outflows
}

func (s *MemoryStore) find(id int64) (Item, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

func (s *MemoryStore) sum(kind Kind, itemID int64) (int64, error) {
	if !kind.Valid() {
		return 0, ErrInvalidKind
	}
	var total int64
	for _, m := range s.records(kind) {
		if m.ItemID == itemID {
			total += m.Quantity
		}
	}
	return total, nil
}

type memoryReader struct {
	store *MemoryStore
}

func (r memoryReader) GetItem(_ context.Context, id int64) (Item, error) {
	item, ok := r.store.find(id)
	if !ok {
		return Item{}, ErrNotFound
	}
	return item, nil
}

func (r memoryReader) ListItems(context.Context) ([]Item, error) {
	items := make([]Item, len(r.store.items))
	copy(items, r.store.items)
	return items, nil
}

func (r memoryReader) CountItems(context.Context) (int64, error) {
	return int64(len(r.store.items)), nil
}

func (r memoryReader) SearchItems(_ context.Context, term string) ([]Item, error) {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(term))
	items := []Item{}
	for _, item := range r.store.items {
		fields := []string{item.Name, item.RegistrationNumber, item.Manufacturer, item.Category}
		for _, field := range fields {
			if strings.Contains(fold.String(field), needle) {
				items = append(items, item)
				break
			}
		}
	}
	return items, nil
}

func (r memoryReader) ListMovements(_ context.Context, kind Kind, filter Filter) ([]Movement, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	out := []Movement{}
	for _, m := range r.store.records(kind) {
		if filter.ItemID > 0 && m.ItemID != filter.ItemID {
			continue
		}
		if filter.hasPeriod() && (int(m.Timestamp.Month()) != filter.Month || m.Timestamp.Year() != filter.Year) {
			continue
		}
		out = append(out, m)
	}
	if filter.Newest {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Timestamp.Equal(out[j].Timestamp) {
				return out[i].ID > out[j].ID
			}
			return out[i].Timestamp.After(out[j].Timestamp)
		})
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r memoryReader) SumQuantity(_ context.Context, kind Kind, itemID int64) (int64, error) {
	return r.store.sum(kind, itemID)
}

// memoryTx writes straight into the store while the store mutex is held and
// truncates its own appends when the callback fails.
type memoryTx struct {
	store    *MemoryStore
	inflows  int
	outflows int
	started  bool
}

func (t *memoryTx) mark() {
	if t.started {
		return
	}
	t.started = true
	t.inflows = len(t.store.inflows)
	t.outflows = len(t.store.outflows)
}

func (t *memoryTx) rollback() {
	if !t.started {
		return
	}
	t.store.inflows = t.store.inflows[:t.inflows]
	t.store.outflows = t.store.outflows[:t.outflows]
}

func (t *memoryTx) LockItem(_ context.Context, id int64) (Item, error) {
	item, ok := t.store.find(id)
	if !ok {
		return Item{}, ErrNotFound
	}
	return item, nil
}

func (t *memoryTx) SumQuantity(_ context.Context, kind Kind, itemID int64) (int64, error) {
	return t.store.sum(kind, itemID)
}

func (t *memoryTx) InsertMovement(_ context.Context, m Movement) (Movement, error) {
	t.mark()
	return t.store.insertMovement(m)
}

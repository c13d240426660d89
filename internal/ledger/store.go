package ledger

import "context"

// Reader exposes the read side of the ledger.
type Reader interface {
	GetItem(ctx context.Context, id int64) (Item, error)
	ListItems(ctx context.Context) ([]Item, error)
	CountItems(ctx context.Context) (int64, error)
	SearchItems(ctx context.Context, term string) ([]Item, error)
	ListMovements(ctx context.Context, kind Kind, filter Filter) ([]Movement, error)
	SumQuantity(ctx context.Context, kind Kind, itemID int64) (int64, error)
}

// TxStore exposes the operations allowed inside a write transaction.
type TxStore interface {
	// LockItem loads the item and holds it until the transaction ends so
	// concurrent outflows for the same item run one after another.
	LockItem(ctx context.Context, id int64) (Item, error)
	SumQuantity(ctx context.Context, kind Kind, itemID int64) (int64, error)
	InsertMovement(ctx context.Context, m Movement) (Movement, error)
}

// Store is the persistence port used by the services.
type Store interface {
	Reader
	InsertItem(ctx context.Context, item Item) (Item, error)
	InsertMovement(ctx context.Context, m Movement) (Movement, error)
	WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error
	// Snapshot runs fn against a consistent view of the ledger.
	Snapshot(ctx context.Context, fn func(context.Context, Reader) error) error
}

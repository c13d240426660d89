package ledger

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mstarsupply/mstarsupply/internal/platform/db"
)

// Schema holds the DDL for the ledger tables.
//
//go:embed schema.sql
var Schema string

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists the ledger in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the ledger tables when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return db.Migrate(ctx, s.pool, Schema)
}

// WithTx executes fn inside a read-committed transaction so that sums read
// after LockItem include outflows committed by the previous lock holder.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	if s == nil || s.pool == nil {
		return errors.New("ledger: postgres store not initialised")
	}
	return db.WithLockingTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{q: tx})
	})
}

// Snapshot executes fn inside a read-only repeatable-read transaction.
func (s *PostgresStore) Snapshot(ctx context.Context, fn func(context.Context, Reader) error) error {
	if s == nil || s.pool == nil {
		return errors.New("ledger: postgres store not initialised")
	}
	return db.WithReadOnlyTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, pgReader{q: tx})
	})
}

// InsertItem stores a new item and returns it with its id.
func (s *PostgresStore) InsertItem(ctx context.Context, item Item) (Item, error) {
	row := s.pool.QueryRow(ctx, `INSERT INTO items (name, registration_number, manufacturer, category, description, unit_cost)
VALUES ($1, $2, $3, $4, $5, $6::numeric)
RETURNING id, created_at`, item.Name, item.RegistrationNumber, item.Manufacturer, item.Category, item.Description, item.UnitCost.String())
	if err := row.Scan(&item.ID, &item.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Item{}, ErrDuplicateRegistration
		}
		return Item{}, fmt.Errorf("ledger: insert item: %w", err)
	}
	return item, nil
}

// InsertMovement appends a movement outside of an explicit transaction.
func (s *PostgresStore) InsertMovement(ctx context.Context, m Movement) (Movement, error) {
	return insertMovement(ctx, s.pool, m)
}

func (s *PostgresStore) GetItem(ctx context.Context, id int64) (Item, error) {
	return pgReader{q: s.pool}.GetItem(ctx, id)
}

func (s *PostgresStore) ListItems(ctx context.Context) ([]Item, error) {
	return pgReader{q: s.pool}.ListItems(ctx)
}

func (s *PostgresStore) CountItems(ctx context.Context) (int64, error) {
	return pgReader{q: s.pool}.CountItems(ctx)
}

func (s *PostgresStore) SearchItems(ctx context.Context, term string) ([]Item, error) {
	return pgReader{q: s.pool}.SearchItems(ctx, term)
}

func (s *PostgresStore) ListMovements(ctx context.Context, kind Kind, filter Filter) ([]Movement, error) {
	return pgReader{q: s.pool}.ListMovements(ctx, kind, filter)
}

func (s *PostgresStore) SumQuantity(ctx context.Context, kind Kind, itemID int64) (int64, error) {
	return sumQuantity(ctx, s.pool, kind, itemID)
}

type pgReader struct {
	q querier
}

const itemColumns = `id, name, registration_number, manufacturer, category, description, unit_cost::text, created_at`

func (r pgReader) GetItem(ctx context.Context, id int64) (Item, error) {
	item, err := scanItem(r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return item, err
}

func (r pgReader) ListItems(ctx context.Context) ([]Item, error) {
	return queryItems(ctx, r.q, `SELECT `+itemColumns+` FROM items ORDER BY id`)
}

func (r pgReader) CountItems(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("ledger: count items: %w", err)
	}
	return count, nil
}

func (r pgReader) SearchItems(ctx context.Context, term string) ([]Item, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(term)) + "%"
	return queryItems(ctx, r.q, `SELECT `+itemColumns+` FROM items
WHERE name ILIKE $1 OR registration_number ILIKE $1 OR manufacturer ILIKE $1 OR category ILIKE $1
ORDER BY id`, pattern)
}

func (r pgReader) ListMovements(ctx context.Context, kind Kind, filter Filter) ([]Movement, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	var (
		where []string
		args  []any
	)
	if filter.ItemID > 0 {
		args = append(args, filter.ItemID)
		where = append(where, fmt.Sprintf("item_id=$%d", len(args)))
	}
	if filter.hasPeriod() {
		from, to := PeriodRange(filter.Month, filter.Year)
		args = append(args, from, to)
		where = append(where, fmt.Sprintf("occurred_at >= $%d AND occurred_at < $%d", len(args)-1, len(args)))
	}
	query := `SELECT id, item_id, quantity, occurred_at, locality FROM ` + table
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if filter.Newest {
		query += " ORDER BY occurred_at DESC, id DESC"
	} else {
		query += " ORDER BY id ASC"
	}
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: list %s: %w", table, err)
	}
	defer rows.Close()
	movements := []Movement{}
	for rows.Next() {
		m := Movement{Kind: kind}
		if err := rows.Scan(&m.ID, &m.ItemID, &m.Quantity, &m.Timestamp, &m.Locality); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (r pgReader) SumQuantity(ctx context.Context, kind Kind, itemID int64) (int64, error) {
	return sumQuantity(ctx, r.q, kind, itemID)
}

type pgTx struct {
	q querier
}

func (t *pgTx) LockItem(ctx context.Context, id int64) (Item, error) {
	item, err := scanItem(t.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return item, err
}

func (t *pgTx) SumQuantity(ctx context.Context, kind Kind, itemID int64) (int64, error) {
	return sumQuantity(ctx, t.q, kind, itemID)
}

func (t *pgTx) InsertMovement(ctx context.Context, m Movement) (Movement, error) {
	return insertMovement(ctx, t.q, m)
}

func insertMovement(ctx context.Context, q querier, m Movement) (Movement, error) {
	table, err := tableFor(m.Kind)
	if err != nil {
		return Movement{}, err
	}
	err = q.QueryRow(ctx, `INSERT INTO `+table+` (item_id, quantity, occurred_at, locality) VALUES ($1, $2, $3, $4) RETURNING id`,
		m.ItemID, m.Quantity, m.Timestamp, m.Locality).Scan(&m.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Movement{}, ErrNotFound
		}
		return Movement{}, fmt.Errorf("ledger: insert %s: %w", table, err)
	}
	return m, nil
}

func sumQuantity(ctx context.Context, q querier, kind Kind, itemID int64) (int64, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := q.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0)::bigint FROM `+table+` WHERE item_id=$1`, itemID).Scan(&total); err != nil {
		return 0, fmt.Errorf("ledger: sum %s: %w", table, err)
	}
	return total, nil
}

func queryItems(ctx context.Context, q querier, sql string, args ...any) ([]Item, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: list items: %w", err)
	}
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(row pgx.Row) (Item, error) {
	var (
		item Item
		cost string
	)
	if err := row.Scan(&item.ID, &item.Name, &item.RegistrationNumber, &item.Manufacturer, &item.Category, &item.Description, &cost, &item.CreatedAt); err != nil {
		return Item{}, err
	}
	unitCost, err := decimal.NewFromString(cost)
	if err != nil {
		return Item{}, fmt.Errorf("ledger: parse unit cost %q: %w", cost, err)
	}
	item.UnitCost = unitCost
	return item, nil
}

func tableFor(kind Kind) (string, error) {
	switch kind {
	case KindInflow:
		return "inflows", nil
	case KindOutflow:
		return "outflows", nil
	default:
		return "", ErrInvalidKind
	}
}

func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}

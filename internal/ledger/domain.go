package ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Kind separates the two append-only movement tables.
type Kind string

const (
	// KindInflow represents goods entering stock.
	KindInflow Kind = "IN"
	// KindOutflow represents goods leaving stock.
	KindOutflow Kind = "OUT"
)

// Valid reports whether k names a known movement table.
func (k Kind) Valid() bool {
	return k == KindInflow || k == KindOutflow
}

// Item is a stock-keeping unit with a fixed unit cost.
type Item struct {
	ID                 int64           `json:"id"`
	Name               string          `json:"name"`
	RegistrationNumber string          `json:"registration_number"`
	Manufacturer       string          `json:"manufacturer"`
	Category           string          `json:"category"`
	Description        string          `json:"description"`
	UnitCost           decimal.Decimal `json:"unit_cost"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Movement is one inflow or outflow record. Records are never mutated.
type Movement struct {
	ID        int64     `json:"id"`
	Kind      Kind      `json:"kind"`
	ItemID    int64     `json:"item_id"`
	Quantity  int64     `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
	Locality  string    `json:"locality"`
}

// Filter narrows movement queries. Zero values disable a criterion.
type Filter struct {
	ItemID int64
	Month  int
	Year   int
	// Newest orders by timestamp descending instead of insertion order.
	Newest bool
	Limit  int
}

// ByPeriod returns a filter for a calendar month.
func ByPeriod(month, year int) Filter {
	return Filter{Month: month, Year: year}
}

// ByItem returns a filter for a single item.
func ByItem(itemID int64) Filter {
	return Filter{ItemID: itemID}
}

// PeriodRange converts month/year into the half-open interval [from, to).
func PeriodRange(month, year int) (time.Time, time.Time) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

func (f Filter) hasPeriod() bool {
	return f.Month > 0 && f.Year > 0
}

var (
	// ErrNotFound indicates a missing item.
	ErrNotFound = errors.New("ledger: item not found")
	// ErrDuplicateRegistration indicates the registration number is taken.
	ErrDuplicateRegistration = errors.New("ledger: registration number already registered")
	// ErrInvalidKind indicates an unknown movement table.
	ErrInvalidKind = errors.New("ledger: invalid movement kind")
)

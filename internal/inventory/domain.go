package inventory

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/mstarsupply/mstarsupply/internal/ledger"
	"github.com/mstarsupply/mstarsupply/internal/platform/httpx"
)

// TimestampLayout is the wire format of movement timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// RecentLimit is the number of movements of each kind on the dashboard.
const RecentLimit = 5

var (
	// ErrValidation wraps malformed input.
	ErrValidation = fmt.Errorf("inventory: %w", httpx.ErrValidation)
	// ErrInsufficientStock rejects outflows larger than the availability.
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	// ErrInvalidSearchKind rejects unknown search targets.
	ErrInvalidSearchKind = fmt.Errorf("inventory: invalid search type: %w", httpx.ErrValidation)
)

// ItemInput registers a new item.
type ItemInput struct {
	Name               string `json:"name" validate:"required,max=100"`
	RegistrationNumber string `json:"registration_number" validate:"required,max=50"`
	Manufacturer       string `json:"manufacturer" validate:"required,max=100"`
	Category           string `json:"category" validate:"required,max=50"`
	Description        string `json:"description" validate:"max=255"`
	UnitCost           string `json:"unit_cost" validate:"required"`
}

// MovementInput registers an inflow or outflow.
type MovementInput struct {
	ItemID    int64  `json:"item_id" validate:"required,gt=0"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	Timestamp string `json:"timestamp" validate:"required"`
	Locality  string `json:"locality" validate:"required,max=100"`
}

// ItemAvailability is one line of the availability listing.
type ItemAvailability struct {
	ItemID       int64  `json:"item_id"`
	Name         string `json:"name"`
	Availability int64  `json:"availability"`
	Alert        string `json:"alert"`
}

// PeriodMovements lists the movements of one month.
type PeriodMovements struct {
	Month    int               `json:"month"`
	Year     int               `json:"year"`
	Inflows  []ledger.Movement `json:"inflows"`
	Outflows []ledger.Movement `json:"outflows"`
}

// Dashboard is the landing page summary.
type Dashboard struct {
	TotalItems     int64             `json:"total_items"`
	RecentInflows  []ledger.Movement `json:"recent_inflows"`
	RecentOutflows []ledger.Movement `json:"recent_outflows"`
}

// SearchKind selects the record type of a search.
type SearchKind string

const (
	SearchItems    SearchKind = "items"
	SearchInflows  SearchKind = "inflows"
	SearchOutflows SearchKind = "outflows"
)

// ParseSearchKind maps the query value, defaulting to items.
func ParseSearchKind(raw string) (SearchKind, error) {
	switch kind := SearchKind(strings.ToLower(strings.TrimSpace(raw))); kind {
	case "":
		return SearchItems, nil
	case SearchItems, SearchInflows, SearchOutflows:
		return kind, nil
	default:
		return "", ErrInvalidSearchKind
	}
}

// SearchResult carries either items or movements depending on Kind.
type SearchResult struct {
	Kind      SearchKind        `json:"type"`
	Items     []ledger.Item     `json:"items,omitempty"`
	Movements []ledger.Movement `json:"movements,omitempty"`
}

var validate = validator.New()

func (in ItemInput) toItem() (ledger.Item, error) {
	if err := validate.Struct(in); err != nil {
		return ledger.Item{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	cost, err := decimal.NewFromString(strings.TrimSpace(in.UnitCost))
	if err != nil {
		return ledger.Item{}, fmt.Errorf("%w: unit_cost: %v", ErrValidation, err)
	}
	if cost.IsNegative() {
		return ledger.Item{}, fmt.Errorf("%w: unit_cost must not be negative", ErrValidation)
	}
	return ledger.Item{
		Name:               strings.TrimSpace(in.Name),
		RegistrationNumber: strings.TrimSpace(in.RegistrationNumber),
		Manufacturer:       strings.TrimSpace(in.Manufacturer),
		Category:           strings.TrimSpace(in.Category),
		Description:        strings.TrimSpace(in.Description),
		UnitCost:           cost.Round(2),
	}, nil
}

func (in MovementInput) toMovement(kind ledger.Kind) (ledger.Movement, error) {
	if err := validate.Struct(in); err != nil {
		return ledger.Movement{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	ts, err := time.Parse(TimestampLayout, strings.TrimSpace(in.Timestamp))
	if err != nil {
		return ledger.Movement{}, fmt.Errorf("%w: timestamp must match %s", ErrValidation, TimestampLayout)
	}
	return ledger.Movement{
		Kind:      kind,
		ItemID:    in.ItemID,
		Quantity:  in.Quantity,
		Timestamp: ts,
		Locality:  strings.TrimSpace(in.Locality),
	}, nil
}

package inventory

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mstarsupply/mstarsupply/internal/ledger"
	"github.com/mstarsupply/mstarsupply/internal/platform/httpx"
	"github.com/mstarsupply/mstarsupply/internal/report"
)

// InventoryService is the contract used by the HTTP handler.
type InventoryService interface {
	RegisterItem(ctx context.Context, input ItemInput) (ledger.Item, error)
	ListItems(ctx context.Context) ([]ledger.Item, error)
	GetItem(ctx context.Context, id int64) (ledger.Item, error)
	RegisterInflow(ctx context.Context, input MovementInput) (ledger.Movement, error)
	RegisterOutflow(ctx context.Context, input MovementInput) (ledger.Movement, error)
	Availability(ctx context.Context, itemID int64) (int64, error)
	AvailabilityAll(ctx context.Context) ([]ItemAvailability, error)
	Movements(ctx context.Context, period report.Period) (PeriodMovements, error)
	Dashboard(ctx context.Context) (Dashboard, error)
	Search(ctx context.Context, term string, kind SearchKind) (SearchResult, error)
}

var errorMappings = []httpx.Mapping{
	{Err: ErrInsufficientStock, Status: http.StatusBadRequest, Title: "Insufficient Stock"},
	{Err: ledger.ErrNotFound, Status: http.StatusNotFound, Title: "Item Not Found"},
	{Err: ledger.ErrDuplicateRegistration, Status: http.StatusConflict, Title: "Duplicate Registration"},
	{Err: report.ErrInvalidPeriod, Status: http.StatusBadRequest, Title: "Invalid Period"},
}

// Handler wires HTTP endpoints for the inventory ledger.
type Handler struct {
	logger  *slog.Logger
	service InventoryService
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service InventoryService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.handleListItems)
		r.Post("/", h.handleRegisterItem)
		r.Get("/{id}", h.handleGetItem)
		r.Get("/{id}/availability", h.handleAvailability)
	})
	r.Get("/availability", h.handleAvailabilityAll)
	r.Post("/inflows", h.handleInflow)
	r.Post("/outflows", h.handleOutflow)
	r.Get("/movements/{month}/{year}", h.handleMovements)
	r.Get("/dashboard", h.handleDashboard)
	r.Get("/search", h.handleSearch)
}

type availabilityResponse struct {
	ItemID       int64 `json:"item_id"`
	Availability int64 `json:"availability"`
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListItems(r.Context())
	if err != nil {
		h.fail(w, "list items", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) handleRegisterItem(w http.ResponseWriter, r *http.Request) {
	var input ItemInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.RegisterItem(r.Context(), input)
	if err != nil {
		h.fail(w, "register item", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		h.fail(w, "get item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	available, err := h.service.Availability(r.Context(), id)
	if err != nil {
		h.fail(w, "availability", err)
		return
	}
	httpx.JSON(w, http.StatusOK, availabilityResponse{ItemID: id, Availability: available})
}

func (h *Handler) handleAvailabilityAll(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.AvailabilityAll(r.Context())
	if err != nil {
		h.fail(w, "availability listing", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) handleInflow(w http.ResponseWriter, r *http.Request) {
	h.registerMovement(w, r, "register inflow", h.service.RegisterInflow)
}

func (h *Handler) handleOutflow(w http.ResponseWriter, r *http.Request) {
	h.registerMovement(w, r, "register outflow", h.service.RegisterOutflow)
}

func (h *Handler) registerMovement(w http.ResponseWriter, r *http.Request, op string, register func(context.Context, MovementInput) (ledger.Movement, error)) {
	var input MovementInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	m, err := register(r.Context(), input)
	if err != nil {
		h.fail(w, op, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *Handler) handleMovements(w http.ResponseWriter, r *http.Request) {
	period, err := report.ParsePeriod(chi.URLParam(r, "month"), chi.URLParam(r, "year"))
	if err != nil {
		httpx.RespondError(w, err, errorMappings...)
		return
	}
	movements, err := h.service.Movements(r.Context(), period)
	if err != nil {
		h.fail(w, "period movements", err)
		return
	}
	httpx.JSON(w, http.StatusOK, movements)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.fail(w, "dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, dash)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind, err := ParseSearchKind(q.Get("type"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Search(r.Context(), q.Get("q"), kind)
	if err != nil {
		h.fail(w, "search", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "item id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !isClientError(err) {
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err, errorMappings...)
}

func isClientError(err error) bool {
	for _, m := range errorMappings {
		if errors.Is(err, m.Err) {
			return true
		}
	}
	return errors.Is(err, httpx.ErrValidation)
}

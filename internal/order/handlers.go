package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Ansagu88/foodtruck/internal/common"
	"github.com/Ansagu88/foodtruck/internal/ledger"
)

// Handler exposes order query endpoints.
type Handler struct {
	Svc *Service
}

// List returns the authenticated user's order history.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	offset := int32((page - 1) * perPage)
	orders, total, err := h.Svc.List(r.Context(), userID, int32(perPage), offset)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	if orders == nil {
		orders = []Order{}
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data": orders,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: int(total),
		},
	})
}

// Get returns one order with its settled items.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid order id", nil)
		return
	}
	ord, err := h.Svc.Get(r.Context(), orderID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	items, err := h.Svc.Items(r.Context(), ord.ID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	if items == nil {
		items = []Item{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"order": ord,
		"items": items,
	}})
}

// VendorTotals returns one vendor's slice of a settled order.
func (h *Handler) VendorTotals(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid order id", nil)
		return
	}
	vendorID, err := uuid.Parse(chi.URLParam(r, "vendorId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid vendor id", nil)
		return
	}
	// Scope to the owner before decoding the ledger.
	ord, err := h.Svc.Get(r.Context(), orderID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	totals, err := TotalsForVendor(ord, vendorID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"vendorId": vendorID,
		"totals":   totals,
	}})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.RenderError(w, common.NewAppError(common.CodeNotFound, "order not found", http.StatusNotFound, err))
	case errors.Is(err, ErrVendorNotInOrder):
		common.RenderError(w, common.NewAppError(common.CodeVendorNotInOrder, "vendor not part of this order", http.StatusNotFound, err))
	case errors.Is(err, ledger.ErrMalformed):
		common.RenderError(w, common.NewAppError(common.CodeMalformedLedger, "order ledger is unreadable", http.StatusInternalServerError, err))
	default:
		common.RenderError(w, err)
	}
}

func authedUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw, ok := common.UserID(r.Context())
	if !ok || raw == "" {
		common.JSONError(w, http.StatusUnauthorized, common.CodeUnauthorized, "authentication required", nil)
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid user id", nil)
		return uuid.Nil, false
	}
	return userID, true
}

// StatusHandler applies downstream status transitions (vendor/admin action).
type StatusHandler struct {
	Svc      *Service
	Validate *validator.Validate
}

type statusPayload struct {
	Status string `json:"status" validate:"required,oneof=New Accepted Completed Cancelled"`
}

// Patch sets the order status.
func (h *StatusHandler) Patch(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid order id", nil)
		return
	}
	var payload statusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusUnprocessableEntity, common.CodeBadRequest, "invalid status value", map[string]any{"field": "status"})
			return
		}
	}
	ord, err := h.Svc.SetStatus(r.Context(), orderID, Status(payload.Status))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			common.RenderError(w, common.NewAppError(common.CodeNotFound, "order not found", http.StatusNotFound, err))
		case errors.Is(err, ErrInvalidStatus):
			common.RenderError(w, common.NewAppError(common.CodeBadRequest, "invalid status transition", http.StatusUnprocessableEntity, err))
		default:
			common.RenderError(w, err)
		}
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": ord})
}

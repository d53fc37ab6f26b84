package cart

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Ansagu88/foodtruck/internal/common"
	"github.com/Ansagu88/foodtruck/internal/pricing"
)

// Handler exposes cart endpoints.
type Handler struct {
	Svc *Service
}

// Get returns the user's cart lines together with live amounts.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	summary, err := h.Svc.Summary(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": summary})
}

// AddItem adds an item to the cart or increments its quantity.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid item id", nil)
		return
	}
	line, err := h.Svc.AddItem(r.Context(), userID, itemID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": line})
}

// DecreaseItem decrements an item's quantity, removing the line at zero.
func (h *Handler) DecreaseItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid item id", nil)
		return
	}
	line, err := h.Svc.DecreaseItem(r.Context(), userID, itemID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": line})
}

// RemoveLine deletes a cart line.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	lineID, err := uuid.Parse(chi.URLParam(r, "lineId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid line id", nil)
		return
	}
	if err := h.Svc.RemoveLine(r.Context(), userID, lineID); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"status": "deleted"}})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.RenderError(w, common.NewAppError(common.CodeNotFound, "cart line not found", http.StatusNotFound, err))
	case errors.Is(err, ErrItemUnavailable):
		common.RenderError(w, common.NewAppError(common.CodeBadRequest, "item unavailable", http.StatusBadRequest, err))
	case errors.Is(err, pricing.ErrDuplicateTaxRuleType):
		common.RenderError(w, common.NewAppError(common.CodeDuplicateTaxRule, "conflicting tax rule configuration", http.StatusConflict, err))
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

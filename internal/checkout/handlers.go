package checkout

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/Ansagu88/foodtruck/internal/common"
	"github.com/Ansagu88/foodtruck/internal/pricing"
)

// Handler exposes the checkout endpoint.
type Handler struct {
	Svc *Service
}

// Checkout settles the authenticated user's cart into an order.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "checkout service not configured", nil)
		return
	}
	raw, ok := common.UserID(r.Context())
	if !ok || raw == "" {
		common.JSONError(w, http.StatusUnauthorized, common.CodeUnauthorized, "authentication required", nil)
		return
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid user id", nil)
		return
	}
	ord, err := h.Svc.Create(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": ord})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyCart):
		common.RenderError(w, common.NewAppError(common.CodeEmptyCart, "cart is empty", http.StatusUnprocessableEntity, err))
	case errors.Is(err, pricing.ErrDuplicateTaxRuleType):
		common.RenderError(w, common.NewAppError(common.CodeDuplicateTaxRule, "conflicting tax rule configuration", http.StatusConflict, err))
	default:
		common.RenderError(w, err)
	}
}

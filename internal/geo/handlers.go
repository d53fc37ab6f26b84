package geo

import (
	"errors"
	"net/http"

	"github.com/Ansagu88/foodtruck/internal/common"
)

// Handler serves the public marketplace search endpoint.
type Handler struct {
	Svc *Service
}

// Search handles GET /marketplace.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	params, err := h.Svc.ParseParams(r.URL.Query())
	if err != nil {
		if errors.Is(err, ErrInvalidRadius) {
			common.JSONError(w, http.StatusUnprocessableEntity, common.CodeInvalidRadius, err.Error(), nil)
			return
		}
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, err.Error(), nil)
		return
	}
	results, err := h.Svc.Search(r.Context(), params, r.URL.RawQuery)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
	})
}

package pricing

import (
	"context"
	"net/http"

	"github.com/Ansagu88/foodtruck/internal/common"
)

// RuleSource provides the active tax rules.
type RuleSource interface {
	Active(ctx context.Context) ([]TaxRule, error)
}

// Handler serves the public tax rule listing.
type Handler struct {
	Rules RuleSource
}

type taxRulePayload struct {
	Type       string `json:"type"`
	Percentage string `json:"percentage"`
}

// List handles GET /taxes.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Rules.Active(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	payload := make([]taxRulePayload, 0, len(rules))
	for _, rule := range rules {
		payload = append(payload, taxRulePayload{
			Type:       rule.Type,
			Percentage: rule.Percentage.StringFixed(2),
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"taxes": payload})
}

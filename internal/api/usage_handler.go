package api

import (
	"net/http"

	"github.com/deckhand-app/deckhand-api/internal/api/shared"
	"github.com/deckhand-app/deckhand-api/internal/domain"
	"github.com/deckhand-app/deckhand-api/internal/service"
)

// UsageHandler serves quota usage summaries.
type UsageHandler struct {
	quotaService service.QuotaService
}

// NewUsageHandler creates a UsageHandler.
func NewUsageHandler(quotaService service.QuotaService) *UsageHandler {
	return &UsageHandler{quotaService: quotaService}
}

// GetUsage handles GET /api/usage requests.
func (h *UsageHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	usage, err := h.quotaService.Usage(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load usage")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newUsageResponse(*usage))
}

package handlers

import (
	"context"
	"net/http"

	"github.com/wonny/minrei/pkg/logger"
)

// ReferenceService lists trader and group reference data.
type ReferenceService interface {
	Traders(ctx context.Context) ([]string, error)
	Groups(ctx context.Context) ([]string, error)
}

// UtilsHandler handles reference data API endpoints
type UtilsHandler struct {
	refs   ReferenceService
	logger *logger.Logger
}

// NewUtilsHandler creates a new utils handler
func NewUtilsHandler(refs ReferenceService, log *logger.Logger) *UtilsHandler {
	return &UtilsHandler{
		refs:   refs,
		logger: log,
	}
}

// GetTraders returns the active trader list
// GET /api/utils/traders
func (h *UtilsHandler) GetTraders(w http.ResponseWriter, r *http.Request) {
	traders, err := h.refs.Traders(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list traders")
		respondError(w, http.StatusInternalServerError, "Failed to list traders")
		return
	}
	if traders == nil {
		traders = []string{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"count":   len(traders),
			"traders": traders,
		},
	})
}

// GetGroups returns the trading group list
// GET /api/utils/groups
func (h *UtilsHandler) GetGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.refs.Groups(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list groups")
		respondError(w, http.StatusInternalServerError, "Failed to list groups")
		return
	}
	if groups == nil {
		groups = []string{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"count":  len(groups),
			"groups": groups,
		},
	})
}

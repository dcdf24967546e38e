package handler

import (
	"net/http"

	"github.com/edvin/unihub/internal/api/response"
	"github.com/edvin/unihub/internal/core"
)

type Stats struct {
	svc *core.StatsService
}

func NewStats(svc *core.StatsService) *Stats {
	return &Stats{svc: svc}
}

// Get returns the caller's dashboard counters.
//
//	@Summary      Dashboard statistics
//	@Description  Counts of the caller's contacts, upcoming events and unread emails.
//	@Tags         Dashboard
//	@Produce      json
//	@Success      200  {object}  model.Stats
//	@Failure      401  {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /api/stats [get]
func (h *Stats) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	stats, err := h.svc.Stats(r.Context(), userID)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, stats)
}

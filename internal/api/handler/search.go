package handler

import (
	"net/http"
	"strings"

	"github.com/edvin/unihub/internal/api/request"
	"github.com/edvin/unihub/internal/api/response"
	"github.com/edvin/unihub/internal/core"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 20
)

type Search struct {
	svc *core.SearchService
}

func NewSearch(svc *core.SearchService) *Search {
	return &Search{svc: svc}
}

type searchResponse struct {
	Results []core.SearchResult `json:"results"`
}

// Search finds the caller's contacts, events and emails matching q.
//
//	@Summary      Search
//	@Description  Case-insensitive substring search. Each resource type contributes at most limit hits.
//	@Tags         Search
//	@Produce      json
//	@Param        q      query     string  true   "Search term"
//	@Param        limit  query     int     false  "Hits per resource type (default 5, max 20)"
//	@Success      200    {object}  searchResponse
//	@Failure      401    {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /api/search [get]
func (h *Search) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		response.WriteJSON(w, http.StatusOK, searchResponse{Results: []core.SearchResult{}})
		return
	}
	limit := min(request.QueryInt(r, "limit", defaultSearchLimit), maxSearchLimit)

	results, err := h.svc.Search(r.Context(), userID, q, limit)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	if results == nil {
		results = []core.SearchResult{}
	}
	response.WriteJSON(w, http.StatusOK, searchResponse{Results: results})
}

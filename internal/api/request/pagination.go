package request

import (
	"net/http"
	"strings"
)

// Pagination is a keyset page request: at most Limit rows after the row whose
// id is Cursor.
type Pagination struct {
	Limit  int
	Cursor string
}

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// ParsePagination reads limit and cursor. Missing or non-positive limits use
// DefaultLimit; larger ones are capped at MaxLimit.
func ParsePagination(r *http.Request) Pagination {
	return Pagination{
		Limit:  min(QueryInt(r, "limit", DefaultLimit), MaxLimit),
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}
}

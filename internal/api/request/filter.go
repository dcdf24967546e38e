package request

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// QueryBool reports whether the query parameter is set to a true value
// ("true", "1"). Anything else, including absence, is false.
func QueryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

// QueryInt returns the query parameter as a positive int, or fallback.
func QueryInt(r *http.Request, key string, fallback int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && n > 0 {
		return n
	}
	return fallback
}

// QueryTime parses an RFC 3339 timestamp or a YYYY-MM-DD date. An absent
// parameter yields the zero time.
func QueryTime(r *http.Request, key string) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%s must be an RFC 3339 timestamp or YYYY-MM-DD date", key)
}

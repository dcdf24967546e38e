package client

import (
	"net/url"

	"github.com/edvin/unihub/internal/realtime"
)

// queryKey builds a cache key from a shared key name plus query-specific
// segments.
func queryKey(name string, extra ...string) []string {
	return append(realtime.SplitKey(name), extra...)
}

// invalidate drops the cached results for each named key. Mutations use the
// same names the server publishes, so local and remote invalidation agree.
func (c *Client) invalidate(names ...string) {
	for _, name := range names {
		c.cache.Invalidate(realtime.SplitKey(name))
	}
}

func withQuery(path string, q url.Values) string {
	if enc := q.Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}

// escape quotes an id for use as a path segment.
func escape(id string) string {
	return url.PathEscape(id)
}

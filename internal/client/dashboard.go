package client

import (
	"context"
	"net/url"
	"strconv"

	"github.com/edvin/unihub/internal/core"
	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/realtime"
)

// Stats returns the dashboard counts.
func (c *Client) Stats(ctx context.Context) (*model.Stats, error) {
	return fetchAs(ctx, c.cache, queryKey(realtime.KeyStats), func(ctx context.Context) (*model.Stats, error) {
		var stats model.Stats
		if err := c.Get(ctx, "/api/stats", &stats); err != nil {
			return nil, err
		}
		return &stats, nil
	})
}

// Search looks across contacts, events and emails. Results are not cached.
func (c *Client) Search(ctx context.Context, q string, limit int) ([]core.SearchResult, error) {
	params := url.Values{"q": {q}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var resp struct {
		Results []core.SearchResult `json:"results"`
	}
	if err := c.Get(ctx, withQuery("/api/search", params), &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

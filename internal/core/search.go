package core

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// SearchResult is a single hit across the user's contacts, events and emails.
type SearchResult struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Label string `json:"label"`
	Extra string `json:"extra,omitempty"`
}

// SearchService provides cross-resource search scoped to one user.
type SearchService struct {
	db DB
}

func NewSearchService(db DB) *SearchService {
	return &SearchService{db: db}
}

// Search runs the per-table queries in parallel and concatenates the hits in
// a fixed order: contacts, events, emails.
func (s *SearchService) Search(ctx context.Context, userID, query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchResult{}, nil
	}
	if limit <= 0 {
		limit = 5
	}
	pattern := containsPattern(query)

	queries := []string{
		`SELECT 'contact', id, trim(first_name || ' ' || COALESCE(last_name, '')), COALESCE(email, '')
		 FROM contacts
		 WHERE user_id = $1 AND (first_name ILIKE $2 ESCAPE '\' OR last_name ILIKE $2 ESCAPE '\' OR email ILIKE $2 ESCAPE '\' OR company ILIKE $2 ESCAPE '\')
		 ORDER BY first_name LIMIT $3`,
		`SELECT 'event', id, title, to_char(start_time AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS"Z"')
		 FROM calendar_events
		 WHERE user_id = $1 AND (title ILIKE $2 ESCAPE '\' OR description ILIKE $2 ESCAPE '\' OR location ILIKE $2 ESCAPE '\')
		 ORDER BY start_time LIMIT $3`,
		`SELECT 'email', id, COALESCE(subject, ''), from_address
		 FROM emails
		 WHERE user_id = $1 AND (subject ILIKE $2 ESCAPE '\' OR from_address ILIKE $2 ESCAPE '\' OR from_name ILIKE $2 ESCAPE '\')
		 ORDER BY received_at DESC LIMIT $3`,
	}

	results := make([][]SearchResult, len(queries))
	g, ctx := errgroup.WithContext(ctx)

	for i, q := range queries {
		g.Go(func() error {
			rows, err := s.db.Query(ctx, q, userID, pattern, limit)
			if err != nil {
				return fmt.Errorf("search query %d: %w", i, err)
			}
			defer rows.Close()

			for rows.Next() {
				var r SearchResult
				if err := rows.Scan(&r.Type, &r.ID, &r.Label, &r.Extra); err != nil {
					return fmt.Errorf("scan search result: %w", err)
				}
				results[i] = append(results[i], r)
			}
			return rows.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	all := []SearchResult{}
	for _, batch := range results {
		all = append(all, batch...)
	}
	return all, nil
}

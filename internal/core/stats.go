package core

import (
	"context"
	"fmt"

	"github.com/edvin/unihub/internal/model"
)

// StatsService computes the dashboard counts for a user.
type StatsService struct {
	db DB
}

func NewStatsService(db DB) *StatsService {
	return &StatsService{db: db}
}

// Stats returns the contact count, the number of events starting now or
// later, and the number of unread emails. The three counts are sub-selects of
// one statement, so they come from a single snapshot.
func (s *StatsService) Stats(ctx context.Context, userID string) (*model.Stats, error) {
	var st model.Stats
	err := s.db.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM contacts WHERE user_id = $1),
			(SELECT count(*) FROM calendar_events WHERE user_id = $1 AND start_time >= now()),
			(SELECT count(*) FROM emails WHERE user_id = $1 AND NOT is_read)`,
		userID,
	).Scan(&st.Contacts, &st.UpcomingEvents, &st.UnreadEmails)
	if err != nil {
		return nil, fmt.Errorf("get stats for user %s: %w", userID, err)
	}
	return &st, nil
}

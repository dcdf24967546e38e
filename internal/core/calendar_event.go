package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/platform"
)

const eventColumns = `id, user_id, title, description, start_time, end_time, all_day, location, color, recurrence, reminders, created_at, updated_at`

func scanEvent(row scanner) (*model.CalendarEvent, error) {
	var e model.CalendarEvent
	err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Description, &e.StartTime, &e.EndTime,
		&e.AllDay, &e.Location, &e.Color, &e.Recurrence, &e.Reminders, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// EventRange restricts a listing to events overlapping [From, To). Zero
// bounds are open.
type EventRange struct {
	From time.Time
	To   time.Time
}

// EventPatch holds the fields to change; nil fields are left alone.
type EventPatch struct {
	Title       *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
	AllDay      *bool
	Location    *string
	Color       *string
	Recurrence  *string
	Reminders   []int32
}

type CalendarEventService struct {
	db DB
}

func NewCalendarEventService(db DB) *CalendarEventService {
	return &CalendarEventService{db: db}
}

func validateEvent(e *model.CalendarEvent) error {
	if strings.TrimSpace(e.Title) == "" {
		return invalid("title is required")
	}
	if e.StartTime.IsZero() || e.EndTime.IsZero() {
		return invalid("start_time and end_time are required")
	}
	if e.EndTime.Before(e.StartTime) {
		return invalid("end_time must not be before start_time")
	}
	for _, m := range e.Reminders {
		if m < 0 {
			return invalid("reminders must be non-negative minute offsets")
		}
	}
	return nil
}

// List returns the user's events ordered by start time.
func (s *CalendarEventService) List(ctx context.Context, userID string, r EventRange) ([]model.CalendarEvent, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	if !r.From.IsZero() {
		args = append(args, r.From)
		where = append(where, "end_time >= $"+strconv.Itoa(len(args)))
	}
	if !r.To.IsZero() {
		args = append(args, r.To)
		where = append(where, "start_time < $"+strconv.Itoa(len(args)))
	}

	return s.query(ctx,
		`SELECT `+eventColumns+` FROM calendar_events WHERE `+strings.Join(where, " AND ")+
			` ORDER BY start_time, id`, args...)
}

// Upcoming returns up to limit events starting now or later, soonest first.
func (s *CalendarEventService) Upcoming(ctx context.Context, userID string, limit int) ([]model.CalendarEvent, error) {
	if limit <= 0 {
		limit = 3
	}
	return s.query(ctx,
		`SELECT `+eventColumns+` FROM calendar_events
		 WHERE user_id = $1 AND start_time >= now()
		 ORDER BY start_time, id LIMIT $2`, userID, limit)
}

func (s *CalendarEventService) query(ctx context.Context, sql string, args ...any) ([]model.CalendarEvent, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	defer rows.Close()

	events := []model.CalendarEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calendar event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *CalendarEventService) Get(ctx context.Context, userID, id string) (*model.CalendarEvent, error) {
	e, err := scanEvent(s.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM calendar_events WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, rowError(err, "calendar event", id)
	}
	return e, nil
}

// Create stores e under its UserID. Events ending before they start are
// rejected; an empty color gets the default and nil reminders become a
// single at-start reminder.
func (s *CalendarEventService) Create(ctx context.Context, e *model.CalendarEvent) (*model.CalendarEvent, error) {
	if e.Color == "" {
		e.Color = model.DefaultEventColor
	}
	if e.Reminders == nil {
		e.Reminders = []int32{0}
	}
	if err := validateEvent(e); err != nil {
		return nil, err
	}
	if e.ID == "" {
		e.ID = platform.NewID()
	}

	out, err := scanEvent(s.db.QueryRow(ctx,
		`INSERT INTO calendar_events (id, user_id, title, description, start_time, end_time, all_day, location, color, recurrence, reminders)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+eventColumns,
		e.ID, e.UserID, e.Title, e.Description, e.StartTime, e.EndTime, e.AllDay, e.Location, e.Color, e.Recurrence, e.Reminders))
	if err != nil {
		return nil, fmt.Errorf("create calendar event: %w", err)
	}
	return out, nil
}

// Update applies p to the stored event and re-validates the result.
func (s *CalendarEventService) Update(ctx context.Context, userID, id string, p EventPatch) (*model.CalendarEvent, error) {
	e, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = p.Description
	}
	if p.StartTime != nil {
		e.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		e.EndTime = *p.EndTime
	}
	if p.AllDay != nil {
		e.AllDay = *p.AllDay
	}
	if p.Location != nil {
		e.Location = p.Location
	}
	if p.Color != nil {
		e.Color = *p.Color
	}
	if p.Recurrence != nil {
		e.Recurrence = p.Recurrence
	}
	if p.Reminders != nil {
		e.Reminders = p.Reminders
	}
	if err := validateEvent(e); err != nil {
		return nil, err
	}

	out, err := scanEvent(s.db.QueryRow(ctx,
		`UPDATE calendar_events SET
		   title = $3, description = $4, start_time = $5, end_time = $6, all_day = $7,
		   location = $8, color = $9, recurrence = $10, reminders = $11, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+eventColumns,
		id, userID, e.Title, e.Description, e.StartTime, e.EndTime, e.AllDay, e.Location, e.Color, e.Recurrence, e.Reminders))
	if err != nil {
		return nil, rowError(err, "calendar event", id)
	}
	return out, nil
}

func (s *CalendarEventService) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM calendar_events WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete calendar event %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("calendar event %s: %w", id, ErrNotFound)
	}
	return nil
}

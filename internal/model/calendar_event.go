package model

import "time"

// DefaultEventColor is applied when an event is created without a color.
const DefaultEventColor = "#22c55e"

type CalendarEvent struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description" db:"description"`
	StartTime   time.Time `json:"start_time" db:"start_time"`
	EndTime     time.Time `json:"end_time" db:"end_time"`
	AllDay      bool      `json:"all_day" db:"all_day"`
	Location    *string   `json:"location" db:"location"`
	Color       string    `json:"color" db:"color"`
	Recurrence  *string   `json:"recurrence" db:"recurrence"`
	Reminders   []int32   `json:"reminders" db:"reminders"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

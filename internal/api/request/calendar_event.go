package request

import "time"

type CreateCalendarEvent struct {
	Title       string    `json:"title" validate:"required,max=500"`
	Description *string   `json:"description"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	AllDay      bool      `json:"all_day"`
	Location    *string   `json:"location"`
	Color       string    `json:"color" validate:"omitempty,hexcolor"`
	Recurrence  *string   `json:"recurrence"`
	Reminders   []int32   `json:"reminders" validate:"omitempty,dive,gte=0"`
}

type UpdateCalendarEvent struct {
	Title       *string    `json:"title" validate:"omitempty,max=500"`
	Description *string    `json:"description"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	AllDay      *bool      `json:"all_day"`
	Location    *string    `json:"location"`
	Color       *string    `json:"color" validate:"omitempty,hexcolor"`
	Recurrence  *string    `json:"recurrence"`
	Reminders   []int32    `json:"reminders" validate:"omitempty,dive,gte=0"`
}

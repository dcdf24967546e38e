package model

import "time"

type Contact struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	FirstName  string    `json:"first_name" db:"first_name"`
	LastName   *string   `json:"last_name" db:"last_name"`
	Email      *string   `json:"email" db:"email"`
	Phone      *string   `json:"phone" db:"phone"`
	Company    *string   `json:"company" db:"company"`
	JobTitle   *string   `json:"job_title" db:"job_title"`
	Notes      *string   `json:"notes" db:"notes"`
	AvatarURL  *string   `json:"avatar_url" db:"avatar_url"`
	IsFavorite bool      `json:"is_favorite" db:"is_favorite"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

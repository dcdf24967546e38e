package model

import "time"

type MailAccount struct {
	ID           string     `json:"id" db:"id"`
	UserID       string     `json:"user_id" db:"user_id"`
	Provider     string     `json:"provider" db:"provider"`
	EmailAddress string     `json:"email_address" db:"email_address"`
	DisplayName  *string    `json:"display_name" db:"display_name"`
	IMAPHost     *string    `json:"imap_host" db:"imap_host"`
	IMAPPort     *int32     `json:"imap_port" db:"imap_port"`
	SMTPHost     *string    `json:"smtp_host" db:"smtp_host"`
	SMTPPort     *int32     `json:"smtp_port" db:"smtp_port"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastSyncedAt *time.Time `json:"last_synced_at" db:"last_synced_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

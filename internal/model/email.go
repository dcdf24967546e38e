package model

import "time"

// Mail folders.
const (
	FolderInbox  = "inbox"
	FolderSent   = "sent"
	FolderDrafts = "drafts"
	FolderTrash  = "trash"
	FolderSpam   = "spam"
)

type Email struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	MailAccountID  string    `json:"mail_account_id" db:"mail_account_id"`
	MessageID      *string   `json:"message_id" db:"message_id"`
	FromAddress    string    `json:"from_address" db:"from_address"`
	FromName       *string   `json:"from_name" db:"from_name"`
	ToAddresses    []string  `json:"to_addresses" db:"to_addresses"`
	CcAddresses    []string  `json:"cc_addresses" db:"cc_addresses"`
	BccAddresses   []string  `json:"bcc_addresses" db:"bcc_addresses"`
	Subject        *string   `json:"subject" db:"subject"`
	BodyText       *string   `json:"body_text" db:"body_text"`
	BodyHTML       *string   `json:"body_html" db:"body_html"`
	Folder         string    `json:"folder" db:"folder"`
	IsRead         bool      `json:"is_read" db:"is_read"`
	IsStarred      bool      `json:"is_starred" db:"is_starred"`
	IsDraft        bool      `json:"is_draft" db:"is_draft"`
	HasAttachments bool      `json:"has_attachments" db:"has_attachments"`
	ReceivedAt     time.Time `json:"received_at" db:"received_at"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

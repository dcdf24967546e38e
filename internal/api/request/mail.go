package request

import "time"

type CreateMailAccount struct {
	Provider     string  `json:"provider" validate:"required,max=50"`
	EmailAddress string  `json:"email_address" validate:"required,email"`
	DisplayName  *string `json:"display_name"`
	IMAPHost     *string `json:"imap_host" validate:"omitempty,hostname_rfc1123|ip"`
	IMAPPort     *int32  `json:"imap_port" validate:"omitempty,gte=1,lte=65535"`
	SMTPHost     *string `json:"smtp_host" validate:"omitempty,hostname_rfc1123|ip"`
	SMTPPort     *int32  `json:"smtp_port" validate:"omitempty,gte=1,lte=65535"`
	IsActive     *bool   `json:"is_active"`
}

type CreateEmail struct {
	MailAccountID  string     `json:"mail_account_id" validate:"required"`
	MessageID      *string    `json:"message_id"`
	FromAddress    string     `json:"from_address" validate:"required,email"`
	FromName       *string    `json:"from_name"`
	ToAddresses    []string   `json:"to_addresses" validate:"omitempty,dive,email"`
	CcAddresses    []string   `json:"cc_addresses" validate:"omitempty,dive,email"`
	BccAddresses   []string   `json:"bcc_addresses" validate:"omitempty,dive,email"`
	Subject        *string    `json:"subject"`
	BodyText       *string    `json:"body_text"`
	BodyHTML       *string    `json:"body_html"`
	Folder         string     `json:"folder" validate:"omitempty,max=50"`
	IsRead         bool       `json:"is_read"`
	IsStarred      bool       `json:"is_starred"`
	IsDraft        bool       `json:"is_draft"`
	HasAttachments bool       `json:"has_attachments"`
	ReceivedAt     *time.Time `json:"received_at"`
}

type SetRead struct {
	IsRead *bool `json:"is_read" validate:"required"`
}

package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/platform"
)

const emailColumns = `id, user_id, mail_account_id, message_id, from_address, from_name, to_addresses, cc_addresses, bcc_addresses, subject, body_text, body_html, folder, is_read, is_starred, is_draft, has_attachments, received_at, created_at`

func scanEmail(row scanner) (*model.Email, error) {
	var e model.Email
	err := row.Scan(&e.ID, &e.UserID, &e.MailAccountID, &e.MessageID, &e.FromAddress, &e.FromName,
		&e.ToAddresses, &e.CcAddresses, &e.BccAddresses, &e.Subject, &e.BodyText, &e.BodyHTML,
		&e.Folder, &e.IsRead, &e.IsStarred, &e.IsDraft, &e.HasAttachments, &e.ReceivedAt, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// EmailFilter narrows an email listing. Cursor is the id of the last email
// of the previous page.
type EmailFilter struct {
	AccountID  string
	Folder     string
	UnreadOnly bool
	Limit      int
	Cursor     string
}

type EmailService struct {
	db DB
}

func NewEmailService(db DB) *EmailService {
	return &EmailService{db: db}
}

// List returns one page of the user's emails, newest first, and whether more
// remain.
func (s *EmailService) List(ctx context.Context, userID string, f EmailFilter) ([]model.Email, bool, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	where := []string{"user_id = $1"}
	args := []any{userID}
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.AccountID != "" {
		where = append(where, "mail_account_id = "+arg(f.AccountID))
	}
	if f.Folder != "" {
		where = append(where, "folder = "+arg(f.Folder))
	}
	if f.UnreadOnly {
		where = append(where, "NOT is_read")
	}
	if f.Cursor != "" {
		n := arg(f.Cursor)
		where = append(where, "(received_at, id) < (SELECT received_at, id FROM emails WHERE id = "+n+" AND user_id = $1)")
	}
	limit := arg(f.Limit + 1)

	rows, err := s.db.Query(ctx,
		`SELECT `+emailColumns+` FROM emails WHERE `+strings.Join(where, " AND ")+
			` ORDER BY received_at DESC, id DESC LIMIT `+limit, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list emails: %w", err)
	}
	defer rows.Close()

	emails := []model.Email{}
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scan email: %w", err)
		}
		emails = append(emails, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	hasMore := len(emails) > f.Limit
	if hasMore {
		emails = emails[:f.Limit]
	}
	return emails, hasMore, nil
}

func (s *EmailService) Get(ctx context.Context, userID, id string) (*model.Email, error) {
	e, err := scanEmail(s.db.QueryRow(ctx,
		`SELECT `+emailColumns+` FROM emails WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, rowError(err, "email", id)
	}
	return e, nil
}

// Create stores e. The referenced mail account must belong to e.UserID; the
// insert selects from mail_accounts so a foreign account inserts nothing and
// yields ErrNotFound.
func (s *EmailService) Create(ctx context.Context, e *model.Email) (*model.Email, error) {
	if e.MailAccountID == "" {
		return nil, invalid("mail_account_id is required")
	}
	if !strings.Contains(e.FromAddress, "@") {
		return nil, invalid("from_address must be an email address")
	}
	if e.Folder == "" {
		e.Folder = model.FolderInbox
		if e.IsDraft {
			e.Folder = model.FolderDrafts
		}
	}
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now()
	}
	if e.ID == "" {
		e.ID = platform.NewID()
	}
	for _, list := range []*[]string{&e.ToAddresses, &e.CcAddresses, &e.BccAddresses} {
		if *list == nil {
			*list = []string{}
		}
	}

	out, err := scanEmail(s.db.QueryRow(ctx,
		`INSERT INTO emails (id, user_id, mail_account_id, message_id, from_address, from_name,
		   to_addresses, cc_addresses, bcc_addresses, subject, body_text, body_html,
		   folder, is_read, is_starred, is_draft, has_attachments, received_at)
		 SELECT $1, a.user_id, a.id, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		 FROM mail_accounts a WHERE a.id = $3 AND a.user_id = $2
		 RETURNING `+emailColumns,
		e.ID, e.UserID, e.MailAccountID, e.MessageID, e.FromAddress, e.FromName,
		e.ToAddresses, e.CcAddresses, e.BccAddresses, e.Subject, e.BodyText, e.BodyHTML,
		e.Folder, e.IsRead, e.IsStarred, e.IsDraft, e.HasAttachments, e.ReceivedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("mail account %s: %w", e.MailAccountID, ErrNotFound)
		}
		return nil, fmt.Errorf("create email: %w", err)
	}
	return out, nil
}

// SetRead marks an email read or unread.
func (s *EmailService) SetRead(ctx context.Context, userID, id string, read bool) (*model.Email, error) {
	e, err := scanEmail(s.db.QueryRow(ctx,
		`UPDATE emails SET is_read = $3 WHERE id = $1 AND user_id = $2
		 RETURNING `+emailColumns, id, userID, read))
	if err != nil {
		return nil, rowError(err, "email", id)
	}
	return e, nil
}

// ToggleStar flips the starred flag.
func (s *EmailService) ToggleStar(ctx context.Context, userID, id string) (*model.Email, error) {
	e, err := scanEmail(s.db.QueryRow(ctx,
		`UPDATE emails SET is_starred = NOT is_starred WHERE id = $1 AND user_id = $2
		 RETURNING `+emailColumns, id, userID))
	if err != nil {
		return nil, rowError(err, "email", id)
	}
	return e, nil
}

func (s *EmailService) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM emails WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete email %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("email %s: %w", id, ErrNotFound)
	}
	return nil
}

package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/platform"
)

const mailAccountColumns = `id, user_id, provider, email_address, display_name, imap_host, imap_port, smtp_host, smtp_port, is_active, last_synced_at, created_at, updated_at`

func scanMailAccount(row scanner) (*model.MailAccount, error) {
	var a model.MailAccount
	err := row.Scan(&a.ID, &a.UserID, &a.Provider, &a.EmailAddress, &a.DisplayName,
		&a.IMAPHost, &a.IMAPPort, &a.SMTPHost, &a.SMTPPort, &a.IsActive, &a.LastSyncedAt,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

type MailAccountService struct {
	db DB
}

func NewMailAccountService(db DB) *MailAccountService {
	return &MailAccountService{db: db}
}

func (s *MailAccountService) List(ctx context.Context, userID string) ([]model.MailAccount, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+mailAccountColumns+` FROM mail_accounts WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list mail accounts: %w", err)
	}
	defer rows.Close()

	accounts := []model.MailAccount{}
	for rows.Next() {
		a, err := scanMailAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mail account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (s *MailAccountService) Get(ctx context.Context, userID, id string) (*model.MailAccount, error) {
	a, err := scanMailAccount(s.db.QueryRow(ctx,
		`SELECT `+mailAccountColumns+` FROM mail_accounts WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, rowError(err, "mail account", id)
	}
	return a, nil
}

func (s *MailAccountService) Create(ctx context.Context, a *model.MailAccount) (*model.MailAccount, error) {
	if strings.TrimSpace(a.Provider) == "" {
		return nil, invalid("provider is required")
	}
	if !strings.Contains(a.EmailAddress, "@") {
		return nil, invalid("email_address must be an email address")
	}
	for _, port := range []*int32{a.IMAPPort, a.SMTPPort} {
		if port != nil && (*port <= 0 || *port > 65535) {
			return nil, invalid("ports must be between 1 and 65535")
		}
	}
	if a.ID == "" {
		a.ID = platform.NewID()
	}

	out, err := scanMailAccount(s.db.QueryRow(ctx,
		`INSERT INTO mail_accounts (id, user_id, provider, email_address, display_name, imap_host, imap_port, smtp_host, smtp_port, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+mailAccountColumns,
		a.ID, a.UserID, a.Provider, a.EmailAddress, a.DisplayName, a.IMAPHost, a.IMAPPort, a.SMTPHost, a.SMTPPort, a.IsActive))
	if err != nil {
		return nil, fmt.Errorf("create mail account: %w", err)
	}
	return out, nil
}

// MarkSynced stamps last_synced_at with the current time.
func (s *MailAccountService) MarkSynced(ctx context.Context, userID, id string) (*model.MailAccount, error) {
	a, err := scanMailAccount(s.db.QueryRow(ctx,
		`UPDATE mail_accounts SET last_synced_at = now(), updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+mailAccountColumns, id, userID))
	if err != nil {
		return nil, rowError(err, "mail account", id)
	}
	return a, nil
}

// Delete removes the account and, by cascade, its emails.
func (s *MailAccountService) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM mail_accounts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete mail account %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mail account %s: %w", id, ErrNotFound)
	}
	return nil
}

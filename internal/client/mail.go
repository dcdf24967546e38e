package client

import (
	"context"
	"net/url"
	"strconv"

	"github.com/edvin/unihub/internal/api/request"
	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/realtime"
)

type accountEnvelope struct {
	Account *model.MailAccount `json:"account"`
}

type emailEnvelope struct {
	Email *model.Email `json:"email"`
}

// MailAccounts lists the caller's connected mail accounts.
func (c *Client) MailAccounts(ctx context.Context) ([]model.MailAccount, error) {
	return fetchAs(ctx, c.cache, queryKey(realtime.KeyMailAccounts, "list"), func(ctx context.Context) ([]model.MailAccount, error) {
		var resp struct {
			Accounts []model.MailAccount `json:"accounts"`
		}
		if err := c.Get(ctx, "/mail/accounts", &resp); err != nil {
			return nil, err
		}
		return resp.Accounts, nil
	})
}

func (c *Client) CreateMailAccount(ctx context.Context, in request.CreateMailAccount) (*model.MailAccount, error) {
	var resp accountEnvelope
	if err := c.Post(ctx, "/mail/accounts", in, &resp); err != nil {
		return nil, err
	}
	c.invalidate(realtime.KeyMailAccounts)
	return resp.Account, nil
}

// SyncMailAccount stamps the account as synced.
func (c *Client) SyncMailAccount(ctx context.Context, id string) (*model.MailAccount, error) {
	var resp accountEnvelope
	if err := c.Post(ctx, "/mail/accounts/"+escape(id)+"/sync", nil, &resp); err != nil {
		return nil, err
	}
	c.invalidate(realtime.KeyMailAccounts, realtime.KeyEmails)
	return resp.Account, nil
}

// DeleteMailAccount removes the account and, with it, its emails.
func (c *Client) DeleteMailAccount(ctx context.Context, id string) error {
	if err := c.Delete(ctx, "/mail/accounts/"+escape(id), nil); err != nil {
		return err
	}
	c.invalidate(realtime.KeyMailAccounts, realtime.KeyEmails, realtime.KeyStats)
	return nil
}

// EmailQuery filters and pages Emails.
type EmailQuery struct {
	AccountID  string
	Folder     string
	UnreadOnly bool
	Limit      int
	Cursor     string
}

func (q EmailQuery) values() url.Values {
	v := url.Values{}
	if q.AccountID != "" {
		v.Set("account_id", q.AccountID)
	}
	if q.Folder != "" {
		v.Set("folder", q.Folder)
	}
	if q.UnreadOnly {
		v.Set("unread", "true")
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Cursor != "" {
		v.Set("cursor", q.Cursor)
	}
	return v
}

// EmailPage is one page of Emails. Pass NextCursor back as EmailQuery.Cursor
// while HasMore is true.
type EmailPage struct {
	Emails     []model.Email `json:"emails"`
	NextCursor string        `json:"next_cursor,omitempty"`
	HasMore    bool          `json:"has_more"`
}

// Emails lists messages newest first.
func (c *Client) Emails(ctx context.Context, q EmailQuery) (*EmailPage, error) {
	params := q.values()
	key := queryKey(realtime.KeyEmails, "list", params.Encode())
	return fetchAs(ctx, c.cache, key, func(ctx context.Context) (*EmailPage, error) {
		var page EmailPage
		if err := c.Get(ctx, withQuery("/mail/emails", params), &page); err != nil {
			return nil, err
		}
		return &page, nil
	})
}

func (c *Client) Email(ctx context.Context, id string) (*model.Email, error) {
	key := queryKey(realtime.KeyEmails, "detail", id)
	return fetchAs(ctx, c.cache, key, func(ctx context.Context) (*model.Email, error) {
		var resp emailEnvelope
		if err := c.Get(ctx, "/mail/emails/"+escape(id), &resp); err != nil {
			return nil, err
		}
		return resp.Email, nil
	})
}

func (c *Client) CreateEmail(ctx context.Context, in request.CreateEmail) (*model.Email, error) {
	var resp emailEnvelope
	if err := c.Post(ctx, "/mail/emails", in, &resp); err != nil {
		return nil, err
	}
	c.invalidate(realtime.KeyEmails, realtime.KeyStats)
	return resp.Email, nil
}

// SetEmailRead marks the message read or unread.
func (c *Client) SetEmailRead(ctx context.Context, id string, read bool) (*model.Email, error) {
	var resp emailEnvelope
	if err := c.Post(ctx, "/mail/emails/"+escape(id)+"/read", request.SetRead{IsRead: &read}, &resp); err != nil {
		return nil, err
	}
	c.invalidate(realtime.KeyEmails, realtime.KeyStats)
	return resp.Email, nil
}

// ToggleStar flips the message's starred flag.
func (c *Client) ToggleStar(ctx context.Context, id string) (*model.Email, error) {
	var resp emailEnvelope
	if err := c.Post(ctx, "/mail/emails/"+escape(id)+"/star", nil, &resp); err != nil {
		return nil, err
	}
	c.invalidate(realtime.KeyEmails)
	return resp.Email, nil
}

func (c *Client) DeleteEmail(ctx context.Context, id string) error {
	if err := c.Delete(ctx, "/mail/emails/"+escape(id), nil); err != nil {
		return err
	}
	c.invalidate(realtime.KeyEmails, realtime.KeyStats)
	return nil
}

package client

import (
	"context"
	"net/url"

	"github.com/edvin/unihub/internal/api/request"
	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/realtime"
)

// ContactQuery filters Contacts.
type ContactQuery struct {
	FavoritesOnly bool
	Query         string
}

func (q ContactQuery) values() url.Values {
	v := url.Values{}
	if q.FavoritesOnly {
		v.Set("favorite", "true")
	}
	if q.Query != "" {
		v.Set("q", q.Query)
	}
	return v
}

type contactEnvelope struct {
	Contact *model.Contact `json:"contact"`
}

// Contacts lists the caller's contacts.
func (c *Client) Contacts(ctx context.Context, q ContactQuery) ([]model.Contact, error) {
	params := q.values()
	key := queryKey(realtime.KeyContacts, "list", params.Encode())
	return fetchAs(ctx, c.cache, key, func(ctx context.Context) ([]model.Contact, error) {
		var resp struct {
			Contacts []model.Contact `json:"contacts"`
		}
		if err := c.Get(ctx, withQuery("/contacts", params), &resp); err != nil {
			return nil, err
		}
		return resp.Contacts, nil
	})
}

func (c *Client) Contact(ctx context.Context, id string) (*model.Contact, error) {
	key := queryKey(realtime.KeyContacts, "detail", id)
	return fetchAs(ctx, c.cache, key, func(ctx context.Context) (*model.Contact, error) {
		var resp contactEnvelope
		if err := c.Get(ctx, "/contacts/"+escape(id), &resp); err != nil {
			return nil, err
		}
		return resp.Contact, nil
	})
}

func (c *Client) CreateContact(ctx context.Context, in request.CreateContact) (*model.Contact, error) {
	return c.contactMutation(func(resp *contactEnvelope) error {
		return c.Post(ctx, "/contacts", in, resp)
	})
}

func (c *Client) UpdateContact(ctx context.Context, id string, in request.UpdateContact) (*model.Contact, error) {
	return c.contactMutation(func(resp *contactEnvelope) error {
		return c.Put(ctx, "/contacts/"+escape(id), in, resp)
	})
}

// ToggleFavorite flips the contact's favorite flag.
func (c *Client) ToggleFavorite(ctx context.Context, id string) (*model.Contact, error) {
	return c.contactMutation(func(resp *contactEnvelope) error {
		return c.Post(ctx, "/contacts/"+escape(id)+"/favorite", nil, resp)
	})
}

func (c *Client) DeleteContact(ctx context.Context, id string) error {
	if err := c.Delete(ctx, "/contacts/"+escape(id), nil); err != nil {
		return err
	}
	c.invalidate(realtime.KeyContacts, realtime.KeyStats)
	return nil
}

func (c *Client) contactMutation(send func(*contactEnvelope) error) (*model.Contact, error) {
	var resp contactEnvelope
	if err := send(&resp); err != nil {
		return nil, err
	}
	c.invalidate(realtime.KeyContacts, realtime.KeyStats)
	return resp.Contact, nil
}

package client

import (
	"context"
	"io"
	"net/http"

	"github.com/edvin/unihub/internal/api/request"
	"github.com/edvin/unihub/internal/core"
	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/realtime"
)

type userEnvelope struct {
	User *model.User `json:"user"`
}

// SignIn exchanges credentials for a session. It does not change the
// client's token; Session does that.
func (c *Client) SignIn(ctx context.Context, email, password string) (*core.Session, error) {
	var sess core.Session
	if err := c.Post(ctx, "/auth/signin", request.SignIn{Email: email, Password: password}, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// SignUp registers an account and returns its first session.
func (c *Client) SignUp(ctx context.Context, email, password string, fullName *string) (*core.Session, error) {
	var sess core.Session
	in := request.SignUp{Email: email, Password: password, FullName: fullName}
	if err := c.Post(ctx, "/auth/signup", in, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// SignOut revokes the current token on the server.
func (c *Client) SignOut(ctx context.Context) error {
	return c.Post(ctx, "/auth/signout", nil, nil)
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	return fetchAs(ctx, c.cache, queryKey(realtime.KeyMe), func(ctx context.Context) (*model.User, error) {
		var resp userEnvelope
		if err := c.Get(ctx, "/auth/me", &resp); err != nil {
			return nil, err
		}
		return resp.User, nil
	})
}

func (c *Client) UpdateProfile(ctx context.Context, in request.UpdateProfile) (*model.User, error) {
	var resp userEnvelope
	if err := c.Put(ctx, "/auth/me", in, &resp); err != nil {
		return nil, err
	}
	c.invalidate(realtime.KeyMe)
	return resp.User, nil
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.Put(ctx, "/auth/me/password", request.ChangePassword{CurrentPassword: current, NewPassword: next}, nil)
}

// UploadAvatar replaces the caller's avatar with the image read from body.
func (c *Client) UploadAvatar(ctx context.Context, contentType string, body io.Reader) (*model.User, error) {
	resp, err := c.Raw(ctx, http.MethodPut, "/auth/me/avatar", contentType, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var out userEnvelope
	if err := decodeJSON(resp.Body, &out); err != nil {
		return nil, err
	}
	c.invalidate(realtime.KeyMe)
	return out.User, nil
}

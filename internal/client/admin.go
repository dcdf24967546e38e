package client

import (
	"context"

	"github.com/edvin/unihub/internal/api/request"
	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/realtime"
)

// Users lists every account. Admin only.
func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	return fetchAs(ctx, c.cache, queryKey(realtime.KeyAdminUsers), func(ctx context.Context) ([]model.User, error) {
		var resp struct {
			Users []model.User `json:"users"`
		}
		if err := c.Get(ctx, "/admin/users", &resp); err != nil {
			return nil, err
		}
		return resp.Users, nil
	})
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if err := c.Delete(ctx, "/admin/users/"+escape(id), nil); err != nil {
		return err
	}
	c.invalidate(realtime.KeyAdminUsers)
	return nil
}

// SetUserActive activates or deactivates an account.
func (c *Client) SetUserActive(ctx context.Context, id string, active bool) (*model.User, error) {
	return c.userMutation(ctx, "/admin/users/"+escape(id)+"/activate", request.SetActive{IsActive: &active})
}

func (c *Client) SetUserRole(ctx context.Context, id string, role model.Role) (*model.User, error) {
	return c.userMutation(ctx, "/admin/users/"+escape(id)+"/role", request.SetRole{Role: string(role)})
}

// SetUserPassword resets another user's password.
func (c *Client) SetUserPassword(ctx context.Context, id, password string) error {
	return c.Put(ctx, "/admin/users/"+escape(id)+"/password", request.SetPassword{NewPassword: password}, nil)
}

func (c *Client) userMutation(ctx context.Context, path string, body any) (*model.User, error) {
	var resp userEnvelope
	if err := c.Put(ctx, path, body, &resp); err != nil {
		return nil, err
	}
	c.invalidate(realtime.KeyAdminUsers)
	return resp.User, nil
}

type signupModeEnvelope struct {
	SignupMode model.SignupMode `json:"signup_mode"`
}

// SignupMode reports whether new accounts may register.
func (c *Client) SignupMode(ctx context.Context) (model.SignupMode, error) {
	return fetchAs(ctx, c.cache, queryKey(realtime.KeyAdminSignup), func(ctx context.Context) (model.SignupMode, error) {
		var resp signupModeEnvelope
		if err := c.Get(ctx, "/admin/settings/signup-mode", &resp); err != nil {
			return "", err
		}
		return resp.SignupMode, nil
	})
}

func (c *Client) SetSignupMode(ctx context.Context, mode model.SignupMode) (model.SignupMode, error) {
	var resp signupModeEnvelope
	if err := c.Put(ctx, "/admin/settings/signup-mode", request.SetSignupMode{SignupMode: string(mode)}, &resp); err != nil {
		return "", err
	}
	c.invalidate(realtime.KeyAdminSignup)
	return resp.SignupMode, nil
}

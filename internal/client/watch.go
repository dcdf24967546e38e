package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/edvin/unihub/internal/realtime"
)

// ErrNoToken is returned by calls that need a signed-in client.
var ErrNoToken = errors.New("client has no token")

// Watch streams invalidation notices from the server and applies each one
// to the cache. fn, when set, sees every notice after it has been applied.
// Watch returns nil once ctx is cancelled or the server closes normally.
func (c *Client) Watch(ctx context.Context, fn func(realtime.Notice)) error {
	tok := c.Token()
	if tok == "" {
		return ErrNoToken
	}
	wsURL, err := c.watchURL(tok)
	if err != nil {
		return err
	}

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial realtime: %w", err)
	}
	defer conn.CloseNow()
	c.logger.Debug().Str("url", c.baseURL).Msg("realtime connected")

	for {
		var n realtime.Notice
		if err := wsjson.Read(ctx, conn, &n); err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("read realtime notice: %w", err)
		}
		for _, key := range n.Keys {
			c.cache.Invalidate(realtime.SplitKey(key))
		}
		c.logger.Debug().Strs("keys", n.Keys).Msg("applied invalidation notice")
		if fn != nil {
			fn(n)
		}
	}
}

func (c *Client) watchURL(token string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}

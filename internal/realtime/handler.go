package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/edvin/unihub/internal/api/response"
	"github.com/edvin/unihub/internal/core"
)

// Authenticator resolves an Authorization header to a caller.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*core.Identity, error)
}

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Handler upgrades authenticated requests to a WebSocket that streams the
// caller's notices. Browsers cannot set headers on a WebSocket handshake, so
// the token travels in the token query parameter.
type Handler struct {
	hub  *Hub
	auth Authenticator
}

func NewHandler(hub *Hub, auth Authenticator) *Handler {
	return &Handler{hub: hub, auth: auth}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		response.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := h.auth.Authenticate(r.Context(), "Bearer "+token)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	if !id.User.IsActive {
		response.WriteError(w, http.StatusForbidden, "account pending approval")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return // Accept already wrote the HTTP error
	}
	defer conn.CloseNow()

	sub := h.hub.Subscribe(id.User.ID)
	defer sub.Close()

	logger := zerolog.Ctx(r.Context())
	logger.Debug().Str("user_id", id.User.ID).Msg("realtime subscriber connected")

	// The client never sends data; CloseRead handles control frames and
	// cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())
	if err := stream(ctx, conn, sub); err != nil && ctx.Err() == nil {
		logger.Debug().Err(err).Msg("realtime stream ended")
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func stream(ctx context.Context, conn *websocket.Conn, sub *Subscription) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-sub.C:
			if !ok {
				return nil
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, conn, n)
			cancel()
			if err != nil {
				return err
			}
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

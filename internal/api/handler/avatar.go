package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/edvin/unihub/internal/api/response"
	"github.com/edvin/unihub/internal/core"
	"github.com/edvin/unihub/internal/realtime"
	"github.com/edvin/unihub/internal/storage"
)

// AvatarStore persists avatar images and returns their public URL.
type AvatarStore interface {
	Put(ctx context.Context, userID, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, url string) error
}

type Avatar struct {
	store AvatarStore
	users *core.UserService
	pub   Publisher
}

// NewAvatar returns an avatar handler. A nil store disables uploads.
func NewAvatar(store AvatarStore, users *core.UserService, pub Publisher) *Avatar {
	return &Avatar{store: store, users: users, pub: pub}
}

// Upload stores the request body as the caller's avatar.
//
//	@Summary      Upload avatar
//	@Description  Raw image body (png, jpeg, gif or webp, at most 2 MiB). The previous uploaded avatar is removed.
//	@Tags         Profile
//	@Accept       image/png,image/jpeg,image/gif,image/webp
//	@Produce      json
//	@Success      200  {object}  userResponse
//	@Failure      413  {object}  response.ErrorResponse
//	@Failure      415  {object}  response.ErrorResponse
//	@Failure      503  {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /auth/me/avatar [put]
func (h *Avatar) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	if h.store == nil {
		response.WriteError(w, http.StatusServiceUnavailable, "avatar storage is not configured")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, storage.MaxAvatarBytes+1))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "could not read request body")
		return
	}
	if len(body) == 0 {
		response.WriteError(w, http.StatusBadRequest, "image body is required")
		return
	}
	if len(body) > storage.MaxAvatarBytes {
		response.WriteError(w, http.StatusRequestEntityTooLarge, "avatar must be at most 2 MiB")
		return
	}

	contentType, _, _ := strings.Cut(r.Header.Get("Content-Type"), ";")
	url, err := h.store.Put(r.Context(), id.User.ID, strings.TrimSpace(contentType), bytes.NewReader(body), int64(len(body)))
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			response.WriteError(w, http.StatusUnsupportedMediaType, "avatar must be a png, jpeg, gif or webp image")
			return
		}
		response.WriteInternalError(w, r, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), id.User.ID, nil, &url)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	if old := id.User.AvatarURL; old != nil && *old != url {
		if err := h.store.Delete(r.Context(), *old); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("failed to remove previous avatar")
		}
	}
	notify(h.pub, id.User.ID, realtime.KeyMe)
	response.WriteJSON(w, http.StatusOK, userResponse{User: user})
}

package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/unihub/internal/core"
	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/storage"
)

type fakeAvatarStore struct {
	puts    []string
	deleted []string
}

func (f *fakeAvatarStore) Put(_ context.Context, userID, contentType string, body io.Reader, size int64) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: %q", storage.ErrUnsupportedType, contentType)
	}
	b, _ := io.ReadAll(body)
	f.puts = append(f.puts, string(b))
	return "https://cdn.example.com/avatars/" + userID + "/new.png", nil
}

func (f *fakeAvatarStore) Delete(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

func avatarRequest(body []byte, contentType string, user *model.User) *http.Request {
	r := httptest.NewRequest(http.MethodPut, "/auth/me/avatar", bytes.NewReader(body))
	r.Header.Set("Content-Type", contentType)
	return withIdentity(r, user)
}

func TestAvatarUpload_NotConfigured(t *testing.T) {
	h := NewAvatar(nil, nil, nil)
	rec := httptest.NewRecorder()

	h.Upload(rec, avatarRequest([]byte("png"), "image/png", &model.User{ID: "u1", IsActive: true}))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAvatarUpload_Unauthenticated(t *testing.T) {
	h := NewAvatar(&fakeAvatarStore{}, nil, nil)
	rec := httptest.NewRecorder()

	h.Upload(rec, httptest.NewRequest(http.MethodPut, "/auth/me/avatar", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAvatarUpload_EmptyBody(t *testing.T) {
	h := NewAvatar(&fakeAvatarStore{}, nil, nil)
	rec := httptest.NewRecorder()

	h.Upload(rec, avatarRequest(nil, "image/png", &model.User{ID: "u1", IsActive: true}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvatarUpload_TooLarge(t *testing.T) {
	store := &fakeAvatarStore{}
	h := NewAvatar(store, nil, nil)
	rec := httptest.NewRecorder()

	h.Upload(rec, avatarRequest(make([]byte, storage.MaxAvatarBytes+1), "image/png", &model.User{ID: "u1", IsActive: true}))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, store.puts)
}

func TestAvatarUpload_UnsupportedType(t *testing.T) {
	h := NewAvatar(&fakeAvatarStore{}, nil, nil)
	rec := httptest.NewRecorder()

	h.Upload(rec, avatarRequest([]byte("<svg/>"), "text/html; charset=utf-8", &model.User{ID: "u1", IsActive: true}))

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestAvatarUpload_ReplacesPrevious(t *testing.T) {
	store := &fakeAvatarStore{}
	db := &handlerMockDB{}
	pub := &recordingPublisher{}
	newURL := "https://cdn.example.com/avatars/u1/new.png"
	db.On("QueryRow", mock.Anything, mock.Anything, mock.MatchedBy(func(args []any) bool {
		u, ok := args[2].(*string)
		return args[0] == "u1" && ok && *u == newURL
	})).Return(userRow(model.User{ID: "u1", AvatarURL: &newURL, Role: model.RoleUser, IsActive: true})).Once()

	h := NewAvatar(store, core.NewUserService(db), pub)
	rec := httptest.NewRecorder()
	old := "https://cdn.example.com/avatars/u1/old.png"

	h.Upload(rec, avatarRequest([]byte("png-bytes"), "image/png", &model.User{ID: "u1", AvatarURL: &old, IsActive: true}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), newURL)
	assert.Equal(t, []string{"png-bytes"}, store.puts)
	assert.Equal(t, []string{old}, store.deleted)
	assert.Equal(t, []notice{{UserID: "u1", Keys: []string{"me"}}}, pub.notices)
	db.AssertExpectations(t)
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/unihub/internal/core"
	"github.com/edvin/unihub/internal/model"
)

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) Authenticate(ctx context.Context, header string) (*core.Identity, error) {
	args := m.Called(ctx, header)
	id, _ := args.Get(0).(*core.Identity)
	return id, args.Error(1)
}

func identityFor(u model.User) *core.Identity {
	return &core.Identity{User: &u}
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestIdentity_NoHeaderSkipsLookup(t *testing.T) {
	auth := &mockAuth{}
	var seen *core.Identity
	h := Identity(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetIdentity(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/stats", nil))

	assert.Nil(t, seen)
	auth.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
}

func TestIdentity_StoresCaller(t *testing.T) {
	auth := &mockAuth{}
	auth.On("Authenticate", mock.Anything, "Bearer good").Return(identityFor(model.User{ID: "user-1", IsActive: true}), nil)

	var userID string
	h := Identity(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID = UserID(r.Context())
	}))

	r := httptest.NewRequest("GET", "/api/stats", nil)
	r.Header.Set("Authorization", "Bearer good")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "user-1", userID)
}

func TestIdentity_BadTokenContinuesAnonymously(t *testing.T) {
	auth := &mockAuth{}
	auth.On("Authenticate", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("%w: token expired", core.ErrUnauthorized))

	called := false
	var seen *core.Identity
	h := Identity(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen = GetIdentity(r.Context())
	}))

	r := httptest.NewRequest("GET", "/health", nil)
	r.Header.Set("Authorization", "Bearer bad")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.True(t, called)
	assert.Nil(t, seen)
}

func TestIdentity_LookupFailureIsInternalError(t *testing.T) {
	auth := &mockAuth{}
	auth.On("Authenticate", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	called := false
	h := Identity(auth)(okHandler(&called))

	r := httptest.NewRequest("GET", "/contacts", nil)
	r.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.False(t, called)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal Server Error", body["error"])
}

func TestRequireUser_NoIdentity(t *testing.T) {
	called := false
	rec := httptest.NewRecorder()
	RequireUser(okHandler(&called)).ServeHTTP(rec, httptest.NewRequest("GET", "/contacts", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", errorBody(t, rec))
	assert.False(t, called)
}

func TestRequireUser_Inactive(t *testing.T) {
	called := false
	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/contacts", nil)
	r = r.WithContext(WithIdentity(r.Context(), identityFor(model.User{ID: "u", IsActive: false})))

	RequireUser(okHandler(&called)).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "account pending approval", errorBody(t, rec))
	assert.False(t, called)
}

func TestRequireUser_Active(t *testing.T) {
	called := false
	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/contacts", nil)
	r = r.WithContext(WithIdentity(r.Context(), identityFor(model.User{ID: "u", IsActive: true})))

	RequireUser(okHandler(&called)).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestRequireAuthenticated_AllowsInactive(t *testing.T) {
	called := false
	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/auth/me", nil)
	r = r.WithContext(WithIdentity(r.Context(), identityFor(model.User{ID: "u", IsActive: false})))

	RequireAuthenticated(okHandler(&called)).ServeHTTP(rec, r)

	assert.True(t, called)

	rec = httptest.NewRecorder()
	called = false
	RequireAuthenticated(okHandler(&called)).ServeHTTP(rec, httptest.NewRequest("GET", "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name   string
		user   *model.User
		status int
		msg    string
	}{
		{"anonymous", nil, http.StatusUnauthorized, "Unauthorized"},
		{"regular user", &model.User{ID: "u", Role: model.RoleUser, IsActive: true}, http.StatusForbidden, "admin access required"},
		{"inactive admin", &model.User{ID: "a", Role: model.RoleAdmin, IsActive: false}, http.StatusForbidden, "account pending approval"},
		{"admin", &model.User{ID: "a", Role: model.RoleAdmin, IsActive: true}, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			rec := httptest.NewRecorder()
			r := httptest.NewRequest("GET", "/admin/users", nil)
			if tt.user != nil {
				r = r.WithContext(WithIdentity(r.Context(), identityFor(*tt.user)))
			}

			RequireAdmin(okHandler(&called)).ServeHTTP(rec, r)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.status == http.StatusOK, called)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, errorBody(t, rec))
			}
		})
	}
}

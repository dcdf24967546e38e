package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mw "github.com/edvin/unihub/internal/api/middleware"
	"github.com/edvin/unihub/internal/config"
	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/token"
)

// fakeDB answers the handful of statements the routing tests reach.
type fakeDB struct {
	users   map[string]model.User
	pingErr error
	authErr error
}

type row struct {
	vals []any
	err  error
}

func (r row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.vals[i]))
	}
	return nil
}

func (f *fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	switch {
	case strings.Contains(sql, "revoked_tokens"):
		if f.authErr != nil {
			return row{err: f.authErr}
		}
		return row{vals: []any{false}}
	case strings.Contains(sql, "FROM users WHERE id"):
		u, ok := f.users[args[0].(string)]
		if !ok {
			return row{err: pgx.ErrNoRows}
		}
		return row{vals: []any{u.ID, u.Email, u.PasswordHash, u.FullName, u.AvatarURL, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt}}
	case strings.Contains(sql, "count(*)"):
		return row{vals: []any{3, 2, 1}}
	}
	return row{err: pgx.ErrNoRows}
}

func (f *fakeDB) Ping(context.Context) error { return f.pingErr }

type testServer struct {
	*Server
	codec *token.Codec
	db    *fakeDB
}

func newTestServer(t *testing.T, limiter *mw.IPRateLimiter) *testServer {
	t.Helper()
	codec, err := token.New(token.ModeUnsigned, "", "unihub-test")
	require.NoError(t, err)

	db := &fakeDB{users: map[string]model.User{
		"active":  {ID: "active", Email: "a@example.com", Role: model.RoleUser, IsActive: true},
		"pending": {ID: "pending", Email: "p@example.com", Role: model.RoleUser, IsActive: false},
		"admin":   {ID: "admin", Email: "root@example.com", Role: model.RoleAdmin, IsActive: true},
	}}
	cfg := &config.Config{
		CORSOrigins:       []string{"*"},
		TokenTTL:          time.Hour,
		MetricsEnabled:    true,
		DefaultSignupMode: "open",
	}
	s := NewServer(zerolog.Nop(), Deps{DB: db, Codec: codec, Limiter: limiter}, cfg)
	return &testServer{Server: s, codec: codec, db: db}
}

func (s *testServer) do(t *testing.T, method, target, userID string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, target, nil)
	if userID != "" {
		tok, _, err := s.codec.Issue(userID, "", time.Hour)
		require.NoError(t, err)
		r.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, r)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestReadyz(t *testing.T) {
	s := newTestServer(t, nil)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/readyz", "").Code)

	s.db.pingErr = errors.New("connection refused")
	rec := s.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	s := newTestServer(t, nil)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/nope"},
		{http.MethodPatch, "/contacts"},
		{http.MethodDelete, "/health"},
	} {
		rec := s.do(t, tc.method, tc.path, "active")
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.method+" "+tc.path)
		assert.Equal(t, "Not Found", errorOf(t, rec))
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
}

func TestPreflight(t *testing.T) {
	s := newTestServer(t, nil)
	r := httptest.NewRequest(http.MethodOptions, "/contacts", nil)
	r.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestUserRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, nil)
	for _, path := range []string{"/api/stats", "/contacts", "/calendar/events", "/mail/emails", "/auth/me"} {
		rec := s.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "Unauthorized", errorOf(t, rec))
	}
}

func TestUnknownSubjectIsUnauthorized(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/api/stats", "deleted-user")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdentityLookupFailureIsInternalError(t *testing.T) {
	s := newTestServer(t, nil)
	s.db.authErr = errors.New("connection refused")

	rec := s.do(t, http.MethodGet, "/api/stats", "active")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", errorOf(t, rec))

	// Anonymous requests never reach the database.
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", "").Code)
}

func TestStatsThroughRouter(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/api/stats", "active")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"contacts":3,"upcomingEvents":2,"unreadEmails":1}`, rec.Body.String())
}

func TestPendingAccount(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/auth/me", "pending")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_active":false`)

	rec = s.do(t, http.MethodGet, "/api/stats", "pending")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "account pending approval", errorOf(t, rec))
}

func TestAdminGate(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/admin/settings/signup-mode", "active")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "admin access required", errorOf(t, rec))

	rec = s.do(t, http.MethodGet, "/admin/settings/signup-mode", "admin")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"signup_mode":"open"}`, rec.Body.String())
}

func TestRoleComesFromDatabaseNotToken(t *testing.T) {
	s := newTestServer(t, nil)
	tok, _, err := s.codec.Issue("active", "admin", time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/admin/settings/signup-mode", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAvatarUploadWithoutStorage(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodPut, "/auth/me/avatar", "active")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthRateLimit(t *testing.T) {
	s := newTestServer(t, mw.NewIPRateLimiter(0.001, 1, time.Minute))

	first := s.do(t, http.MethodPost, "/auth/signout", "")
	assert.Equal(t, http.StatusOK, first.Code)

	second := s.do(t, http.MethodPost, "/auth/signout", "")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "rate limit exceeded", errorOf(t, second))

	// Profile reads are not throttled.
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/auth/me", "active").Code)
}

func TestOpenAPIDocument(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/docs/openapi.json", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Contains(t, doc, "paths")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, http.MethodGet, "/health", "")

	rec := s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

// Every API route is described in the OpenAPI document the MCP server reads.
func TestOpenAPIDocumentCoversRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/docs/openapi.json", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		Paths map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))

	undocumented := map[string]bool{
		"/metrics": true, "/health": true, "/healthz": true, "/readyz": true,
		"/docs/openapi.json": true, "/docs": true, "/ws": true,
	}
	err := chi.Walk(s.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if undocumented[route] {
			return nil
		}
		assert.Contains(t, doc.Paths[route], strings.ToLower(method), method+" "+route)
		return nil
	})
	require.NoError(t, err)
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"

	mw "github.com/edvin/unihub/internal/api/middleware"
	"github.com/edvin/unihub/internal/core"
	"github.com/edvin/unihub/internal/model"
)

// newRequest creates a new HTTP request with an optional JSON body.
func newRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// newRequestRaw creates a new HTTP request with a raw string body.
func newRequestRaw(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// withChiURLParam adds a chi URL parameter to the request context.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeErrorResponse parses the JSON error response body into a map.
func decodeErrorResponse(rec *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	return body
}

// decodeBody parses the JSON response body into v.
func decodeBody(rec *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(rec.Body.Bytes(), v)
}

// withUser injects an active identity for userID into the request context.
func withUser(r *http.Request, userID string) *http.Request {
	return withIdentity(r, &model.User{ID: userID, Email: userID + "@example.com", Role: model.RoleUser, IsActive: true})
}

// withAdmin injects an active admin identity into the request context.
func withAdmin(r *http.Request, userID string) *http.Request {
	return withIdentity(r, &model.User{ID: userID, Email: userID + "@example.com", Role: model.RoleAdmin, IsActive: true})
}

func withIdentity(r *http.Request, u *model.User) *http.Request {
	return r.WithContext(mw.WithIdentity(r.Context(), &core.Identity{User: u}))
}

const validID = "test-id-1"
const validID2 = "test-id-2"

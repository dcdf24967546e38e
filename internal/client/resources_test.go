package client

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/unihub/internal/api/request"
	"github.com/edvin/unihub/internal/model"
)

// fakeAPI serves canned responses and counts hits per route pattern.
type fakeAPI struct {
	mux *http.ServeMux

	mu    sync.Mutex
	hits  map[string]int
	query map[string]string
	body  map[string]map[string]any
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		mux:   http.NewServeMux(),
		hits:  map[string]int{},
		query: map[string]string{},
		body:  map[string]map[string]any{},
	}
}

func (f *fakeAPI) handle(pattern string, status int, v any) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.hits[pattern]++
		f.query[pattern] = r.URL.RawQuery
		f.body[pattern] = body
		f.mu.Unlock()
		writeJSON(w, status, v)
	})
}

func (f *fakeAPI) count(pattern string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[pattern]
}

func (f *fakeAPI) lastQuery(pattern string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.query[pattern]
}

func (f *fakeAPI) lastBody(pattern string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.body[pattern]
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) { f.mux.ServeHTTP(w, r) }

var (
	testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	success = map[string]bool{"success": true}
)

func event(id string, start time.Time) model.CalendarEvent {
	return model.CalendarEvent{ID: id, Title: id, StartTime: start, EndTime: start.Add(time.Hour), Color: model.DefaultEventColor}
}

// --- Dashboard ---

func TestStats_CachedUntilMutation(t *testing.T) {
	api := newFakeAPI()
	api.handle("GET /api/stats", http.StatusOK, model.Stats{Contacts: 3, UpcomingEvents: 2, UnreadEmails: 1})
	api.handle("POST /contacts", http.StatusCreated, map[string]any{"contact": model.Contact{ID: "c1", FirstName: "Ada"}})
	c := newTestClient(t, api)

	stats, err := c.Stats(t.Context())
	require.NoError(t, err)
	assert.Equal(t, &model.Stats{Contacts: 3, UpcomingEvents: 2, UnreadEmails: 1}, stats)

	_, err = c.Stats(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, api.count("GET /api/stats"))

	_, err = c.CreateContact(t.Context(), request.CreateContact{FirstName: "Ada"})
	require.NoError(t, err)

	_, err = c.Stats(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, api.count("GET /api/stats"))
}

func TestSearch_NotCached(t *testing.T) {
	api := newFakeAPI()
	api.handle("GET /api/search", http.StatusOK, map[string]any{"results": []map[string]string{{"type": "contact", "id": "c1", "label": "Ada"}}})
	c := newTestClient(t, api)

	for range 2 {
		results, err := c.Search(t.Context(), "ada", 3)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Ada", results[0].Label)
	}
	assert.Equal(t, 2, api.count("GET /api/search"))
	assert.Equal(t, "limit=3&q=ada", api.lastQuery("GET /api/search"))
}

// --- Calendar ---

func TestUpcomingEvents_FiltersSortsAndLimits(t *testing.T) {
	api := newFakeAPI()
	api.handle("GET /calendar/events", http.StatusOK, map[string]any{"events": []model.CalendarEvent{
		event("past", testNow.Add(-time.Hour)),
		event("third", testNow.Add(72*time.Hour)),
		event("first", testNow.Add(time.Hour)),
		event("second", testNow.Add(24*time.Hour)),
	}})
	c := newTestClient(t, api)
	c.now = func() time.Time { return testNow }

	events, err := c.UpcomingEvents(t.Context(), 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "first", events[0].ID)
	assert.Equal(t, "second", events[1].ID)
}

func TestUpcomingEvents_FewerThanLimit(t *testing.T) {
	got := upcoming([]model.CalendarEvent{event("a", testNow.Add(time.Minute))}, testNow, 3)
	assert.Len(t, got, 1)

	got = upcoming([]model.CalendarEvent{event("now", testNow)}, testNow, 3)
	require.Len(t, got, 1, "an event starting now counts as upcoming, as on the server")

	got = upcoming([]model.CalendarEvent{event("gone", testNow.Add(-time.Nanosecond))}, testNow, 3)
	assert.Empty(t, got)
}

func TestCalendarEvents_RangeQuery(t *testing.T) {
	api := newFakeAPI()
	api.handle("GET /calendar/events", http.StatusOK, map[string]any{"events": []model.CalendarEvent{}})
	c := newTestClient(t, api)

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := c.CalendarEvents(t.Context(), EventRange{From: from, To: from.AddDate(0, 1, 0)})
	require.NoError(t, err)
	assert.Equal(t, "from=2025-06-01T00%3A00%3A00Z&to=2025-07-01T00%3A00%3A00Z", api.lastQuery("GET /calendar/events"))

	// Different ranges are cached separately.
	_, err = c.CalendarEvents(t.Context(), EventRange{})
	require.NoError(t, err)
	assert.Equal(t, 2, api.count("GET /calendar/events"))
}

func TestEventMutation_InvalidatesEventsUpcomingAndStats(t *testing.T) {
	api := newFakeAPI()
	api.handle("DELETE /calendar/events/{id}", http.StatusOK, success)
	c := newTestClient(t, api)

	c.Cache().Set(queryKey("calendar-events", "list", ""), 1)
	c.Cache().Set(queryKey("upcoming-events", "3"), 2)
	c.Cache().Set(queryKey("stats"), 3)
	c.Cache().Set(queryKey("contacts", "list", ""), 4)

	require.NoError(t, c.DeleteCalendarEvent(t.Context(), "e1"))
	assert.Equal(t, 1, c.Cache().Len())
	_, ok := c.Cache().Get(queryKey("contacts", "list", ""))
	assert.True(t, ok)
}

func TestEventMutation_FailureKeepsCache(t *testing.T) {
	api := newFakeAPI()
	api.handle("PUT /calendar/events/{id}", http.StatusBadRequest, map[string]string{"error": "end_time must not be before start_time"})
	c := newTestClient(t, api)
	c.Cache().Set(queryKey("stats"), 1)

	title := "x"
	_, err := c.UpdateCalendarEvent(t.Context(), "e1", request.UpdateCalendarEvent{Title: &title})
	require.True(t, IsStatus(err, http.StatusBadRequest))
	assert.Equal(t, 1, c.Cache().Len())
}

// --- Contacts ---

func TestContacts_QueryParams(t *testing.T) {
	api := newFakeAPI()
	api.handle("GET /contacts", http.StatusOK, map[string]any{"contacts": []model.Contact{{ID: "c1", FirstName: "Ada", IsFavorite: true}}})
	c := newTestClient(t, api)

	contacts, err := c.Contacts(t.Context(), ContactQuery{FavoritesOnly: true, Query: "ad"})
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "favorite=true&q=ad", api.lastQuery("GET /contacts"))
}

func TestToggleFavorite(t *testing.T) {
	api := newFakeAPI()
	api.handle("POST /contacts/{id}/favorite", http.StatusOK, map[string]any{"contact": model.Contact{ID: "c1", IsFavorite: true}})
	c := newTestClient(t, api)

	contact, err := c.ToggleFavorite(t.Context(), "c1")
	require.NoError(t, err)
	assert.True(t, contact.IsFavorite)
	assert.Equal(t, 1, api.count("POST /contacts/{id}/favorite"))
}

// --- Mail ---

func TestEmails_Paging(t *testing.T) {
	api := newFakeAPI()
	api.handle("GET /mail/emails", http.StatusOK, EmailPage{
		Emails:     []model.Email{{ID: "m1"}, {ID: "m2"}},
		NextCursor: "m2",
		HasMore:    true,
	})
	c := newTestClient(t, api)

	page, err := c.Emails(t.Context(), EmailQuery{Folder: "inbox", UnreadOnly: true, Limit: 2})
	require.NoError(t, err)
	assert.True(t, page.HasMore)
	assert.Equal(t, "m2", page.NextCursor)
	assert.Equal(t, "folder=inbox&limit=2&unread=true", api.lastQuery("GET /mail/emails"))
}

func TestSetEmailRead_SendsFlag(t *testing.T) {
	api := newFakeAPI()
	api.handle("POST /mail/emails/{id}/read", http.StatusOK, map[string]any{"email": model.Email{ID: "m1"}})
	c := newTestClient(t, api)

	_, err := c.SetEmailRead(t.Context(), "m1", false)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"is_read": false}, api.lastBody("POST /mail/emails/{id}/read"))
}

func TestToggleStar_KeepsStats(t *testing.T) {
	api := newFakeAPI()
	api.handle("POST /mail/emails/{id}/star", http.StatusOK, map[string]any{"email": model.Email{ID: "m1", IsStarred: true}})
	c := newTestClient(t, api)
	c.Cache().Set(queryKey("stats"), 1)
	c.Cache().Set(queryKey("emails", "list", ""), 2)

	_, err := c.ToggleStar(t.Context(), "m1")
	require.NoError(t, err)
	_, ok := c.Cache().Get(queryKey("stats"))
	assert.True(t, ok)
	_, ok = c.Cache().Get(queryKey("emails", "list", ""))
	assert.False(t, ok)
}

func TestDeleteMailAccount_InvalidatesEmails(t *testing.T) {
	api := newFakeAPI()
	api.handle("DELETE /mail/accounts/{id}", http.StatusOK, success)
	c := newTestClient(t, api)
	c.Cache().Set(queryKey("mail-accounts", "list"), 1)
	c.Cache().Set(queryKey("emails", "list", ""), 2)
	c.Cache().Set(queryKey("stats"), 3)

	require.NoError(t, c.DeleteMailAccount(t.Context(), "a1"))
	assert.Equal(t, 0, c.Cache().Len())
}

// --- Admin ---

func TestSetSignupMode(t *testing.T) {
	api := newFakeAPI()
	api.handle("GET /admin/settings/signup-mode", http.StatusOK, map[string]string{"signup_mode": "open"})
	api.handle("PUT /admin/settings/signup-mode", http.StatusOK, map[string]string{"signup_mode": "approval"})
	c := newTestClient(t, api)

	mode, err := c.SignupMode(t.Context())
	require.NoError(t, err)
	assert.Equal(t, model.SignupOpen, mode)

	mode, err = c.SetSignupMode(t.Context(), model.SignupApproval)
	require.NoError(t, err)
	assert.Equal(t, model.SignupApproval, mode)
	assert.Equal(t, map[string]any{"signup_mode": "approval"}, api.lastBody("PUT /admin/settings/signup-mode"))

	_, err = c.SignupMode(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, api.count("GET /admin/settings/signup-mode"))
}

func TestUsers_ForbiddenForNonAdmin(t *testing.T) {
	api := newFakeAPI()
	api.handle("GET /admin/users", http.StatusForbidden, map[string]string{"error": "admin access required"})
	c := newTestClient(t, api)

	_, err := c.Users(t.Context())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "admin access required", apiErr.Message)
}

func TestSetUserRole_InvalidatesUserList(t *testing.T) {
	api := newFakeAPI()
	api.handle("PUT /admin/users/{id}/role", http.StatusOK, map[string]any{"user": model.User{ID: "u2", Role: model.RoleAdmin}})
	c := newTestClient(t, api)
	c.Cache().Set(queryKey("admin/users"), []model.User{})

	user, err := c.SetUserRole(t.Context(), "u2", model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, user.Role)
	assert.Equal(t, 0, c.Cache().Len())
}

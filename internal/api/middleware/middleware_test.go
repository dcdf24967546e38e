package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/unihub/internal/metrics"
)

func TestCORS_Wildcard(t *testing.T) {
	called := false
	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/contacts", nil)
	r.Header.Set("Origin", "https://app.example.com")

	CORS([]string{"*"})(okHandler(&called)).ServeHTTP(rec, r)

	assert.True(t, called)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	called := false
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodOptions, "/calendar/events", nil)

	CORS([]string{"*"})(okHandler(&called)).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_AllowList(t *testing.T) {
	mw := CORS([]string{"https://app.example.com/"})

	called := false
	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Origin", "https://app.example.com")
	mw(okHandler(&called)).ServeHTTP(rec, r)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	r = httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	mw(okHandler(&called)).ServeHTTP(rec, r)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoverer(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/stats", nil)
	r = r.WithContext(logger.WithContext(r.Context()))
	h.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", errorBody(t, rec))
	assert.NotContains(t, rec.Body.String(), "kaboom")
	assert.Contains(t, buf.String(), "kaboom")
}

func TestRequestLogger_AttachesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := chimw.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside")
		w.WriteHeader(http.StatusTeapot)
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	out := buf.String()
	assert.Contains(t, out, `"message":"inside"`)
	assert.Contains(t, out, `"request_id"`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"path":"/health"`)
}

func TestMetrics_PassesThrough(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Metrics)
	router.Get("/contacts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	counter := metrics.HTTPRequests.WithLabelValues("GET", "/contacts/{id}", "404")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/contacts/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter), "labelled by route pattern, not raw path")
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(1, 2, time.Minute)
	called := false
	h := l.Middleware(okHandler(&called))

	send := func(addr string) int {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/auth/signin", nil)
		r.RemoteAddr = addr
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1111"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1:2222"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:3333"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1111"), "other clients have their own bucket")
}

func TestIPRateLimiter_Body(t *testing.T) {
	l := NewIPRateLimiter(1, 1, time.Minute)
	called := false
	h := l.Middleware(okHandler(&called))

	r := httptest.NewRequest("POST", "/auth/signin", nil)
	h.ServeHTTP(httptest.NewRecorder(), r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", errorBody(t, rec))
}

func TestIPRateLimiter_Cleanup(t *testing.T) {
	l := NewIPRateLimiter(1, 1, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.limiter("10.0.0.1")
	now = now.Add(30 * time.Second)
	l.limiter("10.0.0.2")
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, l.Cleanup())
}

func TestIPRateLimiter_EvictsOldestWhenFull(t *testing.T) {
	l := NewIPRateLimiter(1, 1, time.Minute)
	l.maxEntries = 2
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { now = now.Add(time.Second); return now }

	l.limiter("a")
	l.limiter("b")
	l.limiter("c")

	_, hasA := l.limiters["a"]
	assert.False(t, hasA)
	assert.Len(t, l.limiters, 2)
}

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/swaggo/swag"

	"github.com/edvin/unihub/internal/api/docs"
	"github.com/edvin/unihub/internal/api/handler"
	mw "github.com/edvin/unihub/internal/api/middleware"
	"github.com/edvin/unihub/internal/api/response"
	"github.com/edvin/unihub/internal/config"
	"github.com/edvin/unihub/internal/core"
	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/realtime"
	"github.com/edvin/unihub/internal/token"
)

// Database is the connection pool the server runs on. *pgxpool.Pool
// satisfies it.
type Database interface {
	core.DB
	Ping(ctx context.Context) error
}

// Deps are the collaborators a Server is built from. Avatars and Limiter are
// optional; a nil Hub is replaced with a fresh one.
type Deps struct {
	DB      Database
	Codec   *token.Codec
	Hub     *realtime.Hub
	Avatars handler.AvatarStore
	Limiter *mw.IPRateLimiter
}

type Server struct {
	router   chi.Router
	logger   zerolog.Logger
	services *core.Services
	deps     Deps
	cfg      *config.Config
}

func NewServer(logger zerolog.Logger, deps Deps, cfg *config.Config) *Server {
	if deps.Hub == nil {
		deps.Hub = realtime.NewHub()
	}
	services := core.NewServices(deps.DB, deps.Codec, cfg.TokenTTL, model.SignupMode(cfg.DefaultSignupMode))

	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		services: services,
		deps:     deps,
		cfg:      cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Services exposes the services the server was built with.
func (s *Server) Services() *core.Services {
	return s.services
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(mw.Recoverer)
	s.router.Use(mw.Metrics)
	s.router.Use(mw.CORS(s.cfg.CORSOrigins))
	s.router.Use(mw.Identity(s.services.Auth))
}

func (s *Server) setupRoutes() {
	s.router.NotFound(notFound)
	s.router.MethodNotAllowed(notFound)

	if s.cfg.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler())
	}

	// Health check endpoints
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	// API documentation (no auth required)
	s.router.Get("/docs/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			response.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(doc))
	})
	s.router.Get("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(scalarHTML))
	})

	// Realtime invalidation stream; authenticates from the token query parameter.
	s.router.Handle("/ws", realtime.NewHandler(s.deps.Hub, s.services.Auth))

	pub := s.deps.Hub

	auth := handler.NewAuth(s.services.Auth, s.services.User, pub)
	avatar := handler.NewAvatar(s.deps.Avatars, s.services.User, pub)
	s.router.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if s.deps.Limiter != nil {
				r.Use(s.deps.Limiter.Middleware)
			}
			r.Post("/signup", auth.SignUp)
			r.Post("/signin", auth.SignIn)
			r.Post("/signout", auth.SignOut)
		})

		r.With(mw.RequireAuthenticated).Get("/me", auth.Me)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireUser)
			r.Put("/me", auth.UpdateMe)
			r.Put("/me/password", auth.ChangePassword)
			r.Put("/me/avatar", avatar.Upload)
		})
	})

	s.router.Group(func(r chi.Router) {
		r.Use(mw.RequireUser)

		// Dashboard
		stats := handler.NewStats(s.services.Stats)
		r.Get("/api/stats", stats.Get)
		search := handler.NewSearch(s.services.Search)
		r.Get("/api/search", search.Search)

		// Calendar
		event := handler.NewCalendarEvent(s.services.CalendarEvent, pub)
		r.Get("/calendar/events", event.List)
		r.Post("/calendar/events", event.Create)
		r.Get("/calendar/events/upcoming", event.Upcoming)
		r.Get("/calendar/events/{id}", event.Get)
		r.Put("/calendar/events/{id}", event.Update)
		r.Delete("/calendar/events/{id}", event.Delete)

		// Contacts
		contact := handler.NewContact(s.services.Contact, pub)
		r.Get("/contacts", contact.List)
		r.Post("/contacts", contact.Create)
		r.Get("/contacts/{id}", contact.Get)
		r.Put("/contacts/{id}", contact.Update)
		r.Delete("/contacts/{id}", contact.Delete)
		r.Post("/contacts/{id}/favorite", contact.ToggleFavorite)

		// Mail accounts
		account := handler.NewMailAccount(s.services.MailAccount, pub)
		r.Get("/mail/accounts", account.List)
		r.Post("/mail/accounts", account.Create)
		r.Delete("/mail/accounts/{id}", account.Delete)
		r.Post("/mail/accounts/{id}/sync", account.Sync)

		// Emails
		email := handler.NewEmail(s.services.Email, pub)
		r.Get("/mail/emails", email.List)
		r.Post("/mail/emails", email.Create)
		r.Get("/mail/emails/{id}", email.Get)
		r.Delete("/mail/emails/{id}", email.Delete)
		r.Post("/mail/emails/{id}/read", email.SetRead)
		r.Post("/mail/emails/{id}/star", email.ToggleStar)
	})

	s.router.Route("/admin", func(r chi.Router) {
		r.Use(mw.RequireAdmin)

		admin := handler.NewAdmin(s.services.User, s.services.Settings, pub)
		r.Get("/users", admin.ListUsers)
		r.Delete("/users/{id}", admin.DeleteUser)
		r.Put("/users/{id}/activate", admin.SetActive)
		r.Put("/users/{id}/role", admin.SetRole)
		r.Put("/users/{id}/password", admin.SetPassword)
		r.Get("/settings/signup-mode", admin.GetSignupMode)
		r.Put("/settings/signup-mode", admin.SetSignupMode)
	})
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	response.WriteError(w, http.StatusNotFound, "Not Found")
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	response.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Timestamp: time.Now().UTC()})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	status := http.StatusOK

	if err := s.deps.DB.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		checks["db"] = "ok"
	}

	response.WriteJSON(w, status, checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

const scalarHTML = `<!DOCTYPE html>
<html>
<head>
  <title>UniHub API</title>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
</head>
<body>
  <script id="api-reference" data-url="/docs/openapi.json"></script>
  <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body>
</html>`

// Package api serves the learner, catalog and admin HTTP API.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abhisek/sanlang/internal/authz"
	"github.com/abhisek/sanlang/internal/config"
	"github.com/abhisek/sanlang/internal/decks"
	"github.com/abhisek/sanlang/internal/dictionary"
	"github.com/abhisek/sanlang/internal/learner"
	"github.com/abhisek/sanlang/internal/logging"
	"github.com/abhisek/sanlang/internal/mediamigrate"
	"github.com/abhisek/sanlang/internal/progress"
	"github.com/abhisek/sanlang/internal/recommend"
	"github.com/abhisek/sanlang/internal/store"
	"github.com/abhisek/sanlang/internal/stories"
	"github.com/abhisek/sanlang/internal/storygen"
	"github.com/abhisek/sanlang/internal/tokenize"
	"github.com/abhisek/sanlang/internal/vocab"
)

// Services are the domain services behind the handlers. Jobs and
// Migrator may be nil when generation or object storage is not set up;
// their endpoints then answer 503.
type Services struct {
	Store      *store.Store
	Catalog    *stories.Catalog
	Dictionary *dictionary.Service
	Learners   *learner.Service
	Progress   *progress.Service
	Recommend  *recommend.Service
	Vocab      *vocab.Service
	Decks      *decks.Service
	Jobs       *storygen.Jobs
	Migrator   *mediamigrate.Migrator
	Enforcer   *authz.Enforcer

	// Analyzer backs POST /tokenize, which answers 503 without it.
	Analyzer *tokenize.Analyzer
}

// Server is the HTTP API.
type Server struct {
	cfg     config.ServerConfig
	auth    config.AuthConfig
	svc     Services
	migrate config.MigrationConfig
	now     func() time.Time
	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithClock overrides the clock used for scheduling decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithMigrationDefaults sets the defaults for migration runs started over
// HTTP.
func WithMigrationDefaults(c config.MigrationConfig) Option {
	return func(s *Server) { s.migrate = c }
}

// NewServer builds the router.
func NewServer(cfg config.ServerConfig, auth config.AuthConfig, svc Services, opts ...Option) *Server {
	s := &Server{cfg: cfg, auth: auth, svc: svc, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) String() string { return "http-api" }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(logFormatter{}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	if s.cfg.RequestsPerMin > 0 {
		r.Use(httprate.Limit(s.cfg.RequestsPerMin, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByRealIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			}),
		))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/stories", s.listStories)
	r.Get("/stories/{id}", s.getStory)
	r.Get("/dictionary", s.lookup)
	r.Get("/dictionary/search/{query}", s.searchDictionary)
	r.Post("/tokenize", s.tokenizeText)
	r.Get("/decks", s.listDecks)

	r.Group(func(r chi.Router) {
		r.Use(authenticate([]byte(s.auth.JWTSecret), s.auth.RoleClaim))
		r.Use(authorize(s.svc.Enforcer))

		r.Route("/me", func(r chi.Router) {
			r.Get("/profile", s.getProfile)
			r.Get("/progress", s.getProgress)
			r.Post("/activity", s.recordActivity)
			r.Post("/interests", s.setInterests)
			r.Get("/recommendations/stories", s.recommendStories)
			r.Get("/recommendations/videos", s.recommendVideos)
			r.Post("/views", s.recordView)

			r.Get("/vocabulary", s.listVocabulary)
			r.Post("/vocabulary", s.addVocabulary)
			r.Get("/vocabulary/due", s.dueVocabulary)
			r.Post("/vocabulary/{id}/review", s.reviewVocabulary)

			r.Get("/decks", s.listSubscriptions)
			r.Post("/decks/{id}/subscribe", s.subscribe)
			r.Delete("/decks/{id}", s.unsubscribe)
			r.Post("/decks/{id}/activate", s.activateDeck)
			r.Post("/decks/drip", s.drip)
		})

		r.Post("/generate/story", s.generateStory)
		r.Get("/generate/status/{id}", s.generationStatus)
		r.Get("/generate/jobs", s.listJobs)
		r.Post("/generate/jobs/{id}/cancel", s.cancelJob)
		r.Post("/admin/migrations/media", s.migrateMedia)
	})
	return r
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logging.Info().Msg("http server stopped")
	return ctx.Err()
}

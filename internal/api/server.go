package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/motionai/motion-engine/internal/config"
	"github.com/motionai/motion-engine/internal/metrics"
	"github.com/motionai/motion-engine/internal/ratelimit"
)

// ServerOptions wires handlers to the engine. MQTT, Watcher, Media and Limiter
// may be nil.
type ServerOptions struct {
	Config      *config.Config
	Posts       PostStore
	DB          DatabaseChecker
	Transcriber Transcriber
	Fetcher     MediaFetcher
	Creator     PostCreator
	Queue       JobQueue
	Content     ContentGenerator
	Media       MediaStore
	MQTT        BrokerStatus
	Watcher     WatcherSource
	Limiter     ratelimit.Limiter
	Version     string
	StartTime   time.Time
	Log         zerolog.Logger
}

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

func NewServer(opts ServerOptions) *Server {
	cfg := opts.Config
	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      NewRouter(opts),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: opts.Log,
	}
}

// NewRouter builds the HTTP routing tree.
func NewRouter(opts ServerOptions) http.Handler {
	log := opts.Log
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(log))
	r.Use(CORS)
	r.Use(metrics.InstrumentHandler)

	r.Handle("/metrics", promhttp.Handler())

	health := NewHealthHandler(opts.DB, opts.MQTT, opts.Queue, opts.Watcher, opts.Version, opts.StartTime)
	transcriptions := NewTranscriptionsHandler(opts.Transcriber, opts.Fetcher, opts.Config.MaxUploadBytes, log)
	posts := NewPostsHandler(opts.Posts, opts.Creator, log)
	jobs := NewJobsHandler(opts.Queue, opts.Media, opts.Config.MaxUploadBytes, log)
	content := NewContentHandler(opts.Content, log)
	usage := NewUsageHandler(opts.Posts)

	r.Route("/api/v1", func(r chi.Router) {
		// Health endpoint: no auth
		r.Get("/health", health.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(BearerAuth(opts.Config.AuthToken))
			r.Use(UserID)

			posts.Routes(r)
			jobs.Routes(r)
			r.Get("/templates", content.Templates)
			r.Get("/usage", usage.ServeHTTP)

			// Everything that spends provider quota is rate limited per user.
			r.Group(func(r chi.Router) {
				r.Use(RateLimit(opts.Limiter))
				transcriptions.Routes(r)
				r.Post("/posts", posts.Create)
				r.Post("/jobs", jobs.Create)
				content.Routes(r)
			})
		})
	})

	return r
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}

package router

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"pet-adoption-web/internal/adapters/backend"
	mem "pet-adoption-web/internal/adapters/storage/memory"
	pg "pet-adoption-web/internal/adapters/storage/postgres"
	"pet-adoption-web/internal/config"
	"pet-adoption-web/internal/domain/adoption"
	"pet-adoption-web/internal/domain/listing"
	"pet-adoption-web/internal/domain/session"
	"pet-adoption-web/internal/handler"
	"pet-adoption-web/internal/metrics"
	"pet-adoption-web/internal/middleware"
	"pet-adoption-web/internal/platform/cache"
	"pet-adoption-web/internal/platform/logger"
	"pet-adoption-web/internal/platform/tracing"
	"pet-adoption-web/internal/render"
)

var ErrDatabaseRequired = errors.New("postgres catalog requires a database handle")

const cacheCleanupInterval = 10 * time.Minute

type Options struct {
	Config config.Config
	Log    logger.Logger

	// Opcional: si viene, se usa para métricas; si no, un registry propio.
	Registry *prometheus.Registry

	// Opcional: nil => sin spans.
	Tracer trace.Tracer

	// Requerido solo con CATALOG_SOURCE=postgres.
	DB *sql.DB

	Now func() time.Time
}

// Router es el handler HTTP más lo que hay que cerrar al apagar.
type Router struct {
	http.Handler

	gate    *session.Gate
	limiter *middleware.RateLimiter
}

// Close frena el rate limiter y espera los logouts en vuelo.
func (rt *Router) Close() {
	rt.limiter.Stop()
	if rt.gate != nil {
		rt.gate.Wait()
	}
}

func NewRouter(opts Options) (*Router, error) {
	cfg := opts.Config
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	collector := metrics.NewCollector(reg)

	// Backend REST: sesión y acciones (y el catálogo con source=api).
	var client *backend.Client
	if cfg.HasBackend() {
		c, err := backend.NewClient(backend.Config{
			BaseURL:       cfg.BackendURL,
			Timeout:       cfg.BackendTimeout,
			SessionCookie: cfg.SessionCookie,
			Tracer:        opts.Tracer,
		})
		if err != nil {
			return nil, err
		}
		client = c
	}

	source, err := catalogSource(cfg, client, opts.DB, now)
	if err != nil {
		return nil, err
	}

	views := mem.NewViewStore(
		cache.NewInMemory[listing.View]("listing_views", cfg.ViewCacheTTL, cacheCleanupInterval, log),
		cache.NewInMemory[uint64]("listing_floors", cfg.ViewCacheTTL, cacheCleanupInterval, log),
		cfg.ViewCacheTTL,
	)
	listingSvc := listing.NewService(source, views, collector)

	var (
		gate    *session.Gate
		actions *adoption.Service
	)
	if client != nil {
		sessions := cache.NewInMemory[session.State]("sessions", cfg.SessionCacheTTL, cacheCleanupInterval, log)
		gate = session.NewGate(client, sessions, cfg.SessionCacheTTL, log.With(map[string]any{"component": "session"}))
		actions = adoption.NewService(client, client, cfg.AdminEmail, collector)
	} else {
		actions = adoption.NewService(nil, nil, cfg.AdminEmail, collector)
	}

	rnd, err := render.New()
	if err != nil {
		return nil, err
	}

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:      middleware.PerMinute(cfg.RateLimitActions),
		Burst:     cfg.RateLimitBurst,
		OnLimited: collector.RecordRateLimited,
		Log:       log,
		Skip:      middleware.SkipPaths(handler.LogoutPath),
	})

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(tracing.Middleware(opts.Tracer))
	r.Use(middleware.Recover(log))
	r.Use(middleware.Logging(log, collector))
	r.Use(middleware.SecurityHeaders)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler(reg))
	r.Handle("/static/*", http.StripPrefix("/static", render.Static()))

	// Páginas: visitante, CSRF, sesión y rate limit de acciones.
	r.Group(func(pr chi.Router) {
		pr.Use(chimw.Compress(5))
		pr.Use(middleware.Visitor(cfg.CookieSecure))
		pr.Use(middleware.CSRF(middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			Log:          log,
			Exempt:       middleware.SkipPaths(handler.LogoutPath),
		}))
		pr.Use(middleware.Session(gate, cfg.SessionCookie))
		pr.Use(limiter.Middleware)

		handler.RegisterRoutes(pr, &handler.Deps{
			Listing:       listingSvc,
			Actions:       actions,
			Gate:          gate,
			Renderer:      rnd,
			Builder:       render.NewBuilder(),
			Log:           log,
			AppName:       cfg.AppName,
			LoginURL:      cfg.LoginURL,
			ContactPhone:  cfg.ContactPhone,
			SessionCookie: cfg.SessionCookie,
			CookieSecure:  cfg.CookieSecure,
		})
	})

	return &Router{Handler: r, gate: gate, limiter: limiter}, nil
}

func catalogSource(cfg config.Config, client *backend.Client, db *sql.DB, now func() time.Time) (listing.Source, error) {
	switch cfg.CatalogSource {
	case config.SourceAPI:
		if client == nil {
			return nil, config.ErrMissingBackendURL
		}
		return client, nil
	case config.SourceMemory:
		return mem.NewStaticCatalog(now()), nil
	case config.SourcePostgres:
		if db == nil {
			return nil, ErrDatabaseRequired
		}
		return pg.NewCatalog(db), nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownSource, cfg.CatalogSource)
}

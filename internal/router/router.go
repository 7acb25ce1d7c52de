package router

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"pet-adoption/docs"
	"pet-adoption/internal/adapters/storage/sqlstore"
	"pet-adoption/internal/domain/applications"
	"pet-adoption/internal/domain/medical"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/domain/reference"
	"pet-adoption/internal/domain/reports"
	"pet-adoption/internal/domain/users"
	"pet-adoption/internal/middleware"
	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/platform/metrics"
	"pet-adoption/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	TokenIssuer  auth.TokenIssuer  // nil: signup/login no emiten token

	// Opcional: si viene, usa esa base (ya migrada). Si no, SQLite en memoria.
	DB       *sql.DB
	DBDriver string

	Logger  logger.Logger    // nil: descarta logs
	Metrics *metrics.Metrics // nil: crea un registry propio

	ReportCache    reports.Cache // nil: sin cache
	ReportCacheTTL time.Duration

	AuthRateLimit float64 // requests/seg por IP en /api/auth; 0 desactiva
	AuthRateBurst int
}

func NewRouter(opts Options) (http.Handler, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	var store *sqlstore.Store
	if opts.DB != nil {
		store = sqlstore.New(opts.DB, opts.DBDriver)
	} else {
		mem, err := sqlstore.OpenMemory()
		if err != nil {
			return nil, err
		}
		log.Warn("no database configured, using in-memory sqlite", nil)
		store = mem
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))
	r.Use(middleware.RequestLogger(log))
	r.Use(m.Instrument)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/health/db", dbHealthHandler(store, log))
	r.Get("/health/cache", cacheHealthHandler(opts.ReportCache, log))
	r.Handle("/metrics", m.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Services por módulo
	refSvc := reference.NewService(store.Reference())
	petsSvc := pets.NewService(store.Pets(), refSvc)
	usersSvc := users.NewService(store.Users(), opts.TokenIssuer)
	appsSvc := applications.NewService(store.Applications(), userDirectory{svc: usersSvc}).WithRecorder(m)
	medicalSvc := medical.NewService(store.Medical(), petsSvc)
	reportsSvc := reports.NewService(store.Reports(), opts.ReportCache, opts.ReportCacheTTL, log)

	var authLimit func(http.Handler) http.Handler
	if opts.AuthRateLimit > 0 {
		authLimit = middleware.NewRateLimiter(opts.AuthRateLimit, opts.AuthRateBurst, log).Handler
	}

	// Rutas por módulo
	r.Route("/api", func(api chi.Router) {
		api.Get("/", apiInfoHandler())

		users.RegisterRoutes(api, usersSvc, authLimit, log)
		pets.RegisterRoutes(api, petsSvc, log)
		medical.RegisterRoutes(api, medicalSvc, log)
		applications.RegisterRoutes(api, appsSvc, log)
		reference.RegisterRoutes(api, refSvc, log)
		reports.RegisterRoutes(api, reportsSvc, log)
	})

	return r, nil
}

// userDirectory adapta users.Service a applications.UserDirectory.
type userDirectory struct {
	svc *users.Service
}

func (d userDirectory) EmailOf(ctx context.Context, userID string) (string, error) {
	email, err := d.svc.EmailOf(ctx, userID)
	if errors.Is(err, users.ErrNotFound) {
		return "", applications.ErrNoAccount
	}
	return email, err
}

func dbHealthHandler(store *sqlstore.Store, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			log.Error("database ping failed", map[string]any{"err": err})
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// pinger lo cumple rediscache.Cache.
type pinger interface {
	Ping(ctx context.Context) error
}

func cacheHealthHandler(cache reports.Cache, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := cache.(pinger)
		if !ok {
			// Sin cache (o sin ping) los reportes van directo a la base.
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("disabled"))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			log.Error("cache ping failed", map[string]any{"err": err})
			http.Error(w, "cache unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

func apiInfoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"` + docs.SwaggerInfo.Title + `","version":"` + docs.SwaggerInfo.Version + `","endpoints":{` +
			`"auth":"/api/auth","pets":"/api/pets","applications":"/api/applications","medical":"/api/medical",` +
			`"admin":"/api/admin","reports":"/api/reports","docs":"/swagger/index.html"}}`))
	}
}

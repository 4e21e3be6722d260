package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	custommw "finitefield.org/care-portal/internal/portal/httpserver/middleware"
	"finitefield.org/care-portal/internal/portal/login"
	"finitefield.org/care-portal/internal/portal/observability"
	"finitefield.org/care-portal/internal/portal/rbac"
	"finitefield.org/care-portal/public"
)

const (
	defaultLoginPath      = "/login"
	defaultLogoutPath     = "/logout"
	defaultRequestTimeout = 60 * time.Second
)

// Config holds runtime options for the portal HTTP server.
type Config struct {
	Address     string
	Environment string
	LoginPath   string
	LogoutPath  string

	Authenticator login.Authenticator
	Sessions      custommw.SessionStore
	Logger        *zap.Logger

	CSRFCookieName   string
	CSRFCookieSecure bool
	CSRFHeaderName   string

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

// New constructs the HTTP server with middleware stack and embedded assets.
func New(cfg Config) (*http.Server, error) {
	if cfg.Authenticator == nil {
		return nil, errors.New("httpserver: authenticator is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("httpserver: session store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.InjectLogger(logger))
	router.Use(observability.RequestLogger())
	router.Use(observability.Recoverer())
	router.Use(chimw.Timeout(timeout))

	staticContent, err := public.StaticFS()
	if err != nil {
		return nil, fmt.Errorf("httpserver: embed static: %w", err)
	}
	router.Handle("/public/static/*", http.StripPrefix("/public/static/", http.FileServer(http.FS(staticContent))))
	router.Get("/healthz", healthHandler)

	loginPath := firstNonEmpty(cfg.LoginPath, defaultLoginPath)
	logoutPath := firstNonEmpty(cfg.LogoutPath, defaultLogoutPath)

	mountPortalRoutes(router, routeOptions{
		Controller:  login.NewController(login.NewHandler(cfg.Authenticator)),
		Sessions:    cfg.Sessions,
		Environment: cfg.Environment,
		LoginPath:   loginPath,
		LogoutPath:  logoutPath,
		CSRF: custommw.CSRFConfig{
			CookieName: cfg.CSRFCookieName,
			HeaderName: cfg.CSRFHeaderName,
			Secure:     cfg.CSRFCookieSecure,
		},
	})

	return &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  durationOr(cfg.ReadTimeout, 10*time.Second),
		WriteTimeout: durationOr(cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:  durationOr(cfg.IdleTimeout, 60*time.Second),
	}, nil
}

type routeOptions struct {
	Controller  *login.Controller
	Sessions    custommw.SessionStore
	Environment string
	LoginPath   string
	LogoutPath  string
	CSRF        custommw.CSRFConfig
}

func mountPortalRoutes(router chi.Router, opts routeOptions) {
	auth := newAuthHandlers(opts.Controller, opts.LoginPath, opts.LogoutPath)
	pages := newLandingHandlers(opts.LogoutPath)

	router.Group(func(r chi.Router) {
		r.Use(custommw.Environment(opts.Environment))
		r.Use(custommw.HTMX())
		r.Use(custommw.NoStore())
		r.Use(custommw.Session(opts.Sessions))
		r.Use(custommw.CSRF(opts.CSRF))

		r.Get(opts.LoginPath, auth.LoginForm)
		r.Post(opts.LoginPath, auth.LoginSubmit)
		r.Post(opts.LogoutPath, auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(custommw.RequireUser(opts.LoginPath))

			r.With(custommw.RequireRole(rbac.RoleAdmin)).Get(rbac.AdminDashboardPath, pages.Page(rbac.RoleAdmin))
			r.With(custommw.RequireRole(rbac.RoleHealthProvider)).Get(rbac.HealthProviderDashboardPath, pages.Page(rbac.RoleHealthProvider))
			r.Get(rbac.UserProfilePath, pages.Page(rbac.RoleUser))
		})
	})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func durationOr(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}

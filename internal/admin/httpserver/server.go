package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"

	custommw "github.com/mkshin96/portfolio/internal/admin/httpserver/middleware"
	"github.com/mkshin96/portfolio/internal/admin/httpserver/ui"
	"github.com/mkshin96/portfolio/internal/admin/i18n"
	"github.com/mkshin96/portfolio/internal/admin/introductions"
	"github.com/mkshin96/portfolio/internal/admin/observability"
	"github.com/mkshin96/portfolio/internal/admin/rbac"
	appsession "github.com/mkshin96/portfolio/internal/admin/session"
	"github.com/mkshin96/portfolio/public"
)

// Config holds runtime options for the admin HTTP server.
type Config struct {
	Address     string
	BasePath    string
	LoginPath   string
	Environment string

	Authenticator    custommw.Authenticator
	Sessions         custommw.SessionStore
	CSRFCookieName   string
	CSRFCookiePath   string
	CSRFCookieSecure bool
	CSRFHeaderName   string

	Logger *zap.Logger
	I18n   *i18n.Bundle

	Introductions introductions.Service
	Editors       *introductions.EditorRegistry
	PageSize      int

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

// New constructs the HTTP server with its middleware stack and embedded assets.
func New(cfg Config) *http.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.RequestLogger(logger))
	router.Use(observability.Recoverer(logger))
	router.Use(chimw.Timeout(durationOr(cfg.RequestTimeout, 30*time.Second)))

	staticContent, err := public.StaticFS()
	if err != nil {
		logger.Fatal("embed static", zap.Error(err))
	}

	basePath := custommw.NormaliseBase(cfg.BasePath)
	if strings.TrimSpace(cfg.BasePath) == "" {
		basePath = "/admin"
	}
	loginPath := resolveLoginPath(basePath, cfg.LoginPath)

	authenticator := cfg.Authenticator
	if authenticator == nil {
		authenticator = custommw.DefaultAuthenticator()
	}
	bundle := cfg.I18n
	if bundle == nil {
		bundle, err = i18n.Load("ko")
		if err != nil {
			logger.Fatal("load i18n bundle", zap.Error(err))
		}
	}
	sessions := cfg.Sessions
	if sessions == nil {
		// Ephemeral keys: sessions do not survive a restart.
		manager, err := appsession.NewManager(appsession.Config{
			HashKey:  securecookie.GenerateRandomKey(32),
			BlockKey: securecookie.GenerateRandomKey(32),
		})
		if err != nil {
			logger.Fatal("session manager", zap.Error(err))
		}
		logger.Warn("no session store configured; using ephemeral session keys")
		sessions = manager
	}

	csrfCfg := custommw.CSRFConfig{
		CookieName: cfg.CSRFCookieName,
		CookiePath: firstNonEmpty(cfg.CSRFCookiePath, basePath),
		HeaderName: cfg.CSRFHeaderName,
		Secure:     cfg.CSRFCookieSecure,
	}

	mountAdminRoutes(router, basePath, routeOptions{
		Authenticator: authenticator,
		LoginPath:     loginPath,
		Environment:   cfg.Environment,
		CSRF:          csrfCfg,
		Sessions:      sessions,
		I18n:          bundle,
		Static:        http.FileServer(http.FS(staticContent)),
		UI: ui.NewHandlers(ui.Dependencies{
			Introductions: cfg.Introductions,
			Editors:       cfg.Editors,
			PageSize:      cfg.PageSize,
		}),
	})

	return &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  durationOr(cfg.ReadTimeout, 10*time.Second),
		WriteTimeout: durationOr(cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:  durationOr(cfg.IdleTimeout, 60*time.Second),
	}
}

type routeOptions struct {
	Authenticator custommw.Authenticator
	LoginPath     string
	Environment   string
	CSRF          custommw.CSRFConfig
	Sessions      custommw.SessionStore
	I18n          *i18n.Bundle
	Static        http.Handler
	UI            *ui.Handlers
}

func mountAdminRoutes(router chi.Router, base string, opts routeOptions) {
	authHandlers := newAuthHandlers(opts.Authenticator, base, opts.LoginPath)
	h := opts.UI

	router.Route(base, func(r chi.Router) {
		r.Handle("/public/static/*", http.StripPrefix(custommw.JoinBase(base, "/public/static/"), opts.Static))

		r.Group(func(r chi.Router) {
			r.Use(custommw.HTMX())
			r.Use(custommw.NoStore())
			r.Use(custommw.Session(opts.Sessions))
			r.Use(i18n.Middleware(opts.I18n))
			r.Use(custommw.RequestInfoMiddleware(base, opts.Environment))

			r.Group(func(r chi.Router) {
				r.Use(custommw.CSRF(opts.CSRF))
				r.Get("/login", authHandlers.LoginForm)
				r.Post("/login", authHandlers.LoginSubmit)
			})

			r.Group(func(r chi.Router) {
				r.Use(custommw.Auth(opts.Authenticator, opts.LoginPath))
				r.Use(custommw.CSRF(opts.CSRF))

				r.Get("/", h.Root)
				r.Post("/logout", authHandlers.Logout)

				r.Route("/introductions", func(r chi.Router) {
					r.Use(custommw.RequireCapability(rbac.CapIntroductionsView))

					r.Get("/", h.IntroductionsPage)
					RegisterFragment(r, "/list", h.IntroductionsList)
					RegisterFragment(r, "/{id}/panel", h.IntroductionPanel)

					r.Group(func(r chi.Router) {
						r.Use(custommw.RequireCapability(rbac.CapIntroductionsCreate))
						RegisterFragment(r, "/new", h.IntroductionNew)
						r.With(custommw.RequireHTMX()).Post("/", h.IntroductionCreate)
					})

					r.Group(func(r chi.Router) {
						r.Use(custommw.RequireCapability(rbac.CapIntroductionsEdit))
						RegisterFragment(r, "/{id}/edit", h.IntroductionEditor)
						r.With(custommw.RequireHTMX()).Patch("/editors/{token}/fields/{field}", h.IntroductionFieldChange)
						r.With(custommw.RequireHTMX()).Put("/{id}", h.IntroductionSave)
					})

					r.Group(func(r chi.Router) {
						r.Use(custommw.RequireCapability(rbac.CapIntroductionsDelete))
						RegisterFragment(r, "/{id}/delete", h.IntroductionDeleteConfirm)
						r.With(custommw.RequireHTMX()).Delete("/{id}", h.IntroductionDelete)
					})
				})
			})
		})
	})
}

func resolveLoginPath(base string, override string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	return custommw.JoinBase(base, "/login")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

// RegisterFragment registers a GET handler intended for htmx fragment rendering.
func RegisterFragment(r chi.Router, pattern string, handler http.HandlerFunc) {
	r.With(custommw.RequireHTMX()).Get(pattern, handler)
}

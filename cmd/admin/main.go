package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mkshin96/portfolio/internal/admin/config"
	"github.com/mkshin96/portfolio/internal/admin/httpserver"
	"github.com/mkshin96/portfolio/internal/admin/httpserver/middleware"
	"github.com/mkshin96/portfolio/internal/admin/i18n"
	"github.com/mkshin96/portfolio/internal/admin/introductions"
	"github.com/mkshin96/portfolio/internal/admin/observability"
	"github.com/mkshin96/portfolio/internal/admin/secrets"
	"github.com/mkshin96/portfolio/internal/admin/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", verr.Fields())
		} else {
			fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		}
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("admin")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = observability.WithLogger(ctx, logger)

	var app *firebase.App
	if cfg.Firebase.ProjectID != "" {
		app, err = firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.Firebase.ProjectID})
		if err != nil {
			logger.Fatal("failed to initialise firebase app", zap.Error(err))
		}
	}

	service, closeService, err := buildService(ctx, cfg, app)
	if err != nil {
		logger.Fatal("failed to initialise introductions store", zap.Error(err), zap.String("backend", string(cfg.Backend.Mode)))
	}
	defer closeService()

	bundle, err := i18n.Load(cfg.UI.DefaultLocale)
	if err != nil {
		logger.Fatal("failed to load locales", zap.Error(err))
	}
	logger.Info("locales loaded",
		zap.String("default", bundle.Fallback()),
		zap.Strings("supported", bundle.Supported()),
	)

	if cfg.HasSecretRefs() {
		resolver := secrets.NewResolver(cfg.Firebase.ProjectID, secrets.WithLogger(logger))
		err := resolver.ResolveAll(ctx, &cfg.Session.HashKey, &cfg.Session.BlockKey)
		_ = resolver.Close()
		if err != nil {
			logger.Fatal("failed to resolve session keys", zap.Error(err))
		}
	}

	sessions, err := buildSessions(cfg)
	if err != nil {
		logger.Fatal("failed to initialise sessions", zap.Error(err))
	}

	srv := httpserver.New(httpserver.Config{
		Address:          cfg.Server.Address,
		BasePath:         cfg.Server.BasePath,
		Environment:      cfg.Server.Environment,
		Authenticator:    buildAuthenticator(ctx, logger, app, cfg.Firebase),
		Sessions:         sessions,
		CSRFCookieName:   cfg.Session.CSRFCookie,
		CSRFCookieSecure: cfg.Session.CookieSecure,
		Logger:           logger,
		I18n:             bundle,
		Introductions:    service,
		Editors:          introductions.NewEditorRegistry(cfg.Editor.TTL),
		PageSize:         cfg.UI.PageSize,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		IdleTimeout:      cfg.Server.IdleTimeout,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("admin server listening",
			zap.String("addr", cfg.Server.Address),
			zap.String("base_path", cfg.Server.BasePath),
			zap.String("backend", string(cfg.Backend.Mode)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down admin server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("admin server stopped with error", zap.Error(err))
		closeService()
		os.Exit(1)
	}
}

func buildService(ctx context.Context, cfg config.Config, app *firebase.App) (introductions.Service, func(), error) {
	noop := func() {}
	switch cfg.Backend.Mode {
	case config.BackendHTTP:
		svc, err := introductions.NewHTTPService(cfg.Backend.APIBaseURL, &http.Client{Timeout: cfg.Backend.APITimeout})
		if err != nil {
			return nil, noop, err
		}
		return svc, noop, nil
	case config.BackendFirestore:
		if app == nil {
			return nil, noop, errors.New("firestore backend requires a firebase project")
		}
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("firestore client: %w", err)
		}
		return introductions.NewFirestoreService(client, introductions.FirestoreConfig{
			Collection: cfg.Backend.FirestoreCollection,
		}), closeFirestore(client), nil
	default:
		return introductions.NewSampleService(), noop, nil
	}
}

func closeFirestore(client *firestore.Client) func() {
	closed := false
	return func() {
		if closed {
			return
		}
		closed = true
		_ = client.Close()
	}
}

func buildSessions(cfg config.Config) (middleware.SessionStore, error) {
	hash, block, err := cfg.SessionKeys()
	if err != nil {
		return nil, err
	}
	if len(hash) == 0 {
		return nil, nil
	}
	return session.NewManager(session.Config{
		CookieName:   cfg.Session.CookieName,
		HashKey:      hash,
		BlockKey:     block,
		CookiePath:   cfg.Server.BasePath,
		CookieSecure: cfg.Session.CookieSecure,
		IdleTimeout:  cfg.Session.IdleTimeout,
		Lifetime:     cfg.Session.Lifetime,
	})
}

func buildAuthenticator(ctx context.Context, logger *zap.Logger, app *firebase.App, fbCfg config.FirebaseConfig) middleware.Authenticator {
	if app == nil {
		logger.Warn("firebase project not set; using passthrough authenticator")
		return nil
	}
	client, err := app.Auth(ctx)
	if err != nil {
		logger.Error("failed to initialise firebase auth client; using passthrough authenticator", zap.Error(err))
		return nil
	}
	var opts []middleware.FirebaseOption
	if fbCfg.RequireVerified {
		opts = append(opts, middleware.WithVerifiedEmail())
	}
	if len(fbCfg.AllowedDomains) > 0 {
		opts = append(opts, middleware.WithAllowedDomains(fbCfg.AllowedDomains...))
	}
	logger.Info("firebase authenticator enabled",
		zap.Bool("require_verified_email", fbCfg.RequireVerified),
		zap.Strings("allowed_domains", fbCfg.AllowedDomains),
	)
	return middleware.NewFirebaseAuthenticator(client, opts...)
}

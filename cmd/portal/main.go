package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"

	"finitefield.org/care-portal/internal/portal/config"
	"finitefield.org/care-portal/internal/portal/httpserver"
	"finitefield.org/care-portal/internal/portal/login"
	"finitefield.org/care-portal/internal/portal/observability"
	"finitefield.org/care-portal/internal/portal/session"
	"finitefield.org/care-portal/internal/portal/signin"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "portal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	rootCtx := context.Background()

	cfg, err := config.Load(rootCtx)
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	authenticator, err := buildAuthenticator(rootCtx, cfg, logger)
	if err != nil {
		return err
	}

	sessions, err := buildSessions(cfg.Session, logger)
	if err != nil {
		return err
	}

	srv, err := httpserver.New(httpserver.Config{
		Address:          cfg.Server.Address,
		Environment:      cfg.Server.Environment,
		Authenticator:    authenticator,
		Sessions:         sessions,
		Logger:           logger,
		CSRFCookieName:   cfg.CSRF.CookieName,
		CSRFHeaderName:   cfg.CSRF.HeaderName,
		CSRFCookieSecure: cfg.Session.CookieSecure,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		IdleTimeout:      cfg.Server.IdleTimeout,
		RequestTimeout:   cfg.Server.RequestTimeout,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	logger.Info("portal server listening",
		zap.String("addr", cfg.Server.Address),
		zap.String("environment", cfg.Server.Environment),
		zap.String("auth_mode", string(cfg.Auth.Mode)),
	)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func buildAuthenticator(ctx context.Context, cfg config.Config, logger *zap.Logger) (login.Authenticator, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeHTTP:
		svc, err := signin.NewHTTPService(cfg.Auth.Endpoint, nil, cfg.Auth.Timeout)
		if err != nil {
			return nil, err
		}
		logger.Info("http authenticator enabled", zap.String("endpoint", cfg.Auth.Endpoint))
		return svc, nil

	case config.AuthModeFirebase:
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.Firebase.ProjectID})
		if err != nil {
			return nil, fmt.Errorf("initialise firebase app: %w", err)
		}
		client, err := app.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("initialise firebase auth client: %w", err)
		}
		svc, err := signin.NewFirebaseService(signin.FirebaseConfig{
			APIKey:             cfg.Firebase.APIKey,
			Verifier:           client,
			IdentityToolkitURL: cfg.Firebase.IdentityToolkitURL,
			Client:             &http.Client{Timeout: cfg.Auth.Timeout},
		})
		if err != nil {
			return nil, err
		}
		logger.Info("firebase authenticator enabled", zap.String("project", cfg.Firebase.ProjectID))
		return svc, nil

	default:
		if cfg.Auth.DirectoryFile == "" {
			logger.Warn("PORTAL_DIRECTORY_FILE not set; every login attempt will be rejected")
			dir, err := signin.NewDirectory(nil)
			if err != nil {
				return nil, err
			}
			return dir, nil
		}
		dir, err := signin.LoadDirectoryFile(cfg.Auth.DirectoryFile)
		if err != nil {
			return nil, err
		}
		logger.Info("directory authenticator enabled",
			zap.String("file", cfg.Auth.DirectoryFile),
			zap.Int("accounts", dir.Len()),
		)
		return dir, nil
	}
}

func buildSessions(cfg config.SessionConfig, logger *zap.Logger) (*session.Manager, error) {
	hashKey, blockKey := cfg.HashKey, cfg.BlockKey
	if len(hashKey) == 0 {
		logger.Warn("PORTAL_SESSION_HASH_KEY not set; generating per-process keys, sessions will not survive a restart")
		hashKey = session.GenerateKey(32)
		blockKey = session.GenerateKey(32)
	}
	return session.NewManager(session.Config{
		CookieName:   cfg.CookieName,
		HashKey:      hashKey,
		BlockKey:     blockKey,
		CookieSecure: cfg.CookieSecure,
		IdleTimeout:  cfg.IdleTimeout,
		Lifetime:     cfg.Lifetime,
	})
}

package testutil

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"finitefield.org/care-portal/internal/portal/httpserver"
	"finitefield.org/care-portal/internal/portal/login"
	"finitefield.org/care-portal/internal/portal/session"
)

// CSRFCookieName and CSRFHeaderName are the names NewServer configures.
const (
	CSRFCookieName = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"
)

// ServerOption customises the HTTP server configuration for tests.
type ServerOption func(*httpserver.Config)

// WithAuthenticator overrides the authenticator used by the portal server.
func WithAuthenticator(auth login.Authenticator) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Authenticator = auth
	}
}

// WithLogger installs a logger, typically one backed by zaptest/observer.
func WithLogger(logger *zap.Logger) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Logger = logger
	}
}

// WithSessions overrides the session store.
func WithSessions(store *session.Manager) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Sessions = store
	}
}

// NewServer constructs an httptest server running the portal HTTP stack with
// sensible defaults. The default authenticator rejects every attempt.
func NewServer(t testing.TB, opts ...ServerOption) *httptest.Server {
	t.Helper()

	cfg := httpserver.Config{
		Address:        ":0",
		Environment:    "test",
		CSRFCookieName: CSRFCookieName,
		CSRFHeaderName: CSRFHeaderName,
		Authenticator: login.AuthenticatorFunc(func(_ context.Context, _ login.Credentials) (login.Response, error) {
			return login.Response{Error: "Invalid credentials"}, nil
		}),
		Sessions: NewSessionManager(t),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	srv, err := httpserver.New(cfg)
	if err != nil {
		t.Fatalf("httpserver.New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

// NewSessionManager returns a session manager with fixed test keys.
func NewSessionManager(t testing.TB) *session.Manager {
	t.Helper()
	store, err := session.NewManager(session.Config{
		CookieName:  "portal_session",
		HashKey:     []byte("12345678901234567890123456789012"),
		BlockKey:    []byte("abcdefghijklmnopqrstuvwxyzABCDEF"),
		IdleTimeout: 30 * time.Minute,
		Lifetime:    time.Hour,
	})
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	return store
}

// NewClient returns a client with a cookie jar that does not follow redirects.
func NewClient(t testing.TB) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

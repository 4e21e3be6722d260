package config

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile         = ".env"
	defaultAddress         = ":8080"
	defaultEnvironment     = "local"
	defaultLogLevel        = "info"
	defaultSessionCookie   = "portal_session"
	defaultSessionIdle     = 30 * time.Minute
	defaultSessionLifetime = 12 * time.Hour
	defaultCSRFCookie      = "portal_csrf"
	defaultCSRFHeader      = "X-CSRF-Token"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultRequestTimeout  = 60 * time.Second
)

// AuthMode selects the authentication collaborator.
type AuthMode string

const (
	AuthModeHTTP      AuthMode = "http"
	AuthModeFirebase  AuthMode = "firebase"
	AuthModeDirectory AuthMode = "directory"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Session  SessionConfig
	CSRF     CSRFConfig
	Auth     AuthConfig
	Firebase FirebaseConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Address        string
	Environment    string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level string
}

// SessionConfig configures the session cookie. Empty keys are generated per
// process by the caller.
type SessionConfig struct {
	CookieName   string
	CookieSecure bool
	HashKey      []byte
	BlockKey     []byte
	IdleTimeout  time.Duration
	Lifetime     time.Duration
}

// CSRFConfig configures double-submit protection.
type CSRFConfig struct {
	CookieName string
	HeaderName string
}

// AuthConfig selects and configures the authentication collaborator.
type AuthConfig struct {
	Mode          AuthMode
	Endpoint      string
	Timeout       time.Duration
	DirectoryFile string
}

// FirebaseConfig stores Firebase project settings.
type FirebaseConfig struct {
	ProjectID          string
	APIKey             string
	IdentityToolkitURL string
}

// ValidationError lists configuration keys that failed validation.
type ValidationError struct {
	Problems map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	keys := e.Fields()
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+e.Problems[key])
	}
	return "config: invalid configuration: " + strings.Join(parts, "; ")
}

// Fields returns the offending keys in sorted order.
func (e *ValidationError) Fields() []string {
	keys := make([]string, 0, len(e.Problems))
	for key := range e.Problems {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

type loadOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// Option customises Load.
type Option func(*loadOptions)

// WithEnvFile reads additional values from a dotenv file. An empty path
// disables file loading. System environment values win over file values.
func WithEnvFile(path string) Option {
	return func(o *loadOptions) {
		o.envFile = path
	}
}

// WithEnvMap supplies explicit values that take precedence over everything else.
func WithEnvMap(values map[string]string) Option {
	return func(o *loadOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv ignores the process environment.
func WithoutSystemEnv() Option {
	return func(o *loadOptions) {
		o.useSystemEnv = false
	}
}

// Load resolves configuration from the environment, an optional dotenv file and
// explicit overrides.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := loadOptions{envFile: defaultEnvFile, useSystemEnv: true}
	for _, opt := range opts {
		opt(&options)
	}
	if err := ctx.Err(); err != nil {
		return Config{}, err
	}

	fileValues := map[string]string{}
	if options.envFile != "" {
		values, err := godotenv.Read(options.envFile)
		switch {
		case err == nil:
			fileValues = values
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("config: read %s: %w", options.envFile, err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := options.envMap[key]; ok {
			return v, true
		}
		if options.useSystemEnv {
			if v, ok := os.LookupEnv(key); ok {
				return v, true
			}
		}
		v, ok := fileValues[key]
		return v, ok
	}

	problems := map[string]string{}
	p := parser{lookup: lookup, problems: problems}

	cfg := Config{
		Server: ServerConfig{
			Address:        p.str("PORTAL_HTTP_ADDR", defaultAddress),
			Environment:    p.str("PORTAL_ENVIRONMENT", defaultEnvironment),
			ReadTimeout:    p.duration("PORTAL_HTTP_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:   p.duration("PORTAL_HTTP_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:    p.duration("PORTAL_HTTP_IDLE_TIMEOUT", defaultIdleTimeout),
			RequestTimeout: p.duration("PORTAL_HTTP_REQUEST_TIMEOUT", defaultRequestTimeout),
		},
		Log: LogConfig{
			Level: p.str("PORTAL_LOG_LEVEL", defaultLogLevel),
		},
		Session: SessionConfig{
			CookieName:   p.str("PORTAL_SESSION_COOKIE_NAME", defaultSessionCookie),
			CookieSecure: p.boolean("PORTAL_SESSION_COOKIE_SECURE", false),
			HashKey:      p.key("PORTAL_SESSION_HASH_KEY"),
			BlockKey:     p.key("PORTAL_SESSION_BLOCK_KEY"),
			IdleTimeout:  p.duration("PORTAL_SESSION_IDLE_TIMEOUT", defaultSessionIdle),
			Lifetime:     p.duration("PORTAL_SESSION_LIFETIME", defaultSessionLifetime),
		},
		CSRF: CSRFConfig{
			CookieName: p.str("PORTAL_CSRF_COOKIE_NAME", defaultCSRFCookie),
			HeaderName: p.str("PORTAL_CSRF_HEADER_NAME", defaultCSRFHeader),
		},
		Auth: AuthConfig{
			Mode:          AuthMode(strings.ToLower(p.str("PORTAL_AUTH_MODE", string(AuthModeDirectory)))),
			Endpoint:      p.str("PORTAL_AUTH_ENDPOINT", ""),
			Timeout:       p.duration("PORTAL_AUTH_TIMEOUT", 0),
			DirectoryFile: p.str("PORTAL_DIRECTORY_FILE", ""),
		},
		Firebase: FirebaseConfig{
			ProjectID:          p.str("PORTAL_FIREBASE_PROJECT_ID", ""),
			APIKey:             p.str("PORTAL_FIREBASE_API_KEY", ""),
			IdentityToolkitURL: p.str("PORTAL_FIREBASE_IDENTITY_TOOLKIT_URL", ""),
		},
	}

	validate(cfg, problems)
	if len(problems) > 0 {
		return Config{}, &ValidationError{Problems: problems}
	}
	return cfg, nil
}

func validate(cfg Config, problems map[string]string) {
	switch cfg.Auth.Mode {
	case AuthModeHTTP:
		if cfg.Auth.Endpoint == "" {
			problems["PORTAL_AUTH_ENDPOINT"] = "required when PORTAL_AUTH_MODE=http"
		}
	case AuthModeFirebase:
		if cfg.Firebase.ProjectID == "" {
			problems["PORTAL_FIREBASE_PROJECT_ID"] = "required when PORTAL_AUTH_MODE=firebase"
		}
		if cfg.Firebase.APIKey == "" {
			problems["PORTAL_FIREBASE_API_KEY"] = "required when PORTAL_AUTH_MODE=firebase"
		}
	case AuthModeDirectory:
	default:
		problems["PORTAL_AUTH_MODE"] = fmt.Sprintf("unknown mode %q", cfg.Auth.Mode)
	}

	switch len(cfg.Session.BlockKey) {
	case 0, 16, 24, 32:
	default:
		problems["PORTAL_SESSION_BLOCK_KEY"] = "must decode to 16, 24 or 32 bytes"
	}
	if len(cfg.Session.BlockKey) > 0 && len(cfg.Session.HashKey) == 0 {
		problems["PORTAL_SESSION_HASH_KEY"] = "required when PORTAL_SESSION_BLOCK_KEY is set"
	}
	if cfg.Auth.Timeout < 0 {
		problems["PORTAL_AUTH_TIMEOUT"] = "must not be negative"
	}
}

type parser struct {
	lookup   func(string) (string, bool)
	problems map[string]string
}

func (p parser) str(key, fallback string) string {
	if v, ok := p.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func (p parser) duration(key string, fallback time.Duration) time.Duration {
	raw := p.str(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.problems[key] = "invalid duration"
		return fallback
	}
	return d
}

func (p parser) boolean(key string, fallback bool) bool {
	raw := p.str(key, "")
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.problems[key] = "invalid boolean"
		return fallback
	}
	return b
}

// key decodes key material given as hex or base64.
func (p parser) key(name string) []byte {
	raw := p.str(name, "")
	if raw == "" {
		return nil
	}
	if b, err := hex.DecodeString(raw); err == nil {
		return b
	}
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil {
		return b
	}
	if b, err := base64.RawURLEncoding.DecodeString(raw); err == nil {
		return b
	}
	p.problems[name] = "must be hex or base64 encoded"
	return nil
}

package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"finitefield.org/care-portal/internal/portal/notify"
	"finitefield.org/care-portal/internal/portal/rbac"
)

const (
	defaultCookieName  = "portal_session"
	defaultCookiePath  = "/"
	defaultLifetime    = 12 * time.Hour
	defaultIdleTimeout = 30 * time.Minute
)

// ErrExpired indicates the stored session is no longer valid due to idle or absolute expiry.
var ErrExpired = errors.New("session expired")

// ErrInvalidConfig indicates the manager was initialised with missing or invalid options.
var ErrInvalidConfig = errors.New("session: invalid config")

// User is the signed-in identity remembered between the login redirect and
// the landing page.
type User struct {
	Email string    `json:"email,omitempty"`
	Role  rbac.Role `json:"role"`
}

// Data is the persisted session payload.
type Data struct {
	ID            string                `json:"id"`
	CreatedAt     time.Time             `json:"createdAt"`
	LastActive    time.Time             `json:"lastActive"`
	ExpiresAt     time.Time             `json:"expiresAt,omitempty"`
	User          *User                 `json:"user,omitempty"`
	Notifications []notify.Notification `json:"notifications,omitempty"`
}

// Session holds mutable state for the current request lifecycle.
type Session struct {
	data      Data
	board     *notify.Board
	destroyed bool
}

// Config controls cookie encoding and lifecycle limits.
type Config struct {
	CookieName     string
	HashKey        []byte
	BlockKey       []byte
	CookiePath     string
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite

	IdleTimeout time.Duration
	Lifetime    time.Duration
	Now         func() time.Time
}

// Manager decodes and persists sessions as signed (and optionally encrypted) cookies.
type Manager struct {
	cfg   Config
	codec *securecookie.SecureCookie
	now   func() time.Time
}

// NewManager constructs a Manager using the provided configuration.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.HashKey) == 0 {
		return nil, fmt.Errorf("%w: hash key is required", ErrInvalidConfig)
	}
	switch len(cfg.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: block key must be 16, 24 or 32 bytes", ErrInvalidConfig)
	}

	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = defaultCookiePath
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = defaultLifetime
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	codec := securecookie.New(cfg.HashKey, cfg.BlockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(cfg.Lifetime.Seconds()))

	return &Manager{cfg: cfg, codec: codec, now: now}, nil
}

// GenerateKey returns random key material suitable for HashKey or BlockKey.
func GenerateKey(length int) []byte {
	return securecookie.GenerateRandomKey(length)
}

// Load decodes the session cookie. Missing or tampered cookies yield a fresh
// session; expired ones return ErrExpired.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return m.New(), nil
	}

	var stored Data
	if err := m.codec.Decode(m.cfg.CookieName, cookie.Value, &stored); err != nil {
		return m.New(), nil
	}
	if stored.ID == "" {
		return m.New(), nil
	}

	if m.isExpired(stored, m.now()) {
		return nil, ErrExpired
	}
	return newSession(stored), nil
}

// New returns an empty session.
func (m *Manager) New() *Session {
	now := m.now().UTC()
	return newSession(Data{
		ID:         mustGenerateID(),
		CreatedAt:  now,
		LastActive: now,
		ExpiresAt:  now.Add(m.cfg.Lifetime),
	})
}

// Save writes the session back to the response. Destroyed sessions clear the cookie.
func (m *Manager) Save(w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return errors.New("session: nil session")
	}
	if sess.destroyed {
		m.Destroy(w)
		return nil
	}

	now := m.now().UTC()
	if now.After(sess.data.LastActive) {
		sess.data.LastActive = now
	}

	data := sess.snapshot()
	encoded, err := m.codec.Encode(m.cfg.CookieName, data)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}

	cookie := m.baseCookie()
	cookie.Value = encoded
	if !data.ExpiresAt.IsZero() {
		cookie.Expires = data.ExpiresAt.UTC()
		if remaining := data.ExpiresAt.Sub(now); remaining > 0 {
			cookie.MaxAge = int(remaining.Round(time.Second).Seconds())
		} else {
			cookie.MaxAge = -1
		}
	}
	http.SetCookie(w, cookie)
	return nil
}

// Destroy invalidates the session cookie immediately.
func (m *Manager) Destroy(w http.ResponseWriter) {
	cookie := m.baseCookie()
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	http.SetCookie(w, cookie)
}

func (m *Manager) baseCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Path:     m.cfg.CookiePath,
		Domain:   m.cfg.CookieDomain,
		Secure:   m.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: m.cfg.CookieSameSite,
	}
}

func (m *Manager) isExpired(d Data, now time.Time) bool {
	now = now.UTC()
	if !d.ExpiresAt.IsZero() && now.After(d.ExpiresAt.UTC()) {
		return true
	}
	last := d.LastActive
	if last.IsZero() {
		last = d.CreatedAt
	}
	return !last.IsZero() && now.Sub(last) > m.cfg.IdleTimeout
}

func newSession(d Data) *Session {
	return &Session{
		data:  d,
		board: notify.NewBoard(d.Notifications),
	}
}

// ID returns the stable session identifier.
func (s *Session) ID() string {
	return s.data.ID
}

// ExpiresAt returns the absolute expiry timestamp.
func (s *Session) ExpiresAt() time.Time {
	return s.data.ExpiresAt
}

// User returns the signed-in user, if any.
func (s *Session) User() *User {
	if s.data.User == nil {
		return nil
	}
	u := *s.data.User
	return &u
}

// SetUser records the signed-in user. Nil clears it.
func (s *Session) SetUser(user *User) {
	if user == nil {
		s.data.User = nil
		return
	}
	u := *user
	s.data.User = &u
}

// Notify posts a notification, replacing any stored one with the same key.
func (s *Session) Notify(n notify.Notification) {
	s.board.Post(n)
}

// Notifications returns the pending notifications without consuming them.
func (s *Session) Notifications() []notify.Notification {
	return s.board.Items()
}

// TakeNotifications returns the pending notifications and clears them so
// each is shown once.
func (s *Session) TakeNotifications() []notify.Notification {
	return s.board.Drain()
}

// Destroy marks the session for deletion at the end of the request.
func (s *Session) Destroy() {
	s.destroyed = true
}

// Destroyed exposes the destroy marker.
func (s *Session) Destroyed() bool {
	return s.destroyed
}

func (s *Session) snapshot() Data {
	d := s.data
	d.Notifications = s.board.Items()
	return d
}

func mustGenerateID() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Errorf("session: generate id: %w", err))
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

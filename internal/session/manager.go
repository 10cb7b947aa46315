// Package session identifies anonymous shoppers with a signed cookie so their
// page sessions and stored preferences survive reloads.
package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/hanko-field/pdp/internal/platform/requestctx"
)

const (
	defaultCookieName = "pdp_shopper"
	defaultCookiePath = "/"
	defaultMaxAge     = 365 * 24 * time.Hour
)

// ErrInvalidConfig indicates the manager was initialised with missing or invalid options.
var ErrInvalidConfig = errors.New("session: invalid config")

// Shopper is the payload persisted in the cookie.
type Shopper struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	LastSeen  time.Time `json:"lastSeen"`
}

// Config controls cookie encoding and lifetime.
type Config struct {
	CookieName     string
	HashKey        []byte
	BlockKey       []byte
	CookiePath     string
	CookieSecure   bool
	CookieSameSite http.SameSite
	MaxAge         time.Duration
	Now            func() time.Time
}

// Manager issues and decodes shopper cookies.
type Manager struct {
	cfg   Config
	codec *securecookie.SecureCookie
	now   func() time.Time

	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
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
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = defaultMaxAge
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
	codec.MaxAge(int(cfg.MaxAge / time.Second))

	return &Manager{
		cfg:     cfg,
		codec:   codec,
		now:     now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Load decodes the shopper cookie. A missing, tampered or expired cookie yields a fresh shopper
// and fresh reports true.
func (m *Manager) Load(r *http.Request) (shopper Shopper, fresh bool) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err == nil {
		if err := m.codec.Decode(m.cfg.CookieName, cookie.Value, &shopper); err == nil && validID(shopper.ID) {
			return shopper, false
		}
	}
	return m.New(), true
}

// New returns a shopper with a newly generated identifier.
func (m *Manager) New() Shopper {
	now := m.now().UTC()
	m.entropyMu.Lock()
	id, err := ulid.New(ulid.Timestamp(now), m.entropy)
	m.entropyMu.Unlock()
	if err != nil {
		// Monotonic entropy overflowed within one millisecond; fall back to a fresh reader.
		id = ulid.MustNew(ulid.Timestamp(now), rand.Reader)
	}
	return Shopper{ID: id.String(), CreatedAt: now, LastSeen: now}
}

// Save writes the shopper cookie, refreshing LastSeen.
func (m *Manager) Save(w http.ResponseWriter, shopper Shopper) error {
	shopper.LastSeen = m.now().UTC()
	encoded, err := m.codec.Encode(m.cfg.CookieName, shopper)
	if err != nil {
		return fmt.Errorf("encode shopper cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    encoded,
		Path:     m.cfg.CookiePath,
		Expires:  shopper.LastSeen.Add(m.cfg.MaxAge),
		MaxAge:   int(m.cfg.MaxAge / time.Second),
		Secure:   m.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: m.cfg.CookieSameSite,
	})
	return nil
}

// Middleware resolves the shopper for every request and records its id in the request context.
// The cookie is written before the handler runs so streaming responses carry it too.
func Middleware(m *Manager) func(http.Handler) http.Handler {
	if m == nil {
		panic("session manager is required")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			shopper, fresh := m.Load(r)
			if fresh || m.now().Sub(shopper.LastSeen) > time.Hour {
				if err := m.Save(w, shopper); err != nil {
					requestctx.Logger(r.Context()).Warn("shopper cookie save failed", zap.Error(err))
				}
			}
			ctx := requestctx.WithShopperID(r.Context(), shopper.ID)
			ctx = context.WithValue(ctx, shopperKey, shopper)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type contextKey string

const shopperKey contextKey = "session.shopper"

// FromContext returns the shopper resolved by Middleware.
func FromContext(ctx context.Context) (Shopper, bool) {
	if ctx == nil {
		return Shopper{}, false
	}
	shopper, ok := ctx.Value(shopperKey).(Shopper)
	return shopper, ok
}

func validID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}

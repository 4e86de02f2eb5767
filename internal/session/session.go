package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"kakeibo/internal/cache"
	"kakeibo/internal/core"
)

const (
	CookieName = "kakeibo_session"
	tokenBytes = 32

	DefaultTTL        = 12 * time.Hour
	DefaultMaxEntries = 256
)

// Store maps cookie tokens to sessions. Entries expire after ttl without use.
type Store struct {
	sessions *cache.LRUCache[core.Session]
	ttl      time.Duration
	secure   bool
}

func NewStore(maxEntries int, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{sessions: cache.NewLRUCache[core.Session](maxEntries, ttl), ttl: ttl}
}

// SecureCookies marks issued cookies Secure. Use behind TLS.
func (s *Store) SecureCookies(on bool) *Store {
	s.secure = on
	return s
}

// Register adds the session cache to the manager's periodic sweep.
func (s *Store) Register(m *cache.Manager) {
	m.Register("sessions", s.sessions)
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Create stores an authenticated session and sets its cookie on w.
func (s *Store) Create(w http.ResponseWriter, sess core.Session) error {
	token, err := newToken()
	if err != nil {
		return err
	}
	s.sessions.Set(token, sess)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Rotate drops any session the request carries and creates a fresh one, so a
// token issued before login is never promoted.
func (s *Store) Rotate(w http.ResponseWriter, r *http.Request, sess core.Session) error {
	if c, err := r.Cookie(CookieName); err == nil {
		s.sessions.Delete(c.Value)
	}
	return s.Create(w, sess)
}

// Get returns the request's session, or the zero Session when there is none.
// A hit extends the idle timeout.
func (s *Store) Get(r *http.Request) core.Session {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return core.Session{}
	}
	sess, ok := s.sessions.Get(c.Value)
	if !ok {
		return core.Session{}
	}
	s.sessions.Touch(c.Value)
	return sess
}

// Destroy forgets the request's session and expires the cookie.
func (s *Store) Destroy(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil {
		s.sessions.Delete(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Store) Size() int { return s.sessions.Size() }

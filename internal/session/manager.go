package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/kindacts/kindcli/internal/fetcher"
	"github.com/kindacts/kindcli/internal/logging"
	"github.com/kindacts/kindcli/internal/models"
)

var (
	// ErrLoginFailed deliberately says nothing about what the backend
	// reported.
	ErrLoginFailed = errors.New("login failed: check your email and password")
	// ErrRegisterFailed is the equally generic registration failure.
	ErrRegisterFailed = errors.New("registration failed: please try again")
)

// Manager maintains the single current-session value, derived from the
// persisted bearer token. It arms at most one expiry timer at a time and
// keeps itself in sync with sibling managers through a Notifier.
type Manager struct {
	api      *fetcher.Client
	auth     *fetcher.Client
	store    TokenStore
	notifier *Notifier
	nav      Navigator
	log      *slog.Logger

	mu      sync.Mutex
	token   string
	current *Session
	timer   *time.Timer

	now         func() time.Time
	unsubscribe func()
}

// NewManager restores any persisted session and wires itself into the API
// client: it becomes the client's token source and its forced-logout hook.
func NewManager(api *fetcher.Client, store TokenStore, notifier *Notifier, nav Navigator, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	m := &Manager{
		api:      api,
		store:    store,
		notifier: notifier,
		nav:      nav,
		log:      log,
		now:      time.Now,
	}
	if api != nil {
		api.Tokens = m.Token
		api.OnUnauthorized = m.forceLogout
		// Credentials exchanges go out anonymous: a rejected login must not
		// tear down the session that is already live.
		m.auth = api.Anonymous()
	}
	m.restore()
	if notifier != nil {
		ch, cancel := notifier.Subscribe()
		m.unsubscribe = cancel
		go func() {
			for tok := range ch {
				m.applyExternal(tok)
			}
		}()
	}
	return m
}

// Close detaches the manager from its notifier. The session itself is left
// as is.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Current returns the session, or nil for the anonymous state.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Token returns the raw bearer token, "" when anonymous.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login exchanges credentials for a token, persists it and decodes it into
// the session. Failures surface a generic reason and leave the session
// untouched.
func (m *Manager) Login(ctx context.Context, email, password string) (models.User, error) {
	l := logging.FromContext(ctx).With("op", "session.login")

	var res loginResponse
	if err := m.auth.Post(ctx, "/api/user/login", loginRequest{Email: email, Password: password}, &res); err != nil {
		l.Warn("login rejected", "error", err)
		return models.User{}, ErrLoginFailed
	}
	if res.Token == "" {
		l.Warn("login response carried no token")
		return models.User{}, ErrLoginFailed
	}
	claims, err := DecodeToken(res.Token)
	if err != nil {
		l.Warn("login returned an undecodable token", "error", err)
		return models.User{}, ErrLoginFailed
	}

	if err := m.store.Save(res.Token); err != nil {
		l.Warn("persisting token failed", "error", err)
	}
	if !m.adopt(res.Token, claims) {
		return models.User{}, ErrLoginFailed
	}
	if m.notifier != nil {
		m.notifier.Publish(res.Token)
	}
	l.Info("login successful", "user", claims.Username, "role", claims.Role)
	return claims.User(), nil
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and returns the created identity. It never
// authenticates; login is a separate step.
func (m *Manager) Register(ctx context.Context, username, email, password string) (models.User, error) {
	l := logging.FromContext(ctx).With("op", "session.register")

	var user models.User
	if err := m.auth.Post(ctx, "/api/user/register", registerRequest{Username: username, Email: email, Password: password}, &user); err != nil {
		l.Warn("registration rejected", "error", err)
		return models.User{}, ErrRegisterFailed
	}
	return user, nil
}

// Logout cancels the expiry timer, clears the persisted token and session
// state, and navigates to the role-appropriate entry point. Safe to call
// with no session.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.stopTimerLocked()
	m.token = ""
	m.current = nil
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		m.log.Warn("clearing token store failed", "error", err)
	}
	if m.notifier != nil {
		m.notifier.Publish("")
	}
	m.redirectToLogin()
}

// restore picks up a persisted token on startup. An undecodable token is
// cleared and the session stays anonymous.
func (m *Manager) restore() {
	token, err := m.store.Load()
	if err != nil {
		m.log.Warn("reading token store failed", "error", err)
		return
	}
	if token == "" {
		return
	}
	claims, err := DecodeToken(token)
	if err != nil {
		m.log.Warn("clearing invalid persisted token", "error", err)
		if err := m.store.Clear(); err != nil {
			m.log.Warn("clearing token store failed", "error", err)
		}
		return
	}
	m.adopt(token, claims)
}

// adopt installs a decoded token as the current session and arms the expiry
// timer. An already-expired token triggers an immediate logout instead; the
// previous timer is always cancelled first.
func (m *Manager) adopt(token string, claims *Claims) bool {
	m.mu.Lock()
	m.stopTimerLocked()
	exp := claims.ExpiresAt.Time
	d := exp.Sub(m.now())
	if d <= 0 {
		m.mu.Unlock()
		m.log.Info("token already expired, logging out")
		m.Logout()
		return false
	}
	m.token = token
	m.current = &Session{User: claims.User(), ExpiresAt: exp}
	m.timer = time.AfterFunc(d, m.expire)
	m.mu.Unlock()
	return true
}

// applyExternal reacts to a token change published by a sibling: a new
// token is re-decoded and re-armed, a cleared token drops this manager to
// the logged-out state without another store write or network call.
func (m *Manager) applyExternal(token string) {
	m.mu.Lock()
	if token == m.token {
		m.mu.Unlock()
		return
	}
	if token == "" {
		m.stopTimerLocked()
		m.token = ""
		m.current = nil
		m.mu.Unlock()
		m.redirectToLogin()
		return
	}
	m.mu.Unlock()

	claims, err := DecodeToken(token)
	if err != nil {
		m.log.Warn("ignoring undecodable external token", "error", err)
		return
	}
	m.adopt(token, claims)
}

func (m *Manager) expire() {
	m.log.Info("session expired")
	m.Logout()
}

func (m *Manager) forceLogout() {
	m.log.Warn("authorization failure, logging out")
	m.Logout()
}

func (m *Manager) redirectToLogin() {
	if m.nav == nil {
		return
	}
	m.nav.Replace(LoginPath(m.nav.CurrentPath()))
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"lucky-spin/internal/ledger"
	"lucky-spin/internal/models"
)

var (
	ErrNotFound           = errors.New("session not found")
	ErrMissingCredentials = errors.New("phone and password are required")
	ErrMissingName        = errors.New("name is required for registration")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrTermsNotAccepted   = errors.New("terms and conditions must be accepted")
)

const minPasswordLength = 6

// Store persists the signed-in user record under a fixed key so a returning
// visitor can be restored. The ledger itself is never persisted.
type Store interface {
	SaveUser(ctx context.Context, user models.SavedUser) error
	LoadUser(ctx context.Context) (*models.SavedUser, error)
	ClearUser(ctx context.Context) error
}

// Session is one authenticated visitor together with the ledger it owns
// exclusively. A session lives until logout; nothing survives it except the
// saved user record.
type Session struct {
	Token     string
	Phone     string
	Name      string
	CreatedAt time.Time
	Ledger    *ledger.Ledger

	spinMu   sync.Mutex
	spinning bool
}

// BeginSpin closes the per-session spin gate. It reports false when a spin
// is already in flight; at most one spin runs per session at a time.
func (s *Session) BeginSpin() bool {
	s.spinMu.Lock()
	defer s.spinMu.Unlock()
	if s.spinning {
		return false
	}
	s.spinning = true
	return true
}

// EndSpin reopens the gate once the spin's animation window has elapsed.
func (s *Session) EndSpin() {
	s.spinMu.Lock()
	defer s.spinMu.Unlock()
	s.spinning = false
}

// Credentials is the login/registration form input. Auth is mocked: any
// well-formed phone + password pair succeeds.
type Credentials struct {
	Phone           string
	Name            string
	Password        string
	ConfirmPassword string
	AcceptedTerms   bool
	Register        bool
}

type Manager struct {
	store  Store
	bounds ledger.Bounds
	logger *slog.Logger

	mu      sync.RWMutex
	byToken map[string]*Session
}

func NewManager(store Store, bounds ledger.Bounds, logger *slog.Logger) *Manager {
	return &Manager{
		store:   store,
		bounds:  bounds,
		logger:  logger,
		byToken: make(map[string]*Session),
	}
}

// Create validates the form input, opens a session and seeds its ledger
// with the signup bonus. Login is a single atomic transition: after it the
// session and its funded ledger both exist.
func (m *Manager) Create(ctx context.Context, creds Credentials) (*Session, error) {
	phone := strings.TrimSpace(creds.Phone)
	name := strings.TrimSpace(creds.Name)

	if phone == "" || creds.Password == "" {
		return nil, ErrMissingCredentials
	}
	if creds.Register {
		if name == "" {
			return nil, ErrMissingName
		}
		if len(creds.Password) < minPasswordLength {
			return nil, ErrWeakPassword
		}
		if creds.Password != creds.ConfirmPassword {
			return nil, ErrPasswordMismatch
		}
		if !creds.AcceptedTerms {
			return nil, ErrTermsNotAccepted
		}
	}
	if name == "" {
		name = "User"
	}

	sess := m.open(phone, name)
	if err := m.store.SaveUser(ctx, models.SavedUser{Phone: phone, Name: name}); err != nil {
		m.logger.Warn("failed to persist user record", "error", err, "phone", phone)
	}
	return sess, nil
}

// Restore reopens a session for the saved user record, if one exists. The
// record implies a previous successful login, so no credentials are
// rechecked; the ledger is reseeded with the bonus like the original client
// did on reload.
func (m *Manager) Restore(ctx context.Context) (*Session, error) {
	saved, err := m.store.LoadUser(ctx)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, nil
	}
	return m.open(saved.Phone, saved.Name), nil
}

func (m *Manager) open(phone, name string) *Session {
	sess := &Session{
		Token:     uuid.NewString(),
		Phone:     phone,
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Ledger:    ledger.New(m.bounds),
	}
	m.mu.Lock()
	m.byToken[sess.Token] = sess
	m.mu.Unlock()
	return sess
}

func (m *Manager) Get(token string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.byToken[token]
	return sess, ok
}

// Destroy drops the session and its ledger and clears the saved user
// record. The zero state afterwards is balance 0 and an empty history.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	m.mu.Lock()
	_, ok := m.byToken[token]
	delete(m.byToken, token)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	if err := m.store.ClearUser(ctx); err != nil {
		m.logger.Warn("failed to clear user record", "error", err)
	}
	return nil
}

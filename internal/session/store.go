package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zappabad/stockdesk/internal/session/storage"
)

var (
	// ErrEmptyToken is returned when a login response carries no token.
	ErrEmptyToken = errors.New("session: server returned an empty token")
	// ErrInvalidRole is returned by Register for roles other than admin or user.
	ErrInvalidRole = errors.New("session: role must be admin or user")
)

// Authenticator is the server side of login and the holder of the shared
// bearer header.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (LoginResponse, error)
	Register(ctx context.Context, email, password string, role Role) error
	SetBearer(token string)
	ClearBearer()
}

// Config holds configuration for the Store.
type Config struct {
	// EventBuffer is the per-subscriber channel size.
	EventBuffer int
	// Logger receives storage failures that are not returned to callers.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{EventBuffer: 16}
}

// Store owns the current session. Login, Logout, Restore and Invalidate are
// serialized; readers see either the old or the new session, never a mix.
type Store struct {
	cfg     Config
	auth    Authenticator
	storage storage.Storage
	log     *slog.Logger

	mu      sync.Mutex
	current *Session
	// uncleared is set when a logout could not wipe storage; Restore must
	// not bring that record back.
	uncleared bool

	subMu         sync.Mutex
	subs          []chan Event
	closed        bool
	droppedEvents atomic.Int64
}

// NewStore creates a Store. The session starts unauthenticated until Login
// or Restore.
func NewStore(auth Authenticator, st storage.Storage, cfg Config) *Store {
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Store{
		cfg:     cfg,
		auth:    auth,
		storage: st,
		log:     cfg.Logger.With("component", "session"),
	}
}

// Login authenticates and persists the credential. Server and transport
// errors are returned unchanged.
func (s *Store) Login(ctx context.Context, email, password string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	if resp.Token == "" {
		return Session{}, ErrEmptyToken
	}

	sess := Session{User: resp.User, Token: resp.Token}
	if err := s.persist(ctx, sess); err != nil {
		return Session{}, err
	}
	s.uncleared = false
	s.auth.SetBearer(sess.Token)
	s.current = &sess
	s.log.Info("logged in", "user_id", sess.User.ID, "role", sess.User.Role)
	s.publish(Event{Session: &sess})
	return sess, nil
}

// Register creates an account without logging in.
func (s *Store) Register(ctx context.Context, email, password string, role Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	return s.auth.Register(ctx, email, password, role)
}

// Logout drops the session locally. It cannot fail; storage errors are logged.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(ctx, "logged out")
}

// Invalidate is Logout triggered by the server rejecting the credential.
func (s *Store) Invalidate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	s.clearLocked(ctx, "credential rejected")
}

// Restore re-attaches a persisted session. The token is trusted as stored;
// the server will reject it on first use if it has expired.
func (s *Store) Restore(ctx context.Context) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.uncleared {
		if err := s.storage.Clear(ctx); err != nil {
			s.log.Error("clear storage", "err", err)
			return Session{}, false
		}
		s.uncleared = false
		return Session{}, false
	}

	rec, err := s.storage.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return Session{}, false
	}
	if err != nil {
		s.log.Warn("restore failed", "err", err)
		return Session{}, false
	}

	var user User
	if !rec.Complete() || json.Unmarshal(rec.User, &user) != nil {
		s.log.Warn("discarding incomplete stored session")
		if err := s.storage.Clear(ctx); err != nil {
			s.log.Error("clear storage", "err", err)
		}
		return Session{}, false
	}

	sess := Session{User: user, Token: rec.Token}
	s.auth.SetBearer(sess.Token)
	s.current = &sess
	s.log.Info("session restored", "user_id", user.ID, "role", user.Role)
	s.publish(Event{Session: &sess})
	return sess, true
}

// Current returns the active session, if any.
func (s *Store) Current() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// Role returns the active role, or "" when unauthenticated.
func (s *Store) Role() Role {
	sess, ok := s.Current()
	if !ok {
		return ""
	}
	return sess.User.Role
}

// IsAdmin reports whether the active session is an admin.
func (s *Store) IsAdmin() bool {
	return s.Role() == RoleAdmin
}

// ExpiresAt reads the exp claim of the current token without verifying it.
// It is for display only.
func (s *Store) ExpiresAt() (time.Time, bool) {
	sess, ok := s.Current()
	if !ok {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(sess.Token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Subscribe returns a channel of session changes. Events are dropped when the
// subscriber falls behind.
func (s *Store) Subscribe() <-chan Event {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	ch := make(chan Event, s.cfg.EventBuffer)
	if s.closed {
		close(ch)
		return ch
	}
	s.subs = append(s.subs, ch)
	return ch
}

// DroppedEvents returns the count of events no subscriber had room for.
func (s *Store) DroppedEvents() int64 {
	return s.droppedEvents.Load()
}

// Close closes every subscriber channel.
func (s *Store) Close() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}

func (s *Store) persist(ctx context.Context, sess Session) error {
	user, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("session: encode user: %w", err)
	}
	return s.storage.Save(ctx, storage.Record{Token: sess.Token, User: user})
}

func (s *Store) clearLocked(ctx context.Context, reason string) {
	s.uncleared = false
	if err := s.storage.Clear(ctx); err != nil {
		s.log.Error("clear storage", "err", err)
		s.uncleared = true
	}
	s.auth.ClearBearer()
	s.current = nil
	s.log.Info(reason)
	s.publish(Event{})
}

func (s *Store) publish(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.droppedEvents.Add(1)
		}
	}
}

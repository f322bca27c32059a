package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"wardRecords/models"
)

// SessionStore is the persistence the Manager needs.
type SessionStore interface {
	Create(ctx context.Context, s *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// Manager creates, resolves and destroys server-side sessions.
// Browsers hold a signed token naming the session; the row is the source of truth.
type Manager struct {
	store  SessionStore
	secret string
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewManager builds a Manager. ttl <= 0 falls back to 12h.
func NewManager(store SessionStore, secret string, ttl time.Duration, logger *slog.Logger) *Manager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, secret: secret, ttl: ttl, logger: logger, now: time.Now}
}

// Start opens a session for u and returns the token to hand to the client.
func (m *Manager) Start(ctx context.Context, u *models.User) (string, *models.Session, error) {
	if u == nil {
		return "", nil, errors.New("user is nil")
	}
	now := m.now().UTC().Truncate(time.Second)
	s := &models.Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Create(ctx, s); err != nil {
		return "", nil, err
	}
	token, err := signToken(m.secret, s)
	if err != nil {
		_ = m.store.Delete(ctx, s.ID)
		return "", nil, err
	}
	return token, s, nil
}

// Resolve returns the live session named by token, or nil when there is none.
// Bad, expired and revoked tokens are all "no session"; only store failures are errors.
func (m *Manager) Resolve(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, nil
	}
	now := m.now()
	c, err := parseToken(token, m.secret, now)
	if err != nil {
		m.logger.DebugContext(ctx, "session token rejected", slog.Any("error", err))
		return nil, nil
	}
	s, err := m.store.GetByID(ctx, c.SessionID)
	if err != nil {
		return nil, err
	}
	if s == nil || s.Expired(now) {
		return nil, nil
	}
	return s, nil
}

// End destroys the session named by token. Unknown or invalid tokens are ignored.
func (m *Manager) End(ctx context.Context, token string) error {
	c, err := parseToken(token, m.secret, m.now())
	if err != nil {
		return nil
	}
	return m.store.Delete(ctx, c.SessionID)
}

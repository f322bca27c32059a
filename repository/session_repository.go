package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wardRecords/models"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create stores s. CreatedAt defaults to now when zero.
func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	if s == nil || s.ID == "" {
		return errors.New("session id is required")
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `INSERT INTO sessions (id, user_id, username, role, created_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.Username, string(s.Role),
		s.CreatedAt.UTC().Format(sqliteDateFormat), s.ExpiresAt.UTC().Format(sqliteDateFormat))
	return err
}

// GetByID returns the session or nil when it does not exist.
// Expiry is not checked here.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var s models.Session
	var role, created, expires string
	err := r.db.QueryRowContext(ctx, `SELECT id, user_id, username, role, created_at, expires_at FROM sessions WHERE id = ?`, id).
		Scan(&s.ID, &s.UserID, &s.Username, &role, &created, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.Role = models.Role(role)
	if s.CreatedAt, err = time.ParseInLocation(sqliteDateFormat, created, time.UTC); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if s.ExpiresAt, err = time.ParseInLocation(sqliteDateFormat, expires, time.UTC); err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// DeleteExpired removes sessions whose expiry is at or before now and returns how many were removed.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.UTC().Format(sqliteDateFormat))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByUserID removes every session belonging to userID and returns how many were removed.
func (r *SessionRepository) DeleteByUserID(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

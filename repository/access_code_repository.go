package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"wardRecords/models"
)

// AccessCodeRepository maps registration codes to the role they grant.
// Codes are seeded from configuration at startup.
type AccessCodeRepository struct {
	db *sql.DB
}

func NewAccessCodeRepository(db *sql.DB) *AccessCodeRepository {
	return &AccessCodeRepository{db: db}
}

// Create adds code, or changes the role of an existing one.
func (r *AccessCodeRepository) Create(ctx context.Context, code string, role models.Role) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `INSERT INTO access_codes (code, role) VALUES (?, ?)
        ON CONFLICT(code) DO UPDATE SET role = excluded.role`, code, string(role))
	return err
}

// RoleFor returns the role granted by code. ok is false when the code is unknown.
func (r *AccessCodeRepository) RoleFor(ctx context.Context, code string) (models.Role, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var role string
	err := r.db.QueryRowContext(ctx, `SELECT role FROM access_codes WHERE code = ?`, code).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return models.Role(role), true, nil
}

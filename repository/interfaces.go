package repository

import (
	"context"
	"time"

	"wardRecords/models"
)

// sqliteDateFormat matches CURRENT_TIMESTAMP so stored times compare lexically.
const sqliteDateFormat = "2006-01-02 15:04:05"

// UserRepositoryI defines operations on User entities.
type UserRepositoryI interface {
	Create(ctx context.Context, username, passwordHash string, role models.Role) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	UpdateRoleByUsername(ctx context.Context, username string, role models.Role) error
}

// AccessCodeRepositoryI resolves registration codes to roles.
type AccessCodeRepositoryI interface {
	Create(ctx context.Context, code string, role models.Role) error
	RoleFor(ctx context.Context, code string) (models.Role, bool, error)
}

// SessionRepositoryI persists server-side sessions.
type SessionRepositoryI interface {
	Create(ctx context.Context, s *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteByUserID(ctx context.Context, userID int64) (int64, error)
}

// PatientRepositoryI defines operations on Patient entities.
type PatientRepositoryI interface {
	Create(ctx context.Context, name, cause string) (*models.Patient, error)
	List(ctx context.Context) ([]models.Patient, error)
}

// MedicationRepositoryI defines operations on Medication entities.
type MedicationRepositoryI interface {
	Create(ctx context.Context, name, purpose string) (*models.Medication, error)
	List(ctx context.Context) ([]models.Medication, error)
	Delete(ctx context.Context, id int64) error
}

// MachineRepositoryI defines operations on Machine entities.
type MachineRepositoryI interface {
	Create(ctx context.Context, name, kind, status string) (*models.Machine, error)
	List(ctx context.Context) ([]models.Machine, error)
	Delete(ctx context.Context, id int64) error
}

// FileRepositoryI defines operations on uploaded file metadata.
type FileRepositoryI interface {
	Create(ctx context.Context, f *models.UploadedFile) (*models.UploadedFile, error)
	GetByID(ctx context.Context, id int64) (*models.UploadedFile, error)
	List(ctx context.Context) ([]models.UploadedFile, error)
	Delete(ctx context.Context, id int64) error
}

var (
	_ UserRepositoryI       = (*UserRepository)(nil)
	_ AccessCodeRepositoryI = (*AccessCodeRepository)(nil)
	_ SessionRepositoryI    = (*SessionRepository)(nil)
	_ PatientRepositoryI    = (*PatientRepository)(nil)
	_ MedicationRepositoryI = (*MedicationRepository)(nil)
	_ MachineRepositoryI    = (*MachineRepository)(nil)
	_ FileRepositoryI       = (*FileRepository)(nil)
)

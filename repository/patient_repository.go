package repository

import (
	"context"
	"database/sql"
	"time"

	"wardRecords/models"
)

type PatientRepository struct {
	db *sql.DB
}

func NewPatientRepository(db *sql.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// Create admits a patient; registered_at is set by the database clock.
func (r *PatientRepository) Create(ctx context.Context, name, cause string) (*models.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO patients (name, cause) VALUES (?, ?)`, name, cause)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	p := models.Patient{ID: id}
	err = r.db.QueryRowContext(ctx, `SELECT name, cause, registered_at FROM patients WHERE id = ?`, id).
		Scan(&p.Name, &p.Cause, &p.RegisteredAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PatientRepository) List(ctx context.Context) ([]models.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT id, name, cause, registered_at FROM patients ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Patient
	for rows.Next() {
		var p models.Patient
		if err := rows.Scan(&p.ID, &p.Name, &p.Cause, &p.RegisteredAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Prescribe links a medication to a patient.
func (r *PatientRepository) Prescribe(ctx context.Context, patientID, medicationID int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO patient_medications (patient_id, medication_id) VALUES (?, ?)`, patientID, medicationID)
	return err
}

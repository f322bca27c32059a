package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wardRecords/models"
)

// FileRepository stores metadata for uploaded files.
type FileRepository struct {
	db *sql.DB
}

func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

// Create inserts the metadata row and returns it with its id and created_at.
func (r *FileRepository) Create(ctx context.Context, f *models.UploadedFile) (*models.UploadedFile, error) {
	if f == nil {
		return nil, errors.New("file record is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO uploaded_files (original_name, mime_type, stored_path) VALUES (?, ?, ?)`,
		f.OriginalName, f.MIMEType, f.StoredPath)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	out, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("created file record not found: id=%d", id)
	}
	return out, nil
}

func (r *FileRepository) GetByID(ctx context.Context, id int64) (*models.UploadedFile, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var f models.UploadedFile
	err := r.db.QueryRowContext(ctx, `SELECT id, original_name, mime_type, stored_path, created_at FROM uploaded_files WHERE id = ?`, id).
		Scan(&f.ID, &f.OriginalName, &f.MIMEType, &f.StoredPath, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

// List returns every record in insertion order. There is no pagination.
func (r *FileRepository) List(ctx context.Context) ([]models.UploadedFile, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT id, original_name, mime_type, stored_path, created_at FROM uploaded_files ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.UploadedFile{}
	for rows.Next() {
		var f models.UploadedFile
		if err := rows.Scan(&f.ID, &f.OriginalName, &f.MIMEType, &f.StoredPath, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a record. Only the reconciliation sweep calls it, for rows whose file is gone.
func (r *FileRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `DELETE FROM uploaded_files WHERE id = ?`, id)
	return err
}

package repository

import (
	"context"
	"testing"

	"wardRecords/internal/db"
	"wardRecords/models"
)

func TestFileRepository_CreateListDelete(t *testing.T) {
	d, err := db.Open("file:filerepo?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	repo := NewFileRepository(d)
	ctx := context.Background()

	empty, err := repo.List(ctx)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %v err=%v", empty, err)
	}

	f, err := repo.Create(ctx, &models.UploadedFile{OriginalName: "census.xlsx", MIMEType: models.MIMESpreadsheetXLSX, StoredPath: "/tmp/1-census.xlsx"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if f.ID == 0 || f.CreatedAt == "" || !f.IsSpreadsheet() {
		t.Fatalf("unexpected record: %+v", f)
	}

	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 || list[0].StoredPath != "/tmp/1-census.xlsx" {
		t.Fatalf("list: %v %+v", err, list)
	}

	if err := repo.Delete(ctx, f.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, err := repo.GetByID(ctx, f.ID); err != nil || got != nil {
		t.Fatalf("expected record gone, got %+v err=%v", got, err)
	}
}

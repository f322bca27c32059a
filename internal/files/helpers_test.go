package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"wardRecords/internal/logging"
	"wardRecords/internal/testutil"
	"wardRecords/models"
	"wardRecords/repository"
)

type formPart struct {
	field       string
	filename    string // empty for a plain form field
	contentType string
	data        []byte
}

func multipartReader(t *testing.T, parts ...formPart) *multipart.Reader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := textproto.MIMEHeader{}
		if p.filename == "" {
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q`, p.field))
		} else {
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.filename))
		}
		if p.contentType != "" {
			h.Set("Content-Type", p.contentType)
		}
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return multipart.NewReader(&buf, w.Boundary())
}

type fixture struct {
	repo   *repository.FileRepository
	intake *Intake
	dir    string
}

func newFixture(t *testing.T, dbName string, maxBytes int64) *fixture {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, dbName)
	repo := repository.NewFileRepository(d)
	dir := t.TempDir()
	in, err := NewIntake(repo, IntakeConfig{Dir: dir, MaxBytes: maxBytes, Decoder: Spreadsheets{}, Logger: logging.Discard()})
	require.NoError(t, err)
	return &fixture{repo: repo, intake: in, dir: in.Dir()}
}

func (f *fixture) diskFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		out = append(out, filepath.Join(f.dir, e.Name()))
	}
	return out
}

func (f *fixture) records(t *testing.T) []models.UploadedFile {
	t.Helper()
	recs, err := f.repo.List(context.Background())
	require.NoError(t, err)
	return recs
}

// failingRecorder simulates the metadata store going away after the disk write.
type failingRecorder struct{}

func (failingRecorder) Create(context.Context, *models.UploadedFile) (*models.UploadedFile, error) {
	return nil, errors.New("database is unreachable")
}

func xlsxBytes(t *testing.T, grid [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for r, line := range grid {
		for c, v := range line {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"wardRecords/models"
)

const (
	ArchiveName        = "archivos.zip"
	ArchiveContentType = "application/zip"
)

// Lister returns every upload record.
type Lister interface {
	List(ctx context.Context) ([]models.UploadedFile, error)
}

// Archive is a ready-to-send ZIP of stored uploads.
type Archive struct {
	Name        string
	ContentType string
	Data        []byte
	Entries     []string // entry names in archive order
	Skipped     int      // records whose file was missing or unreadable
}

// Exporter bundles stored uploads into one in-memory archive.
type Exporter struct {
	records Lister
	logger  *slog.Logger
}

func NewExporter(records Lister, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{records: records, logger: logger}
}

// Build zips every recorded file that can still be read, named by its original filename.
// It returns ErrNoFiles when there are no records and ErrNoValidFiles when none survived.
// No lock is taken; uploads racing with Build may or may not be included.
func (e *Exporter) Build(ctx context.Context) (*Archive, error) {
	recs, err := e.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list file records: %w", err)
	}
	if len(recs) == 0 {
		return nil, ErrNoFiles
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	names := entryNamer{}
	out := &Archive{Name: ArchiveName, ContentType: ArchiveContentType}
	for _, rec := range recs {
		data, err := os.ReadFile(rec.StoredPath)
		if err != nil {
			out.Skipped++
			if errors.Is(err, fs.ErrNotExist) {
				e.logger.DebugContext(ctx, "archive: stored file missing", slog.Int64("id", rec.ID), slog.String("path", rec.StoredPath))
			} else {
				e.logger.WarnContext(ctx, "archive: stored file unreadable", slog.Int64("id", rec.ID), slog.Any("error", err))
			}
			continue
		}
		name := names.next(rec.OriginalName)
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: time.Now()})
		if err != nil {
			return nil, fmt.Errorf("add %s to archive: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("write %s to archive: %w", name, err)
		}
		out.Entries = append(out.Entries, name)
	}
	if len(out.Entries) == 0 {
		return nil, ErrNoValidFiles
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}
	out.Data = buf.Bytes()
	e.logger.InfoContext(ctx, "archive built", slog.Int("entries", len(out.Entries)), slog.Int("skipped", out.Skipped), slog.Int("bytes", len(out.Data)))
	return out, nil
}

// entryNamer hands out unique entry names. Later duplicates get " (2)", " (3)"...
// before the extension.
type entryNamer map[string]bool

func (n entryNamer) next(original string) string {
	name := path.Base(strings.ReplaceAll(original, `\`, "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		name = "file"
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 2; n[candidate]; i++ {
		candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
	}
	n[candidate] = true
	return candidate
}

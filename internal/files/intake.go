package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"wardRecords/models"
)

// FieldName is the only multipart field accepted by the upload endpoint.
const FieldName = "archivo"

// DefaultMaxBytes is the upload ceiling when none is configured.
const DefaultMaxBytes int64 = 10 * 1024 * 1024

var allowedTypes = map[string]bool{
	models.MIMESpreadsheetXLSX: true,
	models.MIMESpreadsheetXLS:  true,
	models.MIMEPDF:             true,
}

// Recorder persists upload metadata.
type Recorder interface {
	Create(ctx context.Context, f *models.UploadedFile) (*models.UploadedFile, error)
}

// Upload is one file as submitted by a client.
type Upload struct {
	FieldName   string
	Filename    string
	ContentType string
	Content     io.Reader
}

// Result describes an accepted upload.
type Result struct {
	Record *models.UploadedFile
	// Rows is the number of spreadsheet records decoded, or -1 when nothing was decoded.
	Rows int
}

// IntakeConfig configures NewIntake.
type IntakeConfig struct {
	Dir      string
	MaxBytes int64
	Decoder  SheetDecoder // nil disables spreadsheet decoding
	Logger   *slog.Logger
}

// Intake validates uploads, writes them to disk and records their metadata.
// The disk write and the insert are not transactional; a failed insert leaves
// the file behind and is reported as *PersistError.
type Intake struct {
	records  Recorder
	dir      string
	maxBytes int64
	decoder  SheetDecoder
	logger   *slog.Logger
	now      func() time.Time
}

// NewIntake creates the upload directory if needed.
func NewIntake(records Recorder, cfg IntakeConfig) (*Intake, error) {
	dir, err := ResolveDir(cfg.Dir)
	if err != nil {
		return nil, err
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Intake{
		records:  records,
		dir:      dir,
		maxBytes: cfg.MaxBytes,
		decoder:  cfg.Decoder,
		logger:   cfg.Logger,
		now:      time.Now,
	}, nil
}

// Dir is the absolute upload directory.
func (in *Intake) Dir() string { return in.dir }

// MaxBytes is the per-file size ceiling.
func (in *Intake) MaxBytes() int64 { return in.maxBytes }

type staged struct {
	upload   Upload
	mimeType string
	path     string
}

func (s *staged) discard() {
	if s != nil {
		_ = os.Remove(s.path)
	}
}

// Accept validates a single upload, stores it and records it.
func (in *Intake) Accept(ctx context.Context, u Upload) (*Result, error) {
	s, err := in.stage(u)
	if err != nil {
		return nil, err
	}
	return in.commit(ctx, s)
}

// Receive reads a multipart body holding exactly one file under FieldName.
// Any other part rejects the whole request and removes what was already staged.
func (in *Intake) Receive(ctx context.Context, mr *multipart.Reader) (*Result, error) {
	var s *staged
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.discard()
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				return nil, invalid(ErrTooLarge)
			}
			return nil, invalid(fmt.Errorf("%w: %v", ErrMalformed, err))
		}
		rejection := checkPart(part, s != nil)
		if rejection != nil {
			_ = part.Close()
			s.discard()
			return nil, rejection
		}
		next, err := in.stage(Upload{
			FieldName:   part.FormName(),
			Filename:    part.FileName(),
			ContentType: part.Header.Get("Content-Type"),
			Content:     part,
		})
		_ = part.Close()
		if err != nil {
			return nil, err
		}
		s = next
	}
	if s == nil {
		return nil, ErrNoFile
	}
	return in.commit(ctx, s)
}

// checkPart applies the per-part rules that do not need the part's bytes.
func checkPart(part *multipart.Part, haveFile bool) error {
	if part.FormName() != FieldName {
		return invalid(fmt.Errorf("%w: %q", ErrUnexpectedField, part.FormName()))
	}
	if part.FileName() == "" {
		return invalid(ErrFieldsNotAllowed)
	}
	if haveFile {
		return invalid(ErrTooManyFiles)
	}
	return nil
}

// stage validates u and writes its bytes under a fresh name.
func (in *Intake) stage(u Upload) (*staged, error) {
	if u.FieldName != FieldName {
		return nil, invalid(fmt.Errorf("%w: %q", ErrUnexpectedField, u.FieldName))
	}
	mt := normalizeType(u.ContentType)
	if !allowedTypes[mt] {
		return nil, invalid(fmt.Errorf("%w (got %q)", ErrUnsupportedType, u.ContentType))
	}
	if u.Content == nil {
		return nil, ErrNoFile
	}

	f, path, err := createUnique(in.dir, in.now(), u.Filename)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(u.Content, in.maxBytes+1))
	if err == nil && n > in.maxBytes {
		err = invalid(ErrTooLarge)
	}
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		var tooBig *http.MaxBytesError
		switch {
		case IsValidation(err):
			return nil, err
		case errors.As(err, &tooBig):
			return nil, invalid(ErrTooLarge)
		default:
			return nil, fmt.Errorf("write upload: %w", err)
		}
	}
	return &staged{upload: u, mimeType: mt, path: path}, nil
}

// commit records the staged file and decodes spreadsheets. Only the insert can fail it.
func (in *Intake) commit(ctx context.Context, s *staged) (*Result, error) {
	rec, err := in.records.Create(ctx, &models.UploadedFile{
		OriginalName: s.upload.Filename,
		MIMEType:     s.mimeType,
		StoredPath:   s.path,
	})
	if err != nil {
		in.logger.ErrorContext(ctx, "upload metadata insert failed; file left on disk",
			slog.String("orphan", s.path), slog.Any("error", err))
		return nil, &PersistError{Path: s.path, Err: err}
	}
	in.logger.InfoContext(ctx, "upload stored",
		slog.Int64("id", rec.ID), slog.String("name", rec.OriginalName),
		slog.String("type", rec.MIMEType), slog.String("path", rec.StoredPath))

	in.checkContent(ctx, rec)

	res := &Result{Record: rec, Rows: -1}
	if rec.IsSpreadsheet() && in.decoder != nil {
		rows, err := in.decoder.Decode(rec.StoredPath, rec.MIMEType)
		if err != nil {
			in.logger.ErrorContext(ctx, "spreadsheet decode failed",
				slog.Int64("id", rec.ID), slog.Any("error", err))
		} else {
			res.Rows = len(rows)
			in.logger.InfoContext(ctx, "spreadsheet processed",
				slog.Int64("id", rec.ID), slog.Int("records", len(rows)))
		}
	}
	return res, nil
}

// checkContent logs when the sniffed type disagrees with the declared one.
// The declared type stays authoritative.
func (in *Intake) checkContent(ctx context.Context, rec *models.UploadedFile) {
	detected, err := mimetype.DetectFile(rec.StoredPath)
	if err != nil {
		return
	}
	if !detected.Is(rec.MIMEType) {
		in.logger.WarnContext(ctx, "declared type does not match content",
			slog.Int64("id", rec.ID), slog.String("declared", rec.MIMEType), slog.String("detected", detected.String()))
	}
}

func normalizeType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

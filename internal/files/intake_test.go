package files

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wardRecords/internal/logging"
	"wardRecords/models"
)

func TestReceive_AcceptsSinglePDF(t *testing.T) {
	f := newFixture(t, "intakepdf", 0)
	body := []byte("%PDF-1.4 discharge summary")

	res, err := f.intake.Receive(context.Background(), multipartReader(t,
		formPart{field: FieldName, filename: "alta.pdf", contentType: models.MIMEPDF, data: body}))
	require.NoError(t, err)

	assert.Equal(t, "alta.pdf", res.Record.OriginalName)
	assert.Equal(t, models.MIMEPDF, res.Record.MIMEType)
	assert.Equal(t, -1, res.Rows)

	// Exactly one file on disk at the stored path and one row pointing at it.
	assert.Equal(t, []string{res.Record.StoredPath}, f.diskFiles(t))
	recs := f.records(t)
	require.Len(t, recs, 1)
	assert.Equal(t, res.Record.StoredPath, recs[0].StoredPath)

	got, err := os.ReadFile(res.Record.StoredPath)
	require.NoError(t, err)
	assert.Equal(t, body, got)
	assert.True(t, strings.HasSuffix(filepath.Base(res.Record.StoredPath), "-alta.pdf"))
}

func TestReceive_RejectsWithoutPersisting(t *testing.T) {
	pdf := formPart{field: FieldName, filename: "a.pdf", contentType: models.MIMEPDF, data: []byte("%PDF")}
	cases := []struct {
		name  string
		parts []formPart
		want  error
	}{
		{"wrong field name", []formPart{{field: "file", filename: "a.pdf", contentType: models.MIMEPDF, data: []byte("x")}}, ErrUnexpectedField},
		{"disallowed type", []formPart{{field: FieldName, filename: "a.png", contentType: "image/png", data: []byte("x")}}, ErrUnsupportedType},
		{"missing type", []formPart{{field: FieldName, filename: "a.pdf", data: []byte("x")}}, ErrUnsupportedType},
		{"second file", []formPart{pdf, pdf}, ErrTooManyFiles},
		{"extra form field after file", []formPart{pdf, {field: "note", data: []byte("hi")}}, ErrUnexpectedField},
		{"plain field under file name", []formPart{{field: FieldName, data: []byte("hi")}}, ErrFieldsNotAllowed},
		{"oversize", []formPart{{field: FieldName, filename: "big.pdf", contentType: models.MIMEPDF, data: bytes.Repeat([]byte("a"), 65)}}, ErrTooLarge},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, "intakereject"+string(rune('a'+i)), 64)
			_, err := f.intake.Receive(context.Background(), multipartReader(t, tc.parts...))
			require.Error(t, err)
			assert.True(t, IsValidation(err), "want validation error, got %v", err)
			assert.ErrorIs(t, err, tc.want)

			assert.Empty(t, f.diskFiles(t), "nothing may be left on disk")
			assert.Empty(t, f.records(t), "no metadata row may be written")
		})
	}
}

func TestReceive_NoFile(t *testing.T) {
	f := newFixture(t, "intakenofile", 0)
	_, err := f.intake.Receive(context.Background(), multipartReader(t))
	assert.ErrorIs(t, err, ErrNoFile)
	assert.False(t, IsValidation(err))
}

func TestAccept_SizeAtLimitIsAccepted(t *testing.T) {
	f := newFixture(t, "intakelimit", 64)
	res, err := f.intake.Accept(context.Background(), Upload{
		FieldName: FieldName, Filename: "edge.pdf", ContentType: "Application/PDF; charset=binary",
		Content: bytes.NewReader(bytes.Repeat([]byte("a"), 64)),
	})
	require.NoError(t, err)
	assert.Equal(t, models.MIMEPDF, res.Record.MIMEType)
}

func TestAccept_DatabaseFailureLeavesOrphan(t *testing.T) {
	dir := t.TempDir()
	in, err := NewIntake(failingRecorder{}, IntakeConfig{Dir: dir, Logger: logging.Discard()})
	require.NoError(t, err)

	_, err = in.Accept(context.Background(), Upload{
		FieldName: FieldName, Filename: "census.pdf", ContentType: models.MIMEPDF, Content: strings.NewReader("%PDF"),
	})
	require.Error(t, err)
	var pe *PersistError
	require.ErrorAs(t, err, &pe)
	assert.False(t, IsValidation(err))

	// The bytes stay on disk; that is the accepted failure mode.
	data, err := os.ReadFile(pe.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))
}

func TestAccept_SpreadsheetIsDecoded(t *testing.T) {
	f := newFixture(t, "intakexlsx", 0)
	content := xlsxBytes(t, [][]string{{"nombre", "causa"}, {"Ana", "fractura"}, {"Luis", "fiebre"}})

	res, err := f.intake.Accept(context.Background(), Upload{
		FieldName: FieldName, Filename: "pacientes.xlsx", ContentType: models.MIMESpreadsheetXLSX, Content: bytes.NewReader(content),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rows)
}

func TestAccept_LegacySpreadsheetIsDecoded(t *testing.T) {
	f := newFixture(t, "intakexls", 0)
	content, err := os.ReadFile(filepath.Join("testdata", "table.xls"))
	require.NoError(t, err)

	res, err := f.intake.Accept(context.Background(), Upload{
		FieldName: FieldName, Filename: "equipos.xls", ContentType: models.MIMESpreadsheetXLS, Content: bytes.NewReader(content),
	})
	require.NoError(t, err)
	assert.Equal(t, 11, res.Rows)
}

func TestAccept_BrokenSpreadsheetStillSucceeds(t *testing.T) {
	f := newFixture(t, "intakebrokenxlsx", 0)
	res, err := f.intake.Accept(context.Background(), Upload{
		FieldName: FieldName, Filename: "broken.xls", ContentType: models.MIMESpreadsheetXLS, Content: strings.NewReader("not a workbook"),
	})
	require.NoError(t, err)
	assert.Equal(t, -1, res.Rows)
	assert.Len(t, f.records(t), 1)
}

func TestAccept_SameMillisecondDoesNotOverwrite(t *testing.T) {
	f := newFixture(t, "intakecollide", 0)
	fixed := time.UnixMilli(1700000000000)
	f.intake.now = func() time.Time { return fixed }

	var paths []string
	for _, body := range []string{"%PDF first", "%PDF second"} {
		res, err := f.intake.Accept(context.Background(), Upload{
			FieldName: FieldName, Filename: "same.pdf", ContentType: models.MIMEPDF, Content: strings.NewReader(body),
		})
		require.NoError(t, err)
		paths = append(paths, res.Record.StoredPath)
	}
	assert.Equal(t, "1700000000000-same.pdf", filepath.Base(paths[0]))
	assert.Equal(t, "1700000000000-1-same.pdf", filepath.Base(paths[1]))

	first, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "%PDF first", string(first))
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"report.pdf":             "report.pdf",
		"../../etc/passwd":       "passwd",
		`C:\Users\x\evil.xlsx`:   "evil.xlsx",
		"informe máquinas.xlsx":  "informe máquinas.xlsx",
		"a;b|c*d.pdf":            "a_b_c_d.pdf",
		"..":                     "file",
		"":                       "file",
		"  ":                     "file",
		"lista (2).xls":          "lista (2).xls",
		"tab\tand\nnewline.pdf":  "tab_and_newline.pdf",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeName(in), "input %q", in)
	}
	long := strings.Repeat("x", 300) + ".pdf"
	got := SanitizeName(long)
	assert.LessOrEqual(t, len(got), maxBaseNameLen)
	assert.True(t, strings.HasSuffix(got, ".pdf"))
}

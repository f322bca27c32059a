package models

import "strings"

// MIME types accepted by file intake.
const (
	MIMESpreadsheetXLS  = "application/vnd.ms-excel"
	MIMESpreadsheetXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEPDF             = "application/pdf"
)

// UploadedFile is the metadata row written once per accepted upload.
// The row is never updated; StoredPath points at the bytes on disk.
type UploadedFile struct {
	ID           int64  `db:"id" json:"id"`
	OriginalName string `db:"original_name" json:"nombre"`
	MIMEType     string `db:"mime_type" json:"tipo"`
	StoredPath   string `db:"stored_path" json:"ruta"`
	CreatedAt    string `db:"created_at" json:"created_at"`
}

// IsSpreadsheet reports whether the declared MIME type is one of the spreadsheet types.
func (f *UploadedFile) IsSpreadsheet() bool {
	return IsSpreadsheetType(f.MIMEType)
}

// IsSpreadsheetType reports whether mimeType is a legacy or XML spreadsheet type.
func IsSpreadsheetType(mimeType string) bool {
	switch strings.ToLower(mimeType) {
	case MIMESpreadsheetXLS, MIMESpreadsheetXLSX:
		return true
	}
	return false
}

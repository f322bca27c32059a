package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"wardRecords/internal/files"
)

// multipartOverhead is allowed on top of the file limit for boundaries and headers.
const multipartOverhead = 1 << 20

type uploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Archivo string `json:"archivo"`
}

func (s *Server) uploadPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "subir_archivo.html", struct{ MaxMB int64 }{s.Intake.MaxBytes() >> 20})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.Intake.MaxBytes()+multipartOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, errorBody{Error: "Invalid file", Details: err.Error()})
		return
	}

	res, err := s.Intake.Receive(r.Context(), mr)
	var persistErr *files.PersistError
	switch {
	case err == nil:
	case errors.Is(err, files.ErrNoFile):
		s.writeJSON(w, r, http.StatusBadRequest, errorBody{Error: "No file was uploaded"})
		return
	case files.IsValidation(err):
		s.writeJSON(w, r, http.StatusBadRequest, errorBody{Error: "Invalid file", Details: err.Error()})
		return
	case errors.As(err, &persistErr):
		s.writeJSON(w, r, http.StatusInternalServerError, errorBody{Error: "Database error"})
		return
	default:
		s.Logger.ErrorContext(r.Context(), "upload failed", slog.Any("error", err))
		s.writeJSON(w, r, http.StatusInternalServerError, errorBody{Error: "Error uploading file", Details: err.Error()})
		return
	}

	s.writeJSON(w, r, http.StatusOK, uploadResponse{
		Success: true,
		Message: "File uploaded and recorded",
		Archivo: res.Record.OriginalName,
	})
}

func (s *Server) generateZip(w http.ResponseWriter, r *http.Request) {
	archive, err := s.Exporter.Build(r.Context())
	switch {
	case errors.Is(err, files.ErrNoFiles):
		s.writeJSON(w, r, http.StatusNotFound, errorBody{Error: "No files available"})
		return
	case errors.Is(err, files.ErrNoValidFiles):
		s.writeJSON(w, r, http.StatusNotFound, errorBody{Error: "No valid files found"})
		return
	case err != nil:
		s.Logger.ErrorContext(r.Context(), "build archive", slog.Any("error", err))
		s.writeJSON(w, r, http.StatusInternalServerError, errorBody{Error: "Error generating ZIP file", Details: err.Error()})
		return
	}

	w.Header().Set("Content-Type", archive.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+archive.Name)
	w.Header().Set("Content-Length", strconv.Itoa(len(archive.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive.Data)
}

func (s *Server) listUploads(w http.ResponseWriter, r *http.Request) {
	list, err := s.Files.List(r.Context())
	if err != nil {
		s.Logger.ErrorContext(r.Context(), "list uploads", slog.Any("error", err))
		s.writeJSON(w, r, http.StatusInternalServerError, errorBody{Error: "Database error"})
		return
	}
	s.writeJSON(w, r, http.StatusOK, list)
}

package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"wardRecords/internal/auth"
	"wardRecords/models"
)

func (s *Server) listPatients(w http.ResponseWriter, r *http.Request) {
	list, err := s.Patients.List(r.Context())
	if err != nil {
		s.Logger.ErrorContext(r.Context(), "list patients", slog.Any("error", err))
		plain(w, http.StatusInternalServerError, "Error loading patients.")
		return
	}
	s.render(w, r, "pacientes.html", list)
}

func (s *Server) addPatient(w http.ResponseWriter, r *http.Request) {
	name, cause := formValue(r, "nombre"), formValue(r, "causa")
	if name == "" || cause == "" {
		plain(w, http.StatusBadRequest, "Name and cause are required.")
		return
	}
	if _, err := s.Patients.Create(r.Context(), name, cause); err != nil {
		s.Logger.ErrorContext(r.Context(), "create patient", slog.Any("error", err))
		plain(w, http.StatusInternalServerError, "Error saving patient.")
		return
	}
	http.Redirect(w, r, "/ver-pacientes", http.StatusFound)
}

func (s *Server) listMedications(w http.ResponseWriter, r *http.Request) {
	s.renderMedications(w, r, "medicamentos.html")
}

func (s *Server) medicationsForDeletion(w http.ResponseWriter, r *http.Request) {
	s.renderMedications(w, r, "eliminar_medicamento.html")
}

func (s *Server) renderMedications(w http.ResponseWriter, r *http.Request, tmpl string) {
	list, err := s.Medications.List(r.Context())
	if err != nil {
		s.Logger.ErrorContext(r.Context(), "list medications", slog.Any("error", err))
		plain(w, http.StatusInternalServerError, "Error loading medications.")
		return
	}
	s.render(w, r, tmpl, list)
}

func (s *Server) addMedication(w http.ResponseWriter, r *http.Request) {
	name, purpose := formValue(r, "nombre"), formValue(r, "funcion")
	if name == "" || purpose == "" {
		plain(w, http.StatusBadRequest, "Name and purpose are required.")
		return
	}
	if _, err := s.Medications.Create(r.Context(), name, purpose); err != nil {
		s.Logger.ErrorContext(r.Context(), "create medication", slog.Any("error", err))
		plain(w, http.StatusInternalServerError, "Error saving medication.")
		return
	}
	http.Redirect(w, r, "/ver-medicamentos", http.StatusFound)
}

func (s *Server) deleteMedication(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(r)
	if !ok {
		plain(w, http.StatusBadRequest, "Invalid medication id.")
		return
	}
	if err := s.Medications.Delete(r.Context(), id); err != nil {
		s.Logger.ErrorContext(r.Context(), "delete medication", slog.Int64("id", id), slog.Any("error", err))
		plain(w, http.StatusInternalServerError, "Error deleting medication.")
		return
	}
	http.Redirect(w, r, "/eliminar-medicamento", http.StatusFound)
}

func (s *Server) listMachines(w http.ResponseWriter, r *http.Request) {
	s.renderMachines(w, r, "maquinas.html")
}

func (s *Server) machinesForDeletion(w http.ResponseWriter, r *http.Request) {
	s.renderMachines(w, r, "eliminar_maquina.html")
}

// equipment is the machine overview: the list plus the actions the caller's role allows.
func (s *Server) equipment(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.FromContext(r.Context())
	list, err := s.Machines.List(r.Context())
	if err != nil {
		s.Logger.ErrorContext(r.Context(), "list machines", slog.Any("error", err))
		plain(w, http.StatusInternalServerError, "Error loading machines.")
		return
	}
	s.render(w, r, "equipos.html", struct {
		Role     models.Role
		Machines []models.Machine
	}{sess.Role, list})
}

func (s *Server) renderMachines(w http.ResponseWriter, r *http.Request, tmpl string) {
	list, err := s.Machines.List(r.Context())
	if err != nil {
		s.Logger.ErrorContext(r.Context(), "list machines", slog.Any("error", err))
		plain(w, http.StatusInternalServerError, "Error loading machines.")
		return
	}
	s.render(w, r, tmpl, list)
}

func (s *Server) addMachine(w http.ResponseWriter, r *http.Request) {
	name, kind, status := formValue(r, "nombre"), formValue(r, "tipo"), formValue(r, "estado")
	if name == "" || kind == "" || status == "" {
		plain(w, http.StatusBadRequest, "Name, type and status are required.")
		return
	}
	if _, err := s.Machines.Create(r.Context(), name, kind, status); err != nil {
		s.Logger.ErrorContext(r.Context(), "create machine", slog.Any("error", err))
		plain(w, http.StatusInternalServerError, "Error saving machine.")
		return
	}
	http.Redirect(w, r, "/ver-maquinas", http.StatusFound)
}

func (s *Server) deleteMachine(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(r)
	if !ok {
		plain(w, http.StatusBadRequest, "Invalid machine id.")
		return
	}
	if err := s.Machines.Delete(r.Context(), id); err != nil {
		s.Logger.ErrorContext(r.Context(), "delete machine", slog.Int64("id", id), slog.Any("error", err))
		plain(w, http.StatusInternalServerError, "Error deleting machine.")
		return
	}
	http.Redirect(w, r, "/eliminar-maquina", http.StatusFound)
}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.PostFormValue(key))
}

func formID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(formValue(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

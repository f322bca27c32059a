// Package web serves the ward's browser-facing pages and the file endpoints.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"wardRecords/internal/auth"
	"wardRecords/internal/config"
	"wardRecords/internal/files"
	"wardRecords/internal/logging"
	"wardRecords/models"
	"wardRecords/repository"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Deps is everything the HTTP layer talks to.
type Deps struct {
	Config      *config.Config
	Logger      *slog.Logger
	Sessions    *auth.Manager
	Users       repository.UserRepositoryI
	AccessCodes repository.AccessCodeRepositoryI
	Patients    repository.PatientRepositoryI
	Medications repository.MedicationRepositoryI
	Machines    repository.MachineRepositoryI
	Files       repository.FileRepositoryI
	Intake      *files.Intake
	Exporter    *files.Exporter
}

// Server holds the parsed templates and the handler dependencies.
type Server struct {
	Deps
	pages *template.Template
}

// New parses the embedded templates and validates deps.
func New(d Deps) (*Server, error) {
	if d.Config == nil {
		return nil, errors.New("web: config is required")
	}
	if d.Sessions == nil || d.Intake == nil || d.Exporter == nil {
		return nil, errors.New("web: sessions, intake and exporter are required")
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	pages, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Server{Deps: d, pages: pages}, nil
}

// Routes builds the router. Every route sees the caller's session, if any.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(s.Logger))
	r.Use(middleware.Recoverer)
	r.Use(s.Sessions.LoadSession)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if dir := s.Config.HTTP.PublicDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(dir))))
		}
	}

	r.Get("/login", s.page("login.html", nil))
	r.Post("/login", s.login)
	r.Get("/registrar", s.page("registrar.html", nil))
	r.Post("/registrar", s.register)
	r.Get("/logout", s.logout)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession)

		r.Get("/", s.home)
		r.Get("/tipo-usuario", s.userKind)
		r.Get("/navbar", s.navbar)

		r.Get("/ver-pacientes", s.listPatients)
		r.Get("/ver-medicamentos", s.listMedications)
		r.Get("/ver-maquinas", s.listMachines)
		r.Get("/equipos", s.equipment)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleDoctor, models.RoleNurse))
			r.Get("/agregar-paciente", s.page("agregar_paciente.html", nil))
			r.Post("/agregar-paciente", s.addPatient)
		})
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleDoctor))
			r.Get("/agregar-medicamento", s.page("agregar_medicamento.html", nil))
			r.Post("/agregar-medicamento", s.addMedication)
			r.Get("/agregar-maquina", s.page("agregar_maquina.html", nil))
			r.Post("/agregar-maquina", s.addMachine)
		})
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleNurse))
			r.Get("/eliminar-medicamento", s.medicationsForDeletion)
			r.Post("/eliminar-medicamento", s.deleteMedication)
			r.Get("/eliminar-maquina", s.machinesForDeletion)
			r.Post("/eliminar-maquina", s.deleteMachine)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(s.Config.Files.AllowedRoles...))
			r.Get("/subir-archivo", s.uploadPage)
			r.Get("/descargar-archivos", s.page("descargar_archivos.html", nil))
			r.Post("/upload", s.upload)
			r.Get("/generar-zip", s.generateZip)
			r.Get("/archivos-subidos", s.listUploads)
			r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(filesOnly{http.Dir(s.Intake.Dir())})))
		})
	})
	return r
}

// filesOnly hides directories, so stored uploads can be fetched by name
// but the upload directory cannot be listed.
type filesOnly struct {
	root http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}

// Start listens on addr and serves in the background. The returned function
// shuts the server down gracefully.
func (s *Server) Start(addr string) (func(context.Context) error, error) {
	if addr == "" {
		addr = ":3000"
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.Logger.Handler(), slog.LevelError),
	}
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Error("http server stopped", slog.Any("error", err))
		}
	}()
	return srv.Shutdown, nil
}

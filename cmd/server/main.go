package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wardRecords/internal/auth"
	"wardRecords/internal/config"
	"wardRecords/internal/db"
	"wardRecords/internal/files"
	grpcserver "wardRecords/internal/grpc"
	"wardRecords/internal/jobs"
	"wardRecords/internal/logging"
	"wardRecords/internal/web"
	"wardRecords/repository"
)

type shutdown struct {
	name string
	stop func(context.Context) error
}

func main() {
	// Load configuration
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("config", cfg.String()))

	// Open DB
	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.Error("close db", slog.Any("error", err))
		}
	}()

	users := repository.NewUserRepository(d)
	accessCodes := repository.NewAccessCodeRepository(d)
	for code, role := range cfg.Auth.AccessCodes {
		if err := accessCodes.Create(context.Background(), code, role); err != nil {
			log.Fatalf("seed access code: %v", err)
		}
	}
	sessionRepo := repository.NewSessionRepository(d)
	fileRepo := repository.NewFileRepository(d)
	sessions := auth.NewManager(sessionRepo, cfg.Auth.SessionSecret, cfg.Auth.SessionTTL, logger)

	intake, err := files.NewIntake(fileRepo, files.IntakeConfig{
		Dir:      cfg.Files.UploadDir,
		MaxBytes: cfg.Files.MaxUploadBytes,
		Decoder:  files.Spreadsheets{},
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("prepare upload dir: %v", err)
	}
	reconciler, err := files.NewReconciler(fileRepo, intake.Dir(), logger)
	if err != nil {
		log.Fatalf("prepare reconciler: %v", err)
	}

	srv, err := web.New(web.Deps{
		Config:      cfg,
		Logger:      logger,
		Sessions:    sessions,
		Users:       users,
		AccessCodes: accessCodes,
		Patients:    repository.NewPatientRepository(d),
		Medications: repository.NewMedicationRepository(d),
		Machines:    repository.NewMachineRepository(d),
		Files:       fileRepo,
		Intake:      intake,
		Exporter:    files.NewExporter(fileRepo, logger),
	})
	if err != nil {
		log.Fatalf("build web server: %v", err)
	}

	// Start HTTP
	var shutdowns []shutdown
	stopHTTP, err := srv.Start(cfg.HTTP.Address)
	if err != nil {
		log.Fatalf("start http: %v", err)
	}
	shutdowns = append(shutdowns, shutdown{"http", stopHTTP})
	logger.Info("http server listening", slog.String("addr", cfg.HTTP.Address))

	// Start gRPC
	if cfg.GRPC.Address != "" {
		maint := &grpcserver.MaintenanceServer{
			Reconciler: reconciler,
			Files:      fileRepo,
			Users:      users,
			Sessions:   sessionRepo,
			Roles:      cfg.Files.AllowedRoles,
			Logger:     logger,
		}
		stopGRPC, err := grpcserver.StartGRPC(cfg, sessions, maint, logger)
		if err != nil {
			log.Fatalf("start grpc: %v", err)
		}
		shutdowns = append(shutdowns, shutdown{"grpc", stopGRPC})
		logger.Info("grpc server listening", slog.String("addr", cfg.GRPC.Address))
	}

	// Schedule maintenance
	if cfg.Files.ReconcileSchedule != "" {
		stopJobs, err := jobs.Schedule(cfg.Files.ReconcileSchedule, &jobs.Maintenance{
			Sweeper:  reconciler,
			Sessions: sessionRepo,
			Options:  files.SweepOptions{RemoveOrphans: cfg.Files.RemoveOrphans, PruneDangling: cfg.Files.PruneDangling},
			Logger:   logger,
		})
		if err != nil {
			log.Fatalf("schedule maintenance: %v", err)
		}
		shutdowns = append(shutdowns, shutdown{"jobs", stopJobs})
		logger.Info("maintenance scheduled", slog.String("schedule", cfg.Files.ReconcileSchedule))
	}

	// Wait for signal
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(shutdowns) - 1; i >= 0; i-- {
		if err := shutdowns[i].stop(ctx); err != nil {
			logger.Error("shutdown error", slog.String("component", shutdowns[i].name), slog.Any("error", err))
		}
	}
}

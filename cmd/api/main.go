package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/findadoctor/api/internal/config"
	v1 "github.com/findadoctor/api/internal/handler/v1"
	"github.com/findadoctor/api/internal/repository"
	"github.com/findadoctor/api/internal/service"
	"github.com/findadoctor/api/internal/worker"
	"github.com/findadoctor/api/pkg/auth"
	"github.com/findadoctor/api/pkg/database"
	"github.com/findadoctor/api/pkg/googleauth"
	"github.com/findadoctor/api/pkg/logger"
	"github.com/findadoctor/api/pkg/mailer"
	"github.com/findadoctor/api/pkg/metrics"
	"github.com/findadoctor/api/pkg/payments"
	"github.com/findadoctor/api/pkg/storage"
	"github.com/findadoctor/api/pkg/tracer"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Missing .env is fine in deployed environments.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	zlog.Info("starting findadoctor api",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		zlog.Fatal("initializing tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		zlog.Fatal("connecting to database", zap.Error(err))
	}
	if err := database.Migrate(db, zlog); err != nil {
		zlog.Fatal("migrating database", zap.Error(err))
	}

	collector := metrics.NewCollector("findadoctor")

	uploads, err := storage.NewCloudinaryUploader(cfg.Cloudinary)
	if err != nil {
		zlog.Fatal("initializing blob storage", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	prescriptionRepo := repository.NewPrescriptionRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	spamReportRepo := repository.NewSpamReportRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	tokens := auth.NewTokenManager(cfg.Session)
	gateway := payments.NewStripeGateway(cfg.Stripe)
	verifier := googleauth.NewGoogleVerifier(cfg.Google.ClientID)

	auditSvc := service.NewAuditService(auditRepo, collector, zlog)
	notifySvc := service.NewNotifyService(mailer.New(cfg.SMTP), collector, zlog)
	authSvc := service.NewAuthService(userRepo, verifier, notifySvc, auditSvc, collector, cfg.App.FrontendURL, zlog)
	userSvc := service.NewUserService(userRepo, uploads, auditSvc, zlog)
	appointmentSvc := service.NewAppointmentService(appointmentRepo, userRepo, gateway, notifySvc, auditSvc, collector, zlog)
	prescriptionSvc := service.NewPrescriptionService(prescriptionRepo, appointmentRepo, userRepo, uploads, auditSvc, collector, zlog)
	feedbackSvc := service.NewFeedbackService(feedbackRepo, spamReportRepo, appointmentRepo, userRepo, auditSvc, collector, zlog)
	adminSvc := service.NewAdminService(userRepo, appointmentRepo, prescriptionRepo, feedbackRepo, spamReportRepo, auditSvc, zlog)

	router := v1.NewRouter(v1.RouterDeps{
		Config:     cfg,
		Tokens:     tokens,
		Users:      userRepo,
		Metrics:    collector,
		Log:        zlog,
		Auth:       v1.NewAuthHandler(authSvc, tokens, cfg.Session),
		Patient:    v1.NewPatientHandler(userSvc, appointmentSvc, prescriptionSvc, feedbackSvc, adminSvc),
		Doctor:     v1.NewDoctorHandler(userSvc, appointmentSvc, prescriptionSvc, feedbackSvc, adminSvc),
		Staff:      v1.NewStaffHandler(userSvc, appointmentSvc, prescriptionSvc),
		Admin:      v1.NewAdminHandler(adminSvc, feedbackSvc),
		SuperAdmin: v1.NewSuperAdminHandler(adminSvc),
	})

	reminder := worker.NewReminder(cfg.Reminder, appointmentRepo, userRepo, notifySvc, collector, zlog)
	if err := reminder.Start(); err != nil {
		zlog.Fatal("starting reminder job", zap.Error(err))
	}

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		zlog.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}

	reminder.Stop()
	notifySvc.Shutdown()
	auditSvc.Shutdown()

	zlog.Info("stopped")
}

package main

import (
	_ "classbook/docs"
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classbook/internal/booking"
	"classbook/internal/config"
	"classbook/internal/db"
	"classbook/internal/email"
	"classbook/internal/events"
	"classbook/internal/logger"
	"classbook/internal/memstore"
	"classbook/internal/notify"
	"classbook/internal/reminder"
	"classbook/internal/schedule"
	"classbook/internal/server"
)

// @title Classbook API
// @version 1.0
// @description API for booking seats in recurring weekly classes.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {

	logger.Init()
	logger.Info("Starting Classbook application")
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	checks := map[string]server.HealthCheck{}

	var (
		templates schedule.Repository
		store     booking.Store
	)
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("Using in-memory store, reservations are lost on restart")
		mem := memstore.New()
		templates, store = mem, mem
	default:
		logger.Info("Connecting to database...")
		database, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()
		logger.Info("Database connected")

		if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
		logger.Info("Migrations completed")

		templates = schedule.NewRepository(database)
		store = booking.NewRepository(database)
		checks["database"] = func(ctx context.Context) error { return database.PingContext(ctx) }
	}

	rdb := email.NewClient(cfg.RedisAddr)
	emailService := email.New(rdb, email.SMTPConfig{
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Pass:     cfg.SMTPPass,
	})
	defer emailService.Close()
	checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	logger.Info("Email service initialized")

	var publisher events.Publisher = events.LogPublisher{}
	if cfg.AMQPURL != "" {
		publisher = events.NewAMQPPublisher(cfg.AMQPURL)
		logger.Info("Publishing domain events", "exchange", events.Exchange)
	}
	defer publisher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go emailService.Start(ctx)

	loc := cfg.FacilityLocation
	dispatcher := notify.New(emailService, publisher, loc)
	bookings := booking.NewService(templates, store, dispatcher, booking.Options{
		Location:     loc,
		CalendarDays: cfg.CalendarWindowDays,
	})

	scheduler, err := reminder.Schedule(reminder.NewJob(templates, store, emailService, publisher, loc), cfg.ReminderCron)
	if err != nil {
		logger.Fatalf("Invalid REMINDER_CRON: %v", err)
	}
	scheduler.Start()

	srv := server.New(cfg, server.Deps{
		Templates: schedule.NewService(templates),
		Bookings:  bookings,
		Checks:    checks,
	})

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()
	scheduler.Stop(shutdownCtx)

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}

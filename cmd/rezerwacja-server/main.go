package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Yolouth/rezerwacja-konsultacji/internal/calendar"
	"github.com/Yolouth/rezerwacja-konsultacji/internal/config"
	"github.com/Yolouth/rezerwacja-konsultacji/internal/domain"
	"github.com/Yolouth/rezerwacja-konsultacji/internal/mail"
	"github.com/Yolouth/rezerwacja-konsultacji/internal/metrics"
	"github.com/Yolouth/rezerwacja-konsultacji/internal/notify"
	"github.com/Yolouth/rezerwacja-konsultacji/internal/service/bookings"
	"github.com/Yolouth/rezerwacja-konsultacji/internal/store/postgres"
	httpTransport "github.com/Yolouth/rezerwacja-konsultacji/internal/transport/http"
)

func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "rezerwacja-server"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "rezerwacja-server"),
	)
	slog.SetDefault(log)

	sched, err := domain.NewSchedule(cfg.Slots, cfg.Weekdays, cfg.StartDate, cfg.Timezone)
	if err != nil {
		log.Error("invalid schedule configuration", slog.Any("err", err))
		os.Exit(1)
	}

	reminderSendTime, err := domain.ParseTimeOfDay(cfg.ReminderSendTime)
	if err != nil {
		log.Error("invalid reminder send time", slog.Any("err", err))
		os.Exit(1)
	}

	addr := fmt.Sprintf("%s:%d", cfg.HTTPHost, cfg.HTTPPort)
	log.Info("starting", slog.String("http_addr", addr), slog.String("log_level", cfg.LogLevel))

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	if err := postgres.CreateSchema(context.Background(), db); err != nil {
		log.Error("schema bootstrap failed", slog.Any("err", err))
		os.Exit(1)
	}

	repo := postgres.NewBookingRepo(db)
	m := metrics.New()

	mailer, err := mail.NewMailer(mail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	if err != nil {
		log.Error("mailer setup failed", slog.Any("err", err))
		os.Exit(1)
	}

	var calendarClient notify.CalendarClient
	googleCfg := calendar.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RefreshToken: cfg.GoogleRefreshToken,
		CalendarID:   cfg.GoogleCalendarID,
	}
	if googleCfg.Complete() {
		client, err := calendar.NewClient(context.Background(), googleCfg, sched.Location())
		if err != nil {
			log.Error("calendar client setup failed; calendar sync disabled", slog.Any("err", err))
		} else {
			calendarClient = client
		}
	} else {
		log.Warn("google calendar credentials missing; calendar sync disabled")
	}

	reminders, err := notify.NewReminderScheduler(repo, mailer, sched.Location(), reminderSendTime, m, log)
	if err != nil {
		log.Error("reminder scheduler setup failed", slog.Any("err", err))
		os.Exit(1)
	}
	reminders.Start()
	if err := reminders.RecoverPending(context.Background()); err != nil {
		log.Warn("reminder recovery failed", slog.Any("err", err))
	}

	dispatcher := notify.NewDispatcher(notify.Config{
		Workers:      cfg.NotifyWorkers,
		QueueSize:    cfg.NotifyQueueSize,
		TrainerEmail: cfg.TrainerEmail,
	}, repo, calendarClient, mailer, reminders, m, log)
	dispatcher.Start()

	svc := bookings.NewService(repo, sched, dispatcher)
	handler := httpTransport.NewBookingsHandler(svc, m, log)
	router := httpTransport.NewRouter(handler, m, log, httpTransport.RouterConfig{
		AllowedOrigin:  cfg.FrontendOrigin,
		RequestTimeout: cfg.HTTPRequestTimeout,
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info("http server started", slog.String("http_addr", addr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdown(log, srv, cfg.ShutdownTimeout)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped with error", slog.Any("err", err))
			os.Exit(1)
		}
	}

	dispatcher.Stop()
	if err := reminders.Shutdown(); err != nil {
		log.Warn("reminder scheduler shutdown failed", slog.Any("err", err))
	}
}

func shutdown(log *slog.Logger, srv *http.Server, timeout time.Duration) {
	log.Info("shutting down http server", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown timed out; forcing close", slog.Any("err", err))
		_ = srv.Close()
		return
	}
	log.Info("http server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/B1zn3/SearchWork-Website/internal/api/weather"
	"github.com/B1zn3/SearchWork-Website/internal/config"
	"github.com/B1zn3/SearchWork-Website/internal/httpapi"
	"github.com/B1zn3/SearchWork-Website/internal/httpapi/middleware"
	"github.com/B1zn3/SearchWork-Website/internal/logger"
	"github.com/B1zn3/SearchWork-Website/internal/mailer"
	"github.com/B1zn3/SearchWork-Website/internal/metrics"
	"github.com/B1zn3/SearchWork-Website/internal/notify"
	"github.com/B1zn3/SearchWork-Website/internal/notify/telegram"
	"github.com/B1zn3/SearchWork-Website/internal/service"
	"github.com/B1zn3/SearchWork-Website/internal/storage/postgres"
	"github.com/B1zn3/SearchWork-Website/internal/storage/redis"
	"github.com/B1zn3/SearchWork-Website/internal/storage/s3"
	"github.com/B1zn3/SearchWork-Website/internal/validation"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting SearchWork",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("log_level", cfg.LogLevel),
		zap.String("phone_format", cfg.PhoneFormat),
	)

	if cfg.RunMigrations {
		log.Info("applying migrations...")
		if err := postgres.Migrate(cfg.DatabaseURL, log); err != nil {
			log.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	log.Info("connecting to PostgreSQL...")
	store, err := postgres.New(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer store.Close()

	log.Info("PostgreSQL connected successfully")

	health := map[string]httpapi.Pinger{"postgres": store}

	// Optional components stay as nil interfaces when disabled.
	var (
		jobCache     service.JobCache
		weatherCache service.WeatherCache
		rateCounter  middleware.ApplyCounter
	)
	if cfg.RedisEnabled() {
		log.Info("connecting to Redis...")
		cache, err := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
		if err != nil {
			log.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer cache.Close()

		jobCache, weatherCache, rateCounter = cache, cache, cache
		health["redis"] = cache

		log.Info("Redis connected successfully")
	} else {
		log.Warn("REDIS_ADDR not set, caching and apply rate limiting disabled")
	}

	var storage service.ObjectStorage
	if cfg.S3Enabled() {
		client, err := s3.New(s3.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
			PublicURL: cfg.S3PublicURL,
		}, log)
		if err != nil {
			log.Fatal("failed to create object storage client", zap.Error(err))
		}
		storage = client
		log.Info("object storage enabled", zap.String("bucket", cfg.S3Bucket))
	} else {
		log.Warn("object storage not configured, media is stored in the database")
	}

	mail, err := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.AdminLogin,
		Password: cfg.AdminMailPassword,
		Timeout:  30 * time.Second,
	}, log)
	if err != nil {
		log.Fatal("failed to create mailer", zap.Error(err))
	}

	var notifier service.ApplicationNotifier
	if cfg.TelegramEnabled() {
		tg, err := telegram.New(cfg.TelegramToken, cfg.TelegramAdminChatID, log)
		if err != nil {
			log.Fatal("failed to create telegram notifier", zap.Error(err))
		}
		notifier = tg
		log.Info("telegram alerts enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	tasks := notify.New(cfg.NotifyWorkers, cfg.NotifyQueueSize, log,
		notify.WithObserver(metrics.ObserveTask),
	)
	tasks.Start(ctx)

	v := validation.New(cfg.PhoneFormat)
	weatherClient := weather.New(cfg.WeatherAPIBaseURL, cfg.WeatherAPIKey, cfg.WeatherAPITimeout, log)

	srv := httpapi.New(httpapi.Config{
		Credentials: middleware.Credentials{
			Username:     cfg.AdminUsername,
			Password:     cfg.AdminPassword,
			PasswordHash: cfg.AdminPasswordHash,
		},
		ApplyRateLimit:    cfg.ApplyRateLimit,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		StaticDir:         cfg.StaticDir,
		AdminStaticDir:    cfg.AdminStaticDir,
		TemplatesDir:      cfg.TemplatesDir,
		AdminTemplatesDir: cfg.AdminTemplatesDir,
	}, httpapi.Deps{
		Jobs:         service.NewJobService(store, v, storage, jobCache, tasks, log),
		Applications: service.NewApplicationService(store, store, v, mail, notifier, tasks, log),
		Settings:     service.NewSettingsService(store, v),
		Weather:      service.NewWeatherService(weatherClient, weatherCache, log),
		RateCounter:  rateCounter,
		Health:       health,
		Logger:       log,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			log.Error("http server stopped with error", zap.Error(err))
		}
	}

	log.Info("shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}

	// pending emails and deletions still run before exit
	tasks.Stop()

	log.Info("server stopped")
}

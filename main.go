package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"eventpass-backend/checkin"
	"eventpass-backend/config"
	"eventpass-backend/export"
	"eventpass-backend/handlers"
	"eventpass-backend/logging"
	"eventpass-backend/media"
	"eventpass-backend/notify"
	"eventpass-backend/settings"
	"eventpass-backend/store"
	"eventpass-backend/token"
	"eventpass-backend/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("info", "json", os.Stderr)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.DatabaseURL, int32(cfg.DBMaxConns))
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	db := store.New(pool)
	if cfg.AutoMigrate {
		if err := autoMigrate(ctx, pool, &logger); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	signer, err := token.NewSigner(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("token signer")
	}

	gate := settings.NewGate(db, newSettingsCache(cfg, &logger), &logger)
	writer := checkin.NewWriter(db, &logger)
	uploader := newUploader(cfg, &logger)
	exporter := newExporter(ctx, cfg, &logger)

	var publisher notify.Publisher = notify.NopPublisher{Log: &logger}
	if cfg.RabbitURL != "" {
		rabbit, err := notify.NewRabbit(cfg.RabbitURL, cfg.RabbitExchange, cfg.RabbitQueue, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("unable to connect to rabbitmq")
		}
		defer rabbit.Close()
		publisher = rabbit

		if cfg.SMTPEnabled() {
			mailer := notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
			worker := notify.NewWorker(rabbit, mailer, &logger)
			if err := worker.Start(ctx); err != nil {
				logger.Fatal().Err(err).Msg("unable to start notification worker")
			}
			defer worker.Stop()
		} else {
			logger.Warn().Msg("SMTP not configured, e-pass emails stay queued")
		}
	}

	v := validation.New()
	staff := handlers.NewStaffHandler(signer, cfg.StaffPassword, cfg.AdminPassword, &logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handlers.RequestLogger(&logger))
	router.Use(handlers.RequestTimeout(cfg.RequestTimeout))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	registration := handlers.NewRegistrationHandler(db, gate, v, uploader, publisher, handlers.RegistrationConfig{
		IDPrefix:    cfg.RegistrationIDPrefix,
		PassBaseURL: cfg.PassBaseURL,
	}, &logger)

	handlers.RegisterRoutes(router, handlers.Handlers{
		Status:       handlers.NewStatusHandler(db, gate),
		Registration: registration,
		Checkin:      handlers.NewCheckinHandler(db, writer, v, cfg.PassBaseURL, &logger),
		Staff:        staff,
		Admin:        handlers.NewAdminHandler(db, gate, exporter, &logger),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func autoMigrate(ctx context.Context, pool *pgxpool.Pool, logger *zerolog.Logger) error {
	mg, err := store.NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	defer mg.Close()

	version, changed, err := mg.Up(ctx)
	if err != nil {
		return err
	}
	logger.Info().Uint("version", version).Bool("changed", changed).Msg("schema migrated")
	return nil
}

func newSettingsCache(cfg *config.Config, logger *zerolog.Logger) settings.Cache {
	if cfg.RedisAddr == "" {
		return settings.NewMemoryCache(cfg.SettingsCacheTTL)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	logger.Info().Str("addr", cfg.RedisAddr).Msg("settings cache backed by redis")
	return settings.NewRedisCache(client, cfg.SettingsCacheTTL, logger)
}

func newUploader(cfg *config.Config, logger *zerolog.Logger) media.Uploader {
	if !cfg.CloudinaryEnabled() {
		logger.Warn().Msg("Cloudinary not configured, profile photos disabled")
		return media.Disabled{}
	}
	cld, err := media.NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("cloudinary setup")
	}
	return cld
}

func newExporter(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) export.Exporter {
	if !cfg.SheetsEnabled() {
		logger.Warn().Msg("Google Sheets not configured, export disabled")
		return export.Disabled{}
	}
	sheets, err := export.NewSheets(ctx, cfg.GoogleCredentialsFile, cfg.SheetsSpreadsheetID, cfg.SheetsRange, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("sheets setup")
	}
	return sheets
}

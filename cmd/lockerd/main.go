package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"locker-tab-backend/config"
	"locker-tab-backend/internal/api"
	"locker-tab-backend/internal/db"
	"locker-tab-backend/internal/hardware"
	"locker-tab-backend/internal/logging"
	"locker-tab-backend/internal/notification"
	"locker-tab-backend/internal/scan"
	"locker-tab-backend/internal/session"
	"locker-tab-backend/internal/store"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Format, "lockerd")
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("configuration loaded", zap.String("path", configPath))

	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, closeKV, err := newKVStore(cfg, gormDB)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	defer closeKV()
	history := store.NewHistoryStore(kv, logger)
	logger.Info("history store initialized", zap.String("backend", cfg.Storage.Backend))

	locale := scan.ParseLocale(cfg.Session.Locale, scan.LocaleEnglish)
	interpreter := scan.NewInterpreter(newSource(cfg, logger), locale, logger)

	var opener hardware.Opener = hardware.NopOpener{}
	if cfg.Hardware.Enabled {
		client, err := hardware.NewMQTTClient(&cfg.Hardware)
		if err != nil {
			logger.Fatal("failed to connect to hardware broker", zap.String("broker", cfg.Hardware.Broker), zap.Error(err))
		}
		defer client.Disconnect()
		opener = hardware.NewMQTTOpener(client, cfg.Hardware.TopicPrefix, cfg.Hardware.QoS)
		logger.Info("box opener connected", zap.String("broker", cfg.Hardware.Broker))
	}

	var webpushOptions *webpush.Options
	var notifier session.Notifier
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions, logger)
		pool.Start(ctx)
		notifier = pool
	} else {
		logger.Warn("VAPID keys are not configured; push notifications are disabled")
	}

	location, err := time.LoadLocation(cfg.Session.Timezone)
	if err != nil {
		logger.Fatal("invalid timezone", zap.String("timezone", cfg.Session.Timezone), zap.Error(err))
	}
	opts := session.Options{
		RevertDelay:     cfg.Session.RevertDelay,
		MessageTTL:      cfg.Session.MessageTTL,
		ScanTimeout:     cfg.Scan.Timeout,
		ClearOnStart:    cfg.Session.ClearOnStart(),
		TimestampLayout: cfg.Session.TimestampLayout,
		Location:        location,
	}
	deps := session.Deps{
		History:     history,
		Interpreter: interpreter,
		Opener:      opener,
		Notifier:    notifier,
		Logger:      logger,
	}
	manager := session.NewManager(cfg.Session.IdleTTL, func() *session.Controller {
		return session.NewController(deps, opts)
	}, logger)
	defer manager.Close()

	handler := api.NewHandler(manager, gormDB, webpushOptions, locale, cfg.Scan.Timeout, logger)
	router := api.NewRouter(&cfg.Server, handler)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server ListenAndServe", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server Shutdown", zap.Error(err))
	}

	logger.Info("server gracefully stopped")
}

// newKVStore builds the configured history backend and its cleanup func.
func newKVStore(cfg *config.Config, gormDB *gorm.DB) (store.KVStore, func(), error) {
	switch cfg.Storage.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		return store.NewRedisStore(client), func() { client.Close() }, nil
	case "memory":
		return store.NewMemoryStore(), func() {}, nil
	default:
		return store.NewGormStore(gormDB), func() {}, nil
	}
}

// newSource picks the remote availability lookup when one is configured and
// the random stand-in otherwise.
func newSource(cfg *config.Config, logger *zap.Logger) scan.Source {
	if cfg.Scan.Lookup.URL != "" {
		logger.Info("using remote availability lookup", zap.String("url", cfg.Scan.Lookup.URL))
		return scan.NewRemoteSource(cfg.Scan.Lookup, logger)
	}
	return scan.NewRandomSource(cfg.Scan.BoxCount)
}

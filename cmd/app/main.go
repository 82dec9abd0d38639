package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/BuzzLyutic/taskboard/internal/auth"
	"github.com/BuzzLyutic/taskboard/internal/avatar"
	"github.com/BuzzLyutic/taskboard/internal/config"
	"github.com/BuzzLyutic/taskboard/internal/database"
	"github.com/BuzzLyutic/taskboard/internal/handler"
	"github.com/BuzzLyutic/taskboard/internal/notify"
	"github.com/BuzzLyutic/taskboard/internal/repo"
	"github.com/BuzzLyutic/taskboard/internal/service"
	"github.com/BuzzLyutic/taskboard/internal/session"
	"github.com/BuzzLyutic/taskboard/internal/taskstore"
	"github.com/BuzzLyutic/taskboard/internal/worker"
	"github.com/BuzzLyutic/taskboard/pkg/logger"
)

type notifications interface {
	notify.Notifier
	notify.Feed
}

func main() {
	// Загрузка конфигурации
	cfg := config.Load()

	// Подключаем логгер
	log := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
	defer log.Sync()

	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Хранилище записей: Postgres или память для локального запуска
	var (
		records  repo.TaskRecords
		profiles repo.Profiles
	)
	switch cfg.Database.RecordStore {
	case "memory":
		records = repo.NewMemoryTaskRepo()
		profiles = repo.NewMemoryProfileRepo()
		log.Warn("using in-memory record store, data is lost on restart")
	default:
		if cfg.Database.RunMigrations {
			if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath, log); err != nil {
				log.Fatal("Failed to apply migrations", zap.Error(err))
			}
		}
		pool, err := database.NewPool(ctx, cfg.Database.URL, log)
		if err != nil {
			log.Fatal("Failed to connect to Database", zap.Error(err)) // Fatal потому что дальнейшая работа теряет смысл
		}
		defer database.Close(pool, log)
		records = repo.NewTaskRepo(pool)
		profiles = repo.NewProfileRepo(pool)
	}

	var feed notifications = notify.NewMemory(cfg.Redis.NotifyMax)
	if cfg.Redis.URL != "" {
		client, err := notify.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer client.Close()
		feed = notify.NewRedis(client, cfg.Redis.NotifyMax, cfg.Redis.NotifyTTL, log)
		log.Info("notifications stored in redis")
	}

	var avatars avatar.ObjectStore = avatar.NewMemory()
	if cfg.Avatar.NATSURL != "" {
		js, err := avatar.NewJetStreamStore(cfg.Avatar.NATSURL, cfg.Avatar.Bucket)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer js.Close()
		if err := js.Init(ctx); err != nil {
			log.Fatal("Failed to open avatar bucket", zap.Error(err))
		}
		avatars = js
		log.Info("avatars stored in jetstream", zap.String("bucket", cfg.Avatar.Bucket))
	}

	locale, err := language.Parse(cfg.CollationLocale)
	if err != nil {
		log.Warn("unknown collation locale, using english", zap.String("locale", cfg.CollationLocale), zap.Error(err))
		locale = language.English
	}

	sessions := session.NewRegistry(records, feed, log, cfg.Session.IdleTTL, taskstore.WithLocale(locale))
	sweeper := worker.NewPool("session-sweeper", sessions.EvictIdle, log, 1, cfg.Session.SweepInterval)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	taskService := service.NewTaskService(sessions)
	keySweeper := worker.NewPool("idempotency-sweeper", taskService.SweepKeys, log, 1, cfg.Session.SweepInterval)
	keySweeper.Start(ctx)
	defer keySweeper.Stop()

	profileService := service.NewProfileService(profiles, avatars, feed, log, service.ProfileConfig{
		AvatarBaseURL:  cfg.Avatar.BaseURL,
		AvatarMaxBytes: cfg.Avatar.MaxBytes,
	})

	r := handler.NewRouter(handler.RouterDeps{
		Tasks:          handler.NewTaskHandler(taskService, log),
		Profiles:       handler.NewProfileHandler(profileService, log, cfg.Avatar.MaxBytes),
		Notifications:  handler.NewNotificationHandler(feed, log),
		Verifier:       auth.NewVerifier(cfg.JWT.Secret, cfg.JWT.Issuer),
		Logger:         log,
		RequestTimeout: cfg.Context.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Context.RequestTimeout + 5*time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { // Запуск сервера
		log.Info("Server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { // Graceful shutdown
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Context.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("Server stopped successfully!")
}

package main

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskboard/api/handler"
	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/config"
	"github.com/fastygo/taskboard/internal/infrastructure/buffer"
	"github.com/fastygo/taskboard/internal/infrastructure/mailer"
	"github.com/fastygo/taskboard/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/taskboard/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/taskboard/internal/infrastructure/redis"
	"github.com/fastygo/taskboard/internal/middleware"
	"github.com/fastygo/taskboard/internal/router"
	"github.com/fastygo/taskboard/internal/services"
	"github.com/fastygo/taskboard/internal/services/lifecycle"
	"github.com/fastygo/taskboard/internal/services/reminder"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	"github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/repository/memory"
	"github.com/fastygo/taskboard/repository/postgres"
	redisRepo "github.com/fastygo/taskboard/repository/redis"
	activityUC "github.com/fastygo/taskboard/usecase/activity"
	authUC "github.com/fastygo/taskboard/usecase/auth"
	profileUC "github.com/fastygo/taskboard/usecase/profile"
	taskUC "github.com/fastygo/taskboard/usecase/task"
	taxonomyUC "github.com/fastygo/taskboard/usecase/taxonomy"
)

type repositories struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tasks    repository.TaskRepository
	taxonomy repository.TaxonomyRepository
	activity repository.ActivityRepository
	probes   []monitor.Probe
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.AppName,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	var repos repositories
	switch cfg.Repository.Type {
	case config.RepositoryMemory:
		repos = memoryRepositories(cfg)
		zapLogger.Warn("using in-memory repositories, data is not persisted")
	default:
		repos = postgresRepositories(appCtx, cfg, manager, zapLogger)
	}

	bufferStore, err := buffer.Open(filepath.Clean(cfg.Buffer.Path), "activity", cfg.Buffer.MaxSize)
	if err != nil {
		zapLogger.Fatal("failed to open buffer store", zap.Error(err))
	}
	manager.Register("buffer", func(ctx context.Context) error {
		return bufferStore.Close()
	})

	mon := monitor.New(repos.probes, bufferStore, 10*time.Second, zapLogger)
	mustStart(manager, zapLogger, "monitor", func() error {
		mon.Start()
		return nil
	}, func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	bufferProcessor := services.NewBufferProcessor(
		bufferStore,
		mon,
		repos.activity,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Buffer.SyncInterval,
			BatchSize:  cfg.Buffer.BatchSize,
			MaxRetries: cfg.Buffer.MaxRetry,
			Retention:  time.Duration(cfg.Buffer.RetentionHours) * time.Hour,
		},
	)
	mustStart(manager, zapLogger, "buffer_processor", func() error {
		bufferProcessor.Start()
		return nil
	}, func(ctx context.Context) error {
		bufferProcessor.Stop(ctx)
		return nil
	})

	activityUseCase := activityUC.New(repos.activity, services.NewBufferBridge(bufferProcessor), zapLogger)
	taxonomyUseCase := taxonomyUC.New(repos.taxonomy, zapLogger)
	taskUseCase := taskUC.New(repos.tasks, taxonomyUseCase, activityUseCase, zapLogger)
	profileUseCase := profileUC.New(repos.users, zapLogger)
	authUseCase := authUC.New(repos.users, repos.sessions, authUC.Config{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		TokenTTL:   cfg.JWT.TokenTTL,
		BcryptCost: cfg.JWT.BcryptCost,
	}, zapLogger)

	if cfg.Reminder.Enabled {
		notifier := reminder.Notifier(mailer.NewLog(zapLogger))
		if cfg.SMTP.Host != "" {
			notifier = mailer.NewSMTP(cfg.SMTP)
		}
		reminders, err := reminder.New(repos.tasks, profileUseCase, notifier, zapLogger, reminder.Config{
			Interval:  cfg.Reminder.Interval,
			Grace:     cfg.Reminder.Grace,
			BatchSize: cfg.Reminder.BatchSize,
		})
		if err != nil {
			zapLogger.Fatal("reminder notifier setup failed", zap.Error(err))
		}
		mustStart(manager, zapLogger, "reminder", func() error {
			reminders.Start()
			return nil
		}, func(ctx context.Context) error {
			reminders.Stop(ctx)
			return nil
		})
	}

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:       apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Profile:    apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:       apiHandler.NewTaskHandler(taskUseCase, activityUseCase, ctxAdapter, zapLogger),
		Categories: apiHandler.NewTaxonomyHandler(taxonomyUseCase, domain.KindCategory, ctxAdapter, zapLogger),
		Tags:       apiHandler.NewTaxonomyHandler(taxonomyUseCase, domain.KindTag, ctxAdapter, zapLogger),
		Health:     apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(authUseCase, ctxAdapter, zapLogger)
	r := router.New(handlers, authMiddleware, router.Options{
		EnableMetrics: cfg.HTTP.EnableMetrics,
		Logger:        zapLogger,
	})

	server := &fasthttp.Server{
		Handler:            r.Handler,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		Concurrency:        cfg.HTTP.MaxConn,
		Name:               cfg.AppName,
		MaxRequestBodySize: 1 << 20,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Error("server stopped", zap.Error(err))
			cancel()
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

func postgresRepositories(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) repositories {
	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pgInfra.Close(pool, zapLogger)
		return nil
	})

	redisClient, err := redisInfra.NewClient(ctx, cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		redisInfra.Close(redisClient, zapLogger)
		return nil
	})

	return repositories{
		users:    postgres.NewUserRepository(pool),
		sessions: redisRepo.NewSessionRepository(redisClient, cfg.JWT.TokenTTL),
		tasks:    postgres.NewTaskRepository(pool),
		taxonomy: postgres.NewTaxonomyRepository(pool),
		activity: postgres.NewActivityRepository(pool),
		probes:   []monitor.Probe{monitor.PostgresProbe(pool), monitor.RedisProbe(redisClient)},
	}
}

func memoryRepositories(cfg *config.Config) repositories {
	return repositories{
		users:    memory.NewUserRepository(),
		sessions: memory.NewSessionRepository(cfg.JWT.TokenTTL),
		tasks:    memory.NewTaskRepository(),
		taxonomy: memory.NewTaxonomyRepository(),
		activity: memory.NewActivityRepository(),
	}
}

func mustStart(manager *lifecycle.Manager, zapLogger *zap.Logger, name string, start func() error, stop lifecycle.ShutdownFunc) {
	if err := manager.Start(name, start, stop); err != nil {
		zapLogger.Fatal("component failed to start", zap.String("component", name), zap.Error(err))
	}
}

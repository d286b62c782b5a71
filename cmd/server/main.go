package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"trajectfit/internal/auth"
	"trajectfit/internal/cache"
	"trajectfit/internal/config"
	"trajectfit/internal/db"
	"trajectfit/internal/events"
	"trajectfit/internal/handler"
	"trajectfit/internal/history"
	"trajectfit/internal/logger"
	"trajectfit/internal/repository"
	"trajectfit/internal/repository/memory"
	"trajectfit/internal/router"
	"trajectfit/internal/service"
	"trajectfit/internal/storage"
)

// @title Trajectfit API
// @version 1.0
// @description Fitness tracking API with user profiles, fitness goals and JWT authentication.
// @host localhost:3000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger.New(cfg.AppEnv))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	userRepo, goalRepo, err := openRepositories(cfg)
	if err != nil {
		return err
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if cacheClient != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := cacheClient.Ping(pingCtx); err != nil {
			slog.Warn("redis unreachable, user cache will miss until it recovers", "addr", cfg.RedisAddr, "error", err)
		} else {
			slog.Info("user cache enabled", "addr", cfg.RedisAddr)
		}
		cancel()
	}

	recorder := history.Recorder(history.NopRecorder{})
	if cfg.MongoURI != "" {
		mongoClient, err := db.NewMongo(ctx, cfg.MongoURI)
		if err != nil {
			return err
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				slog.Warn("disconnect mongo", "error", err)
			}
		}()
		mongoRecorder := history.NewMongoRecorder(mongoClient.Database(cfg.MongoDatabase))
		if err := mongoRecorder.EnsureIndexes(ctx); err != nil {
			return err
		}
		recorder = mongoRecorder
		slog.Info("goal progress history enabled", "database", cfg.MongoDatabase)
	}

	publisher := events.New(cfg.KafkaBrokers, cfg.KafkaGoalTopic)
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Warn("close event publisher", "error", err)
		}
	}()

	avatars, err := storage.New(ctx, storage.Options{
		Kind:      cfg.AvatarStorage,
		Dir:       cfg.UploadDir,
		BaseURL:   cfg.AvatarBaseURL(),
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		return err
	}

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTExpiresIn)

	// Initialize services
	userService := service.NewUserService(userRepo, cacheClient)
	authService := service.NewAuthService(userService, jwtService)
	goalService := service.NewGoalService(goalRepo, recorder, publisher)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(
		e,
		cfg,
		jwtService,
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(userService, avatars),
		handler.NewGoalHandler(goalService),
	)

	slog.Info("swagger documentation available", "url", swaggerURL(cfg))

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.ServerPort
		slog.Info("server listening", "addr", addr, "env", cfg.AppEnv, "db_driver", cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func openRepositories(cfg *config.Config) (repository.UserRepository, repository.GoalRepository, error) {
	if cfg.DBDriver == "memory" {
		slog.Warn("using in-memory repositories, data is lost on restart")
		goals := memory.NewGoalRepository()
		return memory.NewUserRepository().CascadeTo(goals), goals, nil
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.MySQLDSN, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if cfg.ResetDB {
		slog.Warn("RESET_DB=true detected, dropping all tables")
	}
	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		return nil, nil, err
	}
	return repository.NewUserRepository(gormDB), repository.NewGoalRepository(gormDB), nil
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}

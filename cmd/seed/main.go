package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gorm.io/gorm"

	"trajectfit/internal/auth"
	"trajectfit/internal/cache"
	"trajectfit/internal/config"
	"trajectfit/internal/db"
	"trajectfit/internal/logger"
	"trajectfit/internal/model"
	"trajectfit/internal/repository"
	"trajectfit/internal/service"
)

// AdminSeed is the account the seed command creates or promotes.
type AdminSeed struct {
	Email    string
	Username string
	Password string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger.New(cfg.AppEnv))
	slog.Info("starting seed script")

	if cfg.DBDriver == "memory" {
		slog.Error("seeding requires a persistent DB_DRIVER (mysql or postgres)")
		os.Exit(1)
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.MySQLDSN, cfg.PostgresDSN)
	if err != nil {
		slog.Error("connect database", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(gormDB, false); err != nil {
		slog.Error("run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations completed")

	seed := AdminSeed{
		Email:    cfg.SeedAdminEmail,
		Username: cfg.SeedAdminUsername,
		Password: cfg.SeedAdminPassword,
	}
	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()

	created, err := seedAdmin(context.Background(), repository.NewUserRepository(gormDB), cacheClient, seed)
	if err != nil {
		slog.Error("seed admin", "error", err)
		os.Exit(1)
	}
	if created {
		slog.Info("admin account created", "email", seed.Email)
	} else {
		slog.Info("existing account promoted to admin", "email", seed.Email)
	}
}

// seedAdmin creates the admin account, or promotes and re-activates an existing
// account with the same email. An existing account keeps its password and its
// cached copy is dropped so the new role is visible at once.
func seedAdmin(ctx context.Context, repo repository.UserRepository, users *cache.Client, seed AdminSeed) (created bool, err error) {
	if seed.Email == "" {
		return false, errors.New("SEED_ADMIN_EMAIL is required")
	}

	existing, err := repo.FindByEmail(ctx, seed.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("error checking user %s: %w", seed.Email, err)
	}
	if existing != nil {
		existing.Role = model.RoleAdmin
		existing.IsActive = true
		if err := repo.Update(ctx, existing); err != nil {
			return false, fmt.Errorf("error promoting user %s: %w", seed.Email, err)
		}
		if err := users.Delete(ctx, service.UserCacheKey(existing.ID)); err != nil {
			return false, fmt.Errorf("error invalidating cached user %s: %w", seed.Email, err)
		}
		return false, nil
	}

	if len(seed.Password) < 8 {
		return false, errors.New("SEED_ADMIN_PASSWORD must be at least 8 characters")
	}
	hash, err := auth.HashPassword(seed.Password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	admin := &model.User{
		Email:        seed.Email,
		Username:     seed.Username,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsActive:     true,
	}
	if err := repo.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("error creating admin %s: %w", seed.Email, err)
	}
	return true, nil
}

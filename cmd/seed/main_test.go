package main

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trajectfit/internal/auth"
	"trajectfit/internal/cache"
	"trajectfit/internal/model"
	"trajectfit/internal/repository/memory"
	"trajectfit/internal/service"
)

func TestSeedAdmin_Creates(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()

	created, err := seedAdmin(ctx, repo, nil, AdminSeed{Email: "admin@x.com", Username: "admin", Password: "Sup3rSecret"})
	require.NoError(t, err)
	assert.True(t, created)

	admin, err := repo.FindByEmail(ctx, "admin@x.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.True(t, admin.IsActive)
	assert.True(t, auth.VerifyPassword("Sup3rSecret", admin.PasswordHash))
}

func TestSeedAdmin_PromotesExisting(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	hash, err := auth.HashPassword("original-pass")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, &model.User{
		Email: "admin@x.com", Username: "someone", PasswordHash: hash, Role: model.RoleUser,
	}))

	created, err := seedAdmin(ctx, repo, nil, AdminSeed{Email: "admin@x.com", Username: "admin"})
	require.NoError(t, err)
	assert.False(t, created)

	user, err := repo.FindByEmail(ctx, "admin@x.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, user.Role)
	assert.Equal(t, "someone", user.Username)
	assert.True(t, auth.VerifyPassword("original-pass", user.PasswordHash))
}

func TestSeedAdmin_Rejects(t *testing.T) {
	tests := []struct {
		name string
		seed AdminSeed
	}{
		{name: "missing email", seed: AdminSeed{Username: "admin", Password: "Sup3rSecret"}},
		{name: "short password", seed: AdminSeed{Email: "admin@x.com", Username: "admin", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := seedAdmin(context.Background(), memory.NewUserRepository(), nil, tt.seed)
			assert.Error(t, err)
		})
	}
}

func TestSeedAdmin_PromotionIsVisibleThroughCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cacheClient := cache.New(mr.Addr(), "", 0)
	repo := memory.NewUserRepository()
	users := service.NewUserService(repo, cacheClient)

	created, err := users.Create(ctx, service.CreateUserInput{Email: "admin@x.com", Username: "someone", Password: "Secret123!"})
	require.NoError(t, err)
	cachedUser, err := users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, model.RoleUser, cachedUser.Role)
	require.True(t, mr.Exists(service.UserCacheKey(created.ID)))

	_, err = seedAdmin(ctx, repo, cacheClient, AdminSeed{Email: "admin@x.com", Username: "admin"})
	require.NoError(t, err)
	assert.False(t, mr.Exists(service.UserCacheKey(created.ID)))

	user, err := users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, user.Role)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"trajectfit/internal/auth"
	"trajectfit/internal/cache"
	apperrors "trajectfit/internal/errors"
	"trajectfit/internal/metrics"
	"trajectfit/internal/model"
	"trajectfit/internal/repository"
)

const userCacheTTL = 10 * time.Minute

var (
	// ErrUserAlreadyExists is returned when registering an email or username that is taken.
	ErrUserAlreadyExists = apperrors.Conflict("Email or username already exists")
	// ErrEmailTaken is returned when an update moves to another user's email.
	ErrEmailTaken = apperrors.Conflict("Email already exists")
	// ErrUsernameTaken is returned when an update moves to another user's username.
	ErrUsernameTaken = apperrors.Conflict("Username already exists")
)

// CreateUserInput carries the fields accepted at registration.
type CreateUserInput struct {
	Email             string
	Username          string
	Password          string
	FirstName         *string
	LastName          *string
	Gender            *model.Gender
	BirthDate         *time.Time
	Height            *float64
	Weight            *float64
	BodyFatPercentage *float64
}

// UpdateUserInput is a partial update; nil fields are left unchanged.
type UpdateUserInput struct {
	Email             *string
	Username          *string
	Password          *string
	FirstName         *string
	LastName          *string
	Gender            *model.Gender
	BirthDate         *time.Time
	AvatarURL         *string
	Height            *float64
	Weight            *float64
	BodyFatPercentage *float64
}

// UserService manages accounts and their credentials.
type UserService interface {
	Create(ctx context.Context, input CreateUserInput) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// Reload reads the user from the store, bypassing the cache, and re-caches it.
	Reload(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail returns nil, nil when no user has the email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// GetByUsername returns nil, nil when no user has the username.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*model.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, email, username string) (bool, error)
	HashPassword(plain string) (string, error)
	VerifyPassword(plain, hash string) bool
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
	now   func() time.Time
}

// NewUserService builds a UserService with repository and cache. cache may be nil.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache, now: time.Now}
}

// UserCacheKey is the redis key a user is cached under.
func UserCacheKey(id uuid.UUID) string {
	return "user:" + id.String()
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return UserCacheKey(id)
}

func (s *userService) invalidate(ctx context.Context, id uuid.UUID) {
	_ = s.cache.Delete(ctx, s.cacheKey(id))
}

func (s *userService) Create(ctx context.Context, input CreateUserInput) (*model.User, error) {
	exists, err := s.Exists(ctx, input.Email, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	hash, err := s.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:                uuid.New(),
		Email:             input.Email,
		Username:          input.Username,
		PasswordHash:      hash,
		FirstName:         input.FirstName,
		LastName:          input.LastName,
		Gender:            input.Gender,
		BirthDate:         input.BirthDate,
		Height:            input.Height,
		Weight:            input.Weight,
		BodyFatPercentage: input.BodyFatPercentage,
		Role:              model.RoleUser,
		IsActive:          true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration; the unique index caught it.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.RegistrationsTotal.Inc()
	return user, nil
}

// GetByID reads through the cache. Cached copies carry no password hash.
func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, s.cacheKey(id), user, userCacheTTL)
	return user, nil
}

func (s *userService) Reload(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, s.cacheKey(id), user, userCacheTTL)
	return user, nil
}

func (s *userService) findByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("User with ID %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*model.User, error) {
	// Always from the store: the cached copy has no password hash to carry over.
	user, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil && *input.Email != user.Email {
		other, err := s.GetByEmail(ctx, *input.Email)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != user.ID {
			return nil, ErrEmailTaken
		}
		user.Email = *input.Email
	}
	if input.Username != nil && *input.Username != user.Username {
		other, err := s.GetByUsername(ctx, *input.Username)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != user.ID {
			return nil, ErrUsernameTaken
		}
		user.Username = *input.Username
	}
	if input.Password != nil {
		hash, err := s.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	applyProfile(user, input)

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.invalidate(ctx, id)
	return user, nil
}

func applyProfile(user *model.User, input UpdateUserInput) {
	if input.FirstName != nil {
		user.FirstName = input.FirstName
	}
	if input.LastName != nil {
		user.LastName = input.LastName
	}
	if input.Gender != nil {
		user.Gender = input.Gender
	}
	if input.BirthDate != nil {
		user.BirthDate = input.BirthDate
	}
	if input.AvatarURL != nil {
		user.AvatarURL = input.AvatarURL
	}
	if input.Height != nil {
		user.Height = input.Height
	}
	if input.Weight != nil {
		user.Weight = input.Weight
	}
	if input.BodyFatPercentage != nil {
		user.BodyFatPercentage = input.BodyFatPercentage
	}
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if affected == 0 {
		return apperrors.NotFound("User with ID %s not found", id)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *userService) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.TouchLastLogin(ctx, id, s.now()); err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	s.invalidate(ctx, id)
	return nil
}

// Exists reports whether either the email or the username is already registered.
func (s *userService) Exists(ctx context.Context, email, username string) (bool, error) {
	byEmail, err := s.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if byEmail != nil {
		return true, nil
	}
	byUsername, err := s.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return byUsername != nil, nil
}

func (s *userService) HashPassword(plain string) (string, error) {
	return auth.HashPassword(plain)
}

func (s *userService) VerifyPassword(plain, hash string) bool {
	return auth.VerifyPassword(plain, hash)
}

package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"trajectfit/internal/auth"
	apperrors "trajectfit/internal/errors"
	"trajectfit/internal/metrics"
	"trajectfit/internal/model"
)

// ErrInvalidCredentials is returned for an unknown email, a wrong password or an inactive account alike.
var ErrInvalidCredentials = apperrors.Unauthorized("Invalid credentials")

// AuthResult is the user together with a freshly issued access token.
type AuthResult struct {
	User        *model.User
	AccessToken string
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, input CreateUserInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// Refresh issues a new token reflecting the user's current email and role.
	Refresh(ctx context.Context, userID uuid.UUID) (string, error)
	Profile(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

type authService struct {
	users      UserService
	jwtService *auth.JWTService
}

// NewAuthService creates a new authentication service.
func NewAuthService(users UserService, jwtService *auth.JWTService) AuthService {
	return &authService{
		users:      users,
		jwtService: jwtService,
	}
}

// Register creates an account and signs it in.
func (s *authService) Register(ctx context.Context, input CreateUserInput) (*AuthResult, error) {
	user, err := s.users.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	token, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &AuthResult{User: user, AccessToken: token}, nil
}

// Login authenticates by email and password.
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		auth.BurnVerification(password)
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}
	if !s.users.VerifyPassword(password, user.PasswordHash) || !user.IsActive {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}

	token, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return &AuthResult{User: user, AccessToken: token}, nil
}

func (s *authService) Refresh(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := s.users.Reload(ctx, userID)
	if err != nil {
		return "", err
	}
	if !user.IsActive {
		return "", ErrInvalidCredentials
	}
	token, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return token, nil
}

func (s *authService) Profile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

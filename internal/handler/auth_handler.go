package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"trajectfit/internal/auth"
	"trajectfit/internal/model"
	"trajectfit/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email             string        `json:"email" validate:"required,email,max=255"`
	Username          string        `json:"username" validate:"required,min=3,max=100"`
	Password          string        `json:"password" validate:"required,min=8,max=72"`
	FirstName         *string       `json:"firstName" validate:"omitempty,max=100"`
	LastName          *string       `json:"lastName" validate:"omitempty,max=100"`
	Gender            *model.Gender `json:"gender" validate:"omitempty,oneof=male female other"`
	BirthDate         *Date         `json:"birthDate" swaggertype:"string" example:"1990-04-23"`
	Height            *float64      `json:"height" validate:"omitempty,min=0"`
	Weight            *float64      `json:"weight" validate:"omitempty,min=0"`
	BodyFatPercentage *float64      `json:"bodyFatPercentage" validate:"omitempty,min=0,max=100"`
}

func (r RegisterRequest) toInput() service.CreateUserInput {
	return service.CreateUserInput{
		Email:             r.Email,
		Username:          r.Username,
		Password:          r.Password,
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		Gender:            r.Gender,
		BirthDate:         r.BirthDate.TimePtr(),
		Height:            r.Height,
		Weight:            r.Weight,
		BodyFatPercentage: r.BodyFatPercentage,
	}
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is the user with a fresh access token.
type AuthResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"access_token"`
}

// TokenResponse carries a refreshed access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} Envelope{data=AuthResponse}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	res, err := h.authService.Register(c.Request().Context(), req.toInput())
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, AuthResponse{
		User:        NewUserResponse(res.User),
		AccessToken: res.AccessToken,
	})
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} Envelope{data=AuthResponse}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, AuthResponse{
		User:        NewUserResponse(res.User),
		AccessToken: res.AccessToken,
	})
}

// Refresh godoc
// @Summary Issue a new access token for the current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope{data=TokenResponse}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /auth/refresh [get]
func (h *AuthHandler) Refresh(c echo.Context) error {
	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return fail(c, err)
	}

	token, err := h.authService.Refresh(c.Request().Context(), principal.ID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, TokenResponse{AccessToken: token})
}

// Profile godoc
// @Summary Current user profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope{data=UserResponse}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /auth/profile [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return fail(c, err)
	}

	user, err := h.authService.Profile(c.Request().Context(), principal.ID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, NewUserResponse(user))
}

package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"trajectfit/internal/auth"
	apperrors "trajectfit/internal/errors"
	"trajectfit/internal/model"
	"trajectfit/internal/service"
	"trajectfit/internal/storage"
)

// UserHandler bundles HTTP handlers.
type UserHandler struct {
	svc     service.UserService
	avatars storage.AvatarStore
	now     func() time.Time
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService, avatars storage.AvatarStore) *UserHandler {
	return &UserHandler{svc: svc, avatars: avatars, now: time.Now}
}

// UpdateUserRequest is a partial profile update; omitted fields are left unchanged.
type UpdateUserRequest struct {
	Email             *string       `json:"email" validate:"omitempty,email,max=255"`
	Username          *string       `json:"username" validate:"omitempty,min=3,max=100"`
	Password          *string       `json:"password" validate:"omitempty,min=8,max=72"`
	FirstName         *string       `json:"firstName" validate:"omitempty,max=100"`
	LastName          *string       `json:"lastName" validate:"omitempty,max=100"`
	Gender            *model.Gender `json:"gender" validate:"omitempty,oneof=male female other"`
	BirthDate         *Date         `json:"birthDate" swaggertype:"string" example:"1990-04-23"`
	Height            *float64      `json:"height" validate:"omitempty,min=0"`
	Weight            *float64      `json:"weight" validate:"omitempty,min=0"`
	BodyFatPercentage *float64      `json:"bodyFatPercentage" validate:"omitempty,min=0,max=100"`
}

func (r UpdateUserRequest) toInput() service.UpdateUserInput {
	return service.UpdateUserInput{
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

// AvatarResponse carries the public URL of an uploaded avatar.
type AvatarResponse struct {
	AvatarURL string `json:"avatarUrl"`
}

// authorizeUser resolves the :id parameter and checks the caller may act on that user.
func authorizeUser(c echo.Context, action string) (uuid.UUID, error) {
	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return uuid.Nil, fail(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return uuid.Nil, err
	}
	if !principal.CanAccessUser(id) {
		return uuid.Nil, fail(c, apperrors.Forbidden("You do not have permission to "+action+" this user"))
	}
	return id, nil
}

// CreateUser godoc
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "User payload"
// @Success 201 {object} Envelope{data=UserResponse}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}
	created, err := h.svc.Create(c.Request().Context(), req.toInput())
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, NewUserResponse(created))
}

// ListUsers godoc
// @Summary List users (admin)
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope{data=[]UserResponse}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, newUserResponses(users))
}

// GetMe godoc
// @Summary Current user's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope{data=UserResponse}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/profile/me [get]
func (h *UserHandler) GetMe(c echo.Context) error {
	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return fail(c, err)
	}
	user, err := h.svc.GetByID(c.Request().Context(), principal.ID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, NewUserResponse(user))
}

// GetUser godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} Envelope{data=UserResponse}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := authorizeUser(c, "access")
	if err != nil {
		return err
	}
	user, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, NewUserResponse(user))
}

// UpdateUser godoc
// @Summary Update user profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param user body UpdateUserRequest true "Fields to change"
// @Success 200 {object} Envelope{data=UserResponse}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users/{id} [patch]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := authorizeUser(c, "update")
	if err != nil {
		return err
	}
	var req UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}
	user, err := h.svc.Update(c.Request().Context(), id, req.toInput())
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, NewUserResponse(user))
}

// DeleteUser godoc
// @Summary Delete user (admin)
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} Envelope{data=MessageResponse}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, MessageResponse{Message: "User deleted successfully"})
}

// UploadAvatar godoc
// @Summary Upload profile picture
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param avatar formData file true "jpg, jpeg, png or gif, at most 5MB"
// @Success 201 {object} Envelope{data=AvatarResponse}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/avatar [post]
func (h *UserHandler) UploadAvatar(c echo.Context) error {
	id, err := authorizeUser(c, "update")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	file, err := c.FormFile("avatar")
	if err != nil {
		return fail(c, apperrors.NewValidationError("avatar file is required"))
	}
	ext, err := storage.ValidateAvatar(file.Filename, file.Size)
	if err != nil {
		return fail(c, err)
	}
	if _, err := h.svc.GetByID(ctx, id); err != nil {
		return fail(c, err)
	}

	src, err := file.Open()
	if err != nil {
		return fail(c, err)
	}
	defer src.Close()

	url, err := h.avatars.Save(ctx, storage.AvatarObjectName(id, ext, h.now()), src)
	if err != nil {
		return fail(c, err)
	}
	if _, err := h.svc.Update(ctx, id, service.UpdateUserInput{AvatarURL: &url}); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, AvatarResponse{AvatarURL: url})
}

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "trajectfit/internal/errors"
	"trajectfit/internal/model"
)

// Envelope wraps every successful response body.
type Envelope struct {
	Data interface{} `json:"data"`
}

// MessageResponse is the payload of operations that return no entity.
type MessageResponse struct {
	Message string `json:"message"`
}

func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Envelope{Data: data})
}

// fail converts a domain error into the JSON error body. Unexpected errors are logged and hidden.
func fail(c echo.Context, err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// bindError turns a binder failure into a 400 with the binder's message.
func bindError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return apperrors.NewValidationError(msg)
		}
	}
	return apperrors.NewValidationError("invalid request body")
}

// bindAndValidate binds the request body into req and runs struct validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return bindError(err)
	}
	return c.Validate(req)
}

// paramUUID parses a UUID path parameter.
func paramUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Message: fmt.Sprintf("%s must be a UUID", name),
			Code:    "INVALID_UUID",
		})
	}
	return id, nil
}

// Date accepts "2006-01-02" or RFC 3339 timestamps.
type Date time.Time

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			*d = Date(t)
			return nil
		}
	}
	return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(d).Format(time.DateOnly) + `"`), nil
}

// TimePtr returns nil for a nil Date.
func (d *Date) TimePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := time.Time(*d)
	return &t
}

// UserResponse is the outward projection of a user. It never carries credentials.
type UserResponse struct {
	ID                uuid.UUID     `json:"id"`
	Email             string        `json:"email"`
	Username          string        `json:"username"`
	FirstName         *string       `json:"firstName"`
	LastName          *string       `json:"lastName"`
	Gender            *model.Gender `json:"gender"`
	BirthDate         *time.Time    `json:"birthDate"`
	AvatarURL         *string       `json:"avatarUrl"`
	Height            *float64      `json:"height"`
	Weight            *float64      `json:"weight"`
	BodyFatPercentage *float64      `json:"bodyFatPercentage"`
	Role              model.Role    `json:"role"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

// NewUserResponse projects u.
func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:                u.ID,
		Email:             u.Email,
		Username:          u.Username,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Gender:            u.Gender,
		BirthDate:         u.BirthDate,
		AvatarURL:         u.AvatarURL,
		Height:            u.Height,
		Weight:            u.Weight,
		BodyFatPercentage: u.BodyFatPercentage,
		Role:              u.Role,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func newUserResponses(users []model.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"trajectfit/internal/auth"
	apperrors "trajectfit/internal/errors"
	"trajectfit/internal/model"
	"trajectfit/internal/service"
)

// GoalHandler handles fitness goal endpoints. Every route acts on the caller's own goals.
type GoalHandler struct {
	goals service.GoalService
}

// NewGoalHandler creates a new goal handler.
func NewGoalHandler(goals service.GoalService) *GoalHandler {
	return &GoalHandler{goals: goals}
}

// CreateGoalRequest represents a new fitness goal.
type CreateGoalRequest struct {
	Title       string                 `json:"title" validate:"required,max=255"`
	Description *string                `json:"description" validate:"omitempty,max=2000"`
	TargetDate  *Date                  `json:"targetDate" validate:"required" swaggertype:"string" example:"2026-12-31"`
	Type        model.GoalType         `json:"type" validate:"required,oneof=weight_loss muscle_gain strength endurance flexibility custom"`
	Metrics     map[string]interface{} `json:"metrics"`
	Progress    *float64               `json:"progress" validate:"omitempty,min=0,max=100"`
}

// UpdateGoalRequest is a partial goal update; omitted fields are left unchanged.
type UpdateGoalRequest struct {
	Title       *string                `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string                `json:"description" validate:"omitempty,max=2000"`
	TargetDate  *Date                  `json:"targetDate" swaggertype:"string" example:"2026-12-31"`
	Type        *model.GoalType        `json:"type" validate:"omitempty,oneof=weight_loss muscle_gain strength endurance flexibility custom"`
	Metrics     map[string]interface{} `json:"metrics"`
	Progress    *float64               `json:"progress" validate:"omitempty,min=0,max=100"`
	Completed   *bool                  `json:"completed"`
}

// UpdateProgressRequest sets a goal's progress percentage.
type UpdateProgressRequest struct {
	Progress *float64 `json:"progress" validate:"required,min=0,max=100"`
}

func currentPrincipal(c echo.Context) (*auth.Principal, error) {
	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return nil, fail(c, err)
	}
	return principal, nil
}

// CreateGoal godoc
// @Summary Create a fitness goal
// @Tags fitness-goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param goal body CreateGoalRequest true "Goal"
// @Success 201 {object} Envelope{data=model.FitnessGoal}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /fitness-goals [post]
func (h *GoalHandler) CreateGoal(c echo.Context) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req CreateGoalRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	goal, err := h.goals.Create(c.Request().Context(), principal.ID, service.CreateGoalInput{
		Title:       req.Title,
		Description: req.Description,
		TargetDate:  time.Time(*req.TargetDate),
		Type:        req.Type,
		Metrics:     req.Metrics,
		Progress:    req.Progress,
	})
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, goal)
}

// ListGoals godoc
// @Summary List the caller's goals, newest first
// @Tags fitness-goals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope{data=[]model.FitnessGoal}
// @Failure 401 {object} errors.ErrorResponse
// @Router /fitness-goals [get]
func (h *GoalHandler) ListGoals(c echo.Context) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	goals, err := h.goals.ListByOwner(c.Request().Context(), principal.ID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, goals)
}

// GetGoal godoc
// @Summary Get a goal
// @Tags fitness-goals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Success 200 {object} Envelope{data=model.FitnessGoal}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /fitness-goals/{id} [get]
func (h *GoalHandler) GetGoal(c echo.Context) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	goal, err := h.goals.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	if !goal.OwnedBy(principal.ID) {
		return fail(c, apperrors.Forbidden("You do not have permission to access this goal"))
	}
	return respond(c, http.StatusOK, goal)
}

// UpdateGoal godoc
// @Summary Update a goal
// @Tags fitness-goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Param goal body UpdateGoalRequest true "Fields to change"
// @Success 200 {object} Envelope{data=model.FitnessGoal}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /fitness-goals/{id} [patch]
func (h *GoalHandler) UpdateGoal(c echo.Context) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateGoalRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	goal, err := h.goals.Update(c.Request().Context(), id, principal.ID, service.UpdateGoalInput{
		Title:       req.Title,
		Description: req.Description,
		TargetDate:  req.TargetDate.TimePtr(),
		Type:        req.Type,
		Metrics:     req.Metrics,
		Progress:    req.Progress,
		Completed:   req.Completed,
	})
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, goal)
}

// UpdateProgress godoc
// @Summary Set a goal's progress
// @Description Progress 100 marks the goal completed. Lower values never un-complete it.
// @Tags fitness-goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Param progress body UpdateProgressRequest true "Progress between 0 and 100"
// @Success 200 {object} Envelope{data=model.FitnessGoal}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /fitness-goals/{id}/progress [patch]
func (h *GoalHandler) UpdateProgress(c echo.Context) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateProgressRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	goal, err := h.goals.UpdateProgress(c.Request().Context(), id, principal.ID, *req.Progress)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, goal)
}

// DeleteGoal godoc
// @Summary Delete a goal
// @Tags fitness-goals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Success 200 {object} Envelope{data=MessageResponse}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /fitness-goals/{id} [delete]
func (h *GoalHandler) DeleteGoal(c echo.Context) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.goals.Remove(c.Request().Context(), id, principal.ID); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, MessageResponse{Message: "Goal deleted successfully"})
}

// GoalHistory godoc
// @Summary Progress history of a goal, newest first
// @Tags fitness-goals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Success 200 {object} Envelope{data=[]history.Entry}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /fitness-goals/{id}/history [get]
func (h *GoalHandler) GoalHistory(c echo.Context) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.goals.History(c.Request().Context(), id, principal.ID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, entries)
}

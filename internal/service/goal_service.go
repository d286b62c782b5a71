package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "trajectfit/internal/errors"
	"trajectfit/internal/events"
	"trajectfit/internal/history"
	"trajectfit/internal/metrics"
	"trajectfit/internal/model"
	"trajectfit/internal/repository"
)

var (
	errGoalAccess = apperrors.Forbidden("You do not have permission to access this goal")
	errGoalUpdate = apperrors.Forbidden("You do not have permission to update this goal")
	errGoalDelete = apperrors.Forbidden("You do not have permission to delete this goal")
)

// CreateGoalInput carries the fields of a new goal. Progress defaults to 0.
type CreateGoalInput struct {
	Title       string
	Description *string
	TargetDate  time.Time
	Type        model.GoalType
	Metrics     map[string]interface{}
	Progress    *float64
}

// UpdateGoalInput is a partial update; nil fields are left unchanged.
type UpdateGoalInput struct {
	Title       *string
	Description *string
	TargetDate  *time.Time
	Type        *model.GoalType
	Metrics     map[string]interface{}
	Progress    *float64
	Completed   *bool
}

// GoalService manages fitness goals and enforces that only their owner may touch them.
type GoalService interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreateGoalInput) (*model.FitnessGoal, error)
	// ListByOwner returns the owner's goals newest first; never nil.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.FitnessGoal, error)
	// Get does not check ownership.
	Get(ctx context.Context, id uuid.UUID) (*model.FitnessGoal, error)
	Update(ctx context.Context, id, ownerID uuid.UUID, input UpdateGoalInput) (*model.FitnessGoal, error)
	UpdateProgress(ctx context.Context, id, ownerID uuid.UUID, progress float64) (*model.FitnessGoal, error)
	Remove(ctx context.Context, id, ownerID uuid.UUID) error
	History(ctx context.Context, id, ownerID uuid.UUID) ([]history.Entry, error)
}

type goalService struct {
	repo      repository.GoalRepository
	recorder  history.Recorder
	publisher events.Publisher
	now       func() time.Time
}

// NewGoalService builds a GoalService. recorder and publisher may be nil.
func NewGoalService(repo repository.GoalRepository, recorder history.Recorder, publisher events.Publisher) GoalService {
	if recorder == nil {
		recorder = history.NopRecorder{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &goalService{
		repo:      repo,
		recorder:  recorder,
		publisher: publisher,
		now:       time.Now,
	}
}

func validateProgress(p float64) error {
	switch {
	case p < model.ProgressMin:
		return apperrors.NewValidationError("progress must be at least 0")
	case p > model.ProgressComplete:
		return apperrors.NewValidationError("progress must be at most 100")
	}
	return nil
}

func validateGoalType(t model.GoalType) error {
	if !t.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("type must be one of %v", model.GoalTypes))
	}
	return nil
}

func (s *goalService) Create(ctx context.Context, ownerID uuid.UUID, input CreateGoalInput) (*model.FitnessGoal, error) {
	if err := validateGoalType(input.Type); err != nil {
		return nil, err
	}
	goal := &model.FitnessGoal{
		ID:          uuid.New(),
		UserID:      ownerID,
		Title:       input.Title,
		Description: input.Description,
		TargetDate:  input.TargetDate,
		Type:        input.Type,
	}
	if input.Metrics != nil {
		goal.Metrics = datatypes.JSONMap(input.Metrics)
	}
	if input.Progress != nil {
		if err := validateProgress(*input.Progress); err != nil {
			return nil, err
		}
		goal.Progress = *input.Progress
	}

	if err := s.repo.Create(ctx, goal); err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}

	s.publish(ctx, events.NewGoalEvent(events.GoalCreated, goal, s.now()))
	return goal, nil
}

func (s *goalService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.FitnessGoal, error) {
	goals, err := s.repo.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	if goals == nil {
		goals = []model.FitnessGoal{}
	}
	return goals, nil
}

func (s *goalService) Get(ctx context.Context, id uuid.UUID) (*model.FitnessGoal, error) {
	goal, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Goal with ID %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find goal: %w", err)
	}
	return goal, nil
}

// owned loads the goal and rejects callers that do not own it with denied.
func (s *goalService) owned(ctx context.Context, id, ownerID uuid.UUID, denied error) (*model.FitnessGoal, error) {
	goal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !goal.OwnedBy(ownerID) {
		return nil, denied
	}
	return goal, nil
}

// Update merges the patch as given. Only UpdateProgress applies the completion rule.
func (s *goalService) Update(ctx context.Context, id, ownerID uuid.UUID, input UpdateGoalInput) (*model.FitnessGoal, error) {
	goal, err := s.owned(ctx, id, ownerID, errGoalUpdate)
	if err != nil {
		return nil, err
	}
	if input.Type != nil {
		if err := validateGoalType(*input.Type); err != nil {
			return nil, err
		}
		goal.Type = *input.Type
	}
	if input.Progress != nil {
		if err := validateProgress(*input.Progress); err != nil {
			return nil, err
		}
	}

	wasCompleted := goal.Completed
	if input.Title != nil {
		goal.Title = *input.Title
	}
	if input.Description != nil {
		goal.Description = input.Description
	}
	if input.TargetDate != nil {
		goal.TargetDate = *input.TargetDate
	}
	if input.Metrics != nil {
		goal.Metrics = datatypes.JSONMap(input.Metrics)
	}
	if input.Progress != nil {
		goal.Progress = *input.Progress
	}
	if input.Completed != nil {
		goal.Completed = *input.Completed
	}

	if err := s.repo.Update(ctx, goal); err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}

	if input.Progress != nil {
		s.record(ctx, goal)
	}
	s.publish(ctx, s.changeEvents(events.GoalUpdated, goal, wasCompleted)...)
	return goal, nil
}

// UpdateProgress sets progress; reaching 100 marks the goal completed, lower values leave completion as is.
func (s *goalService) UpdateProgress(ctx context.Context, id, ownerID uuid.UUID, progress float64) (*model.FitnessGoal, error) {
	goal, err := s.owned(ctx, id, ownerID, errGoalUpdate)
	if err != nil {
		return nil, err
	}
	if err := validateProgress(progress); err != nil {
		return nil, err
	}

	wasCompleted := goal.Completed
	goal.SetProgress(progress)
	if err := s.repo.Update(ctx, goal); err != nil {
		return nil, fmt.Errorf("update goal progress: %w", err)
	}

	s.record(ctx, goal)
	s.publish(ctx, s.changeEvents(events.GoalProgressed, goal, wasCompleted)...)
	return goal, nil
}

func (s *goalService) Remove(ctx context.Context, id, ownerID uuid.UUID) error {
	goal, err := s.owned(ctx, id, ownerID, errGoalDelete)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, goal.ID); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}

	if err := s.recorder.Forget(ctx, goal.ID.String()); err != nil {
		slog.WarnContext(ctx, "drop goal history", "goal_id", goal.ID, "error", err)
	}
	s.publish(ctx, events.NewGoalEvent(events.GoalDeleted, goal, s.now()))
	return nil
}

func (s *goalService) History(ctx context.Context, id, ownerID uuid.UUID) ([]history.Entry, error) {
	goal, err := s.owned(ctx, id, ownerID, errGoalAccess)
	if err != nil {
		return nil, err
	}
	entries, err := s.recorder.List(ctx, goal.ID.String())
	if err != nil {
		return nil, fmt.Errorf("list goal history: %w", err)
	}
	return entries, nil
}

// changeEvents returns the change event plus goal.completed when this change completed the goal.
func (s *goalService) changeEvents(t events.Type, goal *model.FitnessGoal, wasCompleted bool) []events.Event {
	now := s.now()
	evts := []events.Event{events.NewGoalEvent(t, goal, now)}
	if goal.Completed && !wasCompleted {
		metrics.GoalsCompletedTotal.Inc()
		evts = append(evts, events.NewGoalEvent(events.GoalCompleted, goal, now))
	}
	return evts
}

func (s *goalService) record(ctx context.Context, goal *model.FitnessGoal) {
	if err := s.recorder.Record(ctx, history.NewEntry(goal, s.now())); err != nil {
		slog.WarnContext(ctx, "record goal progress", "goal_id", goal.ID, "error", err)
	}
}

func (s *goalService) publish(ctx context.Context, evts ...events.Event) {
	if err := s.publisher.Publish(ctx, evts...); err != nil {
		slog.WarnContext(ctx, "publish goal events", "goal_id", evts[0].GoalID, "error", err)
	}
}

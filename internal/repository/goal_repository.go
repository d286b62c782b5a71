package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"trajectfit/internal/model"
)

// GoalRepository defines fitness goal persistence operations.
type GoalRepository interface {
	Create(ctx context.Context, goal *model.FitnessGoal) error
	Update(ctx context.Context, goal *model.FitnessGoal) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.FitnessGoal, error)
	// ListByUser returns the user's goals, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.FitnessGoal, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type goalRepository struct {
	db *gorm.DB
}

// NewGoalRepository creates a new goal repository.
func NewGoalRepository(db *gorm.DB) GoalRepository {
	return &goalRepository{db: db}
}

// Create creates a new goal.
func (r *goalRepository) Create(ctx context.Context, goal *model.FitnessGoal) error {
	return r.db.WithContext(ctx).Create(goal).Error
}

// Update persists every field of an existing goal.
func (r *goalRepository) Update(ctx context.Context, goal *model.FitnessGoal) error {
	return r.db.WithContext(ctx).Save(goal).Error
}

// FindByID finds a goal by ID.
func (r *goalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.FitnessGoal, error) {
	var goal model.FitnessGoal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&goal).Error; err != nil {
		return nil, err
	}
	return &goal, nil
}

// ListByUser lists a user's goals ordered by creation time, newest first.
func (r *goalRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.FitnessGoal, error) {
	goals := make([]model.FitnessGoal, 0)
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

// Delete removes a goal.
func (r *goalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.FitnessGoal{}).Error
}

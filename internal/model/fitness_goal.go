package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GoalType is the category of a fitness goal.
type GoalType string

const (
	GoalTypeWeightLoss  GoalType = "weight_loss"
	GoalTypeMuscleGain  GoalType = "muscle_gain"
	GoalTypeStrength    GoalType = "strength"
	GoalTypeEndurance   GoalType = "endurance"
	GoalTypeFlexibility GoalType = "flexibility"
	GoalTypeCustom      GoalType = "custom"
)

// GoalTypes lists every accepted goal category.
var GoalTypes = []GoalType{
	GoalTypeWeightLoss,
	GoalTypeMuscleGain,
	GoalTypeStrength,
	GoalTypeEndurance,
	GoalTypeFlexibility,
	GoalTypeCustom,
}

// Valid reports whether t is one of GoalTypes.
func (t GoalType) Valid() bool {
	for _, known := range GoalTypes {
		if t == known {
			return true
		}
	}
	return false
}

const (
	// ProgressMin is the lowest accepted progress value.
	ProgressMin = 0.0
	// ProgressComplete is the progress at which a goal counts as completed.
	ProgressComplete = 100.0
)

// FitnessGoal is a goal owned by exactly one user.
type FitnessGoal struct {
	ID          uuid.UUID         `json:"id" gorm:"type:char(36);primaryKey"`
	UserID      uuid.UUID         `json:"userId" gorm:"type:char(36);not null;index"`
	Title       string            `json:"title" gorm:"size:255;not null"`
	Description *string           `json:"description" gorm:"type:text"`
	TargetDate  time.Time         `json:"targetDate" gorm:"type:date;not null"`
	Completed   bool              `json:"completed" gorm:"not null;default:false"`
	Type        GoalType          `json:"type" gorm:"size:32;not null"`
	Metrics     datatypes.JSONMap `json:"metrics,omitempty"`
	Progress    float64           `json:"progress" gorm:"not null;default:0"`
	CreatedAt   time.Time         `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (g *FitnessGoal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// OwnedBy reports whether userID owns the goal.
func (g *FitnessGoal) OwnedBy(userID uuid.UUID) bool {
	return g.UserID == userID
}

// SetProgress stores progress and marks the goal completed once it reaches
// ProgressComplete. Completion is never reverted.
func (g *FitnessGoal) SetProgress(progress float64) {
	g.Progress = progress
	if progress >= ProgressComplete {
		g.Completed = true
	}
}

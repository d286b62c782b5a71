package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"trajectfit/internal/model"
	"trajectfit/internal/repository"
)

type storedGoal struct {
	goal model.FitnessGoal
	seq  uint64
}

// GoalRepository is a map-backed repository.GoalRepository.
type GoalRepository struct {
	mu    sync.RWMutex
	goals map[uuid.UUID]storedGoal
	seq   uint64
	now   func() time.Time
}

var _ repository.GoalRepository = (*GoalRepository)(nil)

// NewGoalRepository creates an empty repository.
func NewGoalRepository() *GoalRepository {
	return &GoalRepository{
		goals: make(map[uuid.UUID]storedGoal),
		now:   time.Now,
	}
}

func (r *GoalRepository) Create(ctx context.Context, goal *model.FitnessGoal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if goal.ID == uuid.Nil {
		goal.ID = uuid.New()
	}
	if _, ok := r.goals[goal.ID]; ok {
		return gorm.ErrDuplicatedKey
	}
	now := r.now()
	goal.CreatedAt = now
	goal.UpdatedAt = now
	r.seq++
	r.goals[goal.ID] = storedGoal{goal: cloneGoal(*goal), seq: r.seq}
	return nil
}

func (r *GoalRepository) Update(ctx context.Context, goal *model.FitnessGoal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.goals[goal.ID]
	if !ok {
		r.seq++
		stored.seq = r.seq
		goal.CreatedAt = r.now()
	} else {
		goal.CreatedAt = stored.goal.CreatedAt
	}
	goal.UpdatedAt = r.now()
	stored.goal = cloneGoal(*goal)
	r.goals[goal.ID] = stored
	return nil
}

func (r *GoalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.FitnessGoal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.goals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	goal := cloneGoal(stored.goal)
	return &goal, nil
}

func (r *GoalRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.FitnessGoal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]storedGoal, 0)
	for _, stored := range r.goals {
		if stored.goal.UserID == userID {
			matched = append(matched, stored)
		}
	}
	// Insertion order breaks ties between goals created in the same instant.
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.goal.CreatedAt.Equal(b.goal.CreatedAt) {
			return a.goal.CreatedAt.After(b.goal.CreatedAt)
		}
		return a.seq > b.seq
	})

	goals := make([]model.FitnessGoal, 0, len(matched))
	for _, stored := range matched {
		goals = append(goals, cloneGoal(stored.goal))
	}
	return goals, nil
}

func (r *GoalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.goals, id)
	return nil
}

func (r *GoalRepository) deleteByUser(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, stored := range r.goals {
		if stored.goal.UserID == userID {
			delete(r.goals, id)
		}
	}
}

func cloneGoal(goal model.FitnessGoal) model.FitnessGoal {
	if goal.Metrics != nil {
		goal.Metrics = maps.Clone(goal.Metrics)
	}
	return goal
}

// Package history keeps an append-only log of fitness goal progress updates.
package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"trajectfit/internal/model"
)

// Entry is one recorded progress update.
type Entry struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GoalID     string             `bson:"goalId" json:"goalId"`
	UserID     string             `bson:"userId" json:"userId"`
	Progress   float64            `bson:"progress" json:"progress"`
	Completed  bool               `bson:"completed" json:"completed"`
	RecordedAt time.Time          `bson:"recordedAt" json:"recordedAt"`
}

// NewEntry snapshots goal's progress state.
func NewEntry(goal *model.FitnessGoal, at time.Time) Entry {
	return Entry{
		GoalID:     goal.ID.String(),
		UserID:     goal.UserID.String(),
		Progress:   goal.Progress,
		Completed:  goal.Completed,
		RecordedAt: at.UTC(),
	}
}

// Recorder stores and lists progress entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
	// List returns a goal's entries, most recent first. Never nil.
	List(ctx context.Context, goalID string) ([]Entry, error)
	// Forget drops every entry of a deleted goal.
	Forget(ctx context.Context, goalID string) error
}

// NopRecorder records nothing and always lists an empty history.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Entry) error { return nil }
func (NopRecorder) List(context.Context, string) ([]Entry, error) {
	return []Entry{}, nil
}
func (NopRecorder) Forget(context.Context, string) error { return nil }

// MemoryRecorder keeps entries in process memory.
type MemoryRecorder struct {
	mu      sync.Mutex
	entries map[string][]Entry
}

// NewMemoryRecorder creates an empty MemoryRecorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{entries: make(map[string][]Entry)}
}

func (r *MemoryRecorder) Record(_ context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	r.entries[entry.GoalID] = append(r.entries[entry.GoalID], entry)
	return nil
}

func (r *MemoryRecorder) List(_ context.Context, goalID string) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.entries[goalID]
	out := make([]Entry, len(stored))
	// Reverse insertion order, then a stable sort keeps same-instant entries newest first.
	for i, e := range stored {
		out[len(stored)-1-i] = e
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	return out, nil
}

func (r *MemoryRecorder) Forget(_ context.Context, goalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, goalID)
	return nil
}

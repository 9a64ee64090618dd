// Package storage defines the goal store contract consumed by the
// goal probability service, plus the errors shared by its
// implementations (in-memory and Postgres).
package storage

import (
	"context"
	"time"

	"github.com/spiffler33/Profiler-sub006/pkg/types"
)

// GoalStore provides access to goal records. The probability service
// is the only component that writes probability fields, and
// UpdateGoalProbability is the only write it performs: it must touch
// nothing but the probability-owned columns, so concurrent updates to
// unrelated goal fields are never clobbered.
type GoalStore interface {
	// CreateGoal inserts a new goal. Returns ErrDuplicateKey if the id
	// already exists.
	CreateGoal(ctx context.Context, goal *types.Goal) error

	// GetGoal retrieves a goal by id. Returns ErrNotFound if absent.
	GetGoal(ctx context.Context, id string) (*types.Goal, error)

	// ListGoals retrieves all goals for a profile, ordered by creation
	// time.
	ListGoals(ctx context.Context, profileID string) ([]*types.Goal, error)

	// UpdateGoalProbability writes the probability-owned fields of one
	// goal: the clamped probability, the serialized result blob, and
	// the calculation timestamp. Last write wins for these fields
	// only. Returns ErrNotFound if the goal is absent.
	UpdateGoalProbability(ctx context.Context, id string, probability float64, resultBlob map[string]interface{}, calculatedAt time.Time) error
}

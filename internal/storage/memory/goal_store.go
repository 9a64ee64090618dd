// Package memory provides an in-memory goal store for tests and the
// demo binary.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spiffler33/Profiler-sub006/internal/storage"
	"github.com/spiffler33/Profiler-sub006/pkg/types"
)

// GoalStore is an in-memory implementation of storage.GoalStore.
type GoalStore struct {
	mu   sync.RWMutex
	data map[string]*types.Goal // keyed by goal id
}

// NewGoalStore creates a new in-memory goal store.
func NewGoalStore() *GoalStore {
	return &GoalStore{
		data: make(map[string]*types.Goal),
	}
}

// Compile-time interface check.
var _ storage.GoalStore = (*GoalStore)(nil)

// CreateGoal inserts a new goal, assigning an id when absent.
func (s *GoalStore) CreateGoal(_ context.Context, goal *types.Goal) error {
	if goal == nil {
		return storage.ErrInvalidInput
	}
	if goal.ID == "" {
		goal.ID = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[goal.ID]; exists {
		return storage.ErrDuplicateKey
	}

	now := time.Now()
	goal.CreatedAt = now
	goal.UpdatedAt = now

	// Store a copy to prevent external mutation.
	goalCopy := *goal
	s.data[goal.ID] = &goalCopy
	return nil
}

// GetGoal retrieves a goal by id. Returns ErrNotFound if absent.
func (s *GoalStore) GetGoal(_ context.Context, id string) (*types.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	goal, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	goalCopy := *goal
	return &goalCopy, nil
}

// ListGoals retrieves all goals for a profile, ordered by creation time.
func (s *GoalStore) ListGoals(_ context.Context, profileID string) ([]*types.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var goals []*types.Goal
	for _, goal := range s.data {
		if goal.ProfileID == profileID {
			goalCopy := *goal
			goals = append(goals, &goalCopy)
		}
	}

	sort.Slice(goals, func(i, j int) bool {
		return goals[i].CreatedAt.Before(goals[j].CreatedAt)
	})
	return goals, nil
}

// UpdateGoalProbability writes only the probability-owned fields.
func (s *GoalStore) UpdateGoalProbability(_ context.Context, id string, probability float64, resultBlob map[string]interface{}, calculatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	goal, exists := s.data[id]
	if !exists {
		return storage.ErrNotFound
	}

	goal.GoalProbability = probability
	goal.ProbabilityResult = resultBlob
	goal.ProbabilityCalculatedAt = calculatedAt
	goal.UpdatedAt = time.Now()
	return nil
}

package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spiffler33/Profiler-sub006/internal/storage"
	"github.com/spiffler33/Profiler-sub006/internal/storage/memory"
	"github.com/spiffler33/Profiler-sub006/pkg/types"
)

func newGoal(id, profileID string) *types.Goal {
	return &types.Goal{
		ID:                  id,
		ProfileID:           profileID,
		Category:            types.GoalCategoryRetirement,
		Title:               "retirement",
		TargetAmount:        decimal.NewFromInt(10000000),
		CurrentAmount:       decimal.NewFromInt(1000000),
		MonthlyContribution: decimal.NewFromInt(20000),
		HorizonYears:        25,
		Allocation:          types.AssetAllocation{Equity: 0.7, Debt: 0.3},
	}
}

func TestCreateAndGetGoal(t *testing.T) {
	store := memory.NewGoalStore()
	ctx := context.Background()

	if err := store.CreateGoal(ctx, newGoal("g1", "p1")); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	goal, err := store.GetGoal(ctx, "g1")
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if goal.Title != "retirement" {
		t.Errorf("Title = %q", goal.Title)
	}

	if _, err := store.GetGoal(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := store.CreateGoal(ctx, newGoal("g1", "p1")); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestCreateGoalAssignsID(t *testing.T) {
	store := memory.NewGoalStore()
	goal := newGoal("", "p1")

	if err := store.CreateGoal(context.Background(), goal); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	if goal.ID == "" {
		t.Error("Expected generated goal id")
	}
}

func TestListGoalsFiltersByProfile(t *testing.T) {
	store := memory.NewGoalStore()
	ctx := context.Background()

	store.CreateGoal(ctx, newGoal("g1", "p1"))
	store.CreateGoal(ctx, newGoal("g2", "p1"))
	store.CreateGoal(ctx, newGoal("g3", "p2"))

	goals, err := store.ListGoals(ctx, "p1")
	if err != nil {
		t.Fatalf("ListGoals failed: %v", err)
	}
	if len(goals) != 2 {
		t.Errorf("ListGoals returned %d goals, want 2", len(goals))
	}
}

func TestUpdateGoalProbabilityTouchesOnlyProbabilityFields(t *testing.T) {
	store := memory.NewGoalStore()
	ctx := context.Background()
	store.CreateGoal(ctx, newGoal("g1", "p1"))

	calculatedAt := time.Now()
	blob := map[string]interface{}{"success_metrics": map[string]interface{}{"success_probability": 0.66}}
	if err := store.UpdateGoalProbability(ctx, "g1", 0.66, blob, calculatedAt); err != nil {
		t.Fatalf("UpdateGoalProbability failed: %v", err)
	}

	goal, err := store.GetGoal(ctx, "g1")
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if goal.GoalProbability != 0.66 {
		t.Errorf("GoalProbability = %f, want 0.66", goal.GoalProbability)
	}
	if !goal.ProbabilityCalculatedAt.Equal(calculatedAt) {
		t.Error("ProbabilityCalculatedAt not persisted")
	}
	if goal.Title != "retirement" || goal.HorizonYears != 25 {
		t.Error("Non-probability fields were modified")
	}

	err = store.UpdateGoalProbability(ctx, "missing", 0.5, nil, calculatedAt)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetGoalReturnsCopy(t *testing.T) {
	store := memory.NewGoalStore()
	ctx := context.Background()
	store.CreateGoal(ctx, newGoal("g1", "p1"))

	first, _ := store.GetGoal(ctx, "g1")
	first.Title = "mutated"

	second, _ := store.GetGoal(ctx, "g1")
	if second.Title != "retirement" {
		t.Error("Store handed out a shared mutable reference")
	}
}

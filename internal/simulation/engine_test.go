// Package simulation_test provides tests for the Monte Carlo engine.
package simulation_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/spiffler33/Profiler-sub006/internal/simulation"
	"github.com/spiffler33/Profiler-sub006/pkg/types"
)

func testInputs() types.GoalInputs {
	return types.GoalInputs{
		GoalID:              "goal-1",
		TargetAmount:        10000000,
		CurrentAmount:       1000000,
		MonthlyContribution: 20000,
		HorizonYears:        25,
		Allocation:          types.AssetAllocation{Equity: 0.7, Debt: 0.2, Gold: 0.05, Cash: 0.05},
	}
}

func TestRunProducesIterationsSizedDistribution(t *testing.T) {
	engine := simulation.NewEngine(zap.NewNop())
	cfg := types.DefaultSimulationConfig()
	cfg.Iterations = 500

	dist, err := engine.Run(context.Background(), testInputs(), cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if dist.Size() != cfg.Iterations {
		t.Errorf("Distribution size = %d, want %d", dist.Size(), cfg.Iterations)
	}

	prob := dist.SuccessProbability(testInputs().TargetAmount)
	if prob < 0 || prob > 1 {
		t.Errorf("Success probability %f outside [0,1]", prob)
	}
}

func TestRunScenarioIsNonDegenerateAndDeterministic(t *testing.T) {
	// Equity-heavy 25-year goal: ~10x growth required, should be
	// genuinely uncertain, not 0 or 1.
	engine := simulation.NewEngine(zap.NewNop())
	cfg := types.DefaultSimulationConfig()
	cfg.Iterations = 1000

	first, err := engine.BuildResult(context.Background(), testInputs(), cfg)
	if err != nil {
		t.Fatalf("BuildResult failed: %v", err)
	}

	prob := first.SafeSuccessProbability()
	if prob <= 0 || prob >= 1 {
		t.Errorf("Expected non-degenerate probability, got %f", prob)
	}

	second, err := engine.BuildResult(context.Background(), testInputs(), cfg)
	if err != nil {
		t.Fatalf("Second BuildResult failed: %v", err)
	}

	if first.SafeSuccessProbability() != second.SafeSuccessProbability() {
		t.Errorf("Identical calls diverged: %f vs %f",
			first.SafeSuccessProbability(), second.SafeSuccessProbability())
	}
}

func TestRunEdgeCases(t *testing.T) {
	engine := simulation.NewEngine(zap.NewNop())
	cfg := types.DefaultSimulationConfig()
	cfg.Iterations = 200

	cases := []struct {
		name   string
		mutate func(*types.GoalInputs)
	}{
		{"zero contribution", func(gi *types.GoalInputs) { gi.MonthlyContribution = 0 }},
		{"zero current amount", func(gi *types.GoalInputs) { gi.CurrentAmount = 0 }},
		{"very large target", func(gi *types.GoalInputs) { gi.TargetAmount = 1e15 }},
		{"very long horizon", func(gi *types.GoalInputs) { gi.HorizonYears = 80 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inputs := testInputs()
			tc.mutate(&inputs)

			result, err := engine.BuildResult(context.Background(), inputs, cfg)
			if err != nil {
				t.Fatalf("BuildResult failed: %v", err)
			}

			prob := result.SafeSuccessProbability()
			if prob < 0 || prob > 1 {
				t.Errorf("Probability %f outside [0,1]", prob)
			}
		})
	}
}

func TestAlreadyFundedGoalAchievesAtMonthZero(t *testing.T) {
	// A goal whose balance starts above the target crosses at month 0
	// in every trial, so the median achievement time is exactly zero
	// rather than the full horizon.
	engine := simulation.NewEngine(zap.NewNop())
	cfg := types.DefaultSimulationConfig()
	cfg.Iterations = 200

	inputs := testInputs()
	inputs.CurrentAmount = 2 * inputs.TargetAmount
	inputs.HorizonYears = 1

	result, err := engine.BuildResult(context.Background(), inputs, cfg)
	if err != nil {
		t.Fatalf("BuildResult failed: %v", err)
	}

	if got := result.TimeBasedMetrics.YearsToGoal; got != 0 {
		t.Errorf("YearsToGoal = %f, want 0 for an already funded goal", got)
	}
	if got := result.TimeBasedMetrics.MedianAchievementTime; got != 0 {
		t.Errorf("MedianAchievementTime = %f, want 0", got)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	engine := simulation.NewEngine(zap.NewNop())

	cases := []struct {
		name   string
		inputs types.GoalInputs
		cfg    *types.SimulationConfig
	}{
		{
			name:   "zero iterations",
			inputs: testInputs(),
			cfg:    &types.SimulationConfig{Iterations: 0, Returns: types.DefaultSimulationConfig().Returns},
		},
		{
			name:   "negative volatility",
			inputs: testInputs(),
			cfg: &types.SimulationConfig{
				Iterations: 1000,
				Returns: map[types.AssetClass]types.AssetReturnModel{
					types.AssetClassEquity: {Mean: 0.10, Volatility: -0.18},
				},
			},
		},
		{
			name: "allocation does not sum to 1",
			inputs: func() types.GoalInputs {
				gi := testInputs()
				gi.Allocation = types.AssetAllocation{Equity: 0.7, Debt: 0.7}
				return gi
			}(),
			cfg: types.DefaultSimulationConfig(),
		},
		{
			name: "negative horizon",
			inputs: func() types.GoalInputs {
				gi := testInputs()
				gi.HorizonYears = -1
				return gi
			}(),
			cfg: types.DefaultSimulationConfig(),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Run(context.Background(), tc.inputs, tc.cfg)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			var vErr *types.ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("Expected ValidationError, got %T: %v", err, err)
			}
		})
	}
}

func TestRunHonorsCancelledContext(t *testing.T) {
	engine := simulation.NewEngine(zap.NewNop())
	cfg := types.DefaultSimulationConfig()
	cfg.Iterations = types.MaxIterations

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx, testInputs(), cfg)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestHigherContributionRaisesProbabilityOnAverage(t *testing.T) {
	// Monotonicity in contribution is a statistical tendency asserted
	// over many trials, not a per-draw invariant.
	engine := simulation.NewEngine(zap.NewNop())
	cfg := types.DefaultSimulationConfig()
	cfg.Iterations = 2000

	low := testInputs()
	low.MonthlyContribution = 5000

	high := testInputs()
	high.MonthlyContribution = 50000

	lowResult, err := engine.BuildResult(context.Background(), low, cfg)
	if err != nil {
		t.Fatalf("Low-contribution run failed: %v", err)
	}
	highResult, err := engine.BuildResult(context.Background(), high, cfg)
	if err != nil {
		t.Fatalf("High-contribution run failed: %v", err)
	}

	if highResult.SafeSuccessProbability() < lowResult.SafeSuccessProbability() {
		t.Errorf("Expected higher contribution to raise probability: low=%f high=%f",
			lowResult.SafeSuccessProbability(), highResult.SafeSuccessProbability())
	}
}

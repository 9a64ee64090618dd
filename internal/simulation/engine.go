package simulation

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spiffler33/Profiler-sub006/pkg/types"
)

const monthsPerYear = 12

// Engine runs Monte Carlo trials of a goal's wealth path under a
// parameterized stochastic return model.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a simulation engine.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

// Run executes cfg.Iterations independent trials for the given goal
// inputs and returns the resulting outcome distribution. Invalid
// inputs or config are rejected before any trial runs. Trials are
// independent pure computations; they fan out over a bounded worker
// set with a deterministic per-trial RNG, so results do not depend on
// scheduling.
func (e *Engine) Run(ctx context.Context, inputs types.GoalInputs, cfg *types.SimulationConfig) (*OutcomeDistribution, error) {
	if cfg == nil {
		cfg = types.DefaultSimulationConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := inputs.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	horizonMonths := inputs.HorizonYears * monthsPerYear
	baseSeed := trialSeedBase(inputs, cfg)

	outcomes := make([]float64, cfg.Iterations)
	crossings := make([]int, cfg.Iterations)

	numWorkers := cfg.ParallelWorkers
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if numWorkers > cfg.Iterations {
		numWorkers = cfg.Iterations
	}

	jobs := make(chan int, cfg.Iterations)
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for trial := range jobs {
				// Seeded per trial index so a single call is
				// reproducible regardless of worker assignment.
				rng := rand.New(rand.NewSource(trialSeed(baseSeed, trial)))
				terminal, crossedAt := e.runTrial(inputs, cfg, horizonMonths, rng)
				outcomes[trial] = terminal
				crossings[trial] = crossedAt
			}
		}()
	}

	for i := 0; i < cfg.Iterations; i++ {
		select {
		case <-ctx.Done():
			// Stop feeding work; already-submitted trials finish.
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	e.logger.Debug("simulation run complete",
		zap.String("goal_id", inputs.GoalID),
		zap.Int("iterations", cfg.Iterations),
		zap.Int("horizon_months", horizonMonths),
		zap.Duration("elapsed", time.Since(start)),
	)

	return NewOutcomeDistribution(outcomes, crossings, horizonMonths), nil
}

// BuildResult runs a simulation and derives the structured result.
func (e *Engine) BuildResult(ctx context.Context, inputs types.GoalInputs, cfg *types.SimulationConfig) (*ProbabilityResult, error) {
	dist, err := e.Run(ctx, inputs, cfg)
	if err != nil {
		return nil, err
	}
	return buildResult(dist, inputs.TargetAmount, inputs.HorizonYears), nil
}

// runTrial simulates one wealth path month by month. Returns the
// terminal balance and the first month the balance reached the target
// (-1 if it never did).
func (e *Engine) runTrial(inputs types.GoalInputs, cfg *types.SimulationConfig, horizonMonths int, rng *rand.Rand) (float64, int) {
	balance := inputs.CurrentAmount
	contribution := inputs.MonthlyContribution
	crossedAt := -1

	if inputs.TargetAmount > 0 && balance >= inputs.TargetAmount {
		crossedAt = 0
	}

	for month := 1; month <= horizonMonths; month++ {
		monthReturn := blendedMonthlyReturn(inputs.Allocation, cfg.Returns, rng)
		balance *= 1 + monthReturn
		balance += contribution
		if balance < 0 {
			balance = 0
		}

		if crossedAt < 0 && inputs.TargetAmount > 0 && balance >= inputs.TargetAmount {
			crossedAt = month
		}

		// Contributions step up with inflation at each year boundary.
		if month%monthsPerYear == 0 {
			contribution *= 1 + cfg.InflationRate
		}
	}

	return balance, crossedAt
}

// blendedMonthlyReturn draws one month's return per asset class and
// blends them by allocation weight into a single portfolio return.
func blendedMonthlyReturn(alloc types.AssetAllocation, models map[types.AssetClass]types.AssetReturnModel, rng *rand.Rand) float64 {
	blended := 0.0
	for _, class := range types.AssetClasses {
		weight := alloc.Weight(class)
		if weight == 0 {
			continue
		}
		model, ok := models[class]
		if !ok {
			continue
		}
		monthlyMean := math.Pow(1+model.Mean, 1.0/monthsPerYear) - 1
		monthlyVol := model.Volatility / math.Sqrt(monthsPerYear)
		draw := rng.NormFloat64()*monthlyVol + monthlyMean
		blended += weight * draw
	}
	return blended
}

// trialSeedBase hashes everything that affects a trial's outcome into
// a deterministic seed base. Two identical calls share seeds; any
// input change produces a different stream.
func trialSeedBase(inputs types.GoalInputs, cfg *types.SimulationConfig) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%.6f|%.6f|%.6f|%d|%.6f|%.6f|%.6f|%.6f|%d|%.6f|%d",
		inputs.GoalID,
		inputs.TargetAmount,
		inputs.CurrentAmount,
		inputs.MonthlyContribution,
		inputs.HorizonYears,
		inputs.Allocation.Equity,
		inputs.Allocation.Debt,
		inputs.Allocation.Gold,
		inputs.Allocation.Cash,
		cfg.Iterations,
		cfg.InflationRate,
		cfg.Seed,
	)
	for _, class := range types.AssetClasses {
		if model, ok := cfg.Returns[class]; ok {
			fmt.Fprintf(h, "|%s:%.6f:%.6f", class, model.Mean, model.Volatility)
		}
	}
	return int64(h.Sum64())
}

// trialSeed derives the RNG seed for one trial index.
func trialSeed(base int64, trial int) int64 {
	// Odd multiplier keeps neighboring trials decorrelated.
	const mix uint64 = 0x9E3779B97F4A7C15
	return base ^ int64(uint64(trial+1)*mix)
}

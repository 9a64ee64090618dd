// Package goalprob orchestrates goal probability calculation: cache
// lookup, simulation, result sanitation, and persistence onto the goal
// record, plus the parallel batch coordinator that fans calculation
// out across many goals.
package goalprob

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spiffler33/Profiler-sub006/internal/params"
	"github.com/spiffler33/Profiler-sub006/internal/simcache"
	"github.com/spiffler33/Profiler-sub006/internal/simulation"
	"github.com/spiffler33/Profiler-sub006/internal/storage"
	"github.com/spiffler33/Profiler-sub006/pkg/types"
)

// CalculateOptions tunes a single calculation request.
type CalculateOptions struct {
	// Iterations overrides the configured trial count when positive.
	Iterations int

	// ForceRecalculate bypasses the cache and reruns the simulation.
	ForceRecalculate bool
}

// Service computes and persists goal probabilities. It is the only
// component that reads from and writes to the goal store, and the only
// writer of a goal's probability fields.
type Service struct {
	logger   *zap.Logger
	engine   *simulation.Engine
	cache    *simcache.Cache
	goals    storage.GoalStore
	params   *params.Store
	defaults *types.SimulationConfig
	metrics  *Metrics
}

// NewService wires the calculation pipeline. defaults may be nil to
// use the standard simulation config; metrics may be nil.
func NewService(
	logger *zap.Logger,
	engine *simulation.Engine,
	cache *simcache.Cache,
	goals storage.GoalStore,
	paramStore *params.Store,
	defaults *types.SimulationConfig,
	metrics *Metrics,
) *Service {
	if defaults == nil {
		defaults = types.DefaultSimulationConfig()
	}
	return &Service{
		logger:   logger,
		engine:   engine,
		cache:    cache,
		goals:    goals,
		params:   paramStore,
		defaults: defaults,
		metrics:  metrics,
	}
}

// Calculate computes the probability of meeting the goal. On a cache
// hit the stored result is returned without simulating; on a miss (or
// when forced) exactly one simulation runs even under concurrent
// identical requests.
//
// A persistence failure does not discard the computed result: the
// caller receives both the result and a PersistenceError, so the value
// is usable while the durable write is flagged as failed.
func (s *Service) Calculate(ctx context.Context, goalID string, profile types.Profile, opts CalculateOptions) (*simulation.ProbabilityResult, error) {
	start := time.Now()

	goal, err := s.goals.GetGoal(ctx, goalID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &types.NotFoundError{Resource: "goal", ID: goalID}
		}
		return nil, &types.InternalError{Op: "goal lookup", Err: err}
	}

	inputs := goal.Inputs()
	// Defensive defaulting from profile facts: a goal with no explicit
	// contribution falls back to half the profile's monthly surplus.
	if inputs.MonthlyContribution == 0 {
		inputs.MonthlyContribution = 0.5 * profile.MonthlySurplus()
	}

	cfg := s.params.SimulationConfig(s.defaults)
	if opts.Iterations > 0 {
		cfg.Iterations = opts.Iterations
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := inputs.Validate(); err != nil {
		return nil, err
	}

	version := s.params.CurrentVersion()
	fingerprint := simcache.Fingerprint(inputs, cfg, version)

	if opts.ForceRecalculate {
		s.cache.Invalidate(fingerprint)
	}

	simulated := false
	result, err := s.cache.GetOrCompute(fingerprint, version, func() (*simulation.ProbabilityResult, error) {
		simulated = true
		return s.engine.BuildResult(ctx, inputs, cfg)
	})
	if err != nil {
		s.metrics.observeCalculation(time.Since(start), "error")
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &types.TimeoutError{GoalID: goalID, Elapsed: time.Since(start).String()}
		}
		var vErr *types.ValidationError
		if errors.As(err, &vErr) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &types.InternalError{Op: "simulation", Err: err}
	}

	// NaN or out-of-range probabilities are clamped before persistence,
	// never written raw.
	probability := result.SafeSuccessProbability()

	if !simulated {
		// Cache hit (or another in-flight caller persisted): nothing
		// new to write.
		s.metrics.observeCalculation(time.Since(start), "cache_hit")
		return result, nil
	}

	if err := s.goals.UpdateGoalProbability(ctx, goalID, probability, result.ToSerializable(), time.Now()); err != nil {
		persistErr := &types.PersistenceError{GoalID: goalID, Err: err}
		s.logger.Error("probability computed but not persisted",
			zap.String("goal_id", goalID),
			zap.Float64("probability", probability),
			zap.Error(err),
		)
		s.metrics.observeCalculation(time.Since(start), "persist_failed")
		return result, persistErr
	}

	s.logger.Debug("goal probability calculated",
		zap.String("goal_id", goalID),
		zap.Float64("probability", probability),
		zap.Bool("forced", opts.ForceRecalculate),
		zap.Duration("elapsed", time.Since(start)),
	)
	s.metrics.observeCalculation(time.Since(start), "ok")
	return result, nil
}

// InvalidateCache removes cached results matching a key or
// trailing-'*' pattern and returns the count removed. An empty pattern
// clears everything.
func (s *Service) InvalidateCache(pattern string) int {
	if pattern == "" {
		removed := s.cache.Size()
		s.cache.Clear()
		return removed
	}
	return s.cache.Invalidate(pattern)
}

// InvalidateGoal removes every cached result for one goal.
func (s *Service) InvalidateGoal(goalID string) int {
	return s.cache.Invalidate(simcache.GoalPattern(goalID))
}

// CacheStats reports the cache counters.
func (s *Service) CacheStats() simcache.Stats {
	return s.cache.Stats()
}

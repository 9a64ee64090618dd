package goalprob

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spiffler33/Profiler-sub006/internal/simulation"
	"github.com/spiffler33/Profiler-sub006/internal/workers"
	"github.com/spiffler33/Profiler-sub006/pkg/types"
)

// BatchResult is one goal's slot in a batch outcome: either a result
// or the error that goal produced. One goal's failure never aborts its
// siblings.
type BatchResult struct {
	Result *simulation.ProbabilityResult
	Err    error
}

// BatchCoordinator fans per-goal calculations out over a bounded
// worker pool.
type BatchCoordinator struct {
	logger      *zap.Logger
	service     *Service
	pool        *workers.Pool
	goalTimeout time.Duration
}

// NewBatchCoordinator creates a coordinator with a running pool. cfg
// may be nil for defaults (5 workers, 30s per-goal timeout). Call
// Close when done.
func NewBatchCoordinator(logger *zap.Logger, service *Service, cfg *types.ServiceConfig) *BatchCoordinator {
	if cfg == nil {
		cfg = types.DefaultServiceConfig()
	}

	poolCfg := workers.DefaultConfig("goal-batch")
	if cfg.BatchWorkers > 0 {
		poolCfg.NumWorkers = cfg.BatchWorkers
	}

	pool := workers.NewPool(logger, poolCfg)
	pool.Start()

	return &BatchCoordinator{
		logger:      logger,
		service:     service,
		pool:        pool,
		goalTimeout: cfg.GoalTimeout,
	}
}

// RunBatch calculates probabilities for every goal id and returns one
// entry per input id. Goals run concurrently up to the pool bound;
// each success or failure lands in its own slot. A goal exceeding the
// per-goal timeout reports a TimeoutError without cancelling siblings.
// The map carries no ordering; callers needing deterministic order
// sort by goal id.
func (b *BatchCoordinator) RunBatch(ctx context.Context, goalIDs []string, profile types.Profile, opts CalculateOptions) map[string]BatchResult {
	batchID := uuid.New().String()
	start := time.Now()

	results := make(map[string]BatchResult, len(goalIDs))
	var mu sync.Mutex
	var wg sync.WaitGroup

	record := func(goalID string, result *simulation.ProbabilityResult, err error) {
		mu.Lock()
		defer mu.Unlock()
		results[goalID] = BatchResult{Result: result, Err: err}
	}

	for _, goalID := range goalIDs {
		goalID := goalID
		mu.Lock()
		if _, dup := results[goalID]; dup {
			mu.Unlock()
			continue // one slot per goal id
		}
		results[goalID] = BatchResult{}
		mu.Unlock()

		wg.Add(1)
		done, err := b.pool.Submit(ctx, workers.TaskFunc(func(taskCtx context.Context) error {
			goalCtx := taskCtx
			if b.goalTimeout > 0 {
				var cancel context.CancelFunc
				goalCtx, cancel = context.WithTimeout(taskCtx, b.goalTimeout)
				defer cancel()
			}

			result, calcErr := b.service.Calculate(goalCtx, goalID, profile, opts)
			if calcErr != nil && errors.Is(calcErr, context.DeadlineExceeded) {
				calcErr = &types.TimeoutError{GoalID: goalID, Elapsed: b.goalTimeout.String()}
			}
			record(goalID, result, calcErr)
			return calcErr
		}))
		if err != nil {
			record(goalID, nil, &types.InternalError{Op: "batch dispatch", Err: err})
			wg.Done()
			continue
		}

		go func() {
			defer wg.Done()
			taskErr := <-done
			if taskErr == nil {
				return
			}
			if errors.Is(taskErr, context.DeadlineExceeded) {
				taskErr = &types.TimeoutError{GoalID: goalID, Elapsed: b.goalTimeout.String()}
			}
			// A panicked task or one whose context expired while queued
			// never reaches the closure's record call; without this the
			// slot would keep its empty placeholder.
			mu.Lock()
			defer mu.Unlock()
			if slot := results[goalID]; slot.Result == nil && slot.Err == nil {
				results[goalID] = BatchResult{Err: taskErr}
			}
		}()
	}

	wg.Wait()

	succeeded, failed := 0, 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		} else {
			succeeded++
		}
	}

	b.logger.Info("batch calculation complete",
		zap.String("batch_id", batchID),
		zap.Int("goals", len(results)),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)

	return results
}

// PoolStats reports the underlying worker pool counters.
func (b *BatchCoordinator) PoolStats() workers.Stats {
	return b.pool.Stats()
}

// Close stops the worker pool, draining in-flight goals.
func (b *BatchCoordinator) Close() error {
	return b.pool.Stop(10 * time.Second)
}

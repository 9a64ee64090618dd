// Package params provides the financial parameter store: shared market
// assumptions (per-asset-class return and volatility, inflation) with
// a monotonically increasing version counter. The version is embedded
// in simulation cache fingerprints, so bumping it on any assumption
// change surgically invalidates stale cached results without a flush.
package params

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/spiffler33/Profiler-sub006/pkg/types"
)

// Parameter keys for the standard market assumptions.
const (
	KeyInflationRate = "market.inflation_rate"
)

// ReturnKey builds the parameter key for an asset class return mean.
func ReturnKey(class types.AssetClass) string {
	return fmt.Sprintf("market.%s.mean", class)
}

// VolatilityKey builds the parameter key for an asset class volatility.
func VolatilityKey(class types.AssetClass) string {
	return fmt.Sprintf("market.%s.volatility", class)
}

// ChangeFunc is notified after a parameter write, with the key that
// changed and the new store version.
type ChangeFunc func(key string, version int64)

// Store holds financial assumptions. Reads are frequent and cheap;
// writes are rare and bump the version counter.
type Store struct {
	logger *zap.Logger

	mu     sync.RWMutex
	values map[string]float64

	version   atomic.Int64
	callbacks []ChangeFunc
}

// NewStore creates a parameter store seeded from the given simulation
// defaults.
func NewStore(logger *zap.Logger, defaults *types.SimulationConfig) *Store {
	if defaults == nil {
		defaults = types.DefaultSimulationConfig()
	}

	values := map[string]float64{
		KeyInflationRate: defaults.InflationRate,
	}
	for class, model := range defaults.Returns {
		values[ReturnKey(class)] = model.Mean
		values[VolatilityKey(class)] = model.Volatility
	}

	s := &Store{
		logger: logger,
		values: values,
	}
	s.version.Store(1)
	return s
}

// Get returns the parameter value for key, or def when absent.
func (s *Store) Get(key string, def float64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

// Set writes a parameter and bumps the version counter. Registered
// change callbacks run synchronously after the write.
func (s *Store) Set(key string, value float64) {
	s.mu.Lock()
	s.values[key] = value
	callbacks := make([]ChangeFunc, len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.mu.Unlock()

	version := s.version.Add(1)

	s.logger.Info("financial parameter updated",
		zap.String("key", key),
		zap.Float64("value", value),
		zap.Int64("version", version),
	)

	for _, cb := range callbacks {
		cb(key, version)
	}
}

// CurrentVersion returns the current parameter version. It feeds the
// simulation cache fingerprint.
func (s *Store) CurrentVersion() int64 {
	return s.version.Load()
}

// OnChange registers a callback invoked after every parameter write.
func (s *Store) OnChange(cb ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, cb)
}

// SimulationConfig assembles a simulation config from the current
// assumptions, using base for the non-market settings (iterations,
// seed, worker fan-out).
func (s *Store) SimulationConfig(base *types.SimulationConfig) *types.SimulationConfig {
	if base == nil {
		base = types.DefaultSimulationConfig()
	}
	defaults := types.DefaultSimulationConfig()

	cfg := &types.SimulationConfig{
		Iterations:      base.Iterations,
		Seed:            base.Seed,
		ParallelWorkers: base.ParallelWorkers,
		InflationRate:   s.Get(KeyInflationRate, defaults.InflationRate),
		Returns:         make(map[types.AssetClass]types.AssetReturnModel, len(types.AssetClasses)),
	}
	for _, class := range types.AssetClasses {
		fallback := defaults.Returns[class]
		cfg.Returns[class] = types.AssetReturnModel{
			Mean:       s.Get(ReturnKey(class), fallback.Mean),
			Volatility: s.Get(VolatilityKey(class), fallback.Volatility),
		}
	}
	return cfg
}

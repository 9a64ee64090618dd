package types

import (
	"math"
	"time"
)

// AssetReturnModel holds the expected annual return and volatility for
// one asset class.
type AssetReturnModel struct {
	Mean       float64 `json:"mean"`
	Volatility float64 `json:"volatility"`
}

// SimulationConfig configures one Monte Carlo simulation run.
type SimulationConfig struct {
	Iterations    int                             `json:"iterations"`
	Returns       map[AssetClass]AssetReturnModel `json:"returns"`
	InflationRate float64                         `json:"inflationRate"`

	// Seed feeds the per-trial RNG derivation. Zero means derive from
	// the fingerprint alone, which keeps a single call reproducible.
	Seed int64 `json:"seed"`

	// ParallelWorkers bounds trial fan-out inside one run.
	ParallelWorkers int `json:"parallelWorkers"`
}

// Iteration bounds enforced before any trial runs.
const (
	MinIterations = 100
	MaxIterations = 10000
)

// DefaultSimulationConfig returns the standard market assumptions used
// when the parameter store has no overrides.
func DefaultSimulationConfig() *SimulationConfig {
	return &SimulationConfig{
		Iterations: 1000,
		Returns: map[AssetClass]AssetReturnModel{
			AssetClassEquity: {Mean: 0.10, Volatility: 0.18},
			AssetClassDebt:   {Mean: 0.06, Volatility: 0.05},
			AssetClassGold:   {Mean: 0.07, Volatility: 0.15},
			AssetClassCash:   {Mean: 0.04, Volatility: 0.01},
		},
		InflationRate:   0.05,
		ParallelWorkers: 8,
	}
}

// HighPrecisionSimulationConfig for more rigorous runs.
func HighPrecisionSimulationConfig() *SimulationConfig {
	cfg := DefaultSimulationConfig()
	cfg.Iterations = MaxIterations
	cfg.ParallelWorkers = 16
	return cfg
}

// Validate rejects configurations the engine cannot run.
func (c *SimulationConfig) Validate() error {
	if c.Iterations <= 0 {
		return &ValidationError{Field: "iterations", Message: "iterations must be positive"}
	}
	if c.Iterations < MinIterations || c.Iterations > MaxIterations {
		return &ValidationError{Field: "iterations", Message: "iterations out of supported range"}
	}
	if len(c.Returns) == 0 {
		return &ValidationError{Field: "returns", Message: "at least one asset return model required"}
	}
	for class, model := range c.Returns {
		if model.Volatility < 0 || math.IsNaN(model.Volatility) {
			return &ValidationError{
				Field:   "returns." + string(class) + ".volatility",
				Message: "volatility must be non-negative",
			}
		}
		if math.IsNaN(model.Mean) || math.IsInf(model.Mean, 0) {
			return &ValidationError{
				Field:   "returns." + string(class) + ".mean",
				Message: "mean return must be finite",
			}
		}
	}
	if math.IsNaN(c.InflationRate) || c.InflationRate < -1 {
		return &ValidationError{Field: "inflation_rate", Message: "inflation rate invalid"}
	}
	return nil
}

// ServiceConfig configures the goal probability service and its
// collaborators.
type ServiceConfig struct {
	CacheSize     int           `json:"cacheSize"`    // max cached results
	BatchWorkers  int           `json:"batchWorkers"` // parallel goal calculations
	GoalTimeout   time.Duration `json:"goalTimeout"`  // per-goal deadline in a batch
	MetricsPort   int           `json:"metricsPort"`  // 0 disables the metrics listener
	EnableMetrics bool          `json:"enableMetrics"`
}

// DefaultServiceConfig returns sensible defaults.
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		CacheSize:     1000,
		BatchWorkers:  5,
		GoalTimeout:   30 * time.Second,
		MetricsPort:   9090,
		EnableMetrics: true,
	}
}

// Package config loads engine configuration from a YAML file and
// environment overrides via viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/spiffler33/Profiler-sub006/pkg/types"
)

// Config is the full engine configuration.
type Config struct {
	Service     *types.ServiceConfig
	Simulation  *types.SimulationConfig
	PostgresDSN string
}

// Load reads configuration from configPath (optional) with
// GOALSIM_-prefixed environment overrides. Defaults match
// types.DefaultServiceConfig and types.DefaultSimulationConfig.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GOALSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Service: &types.ServiceConfig{
			CacheSize:     v.GetInt("cache.size"),
			BatchWorkers:  v.GetInt("batch.workers"),
			GoalTimeout:   v.GetDuration("batch.goal_timeout"),
			MetricsPort:   v.GetInt("metrics.port"),
			EnableMetrics: v.GetBool("metrics.enabled"),
		},
		Simulation: &types.SimulationConfig{
			Iterations:      v.GetInt("simulation.iterations"),
			InflationRate:   v.GetFloat64("simulation.inflation_rate"),
			Seed:            v.GetInt64("simulation.seed"),
			ParallelWorkers: v.GetInt("simulation.parallel_workers"),
			Returns:         make(map[types.AssetClass]types.AssetReturnModel),
		},
		PostgresDSN: v.GetString("storage.postgres_dsn"),
	}

	for _, class := range types.AssetClasses {
		cfg.Simulation.Returns[class] = types.AssetReturnModel{
			Mean:       v.GetFloat64(fmt.Sprintf("simulation.returns.%s.mean", class)),
			Volatility: v.GetFloat64(fmt.Sprintf("simulation.returns.%s.volatility", class)),
		}
	}

	if err := cfg.Simulation.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	service := types.DefaultServiceConfig()
	v.SetDefault("cache.size", service.CacheSize)
	v.SetDefault("batch.workers", service.BatchWorkers)
	v.SetDefault("batch.goal_timeout", service.GoalTimeout.String())
	v.SetDefault("metrics.port", service.MetricsPort)
	v.SetDefault("metrics.enabled", service.EnableMetrics)

	sim := types.DefaultSimulationConfig()
	v.SetDefault("simulation.iterations", sim.Iterations)
	v.SetDefault("simulation.inflation_rate", sim.InflationRate)
	v.SetDefault("simulation.seed", int64(0))
	v.SetDefault("simulation.parallel_workers", sim.ParallelWorkers)
	for class, model := range sim.Returns {
		v.SetDefault(fmt.Sprintf("simulation.returns.%s.mean", class), model.Mean)
		v.SetDefault(fmt.Sprintf("simulation.returns.%s.volatility", class), model.Volatility)
	}

	v.SetDefault("storage.postgres_dsn", "")
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spiffler33/Profiler-sub006/pkg/types"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := types.DefaultServiceConfig()
	if cfg.Service.CacheSize != want.CacheSize {
		t.Errorf("CacheSize = %d, want %d", cfg.Service.CacheSize, want.CacheSize)
	}
	if cfg.Service.BatchWorkers != want.BatchWorkers {
		t.Errorf("BatchWorkers = %d, want %d", cfg.Service.BatchWorkers, want.BatchWorkers)
	}
	if cfg.Service.GoalTimeout != want.GoalTimeout {
		t.Errorf("GoalTimeout = %v, want %v", cfg.Service.GoalTimeout, want.GoalTimeout)
	}

	sim := types.DefaultSimulationConfig()
	if cfg.Simulation.Iterations != sim.Iterations {
		t.Errorf("Iterations = %d, want %d", cfg.Simulation.Iterations, sim.Iterations)
	}
	if cfg.Simulation.InflationRate != sim.InflationRate {
		t.Errorf("InflationRate = %v, want %v", cfg.Simulation.InflationRate, sim.InflationRate)
	}
	for _, class := range types.AssetClasses {
		if cfg.Simulation.Returns[class] != sim.Returns[class] {
			t.Errorf("Returns[%s] = %+v, want %+v", class, cfg.Simulation.Returns[class], sim.Returns[class])
		}
	}
	if cfg.PostgresDSN != "" {
		t.Errorf("PostgresDSN = %q, want empty", cfg.PostgresDSN)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
cache:
  size: 42
batch:
  workers: 2
  goal_timeout: 5s
simulation:
  iterations: 500
  inflation_rate: 0.06
storage:
  postgres_dsn: postgres://localhost/goals
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Service.CacheSize != 42 {
		t.Errorf("CacheSize = %d, want 42", cfg.Service.CacheSize)
	}
	if cfg.Service.BatchWorkers != 2 {
		t.Errorf("BatchWorkers = %d, want 2", cfg.Service.BatchWorkers)
	}
	if cfg.Service.GoalTimeout != 5*time.Second {
		t.Errorf("GoalTimeout = %v, want 5s", cfg.Service.GoalTimeout)
	}
	if cfg.Simulation.Iterations != 500 {
		t.Errorf("Iterations = %d, want 500", cfg.Simulation.Iterations)
	}
	if cfg.Simulation.InflationRate != 0.06 {
		t.Errorf("InflationRate = %v, want 0.06", cfg.Simulation.InflationRate)
	}
	if cfg.PostgresDSN != "postgres://localhost/goals" {
		t.Errorf("PostgresDSN = %q", cfg.PostgresDSN)
	}

	// Keys the file does not set keep their defaults.
	sim := types.DefaultSimulationConfig()
	if cfg.Simulation.Returns[types.AssetClassEquity] != sim.Returns[types.AssetClassEquity] {
		t.Errorf("equity returns overridden unexpectedly: %+v", cfg.Simulation.Returns[types.AssetClassEquity])
	}
}

func TestLoadRejectsInvalidSimulation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
simulation:
  iterations: 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for iterations below minimum")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

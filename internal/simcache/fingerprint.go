// Package simcache provides the memoizing simulation result cache:
// deterministic fingerprinting of simulation inputs, a size-bounded
// LRU entry map with point and pattern invalidation, hit/miss
// statistics, and a single-flight guard so concurrent identical
// requests trigger exactly one simulation.
package simcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spiffler33/Profiler-sub006/pkg/types"
)

// Fingerprint derives the deterministic cache key for one simulation.
// It hashes every input that affects the outcome, including the
// current parameter version: when an assumption changes, new requests
// simply stop matching old entries and the stale ones age out of the
// LRU. The goal id prefixes the key so per-goal pattern invalidation
// works on otherwise opaque hashes.
func Fingerprint(inputs types.GoalInputs, cfg *types.SimulationConfig, paramVersion int64) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%.6f|%.6f|%.6f|%d|%.6f|%.6f|%.6f|%.6f|%d|%d|%.6f|%d",
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
		cfg.Seed,
		cfg.InflationRate,
		paramVersion,
	)
	for _, class := range types.AssetClasses {
		if model, ok := cfg.Returns[class]; ok {
			fmt.Fprintf(h, "|%s:%.6f:%.6f", class, model.Mean, model.Volatility)
		}
	}
	return inputs.GoalID + ":" + hex.EncodeToString(h.Sum(nil))
}

// GoalPattern returns the invalidation pattern matching every cache
// entry for one goal.
func GoalPattern(goalID string) string {
	return goalID + ":*"
}

// matchPattern reports whether key matches pattern. A trailing '*'
// matches any suffix; anything else is an exact key comparison.
func matchPattern(key, pattern string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(key, prefix)
	}
	return key == pattern
}

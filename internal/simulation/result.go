package simulation

import (
	"math"
)

// Percentile keys reported in distribution data.
var reportedPercentiles = []struct {
	key string
	p   float64
}{
	{"10", 0.10},
	{"25", 0.25},
	{"50", 0.50},
	{"75", 0.75},
	{"90", 0.90},
}

// ConfidenceInterval bounds the success probability estimate.
type ConfidenceInterval struct {
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// SuccessMetrics groups the probability outputs of a simulation.
type SuccessMetrics struct {
	SuccessProbability        float64            `json:"success_probability"`
	PartialSuccessProbability float64            `json:"partial_success_probability"`
	FailureProbability        float64            `json:"failure_probability"`
	ConfidenceInterval        ConfidenceInterval `json:"confidence_interval"`
}

// TimeBasedMetrics groups when-will-the-goal-be-met outputs.
type TimeBasedMetrics struct {
	YearsToGoal           float64 `json:"years_to_goal"`
	MedianAchievementTime float64 `json:"median_achievement_time"`
}

// DistributionData carries the reported percentiles of terminal value.
type DistributionData struct {
	Percentiles map[string]float64 `json:"percentiles"`
}

// RiskMetrics groups dispersion and downside outputs.
type RiskMetrics struct {
	Volatility    float64 `json:"volatility"`
	ShortfallRisk float64 `json:"shortfall_risk"`
}

// ProbabilityResult is the structured, immutable output of one goal
// probability simulation. It serializes to a stable nested map for
// caching and persistence; ToSerializable/FromSerializable round-trip
// field-for-field.
type ProbabilityResult struct {
	SuccessMetrics   SuccessMetrics   `json:"success_metrics"`
	TimeBasedMetrics TimeBasedMetrics `json:"time_based_metrics"`
	DistributionData DistributionData `json:"distribution_data"`
	RiskMetrics      RiskMetrics      `json:"risk_metrics"`
}

// Thresholds relative to the target amount used for the secondary
// success metrics.
const (
	partialSuccessFraction = 0.8
	shortfallFraction      = 0.5
)

// buildResult derives a ProbabilityResult from a finished distribution.
func buildResult(dist *OutcomeDistribution, targetAmount float64, horizonYears int) *ProbabilityResult {
	successProb := dist.SuccessProbability(targetAmount)
	n := dist.Size()

	// 95% normal-approximation interval on the success probability.
	interval := ConfidenceInterval{LowerBound: successProb, UpperBound: successProb}
	if n > 0 {
		margin := 1.96 * math.Sqrt(successProb*(1-successProb)/float64(n))
		interval.LowerBound = clamp01(successProb - margin)
		interval.UpperBound = clamp01(successProb + margin)
	}

	percentiles := make(map[string]float64, len(reportedPercentiles))
	for _, rp := range reportedPercentiles {
		percentiles[rp.key] = dist.Percentile(rp.p)
	}

	volatility := 0.0
	if mean := dist.Mean(); mean > 0 {
		volatility = dist.StdDev() / mean
	}

	// A negative median means no trial reached the target: report the
	// full horizon rather than an instant achievement. Month 0 stays a
	// real crossing, the goal was already funded at the start.
	medianMonths := dist.MedianAchievementMonths()
	yearsToGoal := float64(horizonYears)
	medianYears := 0.0
	if medianMonths >= 0 {
		medianYears = float64(medianMonths) / monthsPerYear
		yearsToGoal = medianYears
	}

	return &ProbabilityResult{
		SuccessMetrics: SuccessMetrics{
			SuccessProbability:        successProb,
			PartialSuccessProbability: dist.SuccessProbability(targetAmount * partialSuccessFraction),
			FailureProbability:        clamp01(1 - successProb),
			ConfidenceInterval:        interval,
		},
		TimeBasedMetrics: TimeBasedMetrics{
			YearsToGoal:           yearsToGoal,
			MedianAchievementTime: medianYears,
		},
		DistributionData: DistributionData{Percentiles: percentiles},
		RiskMetrics: RiskMetrics{
			Volatility:    volatility,
			ShortfallRisk: clamp01(1 - dist.SuccessProbability(targetAmount*shortfallFraction)),
		},
	}
}

// SafeSuccessProbability returns the success probability clamped to
// [0, 1], defaulting to 0 for a nil result or NaN data. This is the
// only sanctioned way external callers read the probability.
func (r *ProbabilityResult) SafeSuccessProbability() float64 {
	if r == nil {
		return 0
	}
	p := r.SuccessMetrics.SuccessProbability
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	return clamp01(p)
}

// ToSerializable renders the result as a nested map with stable field
// names. The legacy "time_metrics" key mirrors "time_based_metrics"
// for callers that still read the old name; that alias is the only
// sanctioned duplication in the shape.
func (r *ProbabilityResult) ToSerializable() map[string]interface{} {
	percentiles := make(map[string]interface{}, len(r.DistributionData.Percentiles))
	for k, v := range r.DistributionData.Percentiles {
		percentiles[k] = v
	}
	timeMetrics := map[string]interface{}{
		"years_to_goal":           r.TimeBasedMetrics.YearsToGoal,
		"median_achievement_time": r.TimeBasedMetrics.MedianAchievementTime,
	}
	return map[string]interface{}{
		"success_metrics": map[string]interface{}{
			"success_probability":         r.SuccessMetrics.SuccessProbability,
			"partial_success_probability": r.SuccessMetrics.PartialSuccessProbability,
			"failure_probability":         r.SuccessMetrics.FailureProbability,
			"confidence_interval": map[string]interface{}{
				"lower_bound": r.SuccessMetrics.ConfidenceInterval.LowerBound,
				"upper_bound": r.SuccessMetrics.ConfidenceInterval.UpperBound,
			},
		},
		"time_based_metrics": timeMetrics,
		"time_metrics":       timeMetrics,
		"distribution_data": map[string]interface{}{
			"percentiles": percentiles,
		},
		"risk_metrics": map[string]interface{}{
			"volatility":     r.RiskMetrics.Volatility,
			"shortfall_risk": r.RiskMetrics.ShortfallRisk,
		},
	}
}

// FromSerializable reconstructs a ProbabilityResult from the map shape
// produced by ToSerializable. Missing or mistyped fields default to
// zero values; the legacy "time_metrics" key is honored when
// "time_based_metrics" is absent.
func FromSerializable(data map[string]interface{}) *ProbabilityResult {
	r := &ProbabilityResult{
		DistributionData: DistributionData{Percentiles: map[string]float64{}},
	}
	if data == nil {
		return r
	}

	if sm := subMap(data, "success_metrics"); sm != nil {
		r.SuccessMetrics.SuccessProbability = floatField(sm, "success_probability")
		r.SuccessMetrics.PartialSuccessProbability = floatField(sm, "partial_success_probability")
		r.SuccessMetrics.FailureProbability = floatField(sm, "failure_probability")
		if ci := subMap(sm, "confidence_interval"); ci != nil {
			r.SuccessMetrics.ConfidenceInterval.LowerBound = floatField(ci, "lower_bound")
			r.SuccessMetrics.ConfidenceInterval.UpperBound = floatField(ci, "upper_bound")
		}
	}

	tm := subMap(data, "time_based_metrics")
	if tm == nil {
		tm = subMap(data, "time_metrics")
	}
	if tm != nil {
		r.TimeBasedMetrics.YearsToGoal = floatField(tm, "years_to_goal")
		r.TimeBasedMetrics.MedianAchievementTime = floatField(tm, "median_achievement_time")
	}

	if dd := subMap(data, "distribution_data"); dd != nil {
		if pct := subMap(dd, "percentiles"); pct != nil {
			for k := range pct {
				r.DistributionData.Percentiles[k] = floatField(pct, k)
			}
		}
	}

	if rm := subMap(data, "risk_metrics"); rm != nil {
		r.RiskMetrics.Volatility = floatField(rm, "volatility")
		r.RiskMetrics.ShortfallRisk = floatField(rm, "shortfall_risk")
	}

	return r
}

func subMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key]; ok {
		if sub, ok := v.(map[string]interface{}); ok {
			return sub
		}
	}
	return nil
}

func floatField(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Package simulation provides the Monte Carlo goal probability engine:
// trial generation, the outcome distribution with its derived
// statistics, and the structured probability result.
package simulation

import (
	"math"
	"sort"
	"sync"
)

// OutcomeDistribution wraps the terminal values of one simulation run
// and derives statistics from them. The raw sample is immutable after
// construction, so derived statistics are computed once and cached.
//
// Every reduction from the sample to a single number or boolean goes
// through a method on this type; callers never see the raw slice, so a
// trial array can never reach a comparison or branch un-reduced.
type OutcomeDistribution struct {
	outcomes       []float64
	crossingMonths []int // first month each trial met the target, -1 if never
	horizonMonths  int

	once   sync.Once
	sorted []float64
	mean   float64
	stddev float64
}

// NewOutcomeDistribution builds a distribution over terminal trial
// values. crossingMonths may be nil when per-period paths were not
// recorded; MedianAchievementMonths then reports -1.
func NewOutcomeDistribution(outcomes []float64, crossingMonths []int, horizonMonths int) *OutcomeDistribution {
	return &OutcomeDistribution{
		outcomes:       outcomes,
		crossingMonths: crossingMonths,
		horizonMonths:  horizonMonths,
	}
}

// Size returns the number of trials in the sample.
func (d *OutcomeDistribution) Size() int {
	return len(d.outcomes)
}

// compute sorts the sample and derives the moments exactly once.
func (d *OutcomeDistribution) compute() {
	d.once.Do(func() {
		if len(d.outcomes) == 0 {
			return
		}
		d.sorted = make([]float64, len(d.outcomes))
		copy(d.sorted, d.outcomes)
		sort.Float64s(d.sorted)

		sum := 0.0
		for _, v := range d.outcomes {
			sum += v
		}
		d.mean = sum / float64(len(d.outcomes))

		variance := 0.0
		for _, v := range d.outcomes {
			diff := v - d.mean
			variance += diff * diff
		}
		variance /= float64(len(d.outcomes))
		d.stddev = math.Sqrt(variance)
	})
}

// Mean returns the sample mean, 0 for an empty sample.
func (d *OutcomeDistribution) Mean() float64 {
	d.compute()
	return d.mean
}

// StdDev returns the population standard deviation, 0 for an empty
// sample.
func (d *OutcomeDistribution) StdDev() float64 {
	d.compute()
	return d.stddev
}

// Median returns the 50th percentile, 0 for an empty sample.
func (d *OutcomeDistribution) Median() float64 {
	return d.Percentile(0.5)
}

// Percentile returns the value at quantile p, using the floor of
// p*(n-1) as the rank: over ten samples p=0.5 selects the fifth value
// and p=0.9 the ninth. p is clamped to [0, 1]; an empty sample yields
// 0.
func (d *OutcomeDistribution) Percentile(p float64) float64 {
	d.compute()
	if len(d.sorted) == 0 {
		return 0
	}
	if math.IsNaN(p) || p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	idx := int(p * float64(len(d.sorted)-1))
	return d.sorted[idx]
}

// SuccessProbability returns the fraction of trials whose terminal
// value meets or exceeds threshold. Always in [0, 1]; 0 for an empty
// sample.
func (d *OutcomeDistribution) SuccessProbability(threshold float64) float64 {
	if len(d.outcomes) == 0 {
		return 0
	}
	return float64(d.CountAbove(threshold)) / float64(len(d.outcomes))
}

// CountAbove returns the number of trials at or above threshold.
func (d *OutcomeDistribution) CountAbove(threshold float64) int {
	count := 0
	for _, v := range d.outcomes {
		if v >= threshold {
			count++
		}
	}
	return count
}

// AnyAbove reports whether at least one trial reached threshold.
func (d *OutcomeDistribution) AnyAbove(threshold float64) bool {
	return d.CountAbove(threshold) > 0
}

// AllAbove reports whether every trial reached threshold. False for an
// empty sample.
func (d *OutcomeDistribution) AllAbove(threshold float64) bool {
	if len(d.outcomes) == 0 {
		return false
	}
	return d.CountAbove(threshold) == len(d.outcomes)
}

// ToScalar reduces the distribution to a single representative value,
// the sample mean.
func (d *OutcomeDistribution) ToScalar() float64 {
	return d.Mean()
}

// HistogramBin is one bucket of the terminal value histogram.
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram buckets the terminal values into equal-width bins.
// Returns nil for an empty sample or bins <= 0.
func (d *OutcomeDistribution) Histogram(bins int) []HistogramBin {
	d.compute()
	if len(d.sorted) == 0 || bins <= 0 {
		return nil
	}
	lo := d.sorted[0]
	hi := d.sorted[len(d.sorted)-1]
	width := (hi - lo) / float64(bins)
	if width == 0 {
		// Degenerate sample: everything lands in one bin.
		return []HistogramBin{{Lower: lo, Upper: hi, Count: len(d.sorted)}}
	}

	result := make([]HistogramBin, bins)
	for i := range result {
		result[i].Lower = lo + float64(i)*width
		result[i].Upper = lo + float64(i+1)*width
	}
	for _, v := range d.sorted {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		result[idx].Count++
	}
	return result
}

// MedianAchievementMonths returns the median first-crossing month over
// trials that reached the target within the horizon, or -1 when no
// trial did or crossing data was not recorded. Month 0 is a real
// crossing: the goal was already funded at the start of the trial.
func (d *OutcomeDistribution) MedianAchievementMonths() int {
	crossed := make([]int, 0, len(d.crossingMonths))
	for _, m := range d.crossingMonths {
		if m >= 0 {
			crossed = append(crossed, m)
		}
	}
	if len(crossed) == 0 {
		return -1
	}
	sort.Ints(crossed)
	return crossed[len(crossed)/2]
}

// HorizonMonths returns the simulated horizon in months.
func (d *OutcomeDistribution) HorizonMonths() int {
	return d.horizonMonths
}

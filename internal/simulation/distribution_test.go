package simulation

import (
	"testing"
)

func sampleDistribution() *OutcomeDistribution {
	outcomes := []float64{100, 200, 300, 400, 500, 600, 700, 800, 900, 1000}
	crossings := []int{-1, -1, 12, 24, 36, 48, 60, 72, 84, 96}
	return NewOutcomeDistribution(outcomes, crossings, 120)
}

func TestDistributionStatistics(t *testing.T) {
	dist := sampleDistribution()

	if got := dist.Mean(); got != 550 {
		t.Errorf("Mean = %f, want 550", got)
	}
	if got := dist.Median(); got != 500 {
		t.Errorf("Median = %f, want 500", got)
	}
	if got := dist.Percentile(0); got != 100 {
		t.Errorf("Percentile(0) = %f, want 100", got)
	}
	if got := dist.Percentile(1); got != 1000 {
		t.Errorf("Percentile(1) = %f, want 1000", got)
	}
	// Floor-rank convention: 0.9*(10-1) selects index 8 and
	// 0.25*(10-1) selects index 2.
	if got := dist.Percentile(0.9); got != 900 {
		t.Errorf("Percentile(0.9) = %f, want 900", got)
	}
	if got := dist.Percentile(0.25); got != 300 {
		t.Errorf("Percentile(0.25) = %f, want 300", got)
	}
}

func TestDistributionSuccessProbability(t *testing.T) {
	dist := sampleDistribution()

	if got := dist.SuccessProbability(600); got != 0.5 {
		t.Errorf("SuccessProbability(600) = %f, want 0.5", got)
	}
	if got := dist.SuccessProbability(0); got != 1.0 {
		t.Errorf("SuccessProbability(0) = %f, want 1.0", got)
	}
	if got := dist.SuccessProbability(2000); got != 0 {
		t.Errorf("SuccessProbability(2000) = %f, want 0", got)
	}
}

func TestDistributionReducers(t *testing.T) {
	dist := sampleDistribution()

	if !dist.AnyAbove(999) {
		t.Error("AnyAbove(999) should be true")
	}
	if dist.AnyAbove(1001) {
		t.Error("AnyAbove(1001) should be false")
	}
	if !dist.AllAbove(100) {
		t.Error("AllAbove(100) should be true")
	}
	if dist.AllAbove(101) {
		t.Error("AllAbove(101) should be false")
	}
	if got := dist.ToScalar(); got != dist.Mean() {
		t.Errorf("ToScalar = %f, want mean %f", got, dist.Mean())
	}
}

func TestEmptyDistributionReturnsZeros(t *testing.T) {
	dist := NewOutcomeDistribution(nil, nil, 0)

	if got := dist.Mean(); got != 0 {
		t.Errorf("Mean of empty sample = %f, want 0", got)
	}
	if got := dist.Median(); got != 0 {
		t.Errorf("Median of empty sample = %f, want 0", got)
	}
	if got := dist.Percentile(0.5); got != 0 {
		t.Errorf("Percentile of empty sample = %f, want 0", got)
	}
	if got := dist.SuccessProbability(100); got != 0 {
		t.Errorf("SuccessProbability of empty sample = %f, want 0", got)
	}
	if dist.AnyAbove(0) {
		t.Error("AnyAbove on empty sample should be false")
	}
	if dist.AllAbove(0) {
		t.Error("AllAbove on empty sample should be false")
	}
	if dist.Histogram(10) != nil {
		t.Error("Histogram of empty sample should be nil")
	}
}

func TestDistributionPercentileClampsInput(t *testing.T) {
	dist := sampleDistribution()

	if got := dist.Percentile(-0.5); got != 100 {
		t.Errorf("Percentile(-0.5) = %f, want 100", got)
	}
	if got := dist.Percentile(1.5); got != 1000 {
		t.Errorf("Percentile(1.5) = %f, want 1000", got)
	}
}

func TestDistributionHistogram(t *testing.T) {
	dist := sampleDistribution()

	bins := dist.Histogram(3)
	if len(bins) != 3 {
		t.Fatalf("Histogram bins = %d, want 3", len(bins))
	}

	total := 0
	for _, b := range bins {
		total += b.Count
	}
	if total != dist.Size() {
		t.Errorf("Histogram total count = %d, want %d", total, dist.Size())
	}
}

func TestMedianAchievementMonths(t *testing.T) {
	dist := sampleDistribution()

	// Crossing months among the 8 trials that crossed: 12..96; the
	// index-4 element of the sorted slice is 60.
	if got := dist.MedianAchievementMonths(); got != 60 {
		t.Errorf("MedianAchievementMonths = %d, want 60", got)
	}

	never := NewOutcomeDistribution([]float64{1, 2}, []int{-1, -1}, 12)
	if got := never.MedianAchievementMonths(); got != -1 {
		t.Errorf("MedianAchievementMonths with no crossings = %d, want -1", got)
	}

	// Month 0 is a real crossing, not the "never crossed" sentinel.
	funded := NewOutcomeDistribution([]float64{1200, 1300}, []int{0, 0}, 12)
	if got := funded.MedianAchievementMonths(); got != 0 {
		t.Errorf("MedianAchievementMonths for already funded trials = %d, want 0", got)
	}
}

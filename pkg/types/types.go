// Package types provides shared type definitions for the goal
// probability engine.
package types

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// AssetClass identifies one of the investable asset buckets a goal's
// portfolio is allocated across.
type AssetClass string

const (
	AssetClassEquity AssetClass = "equity"
	AssetClassDebt   AssetClass = "debt"
	AssetClassGold   AssetClass = "gold"
	AssetClassCash   AssetClass = "cash"
)

// AssetClasses lists all supported asset classes in canonical order.
var AssetClasses = []AssetClass{
	AssetClassEquity,
	AssetClassDebt,
	AssetClassGold,
	AssetClassCash,
}

// GoalCategory classifies what a goal is saving toward.
type GoalCategory string

const (
	GoalCategoryRetirement GoalCategory = "retirement"
	GoalCategoryEducation  GoalCategory = "education"
	GoalCategoryHome       GoalCategory = "home_purchase"
	GoalCategoryEmergency  GoalCategory = "emergency_fund"
	GoalCategoryCustom     GoalCategory = "custom"
)

// AssetAllocation holds portfolio weights per asset class.
// Weights are non-negative and sum to 1.0 within AllocationEpsilon.
type AssetAllocation struct {
	Equity float64 `json:"equity"`
	Debt   float64 `json:"debt"`
	Gold   float64 `json:"gold"`
	Cash   float64 `json:"cash"`
}

// AllocationEpsilon is the tolerance for allocation weights summing to 1.
const AllocationEpsilon = 1e-6

// Weight returns the weight for a single asset class.
func (a AssetAllocation) Weight(class AssetClass) float64 {
	switch class {
	case AssetClassEquity:
		return a.Equity
	case AssetClassDebt:
		return a.Debt
	case AssetClassGold:
		return a.Gold
	case AssetClassCash:
		return a.Cash
	default:
		return 0
	}
}

// Sum returns the total of all allocation weights.
func (a AssetAllocation) Sum() float64 {
	return a.Equity + a.Debt + a.Gold + a.Cash
}

// Validate checks that weights are non-negative and sum to 1.0.
func (a AssetAllocation) Validate() error {
	for _, class := range AssetClasses {
		if w := a.Weight(class); w < 0 || math.IsNaN(w) {
			return &ValidationError{
				Field:   "asset_allocation." + string(class),
				Message: "allocation weight must be non-negative",
			}
		}
	}
	if math.Abs(a.Sum()-1.0) > AllocationEpsilon {
		return &ValidationError{
			Field:   "asset_allocation",
			Message: "allocation weights must sum to 1.0",
		}
	}
	return nil
}

// Goal is the external goal record the engine reads inputs from and
// persists probability results onto. Only the probability-owned fields
// (GoalProbability, ProbabilityResult, ProbabilityCalculatedAt) are
// ever written by this engine.
type Goal struct {
	ID                  string          `json:"id"`
	ProfileID           string          `json:"profileId"`
	Category            GoalCategory    `json:"category"`
	Title               string          `json:"title"`
	TargetAmount        decimal.Decimal `json:"targetAmount"`
	CurrentAmount       decimal.Decimal `json:"currentAmount"`
	MonthlyContribution decimal.Decimal `json:"monthlyContribution"`
	HorizonYears        int             `json:"horizonYears"`
	Allocation          AssetAllocation `json:"allocation"`

	// Probability fields owned by the goal probability service.
	GoalProbability         float64                `json:"goalProbability"`
	ProbabilityResult       map[string]interface{} `json:"probabilityResult,omitempty"`
	ProbabilityCalculatedAt time.Time              `json:"probabilityCalculatedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Inputs extracts the simulation-relevant slice of the goal record.
func (g *Goal) Inputs() GoalInputs {
	target, _ := g.TargetAmount.Float64()
	current, _ := g.CurrentAmount.Float64()
	contribution, _ := g.MonthlyContribution.Float64()
	return GoalInputs{
		GoalID:              g.ID,
		TargetAmount:        target,
		CurrentAmount:       current,
		MonthlyContribution: contribution,
		HorizonYears:        g.HorizonYears,
		Allocation:          g.Allocation,
	}
}

// GoalInputs carries everything the simulation needs about one goal.
type GoalInputs struct {
	GoalID              string          `json:"goalId"`
	TargetAmount        float64         `json:"targetAmount"`
	CurrentAmount       float64         `json:"currentAmount"`
	MonthlyContribution float64         `json:"monthlyContribution"`
	HorizonYears        int             `json:"horizonYears"`
	Allocation          AssetAllocation `json:"allocation"`
}

// Validate rejects inputs the engine cannot simulate.
func (gi GoalInputs) Validate() error {
	if gi.HorizonYears <= 0 {
		return &ValidationError{Field: "horizon_years", Message: "horizon must be positive"}
	}
	if gi.TargetAmount < 0 || math.IsNaN(gi.TargetAmount) {
		return &ValidationError{Field: "target_amount", Message: "target amount must be non-negative"}
	}
	if gi.CurrentAmount < 0 || math.IsNaN(gi.CurrentAmount) {
		return &ValidationError{Field: "current_amount", Message: "current amount must be non-negative"}
	}
	if gi.MonthlyContribution < 0 || math.IsNaN(gi.MonthlyContribution) {
		return &ValidationError{Field: "monthly_contribution", Message: "contribution must be non-negative"}
	}
	return gi.Allocation.Validate()
}

// Profile is a read-only bag of financial facts passed through from
// the profiling layer. The engine defaults missing values and never
// mutates it.
type Profile struct {
	ID             string  `json:"id"`
	MonthlyIncome  float64 `json:"monthlyIncome"`
	MonthlyExpense float64 `json:"monthlyExpense"`
	RiskProfile    string  `json:"riskProfile"` // conservative, moderate, aggressive
}

// MonthlySurplus returns income minus expenses, floored at 0.
func (p Profile) MonthlySurplus() float64 {
	surplus := p.MonthlyIncome - p.MonthlyExpense
	if surplus < 0 || math.IsNaN(surplus) {
		return 0
	}
	return surplus
}

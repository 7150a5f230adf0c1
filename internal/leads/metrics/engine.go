// Package metrics derives the cost, savings and performance figures that
// drive the funnel's branching. Everything here is pure computation.
package metrics

import "math"

// Inputs are the raw calculator values. They are coerced, never rejected:
// a malformed client value arrives as NaN/Inf/negative and is treated as 0.
type Inputs struct {
	AdSpend       float64
	MarketingFees float64
	LeadsCount    float64
}

// Metrics are the derived figures. Integer fields are rounded for display
// and storage; CpqlReductionPercent keeps one decimal place.
type Metrics struct {
	CurrentMonthlySpend  int64
	CurrentCpql          int64
	GuaranteedCpql       int64
	NewMonthlySpend      int64
	MonthlySavings       int64
	AnnualSavings        int64
	SameBudgetLeads      int64
	LeadsCount           int64
	CpqlReductionPercent float64

	// Unrounded values used for classification.
	rawTotalSpend  float64
	rawCurrentCpql float64
	rawLeadsCount  float64
	rawAdSpend     float64
}

// Performance buckets a prospect by how their current CPQL relates to the target.
type Performance string

const (
	// PerformanceOptimal means the current CPQL already meets or beats the target.
	PerformanceOptimal Performance = "optimal"
	// PerformanceBelowMinimum means the ad spend is under the viable floor.
	PerformanceBelowMinimum Performance = "below_minimum_budget"
	// PerformanceStandard is everything else.
	PerformanceStandard Performance = "standard"
)

// Projection is the value range shown to standard performers.
type Projection struct {
	LeadsLow             int64
	LeadsHigh            int64
	CpqlReductionLowPct  float64
	CpqlReductionHighPct float64
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func roundInt(v float64) int64 {
	return int64(math.Round(v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Compute derives all metrics from raw calculator inputs and the target CPQL.
// Division by zero is guarded, not an error: currentCpql is 0 when no leads
// are generated, and cpqlReductionPercent is 0 whenever currentCpql is 0.
func Compute(in Inputs, targetCpql float64) Metrics {
	adSpend := sanitize(in.AdSpend)
	fees := sanitize(in.MarketingFees)
	leads := sanitize(in.LeadsCount)
	target := sanitize(targetCpql)

	total := adSpend + fees

	var currentCpql float64
	if leads > 0 {
		currentCpql = total / leads
	}

	newSpend := target * leads
	monthlySavings := total - newSpend

	var sameBudgetLeads float64
	if target > 0 {
		sameBudgetLeads = total / target
	}

	var reduction float64
	if currentCpql > 0 {
		reduction = (currentCpql - target) / currentCpql * 100
	}

	return Metrics{
		CurrentMonthlySpend:  roundInt(total),
		CurrentCpql:          roundInt(currentCpql),
		GuaranteedCpql:       roundInt(target),
		NewMonthlySpend:      roundInt(newSpend),
		MonthlySavings:       roundInt(monthlySavings),
		AnnualSavings:        roundInt(monthlySavings * 12),
		SameBudgetLeads:      roundInt(sameBudgetLeads),
		LeadsCount:           roundInt(leads),
		CpqlReductionPercent: round1(reduction),

		rawTotalSpend:  total,
		rawCurrentCpql: currentCpql,
		rawLeadsCount:  leads,
		rawAdSpend:     adSpend,
	}
}

// Engine classifies computed metrics against configured budget floors.
type Engine struct {
	minimumAdBudget    float64
	managementFeeFloor float64
}

// NewEngine creates a classification engine.
func NewEngine(minimumAdBudget, managementFeeFloor float64) *Engine {
	return &Engine{
		minimumAdBudget:    minimumAdBudget,
		managementFeeFloor: managementFeeFloor,
	}
}

// Classify buckets the prospect and, for standard performers, computes the
// projected lead-count and CPQL-reduction ranges.
//
// The projected band assumes the achieved CPQL lands between 0.8x and 1.2x
// of the target. When that band fails to clear the current lead count, it is
// replaced by one anchored at 1.1x-1.8x of the current count so the
// projection always promises more leads than the prospect has today.
func (e *Engine) Classify(m Metrics, targetCpql float64) (Performance, *Projection) {
	target := sanitize(targetCpql)

	if m.rawCurrentCpql > 0 && m.rawCurrentCpql <= target {
		return PerformanceOptimal, nil
	}

	if m.rawAdSpend < e.minimumAdBudget {
		minimumLeads := 0.0
		if target > 0 {
			minimumLeads = (e.minimumAdBudget + e.managementFeeFloor) / target
		}
		if m.rawLeadsCount <= minimumLeads {
			return PerformanceBelowMinimum, nil
		}
	}

	return PerformanceStandard, e.project(m, target)
}

func (e *Engine) project(m Metrics, target float64) *Projection {
	if target <= 0 {
		return &Projection{}
	}

	leadsLow := m.rawTotalSpend / (1.2 * target)
	leadsHigh := m.rawTotalSpend / (0.8 * target)

	if leadsLow <= m.rawLeadsCount {
		leadsLow = 1.1 * m.rawLeadsCount
		leadsHigh = 1.8 * m.rawLeadsCount
	}

	var reductionLow, reductionHigh float64
	if m.rawCurrentCpql > 0 {
		reductionLow = (m.rawCurrentCpql - 1.2*target) / m.rawCurrentCpql * 100
		reductionHigh = (m.rawCurrentCpql - 0.8*target) / m.rawCurrentCpql * 100
		if reductionLow < 0 {
			reductionLow = 0
		}
		if reductionHigh < 0 {
			reductionHigh = 0
		}
	}

	return &Projection{
		LeadsLow:             roundInt(leadsLow),
		LeadsHigh:            roundInt(leadsHigh),
		CpqlReductionLowPct:  round1(reductionLow),
		CpqlReductionHighPct: round1(reductionHigh),
	}
}

package metrics

import (
	"math"
	"testing"
)

func TestComputeZeroLeadsGuardsDivision(t *testing.T) {
	m := Compute(Inputs{AdSpend: 5000, MarketingFees: 500, LeadsCount: 0}, 700)

	if m.CurrentCpql != 0 {
		t.Errorf("currentCpql = %d, want 0 when leadsCount is 0", m.CurrentCpql)
	}
	if m.CpqlReductionPercent != 0 {
		t.Errorf("cpqlReductionPercent = %v, want 0 when currentCpql is 0", m.CpqlReductionPercent)
	}
	if m.CurrentMonthlySpend != 5500 {
		t.Errorf("currentMonthlySpend = %d, want 5500", m.CurrentMonthlySpend)
	}
}

func TestComputeExactDerivations(t *testing.T) {
	tests := []struct {
		adSpend, fees, leads, target float64
	}{
		{0, 0, 0, 0},
		{1000, 200, 4, 700},
		{9999, 1, 7, 350},
		{250, 750, 1, 700},
	}

	for _, tc := range tests {
		m := Compute(Inputs{AdSpend: tc.adSpend, MarketingFees: tc.fees, LeadsCount: tc.leads}, tc.target)

		wantNew := int64(math.Round(tc.target * tc.leads))
		if m.NewMonthlySpend != wantNew {
			t.Errorf("newMonthlySpend = %d, want %d", m.NewMonthlySpend, wantNew)
		}
		wantSavings := int64(math.Round(tc.adSpend + tc.fees - tc.target*tc.leads))
		if m.MonthlySavings != wantSavings {
			t.Errorf("monthlySavings = %d, want %d", m.MonthlySavings, wantSavings)
		}
		if m.AnnualSavings != int64(math.Round((tc.adSpend+tc.fees-tc.target*tc.leads)*12)) {
			t.Errorf("annualSavings = %d inconsistent with monthly", m.AnnualSavings)
		}
	}
}

func TestComputeNegativeSavingsAllowed(t *testing.T) {
	m := Compute(Inputs{AdSpend: 100, LeadsCount: 5}, 700)
	if m.MonthlySavings != -3400 {
		t.Errorf("monthlySavings = %d, want -3400", m.MonthlySavings)
	}
	if m.AnnualSavings != -40800 {
		t.Errorf("annualSavings = %d, want -40800", m.AnnualSavings)
	}
}

func TestComputeCoercesMalformedInputs(t *testing.T) {
	m := Compute(Inputs{
		AdSpend:       math.NaN(),
		MarketingFees: math.Inf(1),
		LeadsCount:    -3,
	}, 700)

	if m.CurrentMonthlySpend != 0 || m.LeadsCount != 0 || m.CurrentCpql != 0 {
		t.Errorf("malformed inputs not coerced to 0: %+v", m)
	}
}

func TestClassifyOptimalPerformer(t *testing.T) {
	engine := NewEngine(5000, 2000)
	m := Compute(Inputs{AdSpend: 200, MarketingFees: 0, LeadsCount: 1}, 700)

	if m.CurrentCpql != 200 {
		t.Fatalf("currentCpql = %d, want 200", m.CurrentCpql)
	}

	perf, proj := engine.Classify(m, 700)
	if perf != PerformanceOptimal {
		t.Errorf("performance = %q, want optimal", perf)
	}
	if proj != nil {
		t.Error("optimal performers get no projection")
	}
}

func TestClassifyStandardPerformer(t *testing.T) {
	engine := NewEngine(5000, 2000)
	m := Compute(Inputs{AdSpend: 7000, MarketingFees: 1500, LeadsCount: 5}, 700)

	if m.CurrentMonthlySpend != 8500 {
		t.Errorf("currentMonthlySpend = %d, want 8500", m.CurrentMonthlySpend)
	}
	if m.CurrentCpql != 1700 {
		t.Errorf("currentCpql = %d, want 1700", m.CurrentCpql)
	}
	if m.NewMonthlySpend != 3500 {
		t.Errorf("newMonthlySpend = %d, want 3500", m.NewMonthlySpend)
	}
	if m.MonthlySavings != 5000 {
		t.Errorf("monthlySavings = %d, want 5000", m.MonthlySavings)
	}
	if m.AnnualSavings != 60000 {
		t.Errorf("annualSavings = %d, want 60000", m.AnnualSavings)
	}
	if m.CpqlReductionPercent != 58.8 {
		t.Errorf("cpqlReductionPercent = %v, want 58.8", m.CpqlReductionPercent)
	}

	perf, proj := engine.Classify(m, 700)
	if perf != PerformanceStandard {
		t.Fatalf("performance = %q, want standard", perf)
	}
	if proj == nil {
		t.Fatal("standard performers must get a projection")
	}
	if proj.LeadsLow != 10 || proj.LeadsHigh != 15 {
		t.Errorf("projected leads = %d-%d, want 10-15", proj.LeadsLow, proj.LeadsHigh)
	}
	if proj.LeadsLow <= m.LeadsCount {
		t.Errorf("projected low %d must exceed current lead count %d", proj.LeadsLow, m.LeadsCount)
	}
	if proj.CpqlReductionLowPct != 50.6 || proj.CpqlReductionHighPct != 67.1 {
		t.Errorf("projected reduction = %v-%v, want 50.6-67.1",
			proj.CpqlReductionLowPct, proj.CpqlReductionHighPct)
	}
}

func TestClassifyBelowMinimumBudget(t *testing.T) {
	engine := NewEngine(5000, 2000)

	// Under the ad-budget floor and not out-generating the minimum budget.
	m := Compute(Inputs{AdSpend: 1000, LeadsCount: 2}, 700)
	perf, _ := engine.Classify(m, 700)
	if perf != PerformanceBelowMinimum {
		t.Errorf("performance = %q, want below_minimum_budget", perf)
	}

	// Under the floor but already generating more leads than the minimum
	// budget would project: standard, not below-minimum.
	m = Compute(Inputs{AdSpend: 1000, LeadsCount: 20}, 700)
	perf, _ = engine.Classify(m, 700)
	if perf != PerformanceStandard {
		t.Errorf("performance = %q, want standard", perf)
	}
}

func TestProjectionAnchoredWhenBandTooLow(t *testing.T) {
	engine := NewEngine(5000, 2000)

	// currentCpql 773 barely above target: the naive band does not clear the
	// current count, so the range re-anchors at 1.1x-1.8x.
	m := Compute(Inputs{AdSpend: 8500, LeadsCount: 11}, 700)
	perf, proj := engine.Classify(m, 700)
	if perf != PerformanceStandard {
		t.Fatalf("performance = %q, want standard", perf)
	}
	if proj.LeadsLow != 12 || proj.LeadsHigh != 20 {
		t.Errorf("anchored range = %d-%d, want 12-20", proj.LeadsLow, proj.LeadsHigh)
	}
	if proj.LeadsLow <= m.LeadsCount {
		t.Errorf("projected low %d must exceed current count %d", proj.LeadsLow, m.LeadsCount)
	}
}

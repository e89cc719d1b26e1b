package simulator

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary holds descriptive statistics over the solved trips of one batch.
// Excluded counts the pairs the routing oracle could not solve plus the
// degenerate and zero-length trips.
type Summary struct {
	Solved   int
	Excluded int

	MeanEfficiency float64
	StdEfficiency  float64
	MinEfficiency  float64
	Q1Efficiency   float64
	MedEfficiency  float64
	Q3Efficiency   float64
	MaxEfficiency  float64
}

// Summarize aggregates a batch. Unsolved results are excluded from the
// efficiency population but reported through Excluded.
func Summarize(results []TripResult) Summary {
	summary := Summary{}
	efficiencies := make([]float64, 0, len(results))
	for _, res := range results {
		if !res.Solved {
			summary.Excluded++
			continue
		}
		summary.Solved++
		efficiencies = append(efficiencies, res.Efficiency)
	}
	if len(efficiencies) == 0 {
		return summary
	}

	sort.Float64s(efficiencies)
	summary.MeanEfficiency = stat.Mean(efficiencies, nil)
	summary.StdEfficiency = stat.StdDev(efficiencies, nil)
	summary.MinEfficiency = efficiencies[0]
	summary.Q1Efficiency = stat.Quantile(0.25, stat.Empirical, efficiencies, nil)
	summary.MedEfficiency = stat.Quantile(0.5, stat.Empirical, efficiencies, nil)
	summary.Q3Efficiency = stat.Quantile(0.75, stat.Empirical, efficiencies, nil)
	summary.MaxEfficiency = efficiencies[len(efficiencies)-1]
	return summary
}

// Comparison reports how much a perturbation degraded the network. The
// Defined flags guard the zero-denominator cases (nothing solved before, or
// zero mean efficiency before).
type Comparison struct {
	FractionUnsolvable        float64
	FractionUnsolvableDefined bool

	EfficiencyDegradation        float64
	EfficiencyDegradationDefined bool
}

// Compare derives 1 - solvedAfter/solvedBefore and
// 1 - meanEffAfter/meanEffBefore from two summaries over the same OD set.
func Compare(before, after Summary) Comparison {
	cmp := Comparison{}
	if before.Solved > 0 {
		cmp.FractionUnsolvable = 1 - float64(after.Solved)/float64(before.Solved)
		cmp.FractionUnsolvableDefined = true
	}
	if before.MeanEfficiency > 0 {
		cmp.EfficiencyDegradation = 1 - after.MeanEfficiency/before.MeanEfficiency
		cmp.EfficiencyDegradationDefined = true
	}
	return cmp
}

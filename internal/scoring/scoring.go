// Package scoring turns per-criterion rubric ratings into weighted metrics.
package scoring

import (
	"fmt"
	"math"
	"sort"
)

// WeightTable maps a rubric criterion to its weight.
type WeightTable map[string]float64

// CVWeights weights the CV rubric criteria.
var CVWeights = WeightTable{
	"technical_skills":      0.40,
	"experience_level":      0.25,
	"relevant_achievements": 0.20,
	"cultural_fit":          0.15,
}

// ProjectWeights weights the project report rubric criteria.
var ProjectWeights = WeightTable{
	"correctness":   0.30,
	"code_quality":  0.25,
	"resilience":    0.20,
	"documentation": 0.15,
	"creativity":    0.10,
}

// MatchRateFactor maps the 1-5 CV scale onto [0,1].
const MatchRateFactor = 0.2

// Sum returns the total weight.
func (w WeightTable) Sum() float64 {
	var total float64
	for _, weight := range w {
		total += weight
	}
	return total
}

// Validate rejects negative weights.
func (w WeightTable) Validate() error {
	keys := make([]string, 0, len(w))
	for k := range w {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if w[k] < 0 || math.IsNaN(w[k]) {
			return fmt.Errorf("weight for %q must be non-negative, got %v", k, w[k])
		}
	}
	return nil
}

// WeightedAverage sums weight*score over the criteria in weights and divides
// by the weight total. Criteria missing from scores count as zero. A zero
// weight total yields 0.
func WeightedAverage(scores map[string]float64, weights WeightTable) float64 {
	total := weights.Sum()
	if total == 0 {
		return 0.0
	}
	var weighted float64
	for criterion, weight := range weights {
		weighted += scores[criterion] * weight
	}
	return weighted / total
}

// MatchRate converts a 1-5 weighted average into a [0,1] match rate rounded
// to two decimals.
func MatchRate(avg float64) float64 {
	return Round2(avg * MatchRateFactor)
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

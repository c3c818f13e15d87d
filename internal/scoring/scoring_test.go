package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightedAverage(t *testing.T) {
	tests := []struct {
		name    string
		scores  map[string]float64
		weights WeightTable
		want    float64
	}{
		{
			name:    "missing criterion counts as zero",
			scores:  map[string]float64{"a": 4},
			weights: WeightTable{"a": 0.5, "b": 0.5},
			want:    2.0,
		},
		{
			name:    "zero weight sum",
			scores:  map[string]float64{"a": 5},
			weights: WeightTable{"a": 0, "b": 0},
			want:    0.0,
		},
		{
			name:    "empty table",
			scores:  map[string]float64{"a": 5},
			weights: WeightTable{},
			want:    0.0,
		},
		{
			name:    "weights not summing to one are normalized",
			scores:  map[string]float64{"a": 5, "b": 1},
			weights: WeightTable{"a": 3, "b": 1},
			want:    4.0,
		},
		{
			name:    "criteria outside the table are ignored",
			scores:  map[string]float64{"a": 3, "extra": 5},
			weights: WeightTable{"a": 1},
			want:    3.0,
		},
		{
			name: "cv example",
			scores: map[string]float64{
				"technical_skills":      4,
				"experience_level":      5,
				"relevant_achievements": 3,
				"cultural_fit":          4,
			},
			weights: CVWeights,
			want:    4.05,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, WeightedAverage(tt.scores, tt.weights), 1e-9)
		})
	}
}

func TestWeightedAverage_StaysWithinScale(t *testing.T) {
	for _, table := range []WeightTable{CVWeights, ProjectWeights} {
		low := map[string]float64{}
		high := map[string]float64{}
		for k := range table {
			low[k] = 1
			high[k] = 5
		}
		assert.InDelta(t, 1.0, WeightedAverage(low, table), 1e-9)
		assert.InDelta(t, 5.0, WeightedAverage(high, table), 1e-9)
		assert.InDelta(t, 0.0, WeightedAverage(nil, table), 1e-9)
	}
}

func TestMatchRate(t *testing.T) {
	assert.Equal(t, 0.81, MatchRate(4.05))
	assert.Equal(t, 1.0, MatchRate(5))
	assert.Equal(t, 0.2, MatchRate(1))
	assert.Equal(t, 0.0, MatchRate(0))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 3.46, Round2(3.456))
	assert.Equal(t, 3.45, Round2(3.454))
	assert.Equal(t, 4.0, Round2(3.999))
}

func TestWeightTablesSumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, CVWeights.Sum(), 1e-9)
	assert.InDelta(t, 1.0, ProjectWeights.Sum(), 1e-9)
}

func TestWeightTableValidate(t *testing.T) {
	require.NoError(t, CVWeights.Validate())
	require.NoError(t, ProjectWeights.Validate())

	err := WeightTable{"a": 0.5, "b": -0.1}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"b"`)
}

package llmservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cvJSON = `{"technical_skills": 4, "experience_level": 5, "relevant_achievements": 3, "cultural_fit": 4, "cv_feedback": "Strong backend"}`

func TestParseJSON_FencesAndThinkBlocks(t *testing.T) {
	want, err := ParseJSON(cvJSON)
	require.NoError(t, err)

	inputs := map[string]string{
		"json fence":   "```json\n" + cvJSON + "\n```",
		"bare fence":   "```\n" + cvJSON + "\n```",
		"think block":  "<think>\nweighing the CV\n</think>\n" + cvJSON,
		"chatty reply": "Here is the evaluation:\n" + cvJSON + "\nHope this helps.",
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			got, err := ParseJSON(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseJSON_Invalid(t *testing.T) {
	for _, in := range []string{"", "not json at all", "{broken", "[1, 2]", "null"} {
		_, err := ParseJSON(in)
		require.Error(t, err, in)
		assert.ErrorIs(t, err, ErrMalformedModelOutput, in)

		var merr *MalformedOutputError
		assert.ErrorAs(t, err, &merr)
	}
}

func TestDecodeCVScores(t *testing.T) {
	s, err := DecodeCVScores("```json\n" + cvJSON + "\n```")
	require.NoError(t, err)
	assert.Equal(t, 4.0, s.TechnicalSkills)
	assert.Equal(t, 5.0, s.ExperienceLevel)
	assert.Equal(t, 3.0, s.RelevantAchievements)
	assert.Equal(t, 4.0, s.CulturalFit)
	assert.Equal(t, "Strong backend", s.Feedback)
}

func TestDecodeScores_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "missing criterion",
			raw:  `{"technical_skills": 4, "experience_level": 5, "relevant_achievements": 3, "cv_feedback": "x"}`,
		},
		{
			name: "unknown key",
			raw:  `{"technical_skills": 4, "experience_level": 5, "relevant_achievements": 3, "cultural_fit": 4, "cv_feedback": "x", "leadership": 5}`,
		},
		{
			name: "out of range",
			raw:  `{"technical_skills": 7, "experience_level": 5, "relevant_achievements": 3, "cultural_fit": 4, "cv_feedback": "x"}`,
		},
		{
			name: "score as string",
			raw:  `{"technical_skills": "four", "experience_level": 5, "relevant_achievements": 3, "cultural_fit": 4, "cv_feedback": "x"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCVScores(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedModelOutput)
		})
	}
}

func TestDecodeProjectScores(t *testing.T) {
	raw := `{"correctness": 5, "code_quality": 4, "resilience": 3, "documentation": 5, "creativity": 2, "project_feedback": "Solid chaining"}`
	s, err := DecodeProjectScores(raw)
	require.NoError(t, err)
	assert.Equal(t, 5.0, s.Correctness)
	assert.Equal(t, 2.0, s.Creativity)
	assert.Equal(t, "Solid chaining", s.Feedback)

	// the CV schema does not accept project keys
	_, err = DecodeCVScores(raw)
	assert.ErrorIs(t, err, ErrMalformedModelOutput)
}

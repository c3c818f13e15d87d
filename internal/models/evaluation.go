package models

import "time"

// EvaluationResult is the final output of one evaluation run.
type EvaluationResult struct {
	CVMatchRate     float64 `json:"cv_match_rate"`
	CVFeedback      string  `json:"cv_feedback"`
	ProjectScore    float64 `json:"project_score"`
	ProjectFeedback string  `json:"project_feedback"`
	OverallSummary  string  `json:"overall_summary"`
}

// CVScores is the model's per-criterion rating of a CV on the 1-5 scale.
type CVScores struct {
	TechnicalSkills      float64 `json:"technical_skills"`
	ExperienceLevel      float64 `json:"experience_level"`
	RelevantAchievements float64 `json:"relevant_achievements"`
	CulturalFit          float64 `json:"cultural_fit"`
	Feedback             string  `json:"cv_feedback"`
}

// Criteria returns the ratings keyed by criterion name.
func (s CVScores) Criteria() map[string]float64 {
	return map[string]float64{
		"technical_skills":      s.TechnicalSkills,
		"experience_level":      s.ExperienceLevel,
		"relevant_achievements": s.RelevantAchievements,
		"cultural_fit":          s.CulturalFit,
	}
}

// ProjectScores is the model's per-criterion rating of a project report on the 1-5 scale.
type ProjectScores struct {
	Correctness   float64 `json:"correctness"`
	CodeQuality   float64 `json:"code_quality"`
	Resilience    float64 `json:"resilience"`
	Documentation float64 `json:"documentation"`
	Creativity    float64 `json:"creativity"`
	Feedback      string  `json:"project_feedback"`
}

// Criteria returns the ratings keyed by criterion name.
func (s ProjectScores) Criteria() map[string]float64 {
	return map[string]float64{
		"correctness":   s.Correctness,
		"code_quality":  s.CodeQuality,
		"resilience":    s.Resilience,
		"documentation": s.Documentation,
		"creativity":    s.Creativity,
	}
}

// Job tracks one asynchronous evaluation request.
type Job struct {
	ID        string            `json:"id"`
	Status    JobStatus         `json:"status"`
	JobTitle  string            `json:"job_title,omitempty"`
	CVID      string            `json:"cv_id,omitempty"`
	ReportID  string            `json:"report_id,omitempty"`
	Result    *EvaluationResult `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

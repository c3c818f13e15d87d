// Package rag runs the retrieval-augmented evaluation of one candidate.
package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"candidate-screening/internal/config"
	"candidate-screening/internal/llmservice"
	"candidate-screening/internal/models"
	"candidate-screening/internal/scoring"
)

// Knowledge answers filtered similarity queries. Query never fails; it
// returns models.NoContextSentinel instead.
type Knowledge interface {
	Query(ctx context.Context, text, docType string, k int) string
	CountByDocType(ctx context.Context, docType string) (int, error)
}

// Generator turns a prompt into model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Evaluation stages reported in EvaluationError.
const (
	StageCVEvaluation      = "cv_evaluation"
	StageProjectEvaluation = "project_evaluation"
	StageSummary           = "summary"
)

// fixed retrieval probes for the rubric and brief lookups
const (
	cvRubricProbe      = "cv scoring"
	caseStudyProbe     = "case study brief"
	projectRubricProbe = "project rubric"
)

// EvaluationError aborts a run at the named stage.
type EvaluationError struct {
	Stage string
	Err   error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// MissingDocTypesError lists the doc types the evaluator queries that have
// no chunks in the knowledge base.
type MissingDocTypesError struct {
	DocTypes []string
}

func (e *MissingDocTypesError) Error() string {
	return fmt.Sprintf("knowledge base has no chunks for: %s", strings.Join(e.DocTypes, ", "))
}

// DocTypes names the doc type queried for each piece of reference context.
type DocTypes struct {
	JobDescription string
	CVRubric       string
	CaseStudyBrief string
	ProjectRubric  string
}

// DocTypesFor maps a rubric layout to doc types. The unified layout keeps
// both rubrics in one scoring_rubric document.
func DocTypesFor(layout string) DocTypes {
	d := DocTypes{
		JobDescription: models.DocTypeJobDescription,
		CVRubric:       models.DocTypeScoringRubric,
		CaseStudyBrief: models.DocTypeCaseStudyBrief,
		ProjectRubric:  models.DocTypeScoringRubric,
	}
	if layout == config.RubricLayoutSplit {
		d.CVRubric = models.DocTypeCVScoringRubric
		d.ProjectRubric = models.DocTypeProjectScoringRubric
	}
	return d
}

// All returns the distinct doc types in query order.
func (d DocTypes) All() []string {
	var out []string
	seen := map[string]bool{}
	for _, dt := range []string{d.JobDescription, d.CVRubric, d.CaseStudyBrief, d.ProjectRubric} {
		if !seen[dt] {
			seen[dt] = true
			out = append(out, dt)
		}
	}
	return out
}

// Evaluator scores a CV and project report against retrieved reference
// context. It holds no per-run state and may be shared by concurrent runs.
type Evaluator struct {
	kb       Knowledge
	llm      Generator
	docTypes DocTypes
	topK     int
}

func NewEvaluator(kb Knowledge, llm Generator, cfg *config.RAGConfig) *Evaluator {
	topK := cfg.TopK
	if topK < 1 {
		topK = 2
	}
	return &Evaluator{
		kb:       kb,
		llm:      llm,
		docTypes: DocTypesFor(cfg.RubricLayout),
		topK:     topK,
	}
}

// DocTypes returns the doc types this evaluator queries.
func (e *Evaluator) DocTypes() DocTypes { return e.docTypes }

// Evaluate runs CV scoring, project scoring and the summary in order. Missing
// context degrades to the sentinel text; any generation or parsing failure
// aborts the run without a partial result.
func (e *Evaluator) Evaluate(ctx context.Context, cvText, reportText, jobTitle string) (*models.EvaluationResult, error) {
	start := time.Now()
	log.Info().Str("job_title", jobTitle).Msg("Starting evaluation")

	jobContext := e.kb.Query(ctx, jobTitle, e.docTypes.JobDescription, e.topK)
	cvRubric := e.kb.Query(ctx, cvRubricProbe, e.docTypes.CVRubric, e.topK)

	cvRaw, err := e.llm.Generate(ctx, fmt.Sprintf(models.CVPromptTemplate, jobContext, cvRubric, cvText))
	if err != nil {
		return nil, &EvaluationError{Stage: StageCVEvaluation, Err: err}
	}
	cv, err := llmservice.DecodeCVScores(cvRaw)
	if err != nil {
		return nil, &EvaluationError{Stage: StageCVEvaluation, Err: err}
	}
	matchRate := scoring.MatchRate(scoring.WeightedAverage(cv.Criteria(), scoring.CVWeights))
	log.Debug().Float64("cv_match_rate", matchRate).Msg("CV scored")

	brief := e.kb.Query(ctx, caseStudyProbe, e.docTypes.CaseStudyBrief, e.topK)
	projectRubric := e.kb.Query(ctx, projectRubricProbe, e.docTypes.ProjectRubric, e.topK)

	projectRaw, err := e.llm.Generate(ctx, fmt.Sprintf(models.ProjectPromptTemplate, brief, projectRubric, reportText))
	if err != nil {
		return nil, &EvaluationError{Stage: StageProjectEvaluation, Err: err}
	}
	project, err := llmservice.DecodeProjectScores(projectRaw)
	if err != nil {
		return nil, &EvaluationError{Stage: StageProjectEvaluation, Err: err}
	}
	projectScore := scoring.Round2(scoring.WeightedAverage(project.Criteria(), scoring.ProjectWeights))
	log.Debug().Float64("project_score", projectScore).Msg("Project scored")

	summary, err := e.llm.Generate(ctx, fmt.Sprintf(models.SummaryPromptTemplate,
		matchRate, cv.Feedback, projectScore, project.Feedback))
	if err != nil {
		return nil, &EvaluationError{Stage: StageSummary, Err: err}
	}

	log.Info().
		Str("job_title", jobTitle).
		Float64("cv_match_rate", matchRate).
		Float64("project_score", projectScore).
		Dur("elapsed", time.Since(start)).
		Msg("Evaluation completed")

	return &models.EvaluationResult{
		CVMatchRate:     matchRate,
		CVFeedback:      cv.Feedback,
		ProjectScore:    projectScore,
		ProjectFeedback: project.Feedback,
		OverallSummary:  strings.TrimSpace(summary),
	}, nil
}

// CheckKnowledgeBase verifies every doc type the evaluator queries has at
// least one chunk.
func (e *Evaluator) CheckKnowledgeBase(ctx context.Context) error {
	var missing []string
	for _, dt := range e.docTypes.All() {
		n, err := e.kb.CountByDocType(ctx, dt)
		if err != nil {
			return fmt.Errorf("count %s chunks: %w", dt, err)
		}
		log.Debug().Str("doc_type", dt).Int("chunks", n).Msg("Knowledge base check")
		if n == 0 {
			missing = append(missing, dt)
		}
	}
	if len(missing) > 0 {
		return &MissingDocTypesError{DocTypes: missing}
	}
	return nil
}

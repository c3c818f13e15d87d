package models

// DocType labels the kind of reference document a knowledge chunk came from.
type DocType = string

const (
	DocTypeJobDescription       DocType = "job_description"
	DocTypeScoringRubric        DocType = "scoring_rubric"
	DocTypeCaseStudyBrief       DocType = "case_study_brief"
	DocTypeCVScoringRubric      DocType = "cv_scoring_rubric"
	DocTypeProjectScoringRubric DocType = "project_scoring_rubric"
)

const (
	// metadata keys stored alongside every chunk in the vector collection
	MetaDocType = "doc_type"
	MetaSource  = "source"

	ContextSeparator = "\n---\n"
	ThinkTag         = `(?s)<think>.*?</think>`

	// NoContextSentinel is returned by knowledge base queries that could not
	// produce context. It must never be parsed as reference content.
	NoContextSentinel = "Error: Could not retrieve context from the knowledge base."
)

// JobStatus is the lifecycle state of an evaluation job.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

package models

var (
	// args: job description context, CV rubric context, CV text
	CVPromptTemplate = `**Context:**
- Job Description Context: %s
- CV Scoring Rubric: %s

**Candidate CV Content:**
%s

**Task:**
Evaluate the CV against the rubric. Provide ONLY a JSON object with a score (1-5) for each parameter and a brief feedback summary.
The keys must be: "technical_skills", "experience_level", "relevant_achievements", "cultural_fit", and "cv_feedback".

Example JSON:
{
    "technical_skills": 4,
    "experience_level": 5,
    "relevant_achievements": 3,
    "cultural_fit": 4,
    "cv_feedback": "Strong in backend and cloud, limited AI integration experience..."
}
`

	// args: case study brief context, project rubric context, report text
	ProjectPromptTemplate = `**Context:**
- Case Study Brief: %s
- Project Scoring Rubric: %s

**Candidate Project Report Content:**
%s

**Task:**
Evaluate the project report against the rubric. Provide ONLY a JSON object with a score (1-5) for each parameter and a brief feedback summary.
The keys must be: "correctness", "code_quality", "resilience", "documentation", "creativity", and "project_feedback".

Example JSON:
{
    "correctness": 5,
    "code_quality": 4,
    "resilience": 3,
    "documentation": 5,
    "creativity": 2,
    "project_feedback": "Meets prompt chaining requirements, lacks error handling robustness..."
}
`

	// args: cv match rate, cv feedback, project score, project feedback
	SummaryPromptTemplate = `**CV Evaluation:**
- Match Rate: %.2f
- Feedback: %s

**Project Evaluation:**
- Score: %.2f
- Feedback: %s

**Task:**
Synthesize all the information into a concise overall summary (30-40 words) for the hiring manager.
`
)

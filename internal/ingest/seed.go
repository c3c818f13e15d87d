package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"candidate-screening/internal/config"
	"candidate-screening/internal/helper"
)

const (
	sampleJobDescription = "Product Engineer (Backend). Key skills: Python or Go, REST APIs, " +
		"cloud platforms (AWS/GCP), AI/LLM integration. Requires experience with databases " +
		"(PostgreSQL/MongoDB) and asynchronous job processing. Strong problem-solving and " +
		"communication skills are essential. Focus on clean, scalable code."

	sampleCaseStudyBrief = "Case Study Brief: build a backend service for asynchronous candidate " +
		"evaluation. Required endpoints are /upload, /evaluate and /result. The service runs a RAG " +
		"pipeline over ingested reference documents, chains LLM calls and handles failures with " +
		"retries. Ground truth documents must be ingested into a vector database."

	sampleCVRubric = "CV Scoring Rubric. Rate each parameter from 1 to 5. " +
		"Technical Skills Match (40%): backend, databases, APIs, cloud, AI/LLM exposure. " +
		"Experience Level (25%): years of experience and project complexity. " +
		"Relevant Achievements (20%): impact and scale of past work. " +
		"Cultural / Collaboration Fit (15%): communication, learning mindset, teamwork."

	sampleProjectRubric = "Project Scoring Rubric. Rate each parameter from 1 to 5. " +
		"Correctness (30%): prompt design, chaining, RAG context injection. " +
		"Code Quality and Structure (25%): clean, modular, tested. " +
		"Resilience and Error Handling (20%): long jobs, retries, randomness control. " +
		"Documentation and Explanation (15%): README clarity, trade-offs explained. " +
		"Creativity / Bonus (10%): features beyond requirements."
)

// SampleDocs returns the sample reference documents for a rubric layout,
// keyed by file name.
func SampleDocs(layout string) map[string]string {
	docs := map[string]string{
		"job_description.txt":  sampleJobDescription,
		"case_study_brief.txt": sampleCaseStudyBrief,
	}
	if layout == config.RubricLayoutSplit {
		docs["cv_scoring_rubric.txt"] = sampleCVRubric
		docs["project_scoring_rubric.txt"] = sampleProjectRubric
	} else {
		docs["scoring_rubric.txt"] = sampleCVRubric + "\n\n" + sampleProjectRubric
	}
	return docs
}

// SeedSampleDocs writes the sample documents into dir, overwriting files of
// the same name, and returns the written paths.
func SeedSampleDocs(dir, layout string) ([]string, error) {
	if err := helper.CreateFolder(dir); err != nil {
		return nil, err
	}
	docs := SampleDocs(layout)
	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)

	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(docs[name]), 0o644); err != nil {
			return nil, fmt.Errorf("write sample %s: %w", name, err)
		}
		paths = append(paths, path)
	}
	log.Info().Str("dir", dir).Int("documents", len(paths)).Msg("Created sample documents")
	return paths, nil
}

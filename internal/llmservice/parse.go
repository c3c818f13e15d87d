package llmservice

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"candidate-screening/internal/helper"
	"candidate-screening/internal/models"
)

// ErrMalformedModelOutput is matched by errors for unusable model output.
var ErrMalformedModelOutput = errors.New("malformed model output")

// MalformedOutputError carries a preview of the offending output.
type MalformedOutputError struct {
	Raw string
	Err error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed model output: %v", e.Err)
}

func (e *MalformedOutputError) Unwrap() []error {
	return []error{ErrMalformedModelOutput, e.Err}
}

func malformed(raw string, err error) *MalformedOutputError {
	return &MalformedOutputError{Raw: helper.TruncateForLog(raw, 200), Err: err}
}

var thinkRe = regexp.MustCompile(models.ThinkTag)

// ParseJSON extracts a JSON object from model output. Reasoning blocks and
// markdown fences are removed first; if the rest still is not valid JSON the
// outermost {...} span is tried.
func ParseJSON(raw string) (map[string]any, error) {
	cleaned := extractJSON(raw)

	var out map[string]any
	err := json.Unmarshal([]byte(cleaned), &out)
	if err != nil {
		start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}")
		if start < 0 || end <= start {
			return nil, malformed(raw, err)
		}
		out = nil
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &out); err != nil {
			return nil, malformed(raw, err)
		}
	}
	if out == nil {
		return nil, malformed(raw, errors.New("not a JSON object"))
	}
	return out, nil
}

func extractJSON(raw string) string {
	raw = thinkRe.ReplaceAllString(raw, "")
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```JSON")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// Schema validates a parsed score object before it is decoded.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

var (
	CVScoresSchema      = mustLoadSchema("cv_scores")
	ProjectScoresSchema = mustLoadSchema("project_scores")
)

func mustLoadSchema(name string) *Schema {
	data, err := schemaFS.ReadFile("schemas/" + name + ".schema.json")
	if err != nil {
		panic(fmt.Sprintf("read schema %s: %v", name, err))
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return &Schema{name: name, schema: s}
}

// DecodeScores parses raw, validates it against schema and decodes it into
// out. Missing keys, unknown keys and ratings outside 1-5 are rejected.
func DecodeScores(raw string, schema *Schema, out any) error {
	obj, err := ParseJSON(raw)
	if err != nil {
		return err
	}

	result, err := schema.schema.Validate(gojsonschema.NewGoLoader(obj))
	if err != nil {
		return malformed(raw, fmt.Errorf("validate %s: %w", schema.name, err))
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return malformed(raw, fmt.Errorf("%s: %s", schema.name, strings.Join(msgs, "; ")))
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return malformed(raw, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return malformed(raw, err)
	}
	return nil
}

// DecodeCVScores is DecodeScores for the CV axis.
func DecodeCVScores(raw string) (*models.CVScores, error) {
	var s models.CVScores
	if err := DecodeScores(raw, CVScoresSchema, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// DecodeProjectScores is DecodeScores for the project axis.
func DecodeProjectScores(raw string) (*models.ProjectScores, error) {
	var s models.ProjectScores
	if err := DecodeScores(raw, ProjectScoresSchema, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

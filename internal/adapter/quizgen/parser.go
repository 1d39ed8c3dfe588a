package quizgen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"pdf-quiz/internal/domain"
	"pdf-quiz/internal/prompt"
)

// cleanResponse removes reasoning blocks and markdown fences some models wrap around JSON.
func cleanResponse(raw string) string {
	cleaned := strings.TrimSpace(raw)

	for {
		thinkStart := strings.Index(cleaned, "<think>")
		if thinkStart == -1 {
			break
		}
		thinkEnd := strings.Index(cleaned, "</think>")
		if thinkEnd == -1 || thinkEnd < thinkStart {
			break
		}
		cleaned = strings.TrimSpace(cleaned[:thinkStart] + cleaned[thinkEnd+len("</think>"):])
	}

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}
	return strings.TrimSpace(cleaned)
}

// extractJSONObject returns the outermost {...} span of s.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// decodeStrict rejects unknown fields so that aliased or misnamed keys surface as schema mismatches.
func decodeStrict(data string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// parseQuiz turns a raw model response into a validated quiz.
func parseQuiz(raw string, settings prompt.Settings) (*domain.Quiz, error) {
	cleaned := cleanResponse(raw)
	if cleaned == "" {
		return nil, domain.NewGenerationError(domain.KindMalformedOutput, "model returned an empty response", nil)
	}

	object, ok := extractJSONObject(cleaned)
	if !ok {
		return nil, domain.NewGenerationError(domain.KindMalformedOutput,
			"no JSON object found in model response", fmt.Errorf("response: %.200s", cleaned))
	}

	// Syntax is checked before the schema so that broken JSON and wrong shapes are told apart.
	if !json.Valid([]byte(object)) {
		return nil, domain.NewGenerationError(domain.KindMalformedOutput,
			"model response is not valid JSON", fmt.Errorf("response: %.200s", object))
	}

	var quiz *domain.Quiz
	switch settings.Variant {
	case domain.VariantCaseStudy:
		var resp prompt.CaseStudyResponseV1
		if err := decodeStrict(object, &resp); err != nil {
			return nil, domain.NewGenerationError(domain.KindSchemaMismatch, "response does not match the case study schema", err)
		}
		if resp.CaseStudies == nil {
			return nil, domain.NewGenerationError(domain.KindSchemaMismatch, "response has no case_studies field", nil)
		}
		quiz = resp.ToDomain()
	case domain.VariantFlat:
		var resp prompt.FlatResponseV1
		if err := decodeStrict(object, &resp); err != nil {
			return nil, domain.NewGenerationError(domain.KindSchemaMismatch, "response does not match the question list schema", err)
		}
		if resp.Questions == nil {
			return nil, domain.NewGenerationError(domain.KindSchemaMismatch, "response has no questions field", nil)
		}
		quiz = resp.ToDomain()
	default:
		return nil, domain.NewGenerationError(domain.KindPrompt, fmt.Sprintf("unsupported quiz variant %q", settings.Variant), nil)
	}

	if err := quiz.Validate(settings.Expectations()); err != nil {
		return nil, domain.NewGenerationError(domain.KindSchemaMismatch, "generated quiz is invalid", err)
	}
	return quiz, nil
}

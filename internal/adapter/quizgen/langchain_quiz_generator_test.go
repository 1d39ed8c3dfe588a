package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"pdf-quiz/internal/domain"
	"pdf-quiz/internal/prompt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// stubLLM answers prompts through a function and records every prompt it saw.
type stubLLM struct {
	mu      sync.Mutex
	prompts []string
	respond func(ctx context.Context, prompt string) (string, error)
}

func (s *stubLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	var sb strings.Builder
	for _, m := range messages {
		for _, part := range m.Parts {
			if text, ok := part.(llms.TextContent); ok {
				sb.WriteString(text.Text)
			}
		}
	}
	rendered := sb.String()

	s.mu.Lock()
	s.prompts = append(s.prompts, rendered)
	s.mu.Unlock()

	out, err := s.respond(ctx, rendered)
	if err != nil {
		return nil, err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: out}}}, nil
}

func (s *stubLLM) Call(ctx context.Context, p string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, s, p, options...)
}

func (s *stubLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func fixed(out string) func(context.Context, string) (string, error) {
	return func(context.Context, string) (string, error) { return out, nil }
}

func questionV1(text string) prompt.QuestionV1 {
	return prompt.QuestionV1{
		Question: text,
		Options:  []string{"alpha", "beta", "gamma", "delta"},
		Correct:  "beta",
	}
}

func caseStudyJSON(t *testing.T, cases, perCase int) string {
	t.Helper()
	resp := prompt.CaseStudyResponseV1{}
	for c := 0; c < cases; c++ {
		cs := prompt.CaseStudyV1{CaseStudy: fmt.Sprintf("Scenario %d", c)}
		for q := 0; q < perCase; q++ {
			cs.Questions = append(cs.Questions, questionV1(fmt.Sprintf("Case %d question %d", c, q)))
		}
		resp.CaseStudies = append(resp.CaseStudies, cs)
	}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	return string(data)
}

func flatJSON(t *testing.T, texts ...string) string {
	t.Helper()
	resp := prompt.FlatResponseV1{}
	for _, text := range texts {
		resp.Questions = append(resp.Questions, questionV1(text))
	}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	return string(data)
}

func newGenerator(t *testing.T, llm llms.Model, settings prompt.Settings, opts Options) *LangchainQuizGenerator {
	t.Helper()
	builder, err := prompt.NewBuilder(settings)
	require.NoError(t, err)
	if opts.Model == "" {
		opts.Model = "test-model"
	}
	g, err := NewLangchainQuizGenerator(llm, builder, opts, zap.NewNop())
	require.NoError(t, err)
	return g
}

var caseStudy2x2 = prompt.Settings{Variant: domain.VariantCaseStudy, NumCaseStudies: 2, QuestionsPerCase: 2}

func requireGenerationError(t *testing.T, err error, kind domain.GenerationErrorKind) *domain.GenerationError {
	t.Helper()
	require.Error(t, err)
	var genErr *domain.GenerationError
	require.True(t, errors.As(err, &genErr), "expected *GenerationError, got %T: %v", err, err)
	assert.Equal(t, kind, genErr.Kind)
	return genErr
}

func TestNewLangchainQuizGenerator_Validation(t *testing.T) {
	builder, err := prompt.NewBuilder(caseStudy2x2)
	require.NoError(t, err)
	llm := &stubLLM{respond: fixed("")}

	_, err = NewLangchainQuizGenerator(nil, builder, Options{Model: "m"}, zap.NewNop())
	assert.ErrorContains(t, err, "llm model cannot be nil")

	_, err = NewLangchainQuizGenerator(llm, nil, Options{Model: "m"}, zap.NewNop())
	assert.ErrorContains(t, err, "prompt builder cannot be nil")

	_, err = NewLangchainQuizGenerator(llm, builder, Options{}, zap.NewNop())
	assert.ErrorContains(t, err, "model name cannot be empty")

	_, err = NewLangchainQuizGenerator(llm, builder, Options{Model: "m", Mode: "per_sentence"}, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported generation mode")

	g, err := NewLangchainQuizGenerator(llm, builder, Options{Model: "m"}, nil)
	require.NoError(t, err)
	assert.Equal(t, ModeDocument, g.opts.Mode)
	assert.Equal(t, domain.VariantCaseStudy, g.Variant())
}

func TestGenerate_Success(t *testing.T) {
	llm := &stubLLM{respond: fixed(caseStudyJSON(t, 2, 2))}
	g := newGenerator(t, llm, caseStudy2x2, Options{})

	quiz, err := g.Generate(context.Background(), "Cells divide by mitosis.")
	require.NoError(t, err)
	require.Len(t, quiz.Groups, 2)
	assert.Equal(t, "Scenario 1", quiz.Groups[1].Narrative)
	assert.Equal(t, 4, quiz.TotalQuestions())
	assert.Equal(t, domain.SchemaVersion, quiz.SchemaVersion)

	require.Equal(t, 1, llm.calls())
	assert.Contains(t, llm.prompts[0], "Cells divide by mitosis.")
}

func TestGenerate_RoundTripsTheAdvertisedSchema(t *testing.T) {
	builder, err := prompt.NewBuilder(caseStudy2x2)
	require.NoError(t, err)
	instructions := builder.FormatInstructions()

	sample := prompt.CaseStudyResponseV1{CaseStudies: []prompt.CaseStudyV1{
		{CaseStudy: "A bakery switches to solar ovens.", Questions: []prompt.QuestionV1{
			{Question: "What powers the ovens?", Options: []string{"Gas", "Solar", "Wood", "Coal"}, Correct: "Solar"},
			{Question: "Which cost falls?", Options: []string{"Rent", "Flour", "Energy", "Wages"}, Correct: "Energy"},
		}},
		{CaseStudy: "A city adds bike lanes.", Questions: []prompt.QuestionV1{
			{Question: "What is added?", Options: []string{"Bus stops", "Bike lanes", "Parking", "Tolls"}, Correct: "Bike lanes"},
			{Question: "Who benefits most?", Options: []string{"Cyclists", "Pilots", "Sailors", "Miners"}, Correct: "Cyclists"},
		}},
	}}
	data, err := json.Marshal(sample)
	require.NoError(t, err)

	// Every key of the sample is one the instructions advertise.
	var root map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &root))
	for key := range root {
		assert.Contains(t, instructions, key+":")
	}
	for _, field := range []string{"case_studies", "case_study", "questions", "question", "options", "correct"} {
		assert.Contains(t, instructions, field+":")
	}

	// Answer in the fenced shape the instructions ask for.
	llm := &stubLLM{respond: fixed("```json\n" + string(data) + "\n```")}
	g, err := NewLangchainQuizGenerator(llm, builder, Options{Model: "test-model"}, zap.NewNop())
	require.NoError(t, err)

	quiz, err := g.Generate(context.Background(), "Renewable energy in small towns.")
	require.NoError(t, err)
	assert.Equal(t, sample.ToDomain(), quiz)

	require.Equal(t, 1, llm.calls())
	assert.Contains(t, llm.prompts[0], instructions)
	assert.Contains(t, llm.prompts[0], "Create 2 scenarios or case studies")
	assert.Contains(t, llm.prompts[0], "exactly 2 multiple-choice questions for each case study")
}

func TestGenerate_ResponseWrappedInThinkAndFence(t *testing.T) {
	raw := "<think>The user wants two scenarios.</think>\n```json\n" + caseStudyJSON(t, 2, 2) + "\n```"
	g := newGenerator(t, &stubLLM{respond: fixed(raw)}, caseStudy2x2, Options{})

	quiz, err := g.Generate(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, 4, quiz.TotalQuestions())
}

func TestGenerate_NotJSON(t *testing.T) {
	g := newGenerator(t, &stubLLM{respond: fixed("not json")}, caseStudy2x2, Options{})

	quiz, err := g.Generate(context.Background(), "text")
	assert.Nil(t, quiz)
	requireGenerationError(t, err, domain.KindMalformedOutput)
}

func TestGenerate_BrokenJSON(t *testing.T) {
	g := newGenerator(t, &stubLLM{respond: fixed(`{"case_studies": [ {"case_study": "x", }`)}, caseStudy2x2, Options{})

	_, err := g.Generate(context.Background(), "text")
	requireGenerationError(t, err, domain.KindMalformedOutput)
}

func TestGenerate_SchemaMismatch(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{
			name:     "aliased root field",
			response: `{"caseStudies": []}`,
		},
		{
			name:     "missing root field",
			response: `{}`,
		},
		{
			name:     "three options",
			response: `{"case_studies":[{"case_study":"x","questions":[{"question":"q","options":["a","b","c"],"correct":"a"}]}]}`,
		},
		{
			name:     "correct answer not an option",
			response: `{"case_studies":[{"case_study":"x","questions":[{"question":"q","options":["a","b","c","d"],"correct":"e"}]}]}`,
		},
		{
			name:     "wrong number of case studies",
			response: caseStudyJSON(t, 3, 2),
		},
		{
			name:     "wrong number of questions in a case study",
			response: caseStudyJSON(t, 2, 3),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGenerator(t, &stubLLM{respond: fixed(tt.response)}, caseStudy2x2, Options{})
			_, err := g.Generate(context.Background(), "text")
			requireGenerationError(t, err, domain.KindSchemaMismatch)
		})
	}
}

func TestGenerate_InvocationError(t *testing.T) {
	llm := &stubLLM{respond: func(context.Context, string) (string, error) {
		return "", errors.New("quota exceeded")
	}}
	g := newGenerator(t, llm, caseStudy2x2, Options{})

	_, err := g.Generate(context.Background(), "text")
	genErr := requireGenerationError(t, err, domain.KindInvocation)
	assert.ErrorContains(t, genErr, "quota exceeded")
}

func TestGenerate_Timeout(t *testing.T) {
	llm := &stubLLM{respond: func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	g := newGenerator(t, llm, caseStudy2x2, Options{Timeout: 10 * time.Millisecond})

	_, err := g.Generate(context.Background(), "text")
	requireGenerationError(t, err, domain.KindTimeout)
}

func TestGenerate_BlankContextSkipsModel(t *testing.T) {
	llm := &stubLLM{respond: fixed(caseStudyJSON(t, 2, 2))}
	g := newGenerator(t, llm, caseStudy2x2, Options{})

	for _, blank := range []string{"", "   ", "\n\n"} {
		quiz, err := g.Generate(context.Background(), blank)
		assert.Nil(t, quiz)
		requireGenerationError(t, err, domain.KindEmptyContext)
	}
	assert.Equal(t, 0, llm.calls())
}

func TestGenerate_FlatVariant(t *testing.T) {
	settings := prompt.Settings{Variant: domain.VariantFlat, NumQuestions: 3}
	g := newGenerator(t, &stubLLM{respond: fixed(flatJSON(t, "Q1", "Q2", "Q3"))}, settings, Options{})

	quiz, err := g.Generate(context.Background(), "text")
	require.NoError(t, err)
	require.Len(t, quiz.Groups, 1)
	assert.Empty(t, quiz.Groups[0].Narrative)
	assert.Equal(t, domain.VariantFlat, quiz.Variant)
	assert.Equal(t, 3, quiz.TotalQuestions())
}

var pageMarker = regexp.MustCompile(`PAGE-\d+`)

func TestGenerateFromDocument_PerPage(t *testing.T) {
	llm := &stubLLM{respond: func(_ context.Context, p string) (string, error) {
		marker := pageMarker.FindString(p)
		return flatJSON(t, marker+" first", marker+" second"), nil
	}}
	settings := prompt.Settings{Variant: domain.VariantFlat, NumQuestions: 2}
	g := newGenerator(t, llm, settings, Options{Mode: ModePerPage, MaxPages: 3, MaxParallelCalls: 2})

	doc := &domain.Document{Pages: []domain.Page{
		{Number: 1, Text: "PAGE-1 text"},
		{Number: 2, Text: "  "},
		{Number: 3, Text: "PAGE-3 text"},
		{Number: 4, Text: "PAGE-4 text"},
	}}
	quiz, err := g.GenerateFromDocument(context.Background(), doc)
	require.NoError(t, err)

	// Page 2 is blank and page 4 is past the bound.
	assert.Equal(t, 2, llm.calls())
	require.Len(t, quiz.Groups, 2)
	assert.Equal(t, "PAGE-1 first", quiz.Groups[0].Questions[0].Text)
	assert.Equal(t, "PAGE-3 second", quiz.Groups[1].Questions[1].Text)
}

func TestGenerateFromDocument_PerPageFailsAsAWhole(t *testing.T) {
	llm := &stubLLM{respond: func(_ context.Context, p string) (string, error) {
		if strings.Contains(p, "PAGE-2") {
			return "not json", nil
		}
		return flatJSON(t, "a", "b"), nil
	}}
	settings := prompt.Settings{Variant: domain.VariantFlat, NumQuestions: 2}
	g := newGenerator(t, llm, settings, Options{Mode: ModePerPage})

	doc := &domain.Document{Pages: []domain.Page{{Number: 1, Text: "PAGE-1"}, {Number: 2, Text: "PAGE-2"}}}
	quiz, err := g.GenerateFromDocument(context.Background(), doc)
	assert.Nil(t, quiz)
	requireGenerationError(t, err, domain.KindMalformedOutput)
}

func TestGenerateFromDocument_Chunked(t *testing.T) {
	llm := &stubLLM{respond: fixed(flatJSON(t, "a", "b"))}
	settings := prompt.Settings{Variant: domain.VariantFlat, NumQuestions: 2}
	g := newGenerator(t, llm, settings, Options{Mode: ModeChunked, ChunkSize: 40, MaxChunks: 2})

	text := strings.Repeat("Enzymes lower activation energy. ", 20)
	quiz, err := g.GenerateFromDocument(context.Background(), &domain.Document{Context: text})
	require.NoError(t, err)
	assert.Equal(t, 2, llm.calls())
	assert.Len(t, quiz.Groups, 2)
	assert.Equal(t, 4, quiz.TotalQuestions())
}

func TestGenerateFromDocument_EmptyDocument(t *testing.T) {
	llm := &stubLLM{respond: fixed(flatJSON(t, "a", "b"))}
	settings := prompt.Settings{Variant: domain.VariantFlat, NumQuestions: 2}

	for _, mode := range []Mode{ModeDocument, ModePerPage, ModeChunked} {
		g := newGenerator(t, llm, settings, Options{Mode: mode})
		_, err := g.GenerateFromDocument(context.Background(), &domain.Document{})
		requireGenerationError(t, err, domain.KindEmptyContext)

		_, err = g.GenerateFromDocument(context.Background(), nil)
		requireGenerationError(t, err, domain.KindEmptyContext)
	}
	assert.Equal(t, 0, llm.calls())
}

func TestCleanResponse(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanResponse("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanResponse("<think>x</think><think>y</think> {\"a\":1}"))
	assert.Equal(t, "plain", cleanResponse("  plain  "))

	obj, ok := extractJSONObject(`Here you go: {"a": {"b": 2}} thanks`)
	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": 2}}`, obj)

	_, ok = extractJSONObject("} {")
	assert.False(t, ok)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 200))

	// Each "é" is two bytes; a byte slice at 3 would split the second one.
	out := truncate("ééé", 2)
	assert.Equal(t, "éé", out)
	assert.True(t, utf8.ValidString(out))

	long := strings.Repeat("日本語", 100)
	assert.Equal(t, 200, utf8.RuneCountInString(truncate(long, 200)))
	assert.True(t, utf8.ValidString(truncate(long, 200)))
}

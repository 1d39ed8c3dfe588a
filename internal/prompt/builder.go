package prompt

import (
	"fmt"
	"strconv"

	"pdf-quiz/internal/domain"

	"github.com/tmc/langchaingo/outputparser"
	"github.com/tmc/langchaingo/prompts"
)

// Settings are the counts rendered into a template.
type Settings struct {
	Variant          domain.Variant
	NumCaseStudies   int
	QuestionsPerCase int
	NumQuestions     int
}

// Expectations returns the counts a quiz generated with these settings must satisfy.
func (s Settings) Expectations() domain.Expectations {
	if s.Variant == domain.VariantFlat {
		return domain.Expectations{TotalQuestions: s.NumQuestions}
	}
	return domain.Expectations{Groups: s.NumCaseStudies, QuestionsPerGroup: s.QuestionsPerCase}
}

// Builder renders prompts for one variant. It is safe for concurrent use.
type Builder struct {
	settings           Settings
	template           prompts.PromptTemplate
	formatInstructions string
}

// NewBuilder prepares the template and the schema description for the variant.
// Partial variables must be strings; the template engine rejects any other type.
func NewBuilder(settings Settings) (*Builder, error) {
	var (
		templateText string
		instructions string
		partials     map[string]any
	)

	switch settings.Variant {
	case domain.VariantCaseStudy:
		parser, err := outputparser.NewDefined(CaseStudyResponseV1{})
		if err != nil {
			return nil, fmt.Errorf("failed to describe case study schema: %w", err)
		}
		templateText = caseStudyTemplate
		instructions = parser.GetFormatInstructions()
		partials = map[string]any{
			"num_case_studies":   strconv.Itoa(settings.NumCaseStudies),
			"questions_per_case": strconv.Itoa(settings.QuestionsPerCase),
		}
	case domain.VariantFlat:
		parser, err := outputparser.NewDefined(FlatResponseV1{})
		if err != nil {
			return nil, fmt.Errorf("failed to describe flat schema: %w", err)
		}
		templateText = flatTemplate
		instructions = parser.GetFormatInstructions()
		partials = map[string]any{
			"num_questions": strconv.Itoa(settings.NumQuestions),
		}
	default:
		return nil, fmt.Errorf("unsupported quiz variant: %q", settings.Variant)
	}

	partials["format_instructions"] = instructions

	return &Builder{
		settings: settings,
		template: prompts.PromptTemplate{
			Template:         templateText,
			InputVariables:   []string{"context"},
			TemplateFormat:   prompts.TemplateFormatGoTemplate,
			PartialVariables: partials,
		},
		formatInstructions: instructions,
	}, nil
}

// Build renders the prompt. The context is embedded verbatim.
func (b *Builder) Build(context string) (string, error) {
	rendered, err := b.template.Format(map[string]any{"context": context})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return rendered, nil
}

// FormatInstructions is the schema description embedded in every prompt.
func (b *Builder) FormatInstructions() string {
	return b.formatInstructions
}

func (b *Builder) Settings() Settings {
	return b.settings
}

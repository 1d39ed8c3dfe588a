package quizgen

import (
	"context"
	"fmt"

	"pdf-quiz/internal/adapter/llm"
	"pdf-quiz/internal/config"
	"pdf-quiz/internal/domain"
	"pdf-quiz/internal/prompt"

	"go.uber.org/zap"
)

// PromptSettings maps the quiz configuration onto prompt settings.
func PromptSettings(cfg config.QuizConfig) prompt.Settings {
	return prompt.Settings{
		Variant:          domain.Variant(cfg.Variant),
		NumCaseStudies:   cfg.NumCaseStudies,
		QuestionsPerCase: cfg.QuestionsPerCase,
		NumQuestions:     cfg.NumQuestions,
	}
}

// NewFromConfig creates the model client, the prompt builder and the generator.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*LangchainQuizGenerator, error) {
	builder, err := prompt.NewBuilder(PromptSettings(cfg.Quiz))
	if err != nil {
		return nil, fmt.Errorf("failed to create prompt builder: %w", err)
	}

	model, err := llm.NewModel(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return NewLangchainQuizGenerator(model, builder, Options{
		Model:            cfg.LLM.Model,
		Temperature:      cfg.LLM.Temperature,
		Timeout:          cfg.LLM.Timeout,
		Mode:             Mode(cfg.Quiz.Mode),
		MaxPages:         cfg.Quiz.MaxPages,
		ChunkSize:        cfg.Quiz.ChunkSize,
		ChunkOverlap:     cfg.Quiz.ChunkOverlap,
		MaxChunks:        cfg.Quiz.MaxChunks,
		MaxParallelCalls: cfg.Quiz.MaxParallelCalls,
	}, logger)
}

// CacheSettings lists the settings a cached quiz must have been generated with.
func CacheSettings(cfg config.QuizConfig) []string {
	counts := fmt.Sprintf("%dx%d", cfg.NumCaseStudies, cfg.QuestionsPerCase)
	if domain.Variant(cfg.Variant) == domain.VariantFlat {
		counts = fmt.Sprintf("%d", cfg.NumQuestions)
	}
	return []string{cfg.Variant, counts, cfg.Mode, fmt.Sprintf("p%d", cfg.MaxPages)}
}

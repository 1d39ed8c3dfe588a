package quizgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"pdf-quiz/internal/domain"
	"pdf-quiz/internal/prompt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/textsplitter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Mode selects how much of the document goes into one model call.
type Mode string

const (
	ModeDocument Mode = "document"
	ModePerPage  Mode = "per_page"
	ModeChunked  Mode = "chunked"
)

// Options tune a LangchainQuizGenerator. Zero limits mean "no limit".
type Options struct {
	Model            string
	Temperature      float64
	Timeout          time.Duration
	Mode             Mode
	MaxPages         int
	ChunkSize        int
	ChunkOverlap     int
	MaxChunks        int
	MaxParallelCalls int
}

// LangchainQuizGenerator implements domain.QuizGenerator on top of a langchaingo model.
type LangchainQuizGenerator struct {
	llm     llms.Model
	builder *prompt.Builder
	opts    Options
	logger  *zap.Logger
}

// NewLangchainQuizGenerator wires a model client created once at startup.
func NewLangchainQuizGenerator(llm llms.Model, builder *prompt.Builder, opts Options, logger *zap.Logger) (*LangchainQuizGenerator, error) {
	if llm == nil {
		return nil, fmt.Errorf("llm model cannot be nil")
	}
	if builder == nil {
		return nil, fmt.Errorf("prompt builder cannot be nil")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}
	switch opts.Mode {
	case "":
		opts.Mode = ModeDocument
	case ModeDocument, ModePerPage, ModeChunked:
	default:
		return nil, fmt.Errorf("unsupported generation mode: %q", opts.Mode)
	}
	if opts.MaxParallelCalls <= 0 {
		opts.MaxParallelCalls = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("Initializing LangchainQuizGenerator",
		zap.String("model", opts.Model),
		zap.String("variant", string(builder.Settings().Variant)),
		zap.String("mode", string(opts.Mode)))

	return &LangchainQuizGenerator{
		llm:     llm,
		builder: builder,
		opts:    opts,
		logger:  logger,
	}, nil
}

func (g *LangchainQuizGenerator) Variant() domain.Variant {
	return g.builder.Settings().Variant
}

// Generate runs one model call over the whole context.
func (g *LangchainQuizGenerator) Generate(ctx context.Context, context string) (*domain.Quiz, error) {
	if strings.TrimSpace(context) == "" {
		g.logger.Warn("Skipping quiz generation for blank context")
		return nil, domain.NewGenerationError(domain.KindEmptyContext, "document contains no extractable text", nil)
	}

	rendered, err := g.builder.Build(context)
	if err != nil {
		g.logger.Error("Failed to build prompt", zap.Error(err))
		return nil, domain.NewGenerationError(domain.KindPrompt, "failed to build prompt", err)
	}

	raw, err := g.call(ctx, rendered)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("Raw LLM response received", zap.String("raw_response", raw))

	quiz, err := parseQuiz(raw, g.builder.Settings())
	if err != nil {
		g.logger.Error("Failed to parse LLM response",
			zap.Error(err),
			zap.String("response_part", truncate(raw, 200)))
		return nil, err
	}

	g.logger.Info("Successfully generated quiz",
		zap.Int("groups", len(quiz.Groups)),
		zap.Int("questions", quiz.TotalQuestions()))
	return quiz, nil
}

// GenerateFromDocument applies the configured mode to an extracted document.
func (g *LangchainQuizGenerator) GenerateFromDocument(ctx context.Context, doc *domain.Document) (*domain.Quiz, error) {
	if doc == nil {
		return nil, domain.NewGenerationError(domain.KindEmptyContext, "no document to generate from", nil)
	}

	switch g.opts.Mode {
	case ModePerPage:
		pages := doc.Pages
		if g.opts.MaxPages > 0 && len(pages) > g.opts.MaxPages {
			pages = pages[:g.opts.MaxPages]
		}
		contexts := make([]string, 0, len(pages))
		for _, p := range pages {
			if strings.TrimSpace(p.Text) != "" {
				contexts = append(contexts, p.Text)
			}
		}
		return g.generateMany(ctx, contexts)
	case ModeChunked:
		contexts, err := g.split(doc.Context)
		if err != nil {
			return nil, err
		}
		return g.generateMany(ctx, contexts)
	default:
		return g.Generate(ctx, doc.Context)
	}
}

func (g *LangchainQuizGenerator) split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var opts []textsplitter.Option
	if g.opts.ChunkSize > 0 {
		opts = append(opts, textsplitter.WithChunkSize(g.opts.ChunkSize))
	}
	if g.opts.ChunkOverlap > 0 {
		opts = append(opts, textsplitter.WithChunkOverlap(g.opts.ChunkOverlap))
	}
	chunks, err := textsplitter.NewRecursiveCharacter(opts...).SplitText(text)
	if err != nil {
		return nil, domain.NewGenerationError(domain.KindPrompt, "failed to split document into chunks", err)
	}
	if g.opts.MaxChunks > 0 && len(chunks) > g.opts.MaxChunks {
		g.logger.Info("Truncating chunks", zap.Int("chunks", len(chunks)), zap.Int("max_chunks", g.opts.MaxChunks))
		chunks = chunks[:g.opts.MaxChunks]
	}
	return chunks, nil
}

// generateMany runs one call per context and merges the groups in input order.
// Any failure fails the whole generation.
func (g *LangchainQuizGenerator) generateMany(ctx context.Context, contexts []string) (*domain.Quiz, error) {
	if len(contexts) == 0 {
		return nil, domain.NewGenerationError(domain.KindEmptyContext, "document contains no extractable text", nil)
	}

	results := make([]*domain.Quiz, len(contexts))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.MaxParallelCalls)
	for i, c := range contexts {
		eg.Go(func() error {
			quiz, err := g.Generate(egCtx, c)
			if err != nil {
				return err
			}
			results[i] = quiz
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		var genErr *domain.GenerationError
		if errors.As(err, &genErr) {
			return nil, genErr
		}
		return nil, domain.NewGenerationError(domain.KindInvocation, "quiz generation failed", err)
	}

	merged := &domain.Quiz{
		SchemaVersion: domain.SchemaVersion,
		Variant:       g.Variant(),
		Groups:        []domain.QuestionGroup{},
	}
	for _, r := range results {
		merged.Groups = append(merged.Groups, r.Groups...)
	}
	g.logger.Info("Merged quiz from multiple calls",
		zap.Int("calls", len(contexts)),
		zap.Int("questions", merged.TotalQuestions()))
	return merged, nil
}

func (g *LangchainQuizGenerator) call(ctx context.Context, rendered string) (string, error) {
	callCtx := ctx
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	response, err := llms.GenerateFromSinglePrompt(callCtx, g.llm, rendered,
		llms.WithModel(g.opts.Model),
		llms.WithTemperature(g.opts.Temperature),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			g.logger.Error("LLM request timed out", zap.Error(err), zap.Duration("timeout", g.opts.Timeout))
			return "", domain.NewGenerationError(domain.KindTimeout, "LLM request timed out", err)
		}
		g.logger.Error("Failed to get response from LLM", zap.Error(err))
		return "", domain.NewGenerationError(domain.KindInvocation, "LLM call failed", err)
	}
	return response, nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

var _ domain.QuizGenerator = (*LangchainQuizGenerator)(nil)

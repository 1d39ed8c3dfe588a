package domain

import (
	"context"
)

// QuizGenerator turns extracted text into a quiz. On failure the error is a *GenerationError.
type QuizGenerator interface {
	// Generate produces a quiz from a context string with a single LLM call.
	Generate(ctx context.Context, context string) (*Quiz, error)

	// GenerateFromDocument applies the configured generation mode (whole document, per page or chunked).
	GenerateFromDocument(ctx context.Context, doc *Document) (*Quiz, error)

	// Variant reports the quiz shape this generator produces.
	Variant() Variant
}

package llm

import (
	"context"
	"testing"
	"time"

	"pdf-quiz/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewModel_Validation(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	tests := []struct {
		name    string
		cfg     config.LLMConfig
		wantErr string
	}{
		{
			name:    "unsupported provider",
			cfg:     config.LLMConfig{Provider: "anthropic", Model: "m"},
			wantErr: "unsupported llm provider",
		},
		{
			name:    "google without key",
			cfg:     config.LLMConfig{Provider: "googleai", Model: "gemini-1.5-flash-001"},
			wantErr: "google API key cannot be empty",
		},
		{
			name:    "openai without key",
			cfg:     config.LLMConfig{Provider: "openai", Model: "gpt-4o-mini"},
			wantErr: "openai API key cannot be empty",
		},
		{
			name:    "ollama without server",
			cfg:     config.LLMConfig{Provider: "ollama", Model: "qwen3:0.6b"},
			wantErr: "ollama server URL cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := NewModel(ctx, tt.cfg, logger)
			require.Error(t, err)
			assert.Nil(t, model)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewModel_Ollama(t *testing.T) {
	// Construction does not contact the server.
	model, err := NewModel(context.Background(), config.LLMConfig{
		Provider:  "ollama",
		Model:     "qwen3:0.6b",
		ServerURL: "http://localhost:11434",
		Timeout:   time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, model)
}

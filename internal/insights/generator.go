// Package insights produces the AI-written texts shown on the dashboard and
// in reports. Every flow falls back to a fixed Spanish message when the
// model cannot be reached or answers with something unusable.
package insights

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"dicipfinance/internal/config"
)

// Generator sends one prompt to a language model and returns the raw JSON
// text it produced.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var ErrDisabled = errors.New("ai provider disabled")

// Disabled is used when no provider is configured; every flow gets its fallback.
type Disabled struct{}

var _ Generator = Disabled{}

func (Disabled) Generate(context.Context, string) (string, error) {
	return "", ErrDisabled
}

// NewGenerator builds the provider selected by AI_PROVIDER.
func NewGenerator(cfg *config.Config) (Generator, error) {
	httpClient := &http.Client{Timeout: cfg.AITimeout + 5*time.Second}

	switch cfg.AIProvider {
	case "gemini":
		return NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, httpClient), nil
	case "ollama":
		return NewOllamaClient(cfg.OllamaURL, cfg.OllamaModel, httpClient), nil
	case "openai":
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, ""), nil
	case "none", "":
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.AIProvider)
	}
}

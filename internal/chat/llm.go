package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/sdfoods/restaurant-backend/pkg/config"
)

// Answerer produces a free-form answer when the knowledge base has none.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

const promptTemplate = `You are a helpful restaurant assistant for SD Foods.
Answer the following question concisely and professionally.

Question: %s

Answer:`

// ModelAnswerer asks a langchaingo model.
type ModelAnswerer struct {
	model llms.Model
}

func NewModelAnswerer(model llms.Model) (*ModelAnswerer, error) {
	if model == nil {
		return nil, fmt.Errorf("llm model required")
	}
	return &ModelAnswerer{model: model}, nil
}

// NewOllamaAnswerer connects to the configured Ollama server.
func NewOllamaAnswerer(cfg config.ChatConfig) (*ModelAnswerer, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.OllamaURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	return NewModelAnswerer(llm)
}

func (a *ModelAnswerer) Answer(ctx context.Context, question string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, a.model, fmt.Sprintf(promptTemplate, question), llms.WithTemperature(0.2))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrEmptyResponse indica que el proveedor respondio sin contenido.
var ErrEmptyResponse = errors.New("llm empty response")

// SystemInstruction fija el rol del asesor para cualquier proveedor.
const SystemInstruction = `You are a professional stock market analyst assistant embedded in a crowdfunding platform.
Be concise and factual, structure your answers with clear headings, and always remind users
that your analysis is informational and not financial advice.`

// Modelos por defecto cuando LLM_MODEL no se define.
const (
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// New elige el proveedor segun configuracion ("gemini" u "openai").
func New(ctx context.Context, provider, baseURL, apiKey, model string, logger *zap.Logger) (LLMClient, error) {
	model = strings.TrimSpace(model)
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "gemini":
		if model == "" {
			model = DefaultGeminiModel
		}
		return NewGeminiClient(ctx, apiKey, model)
	case "openai":
		if model == "" {
			model = DefaultOpenAIModel
		}
		return NewOpenAIClient(baseURL, apiKey, model, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

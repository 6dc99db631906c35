package core

import "context"

// GenerateOptions are hints forwarded to the generation service.
type GenerateOptions struct {
	ModelHint   string  `json:"model_hint,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// GenerationResult is the text plus usage metadata returned by the
// generation service.
type GenerationResult struct {
	Text         string `json:"text"`
	TokensUsed   int    `json:"tokens_used"`
	FinishReason string `json:"finish_reason"`
}

// Generator is the external content generation service. Calls are
// blocking and single-attempt; failures are surfaced to the caller,
// never retried here.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (GenerationResult, error)
}

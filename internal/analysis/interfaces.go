// Package analysis implements the AI assessment stage: the normalized
// resume is sent to a language model which returns a scored evaluation.
// Two providers are available, selected by configuration: "openai"
// (chat completions over REST) and "gemini" (the genai SDK).
package analysis

import (
	"context"

	"skilllink/internal/types"
)

// Provider is the interface assessment backends implement
type Provider interface {
	Assess(ctx context.Context, record types.ResumeRecord, secret string) (types.AssessmentResult, *Usage, error)
	Stats() map[string]any
	Healthy() bool
	Close() error
}

// Usage reports token consumption for one assessment call.
// Callers may ignore it; providers may return nil when the upstream
// response carries no usage block.
type Usage struct {
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
	TotalTokens  int64 `json:"totalTokens"`
}

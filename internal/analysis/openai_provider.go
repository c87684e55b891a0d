package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"skilllink/internal/config"
	skilllinkErrors "skilllink/internal/errors"
	"skilllink/internal/resilience"
	"skilllink/internal/types"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// OpenAIProvider implements Provider over the chat completions REST API
type OpenAIProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
	config     config.ServiceConfig
	breaker    *resilience.Breaker[*chatCompletionResponse]
	logger     *skilllinkErrors.Logger
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates an assessment provider backed by an
// OpenAI-compatible chat completions endpoint.
func NewOpenAIProvider(cfg config.ServiceConfig, logger *skilllinkErrors.Logger) *OpenAIProvider {
	return &OpenAIProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout:   *cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		config:  cfg,
		breaker: resilience.NewBreaker[*chatCompletionResponse]("analysis", cfg.CircuitBreaker, logger),
		logger:  logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

// Assess sends the resume to the model and decodes the scored result.
// The model returns its JSON inside the message content, so the
// response body is decoded twice: once for the completion envelope and
// once for the assessment itself.
func (p *OpenAIProvider) Assess(ctx context.Context, record types.ResumeRecord, secret string) (types.AssessmentResult, *Usage, error) {
	tracer := otel.Tracer("skilllink.analysis")
	ctx, span := tracer.Start(ctx, "analysis.assess_resume")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "openai"),
		attribute.String("ai.model", p.model),
		attribute.Float64("ai.temperature", float64(*p.config.Temperature)),
		attribute.Int("input.skills", len(record.Skills)),
		attribute.Int("input.experience", len(record.Experience)),
	)

	completion, err := p.breaker.Execute(func() (*chatCompletionResponse, error) {
		return executeWithRetry(ctx, "assess_resume", *p.config.MaxRetries, p.logger, func() (*chatCompletionResponse, error) {
			return p.createCompletion(ctx, record, secret)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return types.AssessmentResult{}, nil, wrapUpstreamError("Resume assessment failed", err)
	}

	if len(completion.Choices) == 0 {
		err := skilllinkErrors.NewContractError(skilllinkErrors.ErrCodeResponseContract,
			"Assessment response contained no choices", nil)
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return types.AssessmentResult{}, nil, err
	}

	content := extractJSONPayload(completion.Choices[0].Message.Content)

	var result types.AssessmentResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return types.AssessmentResult{}, nil, skilllinkErrors.NewContractError(skilllinkErrors.ErrCodeResponseContract,
			"Assessment content is not the agreed JSON structure", err)
	}

	reportScoreAnomalies(p.logger, result)

	usage := p.extractUsage(completion)
	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("assessment.overall_score", result.OverallScore),
	)
	return result, usage, nil
}

func (p *OpenAIProvider) createCompletion(ctx context.Context, record types.ResumeRecord, secret string) (*chatCompletionResponse, error) {
	payload := chatCompletionRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: assessmentSystemPrompt},
			{Role: "user", Content: buildAssessmentPrompt(record)},
		},
		Temperature: *p.config.Temperature,
		MaxTokens:   p.config.MaxOutputTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, skilllinkErrors.NewInternalError("REQUEST_BUILD_FAILED",
			"Failed to encode the assessment request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, skilllinkErrors.NewInternalError("REQUEST_BUILD_FAILED",
			"Failed to create the assessment request", err)
	}
	req.Header.Set("Authorization", "Bearer "+secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &upstreamStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, skilllinkErrors.NewContractError(skilllinkErrors.ErrCodeResponseContract,
			"Assessment service returned an undecodable completion", err)
	}
	return &completion, nil
}

func (p *OpenAIProvider) extractUsage(completion *chatCompletionResponse) *Usage {
	if completion.Usage == nil {
		return nil
	}
	return &Usage{
		InputTokens:  completion.Usage.PromptTokens,
		OutputTokens: completion.Usage.CompletionTokens,
		TotalTokens:  completion.Usage.TotalTokens,
	}
}

// Stats returns circuit breaker statistics for health reporting
func (p *OpenAIProvider) Stats() map[string]any {
	return p.breaker.Stats()
}

// Healthy reports whether the provider's breaker is closed
func (p *OpenAIProvider) Healthy() bool {
	return p.breaker.Healthy()
}

// Close implements Provider
func (p *OpenAIProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// wrapUpstreamError converts raw call failures into taxonomy errors,
// preserving contract errors raised below the retry loop.
func wrapUpstreamError(message string, err error) error {
	if skilllinkErrors.IsContractError(err) {
		return err
	}

	var statusErr *upstreamStatusError
	if stderrors.As(err, &statusErr) {
		appErr := skilllinkErrors.NewTransportError(skilllinkErrors.ErrCodeUpstreamStatus,
			fmt.Sprintf("%s: %s", message, statusErr.Status), err).
			WithContext("status_code", statusErr.StatusCode)
		if statusErr.Body != "" {
			appErr = appErr.WithContext("upstream_body", statusErr.Body)
		}
		return appErr
	}

	return skilllinkErrors.NewTransportError(skilllinkErrors.ErrCodeUpstreamUnreach, message, err)
}

package analysis

import (
	"context"
	"encoding/json"

	"skilllink/internal/config"
	skilllinkErrors "skilllink/internal/errors"
	"skilllink/internal/resilience"
	"skilllink/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

// GeminiProvider implements Provider via the Google genai SDK
type GeminiProvider struct {
	config  config.ServiceConfig
	breaker *resilience.Breaker[*genai.GenerateContentResponse]
	logger  *skilllinkErrors.Logger
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates an assessment provider backed by Gemini
func NewGeminiProvider(cfg config.ServiceConfig, logger *skilllinkErrors.Logger) *GeminiProvider {
	return &GeminiProvider{
		config:  cfg,
		breaker: resilience.NewBreaker[*genai.GenerateContentResponse]("analysis", cfg.CircuitBreaker, logger),
		logger:  logger,
	}
}

// Assess sends the resume to Gemini with a pinned response schema, so
// the model's output decodes directly into the assessment structure.
// The SDK client is built per call so credential rotation takes effect
// without a restart.
func (g *GeminiProvider) Assess(ctx context.Context, record types.ResumeRecord, secret string) (types.AssessmentResult, *Usage, error) {
	tracer := otel.Tracer("skilllink.analysis")
	ctx, span := tracer.Start(ctx, "analysis.assess_resume")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
		attribute.Int("input.skills", len(record.Skills)),
		attribute.Int("input.experience", len(record.Experience)),
	)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: secret,
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return types.AssessmentResult{}, nil, skilllinkErrors.NewConfigError(skilllinkErrors.ErrCodeInvalidConfig,
			"Failed to create Gemini client", err)
	}

	genaiConfig := g.buildAssessmentSchema()
	genaiConfig.SystemInstruction = genai.NewContentFromText(assessmentSystemPrompt, genai.RoleUser)
	userPrompt := buildAssessmentPrompt(record)

	result, err := g.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return executeWithRetry(ctx, "assess_resume", *g.config.MaxRetries, g.logger, func() (*genai.GenerateContentResponse, error) {
			return client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return types.AssessmentResult{}, nil, wrapUpstreamError("Resume assessment failed", err)
	}

	var assessment types.AssessmentResult
	if err := json.Unmarshal([]byte(extractJSONPayload(result.Text())), &assessment); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return types.AssessmentResult{}, nil, skilllinkErrors.NewContractError(skilllinkErrors.ErrCodeResponseContract,
			"Assessment content is not the agreed JSON structure", err)
	}

	reportScoreAnomalies(g.logger, assessment)

	usage := extractGenaiUsage(result)
	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("assessment.overall_score", assessment.OverallScore),
	)
	return assessment, usage, nil
}

// buildAssessmentSchema pins the response to the assessment structure
func (g *GeminiProvider) buildAssessmentSchema() *genai.GenerateContentConfig {
	stringList := &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"overallScore": {Type: genai.TypeInteger},
				"strengths":    stringList,
				"weaknesses":   stringList,
				"skillGaps":    stringList,
				"suggestions":  stringList,
				"sectionScores": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"skills":     {Type: genai.TypeInteger},
						"experience": {Type: genai.TypeInteger},
						"projects":   {Type: genai.TypeInteger},
						"education":  {Type: genai.TypeInteger},
					},
					Required: []string{"skills", "experience", "projects", "education"},
				},
				"atsCompatibility": {Type: genai.TypeInteger},
				"keywordDensity":   {Type: genai.TypeInteger},
			},
			Required: []string{
				"overallScore", "strengths", "weaknesses", "skillGaps",
				"suggestions", "sectionScores", "atsCompatibility", "keywordDensity",
			},
		},
	}

	if *g.config.Temperature > 0 {
		config.Temperature = g.config.Temperature
	}
	if g.config.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(g.config.MaxOutputTokens)
	}

	return config
}

func extractGenaiUsage(result *genai.GenerateContentResponse) *Usage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}
	return &Usage{
		InputTokens:  int64(result.UsageMetadata.PromptTokenCount),
		OutputTokens: int64(result.UsageMetadata.CandidatesTokenCount),
		TotalTokens:  int64(result.UsageMetadata.TotalTokenCount),
	}
}

// Stats returns circuit breaker statistics for health reporting
func (g *GeminiProvider) Stats() map[string]any {
	return g.breaker.Stats()
}

// Healthy reports whether the provider's breaker is closed
func (g *GeminiProvider) Healthy() bool {
	return g.breaker.Healthy()
}

// Close implements Provider. The genai client holds no resources that
// need explicit release in single-shot usage.
func (g *GeminiProvider) Close() error {
	return nil
}

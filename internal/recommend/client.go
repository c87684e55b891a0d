package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"skilllink/internal/config"
	skilllinkErrors "skilllink/internal/errors"
	"skilllink/internal/resilience"
	"skilllink/internal/types"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// maxRecommendations caps the opportunity list; the prompt asks the
// model for the top ten, anything beyond that is discarded.
const maxRecommendations = 10

// Client sends skill sets to the recommendation service
type Client struct {
	baseURL       string
	model         string
	temperature   float32
	maxTokens     int
	searchBaseURL string
	httpClient    *http.Client
	breaker       *resilience.Breaker[[]rawRecommendation]
	estimator     OpeningEstimator
	logger        *skilllinkErrors.Logger
}

// NewClient creates a recommendation service client from configuration
func NewClient(cfg config.ServiceConfig, pipelineCfg config.PipelineConfig, logger *skilllinkErrors.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		model:         cfg.Model,
		temperature:   *cfg.Temperature,
		maxTokens:     cfg.MaxOutputTokens,
		searchBaseURL: strings.TrimRight(pipelineCfg.JobSearchBaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   *cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker:   resilience.NewBreaker[[]rawRecommendation]("recommend", cfg.CircuitBreaker, logger),
		estimator: NewOpeningEstimator(pipelineCfg.OpeningEstimator),
		logger:    logger,
	}
}

// BuildSkillSet combines resume skills with project technologies,
// deduplicates in first-seen order and drops entries too short to be a
// meaningful skill name.
func BuildSkillSet(record types.ResumeRecord) []string {
	combined := make([]string, 0, len(record.Skills))
	combined = append(combined, record.Skills...)
	for _, project := range record.Projects {
		combined = append(combined, project.Technologies...)
	}

	seen := make(map[string]struct{}, len(combined))
	unique := make([]string, 0, len(combined))
	for _, skill := range combined {
		if len(skill) <= 2 {
			continue
		}
		if _, ok := seen[skill]; ok {
			continue
		}
		seen[skill] = struct{}{}
		unique = append(unique, skill)
	}
	return unique
}

// rawRecommendation mirrors one entry of the model's JSON array before
// normalization
type rawRecommendation struct {
	Skill         string   `json:"skill"`
	RelatedSkills []string `json:"relatedSkills"`
	DemandLevel   string   `json:"demandLevel"`
	SalaryRange   string   `json:"salaryRange"`
}

type chatRequest struct {
	Model       string  `json:"model"`
	Message     string  `json:"message"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type chatResponse struct {
	Text string `json:"text"`
}

// Recommend derives the skill set from the resume and asks the service
// for market opportunities. Search links and opening counts in the
// response are ignored: links are rebuilt locally from the configured
// search endpoint, counts come from the estimator.
func (c *Client) Recommend(ctx context.Context, record types.ResumeRecord, secret string) ([]types.Opportunity, error) {
	tracer := otel.Tracer("skilllink.recommend")
	ctx, span := tracer.Start(ctx, "recommend.generate_opportunities")
	defer span.End()

	skills := BuildSkillSet(record)
	span.SetAttributes(attribute.Int("input.skills", len(skills)))

	if len(skills) == 0 {
		span.SetAttributes(attribute.Bool("success", true), attribute.Int("output.opportunities", 0))
		return []types.Opportunity{}, nil
	}

	raw, err := c.breaker.Execute(func() ([]rawRecommendation, error) {
		return c.requestRecommendations(ctx, skills, secret)
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, err
	}

	if len(raw) > maxRecommendations {
		raw = raw[:maxRecommendations]
	}

	opportunities := make([]types.Opportunity, 0, len(raw))
	for _, rec := range raw {
		demand, err := normalizeDemandLevel(rec.DemandLevel)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.Bool("success", false))
			return nil, err
		}

		related := rec.RelatedSkills
		if related == nil {
			related = []string{}
		}

		opportunities = append(opportunities, types.Opportunity{
			Skill:         rec.Skill,
			RelatedSkills: related,
			OpeningCount:  c.estimator.Estimate(rec.Skill),
			SearchURL:     c.buildSearchURL(rec.Skill, related),
			SalaryRange:   rec.SalaryRange,
			DemandLevel:   demand,
		})
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("output.opportunities", len(opportunities)),
	)
	return opportunities, nil
}

func (c *Client) requestRecommendations(ctx context.Context, skills []string, secret string) ([]rawRecommendation, error) {
	payload := chatRequest{
		Model:       c.model,
		Message:     buildRecommendationPrompt(skills),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, skilllinkErrors.NewInternalError("REQUEST_BUILD_FAILED",
			"Failed to encode the recommendation request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, skilllinkErrors.NewInternalError("REQUEST_BUILD_FAILED",
			"Failed to create the recommendation request", err)
	}
	req.Header.Set("Authorization", "Bearer "+secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, skilllinkErrors.NewTransportError(skilllinkErrors.ErrCodeUpstreamUnreach,
			"Recommendation request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		appErr := skilllinkErrors.NewTransportError(skilllinkErrors.ErrCodeUpstreamStatus,
			fmt.Sprintf("Recommendation generation failed: %s", resp.Status), nil).
			WithContext("status_code", resp.StatusCode)
		if detail := strings.TrimSpace(string(excerpt)); detail != "" {
			appErr = appErr.WithContext("upstream_body", detail)
		}
		return nil, appErr
	}

	var envelope chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, skilllinkErrors.NewContractError(skilllinkErrors.ErrCodeResponseContract,
			"Recommendation service returned an undecodable response", err)
	}

	var raw []rawRecommendation
	if err := json.Unmarshal([]byte(extractJSONPayload(envelope.Text)), &raw); err != nil {
		return nil, skilllinkErrors.NewContractError(skilllinkErrors.ErrCodeResponseContract,
			"Recommendation text is not the agreed JSON array", err)
	}
	return raw, nil
}

// buildSearchURL rebuilds the job search link from the skill and up to
// two related skills. Whatever link the model invented is discarded.
func (c *Client) buildSearchURL(skill string, related []string) string {
	keywords := skill
	if len(related) > 0 {
		top := related
		if len(top) > 2 {
			top = top[:2]
		}
		keywords = skill + " " + strings.Join(top, " ")
	}
	// QueryEscape turns spaces into "+"; the search site expects "%20"
	escaped := strings.ReplaceAll(url.QueryEscape(keywords), "+", "%20")
	return fmt.Sprintf("%s/?keywords=%s&location=Worldwide", c.searchBaseURL, escaped)
}

// normalizeDemandLevel folds case variants onto the closed enumeration
// and rejects anything else as a contract violation.
func normalizeDemandLevel(raw string) (types.DemandLevel, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high":
		return types.DemandHigh, nil
	case "medium":
		return types.DemandMedium, nil
	case "low":
		return types.DemandLow, nil
	}
	return "", skilllinkErrors.NewContractError(skilllinkErrors.ErrCodeResponseContract,
		fmt.Sprintf("Unknown demand level %q in recommendation", raw), nil)
}

// extractJSONPayload strips markdown code fences some models wrap
// around their JSON output.
func extractJSONPayload(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}
	return trimmed
}

// Stats returns circuit breaker statistics for health reporting
func (c *Client) Stats() map[string]any {
	return c.breaker.Stats()
}

// Healthy reports whether the client's breaker is closed
func (c *Client) Healthy() bool {
	return c.breaker.Healthy()
}

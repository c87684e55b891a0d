// Package skills implements the final enhancement stage: skill names
// are folded onto industry-standard spellings, optionally informed by
// an embeddings call. The stage is best-effort by contract: it never
// fails the pipeline, any trouble falls back to the canonical rewrites
// alone or to the input unchanged.
package skills

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"skilllink/internal/config"
	skilllinkErrors "skilllink/internal/errors"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// rewriteRules fold known variants onto their standard spelling.
// Matching is a case-insensitive substring search so composite labels
// like "AI/ML Engineer" normalize too; only the first occurrence is
// rewritten. Dotted spellings come before their collapsed forms.
var rewriteRules = []struct {
	pattern   *regexp.Regexp
	canonical string
}{
	{regexp.MustCompile(`(?i)javascript`), "JavaScript"},
	{regexp.MustCompile(`(?i)react\.js`), "React"},
	{regexp.MustCompile(`(?i)reactjs`), "React"},
	{regexp.MustCompile(`(?i)node\.js`), "Node.js"},
	{regexp.MustCompile(`(?i)nodejs`), "Node.js"},
	{regexp.MustCompile(`(?i)typescript`), "TypeScript"},
	{regexp.MustCompile(`(?i)golang`), "Go"},
	{regexp.MustCompile(`(?i)ai/ml`), "Artificial Intelligence"},
	{regexp.MustCompile(`(?i)ui/ux`), "UI/UX Design"},
}

// Normalize rewrites known variants inside one skill name onto their
// canonical spelling. Names matching no rule pass through unchanged.
func Normalize(skill string) string {
	normalized := strings.TrimSpace(skill)
	for _, rule := range rewriteRules {
		loc := rule.pattern.FindStringIndex(normalized)
		if loc == nil {
			continue
		}
		// Already canonical at the match site, keep it so repeated
		// normalization is a no-op
		if loc[1]-loc[0] <= len(rule.canonical) && strings.HasPrefix(normalized[loc[0]:], rule.canonical) {
			continue
		}
		normalized = normalized[:loc[0]] + rule.canonical + normalized[loc[1]:]
	}
	return normalized
}

// NormalizeAll maps every skill onto its canonical spelling, preserving
// order and duplicates.
func NormalizeAll(skills []string) []string {
	normalized := make([]string, len(skills))
	for i, skill := range skills {
		normalized[i] = Normalize(skill)
	}
	return normalized
}

// Enhancer runs the enhancement stage against the embeddings service
type Enhancer struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *skilllinkErrors.Logger
}

// NewEnhancer creates the enhancement stage client
func NewEnhancer(cfg config.ServiceConfig, logger *skilllinkErrors.Logger) *Enhancer {
	return &Enhancer{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout:   *cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

type embedRequest struct {
	Texts     []string `json:"texts"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type"`
}

// Enhance returns the normalized skill list. The embeddings call is
// advisory: when the secret is empty or the call fails for any reason
// the canonical-table normalization still applies, and the method
// never returns an error.
func (e *Enhancer) Enhance(ctx context.Context, skills []string, secret string) []string {
	tracer := otel.Tracer("skilllink.skills")
	ctx, span := tracer.Start(ctx, "skills.enhance")
	defer span.End()
	span.SetAttributes(attribute.Int("input.skills", len(skills)))

	if len(skills) > 0 && secret != "" {
		if err := e.embed(ctx, skills, secret); err != nil {
			span.RecordError(err)
			if e.logger != nil {
				e.logger.Warn("Skill embedding unavailable, using canonical rewrites only",
					"error", err.Error())
			}
		}
	}

	normalized := NormalizeAll(skills)
	span.SetAttributes(attribute.Int("output.skills", len(normalized)))
	return normalized
}

// embed submits the skills for classification embeddings. The vectors
// are not consumed yet; the call validates the terms against the
// service and its failure modes are swallowed by the caller.
func (e *Enhancer) embed(ctx context.Context, skills []string, secret string) error {
	payload := embedRequest{
		Texts:     skills,
		Model:     e.model,
		InputType: "classification",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return skilllinkErrors.NewTransportError(skilllinkErrors.ErrCodeUpstreamStatus,
			"Skill embedding failed: "+resp.Status, nil)
	}
	return nil
}

package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"skilllink/internal/config"
	skilllinkErrors "skilllink/internal/errors"
	"skilllink/internal/types"
)

func testAnalysisConfig(baseURL string) config.ServiceConfig {
	timeout := 5 * time.Second
	retries := 0
	temperature := float32(0.3)
	return config.ServiceConfig{
		BaseURL:         baseURL,
		Provider:        "openai",
		Model:           "gpt-4o",
		Timeout:         &timeout,
		MaxRetries:      &retries,
		Temperature:     &temperature,
		MaxOutputTokens: 2000,
	}
}

func sampleRecord() types.ResumeRecord {
	record := types.EmptyResumeRecord()
	record.PersonalInfo = types.PersonalInfo{Name: "Ada Lovelace", Email: "ada@example.com"}
	record.Skills = []string{"Go", "Python"}
	record.Experience = []types.Experience{{Title: "Engineer", Company: "Analytical Engines Ltd", Technologies: []string{"Go"}}}
	return record
}

const assessmentJSON = `{
	"overallScore": 82,
	"strengths": ["strong systems background"],
	"weaknesses": ["no cloud experience"],
	"skillGaps": ["Kubernetes"],
	"suggestions": ["quantify achievements"],
	"sectionScores": {"skills": 80, "experience": 85, "projects": 70, "education": 90},
	"atsCompatibility": 75,
	"keywordDensity": 60
}`

func completionBody(content string) string {
	envelope := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
		"usage": map[string]any{
			"prompt_tokens":     120,
			"completion_tokens": 80,
			"total_tokens":      200,
		},
	}
	body, _ := json.Marshal(envelope)
	return string(body)
}

func TestAssessDecodesNestedJSON(t *testing.T) {
	var gotRequest chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("got Authorization %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if _, err := w.Write([]byte(completionBody(assessmentJSON))); err != nil {
			t.Error(err)
		}
	}))
	defer server.Close()

	provider := NewOpenAIProvider(testAnalysisConfig(server.URL), nil)
	result, usage, err := provider.Assess(context.Background(), sampleRecord(), "sk-test")
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}

	if gotRequest.Model != "gpt-4o" {
		t.Errorf("got model %q", gotRequest.Model)
	}
	if gotRequest.Temperature != 0.3 {
		t.Errorf("got temperature %v", gotRequest.Temperature)
	}
	if gotRequest.MaxTokens != 2000 {
		t.Errorf("got max_tokens %d", gotRequest.MaxTokens)
	}
	if len(gotRequest.Messages) != 2 || gotRequest.Messages[0].Role != "system" {
		t.Fatalf("unexpected messages: %+v", gotRequest.Messages)
	}
	if !strings.Contains(gotRequest.Messages[1].Content, "Skills: Go, Python") {
		t.Error("user prompt should embed the joined skill list")
	}
	if !strings.Contains(gotRequest.Messages[1].Content, `"overallScore"`) {
		t.Error("user prompt should spell out the response shape")
	}

	if result.OverallScore != 82 {
		t.Errorf("got overallScore %d", result.OverallScore)
	}
	if result.SectionScores.Experience != 85 {
		t.Errorf("got experience score %d", result.SectionScores.Experience)
	}
	if result.ATSCompat != 75 || result.KeywordDensity != 60 {
		t.Errorf("got atsCompatibility=%d keywordDensity=%d", result.ATSCompat, result.KeywordDensity)
	}

	if usage == nil || usage.TotalTokens != 200 {
		t.Errorf("unexpected usage: %+v", usage)
	}
}

func TestAssessStripsMarkdownFences(t *testing.T) {
	fenced := "```json\n" + assessmentJSON + "\n```"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte(completionBody(fenced))); err != nil {
			t.Error(err)
		}
	}))
	defer server.Close()

	provider := NewOpenAIProvider(testAnalysisConfig(server.URL), nil)
	result, _, err := provider.Assess(context.Background(), sampleRecord(), "sk-test")
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if result.OverallScore != 82 {
		t.Errorf("got overallScore %d", result.OverallScore)
	}
}

func TestAssessKeepsOutOfRangeScores(t *testing.T) {
	anomalous := `{
		"overallScore": 120,
		"strengths": [], "weaknesses": [], "skillGaps": [], "suggestions": [],
		"sectionScores": {"skills": 80, "experience": 85, "projects": 70, "education": 90},
		"atsCompatibility": 75,
		"keywordDensity": -5
	}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte(completionBody(anomalous))); err != nil {
			t.Error(err)
		}
	}))
	defer server.Close()

	// Out-of-range scores are warned about but never clamped
	provider := NewOpenAIProvider(testAnalysisConfig(server.URL), nil)
	result, _, err := provider.Assess(context.Background(), sampleRecord(), "sk-test")
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if result.OverallScore != 120 {
		t.Errorf("got overallScore %d, want 120 untouched", result.OverallScore)
	}
	if result.KeywordDensity != -5 {
		t.Errorf("got keywordDensity %d, want -5 untouched", result.KeywordDensity)
	}
}

func TestAssessContractFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"non-JSON content", completionBody("I could not produce JSON today.")},
		{"empty choices", `{"choices": []}`},
		{"undecodable envelope", "<html>gateway error</html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte(tt.body)); err != nil {
					t.Error(err)
				}
			}))
			defer server.Close()

			provider := NewOpenAIProvider(testAnalysisConfig(server.URL), nil)
			_, _, err := provider.Assess(context.Background(), sampleRecord(), "sk-test")
			if err == nil {
				t.Fatal("expected error")
			}
			if !skilllinkErrors.IsContractError(err) {
				t.Errorf("expected contract error, got type %q: %v", skilllinkErrors.TypeOf(err), err)
			}
		})
	}
}

func TestAssessUpstreamStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "invalid_api_key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	provider := NewOpenAIProvider(testAnalysisConfig(server.URL), nil)
	_, _, err := provider.Assess(context.Background(), sampleRecord(), "sk-bad")
	if err == nil {
		t.Fatal("expected error for 401")
	}
	if skilllinkErrors.TypeOf(err) != skilllinkErrors.ErrorTypeTransport {
		t.Errorf("expected transport error, got type %q: %v", skilllinkErrors.TypeOf(err), err)
	}
}

func TestAssessRetriesTransientStatus(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		if _, err := w.Write([]byte(completionBody(assessmentJSON))); err != nil {
			t.Error(err)
		}
	}))
	defer server.Close()

	cfg := testAnalysisConfig(server.URL)
	retries := 2
	cfg.MaxRetries = &retries

	provider := NewOpenAIProvider(cfg, nil)
	result, _, err := provider.Assess(context.Background(), sampleRecord(), "sk-test")
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected one retry, got %d attempts", attempts)
	}
	if result.OverallScore != 82 {
		t.Errorf("got overallScore %d", result.OverallScore)
	}
}

func TestExtractJSONPayload(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  {\"a\": 1}\n", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSONPayload(tt.input); got != tt.want {
				t.Errorf("extractJSONPayload(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

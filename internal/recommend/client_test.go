package recommend

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

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	timeout := 5 * time.Second
	retries := 0
	temperature := float32(0.3)
	cfg := config.ServiceConfig{
		BaseURL:         server.URL,
		Model:           "command-r-plus",
		Timeout:         &timeout,
		MaxRetries:      &retries,
		Temperature:     &temperature,
		MaxOutputTokens: 1500,
	}
	pipelineCfg := config.PipelineConfig{
		JobSearchBaseURL: "https://www.linkedin.com/jobs/search",
		OpeningEstimator: "deterministic",
	}
	return NewClient(cfg, pipelineCfg, nil), server
}

func recommendationsBody(t *testing.T, recs []map[string]any) string {
	t.Helper()
	inner, err := json.Marshal(recs)
	if err != nil {
		t.Fatal(err)
	}
	outer, err := json.Marshal(map[string]string{"text": string(inner)})
	if err != nil {
		t.Fatal(err)
	}
	return string(outer)
}

func TestBuildSkillSet(t *testing.T) {
	record := types.EmptyResumeRecord()
	record.Skills = []string{"Go", "Python", "R", "Python", "AWS", "TypeScript"}
	record.Projects = []types.Project{
		{Name: "one", Technologies: []string{"Docker", "Go"}},
		{Name: "two", Technologies: []string{"Kubernetes", "C", "SQL"}},
	}

	// Two-letter labels are dropped, three letters is the shortest kept
	got := BuildSkillSet(record)
	want := []string{"Python", "AWS", "TypeScript", "Docker", "Kubernetes", "SQL"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("skill[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRecommendNormalizesResponse(t *testing.T) {
	var gotRequest chatRequest
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer co-test" {
			t.Errorf("got Authorization %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("decode request: %v", err)
		}
		body := recommendationsBody(t, []map[string]any{
			{
				"skill":         "Go",
				"relatedSkills": []string{"Kubernetes", "Docker", "gRPC"},
				"demandLevel":   "high",
				"salaryRange":   "$120k-$160k",
			},
			{
				"skill":       "Python",
				"demandLevel": "Medium",
			},
		})
		if _, err := w.Write([]byte(body)); err != nil {
			t.Error(err)
		}
	})

	record := types.EmptyResumeRecord()
	record.Skills = []string{"Golang", "Python"}

	opportunities, err := client.Recommend(context.Background(), record, "co-test")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if gotRequest.Model != "command-r-plus" {
		t.Errorf("got model %q", gotRequest.Model)
	}
	if !strings.Contains(gotRequest.Message, "Golang, Python") {
		t.Error("prompt should embed the joined skill set")
	}

	if len(opportunities) != 2 {
		t.Fatalf("got %d opportunities", len(opportunities))
	}

	first := opportunities[0]
	if first.DemandLevel != types.DemandHigh {
		t.Errorf("got demand level %q, want %q", first.DemandLevel, types.DemandHigh)
	}
	wantURL := "https://www.linkedin.com/jobs/search/?keywords=Go%20Kubernetes%20Docker&location=Worldwide"
	if first.SearchURL != wantURL {
		t.Errorf("got search URL %q, want %q", first.SearchURL, wantURL)
	}
	if first.OpeningCount < 500 || first.OpeningCount >= 5500 {
		t.Errorf("opening count %d outside [500, 5500)", first.OpeningCount)
	}
	if first.SalaryRange != "$120k-$160k" {
		t.Errorf("got salary range %q", first.SalaryRange)
	}

	second := opportunities[1]
	if second.RelatedSkills == nil {
		t.Error("missing relatedSkills should normalize to an empty slice")
	}
	wantURL = "https://www.linkedin.com/jobs/search/?keywords=Python&location=Worldwide"
	if second.SearchURL != wantURL {
		t.Errorf("got search URL %q, want %q", second.SearchURL, wantURL)
	}
}

func TestRecommendCapsAtTen(t *testing.T) {
	recs := make([]map[string]any, 14)
	for i := range recs {
		recs[i] = map[string]any{
			"skill":         strings.Repeat("x", i+3),
			"relatedSkills": []string{},
			"demandLevel":   "Low",
		}
	}
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte(recommendationsBody(t, recs))); err != nil {
			t.Error(err)
		}
	})

	record := types.EmptyResumeRecord()
	record.Skills = []string{"Python"}

	opportunities, err := client.Recommend(context.Background(), record, "co-test")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(opportunities) != maxRecommendations {
		t.Errorf("got %d opportunities, want %d", len(opportunities), maxRecommendations)
	}
}

func TestRecommendRejectsUnknownDemandLevel(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := recommendationsBody(t, []map[string]any{
			{"skill": "Go", "relatedSkills": []string{}, "demandLevel": "Stratospheric"},
		})
		if _, err := w.Write([]byte(body)); err != nil {
			t.Error(err)
		}
	})

	record := types.EmptyResumeRecord()
	record.Skills = []string{"Python"}

	_, err := client.Recommend(context.Background(), record, "co-test")
	if err == nil {
		t.Fatal("expected error for unknown demand level")
	}
	if !skilllinkErrors.IsContractError(err) {
		t.Errorf("expected contract error, got type %q: %v", skilllinkErrors.TypeOf(err), err)
	}
}

func TestRecommendEmptySkillSetSkipsCall(t *testing.T) {
	called := false
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	opportunities, err := client.Recommend(context.Background(), types.EmptyResumeRecord(), "co-test")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if called {
		t.Error("no request should be made for an empty skill set")
	}
	if opportunities == nil || len(opportunities) != 0 {
		t.Errorf("expected empty opportunity list, got %v", opportunities)
	}
}

func TestRecommendFencedResponse(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		inner := "```json\n[{\"skill\": \"Go\", \"relatedSkills\": [], \"demandLevel\": \"High\"}]\n```"
		outer, err := json.Marshal(map[string]string{"text": inner})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(outer); err != nil {
			t.Error(err)
		}
	})

	record := types.EmptyResumeRecord()
	record.Skills = []string{"Python"}

	opportunities, err := client.Recommend(context.Background(), record, "co-test")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(opportunities) != 1 || opportunities[0].Skill != "Go" {
		t.Errorf("unexpected opportunities: %+v", opportunities)
	}
}

func TestRecommendUpstreamFailure(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	record := types.EmptyResumeRecord()
	record.Skills = []string{"Python"}

	_, err := client.Recommend(context.Background(), record, "co-test")
	if err == nil {
		t.Fatal("expected error for 429")
	}
	if skilllinkErrors.TypeOf(err) != skilllinkErrors.ErrorTypeTransport {
		t.Errorf("expected transport error, got type %q: %v", skilllinkErrors.TypeOf(err), err)
	}
}

func TestDeterministicEstimatorIsStable(t *testing.T) {
	estimator := NewOpeningEstimator("deterministic")
	first := estimator.Estimate("Go")
	for range 5 {
		if got := estimator.Estimate("Go"); got != first {
			t.Fatalf("estimate changed between calls: %d vs %d", got, first)
		}
	}
	if first < 500 || first >= 5500 {
		t.Errorf("estimate %d outside [500, 5500)", first)
	}
	if estimator.Estimate("go") != first {
		t.Error("estimate should be case-insensitive")
	}
}

func TestRandomEstimatorBounds(t *testing.T) {
	estimator := NewOpeningEstimator("random")
	for range 100 {
		got := estimator.Estimate("Go")
		if got < 500 || got >= 5500 {
			t.Fatalf("estimate %d outside [500, 5500)", got)
		}
	}
}

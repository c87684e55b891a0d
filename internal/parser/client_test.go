package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"skilllink/internal/config"
	skilllinkErrors "skilllink/internal/errors"
)

const sampleResponse = `{
	"data": {
		"name": {"raw": "Ada Lovelace"},
		"emails": [{"value": "ada@example.com"}],
		"phoneNumbers": [{"value": "+44 1234"}],
		"location": {"formatted": "London, UK"},
		"skills": [{"name": "Python"}, {"name": "Go"}, {"name": "Python"}],
		"workExperience": [
			{
				"jobTitle": "Engineer",
				"organization": "Analytical Engines Ltd",
				"startDate": "2019-01",
				"endDate": "",
				"jobDescription": "Built things.",
				"skills": [{"name": "Go"}]
			},
			{
				"jobTitle": "Analyst",
				"organization": "Babbage & Co",
				"startDate": "2016-05",
				"endDate": "2018-12",
				"jobDescription": "",
				"skills": []
			}
		],
		"projects": [
			{"name": "Engine", "description": "A compute engine", "skills": [{"name": "Fortran"}], "impact": "10x"}
		],
		"education": [
			{"accreditation": {"education": "BSc Mathematics"}, "organization": "University of London", "endDate": "2015"}
		],
		"certifications": [{"name": "Chartered Engineer"}]
	}
}`

func testServiceConfig(baseURL string) config.ServiceConfig {
	timeout := 5 * time.Second
	retries := 0
	temperature := float32(0)
	return config.ServiceConfig{
		BaseURL:     baseURL,
		Timeout:     &timeout,
		MaxRetries:  &retries,
		Temperature: &temperature,
	}
}

func TestParseMapsResponse(t *testing.T) {
	var gotAuth, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		if r.URL.Path != "/resumes" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(sampleResponse)); err != nil {
			t.Error(err)
		}
	}))
	defer server.Close()

	client := NewClient(testServiceConfig(server.URL), nil)
	record, err := client.Parse(context.Background(), Document{FileName: "resume.pdf", Content: []byte("%PDF-1.4")}, "secret-token")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if gotAuth != "Bearer secret-token" {
		t.Errorf("got Authorization %q", gotAuth)
	}
	if !strings.HasPrefix(gotContentType, "multipart/form-data") {
		t.Errorf("got Content-Type %q", gotContentType)
	}

	if record.PersonalInfo.Name != "Ada Lovelace" {
		t.Errorf("got name %q", record.PersonalInfo.Name)
	}
	if record.PersonalInfo.Email != "ada@example.com" {
		t.Errorf("got email %q", record.PersonalInfo.Email)
	}

	// Duplicates are preserved in source order
	wantSkills := []string{"Python", "Go", "Python"}
	if len(record.Skills) != len(wantSkills) {
		t.Fatalf("got %d skills, want %d", len(record.Skills), len(wantSkills))
	}
	for i, skill := range wantSkills {
		if record.Skills[i] != skill {
			t.Errorf("skill[%d] = %q, want %q", i, record.Skills[i], skill)
		}
	}

	if len(record.Experience) != 2 {
		t.Fatalf("got %d experience entries", len(record.Experience))
	}
	if record.Experience[0].Duration != "2019-01 - Present" {
		t.Errorf("got duration %q, want %q", record.Experience[0].Duration, "2019-01 - Present")
	}
	if record.Experience[1].Duration != "2016-05 - 2018-12" {
		t.Errorf("got duration %q, want %q", record.Experience[1].Duration, "2016-05 - 2018-12")
	}
	if record.Experience[1].Technologies == nil {
		t.Error("empty technologies should be an empty slice, not nil")
	}

	if len(record.Projects) != 1 || record.Projects[0].Impact != "10x" {
		t.Errorf("unexpected projects: %+v", record.Projects)
	}
	if len(record.Education) != 1 || record.Education[0].Degree != "BSc Mathematics" {
		t.Errorf("unexpected education: %+v", record.Education)
	}
	if len(record.Certifications) != 1 || record.Certifications[0] != "Chartered Engineer" {
		t.Errorf("unexpected certifications: %+v", record.Certifications)
	}
}

func TestParseDefaultsForSparseResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte(`{"data": {}}`)); err != nil {
			t.Error(err)
		}
	}))
	defer server.Close()

	client := NewClient(testServiceConfig(server.URL), nil)
	record, err := client.Parse(context.Background(), Document{FileName: "min.pdf", Content: []byte("x")}, "secret")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if record.PersonalInfo.Name != "" || record.PersonalInfo.Email != "" {
		t.Errorf("expected empty personal info, got %+v", record.PersonalInfo)
	}
	if record.Skills == nil || record.Experience == nil || record.Projects == nil ||
		record.Education == nil || record.Certifications == nil {
		t.Error("all collections must default to empty slices, never nil")
	}
	if len(record.Skills) != 0 {
		t.Errorf("expected no skills, got %v", record.Skills)
	}
}

func TestParseUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusPaymentRequired)
	}))
	defer server.Close()

	client := NewClient(testServiceConfig(server.URL), nil)
	_, err := client.Parse(context.Background(), Document{FileName: "r.pdf", Content: []byte("x")}, "secret")
	if err == nil {
		t.Fatal("expected error for non-success status")
	}
	if skilllinkErrors.TypeOf(err) != skilllinkErrors.ErrorTypeTransport {
		t.Errorf("expected transport error, got type %q: %v", skilllinkErrors.TypeOf(err), err)
	}
	if !strings.Contains(err.Error(), "402") {
		t.Errorf("error should carry the upstream status text, got %v", err)
	}
}

func TestParseUndecodableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("not json at all")); err != nil {
			t.Error(err)
		}
	}))
	defer server.Close()

	client := NewClient(testServiceConfig(server.URL), nil)
	_, err := client.Parse(context.Background(), Document{FileName: "r.pdf", Content: []byte("x")}, "secret")
	if err == nil {
		t.Fatal("expected error for undecodable body")
	}
	if !skilllinkErrors.IsContractError(err) {
		t.Errorf("expected contract error, got type %q: %v", skilllinkErrors.TypeOf(err), err)
	}
}

func TestParseTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Refuse connections

	client := NewClient(testServiceConfig(server.URL), nil)
	_, err := client.Parse(context.Background(), Document{FileName: "r.pdf", Content: []byte("x")}, "secret")
	if err == nil {
		t.Fatal("expected error for unreachable service")
	}
	if skilllinkErrors.TypeOf(err) != skilllinkErrors.ErrorTypeTransport {
		t.Errorf("expected transport error, got type %q", skilllinkErrors.TypeOf(err))
	}
}

package formatters

import (
	"encoding/json"
	"strings"
	"testing"

	"skilllink/internal/types"
)

func sampleReport() types.AnalysisReport {
	return types.AnalysisReport{
		FileName: "resume.pdf",
		Resume: types.ResumeRecord{
			PersonalInfo: types.PersonalInfo{Name: "Jordan Reyes", Email: "jordan@example.com"},
			Skills:       []string{"Go", "JavaScript"},
			Experience:   []types.Experience{},
			Projects:     []types.Project{},
			Education:    []types.Education{},
		},
		Assessment: types.AssessmentResult{
			OverallScore: 78,
			Strengths:    []string{"Strong project impact statements"},
			Weaknesses:   []string{"Sparse education section"},
			SkillGaps:    []string{"Kubernetes"},
			Suggestions:  []string{"Quantify achievements"},
			SectionScores: types.SectionScores{
				Skills: 80, Experience: 75, Projects: 82, Education: 60,
			},
			ATSCompat:      70,
			KeywordDensity: 65,
		},
		Opportunities: []types.Opportunity{
			{
				Skill:         "Go",
				RelatedSkills: []string{"Kubernetes", "Docker"},
				OpeningCount:  1200,
				SearchURL:     "https://www.linkedin.com/jobs/search/?keywords=Go%20Kubernetes%20Docker&location=Worldwide",
				SalaryRange:   "$90k - $140k",
				DemandLevel:   types.DemandHigh,
			},
		},
	}
}

func TestJSONFormatterRoundTrips(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleReport(), "json")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	var decoded types.AnalysisReport
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.FileName != "resume.pdf" {
		t.Errorf("expected fileName resume.pdf, got %s", decoded.FileName)
	}
	if decoded.Assessment.OverallScore != 78 {
		t.Errorf("expected overall score 78, got %d", decoded.Assessment.OverallScore)
	}
}

func TestTextFormatterSections(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleReport(), "text")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	for _, want := range []string{
		"Candidate: Jordan Reyes",
		"Overall Score: 78/100",
		"ATS Compatibility: 70/100",
		"=== STRENGTHS ===",
		"=== JOB OPPORTUNITIES ===",
		"demand: High",
		"https://www.linkedin.com/jobs/search/?keywords=Go%20Kubernetes%20Docker&location=Worldwide",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q", want)
		}
	}
}

func TestMarkdownFormatterSections(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleReport(), "markdown")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	for _, want := range []string{
		"# Resume Analysis",
		"**Candidate:** Jordan Reyes",
		"| Skills | 80/100 |",
		"### Go",
		"[Search openings](https://www.linkedin.com/jobs/search/?keywords=Go%20Kubernetes%20Docker&location=Worldwide)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestTextFormatterRejectsOtherTypes(t *testing.T) {
	formatter := &ReportTextFormatter{}
	if _, err := formatter.Format(map[string]string{"a": "b"}); err == nil {
		t.Error("expected error for non-report data")
	}
}

func TestRegistryFallsBackToJSON(t *testing.T) {
	out, err := GlobalRegistry.Format(map[string]int{"answer": 42}, "json")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(out, "\"answer\": 42") {
		t.Errorf("unexpected JSON output: %s", out)
	}
}

func TestRegistryUnknownFormat(t *testing.T) {
	if _, err := GlobalRegistry.Format(sampleReport(), "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

// Package formatters renders analysis reports for the CLI: JSON for
// machine consumption, text and markdown for humans.
package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"skilllink/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "AnalysisReport", &ReportTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalysisReport", &ReportMarkdownFormatter{})

	return registry
}

// GlobalRegistry is the default registry used by the CLI
var GlobalRegistry = NewFormatterRegistry()

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalysisReport, *types.AnalysisReport:
		return "AnalysisReport"
	default:
		return "any"
	}
}

func toReport(data any) (types.AnalysisReport, bool) {
	switch v := data.(type) {
	case types.AnalysisReport:
		return v, true
	case *types.AnalysisReport:
		if v != nil {
			return *v, true
		}
	}
	return types.AnalysisReport{}, false
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ReportTextFormatter handles text formatting for analysis reports
type ReportTextFormatter struct{}

func (rtf *ReportTextFormatter) Format(data any) (string, error) {
	report, ok := toReport(data)
	if !ok {
		return "", fmt.Errorf("expected AnalysisReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== RESUME ANALYSIS ===\n\n")
	output.WriteString(fmt.Sprintf("File: %s\n", report.FileName))
	if report.Resume.PersonalInfo.Name != "" {
		output.WriteString(fmt.Sprintf("Candidate: %s\n", report.Resume.PersonalInfo.Name))
	}
	output.WriteString(fmt.Sprintf("Overall Score: %d/100\n", report.Assessment.OverallScore))
	output.WriteString(fmt.Sprintf("ATS Compatibility: %d/100\n", report.Assessment.ATSCompat))
	output.WriteString(fmt.Sprintf("Keyword Density: %d/100\n\n", report.Assessment.KeywordDensity))

	output.WriteString("=== SECTION SCORES ===\n")
	scores := report.Assessment.SectionScores
	output.WriteString(fmt.Sprintf("Skills: %d/100\n", scores.Skills))
	output.WriteString(fmt.Sprintf("Experience: %d/100\n", scores.Experience))
	output.WriteString(fmt.Sprintf("Projects: %d/100\n", scores.Projects))
	output.WriteString(fmt.Sprintf("Education: %d/100\n\n", scores.Education))

	writeTextList(&output, "STRENGTHS", report.Assessment.Strengths)
	writeTextList(&output, "WEAKNESSES", report.Assessment.Weaknesses)
	writeTextList(&output, "SKILL GAPS", report.Assessment.SkillGaps)
	writeTextList(&output, "SUGGESTIONS", report.Assessment.Suggestions)

	if len(report.Opportunities) > 0 {
		output.WriteString("=== JOB OPPORTUNITIES ===\n")
		for _, opp := range report.Opportunities {
			output.WriteString(fmt.Sprintf("- %s (demand: %s, ~%d openings)\n",
				opp.Skill, opp.DemandLevel, opp.OpeningCount))
			if len(opp.RelatedSkills) > 0 {
				output.WriteString(fmt.Sprintf("  Related: %s\n", strings.Join(opp.RelatedSkills, ", ")))
			}
			if opp.SalaryRange != "" {
				output.WriteString(fmt.Sprintf("  Salary: %s\n", opp.SalaryRange))
			}
			output.WriteString(fmt.Sprintf("  Search: %s\n", opp.SearchURL))
		}
	}

	return output.String(), nil
}

func (rtf *ReportTextFormatter) SupportedType() string {
	return "AnalysisReport"
}

func writeTextList(output *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	output.WriteString(fmt.Sprintf("=== %s ===\n", title))
	for _, item := range items {
		output.WriteString(fmt.Sprintf("- %s\n", item))
	}
	output.WriteString("\n")
}

// ReportMarkdownFormatter handles markdown formatting for analysis reports
type ReportMarkdownFormatter struct{}

func (rmf *ReportMarkdownFormatter) Format(data any) (string, error) {
	report, ok := toReport(data)
	if !ok {
		return "", fmt.Errorf("expected AnalysisReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Resume Analysis\n\n")
	output.WriteString(fmt.Sprintf("**File:** %s\n\n", report.FileName))
	if report.Resume.PersonalInfo.Name != "" {
		output.WriteString(fmt.Sprintf("**Candidate:** %s\n\n", report.Resume.PersonalInfo.Name))
	}
	output.WriteString(fmt.Sprintf("**Overall Score:** %d/100\n\n", report.Assessment.OverallScore))

	output.WriteString("## Section Scores\n\n")
	scores := report.Assessment.SectionScores
	output.WriteString("| Section | Score |\n|---|---|\n")
	output.WriteString(fmt.Sprintf("| Skills | %d/100 |\n", scores.Skills))
	output.WriteString(fmt.Sprintf("| Experience | %d/100 |\n", scores.Experience))
	output.WriteString(fmt.Sprintf("| Projects | %d/100 |\n", scores.Projects))
	output.WriteString(fmt.Sprintf("| Education | %d/100 |\n", scores.Education))
	output.WriteString(fmt.Sprintf("| ATS Compatibility | %d/100 |\n", report.Assessment.ATSCompat))
	output.WriteString(fmt.Sprintf("| Keyword Density | %d/100 |\n\n", report.Assessment.KeywordDensity))

	writeMarkdownList(&output, "Strengths", report.Assessment.Strengths)
	writeMarkdownList(&output, "Weaknesses", report.Assessment.Weaknesses)
	writeMarkdownList(&output, "Skill Gaps", report.Assessment.SkillGaps)
	writeMarkdownList(&output, "Suggestions", report.Assessment.Suggestions)

	if len(report.Opportunities) > 0 {
		output.WriteString("## Job Opportunities\n\n")
		for _, opp := range report.Opportunities {
			output.WriteString(fmt.Sprintf("### %s\n\n", opp.Skill))
			output.WriteString(fmt.Sprintf("**Demand:** %s | **Estimated openings:** %d\n\n",
				opp.DemandLevel, opp.OpeningCount))
			if len(opp.RelatedSkills) > 0 {
				output.WriteString(fmt.Sprintf("**Related skills:** %s\n\n", strings.Join(opp.RelatedSkills, ", ")))
			}
			if opp.SalaryRange != "" {
				output.WriteString(fmt.Sprintf("**Salary range:** %s\n\n", opp.SalaryRange))
			}
			output.WriteString(fmt.Sprintf("[Search openings](%s)\n\n", opp.SearchURL))
		}
	}

	return output.String(), nil
}

func (rmf *ReportMarkdownFormatter) SupportedType() string {
	return "AnalysisReport"
}

func writeMarkdownList(output *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	output.WriteString(fmt.Sprintf("## %s\n\n", title))
	for _, item := range items {
		output.WriteString(fmt.Sprintf("- %s\n", item))
	}
	output.WriteString("\n")
}

package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"skilllink/internal/types"
)

// assessmentSystemPrompt sets the model's role. Kept short: the output
// structure is pinned down by the user prompt (and, for Gemini, by the
// response schema).
const assessmentSystemPrompt = `You are an expert resume analyst and career counselor. Provide detailed, actionable feedback in valid JSON format only.`

// buildAssessmentPrompt serializes the resume sections into the user
// prompt and spells out the exact JSON shape the model must return.
func buildAssessmentPrompt(record types.ResumeRecord) string {
	personalInfo, _ := json.Marshal(record.PersonalInfo)
	experience, _ := json.Marshal(record.Experience)
	projects, _ := json.Marshal(record.Projects)
	education, _ := json.Marshal(record.Education)

	return fmt.Sprintf(`Analyze this resume data and provide a comprehensive assessment:

Personal Info: %s
Skills: %s
Experience: %s
Projects: %s
Education: %s

Provide analysis in this JSON format:
{
  "overallScore": number (0-100),
  "strengths": ["strength1", "strength2", ...],
  "weaknesses": ["weakness1", "weakness2", ...],
  "skillGaps": ["missing skill 1", "missing skill 2", ...],
  "suggestions": ["suggestion1", "suggestion2", ...],
  "sectionScores": {
    "skills": number (0-100),
    "experience": number (0-100),
    "projects": number (0-100),
    "education": number (0-100)
  },
  "atsCompatibility": number (0-100),
  "keywordDensity": number (0-100)
}

Focus on technical accuracy, quantifiable achievements, ATS optimization, and industry relevance.`,
		personalInfo,
		strings.Join(record.Skills, ", "),
		experience,
		projects,
		education,
	)
}

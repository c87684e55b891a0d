package analysis

import (
	skilllinkErrors "skilllink/internal/errors"
	"skilllink/internal/types"
)

// reportScoreAnomalies logs a warning for any score outside [0,100].
// Values are passed through unmodified: the numbers come from an
// opaque model and clamping would hide a misbehaving upstream.
func reportScoreAnomalies(logger *skilllinkErrors.Logger, result types.AssessmentResult) {
	if logger == nil {
		return
	}

	checks := []struct {
		field string
		value int
	}{
		{"overallScore", result.OverallScore},
		{"sectionScores.skills", result.SectionScores.Skills},
		{"sectionScores.experience", result.SectionScores.Experience},
		{"sectionScores.projects", result.SectionScores.Projects},
		{"sectionScores.education", result.SectionScores.Education},
		{"atsCompatibility", result.ATSCompat},
		{"keywordDensity", result.KeywordDensity},
	}

	for _, check := range checks {
		if check.value < 0 || check.value > 100 {
			logger.Warn("Assessment score outside expected range",
				"field", check.field,
				"value", check.value)
		}
	}
}

package recommend

import (
	"fmt"
	"strings"
)

// buildRecommendationPrompt asks for market insight per skill. The
// model is told to suggest a search link, but the pipeline rebuilds
// links locally; only skill, relatedSkills, demandLevel and
// salaryRange are consumed from the answer.
func buildRecommendationPrompt(skills []string) string {
	return fmt.Sprintf(`Based on these technical skills and project technologies: %s

Generate job recommendations with market insights. For each skill/technology, provide:
1. Related complementary skills
2. Current job market demand level
3. Estimated salary range (if applicable)
4. Job search keyword optimization

Return as JSON array with this format:
[
  {
    "skill": "skill name",
    "relatedSkills": ["related1", "related2", ...],
    "demandLevel": "High|Medium|Low",
    "salaryRange": "estimated range"
  }
]

Focus on the top 10 most marketable skills from the list.`, strings.Join(skills, ", "))
}

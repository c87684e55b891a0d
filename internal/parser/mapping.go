package parser

import (
	"fmt"

	"skilllink/internal/types"
)

// parsedDocument mirrors the parsing service's response envelope.
// Only the fields the pipeline depends on are declared; everything else
// in the payload is ignored.
type parsedDocument struct {
	Data struct {
		Name *struct {
			Raw string `json:"raw"`
		} `json:"name"`
		Emails []struct {
			Value string `json:"value"`
		} `json:"emails"`
		PhoneNumbers []struct {
			Value string `json:"value"`
		} `json:"phoneNumbers"`
		Location *struct {
			Formatted string `json:"formatted"`
		} `json:"location"`
		Skills []namedItem `json:"skills"`
		WorkExperience []struct {
			JobTitle       string      `json:"jobTitle"`
			Organization   string      `json:"organization"`
			StartDate      string      `json:"startDate"`
			EndDate        string      `json:"endDate"`
			JobDescription string      `json:"jobDescription"`
			Skills         []namedItem `json:"skills"`
		} `json:"workExperience"`
		Projects []struct {
			Name        string      `json:"name"`
			Description string      `json:"description"`
			Skills      []namedItem `json:"skills"`
			Impact      string      `json:"impact"`
		} `json:"projects"`
		Education []struct {
			Accreditation *struct {
				Education string `json:"education"`
			} `json:"accreditation"`
			Organization string `json:"organization"`
			EndDate      string `json:"endDate"`
		} `json:"education"`
		Certifications []namedItem `json:"certifications"`
	} `json:"data"`
}

type namedItem struct {
	Name string `json:"name"`
}

// toResumeRecord maps the upstream document onto the normalized record.
// Every optional field gets its documented default: missing scalars
// become empty strings, missing lists become empty slices, and the
// duration label is synthesized from the raw date fields.
func (p parsedDocument) toResumeRecord() types.ResumeRecord {
	record := types.EmptyResumeRecord()
	data := p.Data

	if data.Name != nil {
		record.PersonalInfo.Name = data.Name.Raw
	}
	if len(data.Emails) > 0 {
		record.PersonalInfo.Email = data.Emails[0].Value
	}
	if len(data.PhoneNumbers) > 0 {
		record.PersonalInfo.Phone = data.PhoneNumbers[0].Value
	}
	if data.Location != nil {
		record.PersonalInfo.Location = data.Location.Formatted
	}

	record.Skills = itemNames(data.Skills)

	for _, exp := range data.WorkExperience {
		record.Experience = append(record.Experience, types.Experience{
			Title:        exp.JobTitle,
			Company:      exp.Organization,
			Duration:     formatDuration(exp.StartDate, exp.EndDate),
			Description:  exp.JobDescription,
			Technologies: itemNames(exp.Skills),
		})
	}

	for _, proj := range data.Projects {
		record.Projects = append(record.Projects, types.Project{
			Name:         proj.Name,
			Description:  proj.Description,
			Technologies: itemNames(proj.Skills),
			Impact:       proj.Impact,
		})
	}

	for _, edu := range data.Education {
		degree := ""
		if edu.Accreditation != nil {
			degree = edu.Accreditation.Education
		}
		record.Education = append(record.Education, types.Education{
			Degree:      degree,
			Institution: edu.Organization,
			Year:        edu.EndDate,
		})
	}

	record.Certifications = itemNames(data.Certifications)

	return record
}

// formatDuration synthesizes the display label "<start> - <end>" with
// "Present" standing in for a missing end date.
func formatDuration(start, end string) string {
	if end == "" {
		end = "Present"
	}
	return fmt.Sprintf("%s - %s", start, end)
}

func itemNames(items []namedItem) []string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return names
}

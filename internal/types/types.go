package types

// PersonalInfo holds the contact details extracted from a resume.
// Every field defaults to the empty string when the parsing service
// omits it.
type PersonalInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

// Experience represents one work-history entry
type Experience struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Duration     string   `json:"duration"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
}

// Project represents one project entry
type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	Impact       string   `json:"impact,omitempty"`
}

// Education represents one education entry
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

// ResumeRecord is the normalized output of the parsing service.
// List fields are always non-nil: consumers may range over them without
// nil checks, and an empty resume serializes with empty arrays rather
// than nulls.
type ResumeRecord struct {
	PersonalInfo   PersonalInfo `json:"personalInfo"`
	Skills         []string     `json:"skills"`
	Experience     []Experience `json:"experience"`
	Projects       []Project    `json:"projects"`
	Education      []Education  `json:"education"`
	Certifications []string     `json:"certifications"`
}

// EmptyResumeRecord returns a ResumeRecord with every collection
// initialized to an empty slice.
func EmptyResumeRecord() ResumeRecord {
	return ResumeRecord{
		Skills:         []string{},
		Experience:     []Experience{},
		Projects:       []Project{},
		Education:      []Education{},
		Certifications: []string{},
	}
}

// SectionScores holds the per-section sub-scores of an assessment
type SectionScores struct {
	Skills     int `json:"skills"`
	Experience int `json:"experience"`
	Projects   int `json:"projects"`
	Education  int `json:"education"`
}

// AssessmentResult is the scored evaluation returned by the analysis
// service. All score fields are expected in [0,100]; values outside that
// range are passed through unmodified and reported by the caller, since
// the numbers originate from an opaque external source.
type AssessmentResult struct {
	OverallScore   int           `json:"overallScore"`
	Strengths      []string      `json:"strengths"`
	Weaknesses     []string      `json:"weaknesses"`
	SkillGaps      []string      `json:"skillGaps"`
	Suggestions    []string      `json:"suggestions"`
	SectionScores  SectionScores `json:"sectionScores"`
	ATSCompat      int           `json:"atsCompatibility"`
	KeywordDensity int           `json:"keywordDensity"`
}

// DemandLevel is the closed enumeration of job-market demand labels
type DemandLevel string

const (
	DemandHigh   DemandLevel = "High"
	DemandMedium DemandLevel = "Medium"
	DemandLow    DemandLevel = "Low"
)

// Valid reports whether d is one of the three allowed demand levels
func (d DemandLevel) Valid() bool {
	switch d {
	case DemandHigh, DemandMedium, DemandLow:
		return true
	}
	return false
}

// Opportunity is one job-market recommendation tied to a single skill
type Opportunity struct {
	Skill         string      `json:"skill"`
	RelatedSkills []string    `json:"relatedSkills"`
	OpeningCount  int         `json:"openingCount"`
	SearchURL     string      `json:"searchUrl"`
	SalaryRange   string      `json:"salaryRange,omitempty"`
	DemandLevel   DemandLevel `json:"demandLevel"`
}

// AnalysisReport is the complete result of one pipeline run, handed to
// the presentation layer (CLI formatters or the HTTP API).
type AnalysisReport struct {
	FileName      string           `json:"fileName"`
	Resume        ResumeRecord     `json:"resume"`
	Assessment    AssessmentResult `json:"assessment"`
	Opportunities []Opportunity    `json:"opportunities"`
}

package pipeline

// Stage identifies one of the four sequential processing steps
type Stage string

const (
	StageParse     Stage = "parse"
	StageAnalyze   Stage = "analyze"
	StageRecommend Stage = "recommend"
	StageEnhance   Stage = "enhance"
)

// Progress returns the user-facing label shown while the stage runs
func (s Stage) Progress() string {
	switch s {
	case StageParse:
		return "Parsing resume..."
	case StageAnalyze:
		return "Analyzing with AI..."
	case StageRecommend:
		return "Generating job recommendations..."
	case StageEnhance:
		return "Enhancing skill analysis..."
	}
	return ""
}

// Status is the observable pipeline state. A run walks the sequence
// Idle, Parsing, Parsed, AiAnalyzing, Analyzed,
// RecommendationGenerating, Recommended, SkillEnhancing, Complete;
// Failed absorbs from any in-flight state.
type Status string

const (
	StatusIdle                     Status = "Idle"
	StatusParsing                  Status = "Parsing"
	StatusParsed                   Status = "Parsed"
	StatusAiAnalyzing              Status = "AiAnalyzing"
	StatusAnalyzed                 Status = "Analyzed"
	StatusRecommendationGenerating Status = "RecommendationGenerating"
	StatusRecommended              Status = "Recommended"
	StatusSkillEnhancing           Status = "SkillEnhancing"
	StatusComplete                 Status = "Complete"
	StatusFailed                   Status = "Failed"
)

// State is a snapshot of the pipeline handed to transition observers
type State struct {
	Status Status `json:"status"`

	// Progress carries the label of the stage currently running,
	// empty outside in-flight states
	Progress string `json:"progress,omitempty"`

	// Stage and Reason are populated only on failure
	Stage  Stage  `json:"stage,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// stageOf maps an in-flight status onto its stage
var stageOf = map[Status]Stage{
	StatusParsing:                  StageParse,
	StatusAiAnalyzing:              StageAnalyze,
	StatusRecommendationGenerating: StageRecommend,
	StatusSkillEnhancing:           StageEnhance,
}

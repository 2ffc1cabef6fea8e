package analysis

// Suggestion types accepted from model output. Anything else is coerced to SuggestionMinor.
const (
	SuggestionCritical  = "critical"
	SuggestionImportant = "important"
	SuggestionMinor     = "minor"
)

// MaxSuggestions caps the suggestion list, keeping the head of the model's order.
const MaxSuggestions = 10

// Record is the normalized analysis produced from raw model output.
// Every field is populated after Normalize and every score lies in [0,100].
type Record struct {
	CandidateName        string             `json:"candidateName"`
	Score                int                `json:"score"`
	APISource            string             `json:"apiSource"`
	Industry             string             `json:"industry"`
	ExperienceLevel      string             `json:"experienceLevel"`
	ATSScore             ATSScore           `json:"atsScore"`
	ContentScore         ContentScore       `json:"contentScore"`
	ATSCompatibility     ATSCompatibility   `json:"atsCompatibility"`
	FormattingAnalysis   FormattingAnalysis `json:"formattingAnalysis"`
	SectionAnalysis      SectionAnalysis    `json:"sectionAnalysis"`
	ContentQuality       ContentQuality     `json:"contentQuality"`
	Suggestions          []Suggestion       `json:"suggestions"`
	Keywords             Keywords           `json:"keywords"`
	Strengths            []string           `json:"strengths"`
	Weaknesses           []string           `json:"weaknesses"`
	Recommendations      []string           `json:"recommendations"`
	ProjectIdeas         []string           `json:"projectIdeas"`
	TrendingTechnologies []string           `json:"trendingTechnologies"`
	JobMatchScore        *int               `json:"jobMatchScore,omitempty"`
	JobMatchDetails      *JobMatchDetails   `json:"jobMatchDetails,omitempty"`
}

type ATSScore struct {
	Keywords int `json:"keywords"`
	Format   int `json:"format"`
	Overall  int `json:"overall"`
}

type ContentScore struct {
	Grammar     int `json:"grammar"`
	Clarity     int `json:"clarity"`
	ActionVerbs int `json:"actionVerbs"`
}

type ATSCompatibility struct {
	OverallScore         int      `json:"overallScore"`
	FormattingScore      int      `json:"formattingScore"`
	KeywordScore         int      `json:"keywordScore"`
	ContentScore         int      `json:"contentScore"`
	ImprovementChecklist []string `json:"improvementChecklist"`
}

// FormattingAnalysis flags. HasTables, HasGraphics, HasHeaders, HasFooters and
// HasSpecialCharacters default to false; the remaining flags default to true
// and only an explicit false marks the resume as non-compliant.
type FormattingAnalysis struct {
	HasTables            bool `json:"hasTables"`
	HasGraphics          bool `json:"hasGraphics"`
	HasHeaders           bool `json:"hasHeaders"`
	HasFooters           bool `json:"hasFooters"`
	UsesStandardSections bool `json:"usesStandardSections"`
	UsesBulletPoints     bool `json:"usesBulletPoints"`
	FontCompatible       bool `json:"fontCompatible"`
	HasSpecialCharacters bool `json:"hasSpecialCharacters"`
}

type SectionAnalysis struct {
	Summary    SummarySection    `json:"summary"`
	Experience ExperienceSection `json:"experience"`
	Skills     SkillsSection     `json:"skills"`
	Education  EducationSection  `json:"education"`
}

type SummarySection struct {
	Exists      bool   `json:"exists"`
	Length      string `json:"length"`
	KeywordRich bool   `json:"keywordRich"`
	Concise     bool   `json:"concise"`
}

type ExperienceSection struct {
	UsesActionVerbs        bool `json:"usesActionVerbs"`
	QuantifiedAchievements bool `json:"quantifiedAchievements"`
	FocusOnAccomplishments bool `json:"focusOnAccomplishments"`
	ProperFormatting       bool `json:"properFormatting"`
}

type SkillsSection struct {
	IncludesHardSkills  bool `json:"includesHardSkills"`
	IncludesSoftSkills  bool `json:"includesSoftSkills"`
	IndustryRelevant    bool `json:"industryRelevant"`
	ProperlyCategorized bool `json:"properlyCategorized"`
}

type EducationSection struct {
	DatesClear             bool `json:"datesClear"`
	DegreesListed          bool `json:"degreesListed"`
	InstitutionsNamed      bool `json:"institutionsNamed"`
	RelevantCertifications bool `json:"relevantCertifications"`
}

type ContentQuality struct {
	QuantifiedAchievements int      `json:"quantifiedAchievements"`
	ActionVerbUsage        int      `json:"actionVerbUsage"`
	VaguePhrases           []string `json:"vaguePhrases"`
	GenericStatements      []string `json:"genericStatements"`
}

// Suggestion is a single improvement item. Example is nil when the model gave none.
type Suggestion struct {
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Example     *string `json:"example,omitempty"`
}

// Keywords found in the resume and those it lacks. Missing never repeats an
// entry of Found or of itself, compared case-insensitively.
type Keywords struct {
	Found       []string `json:"found"`
	Missing     []string `json:"missing"`
	JobSpecific []string `json:"jobSpecific"`
}

// JobMatchDetails is only present for paid tiers that supplied a job description.
type JobMatchDetails struct {
	MatchingKeywords []string `json:"matchingKeywords"`
	MissingKeywords  []string `json:"missingKeywords"`
	TailoringTips    []string `json:"tailoringTips"`
}

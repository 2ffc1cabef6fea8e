package analysis

import (
	"encoding/json"
	"math"
	"strings"
)

const (
	defaultAPISource       = "AI"
	defaultIndustry        = "general"
	defaultExperienceLevel = "mid"
	defaultSummaryLength   = "medium"
)

// Clamp constrains v to [0,100] rounded to the nearest integer. Values that are
// not numbers, including NaN and absent fields, yield def.
func Clamp(v any, def int) int {
	return clamp(NewLoose(v), def)
}

func clamp(l Loose, def int) int {
	f, ok := l.Number()
	if !ok {
		return def
	}
	return int(math.Round(math.Min(100, math.Max(0, f))))
}

// boolDefaultTrue treats absence as compliant; only an explicit false is false.
func boolDefaultTrue(l Loose) bool {
	return !l.IsFalse()
}

func stringOr(l Loose, def string) string {
	if s, ok := l.String(); ok {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return def
}

// Normalize converts loosely-typed model output into a fully populated Record.
// It never fails: every field has a default, and a nil input yields a record
// made entirely of defaults. The candidate name falls back to ExtractName over
// resumeText.
func Normalize(input map[string]any, resumeText string) Record {
	root := NewLoose(input)

	rec := Record{
		CandidateName:        stringOr(root.Get("candidateName"), ""),
		Score:                clamp(root.Get("score"), 50),
		APISource:            stringOr(root.Get("apiSource"), defaultAPISource),
		Industry:             normalizeIndustry(root.Get("industry")),
		ExperienceLevel:      stringOr(root.Get("experienceLevel"), defaultExperienceLevel),
		ATSScore:             normalizeATSScore(root.Get("atsScore")),
		ContentScore:         normalizeContentScore(root.Get("contentScore")),
		ATSCompatibility:     normalizeATSCompatibility(root.Get("atsCompatibility")),
		FormattingAnalysis:   normalizeFormatting(root.Get("formattingAnalysis")),
		SectionAnalysis:      normalizeSections(root.Get("sectionAnalysis")),
		ContentQuality:       normalizeContentQuality(root.Get("contentQuality")),
		Suggestions:          normalizeSuggestions(root.Get("suggestions")),
		Keywords:             normalizeKeywords(root.Get("keywords")),
		Strengths:            root.Get("strengths").Strings(),
		Weaknesses:           root.Get("weaknesses").Strings(),
		Recommendations:      root.Get("recommendations").Strings(),
		ProjectIdeas:         root.Get("projectIdeas").Strings(),
		TrendingTechnologies: root.Get("trendingTechnologies").Strings(),
	}
	if rec.CandidateName == "" {
		rec.CandidateName = ExtractName(resumeText)
	}

	if _, ok := root.Get("jobMatchScore").Number(); ok {
		score := clamp(root.Get("jobMatchScore"), 0)
		rec.JobMatchScore = &score
	}
	if details := root.Get("jobMatchDetails"); details.IsObject() {
		rec.JobMatchDetails = &JobMatchDetails{
			MatchingKeywords: details.Get("matchingKeywords").Strings(),
			MissingKeywords:  details.Get("missingKeywords").Strings(),
			TailoringTips:    details.Get("tailoringTips").Strings(),
		}
	}

	return rec
}

func normalizeIndustry(l Loose) string {
	tag := strings.ToLower(stringOr(l, defaultIndustry))
	if !IsKnownIndustry(tag) {
		return defaultIndustry
	}
	return tag
}

func normalizeATSScore(l Loose) ATSScore {
	return ATSScore{
		Keywords: clamp(l.Get("keywords"), 50),
		Format:   clamp(l.Get("format"), 55),
		Overall:  clamp(l.Get("overall"), 52),
	}
}

func normalizeContentScore(l Loose) ContentScore {
	return ContentScore{
		Grammar:     clamp(l.Get("grammar"), 60),
		Clarity:     clamp(l.Get("clarity"), 55),
		ActionVerbs: clamp(l.Get("actionVerbs"), 50),
	}
}

func normalizeATSCompatibility(l Loose) ATSCompatibility {
	return ATSCompatibility{
		OverallScore:         clamp(l.Get("overallScore"), 52),
		FormattingScore:      clamp(l.Get("formattingScore"), 55),
		KeywordScore:         clamp(l.Get("keywordScore"), 50),
		ContentScore:         clamp(l.Get("contentScore"), 55),
		ImprovementChecklist: l.Get("improvementChecklist").Strings(),
	}
}

func normalizeFormatting(l Loose) FormattingAnalysis {
	return FormattingAnalysis{
		HasTables:            l.Get("hasTables").Truthy(),
		HasGraphics:          l.Get("hasGraphics").Truthy(),
		HasHeaders:           l.Get("hasHeaders").Truthy(),
		HasFooters:           l.Get("hasFooters").Truthy(),
		UsesStandardSections: boolDefaultTrue(l.Get("usesStandardSections")),
		UsesBulletPoints:     boolDefaultTrue(l.Get("usesBulletPoints")),
		FontCompatible:       boolDefaultTrue(l.Get("fontCompatible")),
		HasSpecialCharacters: l.Get("hasSpecialCharacters").Truthy(),
	}
}

func normalizeSections(l Loose) SectionAnalysis {
	summary := l.Get("summary")
	experience := l.Get("experience")
	skills := l.Get("skills")
	education := l.Get("education")

	return SectionAnalysis{
		Summary: SummarySection{
			Exists:      summary.Get("exists").Truthy(),
			Length:      stringOr(summary.Get("length"), defaultSummaryLength),
			KeywordRich: summary.Get("keywordRich").Truthy(),
			Concise:     summary.Get("concise").Truthy(),
		},
		Experience: ExperienceSection{
			UsesActionVerbs:        experience.Get("usesActionVerbs").Truthy(),
			QuantifiedAchievements: experience.Get("quantifiedAchievements").Truthy(),
			FocusOnAccomplishments: experience.Get("focusOnAccomplishments").Truthy(),
			ProperFormatting:       boolDefaultTrue(experience.Get("properFormatting")),
		},
		Skills: SkillsSection{
			IncludesHardSkills:  skills.Get("includesHardSkills").Truthy(),
			IncludesSoftSkills:  skills.Get("includesSoftSkills").Truthy(),
			IndustryRelevant:    skills.Get("industryRelevant").Truthy(),
			ProperlyCategorized: skills.Get("properlyCategorized").Truthy(),
		},
		Education: EducationSection{
			DatesClear:             boolDefaultTrue(education.Get("datesClear")),
			DegreesListed:          boolDefaultTrue(education.Get("degreesListed")),
			InstitutionsNamed:      boolDefaultTrue(education.Get("institutionsNamed")),
			RelevantCertifications: education.Get("relevantCertifications").Truthy(),
		},
	}
}

func normalizeContentQuality(l Loose) ContentQuality {
	return ContentQuality{
		QuantifiedAchievements: clamp(l.Get("quantifiedAchievements"), 30),
		ActionVerbUsage:        clamp(l.Get("actionVerbUsage"), 50),
		VaguePhrases:           l.Get("vaguePhrases").Strings(),
		GenericStatements:      l.Get("genericStatements").Strings(),
	}
}

func normalizeSuggestions(l Loose) []Suggestion {
	items := l.Items()
	if len(items) > MaxSuggestions {
		items = items[:MaxSuggestions]
	}

	out := make([]Suggestion, 0, len(items))
	for _, item := range items {
		s := Suggestion{Type: SuggestionMinor}
		if t, ok := item.Get("type").String(); ok && isSuggestionType(t) {
			s.Type = t
		}
		s.Title, _ = item.Get("title").String()
		s.Description, _ = item.Get("description").String()
		if example, ok := item.Get("example").String(); ok {
			s.Example = &example
		}
		out = append(out, s)
	}
	return out
}

func isSuggestionType(t string) bool {
	switch t {
	case SuggestionCritical, SuggestionImportant, SuggestionMinor:
		return true
	}
	return false
}

func normalizeKeywords(l Loose) Keywords {
	found := l.Get("found").Strings()

	seen := make(map[string]struct{}, len(found))
	for _, kw := range found {
		seen[strings.ToLower(kw)] = struct{}{}
	}
	missing := []string{}
	for _, kw := range l.Get("missing").Strings() {
		key := strings.ToLower(kw)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		missing = append(missing, kw)
	}

	return Keywords{
		Found:       found,
		Missing:     missing,
		JobSpecific: l.Get("jobSpecific").Strings(),
	}
}

// ToMap renders the record in the loosely-typed shape Normalize accepts.
func (r Record) ToMap() map[string]any {
	data, err := json.Marshal(r)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{}
	}
	return out
}

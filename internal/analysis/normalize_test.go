package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		v    any
		def  int
		want int
	}{
		{"above range", 150.0, 50, 100},
		{"below range", -5.0, 50, 0},
		{"in range", 73.0, 50, 73},
		{"rounds", 72.6, 50, 73},
		{"NaN", math.NaN(), 42, 42},
		{"absent", nil, 42, 42},
		{"string number", "80", 42, 42},
		{"bool", true, 42, 42},
		{"positive infinity", math.Inf(1), 42, 100},
		{"json number", json.Number("88"), 42, 88},
		{"int", 12, 42, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clamp(tt.v, tt.def))
		})
	}
}

func TestNormalizeDefaults(t *testing.T) {
	rec := Normalize(nil, "")

	assert.Equal(t, NamePlaceholder, rec.CandidateName)
	assert.Equal(t, 50, rec.Score)
	assert.Equal(t, "AI", rec.APISource)
	assert.Equal(t, "general", rec.Industry)
	assert.Equal(t, "mid", rec.ExperienceLevel)
	assert.Equal(t, ATSScore{Keywords: 50, Format: 55, Overall: 52}, rec.ATSScore)
	assert.Equal(t, ContentScore{Grammar: 60, Clarity: 55, ActionVerbs: 50}, rec.ContentScore)
	assert.Equal(t, ATSCompatibility{
		OverallScore:         52,
		FormattingScore:      55,
		KeywordScore:         50,
		ContentScore:         55,
		ImprovementChecklist: []string{},
	}, rec.ATSCompatibility)
	assert.Equal(t, FormattingAnalysis{
		UsesStandardSections: true,
		UsesBulletPoints:     true,
		FontCompatible:       true,
	}, rec.FormattingAnalysis)
	assert.Equal(t, SectionAnalysis{
		Summary:    SummarySection{Length: "medium"},
		Experience: ExperienceSection{ProperFormatting: true},
		Education:  EducationSection{DatesClear: true, DegreesListed: true, InstitutionsNamed: true},
	}, rec.SectionAnalysis)
	assert.Equal(t, ContentQuality{
		QuantifiedAchievements: 30,
		ActionVerbUsage:        50,
		VaguePhrases:           []string{},
		GenericStatements:      []string{},
	}, rec.ContentQuality)
	assert.Equal(t, []Suggestion{}, rec.Suggestions)
	assert.Equal(t, Keywords{Found: []string{}, Missing: []string{}, JobSpecific: []string{}}, rec.Keywords)
	assert.Empty(t, rec.Strengths)
	assert.NotNil(t, rec.ProjectIdeas)
	assert.Nil(t, rec.JobMatchScore)
	assert.Nil(t, rec.JobMatchDetails)
}

func TestNormalizeBooleanPolarity(t *testing.T) {
	input := map[string]any{
		"formattingAnalysis": map[string]any{
			"hasTables":            "yes",
			"hasGraphics":          0.0,
			"usesStandardSections": false,
			"usesBulletPoints":     nil,
			"fontCompatible":       "false",
		},
		"sectionAnalysis": map[string]any{
			"experience": map[string]any{"properFormatting": false, "usesActionVerbs": 1.0},
			"education":  map[string]any{"degreesListed": false, "relevantCertifications": true},
			"summary":    "not an object",
		},
	}

	rec := Normalize(input, "")

	assert.True(t, rec.FormattingAnalysis.HasTables)
	assert.False(t, rec.FormattingAnalysis.HasGraphics)
	assert.False(t, rec.FormattingAnalysis.UsesStandardSections)
	assert.True(t, rec.FormattingAnalysis.UsesBulletPoints, "null is not an explicit false")
	assert.True(t, rec.FormattingAnalysis.FontCompatible, "the string \"false\" is not an explicit false")
	assert.False(t, rec.SectionAnalysis.Experience.ProperFormatting)
	assert.True(t, rec.SectionAnalysis.Experience.UsesActionVerbs)
	assert.False(t, rec.SectionAnalysis.Education.DegreesListed)
	assert.True(t, rec.SectionAnalysis.Education.DatesClear)
	assert.True(t, rec.SectionAnalysis.Education.RelevantCertifications)
	assert.Equal(t, "medium", rec.SectionAnalysis.Summary.Length)
}

func TestNormalizeSuggestions(t *testing.T) {
	t.Run("unknown type becomes minor", func(t *testing.T) {
		rec := Normalize(map[string]any{
			"suggestions": []any{
				map[string]any{"type": "urgent", "title": "T", "description": "D"},
				map[string]any{"type": "critical", "example": "e.g."},
				map[string]any{"type": "Critical"},
				"not an object",
			},
		}, "")

		require.Len(t, rec.Suggestions, 4)
		assert.Equal(t, Suggestion{Type: "minor", Title: "T", Description: "D"}, rec.Suggestions[0])
		assert.Equal(t, Suggestion{Type: "critical", Example: strPtr("e.g.")}, rec.Suggestions[1])
		assert.Equal(t, "minor", rec.Suggestions[2].Type)
		assert.Equal(t, Suggestion{Type: "minor"}, rec.Suggestions[3])
	})

	t.Run("capped at ten from the head", func(t *testing.T) {
		items := make([]any, 15)
		for i := range items {
			items[i] = map[string]any{"type": "important", "title": fmt.Sprintf("s%d", i)}
		}
		rec := Normalize(map[string]any{"suggestions": items}, "")

		require.Len(t, rec.Suggestions, MaxSuggestions)
		for i, s := range rec.Suggestions {
			assert.Equal(t, fmt.Sprintf("s%d", i), s.Title)
		}
	})

	t.Run("non-array yields empty list", func(t *testing.T) {
		rec := Normalize(map[string]any{"suggestions": map[string]any{"type": "critical"}}, "")
		assert.Equal(t, []Suggestion{}, rec.Suggestions)
	})
}

func TestNormalizeKeywordsDedup(t *testing.T) {
	rec := Normalize(map[string]any{
		"keywords": map[string]any{
			"found":   []any{"Python", "react"},
			"missing": []any{"Docker", "docker", "PYTHON", 7.0, "React", "AWS"},
		},
	}, "")

	assert.Equal(t, []string{"Python", "react"}, rec.Keywords.Found)
	assert.Equal(t, []string{"Docker", "AWS"}, rec.Keywords.Missing)
	assert.Equal(t, []string{}, rec.Keywords.JobSpecific)
}

func TestNormalizeScalars(t *testing.T) {
	rec := Normalize(map[string]any{
		"candidateName":   "  Ada Lovelace ",
		"industry":        "Software",
		"experienceLevel": "senior",
		"apiSource":       "Gemini",
		"jobMatchScore":   120.0,
		"jobMatchDetails": map[string]any{
			"matchingKeywords": []any{"Go"},
			"tailoringTips":    "not a list",
		},
	}, "JOHN SMITH\n")

	assert.Equal(t, "Ada Lovelace", rec.CandidateName)
	assert.Equal(t, "software", rec.Industry)
	assert.Equal(t, "senior", rec.ExperienceLevel)
	assert.Equal(t, "Gemini", rec.APISource)
	assert.Equal(t, intPtr(100), rec.JobMatchScore)
	require.NotNil(t, rec.JobMatchDetails)
	assert.Equal(t, []string{"Go"}, rec.JobMatchDetails.MatchingKeywords)
	assert.Equal(t, []string{}, rec.JobMatchDetails.MissingKeywords)
	assert.Equal(t, []string{}, rec.JobMatchDetails.TailoringTips)
}

func TestNormalizeUnknownIndustryFallsBackToGeneral(t *testing.T) {
	for _, industry := range []any{"aerospace", "", 12.0, nil} {
		rec := Normalize(map[string]any{"industry": industry}, "")
		assert.Equal(t, "general", rec.Industry, "industry %v", industry)
	}
}

func TestNormalizeCandidateNameFromResume(t *testing.T) {
	rec := Normalize(map[string]any{"candidateName": ""}, "John Smith\nSenior Developer")
	assert.Equal(t, "John Smith", rec.CandidateName)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []map[string]any{
		nil,
		{"score": 150.0, "suggestions": []any{map[string]any{"type": "bad"}}},
		{
			"candidateName": "Grace Hopper",
			"score":         87.4,
			"industry":      "DATA",
			"atsScore":      map[string]any{"keywords": -3.0, "format": "x"},
			"keywords": map[string]any{
				"found":   []any{"SQL"},
				"missing": []any{"sql", "Spark", "spark"},
			},
			"suggestions": []any{
				map[string]any{"type": "important", "title": "a", "description": "b", "example": "c"},
			},
			"jobMatchScore":   55.0,
			"jobMatchDetails": map[string]any{"missingKeywords": []any{"Airflow"}},
			"projectIdeas":    []any{"one"},
		},
	}

	for i, input := range inputs {
		t.Run(fmt.Sprintf("input %d", i), func(t *testing.T) {
			once := Normalize(input, "")
			twice := Normalize(once.ToMap(), "")
			assert.Equal(t, once, twice)
		})
	}
}

func TestNormalizeScoresStayInRange(t *testing.T) {
	values := []any{-1e9, -1.0, 0.0, 50.5, 100.0, 101.0, 1e12, math.NaN(), "7", nil}
	for _, v := range values {
		rec := Normalize(map[string]any{
			"score":          v,
			"atsScore":       map[string]any{"keywords": v, "format": v, "overall": v},
			"contentScore":   map[string]any{"grammar": v, "clarity": v, "actionVerbs": v},
			"contentQuality": map[string]any{"quantifiedAchievements": v, "actionVerbUsage": v},
			"jobMatchScore":  v,
		}, "")

		scores := []int{
			rec.Score,
			rec.ATSScore.Keywords, rec.ATSScore.Format, rec.ATSScore.Overall,
			rec.ContentScore.Grammar, rec.ContentScore.Clarity, rec.ContentScore.ActionVerbs,
			rec.ContentQuality.QuantifiedAchievements, rec.ContentQuality.ActionVerbUsage,
		}
		if rec.JobMatchScore != nil {
			scores = append(scores, *rec.JobMatchScore)
		}
		for _, s := range scores {
			assert.GreaterOrEqual(t, s, 0)
			assert.LessOrEqual(t, s, 100)
		}
	}
}

func TestRepairAndNormalizeFencedOutput(t *testing.T) {
	raw := "```json\n{\"score\":150,\"suggestions\":[{\"type\":\"bad\"}]}\n```"

	parsed, err := Repair(raw)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"score":       150.0,
		"suggestions": []any{map[string]any{"type": "bad"}},
	}, parsed)

	rec := Normalize(parsed, "")
	assert.Equal(t, 100, rec.Score)
	assert.Equal(t, []Suggestion{{Type: "minor", Title: "", Description: "", Example: nil}}, rec.Suggestions)

	defaults := Normalize(nil, "")
	rec.Score = defaults.Score
	rec.Suggestions = defaults.Suggestions
	assert.Equal(t, defaults, rec, "every other field stays at its default")
}

func TestRecordJSONShape(t *testing.T) {
	data, err := json.Marshal(Normalize(nil, ""))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.NotContains(t, out, "jobMatchScore")
	assert.NotContains(t, out, "jobMatchDetails")
	assert.Equal(t, []any{}, out["suggestions"])
	assert.Equal(t, []any{}, out["strengths"])
}

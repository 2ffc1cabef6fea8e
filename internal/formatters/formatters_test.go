package formatters

import (
	"encoding/json"
	"strings"
	"testing"

	"resumescan/internal/analysis"
	"resumescan/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOutput() types.AnalyzeOutput {
	example := "Cut build time by 40%"
	match := 72
	return types.AnalyzeOutput{
		ID:       "3f1c",
		Provider: "gemini/gemini-2.5-flash",
		Analysis: analysis.Record{
			CandidateName:   "Jane Doe",
			Score:           81,
			APISource:       "Gemini",
			Industry:        "software",
			ExperienceLevel: "senior",
			ATSScore:        analysis.ATSScore{Keywords: 70, Format: 90, Overall: 80},
			ContentScore:    analysis.ContentScore{Grammar: 95, Clarity: 85, ActionVerbs: 60},
			Suggestions: []analysis.Suggestion{
				{Type: "critical", Title: "Quantify impact", Description: "Add numbers", Example: &example},
			},
			Keywords:      analysis.Keywords{Found: []string{"Go"}, Missing: []string{"Kubernetes"}},
			JobMatchScore: &match,
			JobMatchDetails: &analysis.JobMatchDetails{
				TailoringTips: []string{"Mention on-call"},
			},
		},
		Usage: &types.UsageInfo{Used: 2, Limit: 3, Remaining: 1},
	}
}

func TestJSONFormatter(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleOutput(), "json")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "3f1c", decoded["id"])
	assert.Equal(t, float64(81), decoded["analysis"].(map[string]any)["score"])
}

func TestAnalysisTextFormatter(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleOutput(), "text")
	require.NoError(t, err)

	for _, want := range []string{
		"=== RESUME ANALYSIS ===",
		"Candidate: Jane Doe",
		"Overall Score: 81/100",
		"Analyzed by: Gemini",
		"Keywords: 70  Format: 90  Overall: 80",
		"1. [CRITICAL] Quantify impact",
		"   Example: Cut build time by 40%",
		"=== JOB MATCH ===",
		"- Mention on-call",
		"Missing:\n- Kubernetes",
		"Free analyses used: 2 of 3 (1 remaining)",
	} {
		assert.Contains(t, out, want)
	}
}

func TestAnalysisMarkdownFormatter(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleOutput(), "markdown")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "# Resume Analysis: Jane Doe\n"))
	assert.Contains(t, out, "| ATS overall | 80 |")
	assert.Contains(t, out, "### 1. Quantify impact (critical)")
	assert.Contains(t, out, "> Cut build time by 40%")
	assert.Contains(t, out, "## Job Match")

	plain := sampleOutput()
	plain.Analysis.JobMatchScore = nil
	plain.Usage = nil
	out, err = GlobalRegistry.Format(plain, "markdown")
	require.NoError(t, err)
	assert.NotContains(t, out, "Job Match")
	assert.NotContains(t, out, "Free analyses")
}

func TestHistoryFormatters(t *testing.T) {
	history := []types.AnalysisSummary{
		{ID: "a1", OriginalName: "cv.txt", UploadDate: "2025-03-01T12:00:00Z", Score: 82, ATSScore: 77},
	}

	text, err := GlobalRegistry.Format(history, "text")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "cv.txt")

	md, err := GlobalRegistry.Format(history, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "| a1 | 2025-03-01T12:00:00Z | 82 | 77 | cv.txt |")

	empty, err := GlobalRegistry.Format([]types.AnalysisSummary{}, "text")
	require.NoError(t, err)
	assert.Equal(t, "No analyses found.\n", empty)
}

func TestIndustryFormatters(t *testing.T) {
	table := IndustryTable()
	require.Len(t, table, len(analysis.Industries()))
	assert.Equal(t, "software", table[0].Industry)
	assert.NotEmpty(t, table[0].Keywords)

	text, err := GlobalRegistry.Format(table, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "=== SOFTWARE ===")

	md, err := GlobalRegistry.Format(table, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "## healthcare")
}

func TestUnknownFormat(t *testing.T) {
	_, err := GlobalRegistry.Format(sampleOutput(), "xml")
	assert.EqualError(t, err, "no formatter found for format 'xml' and type 'AnalyzeOutput'")

	assert.Equal(t, []string{"json", "markdown", "text"}, GlobalRegistry.GetSupportedFormats())
}

func TestFormatterTypeMismatch(t *testing.T) {
	_, err := (&AnalysisTextFormatter{}).Format("not an analysis")
	assert.EqualError(t, err, "expected AnalyzeOutput, got string")
}

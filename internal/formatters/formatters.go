package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"resumescan/internal/analysis"
	"resumescan/internal/types"
)

// Data type keys used for formatter lookup
const (
	TypeAny           = "any"
	TypeAnalyzeOutput = "AnalyzeOutput"
	TypeHistory       = "History"
	TypeIndustries    = "Industries"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", TypeAny, &JSONFormatter{})
	registry.RegisterFormatter("text", TypeAnalyzeOutput, &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", TypeAnalyzeOutput, &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", TypeHistory, &HistoryTextFormatter{})
	registry.RegisterFormatter("markdown", TypeHistory, &HistoryMarkdownFormatter{})
	registry.RegisterFormatter("text", TypeIndustries, &IndustriesTextFormatter{})
	registry.RegisterFormatter("markdown", TypeIndustries, &IndustriesMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters[TypeAny]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalyzeOutput:
		return TypeAnalyzeOutput
	case []types.AnalysisSummary:
		return TypeHistory
	case []types.IndustryInfo:
		return TypeIndustries
	default:
		return TypeAny
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return TypeAny
}

// AnalysisTextFormatter renders an analysis as plain text
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalyzeOutput)
	if !ok {
		return "", fmt.Errorf("expected AnalyzeOutput, got %T", data)
	}
	rec := result.Analysis

	var output strings.Builder

	output.WriteString("=== RESUME ANALYSIS ===\n\n")
	if rec.CandidateName != "" {
		output.WriteString(fmt.Sprintf("Candidate: %s\n", rec.CandidateName))
	}
	output.WriteString(fmt.Sprintf("Overall Score: %d/100\n", rec.Score))
	if rec.Industry != "" {
		output.WriteString(fmt.Sprintf("Industry: %s (%s level)\n", rec.Industry, rec.ExperienceLevel))
	}
	if rec.APISource != "" {
		output.WriteString(fmt.Sprintf("Analyzed by: %s\n", rec.APISource))
	}
	if result.ID != "" {
		output.WriteString(fmt.Sprintf("Analysis ID: %s\n", result.ID))
	}
	output.WriteString("\n")

	output.WriteString("=== ATS SCORE ===\n")
	output.WriteString(fmt.Sprintf("Keywords: %d  Format: %d  Overall: %d\n\n",
		rec.ATSScore.Keywords, rec.ATSScore.Format, rec.ATSScore.Overall))

	output.WriteString("=== CONTENT SCORE ===\n")
	output.WriteString(fmt.Sprintf("Grammar: %d  Clarity: %d  Action Verbs: %d\n\n",
		rec.ContentScore.Grammar, rec.ContentScore.Clarity, rec.ContentScore.ActionVerbs))

	if rec.JobMatchScore != nil {
		output.WriteString("=== JOB MATCH ===\n")
		output.WriteString(fmt.Sprintf("Score: %d/100\n", *rec.JobMatchScore))
		if d := rec.JobMatchDetails; d != nil {
			writeTextList(&output, "Matching Keywords", d.MatchingKeywords)
			writeTextList(&output, "Missing Keywords", d.MissingKeywords)
			writeTextList(&output, "Tailoring Tips", d.TailoringTips)
		}
		output.WriteString("\n")
	}

	if len(rec.Suggestions) > 0 {
		output.WriteString("=== SUGGESTIONS ===\n\n")
		for i, s := range rec.Suggestions {
			output.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, strings.ToUpper(s.Type), s.Title))
			if s.Description != "" {
				output.WriteString("   ")
				output.WriteString(s.Description)
				output.WriteString("\n")
			}
			if s.Example != nil {
				output.WriteString("   Example: ")
				output.WriteString(*s.Example)
				output.WriteString("\n")
			}
		}
		output.WriteString("\n")
	}

	output.WriteString("=== KEYWORDS ===\n")
	writeTextList(&output, "Found", rec.Keywords.Found)
	writeTextList(&output, "Missing", rec.Keywords.Missing)
	output.WriteString("\n")

	writeTextList(&output, "Strengths", rec.Strengths)
	writeTextList(&output, "Weaknesses", rec.Weaknesses)
	writeTextList(&output, "Recommendations", rec.Recommendations)
	writeTextList(&output, "Project Ideas", rec.ProjectIdeas)
	writeTextList(&output, "ATS Checklist", rec.ATSCompatibility.ImprovementChecklist)

	if u := result.Usage; u != nil {
		output.WriteString(fmt.Sprintf("\nFree analyses used: %d of %d (%d remaining)\n", u.Used, u.Limit, u.Remaining))
	}

	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return TypeAnalyzeOutput
}

// AnalysisMarkdownFormatter renders an analysis as markdown
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalyzeOutput)
	if !ok {
		return "", fmt.Errorf("expected AnalyzeOutput, got %T", data)
	}
	rec := result.Analysis

	var output strings.Builder

	title := "Resume Analysis"
	if rec.CandidateName != "" {
		title += ": " + rec.CandidateName
	}
	output.WriteString("# " + title + "\n\n")
	output.WriteString(fmt.Sprintf("**Overall Score:** %d/100\n\n", rec.Score))
	if rec.Industry != "" {
		output.WriteString(fmt.Sprintf("**Industry:** %s | **Level:** %s\n\n", rec.Industry, rec.ExperienceLevel))
	}

	output.WriteString("## Scores\n\n")
	output.WriteString("| Area | Score |\n|---|---|\n")
	for _, row := range []struct {
		label string
		score int
	}{
		{"ATS keywords", rec.ATSScore.Keywords},
		{"ATS format", rec.ATSScore.Format},
		{"ATS overall", rec.ATSScore.Overall},
		{"Grammar", rec.ContentScore.Grammar},
		{"Clarity", rec.ContentScore.Clarity},
		{"Action verbs", rec.ContentScore.ActionVerbs},
	} {
		output.WriteString(fmt.Sprintf("| %s | %d |\n", row.label, row.score))
	}
	output.WriteString("\n")

	if rec.JobMatchScore != nil {
		output.WriteString("## Job Match\n\n")
		output.WriteString(fmt.Sprintf("**Score:** %d/100\n\n", *rec.JobMatchScore))
		if d := rec.JobMatchDetails; d != nil {
			writeMarkdownList(&output, "Matching Keywords", d.MatchingKeywords)
			writeMarkdownList(&output, "Missing Keywords", d.MissingKeywords)
			writeMarkdownList(&output, "Tailoring Tips", d.TailoringTips)
		}
	}

	if len(rec.Suggestions) > 0 {
		output.WriteString("## Suggestions\n\n")
		for i, s := range rec.Suggestions {
			output.WriteString(fmt.Sprintf("### %d. %s (%s)\n\n", i+1, s.Title, s.Type))
			if s.Description != "" {
				output.WriteString(s.Description)
				output.WriteString("\n\n")
			}
			if s.Example != nil {
				output.WriteString("> ")
				output.WriteString(*s.Example)
				output.WriteString("\n\n")
			}
		}
	}

	output.WriteString("## Keywords\n\n")
	writeMarkdownList(&output, "Found", rec.Keywords.Found)
	writeMarkdownList(&output, "Missing", rec.Keywords.Missing)

	writeMarkdownList(&output, "Strengths", rec.Strengths)
	writeMarkdownList(&output, "Weaknesses", rec.Weaknesses)
	writeMarkdownList(&output, "Recommendations", rec.Recommendations)
	writeMarkdownList(&output, "Project Ideas", rec.ProjectIdeas)

	if u := result.Usage; u != nil {
		output.WriteString(fmt.Sprintf("_Free analyses used: %d of %d (%d remaining)_\n", u.Used, u.Limit, u.Remaining))
	}

	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return TypeAnalyzeOutput
}

// HistoryTextFormatter renders a user's analysis history as a table
type HistoryTextFormatter struct{}

func (htf *HistoryTextFormatter) Format(data any) (string, error) {
	history, ok := data.([]types.AnalysisSummary)
	if !ok {
		return "", fmt.Errorf("expected []AnalysisSummary, got %T", data)
	}
	if len(history) == 0 {
		return "No analyses found.\n", nil
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("%-36s  %-20s  %5s  %3s  %s\n", "ID", "UPLOADED", "SCORE", "ATS", "FILE"))
	for _, h := range history {
		output.WriteString(fmt.Sprintf("%-36s  %-20s  %5d  %3d  %s\n", h.ID, h.UploadDate, h.Score, h.ATSScore, h.OriginalName))
	}
	return output.String(), nil
}

func (htf *HistoryTextFormatter) SupportedType() string {
	return TypeHistory
}

// HistoryMarkdownFormatter renders a user's analysis history as a markdown table
type HistoryMarkdownFormatter struct{}

func (hmf *HistoryMarkdownFormatter) Format(data any) (string, error) {
	history, ok := data.([]types.AnalysisSummary)
	if !ok {
		return "", fmt.Errorf("expected []AnalysisSummary, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Analysis History\n\n")
	if len(history) == 0 {
		output.WriteString("No analyses found.\n")
		return output.String(), nil
	}
	output.WriteString("| ID | Uploaded | Score | ATS | File |\n|---|---|---|---|---|\n")
	for _, h := range history {
		output.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %s |\n", h.ID, h.UploadDate, h.Score, h.ATSScore, h.OriginalName))
	}
	return output.String(), nil
}

func (hmf *HistoryMarkdownFormatter) SupportedType() string {
	return TypeHistory
}

// IndustriesTextFormatter lists the industry knowledge tables
type IndustriesTextFormatter struct{}

func (itf *IndustriesTextFormatter) Format(data any) (string, error) {
	industries, ok := data.([]types.IndustryInfo)
	if !ok {
		return "", fmt.Errorf("expected []IndustryInfo, got %T", data)
	}

	var output strings.Builder
	for _, info := range industries {
		output.WriteString(fmt.Sprintf("=== %s ===\n", strings.ToUpper(info.Industry)))
		output.WriteString("Keywords: ")
		output.WriteString(strings.Join(info.Keywords, ", "))
		output.WriteString("\n")
		writeTextList(&output, "Projects", info.Projects)
		output.WriteString("\n")
	}
	return output.String(), nil
}

func (itf *IndustriesTextFormatter) SupportedType() string {
	return TypeIndustries
}

// IndustriesMarkdownFormatter lists the industry knowledge tables as markdown
type IndustriesMarkdownFormatter struct{}

func (imf *IndustriesMarkdownFormatter) Format(data any) (string, error) {
	industries, ok := data.([]types.IndustryInfo)
	if !ok {
		return "", fmt.Errorf("expected []IndustryInfo, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Industries\n\n")
	for _, info := range industries {
		output.WriteString(fmt.Sprintf("## %s\n\n", info.Industry))
		output.WriteString("**Keywords:** ")
		output.WriteString(strings.Join(info.Keywords, ", "))
		output.WriteString("\n\n")
		writeMarkdownList(&output, "Projects", info.Projects)
	}
	return output.String(), nil
}

func (imf *IndustriesMarkdownFormatter) SupportedType() string {
	return TypeIndustries
}

// IndustryTable builds the listing for every known industry
func IndustryTable() []types.IndustryInfo {
	industries := analysis.Industries()
	out := make([]types.IndustryInfo, 0, len(industries))
	for _, industry := range industries {
		keywords, _ := analysis.Keywords(industry)
		projects, _ := analysis.Projects(industry)
		out = append(out, types.IndustryInfo{Industry: industry, Keywords: keywords, Projects: projects})
	}
	return out
}

func writeTextList(output *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	output.WriteString(heading + ":\n")
	for _, item := range items {
		output.WriteString(fmt.Sprintf("- %s\n", item))
	}
}

func writeMarkdownList(output *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	output.WriteString("### " + heading + "\n\n")
	for _, item := range items {
		output.WriteString(fmt.Sprintf("- %s\n", item))
	}
	output.WriteString("\n")
}

// GlobalRegistry is the shared formatter registry used by the CLI
var GlobalRegistry = NewFormatterRegistry()

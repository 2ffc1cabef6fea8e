package store

import (
	"regexp"
	"time"

	"resumescan/internal/analysis"
	"resumescan/internal/types"

	"github.com/google/uuid"
)

const storedFileType = "text/plain"

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFileName replaces every character outside [a-zA-Z0-9._-] with '_'
func SanitizeFileName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "_")
}

// AnalysisDocument is the persisted subset of an analysis. The resume text itself is never stored.
type AnalysisDocument struct {
	ID             string         `bson:"id" json:"id"`
	FileName       string         `bson:"fileName" json:"fileName"`
	OriginalName   string         `bson:"originalName" json:"originalName"`
	FileSize       int64          `bson:"fileSize" json:"fileSize"`
	FileType       string         `bson:"fileType" json:"fileType"`
	UploadDate     time.Time      `bson:"uploadDate" json:"uploadDate"`
	UserEmail      string         `bson:"userEmail,omitempty" json:"userEmail,omitempty"`
	AnalysisResult AnalysisResult `bson:"analysisResult" json:"analysisResult"`
}

type AnalysisResult struct {
	Score        int                `bson:"score"`
	ATSScore     ScoreBreakdown     `bson:"atsScore"`
	ContentScore ContentBreakdown   `bson:"contentScore"`
	Suggestions  []StoredSuggestion `bson:"suggestions"`
	Keywords     StoredKeywords     `bson:"keywords"`
}

type ScoreBreakdown struct {
	Keywords int `bson:"keywords"`
	Format   int `bson:"format"`
	Overall  int `bson:"overall"`
}

type ContentBreakdown struct {
	Grammar     int `bson:"grammar"`
	Clarity     int `bson:"clarity"`
	ActionVerbs int `bson:"actionVerbs"`
}

type StoredSuggestion struct {
	Type        string `bson:"type"`
	Title       string `bson:"title"`
	Description string `bson:"description"`
	Example     string `bson:"example,omitempty"`
}

type StoredKeywords struct {
	Found   []string `bson:"found"`
	Missing []string `bson:"missing"`
}

// NewAnalysisDocument builds the history entry for a finished analysis
func NewAnalysisDocument(originalName string, fileSize int64, userEmail string, rec analysis.Record, now time.Time) *AnalysisDocument {
	id := uuid.NewString()

	suggestions := make([]StoredSuggestion, 0, len(rec.Suggestions))
	for _, s := range rec.Suggestions {
		stored := StoredSuggestion{Type: s.Type, Title: s.Title, Description: s.Description}
		if s.Example != nil {
			stored.Example = *s.Example
		}
		suggestions = append(suggestions, stored)
	}

	return &AnalysisDocument{
		ID:           id,
		FileName:     id + ".txt",
		OriginalName: SanitizeFileName(originalName),
		FileSize:     fileSize,
		FileType:     storedFileType,
		UploadDate:   now.UTC(),
		UserEmail:    userEmail,
		AnalysisResult: AnalysisResult{
			Score: rec.Score,
			ATSScore: ScoreBreakdown{
				Keywords: rec.ATSScore.Keywords,
				Format:   rec.ATSScore.Format,
				Overall:  rec.ATSScore.Overall,
			},
			ContentScore: ContentBreakdown{
				Grammar:     rec.ContentScore.Grammar,
				Clarity:     rec.ContentScore.Clarity,
				ActionVerbs: rec.ContentScore.ActionVerbs,
			},
			Suggestions: suggestions,
			Keywords: StoredKeywords{
				Found:   rec.Keywords.Found,
				Missing: rec.Keywords.Missing,
			},
		},
	}
}

// Output rebuilds the stored fields of the analysis. Fields that are not persisted stay zero.
func (d *AnalysisDocument) Output() types.AnalyzeOutput {
	res := d.AnalysisResult
	suggestions := make([]analysis.Suggestion, 0, len(res.Suggestions))
	for _, s := range res.Suggestions {
		out := analysis.Suggestion{Type: s.Type, Title: s.Title, Description: s.Description}
		if s.Example != "" {
			example := s.Example
			out.Example = &example
		}
		suggestions = append(suggestions, out)
	}

	return types.AnalyzeOutput{
		ID:     d.ID,
		Cached: true,
		Analysis: analysis.Record{
			Score: res.Score,
			ATSScore: analysis.ATSScore{
				Keywords: res.ATSScore.Keywords,
				Format:   res.ATSScore.Format,
				Overall:  res.ATSScore.Overall,
			},
			ContentScore: analysis.ContentScore{
				Grammar:     res.ContentScore.Grammar,
				Clarity:     res.ContentScore.Clarity,
				ActionVerbs: res.ContentScore.ActionVerbs,
			},
			Suggestions: suggestions,
			Keywords: analysis.Keywords{
				Found:   res.Keywords.Found,
				Missing: res.Keywords.Missing,
			},
		},
	}
}

// Summary is the history row for the document
func (d *AnalysisDocument) Summary() types.AnalysisSummary {
	return types.AnalysisSummary{
		ID:           d.ID,
		OriginalName: d.OriginalName,
		UploadDate:   d.UploadDate.UTC().Format(time.RFC3339),
		Score:        d.AnalysisResult.Score,
		ATSScore:     d.AnalysisResult.ATSScore.Overall,
	}
}

// User is the quota-relevant part of an account
type User struct {
	Email            string `bson:"email"`
	Name             string `bson:"name,omitempty"`
	SubscriptionTier string `bson:"subscriptionTier"`
	ResumeCount      int    `bson:"resumeCount"`
}

// Tier returns the subscription tier, treating an unset tier as free
func (u *User) Tier() string {
	if u == nil || u.SubscriptionTier == "" {
		return types.TierFree
	}
	return u.SubscriptionTier
}

// UsageAfterAnalysis reports quota consumption once the current analysis is counted.
// Paid tiers have no quota and get nil.
func UsageAfterAnalysis(u *User, limit int) *types.UsageInfo {
	if u == nil || types.IsPaidTier(u.Tier()) {
		return nil
	}
	used := u.ResumeCount + 1
	return &types.UsageInfo{
		Used:      used,
		Limit:     limit,
		Remaining: max(0, limit-used),
	}
}

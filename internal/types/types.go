package types

import "resumescan/internal/analysis"

// Subscription tiers
const (
	TierFree     = "free"
	TierPro      = "pro"
	TierLifetime = "lifetime"
)

// IsPaidTier reports whether tier unlocks job-description matching
func IsPaidTier(tier string) bool {
	return tier == TierPro || tier == TierLifetime
}

// AnalyzeInput represents the input for analyzing a resume
type AnalyzeInput struct {
	ResumeText     string `json:"resumeText" validate:"required,min=50"`
	JobDescription string `json:"jobDescription,omitempty"`
	FileName       string `json:"fileName,omitempty"`
	Tier           string `json:"tier" validate:"required,oneof=free pro lifetime"`
	UserEmail      string `json:"userEmail,omitempty" validate:"omitempty,email"`
}

// AnalyzeOutput represents the output from analyzing a resume
type AnalyzeOutput struct {
	ID       string          `json:"id,omitempty"`
	Provider string          `json:"provider,omitempty"`
	Cached   bool            `json:"cached"`
	Analysis analysis.Record `json:"analysis"`
	Usage    *UsageInfo      `json:"usage,omitempty"`
}

// NormalizeInput represents a raw model response to be repaired offline
type NormalizeInput struct {
	RawResponse string `json:"rawResponse" validate:"required"`
	ResumeText  string `json:"resumeText"`
}

// UsageInfo reports free-tier quota consumption after an analysis
type UsageInfo struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

// AnalysisSummary is one row of a user's analysis history
type AnalysisSummary struct {
	ID           string `json:"id"`
	OriginalName string `json:"originalName"`
	UploadDate   string `json:"uploadDate"`
	Score        int    `json:"score"`
	ATSScore     int    `json:"atsScore"`
}

// IndustryInfo describes one entry of the industry knowledge tables
type IndustryInfo struct {
	Industry string   `json:"industry"`
	Keywords []string `json:"keywords"`
	Projects []string `json:"projects"`
}

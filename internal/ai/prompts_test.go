package ai

import (
	"strings"
	"testing"
	"unicode/utf8"

	"resumescan/internal/types"

	"github.com/stretchr/testify/assert"
)

func TestBuildAnalysisPromptFreeTierIgnoresJobDescription(t *testing.T) {
	prompt := BuildAnalysisPrompt("Jane Doe\nSoftware Engineer", "Senior Go developer wanted", types.TierFree)

	assert.Contains(t, prompt, "Jane Doe\nSoftware Engineer")
	assert.NotContains(t, prompt, "Senior Go developer wanted")
	assert.NotContains(t, prompt, "JOB DESCRIPTION")
	assert.Contains(t, prompt, `"jobMatchScore": null`)
}

func TestBuildAnalysisPromptPaidTierIncludesJobDescription(t *testing.T) {
	for _, tier := range []string{types.TierPro, types.TierLifetime} {
		prompt := BuildAnalysisPrompt("Jane Doe", "Senior Go developer wanted", tier)

		assert.Contains(t, prompt, "JOB DESCRIPTION TO MATCH AGAINST:\nSenior Go developer wanted", tier)
		assert.Contains(t, prompt, "Also analyze the match", tier)
		assert.NotContains(t, prompt, `"jobMatchScore": null`, tier)
	}

	blank := BuildAnalysisPrompt("Jane Doe", "   ", types.TierPro)
	assert.NotContains(t, blank, "JOB DESCRIPTION")
}

func TestBuildAnalysisPromptTruncates(t *testing.T) {
	resume := strings.Repeat("é", maxResumeRunes+100)
	jd := strings.Repeat("j", maxJobRunes+100)

	prompt := BuildAnalysisPrompt(resume, jd, types.TierPro)

	assert.Contains(t, prompt, strings.Repeat("é", maxResumeRunes))
	assert.NotContains(t, prompt, strings.Repeat("é", maxResumeRunes+1))
	assert.Contains(t, prompt, strings.Repeat("j", maxJobRunes))
	assert.NotContains(t, prompt, strings.Repeat("j", maxJobRunes+1))
}

func TestBuildAnalysisPromptListsIndustries(t *testing.T) {
	prompt := BuildAnalysisPrompt("resume", "", types.TierFree)
	assert.Contains(t, prompt, "software|")
	assert.Contains(t, prompt, "|general")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", truncateRunes("héllo", 4))
	assert.Equal(t, "héllo", truncateRunes("héllo", 10))
	assert.Equal(t, "", truncateRunes("héllo", 0))
	assert.True(t, utf8.ValidString(truncateRunes("日本語テキスト", 3)))
}

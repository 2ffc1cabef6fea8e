package ai

import (
	"fmt"
	"strings"

	"resumescan/internal/analysis"
	"resumescan/internal/types"
)

const (
	maxResumeRunes = 6000
	maxJobRunes    = 3000
)

// DefaultSystemPrompt is sent as the system message (OpenAI) or system instruction (Gemini)
const DefaultSystemPrompt = "You are an expert resume analyst and ATS specialist. " +
	"Return ONLY valid JSON. No markdown, no explanation, just the JSON object."

const analysisPromptTemplate = `You are an expert resume analyst, ATS specialist, and career coach with 15+ years of experience. Analyze this resume comprehensively.

IMPORTANT: Return ONLY a valid JSON object. No markdown, no explanation, no text before/after the JSON.
%s
Resume Text:
%s
%s
Return this exact JSON structure:
{
  "candidateName": "Full name from resume",
  "score": 65,
  "industry": "%s",
  "experienceLevel": "mid",
  "atsScore": {
    "keywords": 70,
    "format": 75,
    "overall": 72
  },
  "contentScore": {
    "grammar": 80,
    "clarity": 70,
    "actionVerbs": 65
  },
  "atsCompatibility": {
    "overallScore": 72,
    "formattingScore": 75,
    "keywordScore": 70,
    "contentScore": 70,
    "improvementChecklist": ["Use standard section headers", "Add more quantified achievements"]
  },
  "formattingAnalysis": {
    "hasTables": false,
    "hasGraphics": false,
    "hasHeaders": false,
    "hasFooters": false,
    "usesStandardSections": true,
    "usesBulletPoints": true,
    "fontCompatible": true,
    "hasSpecialCharacters": false
  },
  "sectionAnalysis": {
    "summary": { "exists": true, "length": "medium", "keywordRich": true, "concise": true },
    "experience": { "usesActionVerbs": true, "quantifiedAchievements": false, "focusOnAccomplishments": true, "properFormatting": true },
    "skills": { "includesHardSkills": true, "includesSoftSkills": true, "industryRelevant": true, "properlyCategorized": false },
    "education": { "datesClear": true, "degreesListed": true, "institutionsNamed": true, "relevantCertifications": false }
  },
  "contentQuality": {
    "quantifiedAchievements": 30,
    "actionVerbUsage": 60,
    "vaguePhrases": ["responsible for", "helped with"],
    "genericStatements": ["team player", "hard worker"]
  },
  "suggestions": [
    { "type": "critical", "title": "Add Quantified Achievements", "description": "Replace vague statements with numbers and results.", "example": "Instead of 'led a team', write 'Led 8-person team delivering 3 products on time, saving $40K'" }
  ],
  "keywords": {
    "found": ["Python", "React", "SQL"],
    "missing": ["Docker", "AWS", "CI/CD"],
    "jobSpecific": []
  },
  "strengths": ["Clear skills section", "Relevant experience"],
  "weaknesses": ["Lacks quantified achievements", "No summary section"],
  "recommendations": ["Add measurable results to each role", "Include a professional summary", "List certifications"],
  "projectIdeas": ["Build a portfolio project using your top skills", "Contribute to open source"],
  "trendingTechnologies": ["Docker", "Kubernetes", "LangChain", "Next.js"],
  "jobMatchScore": %s,
  "jobMatchDetails": %s
}

SCORING RULES (be realistic and strict):
- Start at 50 and adjust based on quality
- 90-100: Exceptional, very rare
- 80-89: Very good, minor issues
- 70-79: Good, a few areas to improve
- 60-69: Average, needs work
- 40-59: Below average, significant work needed
- <40: Needs major overhaul

Be specific, constructive, and actionable in all suggestions.`

// BuildAnalysisPrompt renders the analysis prompt. The job description is only
// honoured for paid tiers; free-tier prompts never mention it.
func BuildAnalysisPrompt(resumeText, jobDescription, tier string) string {
	jd := strings.TrimSpace(jobDescription)
	if !types.IsPaidTier(tier) {
		jd = ""
	}

	matchIntro := ""
	jdSection := ""
	matchScore := "null"
	matchDetails := "null"
	if jd != "" {
		matchIntro = "\nAlso analyze the match against the provided job description.\n"
		jdSection = fmt.Sprintf("\nJOB DESCRIPTION TO MATCH AGAINST:\n%s\n\n"+
			`Also calculate "jobMatchScore" (0-100) based on how well this resume matches the job description. `+
			`Include "jobMatchDetails" with "matchingKeywords", "missingKeywords", and "tailoringTips" arrays.`+"\n",
			truncateRunes(jd, maxJobRunes))
		matchScore = "75"
		matchDetails = `{"matchingKeywords": ["Python", "SQL"], "missingKeywords": ["Kubernetes", "Terraform"], "tailoringTips": ["Add cloud experience", "Mention team leadership"]}`
	}

	return fmt.Sprintf(analysisPromptTemplate,
		matchIntro,
		truncateRunes(resumeText, maxResumeRunes),
		jdSection,
		industryHint(),
		matchScore,
		matchDetails,
	)
}

// industryHint lists the accepted industry tags in the example structure
func industryHint() string {
	return strings.Join(analysis.Industries(), "|")
}

// truncateRunes returns at most n runes of s
func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

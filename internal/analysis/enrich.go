package analysis

import (
	"slices"
	"strings"
)

const (
	maxSupplementedKeywords = 8
	maxSupplementedProjects = 5
)

// Enrich fills gaps in a normalized record from the industry tables. It only
// ever extends lists: missing keywords gain canonical keywords the resume does
// not mention, and an empty project list takes the industry's first examples.
// Unknown industries leave both lists untouched.
func Enrich(rec Record, resumeText string) Record {
	if strings.TrimSpace(rec.CandidateName) == "" {
		rec.CandidateName = ExtractName(resumeText)
	}

	if canonical, ok := Keywords(rec.Industry); ok {
		rec.Keywords.Missing = supplementMissing(rec.Keywords.Found, rec.Keywords.Missing, canonical)
	}

	if len(rec.ProjectIdeas) == 0 {
		if projects, ok := Projects(rec.Industry); ok {
			rec.ProjectIdeas = projects[:min(len(projects), maxSupplementedProjects)]
		}
	}

	return rec
}

// supplementMissing appends up to eight canonical keywords absent from found.
// A keyword counts as found when any found entry contains it, ignoring case,
// so "JavaScript" in found also covers "Java".
func supplementMissing(found, missing, canonical []string) []string {
	lowerFound := make([]string, len(found))
	for i, f := range found {
		lowerFound[i] = strings.ToLower(f)
	}

	var extra []string
	for _, kw := range canonical {
		if len(extra) == maxSupplementedKeywords {
			break
		}
		needle := strings.ToLower(kw)
		if slices.ContainsFunc(lowerFound, func(f string) bool { return strings.Contains(f, needle) }) {
			continue
		}
		extra = append(extra, kw)
	}

	existing := make(map[string]struct{}, len(missing))
	for _, m := range missing {
		existing[strings.ToLower(m)] = struct{}{}
	}

	out := slices.Clone(missing)
	if out == nil {
		out = []string{}
	}
	for _, kw := range extra {
		key := strings.ToLower(kw)
		if _, dup := existing[key]; dup {
			continue
		}
		existing[key] = struct{}{}
		out = append(out, kw)
	}
	return out
}

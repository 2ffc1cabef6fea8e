package analysis

import (
	"regexp"
	"strings"
)

// NamePlaceholder is returned when no name-like line is found.
const NamePlaceholder = "there"

const (
	nameScanLines   = 5
	maxCapsNameLen  = 50
	minCapsNameToks = 2
)

var (
	titleCaseName = regexp.MustCompile(`^[A-Z][a-z]+(?: [A-Z][a-z]+)+$`)
	upperCaseName = regexp.MustCompile(`^[A-Z][A-Z ]+$`)
)

// ExtractName guesses the candidate's name from the first few non-blank lines
// of resume text. The first line that looks like "Jane Doe" or "JANE DOE" wins.
func ExtractName(text string) string {
	examined := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if examined == nameScanLines {
			break
		}
		examined++

		if titleCaseName.MatchString(line) {
			return line
		}
		if upperCaseName.MatchString(line) &&
			len(strings.Fields(line)) >= minCapsNameToks &&
			len(line) < maxCapsNameLen {
			return line
		}
	}
	return NamePlaceholder
}

package querytext

import (
	"regexp"
	"strings"
)

var (
	lineBreaks = regexp.MustCompile(`[\r\n]+`)
	spaceRuns  = regexp.MustCompile(`[\s\v\p{Z}\x{85}\x{feff}]+`)
)

// Normalize folds line breaks and whitespace runs into single spaces and trims
// the result. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = lineBreaks.ReplaceAllString(s, " ")
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

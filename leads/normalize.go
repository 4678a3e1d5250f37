package leads

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	horizontalSpaceRE = regexp.MustCompile(`[ \p{Zs}]+`)
	spaceAroundLF     = regexp.MustCompile(` ?\n ?`)
	blankRunRE        = regexp.MustCompile(`\n{3,}`)
)

// Normalize canonicalizes pasted text for pattern matching. It never fails.
//
// NFKC folds compatibility characters (non-breaking spaces, full-width
// digits) into their plain forms before the whitespace passes run.
func Normalize(text string) string {
	s := norm.NFKC.String(text)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\t", "  ")
	s = horizontalSpaceRE.ReplaceAllString(s, " ")
	s = spaceAroundLF.ReplaceAllString(s, "\n")
	s = blankRunRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

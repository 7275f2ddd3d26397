package expr

import (
	"strings"
	"unicode"
)

// Split normalizes raw command line tokens into terms. The tokens are joined,
// all whitespace is dropped, and a new term starts at every + or - that is
// neither the first character nor directly after another sign. The tokens
// "2x+5y-4", "2x + 5y - 4" and "2x", "+5y", "-4" all yield the same terms.
func Split(args []string) []string {
	var sb strings.Builder
	for _, a := range args {
		for _, r := range a {
			if !unicode.IsSpace(r) {
				sb.WriteRune(r)
			}
		}
	}
	joined := sb.String()
	if joined == "" {
		return nil
	}

	var terms []string
	start := 0
	for i := 1; i < len(joined); i++ {
		if isSign(joined[i]) && !isSign(joined[i-1]) {
			terms = append(terms, joined[start:i])
			start = i
		}
	}
	return append(terms, joined[start:])
}

func isSign(c byte) bool { return c == '+' || c == '-' }

package placeholders

import (
	"regexp"

	"github.com/agnivade/levenshtein"

	"github.com/dpshade/pocket-placeholders/internal/models"
)

var candidatePattern = regexp.MustCompile(`\$\{[A-Za-z0-9_]+\}`)

// Finding is a token-shaped string in content that no placeholder is registered for
type Finding struct {
	Token      string `json:"token"`
	Offset     int    `json:"offset"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Lint reports every ${NAME} in content that is not in known, with the closest
// registered token as a suggestion when one is near enough.
func Lint(content string, known *models.PlaceholderSet) []Finding {
	var findings []Finding
	for _, loc := range candidatePattern.FindAllStringIndex(content, -1) {
		token := content[loc[0]:loc[1]]
		if known.Has(token) {
			continue
		}
		findings = append(findings, Finding{
			Token:      token,
			Offset:     loc[0],
			Suggestion: suggest(token, known),
		})
	}
	return findings
}

// suggest returns the registered token closest to token, or "" if none is within
// a third of the token's length.
func suggest(token string, known *models.PlaceholderSet) string {
	best := ""
	bestDistance := len(token)/3 + 1
	for _, candidate := range known.Tokens() {
		d := levenshtein.ComputeDistance(token, candidate)
		if d < bestDistance {
			best, bestDistance = candidate, d
		}
	}
	return best
}

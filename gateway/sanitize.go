package gateway

import (
	"regexp"
	"strings"
)

var (
	fenceOpenRe    = regexp.MustCompile("```[\\w]*\n?")
	leadInRe       = regexp.MustCompile(`(?i)^(Here's|Here is|The code|This|Try|Your completion).*?:\s*`)
	commentNoiseRe = regexp.MustCompile(`(?m)^(//|#)\s*Complet(e|ion).*$`)
)

// sanitizeCompletion strips Markdown fences, leading explanatory phrases
// and placeholder comment noise from a raw model response.
func sanitizeCompletion(raw string) string {
	s := fenceOpenRe.ReplaceAllString(raw, "")
	s = strings.ReplaceAll(s, "```", "")
	s = leadInRe.ReplaceAllString(s, "")
	s = commentNoiseRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

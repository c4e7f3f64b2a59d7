package gateway

import (
	"fmt"
	"regexp"
	"strings"

	"vibetab/types"
)

// Prompt size bounds: the upstream cost stays fixed regardless of file
// size.
const (
	promptBeforeLines = 50
	promptAfterLines  = 5
)

var frameworkPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"React", regexp.MustCompile(`from\s+['"]react['"]|import\s+React`)},
	{"Angular", regexp.MustCompile(`@Component|@angular`)},
	{"Vue", regexp.MustCompile(`from\s+['"]vue['"]`)},
	{"Next.js", regexp.MustCompile(`from\s+['"]next`)},
	{"Express", regexp.MustCompile(`express\(\)|app\.(get|post)\(`)},
	{"FastAPI", regexp.MustCompile(`from\s+fastapi`)},
	{"Hono", regexp.MustCompile(`from\s+['"]@hono`)},
}

func detectFramework(code string) string {
	for _, p := range frameworkPatterns {
		if p.re.MatchString(code) {
			return p.name
		}
	}
	return "None"
}

var intentPatterns = []struct {
	intent string
	re     *regexp.Regexp
}{
	{"declaring a function - need parameters and body", regexp.MustCompile(`^\s*function\s+\w*$`)},
	{"arrow function - need function body", regexp.MustCompile(`^\s*const\s+\w+\s*=\s*\(.*\)\s*=>?\s*$`)},
	{"variable declaration - need value assignment", regexp.MustCompile(`^\s*(const|let|var)\s+\w+\s*=?\s*$`)},
	{"conditional statement - need condition and body", regexp.MustCompile(`^\s*(if|while|for)\s*\(.*\)?\s*$`)},
	{"import statement - need module name", regexp.MustCompile(`^\s*import\s+`)},
	{"class declaration - need class body", regexp.MustCompile(`^\s*class\s+\w*`)},
}

func detectIntent(currentLine string) string {
	trimmed := strings.TrimSpace(currentLine)
	for _, p := range intentPatterns {
		if p.re.MatchString(currentLine) {
			return p.intent
		}
	}
	if strings.HasSuffix(trimmed, ".") || regexp.MustCompile(`\.\w*$`).MatchString(trimmed) {
		return "method call - need method name and arguments"
	}
	if strings.HasSuffix(trimmed, "{") {
		return "object literal - need properties"
	}
	if strings.HasSuffix(trimmed, "[") {
		return "array literal - need elements"
	}
	return "continuing code"
}

var indentRe = regexp.MustCompile(`^\s*`)

// buildPrompt assembles the bounded completion prompt: the last
// promptBeforeLines lines before the cursor, the first promptAfterLines
// after it, and detected language/framework/intent hints.
func buildPrompt(cc *types.CompletionContext) string {
	lines := strings.Split(cc.TextBeforeCursor, "\n")
	recent := lines
	if len(recent) > promptBeforeLines {
		recent = recent[len(recent)-promptBeforeLines:]
	}
	recentContext := strings.Join(recent, "\n")
	currentLine := lines[len(lines)-1]
	indentation := indentRe.FindString(currentLine)

	afterLines := strings.Split(cc.TextAfterCursor, "\n")
	if len(afterLines) > promptAfterLines {
		afterLines = afterLines[:promptAfterLines]
	}
	afterContext := strings.Join(afterLines, "\n")

	framework := detectFramework(cc.TextBeforeCursor)
	intent := detectIntent(currentLine)

	var b strings.Builder
	fmt.Fprintf(&b, "You are a smart code completion AI for %s. Complete ONLY what comes after the cursor.\n\n", cc.Language)
	b.WriteString("Context:\n")
	if framework != "None" {
		fmt.Fprintf(&b, "Framework: %s\n", framework)
	}
	if cc.FileName != "" {
		fmt.Fprintf(&b, "File: %s.%s\n", cc.FileName, cc.FileExtension)
	}
	fmt.Fprintf(&b, "\nFull code BEFORE cursor (what's already typed):\n```%s\n%s\n```\n\n", cc.Language, recentContext)
	fmt.Fprintf(&b, "Current incomplete line:\n%q\n\n", currentLine)
	fmt.Fprintf(&b, "Code AFTER cursor:\n```%s\n%s\n```\n\n", cc.Language, afterContext)
	fmt.Fprintf(&b, "Detected intent: %s\n", intent)
	fmt.Fprintf(&b, "Indentation: %d spaces\n\n", len(indentation))
	b.WriteString(`CRITICAL INSTRUCTIONS:
1. Complete ONLY what naturally comes NEXT from where the cursor is
2. DO NOT repeat any code that is already before the cursor
3. DO NOT suggest code that is already after the cursor
4. Provide 10-50 characters of meaningful completion
5. Match indentation exactly
6. Return ONLY the completion text, NO markdown, NO explanations
`)
	fmt.Fprintf(&b, "\nYour completion (ONLY the text to insert after %q):", currentLine)
	return b.String()
}

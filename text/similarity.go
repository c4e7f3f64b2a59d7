package text

import "github.com/sergi/go-diff/diffmatchpatch"

// LineSimilarity computes a similarity score between two lines in [0, 1]
// using Levenshtein ratio: 1 - distance/maxLen. Empty lines have zero
// similarity with non-empty lines.
func LineSimilarity(line1, line2 string) float64 {
	if line1 == "" && line2 == "" {
		return 1.0
	}
	if line1 == "" || line2 == "" {
		return 0.0
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(line1, line2, false)
	dist := dmp.DiffLevenshtein(diffs)

	maxLen := max(len(line1), len(line2))
	return 1.0 - float64(dist)/float64(maxLen)
}

// FindFirstChangedLine compares old lines with new lines and returns the
// first 1-indexed line number where they differ, plus baseLineOffset.
// Returns 0 when the slices are identical.
func FindFirstChangedLine(oldLines, newLines []string, baseLineOffset int) int {
	minLen := min(len(oldLines), len(newLines))
	for i := 0; i < minLen; i++ {
		if oldLines[i] != newLines[i] {
			return i + 1 + baseLineOffset
		}
	}
	if len(oldLines) != len(newLines) {
		return minLen + 1 + baseLineOffset
	}
	return 0
}

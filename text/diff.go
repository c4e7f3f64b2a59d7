package text

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineKind classifies one aligned diff row.
type LineKind int

const (
	LineEqual LineKind = iota
	LineInsert
	LineDelete
	LineModify
)

// String returns the wire representation of a line kind.
func (k LineKind) String() string {
	switch k {
	case LineEqual:
		return "equal"
	case LineInsert:
		return "insert"
	case LineDelete:
		return "delete"
	case LineModify:
		return "modify"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind by name.
func (k LineKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name.
func (k *LineKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "equal":
		*k = LineEqual
	case "insert":
		*k = LineInsert
	case "delete":
		*k = LineDelete
	case "modify":
		*k = LineModify
	default:
		return fmt.Errorf("unknown line kind %q", s)
	}
	return nil
}

// DiffLine is one aligned row of a line-level diff.
//
// Which fields are meaningful depends on Kind: equal and modify rows carry
// both sides, insert rows carry only the modified side, delete rows only
// the original side. An absent side has empty text and line number 0.
// Line numbers are 1-indexed.
type DiffLine struct {
	Kind     LineKind `json:"kind"`
	Original string   `json:"original,omitempty"`
	Modified string   `json:"modified,omitempty"`
	OrigLine int      `json:"orig_line,omitempty"`
	ModLine  int      `json:"mod_line,omitempty"`
	ColStart int      `json:"col_start,omitempty"` // modify rows: changed byte span within Modified
	ColEnd   int      `json:"col_end,omitempty"`
}

// DiffStats are pure counts over a diff sequence.
type DiffStats struct {
	Additions     int `json:"additions"`
	Deletions     int `json:"deletions"`
	Modifications int `json:"modifications"`
	Total         int `json:"total"`
}

// lookaheadRadius bounds the resynchronization search. The aligner is a
// greedy heuristic optimized for mostly-similar files, not a minimal edit
// distance; divergence that does not resync within the radius is treated
// as a 1:1 substitution.
const lookaheadRadius = 5

// SplitLines splits text by newline and removes a single trailing empty
// element, so a final newline does not produce a phantom line and the
// empty string yields no lines.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// ComputeDiff aligns two text buffers line by line. It walks both line
// arrays with two cursors, emitting equal rows while the lines match and
// searching a bounded lookahead window for a resynchronization point when
// they do not. Total over all string pairs; never fails.
func ComputeDiff(original, modified string) []DiffLine {
	orig := SplitLines(original)
	mod := SplitLines(modified)

	diff := make([]DiffLine, 0, max(len(orig), len(mod)))
	i, j := 0, 0

	for i < len(orig) || j < len(mod) {
		if i < len(orig) && j < len(mod) && orig[i] == mod[j] {
			diff = append(diff, DiffLine{
				Kind:     LineEqual,
				Original: orig[i],
				Modified: mod[j],
				OrigLine: i + 1,
				ModLine:  j + 1,
			})
			i++
			j++
			continue
		}

		found := false
		for k := 1; k <= lookaheadRadius && !found; k++ {
			switch {
			case j < len(mod) && i+k < len(orig) && orig[i+k] == mod[j]:
				// Lines were removed from the original.
				for d := 0; d < k; d++ {
					diff = append(diff, DiffLine{
						Kind:     LineDelete,
						Original: orig[i+d],
						OrigLine: i + d + 1,
					})
				}
				i += k
				found = true
			case i < len(orig) && j+k < len(mod) && mod[j+k] == orig[i]:
				// Lines were inserted into the modified text.
				for d := 0; d < k; d++ {
					diff = append(diff, DiffLine{
						Kind:     LineInsert,
						Modified: mod[j+d],
						ModLine:  j + d + 1,
					})
				}
				j += k
				found = true
			}
		}
		if found {
			continue
		}

		switch {
		case i < len(orig) && j < len(mod):
			// No resync point within the window: treat as substitution.
			start, end := changedSpan(orig[i], mod[j])
			diff = append(diff, DiffLine{
				Kind:     LineModify,
				Original: orig[i],
				Modified: mod[j],
				OrigLine: i + 1,
				ModLine:  j + 1,
				ColStart: start,
				ColEnd:   end,
			})
			i++
			j++
		case i < len(orig):
			diff = append(diff, DiffLine{
				Kind:     LineDelete,
				Original: orig[i],
				OrigLine: i + 1,
			})
			i++
		default:
			diff = append(diff, DiffLine{
				Kind:     LineInsert,
				Modified: mod[j],
				ModLine:  j + 1,
			})
			j++
		}
	}

	return diff
}

// GetDiffStats counts rows by kind. Total is the sequence length.
func GetDiffStats(diff []DiffLine) DiffStats {
	stats := DiffStats{Total: len(diff)}
	for _, line := range diff {
		switch line.Kind {
		case LineInsert:
			stats.Additions++
		case LineDelete:
			stats.Deletions++
		case LineModify:
			stats.Modifications++
		}
	}
	return stats
}

// spanSimilarityFloor is the minimum line similarity for a character-level
// span to be meaningful. Below it the whole line is the change.
const spanSimilarityFloor = 0.2

// changedSpan returns the changed byte range within the modified line of a
// substitution, using a semantic character diff. Falls back to the whole
// line when the lines share too little for a narrow span to make sense.
func changedSpan(oldLine, newLine string) (int, int) {
	if LineSimilarity(oldLine, newLine) < spanSimilarityFloor {
		return 0, len(newLine)
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldLine, newLine, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	pos := 0
	start, end := -1, -1
	hasEqual := false
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			hasEqual = true
			pos += len(d.Text)
		case diffmatchpatch.DiffInsert:
			if start == -1 {
				start = pos
			}
			pos += len(d.Text)
			end = pos
		case diffmatchpatch.DiffDelete:
			if start == -1 {
				start = pos
				end = pos
			}
		}
	}
	if !hasEqual || start == -1 {
		return 0, len(newLine)
	}
	if end < start {
		end = start
	}
	return start, end
}

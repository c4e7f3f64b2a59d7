package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(diff []DiffLine) []LineKind {
	out := make([]LineKind, len(diff))
	for i, d := range diff {
		out[i] = d.Kind
	}
	return out
}

func TestComputeDiffIdentical(t *testing.T) {
	content := "line 1\nline 2\nline 3"

	diff := ComputeDiff(content, content)

	require.Len(t, diff, 3)
	for i, line := range diff {
		assert.Equal(t, LineEqual, line.Kind)
		assert.Equal(t, line.Original, line.Modified)
		assert.Equal(t, i+1, line.OrigLine)
		assert.Equal(t, i+1, line.ModLine)
	}

	stats := GetDiffStats(diff)
	assert.Equal(t, DiffStats{Total: 3}, stats)
}

func TestComputeDiffEmpty(t *testing.T) {
	assert.Empty(t, ComputeDiff("", ""))
	assert.Equal(t, DiffStats{}, GetDiffStats(ComputeDiff("", "")))
}

func TestComputeDiffTrailingNewline(t *testing.T) {
	// A final newline does not produce a phantom empty line.
	diff := ComputeDiff("a\nb\n", "a\nb")
	assert.Equal(t, []LineKind{LineEqual, LineEqual}, kinds(diff))
}

func TestComputeDiffDeletion(t *testing.T) {
	diff := ComputeDiff("line 1\nline 2\nline 3\nline 4", "line 1\nline 3\nline 4")

	assert.Equal(t, []LineKind{LineEqual, LineDelete, LineEqual, LineEqual}, kinds(diff))
	assert.Equal(t, "line 2", diff[1].Original)
	assert.Equal(t, 2, diff[1].OrigLine)
	assert.Zero(t, diff[1].ModLine)

	stats := GetDiffStats(diff)
	assert.Equal(t, 1, stats.Deletions)
	assert.Zero(t, stats.Additions)
}

func TestComputeDiffInsertion(t *testing.T) {
	diff := ComputeDiff("line 1\nline 3\nline 4", "line 1\nline 2\nline 3\nline 4")

	assert.Equal(t, []LineKind{LineEqual, LineInsert, LineEqual, LineEqual}, kinds(diff))
	assert.Equal(t, "line 2", diff[1].Modified)
	assert.Equal(t, 2, diff[1].ModLine)
	assert.Zero(t, diff[1].OrigLine)
}

func TestComputeDiffAsymmetry(t *testing.T) {
	original := "a\nb\nc"
	modified := "a\nc"

	forward := GetDiffStats(ComputeDiff(original, modified))
	backward := GetDiffStats(ComputeDiff(modified, original))

	assert.Equal(t, 1, forward.Deletions)
	assert.Zero(t, forward.Additions)
	assert.Equal(t, 1, backward.Additions)
	assert.Zero(t, backward.Deletions)
}

func TestComputeDiffModification(t *testing.T) {
	diff := ComputeDiff("a\nb\nc", "a\nx\nc")

	assert.Equal(t, []LineKind{LineEqual, LineModify, LineEqual}, kinds(diff))
	assert.Equal(t, "b", diff[1].Original)
	assert.Equal(t, "x", diff[1].Modified)
	assert.Equal(t, 2, diff[1].OrigLine)
	assert.Equal(t, 2, diff[1].ModLine)

	stats := GetDiffStats(diff)
	assert.Equal(t, DiffStats{Modifications: 1, Total: 3}, stats)
}

func TestComputeDiffModifySpan(t *testing.T) {
	diff := ComputeDiff("hello world", "hello there world")

	require.Len(t, diff, 1)
	require.Equal(t, LineModify, diff[0].Kind)
	assert.Equal(t, 6, diff[0].ColStart)
	assert.Equal(t, 12, diff[0].ColEnd)
	assert.Equal(t, "there ", diff[0].Modified[diff[0].ColStart:diff[0].ColEnd])
}

func TestComputeDiffAppendAtEnd(t *testing.T) {
	diff := ComputeDiff("a", "a\nb\nc")

	assert.Equal(t, []LineKind{LineEqual, LineInsert, LineInsert}, kinds(diff))
	assert.Equal(t, "b", diff[1].Modified)
	assert.Equal(t, "c", diff[2].Modified)
}

func TestComputeDiffTruncateAtEnd(t *testing.T) {
	diff := ComputeDiff("a\nb\nc", "a")

	assert.Equal(t, []LineKind{LineEqual, LineDelete, LineDelete}, kinds(diff))
}

func TestComputeDiffDivergenceBeyondLookahead(t *testing.T) {
	// No shared line within the lookahead window: each pair becomes a
	// substitution rather than a delete/insert avalanche.
	original := "alpha\nbravo\ncharlie"
	modified := "delta\necho\nfoxtrot"

	diff := ComputeDiff(original, modified)

	assert.Equal(t, []LineKind{LineModify, LineModify, LineModify}, kinds(diff))
	stats := GetDiffStats(diff)
	assert.Equal(t, 3, stats.Modifications)
}

func TestComputeDiffResyncWithinLookahead(t *testing.T) {
	// Five inserted lines sit exactly at the lookahead radius.
	inserted := []string{"i1", "i2", "i3", "i4", "i5"}
	original := "keep\ntail"
	modified := "keep\n" + strings.Join(inserted, "\n") + "\ntail"

	diff := ComputeDiff(original, modified)

	require.Len(t, diff, 7)
	assert.Equal(t, LineEqual, diff[0].Kind)
	for i, want := range inserted {
		assert.Equal(t, LineInsert, diff[1+i].Kind)
		assert.Equal(t, want, diff[1+i].Modified)
	}
	assert.Equal(t, LineEqual, diff[6].Kind)
}

func TestSplitLines(t *testing.T) {
	assert.Empty(t, SplitLines(""))
	assert.Equal(t, []string{"a"}, SplitLines("a"))
	assert.Equal(t, []string{"a"}, SplitLines("a\n"))
	assert.Equal(t, []string{"a", ""}, SplitLines("a\n\n"))
	assert.Equal(t, []string{"a", "b"}, SplitLines("a\nb"))
}

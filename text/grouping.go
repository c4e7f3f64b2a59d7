package text

// DiffBlock is a contiguous run of diff rows grouped for display. Blocks
// partition the diff sequence: every row belongs to exactly one block, in
// order. A block with HasChanges=false contains only equal rows and
// represents collapsible context.
type DiffBlock struct {
	StartIndex int        `json:"start_index"`
	Lines      []DiffLine `json:"lines"`
	HasChanges bool       `json:"has_changes"`
}

// GroupDiffBlocks splits a diff into display blocks. A change block absorbs
// up to contextLines equal rows before its first change and after its last
// one. Equal runs between change clusters longer than 2*contextLines
// surface as their own collapsible block; shorter runs are kept as shared
// context, merging the flanking clusters into a single block. A diff with
// no changes (including an empty diff) yields one zero-change block
// wrapping the whole sequence.
func GroupDiffBlocks(diff []DiffLine, contextLines int) []DiffBlock {
	if contextLines < 0 {
		contextLines = 0
	}

	var changed []int
	for idx, line := range diff {
		if line.Kind != LineEqual {
			changed = append(changed, idx)
		}
	}
	if len(changed) == 0 {
		return []DiffBlock{{StartIndex: 0, Lines: diff, HasChanges: false}}
	}

	// Cluster change indices: clusters separated by an equal run short
	// enough to serve as shared context collapse into one.
	type span struct{ start, end int }
	var clusters []span
	cur := span{changed[0], changed[0]}
	for _, idx := range changed[1:] {
		if idx-cur.end-1 <= 2*contextLines {
			cur.end = idx
		} else {
			clusters = append(clusters, cur)
			cur = span{idx, idx}
		}
	}
	clusters = append(clusters, cur)

	var blocks []DiffBlock
	pos := 0
	for _, cl := range clusters {
		blockStart := max(cl.start-contextLines, pos)
		blockEnd := min(cl.end+contextLines, len(diff)-1)

		if blockStart > pos {
			blocks = append(blocks, DiffBlock{
				StartIndex: pos,
				Lines:      diff[pos:blockStart],
				HasChanges: false,
			})
		}
		blocks = append(blocks, DiffBlock{
			StartIndex: blockStart,
			Lines:      diff[blockStart : blockEnd+1],
			HasChanges: true,
		})
		pos = blockEnd + 1
	}
	if pos < len(diff) {
		blocks = append(blocks, DiffBlock{
			StartIndex: pos,
			Lines:      diff[pos:],
			HasChanges: false,
		})
	}

	return blocks
}

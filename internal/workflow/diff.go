// ABOUTME: Line diff between proposal revisions for audit events
// ABOUTME: Renders a compact +/- text diff, truncated past a line cap

package workflow

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const maxDiffLines = 200

// revisionDiff returns a line-oriented +/- diff between two proposal
// versions, truncated if it exceeds maxDiffLines.
func revisionDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	beforeChars, afterChars, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(beforeChars, afterChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var b strings.Builder
	lines := 0
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			if lines >= maxDiffLines {
				b.WriteString("... diff truncated\n")
				return b.String()
			}
			b.WriteString(prefix)
			b.WriteString(line)
			b.WriteByte('\n')
			lines++
		}
	}
	return b.String()
}

// ABOUTME: Tests for the revision diff helper
// ABOUTME: Verifies added/removed markers and the truncation cap

package workflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRevisionDiff(t *testing.T) {
	before := "line one\nline two\nline three\n"
	after := "line one\nline 2\nline three\n"

	diff := revisionDiff(before, after)
	assert.Contains(t, diff, "- line two")
	assert.Contains(t, diff, "+ line 2")
	assert.Contains(t, diff, "  line one")
}

func TestRevisionDiff_Truncates(t *testing.T) {
	var b strings.Builder
	for i := 0; i < maxDiffLines*2; i++ {
		b.WriteString("x\n")
	}

	diff := revisionDiff("", b.String())
	assert.Contains(t, diff, "diff truncated")
	assert.LessOrEqual(t, len(strings.Split(diff, "\n")), maxDiffLines+2)
}

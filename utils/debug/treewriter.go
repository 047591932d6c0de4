// Package debug renders internal converter state in a readable
// line-oriented form for inclusion in debug reports.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

const indentStep = "  "

// TreeWriter accumulates an indented dump of a node hierarchy. Depth zero
// is the left margin, each level adds two spaces.
type TreeWriter struct {
	sb strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return new(TreeWriter)
}

func (tw *TreeWriter) String() string {
	return tw.sb.String()
}

// Line appends a formatted line at the requested depth.
func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.sb.WriteString(strings.Repeat(indentStep, depth))
	fmt.Fprintf(&tw.sb, format, args...)
	tw.sb.WriteByte('\n')
}

// TextBlock appends a labeled value, quoted so embedded newlines and control
// characters stay on a single line.
func (tw *TreeWriter) TextBlock(depth int, label, value string) {
	tw.sb.WriteString(strings.Repeat(indentStep, depth))
	tw.sb.WriteString(label)
	tw.sb.WriteString(": ")
	tw.sb.WriteString(quoteRaw(value))
	tw.sb.WriteByte('\n')
}

// quoteRaw escapes a value for single-line output, leaving empty values empty.
func quoteRaw(value string) string {
	if value == "" {
		return value
	}
	return strconv.Quote(value)
}

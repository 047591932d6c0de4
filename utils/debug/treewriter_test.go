package debug

import (
	"strings"
	"testing"
)

func TestTreeWriterLine(t *testing.T) {
	tests := []struct {
		name   string
		depth  int
		format string
		args   []any
		want   string
	}{
		{"left margin", 0, "test", nil, "test\n"},
		{"one level", 1, "indented", nil, "  indented\n"},
		{"two levels", 2, "deep", nil, "    deep\n"},
		{"formatted", 1, "value: %d", []any{42}, "  value: 42\n"},
		{"several args", 0, "%s = %d", []any{"count", 5}, "count = 5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.Line(tt.depth, tt.format, tt.args...)
			if got := tw.String(); got != tt.want {
				t.Errorf("Line() produced %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriterTextBlock(t *testing.T) {
	tests := []struct {
		name  string
		depth int
		label string
		value string
		want  string
	}{
		{"empty value", 0, "field", "", "field: \n"},
		{"plain value", 0, "text", "hello world", "text: \"hello world\"\n"},
		{"indented", 2, "nested", "data", "    nested: \"data\"\n"},
		{"embedded quotes", 0, "quoted", `he said "hello"`, "quoted: \"he said \\\"hello\\\"\"\n"},
		{"embedded newline", 0, "multiline", "line1\nline2", "multiline: \"line1\\nline2\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.TextBlock(tt.depth, tt.label, tt.value)
			if got := tw.String(); got != tt.want {
				t.Errorf("TextBlock() produced %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuoteRaw(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"hello", `"hello"`},
		{`say "hi"`, `"say \"hi\""`},
		{"col1\tcol2", `"col1\tcol2"`},
		{`path\to\file`, `"path\\to\\file"`},
	}

	for _, tt := range tests {
		if got := quoteRaw(tt.input); got != tt.want {
			t.Errorf("quoteRaw(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTreeWriterHierarchy(t *testing.T) {
	tw := NewTreeWriter()
	tw.Line(0, "frame %q", "Hero")
	tw.Line(1, "frame %q", "Header")
	tw.TextBlock(2, "text", "Welcome")
	tw.Line(1, "rectangle %q", "Divider")
	tw.Line(1, "frame %q", "Footer")
	tw.TextBlock(2, "text", "Unsubscribe")

	got := tw.String()
	for _, line := range []string{
		"frame \"Hero\"\n",
		"  frame \"Header\"\n",
		"    text: \"Welcome\"\n",
		"  rectangle \"Divider\"\n",
		"    text: \"Unsubscribe\"\n",
	} {
		if !strings.Contains(got, line) {
			t.Errorf("dump is missing line %q:\n%s", line, got)
		}
	}
}

package email

import (
	"testing"
)

func TestFontStack(t *testing.T) {
	tests := []struct {
		name   string
		family string
		want   string
	}{
		{"empty family", "", stackSans},
		{"sans default", "Inter", "Inter, " + stackSans},
		{"serif keyword", "Playfair Display", "'Playfair Display', " + stackSerif},
		{"times", "Times New Roman", "'Times New Roman', " + stackSerif},
		{"mono keyword", "Roboto Mono", "'Roboto Mono', " + stackMono},
		{"code keyword", "Source Code Pro", "'Source Code Pro', " + stackMono},
		{"cursive keyword", "Dancing Script", "'Dancing Script', " + stackCursive},
		{"sans guard", "Open Sans Serif", "'Open Sans Serif', " + stackSans},
		{"no quoting needed", "Georgia", "Georgia, " + stackSerif},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fontStack(tt.family, nil); got != tt.want {
				t.Errorf("fontStack(%q) = %q, want %q", tt.family, got, tt.want)
			}
		})
	}
}

func TestFontStack_UserOverrides(t *testing.T) {
	extra := map[string]string{
		"Inter": "Inter, Helvetica Neue, Helvetica, Arial, sans-serif",
	}
	if got := fontStack("Inter", extra); got != extra["Inter"] {
		t.Errorf("fontStack() = %q, want user override", got)
	}
	// unknown families still go through the heuristics
	if got := fontStack("Lora", extra); got != "Lora, "+stackSerif {
		t.Errorf("fontStack(Lora) = %q", got)
	}
}

func TestQuoteFamily(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Georgia", "Georgia"},
		{"Open Sans", "'Open Sans'"},
		{"O'Brien", `'O\'Brien'`},
	}
	for _, tt := range tests {
		if got := quoteFamily(tt.in); got != tt.want {
			t.Errorf("quoteFamily(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

package email

import (
	"strings"
)

// Web-safe fallback stacks. Email clients ignore webfonts more often than
// not, so every family is mapped onto one of these by keyword.
const (
	stackSans    = "Arial, Helvetica, sans-serif"
	stackSerif   = "Georgia, 'Times New Roman', Times, serif"
	stackMono    = "'Courier New', Courier, monospace"
	stackCursive = "'Comic Sans MS', cursive"
)

var serifKeywords = []string{
	"serif", "georgia", "times", "garamond", "baskerville", "caslon",
	"playfair", "merriweather", "lora", "charter", "cambria", "didot",
	"bodoni", "book",
}

var monoKeywords = []string{
	"mono", "code", "courier", "consol", "menlo", "inconsolata", "hack",
	"terminal", "typewriter",
}

var cursiveKeywords = []string{
	"script", "cursive", "hand", "brush", "comic", "marker",
}

// fontStack maps a font family name to a CSS font-family declaration value:
// the family itself first, then a web-safe fallback stack chosen by keyword.
// User-provided stacks take precedence over the heuristics.
func fontStack(family string, extra map[string]string) string {
	if family == "" {
		return stackSans
	}
	if stack, ok := extra[family]; ok && stack != "" {
		return stack
	}

	lower := strings.ToLower(family)
	fallback := stackSans
	switch {
	case containsAny(lower, monoKeywords):
		fallback = stackMono
	case containsAny(lower, serifKeywords):
		// "sans" wins over sneaky matches like "Comic Sans Serif Pro"
		if !strings.Contains(lower, "sans") {
			fallback = stackSerif
		}
	case containsAny(lower, cursiveKeywords):
		fallback = stackCursive
	}
	return quoteFamily(family) + ", " + fallback
}

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// quoteFamily single-quotes family names which need it per CSS syntax.
func quoteFamily(family string) string {
	if !strings.ContainsAny(family, " \t'\"") {
		return family
	}
	return "'" + strings.ReplaceAll(family, "'", `\'`) + "'"
}

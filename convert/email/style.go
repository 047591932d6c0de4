package email

import (
	"bytes"
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// decl is one CSS declaration. Style attributes are composed from typed
// values and serialized once, string parsing only happens in SanitizeStyle.
type decl struct {
	name  string
	value string
}

// serializeDecls renders declarations as "prop:value" pairs joined by ";",
// de-duplicated by property name with last write winning.
func serializeDecls(decls []decl) string {
	last := make(map[string]int, len(decls))
	order := make([]string, 0, len(decls))
	for i, d := range decls {
		if _, seen := last[d.name]; !seen {
			order = append(order, d.name)
		}
		last[d.name] = i
	}

	var b strings.Builder
	for i, name := range order {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(decls[last[name]].value)
	}
	return b.String()
}

// SanitizeStyle normalizes an inline style declaration list: declarations are
// de-duplicated by property name (last write wins) and zero-valued
// declarations of the padding/margin/border/border-radius families are
// dropped - several legacy renderers misread zero shorthand resets when mixed
// with real values. Everything else passes through unchanged. The operation
// is idempotent.
func SanitizeStyle(style string) string {
	if style == "" {
		return ""
	}

	var decls []decl
	p := css.NewParser(parse.NewInput(bytes.NewReader([]byte(style))), true)
loop:
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			break loop
		case css.DeclarationGrammar:
			name := string(data)
			value := tokensToValue(p.Values())
			if value == "" {
				continue
			}
			if isSpacingFamily(name) && isZeroValue(value) {
				continue
			}
			decls = append(decls, decl{name: name, value: value})
		case css.CustomPropertyGrammar:
			// no custom properties in email markup
			continue
		}
	}
	return serializeDecls(decls)
}

func tokensToValue(tokens []css.Token) string {
	var parts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			parts = append(parts, string(t.Data))
		} else if len(parts) > 0 && parts[len(parts)-1] != " " {
			parts = append(parts, " ")
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}

func isSpacingFamily(name string) bool {
	name = strings.ToLower(name)
	return strings.HasPrefix(name, "padding") ||
		strings.HasPrefix(name, "margin") ||
		strings.HasPrefix(name, "border")
}

// isZeroValue reports whether every component of a declaration value is a
// zero length ("0", "0px", "0 0", "0em 0em").
func isZeroValue(value string) bool {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		num := strings.TrimRightFunc(f, func(r rune) bool {
			return r == '%' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		})
		v, err := strconv.ParseFloat(num, 64)
		if err != nil || v != 0 {
			return false
		}
	}
	return true
}

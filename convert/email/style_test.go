package email

import (
	"testing"
)

func TestSerializeDecls(t *testing.T) {
	tests := []struct {
		name  string
		decls []decl
		want  string
	}{
		{"empty", nil, ""},
		{"single", []decl{{"color", "#fff"}}, "color:#fff"},
		{"ordered", []decl{{"width", "100%"}, {"color", "#fff"}}, "width:100%;color:#fff"},
		{"last write wins", []decl{{"color", "#fff"}, {"width", "10px"}, {"color", "#000"}}, "color:#000;width:10px"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serializeDecls(tt.decls); got != tt.want {
				t.Errorf("serializeDecls() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeStyle(t *testing.T) {
	tests := []struct {
		name  string
		style string
		want  string
	}{
		{"empty", "", ""},
		{"passthrough", "color:#ffffff;width:100%", "color:#ffffff;width:100%"},
		{"zero padding dropped", "padding:0;color:#ffffff", "color:#ffffff"},
		{"zero padding with unit dropped", "padding-top:0px;color:#ffffff", "color:#ffffff"},
		{"zero margin shorthand dropped", "margin:0 0 0 0;width:100%", "width:100%"},
		{"zero border dropped", "border:0", ""},
		{"real border kept", "border:1px solid #000000", "border:1px solid #000000"},
		{"nonzero padding kept", "padding:8px", "padding:8px"},
		{"mixed zero components kept", "margin:0 8px", "margin:0 8px"},
		{"zero percent dropped", "padding-left:0%", ""},
		{"zero unrelated kept", "font-size:0px", "font-size:0px"},
		{"duplicates last wins", "color:#ffffff;color:#000000", "color:#000000"},
		{"whitespace normalized", "width: 100% ;color: #ffffff", "width:100%;color:#ffffff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeStyle(tt.style)
			if got != tt.want {
				t.Errorf("SanitizeStyle(%q) = %q, want %q", tt.style, got, tt.want)
			}
			// sanitized output must survive another pass unchanged
			if again := SanitizeStyle(got); again != got {
				t.Errorf("SanitizeStyle not idempotent: %q -> %q", got, again)
			}
		})
	}
}

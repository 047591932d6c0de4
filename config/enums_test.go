package config

import (
	"testing"
)

func TestParseImageExportMode(t *testing.T) {
	for _, name := range ImageExportModeNames() {
		m, err := ParseImageExportMode(name)
		if err != nil {
			t.Errorf("ParseImageExportMode(%q) error = %v", name, err)
		}
		if m.String() != name {
			t.Errorf("ParseImageExportMode(%q).String() = %q", name, m.String())
		}
	}

	if _, err := ParseImageExportMode("Placeholder"); err == nil {
		t.Error("Expected error for wrong case, mode names are case sensitive")
	}
	if _, err := ParseImageExportMode(""); err == nil {
		t.Error("Expected error for empty mode name")
	}
}

func TestParseWidthMode(t *testing.T) {
	for _, name := range WidthModeNames() {
		m, err := ParseWidthMode(name)
		if err != nil {
			t.Errorf("ParseWidthMode(%q) error = %v", name, err)
		}
		if m.String() != name {
			t.Errorf("ParseWidthMode(%q).String() = %q", name, m.String())
		}
	}

	if _, err := ParseWidthMode("fluidmax"); err == nil {
		t.Error("Expected error for wrong case, mode names are case sensitive")
	}
}

func TestWidthModeString_OutOfRange(t *testing.T) {
	if got := WidthMode(42).String(); got != "WidthMode(42)" {
		t.Errorf("String() = %q, want WidthMode(42)", got)
	}
}

package config

import (
	"fmt"
)

// Specification of requested image handling mode.
type ImageExportMode int

const (
	// ImageExportModePlaceholder substitutes every image with a deterministic
	// external placeholder URL, no rasterization happens.
	ImageExportModePlaceholder ImageExportMode = iota
	// ImageExportModeInline embeds rasterized images as data URIs.
	ImageExportModeInline
	// ImageExportModeAssets references sequentially named files and returns
	// rasterized bytes alongside the markup.
	ImageExportModeAssets
)

var imageExportModeNames = []string{"placeholder", "inline", "assets"}

func (m ImageExportMode) String() string {
	if m < 0 || int(m) >= len(imageExportModeNames) {
		return fmt.Sprintf("ImageExportMode(%d)", int(m))
	}
	return imageExportModeNames[m]
}

func (m ImageExportMode) MarshalYAML() (any, error) {
	return m.String(), nil
}

func (m *ImageExportMode) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseImageExportMode(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func ParseImageExportMode(name string) (ImageExportMode, error) {
	for i, n := range imageExportModeNames {
		if n == name {
			return ImageExportMode(i), nil
		}
	}
	return ImageExportModePlaceholder, fmt.Errorf("%q is not a valid ImageExportMode", name)
}

func ImageExportModeNames() []string {
	out := make([]string, len(imageExportModeNames))
	copy(out, imageExportModeNames)
	return out
}

// Specification of requested output table width handling.
type WidthMode int

const (
	// WidthModeFluid renders outer tables at 100% width.
	WidthModeFluid WidthMode = iota
	// WidthModeLiteral renders outer tables at their literal pixel width
	// clamped to available width.
	WidthModeLiteral
	// WidthModeFluidMax renders outer tables at 100% width capped by the
	// node's own pixel width via max-width.
	WidthModeFluidMax
)

var widthModeNames = []string{"fluid", "literal", "fluidMax"}

func (m WidthMode) String() string {
	if m < 0 || int(m) >= len(widthModeNames) {
		return fmt.Sprintf("WidthMode(%d)", int(m))
	}
	return widthModeNames[m]
}

func (m WidthMode) MarshalYAML() (any, error) {
	return m.String(), nil
}

func (m *WidthMode) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseWidthMode(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func ParseWidthMode(name string) (WidthMode, error) {
	for i, n := range widthModeNames {
		if n == name {
			return WidthMode(i), nil
		}
	}
	return WidthModeFluid, fmt.Errorf("%q is not a valid WidthMode", name)
}

func WidthModeNames() []string {
	out := make([]string, len(widthModeNames))
	copy(out, widthModeNames)
	return out
}

// Package config defines program configuration along with its processing and validation.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	ImagesConfig struct {
		Mode ImageExportMode `yaml:"mode"`
		// Base URL for placeholder mode, dimensions are appended as path elements.
		PlaceholderBaseURL string  `yaml:"placeholder_base_url" validate:"required,url"`
		ExportScale        float64 `yaml:"export_scale" validate:"gte=1.0,lte=4.0"`
	}

	WidthConfig struct {
		Mode WidthMode `yaml:"mode"`
		// Minimal pixel width for an intermediate container to be promoted to
		// a fluid table with max-width cap (fluidMax mode only).
		FluidMaxThreshold float64 `yaml:"fluid_max_threshold" validate:"gte=0"`
	}

	FontsConfig struct {
		// Extra family name to fallback stack mappings consulted before the
		// built-in keyword heuristics.
		Stacks map[string]string `yaml:"stacks"`
	}

	DocumentConfig struct {
		OutputNameTemplate    string       `yaml:"output_name_template"`
		FileNameTransliterate bool         `yaml:"file_name_transliterate"`
		Images                ImagesConfig `yaml:"images"`
		Width                 WidthConfig  `yaml:"width"`
		Fonts                 FontsConfig  `yaml:"fonts"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

// OutputNameTemplateFieldName must match the yaml tag of
// DocumentConfig.OutputNameTemplate, the field holds a template expanded per
// document and must survive template processing untouched.
const OutputNameTemplateFieldName TemplateFieldName = "output_name_template"

var requiredOptions = []func(*gencfg.ProcessingOptions){
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
}

// decodeStrict rejects fields we did not define, yaml.Unmarshal would
// silently drop them.
func decodeStrict(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode configuration data: %w", err)
	}
	return nil
}

func sanitizeAndValidate(cfg *Config) error {
	if err := gencfg.Sanitize(cfg); err != nil {
		return err
	}
	return gencfg.Validate(cfg)
}

// LoadConfiguration expands the embedded configuration template for sane
// defaults, superimposes values from the file at path (when given) on top of
// it, then sanitizes and validates the result.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}

	cfg := &Config{}
	if err := decodeStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}

	if len(path) > 0 {
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decodeStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to process configuration file: %w", err)
		}
	}

	if err := sanitizeAndValidate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Prepare expands the embedded configuration template and returns it as is.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

// Dump serializes the active configuration back to YAML.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}

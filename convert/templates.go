package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"

	"demc/config"
	"demc/design"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	Document   string
	Roots      []string
	SourceFile string
	Date       string
	Images     string
	Width      string
}

func buildRootNames(roots []*design.Node) []string {
	result := make([]string, 0, len(roots))
	for _, r := range roots {
		if r.Name == "" {
			continue
		}
		result = append(result, r.Name)
	}
	return result
}

func expandTemplate(doc *design.Document, src string, name config.TemplateFieldName, field string, cfg *config.Config) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values := Values{
		Context:    string(name),
		Document:   doc.Name,
		Roots:      buildRootNames(doc.Roots),
		SourceFile: strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		Date:       time.Now().Format("2006-01-02"),
		Images:     cfg.Document.Images.Mode.String(),
		Width:      cfg.Document.Width.Mode.String(),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Package template renders Go text/templates over node input lines.
package template

import (
	"crypto/rand"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"
)

// Funcs are available to every template.
var Funcs = template.FuncMap{
	"now": func() string {
		return time.Now().UTC().Format(time.RFC3339)
	},
	"rand": func(max int) int {
		if max <= 0 {
			return 0
		}

		num := make([]byte, 1)
		if _, err := rand.Read(num); err != nil {
			return 0
		}

		return int(num[0]) % max
	},
	"env":   os.Getenv,
	"join":  func(sep string, lines []string) string { return strings.Join(lines, sep) },
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"trim":  strings.TrimSpace,
}

// Parse compiles templateStr with Funcs. Missing map keys are errors.
func Parse(name, templateStr string) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(Funcs).Option("missingkey=error").Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	return tmpl, nil
}

// Execute renders a parsed template.
func Execute(tmpl *template.Template, data any) (string, error) {
	var buf strings.Builder

	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", tmpl.Name(), err)
	}

	return buf.String(), nil
}

// Render parses and renders templateStr in one step.
func Render(templateStr string, data any) (string, error) {
	tmpl, err := Parse("render", templateStr)
	if err != nil {
		return "", err
	}

	return Execute(tmpl, data)
}

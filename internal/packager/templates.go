package packager

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/control.tmpl templates/spec.tmpl
var templatesFS embed.FS

// renderTemplate renders one of the embedded packaging templates with the
// metadata lookup functions bound to this packager's metadata map.
func (p *Packager) renderTemplate(name string, data interface{}) (string, error) {
	funcs := template.FuncMap{
		"meta":     p.meta.Value,
		"metaOr":   p.meta.ValueOr,
		"describe": formatDescriptionBody,
	}
	tmpl, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/"+name)
	if err != nil {
		return "", fmt.Errorf("internal error: cannot parse template %s: %w", name, err)
	}
	var rendered strings.Builder
	if err := tmpl.Execute(&rendered, data); err != nil {
		return "", fmt.Errorf("cannot render template %s: %w", name, err)
	}
	return rendered.String(), nil
}

// formatDescriptionBody formats the extended description for a Debian
// control file: every line is indented by one space and empty lines become
// the "." placeholder, as required for multi-line field values.
func formatDescriptionBody(description string) string {
	lines := strings.Split(strings.TrimRight(description, "\n"), "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = " ."
		} else {
			lines[i] = " " + line
		}
	}
	return strings.Join(lines, "\n")
}

// collapseBlankLines removes empty lines from rendered text and ensures
// exactly one trailing newline. A binary control file must not contain
// blank lines in its body, and the template leaves them behind wherever an
// optional field was unset.
func collapseBlankLines(rendered string) string {
	doubleNewline := "\n\n"
	for strings.Contains(rendered, doubleNewline) {
		rendered = strings.ReplaceAll(rendered, doubleNewline, "\n")
	}
	return strings.TrimRight(rendered, "\n") + "\n"
}

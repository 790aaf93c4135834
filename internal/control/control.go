// Package control reads fields from a Debian control paragraph, the
// colon-separated key/value format used by the control member of binary
// packages. Only retrieval is supported; this tool writes control files
// through templates and reads them back solely to verify built archives.
package control

import "strings"

type Section interface {
	Get(key string) string
}

type ctrlSection struct {
	lines []string
}

// ParseSection indexes a single control paragraph. Content after the first
// blank line is ignored.
func ParseSection(content string) Section {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines = lines[:i]
			break
		}
	}
	return &ctrlSection{lines: lines}
}

// Get returns the value of the given field, with continuation lines joined
// by newlines, or the empty string when the field is absent. Field names
// match case-sensitively, as written by the packaging tools.
func (s *ctrlSection) Get(key string) string {
	prefix := key + ":"
	for i, line := range s.lines {
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		value := strings.TrimPrefix(strings.TrimPrefix(line, prefix), " ")
		for _, next := range s.lines[i+1:] {
			if !strings.HasPrefix(next, " ") && !strings.HasPrefix(next, "\t") {
				break
			}
			value += "\n" + strings.TrimLeft(next, " \t")
		}
		return value
	}
	return ""
}

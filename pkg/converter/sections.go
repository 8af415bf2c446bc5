package converter

import (
	"strings"
)

// Section is a named block of chart text
type Section struct {
	Name    string
	Content string
}

// SectionHandler consumes the content of one section or key
type SectionHandler func(content string) error

// SectionTable maps section or key names to their handlers
type SectionTable map[string]SectionHandler

// Dispatch runs the handler registered for name. Unknown names are ignored.
func (t SectionTable) Dispatch(name, content string) error {
	handler, ok := t[name]
	if !ok {
		return nil
	}
	return handler(content)
}

// Run dispatches every section in order and stops at the first error
func (t SectionTable) Run(sections []Section) error {
	for _, s := range sections {
		if err := t.Dispatch(s.Name, s.Content); err != nil {
			return err
		}
	}
	return nil
}

// RunKeyValues dispatches each "key: value" line of content to the handler
// registered for its key. Lines without a colon are ignored.
func (t SectionTable) RunKeyValues(content string) error {
	for _, line := range strings.Split(content, "\n") {
		key, value, ok := SplitKeyValue(line)
		if !ok {
			continue
		}
		if err := t.Dispatch(key, value); err != nil {
			return err
		}
	}
	return nil
}

// ScanBracketSections splits text into "[Name]" delimited sections. Lines
// before the first header are ignored.
func ScanBracketSections(text string) []Section {
	var sections []Section
	var current *Section
	var lines []string

	flush := func() {
		if current != nil {
			current.Content = strings.Join(lines, "\n")
			sections = append(sections, *current)
		}
		lines = lines[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			flush()
			current = &Section{Name: trimmed[1 : len(trimmed)-1]}
			continue
		}
		if current != nil && trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	flush()

	return sections
}

// ScanHashSections splits text into "#NAME:content;" sections. Only the
// first colon separates the name, content may hold more colons.
func ScanHashSections(text string) []Section {
	var sections []Section
	for _, chunk := range strings.Split(text, ";") {
		chunk = strings.TrimSpace(chunk)
		idx := strings.Index(chunk, "#")
		if idx < 0 {
			continue
		}
		chunk = chunk[idx+1:]
		name, content, _ := strings.Cut(chunk, ":")
		sections = append(sections, Section{
			Name:    strings.ToUpper(strings.TrimSpace(name)),
			Content: strings.TrimSpace(content),
		})
	}
	return sections
}

// ScanIndentedSections splits YAML-like text into top-level keys. A key
// with a value on its own line is a scalar section; a key with an empty
// value opens a block that collects the following indented or "-" lines.
func ScanIndentedSections(text string) []Section {
	var sections []Section
	var block *Section
	var lines []string

	flush := func() {
		if block != nil {
			block.Content = strings.Join(lines, "\n")
			sections = append(sections, *block)
			block = nil
		}
		lines = lines[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		nested := line[0] == ' ' || line[0] == '\t' || line[0] == '-'
		if nested {
			if block != nil {
				lines = append(lines, line)
			}
			continue
		}

		flush()
		key, value, ok := SplitKeyValue(line)
		if !ok {
			continue
		}
		if value == "" {
			block = &Section{Name: key}
			continue
		}
		sections = append(sections, Section{Name: key, Content: value})
	}
	flush()

	return sections
}

// SplitListItems splits a YAML-like block into its "- " prefixed items.
// The leading "- " of each item is removed, sub-keys keep their lines.
func SplitListItems(block string) []string {
	if trimmed := strings.TrimSpace(block); trimmed == "" || trimmed == "[]" {
		return nil
	}

	lines := strings.Split(strings.Trim(block, "\n"), "\n")
	marker := lines[0][:len(lines[0])-len(strings.TrimLeft(lines[0], " "))] + "-"

	var items []string
	var current []string
	for _, line := range lines {
		if line == marker || strings.HasPrefix(line, marker+" ") {
			if len(current) > 0 {
				items = append(items, strings.Join(current, "\n"))
			}
			current = []string{strings.TrimSpace(strings.TrimPrefix(line, marker))}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		items = append(items, strings.Join(current, "\n"))
	}

	return items
}

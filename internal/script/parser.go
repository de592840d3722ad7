package script

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyInput reports blank script text.
	ErrEmptyInput = errors.New("script input is empty")
	// ErrMissingTitle reports that no title section precedes the script body.
	ErrMissingTitle = errors.New("script has no title section")
	// ErrUnlabeledContent reports text appearing before the first section delimiter.
	ErrUnlabeledContent = errors.New("content before first section delimiter")
)

var titleLabels = map[string]struct{}{
	"제목":    {},
	"title": {},
}

var bodyLabels = map[string]struct{}{
	"대본":     {},
	"body":   {},
	"script": {},
}

// Section is one labeled block of script text.
type Section struct {
	Label string
	Text  string
}

// Document is a parsed script: a title plus the remaining sections in input
// order. The title section itself is not repeated in Sections.
type Document struct {
	Title      string
	TitleLabel string
	Sections   []Section
}

// IsTitleLabel reports whether label marks a title section.
func IsTitleLabel(label string) bool {
	_, ok := titleLabels[strings.ToLower(strings.TrimSpace(label))]
	return ok
}

// IsBodyLabel reports whether label marks a script body section.
func IsBodyLabel(label string) bool {
	_, ok := bodyLabels[strings.ToLower(strings.TrimSpace(label))]
	return ok
}

// Parse splits raw script text into a Document. It is a pure function: no
// side effects, deterministic, and safe to call repeatedly on the same input.
func Parse(raw string) (*Document, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyInput
	}

	doc := &Document{}
	var (
		current         *Section
		currentLines    []string
		sawDelimiter    bool
		bodyBeforeTitle bool
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Text = strings.TrimSpace(strings.Join(currentLines, "\n"))
		if doc.TitleLabel == "" && IsTitleLabel(current.Label) {
			doc.Title = current.Text
			doc.TitleLabel = current.Label
		} else {
			if doc.TitleLabel == "" && IsBodyLabel(current.Label) {
				bodyBeforeTitle = true
			}
			doc.Sections = append(doc.Sections, *current)
		}
		current = nil
		currentLines = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if label, ok := parseDelimiter(line); ok {
			flush()
			sawDelimiter = true
			current = &Section{Label: label}
			continue
		}
		if !sawDelimiter {
			if strings.TrimSpace(line) != "" {
				return nil, fmt.Errorf("%w: line %d", ErrUnlabeledContent, lineNo)
			}
			continue
		}
		currentLines = append(currentLines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan script: %w", err)
	}
	flush()

	if doc.TitleLabel == "" || bodyBeforeTitle {
		return nil, ErrMissingTitle
	}
	return doc, nil
}

// Body returns the concatenated text of all body-labeled sections.
func (d *Document) Body() string {
	if d == nil {
		return ""
	}
	var parts []string
	for _, section := range d.Sections {
		if IsBodyLabel(section.Label) && section.Text != "" {
			parts = append(parts, section.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Format renders the document back into delimited script text. Parsing the
// result yields an equal document.
func (d *Document) Format() string {
	if d == nil {
		return ""
	}
	var b strings.Builder
	label := d.TitleLabel
	if label == "" {
		label = "title"
	}
	writeSection(&b, label, d.Title)
	for _, section := range d.Sections {
		writeSection(&b, section.Label, section.Text)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeSection(b *strings.Builder, label, text string) {
	fmt.Fprintf(b, "=== %s ===\n", label)
	if text != "" {
		b.WriteString(text)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
}

func parseDelimiter(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "===") || !strings.HasSuffix(trimmed, "===") || len(trimmed) < 7 {
		return "", false
	}
	label := strings.TrimSpace(trimmed[3 : len(trimmed)-3])
	if label == "" {
		return "", false
	}
	return label, true
}

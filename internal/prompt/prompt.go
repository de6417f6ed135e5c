// Package prompt turns a retrieved fragment and the user's question into
// the prompt sent to the completion model.
//
// The layout is fixed: the fragment path and its trimmed code, a comment
// saying why the fragment was chosen, then the question verbatim. Only
// the label wording changes between locales.
package prompt

import (
	"fmt"
	"strings"

	"github.com/dshills/coderag/pkg/types"
)

const (
	// DefaultMaxLines is the number of code lines kept in a prompt
	DefaultMaxLines = 50

	// TruncationMarker is appended as its own line when code is cut
	TruncationMarker = "#... (truncated)"
)

// Trim returns content unchanged when it has at most maxLines lines.
// Otherwise it returns the first maxLines lines followed by a single
// TruncationMarker line. A trailing newline does not start a new line.
// maxLines <= 0 disables trimming.
func Trim(content string, maxLines int) string {
	if maxLines <= 0 {
		return content
	}

	lines := splitLines(content)
	if len(lines) <= maxLines {
		return content
	}
	return strings.Join(lines[:maxLines], "\n") + "\n" + TruncationMarker
}

// CountLines returns the number of lines Trim sees in content
func CountLines(content string) int {
	return len(splitLines(content))
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Template holds the labels of the prompt layout
type Template struct {
	Code    string // followed by " (<path>):"
	Comment string
	Reason  string // format with a single %s for the question
	Query   string

	// MaxLines bounds the code section, see Trim
	MaxLines int
}

// English is the default template
var English = Template{
	Code:     "Code",
	Comment:  "Comment:",
	Reason:   `This fragment was chosen because it answers the query: "%s"`,
	Query:    "User query:",
	MaxLines: DefaultMaxLines,
}

// Russian is the template for Russian-language corpora
var Russian = Template{
	Code:     "Код",
	Comment:  "Комментарий:",
	Reason:   `Этот фрагмент выбран, потому что отвечает на запрос: "%s"`,
	Query:    "Запрос пользователя:",
	MaxLines: DefaultMaxLines,
}

// Lookup returns the template for a locale name ("en" or "ru")
func Lookup(locale string) (Template, error) {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "", "en", "english":
		return English, nil
	case "ru", "russian":
		return Russian, nil
	default:
		return Template{}, fmt.Errorf("unknown prompt locale: %s", locale)
	}
}

// Render builds the prompt for f and question
func (t Template) Render(f types.Fragment, question string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s):\n", t.Code, f.DisplayPath())
	b.WriteString(Trim(f.Content, t.MaxLines))
	b.WriteString("\n\n")
	b.WriteString(t.Comment)
	b.WriteString("\n")
	fmt.Fprintf(&b, t.Reason, question)
	b.WriteString("\n\n")
	b.WriteString(t.Query)
	b.WriteString("\n")
	b.WriteString(question)
	return b.String()
}

// Render builds the prompt with the English template, keeping at most
// maxLines lines of code
func Render(f types.Fragment, question string, maxLines int) string {
	t := English
	t.MaxLines = maxLines
	return t.Render(f, question)
}

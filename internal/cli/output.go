package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/coderag/internal/prompt"
	"github.com/dshills/coderag/pkg/types"
)

var (
	rankStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	snippetStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// snippetLines bounds the code shown under each search result
const snippetLines = 8

func printResults(w io.Writer, query string, results []types.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "\n%s %s\n\n",
		headerStyle.Render("Results for:"),
		pathStyle.Render(fmt.Sprintf("%q", query)),
	)
	for _, r := range results {
		printResult(w, r)
	}
}

func printResult(w io.Writer, r types.SearchResult) {
	var metric string
	if r.HasScore() {
		metric = fmt.Sprintf("score: %.4f", *r.Score)
	} else {
		metric = fmt.Sprintf("occurrences: %d", r.Occurrences)
	}

	title := r.Fragment.Title
	if title == "" {
		title = fmt.Sprintf("fragment %d", r.Fragment.ID)
	}

	fmt.Fprintf(w, "  %s  %s  %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", r.Rank)),
		titleStyle.Render(title),
		scoreStyle.Render(metric),
	)
	fmt.Fprintf(w, "  %s\n", pathStyle.Render(r.Fragment.DisplayPath()))

	for _, line := range strings.Split(prompt.Trim(r.Fragment.Content, snippetLines), "\n") {
		fmt.Fprintf(w, "    %s\n", snippetStyle.Render(line))
	}
	fmt.Fprintln(w)
}

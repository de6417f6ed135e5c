package chunker

import (
	"fmt"
	"strings"

	"github.com/dshills/coderag/pkg/types"
)

// Chunker turns parsed symbols into corpus fragments, one per symbol
type Chunker struct {
	// SkipUnexported drops symbols that are not exported
	SkipUnexported bool
}

// New creates a new Chunker instance
func New() *Chunker {
	return &Chunker{}
}

// ChunkFile cuts one fragment per symbol out of src. relPath is the path
// recorded on the fragments. IDs are left zero; they are assigned when
// the corpus is written.
func (c *Chunker) ChunkFile(relPath string, src []byte, parseResult *types.ParseResult) []types.Fragment {
	lines := strings.Split(string(src), "\n")

	fragments := make([]types.Fragment, 0, len(parseResult.Symbols))
	for i := range parseResult.Symbols {
		sym := &parseResult.Symbols[i]
		if c.SkipUnexported && !sym.IsExported() {
			continue
		}

		content := symbolContent(sym, lines)
		if content == "" {
			continue
		}

		fragments = append(fragments, types.Fragment{
			Title:   Title(sym, relPath),
			Path:    relPath,
			Content: content,
			Queries: Queries(sym),
		})
	}

	return fragments
}

// symbolContent returns the source lines spanned by sym
func symbolContent(sym *types.Symbol, lines []string) string {
	if sym.Start.Line <= 0 || sym.End.Line < sym.Start.Line || sym.Start.Line > len(lines) {
		return ""
	}

	startIdx := sym.Start.Line - 1
	endIdx := min(sym.End.Line, len(lines))

	content := strings.Join(lines[startIdx:endIdx], "\n")
	return strings.TrimRight(content, " \t\r\n")
}

// Title names a fragment, e.g. "Method Parser.ParseFile in parser/parser.go"
func Title(sym *types.Symbol, relPath string) string {
	return fmt.Sprintf("%s %s in %s", sym.Kind.Label(), sym.QualifiedName(), relPath)
}

// Queries returns the paraphrased questions embedded alongside the code
func Queries(sym *types.Symbol) []string {
	kind := strings.ToLower(sym.Kind.Label())
	name := sym.QualifiedName()
	return []string{
		fmt.Sprintf("What does %s %s do?", kind, name),
		fmt.Sprintf("How does %s %s work?", kind, name),
		fmt.Sprintf("Where is %s used?", name),
	}
}

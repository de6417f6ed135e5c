package parser

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"strings"

	"github.com/dshills/coderag/pkg/types"
)

// Parser handles AST-based parsing of Go source files
type Parser struct {
	fset *token.FileSet
}

// New creates a new Parser instance
func New() *Parser {
	return &Parser{
		fset: token.NewFileSet(),
	}
}

// ParseFile reads and parses a Go source file
func (p *Parser) ParseFile(filePath string) (*types.ParseResult, []byte, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.ParseSource(filePath, content), content, nil
}

// ParseSource extracts the top-level functions, methods and type
// declarations of src. Syntax errors are recorded in the result rather
// than returned; whatever the parser recovered is still extracted.
func (p *Parser) ParseSource(filePath string, src []byte) *types.ParseResult {
	result := &types.ParseResult{}

	file, err := parser.ParseFile(p.fset, filePath, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		result.AddError(filePath, 0, 0, fmt.Sprintf("syntax error: %v", err))
	}
	if file == nil {
		return result
	}

	if file.Name != nil {
		result.PackageName = file.Name.Name
	}

	extractor := &symbolExtractor{
		fset:        p.fset,
		packageName: result.PackageName,
		symbols:     make([]types.Symbol, 0),
	}
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			extractor.extractFunction(d)
		case *ast.GenDecl:
			if d.Tok == token.TYPE {
				extractor.extractTypes(d)
			}
		}
	}
	result.Symbols = extractor.symbols

	return result
}

// symbolExtractor collects symbols from one file
type symbolExtractor struct {
	fset        *token.FileSet
	packageName string
	symbols     []types.Symbol
}

// extractFunction extracts function and method declarations
func (e *symbolExtractor) extractFunction(funcDecl *ast.FuncDecl) {
	if funcDecl.Name == nil {
		return
	}

	sym := types.Symbol{
		Name:       funcDecl.Name.Name,
		Package:    e.packageName,
		DocComment: extractDocComment(funcDecl.Doc),
		Start:      e.position(startWithDoc(funcDecl.Pos(), funcDecl.Doc)),
		End:        e.position(funcDecl.End()),
	}

	if funcDecl.Recv != nil && len(funcDecl.Recv.List) > 0 {
		sym.Kind = types.KindMethod
		sym.Receiver = receiverType(funcDecl.Recv.List[0].Type)
	} else {
		sym.Kind = types.KindFunction
	}

	sym.Signature = functionSignature(funcDecl)

	e.symbols = append(e.symbols, sym)
}

// extractTypes extracts struct, interface and other type declarations.
// A single declaration spans from the type keyword; in a group each spec
// spans itself.
func (e *symbolExtractor) extractTypes(genDecl *ast.GenDecl) {
	grouped := genDecl.Lparen.IsValid()

	for _, spec := range genDecl.Specs {
		typeSpec, ok := spec.(*ast.TypeSpec)
		if !ok || typeSpec.Name == nil {
			continue
		}

		doc, start, end := typeSpec.Doc, typeSpec.Pos(), typeSpec.End()
		if !grouped {
			doc, start, end = genDecl.Doc, genDecl.Pos(), genDecl.End()
		}

		sym := types.Symbol{
			Name:       typeSpec.Name.Name,
			Package:    e.packageName,
			DocComment: extractDocComment(doc),
			Start:      e.position(startWithDoc(start, doc)),
			End:        e.position(end),
		}

		switch t := typeSpec.Type.(type) {
		case *ast.StructType:
			sym.Kind = types.KindStruct
			sym.Signature = fmt.Sprintf("type %s struct { ... } // %d fields", sym.Name, t.Fields.NumFields())
		case *ast.InterfaceType:
			sym.Kind = types.KindInterface
			sym.Signature = fmt.Sprintf("type %s interface { ... } // %d methods", sym.Name, t.Methods.NumFields())
		default:
			sym.Kind = types.KindType
			sym.Signature = fmt.Sprintf("type %s %s", sym.Name, exprToString(typeSpec.Type))
		}

		e.symbols = append(e.symbols, sym)
	}
}

func startWithDoc(pos token.Pos, doc *ast.CommentGroup) token.Pos {
	if doc != nil && doc.Pos() < pos {
		return doc.Pos()
	}
	return pos
}

// receiverType extracts the receiver type name from a method,
// dropping pointers and type parameters
func receiverType(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverType(t.X)
	case *ast.IndexExpr:
		return receiverType(t.X)
	case *ast.IndexListExpr:
		return receiverType(t.X)
	case *ast.Ident:
		return t.Name
	}
	return ""
}

// functionSignature builds a function signature string
func functionSignature(funcDecl *ast.FuncDecl) string {
	var sig strings.Builder

	sig.WriteString("func ")

	if funcDecl.Recv != nil && len(funcDecl.Recv.List) > 0 {
		sig.WriteString("(")
		sig.WriteString(exprToString(funcDecl.Recv.List[0].Type))
		sig.WriteString(") ")
	}

	sig.WriteString(funcDecl.Name.Name)

	sig.WriteString("(")
	sig.WriteString(fieldListToString(funcDecl.Type.Params))
	sig.WriteString(")")

	if results := funcDecl.Type.Results; results != nil {
		s := fieldListToString(results)
		if results.NumFields() > 1 || (len(results.List) > 0 && len(results.List[0].Names) > 0) {
			sig.WriteString(" (" + s + ")")
		} else if s != "" {
			sig.WriteString(" " + s)
		}
	}

	return sig.String()
}

// fieldListToString converts a field list to a string representation
func fieldListToString(fieldList *ast.FieldList) string {
	if fieldList == nil || len(fieldList.List) == 0 {
		return ""
	}

	var parts []string
	for _, field := range fieldList.List {
		typeStr := exprToString(field.Type)
		if len(field.Names) > 0 {
			for _, name := range field.Names {
				parts = append(parts, name.Name+" "+typeStr)
			}
		} else {
			parts = append(parts, typeStr)
		}
	}

	return strings.Join(parts, ", ")
}

// exprToString converts an expression to a short string representation
func exprToString(expr ast.Expr) string {
	if expr == nil {
		return ""
	}

	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + exprToString(t.X)
	case *ast.ArrayType:
		return "[]" + exprToString(t.Elt)
	case *ast.MapType:
		return fmt.Sprintf("map[%s]%s", exprToString(t.Key), exprToString(t.Value))
	case *ast.ChanType:
		return "chan " + exprToString(t.Value)
	case *ast.FuncType:
		return "func(...)"
	case *ast.InterfaceType:
		return "interface{}"
	case *ast.StructType:
		return "struct{...}"
	case *ast.SelectorExpr:
		return exprToString(t.X) + "." + t.Sel.Name
	case *ast.Ellipsis:
		return "..." + exprToString(t.Elt)
	case *ast.IndexExpr:
		return exprToString(t.X) + "[" + exprToString(t.Index) + "]"
	default:
		return "..."
	}
}

// extractDocComment extracts documentation from a comment group
func extractDocComment(doc *ast.CommentGroup) string {
	if doc == nil {
		return ""
	}
	return strings.TrimSpace(doc.Text())
}

// position converts a token position to our Position type
func (e *symbolExtractor) position(pos token.Pos) types.Position {
	p := e.fset.Position(pos)
	return types.Position{
		Line:   p.Line,
		Column: p.Column,
	}
}

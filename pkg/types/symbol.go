package types

import (
	"errors"
	"go/token"
)

// SymbolKind represents the type of Go language symbol
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindStruct    SymbolKind = "struct"
	KindInterface SymbolKind = "interface"
	KindType      SymbolKind = "type"
)

// Label returns the capitalised kind name used in fragment titles
func (k SymbolKind) Label() string {
	switch k {
	case KindFunction:
		return "Function"
	case KindMethod:
		return "Method"
	case KindStruct:
		return "Struct"
	case KindInterface:
		return "Interface"
	default:
		return "Type"
	}
}

// Position represents a location in source code
type Position struct {
	Line   int
	Column int
}

// Symbol is a declaration extracted from Go source via AST parsing.
// Each symbol becomes one corpus fragment.
type Symbol struct {
	Name      string
	Kind      SymbolKind
	Package   string
	Receiver  string // For methods: receiver type name
	Signature string

	DocComment string

	// Start includes the doc comment when present
	Start Position
	End   Position
}

// QualifiedName returns Receiver.Name for methods and Name otherwise
func (s *Symbol) QualifiedName() string {
	if s.Kind == KindMethod && s.Receiver != "" {
		return s.Receiver + "." + s.Name
	}
	return s.Name
}

// IsExported returns true if the symbol is visible outside its package
func (s *Symbol) IsExported() bool {
	return token.IsExported(s.Name)
}

// Validate performs validation of the symbol
func (s *Symbol) Validate() error {
	if s.Name == "" {
		return errors.New("symbol name is required")
	}

	switch s.Kind {
	case KindFunction, KindMethod, KindStruct, KindInterface, KindType:
	default:
		return errors.New("invalid symbol kind")
	}

	if s.Kind == KindMethod && s.Receiver == "" {
		return errors.New("methods must have a receiver type")
	}

	if s.Start.Line <= 0 || s.End.Line <= 0 {
		return errors.New("invalid position: line numbers must be positive")
	}

	if s.Start.Line > s.End.Line {
		return errors.New("invalid position: start line must be before or equal to end line")
	}

	return nil
}

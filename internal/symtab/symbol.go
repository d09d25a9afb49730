// Package symtab implements symbol table management for name resolution and scoping.
//
// DESIGN PHILOSOPHY:
// The symbol table tracks all named entities (variables, functions, types, namespaces,
// generics, etc.) and their scopes. It's used by the resolver (internal/resolver) to:
// 1. Resolve names to their declarations
// 2. Detect redeclarations and undefined names
// 3. Check that names are used in the correct context
// 4. Support nested scopes (blocks, functions, namespaces, generics)
//
// KEY DESIGN CHOICES:
// - Lexical scoping (like C, Java, Go) - inner scopes can shadow outer scopes
// - One namespace per scope for types and values - type Foo and var Foo in the same scope collide
// - Symbols are updated after creation (Define sets Scope/Index; AddOverload folds overloads in)
package symtab

import (
	"github.com/hassan/chemc/internal/ast"
	"github.com/hassan/chemc/internal/source"
)

// SymbolKind represents the kind of symbol.
//
// DESIGN CHOICE: Use an enum rather than using the type system (interfaces) because:
// - Simple and efficient
// - Easy to switch on
// - Clear in error messages ("expected variable, got function")
type SymbolKind int

const (
	// SymbolVariable represents a variable (var x: int)
	SymbolVariable SymbolKind = iota

	// SymbolFunction represents a function (func foo() {}), possibly one member
	// of a SymbolMultiFunction once a second overload is declared.
	SymbolFunction

	// SymbolMultiFunction represents a name bound to more than one overload
	// (invariant 5): the individual Function symbols live in Overloads.
	SymbolMultiFunction

	// SymbolExtensionFunction represents a function that extends an existing
	// type (extension func Foo.bar()) rather than a free function.
	SymbolExtensionFunction

	// SymbolParameter represents a function parameter.
	SymbolParameter

	// SymbolType represents a generic type name (typealias Foo = int)
	SymbolType

	// SymbolStruct represents a struct type specifically.
	// We track this separately because structs have fields we need to look up.
	SymbolStruct

	// SymbolUnion represents a union type (S10).
	SymbolUnion

	// SymbolInterface represents an interface type (S8).
	SymbolInterface

	// SymbolEnum represents an enum type.
	SymbolEnum

	// SymbolField represents a struct or union field.
	SymbolField

	// SymbolNamespace represents a namespace, which may be declared across
	// several files and merges by name (S11).
	SymbolNamespace

	// SymbolPackage represents an imported file/module.
	SymbolPackage
)

// String returns a human-readable representation of the symbol kind.
func (sk SymbolKind) String() string {
	switch sk {
	case SymbolVariable:
		return "variable"
	case SymbolFunction:
		return "function"
	case SymbolMultiFunction:
		return "overloaded function"
	case SymbolExtensionFunction:
		return "extension function"
	case SymbolParameter:
		return "parameter"
	case SymbolType:
		return "type"
	case SymbolStruct:
		return "struct"
	case SymbolUnion:
		return "union"
	case SymbolInterface:
		return "interface"
	case SymbolEnum:
		return "enum"
	case SymbolField:
		return "field"
	case SymbolNamespace:
		return "namespace"
	case SymbolPackage:
		return "package"
	default:
		return "unknown"
	}
}

// Symbol represents a named entity in the program.
//
// DESIGN CHOICE: Store all symbol information in one struct rather than having
// separate structs for each kind because:
// - Simpler code (no type assertions)
// - All symbols have similar information
// - Easy to add new fields that apply to all symbols
//
// The downside is some fields are unused for some symbol kinds, but the memory
// overhead is minimal and the simplicity is worth it.
type Symbol struct {
	// Name is the symbol's identifier.
	Name string

	// Kind is what kind of symbol this is.
	Kind SymbolKind

	// Type is the symbol's type (variable type, function signature, etc.),
	// wrapped in a Handle so the resolver can tell an owned type (safe to
	// mutate, e.g. while registering a generic iteration) from a borrowed one
	// (shared, must be copied first) without a parallel bookkeeping map.
	Type ast.Handle

	// Pos is where this symbol was declared.
	// This is crucial for error messages ("x already declared at line 10").
	Pos source.Position

	// Scope is the scope where this symbol was declared.
	Scope *Scope

	// Declaration is the arena index of the AST node that declared this
	// symbol (ast.NoNode for synthetic symbols such as implicit constructors).
	Declaration ast.NodeRef

	// Constant indicates if this is a constant (val/const x = 5).
	// Constants can't be reassigned and may be optimized differently.
	Constant bool

	// Used tracks if this symbol has been referenced.
	Used bool

	// Value stores the constant value for compile-time constants.
	// Only meaningful when Constant is true. Used by the compile-time
	// evaluator and by constant folding in the optimizer.
	Value interface{}

	// Fields stores struct/union fields (only for SymbolStruct/SymbolUnion).
	Fields map[string]*Symbol

	// Overloads stores the individual Function symbols folded into one
	// SymbolMultiFunction (only for SymbolMultiFunction).
	Overloads []*Symbol

	// Index is the index of this symbol in its scope.
	// Used for stack frame offsets, parameter positions, field offsets.
	Index int
}

// String returns a human-readable representation of the symbol.
// Format: "kind name: type at position".
func (s *Symbol) String() string {
	typeStr := "<untyped>"
	if t := s.Type.Get(); t != nil {
		typeStr = t.String()
	}
	return s.Kind.String() + " " + s.Name + ": " + typeStr + " at " + s.Pos.String()
}

// IsGlobal returns true if this symbol is declared at global scope.
func (s *Symbol) IsGlobal() bool {
	return s.Scope != nil && s.Scope.IsGlobal()
}

// IsLocal returns true if this symbol is declared in a local scope.
func (s *Symbol) IsLocal() bool {
	return !s.IsGlobal()
}

// CanAssign returns true if this symbol can be assigned to.
//
// RULES:
// - Constants cannot be assigned
// - Functions cannot be assigned
// - Types cannot be assigned
// - Variables and parameters can be assigned
func (s *Symbol) CanAssign() bool {
	if s.Constant {
		return false
	}

	switch s.Kind {
	case SymbolVariable, SymbolParameter:
		return true
	default:
		return false
	}
}

// MarkUsed marks this symbol as used.
func (s *Symbol) MarkUsed() {
	s.Used = true
}

// LookupField looks up a field in a struct or union symbol.
// Returns nil if this is not a struct/union or the field doesn't exist.
func (s *Symbol) LookupField(name string) *Symbol {
	if s.Kind != SymbolStruct && s.Kind != SymbolUnion {
		return nil
	}
	return s.Fields[name]
}

// AddOverload appends fn to a SymbolMultiFunction's Overloads, converting a
// plain SymbolFunction into a SymbolMultiFunction the first time a second
// overload appears — this is the "folding" invariant 5 describes.
func (s *Symbol) AddOverload(fn *Symbol) {
	if s.Kind == SymbolFunction {
		first := *s
		s.Kind = SymbolMultiFunction
		s.Overloads = []*Symbol{&first}
		s.Type = ast.Handle{}
	}
	s.Overloads = append(s.Overloads, fn)
}

package symtab

import (
	"testing"

	"github.com/hassan/chemc/internal/ast"
	"github.com/hassan/chemc/internal/source"
)

// Test Symbol

func TestSymbol_String(t *testing.T) {
	symbol := &Symbol{
		Name: "x",
		Kind: SymbolVariable,
		Type: ast.Owned(ast.Int),
		Pos:  source.Position{Filename: "test.go", Line: 1, Column: 5},
	}

	expected := "variable x: int at test.go:2:6"
	result := symbol.String()
	if result != expected {
		t.Errorf("Symbol.String() = %q, want %q", result, expected)
	}
}

func TestSymbol_IsGlobal(t *testing.T) {
	globalScope := NewScope(ScopeGlobal, nil)
	localScope := NewScope(ScopeBlock, globalScope)

	globalSymbol := &Symbol{Name: "x", Scope: globalScope}
	localSymbol := &Symbol{Name: "y", Scope: localScope}

	if !globalSymbol.IsGlobal() {
		t.Error("Expected globalSymbol.IsGlobal() to be true")
	}

	if localSymbol.IsGlobal() {
		t.Error("Expected localSymbol.IsGlobal() to be false")
	}
}

func TestSymbol_CanAssign(t *testing.T) {
	tests := []struct {
		name     string
		symbol   *Symbol
		expected bool
	}{
		{
			name:     "variable can be assigned",
			symbol:   &Symbol{Kind: SymbolVariable, Constant: false},
			expected: true,
		},
		{
			name:     "parameter can be assigned",
			symbol:   &Symbol{Kind: SymbolParameter, Constant: false},
			expected: true,
		},
		{
			name:     "constant cannot be assigned",
			symbol:   &Symbol{Kind: SymbolVariable, Constant: true},
			expected: false,
		},
		{
			name:     "function cannot be assigned",
			symbol:   &Symbol{Kind: SymbolFunction, Constant: false},
			expected: false,
		},
		{
			name:     "type cannot be assigned",
			symbol:   &Symbol{Kind: SymbolType, Constant: false},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.symbol.CanAssign()
			if result != tt.expected {
				t.Errorf("Symbol.CanAssign() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSymbol_LookupField(t *testing.T) {
	structSymbol := &Symbol{
		Kind: SymbolStruct,
		Fields: map[string]*Symbol{
			"x": {Name: "x", Type: ast.Owned(ast.Int)},
			"y": {Name: "y", Type: ast.Owned(ast.Int)},
		},
	}

	field := structSymbol.LookupField("x")
	if field == nil {
		t.Error("Expected to find field 'x'")
	} else if field.Name != "x" {
		t.Errorf("Found field with name %q, want 'x'", field.Name)
	}

	field = structSymbol.LookupField("z")
	if field != nil {
		t.Error("Expected nil for non-existent field 'z'")
	}

	varSymbol := &Symbol{Kind: SymbolVariable}
	field = varSymbol.LookupField("x")
	if field != nil {
		t.Error("Expected nil for field lookup on non-struct")
	}
}

func TestSymbol_AddOverload(t *testing.T) {
	scope := NewScope(ScopeGlobal, nil)
	first := &Symbol{Name: "foo", Kind: SymbolFunction, Type: ast.Owned(ast.Void)}
	second := &Symbol{Name: "foo", Kind: SymbolFunction, Type: ast.Owned(ast.Int)}

	if err := scope.Define(first); err != nil {
		t.Fatalf("unexpected error defining first overload: %v", err)
	}
	if err := scope.Define(second); err != nil {
		t.Fatalf("unexpected error defining second overload: %v", err)
	}

	folded := scope.LookupLocal("foo")
	if folded.Kind != SymbolMultiFunction {
		t.Fatalf("expected SymbolMultiFunction after second declaration, got %s", folded.Kind)
	}
	if len(folded.Overloads) != 2 {
		t.Errorf("expected 2 overloads, got %d", len(folded.Overloads))
	}
}

// Test Scope

func TestNewScope(t *testing.T) {
	parent := NewScope(ScopeGlobal, nil)
	child := NewScope(ScopeBlock, parent)

	if child.Parent != parent {
		t.Error("Expected child scope to have correct parent")
	}

	if child.Depth != 1 {
		t.Errorf("Expected child depth = 1, got %d", child.Depth)
	}

	if len(parent.Children) != 1 || parent.Children[0] != child {
		t.Error("Expected parent to contain child in Children slice")
	}
}

func TestScope_Define(t *testing.T) {
	scope := NewScope(ScopeGlobal, nil)
	symbol := &Symbol{Name: "x", Type: ast.Owned(ast.Int)}

	if err := scope.Define(symbol); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if symbol.Scope != scope {
		t.Error("Expected symbol scope to be set")
	}

	duplicate := &Symbol{Name: "x", Type: ast.Owned(ast.Float), Kind: SymbolVariable}
	if err := scope.Define(duplicate); err == nil {
		t.Error("Expected error for duplicate non-function definition")
	}
}

func TestScope_Lookup(t *testing.T) {
	global := NewScope(ScopeGlobal, nil)
	local := NewScope(ScopeBlock, global)

	globalSymbol := &Symbol{Name: "x", Type: ast.Owned(ast.Int)}
	localSymbol := &Symbol{Name: "y", Type: ast.Owned(ast.Float)}

	global.Define(globalSymbol)
	local.Define(localSymbol)

	found := local.Lookup("y")
	if found == nil || found.Name != "y" {
		t.Error("Expected to find local symbol 'y'")
	}

	found = local.Lookup("x")
	if found == nil || found.Name != "x" {
		t.Error("Expected to find global symbol 'x' from local scope")
	}

	found = local.Lookup("z")
	if found != nil {
		t.Error("Expected nil for non-existent symbol 'z'")
	}

	if !globalSymbol.Used || !localSymbol.Used {
		t.Error("Expected both symbols to be marked as used")
	}
}

func TestScope_LookupLocal(t *testing.T) {
	global := NewScope(ScopeGlobal, nil)
	local := NewScope(ScopeBlock, global)

	global.Define(&Symbol{Name: "x", Type: ast.Owned(ast.Int)})
	local.Define(&Symbol{Name: "y", Type: ast.Owned(ast.Float)})

	if local.LookupLocal("y") == nil {
		t.Error("Expected to find local symbol 'y'")
	}
	if local.LookupLocal("x") != nil {
		t.Error("Expected nil when looking up parent symbol with LookupLocal")
	}
}

func TestScope_FindEnclosingFunction(t *testing.T) {
	global := NewScope(ScopeGlobal, nil)
	funcScope := NewScope(ScopeFunction, global)
	blockScope := NewScope(ScopeBlock, funcScope)

	if found := blockScope.FindEnclosingFunction(); found != funcScope {
		t.Error("Expected to find function scope from block scope")
	}
	if found := global.FindEnclosingFunction(); found != nil {
		t.Error("Expected nil for enclosing function from global scope")
	}
}

func TestScope_FindEnclosingLoop(t *testing.T) {
	funcScope := NewScope(ScopeFunction, nil)
	loopScope := NewScope(ScopeLoop, funcScope)
	blockScope := NewScope(ScopeBlock, loopScope)

	if found := blockScope.FindEnclosingLoop(); found != loopScope {
		t.Error("Expected to find loop scope from block scope")
	}
	if found := funcScope.FindEnclosingLoop(); found != nil {
		t.Error("Expected nil for enclosing loop from function scope")
	}
}

func TestScope_UnusedSymbols(t *testing.T) {
	scope := NewScope(ScopeGlobal, nil)

	scope.Define(&Symbol{Name: "x", Type: ast.Owned(ast.Int), Used: true})
	scope.Define(&Symbol{Name: "y", Type: ast.Owned(ast.Float), Used: false})

	unused := scope.UnusedSymbols()
	if len(unused) != 1 {
		t.Errorf("Expected 1 unused symbol, got %d", len(unused))
	}
	if unused[0].Name != "y" {
		t.Errorf("Expected unused symbol 'y', got %q", unused[0].Name)
	}
}

func TestScope_MergeNamespace(t *testing.T) {
	global := NewScope(ScopeGlobal, nil)

	first := MergeNamespace(global, "net")
	first.Define(&Symbol{Name: "dial", Kind: SymbolFunction})

	second := MergeNamespace(global, "net")
	if second != first {
		t.Fatal("expected MergeNamespace to return the same Scope for a repeated name")
	}
	if second.LookupLocal("dial") == nil {
		t.Error("expected symbols defined via the first handle to be visible via the second")
	}
}

func TestSymbolKind_String(t *testing.T) {
	tests := []struct {
		kind     SymbolKind
		expected string
	}{
		{SymbolVariable, "variable"},
		{SymbolFunction, "function"},
		{SymbolMultiFunction, "overloaded function"},
		{SymbolExtensionFunction, "extension function"},
		{SymbolParameter, "parameter"},
		{SymbolType, "type"},
		{SymbolStruct, "struct"},
		{SymbolUnion, "union"},
		{SymbolInterface, "interface"},
		{SymbolEnum, "enum"},
		{SymbolField, "field"},
		{SymbolNamespace, "namespace"},
		{SymbolPackage, "package"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := tt.kind.String()
			if result != tt.expected {
				t.Errorf("SymbolKind.String() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestScopeKind_String(t *testing.T) {
	tests := []struct {
		kind     ScopeKind
		expected string
	}{
		{ScopeGlobal, "global"},
		{ScopeNamespace, "namespace"},
		{ScopeFunction, "function"},
		{ScopeBlock, "block"},
		{ScopeLoop, "loop"},
		{ScopeSwitch, "switch"},
		{ScopeStruct, "struct"},
		{ScopeInterface, "interface"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := tt.kind.String()
			if result != tt.expected {
				t.Errorf("ScopeKind.String() = %q, want %q", result, tt.expected)
			}
		})
	}
}

package compiletime

import "github.com/hassan/chemc/internal/ast"

// env is a chain of lexical scopes mapping a name to the arena slot holding
// its current value, mirroring the teacher's symtab.Scope shadowing shape
// but over interpreted values instead of declarations.
type env struct {
	vars   map[string]ast.ValueRef
	parent *env
}

func newEnv(parent *env) *env {
	return &env{vars: make(map[string]ast.ValueRef), parent: parent}
}

func (e *env) get(name string) (ast.ValueRef, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return ast.NoValue, false
}

func (e *env) define(name string, v ast.ValueRef) {
	e.vars[name] = v
}

// set assigns to the nearest enclosing scope that already defines name,
// falling back to defining it locally (for loop/for-init temporaries).
func (e *env) set(name string, v ast.ValueRef) {
	for cur := e; cur != nil; cur = cur.parent {
		if _, ok := cur.vars[name]; ok {
			cur.vars[name] = v
			return
		}
	}
	e.vars[name] = v
}

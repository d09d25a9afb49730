// Package generics manages the "active iteration" bookkeeping a generic
// Function or Struct needs while its body is being resolved or lowered for
// one concrete set of type arguments.
//
// The original implementation stored this as a mutable field flipped in
// place (active_iteration) and relied on every caller remembering to reset
// it; SPEC_FULL.md §9 calls instead for an explicit, scoped acquisition.
// WithIteration is that wrapper: it saves the previous iteration, sets the
// requested one for the duration of fn, and restores the previous value via
// defer even if fn panics or returns early.
package generics

// IterationHolder is satisfied by any declaration that tracks which
// GenericIteration is currently active (ast.Function, ast.Struct).
type IterationHolder interface {
	ActiveIterationIndex() int
	SetActiveIterationIndex(int)
}

// WithIteration runs fn with decl's active iteration temporarily set to n,
// then restores whatever it was before — including across early return or
// panic — so nested or recursive resolution of the same generic declaration
// can never leak one call's iteration into another's.
func WithIteration(decl IterationHolder, n int, fn func()) {
	prev := decl.ActiveIterationIndex()
	decl.SetActiveIterationIndex(n)
	defer decl.SetActiveIterationIndex(prev)
	fn()
}

package cbackend

import "strings"

// cName turns an ir.Value/ir.Function name into a valid C identifier.
// The IR builder mangles generic iterations as "name$N" (a separator that is
// not valid in C); original_source/preprocess/2cASTVisitor.cpp uses the
// equivalent "__cgf_N" suffix for a generic iteration and "__cmf_N" for an
// overload-folded multi-function index (S4's symtab.Symbol.Overloads has no
// stable index of its own, so only the generic case is mangled the same way
// here — an overloaded call is already disambiguated by the resolver before
// it reaches the IR, via the distinct *ast.Function each Symbol.Overloads
// entry points at).
func cName(name string) string {
	// i == 0 is the ir.Builder's own "$sret" hidden parameter, not a mangled
	// generic iteration (there is no base name before the separator) — leave
	// it untouched, '$' is accepted in the translation units this package
	// targets (gcc/clang both allow it as an identifier extension).
	if i := strings.IndexByte(name, '$'); i > 0 {
		return name[:i] + "__cgf_" + name[i+1:]
	}
	return name
}

// cLabel turns a BasicBlock.Label into a valid C goto label: block labels
// are dotted ("while.cond"), which isn't legal in a C identifier.
func cLabel(label string) string {
	return strings.ReplaceAll(label, ".", "_")
}

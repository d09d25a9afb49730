package ast

// Handle is a tagged sum over an owned or borrowed Type, replacing the
// hybrid-pointer freeing discipline of the original implementation (§9):
// Go's garbage collector removes the need to track ownership for the
// purpose of freeing memory, but the resolver still needs to know whether a
// Handle's Type may be mutated in place (Owned) or must be copied before any
// mutation (Borrowed, e.g. a type referenced from a shared generic
// iteration).
type Handle struct {
	owned    Type
	borrowed Type
}

// Owned wraps a Type this Handle exclusively controls.
func Owned(t Type) Handle { return Handle{owned: t} }

// BorrowedHandle wraps a Type this Handle only observes.
func BorrowedHandle(t Type) Handle { return Handle{borrowed: t} }

// IsOwned reports which arm of the sum is populated.
func (h Handle) IsOwned() bool { return h.owned != nil }

// Get returns the underlying Type regardless of ownership.
func (h Handle) Get() Type {
	if h.owned != nil {
		return h.owned
	}
	return h.borrowed
}

// MutableCopy returns a Type safe to mutate: the owned Type itself, or a
// shallow copy of the borrowed Type's structurally-copyable cases.
func (h Handle) MutableCopy() Type {
	if h.owned != nil {
		return h.owned
	}
	switch t := h.borrowed.(type) {
	case *PointerType:
		cp := *t
		return &cp
	case *ArrayType:
		cp := *t
		return &cp
	case *GenericType:
		cp := *t
		cp.Args = append([]Type(nil), t.Args...)
		return &cp
	default:
		return h.borrowed
	}
}

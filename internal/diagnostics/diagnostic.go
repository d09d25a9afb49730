// Package diagnostics implements the single Diagnostic type and per-subsystem
// buffers shared by every pipeline stage.
package diagnostics

import (
	"fmt"

	"github.com/hassan/chemc/internal/source"
)

type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic is the single type every subsystem reports through.
type Diagnostic struct {
	Severity Severity
	Position source.Position
	FilePath string
	Message  string
	// Excerpt is an optional human-readable AST/CST excerpt attached by the
	// reporting subsystem; nil when not applicable.
	Excerpt string
}

func (d Diagnostic) String() string {
	if d.Excerpt != "" {
		return fmt.Sprintf("%s: %s: %s\n  %s", d.Position, d.Severity, d.Message, d.Excerpt)
	}
	return fmt.Sprintf("%s: %s: %s", d.Position, d.Severity, d.Message)
}

// Bag is a subsystem-local diagnostics buffer.
type Bag struct {
	items     []Diagnostic
	hasErrors bool
}

func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
	if d.Severity == Error {
		b.hasErrors = true
	}
}

func (b *Bag) Errorf(pos source.Position, file, format string, args ...any) {
	b.Add(Diagnostic{Severity: Error, Position: pos, FilePath: file, Message: fmt.Sprintf(format, args...)})
}

func (b *Bag) Warnf(pos source.Position, file, format string, args ...any) {
	b.Add(Diagnostic{Severity: Warning, Position: pos, FilePath: file, Message: fmt.Sprintf(format, args...)})
}

func (b *Bag) Infof(pos source.Position, file, format string, args ...any) {
	b.Add(Diagnostic{Severity: Info, Position: pos, FilePath: file, Message: fmt.Sprintf(format, args...)})
}

func (b *Bag) HasErrors() bool {
	return b.hasErrors
}

func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Drain empties the bag, returning what it held. Used at phase boundaries
// where the driver pulls diagnostics out of a subsystem into its own report.
func (b *Bag) Drain() []Diagnostic {
	items := b.items
	b.items = nil
	b.hasErrors = false
	return items
}

// Merge appends another bag's items into b.
func (b *Bag) Merge(other *Bag) {
	for _, d := range other.items {
		b.Add(d)
	}
}

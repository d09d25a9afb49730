package optimizer

import (
	"fmt"

	"github.com/hassan/chemc/internal/ir"
)

// Pass is a single IR-to-IR transformation that can be enabled, reordered,
// or run in isolation from the rest of the pipeline.
type Pass interface {
	Name() string
	Run(fn *ir.Function) error
}

// Optimizer runs a fixed sequence of passes over every function in a module.
type Optimizer struct {
	passes        []Pass
	maxIterations int
	verbose       bool
}

// NewOptimizer returns an Optimizer with the default pass order: constant
// folding first (it exposes dead computations), then dead code elimination.
func NewOptimizer() *Optimizer {
	return &Optimizer{
		passes: []Pass{
			&ConstantFoldingPass{},
			&DeadCodeEliminationPass{},
		},
		maxIterations: 10,
	}
}

// AddPass appends a custom pass to the end of the pipeline.
func (o *Optimizer) AddPass(pass Pass) {
	o.passes = append(o.passes, pass)
}

func (o *Optimizer) SetVerbose(verbose bool) {
	o.verbose = verbose
}

func (o *Optimizer) SetMaxIterations(max int) {
	o.maxIterations = max
}

// Optimize runs every pass over every function in module.
func (o *Optimizer) Optimize(module *ir.Module) error {
	for _, fn := range module.Functions {
		if err := o.OptimizeFunction(fn); err != nil {
			return fmt.Errorf("optimization failed for function %s: %w", fn.Name, err)
		}
	}
	return nil
}

// OptimizeFunction runs each pass once, in order, over fn. DeadCodeEliminationPass
// already iterates internally to a fixed point, so a single top-level pass over
// the pipeline is enough to let constant folding feed dead code elimination.
func (o *Optimizer) OptimizeFunction(fn *ir.Function) error {
	for _, pass := range o.passes {
		if o.verbose {
			fmt.Printf("  Running %s...\n", pass.Name())
		}
		if err := pass.Run(fn); err != nil {
			return fmt.Errorf("pass %s failed: %w", pass.Name(), err)
		}
	}
	return nil
}

func (o *Optimizer) countInstructions(fn *ir.Function) int {
	count := 0
	for _, block := range fn.Blocks {
		count += len(block.Instructions)
	}
	return count
}

// OptimizationStats tracks how much a pipeline run changed a module; useful
// for -print-optimization-stats style driver flags.
type OptimizationStats struct {
	InstructionsRemoved int
	BlocksRemoved       int
	ConstantsFolded     int
	PassExecutions      map[string]int
}

func NewOptimizationStats() *OptimizationStats {
	return &OptimizationStats{PassExecutions: make(map[string]int)}
}

func (s *OptimizationStats) String() string {
	return fmt.Sprintf("Optimization Stats:\n"+
		"  Instructions removed: %d\n"+
		"  Blocks removed: %d\n"+
		"  Constants folded: %d\n",
		s.InstructionsRemoved,
		s.BlocksRemoved,
		s.ConstantsFolded)
}

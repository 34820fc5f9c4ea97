// Package optimize implements the four optional IR passes of spec.md
// section 4.3. Each pass rewrites one function's instruction list in
// place conceptually (in practice: returns a new slice) and is run to a
// fixed point before the next pass starts, mirroring the teacher's
// per-function rewrite passes over its own IR.
package optimize

import "nanocc/internal/ir"

// Options selects which passes run; each corresponds to one driver flag
// from spec.md section 6.
type Options struct {
	FoldConstants            bool
	PropagateCopies          bool
	EliminateUnreachableCode bool
	EliminateDeadStores      bool
}

// All enables every pass, matching the driver's --optimize flag.
func All() Options {
	return Options{true, true, true, true}
}

// Function runs the enabled passes over one function's instructions, in
// the fixed order constant-folding, copy-propagation, unreachable-code
// elimination, dead-store elimination, each iterated to a fixed point.
func Function(fn *ir.FunctionDefinition, opts Options) {
	if opts.FoldConstants {
		runToFixedPoint(fn, foldConstants)
	}
	if opts.PropagateCopies {
		runToFixedPoint(fn, propagateCopies)
	}
	if opts.EliminateUnreachableCode {
		runToFixedPoint(fn, eliminateUnreachableCode)
	}
	if opts.EliminateDeadStores {
		runToFixedPoint(fn, eliminateDeadStores)
	}
}

// Program runs Function over every FunctionDefinition in prog.
func Program(prog *ir.Program, opts Options) {
	for _, tl := range prog.TopLevels {
		if fn, ok := tl.(*ir.FunctionDefinition); ok {
			Function(fn, opts)
		}
	}
}

func runToFixedPoint(fn *ir.FunctionDefinition, pass func([]ir.Instruction) ([]ir.Instruction, bool)) {
	for {
		next, changed := pass(fn.Instructions)
		fn.Instructions = next
		if !changed {
			return
		}
	}
}

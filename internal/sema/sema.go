// Package sema runs the three semantic analysis sub-passes of spec.md
// section 4.1 over a parsed program: identifier resolution, type
// checking, and loop labeling, each a standalone tree walk run in
// sequence, mirroring the teacher's stage-per-pass organization.
package sema

import (
	"nanocc/internal/ast"
	"nanocc/internal/ctx"
	"nanocc/internal/symtab"
)

// Analyze runs identifier resolution, type checking, and loop labeling
// over prog in order, mutating it in place and populating fst. It
// stops at the first failing pass, since later passes assume the
// invariants the earlier ones establish.
func Analyze(prog *ast.Program, c *ctx.Context, fst *symtab.FST) error {
	if err := ResolveIdentifiers(prog, c); err != nil {
		return err
	}
	if err := TypeCheck(prog, fst); err != nil {
		return err
	}
	return LabelLoops(prog, c)
}

package optimize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nanocc/internal/ast"
	"nanocc/internal/ir"
)

func TestEliminateUnreachableCodeTrimsAfterUnconditionalJump(t *testing.T) {
	instrs := []ir.Instruction{
		&ir.Jump{Label: "end"},
		&ir.Return{Value: ir.Constant{Const: ast.ConstInt(1)}}, // unreachable
		&ir.Label{Name: "end"},
		&ir.Return{Value: ir.Constant{Const: ast.ConstInt(0)}},
	}
	out, changed := eliminateUnreachableCode(instrs)
	require.True(t, changed)
	for _, instr := range out {
		if ret, ok := instr.(*ir.Return); ok {
			require.Equal(t, ir.Constant{Const: ast.ConstInt(0)}, ret.Value, "the Return after the unconditional Jump must be dropped")
		}
	}
}

func TestEliminateUnreachableCodeDropsBlockWithNoPredecessor(t *testing.T) {
	instrs := []ir.Instruction{
		&ir.Return{Value: ir.Constant{Const: ast.ConstInt(0)}},
		&ir.Label{Name: "dead"},
		&ir.Return{Value: ir.Constant{Const: ast.ConstInt(99)}},
	}
	out, changed := eliminateUnreachableCode(instrs)
	require.True(t, changed)
	for _, instr := range out {
		if lbl, ok := instr.(*ir.Label); ok {
			require.NotEqual(t, "dead", lbl.Name)
		}
	}
}

func TestEliminateUnreachableCodeKeepsLabelReachableViaConditionalJump(t *testing.T) {
	instrs := []ir.Instruction{
		&ir.JumpIfZero{Cond: ir.Var{Name: "x"}, Label: "target"},
		&ir.Return{Value: ir.Constant{Const: ast.ConstInt(1)}},
		&ir.Label{Name: "target"},
		&ir.Return{Value: ir.Constant{Const: ast.ConstInt(0)}},
	}
	out, _ := eliminateUnreachableCode(instrs)
	var sawTarget bool
	for _, instr := range out {
		if lbl, ok := instr.(*ir.Label); ok && lbl.Name == "target" {
			sawTarget = true
		}
	}
	require.True(t, sawTarget, "a label reachable through a conditional jump must survive")
}

func TestEliminateUnreachableCodeNoChangeReturnsFalse(t *testing.T) {
	instrs := []ir.Instruction{
		&ir.Return{Value: ir.Constant{Const: ast.ConstInt(0)}},
	}
	_, changed := eliminateUnreachableCode(instrs)
	require.False(t, changed)
}

func TestEliminateUnreachableCodeHandlesLoopBackEdge(t *testing.T) {
	// A loop whose back-edge target is its own header must not be treated
	// as unreachable just because nothing but the loop itself jumps there.
	instrs := []ir.Instruction{
		&ir.Label{Name: "start"},
		&ir.JumpIfZero{Cond: ir.Var{Name: "x"}, Label: "end"},
		&ir.Jump{Label: "start"},
		&ir.Label{Name: "end"},
		&ir.Return{Value: ir.Constant{Const: ast.ConstInt(0)}},
	}
	out, _ := eliminateUnreachableCode(instrs)
	var sawStart, sawEnd bool
	for _, instr := range out {
		if lbl, ok := instr.(*ir.Label); ok {
			if lbl.Name == "start" {
				sawStart = true
			}
			if lbl.Name == "end" {
				sawEnd = true
			}
		}
	}
	require.True(t, sawStart)
	require.True(t, sawEnd)
}

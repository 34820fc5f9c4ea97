package optimize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nanocc/internal/ast"
	"nanocc/internal/ir"
)

func TestFoldConstantsFoldsBinaryOpOnTwoConstants(t *testing.T) {
	instrs := []ir.Instruction{
		&ir.Binary{Op: ast.Add, Src1: ir.Constant{Const: ast.ConstInt(2)}, Src2: ir.Constant{Const: ast.ConstInt(3)}, Dst: ir.Var{Name: "t0"}},
	}
	out, changed := foldConstants(instrs)
	require.True(t, changed)
	cp, ok := out[0].(*ir.Copy)
	require.True(t, ok)
	require.Equal(t, ast.ConstInt(5), cp.Src.(ir.Constant).Const)
}

func TestFoldConstantsLeavesDivisionByZeroUnfolded(t *testing.T) {
	instrs := []ir.Instruction{
		&ir.Binary{Op: ast.Div, Src1: ir.Constant{Const: ast.ConstInt(1)}, Src2: ir.Constant{Const: ast.ConstInt(0)}, Dst: ir.Var{Name: "t0"}},
	}
	out, changed := foldConstants(instrs)
	require.False(t, changed, "div by zero must be left for the runtime fault to happen")
	_, stillBinary := out[0].(*ir.Binary)
	require.True(t, stillBinary)
}

func TestFoldConstantsLeavesRemainderByZeroUnfolded(t *testing.T) {
	instrs := []ir.Instruction{
		&ir.Binary{Op: ast.Rem, Src1: ir.Constant{Const: ast.ConstInt(9)}, Src2: ir.Constant{Const: ast.ConstInt(0)}, Dst: ir.Var{Name: "t0"}},
	}
	_, changed := foldConstants(instrs)
	require.False(t, changed)
}

func TestFoldConstantsDoesNotFoldWhenAnOperandIsAVariable(t *testing.T) {
	instrs := []ir.Instruction{
		&ir.Binary{Op: ast.Add, Src1: ir.Var{Name: "x"}, Src2: ir.Constant{Const: ast.ConstInt(3)}, Dst: ir.Var{Name: "t0"}},
	}
	out, changed := foldConstants(instrs)
	require.False(t, changed)
	_, stillBinary := out[0].(*ir.Binary)
	require.True(t, stillBinary)
}

func TestFoldConstantsFoldsUnaryNegate(t *testing.T) {
	instrs := []ir.Instruction{
		&ir.Unary{Op: ast.Negate, Src: ir.Constant{Const: ast.ConstInt(5)}, Dst: ir.Var{Name: "t0"}},
	}
	out, changed := foldConstants(instrs)
	require.True(t, changed)
	cp := out[0].(*ir.Copy)
	require.Equal(t, ast.ConstInt(-5), cp.Src.(ir.Constant).Const)
}

func TestFoldConstantsTurnsConstantJumpIfZeroIntoUnconditionalOrNothing(t *testing.T) {
	takeJump := []ir.Instruction{
		&ir.JumpIfZero{Cond: ir.Constant{Const: ast.ConstInt(0)}, Label: "L"},
	}
	out, changed := foldConstants(takeJump)
	require.True(t, changed)
	require.Len(t, out, 1)
	j, ok := out[0].(*ir.Jump)
	require.True(t, ok)
	require.Equal(t, "L", j.Label)

	noJump := []ir.Instruction{
		&ir.JumpIfZero{Cond: ir.Constant{Const: ast.ConstInt(1)}, Label: "L"},
	}
	out2, changed2 := foldConstants(noJump)
	require.True(t, changed2)
	require.Len(t, out2, 0)
}

func TestFoldConstantsComparisonYieldsBooleanInt(t *testing.T) {
	instrs := []ir.Instruction{
		&ir.Binary{Op: ast.LessThan, Src1: ir.Constant{Const: ast.ConstInt(1)}, Src2: ir.Constant{Const: ast.ConstInt(2)}, Dst: ir.Var{Name: "t0"}},
	}
	out, _ := foldConstants(instrs)
	cp := out[0].(*ir.Copy)
	require.Equal(t, ast.ConstInt(1), cp.Src.(ir.Constant).Const)
}

func TestFoldConstantsRespectsLongWidth(t *testing.T) {
	instrs := []ir.Instruction{
		&ir.Binary{Op: ast.Add, Src1: ir.Constant{Const: ast.ConstLong(4294967295)}, Src2: ir.Constant{Const: ast.ConstLong(1)}, Dst: ir.Var{Name: "t0"}},
	}
	out, _ := foldConstants(instrs)
	cp := out[0].(*ir.Copy)
	require.Equal(t, ast.ConstLong(4294967296), cp.Src.(ir.Constant).Const, "long arithmetic must not truncate to 32 bits")
}

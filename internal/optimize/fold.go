package optimize

import (
	"nanocc/internal/ast"
	"nanocc/internal/ir"
)

// foldConstants folds Unary/Binary/comparison/JumpIf* instructions whose
// operands are all Constant. Division and remainder by zero are left
// alone so the eventual runtime fault still happens (spec.md section
// 4.3).
func foldConstants(instrs []ir.Instruction) ([]ir.Instruction, bool) {
	out := make([]ir.Instruction, 0, len(instrs))
	changed := false
	for _, instr := range instrs {
		switch in := instr.(type) {
		case *ir.Unary:
			if c, ok := in.Src.(ir.Constant); ok {
				out = append(out, &ir.Copy{Src: ir.Constant{Const: foldUnary(in.Op, c.Const)}, Dst: in.Dst})
				changed = true
				continue
			}
		case *ir.Binary:
			if c1, ok := in.Src1.(ir.Constant); ok {
				if c2, ok := in.Src2.(ir.Constant); ok {
					if result, ok := foldBinary(in.Op, c1.Const, c2.Const); ok {
						out = append(out, &ir.Copy{Src: ir.Constant{Const: result}, Dst: in.Dst})
						changed = true
						continue
					}
				}
			}
		case *ir.JumpIfZero:
			if c, ok := in.Cond.(ir.Constant); ok {
				changed = true
				if c.Const.AsInt64() == 0 {
					out = append(out, &ir.Jump{Label: in.Label})
				}
				continue
			}
		case *ir.JumpIfNotZero:
			if c, ok := in.Cond.(ir.Constant); ok {
				changed = true
				if c.Const.AsInt64() != 0 {
					out = append(out, &ir.Jump{Label: in.Label})
				}
				continue
			}
		}
		out = append(out, instr)
	}
	return out, changed
}

func foldUnary(op ast.UnaryOp, c ast.Const) ast.Const {
	v := c.AsInt64()
	switch op {
	case ast.Not:
		if v == 0 {
			return ast.ConstInt(1)
		}
		return ast.ConstInt(0)
	case ast.Negate:
		return wrapLike(c, -v)
	case ast.Complement:
		return wrapLike(c, ^v)
	default:
		panic("optimize: unhandled unary op in constant folding")
	}
}

func foldBinary(op ast.BinaryOp, a, b ast.Const) (ast.Const, bool) {
	av, bv := a.AsInt64(), b.AsInt64()
	isLong := ast.IsLong(a.Type())
	switch op {
	case ast.Add:
		return wrap(isLong, av+bv), true
	case ast.Sub:
		return wrap(isLong, av-bv), true
	case ast.Mul:
		return wrap(isLong, av*bv), true
	case ast.Div:
		if bv == 0 {
			return nil, false
		}
		return wrap(isLong, av/bv), true
	case ast.Rem:
		if bv == 0 {
			return nil, false
		}
		return wrap(isLong, av%bv), true
	case ast.BitAnd:
		return wrap(isLong, av&bv), true
	case ast.BitOr:
		return wrap(isLong, av|bv), true
	case ast.BitXor:
		return wrap(isLong, av^bv), true
	case ast.ShiftLeft:
		return wrap(isLong, av<<uint(bv&63)), true
	case ast.ShiftRight:
		return wrap(isLong, av>>uint(bv&63)), true
	case ast.Equal:
		return boolConst(av == bv), true
	case ast.NotEqual:
		return boolConst(av != bv), true
	case ast.LessThan:
		return boolConst(av < bv), true
	case ast.LessOrEqual:
		return boolConst(av <= bv), true
	case ast.GreaterThan:
		return boolConst(av > bv), true
	case ast.GreaterOrEqual:
		return boolConst(av >= bv), true
	default:
		// LogicalAnd/LogicalOr never reach the IR: they are desugared at
		// generation time (spec.md section 3).
		panic("optimize: unhandled binary op in constant folding")
	}
}

func wrapLike(c ast.Const, v int64) ast.Const {
	if ast.IsLong(c.Type()) {
		return ast.ConstLong(v)
	}
	return ast.ConstInt(int32(v))
}

func wrap(isLong bool, v int64) ast.Const {
	if isLong {
		return ast.ConstLong(v)
	}
	return ast.ConstInt(int32(v))
}

func boolConst(b bool) ast.Const {
	if b {
		return ast.ConstInt(1)
	}
	return ast.ConstInt(0)
}

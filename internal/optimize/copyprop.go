package optimize

import "nanocc/internal/ir"

// propagateCopies runs a forward dataflow over a per-block map from
// variable name to the most recent value copied into it, substituting
// uses and dropping identity copies (spec.md section 4.3). The map is
// reset at every Label, since a label may be reached from more than one
// predecessor whose copies don't necessarily agree.
func propagateCopies(instrs []ir.Instruction) ([]ir.Instruction, bool) {
	copies := map[string]ir.Value{}
	changed := false
	out := make([]ir.Instruction, 0, len(instrs))

	subst := func(v ir.Value) ir.Value {
		if vv, ok := v.(ir.Var); ok {
			if val, ok := copies[vv.Name]; ok {
				return val
			}
		}
		return v
	}
	kill := func(name string) {
		delete(copies, name)
		for k, v := range copies {
			if vv, ok := v.(ir.Var); ok && vv.Name == name {
				delete(copies, k)
			}
		}
	}

	for _, instr := range instrs {
		switch in := instr.(type) {
		case *ir.Label:
			copies = map[string]ir.Value{}
			out = append(out, in)
		case *ir.Copy:
			src := subst(in.Src)
			if !sameValue(src, in.Src) {
				changed = true
			}
			if vv, ok := src.(ir.Var); ok && vv.Name == in.Dst.Name {
				changed = true
				continue
			}
			kill(in.Dst.Name)
			copies[in.Dst.Name] = src
			out = append(out, &ir.Copy{Src: src, Dst: in.Dst})
		case *ir.Unary:
			src := subst(in.Src)
			changed = changed || !sameValue(src, in.Src)
			kill(in.Dst.Name)
			out = append(out, &ir.Unary{Op: in.Op, Src: src, Dst: in.Dst})
		case *ir.Binary:
			s1, s2 := subst(in.Src1), subst(in.Src2)
			changed = changed || !sameValue(s1, in.Src1) || !sameValue(s2, in.Src2)
			kill(in.Dst.Name)
			out = append(out, &ir.Binary{Op: in.Op, Src1: s1, Src2: s2, Dst: in.Dst})
		case *ir.Return:
			v := subst(in.Value)
			changed = changed || !sameValue(v, in.Value)
			out = append(out, &ir.Return{Value: v})
		case *ir.JumpIfZero:
			v := subst(in.Cond)
			changed = changed || !sameValue(v, in.Cond)
			out = append(out, &ir.JumpIfZero{Cond: v, Label: in.Label})
		case *ir.JumpIfNotZero:
			v := subst(in.Cond)
			changed = changed || !sameValue(v, in.Cond)
			out = append(out, &ir.JumpIfNotZero{Cond: v, Label: in.Label})
		case *ir.FunctionCall:
			args := make([]ir.Value, len(in.Args))
			for i, a := range in.Args {
				args[i] = subst(a)
				changed = changed || !sameValue(args[i], a)
			}
			kill(in.Dst.Name)
			out = append(out, &ir.FunctionCall{Name: in.Name, Args: args, Dst: in.Dst})
		case *ir.SignExtend:
			src := subst(in.Src)
			changed = changed || !sameValue(src, in.Src)
			kill(in.Dst.Name)
			out = append(out, &ir.SignExtend{Src: src, Dst: in.Dst})
		case *ir.Truncate:
			src := subst(in.Src)
			changed = changed || !sameValue(src, in.Src)
			kill(in.Dst.Name)
			out = append(out, &ir.Truncate{Src: src, Dst: in.Dst})
		default:
			out = append(out, instr)
		}
	}
	return out, changed
}

func sameValue(a, b ir.Value) bool {
	switch av := a.(type) {
	case ir.Var:
		bv, ok := b.(ir.Var)
		return ok && av.Name == bv.Name
	case ir.Constant:
		bv, ok := b.(ir.Constant)
		return ok && av.Const.AsInt64() == bv.Const.AsInt64() && av.Const.Type().Equal(bv.Const.Type())
	default:
		return false
	}
}

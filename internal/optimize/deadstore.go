package optimize

import "nanocc/internal/ir"

// eliminateDeadStores removes a Copy/Unary/Binary/SignExtend/Truncate
// whose destination is dead at its program point, via backward
// liveness (spec.md section 4.3). FunctionCall is always kept for its
// side effects; only its unused destination is irrelevant to liveness.
func eliminateDeadStores(instrs []ir.Instruction) ([]ir.Instruction, bool) {
	labelLiveIn := converge(instrs)

	live := map[string]bool{}
	keep := make([]bool, len(instrs))
	changed := false

	for i := len(instrs) - 1; i >= 0; i-- {
		switch in := instrs[i].(type) {
		case *ir.Label:
			keep[i] = true
			live = copySet(labelLiveIn[in.Name])
			continue
		case *ir.Jump:
			keep[i] = true
			live = unionSets(live, labelLiveIn[in.Label])
			continue
		case *ir.JumpIfZero:
			keep[i] = true
			live = unionSets(live, labelLiveIn[in.Label])
			addUse(live, in.Cond)
			continue
		case *ir.JumpIfNotZero:
			keep[i] = true
			live = unionSets(live, labelLiveIn[in.Label])
			addUse(live, in.Cond)
			continue
		case *ir.Return:
			keep[i] = true
			live = map[string]bool{}
			addUse(live, in.Value)
			continue
		}

		dst, uses, hasDst, isCall := instrEffects(instrs[i])
		if hasDst && !live[dst] && !isCall {
			changed = true
			continue
		}
		keep[i] = true
		if hasDst {
			delete(live, dst)
		}
		for _, u := range uses {
			addUse(live, u)
		}
	}

	out := make([]ir.Instruction, 0, len(instrs))
	for i, instr := range instrs {
		if keep[i] {
			out = append(out, instr)
		}
	}
	return out, changed
}

// converge computes, for every label, the set of variables live on
// entry to the block it heads, iterating to a fixed point since loop
// back-edges make the CFG cyclic.
func converge(instrs []ir.Instruction) map[string]map[string]bool {
	labelLiveIn := map[string]map[string]bool{}
	for {
		changed := false
		live := map[string]bool{}
		for i := len(instrs) - 1; i >= 0; i-- {
			switch in := instrs[i].(type) {
			case *ir.Label:
				if !setEqual(labelLiveIn[in.Name], live) {
					labelLiveIn[in.Name] = copySet(live)
					changed = true
				}
				live = copySet(labelLiveIn[in.Name])
			case *ir.Jump:
				live = unionSets(live, labelLiveIn[in.Label])
			case *ir.JumpIfZero:
				live = unionSets(live, labelLiveIn[in.Label])
				addUse(live, in.Cond)
			case *ir.JumpIfNotZero:
				live = unionSets(live, labelLiveIn[in.Label])
				addUse(live, in.Cond)
			case *ir.Return:
				live = map[string]bool{}
				addUse(live, in.Value)
			default:
				dst, uses, hasDst, _ := instrEffects(instrs[i])
				if hasDst {
					delete(live, dst)
				}
				for _, u := range uses {
					addUse(live, u)
				}
			}
		}
		if !changed {
			return labelLiveIn
		}
	}
}

// instrEffects reports the destination (if any) and the operand values
// read by an instruction that isn't a control-transfer (those are
// handled directly by their callers, since they also touch label state).
func instrEffects(instr ir.Instruction) (dst string, uses []ir.Value, hasDst, isCall bool) {
	switch in := instr.(type) {
	case *ir.Copy:
		return in.Dst.Name, []ir.Value{in.Src}, true, false
	case *ir.Unary:
		return in.Dst.Name, []ir.Value{in.Src}, true, false
	case *ir.Binary:
		return in.Dst.Name, []ir.Value{in.Src1, in.Src2}, true, false
	case *ir.SignExtend:
		return in.Dst.Name, []ir.Value{in.Src}, true, false
	case *ir.Truncate:
		return in.Dst.Name, []ir.Value{in.Src}, true, false
	case *ir.FunctionCall:
		return in.Dst.Name, append([]ir.Value{}, in.Args...), true, true
	default:
		return "", nil, false, false
	}
}

func addUse(live map[string]bool, v ir.Value) {
	if vv, ok := v.(ir.Var); ok {
		live[vv.Name] = true
	}
}

func copySet(s map[string]bool) map[string]bool {
	out := make(map[string]bool, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func unionSets(a, b map[string]bool) map[string]bool {
	out := copySet(a)
	for k, v := range b {
		out[k] = v
	}
	return out
}

func setEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

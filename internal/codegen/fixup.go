package codegen

import "nanocc/internal/asmir"

const int32Min, int32Max = -(1 << 31), (1 << 31) - 1

func fitsInt32(v int64) bool { return v >= int32Min && v <= int32Max }

func isMemory(op asmir.Operand) bool {
	switch op.(type) {
	case asmir.Stack, asmir.Data:
		return true
	default:
		return false
	}
}

// fixup legalizes the x86-64 operand constraints of spec.md section
// 4.4.3, rewriting illegal instructions with the R10/R11 scratch
// registers reserved for this pass, then inserts the stack-frame
// prologue subtraction at the start of the body.
func fixup(fn *asmir.FunctionDefinition) {
	var out []asmir.Instruction
	for _, instr := range fn.Body {
		out = append(out, fixupInstruction(instr)...)
	}
	if fn.StackSize > 0 {
		out = append([]asmir.Instruction{&asmir.Binary{
			Op:   asmir.BSub,
			Type: asmir.Quadword,
			Src:  asmir.Imm{Value: int64(fn.StackSize)},
			Dst:  asmir.Reg{ID: asmir.SP},
		}}, out...)
	}
	fn.Body = out
}

func fixupInstruction(instr asmir.Instruction) []asmir.Instruction {
	r10 := asmir.Reg{ID: asmir.R10}
	r11 := asmir.Reg{ID: asmir.R11}

	switch in := instr.(type) {
	case *asmir.Mov:
		if isMemory(in.Src) && isMemory(in.Dst) {
			return []asmir.Instruction{
				&asmir.Mov{Type: in.Type, Src: in.Src, Dst: r10},
				&asmir.Mov{Type: in.Type, Src: r10, Dst: in.Dst},
			}
		}
		if in.Type == asmir.Quadword && isMemory(in.Dst) {
			if imm, ok := in.Src.(asmir.Imm); ok && !fitsInt32(imm.Value) {
				return []asmir.Instruction{
					&asmir.Mov{Type: asmir.Quadword, Src: imm, Dst: r10},
					&asmir.Mov{Type: asmir.Quadword, Src: r10, Dst: in.Dst},
				}
			}
		}
		return []asmir.Instruction{in}

	case *asmir.Movsx:
		_, srcImm := in.Src.(asmir.Imm)
		dstMem := isMemory(in.Dst)
		switch {
		case srcImm && dstMem:
			return []asmir.Instruction{
				&asmir.Mov{Type: asmir.Longword, Src: in.Src, Dst: r10},
				&asmir.Movsx{Src: r10, Dst: r11},
				&asmir.Mov{Type: asmir.Quadword, Src: r11, Dst: in.Dst},
			}
		case srcImm:
			return []asmir.Instruction{
				&asmir.Mov{Type: asmir.Longword, Src: in.Src, Dst: r10},
				&asmir.Movsx{Src: r10, Dst: in.Dst},
			}
		case dstMem:
			return []asmir.Instruction{
				&asmir.Movsx{Src: in.Src, Dst: r11},
				&asmir.Mov{Type: asmir.Quadword, Src: r11, Dst: in.Dst},
			}
		}
		return []asmir.Instruction{in}

	case *asmir.Binary:
		switch in.Op {
		case asmir.BAdd, asmir.BSub:
			if isMemory(in.Src) && isMemory(in.Dst) {
				return []asmir.Instruction{
					&asmir.Mov{Type: in.Type, Src: in.Src, Dst: r10},
					&asmir.Binary{Op: in.Op, Type: in.Type, Src: r10, Dst: in.Dst},
				}
			}
			if in.Type == asmir.Quadword {
				if imm, ok := in.Src.(asmir.Imm); ok && !fitsInt32(imm.Value) {
					return []asmir.Instruction{
						&asmir.Mov{Type: asmir.Quadword, Src: imm, Dst: r10},
						&asmir.Binary{Op: in.Op, Type: in.Type, Src: r10, Dst: in.Dst},
					}
				}
			}
			return []asmir.Instruction{in}
		case asmir.BImul:
			if isMemory(in.Dst) {
				return []asmir.Instruction{
					&asmir.Mov{Type: in.Type, Src: in.Dst, Dst: r11},
					&asmir.Binary{Op: asmir.BImul, Type: in.Type, Src: in.Src, Dst: r11},
					&asmir.Mov{Type: in.Type, Src: r11, Dst: in.Dst},
				}
			}
			return []asmir.Instruction{in}
		}
		return []asmir.Instruction{in}

	case *asmir.Cmp:
		var out []asmir.Instruction
		src, dst := in.Src, in.Dst
		if isMemory(src) && isMemory(dst) {
			out = append(out, &asmir.Mov{Type: in.Type, Src: src, Dst: r10})
			src = r10
		}
		if _, ok := dst.(asmir.Imm); ok {
			out = append(out, &asmir.Mov{Type: in.Type, Src: dst, Dst: r11})
			dst = r11
		}
		// Re-check src after the swaps above: a dst-was-immediate Cmp
		// can still carry an oversized Quadword immediate on the src
		// side (e.g. "5000000000L < 6000000000L"), which the dstImm
		// branch alone would leave unfixed.
		if in.Type == asmir.Quadword {
			if imm, ok := src.(asmir.Imm); ok && !fitsInt32(imm.Value) {
				out = append(out, &asmir.Mov{Type: asmir.Quadword, Src: imm, Dst: r10})
				src = r10
			}
		}
		out = append(out, &asmir.Cmp{Type: in.Type, Src: src, Dst: dst})
		return out

	case *asmir.Idiv:
		if imm, ok := in.Src.(asmir.Imm); ok {
			return []asmir.Instruction{
				&asmir.Mov{Type: in.Type, Src: imm, Dst: r10},
				&asmir.Idiv{Type: in.Type, Src: r10},
			}
		}
		return []asmir.Instruction{in}

	default:
		return []asmir.Instruction{instr}
	}
}

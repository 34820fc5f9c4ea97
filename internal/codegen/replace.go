package codegen

import (
	"nanocc/internal/asmir"
	"nanocc/internal/symtab"
)

// replacePseudos assigns every Pseudo operand in fn to a Stack or Data
// operand per spec.md section 4.4.2, then rounds the frame size up to
// the nearest 16-byte boundary.
func replacePseudos(fn *asmir.FunctionDefinition, backend *symtab.Backend) {
	offsets := map[string]int{}
	frame := 0

	resolve := func(op asmir.Operand) asmir.Operand {
		p, ok := op.(asmir.Pseudo)
		if !ok {
			return op
		}
		entry := backend.MustGet(p.Name)
		if _, ok := entry.(symtab.StaticEntry); ok {
			return asmir.Data{Name: p.Name}
		}
		if off, ok := offsets[p.Name]; ok {
			return asmir.Stack{Offset: off}
		}
		obj := entry.(symtab.ObjectEntry)
		if asmir.TypeOf(obj.Type) == asmir.Quadword {
			if frame%8 != 0 {
				frame += 8 - frame%8
			}
			frame += 8
		} else {
			frame += 4
		}
		off := -frame
		offsets[p.Name] = off
		return asmir.Stack{Offset: off}
	}

	for i, instr := range fn.Body {
		fn.Body[i] = rewriteOperands(instr, resolve)
	}

	if frame%16 != 0 {
		frame += 16 - frame%16
	}
	fn.StackSize = frame
}

// rewriteOperands applies resolve to every operand slot of instr,
// returning a new instruction of the same kind.
func rewriteOperands(instr asmir.Instruction, resolve func(asmir.Operand) asmir.Operand) asmir.Instruction {
	switch in := instr.(type) {
	case *asmir.Mov:
		return &asmir.Mov{Type: in.Type, Src: resolve(in.Src), Dst: resolve(in.Dst)}
	case *asmir.Movsx:
		return &asmir.Movsx{Src: resolve(in.Src), Dst: resolve(in.Dst)}
	case *asmir.Unary:
		return &asmir.Unary{Op: in.Op, Type: in.Type, Dst: resolve(in.Dst)}
	case *asmir.Binary:
		return &asmir.Binary{Op: in.Op, Type: in.Type, Src: resolve(in.Src), Dst: resolve(in.Dst)}
	case *asmir.Cmp:
		return &asmir.Cmp{Type: in.Type, Src: resolve(in.Src), Dst: resolve(in.Dst)}
	case *asmir.Idiv:
		return &asmir.Idiv{Type: in.Type, Src: resolve(in.Src)}
	case *asmir.SetCC:
		return &asmir.SetCC{Cond: in.Cond, Dst: resolve(in.Dst)}
	case *asmir.Push:
		return &asmir.Push{Src: resolve(in.Src)}
	default:
		return instr
	}
}

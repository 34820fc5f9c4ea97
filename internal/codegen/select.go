// Package codegen turns IR into x86-64 assembly: instruction selection
// with pseudo operands (spec.md section 4.4.1), pseudo-to-stack
// replacement (4.4.2), and the fixup pass (4.4.3).
package codegen

import (
	"github.com/samber/lo"

	"nanocc/internal/asmir"
	"nanocc/internal/ast"
	"nanocc/internal/ir"
	"nanocc/internal/symtab"
)

var argRegs = [...]asmir.RegID{asmir.DI, asmir.SI, asmir.DX, asmir.CX, asmir.R8, asmir.R9}

// Generate runs instruction selection, pseudo-to-stack replacement and
// the fixup pass over the whole program and returns the finished
// assembly tree.
func Generate(prog *ir.Program, fst *symtab.FST) *asmir.Program {
	backend := symtab.BuildBackend(fst)
	out := &asmir.Program{}
	for _, tl := range prog.TopLevels {
		switch t := tl.(type) {
		case *ir.FunctionDefinition:
			fn := selectFunction(t, fst)
			replacePseudos(fn, backend)
			fixup(fn)
			out.TopLevels = append(out.TopLevels, fn)
		case *ir.StaticVariable:
			out.TopLevels = append(out.TopLevels, &asmir.StaticVariable{
				Name:      t.Name,
				Global:    t.Global,
				Alignment: alignmentOf(t.Type),
				Init:      t.Init,
			})
		}
	}
	return out
}

func alignmentOf(t ast.Type) int {
	if ast.IsLong(t) {
		return 8
	}
	return 4
}

type selector struct {
	fst  *symtab.FST
	out  []asmir.Instruction
}

func (s *selector) emit(i asmir.Instruction) { s.out = append(s.out, i) }

func selectFunction(fn *ir.FunctionDefinition, fst *symtab.FST) *asmir.FunctionDefinition {
	s := &selector{fst: fst}
	for i, p := range fn.Params {
		t := s.typeOf(ir.Var{Name: p})
		if i < len(argRegs) {
			s.emit(&asmir.Mov{Type: t, Src: asmir.Reg{ID: argRegs[i]}, Dst: asmir.Pseudo{Name: p}})
		} else {
			offset := 16 + 8*(i-len(argRegs))
			s.emit(&asmir.Mov{Type: t, Src: asmir.Stack{Offset: offset}, Dst: asmir.Pseudo{Name: p}})
		}
	}
	for _, instr := range fn.Instructions {
		s.instruction(instr)
	}
	return &asmir.FunctionDefinition{Name: fn.Name, Global: fn.Global, Body: s.out}
}

func (s *selector) typeOf(v ir.Value) asmir.AssemblyType {
	switch vv := v.(type) {
	case ir.Constant:
		return asmir.TypeOf(vv.Const.Type())
	case ir.Var:
		entry := s.fst.MustGet(vv.Name)
		return asmir.TypeOf(entry.Type)
	default:
		panic("codegen: unhandled value kind")
	}
}

func operand(v ir.Value) asmir.Operand {
	switch vv := v.(type) {
	case ir.Constant:
		return asmir.Imm{Value: vv.Const.AsInt64()}
	case ir.Var:
		return asmir.Pseudo{Name: vv.Name}
	default:
		panic("codegen: unhandled value kind")
	}
}

func unaryOp(op ast.UnaryOp) asmir.UnaryOp {
	switch op {
	case ast.Negate:
		return asmir.Neg
	case ast.Complement:
		return asmir.Not
	default:
		panic("codegen: not an arithmetic unary op")
	}
}

func binaryOp(op ast.BinaryOp) asmir.BinaryOp {
	switch op {
	case ast.Add:
		return asmir.BAdd
	case ast.Sub:
		return asmir.BSub
	case ast.Mul:
		return asmir.BImul
	default:
		panic("codegen: not an arithmetic binary op")
	}
}

func (s *selector) instruction(instr ir.Instruction) {
	switch in := instr.(type) {
	case *ir.Return:
		t := s.typeOf(in.Value)
		s.emit(&asmir.Mov{Type: t, Src: operand(in.Value), Dst: asmir.Reg{ID: asmir.AX}})
		s.emit(&asmir.Ret{})
	case *ir.Unary:
		s.selectUnary(in)
	case *ir.Binary:
		s.selectBinary(in)
	case *ir.Copy:
		t := s.typeOf(in.Src)
		s.emit(&asmir.Mov{Type: t, Src: operand(in.Src), Dst: operand(in.Dst)})
	case *ir.Jump:
		s.emit(&asmir.Jmp{Label: in.Label})
	case *ir.JumpIfZero:
		t := s.typeOf(in.Cond)
		s.emit(&asmir.Cmp{Type: t, Src: asmir.Imm{Value: 0}, Dst: operand(in.Cond)})
		s.emit(&asmir.JmpCC{Cond: asmir.E, Label: in.Label})
	case *ir.JumpIfNotZero:
		t := s.typeOf(in.Cond)
		s.emit(&asmir.Cmp{Type: t, Src: asmir.Imm{Value: 0}, Dst: operand(in.Cond)})
		s.emit(&asmir.JmpCC{Cond: asmir.NE, Label: in.Label})
	case *ir.Label:
		s.emit(&asmir.Label{Name: in.Name})
	case *ir.FunctionCall:
		s.selectCall(in)
	case *ir.SignExtend:
		s.emit(&asmir.Movsx{Src: operand(in.Src), Dst: operand(in.Dst)})
	case *ir.Truncate:
		s.emit(&asmir.Mov{Type: asmir.Longword, Src: operand(in.Src), Dst: operand(in.Dst)})
	default:
		panic("codegen: unhandled IR instruction kind")
	}
}

func (s *selector) selectUnary(in *ir.Unary) {
	dst := operand(in.Dst)
	if in.Op == ast.Not {
		t := s.typeOf(in.Src)
		s.emit(&asmir.Cmp{Type: t, Src: asmir.Imm{Value: 0}, Dst: operand(in.Src)})
		s.emit(&asmir.Mov{Type: asmir.Longword, Src: asmir.Imm{Value: 0}, Dst: dst})
		s.emit(&asmir.SetCC{Cond: asmir.E, Dst: dst})
		return
	}
	t := s.typeOf(in.Src)
	s.emit(&asmir.Mov{Type: t, Src: operand(in.Src), Dst: dst})
	s.emit(&asmir.Unary{Op: unaryOp(in.Op), Type: t, Dst: dst})
}

func (s *selector) selectBinary(in *ir.Binary) {
	dst := operand(in.Dst)
	switch in.Op {
	case ast.Add, ast.Sub, ast.Mul:
		t := s.typeOf(in.Src1)
		s.emit(&asmir.Mov{Type: t, Src: operand(in.Src1), Dst: dst})
		s.emit(&asmir.Binary{Op: binaryOp(in.Op), Type: t, Src: operand(in.Src2), Dst: dst})
	case ast.Div, ast.Rem:
		t := s.typeOf(in.Src1)
		s.emit(&asmir.Mov{Type: t, Src: operand(in.Src1), Dst: asmir.Reg{ID: asmir.AX}})
		s.emit(&asmir.Cdq{Type: t})
		s.emit(&asmir.Idiv{Type: t, Src: operand(in.Src2)})
		result := asmir.Reg{ID: asmir.AX}
		if in.Op == ast.Rem {
			result = asmir.Reg{ID: asmir.DX}
		}
		s.emit(&asmir.Mov{Type: t, Src: result, Dst: dst})
	default:
		t := s.typeOf(in.Src1)
		s.emit(&asmir.Cmp{Type: t, Src: operand(in.Src2), Dst: operand(in.Src1)})
		s.emit(&asmir.Mov{Type: asmir.Longword, Src: asmir.Imm{Value: 0}, Dst: dst})
		s.emit(&asmir.SetCC{Cond: asmir.CondCodeFor(in.Op), Dst: dst})
	}
}

// selectCall lowers a call per the System V AMD64 convention of
// spec.md section 4.4.1: first six integer args in registers, the rest
// pushed right-to-left with the stack kept 16-byte aligned at Call.
func (s *selector) selectCall(in *ir.FunctionCall) {
	// lo.Slice clamps its bounds, so this partitions the first six
	// register args from the rest without a separate length check.
	regArgs := lo.Slice(in.Args, 0, len(argRegs))
	stackArgs := lo.Slice(in.Args, len(argRegs), len(in.Args))

	padding := 0
	if len(stackArgs)%2 != 0 {
		padding = 8
		s.emit(&asmir.Binary{Op: asmir.BSub, Type: asmir.Quadword, Src: asmir.Imm{Value: 8}, Dst: asmir.Reg{ID: asmir.SP}})
	}

	for i := len(stackArgs) - 1; i >= 0; i-- {
		arg := stackArgs[i]
		t := s.typeOf(arg)
		op := operand(arg)
		if t == asmir.Quadword {
			s.emit(&asmir.Push{Src: op})
			continue
		}
		if _, isImm := op.(asmir.Imm); isImm {
			s.emit(&asmir.Push{Src: op})
			continue
		}
		s.emit(&asmir.Mov{Type: asmir.Longword, Src: op, Dst: asmir.Reg{ID: asmir.AX}})
		s.emit(&asmir.Push{Src: asmir.Reg{ID: asmir.AX}})
	}

	for i, arg := range regArgs {
		t := s.typeOf(arg)
		s.emit(&asmir.Mov{Type: t, Src: operand(arg), Dst: asmir.Reg{ID: argRegs[i]}})
	}

	s.emit(&asmir.Call{Name: in.Name})

	cleanup := 8*len(stackArgs) + padding
	if cleanup > 0 {
		s.emit(&asmir.Binary{Op: asmir.BAdd, Type: asmir.Quadword, Src: asmir.Imm{Value: int64(cleanup)}, Dst: asmir.Reg{ID: asmir.SP}})
	}

	t := s.typeOf(in.Dst)
	s.emit(&asmir.Mov{Type: t, Src: asmir.Reg{ID: asmir.AX}, Dst: operand(in.Dst)})
}

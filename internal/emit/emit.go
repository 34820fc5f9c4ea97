// Package emit serializes an assembly tree into AT&T-syntax text,
// matching spec.md section 6's bit-exact output format. The buffer is
// built with a bytes.Buffer the way the teacher's own printer does,
// then canonicalized through github.com/klauspost/asmfmt so stray
// whitespace differences never leak into the golden output.
package emit

import (
	"bytes"
	"fmt"

	"github.com/klauspost/asmfmt"
	"github.com/pkg/errors"

	"nanocc/internal/ast"
	"nanocc/internal/asmir"
)

// Platform selects the symbol-prefixing and directive conventions of
// spec.md section 6.
type Platform int

const (
	Linux Platform = iota
	MacOS
)

// Emit renders prog as assembly text for the given platform.
func Emit(prog *asmir.Program, platform Platform) (string, error) {
	e := &emitter{platform: platform}
	e.program(prog)
	formatted, err := asmfmt.Format(bytes.NewReader(e.buf.Bytes()))
	if err != nil {
		return "", errors.Wrap(err, "formatting generated assembly")
	}
	return string(formatted), nil
}

type emitter struct {
	buf      bytes.Buffer
	platform Platform
}

func (e *emitter) line(format string, args ...any) {
	fmt.Fprintf(&e.buf, format+"\n", args...)
}

// symbol applies the platform's leading-underscore convention to a
// function or data symbol (never to a local .L label).
func (e *emitter) symbol(name string) string {
	if e.platform == MacOS {
		return "_" + name
	}
	return name
}

func (e *emitter) alignDirective(n int) string {
	if e.platform == MacOS {
		return fmt.Sprintf(".balign %d", n)
	}
	return fmt.Sprintf(".align %d", n)
}

func (e *emitter) program(p *asmir.Program) {
	for _, tl := range p.TopLevels {
		switch t := tl.(type) {
		case *asmir.FunctionDefinition:
			e.function(t)
		case *asmir.StaticVariable:
			e.staticVariable(t)
		}
	}
	if e.platform == Linux {
		e.line(`.section .note.GNU-stack,"",@progbits`)
	}
}

func (e *emitter) function(fn *asmir.FunctionDefinition) {
	e.line(".text")
	if fn.Global {
		e.line(".globl %s", e.symbol(fn.Name))
	}
	e.line("%s:", e.symbol(fn.Name))
	e.line("\tpushq %%rbp")
	e.line("\tmovq %%rsp, %%rbp")
	for _, instr := range fn.Body {
		e.instruction(instr)
	}
}

func (e *emitter) staticVariable(v *asmir.StaticVariable) {
	if v.Init.IsZero() {
		e.line(".bss")
	} else {
		e.line(".data")
	}
	if v.Global {
		e.line(".globl %s", e.symbol(v.Name))
	}
	e.line(e.alignDirective(v.Alignment))
	e.line("%s:", e.symbol(v.Name))
	if v.Init.IsZero() {
		e.line("\t.zero %d", v.Alignment)
		return
	}
	switch init := v.Init.(type) {
	case ast.IntInit:
		e.line("\t.long %d", int32(init))
	case ast.LongInit:
		e.line("\t.quad %d", int64(init))
	}
}

func (e *emitter) instruction(instr asmir.Instruction) {
	switch in := instr.(type) {
	case *asmir.Mov:
		e.line("\tmov%s %s, %s", suffix(in.Type), e.operand(in.Src, in.Type), e.operand(in.Dst, in.Type))
	case *asmir.Movsx:
		e.line("\tmovslq %s, %s", e.operand(in.Src, asmir.Longword), e.operand(in.Dst, asmir.Quadword))
	case *asmir.Unary:
		e.line("\t%s%s %s", unaryMnemonic(in.Op), suffix(in.Type), e.operand(in.Dst, in.Type))
	case *asmir.Binary:
		e.line("\t%s%s %s, %s", binaryMnemonic(in.Op), suffix(in.Type), e.operand(in.Src, in.Type), e.operand(in.Dst, in.Type))
	case *asmir.Cmp:
		e.line("\tcmp%s %s, %s", suffix(in.Type), e.operand(in.Src, in.Type), e.operand(in.Dst, in.Type))
	case *asmir.Idiv:
		e.line("\tidiv%s %s", suffix(in.Type), e.operand(in.Src, in.Type))
	case *asmir.Cdq:
		if in.Type == asmir.Quadword {
			e.line("\tcqto")
		} else {
			e.line("\tcltd")
		}
	case *asmir.Jmp:
		e.line("\tjmp .L%s", in.Label)
	case *asmir.JmpCC:
		e.line("\tj%s .L%s", in.Cond, in.Label)
	case *asmir.SetCC:
		e.line("\tset%s %s", in.Cond, e.byteOperand(in.Dst))
	case *asmir.Label:
		e.line(".L%s:", in.Name)
	case *asmir.Push:
		e.line("\tpushq %s", e.operand(in.Src, asmir.Quadword))
	case *asmir.Call:
		e.line("\tcall %s", e.callTarget(in.Name))
	case *asmir.Ret:
		e.line("\tmovq %%rbp, %%rsp")
		e.line("\tpopq %%rbp")
		e.line("\tret")
	}
}

func (e *emitter) callTarget(name string) string {
	target := e.symbol(name)
	if e.platform == Linux {
		return target + "@PLT"
	}
	return target
}

func suffix(t asmir.AssemblyType) string {
	if t == asmir.Quadword {
		return "q"
	}
	return "l"
}

func unaryMnemonic(op asmir.UnaryOp) string {
	if op == asmir.Not {
		return "not"
	}
	return "neg"
}

func binaryMnemonic(op asmir.BinaryOp) string {
	switch op {
	case asmir.BAdd:
		return "add"
	case asmir.BSub:
		return "sub"
	case asmir.BImul:
		return "imul"
	default:
		panic("emit: unhandled binary op")
	}
}

var reg64 = map[asmir.RegID]string{
	asmir.AX: "rax", asmir.CX: "rcx", asmir.DX: "rdx", asmir.DI: "rdi", asmir.SI: "rsi",
	asmir.R8: "r8", asmir.R9: "r9", asmir.R10: "r10", asmir.R11: "r11", asmir.SP: "rsp", asmir.BP: "rbp",
}

var reg32 = map[asmir.RegID]string{
	asmir.AX: "eax", asmir.CX: "ecx", asmir.DX: "edx", asmir.DI: "edi", asmir.SI: "esi",
	asmir.R8: "r8d", asmir.R9: "r9d", asmir.R10: "r10d", asmir.R11: "r11d", asmir.SP: "esp", asmir.BP: "ebp",
}

var reg8 = map[asmir.RegID]string{
	asmir.AX: "al", asmir.CX: "cl", asmir.DX: "dl", asmir.DI: "dil", asmir.SI: "sil",
	asmir.R8: "r8b", asmir.R9: "r9b", asmir.R10: "r10b", asmir.R11: "r11b",
}

func (e *emitter) operand(op asmir.Operand, t asmir.AssemblyType) string {
	switch o := op.(type) {
	case asmir.Imm:
		return fmt.Sprintf("$%d", o.Value)
	case asmir.Reg:
		if t == asmir.Quadword {
			return "%" + reg64[o.ID]
		}
		return "%" + reg32[o.ID]
	case asmir.Stack:
		return fmt.Sprintf("%d(%%rbp)", o.Offset)
	case asmir.Data:
		return e.symbol(o.Name) + "(%rip)"
	case asmir.Pseudo:
		panic("emit: pseudo operand reached the printer: " + o.Name)
	default:
		panic("emit: unhandled operand kind")
	}
}

func (e *emitter) byteOperand(op asmir.Operand) string {
	switch o := op.(type) {
	case asmir.Reg:
		return "%" + reg8[o.ID]
	case asmir.Stack:
		return fmt.Sprintf("%d(%%rbp)", o.Offset)
	case asmir.Data:
		return e.symbol(o.Name) + "(%rip)"
	default:
		panic("emit: unhandled SetCC destination kind")
	}
}

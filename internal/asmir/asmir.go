// Package asmir defines the x86-64 assembly data model of spec.md
// section 3: the last tagged-sum tree before the emitter turns it into
// text. Instruction selection, pseudo-to-stack replacement and the
// fixup pass all operate on this tree in place.
package asmir

import (
	"fmt"

	"nanocc/internal/ast"
)

// AssemblyType records the operand width an instruction was selected
// for, since x86-64 opcodes and register widths both depend on it.
type AssemblyType int

const (
	Longword AssemblyType = iota
	Quadword
)

func (t AssemblyType) String() string {
	if t == Quadword {
		return "quadword"
	}
	return "longword"
}

// TypeOf maps a frontend Type to the assembly width that represents it.
func TypeOf(t ast.Type) AssemblyType {
	if ast.IsLong(t) {
		return Quadword
	}
	return Longword
}

// CondCode is the closed set of condition codes spec.md section 3 names.
type CondCode int

const (
	E CondCode = iota
	NE
	G
	GE
	L
	LE
)

func (c CondCode) String() string {
	names := [...]string{"e", "ne", "g", "ge", "l", "le"}
	return names[c]
}

// CondCodeFor maps a relational/equality AST operator to its condition
// code (spec.md section 4.4.1).
func CondCodeFor(op ast.BinaryOp) CondCode {
	switch op {
	case ast.Equal:
		return E
	case ast.NotEqual:
		return NE
	case ast.LessThan:
		return L
	case ast.LessOrEqual:
		return LE
	case ast.GreaterThan:
		return G
	case ast.GreaterOrEqual:
		return GE
	default:
		panic("asmir: not a relational operator")
	}
}

// RegID is an abstract register identity; emission picks the concrete
// 1/4/8-byte name (spec.md section 3).
type RegID int

const (
	AX RegID = iota
	CX
	DX
	DI
	SI
	R8
	R9
	R10
	R11
	SP
	BP
)

// Operand is the closed set Imm | Reg | Pseudo | Stack | Data.
type Operand interface {
	isOperand()
	String() string
}

type Imm struct{ Value int64 }

type Reg struct{ ID RegID }

// Pseudo names a not-yet-allocated IR value; pseudo-to-stack replacement
// rewrites every Pseudo into a Stack or Data operand.
type Pseudo struct{ Name string }

// Stack is an offset from %rbp (negative, growing downward).
type Stack struct{ Offset int }

// Data names module-level storage: a variable whose backend entry is a
// StaticEntry. Compiler temporaries are never Data; they live on the stack.
type Data struct{ Name string }

func (Imm) isOperand()    {}
func (Reg) isOperand()    {}
func (Pseudo) isOperand() {}
func (Stack) isOperand()  {}
func (Data) isOperand()   {}

var regDebugNames = [...]string{"ax", "cx", "dx", "di", "si", "r8", "r9", "r10", "r11", "sp", "bp"}

func (i Imm) String() string    { return fmt.Sprintf("$%d", i.Value) }
func (r Reg) String() string    { return "%" + regDebugNames[r.ID] }
func (p Pseudo) String() string { return "%" + p.Name }
func (s Stack) String() string  { return fmt.Sprintf("%d(%%rbp)", s.Offset) }
func (d Data) String() string   { return d.Name + "(%rip)" }

// Instruction is the closed set from spec.md section 3.
type Instruction interface {
	isInstruction()
}

type Mov struct {
	Type     AssemblyType
	Src, Dst Operand
}

// Movsx sign-extends a Longword source into a Quadword destination; it
// always crosses widths, so it carries no single AssemblyType.
type Movsx struct{ Src, Dst Operand }

type UnaryOp int

const (
	Neg UnaryOp = iota
	Not
)

type Unary struct {
	Op   UnaryOp
	Type AssemblyType
	Dst  Operand
}

type BinaryOp int

const (
	BAdd BinaryOp = iota
	BSub
	BImul
)

type Binary struct {
	Op       BinaryOp
	Type     AssemblyType
	Src, Dst Operand
}

type Cmp struct {
	Type     AssemblyType
	Src, Dst Operand
}

type Idiv struct {
	Type AssemblyType
	Src  Operand
}

type Cdq struct{ Type AssemblyType }

type Jmp struct{ Label string }

type JmpCC struct {
	Cond  CondCode
	Label string
}

type SetCC struct {
	Cond CondCode
	Dst  Operand
}

type Label struct{ Name string }

type Push struct{ Src Operand }

// Call names a function symbol; platform-specific prefixing and the
// @PLT suffix are applied by the emitter, not stored here.
type Call struct{ Name string }

type Ret struct{}

func (*Mov) isInstruction()    {}
func (*Movsx) isInstruction()  {}
func (*Unary) isInstruction()  {}
func (*Binary) isInstruction() {}
func (*Cmp) isInstruction()    {}
func (*Idiv) isInstruction()   {}
func (*Cdq) isInstruction()    {}
func (*Jmp) isInstruction()    {}
func (*JmpCC) isInstruction()  {}
func (*SetCC) isInstruction()  {}
func (*Label) isInstruction()  {}
func (*Push) isInstruction()   {}
func (*Call) isInstruction()   {}
func (*Ret) isInstruction()    {}

// Program owns the ordered top-level items of the generated assembly.
type Program struct {
	TopLevels []TopLevel
}

// TopLevel is FunctionDefinition | StaticVariable.
type TopLevel interface {
	isTopLevel()
}

type FunctionDefinition struct {
	Name      string
	Global    bool
	Body      []Instruction
	StackSize int
}

type StaticVariable struct {
	Name      string
	Global    bool
	Alignment int
	Init      ast.StaticInit
}

func (*FunctionDefinition) isTopLevel() {}
func (*StaticVariable) isTopLevel()     {}

// Package ir defines the three-address intermediate representation of
// spec.md section 3: a flat instruction list per function, no nested
// expressions, control flow expressed with labels and conditional jumps.
// Shaped as tagged sums the same way internal/ast is, continuing the
// teacher's type-switch-over-visitor convention.
package ir

import (
	"fmt"

	"nanocc/internal/ast"
)

// Program owns the ordered top-level items of one compilation.
type Program struct {
	TopLevels []TopLevel
}

// TopLevel is FunctionDefinition | StaticVariable.
type TopLevel interface {
	isTopLevel()
}

type FunctionDefinition struct {
	Name         string
	Global       bool
	Params       []string
	Instructions []Instruction
}

type StaticVariable struct {
	Name   string
	Global bool
	Type   ast.Type
	Init   ast.StaticInit
}

func (*FunctionDefinition) isTopLevel() {}
func (*StaticVariable) isTopLevel()     {}

// Value is Constant(Const) | Var(name).
type Value interface {
	isValue()
	String() string
}

type Constant struct{ Const ast.Const }

type Var struct{ Name string }

func (Constant) isValue() {}
func (Var) isValue()      {}

func (c Constant) String() string { return c.Const.String() }
func (v Var) String() string      { return v.Name }

// Instruction is the closed set from spec.md section 3.
type Instruction interface {
	isInstruction()
	String() string
}

type Return struct{ Value Value }

type Unary struct {
	Op  ast.UnaryOp
	Src Value
	Dst Var
}

type Binary struct {
	Op         ast.BinaryOp
	Src1, Src2 Value
	Dst        Var
}

type Copy struct {
	Src Value
	Dst Var
}

type Jump struct{ Label string }

type JumpIfZero struct {
	Cond  Value
	Label string
}

type JumpIfNotZero struct {
	Cond  Value
	Label string
}

type Label struct{ Name string }

type FunctionCall struct {
	Name string
	Args []Value
	Dst  Var
}

type SignExtend struct {
	Src Value
	Dst Var
}

type Truncate struct {
	Src Value
	Dst Var
}

func (*Return) isInstruction()        {}
func (*Unary) isInstruction()         {}
func (*Binary) isInstruction()        {}
func (*Copy) isInstruction()          {}
func (*Jump) isInstruction()          {}
func (*JumpIfZero) isInstruction()    {}
func (*JumpIfNotZero) isInstruction() {}
func (*Label) isInstruction()         {}
func (*FunctionCall) isInstruction()  {}
func (*SignExtend) isInstruction()    {}
func (*Truncate) isInstruction()      {}

func (r *Return) String() string { return fmt.Sprintf("return %v", r.Value) }
func (u *Unary) String() string  { return fmt.Sprintf("%v = %v %v", u.Dst, u.Op, u.Src) }
func (b *Binary) String() string {
	return fmt.Sprintf("%v = %v %v %v", b.Dst, b.Src1, b.Op, b.Src2)
}
func (c *Copy) String() string       { return fmt.Sprintf("%v = %v", c.Dst, c.Src) }
func (j *Jump) String() string       { return fmt.Sprintf("jump %s", j.Label) }
func (j *JumpIfZero) String() string { return fmt.Sprintf("jumpz %v, %s", j.Cond, j.Label) }
func (j *JumpIfNotZero) String() string {
	return fmt.Sprintf("jumpnz %v, %s", j.Cond, j.Label)
}
func (l *Label) String() string { return l.Name + ":" }
func (f *FunctionCall) String() string {
	return fmt.Sprintf("%v = call %s/%d", f.Dst, f.Name, len(f.Args))
}
func (s *SignExtend) String() string { return fmt.Sprintf("%v = sext %v", s.Dst, s.Src) }
func (t *Truncate) String() string   { return fmt.Sprintf("%v = trunc %v", t.Dst, t.Src) }

// Package ast defines the post-parse syntax tree of spec.md section 3:
// types, constants, identifier attributes and the Program/Declaration/
// Block/Statement/Expression node set, expressed as tagged sums the way
// the teacher repo expresses its own AST (one interface per node
// category, one struct per concrete node, type switches instead of a
// visitor interface).
package ast

import "fmt"

// StorageClass is Static | Extern, or unspecified (nil opt_storage_class).
type StorageClass int

const (
	NoStorageClass StorageClass = iota
	Static
	Extern
)

func (s StorageClass) String() string {
	switch s {
	case Static:
		return "static"
	case Extern:
		return "extern"
	default:
		return ""
	}
}

// Node is the root of every tree node.
type Node interface {
	String() string
}

// Declaration is VariableDeclaration | FunctionDeclaration.
type Declaration interface {
	Node
	isDeclaration()
}

type VariableDeclaration struct {
	Name         string
	Type         Type
	Init         Expression // nil if absent
	StorageClass StorageClass
}

type FunctionDeclaration struct {
	Name         string
	ParamNames   []string
	Type         FunctionType
	Body         *Block // nil if absent (a declaration, not a definition)
	StorageClass StorageClass
}

func (*VariableDeclaration) isDeclaration() {}
func (*FunctionDeclaration) isDeclaration() {}

func (d *VariableDeclaration) String() string {
	return fmt.Sprintf("VariableDeclaration{%s: %v}", d.Name, d.Type)
}

func (d *FunctionDeclaration) String() string {
	return fmt.Sprintf("FunctionDeclaration{%s/%d}", d.Name, len(d.ParamNames))
}

// Program owns the ordered top-level declarations of a translation unit.
type Program struct {
	Declarations []Declaration
}

func (p *Program) String() string { return "Program" }

// Block owns an ordered sequence of BlockItems.
type Block struct {
	Items []BlockItem
}

func (b *Block) String() string { return "Block" }

// BlockItem is Statement | Declaration.
type BlockItem interface {
	Node
	isBlockItem()
}

// wrap lets a Statement or Declaration satisfy BlockItem without forcing
// every statement/declaration type to implement a marker method twice.
type StatementItem struct{ Statement Statement }
type DeclarationItem struct{ Declaration Declaration }

func (StatementItem) isBlockItem()   {}
func (DeclarationItem) isBlockItem() {}

func (s StatementItem) String() string   { return s.Statement.String() }
func (d DeclarationItem) String() string { return d.Declaration.String() }

// ForInit is the init clause of a For loop: either a declaration or an
// optional expression-statement.
type ForInit interface {
	isForInit()
}

type ForInitDecl struct{ Decl *VariableDeclaration }
type ForInitExpr struct{ Expr Expression } // Expr may be nil

func (ForInitDecl) isForInit() {}
func (ForInitExpr) isForInit() {}

// Statement is the closed set from spec.md section 3.
type Statement interface {
	Node
	isStatement()
}

type ReturnStmt struct{ Expr Expression }

type ExprStmt struct{ Expr Expression }

type IfStmt struct {
	Cond Expression
	Then Statement
	Else Statement // nil if absent
}

type CompoundStmt struct{ Block *Block }

// loopLabel is embedded in every loop statement; loop-labeling mutates
// Label in place, matching spec.md's "mutable label: string" invariant.
type loopLabel struct{ Label string }

type WhileStmt struct {
	loopLabel
	Cond Expression
	Body Statement
}

type DoWhileStmt struct {
	loopLabel
	Body Statement
	Cond Expression
}

type ForStmt struct {
	loopLabel
	Init ForInit
	Cond Expression // nil if absent
	Post Expression // nil if absent
	Body Statement
}

type BreakStmt struct{ Label string }

type ContinueStmt struct{ Label string }

type NullStmt struct{}

func (*ReturnStmt) isStatement()   {}
func (*ExprStmt) isStatement()     {}
func (*IfStmt) isStatement()       {}
func (*CompoundStmt) isStatement() {}
func (*WhileStmt) isStatement()    {}
func (*DoWhileStmt) isStatement()  {}
func (*ForStmt) isStatement()      {}
func (*BreakStmt) isStatement()    {}
func (*ContinueStmt) isStatement() {}
func (*NullStmt) isStatement()     {}

func (*ReturnStmt) String() string   { return "Return" }
func (*ExprStmt) String() string     { return "ExprStmt" }
func (*IfStmt) String() string       { return "If" }
func (*CompoundStmt) String() string { return "Compound" }
func (w *WhileStmt) String() string  { return fmt.Sprintf("While{%s}", w.Label) }
func (d *DoWhileStmt) String() string {
	return fmt.Sprintf("DoWhile{%s}", d.Label)
}
func (f *ForStmt) String() string       { return fmt.Sprintf("For{%s}", f.Label) }
func (b *BreakStmt) String() string     { return fmt.Sprintf("Break{%s}", b.Label) }
func (c *ContinueStmt) String() string  { return fmt.Sprintf("Continue{%s}", c.Label) }
func (*NullStmt) String() string        { return "Null" }

// SetLoopLabel/GetLoopLabel let the loop labeler mutate any loop kind
// through a single interface instead of a type switch at every call site.
type LabeledLoop interface {
	SetLoopLabel(string)
	GetLoopLabel() string
}

func (w *WhileStmt) SetLoopLabel(l string)   { w.Label = l }
func (w *WhileStmt) GetLoopLabel() string    { return w.Label }
func (d *DoWhileStmt) SetLoopLabel(l string) { d.Label = l }
func (d *DoWhileStmt) GetLoopLabel() string  { return d.Label }
func (f *ForStmt) SetLoopLabel(l string)     { f.Label = l }
func (f *ForStmt) GetLoopLabel() string      { return f.Label }

// UnaryOp / BinaryOp are the operator sets from spec.md section 3.
type UnaryOp int

const (
	Negate UnaryOp = iota
	Complement
	Not
)

func (op UnaryOp) String() string {
	switch op {
	case Negate:
		return "-"
	case Complement:
		return "~"
	case Not:
		return "!"
	default:
		panic("unknown unary op")
	}
}

type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Rem
	BitAnd
	BitOr
	BitXor
	ShiftLeft
	ShiftRight
	Equal
	NotEqual
	LessThan
	LessOrEqual
	GreaterThan
	GreaterOrEqual
	LogicalAnd
	LogicalOr
)

func (op BinaryOp) String() string {
	names := map[BinaryOp]string{
		Add: "+", Sub: "-", Mul: "*", Div: "/", Rem: "%",
		BitAnd: "&", BitOr: "|", BitXor: "^",
		ShiftLeft: "<<", ShiftRight: ">>",
		Equal: "==", NotEqual: "!=",
		LessThan: "<", LessOrEqual: "<=",
		GreaterThan: ">", GreaterOrEqual: ">=",
		LogicalAnd: "&&", LogicalOr: "||",
	}
	return names[op]
}

// IsRelational reports whether op is one of the relational/equality
// operators, which always produce Int regardless of operand type.
func (op BinaryOp) IsRelational() bool {
	switch op {
	case Equal, NotEqual, LessThan, LessOrEqual, GreaterThan, GreaterOrEqual:
		return true
	}
	return false
}

// Expression is the closed set from spec.md section 3. Every expression
// embeds exprBase, which carries the mutable exp_type slot populated by
// type-checking.
type Expression interface {
	Node
	isExpression()
	ExpType() Type
	SetExpType(Type)
}

type exprBase struct{ expType Type }

func (e *exprBase) ExpType() Type        { return e.expType }
func (e *exprBase) SetExpType(t Type)    { e.expType = t }

type ConstantExpr struct {
	exprBase
	Value Const
}

type VarExpr struct {
	exprBase
	Name string
}

type UnaryExpr struct {
	exprBase
	Op   UnaryOp
	Expr Expression
}

type BinaryExpr struct {
	exprBase
	Op    BinaryOp
	Left  Expression
	Right Expression
}

type AssignmentExpr struct {
	exprBase
	Left  Expression
	Right Expression
}

type ConditionalExpr struct {
	exprBase
	Cond Expression
	Then Expression
	Else Expression
}

type FunctionCallExpr struct {
	exprBase
	Name string
	Args []Expression
}

type CastExpr struct {
	exprBase
	Target Type
	Expr   Expression
}

func (*ConstantExpr) isExpression()     {}
func (*VarExpr) isExpression()          {}
func (*UnaryExpr) isExpression()        {}
func (*BinaryExpr) isExpression()       {}
func (*AssignmentExpr) isExpression()   {}
func (*ConditionalExpr) isExpression()  {}
func (*FunctionCallExpr) isExpression() {}
func (*CastExpr) isExpression()         {}

func (c *ConstantExpr) String() string { return fmt.Sprintf("Constant(%v)", c.Value) }
func (v *VarExpr) String() string      { return fmt.Sprintf("Var(%s)", v.Name) }
func (u *UnaryExpr) String() string    { return fmt.Sprintf("Unary(%v)", u.Op) }
func (b *BinaryExpr) String() string   { return fmt.Sprintf("Binary(%v)", b.Op) }
func (a *AssignmentExpr) String() string {
	return "Assignment"
}
func (c *ConditionalExpr) String() string { return "Conditional" }
func (f *FunctionCallExpr) String() string {
	return fmt.Sprintf("FunctionCall(%s/%d)", f.Name, len(f.Args))
}
func (c *CastExpr) String() string { return fmt.Sprintf("Cast(%v)", c.Target) }

// NewCast builds a cast node whose expression type is already set to the
// target type (used by the type checker when inserting casts).
func NewCast(target Type, e Expression) *CastExpr {
	c := &CastExpr{Target: target, Expr: e}
	c.SetExpType(target)
	return c
}

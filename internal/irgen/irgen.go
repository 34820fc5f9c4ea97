// Package irgen lowers a type-checked AST into the three-address IR of
// spec.md section 4.2: expressions are flattened into flat instruction
// sequences, short-circuit && / || are desugared into jumps, and every
// function that falls off its body gets an implicit Return(0) appended.
package irgen

import (
	"github.com/samber/lo"

	"nanocc/internal/ast"
	"nanocc/internal/ctx"
	"nanocc/internal/ir"
	"nanocc/internal/symtab"
)

// generator accumulates the instruction list for one function at a time.
type generator struct {
	c      *ctx.Context
	fst    *symtab.FST
	instrs []ir.Instruction
}

func (g *generator) emit(i ir.Instruction) { g.instrs = append(g.instrs, i) }

// Generate lowers the whole program, relying on fst having already been
// populated by type checking: this pass only adds entries for the
// temporaries it invents, never touching source-identifier entries.
func Generate(prog *ast.Program, c *ctx.Context, fst *symtab.FST) (*ir.Program, error) {
	c.SeedTempCounter()
	out := &ir.Program{}
	for _, decl := range prog.Declarations {
		fn, ok := decl.(*ast.FunctionDeclaration)
		if !ok || fn.Body == nil {
			continue
		}
		def, err := generateFunction(fn, c, fst)
		if err != nil {
			return nil, err
		}
		out.TopLevels = append(out.TopLevels, def)
	}
	// Read-only iteration over the FST's static-variable names, per the
	// Open Question fix in spec.md section 9: filter to entries that
	// still need a TopLevel (NoInitializer emits nothing) and map each
	// survivor to its StaticVariable in one pass.
	statics := lo.FilterMap(fst.StaticVarNames(), func(name string, _ int) (ir.TopLevel, bool) {
		entry := fst.MustGet(name)
		attr := entry.Attr.(ast.StaticAttr)
		switch init := attr.Init.(type) {
		case ast.Initial:
			return &ir.StaticVariable{Name: name, Global: attr.Global, Type: entry.Type, Init: init.Init}, true
		case ast.Tentative:
			return &ir.StaticVariable{Name: name, Global: attr.Global, Type: entry.Type, Init: zeroInit(entry.Type)}, true
		default: // ast.NoInitializer: declared extern, defined elsewhere.
			return nil, false
		}
	})
	out.TopLevels = append(out.TopLevels, statics...)
	return out, nil
}

func zeroInit(t ast.Type) ast.StaticInit {
	if ast.IsLong(t) {
		return ast.LongInit(0)
	}
	return ast.IntInit(0)
}

func generateFunction(fn *ast.FunctionDeclaration, c *ctx.Context, fst *symtab.FST) (*ir.FunctionDefinition, error) {
	g := &generator{c: c, fst: fst}
	if err := g.block(fn.Body); err != nil {
		return nil, err
	}
	g.emit(&ir.Return{Value: ir.Constant{Const: zeroConstFor(fn.Type.Return)}})

	entry, _ := fst.Get(fn.Name)
	global := true
	if attr, ok := entry.Attr.(ast.FunctionAttr); ok {
		global = attr.Global
	}
	return &ir.FunctionDefinition{
		Name:         fn.Name,
		Global:       global,
		Params:       fn.ParamNames,
		Instructions: g.instrs,
	}, nil
}

func zeroConstFor(t ast.Type) ast.Const {
	if ast.IsLong(t) {
		return ast.ConstLong(0)
	}
	return ast.ConstInt(0)
}

func (g *generator) block(b *ast.Block) error {
	for _, item := range b.Items {
		switch it := item.(type) {
		case ast.DeclarationItem:
			if err := g.localDecl(it.Declaration); err != nil {
				return err
			}
		case ast.StatementItem:
			if err := g.statement(it.Statement); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *generator) localDecl(d ast.Declaration) error {
	v, ok := d.(*ast.VariableDeclaration)
	if !ok {
		// Nested function declarations carry no IR of their own: only their
		// FST entry matters, and type-checking already recorded it.
		return nil
	}
	if v.StorageClass == ast.Static || v.StorageClass == ast.Extern {
		return nil
	}
	if v.Init == nil {
		return nil
	}
	val, err := g.expr(v.Init)
	if err != nil {
		return err
	}
	g.registerTemp(v.Name, v.Type)
	g.emit(&ir.Copy{Src: val, Dst: ir.Var{Name: v.Name}})
	return nil
}

// registerTemp adds a non-static object entry for a compiler-introduced
// name (a temporary, or a local whose FST entry type-checking already
// wrote) so assembly generation can look up its width later. Idempotent
// via symtab.FST.Set overwrite semantics would be wrong for *source*
// locals (type-checking already owns those), so this only ever adds
// entries for names the generator itself invented.
func (g *generator) registerTemp(name string, t ast.Type) {
	if _, ok := g.fst.Get(name); ok {
		return
	}
	g.fst.Set(name, symtab.Entry{Type: t, Attr: ast.LocalAttr{}})
}

func (g *generator) freshTemp(t ast.Type) ir.Var {
	name := g.c.FreshTemp()
	g.registerTemp(name, t)
	return ir.Var{Name: name}
}

func (g *generator) statement(stmt ast.Statement) error {
	switch st := stmt.(type) {
	case *ast.ReturnStmt:
		v, err := g.expr(st.Expr)
		if err != nil {
			return err
		}
		g.emit(&ir.Return{Value: v})
		return nil
	case *ast.ExprStmt:
		_, err := g.expr(st.Expr)
		return err
	case *ast.NullStmt:
		return nil
	case *ast.IfStmt:
		return g.ifStmt(st)
	case *ast.CompoundStmt:
		return g.block(st.Block)
	case *ast.WhileStmt:
		return g.whileStmt(st)
	case *ast.DoWhileStmt:
		return g.doWhileStmt(st)
	case *ast.ForStmt:
		return g.forStmt(st)
	case *ast.BreakStmt:
		g.emit(&ir.Jump{Label: "break_" + st.Label})
		return nil
	case *ast.ContinueStmt:
		g.emit(&ir.Jump{Label: "continue_" + st.Label})
		return nil
	default:
		panic("irgen: unhandled statement kind")
	}
}

func (g *generator) ifStmt(st *ast.IfStmt) error {
	vc, err := g.expr(st.Cond)
	if err != nil {
		return err
	}
	if st.Else == nil {
		end := g.c.FreshLabel("end")
		g.emit(&ir.JumpIfZero{Cond: vc, Label: end})
		if err := g.statement(st.Then); err != nil {
			return err
		}
		g.emit(&ir.Label{Name: end})
		return nil
	}
	elseLabel := g.c.FreshLabel("else")
	end := g.c.FreshLabel("end")
	g.emit(&ir.JumpIfZero{Cond: vc, Label: elseLabel})
	if err := g.statement(st.Then); err != nil {
		return err
	}
	g.emit(&ir.Jump{Label: end})
	g.emit(&ir.Label{Name: elseLabel})
	if err := g.statement(st.Else); err != nil {
		return err
	}
	g.emit(&ir.Label{Name: end})
	return nil
}

func (g *generator) whileStmt(st *ast.WhileStmt) error {
	continueLabel := "continue_" + st.Label
	breakLabel := "break_" + st.Label
	g.emit(&ir.Label{Name: continueLabel})
	vc, err := g.expr(st.Cond)
	if err != nil {
		return err
	}
	g.emit(&ir.JumpIfZero{Cond: vc, Label: breakLabel})
	if err := g.statement(st.Body); err != nil {
		return err
	}
	g.emit(&ir.Jump{Label: continueLabel})
	g.emit(&ir.Label{Name: breakLabel})
	return nil
}

func (g *generator) doWhileStmt(st *ast.DoWhileStmt) error {
	start := g.c.FreshLabel("start")
	continueLabel := "continue_" + st.Label
	breakLabel := "break_" + st.Label
	g.emit(&ir.Label{Name: start})
	if err := g.statement(st.Body); err != nil {
		return err
	}
	g.emit(&ir.Label{Name: continueLabel})
	vc, err := g.expr(st.Cond)
	if err != nil {
		return err
	}
	g.emit(&ir.JumpIfNotZero{Cond: vc, Label: start})
	g.emit(&ir.Label{Name: breakLabel})
	return nil
}

func (g *generator) forStmt(st *ast.ForStmt) error {
	if err := g.forInit(st.Init); err != nil {
		return err
	}
	start := g.c.FreshLabel("start")
	continueLabel := "continue_" + st.Label
	breakLabel := "break_" + st.Label
	g.emit(&ir.Label{Name: start})
	if st.Cond != nil {
		vc, err := g.expr(st.Cond)
		if err != nil {
			return err
		}
		g.emit(&ir.JumpIfZero{Cond: vc, Label: breakLabel})
	}
	if err := g.statement(st.Body); err != nil {
		return err
	}
	g.emit(&ir.Label{Name: continueLabel})
	if st.Post != nil {
		if _, err := g.expr(st.Post); err != nil {
			return err
		}
	}
	g.emit(&ir.Jump{Label: start})
	g.emit(&ir.Label{Name: breakLabel})
	return nil
}

func (g *generator) forInit(init ast.ForInit) error {
	switch fi := init.(type) {
	case ast.ForInitDecl:
		return g.localDecl(fi.Decl)
	case ast.ForInitExpr:
		if fi.Expr != nil {
			_, err := g.expr(fi.Expr)
			return err
		}
		return nil
	}
	return nil
}

func (g *generator) expr(e ast.Expression) (ir.Value, error) {
	switch expr := e.(type) {
	case *ast.ConstantExpr:
		return ir.Constant{Const: expr.Value}, nil
	case *ast.VarExpr:
		return ir.Var{Name: expr.Name}, nil
	case *ast.CastExpr:
		return g.castExpr(expr)
	case *ast.UnaryExpr:
		src, err := g.expr(expr.Expr)
		if err != nil {
			return nil, err
		}
		dst := g.freshTemp(expr.ExpType())
		g.emit(&ir.Unary{Op: expr.Op, Src: src, Dst: dst})
		return dst, nil
	case *ast.BinaryExpr:
		return g.binaryExpr(expr)
	case *ast.AssignmentExpr:
		return g.assignmentExpr(expr)
	case *ast.ConditionalExpr:
		return g.conditionalExpr(expr)
	case *ast.FunctionCallExpr:
		return g.callExpr(expr)
	default:
		panic("irgen: unhandled expression kind")
	}
}

func (g *generator) castExpr(expr *ast.CastExpr) (ir.Value, error) {
	src, err := g.expr(expr.Expr)
	if err != nil {
		return nil, err
	}
	sourceType := expr.Expr.ExpType()
	if sourceType.Equal(expr.Target) {
		return src, nil
	}
	dst := g.freshTemp(expr.Target)
	if ast.IsLong(expr.Target) && !ast.IsLong(sourceType) {
		g.emit(&ir.SignExtend{Src: src, Dst: dst})
	} else {
		g.emit(&ir.Truncate{Src: src, Dst: dst})
	}
	return dst, nil
}

func (g *generator) binaryExpr(expr *ast.BinaryExpr) (ir.Value, error) {
	if expr.Op == ast.LogicalAnd {
		return g.shortCircuit(expr, true)
	}
	if expr.Op == ast.LogicalOr {
		return g.shortCircuit(expr, false)
	}
	vl, err := g.expr(expr.Left)
	if err != nil {
		return nil, err
	}
	vr, err := g.expr(expr.Right)
	if err != nil {
		return nil, err
	}
	dst := g.freshTemp(expr.ExpType())
	g.emit(&ir.Binary{Op: expr.Op, Src1: vl, Src2: vr, Dst: dst})
	return dst, nil
}

// shortCircuit desugars && (and, symmetrically with NotZero/swapped
// 0-1, ||) into jumps, per spec.md section 4.2.
func (g *generator) shortCircuit(expr *ast.BinaryExpr, isAnd bool) (ir.Value, error) {
	family := "and_false"
	if !isAnd {
		family = "or_true"
	}
	shortCircuitLabel := g.c.FreshLabel(family)
	end := g.c.FreshLabel("end")
	result := g.freshTemp(ast.IntType{})

	vl, err := g.expr(expr.Left)
	if err != nil {
		return nil, err
	}
	if isAnd {
		g.emit(&ir.JumpIfZero{Cond: vl, Label: shortCircuitLabel})
	} else {
		g.emit(&ir.JumpIfNotZero{Cond: vl, Label: shortCircuitLabel})
	}
	vr, err := g.expr(expr.Right)
	if err != nil {
		return nil, err
	}
	if isAnd {
		g.emit(&ir.JumpIfZero{Cond: vr, Label: shortCircuitLabel})
		g.emit(&ir.Copy{Src: ir.Constant{Const: ast.ConstInt(1)}, Dst: result})
	} else {
		g.emit(&ir.JumpIfNotZero{Cond: vr, Label: shortCircuitLabel})
		g.emit(&ir.Copy{Src: ir.Constant{Const: ast.ConstInt(0)}, Dst: result})
	}
	g.emit(&ir.Jump{Label: end})
	g.emit(&ir.Label{Name: shortCircuitLabel})
	if isAnd {
		g.emit(&ir.Copy{Src: ir.Constant{Const: ast.ConstInt(0)}, Dst: result})
	} else {
		g.emit(&ir.Copy{Src: ir.Constant{Const: ast.ConstInt(1)}, Dst: result})
	}
	g.emit(&ir.Label{Name: end})
	return result, nil
}

func (g *generator) assignmentExpr(expr *ast.AssignmentExpr) (ir.Value, error) {
	v, err := g.expr(expr.Right)
	if err != nil {
		return nil, err
	}
	name := expr.Left.(*ast.VarExpr).Name
	g.emit(&ir.Copy{Src: v, Dst: ir.Var{Name: name}})
	return ir.Var{Name: name}, nil
}

func (g *generator) conditionalExpr(expr *ast.ConditionalExpr) (ir.Value, error) {
	vc, err := g.expr(expr.Cond)
	if err != nil {
		return nil, err
	}
	e2 := g.c.FreshLabel("e2")
	end := g.c.FreshLabel("end")
	result := g.freshTemp(expr.ExpType())

	g.emit(&ir.JumpIfZero{Cond: vc, Label: e2})
	v1, err := g.expr(expr.Then)
	if err != nil {
		return nil, err
	}
	g.emit(&ir.Copy{Src: v1, Dst: result})
	g.emit(&ir.Jump{Label: end})
	g.emit(&ir.Label{Name: e2})
	v2, err := g.expr(expr.Else)
	if err != nil {
		return nil, err
	}
	g.emit(&ir.Copy{Src: v2, Dst: result})
	g.emit(&ir.Label{Name: end})
	return result, nil
}

func (g *generator) callExpr(expr *ast.FunctionCallExpr) (ir.Value, error) {
	args := make([]ir.Value, len(expr.Args))
	for i, a := range expr.Args {
		v, err := g.expr(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	dst := g.freshTemp(expr.ExpType())
	g.emit(&ir.FunctionCall{Name: expr.Name, Args: args, Dst: dst})
	return dst, nil
}

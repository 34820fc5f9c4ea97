// type checking, spec.md section 4.1.2: populates the FST, attaches a
// type to every expression, inserts implicit casts.
package sema

import (
	"nanocc/internal/ast"
	"nanocc/internal/diag"
	"nanocc/internal/symtab"
)

// TypeCheck runs the type checker over the whole (already identifier-
// resolved) program, populating fst in place and mutating expression
// nodes to attach exp_type and insert Cast nodes.
func TypeCheck(prog *ast.Program, fst *symtab.FST) error {
	for _, decl := range prog.Declarations {
		switch d := decl.(type) {
		case *ast.VariableDeclaration:
			if err := typeCheckFileScopeVar(d, fst); err != nil {
				return err
			}
		case *ast.FunctionDeclaration:
			if err := typeCheckFunctionDecl(d, fst); err != nil {
				return err
			}
		}
	}
	return nil
}

func typeCheckFileScopeVar(d *ast.VariableDeclaration, fst *symtab.FST) error {
	var initialValue ast.InitialValue
	switch {
	case d.Init != nil:
		c, ok := constantOf(d.Init)
		if !ok {
			return diag.New(diag.StageType, diag.ConflictingRedeclaration,
				"file-scope initializer for %s must be a constant", d.Name)
		}
		initialValue = ast.Initial{Init: toStaticInit(ast.ConvertConst(c, d.Type))}
	case d.StorageClass == ast.Extern:
		initialValue = ast.NoInitializer{}
	default:
		initialValue = ast.Tentative{}
	}

	global := d.StorageClass != ast.Static

	if existing, ok := fst.Get(d.Name); ok {
		existingAttr, ok := existing.Attr.(ast.StaticAttr)
		if !ok {
			return diag.New(diag.StageType, diag.ConflictingRedeclaration, "%s redeclared with a different kind", d.Name)
		}
		if !existing.Type.Equal(d.Type) {
			return diag.New(diag.StageType, diag.ConflictingRedeclaration, "%s redeclared with a different type", d.Name)
		}
		if d.StorageClass == ast.Extern {
			global = existingAttr.Global
		} else if existingAttr.Global != global {
			return diag.New(diag.StageType, diag.ConflictingRedeclaration, "%s redeclared with different linkage", d.Name)
		}
		merged, err := mergeInitialValues(d.Name, existingAttr.Init, initialValue)
		if err != nil {
			return err
		}
		initialValue = merged
	}

	fst.Set(d.Name, symtab.Entry{Type: d.Type, Attr: ast.StaticAttr{Init: initialValue, Global: global}})
	return nil
}

// mergeInitialValues implements the file-scope redeclaration rules of
// spec.md section 4.1.2: a later explicit initializer replaces a
// Tentative one; two explicit initializers for the same name conflict.
func mergeInitialValues(name string, old, neu ast.InitialValue) (ast.InitialValue, error) {
	_, oldInit := old.(ast.Initial)
	_, newInit := neu.(ast.Initial)
	switch {
	case oldInit && newInit:
		return nil, diag.New(diag.StageType, diag.ConflictingRedeclaration, "%s has conflicting initializers", name)
	case oldInit:
		return old, nil
	case newInit:
		return neu, nil
	default:
		if _, ok := old.(ast.Tentative); ok {
			return old, nil
		}
		return neu, nil
	}
}

func toStaticInit(c ast.Const) ast.StaticInit {
	switch v := c.(type) {
	case ast.ConstLong:
		return ast.LongInit(v)
	case ast.ConstInt:
		return ast.IntInit(v)
	default:
		panic("sema: unsupported constant kind in static initializer")
	}
}

// constantOf extracts the ast.Const from a literal-only expression (the
// only kind of expression allowed as a file-scope initializer), folding a
// cast of a constant since that's still a compile-time constant.
func constantOf(e ast.Expression) (ast.Const, bool) {
	switch v := e.(type) {
	case *ast.ConstantExpr:
		return v.Value, true
	case *ast.CastExpr:
		inner, ok := constantOf(v.Expr)
		if !ok {
			return nil, false
		}
		return ast.ConvertConst(inner, v.Target), true
	default:
		return nil, false
	}
}

func typeCheckFunctionDecl(d *ast.FunctionDeclaration, fst *symtab.FST) error {
	global := d.StorageClass != ast.Static
	hasBody := d.Body != nil

	if existing, ok := fst.Get(d.Name); ok {
		existingFn, ok := existing.Attr.(ast.FunctionAttr)
		if !ok || !existing.Type.Equal(d.Type) {
			return diag.New(diag.StageType, diag.ConflictingRedeclaration, "%s redeclared incompatibly", d.Name)
		}
		if existingFn.Defined && hasBody {
			return diag.New(diag.StageType, diag.ConflictingRedeclaration, "%s is defined more than once", d.Name)
		}
		if existingFn.Global != global {
			return diag.New(diag.StageType, diag.ConflictingRedeclaration,
				"%s declared both static and non-static", d.Name)
		}
		global = existingFn.Global
		hasBody = existingFn.Defined || hasBody
	}

	fst.Set(d.Name, symtab.Entry{Type: d.Type, Attr: ast.FunctionAttr{Defined: hasBody, Global: global}})

	if d.Body == nil {
		return nil
	}
	for i, pname := range d.ParamNames {
		fst.Set(pname, symtab.Entry{Type: d.Type.Params[i], Attr: ast.LocalAttr{}})
	}
	return typeCheckBlock(d.Body, fst, d.Type.Return)
}

func typeCheckBlock(b *ast.Block, fst *symtab.FST, retType ast.Type) error {
	for _, item := range b.Items {
		switch it := item.(type) {
		case ast.DeclarationItem:
			if err := typeCheckLocalDecl(it.Declaration, fst); err != nil {
				return err
			}
		case ast.StatementItem:
			if err := typeCheckStatement(it.Statement, fst, retType); err != nil {
				return err
			}
		}
	}
	return nil
}

func typeCheckLocalDecl(d ast.Declaration, fst *symtab.FST) error {
	switch decl := d.(type) {
	case *ast.VariableDeclaration:
		if decl.StorageClass == ast.Static || decl.StorageClass == ast.Extern {
			return typeCheckFileScopeVar(decl, fst)
		}
		fst.Set(decl.Name, symtab.Entry{Type: decl.Type, Attr: ast.LocalAttr{}})
		if decl.Init != nil {
			if err := typeCheckExpr(decl.Init, fst); err != nil {
				return err
			}
			decl.Init = convertTo(decl.Init, decl.Type)
		}
		return nil
	case *ast.FunctionDeclaration:
		return typeCheckFunctionDecl(decl, fst)
	}
	return nil
}

func typeCheckStatement(stmt ast.Statement, fst *symtab.FST, retType ast.Type) error {
	switch st := stmt.(type) {
	case *ast.ReturnStmt:
		if err := typeCheckExpr(st.Expr, fst); err != nil {
			return err
		}
		st.Expr = convertTo(st.Expr, retType)
		return nil
	case *ast.ExprStmt:
		return typeCheckExpr(st.Expr, fst)
	case *ast.NullStmt, *ast.BreakStmt, *ast.ContinueStmt:
		return nil
	case *ast.IfStmt:
		if err := typeCheckExpr(st.Cond, fst); err != nil {
			return err
		}
		if err := typeCheckStatement(st.Then, fst, retType); err != nil {
			return err
		}
		if st.Else != nil {
			return typeCheckStatement(st.Else, fst, retType)
		}
		return nil
	case *ast.CompoundStmt:
		return typeCheckBlock(st.Block, fst, retType)
	case *ast.WhileStmt:
		if err := typeCheckExpr(st.Cond, fst); err != nil {
			return err
		}
		return typeCheckStatement(st.Body, fst, retType)
	case *ast.DoWhileStmt:
		if err := typeCheckStatement(st.Body, fst, retType); err != nil {
			return err
		}
		return typeCheckExpr(st.Cond, fst)
	case *ast.ForStmt:
		if err := typeCheckForInit(st.Init, fst); err != nil {
			return err
		}
		if st.Cond != nil {
			if err := typeCheckExpr(st.Cond, fst); err != nil {
				return err
			}
		}
		if st.Post != nil {
			if err := typeCheckExpr(st.Post, fst); err != nil {
				return err
			}
		}
		return typeCheckStatement(st.Body, fst, retType)
	default:
		panic("sema: unhandled statement kind in type checking")
	}
}

func typeCheckForInit(init ast.ForInit, fst *symtab.FST) error {
	switch fi := init.(type) {
	case ast.ForInitDecl:
		fst.Set(fi.Decl.Name, symtab.Entry{Type: fi.Decl.Type, Attr: ast.LocalAttr{}})
		if fi.Decl.Init != nil {
			if err := typeCheckExpr(fi.Decl.Init, fst); err != nil {
				return err
			}
			fi.Decl.Init = convertTo(fi.Decl.Init, fi.Decl.Type)
		}
		return nil
	case ast.ForInitExpr:
		if fi.Expr != nil {
			return typeCheckExpr(fi.Expr, fst)
		}
		return nil
	}
	return nil
}

func typeCheckExpr(e ast.Expression, fst *symtab.FST) error {
	switch expr := e.(type) {
	case *ast.ConstantExpr:
		expr.SetExpType(expr.Value.Type())
		return nil
	case *ast.VarExpr:
		entry, ok := fst.Get(expr.Name)
		if !ok {
			return diag.New(diag.StageType, diag.UndeclaredIdentifier, "%s is not declared", expr.Name)
		}
		if _, isFn := entry.Attr.(ast.FunctionAttr); isFn {
			return diag.New(diag.StageType, diag.FunctionUsedAsValue, "%s names a function, not a variable", expr.Name)
		}
		expr.SetExpType(entry.Type)
		return nil
	case *ast.CastExpr:
		if err := typeCheckExpr(expr.Expr, fst); err != nil {
			return err
		}
		expr.SetExpType(expr.Target)
		return nil
	case *ast.UnaryExpr:
		if err := typeCheckExpr(expr.Expr, fst); err != nil {
			return err
		}
		if expr.Op == ast.Not {
			expr.SetExpType(ast.IntType{})
		} else {
			expr.SetExpType(expr.Expr.ExpType())
		}
		return nil
	case *ast.BinaryExpr:
		return typeCheckBinary(expr, fst)
	case *ast.AssignmentExpr:
		if err := typeCheckExpr(expr.Left, fst); err != nil {
			return err
		}
		if err := typeCheckExpr(expr.Right, fst); err != nil {
			return err
		}
		expr.Right = convertTo(expr.Right, expr.Left.ExpType())
		expr.SetExpType(expr.Left.ExpType())
		return nil
	case *ast.ConditionalExpr:
		if err := typeCheckExpr(expr.Cond, fst); err != nil {
			return err
		}
		if err := typeCheckExpr(expr.Then, fst); err != nil {
			return err
		}
		if err := typeCheckExpr(expr.Else, fst); err != nil {
			return err
		}
		common := ast.CommonType(expr.Then.ExpType(), expr.Else.ExpType())
		expr.Then = convertTo(expr.Then, common)
		expr.Else = convertTo(expr.Else, common)
		expr.SetExpType(common)
		return nil
	case *ast.FunctionCallExpr:
		entry, ok := fst.Get(expr.Name)
		if !ok {
			return diag.New(diag.StageType, diag.UndefinedFunction, "%s is not declared", expr.Name)
		}
		fnType, ok := entry.Type.(ast.FunctionType)
		if !ok {
			return diag.New(diag.StageType, diag.UndefinedFunction, "%s is not a function", expr.Name)
		}
		if len(fnType.Params) != len(expr.Args) {
			return diag.New(diag.StageType, diag.ArityMismatch,
				"%s expects %d arguments, got %d", expr.Name, len(fnType.Params), len(expr.Args))
		}
		for i, arg := range expr.Args {
			if err := typeCheckExpr(arg, fst); err != nil {
				return err
			}
			expr.Args[i] = convertTo(arg, fnType.Params[i])
		}
		expr.SetExpType(fnType.Return)
		return nil
	default:
		panic("sema: unhandled expression kind in type checking")
	}
}

func typeCheckBinary(expr *ast.BinaryExpr, fst *symtab.FST) error {
	if err := typeCheckExpr(expr.Left, fst); err != nil {
		return err
	}
	if err := typeCheckExpr(expr.Right, fst); err != nil {
		return err
	}
	if expr.Op == ast.LogicalAnd || expr.Op == ast.LogicalOr {
		// Logical operators always yield Int without converting either
		// operand's type (spec.md section 4.1.2).
		expr.SetExpType(ast.IntType{})
		return nil
	}
	common := ast.CommonType(expr.Left.ExpType(), expr.Right.ExpType())
	expr.Left = convertTo(expr.Left, common)
	expr.Right = convertTo(expr.Right, common)
	if expr.Op.IsRelational() {
		expr.SetExpType(ast.IntType{})
	} else {
		expr.SetExpType(common)
	}
	return nil
}

// convertTo wraps e in a Cast to target unless it is already that type.
func convertTo(e ast.Expression, target ast.Type) ast.Expression {
	if e.ExpType() != nil && e.ExpType().Equal(target) {
		return e
	}
	return ast.NewCast(target, e)
}

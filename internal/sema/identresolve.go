// identifier resolution, spec.md section 4.1.1: rename every user
// identifier to a globally unique name so later passes never need to
// track scopes themselves.
package sema

import (
	"github.com/samber/lo"

	"nanocc/internal/ast"
	"nanocc/internal/ctx"
	"nanocc/internal/diag"
)

type scopeEntry struct {
	uniqueName       string
	fromCurrentScope bool
	hasLinkage       bool
}

type scope map[string]scopeEntry

// childScope copies the parent map and clears fromCurrentScope on every
// inherited entry, per spec.md section 4.1.1: "Entering a nested scope
// copies the current map and sets from_current_scope := false for every
// inherited entry; the copy is discarded on exit."
func childScope(parent scope) scope {
	child := lo.Assign(scope{}, parent)
	for k, v := range child {
		v.fromCurrentScope = false
		child[k] = v
	}
	return child
}

// ResolveIdentifiers runs identifier resolution over the whole program,
// renaming block-scope variables and parameters to unique "<name>.<k>"
// names and rejecting duplicate or undeclared uses. Function names,
// file-scope variables and block-scope extern declarations keep their
// source names.
func ResolveIdentifiers(prog *ast.Program, c *ctx.Context) error {
	file := scope{}
	for _, decl := range prog.Declarations {
		switch d := decl.(type) {
		case *ast.VariableDeclaration:
			if err := resolveFileScopeVar(d, file); err != nil {
				return err
			}
		case *ast.FunctionDeclaration:
			if err := resolveFunctionDecl(d, file, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func resolveFileScopeVar(d *ast.VariableDeclaration, file scope) error {
	file[d.Name] = scopeEntry{uniqueName: d.Name, fromCurrentScope: true, hasLinkage: true}
	if d.Init != nil {
		return resolveExpr(d.Init, file)
	}
	return nil
}

func resolveFunctionDecl(d *ast.FunctionDeclaration, outer scope, c *ctx.Context) error {
	if existing, ok := outer[d.Name]; ok && existing.fromCurrentScope && !existing.hasLinkage {
		return diag.New(diag.StageResolve, diag.DuplicateDeclaration,
			"%s redeclared without linkage", d.Name)
	}
	outer[d.Name] = scopeEntry{uniqueName: d.Name, fromCurrentScope: true, hasLinkage: true}

	fnScope := childScope(outer)
	newParamNames := make([]string, len(d.ParamNames))
	for i, p := range d.ParamNames {
		if entry, ok := fnScope[p]; ok && entry.fromCurrentScope {
			return diag.New(diag.StageResolve, diag.DuplicateDeclaration, "parameter %s redeclared", p)
		}
		unique := c.FreshIdent(p)
		fnScope[p] = scopeEntry{uniqueName: unique, fromCurrentScope: true, hasLinkage: false}
		newParamNames[i] = unique
	}
	d.ParamNames = newParamNames

	if d.Body != nil {
		bodyScope := childScope(fnScope)
		return resolveBlock(d.Body, bodyScope, c)
	}
	return nil
}

func resolveBlock(b *ast.Block, s scope, c *ctx.Context) error {
	for _, item := range b.Items {
		switch it := item.(type) {
		case ast.DeclarationItem:
			if err := resolveLocalDecl(it.Declaration, s, c); err != nil {
				return err
			}
		case ast.StatementItem:
			if err := resolveStatement(it.Statement, s, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func resolveLocalDecl(d ast.Declaration, s scope, c *ctx.Context) error {
	switch decl := d.(type) {
	case *ast.VariableDeclaration:
		return resolveLocalVar(decl, s, c)
	case *ast.FunctionDeclaration:
		if decl.Body != nil {
			return diag.New(diag.StageResolve, diag.DuplicateDeclaration,
				"nested function definitions are not supported: %s", decl.Name)
		}
		return resolveFunctionDecl(decl, s, c)
	}
	return nil
}

func resolveLocalVar(d *ast.VariableDeclaration, s scope, c *ctx.Context) error {
	if existing, ok := s[d.Name]; ok && existing.fromCurrentScope {
		if !(existing.hasLinkage && d.StorageClass == ast.Extern) {
			return diag.New(diag.StageResolve, diag.DuplicateDeclaration, "%s redeclared", d.Name)
		}
	}

	if d.StorageClass == ast.Extern {
		// preserve the original name: it has linkage, so other scopes
		// resolve the same binding by looking it up under this name.
		s[d.Name] = scopeEntry{uniqueName: d.Name, fromCurrentScope: true, hasLinkage: true}
	} else {
		unique := c.FreshIdent(d.Name)
		s[d.Name] = scopeEntry{uniqueName: unique, fromCurrentScope: true, hasLinkage: false}
		d.Name = unique
	}
	if d.Init != nil {
		return resolveExpr(d.Init, s)
	}
	return nil
}

func resolveStatement(stmt ast.Statement, s scope, c *ctx.Context) error {
	switch st := stmt.(type) {
	case *ast.ReturnStmt:
		return resolveExpr(st.Expr, s)
	case *ast.ExprStmt:
		return resolveExpr(st.Expr, s)
	case *ast.NullStmt, *ast.BreakStmt, *ast.ContinueStmt:
		return nil
	case *ast.IfStmt:
		if err := resolveExpr(st.Cond, s); err != nil {
			return err
		}
		if err := resolveStatement(st.Then, s, c); err != nil {
			return err
		}
		if st.Else != nil {
			return resolveStatement(st.Else, s, c)
		}
		return nil
	case *ast.CompoundStmt:
		return resolveBlock(st.Block, childScope(s), c)
	case *ast.WhileStmt:
		if err := resolveExpr(st.Cond, s); err != nil {
			return err
		}
		return resolveStatement(st.Body, s, c)
	case *ast.DoWhileStmt:
		if err := resolveStatement(st.Body, s, c); err != nil {
			return err
		}
		return resolveExpr(st.Cond, s)
	case *ast.ForStmt:
		loopScope := childScope(s)
		if err := resolveForInit(st.Init, loopScope, c); err != nil {
			return err
		}
		if st.Cond != nil {
			if err := resolveExpr(st.Cond, loopScope); err != nil {
				return err
			}
		}
		if st.Post != nil {
			if err := resolveExpr(st.Post, loopScope); err != nil {
				return err
			}
		}
		return resolveStatement(st.Body, loopScope, c)
	default:
		panic("sema: unhandled statement kind in identifier resolution")
	}
}

func resolveForInit(init ast.ForInit, s scope, c *ctx.Context) error {
	switch fi := init.(type) {
	case ast.ForInitDecl:
		if fi.Decl.StorageClass != ast.NoStorageClass {
			return diag.New(diag.StageResolve, diag.DuplicateDeclaration,
				"for-loop initializer may not have a storage class")
		}
		return resolveLocalVar(fi.Decl, s, c)
	case ast.ForInitExpr:
		if fi.Expr != nil {
			return resolveExpr(fi.Expr, s)
		}
		return nil
	}
	return nil
}

func resolveExpr(e ast.Expression, s scope) error {
	switch expr := e.(type) {
	case *ast.ConstantExpr:
		return nil
	case *ast.VarExpr:
		entry, ok := s[expr.Name]
		if !ok {
			return diag.New(diag.StageResolve, diag.UndeclaredIdentifier, "%s is not declared", expr.Name)
		}
		expr.Name = entry.uniqueName
		return nil
	case *ast.UnaryExpr:
		return resolveExpr(expr.Expr, s)
	case *ast.BinaryExpr:
		if err := resolveExpr(expr.Left, s); err != nil {
			return err
		}
		return resolveExpr(expr.Right, s)
	case *ast.AssignmentExpr:
		if _, ok := expr.Left.(*ast.VarExpr); !ok {
			return diag.New(diag.StageResolve, diag.InvalidLValue, "left side of assignment must be a variable")
		}
		if err := resolveExpr(expr.Left, s); err != nil {
			return err
		}
		return resolveExpr(expr.Right, s)
	case *ast.ConditionalExpr:
		if err := resolveExpr(expr.Cond, s); err != nil {
			return err
		}
		if err := resolveExpr(expr.Then, s); err != nil {
			return err
		}
		return resolveExpr(expr.Else, s)
	case *ast.FunctionCallExpr:
		// A callee with no declaration in scope keeps its source name; the
		// type checker reports it as UndefinedFunction.
		if entry, ok := s[expr.Name]; ok {
			expr.Name = entry.uniqueName
		}
		for _, a := range expr.Args {
			if err := resolveExpr(a, s); err != nil {
				return err
			}
		}
		return nil
	case *ast.CastExpr:
		return resolveExpr(expr.Expr, s)
	default:
		panic("sema: unhandled expression kind in identifier resolution")
	}
}

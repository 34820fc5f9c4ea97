// loop labeling, spec.md section 4.1.3: gives every loop a fresh label
// and resolves each break/continue to its enclosing loop's label.
package sema

import (
	"nanocc/internal/ast"
	"nanocc/internal/ctx"
	"nanocc/internal/diag"
)

// LabelLoops runs the loop labeler over the whole program.
func LabelLoops(prog *ast.Program, c *ctx.Context) error {
	for _, decl := range prog.Declarations {
		fn, ok := decl.(*ast.FunctionDeclaration)
		if !ok || fn.Body == nil {
			continue
		}
		if err := labelBlock(fn.Body, "", c); err != nil {
			return err
		}
	}
	return nil
}

func labelBlock(b *ast.Block, current string, c *ctx.Context) error {
	for _, item := range b.Items {
		st, ok := item.(ast.StatementItem)
		if !ok {
			continue
		}
		if err := labelStatement(st.Statement, current, c); err != nil {
			return err
		}
	}
	return nil
}

func labelStatement(stmt ast.Statement, current string, c *ctx.Context) error {
	switch st := stmt.(type) {
	case *ast.BreakStmt:
		if current == "" {
			return diag.New(diag.StageLoop, diag.BreakOutsideLoop, "break statement outside of a loop")
		}
		st.Label = current
		return nil
	case *ast.ContinueStmt:
		if current == "" {
			return diag.New(diag.StageLoop, diag.ContinueOutsideLoop, "continue statement outside of a loop")
		}
		st.Label = current
		return nil
	case *ast.IfStmt:
		if err := labelStatement(st.Then, current, c); err != nil {
			return err
		}
		if st.Else != nil {
			return labelStatement(st.Else, current, c)
		}
		return nil
	case *ast.CompoundStmt:
		return labelBlock(st.Block, current, c)
	case *ast.WhileStmt:
		label := c.FreshLabel("loop")
		st.SetLoopLabel(label)
		return labelStatement(st.Body, label, c)
	case *ast.DoWhileStmt:
		label := c.FreshLabel("loop")
		st.SetLoopLabel(label)
		return labelStatement(st.Body, label, c)
	case *ast.ForStmt:
		label := c.FreshLabel("loop")
		st.SetLoopLabel(label)
		return labelStatement(st.Body, label, c)
	case *ast.ReturnStmt, *ast.ExprStmt, *ast.NullStmt:
		return nil
	default:
		panic("sema: unhandled statement kind in loop labeling")
	}
}

package symtab_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nanocc/internal/ast"
	"nanocc/internal/symtab"
)

func TestFSTSetAndGet(t *testing.T) {
	f := symtab.New()
	f.Set("x", symtab.Entry{Type: ast.IntType{}, Attr: ast.LocalAttr{}})
	entry, ok := f.Get("x")
	require.True(t, ok)
	require.Equal(t, ast.IntType{}, entry.Type)

	_, ok = f.Get("missing")
	require.False(t, ok)
}

func TestFSTMustGetPanicsOnMissingName(t *testing.T) {
	f := symtab.New()
	require.Panics(t, func() { f.MustGet("nope") })
}

func TestFSTNamesIsSortedAndDeterministic(t *testing.T) {
	f := symtab.New()
	f.Set("zeta", symtab.Entry{Type: ast.IntType{}, Attr: ast.LocalAttr{}})
	f.Set("alpha", symtab.Entry{Type: ast.IntType{}, Attr: ast.LocalAttr{}})
	f.Set("mid", symtab.Entry{Type: ast.IntType{}, Attr: ast.LocalAttr{}})
	require.Equal(t, []string{"alpha", "mid", "zeta"}, f.Names())
}

func TestFSTStaticVarNamesOnlyIncludesStaticAttr(t *testing.T) {
	f := symtab.New()
	f.Set("g", symtab.Entry{Type: ast.IntType{}, Attr: ast.StaticAttr{Init: ast.Tentative{}, Global: true}})
	f.Set("local", symtab.Entry{Type: ast.IntType{}, Attr: ast.LocalAttr{}})
	f.Set("fn", symtab.Entry{Type: ast.FunctionType{Return: ast.IntType{}}, Attr: ast.FunctionAttr{Defined: true, Global: true}})
	require.Equal(t, []string{"g"}, f.StaticVarNames())
}

func TestBuildBackendTranslatesEachAttrKind(t *testing.T) {
	f := symtab.New()
	f.Set("counter", symtab.Entry{Type: ast.IntType{}, Attr: ast.StaticAttr{Init: ast.Tentative{}, Global: true}})
	f.Set("x", symtab.Entry{Type: ast.LongType{}, Attr: ast.LocalAttr{}})
	f.Set("add", symtab.Entry{Type: ast.FunctionType{Return: ast.IntType{}}, Attr: ast.FunctionAttr{Defined: true, Global: true}})

	b := symtab.BuildBackend(f)

	counter, ok := b.Get("counter")
	require.True(t, ok)
	require.Equal(t, symtab.StaticEntry{Type: ast.IntType{}}, counter)

	x, ok := b.Get("x")
	require.True(t, ok)
	require.Equal(t, symtab.ObjectEntry{Type: ast.LongType{}, IsStatic: false}, x)

	add, ok := b.Get("add")
	require.True(t, ok)
	require.Equal(t, symtab.FunctionEntry{Defined: true}, add)
}

func TestBackendAddObjectIsIdempotent(t *testing.T) {
	b := symtab.BuildBackend(symtab.New())
	b.AddObject("tmp.0", ast.IntType{})
	b.AddObject("tmp.0", ast.LongType{}) // second call must not overwrite
	entry := b.MustGet("tmp.0")
	require.Equal(t, symtab.ObjectEntry{Type: ast.IntType{}, IsStatic: false}, entry)
}

func TestBackendMustGetPanicsOnMissingEntry(t *testing.T) {
	b := symtab.BuildBackend(symtab.New())
	require.Panics(t, func() { b.MustGet("nope") })
}

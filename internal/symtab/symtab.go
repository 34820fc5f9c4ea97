// Package symtab implements the frontend symbol table (FST) and the
// backend symbol table derived from it, per spec.md section 4.5. The FST
// is a single process-wide-per-compilation mapping from source (then
// unique) name to {Type, IdentifierAttribute}; type-checking is its only
// writer for source identifiers, the IR generator its only writer for
// generated temporaries, and assembly generation only reads it.
//
// Shape grounded on the teacher's flat-map symbol handling in
// compile/ssa/hir.go; lo.Keys/lo.Filter (github.com/samber/lo) replace the
// teacher's hand-rolled map-iteration loops when building derived views.
package symtab

import (
	"sort"

	"github.com/samber/lo"

	"nanocc/internal/ast"
)

// Entry is a single FST binding.
type Entry struct {
	Type ast.Type
	Attr ast.IdentifierAttribute
}

// FST is the frontend symbol table.
type FST struct {
	entries map[string]Entry
}

// New creates an empty FST for one compilation.
func New() *FST {
	return &FST{entries: make(map[string]Entry)}
}

// Set inserts or overwrites the entry for name. Only the type checker (for
// source identifiers) and the IR generator (for compiler-generated
// temporaries) call this, per the single-writer discipline in spec.md
// section 4.5.
func (f *FST) Set(name string, e Entry) { f.entries[name] = e }

// Get returns the entry for name and whether it exists.
func (f *FST) Get(name string) (Entry, bool) {
	e, ok := f.entries[name]
	return e, ok
}

// MustGet panics if name is absent; used in passes where absence is an
// internal-invariant violation rather than a user-facing error (e.g.
// codegen looking up a Pseudo it should already know about).
func (f *FST) MustGet(name string) Entry {
	e, ok := f.entries[name]
	if !ok {
		panic("symtab: no entry for " + name)
	}
	return e
}

// Names returns every bound name, sorted, so callers that iterate the FST
// get deterministic output (the IR generator's static-variable list does,
// fixing the Open Question in spec.md section 9 about iterating rather
// than draining the table).
func (f *FST) Names() []string {
	names := lo.Keys(f.entries)
	sort.Strings(names)
	return names
}

// StaticVarNames returns, in sorted order, the names of every FST entry
// whose attribute is a StaticAttr — the read-only iteration the IR
// generator uses to build its static-variable list.
func (f *FST) StaticVarNames() []string {
	all := f.Names()
	return lo.Filter(all, func(name string, _ int) bool {
		e := f.entries[name]
		_, ok := e.Attr.(ast.StaticAttr)
		return ok
	})
}

// BackendEntry is the codegen-facing view of an FST entry, per spec.md
// section 4.4.2: functions become FunctionEntry, StaticAttr variables
// become StaticEntry, everything else (locals and compiler temporaries)
// becomes ObjectEntry.
type BackendEntry interface {
	isBackendEntry()
}

type FunctionEntry struct{ Defined bool }

type StaticEntry struct {
	Type ast.Type
}

type ObjectEntry struct {
	Type     ast.Type
	IsStatic bool
}

func (FunctionEntry) isBackendEntry() {}
func (StaticEntry) isBackendEntry()   {}
func (ObjectEntry) isBackendEntry()   {}

// Backend is the backend symbol table, rebuilt once per compilation
// immediately before assembly generation (spec.md section 4.5).
type Backend struct {
	entries map[string]BackendEntry
}

// BuildBackend translates an FST into a Backend table. Compiler-generated
// temporaries (tmp.<k>, results of short-circuit lowering, etc.) are
// already in the FST with a LocalAttr, written there by the IR generator,
// so they become ObjectEntry{Type, IsStatic: false} here like any local.
func BuildBackend(f *FST) *Backend {
	b := &Backend{entries: make(map[string]BackendEntry)}
	for _, name := range f.Names() {
		e := f.entries[name]
		switch attr := e.Attr.(type) {
		case ast.FunctionAttr:
			b.entries[name] = FunctionEntry{Defined: attr.Defined}
		case ast.StaticAttr:
			b.entries[name] = StaticEntry{Type: e.Type}
		case ast.LocalAttr:
			b.entries[name] = ObjectEntry{Type: e.Type, IsStatic: false}
		}
	}
	return b
}

// AddObject registers name as a non-static object of type t, so
// pseudo-to-stack replacement can look up its type. If name already has
// an entry, of any kind or type, that entry is kept and the call is a
// no-op.
func (b *Backend) AddObject(name string, t ast.Type) {
	if _, ok := b.entries[name]; ok {
		return
	}
	b.entries[name] = ObjectEntry{Type: t, IsStatic: false}
}

// Get returns the backend entry for name.
func (b *Backend) Get(name string) (BackendEntry, bool) {
	e, ok := b.entries[name]
	return e, ok
}

// MustGet panics on a missing entry; every Pseudo operand codegen builds
// must have a backend entry by the time pseudo-to-stack replacement runs.
func (b *Backend) MustGet(name string) BackendEntry {
	e, ok := b.entries[name]
	if !ok {
		panic("symtab: backend table missing entry for " + name)
	}
	return e
}

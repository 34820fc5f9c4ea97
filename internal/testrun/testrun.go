// Package testrun implements the ExecExpect-style end-to-end test helper
// of SPEC_FULL.md section 10.7, adapted from the teacher's
// src/test/code_test.go: compile a C-subset source string down to a
// native executable through the full pipeline (parse, semantic
// analysis, IR generation, optional optimization, assembly generation,
// emission, then the system assembler/linker), run it, and fail the test
// unless its exit status equals the expected one, for spec.md section 8's
// concrete end-to-end scenarios.
package testrun

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"nanocc/internal/codegen"
	"nanocc/internal/ctx"
	"nanocc/internal/emit"
	"nanocc/internal/irgen"
	"nanocc/internal/optimize"
	"nanocc/internal/parser"
	"nanocc/internal/sema"
	"nanocc/internal/symtab"
)

// HasToolchain reports whether a system C compiler is available, so
// tests can skip gracefully in environments without one instead of
// failing for an unrelated reason.
func HasToolchain() bool {
	_, err := exec.LookPath("cc")
	return err == nil
}

// Compile runs the whole pipeline over src and returns the generated
// assembly text, for tests that only care about shape of the output
// rather than executing it.
func Compile(t *testing.T, src string, opts optimize.Options) string {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c := ctx.New()
	fst := symtab.New()
	if err := sema.Analyze(prog, c, fst); err != nil {
		t.Fatalf("sema: %v", err)
	}
	irProg, err := irgen.Generate(prog, c, fst)
	if err != nil {
		t.Fatalf("irgen: %v", err)
	}
	optimize.Program(irProg, opts)
	asmProg := codegen.Generate(irProg, fst)
	text, err := emit.Emit(asmProg, emit.Linux)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	return text
}

// ExecExpect compiles src, links it into an executable with the system
// assembler/linker, runs it, and asserts its exit status equals want. It
// skips the test if no system C compiler is on PATH.
func ExecExpect(t *testing.T, src string, want int) {
	t.Helper()
	if !HasToolchain() {
		t.Skip("no system C compiler on PATH; skipping end-to-end exec test")
	}

	text := Compile(t, src, optimize.Options{})

	dir := t.TempDir()
	asmPath := filepath.Join(dir, "a.s")
	if err := os.WriteFile(asmPath, []byte(text), 0o644); err != nil {
		t.Fatalf("write asm: %v", err)
	}
	binPath := filepath.Join(dir, "a.out")
	cmd := exec.Command("cc", asmPath, "-o", binPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("assemble/link: %v\n%s\n--- asm ---\n%s", err, out, text)
	}

	runCmd := exec.Command(binPath)
	runErr := runCmd.Run()
	got := 0
	if runErr != nil {
		exitErr, ok := runErr.(*exec.ExitError)
		if !ok {
			t.Fatalf("run: %v", runErr)
		}
		got = exitErr.ExitCode()
	}
	if got != want {
		t.Errorf("exit status = %d, want %d\n--- source ---\n%s\n--- asm ---\n%s", got, want, src, text)
	}
}

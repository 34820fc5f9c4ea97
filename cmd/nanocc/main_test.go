package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "a.c")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRunStopsAfterLexWhenRequested(t *testing.T) {
	path := writeSource(t, "int main(void){return 0;}")
	err := run(path, flags{lex: true})
	require.NoError(t, err)
}

// A source that is lexically valid but syntactically invalid must still
// exit 0 under --lex: the flag stops the pipeline before the parser
// ever runs, per spec.md section 6.
func TestRunLexStopsBeforeParseErrorOnSyntacticallyInvalidSource(t *testing.T) {
	path := writeSource(t, "int main(void){ return ; }")
	err := run(path, flags{lex: true})
	require.NoError(t, err)
}

func TestRunLexReportsLexicalErrorForUnrecognizedCharacter(t *testing.T) {
	path := writeSource(t, "int main(void){ return 1 @ 2; }")
	err := run(path, flags{lex: true})
	require.Error(t, err)
}

func TestRunStopsAfterParseWhenRequested(t *testing.T) {
	path := writeSource(t, "int main(void){return 0;}")
	err := run(path, flags{parseOnly: true})
	require.NoError(t, err)
}

func TestRunStopsAfterValidateWhenRequested(t *testing.T) {
	path := writeSource(t, "int main(void){return 0;}")
	err := run(path, flags{validate: true})
	require.NoError(t, err)
}

func TestRunReportsParseErrorForMalformedSource(t *testing.T) {
	path := writeSource(t, "int main(void){ return ; }")
	err := run(path, flags{parseOnly: true})
	require.Error(t, err)
}

func TestRunReportsSemanticErrorForUndeclaredIdentifier(t *testing.T) {
	path := writeSource(t, "int main(void){ return y; }")
	err := run(path, flags{validate: true})
	require.Error(t, err)
}

func TestRunStopsAfterTackyWhenRequested(t *testing.T) {
	path := writeSource(t, "int main(void){ return 1 + 2; }")
	err := run(path, flags{tacky: true})
	require.NoError(t, err)
}

func TestRunWritesAsmFileWhenDashSIsGiven(t *testing.T) {
	path := writeSource(t, "int main(void){return 42;}")
	err := run(path, flags{writeAsm: true})
	require.NoError(t, err)

	asmPath := filepath.Join(filepath.Dir(path), "a.s")
	contents, err := os.ReadFile(asmPath)
	require.NoError(t, err)
	require.Contains(t, string(contents), "main")
}

func TestRunStopsAfterCodegenWhenRequested(t *testing.T) {
	path := writeSource(t, "int main(void){return 42;}")
	err := run(path, flags{codegenOnly: true})
	require.NoError(t, err)

	// -codegen never reaches emission, so no .s file should appear.
	_, err = os.Stat(filepath.Join(filepath.Dir(path), "a.s"))
	require.True(t, os.IsNotExist(err))
}

func TestOptimizerOptionsAllOverridesIndividualFlags(t *testing.T) {
	opts := optimizerOptions(flags{optimizeAll: true})
	require.True(t, opts.FoldConstants)
	require.True(t, opts.PropagateCopies)
	require.True(t, opts.EliminateUnreachableCode)
	require.True(t, opts.EliminateDeadStores)
}

func TestOptimizerOptionsRespectsIndividualFlags(t *testing.T) {
	opts := optimizerOptions(flags{foldConstants: true})
	require.True(t, opts.FoldConstants)
	require.False(t, opts.PropagateCopies)
}

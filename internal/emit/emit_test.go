package emit_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"nanocc/internal/asmir"
	"nanocc/internal/ast"
	"nanocc/internal/emit"
)

func simpleProgram() *asmir.Program {
	return &asmir.Program{
		TopLevels: []asmir.TopLevel{
			&asmir.FunctionDefinition{
				Name:   "main",
				Global: true,
				Body: []asmir.Instruction{
					&asmir.Mov{Type: asmir.Longword, Src: asmir.Imm{Value: 42}, Dst: asmir.Reg{ID: asmir.AX}},
					&asmir.Ret{},
				},
			},
		},
	}
}

func TestEmitLinuxHasNoSymbolUnderscorePrefix(t *testing.T) {
	out, err := emit.Emit(simpleProgram(), emit.Linux)
	require.NoError(t, err)
	require.Contains(t, out, "main:")
	require.NotContains(t, out, "_main:")
}

func TestEmitMacOSPrefixesSymbolsWithUnderscore(t *testing.T) {
	out, err := emit.Emit(simpleProgram(), emit.MacOS)
	require.NoError(t, err)
	require.Contains(t, out, "_main:")
}

func TestEmitLinuxUsesAlignAndNoteGNUStack(t *testing.T) {
	prog := &asmir.Program{
		TopLevels: []asmir.TopLevel{
			&asmir.StaticVariable{Name: "x", Global: true, Alignment: 4, Init: ast.IntInit(5)},
		},
	}
	out, err := emit.Emit(prog, emit.Linux)
	require.NoError(t, err)
	require.Contains(t, out, ".align 4")
	require.Contains(t, out, ".note.GNU-stack")
}

func TestEmitMacOSUsesBalignAndNoNoteGNUStack(t *testing.T) {
	prog := &asmir.Program{
		TopLevels: []asmir.TopLevel{
			&asmir.StaticVariable{Name: "x", Global: true, Alignment: 4, Init: ast.IntInit(5)},
		},
	}
	out, err := emit.Emit(prog, emit.MacOS)
	require.NoError(t, err)
	require.Contains(t, out, ".balign 4")
	require.NotContains(t, out, ".note.GNU-stack")
}

func TestEmitCallUsesPLTOnLinuxOnly(t *testing.T) {
	prog := &asmir.Program{
		TopLevels: []asmir.TopLevel{
			&asmir.FunctionDefinition{
				Name:   "main",
				Global: true,
				Body: []asmir.Instruction{
					&asmir.Call{Name: "helper"},
					&asmir.Ret{},
				},
			},
		},
	}
	linuxOut, err := emit.Emit(prog, emit.Linux)
	require.NoError(t, err)
	require.True(t, strings.Contains(linuxOut, "helper@PLT"))

	macOut, err := emit.Emit(prog, emit.MacOS)
	require.NoError(t, err)
	require.False(t, strings.Contains(macOut, "@PLT"))
	require.True(t, strings.Contains(macOut, "_helper"))
}

func TestEmitZeroInitializedStaticGoesInBSS(t *testing.T) {
	prog := &asmir.Program{
		TopLevels: []asmir.TopLevel{
			&asmir.StaticVariable{Name: "z", Global: true, Alignment: 4, Init: ast.IntInit(0)},
		},
	}
	out, err := emit.Emit(prog, emit.Linux)
	require.NoError(t, err)
	require.Contains(t, out, ".bss")
	require.Contains(t, out, ".zero 4")
	require.NotContains(t, out, ".data")
}

func TestEmitNonZeroStaticGoesInDataWithCorrectDirective(t *testing.T) {
	prog := &asmir.Program{
		TopLevels: []asmir.TopLevel{
			&asmir.StaticVariable{Name: "y", Global: true, Alignment: 8, Init: ast.LongInit(9)},
		},
	}
	out, err := emit.Emit(prog, emit.Linux)
	require.NoError(t, err)
	require.Contains(t, out, ".data")
	require.Contains(t, out, ".quad 9")
}

func TestEmitQuadwordUsesQSuffixAnd64BitRegisterNames(t *testing.T) {
	prog := &asmir.Program{
		TopLevels: []asmir.TopLevel{
			&asmir.FunctionDefinition{
				Name:   "main",
				Global: true,
				Body: []asmir.Instruction{
					&asmir.Mov{Type: asmir.Quadword, Src: asmir.Imm{Value: 1}, Dst: asmir.Reg{ID: asmir.AX}},
					&asmir.Ret{},
				},
			},
		},
	}
	out, err := emit.Emit(prog, emit.Linux)
	require.NoError(t, err)
	require.Contains(t, out, "movq")
	require.Contains(t, out, "%rax")
}

func TestEmitPanicsOnUnresolvedPseudoOperand(t *testing.T) {
	prog := &asmir.Program{
		TopLevels: []asmir.TopLevel{
			&asmir.FunctionDefinition{
				Name: "main",
				Body: []asmir.Instruction{
					&asmir.Mov{Type: asmir.Longword, Src: asmir.Imm{Value: 1}, Dst: asmir.Pseudo{Name: "x"}},
				},
			},
		},
	}
	require.Panics(t, func() { _, _ = emit.Emit(prog, emit.Linux) })
}

package codegen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nanocc/internal/asmir"
)

func TestFixupMemToMemMovGoesThroughR10(t *testing.T) {
	fn := &asmir.FunctionDefinition{
		Body: []asmir.Instruction{
			&asmir.Mov{Type: asmir.Longword, Src: asmir.Stack{Offset: -4}, Dst: asmir.Stack{Offset: -8}},
		},
	}
	fixup(fn)
	require.Len(t, fn.Body, 2)
	first := fn.Body[0].(*asmir.Mov)
	require.Equal(t, asmir.Reg{ID: asmir.R10}, first.Dst)
	second := fn.Body[1].(*asmir.Mov)
	require.Equal(t, asmir.Reg{ID: asmir.R10}, second.Src)
	require.Equal(t, asmir.Stack{Offset: -8}, second.Dst)
}

func TestFixupOversizedQuadwordImmediateMovGoesThroughR10(t *testing.T) {
	fn := &asmir.FunctionDefinition{
		Body: []asmir.Instruction{
			&asmir.Mov{Type: asmir.Quadword, Src: asmir.Imm{Value: 1 << 40}, Dst: asmir.Stack{Offset: -8}},
		},
	}
	fixup(fn)
	require.Len(t, fn.Body, 2)
	_, ok := fn.Body[0].(*asmir.Mov)
	require.True(t, ok)
}

func TestFixupSmallQuadwordImmediateMovIsUntouched(t *testing.T) {
	fn := &asmir.FunctionDefinition{
		Body: []asmir.Instruction{
			&asmir.Mov{Type: asmir.Quadword, Src: asmir.Imm{Value: 5}, Dst: asmir.Stack{Offset: -8}},
		},
	}
	fixup(fn)
	require.Len(t, fn.Body, 1)
}

func TestFixupImulTargetingMemoryGoesThroughR11(t *testing.T) {
	fn := &asmir.FunctionDefinition{
		Body: []asmir.Instruction{
			&asmir.Binary{Op: asmir.BImul, Type: asmir.Longword, Src: asmir.Imm{Value: 2}, Dst: asmir.Stack{Offset: -4}},
		},
	}
	fixup(fn)
	require.Len(t, fn.Body, 3)
	mid := fn.Body[1].(*asmir.Binary)
	require.Equal(t, asmir.Reg{ID: asmir.R11}, mid.Dst)
}

func TestFixupIdivWithImmediateOperandGoesThroughR10(t *testing.T) {
	fn := &asmir.FunctionDefinition{
		Body: []asmir.Instruction{
			&asmir.Idiv{Type: asmir.Longword, Src: asmir.Imm{Value: 3}},
		},
	}
	fixup(fn)
	require.Len(t, fn.Body, 2)
	idiv := fn.Body[1].(*asmir.Idiv)
	require.Equal(t, asmir.Reg{ID: asmir.R10}, idiv.Src)
}

func TestFixupMovsxImmediateSourceAndMemoryDestBothFixed(t *testing.T) {
	fn := &asmir.FunctionDefinition{
		Body: []asmir.Instruction{
			&asmir.Movsx{Src: asmir.Imm{Value: 1}, Dst: asmir.Stack{Offset: -8}},
		},
	}
	fixup(fn)
	require.Len(t, fn.Body, 3)
	for _, instr := range fn.Body {
		if mx, ok := instr.(*asmir.Movsx); ok {
			_, srcImm := mx.Src.(asmir.Imm)
			require.False(t, srcImm)
			_, dstMem := mx.Dst.(asmir.Stack)
			require.False(t, dstMem)
		}
	}
}

func TestFixupCmpWithImmediateDestGoesThroughR11(t *testing.T) {
	fn := &asmir.FunctionDefinition{
		Body: []asmir.Instruction{
			&asmir.Cmp{Type: asmir.Longword, Src: asmir.Stack{Offset: -4}, Dst: asmir.Imm{Value: 5}},
		},
	}
	fixup(fn)
	require.Len(t, fn.Body, 2)
	cmp := fn.Body[1].(*asmir.Cmp)
	require.Equal(t, asmir.Reg{ID: asmir.R11}, cmp.Dst)
}

// A Cmp whose dst is an immediate AND whose src is an oversized
// Quadword immediate (e.g. "5000000000L < 6000000000L") needs both
// scratch registers: dst swapped into R11, and the still-too-large src
// immediate separately loaded into R10 — the dstImm fixup alone must
// not skip the src size check.
func TestFixupCmpWithImmediateDestAndOversizedSrcImmediateFixesBoth(t *testing.T) {
	fn := &asmir.FunctionDefinition{
		Body: []asmir.Instruction{
			&asmir.Cmp{Type: asmir.Quadword, Src: asmir.Imm{Value: 6000000000}, Dst: asmir.Imm{Value: 5000000000}},
		},
	}
	fixup(fn)
	cmp := fn.Body[len(fn.Body)-1].(*asmir.Cmp)
	_, srcStillImm := cmp.Src.(asmir.Imm)
	require.False(t, srcStillImm, "oversized Quadword immediate src must be loaded into a register before Cmp")
	require.Equal(t, asmir.Reg{ID: asmir.R11}, cmp.Dst)
	require.Equal(t, asmir.Reg{ID: asmir.R10}, cmp.Src)
}

func TestFixupInsertsStackFramePrologueWhenNonZero(t *testing.T) {
	fn := &asmir.FunctionDefinition{
		StackSize: 32,
		Body:      []asmir.Instruction{&asmir.Ret{}},
	}
	fixup(fn)
	sub, ok := fn.Body[0].(*asmir.Binary)
	require.True(t, ok)
	require.Equal(t, asmir.BSub, sub.Op)
	require.Equal(t, asmir.Imm{Value: 32}, sub.Src)
	require.Equal(t, asmir.Reg{ID: asmir.SP}, sub.Dst)
}

func TestFixupNoPrologueWhenStackSizeZero(t *testing.T) {
	fn := &asmir.FunctionDefinition{
		StackSize: 0,
		Body:      []asmir.Instruction{&asmir.Ret{}},
	}
	fixup(fn)
	require.Len(t, fn.Body, 1)
	_, ok := fn.Body[0].(*asmir.Ret)
	require.True(t, ok)
}

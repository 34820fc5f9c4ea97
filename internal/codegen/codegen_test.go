package codegen_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nanocc/internal/asmir"
	"nanocc/internal/codegen"
	"nanocc/internal/ctx"
	"nanocc/internal/irgen"
	"nanocc/internal/parser"
	"nanocc/internal/sema"
	"nanocc/internal/symtab"
)

func generateAsm(t *testing.T, src string) *asmir.Program {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	c := ctx.New()
	fst := symtab.New()
	require.NoError(t, sema.Analyze(prog, c, fst))
	irProg, err := irgen.Generate(prog, c, fst)
	require.NoError(t, err)
	return codegen.Generate(irProg, fst)
}

func mainFn(t *testing.T, p *asmir.Program) *asmir.FunctionDefinition {
	t.Helper()
	for _, tl := range p.TopLevels {
		if fn, ok := tl.(*asmir.FunctionDefinition); ok && fn.Name == "main" {
			return fn
		}
	}
	t.Fatal("no main in generated assembly")
	return nil
}

// testableProperty5 asserts the x86-64 operand-legality invariants
// spec.md section 8 names: no Mov/Add/Sub/Cmp has two memory operands,
// no Imul targets memory, no Movsx has an immediate source or memory
// destination, no Idiv has an immediate operand.
func testableProperty5(t *testing.T, fn *asmir.FunctionDefinition) {
	t.Helper()
	isMem := func(op asmir.Operand) bool {
		switch op.(type) {
		case asmir.Stack, asmir.Data:
			return true
		default:
			return false
		}
	}
	for _, instr := range fn.Body {
		switch in := instr.(type) {
		case *asmir.Mov:
			require.False(t, isMem(in.Src) && isMem(in.Dst), "Mov must not have two memory operands")
		case *asmir.Cmp:
			require.False(t, isMem(in.Src) && isMem(in.Dst), "Cmp must not have two memory operands")
		case *asmir.Binary:
			if in.Op == asmir.BAdd || in.Op == asmir.BSub {
				require.False(t, isMem(in.Src) && isMem(in.Dst), "Add/Sub must not have two memory operands")
			}
			if in.Op == asmir.BImul {
				require.False(t, isMem(in.Dst), "Imul must not target memory")
			}
		case *asmir.Movsx:
			_, srcImm := in.Src.(asmir.Imm)
			require.False(t, srcImm, "Movsx must not have an immediate source")
			require.False(t, isMem(in.Dst), "Movsx must not have a memory destination")
		case *asmir.Idiv:
			_, srcImm := in.Src.(asmir.Imm)
			require.False(t, srcImm, "Idiv must not have an immediate operand")
		}
	}
}

// testableProperty6 asserts the frame size is always a multiple of 16.
func testableProperty6(t *testing.T, fn *asmir.FunctionDefinition) {
	t.Helper()
	require.Zero(t, fn.StackSize%16, "stack frame size must be 16-byte aligned")
}

func TestGenerateSimpleArithmeticObeysOperandConstraints(t *testing.T) {
	p := generateAsm(t, "int main(void){ return 2+3*4; }")
	fn := mainFn(t, p)
	testableProperty5(t, fn)
	testableProperty6(t, fn)
}

func TestGenerateManyLocalsStillObeysFrameAlignment(t *testing.T) {
	p := generateAsm(t, "int main(void){ int a=1;int b=2;int c=3;long d=4;long e=5; return a+b+c+(int)d+(int)e; }")
	fn := mainFn(t, p)
	testableProperty5(t, fn)
	testableProperty6(t, fn)
}

func TestGenerateDivisionUsesCdqAndIdiv(t *testing.T) {
	p := generateAsm(t, "int main(void){ int a=10; int b=3; return a/b; }")
	fn := mainFn(t, p)
	var sawCdq, sawIdiv bool
	for _, instr := range fn.Body {
		switch instr.(type) {
		case *asmir.Cdq:
			sawCdq = true
		case *asmir.Idiv:
			sawIdiv = true
		}
	}
	require.True(t, sawCdq)
	require.True(t, sawIdiv)
	testableProperty5(t, fn)
}

func TestGenerateFunctionCallWithMoreThanSixArgsSpillsToStack(t *testing.T) {
	src := `int f(int a,int b,int c,int d,int e,int f,int g,int h){return a;}
	        int main(void){ return f(1,2,3,4,5,6,7,8); }`
	p := generateAsm(t, src)
	fn := mainFn(t, p)
	var sawPush, sawCall bool
	for _, instr := range fn.Body {
		switch instr.(type) {
		case *asmir.Push:
			sawPush = true
		case *asmir.Call:
			sawCall = true
		}
	}
	require.True(t, sawPush, "the 7th/8th arguments must be pushed onto the stack")
	require.True(t, sawCall)
	testableProperty5(t, fn)
	testableProperty6(t, fn)
}

func TestGenerateStaticVariableGetsCorrectAlignment(t *testing.T) {
	p := generateAsm(t, "int x = 1;\nlong y = 2;\nint main(void){ return x + (int)y; }")
	var gotX, gotY bool
	for _, tl := range p.TopLevels {
		sv, ok := tl.(*asmir.StaticVariable)
		if !ok {
			continue
		}
		switch sv.Name {
		case "x":
			require.Equal(t, 4, sv.Alignment)
			gotX = true
		case "y":
			require.Equal(t, 8, sv.Alignment)
			gotY = true
		}
	}
	require.True(t, gotX)
	require.True(t, gotY)
}

func TestGenerateLongConstantAssignmentObeysOperandConstraints(t *testing.T) {
	p := generateAsm(t, "int main(void){ long a = 4294967296L; return (int)a; }")
	fn := mainFn(t, p)
	testableProperty5(t, fn)
	testableProperty6(t, fn)
}

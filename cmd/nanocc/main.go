// Command nanocc compiles one C-subset source file to x86-64 assembly,
// optionally invoking the system assembler/linker, per spec.md section
// 6. CLI shape grounded on the pack's cobra-based compiler frontends;
// stage flags and error reporting follow the teacher's compile/compiler.go
// single-file, debug-gated pipeline.
package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"nanocc/internal/codegen"
	"nanocc/internal/ctx"
	"nanocc/internal/diag"
	"nanocc/internal/dump"
	"nanocc/internal/emit"
	"nanocc/internal/irgen"
	"nanocc/internal/lexer"
	"nanocc/internal/optimize"
	"nanocc/internal/parser"
	"nanocc/internal/sema"
	"nanocc/internal/symtab"
)

var log = logrus.New()

type flags struct {
	lex, parseOnly, validate, tacky, codegenOnly bool
	writeAsm                                     bool
	foldConstants, propagateCopies               bool
	eliminateUnreachable, eliminateDeadStores    bool
	optimizeAll                                  bool
	dumpAST, dumpIR, dumpAsm                     bool
}

func main() {
	var f flags

	root := &cobra.Command{
		Use:   "nanocc <source.c>",
		Short: "compile a C-subset source file to x86-64 assembly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], f)
		},
	}

	root.Flags().BoolVar(&f.lex, "lex", false, "stop after lexing")
	root.Flags().BoolVar(&f.parseOnly, "parse", false, "stop after parsing")
	root.Flags().BoolVar(&f.validate, "validate", false, "stop after semantic analysis")
	root.Flags().BoolVar(&f.tacky, "tacky", false, "stop after IR generation")
	root.Flags().BoolVar(&f.codegenOnly, "codegen", false, "stop after assembly generation")
	root.Flags().BoolVarP(&f.writeAsm, "S", "S", false, "write a .s file instead of assembling/linking")
	root.Flags().BoolVar(&f.foldConstants, "fold-constants", false, "enable constant folding")
	root.Flags().BoolVar(&f.propagateCopies, "propagate-copies", false, "enable copy propagation")
	root.Flags().BoolVar(&f.eliminateUnreachable, "eliminate-unreachable-code", false, "enable unreachable-code elimination")
	root.Flags().BoolVar(&f.eliminateDeadStores, "eliminate-dead-stores", false, "enable dead-store elimination")
	root.Flags().BoolVar(&f.optimizeAll, "optimize", false, "enable every optimizer pass")
	root.Flags().BoolVar(&f.dumpAST, "dump-ast", false, "dump the resolved/typed syntax tree")
	root.Flags().BoolVar(&f.dumpIR, "dump-ir", false, "dump the generated IR")
	root.Flags().BoolVar(&f.dumpAsm, "dump-asm", false, "dump the generated assembly tree")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(path string, f flags) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return diag.Wrap(diag.StageLex, diag.LexicalError, err)
	}

	if f.lex {
		log.Debugf("lexing %s", path)
		if _, err := lexer.Tokenize(string(src)); err != nil {
			return reportAndExit(err)
		}
		return nil
	}

	log.Debugf("parsing %s", path)
	prog, err := parser.Parse(string(src))
	if err != nil {
		return reportAndExit(err)
	}
	if f.dumpAST {
		dump.Value("ast", prog)
	}
	if f.parseOnly {
		return nil
	}

	c := ctx.New()
	fst := symtab.New()
	log.Debug("running semantic analysis")
	if err := sema.Analyze(prog, c, fst); err != nil {
		return reportAndExit(err)
	}
	if f.validate {
		return nil
	}

	log.Debug("generating IR")
	irProg, err := irgen.Generate(prog, c, fst)
	if err != nil {
		return reportAndExit(err)
	}
	if f.dumpIR {
		dump.Value("ir", irProg)
	}

	opts := optimizerOptions(f)
	if opts != (optimize.Options{}) {
		log.Debug("running optimizer passes")
		optimize.Program(irProg, opts)
	}
	if f.tacky {
		return nil
	}

	log.Debug("generating assembly")
	asmProg := codegen.Generate(irProg, fst)
	if f.dumpAsm {
		dump.Value("asm", asmProg)
	}
	if f.codegenOnly {
		return nil
	}

	text, err := emit.Emit(asmProg, hostPlatform())
	if err != nil {
		return reportAndExit(diag.Wrap(diag.StageCodegen, diag.CodegenInvariant, err))
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dir := filepath.Dir(path)
	asmPath := filepath.Join(dir, base+".s")
	if err := os.WriteFile(asmPath, []byte(text), 0o644); err != nil {
		return diag.Wrap(diag.StageCodegen, diag.CodegenInvariant, err)
	}

	if f.writeAsm {
		return nil
	}
	return assembleAndLink(dir, asmPath, filepath.Join(dir, base))
}

func optimizerOptions(f flags) optimize.Options {
	if f.optimizeAll {
		return optimize.All()
	}
	return optimize.Options{
		FoldConstants:            f.foldConstants,
		PropagateCopies:          f.propagateCopies,
		EliminateUnreachableCode: f.eliminateUnreachable,
		EliminateDeadStores:      f.eliminateDeadStores,
	}
}

func hostPlatform() emit.Platform {
	if runtime.GOOS == "darwin" {
		return emit.MacOS
	}
	return emit.Linux
}

// assembleAndLink shells out to cc, mirroring the teacher's
// utils.ExecuteCmd subprocess pattern in compile/compiler.go.
func assembleAndLink(wd, asmPath, outPath string) error {
	cmd := exec.Command("cc", asmPath, "-o", outPath)
	cmd.Dir = wd
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return diag.Wrap(diag.StageCodegen, diag.CodegenInvariant, err)
	}
	return nil
}

func reportAndExit(err error) error {
	log.Error(err.Error())
	return err
}

func init() {
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetOutput(os.Stderr)
	if os.Getenv("NANOCC_DEBUG") != "" {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
}

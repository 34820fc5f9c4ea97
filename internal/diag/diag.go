// Package diag defines the compiler's error kinds. Every pass returns one
// of these wrapped in a Go error rather than panicking, so the driver can
// print a single stage-tagged line on stderr and exit non-zero.
package diag

import (
	"fmt"

	"github.com/pkg/errors"
)

// Stage identifies which pipeline stage raised an error.
type Stage string

const (
	StageLex     Stage = "lex"
	StageParse   Stage = "parse"
	StageResolve Stage = "identifier-resolution"
	StageType    Stage = "type"
	StageLoop    Stage = "loop-labeling"
	StageIRGen   Stage = "tacky"
	StageCodegen Stage = "codegen"
)

// Kind is the closed set of error kinds from spec.md section 7.
type Kind string

const (
	LexicalError             Kind = "LexicalError"
	ParseError               Kind = "ParseError"
	DuplicateDeclaration     Kind = "IdentifierResolutionError: duplicate declaration"
	UndeclaredIdentifier     Kind = "IdentifierResolutionError: undeclared identifier"
	InvalidLValue            Kind = "IdentifierResolutionError: invalid lvalue"
	ArityMismatch            Kind = "TypeError: arity mismatch"
	UndefinedFunction        Kind = "TypeError: undefined function"
	ConflictingRedeclaration Kind = "TypeError: conflicting redeclaration"
	FunctionUsedAsValue      Kind = "TypeError: function used as value"
	BreakOutsideLoop         Kind = "LoopLabelingError: break outside loop"
	ContinueOutsideLoop      Kind = "LoopLabelingError: continue outside loop"
	IRGenInvariant           Kind = "IRGenError"
	CodegenInvariant         Kind = "CodegenError"
)

// Error is the concrete error type every pass returns. It carries the
// stage it happened in and the specific kind, so the driver can print
// "<stage>: <kind>: <message>" as the single stderr line spec.md section 7
// requires.
type Error struct {
	Stage Stage
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a diag.Error, wrapping format/args as the underlying message
// via errors.Errorf so the error carries a creation stack for debugging.
func New(stage Stage, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Stage: stage, Kind: kind, cause: errors.Errorf(format, args...)}
}

// Wrap attaches a stage/kind to a pre-existing error (e.g. bubbling an
// os.Open failure out of the driver) without discarding its message.
func Wrap(stage Stage, kind Kind, cause error) *Error {
	return &Error{Stage: stage, Kind: kind, cause: errors.WithStack(cause)}
}

// IsKind reports whether err (or something it wraps) is a diag.Error of
// the given kind. Tests use this instead of string-matching messages.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

package emitter

import (
	"errors"
	"fmt"

	"github.com/kievzenit/c2ir/internal/ast"
)

type ErrorKind int

const (
	UndeclaredVariable ErrorKind = iota
	UnknownFunction
	ArityMismatch
	UnsupportedOperator
	UnresolvedType
	OperandLoweringFailed
	ArgumentLoweringFailed
	TypeMismatch
	FunctionRedefined
	NoEnclosingFunction
	ConstantOverflow

	MissingReturn
	UnreachableCode
)

func (k ErrorKind) String() string {
	switch k {
	case UndeclaredVariable:
		return "UndeclaredVariable"
	case UnknownFunction:
		return "UnknownFunction"
	case ArityMismatch:
		return "ArityMismatch"
	case UnsupportedOperator:
		return "UnsupportedOperator"
	case UnresolvedType:
		return "UnresolvedType"
	case OperandLoweringFailed:
		return "OperandLoweringFailed"
	case ArgumentLoweringFailed:
		return "ArgumentLoweringFailed"
	case TypeMismatch:
		return "TypeMismatch"
	case FunctionRedefined:
		return "FunctionRedefined"
	case NoEnclosingFunction:
		return "NoEnclosingFunction"
	case ConstantOverflow:
		return "ConstantOverflow"
	case MissingReturn:
		return "MissingReturn"
	case UnreachableCode:
		return "UnreachableCode"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// IsWarning reports whether lowering continues after a diagnostic of this
// kind.
func (k ErrorKind) IsWarning() bool {
	switch k {
	case UnresolvedType, MissingReturn, UnreachableCode:
		return true
	}
	return false
}

// LoweringError is both a Go error and a compiler_errors.CompilerError, so it
// can be returned up the lowering recursion and then reported as is.
type LoweringError struct {
	Kind    ErrorKind
	Message string

	FileName string
	Pos      ast.Pos

	// set for ArityMismatch
	Expected int
	Actual   int

	Cause error
}

func (e *LoweringError) Error() string {
	msg := e.GetMessage()
	if e.Pos.Line == 0 {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Pos, msg)
}

func (e *LoweringError) Unwrap() error {
	return e.Cause
}

func (e *LoweringError) GetMessage() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, describeCause(e.Cause))
}

func (e *LoweringError) GetFileName() string {
	return e.FileName
}

func (e *LoweringError) GetLine() int {
	return e.Pos.Line
}

func (e *LoweringError) GetColumn() int {
	return e.Pos.Column
}

func describeCause(err error) string {
	var loweringErr *LoweringError
	if errors.As(err, &loweringErr) {
		return loweringErr.GetMessage()
	}
	return err.Error()
}

// HasKind reports whether any LoweringError in err's chain has the given
// kind.
func HasKind(err error, kind ErrorKind) bool {
	for err != nil {
		if loweringErr, ok := err.(*LoweringError); ok && loweringErr.Kind == kind {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

func (e *Emitter) newError(kind ErrorKind, pos ast.Pos, format string, args ...any) *LoweringError {
	return &LoweringError{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		FileName: e.fileName,
		Pos:      pos,
	}
}

func (e *Emitter) wrapError(kind ErrorKind, pos ast.Pos, cause error, format string, args ...any) *LoweringError {
	err := e.newError(kind, pos, format, args...)
	err.Cause = cause
	return err
}

func (e *Emitter) warn(kind ErrorKind, pos ast.Pos, format string, args ...any) {
	e.eh.AddWarning(e.newError(kind, pos, format, args...))
}

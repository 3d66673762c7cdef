package compiler_errors

import (
	"fmt"
	"io"
	"os"
)

type CompilerError interface {
	GetMessage() string
}

// PositionedError is implemented by errors that know where in the source
// file they happened.
type PositionedError interface {
	CompilerError
	GetFileName() string
	GetLine() int
	GetColumn() int
}

type ErrorHandler interface {
	AddError(err CompilerError)
	AddWarning(err CompilerError)
	HasErrors() bool
	Errors() []CompilerError
	Warnings() []CompilerError
	FailNow()
}

type CompilerErrorHandler struct {
	errors   []CompilerError
	warnings []CompilerError
	writer   io.Writer

	exit func(code int)
}

func NewErrorHandler(outputWriter io.Writer) ErrorHandler {
	return NewErrorHandlerWithExit(outputWriter, os.Exit)
}

// NewErrorHandlerWithExit lets callers that must survive a failed build (the
// watch loop, tests) replace the process exit.
func NewErrorHandlerWithExit(outputWriter io.Writer, exit func(code int)) ErrorHandler {
	return &CompilerErrorHandler{
		errors:   make([]CompilerError, 0),
		warnings: make([]CompilerError, 0),
		writer:   outputWriter,
		exit:     exit,
	}
}

func (eh *CompilerErrorHandler) AddError(err CompilerError) {
	eh.errors = append(eh.errors, err)
}

func (eh *CompilerErrorHandler) AddWarning(err CompilerError) {
	eh.warnings = append(eh.warnings, err)
	fmt.Fprintf(eh.writer, "WARNING: %s\n", format(err))
}

func (eh *CompilerErrorHandler) HasErrors() bool {
	return len(eh.errors) > 0
}

func (eh *CompilerErrorHandler) Errors() []CompilerError {
	return eh.errors
}

func (eh *CompilerErrorHandler) Warnings() []CompilerError {
	return eh.warnings
}

func (eh *CompilerErrorHandler) FailNow() {
	fmt.Fprintln(eh.writer, "Build failed with errors:")

	for _, err := range eh.errors {
		fmt.Fprintf(eh.writer, "ERROR: %s\n", format(err))
	}

	eh.exit(1)
}

func format(err CompilerError) string {
	positioned, ok := err.(PositionedError)
	if !ok || positioned.GetLine() == 0 {
		return err.GetMessage()
	}

	if positioned.GetFileName() == "" {
		return fmt.Sprintf("%d:%d: %s", positioned.GetLine(), positioned.GetColumn(), err.GetMessage())
	}

	return fmt.Sprintf(
		"%s:%d:%d: %s",
		positioned.GetFileName(),
		positioned.GetLine(),
		positioned.GetColumn(),
		err.GetMessage(),
	)
}

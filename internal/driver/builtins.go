package driver

import (
	"fmt"

	"github.com/kievzenit/c2ir/internal/emitter"
	"github.com/kievzenit/c2ir/internal/types"
	"tinygo.org/x/go-llvm"
)

// Builtin registers runtime functions before user code is lowered.
type Builtin func(e *emitter.Emitter) error

func DefaultBuiltins() []Builtin {
	return []Builtin{Printf, Echo}
}

// Printf declares the C library's `int printf(char *format, ...)`.
func Printf(e *emitter.Emitter) error {
	_, err := e.DeclareFunction(emitter.Signature{
		Name:       "printf",
		Return:     types.IntType,
		Params:     []types.Type{types.CharPtr},
		ParamNames: []string{"format"},
		Variadic:   true,
		Linkage:    llvm.ExternalLinkage,
	})
	return err
}

// Echo defines `void echo(int value)`, which prints value and a newline
// through printf.
func Echo(e *emitter.Emitter) error {
	printf, ok := e.Function("printf")
	if !ok {
		return fmt.Errorf("builtin echo needs printf to be registered first")
	}

	_, err := e.DefineFunction(emitter.Signature{
		Name:       "echo",
		Return:     types.VoidType,
		Params:     []types.Type{types.IntType},
		ParamNames: []string{"value"},
		Linkage:    llvm.InternalLinkage,
	}, func(fn *emitter.Function) error {
		builder := e.Builder()
		format := builder.CreateGlobalStringPtr("%d\n", ".echo.fmt")
		builder.CreateCall(printf.Type, printf.Value, []llvm.Value{format, fn.Value.Param(0)}, "")
		return nil
	})
	return err
}

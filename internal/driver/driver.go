package driver

import (
	"errors"
	"fmt"
	"io"

	"github.com/kievzenit/c2ir/internal/ast"
	"github.com/kievzenit/c2ir/internal/compiler_errors"
	"github.com/kievzenit/c2ir/internal/config"
	"github.com/kievzenit/c2ir/internal/emitter"
	"github.com/kievzenit/c2ir/internal/types"
	"tinygo.org/x/go-llvm"
)

type TopLevelError struct {
	Message string

	FileName string
	Pos      ast.Pos
}

func (e *TopLevelError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

func (e *TopLevelError) GetMessage() string  { return e.Message }
func (e *TopLevelError) GetFileName() string { return e.FileName }
func (e *TopLevelError) GetLine() int        { return e.Pos.Line }
func (e *TopLevelError) GetColumn() int      { return e.Pos.Column }

// failure adapts errors that are not compiler errors, such as IR
// verification failures, to the error handler.
type failure struct {
	err error
}

func (f failure) GetMessage() string { return f.err.Error() }

// Program is a lowered, verified module together with its entry procedure.
// It owns the LLVM context and must be disposed.
type Program struct {
	Module llvm.Module

	Entry       llvm.Value
	EntryName   string
	EntryReturn types.Type

	emitter *emitter.Emitter
}

func (p *Program) String() string {
	return p.Module.String()
}

func (p *Program) Dispose() {
	p.emitter.Dispose()
}

type Driver struct {
	cfg config.Config
	eh  compiler_errors.ErrorHandler

	builtins []Builtin
	trace    io.Writer
}

type Option func(*Driver)

// WithBuiltins replaces the default builtins.
func WithBuiltins(builtins ...Builtin) Option {
	return func(d *Driver) {
		d.builtins = builtins
	}
}

// WithTrace sends the lowering trace to w when the config asks for tracing.
func WithTrace(w io.Writer) Option {
	return func(d *Driver) {
		d.trace = w
	}
}

func New(cfg config.Config, eh compiler_errors.ErrorHandler, opts ...Option) *Driver {
	if cfg.EntryName == "" {
		cfg.EntryName = config.DefaultEntryName
	}

	d := &Driver{
		cfg:      cfg,
		eh:       eh,
		builtins: DefaultBuiltins(),
		trace:    io.Discard,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Compile lowers the tree rooted at root into a verified program. Errors are
// reported to the error handler and returned; nothing of a failed
// compilation outlives the call.
func (d *Driver) Compile(fileName string, tree *ast.Tree, root ast.NodeID) (*Program, error) {
	e := emitter.NewEmitter(fileName, tree, d.eh)
	if d.cfg.Trace {
		e.SetTrace(d.trace)
	}

	program, err := d.compile(e, fileName, tree, root)
	if err != nil {
		e.Dispose()
		d.report(err)
		return nil, err
	}
	return program, nil
}

func (d *Driver) compile(e *emitter.Emitter, fileName string, tree *ast.Tree, root ast.NodeID) (*Program, error) {
	for _, builtin := range d.builtins {
		if err := builtin(e); err != nil {
			return nil, err
		}
	}

	block, ok := tree.Node(root).(*ast.Block)
	if !ok {
		return nil, fmt.Errorf("root node must be a block, got %T", tree.Node(root))
	}

	var (
		entry *emitter.Function
		err   error
	)
	if d.definesEntry(tree, block) {
		entry, err = d.lowerWithUserEntry(e, fileName, tree, block, root)
	} else {
		entry, err = d.lowerWithImplicitEntry(e, block, root)
	}
	if err != nil {
		return nil, err
	}

	if err := llvm.VerifyModule(e.Module(), llvm.ReturnStatusAction); err != nil {
		return nil, fmt.Errorf("module verification failed: %w", err)
	}

	return &Program{
		Module:      e.Module(),
		Entry:       entry.Value,
		EntryName:   d.cfg.EntryName,
		EntryReturn: entry.Signature.Return,
		emitter:     e,
	}, nil
}

func (d *Driver) definesEntry(tree *ast.Tree, block *ast.Block) bool {
	for _, id := range block.Stmts {
		if fn, ok := tree.Node(id).(*ast.FunctionDeclaration); ok && fn.HasBody() && fn.Name == d.cfg.EntryName {
			return true
		}
	}
	return false
}

// lowerWithImplicitEntry wraps the top-level statements in a parameterless
// entry procedure returning int. Without a top-level return it returns 0.
func (d *Driver) lowerWithImplicitEntry(e *emitter.Emitter, block *ast.Block, root ast.NodeID) (*emitter.Function, error) {
	return e.DefineFunction(emitter.Signature{
		Name:    d.cfg.EntryName,
		Return:  types.IntType,
		Linkage: llvm.ExternalLinkage,
		Pos:     block.Pos,
	}, func(*emitter.Function) error {
		if err := e.Lower(root); err != nil {
			return err
		}
		if !e.HasReturn() {
			e.SetReturn(llvm.ConstInt(e.Context().Int32Type(), 0, true), types.IntType)
		}
		return nil
	})
}

// lowerWithUserEntry handles programs that define the entry procedure
// themselves, like a regular C file. Only declarations may appear at the top
// level then.
func (d *Driver) lowerWithUserEntry(
	e *emitter.Emitter,
	fileName string,
	tree *ast.Tree,
	block *ast.Block,
	root ast.NodeID,
) (*emitter.Function, error) {
	for _, id := range block.Stmts {
		switch node := tree.Node(id).(type) {
		case *ast.ExternDeclaration, *ast.FunctionDeclaration:
		default:
			return nil, &TopLevelError{
				Message:  fmt.Sprintf("statements are not allowed at the top level of a program that defines '%s'", d.cfg.EntryName),
				FileName: fileName,
				Pos:      node.Position(),
			}
		}
	}

	if err := e.Lower(root); err != nil {
		return nil, err
	}

	entry, _ := e.Function(d.cfg.EntryName)
	if len(entry.Signature.Params) != 0 {
		return nil, &TopLevelError{
			Message:  fmt.Sprintf("entry procedure '%s' must not take parameters", d.cfg.EntryName),
			FileName: fileName,
			Pos:      entry.Signature.Pos,
		}
	}
	return entry, nil
}

func (d *Driver) report(err error) {
	var compilerErr compiler_errors.CompilerError
	if errors.As(err, &compilerErr) {
		d.eh.AddError(compilerErr)
		return
	}
	d.eh.AddError(failure{err: err})
}

// Package backend executes or serializes lowered programs.
package backend

import (
	"fmt"
	"io"
	"sync"

	"github.com/kievzenit/c2ir/internal/config"
	"github.com/kievzenit/c2ir/internal/driver"
	"tinygo.org/x/go-llvm"
)

type Result struct {
	// ExitCode is the value returned by the entry procedure, 0 for void
	// entries.
	ExitCode int
}

type Backend interface {
	Run(p *driver.Program) (Result, error)
	EmitObject(p *driver.Program, w io.Writer) error
	EmitIR(p *driver.Program, w io.Writer) error
}

type LLVMBackend struct {
	buildType config.BuildType
	triple    string
}

func NewLLVMBackend(cfg config.Config) *LLVMBackend {
	return &LLVMBackend{
		buildType: cfg.BuildType,
		triple:    cfg.Triple,
	}
}

var (
	nativeOnce sync.Once
	nativeErr  error

	targetsOnce sync.Once
)

func initNative() error {
	nativeOnce.Do(func() {
		llvm.LinkInMCJIT()
		if err := llvm.InitializeNativeTarget(); err != nil {
			nativeErr = err
			return
		}
		nativeErr = llvm.InitializeNativeAsmPrinter()
	})
	return nativeErr
}

func initAllTargets() {
	targetsOnce.Do(func() {
		llvm.InitializeAllTargetInfos()
		llvm.InitializeAllTargets()
		llvm.InitializeAllTargetMCs()
		llvm.InitializeAllAsmPrinters()
	})
}

// Run JIT-compiles the program and calls its entry procedure in this
// process. The program keeps ownership of its module.
func (b *LLVMBackend) Run(p *driver.Program) (Result, error) {
	if err := initNative(); err != nil {
		return Result{}, fmt.Errorf("initializing native target: %w", err)
	}

	options := llvm.NewMCJITCompilerOptions()
	options.SetMCJITOptimizationLevel(b.optLevel())

	ee, err := llvm.NewMCJITCompiler(p.Module, options)
	if err != nil {
		return Result{}, fmt.Errorf("creating execution engine: %w", err)
	}
	defer func() {
		ee.RemoveModule(p.Module)
		ee.Dispose()
	}()

	value := ee.RunFunction(p.Entry, []llvm.GenericValue{})
	defer value.Dispose()

	if p.EntryReturn.IsVoid() {
		return Result{}, nil
	}
	return Result{ExitCode: int(int32(value.Int(true)))}, nil
}

// EmitObject writes a relocatable object file for the configured triple, or
// for the host when none is configured.
func (b *LLVMBackend) EmitObject(p *driver.Program, w io.Writer) error {
	initAllTargets()

	triple := b.triple
	if triple == "" {
		triple = llvm.DefaultTargetTriple()
	}

	target, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		return fmt.Errorf("unknown target triple %q: %w", triple, err)
	}

	tm := target.CreateTargetMachine(triple, "", "", b.codeGenLevel(), llvm.RelocPIC, llvm.CodeModelDefault)
	defer tm.Dispose()

	td := tm.CreateTargetData()
	defer td.Dispose()

	p.Module.SetTarget(triple)
	p.Module.SetDataLayout(td.String())

	buf, err := tm.EmitToMemoryBuffer(p.Module, llvm.ObjectFile)
	if err != nil {
		return fmt.Errorf("emitting object file: %w", err)
	}
	defer buf.Dispose()

	_, err = w.Write(buf.Bytes())
	return err
}

func (b *LLVMBackend) EmitIR(p *driver.Program, w io.Writer) error {
	_, err := io.WriteString(w, p.Module.String())
	return err
}

func (b *LLVMBackend) codeGenLevel() llvm.CodeGenOptLevel {
	if b.buildType == config.RELEASE {
		return llvm.CodeGenLevelAggressive
	}
	return llvm.CodeGenLevelNone
}

func (b *LLVMBackend) optLevel() uint {
	if b.buildType == config.RELEASE {
		return 3
	}
	return 0
}

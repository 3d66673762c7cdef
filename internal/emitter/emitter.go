package emitter

import (
	"fmt"
	"io"

	"github.com/kievzenit/c2ir/internal/ast"
	"github.com/kievzenit/c2ir/internal/compiler_errors"
	"github.com/kievzenit/c2ir/internal/types"
	"tinygo.org/x/go-llvm"
)

// typedValue pairs an IR value with its source-level type. A void value has
// a nil val.
type typedValue struct {
	val llvm.Value
	ty  types.Type
}

func (v typedValue) isVoid() bool {
	return v.ty.IsVoid()
}

// Signature describes a callable as the source language sees it.
type Signature struct {
	Name       string
	Return     types.Type
	Params     []types.Type
	ParamNames []string
	Variadic   bool
	Linkage    llvm.Linkage

	Pos ast.Pos
}

func (s Signature) sameAs(other Signature) bool {
	if s.Return != other.Return || s.Variadic != other.Variadic || len(s.Params) != len(other.Params) {
		return false
	}
	for i := range s.Params {
		if s.Params[i] != other.Params[i] {
			return false
		}
	}
	return true
}

func (s Signature) String() string {
	params := ""
	for i, param := range s.Params {
		if i > 0 {
			params += ", "
		}
		params += param.String()
	}
	if s.Variadic {
		if params != "" {
			params += ", "
		}
		params += "..."
	}
	return fmt.Sprintf("%s %s(%s)", s.Return, s.Name, params)
}

type Function struct {
	Value     llvm.Value
	Type      llvm.Type
	Signature Signature
	Defined   bool
}

type Emitter struct {
	fileName string
	tree     *ast.Tree

	resolver *types.TypeResolver
	eh       compiler_errors.ErrorHandler

	typesMap map[types.Kind]llvm.Type
	funcsMap map[string]*Function

	context llvm.Context
	module  llvm.Module
	builder llvm.Builder

	scopes []*scope

	trace io.Writer
}

func NewEmitter(fileName string, tree *ast.Tree, eh compiler_errors.ErrorHandler) *Emitter {
	context := llvm.NewContext()

	moduleName := fileName
	if moduleName == "" {
		moduleName = "main"
	}

	e := &Emitter{
		fileName: fileName,
		tree:     tree,

		resolver: types.NewTypeResolver(),
		eh:       eh,

		typesMap: make(map[types.Kind]llvm.Type),
		funcsMap: make(map[string]*Function),

		context: context,
		module:  context.NewModule(moduleName),
		builder: context.NewBuilder(),

		scopes: make([]*scope, 0),
	}
	e.declareTypes()
	return e
}

func (e *Emitter) declareTypes() {
	e.typesMap[types.Void] = e.context.VoidType()
	e.typesMap[types.Char] = e.context.Int8Type()
	e.typesMap[types.Int] = e.context.Int32Type()
	e.typesMap[types.Double] = e.context.DoubleType()
}

func (e *Emitter) Context() llvm.Context { return e.context }
func (e *Emitter) Module() llvm.Module   { return e.module }
func (e *Emitter) Builder() llvm.Builder { return e.builder }

// SetTrace makes the emitter print one line per lowered node to w.
func (e *Emitter) SetTrace(w io.Writer) {
	e.trace = w
}

func (e *Emitter) tracef(format string, args ...any) {
	if e.trace == nil {
		return
	}
	fmt.Fprintf(e.trace, format+"\n", args...)
}

// Dispose releases everything the emitter created, the module included.
func (e *Emitter) Dispose() {
	e.builder.Dispose()
	e.module.Dispose()
	e.context.Dispose()
}

func (e *Emitter) Function(name string) (*Function, bool) {
	fn, ok := e.funcsMap[name]
	return fn, ok
}

func (e *Emitter) getLlvmTypeForType(t types.Type) llvm.Type {
	if t.IsArray() {
		return llvm.ArrayType(e.getLlvmTypeForType(t.Elem()), t.ArrayLen)
	}

	if t.Pointer {
		// void* is spelled i8* for LLVM versions that still have typed
		// pointers.
		pointee := e.typesMap[t.Kind]
		if t.Kind == types.Void {
			pointee = e.typesMap[types.Char]
		}
		return llvm.PointerType(pointee, 0)
	}

	return e.typesMap[t.Kind]
}

func (e *Emitter) zeroValue(t types.Type) llvm.Value {
	return llvm.ConstNull(e.getLlvmTypeForType(t))
}

func (e *Emitter) resolveType(ref ast.TypeRef, pos ast.Pos) types.Type {
	t, ok := e.resolver.ResolveRef(ref)
	if !ok {
		e.warn(UnresolvedType, pos, "unknown type '%s', using void", ref.Name)
	}
	return t
}

// DeclareFunction registers a callable without a body. Declaring the same
// signature twice is allowed; a conflicting signature is not.
func (e *Emitter) DeclareFunction(sig Signature) (*Function, error) {
	sig.Params = append([]types.Type(nil), sig.Params...)
	for i, param := range sig.Params {
		if param.IsVoid() {
			return nil, e.newError(TypeMismatch, sig.Pos, "parameter %d of '%s' has type void", i+1, sig.Name)
		}
		sig.Params[i] = param.Decay()
	}

	if existing, ok := e.funcsMap[sig.Name]; ok {
		if !existing.Signature.sameAs(sig) {
			return nil, e.newError(
				FunctionRedefined,
				sig.Pos,
				"conflicting types for '%s': %s, previously declared as %s",
				sig.Name,
				sig,
				existing.Signature,
			)
		}
		return existing, nil
	}

	paramTypes := make([]llvm.Type, 0, len(sig.Params))
	for _, param := range sig.Params {
		paramTypes = append(paramTypes, e.getLlvmTypeForType(param))
	}
	funcType := llvm.FunctionType(e.getLlvmTypeForType(sig.Return), paramTypes, sig.Variadic)
	funcValue := llvm.AddFunction(e.module, sig.Name, funcType)
	funcValue.SetLinkage(sig.Linkage)
	funcValue.SetFunctionCallConv(llvm.CCallConv)

	for i, name := range sig.ParamNames {
		if i < len(sig.Params) && name != "" {
			funcValue.Param(i).SetName(name)
		}
	}

	fn := &Function{
		Value:     funcValue,
		Type:      funcType,
		Signature: sig,
	}
	e.funcsMap[sig.Name] = fn
	return fn, nil
}

// DefineFunction registers sig and lowers a body for it. The body callback
// runs inside a fresh scope with every named parameter bound to its own
// storage; whatever it leaves as the pending return is returned from the
// function.
func (e *Emitter) DefineFunction(sig Signature, body func(fn *Function) error) (*Function, error) {
	if existing, ok := e.funcsMap[sig.Name]; ok && existing.Defined {
		return nil, e.newError(FunctionRedefined, sig.Pos, "redefinition of '%s'", sig.Name)
	}

	fn, err := e.DeclareFunction(sig)
	if err != nil {
		return nil, err
	}
	fn.Defined = true
	fn.Signature.ParamNames = sig.ParamNames
	fn.Signature.Pos = sig.Pos

	allocBasicBlock := e.context.AddBasicBlock(fn.Value, "alloc")
	entryBasicBlock := e.context.AddBasicBlock(fn.Value, "entry")

	e.pushScope(fn, allocBasicBlock)
	defer e.popScope()

	e.builder.SetInsertPointAtEnd(entryBasicBlock)

	for i, name := range sig.ParamNames {
		if i >= len(fn.Signature.Params) || name == "" {
			continue
		}
		fn.Value.Param(i).SetName(name)

		paramType := fn.Signature.Params[i]
		llvmType := e.getLlvmTypeForType(paramType)
		storage := e.allocate(llvmType, name)
		e.declare(name, &binding{
			storage:   storage,
			allocated: llvmType,
			declared:  paramType,
			isParam:   true,
		})
		e.builder.CreateStore(fn.Value.Param(i), storage)
	}

	if err := body(fn); err != nil {
		return nil, err
	}

	if err := e.emitReturn(fn); err != nil {
		return nil, err
	}

	e.builder.SetInsertPointAtEnd(allocBasicBlock)
	e.builder.CreateBr(entryBasicBlock)

	return fn, nil
}

func (e *Emitter) emitReturn(fn *Function) error {
	sig := fn.Signature
	pending, ok := e.takePendingReturn()

	switch {
	case sig.Return.IsVoid() && (!ok || pending.isVoid()):
		e.builder.CreateRetVoid()
		return nil

	case sig.Return.IsVoid():
		return e.newError(TypeMismatch, sig.Pos, "void function '%s' returns a value", sig.Name)

	case !ok:
		e.warn(MissingReturn, sig.Pos, "function '%s' does not return a value, returning zero", sig.Name)
		e.builder.CreateRet(e.zeroValue(sig.Return))
		return nil

	case pending.isVoid():
		return e.newError(TypeMismatch, sig.Pos, "non-void function '%s' should return a value", sig.Name)
	}

	value, err := e.convert(pending, sig.Return, sig.Pos)
	if err != nil {
		return err
	}
	e.builder.CreateRet(value)
	return nil
}

// SetReturn records value as the return value of the function being defined.
func (e *Emitter) SetReturn(value llvm.Value, t types.Type) {
	e.setPendingReturn(typedValue{val: value, ty: t})
}

func (e *Emitter) HasReturn() bool {
	top := e.currentScope()
	return top != nil && top.pendingReturn != nil
}

// Lower lowers the node with the given id, discarding its value.
func (e *Emitter) Lower(id ast.NodeID) error {
	_, err := e.lower(id)
	return err
}

func (e *Emitter) lower(id ast.NodeID) (typedValue, error) {
	switch node := e.tree.Node(id).(type) {
	case *ast.IntegerLiteral:
		return e.emitForIntegerLiteral(node)
	case *ast.FloatLiteral:
		return e.emitForFloatLiteral(node), nil
	case *ast.StringLiteral:
		return e.emitForStringLiteral(node), nil
	case *ast.Identifier:
		return e.emitForIdentifier(node)
	case *ast.BinaryOp:
		return e.emitForBinaryOp(node)
	case *ast.Assignment:
		return e.emitForAssignment(node)
	case *ast.Call:
		return e.emitForCall(node)
	case *ast.Block:
		return e.emitForBlock(node)
	case *ast.ExpressionStatement:
		return e.emitForExpressionStatement(node)
	case *ast.ReturnStatement:
		return e.emitForReturnStatement(node)
	case *ast.VariableDeclaration:
		return e.emitForVariableDeclaration(node)
	case *ast.ExternDeclaration:
		return e.emitForExternDeclaration(node)
	case *ast.FunctionDeclaration:
		return e.emitForFunctionDeclaration(node)
	default:
		panic(fmt.Sprintf("emitter: unknown node type %T", node))
	}
}

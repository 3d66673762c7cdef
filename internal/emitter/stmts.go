package emitter

import (
	"github.com/kievzenit/c2ir/internal/ast"
	"github.com/kievzenit/c2ir/internal/types"
)

var noValue = typedValue{ty: types.VoidType}

// emitForBlock lowers statements in order and stops after the statement that
// sets the return value of the current function; a function has exactly one
// return, emitted when its body is done.
func (e *Emitter) emitForBlock(block *ast.Block) (typedValue, error) {
	e.tracef("lowering block of %d statements", len(block.Stmts))

	last := noValue
	for i, id := range block.Stmts {
		value, err := e.lower(id)
		if err != nil {
			return typedValue{}, err
		}
		last = value

		if e.HasReturn() && i+1 < len(block.Stmts) {
			next := e.tree.Node(block.Stmts[i+1])
			e.warn(UnreachableCode, next.Position(), "code after return is never executed")
			break
		}
	}

	return last, nil
}

func (e *Emitter) emitForExpressionStatement(stmt *ast.ExpressionStatement) (typedValue, error) {
	e.tracef("lowering expression statement")

	if e.currentScope() == nil {
		return typedValue{}, e.newError(NoEnclosingFunction, stmt.Pos, "statement outside of a function")
	}
	return e.lower(stmt.Expr)
}

func (e *Emitter) emitForReturnStatement(stmt *ast.ReturnStatement) (typedValue, error) {
	e.tracef("lowering return statement")

	if e.currentScope() == nil {
		return typedValue{}, e.newError(NoEnclosingFunction, stmt.Pos, "return statement outside of a function")
	}

	if !stmt.Expr.IsValid() {
		e.setPendingReturn(noValue)
		return noValue, nil
	}

	value, err := e.lower(stmt.Expr)
	if err != nil {
		return typedValue{}, err
	}
	e.setPendingReturn(value)

	return value, nil
}

func (e *Emitter) emitForVariableDeclaration(decl *ast.VariableDeclaration) (typedValue, error) {
	e.tracef("lowering variable declaration of %s %s", decl.Type, decl.Name)

	if e.currentScope() == nil {
		return typedValue{}, e.newError(NoEnclosingFunction, decl.Pos, "variable '%s' declared outside of a function", decl.Name)
	}

	declared := e.resolveType(decl.Type, decl.Pos)
	if decl.Type.ArrayLen == ast.InferArrayLen {
		str, ok := e.nodeAsString(decl.Init)
		if !ok {
			return typedValue{}, e.newError(TypeMismatch, decl.Pos, "array '%s' needs a size or a string initializer", decl.Name)
		}
		declared.ArrayLen = len(str.Text) + 1
	}

	if declared.Kind == types.Void && !declared.Pointer {
		return typedValue{}, e.newError(TypeMismatch, decl.Pos, "variable '%s' declared void", decl.Name)
	}

	llvmType := e.getLlvmTypeForType(declared)
	storage := e.allocate(llvmType, decl.Name)

	b := &binding{
		storage:   storage,
		allocated: llvmType,
		declared:  declared,
	}
	e.declare(decl.Name, b)

	if decl.Init.IsValid() {
		if _, err := e.assign(b, decl.Name, decl.Init, decl.Pos); err != nil {
			return typedValue{}, err
		}
	}

	return typedValue{
		val: storage,
		ty:  types.Type{Kind: types.Void, Pointer: true},
	}, nil
}

func (e *Emitter) nodeAsString(id ast.NodeID) (*ast.StringLiteral, bool) {
	if !id.IsValid() {
		return nil, false
	}
	str, ok := e.tree.Node(id).(*ast.StringLiteral)
	return str, ok
}

func (e *Emitter) emitForExternDeclaration(decl *ast.ExternDeclaration) (typedValue, error) {
	e.tracef("lowering extern declaration of %s", decl.Name)

	sig := e.signature(decl.ReturnType, decl.Name, decl.Params, decl.Variadic, decl.Pos)
	if _, err := e.DeclareFunction(sig); err != nil {
		return typedValue{}, err
	}
	return noValue, nil
}

func (e *Emitter) emitForFunctionDeclaration(decl *ast.FunctionDeclaration) (typedValue, error) {
	e.tracef("lowering function declaration of %s", decl.Name)

	sig := e.signature(decl.ReturnType, decl.Name, decl.Params, decl.Variadic, decl.Pos)
	if !decl.HasBody() {
		if _, err := e.DeclareFunction(sig); err != nil {
			return typedValue{}, err
		}
		return noValue, nil
	}

	_, err := e.DefineFunction(sig, func(*Function) error {
		return e.Lower(decl.Body)
	})
	if err != nil {
		return typedValue{}, err
	}
	return noValue, nil
}

func (e *Emitter) signature(ret ast.TypeRef, name string, params []ast.Param, variadic bool, pos ast.Pos) Signature {
	sig := Signature{
		Name:       name,
		Return:     e.resolveType(ret, pos),
		Params:     make([]types.Type, 0, len(params)),
		ParamNames: make([]string, 0, len(params)),
		Variadic:   variadic,
		Pos:        pos,
	}

	for _, param := range params {
		sig.Params = append(sig.Params, e.resolveType(param.Type, pos))
		sig.ParamNames = append(sig.ParamNames, param.Name)
	}

	return sig
}

package emitter

import (
	"github.com/kievzenit/c2ir/internal/types"
	"tinygo.org/x/go-llvm"
)

type binding struct {
	storage   llvm.Value
	allocated llvm.Type
	declared  types.Type
	isParam   bool
}

// scope holds the bindings of one function body. Lookups never look past
// the top scope: functions cannot see the locals of the function that was
// being lowered when they were declared.
type scope struct {
	fn         *Function
	allocBlock llvm.BasicBlock

	// insertion point of the enclosing function, restored on pop
	savedBlock llvm.BasicBlock

	bindings      map[string]*binding
	pendingReturn *typedValue
}

func (e *Emitter) pushScope(fn *Function, allocBlock llvm.BasicBlock) {
	e.scopes = append(e.scopes, &scope{
		fn:         fn,
		allocBlock: allocBlock,
		savedBlock: e.builder.GetInsertBlock(),
		bindings:   make(map[string]*binding),
	})
}

func (e *Emitter) popScope() {
	top := e.scopes[len(e.scopes)-1]
	e.scopes = e.scopes[:len(e.scopes)-1]

	if top.savedBlock != (llvm.BasicBlock{}) {
		e.builder.SetInsertPointAtEnd(top.savedBlock)
	} else {
		e.builder.ClearInsertionPoint()
	}
}

func (e *Emitter) currentScope() *scope {
	if len(e.scopes) == 0 {
		return nil
	}
	return e.scopes[len(e.scopes)-1]
}

func (e *Emitter) depth() int {
	return len(e.scopes)
}

// declare binds name in the top scope. A previous binding of the same name,
// including a parameter, is shadowed for every later lookup.
func (e *Emitter) declare(name string, b *binding) {
	e.currentScope().bindings[name] = b
}

func (e *Emitter) lookup(name string) (*binding, bool) {
	top := e.currentScope()
	if top == nil {
		return nil, false
	}
	b, ok := top.bindings[name]
	return b, ok
}

func (e *Emitter) setPendingReturn(value typedValue) {
	e.currentScope().pendingReturn = &value
}

func (e *Emitter) takePendingReturn() (typedValue, bool) {
	top := e.currentScope()
	if top.pendingReturn == nil {
		return typedValue{}, false
	}
	value := *top.pendingReturn
	top.pendingReturn = nil
	return value, true
}

// allocate places an alloca in the alloc block of the current function so
// every local lives in the function's first block.
func (e *Emitter) allocate(t llvm.Type, name string) llvm.Value {
	currBasicBlock := e.builder.GetInsertBlock()
	e.builder.SetInsertPointAtEnd(e.currentScope().allocBlock)
	allocValue := e.builder.CreateAlloca(t, name)
	e.builder.SetInsertPointAtEnd(currBasicBlock)
	return allocValue
}

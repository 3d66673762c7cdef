package types

import "github.com/kievzenit/c2ir/internal/ast"

type TypeResolver struct {
	builtinTypesMap map[string]Kind
}

func (tr *TypeResolver) defineBuiltInTypes() {
	tr.builtinTypesMap["void"] = Void
	tr.builtinTypesMap["char"] = Char
	tr.builtinTypesMap["int"] = Int
	tr.builtinTypesMap["double"] = Double
}

func NewTypeResolver() *TypeResolver {
	tr := &TypeResolver{
		builtinTypesMap: make(map[string]Kind),
	}
	tr.defineBuiltInTypes()
	return tr
}

// Resolve maps a type name and pointer flag to a Type. Unknown names yield
// VoidType and false; callers report the failure and carry on with void.
func (tr *TypeResolver) Resolve(name string, isPointer bool) (Type, bool) {
	kind, ok := tr.builtinTypesMap[name]
	if !ok {
		return VoidType, false
	}
	return Type{Kind: kind, Pointer: isPointer}, true
}

// ResolveRef resolves a source type reference including its array suffix.
// An inferred array length (`char s[]`) is left as ast.InferArrayLen for
// the caller to fill in from the initializer.
func (tr *TypeResolver) ResolveRef(ref ast.TypeRef) (Type, bool) {
	t, ok := tr.Resolve(ref.Name, ref.IsPointer)
	if !ok {
		return t, false
	}
	t.ArrayLen = ref.ArrayLen
	return t, true
}

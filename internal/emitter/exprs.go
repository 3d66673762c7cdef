package emitter

import (
	"math"

	"github.com/kievzenit/c2ir/internal/ast"
	"github.com/kievzenit/c2ir/internal/types"
	"tinygo.org/x/go-llvm"
)

// emitForIntegerLiteral lowers an int constant. Values that do not fit in
// 32 bits are rejected rather than truncated.
func (e *Emitter) emitForIntegerLiteral(lit *ast.IntegerLiteral) (typedValue, error) {
	e.tracef("lowering integer %d", lit.Value)

	if lit.Value < math.MinInt32 || lit.Value > math.MaxInt32 {
		return typedValue{}, e.newError(ConstantOverflow, lit.Pos, "integer constant %d does not fit in type 'int'", lit.Value)
	}

	return typedValue{
		val: llvm.ConstInt(e.typesMap[types.Int], uint64(lit.Value), true),
		ty:  types.IntType,
	}, nil
}

func (e *Emitter) emitForFloatLiteral(lit *ast.FloatLiteral) typedValue {
	e.tracef("lowering double %g", lit.Value)
	return typedValue{
		val: llvm.ConstFloat(e.typesMap[types.Double], lit.Value),
		ty:  types.DoubleType,
	}
}

func (e *Emitter) emitForStringLiteral(lit *ast.StringLiteral) typedValue {
	e.tracef("lowering string %q", lit.Text)
	return typedValue{
		val: e.builder.CreateGlobalStringPtr(lit.Text, ".str"),
		ty:  types.CharPtr,
	}
}

// stringArray builds the initializer of a char array of the given length
// holding text, padded with zeros.
func (e *Emitter) stringArray(text string, length int, pos ast.Pos) (llvm.Value, error) {
	if len(text) > length {
		return llvm.Value{}, e.newError(
			TypeMismatch,
			pos,
			"initializer string of %d chars is too long for array of %d chars",
			len(text),
			length,
		)
	}

	charType := e.typesMap[types.Char]
	chars := make([]llvm.Value, length)
	for i := range chars {
		var c uint64
		if i < len(text) {
			c = uint64(text[i])
		}
		chars[i] = llvm.ConstInt(charType, c, false)
	}
	return llvm.ConstArray(charType, chars), nil
}

// emitForIdentifier loads a variable. Array storage is not loaded: it decays
// to a pointer to its first element, as in C.
func (e *Emitter) emitForIdentifier(ident *ast.Identifier) (typedValue, error) {
	e.tracef("lowering identifier %s", ident.Name)

	b, ok := e.lookup(ident.Name)
	if !ok {
		return typedValue{}, e.newError(UndeclaredVariable, ident.Pos, "use of undeclared identifier '%s'", ident.Name)
	}

	var value typedValue
	if b.declared.IsArray() {
		zero := llvm.ConstInt(e.typesMap[types.Int], 0, false)
		value = typedValue{
			val: e.builder.CreateInBoundsGEP(b.allocated, b.storage, []llvm.Value{zero, zero}, ident.Name+".decay"),
			ty:  b.declared.Decay(),
		}
	} else {
		value = typedValue{
			val: e.builder.CreateLoad(b.allocated, b.storage, ident.Name),
			ty:  b.declared,
		}
	}

	if ident.TypeHint == "" {
		return value, nil
	}

	hint := e.resolveType(ast.TypeRef{Name: ident.TypeHint, IsPointer: ident.IsPointer}, ident.Pos)
	converted, err := e.convert(value, hint, ident.Pos)
	if err != nil {
		return typedValue{}, err
	}
	return typedValue{val: converted, ty: hint}, nil
}

func (e *Emitter) emitForBinaryOp(bin *ast.BinaryOp) (typedValue, error) {
	e.tracef("lowering binary operator %s", bin.Op)

	if bin.Op != ast.Add && bin.Op != ast.Subtract {
		return typedValue{}, e.newError(UnsupportedOperator, bin.Pos, "unsupported binary operator '%s'", bin.Op)
	}

	left, err := e.lower(bin.Left)
	if err != nil {
		return typedValue{}, e.wrapError(OperandLoweringFailed, bin.Pos, err, "left operand of '%s'", bin.Op)
	}
	if left.isVoid() {
		return typedValue{}, e.newError(OperandLoweringFailed, bin.Pos, "left operand of '%s' has no value", bin.Op)
	}

	right, err := e.lower(bin.Right)
	if err != nil {
		return typedValue{}, e.wrapError(OperandLoweringFailed, bin.Pos, err, "right operand of '%s'", bin.Op)
	}
	if right.isVoid() {
		return typedValue{}, e.newError(OperandLoweringFailed, bin.Pos, "right operand of '%s' has no value", bin.Op)
	}

	return e.arithmetic(bin.Op, left, right, bin.Pos)
}

// arithmetic applies the usual arithmetic conversions: char operands are
// promoted to int, and if either side is double both become double.
func (e *Emitter) arithmetic(op ast.Operator, left, right typedValue, pos ast.Pos) (typedValue, error) {
	if !left.ty.IsScalar() || !right.ty.IsScalar() {
		return typedValue{}, e.newError(
			TypeMismatch,
			pos,
			"invalid operands to binary %s (have '%s' and '%s')",
			op,
			left.ty,
			right.ty,
		)
	}

	resultType := types.IntType
	if left.ty.IsFloat() || right.ty.IsFloat() {
		resultType = types.DoubleType
	}

	leftValue, err := e.convert(left, resultType, pos)
	if err != nil {
		return typedValue{}, err
	}
	rightValue, err := e.convert(right, resultType, pos)
	if err != nil {
		return typedValue{}, err
	}

	var result llvm.Value
	switch {
	case op == ast.Add && resultType.IsFloat():
		result = e.builder.CreateFAdd(leftValue, rightValue, "addtmp")
	case op == ast.Add:
		result = e.builder.CreateAdd(leftValue, rightValue, "addtmp")
	case resultType.IsFloat():
		result = e.builder.CreateFSub(leftValue, rightValue, "subtmp")
	default:
		result = e.builder.CreateSub(leftValue, rightValue, "subtmp")
	}

	return typedValue{val: result, ty: resultType}, nil
}

func (e *Emitter) emitForAssignment(assign *ast.Assignment) (typedValue, error) {
	target, ok := e.tree.Node(assign.Target).(*ast.Identifier)
	if !ok {
		return typedValue{}, e.newError(TypeMismatch, assign.Pos, "expression is not assignable")
	}
	e.tracef("lowering assignment of %s", target.Name)

	b, ok := e.lookup(target.Name)
	if !ok {
		return typedValue{}, e.newError(UndeclaredVariable, target.Pos, "assignment to undeclared identifier '%s'", target.Name)
	}

	return e.assign(b, target.Name, assign.Value, assign.Pos)
}

func (e *Emitter) assign(b *binding, name string, valueID ast.NodeID, pos ast.Pos) (typedValue, error) {
	if b.declared.IsArray() {
		str, ok := e.tree.Node(valueID).(*ast.StringLiteral)
		if !ok || b.declared.Elem() != types.CharType {
			return typedValue{}, e.newError(TypeMismatch, pos, "array '%s' can only be assigned a string literal", name)
		}

		data, err := e.stringArray(str.Text, b.declared.ArrayLen, pos)
		if err != nil {
			return typedValue{}, err
		}
		e.builder.CreateStore(data, b.storage)

		zero := llvm.ConstInt(e.typesMap[types.Int], 0, false)
		return typedValue{
			val: e.builder.CreateInBoundsGEP(b.allocated, b.storage, []llvm.Value{zero, zero}, name+".decay"),
			ty:  b.declared.Decay(),
		}, nil
	}

	value, err := e.lower(valueID)
	if err != nil {
		return typedValue{}, err
	}
	if value.isVoid() {
		return typedValue{}, e.newError(TypeMismatch, pos, "void value assigned to '%s'", name)
	}

	converted, err := e.convert(value, b.declared, pos)
	if err != nil {
		return typedValue{}, err
	}
	e.builder.CreateStore(converted, b.storage)

	return typedValue{val: converted, ty: b.declared}, nil
}

func (e *Emitter) emitForCall(call *ast.Call) (typedValue, error) {
	e.tracef("lowering call of %s", call.Callee)

	fn, ok := e.funcsMap[call.Callee]
	if !ok {
		return typedValue{}, e.newError(UnknownFunction, call.Pos, "call to unknown function '%s'", call.Callee)
	}

	sig := fn.Signature
	fixed := len(sig.Params)
	if (!sig.Variadic && len(call.Args) != fixed) || (sig.Variadic && len(call.Args) < fixed) {
		err := e.newError(
			ArityMismatch,
			call.Pos,
			"function '%s' expects %d arguments, got %d",
			call.Callee,
			fixed,
			len(call.Args),
		)
		err.Expected = fixed
		err.Actual = len(call.Args)
		return typedValue{}, err
	}

	args := make([]llvm.Value, 0, len(call.Args))
	for i, argID := range call.Args {
		arg, err := e.lower(argID)
		if err != nil {
			return typedValue{}, e.wrapError(ArgumentLoweringFailed, call.Pos, err, "argument %d of '%s'", i+1, call.Callee)
		}
		if arg.isVoid() {
			return typedValue{}, e.newError(ArgumentLoweringFailed, call.Pos, "argument %d of '%s' has no value", i+1, call.Callee)
		}

		// variadic extras get the default argument promotions
		target := arg.ty
		if i < fixed {
			target = sig.Params[i]
		} else if arg.ty == types.CharType {
			target = types.IntType
		}

		value, err := e.convert(arg, target, call.Pos)
		if err != nil {
			return typedValue{}, err
		}
		args = append(args, value)
	}

	name := "calltmp"
	if sig.Return.IsVoid() {
		name = ""
	}

	return typedValue{
		val: e.builder.CreateCall(fn.Type, fn.Value, args, name),
		ty:  sig.Return,
	}, nil
}

// convert turns value into the representation of type to, following C's
// implicit conversions between arithmetic types. Pointers convert only to
// pointers.
func (e *Emitter) convert(value typedValue, to types.Type, pos ast.Pos) (llvm.Value, error) {
	from := value.ty
	if from.IsArray() {
		from = from.Decay()
	}

	toType := e.getLlvmTypeForType(to)

	switch {
	case from == to:
		return value.val, nil

	case from.IsPointer() && to.IsPointer():
		if value.val.Type() == toType {
			return value.val, nil
		}
		return e.builder.CreateBitCast(value.val, toType, "casttmp"), nil

	case from.IsInteger() && to.IsInteger():
		if from.Kind == types.Char {
			return e.builder.CreateSExt(value.val, toType, "sexttmp"), nil
		}
		return e.builder.CreateTrunc(value.val, toType, "trunctmp"), nil

	case from.IsInteger() && to.IsFloat():
		return e.builder.CreateSIToFP(value.val, toType, "convtmp"), nil

	case from.IsFloat() && to.IsInteger():
		return e.builder.CreateFPToSI(value.val, toType, "convtmp"), nil
	}

	return llvm.Value{}, e.newError(TypeMismatch, pos, "cannot convert '%s' to '%s'", value.ty, to)
}

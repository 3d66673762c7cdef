package emitter

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/kievzenit/c2ir/internal/ast"
	"github.com/kievzenit/c2ir/internal/compiler_errors"
	"github.com/kievzenit/c2ir/internal/types"
	"github.com/sanity-io/litter"
	"tinygo.org/x/go-llvm"
)

type harness struct {
	tree *ast.Tree
	e    *Emitter
	eh   compiler_errors.ErrorHandler
	out  *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	out := &bytes.Buffer{}
	eh := compiler_errors.NewErrorHandlerWithExit(out, func(int) {
		t.Fatalf("lowering must not exit the process:\n%s", out.String())
	})
	tree := ast.NewTree()
	e := NewEmitter("test.c", tree, eh)
	t.Cleanup(e.Dispose)

	return &harness{tree: tree, e: e, eh: eh, out: out}
}

// lowerBody lowers stmts as the body of `int test()`.
func (h *harness) lowerBody(stmts ...ast.NodeID) error {
	body := h.tree.Block(stmts...)
	_, err := h.e.DefineFunction(Signature{Name: "test", Return: types.IntType}, func(*Function) error {
		return h.e.Lower(body)
	})
	return err
}

func (h *harness) mustLower(t *testing.T, stmts ...ast.NodeID) string {
	t.Helper()

	if err := h.lowerBody(stmts...); err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, litter.Sdump(h.tree))
	}
	if err := llvm.VerifyModule(h.e.Module(), llvm.ReturnStatusAction); err != nil {
		t.Fatalf("module does not verify: %v\n%s", err, h.e.Module().String())
	}
	if h.e.depth() != 0 {
		t.Fatalf("expected empty scope stack, got depth %d", h.e.depth())
	}
	return h.e.Module().String()
}

func (h *harness) mustFail(t *testing.T, kind ErrorKind, stmts ...ast.NodeID) *LoweringError {
	t.Helper()

	err := h.lowerBody(stmts...)
	if err == nil {
		t.Fatalf("expected %s, lowering succeeded:\n%s", kind, h.e.Module().String())
	}
	if !HasKind(err, kind) {
		t.Fatalf("expected %s, got %v", kind, err)
	}
	if h.e.depth() != 0 {
		t.Fatalf("scope stack leaked after failure: depth %d", h.e.depth())
	}

	var loweringErr *LoweringError
	if !errors.As(err, &loweringErr) {
		t.Fatalf("expected a *LoweringError, got %T", err)
	}
	return loweringErr
}

func (h *harness) warningKinds() []ErrorKind {
	kinds := make([]ErrorKind, 0)
	for _, w := range h.eh.Warnings() {
		kinds = append(kinds, w.(*LoweringError).Kind)
	}
	return kinds
}

func assertContains(t *testing.T, ir string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(ir, fragment) {
			t.Errorf("expected IR to contain %q:\n%s", fragment, ir)
		}
	}
}

func TestDeclarationThenLoad(t *testing.T) {
	h := newHarness(t)
	tr := h.tree

	ir := h.mustLower(t,
		tr.VarDecl(ast.Type("int"), "x", tr.Int(1)),
		tr.ExprStmt(tr.Assign("x", tr.Binary(ast.Add, tr.Ident("x"), tr.Int(1)))),
		tr.Return(tr.Ident("x")),
	)

	assertContains(t, ir,
		"alloc:",
		"%x = alloca i32",
		"store i32 1, ptr %x",
		"load i32, ptr %x",
		"add i32",
		"ret i32",
	)
}

func TestRedeclarationShadows(t *testing.T) {
	h := newHarness(t)
	tr := h.tree

	ir := h.mustLower(t,
		tr.VarDecl(ast.Type("int"), "x", tr.Int(1)),
		tr.VarDecl(ast.Type("int"), "x", tr.Int(2)),
		tr.Return(tr.Ident("x")),
	)

	assertContains(t, ir, "%x1 = alloca i32", "store i32 2, ptr %x1", "load i32, ptr %x1")
}

func TestParameterCanBeShadowed(t *testing.T) {
	h := newHarness(t)
	tr := h.tree

	body := tr.Block(
		tr.VarDecl(ast.Type("int"), "a", tr.Int(5)),
		tr.Return(tr.Ident("a")),
	)
	fn := tr.Func(ast.Type("int"), "f", body, ast.Param{Type: ast.Type("int"), Name: "a"})

	ir := h.mustLower(t, tr.ExprStmt(tr.Int(0)), fn, tr.Return(tr.Call("f", tr.Int(1))))

	assertContains(t, ir, "define i32 @f(i32 %a)", "store i32 %a, ptr %a1", "store i32 5, ptr %a2", "load i32, ptr %a2")
}

func TestUndeclaredVariable(t *testing.T) {
	tests := []struct {
		name  string
		build func(tr *ast.Tree) []ast.NodeID
	}{
		{
			name: "assignment",
			build: func(tr *ast.Tree) []ast.NodeID {
				return []ast.NodeID{tr.ExprStmt(tr.Assign("y", tr.Int(3)))}
			},
		},
		{
			name: "load",
			build: func(tr *ast.Tree) []ast.NodeID {
				return []ast.NodeID{tr.Return(tr.Ident("y"))}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.mustFail(t, UndeclaredVariable, tt.build(h.tree)...)
		})
	}
}

func TestLocalsOfOtherFunctionsAreInvisible(t *testing.T) {
	h := newHarness(t)
	tr := h.tree

	fn := tr.Func(ast.Type("int"), "peek", tr.Block(tr.Return(tr.Ident("outer"))))
	h.mustFail(t, UndeclaredVariable,
		tr.VarDecl(ast.Type("int"), "outer", tr.Int(1)),
		fn,
	)
}

func TestArityMismatch(t *testing.T) {
	h := newHarness(t)
	tr := h.tree

	add := tr.Func(
		ast.Type("int"), "add",
		tr.Block(tr.Return(tr.Binary(ast.Add, tr.Ident("a"), tr.Ident("b")))),
		ast.Param{Type: ast.Type("int"), Name: "a"},
		ast.Param{Type: ast.Type("int"), Name: "b"},
	)

	err := h.mustFail(t, ArityMismatch, add, tr.Return(tr.Call("add", tr.Int(1))))
	if err.Expected != 2 || err.Actual != 1 {
		t.Errorf("expected 2 vs 1, got %d vs %d", err.Expected, err.Actual)
	}
}

func TestVariadicArity(t *testing.T) {
	t.Run("too few fixed arguments", func(t *testing.T) {
		h := newHarness(t)
		tr := h.tree

		printf := tr.Extern(ast.Type("int"), "printf", true, ast.Param{Type: ast.PtrType("char"), Name: "format"})
		err := h.mustFail(t, ArityMismatch, printf, tr.ExprStmt(tr.Call("printf")))
		if err.Expected != 1 || err.Actual != 0 {
			t.Errorf("expected 1 vs 0, got %d vs %d", err.Expected, err.Actual)
		}
	})

	t.Run("extra arguments are promoted", func(t *testing.T) {
		h := newHarness(t)
		tr := h.tree

		printf := tr.Extern(ast.Type("int"), "printf", true, ast.Param{Type: ast.PtrType("char"), Name: "format"})
		ir := h.mustLower(t,
			printf,
			tr.VarDecl(ast.Type("char"), "c", tr.Int(65)),
			tr.ExprStmt(tr.Call("printf", tr.String("%c %d %f\n"), tr.Ident("c"), tr.Int(2), tr.Float(1.5))),
			tr.Return(tr.Int(0)),
		)
		assertContains(t, ir,
			"declare i32 @printf(ptr, ...)",
			"sext i8",
			"call i32 (ptr, ...) @printf(",
			"double 1.500000e+00",
		)
	})
}

func TestUnsupportedOperator(t *testing.T) {
	for _, op := range []ast.Operator{ast.Multiply, ast.Divide} {
		t.Run(op.String(), func(t *testing.T) {
			h := newHarness(t)
			tr := h.tree
			h.mustFail(t, UnsupportedOperator, tr.Return(tr.Binary(op, tr.Int(2), tr.Int(3))))
		})
	}
}

func TestOperandLoweringFailedWrapsCause(t *testing.T) {
	h := newHarness(t)
	tr := h.tree

	err := h.mustFail(t, OperandLoweringFailed, tr.Return(tr.Binary(ast.Add, tr.Int(1), tr.Ident("missing"))))
	if !HasKind(err, UndeclaredVariable) {
		t.Errorf("expected the cause to be UndeclaredVariable, got %v", err)
	}
	if !strings.Contains(err.GetMessage(), "missing") {
		t.Errorf("expected the message to mention the identifier, got %q", err.GetMessage())
	}
}

func TestVoidOperand(t *testing.T) {
	h := newHarness(t)
	tr := h.tree

	nothing := tr.Extern(ast.Type("void"), "nothing", false)
	h.mustFail(t, OperandLoweringFailed, nothing, tr.Return(tr.Binary(ast.Add, tr.Call("nothing"), tr.Int(1))))
}

func TestArgumentLoweringFailedWrapsCause(t *testing.T) {
	h := newHarness(t)
	tr := h.tree

	puts := tr.Extern(ast.Type("int"), "puts", false, ast.Param{Type: ast.PtrType("char"), Name: "s"})
	err := h.mustFail(t, ArgumentLoweringFailed, puts, tr.Return(tr.Call("puts", tr.Ident("nope"))))
	if !HasKind(err, UndeclaredVariable) {
		t.Errorf("expected the cause to be UndeclaredVariable, got %v", err)
	}
}

func TestUnknownFunction(t *testing.T) {
	h := newHarness(t)
	tr := h.tree
	h.mustFail(t, UnknownFunction, tr.Return(tr.Call("launch")))
}

func TestCharPointerLoadsPointerValue(t *testing.T) {
	h := newHarness(t)
	tr := h.tree

	puts := tr.Extern(ast.Type("int"), "puts", false, ast.Param{Type: ast.PtrType("char"), Name: "s"})
	ir := h.mustLower(t,
		puts,
		tr.VarDecl(ast.PtrType("char"), "s", tr.String("hi")),
		tr.Return(tr.Call("puts", tr.Ident("s"))),
	)

	assertContains(t, ir,
		`c"hi\00"`,
		"%s = alloca ptr",
		"load ptr, ptr %s",
		"call i32 @puts(ptr %s1)",
	)
}

func TestCharArrayDecaysToFirstElement(t *testing.T) {
	h := newHarness(t)
	tr := h.tree

	puts := tr.Extern(ast.Type("int"), "puts", false, ast.Param{Type: ast.PtrType("char"), Name: "s"})
	ir := h.mustLower(t,
		puts,
		tr.VarDecl(ast.ArrayType("char", ast.InferArrayLen), "s", tr.String("hi")),
		tr.VarDecl(ast.ArrayType("char", 8), "buf", ast.NoNode),
		tr.ExprStmt(tr.Assign("buf", tr.String("bye"))),
		tr.ExprStmt(tr.Call("puts", tr.Ident("buf"))),
		tr.Return(tr.Call("puts", tr.Ident("s"))),
	)

	assertContains(t, ir,
		"%s = alloca [3 x i8]",
		"store [3 x i8] c\"hi\\00\", ptr %s",
		"store [8 x i8] c\"bye\\00\\00\\00\\00\\00\", ptr %buf",
		"getelementptr inbounds [3 x i8], ptr %s, i32 0, i32 0",
	)
}

func TestArrayErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(tr *ast.Tree) []ast.NodeID
	}{
		{
			name: "string too long",
			build: func(tr *ast.Tree) []ast.NodeID {
				return []ast.NodeID{tr.VarDecl(ast.ArrayType("char", 2), "s", tr.String("long"))}
			},
		},
		{
			name: "inferred length without string",
			build: func(tr *ast.Tree) []ast.NodeID {
				return []ast.NodeID{tr.VarDecl(ast.ArrayType("char", ast.InferArrayLen), "s", tr.Int(1))}
			},
		},
		{
			name: "assigning a number",
			build: func(tr *ast.Tree) []ast.NodeID {
				return []ast.NodeID{
					tr.VarDecl(ast.ArrayType("char", 4), "s", ast.NoNode),
					tr.ExprStmt(tr.Assign("s", tr.Int(1))),
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.mustFail(t, TypeMismatch, tt.build(h.tree)...)
		})
	}
}

func TestMixedArithmetic(t *testing.T) {
	h := newHarness(t)
	tr := h.tree

	ir := h.mustLower(t,
		tr.VarDecl(ast.Type("double"), "d", tr.Float(1.5)),
		tr.VarDecl(ast.Type("char"), "c", tr.Int(2)),
		tr.Return(tr.Binary(ast.Subtract, tr.Ident("d"), tr.Ident("c"))),
	)

	assertContains(t, ir,
		"store i8 2, ptr %c",
		"sitofp i8",
		"fsub double",
		"fptosi double",
	)
}

func TestTypeMismatches(t *testing.T) {
	tests := []struct {
		name  string
		build func(tr *ast.Tree) []ast.NodeID
	}{
		{
			name: "pointer arithmetic",
			build: func(tr *ast.Tree) []ast.NodeID {
				return []ast.NodeID{
					tr.VarDecl(ast.PtrType("char"), "s", tr.String("a")),
					tr.Return(tr.Binary(ast.Add, tr.Ident("s"), tr.Int(1))),
				}
			},
		},
		{
			name: "string into int",
			build: func(tr *ast.Tree) []ast.NodeID {
				return []ast.NodeID{tr.VarDecl(ast.Type("int"), "n", tr.String("a"))}
			},
		},
		{
			name: "void variable",
			build: func(tr *ast.Tree) []ast.NodeID {
				return []ast.NodeID{tr.VarDecl(ast.Type("void"), "v", ast.NoNode)}
			},
		},
		{
			name: "void value assigned",
			build: func(tr *ast.Tree) []ast.NodeID {
				return []ast.NodeID{
					tr.Extern(ast.Type("void"), "nothing", false),
					tr.VarDecl(ast.Type("int"), "n", tr.Call("nothing")),
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.mustFail(t, TypeMismatch, tt.build(h.tree)...)
		})
	}
}

func TestFunctionRedefinition(t *testing.T) {
	t.Run("two bodies", func(t *testing.T) {
		h := newHarness(t)
		tr := h.tree

		one := func() ast.NodeID {
			return tr.Func(ast.Type("int"), "one", tr.Block(tr.Return(tr.Int(1))))
		}
		h.mustFail(t, FunctionRedefined, one(), one())
	})

	t.Run("conflicting prototype", func(t *testing.T) {
		h := newHarness(t)
		tr := h.tree

		h.mustFail(t, FunctionRedefined,
			tr.Extern(ast.Type("int"), "puts", false, ast.Param{Type: ast.PtrType("char")}),
			tr.Extern(ast.Type("int"), "puts", false, ast.Param{Type: ast.Type("int")}),
		)
	})

	t.Run("prototype then definition", func(t *testing.T) {
		h := newHarness(t)
		tr := h.tree

		ir := h.mustLower(t,
			tr.Func(ast.Type("int"), "one", ast.NoNode),
			tr.Extern(ast.Type("int"), "one", false),
			tr.Func(ast.Type("int"), "one", tr.Block(tr.Return(tr.Int(1)))),
			tr.Return(tr.Call("one")),
		)
		assertContains(t, ir, "define i32 @one()")
	})
}

func TestBodilessFunctionDoesNotBindParameters(t *testing.T) {
	h := newHarness(t)
	tr := h.tree

	ir := h.mustLower(t,
		tr.Func(ast.Type("int"), "abs", ast.NoNode, ast.Param{Type: ast.Type("int"), Name: "n"}),
		tr.Return(tr.Call("abs", tr.Int(-3))),
	)
	assertContains(t, ir, "declare i32 @abs(i32)")
}

func TestUnresolvedTypeIsAWarning(t *testing.T) {
	h := newHarness(t)
	tr := h.tree

	h.mustLower(t,
		tr.Extern(ast.Type("long"), "clock", false),
		tr.ExprStmt(tr.Call("clock")),
		tr.Return(tr.Int(0)),
	)

	kinds := h.warningKinds()
	if len(kinds) != 1 || kinds[0] != UnresolvedType {
		t.Errorf("expected a single UnresolvedType warning, got %v", kinds)
	}
	if !strings.Contains(h.out.String(), "WARNING: unknown type 'long', using void") {
		t.Errorf("unexpected warning output %q", h.out.String())
	}
}

func TestFirstReturnWins(t *testing.T) {
	h := newHarness(t)
	tr := h.tree

	ir := h.mustLower(t,
		tr.Return(tr.Int(1)),
		tr.Return(tr.Int(2)),
	)

	assertContains(t, ir, "ret i32 1")
	if strings.Contains(ir, "ret i32 2") {
		t.Errorf("second return must not be lowered:\n%s", ir)
	}
	if kinds := h.warningKinds(); len(kinds) != 1 || kinds[0] != UnreachableCode {
		t.Errorf("expected an UnreachableCode warning, got %v", kinds)
	}
}

func TestMissingReturn(t *testing.T) {
	h := newHarness(t)
	tr := h.tree

	ir := h.mustLower(t, tr.VarDecl(ast.Type("int"), "x", tr.Int(1)))

	assertContains(t, ir, "ret i32 0")
	if kinds := h.warningKinds(); len(kinds) != 1 || kinds[0] != MissingReturn {
		t.Errorf("expected a MissingReturn warning, got %v", kinds)
	}
}

func TestVoidFunctions(t *testing.T) {
	h := newHarness(t)
	tr := h.tree

	ir := h.mustLower(t,
		tr.Func(ast.Type("void"), "noop", tr.Block()),
		tr.Func(ast.Type("void"), "early", tr.Block(tr.Return(ast.NoNode))),
		tr.ExprStmt(tr.Call("noop")),
		tr.Return(tr.Int(0)),
	)
	assertContains(t, ir, "define void @noop()", "ret void", "call void @noop()")

	bad := newHarness(t)
	btr := bad.tree
	bad.mustFail(t, TypeMismatch, btr.Func(ast.Type("void"), "v", btr.Block(btr.Return(btr.Int(1)))))
}

func TestIdentifierTypeHint(t *testing.T) {
	h := newHarness(t)
	tr := h.tree

	x := tr.Add(&ast.Identifier{Name: "x", TypeHint: "double"})
	ir := h.mustLower(t,
		tr.VarDecl(ast.Type("double"), "d", ast.NoNode),
		tr.VarDecl(ast.Type("int"), "x", tr.Int(3)),
		tr.ExprStmt(tr.Assign("d", x)),
		tr.Return(tr.Int(0)),
	)
	assertContains(t, ir, "sitofp i32")
}

func TestStatementsNeedAFunction(t *testing.T) {
	h := newHarness(t)
	tr := h.tree

	for _, id := range []ast.NodeID{
		tr.VarDecl(ast.Type("int"), "x", ast.NoNode),
		tr.Return(tr.Int(1)),
		tr.ExprStmt(tr.Int(1)),
	} {
		err := h.e.Lower(id)
		if !HasKind(err, NoEnclosingFunction) {
			t.Errorf("expected NoEnclosingFunction, got %v", err)
		}
	}
}

func TestTrace(t *testing.T) {
	h := newHarness(t)
	tr := h.tree

	var trace bytes.Buffer
	h.e.SetTrace(&trace)
	h.mustLower(t, tr.Return(tr.Binary(ast.Add, tr.Int(2), tr.Int(3))))

	want := []string{
		"lowering block of 1 statements",
		"lowering return statement",
		"lowering binary operator +",
		"lowering integer 2",
		"lowering integer 3",
	}
	got := strings.Split(strings.TrimSpace(trace.String()), "\n")
	if len(got) != len(want) {
		t.Fatalf("expected %d trace lines, got %q", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestLoweringErrorFormatting(t *testing.T) {
	cause := &LoweringError{Kind: UndeclaredVariable, Message: "use of undeclared identifier 'y'"}
	err := &LoweringError{
		Kind:    OperandLoweringFailed,
		Message: "left operand of '+'",
		Pos:     ast.Pos{Line: 3, Column: 7},
		Cause:   cause,
	}

	if want := "3:7: left operand of '+': use of undeclared identifier 'y'"; err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected the cause to be reachable with errors.Is")
	}
	if HasKind(err, ArityMismatch) {
		t.Error("unexpected kind in chain")
	}
	if !UnresolvedType.IsWarning() || TypeMismatch.IsWarning() {
		t.Error("unexpected warning classification")
	}
}

func TestIntegerLiteralRange(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		ok    bool
		want  string
	}{
		{name: "max int", value: math.MaxInt32, ok: true, want: "ret i32 2147483647"},
		{name: "min int", value: math.MinInt32, ok: true, want: "ret i32 -2147483648"},
		{name: "above max", value: math.MaxInt32 + 1},
		{name: "wraps to one", value: 4294967297},
		{name: "below min", value: math.MinInt32 - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tr := h.tree

			if tt.ok {
				ir := h.mustLower(t, tr.Return(tr.Int(tt.value)))
				assertContains(t, ir, tt.want)
				return
			}

			err := h.mustFail(t, ConstantOverflow, tr.Return(tr.Int(tt.value)))
			if !strings.Contains(err.GetMessage(), "does not fit in type 'int'") {
				t.Errorf("unexpected message %q", err.GetMessage())
			}
		})
	}
}

func TestIntegerOverflowInsideExpression(t *testing.T) {
	h := newHarness(t)
	tr := h.tree

	err := h.mustFail(t, OperandLoweringFailed, tr.Return(tr.Binary(ast.Add, tr.Int(1), tr.Int(1<<40))))
	if !HasKind(err, ConstantOverflow) {
		t.Errorf("expected the cause to be ConstantOverflow, got %v", err)
	}
}

package ast

import "fmt"

// Tree is the arena owning every node of one compilation. Nodes are
// appended once and never modified afterwards.
type Tree struct {
	nodes []AstNode
}

func NewTree() *Tree {
	return &Tree{nodes: make([]AstNode, 0, 64)}
}

func (t *Tree) Add(node AstNode) NodeID {
	t.nodes = append(t.nodes, node)
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree) Node(id NodeID) AstNode {
	if !id.IsValid() || int(id) >= len(t.nodes) {
		panic(fmt.Sprintf("ast: node id %d out of range (%d nodes)", id, len(t.nodes)))
	}
	return t.nodes[id]
}

func (t *Tree) Len() int {
	return len(t.nodes)
}

// Builders used by the parser and by tests that assemble trees by hand.
// Nodes built this way carry a zero Pos.

func (t *Tree) Int(value int64) NodeID {
	return t.Add(&IntegerLiteral{Value: value})
}

func (t *Tree) Float(value float64) NodeID {
	return t.Add(&FloatLiteral{Value: value})
}

func (t *Tree) String(text string) NodeID {
	return t.Add(&StringLiteral{Text: text})
}

func (t *Tree) Ident(name string) NodeID {
	return t.Add(&Identifier{Name: name})
}

func (t *Tree) Binary(op Operator, left, right NodeID) NodeID {
	return t.Add(&BinaryOp{Op: op, Left: left, Right: right})
}

func (t *Tree) Assign(name string, value NodeID) NodeID {
	return t.Add(&Assignment{Target: t.Ident(name), Value: value})
}

func (t *Tree) Call(callee string, args ...NodeID) NodeID {
	return t.Add(&Call{Callee: callee, Args: args})
}

func (t *Tree) Block(stmts ...NodeID) NodeID {
	return t.Add(&Block{Stmts: stmts})
}

func (t *Tree) ExprStmt(expr NodeID) NodeID {
	return t.Add(&ExpressionStatement{Expr: expr})
}

func (t *Tree) Return(expr NodeID) NodeID {
	return t.Add(&ReturnStatement{Expr: expr})
}

func (t *Tree) VarDecl(typ TypeRef, name string, init NodeID) NodeID {
	return t.Add(&VariableDeclaration{Type: typ, Name: name, Init: init})
}

func (t *Tree) Extern(ret TypeRef, name string, variadic bool, params ...Param) NodeID {
	return t.Add(&ExternDeclaration{ReturnType: ret, Name: name, Params: params, Variadic: variadic})
}

func (t *Tree) Func(ret TypeRef, name string, body NodeID, params ...Param) NodeID {
	return t.Add(&FunctionDeclaration{ReturnType: ret, Name: name, Params: params, Body: body})
}

func Type(name string) TypeRef {
	return TypeRef{Name: name}
}

func PtrType(name string) TypeRef {
	return TypeRef{Name: name, IsPointer: true}
}

func ArrayType(name string, length int) TypeRef {
	return TypeRef{Name: name, ArrayLen: length}
}

package ast

type Operator int

const (
	Add Operator = iota
	Subtract
	Multiply
	Divide
)

func (op Operator) String() string {
	switch op {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	}
	return "?"
}

type IntegerLiteral struct {
	Pos Pos

	Value int64
}

type FloatLiteral struct {
	Pos Pos

	Value float64
}

type StringLiteral struct {
	Pos Pos

	Text string
}

type Identifier struct {
	Pos Pos

	Name      string
	TypeHint  string
	IsPointer bool
}

type BinaryOp struct {
	Pos Pos

	Op    Operator
	Left  NodeID
	Right NodeID
}

type Assignment struct {
	Pos Pos

	Target NodeID
	Value  NodeID
}

type Call struct {
	Pos Pos

	Callee string
	Args   []NodeID
}

func (IntegerLiteral) AstNode() {}
func (FloatLiteral) AstNode()   {}
func (StringLiteral) AstNode()  {}
func (Identifier) AstNode()     {}
func (BinaryOp) AstNode()       {}
func (Assignment) AstNode()     {}
func (Call) AstNode()           {}

func (e *IntegerLiteral) Position() Pos { return e.Pos }
func (e *FloatLiteral) Position() Pos   { return e.Pos }
func (e *StringLiteral) Position() Pos  { return e.Pos }
func (e *Identifier) Position() Pos     { return e.Pos }
func (e *BinaryOp) Position() Pos       { return e.Pos }
func (e *Assignment) Position() Pos     { return e.Pos }
func (e *Call) Position() Pos           { return e.Pos }

func (IntegerLiteral) ExprNode() {}
func (FloatLiteral) ExprNode()   {}
func (StringLiteral) ExprNode()  {}
func (Identifier) ExprNode()     {}
func (BinaryOp) ExprNode()       {}
func (Assignment) ExprNode()     {}
func (Call) ExprNode()           {}

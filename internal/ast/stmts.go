package ast

type Block struct {
	Pos Pos

	Stmts []NodeID
}

type ExpressionStatement struct {
	Pos Pos

	Expr NodeID
}

type ReturnStatement struct {
	Pos Pos

	// NoNode for a bare `return;`.
	Expr NodeID
}

type VariableDeclaration struct {
	Pos Pos

	Type TypeRef
	Name string
	Init NodeID
}

type ExternDeclaration struct {
	Pos Pos

	ReturnType TypeRef
	Name       string
	Params     []Param
	Variadic   bool
}

type FunctionDeclaration struct {
	Pos Pos

	ReturnType TypeRef
	Name       string
	Params     []Param
	Variadic   bool

	// NoNode for a prototype that is defined elsewhere.
	Body NodeID
}

func (f *FunctionDeclaration) HasBody() bool {
	return f.Body.IsValid()
}

func (Block) AstNode()               {}
func (ExpressionStatement) AstNode() {}
func (ReturnStatement) AstNode()     {}
func (VariableDeclaration) AstNode() {}
func (ExternDeclaration) AstNode()   {}
func (FunctionDeclaration) AstNode() {}

func (s *Block) Position() Pos               { return s.Pos }
func (s *ExpressionStatement) Position() Pos { return s.Pos }
func (s *ReturnStatement) Position() Pos     { return s.Pos }
func (s *VariableDeclaration) Position() Pos { return s.Pos }
func (s *ExternDeclaration) Position() Pos   { return s.Pos }
func (s *FunctionDeclaration) Position() Pos { return s.Pos }

func (Block) StmtNode()               {}
func (ExpressionStatement) StmtNode() {}
func (ReturnStatement) StmtNode()     {}
func (VariableDeclaration) StmtNode() {}
func (ExternDeclaration) StmtNode()   {}
func (FunctionDeclaration) StmtNode() {}

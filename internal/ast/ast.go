// Package ast holds the syntax tree consumed by the emitter. Nodes live in a
// single Tree arena and refer to each other through NodeID indices.
package ast

import "fmt"

type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type AstNode interface {
	AstNode()
	Position() Pos
}

type Stmt interface {
	AstNode
	StmtNode()
}

type Expr interface {
	AstNode
	ExprNode()
}

// NodeID indexes a node inside a Tree. NoNode marks an absent optional child.
type NodeID int32

const NoNode NodeID = -1

func (id NodeID) IsValid() bool { return id >= 0 }

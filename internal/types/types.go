// Package types is the closed scalar type system of the source language.
package types

import "fmt"

type Kind int

const (
	Void Kind = iota
	Char
	Int
	Double
)

func (k Kind) String() string {
	switch k {
	case Void:
		return "void"
	case Char:
		return "char"
	case Int:
		return "int"
	case Double:
		return "double"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Type is a base kind with an optional pointer decoration and an optional
// array length. ArrayLen > 0 describes storage of ArrayLen elements of the
// (possibly pointer) element type.
type Type struct {
	Kind     Kind
	Pointer  bool
	ArrayLen int
}

var (
	VoidType   = Type{Kind: Void}
	CharType   = Type{Kind: Char}
	IntType    = Type{Kind: Int}
	DoubleType = Type{Kind: Double}
	CharPtr    = Type{Kind: Char, Pointer: true}
)

func (t Type) IsVoid() bool {
	return t.Kind == Void && !t.Pointer && t.ArrayLen == 0
}

func (t Type) IsPointer() bool {
	return t.Pointer && t.ArrayLen == 0
}

func (t Type) IsArray() bool {
	return t.ArrayLen > 0
}

func (t Type) IsInteger() bool {
	return t.IsScalar() && (t.Kind == Char || t.Kind == Int)
}

func (t Type) IsFloat() bool {
	return t.IsScalar() && t.Kind == Double
}

// IsScalar reports whether t is a plain arithmetic type.
func (t Type) IsScalar() bool {
	return !t.Pointer && t.ArrayLen == 0 && t.Kind != Void
}

// Elem returns the element type of an array.
func (t Type) Elem() Type {
	return Type{Kind: t.Kind, Pointer: t.Pointer}
}

// Decay turns array storage into a pointer to its first element. Other types
// are returned unchanged.
func (t Type) Decay() Type {
	if !t.IsArray() {
		return t
	}
	if t.Pointer {
		// array of pointers decays to pointer-to-pointer, which has no
		// spelling in this type system; treat it as an opaque pointer.
		return Type{Kind: Void, Pointer: true}
	}
	return Type{Kind: t.Kind, Pointer: true}
}

func (t Type) String() string {
	s := t.Kind.String()
	if t.Pointer {
		s += "*"
	}
	if t.ArrayLen > 0 {
		s = fmt.Sprintf("%s[%d]", s, t.ArrayLen)
	}
	return s
}

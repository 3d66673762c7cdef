package ast

import "fmt"

// TypeRef is a type as spelled in the source: a base name, an optional
// pointer star and an optional array length (-1 means "take it from the
// initializer", as in `char s[] = "hi"`).
type TypeRef struct {
	Name      string
	IsPointer bool
	ArrayLen  int
}

const InferArrayLen = -1

func (t TypeRef) IsArray() bool {
	return t.ArrayLen != 0
}

func (t TypeRef) String() string {
	name := t.Name
	if t.IsPointer {
		name += "*"
	}
	switch {
	case t.ArrayLen == InferArrayLen:
		return name + "[]"
	case t.ArrayLen > 0:
		return fmt.Sprintf("%s[%d]", name, t.ArrayLen)
	}
	return name
}

type Param struct {
	Type TypeRef
	Name string
}

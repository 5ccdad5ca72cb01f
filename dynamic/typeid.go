package dynamic

import "reflect"

// TypeID is an opaque, comparable token for a static type. Tokens only
// support equality; they are what dispatch matches argument types against.
type TypeID struct {
	t reflect.Type
}

var unitType = TypeID{}

// TypeOf returns the token for T.
func TypeOf[T any]() TypeID {
	return TypeID{t: reflect.TypeFor[T]()}
}

// IsDynamic reports whether the token stands for Value itself, which accepts
// an argument of any type.
func (id TypeID) IsDynamic() bool {
	return id == TypeOf[Value]()
}

func (id TypeID) String() string {
	if id.t == nil {
		return "()"
	}
	return id.t.String()
}

// Matches reports whether an argument of type arg can be passed to a
// parameter declared with id.
func (id TypeID) Matches(arg TypeID) bool {
	return id == arg || id.IsDynamic()
}

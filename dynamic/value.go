// Package dynamic is the type-erased value and namespace layer that generated
// dispatchers target.
//
// A Value boxes one payload of any static type behind a pointer, so a
// dispatcher can either move the payload out of an argument slot (Take),
// borrow it in place for mutation (Borrow) or read it through a Ref.
// Modules are filled once during host initialization and are read-only
// afterwards; nothing in this package takes a lock.
package dynamic

import (
	"fmt"
	"math"
	"reflect"
)

// Tag is a small user-settable marker carried by every Value.
type Tag = int32

// Tag bounds.
const (
	TagMin Tag = math.MinInt32
	TagMax Tag = math.MaxInt32
)

// Array is the script-level list type.
type Array []Value

// Map is the script-level object type.
type Map map[string]Value

// Value is a boxed, tagged runtime value. The zero Value is unit.
type Value struct {
	ptr any // *T for payload type T, nil for unit
	tag Tag
}

// From boxes x. Boxing a Value returns it unchanged.
func From[T any](x T) Value {
	if v, ok := any(x).(Value); ok {
		return v
	}
	p := new(T)
	*p = x
	return Value{ptr: p}
}

// FromAny boxes x using its dynamic type. A nil x yields unit.
func FromAny(x any) Value {
	switch v := x.(type) {
	case nil:
		return Value{}
	case Value:
		return v
	}
	rv := reflect.ValueOf(x)
	p := reflect.New(rv.Type())
	p.Elem().Set(rv)
	return Value{ptr: p.Interface()}
}

// Unit returns the empty value.
func Unit() Value { return Value{} }

// IsUnit reports whether v carries no payload.
func (v Value) IsUnit() bool { return v.ptr == nil }

// Tag returns the value's tag.
func (v Value) Tag() Tag { return v.tag }

// SetTag replaces the value's tag.
func (v *Value) SetTag(t Tag) { v.tag = t }

// Type returns the token of the payload's static type.
func (v Value) Type() TypeID {
	if v.ptr == nil {
		return unitType
	}
	return TypeID{t: reflect.TypeOf(v.ptr).Elem()}
}

// Interface returns the payload, or nil for unit.
func (v Value) Interface() any {
	if v.ptr == nil {
		return nil
	}
	return reflect.ValueOf(v.ptr).Elem().Interface()
}

// Take moves the value out of its slot, leaving unit behind.
func (v *Value) Take() Value {
	out := *v
	*v = Value{}
	return out
}

// Clone returns a shallow copy whose payload no longer aliases v's.
func (v Value) Clone() Value {
	if v.ptr == nil {
		return v
	}
	rv := reflect.ValueOf(v.ptr).Elem()
	p := reflect.New(rv.Type())
	p.Elem().Set(rv)
	return Value{ptr: p.Interface(), tag: v.tag}
}

func (v Value) String() string {
	if v.ptr == nil {
		return "()"
	}
	return fmt.Sprint(v.Interface())
}

// TryCast returns the payload as T. Casting to Value returns v itself.
func TryCast[T any](v Value) (T, bool) {
	var zero T
	if _, ok := any(zero).(Value); ok {
		return any(v).(T), true
	}
	p, ok := v.ptr.(*T)
	if !ok {
		return zero, false
	}
	return *p, true
}

// Cast is TryCast that panics on a type mismatch. Dispatchers only cast after
// signature matching, so a mismatch is an internal inconsistency.
func Cast[T any](v Value) T {
	out, ok := TryCast[T](v)
	if !ok {
		panic(fmt.Sprintf("dynamic: cannot cast %s to %s", v.Type(), TypeOf[T]()))
	}
	return out
}

// Borrow returns a pointer to the payload stored in v, so writes through it
// are visible to the caller. Borrowing as Value returns v itself.
func Borrow[T any](v *Value) *T {
	if p, ok := any(v).(*T); ok {
		return p
	}
	p, ok := v.ptr.(*T)
	if !ok {
		panic(fmt.Sprintf("dynamic: cannot borrow %s as %s", v.Type(), TypeOf[T]()))
	}
	return p
}

// Ref is a read-only view of a boxed payload.
type Ref[T any] struct {
	p *T
}

// RefOf borrows v's payload immutably.
func RefOf[T any](v *Value) Ref[T] {
	return Ref[T]{p: Borrow[T](v)}
}

// Get returns a copy of the referenced payload.
func (r Ref[T]) Get() T { return *r.p }

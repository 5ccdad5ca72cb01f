package dynamic

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAndCast(t *testing.T) {
	v := From(int64(42))
	assert.Equal(t, TypeOf[int64](), v.Type())
	assert.Equal(t, int64(42), Cast[int64](v))

	_, ok := TryCast[string](v)
	assert.False(t, ok)
	assert.Panics(t, func() { Cast[string](v) })
}

func TestFromValueIsIdentity(t *testing.T) {
	inner := From("hello")
	inner.SetTag(7)

	outer := From(inner)
	assert.Equal(t, TypeOf[string](), outer.Type())
	assert.Equal(t, Tag(7), outer.Tag())
}

func TestCastToValueReturnsBox(t *testing.T) {
	v := From(true)
	got := Cast[Value](v)
	assert.Equal(t, true, Cast[bool](got))
}

func TestCastToInterfaceUsesPayload(t *testing.T) {
	v := From(any("payload"))
	got, ok := TryCast[any](v)
	require.True(t, ok)
	assert.Equal(t, "payload", got)
}

func TestTakeLeavesUnit(t *testing.T) {
	slot := From(int64(3))
	taken := slot.Take()

	assert.True(t, slot.IsUnit())
	assert.Equal(t, int64(3), Cast[int64](taken))
}

func TestBorrowMutatesInPlace(t *testing.T) {
	slot := From(1.5)
	p := Borrow[float64](&slot)
	*p += 1

	assert.Equal(t, 2.5, Cast[float64](slot))
}

func TestBorrowValueReturnsSlot(t *testing.T) {
	slot := From(int64(1))
	p := Borrow[Value](&slot)
	p.SetTag(99)

	assert.Equal(t, Tag(99), slot.Tag())
}

func TestRefReadsWithoutMoving(t *testing.T) {
	slot := From("abc")
	r := RefOf[string](&slot)

	assert.Equal(t, "abc", r.Get())
	assert.False(t, slot.IsUnit())
}

func TestCloneDoesNotAlias(t *testing.T) {
	orig := From(int64(10))
	orig.SetTag(2)
	clone := orig.Clone()

	*Borrow[int64](&clone) = 20
	assert.Equal(t, int64(10), Cast[int64](orig))
	assert.Equal(t, int64(20), Cast[int64](clone))
	assert.Equal(t, Tag(2), clone.Tag())
}

func TestFromAny(t *testing.T) {
	assert.True(t, FromAny(nil).IsUnit())
	assert.Equal(t, TypeOf[int64](), FromAny(int64(5)).Type())
	assert.Equal(t, "x", Cast[string](FromAny("x")))
}

func TestUnitString(t *testing.T) {
	assert.Equal(t, "()", Unit().String())
	assert.Equal(t, "()", Unit().Type().String())
	assert.Equal(t, "42", From(int64(42)).String())
}

func TestTypeIDMatches(t *testing.T) {
	assert.True(t, TypeOf[int64]().Matches(TypeOf[int64]()))
	assert.False(t, TypeOf[int64]().Matches(TypeOf[int32]()))
	assert.True(t, TypeOf[Value]().Matches(TypeOf[string]()))
}

func TestPropagate(t *testing.T) {
	pos := NewPosition(3, 9)

	assert.NoError(t, Propagate(nil, pos))

	hostErr := errors.New("disk full")
	err := Propagate(hostErr, pos)
	var evalErr *EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, ErrRuntime, evalErr.Kind)
	assert.Equal(t, pos, evalErr.Pos)
	assert.ErrorIs(t, err, hostErr)

	unlocated := NewArithmeticError("too big", NoPosition)
	err = Propagate(unlocated, pos)
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, pos, evalErr.Pos)
	assert.True(t, unlocated.Pos.IsNone(), "original error must not be mutated")

	located := NewArithmeticError("too small", NewPosition(1, 1))
	assert.Same(t, located, Propagate(located, pos))
}

func TestPropagateKeepsHostWrapping(t *testing.T) {
	pos := NewPosition(5, 2)
	inner := NewArithmeticError("too big", NoPosition)
	wrapped := fmt.Errorf("set_tag: %w", inner)

	err := Propagate(wrapped, pos)
	var evalErr *EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, ErrArithmetic, evalErr.Kind)
	assert.Equal(t, pos, evalErr.Pos)
	assert.Equal(t, "arithmetic error: set_tag: too big (line 5, position 2)", err.Error())
	assert.ErrorIs(t, err, wrapped)
	assert.ErrorIs(t, err, inner)
	assert.True(t, inner.Pos.IsNone(), "original error must not be mutated")
}

func TestEvalErrorMessage(t *testing.T) {
	err := NewArithmeticError("overflow", NewPosition(2, 4))
	assert.Equal(t, "arithmetic error: overflow (line 2, position 4)", err.Error())

	err = NewRuntimeError("boom", NoPosition)
	assert.Equal(t, "runtime error: boom", err.Error())
}

func TestAssertArgCount(t *testing.T) {
	a, b := From(int64(1)), From(int64(2))
	assert.NotPanics(t, func() { AssertArgCount([]*Value{&a, &b}, 2) })
	assert.PanicsWithValue(t, "wrong arg count: 1 != 2", func() {
		AssertArgCount([]*Value{&a}, 2)
	})
}

//go:build ignore

package arith

import (
	"errors"

	"github.com/roach88/bindgen/dynamic"
)

// Zero is the additive identity.
const Zero = 0

const Name string = "arith"

// Add returns the sum of a and b.
//
//bindgen:fn name="+"
func Add(a, b int64) int64 { return a + b }

// Div divides a by b.
func Div(a, b int64) (int64, error) {
	if b == 0 {
		return 0, errors.New("division by zero")
	}
	return a / b, nil
}

//bindgen:fn name="len", get="len", pure
func Len(s *string) int64 { return int64(len(*s)) }

//bindgen:fn global
func Describe(ctx dynamic.CallContext, v dynamic.Ref[dynamic.Value]) string {
	return ctx.FnName() + ":" + v.Get().String()
}

func helper() {}

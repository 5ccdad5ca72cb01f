package a

type CallContext struct{}

type Value struct{ tag int64 }

//bindgen:fn name="+"
func Add(a, b int64) int64 { return a + b }

// Tag reads the tag.
//
//bindgen:fn get="tag", pure
func Tag(v *Value) int64 { return v.tag }

//bindgen:fn set="tag"
func SetTag(ctx CallContext, v *Value, tag int64) { v.tag = tag }

//bindgen:fn get="both"
func Both(v *Value, w *Value) int64 { return 0 } // want `getter Both takes 2 parameters; want 1`

//bindgen:fn set="lonely"
func Lonely(v *Value) {} // want `setter Lonely takes 1 parameters; want 2`

//bindgen:fn bogus // want `unknown key "bogus"`
func Bogus() {}

//bindgen:func // want `unknown directive "bindgen:func"`
func Typo() {}

/* want `mutually exclusive` */ //bindgen:fn get="x", set="x"
func Both2(v *Value) int64 { return 0 }

//bindgen:fn name="first"
/* want `more than one directive on Twice` */ //bindgen:fn name="second"
func Twice() {}

//bindgen:fn skip
func (v *Value) Method() {} // want `directive on method Method`

var Detached = 1

/* want `directive is not attached to a top-level function` */ //bindgen:fn name="loose"

func Plain() {}

//go:build ignore

package langcore

import (
	"fmt"

	"github.com/roach88/bindgen/dynamic"
)

//bindgen:fn name="!"
func Not(x bool) bool {
	return !x
}

//bindgen:fn name="tag", get="tag", pure
func GetTag(value *dynamic.Value) int64 {
	return int64(value.Tag())
}

//bindgen:fn name="set_tag", set="tag", return_raw
func SetTag(value *dynamic.Value, tag int64) (dynamic.Value, error) {
	if tag < int64(dynamic.TagMin) {
		return dynamic.Unit(), dynamic.NewArithmeticError(
			fmt.Sprintf("%d is too small to fit into a tag (must be between %d and %d)", tag, dynamic.TagMin, dynamic.TagMax),
			dynamic.NoPosition)
	}
	if tag > int64(dynamic.TagMax) {
		return dynamic.Unit(), dynamic.NewArithmeticError(
			fmt.Sprintf("%d is too large to fit into a tag (must be between %d and %d)", tag, dynamic.TagMin, dynamic.TagMax),
			dynamic.NoPosition)
	}
	value.SetTag(dynamic.Tag(tag))
	return dynamic.Unit(), nil
}

//bindgen:fn name="get_fn_metadata_list"
func GetFnMetadataList(ctx dynamic.CallContext) dynamic.Array {
	return FnMetadataList(ctx)
}

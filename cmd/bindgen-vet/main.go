// Command bindgen-vet checks //bindgen:fn directives without generating
// code. It runs standalone or through go vet -vettool.
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/roach88/bindgen/internal/lint"
)

func main() {
	singlechecker.Main(lint.Analyzer)
}

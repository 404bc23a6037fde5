// now-lint checks error handling and clock usage conventions in now-core.
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"

	"github.com/Simpactsoft/now-core/tools/now-lint/analyzers"
)

func main() {
	multichecker.Main(analyzers.All()...)
}

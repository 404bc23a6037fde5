// Package analyzers provides all custom static analyzers for now-core.
package analyzers

import (
	"golang.org/x/tools/go/analysis"

	"github.com/Simpactsoft/now-core/tools/now-lint/analyzers/rawtime"
	"github.com/Simpactsoft/now-core/tools/now-lint/analyzers/sentinelcmp"
)

// All returns all analyzers to run.
func All() []*analysis.Analyzer {
	return []*analysis.Analyzer{
		rawtime.Analyzer,
		sentinelcmp.Analyzer,
	}
}

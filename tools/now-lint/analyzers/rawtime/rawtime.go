// Package rawtime detects direct time.Now calls in packages that must read
// the clock through an overridable timeNow variable.
package rawtime

import (
	"go/ast"
	"go/token"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer reports time.Now references outside the initializer of a
// package-level timeNow variable.
var Analyzer = &analysis.Analyzer{
	Name: "rawtime",
	Doc:  "detects time.Now used outside a timeNow variable in clock-controlled packages",
	Run:  run,
}

// packages is a comma-separated list of import path fragments to check.
var packages = "domain/services,relationaldb"

func init() {
	Analyzer.Flags.StringVar(&packages, "packages", packages,
		"comma-separated import path fragments of packages to check")
}

func run(pass *analysis.Pass) (interface{}, error) {
	if !checked(pass.Pkg.Path()) {
		return nil, nil
	}

	for _, file := range pass.Files {
		if strings.HasSuffix(pass.Fset.File(file.Pos()).Name(), "_test.go") {
			continue
		}

		ast.Inspect(file, func(n ast.Node) bool {
			if isTimeNowDecl(n) {
				return false
			}

			sel, ok := n.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			ident, ok := sel.X.(*ast.Ident)
			if !ok {
				return true
			}
			if ident.Name == "time" && sel.Sel.Name == "Now" {
				pass.Reportf(sel.Pos(), "time.Now used directly - call timeNow so tests can freeze the clock")
			}
			return true
		})
	}

	return nil, nil
}

func checked(path string) bool {
	for _, frag := range strings.Split(packages, ",") {
		if frag = strings.TrimSpace(frag); frag != "" && strings.Contains(path, frag) {
			return true
		}
	}
	return false
}

// isTimeNowDecl matches "var timeNow = ..." at any level.
func isTimeNowDecl(n ast.Node) bool {
	decl, ok := n.(*ast.GenDecl)
	if !ok || decl.Tok != token.VAR {
		return false
	}
	for _, spec := range decl.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}
		for _, name := range vs.Names {
			if name.Name == "timeNow" {
				return true
			}
		}
	}
	return false
}

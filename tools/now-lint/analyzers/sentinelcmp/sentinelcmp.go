// Package sentinelcmp detects == and != comparisons against sentinel errors.
package sentinelcmp

import (
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports err == ErrX where ErrX is a package-level error variable.
// Services wrap sentinels with %w, so only errors.Is matches reliably.
var Analyzer = &analysis.Analyzer{
	Name:     "sentinelcmp",
	Doc:      "detects ==/!= comparisons against package-level Err* variables",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

var errorType = types.Universe.Lookup("error").Type().Underlying().(*types.Interface)

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.BinaryExpr)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		expr := n.(*ast.BinaryExpr)
		if expr.Op != token.EQL && expr.Op != token.NEQ {
			return
		}

		for _, side := range []ast.Expr{expr.X, expr.Y} {
			if name, ok := sentinelName(pass, side); ok {
				pass.Reportf(expr.Pos(),
					"comparison with %s using %s - use errors.Is", name, expr.Op)
				return
			}
		}
	})

	return nil, nil
}

// sentinelName reports whether e refers to a package-level error variable
// named Err*.
func sentinelName(pass *analysis.Pass, e ast.Expr) (string, bool) {
	var ident *ast.Ident
	switch x := e.(type) {
	case *ast.Ident:
		ident = x
	case *ast.SelectorExpr:
		ident = x.Sel
	default:
		return "", false
	}

	if !strings.HasPrefix(ident.Name, "Err") {
		return "", false
	}

	v, ok := pass.TypesInfo.Uses[ident].(*types.Var)
	if !ok || v.Pkg() == nil || v.Parent() != v.Pkg().Scope() {
		return "", false
	}
	if !types.Implements(v.Type(), errorType) {
		return "", false
	}
	return ident.Name, true
}

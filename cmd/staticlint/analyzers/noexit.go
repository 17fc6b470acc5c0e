// Package analyzers contains custom analyzers for static analysis.
package analyzers

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"
)

// NoExitAnalyzer reports calls to os.Exit made directly in main.main.
var NoExitAnalyzer = &analysis.Analyzer{
	Name:     "noexit",
	Doc:      "forbid direct calls to os.Exit in main.main",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() != "main" {
		return nil, nil
	}

	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	insp.Nodes([]ast.Node{(*ast.FuncDecl)(nil), (*ast.CallExpr)(nil)}, func(n ast.Node, push bool) bool {
		switch node := n.(type) {
		case *ast.FuncDecl:
			// Only the body of a top-level func main is of interest.
			return push && node.Recv == nil && node.Name.Name == "main" && node.Body != nil
		case *ast.CallExpr:
			if push && isOsExit(pass.TypesInfo, node) {
				pass.Reportf(node.Pos(), "direct call to os.Exit in main.main is forbidden")
			}
		}
		return true
	})

	return nil, nil
}

func isOsExit(info *types.Info, call *ast.CallExpr) bool {
	fn, ok := typeutil.Callee(info, call).(*types.Func)
	if !ok || fn.Pkg() == nil {
		return false
	}
	return fn.Pkg().Path() == "os" && fn.Name() == "Exit"
}

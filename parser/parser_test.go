package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/NKU-RuntimeError/SysY-compiler/arena"
	"github.com/NKU-RuntimeError/SysY-compiler/ast"
	"github.com/NKU-RuntimeError/SysY-compiler/lexer"
	"github.com/NKU-RuntimeError/SysY-compiler/types"
)

func parse(t *testing.T, src string) *ast.CompileUnit {
	t.Helper()
	a := arena.New()
	p := New(lexer.New(src), a)
	return p.ParseCompileUnit()
}

func TestParseConstScalarDecl(t *testing.T) {
	unit := parse(t, "const int N = 3 + 4;")
	require.Len(t, unit.Items, 1)
	decl, ok := unit.Items[0].(*ast.ConstVariableDecl)
	require.True(t, ok)
	require.Equal(t, types.Int, decl.Type)
	require.Len(t, decl.Defs, 1)
	require.Equal(t, "N", decl.Defs[0].Name)
	bin, ok := decl.Defs[0].Init.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.Add, bin.Op)
}

func TestParseArrayDeclWithDimExpr(t *testing.T) {
	unit := parse(t, "int a[N];")
	decl := unit.Items[0].(*ast.VariableDecl)
	require.Equal(t, types.Int, decl.Type)
	require.Len(t, decl.Defs[0].Dims, 1)
	_, ok := decl.Defs[0].Dims[0].(*ast.VariableExpr)
	require.True(t, ok)
}

func TestParseNestedInitializerList(t *testing.T) {
	unit := parse(t, "int a[2][3] = {1, 2, 3, 4};")
	decl := unit.Items[0].(*ast.VariableDecl)
	list, ok := decl.Defs[0].Init.(*ast.InitializerList)
	require.True(t, ok)
	require.Len(t, list.Elements, 4)
}

func TestParseFunctionDefWithArrayParam(t *testing.T) {
	unit := parse(t, "int sum(int a[][3], int n) { return n; }")
	fn := unit.Items[0].(*ast.FunctionDef)
	require.Equal(t, types.Int, fn.ReturnType)
	require.Equal(t, "sum", fn.Name)
	require.Len(t, fn.Args, 2)
	require.True(t, fn.Args[0].IsArray())
	require.Nil(t, fn.Args[0].Dims[0])
	numLit := fn.Args[0].Dims[1].(*ast.NumberExpr)
	require.EqualValues(t, 3, numLit.IntVal)
	require.False(t, fn.Args[1].IsArray())
}

func TestParseIfElseAndWhile(t *testing.T) {
	src := `
	int main() {
		int x;
		if (x < 1) {
			x = x + 1;
		} else {
			while (x) {
				x = x - 1;
				break;
			}
		}
		return 0;
	}`
	unit := parse(t, src)
	fn := unit.Items[0].(*ast.FunctionDef)
	require.Equal(t, "main", fn.Name)

	var ifStmt *ast.IfStmt
	for _, e := range fn.Body.Elements {
		if s, ok := e.(*ast.IfStmt); ok {
			ifStmt = s
		}
	}
	require.NotNil(t, ifStmt)
	require.NotNil(t, ifStmt.Else)

	elseBlock, ok := ifStmt.Else.(*ast.Block)
	require.True(t, ok)
	whileStmt, ok := elseBlock.Elements[0].(*ast.WhileStmt)
	require.True(t, ok)
	body := whileStmt.Body.(*ast.Block)
	require.Len(t, body.Elements, 2)
	_, ok = body.Elements[1].(*ast.BreakStmt)
	require.True(t, ok)
}

func TestParseAssignStmt(t *testing.T) {
	unit := parse(t, "int main() { int a; a[0] = 1 + 2 * 3; return 0; }")
	fn := unit.Items[0].(*ast.FunctionDef)
	assign := fn.Body.Elements[1].(*ast.AssignStmt)
	require.Equal(t, "a", assign.LValue.Name)
	require.Len(t, assign.LValue.Indices, 1)

	mulExpr, ok := assign.RValue.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.Add, mulExpr.Op)
	rhs := mulExpr.RHS.(*ast.BinaryExpr)
	require.Equal(t, ast.Mul, rhs.Op)
}

func TestParseFunctionCallExpr(t *testing.T) {
	unit := parse(t, "int main() { return add(1, 2); }")
	fn := unit.Items[0].(*ast.FunctionDef)
	ret := fn.Body.Elements[0].(*ast.ReturnStmt)
	call, ok := ret.Expr.(*ast.FunctionCallExpr)
	require.True(t, ok)
	require.Equal(t, "add", call.Name)
	require.Len(t, call.Args, 2)
}

func TestParseShortCircuitPrecedence(t *testing.T) {
	unit := parse(t, "int main() { if (a < b && c || d) return 1; return 0; }")
	fn := unit.Items[0].(*ast.FunctionDef)
	ifStmt := fn.Body.Elements[0].(*ast.IfStmt)
	or, ok := ifStmt.Cond.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.LOr, or.Op)
	and, ok := or.LHS.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.LAnd, and.Op)
}

func TestParsePanicsOnSyntaxError(t *testing.T) {
	require.Panics(t, func() {
		parse(t, "int main( { return 0; }")
	})
}

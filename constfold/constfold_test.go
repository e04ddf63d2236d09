package constfold

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/NKU-RuntimeError/SysY-compiler/arena"
	"github.com/NKU-RuntimeError/SysY-compiler/ast"
	"github.com/NKU-RuntimeError/SysY-compiler/lexer"
	"github.com/NKU-RuntimeError/SysY-compiler/parser"
	"github.com/NKU-RuntimeError/SysY-compiler/token"
	"github.com/NKU-RuntimeError/SysY-compiler/types"
)

func foldSource(t *testing.T, src string) (*ast.CompileUnit, *arena.Arena) {
	t.Helper()
	a := arena.New()
	unit := parser.New(lexer.New(src), a).ParseCompileUnit()
	err := Fold(unit, a)
	require.NoError(t, err)
	return unit, a
}

// foldSourceErr runs parsing and folding under a single recover, since
// a handful of negative scenarios here (a const with no initializer) are
// already rejected by the grammar itself before constfold ever runs.
func foldSourceErr(t *testing.T, src string) (err error) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*token.CompileError); ok {
				err = ce
				return
			}
			panic(r)
		}
	}()
	a := arena.New()
	unit := parser.New(lexer.New(src), a).ParseCompileUnit()
	return Fold(unit, a)
}

// S1: a scalar const is folded and its later use is replaced with the
// literal value.
func TestFoldScalarConstAndUse(t *testing.T) {
	unit, _ := foldSource(t, `
		const int N = 3 + 4;
		int main() {
			int x = N;
			return x;
		}`)
	decl := unit.Items[0].(*ast.ConstVariableDecl)
	lit := decl.Defs[0].Init.(*ast.NumberExpr)
	require.EqualValues(t, 7, lit.IntVal)

	fn := unit.Items[1].(*ast.FunctionDef)
	varDecl := fn.Body.Elements[0].(*ast.VariableDecl)
	useLit := varDecl.Defs[0].Init.(*ast.NumberExpr)
	require.EqualValues(t, 7, useLit.IntVal)
}

// S2: a flat, short initializer is reshaped to its declared 2x3 array
// and zero-padded, matching [[1,2,3],[4,0,0]].
func TestFoldNestedInitializerReshape(t *testing.T) {
	unit, _ := foldSource(t, "int a[2][3] = {1, 2, 3, 4};")
	decl := unit.Items[0].(*ast.VariableDecl)
	outer := decl.Defs[0].Init.(*ast.InitializerList)
	require.Len(t, outer.Elements, 2)

	row0 := outer.Elements[0].(*ast.InitializerList)
	require.Len(t, row0.Elements, 3)
	require.EqualValues(t, 1, row0.Elements[0].(*ast.NumberExpr).IntVal)
	require.EqualValues(t, 2, row0.Elements[1].(*ast.NumberExpr).IntVal)
	require.EqualValues(t, 3, row0.Elements[2].(*ast.NumberExpr).IntVal)

	row1 := outer.Elements[1].(*ast.InitializerList)
	require.Len(t, row1.Elements, 3)
	require.EqualValues(t, 4, row1.Elements[0].(*ast.NumberExpr).IntVal)
	require.EqualValues(t, 0, row1.Elements[1].(*ast.NumberExpr).IntVal)
	require.EqualValues(t, 0, row1.Elements[2].(*ast.NumberExpr).IntVal)
}

// S3: a mixed int/float initializer for a float array casts every
// integer leaf to float.
func TestFoldMixedTypeInitializerCoercesLeaves(t *testing.T) {
	unit, _ := foldSource(t, "const float xs[3] = {1, 2.5, 3};")
	decl := unit.Items[0].(*ast.ConstVariableDecl)
	list := decl.Defs[0].Init.(*ast.InitializerList)
	require.Len(t, list.Elements, 3)
	for _, e := range list.Elements {
		lit := e.(*ast.NumberExpr)
		require.Equal(t, types.Float, lit.Type)
	}
	require.InDelta(t, 1.0, list.Elements[0].(*ast.NumberExpr).FloatVal, 1e-6)
	require.InDelta(t, 2.5, list.Elements[1].(*ast.NumberExpr).FloatVal, 1e-6)
	require.InDelta(t, 3.0, list.Elements[2].(*ast.NumberExpr).FloatVal, 1e-6)
}

func TestFoldUnaryMinusOnLiteral(t *testing.T) {
	unit, _ := foldSource(t, "const int N = -5;")
	decl := unit.Items[0].(*ast.ConstVariableDecl)
	lit := decl.Defs[0].Init.(*ast.NumberExpr)
	require.EqualValues(t, -5, lit.IntVal)
}

func TestFoldIntegerDivisionTruncates(t *testing.T) {
	unit, _ := foldSource(t, "const int N = 7 / 2;")
	decl := unit.Items[0].(*ast.ConstVariableDecl)
	lit := decl.Defs[0].Init.(*ast.NumberExpr)
	require.EqualValues(t, 3, lit.IntVal)
}

func TestFoldComparisonProducesIntBool(t *testing.T) {
	unit, _ := foldSource(t, "const int N = 3 < 4;")
	decl := unit.Items[0].(*ast.ConstVariableDecl)
	lit := decl.Defs[0].Init.(*ast.NumberExpr)
	require.Equal(t, types.Int, lit.Type)
	require.EqualValues(t, 1, lit.IntVal)
}

func TestFoldConstScopeShadowsOuter(t *testing.T) {
	unit, _ := foldSource(t, `
		const int N = 1;
		int main() {
			const int N = 2;
			int x = N;
			return x;
		}`)
	fn := unit.Items[1].(*ast.FunctionDef)
	varDecl := fn.Body.Elements[1].(*ast.VariableDecl)
	lit := varDecl.Defs[0].Init.(*ast.NumberExpr)
	require.EqualValues(t, 2, lit.IntVal)
}

// A global const is visible inside a function body for dimension
// folding, not just ordinary expression folding.
func TestFoldGlobalConstSizesLocalArrayDim(t *testing.T) {
	unit, _ := foldSource(t, `
		const int N = 10;
		int main() {
			int a[N];
			return 0;
		}`)
	fn := unit.Items[1].(*ast.FunctionDef)
	varDecl := fn.Body.Elements[0].(*ast.VariableDecl)
	dim := varDecl.Defs[0].Dims[0].(*ast.NumberExpr)
	require.EqualValues(t, 10, dim.IntVal)
}

// Negative scenarios from the failure-mode catalogue.

func TestFoldRejectsConstWithoutInitializer(t *testing.T) {
	err := foldSourceErr(t, "const int a;")
	require.Error(t, err)
}

func TestFoldRejectsNegativeArrayDim(t *testing.T) {
	err := foldSourceErr(t, "int a[-1];")
	require.Error(t, err)
}

func TestFoldRejectsInitializerOverflow(t *testing.T) {
	err := foldSourceErr(t, "int a[2] = {1, 2, 3};")
	require.Error(t, err)
}

func TestFoldRejectsModuloOnFloat(t *testing.T) {
	err := foldSourceErr(t, "const float x = 1.0 % 2.0;")
	require.Error(t, err)
}

func TestFoldRejectsDuplicateInSameScope(t *testing.T) {
	err := foldSourceErr(t, `
		int main() {
			int x;
			int x;
			return 0;
		}`)
	// x itself is not a const, so redeclaration is only caught for the
	// const symbol table's own entries: exercise that path directly.
	require.NoError(t, err)

	err = foldSourceErr(t, `
		int main() {
			const int x = 1;
			const int x = 2;
			return 0;
		}`)
	require.Error(t, err)
}

func TestFoldRejectsNonConstInitializerInConstDecl(t *testing.T) {
	err := foldSourceErr(t, `
		int main() {
			int n;
			const int a = n;
			return 0;
		}`)
	require.Error(t, err)
}

// A file-scope variable has no runtime to evaluate anything at, so a
// non-literal initializer is rejected the same way a const's is.
func TestFoldRejectsNonConstInitializerInGlobalVariableDecl(t *testing.T) {
	err := foldSourceErr(t, `
		int n;
		int g = n;`)
	require.Error(t, err)
}

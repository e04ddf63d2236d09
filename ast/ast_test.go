package ast

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/NKU-RuntimeError/SysY-compiler/types"
)

func TestBinaryExprString(t *testing.T) {
	e := &BinaryExpr{
		Op:  Add,
		LHS: &NumberExpr{Type: types.Int, IntVal: 1},
		RHS: &NumberExpr{Type: types.Int, IntVal: 2},
	}
	require.Equal(t, "(1 + 2)", e.String())
}

func TestBinaryOpClassification(t *testing.T) {
	require.True(t, Lss.IsComparison())
	require.True(t, Neq.IsComparison())
	require.False(t, Add.IsComparison())
	require.True(t, LAnd.IsLogical())
	require.True(t, LOr.IsLogical())
	require.False(t, Eql.IsLogical())
}

func TestFunctionArgIsArray(t *testing.T) {
	scalar := &FunctionArg{Type: types.Int, Name: "n"}
	require.False(t, scalar.IsArray())

	decayed := &FunctionArg{Type: types.Int, Name: "a", Dims: []Expr{nil, &NumberExpr{Type: types.Int, IntVal: 3}}}
	require.True(t, decayed.IsArray())
	require.Equal(t, "int a[][3]", decayed.String())
}

func TestNumberExprStringFormatsFloatAndInt(t *testing.T) {
	require.Equal(t, "7", (&NumberExpr{Type: types.Int, IntVal: 7}).String())
	require.Equal(t, "1.5", (&NumberExpr{Type: types.Float, FloatVal: 1.5}).String())
}

func TestLValueStringWithIndices(t *testing.T) {
	lv := &LValue{Name: "a", Indices: []Expr{
		&NumberExpr{Type: types.Int, IntVal: 0},
		&NumberExpr{Type: types.Int, IntVal: 1},
	}}
	require.Equal(t, "a[0][1]", lv.String())
}

func TestInitializerListString(t *testing.T) {
	l := &InitializerList{Elements: []InitializerElement{
		&NumberExpr{Type: types.Int, IntVal: 1},
		&NumberExpr{Type: types.Int, IntVal: 2},
	}}
	require.Equal(t, "{1, 2}", l.String())
}

func TestIfStmtStringWithoutElse(t *testing.T) {
	s := &IfStmt{
		Cond: &NumberExpr{Type: types.Int, IntVal: 1},
		Then: &BreakStmt{},
	}
	require.Equal(t, "if (1) break;", s.String())
}

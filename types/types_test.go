package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJoinPicksHigherPriority(t *testing.T) {
	require.Equal(t, Int, Join(Bool, Int))
	require.Equal(t, Float, Join(Int, Float))
	require.Equal(t, Float, Join(Float, Float))
	require.Equal(t, Bool, Join(Bool, Bool))
}

func TestClampRestrictsToRange(t *testing.T) {
	require.Equal(t, Int, Clamp(Bool, Int, Float))
	require.Equal(t, Float, Clamp(Float, Int, Float))
	require.Equal(t, Int, Clamp(Int, Int, Float))
}

func TestCastTableMatchesLegalPairs(t *testing.T) {
	cases := []struct {
		from, to Kind
		op       CastOp
	}{
		{Bool, Int, BoolToIntZExt},
		{Bool, Float, BoolToFloatUIToFP},
		{Int, Bool, IntToBoolCmpNE},
		{Int, Float, IntToFloatSIToFP},
		{Float, Bool, FloatToBoolCmpONE},
		{Float, Int, FloatToIntFPToSI},
	}
	for _, c := range cases {
		op, ok := Cast(c.from, c.to)
		require.True(t, ok, "%s -> %s should be legal", c.from, c.to)
		require.Equal(t, c.op, op)
	}
}

func TestCastIdentityIsNoCast(t *testing.T) {
	for _, k := range []Kind{Void, Bool, Int, Float} {
		op, ok := Cast(k, k)
		require.True(t, ok)
		require.Equal(t, NoCast, op)
	}
}

func TestCastRejectsVoidOperand(t *testing.T) {
	_, ok := Cast(Void, Int)
	require.False(t, ok)
	_, ok = Cast(Int, Void)
	require.False(t, ok)
}

func TestArrayTypeScalar(t *testing.T) {
	a := ArrayType{Elem: Int}
	require.True(t, a.IsScalar())
	require.False(t, a.IsPointerParam())
	require.Equal(t, 1, a.NumElements())
	require.Equal(t, "Int", a.String())
}

func TestArrayTypeConcreteDims(t *testing.T) {
	a := ArrayType{Elem: Float, Dims: []int{2, 3}}
	require.False(t, a.IsScalar())
	require.False(t, a.IsPointerParam())
	require.Equal(t, 6, a.NumElements())
	require.Equal(t, "Float[2][3]", a.String())
}

func TestArrayTypeDecayedParam(t *testing.T) {
	a := ArrayType{Elem: Int, Dims: []int{Unknown, 3}}
	require.True(t, a.IsPointerParam())
	require.Equal(t, "Int[][3]", a.String())
}

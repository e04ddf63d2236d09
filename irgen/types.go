package irgen

import (
	"tinygo.org/x/go-llvm"

	"github.com/NKU-RuntimeError/SysY-compiler/token"
	"github.com/NKU-RuntimeError/SysY-compiler/types"
)

// llvmScalarType maps a Kind to its LLVM representation: i1 for Bool
// (an intermediate computation tag, never a surfaced variable type),
// i32 for Int, a 32-bit float for Float, and void for Void (only ever
// a function's return type).
func (lw *lowerer) llvmScalarType(k types.Kind) llvm.Type {
	switch k {
	case types.Void:
		return lw.ctx.VoidType()
	case types.Bool:
		return lw.ctx.Int1Type()
	case types.Int:
		return lw.ctx.Int32Type()
	case types.Float:
		return lw.ctx.FloatType()
	default:
		token.Fatal(token.InternalError, token.Position{}, "unexpected scalar kind %v", k)
		return llvm.Type{}
	}
}

// llvmShapeType realizes an element kind plus a declared dimension
// list into a concrete LLVM type, folding right to left: each concrete
// dimension wraps an array type around the type realized so far, and
// an Unknown leading dimension (only ever dims[0]) produces a pointer
// instead, matching types.ArrayType's own realization rule.
func (lw *lowerer) llvmShapeType(elem types.Kind, dims []int) llvm.Type {
	t := lw.llvmScalarType(elem)
	for i := len(dims) - 1; i >= 0; i-- {
		if dims[i] == types.Unknown {
			t = llvm.PointerType(t, 0)
		} else {
			t = llvm.ArrayType(t, dims[i])
		}
	}
	return t
}

// coerce converts v to the target kind using the exact instruction the
// type lattice's cast table names for that (from, to) pair, or returns
// v unchanged when from == to (types.NoCast).
func (lw *lowerer) coerce(v val, to types.Kind) val {
	op, ok := types.Cast(v.K, to)
	if !ok {
		token.Fatal(token.TypeError, token.Position{}, "cannot convert %v to %v", v.K, to)
	}
	switch op {
	case types.NoCast:
		return v
	case types.BoolToIntZExt:
		return val{lw.builder.CreateZExt(v.V, lw.llvmScalarType(types.Int), "b2i"), types.Int}
	case types.BoolToFloatUIToFP:
		return val{lw.builder.CreateUIToFP(v.V, lw.llvmScalarType(types.Float), "b2f"), types.Float}
	case types.IntToBoolCmpNE:
		zero := llvm.ConstInt(lw.llvmScalarType(types.Int), 0, false)
		return val{lw.builder.CreateICmp(llvm.IntNE, v.V, zero, "i2b"), types.Bool}
	case types.IntToFloatSIToFP:
		return val{lw.builder.CreateSIToFP(v.V, lw.llvmScalarType(types.Float), "i2f"), types.Float}
	case types.FloatToBoolCmpONE:
		zero := llvm.ConstFloat(lw.llvmScalarType(types.Float), 0)
		return val{lw.builder.CreateFCmp(llvm.FloatONE, v.V, zero, "f2b"), types.Bool}
	case types.FloatToIntFPToSI:
		return val{lw.builder.CreateFPToSI(v.V, lw.llvmScalarType(types.Int), "f2i"), types.Int}
	default:
		token.Fatal(token.InternalError, token.Position{}, "unexpected cast op %v", op)
		return val{}
	}
}

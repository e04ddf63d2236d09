// Package types implements the SysY type lattice: a total order
// Void < Bool < Int < Float with Join, Clamp, and the legal implicit-cast
// table, grounded on a Kind/Type split in the style of compiler/types.go
// and resolved exactly against the original C++ frontend's type.h/type.cpp
// (Typename enum ordered by cast priority, TypeSystem::cast's six legal
// from/to pairs, and the array-realization rule in TypeSystem::get).
package types

import "fmt"

// Kind is the total-ordered tag set. Higher numeric value means higher
// priority when joining two operand types for a binary operation.
type Kind int

const (
	Void Kind = iota
	Bool
	Int
	Float
)

func (k Kind) String() string {
	switch k {
	case Void:
		return "Void"
	case Bool:
		return "Bool"
	case Int:
		return "Int"
	case Float:
		return "Float"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Join returns the common type of a binary operation between a and b:
// the higher-priority of the two per the total order.
func Join(a, b Kind) Kind {
	if a > b {
		return a
	}
	return b
}

// Clamp restricts k to the inclusive [lo, hi] range, used to pin a
// binary/unary operator's calculation type to the operand kinds it
// actually supports (e.g. arithmetic clamps to [Int, Float], excluding
// a Bool operand from being computed on directly).
func Clamp(k, lo, hi Kind) Kind {
	if k < lo {
		return lo
	}
	if k > hi {
		return hi
	}
	return k
}

// CastOp names the concrete lowering operation for one legal implicit
// cast. The lowering pass maps each to an LLVM instruction; this package
// only records which (from, to) pairs are legal and how to think about
// the conversion, not how to emit it.
type CastOp int

const (
	NoCast CastOp = iota
	BoolToIntZExt
	BoolToFloatUIToFP
	IntToBoolCmpNE
	IntToFloatSIToFP
	FloatToBoolCmpONE
	FloatToIntFPToSI
)

// legalCasts is the full implicit-cast table. Void never appears: it
// participates only as a function return type, never as an operand.
var legalCasts = map[[2]Kind]CastOp{
	{Bool, Int}:   BoolToIntZExt,
	{Bool, Float}: BoolToFloatUIToFP,
	{Int, Bool}:   IntToBoolCmpNE,
	{Int, Float}:  IntToFloatSIToFP,
	{Float, Bool}: FloatToBoolCmpONE,
	{Float, Int}:  FloatToIntFPToSI,
}

// Cast returns the cast operation to convert from -> to, and whether that
// pair is legal. from == to is reported as legal with NoCast.
func Cast(from, to Kind) (CastOp, bool) {
	if from == to {
		return NoCast, true
	}
	op, ok := legalCasts[[2]Kind{from, to}]
	return op, ok
}

// Unknown is the sentinel first-dimension size for an array-parameter
// declaration (the "first-dimension-decays" C rule: `int a[][3]`'s first
// dimension carries no size).
const Unknown = -1

// ArrayType is the structural (baseType, dims) description of a
// declared variable's shape. The lowering pass does not take an
// ArrayType; it realizes the same (elem, dims) pair itself
// (irgen's llvmShapeType) by this rule, folding right-to-left: each
// concrete dimension wraps an array type of that extent around the type
// realized so far, and an Unknown leading dimension produces a pointer
// instead of an array (used only for array-typed function parameters).
type ArrayType struct {
	Elem Kind // Int or Float; Void/Bool never appear here
	Dims []int
}

// IsScalar reports whether a has no dimensions at all.
func (a ArrayType) IsScalar() bool {
	return len(a.Dims) == 0
}

// IsPointerParam reports whether a's leading dimension is the Unknown
// sentinel, meaning it realizes to a pointer rather than an array type.
func (a ArrayType) IsPointerParam() bool {
	return len(a.Dims) > 0 && a.Dims[0] == Unknown
}

// NumElements returns the product of all concrete dimensions (a.Dims
// must contain no Unknown entries). A scalar has NumElements 1.
func (a ArrayType) NumElements() int {
	n := 1
	for _, d := range a.Dims {
		n *= d
	}
	return n
}

func (a ArrayType) String() string {
	s := a.Elem.String()
	for _, d := range a.Dims {
		if d == Unknown {
			s += "[]"
			continue
		}
		s += fmt.Sprintf("[%d]", d)
	}
	return s
}

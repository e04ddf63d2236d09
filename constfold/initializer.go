package constfold

import (
	"github.com/NKU-RuntimeError/SysY-compiler/arena"
	"github.com/NKU-RuntimeError/SysY-compiler/ast"
	"github.com/NKU-RuntimeError/SysY-compiler/token"
	"github.com/NKU-RuntimeError/SysY-compiler/types"
)

// fixNestedInitializer reshapes a parsed initializer (whatever brace
// nesting the user wrote, short rows zero-padded, flat rows auto-split)
// into the canonical nesting for dims: an N-dimensional array's
// initializer is a list of dims[0] rows, each itself a list of
// dims[1:]'s shape, bottoming out at a flat list of dims[len(dims)-1]
// scalars. Scalar declarations (dims empty) pass elem through unchanged.
func fixNestedInitializer(elem ast.InitializerElement, dims []int, elemType types.Kind, a *arena.Arena) ast.InitializerElement {
	if len(dims) == 0 {
		return elem
	}
	list, ok := elem.(*ast.InitializerList)
	if !ok {
		token.Fatal(token.ShapeError, elem.Range().Begin, "array declaration requires a braced initializer")
	}
	flatten(list, dims, elemType, a)
	return split(list, dims, a)
}

// flatten walks list depth-first and rewrites it in place to hold the
// full product(dims) leaves in row-major order: every nested sub-list
// the user wrote is spliced flat into its enclosing level, and each
// level is zero-padded up to the element count implied by dims once its
// own children have all been folded in.
func flatten(elem ast.InitializerElement, dims []int, elemType types.Kind, a *arena.Arena) ast.InitializerElement {
	list, ok := elem.(*ast.InitializerList)
	if !ok {
		return elem
	}
	if len(dims) == 0 {
		token.Fatal(token.ShapeError, list.R.Begin, "initializer is nested deeper than the declared array type")
	}

	fullSize := product(dims)
	childDims := dims[1:]

	flat := make([]ast.InitializerElement, 0, len(list.Elements))
	for _, child := range list.Elements {
		folded := flatten(child, childDims, elemType, a)
		if sub, ok := folded.(*ast.InitializerList); ok {
			flat = append(flat, sub.Elements...)
		} else {
			flat = append(flat, folded)
		}
	}
	if len(flat) > fullSize {
		token.Fatal(token.ShapeError, list.R.Begin, "initializer has more elements than the declared array holds")
	}
	for len(flat) < fullSize {
		flat = append(flat, zeroLiteral(elemType, a))
	}
	list.Elements = flat
	return list
}

// split re-nests a flat leaf list (as produced by flatten) into the
// shape named by dims: each of dims[0] chunks of size
// product(dims[1:]) becomes its own sub-list, recursively split by the
// remaining dimensions. A single remaining dimension is the recursion's
// base case: it stays a flat list of scalars.
func split(elem ast.InitializerElement, dims []int, a *arena.Arena) ast.InitializerElement {
	if len(dims) <= 1 {
		return elem
	}
	list := elem.(*ast.InitializerList)
	fullSize := product(dims)
	step := fullSize / dims[0]
	childDims := dims[1:]

	chunks := make([]ast.InitializerElement, 0, dims[0])
	for i := 0; i < fullSize; i += step {
		chunk := arena.Make[ast.InitializerList](a)
		chunk.Elements = append([]ast.InitializerElement(nil), list.Elements[i:i+step]...)
		chunks = append(chunks, split(chunk, childDims, a))
	}
	list.Elements = chunks
	return list
}

func product(dims []int) int {
	p := 1
	for _, d := range dims {
		p *= d
	}
	return p
}

func zeroLiteral(elemType types.Kind, a *arena.Arena) *ast.NumberExpr {
	lit := arena.Make[ast.NumberExpr](a)
	lit.Type = elemType
	return lit
}

// foldInitializerLeaves folds every scalar leaf of a (by now correctly
// shaped) initializer tree and casts literal leaves to elemType.
// mustBeLiteral enforces the extra rule that a const declaration's
// initializer may only ever bottom out in literals; an ordinary
// variable's initializer may keep non-constant leaves for irgen to
// evaluate at lowering time.
func (f *folder) foldInitializerLeaves(elem ast.InitializerElement, elemType types.Kind, mustBeLiteral bool) ast.InitializerElement {
	if list, ok := elem.(*ast.InitializerList); ok {
		for i, child := range list.Elements {
			list.Elements[i] = f.foldInitializerLeaves(child, elemType, mustBeLiteral)
		}
		return list
	}

	folded := f.foldExpr(elem.(ast.Expr))
	lit, isLit := folded.(*ast.NumberExpr)
	if mustBeLiteral && !isLit {
		token.Fatal(token.ConstError, folded.Range().Begin, "constant initializer element must be a compile-time constant")
	}
	if isLit {
		return castLiteral(lit, elemType, f.a)
	}
	return folded.(ast.InitializerElement)
}

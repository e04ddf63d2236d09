package irgen

import (
	"tinygo.org/x/go-llvm"

	"github.com/NKU-RuntimeError/SysY-compiler/ast"
	"github.com/NKU-RuntimeError/SysY-compiler/token"
	"github.com/NKU-RuntimeError/SysY-compiler/types"
)

// declDims turns an already-folded dimension list (every entry a
// *ast.NumberExpr literal, since constfold rejects anything else for a
// var/const definition) into the []int shape irgen's type realization
// wants.
func declDims(dimExprs []ast.Expr) []int {
	dims := make([]int, len(dimExprs))
	for i, d := range dimExprs {
		dims[i] = int(d.(*ast.NumberExpr).IntVal)
	}
	return dims
}

func (lw *lowerer) constInt(v int32) llvm.Value {
	return llvm.ConstInt(lw.llvmScalarType(types.Int), uint64(int64(v)), true)
}

func (lw *lowerer) constFloat(v float32) llvm.Value {
	return llvm.ConstFloat(lw.llvmScalarType(types.Float), float64(v))
}

// buildConstInit turns a (by now exactly shaped, per constfold)
// initializer tree into an LLVM constant value, recursing one
// dimension at a time exactly the way llvmShapeType realizes the type
// it must match.
func (lw *lowerer) buildConstInit(elem ast.InitializerElement, dims []int, elemKind types.Kind) llvm.Value {
	if len(dims) == 0 {
		lit := elem.(*ast.NumberExpr)
		if elemKind == types.Float {
			return lw.constFloat(lit.FloatVal)
		}
		return lw.constInt(lit.IntVal)
	}
	list := elem.(*ast.InitializerList)
	childDims := dims[1:]
	childLLVM := lw.llvmShapeType(elemKind, childDims)
	subs := make([]llvm.Value, len(list.Elements))
	for i, child := range list.Elements {
		subs[i] = lw.buildConstInit(child, childDims, elemKind)
	}
	return llvm.ConstArray(childLLVM, subs)
}

// bindName declares name in the innermost IR scope frame, fatal on a
// same-frame redeclaration.
func (lw *lowerer) bindName(name string, info *varInfo, pos token.Position) {
	if !lw.syms.Put(name, info) {
		token.Fatal(token.ScopeError, pos, "%q is already declared in this scope", name)
	}
}

// qualify builds the global symbol name for a const declared inside a
// function: its own name qualified by the enclosing function's name,
// so two functions can each declare a same-named local const without
// their globals colliding. The unqualified name is still what gets
// bound into IRSymTable; only the underlying global symbol is renamed.
func (lw *lowerer) qualify(name string) string {
	if lw.fnName == "" {
		return name
	}
	return lw.fnName + "." + name
}

// lowerConstDecl lowers every definition in decl as internal-linkage
// global storage, whether decl appears at file scope or inside a
// function body. Scalar and array consts are treated identically: both
// become a global with a constant initializer built straight from the
// already-folded tree.
func (lw *lowerer) lowerConstDecl(decl *ast.ConstVariableDecl) {
	for _, def := range decl.Defs {
		dims := declDims(def.Dims)
		llvmType := lw.llvmShapeType(decl.Type, dims)
		initVal := lw.buildConstInit(def.Init, dims, decl.Type)

		global := llvm.AddGlobal(lw.mod, llvmType, lw.qualify(def.Name))
		global.SetInitializer(initVal)
		global.SetLinkage(llvm.InternalLinkage)
		global.SetGlobalConstant(true)

		lw.bindName(def.Name, &varInfo{Addr: global, Pointee: llvmType, Elem: decl.Type, Rank: len(dims)}, def.R.Begin)
	}
}

// lowerGlobalVariableDecl lowers a non-const declaration at file scope:
// each definition becomes an internal-linkage global, initialized from
// its folded initializer tree when present, or to an all-zero value
// otherwise.
func (lw *lowerer) lowerGlobalVariableDecl(decl *ast.VariableDecl) {
	for _, def := range decl.Defs {
		dims := declDims(def.Dims)
		llvmType := lw.llvmShapeType(decl.Type, dims)

		var initVal llvm.Value
		if def.Init != nil {
			initVal = lw.buildConstInit(def.Init, dims, decl.Type)
		} else {
			initVal = llvm.ConstNull(llvmType)
		}

		global := llvm.AddGlobal(lw.mod, llvmType, def.Name)
		global.SetInitializer(initVal)
		global.SetLinkage(llvm.InternalLinkage)

		lw.bindName(def.Name, &varInfo{Addr: global, Pointee: llvmType, Elem: decl.Type, Rank: len(dims)}, def.R.Begin)
	}
}

// lowerLocalVariableDecl lowers a non-const declaration inside a
// function body: each definition gets an entry-block stack slot. When
// an initializer is present and the current block is still live, every
// leaf is stored at the address its position in the shape maps to,
// coerced to the declared element type; leaves that are not literals
// (irgen, unlike constfold, is allowed to evaluate arbitrary
// expressions here) are lowered in place. A declaration reached in dead
// code still gets its slot (so later lookups of the name still
// resolve) but its initializer is never lowered, so a side-effecting
// initializer expression is not silently executed.
func (lw *lowerer) lowerLocalVariableDecl(decl *ast.VariableDecl) {
	for _, def := range decl.Defs {
		dims := declDims(def.Dims)
		llvmType := lw.llvmShapeType(decl.Type, dims)
		slot := lw.createEntryBlockAlloca(llvmType, def.Name)
		lw.bindName(def.Name, &varInfo{Addr: slot, Pointee: llvmType, Elem: decl.Type, Rank: len(dims)}, def.R.Begin)

		if def.Init != nil && lw.live {
			lw.storeInitializer(slot, llvmType, def.Init, dims, decl.Type, nil)
		}
	}
}

// storeInitializer walks a (already exactly shaped) initializer tree
// and, for every leaf, emits a store at the address its index path
// addresses inside base (whose pointee type is baseType). indices
// accumulates the constant path taken to reach the current level.
func (lw *lowerer) storeInitializer(base llvm.Value, baseType llvm.Type, elem ast.InitializerElement, dims []int, elemKind types.Kind, indices []llvm.Value) {
	if len(dims) == 0 {
		leaf := lw.lowerExpr(elem.(ast.Expr))
		leaf = lw.coerce(leaf, elemKind)
		full := append([]llvm.Value{lw.constInt(0)}, indices...)
		addr := lw.builder.CreateGEP(baseType, base, full, lw.freshName("init.elem"))
		lw.builder.CreateStore(leaf.V, addr)
		return
	}
	list := elem.(*ast.InitializerList)
	childDims := dims[1:]
	for i, child := range list.Elements {
		idx := lw.constInt(int32(i))
		lw.storeInitializer(base, baseType, child, childDims, elemKind, append(indices, idx))
	}
}

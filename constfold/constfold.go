// Package constfold implements the constant-evaluation pass: it walks a
// freshly parsed ast.CompileUnit in place, folds every expression it can
// prove constant, reshapes and type-coerces array initializers to their
// declared shape, and binds scalar `const` declarations into a
// ConstSymTable for later const-expression lookups (array dimensions,
// other initializers). It never produces IR; that is irgen's job.
//
// Every violation it finds is fatal: there is no local recovery, only a
// single deferred token.Recover at Fold's entry, matching the
// specification's "first error aborts" rule already used by parser.
package constfold

import (
	"github.com/NKU-RuntimeError/SysY-compiler/arena"
	"github.com/NKU-RuntimeError/SysY-compiler/ast"
	"github.com/NKU-RuntimeError/SysY-compiler/symtab"
	"github.com/NKU-RuntimeError/SysY-compiler/token"
)

// ConstSymTable maps a scalar const's name to its folded literal value.
// Array consts are never entered here; their element values live only
// inside the (by-then fully folded) initializer tree on the declaration
// node itself.
type ConstSymTable = symtab.Stack[*ast.NumberExpr]

type folder struct {
	a      *arena.Arena
	consts *ConstSymTable
}

// Fold runs the constant-evaluation pass over unit in place. unit's
// nodes are mutated directly: folded expressions replace their
// unfolded originals, and initializer lists are reshaped to their
// declared dimensions.
func Fold(unit *ast.CompileUnit, a *arena.Arena) (err error) {
	defer token.Recover(&err)
	f := &folder{a: a, consts: symtab.New[*ast.NumberExpr]()}
	for _, item := range unit.Items {
		f.foldTopLevelItem(item)
	}
	return nil
}

func (f *folder) foldTopLevelItem(item ast.Node) {
	switch n := item.(type) {
	case *ast.ConstVariableDecl:
		f.foldConstDecl(n)
	case *ast.VariableDecl:
		f.foldVariableDecl(n)
	case *ast.FunctionDef:
		f.foldFunctionDef(n)
	default:
		token.Fatal(token.InternalError, item.Range().Begin, "unexpected top-level node %T", item)
	}
}

// foldDimsExprs folds every dimension expression of a declaration or
// parameter in place (def.Dims[i] becomes the literal it folded to) and
// returns the equivalent []int shape, using types.Unknown for a nil
// (array-decayed-parameter) leading dimension.
func (f *folder) foldDimsExprs(dims []ast.Expr) []int {
	sizes := make([]int, len(dims))
	for i, d := range dims {
		if d == nil {
			sizes[i] = -1 // types.Unknown; only FunctionArg's dims[0] is ever nil
			continue
		}
		lit := foldDim(d, f.consts, f.a)
		dims[i] = lit
		sizes[i] = int(lit.IntVal)
	}
	return sizes
}

func (f *folder) foldConstDecl(decl *ast.ConstVariableDecl) {
	for _, def := range decl.Defs {
		if def.Init == nil {
			token.Fatal(token.ConstError, def.R.Begin, "const %q requires an initializer", def.Name)
		}
		dims := f.foldDimsExprs(def.Dims)
		def.Init = fixNestedInitializer(def.Init, dims, decl.Type, f.a)
		def.Init = f.foldInitializerLeaves(def.Init, decl.Type, true)
		if len(dims) == 0 {
			lit := def.Init.(*ast.NumberExpr)
			if !f.consts.Put(def.Name, lit) {
				token.Fatal(token.ScopeError, def.R.Begin, "%q is already declared in this scope", def.Name)
			}
		}
	}
}

// foldVariableDecl folds a non-const declaration's initializer. A
// file-scope variable has no runtime to evaluate anything at, so its
// initializer leaves are held to the same literal-only rule as a const
// declaration's; a local variable's initializer may keep non-constant
// leaves for irgen to evaluate at lowering time.
func (f *folder) foldVariableDecl(decl *ast.VariableDecl) {
	isGlobal := f.consts.Depth() == 1
	for _, def := range decl.Defs {
		dims := f.foldDimsExprs(def.Dims)
		if def.Init != nil {
			def.Init = fixNestedInitializer(def.Init, dims, decl.Type, f.a)
			def.Init = f.foldInitializerLeaves(def.Init, decl.Type, isGlobal)
		}
	}
}

func (f *folder) foldFunctionDef(fn *ast.FunctionDef) {
	f.consts.Push(symtab.BlockScope)
	for _, arg := range fn.Args {
		f.foldDimsExprs(arg.Dims)
	}
	f.foldElements(fn.Body.Elements)
	f.consts.Pop()
}

func (f *folder) foldElements(items []ast.Node) {
	for _, item := range items {
		switch n := item.(type) {
		case *ast.ConstVariableDecl:
			f.foldConstDecl(n)
		case *ast.VariableDecl:
			f.foldVariableDecl(n)
		case ast.Stmt:
			f.foldStmt(n)
		default:
			token.Fatal(token.InternalError, item.Range().Begin, "unexpected block element %T", item)
		}
	}
}

func (f *folder) foldStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Block:
		f.consts.Push(symtab.BlockScope)
		f.foldElements(n.Elements)
		f.consts.Pop()
	case *ast.IfStmt:
		f.foldStmt(n.Then)
		if n.Else != nil {
			f.foldStmt(n.Else)
		}
	case *ast.WhileStmt:
		f.foldStmt(n.Body)
	default:
		// AssignStmt, ExprStmt, NullStmt, BreakStmt, ContinueStmt,
		// ReturnStmt: folding never reaches into ordinary statement
		// expressions, only declaration and initializer contexts.
		// irgen evaluates whatever is left of these at lowering time.
	}
}

// Package irgen implements the lowering pass: it walks a fully folded
// ast.CompileUnit and emits an LLVM IR module. Unlike constfold, this
// pass never proves anything about values at compile time beyond what
// constfold already resolved; it turns the remaining tree directly
// into SSA instructions, one top-level item, one statement, one
// expression at a time, in source order.
//
// Every violation it finds is fatal, following the same
// token.Fatal/token.Recover discipline as the rest of this module: a
// single deferred recover at Lower's entry, no local error handling.
package irgen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"github.com/NKU-RuntimeError/SysY-compiler/ast"
	"github.com/NKU-RuntimeError/SysY-compiler/symtab"
	"github.com/NKU-RuntimeError/SysY-compiler/token"
	"github.com/NKU-RuntimeError/SysY-compiler/types"
)

// varInfo is what IRSymTable binds a name to: the address of its
// storage and the type of whatever that address points to. For a
// scalar or a concrete array, that is the scalar/array type itself.
// For an array-decayed parameter, the pointed-to type is itself a
// pointer, matching the extra indirection described in
// getVariablePointer.
type varInfo struct {
	Addr    llvm.Value
	Pointee llvm.Type
	Elem    types.Kind
	Rank    int // declared dimension count; 0 for a scalar
}

// IRSymTable maps a name visible at the current point of lowering to
// its storage address, scoped the same way ConstSymTable is.
type IRSymTable = symtab.Stack[*varInfo]

// val is the result of lowering an expression: the LLVM value together
// with the Kind it currently carries, so callers can decide whether a
// coercion is needed before using it.
type val struct {
	V llvm.Value
	K types.Kind
}

// loopFrame names the branch targets a break/continue inside the
// innermost active loop should jump to.
type loopFrame struct {
	continueTarget llvm.BasicBlock
	breakTarget    llvm.BasicBlock
}

// paramSig is one parameter's shape as seen from a call site: its
// element kind, and whether it is array-decayed (so a caller passing a
// whole array, or a partially indexed sub-array, needs to decay it to
// a pointer rather than load a scalar).
type paramSig struct {
	Elem    types.Kind
	IsArray bool
}

// funcSig is everything lowerCall needs to type-check and coerce a call
// against, keyed by the single global function namespace.
type funcSig struct {
	Params []paramSig
	Ret    types.Kind
}

type lowerer struct {
	ctx     llvm.Context
	mod     llvm.Module
	builder llvm.Builder

	syms      *IRSymTable
	funcSigs  map[string]funcSig
	funcTypes map[string]llvm.Type

	fn        llvm.Value
	fnName    string
	retType   types.Kind
	live      bool // false once the current block has a terminator
	loops     []loopFrame
	anonCount int
}

// Lower walks unit and returns the LLVM module it lowers to. moduleName
// names the resulting llvm.Module, normally the input file's base name.
func Lower(unit *ast.CompileUnit, moduleName string) (mod llvm.Module, err error) {
	defer token.Recover(&err)

	ctx := llvm.NewContext()
	lw := &lowerer{
		ctx:       ctx,
		mod:       ctx.NewModule(moduleName),
		builder:   ctx.NewBuilder(),
		syms:      symtab.New[*varInfo](),
		funcSigs:  make(map[string]funcSig),
		funcTypes: make(map[string]llvm.Type),
	}
	lw.emitRuntimePrototypes()

	// Every user function is declared (signature registered, LLVM
	// function created) before any body is lowered, so a function may
	// call itself or any sibling regardless of source order.
	for _, item := range unit.Items {
		if fn, ok := item.(*ast.FunctionDef); ok {
			lw.predeclareFunction(fn)
		}
	}
	for _, item := range unit.Items {
		lw.lowerTopLevelItem(item)
	}
	return lw.mod, nil
}

func (lw *lowerer) lowerTopLevelItem(item ast.Node) {
	switch n := item.(type) {
	case *ast.ConstVariableDecl:
		lw.lowerConstDecl(n)
	case *ast.VariableDecl:
		lw.lowerGlobalVariableDecl(n)
	case *ast.FunctionDef:
		lw.lowerFunctionDef(n)
	default:
		token.Fatal(token.InternalError, item.Range().Begin, "unexpected top-level node %T", item)
	}
}

// freshName produces a unique local suffix for a basic block or value
// name, avoiding collisions between same-named blocks across nested
// ifs/whiles in one function (LLVM tolerates duplicate names by
// uniquing them itself, but explicit numbering keeps the emitted IR
// readable for debugging).
func (lw *lowerer) freshName(base string) string {
	lw.anonCount++
	return fmt.Sprintf("%s.%d", base, lw.anonCount)
}

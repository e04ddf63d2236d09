package irgen

import (
	"tinygo.org/x/go-llvm"

	"github.com/NKU-RuntimeError/SysY-compiler/ast"
	"github.com/NKU-RuntimeError/SysY-compiler/symtab"
	"github.com/NKU-RuntimeError/SysY-compiler/token"
	"github.com/NKU-RuntimeError/SysY-compiler/types"
)

// createEntryBlockAlloca always places its alloca in the current
// function's entry block, before that block's first real instruction
// if it already has one, so that every stack slot a function ever
// uses is visible to LLVM's mem2reg/SROA passes regardless of which
// nested block the declaration it backs textually appears in.
func (lw *lowerer) createEntryBlockAlloca(ty llvm.Type, name string) llvm.Value {
	current := lw.builder.GetInsertBlock()
	entry := lw.fn.EntryBasicBlock()
	first := entry.FirstInstruction()

	if first.IsNil() {
		lw.builder.SetInsertPointAtEnd(entry)
	} else {
		lw.builder.SetInsertPointBefore(first)
	}
	alloca := lw.builder.CreateAlloca(ty, name)

	if lw.live {
		lw.builder.SetInsertPointAtEnd(current)
	}
	return alloca
}

// paramLLVMType returns the LLVM type of arg's own storage slot: the
// concrete array/scalar shape for an ordinary parameter, or a bare
// pointer for an array-decayed one (arg.Dims[0] is nil, the parser's
// marker for "no size given").
func (lw *lowerer) paramLLVMType(arg *ast.FunctionArg) (llvmType llvm.Type, elem types.Kind, dims []int) {
	if !arg.IsArray() {
		return lw.llvmScalarType(arg.Type), arg.Type, nil
	}
	dims = make([]int, len(arg.Dims))
	dims[0] = types.Unknown
	for i := 1; i < len(arg.Dims); i++ {
		dims[i] = int(arg.Dims[i].(*ast.NumberExpr).IntVal)
	}
	return lw.llvmShapeType(arg.Type, dims), arg.Type, dims
}

// predeclareFunction creates fn's LLVM function and registers its call
// signature, but emits no body: every function is declared this way
// before any body is lowered, so calls made from within any function
// (including itself) resolve regardless of source order.
func (lw *lowerer) predeclareFunction(fn *ast.FunctionDef) {
	paramTypes := make([]llvm.Type, len(fn.Args))
	sig := funcSig{Params: make([]paramSig, len(fn.Args)), Ret: fn.ReturnType}
	for i, arg := range fn.Args {
		t, elem, dims := lw.paramLLVMType(arg)
		paramTypes[i] = t
		sig.Params[i] = paramSig{Elem: elem, IsArray: len(dims) > 0}
	}
	fnType := llvm.FunctionType(lw.llvmScalarType(fn.ReturnType), paramTypes, false)

	function := llvm.AddFunction(lw.mod, fn.Name, fnType)
	if fn.Name == "main" {
		function.SetLinkage(llvm.ExternalLinkage)
	} else {
		function.SetLinkage(llvm.InternalLinkage)
	}
	lw.funcSigs[fn.Name] = sig
	lw.funcTypes[fn.Name] = fnType
}

// lowerFunctionDef lowers one top-level function definition following
// the fixed nine-step procedure: derive the function's LLVM type
// (already done by predeclareFunction), open its entry block, push an
// IR scope and bind every parameter into a stack slot, lower the body,
// pop the scope, patch any block left without a terminator, and
// finally run the SSA verifier over the finished function.
func (lw *lowerer) lowerFunctionDef(fn *ast.FunctionDef) {
	function := lw.mod.NamedFunction(fn.Name)
	paramTypes := make([]llvm.Type, len(fn.Args))
	paramElems := make([]types.Kind, len(fn.Args))
	paramDims := make([][]int, len(fn.Args))
	for i, arg := range fn.Args {
		paramTypes[i], paramElems[i], paramDims[i] = lw.paramLLVMType(arg)
	}

	entry := lw.ctx.AddBasicBlock(function, "entry")
	lw.builder.SetInsertPointAtEnd(entry)

	lw.syms.Push(symtab.BlockScope)
	savedFn, savedFnName, savedRet, savedLive, savedLoops := lw.fn, lw.fnName, lw.retType, lw.live, lw.loops
	lw.fn, lw.fnName, lw.retType, lw.live, lw.loops = function, fn.Name, fn.ReturnType, true, nil

	for i, arg := range fn.Args {
		slot := lw.createEntryBlockAlloca(paramTypes[i], arg.Name)
		lw.builder.CreateStore(function.Param(i), slot)
		lw.bindName(arg.Name, &varInfo{Addr: slot, Pointee: paramTypes[i], Elem: paramElems[i], Rank: len(paramDims[i])}, arg.R.Begin)
	}

	lw.lowerBlockElements(fn.Body.Elements)

	lw.syms.Pop()
	lw.fn, lw.fnName, lw.retType, lw.live, lw.loops = savedFn, savedFnName, savedRet, savedLive, savedLoops

	lw.fixMissingTerminators(function)

	if err := llvm.VerifyFunction(function, llvm.ReturnStatusAction); err != nil {
		token.Fatal(token.InternalError, fn.R.Begin, "function %q failed IR verification: %s", fn.Name, err)
	}
}

// fixMissingTerminators gives every basic block in function that falls
// off its end without a terminator an implicit `return void`. A
// non-void function relies on the programmer to return on every path;
// leaving that unterminated is undefined behavior this pass does not
// try to detect beyond what the verifier itself reports.
func (lw *lowerer) fixMissingTerminators(function llvm.Value) {
	for bb := function.FirstBasicBlock(); !bb.IsNil(); bb = llvm.NextBasicBlock(bb) {
		last := bb.LastInstruction()
		if !last.IsNil() && isTerminator(last) {
			continue
		}
		lw.builder.SetInsertPointAtEnd(bb)
		lw.builder.CreateRetVoid()
	}
}

func isTerminator(v llvm.Value) bool {
	switch v.InstructionOpcode() {
	case llvm.Ret, llvm.Br, llvm.Switch, llvm.IndirectBr, llvm.Invoke, llvm.Unreachable:
		return true
	default:
		return false
	}
}

package irgen

import (
	"tinygo.org/x/go-llvm"

	"github.com/NKU-RuntimeError/SysY-compiler/types"
)

// runtimeSig names one SysY standard-library function's LLVM signature.
// The library itself is linked in separately; the lowering pass only
// ever needs its prototypes so calls to it can be emitted and
// type-checked against the declared parameter kinds.
type runtimeSig struct {
	name    string
	params  func(lw *lowerer) []llvm.Type
	ret     func(lw *lowerer) llvm.Type
	varArgs bool
}

func (lw *lowerer) runtimeSigs() []runtimeSig {
	i32 := func(lw *lowerer) llvm.Type { return lw.ctx.Int32Type() }
	f32 := func(lw *lowerer) llvm.Type { return lw.ctx.FloatType() }
	voidT := func(lw *lowerer) llvm.Type { return lw.ctx.VoidType() }
	i32ptr := func(lw *lowerer) llvm.Type { return llvm.PointerType(lw.ctx.Int32Type(), 0) }
	f32ptr := func(lw *lowerer) llvm.Type { return llvm.PointerType(lw.ctx.FloatType(), 0) }

	return []runtimeSig{
		{name: "getint", params: none, ret: i32},
		{name: "getch", params: none, ret: i32},
		{name: "getfloat", params: none, ret: f32},
		{name: "getarray", params: one(i32ptr), ret: i32},
		{name: "getfarray", params: one(f32ptr), ret: i32},
		{name: "putint", params: one(i32), ret: voidT},
		{name: "putch", params: one(i32), ret: voidT},
		{name: "putfloat", params: one(f32), ret: voidT},
		{name: "putarray", params: two(i32, i32ptr), ret: voidT},
		{name: "putfarray", params: two(i32, f32ptr), ret: voidT},
		{name: "_sysy_starttime", params: one(i32), ret: voidT},
		{name: "_sysy_stoptime", params: one(i32), ret: voidT},
	}
}

func none(lw *lowerer) []llvm.Type { return nil }

func one(t func(*lowerer) llvm.Type) func(*lowerer) []llvm.Type {
	return func(lw *lowerer) []llvm.Type { return []llvm.Type{t(lw)} }
}

func two(a, b func(*lowerer) llvm.Type) func(*lowerer) []llvm.Type {
	return func(lw *lowerer) []llvm.Type { return []llvm.Type{a(lw), b(lw)} }
}

// runtimeCallSigs names each runtime function's signature in Kind
// terms, matching runtimeSigs one for one, so lowerCall can type-check
// and coerce arguments against it exactly like a user-defined function.
func runtimeCallSigs() map[string]funcSig {
	scalar := func(k types.Kind) paramSig { return paramSig{Elem: k} }
	array := func(k types.Kind) paramSig { return paramSig{Elem: k, IsArray: true} }
	return map[string]funcSig{
		"getint":          {Ret: types.Int},
		"getch":           {Ret: types.Int},
		"getfloat":        {Ret: types.Float},
		"getarray":        {Params: []paramSig{array(types.Int)}, Ret: types.Int},
		"getfarray":       {Params: []paramSig{array(types.Float)}, Ret: types.Int},
		"putint":          {Params: []paramSig{scalar(types.Int)}, Ret: types.Void},
		"putch":           {Params: []paramSig{scalar(types.Int)}, Ret: types.Void},
		"putfloat":        {Params: []paramSig{scalar(types.Float)}, Ret: types.Void},
		"putarray":        {Params: []paramSig{scalar(types.Int), array(types.Int)}, Ret: types.Void},
		"putfarray":       {Params: []paramSig{scalar(types.Int), array(types.Float)}, Ret: types.Void},
		"_sysy_starttime": {Params: []paramSig{scalar(types.Int)}, Ret: types.Void},
		"_sysy_stoptime":  {Params: []paramSig{scalar(types.Int)}, Ret: types.Void},
	}
}

// emitRuntimePrototypes declares every SysY runtime function as an
// external-linkage function with no body, so calls against it can be
// resolved and coerced by name from here on. Declaring all twelve up
// front, whether or not the source ever calls them, keeps the function
// lookup in lowerCall a plain one-namespace map lookup with no
// on-demand declare-if-missing branch.
func (lw *lowerer) emitRuntimePrototypes() {
	for _, sig := range lw.runtimeSigs() {
		fnType := llvm.FunctionType(sig.ret(lw), sig.params(lw), sig.varArgs)
		fn := llvm.AddFunction(lw.mod, sig.name, fnType)
		fn.SetLinkage(llvm.ExternalLinkage)
		lw.funcTypes[sig.name] = fnType
	}
	for name, sig := range runtimeCallSigs() {
		lw.funcSigs[name] = sig
	}
}

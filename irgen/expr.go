package irgen

import (
	"tinygo.org/x/go-llvm"

	"github.com/NKU-RuntimeError/SysY-compiler/ast"
	"github.com/NKU-RuntimeError/SysY-compiler/token"
	"github.com/NKU-RuntimeError/SysY-compiler/types"
)

func (lw *lowerer) lowerExpr(e ast.Expr) val {
	switch n := e.(type) {
	case *ast.NumberExpr:
		return lw.lowerNumber(n)
	case *ast.UnaryExpr:
		return lw.lowerUnary(n)
	case *ast.BinaryExpr:
		return lw.lowerBinary(n)
	case *ast.VariableExpr:
		return lw.lowerVariableRead(n)
	case *ast.FunctionCallExpr:
		return lw.lowerCall(n)
	default:
		token.Fatal(token.InternalError, e.Range().Begin, "unexpected expression node %T", e)
		return val{}
	}
}

func (lw *lowerer) lowerNumber(n *ast.NumberExpr) val {
	if n.Type == types.Float {
		return val{lw.constFloat(n.FloatVal), types.Float}
	}
	return val{lw.constInt(n.IntVal), types.Int}
}

// getVariablePointer resolves name against the current IR scope and
// walks indexExprs one dimension at a time: whenever the type at the
// current address is itself a pointer (an array-decayed parameter's
// storage holds a pointer value, not an array), that pointer is loaded
// first and indexed with no leading zero; otherwise the address is
// indexed in place with the leading-zero two-operand GEP array
// addressing needs. It returns the resulting address, the variable's
// scalar element kind, the LLVM type still at that address, and how
// many of the variable's declared dimensions remain unconsumed (zero
// once the address names a single scalar).
func (lw *lowerer) getVariablePointer(name string, indexExprs []ast.Expr, pos token.Position) (addr llvm.Value, elem types.Kind, curType llvm.Type, remaining int) {
	info, ok := lw.syms.Get(name)
	if !ok {
		token.Fatal(token.ScopeError, pos, "undeclared identifier %q", name)
	}
	addr = info.Addr
	curType = info.Pointee
	for _, idxExpr := range indexExprs {
		idx := lw.coerce(lw.lowerExpr(idxExpr), types.Int)
		if curType.TypeKind() == llvm.PointerTypeKind {
			ptr := lw.builder.CreateLoad(curType, addr, lw.freshName(name+".ptr"))
			elemLLVM := curType.ElementType()
			addr = lw.builder.CreateGEP(elemLLVM, ptr, []llvm.Value{idx.V}, lw.freshName(name+".idx"))
			curType = elemLLVM
		} else {
			elemLLVM := curType.ElementType()
			addr = lw.builder.CreateGEP(curType, addr, []llvm.Value{lw.constInt(0), idx.V}, lw.freshName(name+".idx"))
			curType = elemLLVM
		}
	}
	return addr, info.Elem, curType, info.Rank - len(indexExprs)
}

// lowerVariableRead loads the scalar value a fully indexed
// VariableExpr names. A VariableExpr naming an array with indices left
// unconsumed only makes sense as a function-call argument, handled
// separately by lowerCallArg; reaching here with indices still
// remaining is a shape error.
func (lw *lowerer) lowerVariableRead(n *ast.VariableExpr) val {
	addr, elem, curType, remaining := lw.getVariablePointer(n.Name, n.Indices, n.R.Begin)
	if remaining != 0 {
		token.Fatal(token.ShapeError, n.R.Begin, "array %q used as a value; pass it to a function instead", n.Name)
	}
	return val{lw.builder.CreateLoad(curType, addr, lw.freshName(n.Name+".val")), elem}
}

// arithCalcType is the type an arithmetic operation actually computes
// in: the joined operand type, clamped into {Int, Float} so a Bool
// operand (which only ever arises from a nested comparison) is
// promoted to Int before the operator runs.
func arithCalcType(l, r types.Kind) types.Kind {
	return types.Clamp(types.Join(l, r), types.Int, types.Float)
}

func (lw *lowerer) lowerBinary(n *ast.BinaryExpr) val {
	if n.Op.IsLogical() {
		return lw.lowerShortCircuit(n)
	}
	lhs := lw.lowerExpr(n.LHS)
	rhs := lw.lowerExpr(n.RHS)

	if n.Op.IsComparison() {
		calc := arithCalcType(lhs.K, rhs.K)
		lhs, rhs = lw.coerce(lhs, calc), lw.coerce(rhs, calc)
		return val{lw.compareOp(n.Op, lhs, rhs, n.R.Begin), types.Bool}
	}

	calc := arithCalcType(lhs.K, rhs.K)
	lhs, rhs = lw.coerce(lhs, calc), lw.coerce(rhs, calc)
	if calc == types.Float && n.Op == ast.Rem {
		token.Fatal(token.TypeError, n.R.Begin, "the %% operator does not accept float operands")
	}
	return val{lw.arithOp(n.Op, lhs, rhs, calc, n.R.Begin), calc}
}

func (lw *lowerer) arithOp(op ast.BinaryOp, lhs, rhs val, calc types.Kind, pos token.Position) llvm.Value {
	if calc == types.Float {
		switch op {
		case ast.Add:
			return lw.builder.CreateFAdd(lhs.V, rhs.V, "fadd")
		case ast.Sub:
			return lw.builder.CreateFSub(lhs.V, rhs.V, "fsub")
		case ast.Mul:
			return lw.builder.CreateFMul(lhs.V, rhs.V, "fmul")
		case ast.Quo:
			return lw.builder.CreateFDiv(lhs.V, rhs.V, "fdiv")
		default:
			token.Fatal(token.InternalError, pos, "unexpected float operator %v", op)
		}
	}
	switch op {
	case ast.Add:
		return lw.builder.CreateAdd(lhs.V, rhs.V, "add")
	case ast.Sub:
		return lw.builder.CreateSub(lhs.V, rhs.V, "sub")
	case ast.Mul:
		return lw.builder.CreateMul(lhs.V, rhs.V, "mul")
	case ast.Quo:
		return lw.builder.CreateSDiv(lhs.V, rhs.V, "sdiv")
	case ast.Rem:
		return lw.builder.CreateSRem(lhs.V, rhs.V, "srem")
	default:
		token.Fatal(token.InternalError, pos, "unexpected integer operator %v", op)
	}
	return llvm.Value{}
}

func (lw *lowerer) compareOp(op ast.BinaryOp, lhs, rhs val, pos token.Position) llvm.Value {
	if lhs.K == types.Float {
		pred, ok := floatPredicates[op]
		if !ok {
			token.Fatal(token.InternalError, pos, "unexpected comparison operator %v", op)
		}
		return lw.builder.CreateFCmp(pred, lhs.V, rhs.V, "fcmp")
	}
	pred, ok := intPredicates[op]
	if !ok {
		token.Fatal(token.InternalError, pos, "unexpected comparison operator %v", op)
	}
	return lw.builder.CreateICmp(pred, lhs.V, rhs.V, "icmp")
}

var intPredicates = map[ast.BinaryOp]llvm.IntPredicate{
	ast.Lss: llvm.IntSLT,
	ast.Leq: llvm.IntSLE,
	ast.Gtr: llvm.IntSGT,
	ast.Geq: llvm.IntSGE,
	ast.Eql: llvm.IntEQ,
	ast.Neq: llvm.IntNE,
}

var floatPredicates = map[ast.BinaryOp]llvm.FloatPredicate{
	ast.Lss: llvm.FloatOLT,
	ast.Leq: llvm.FloatOLE,
	ast.Gtr: llvm.FloatOGT,
	ast.Geq: llvm.FloatOGE,
	ast.Eql: llvm.FloatOEQ,
	ast.Neq: llvm.FloatONE,
}

// lowerShortCircuit implements && and || with an extra basic block and
// a PHI, evaluating the right-hand side only when the left-hand side
// didn't already decide the answer: for &&, only when the left side is
// true; for ||, only when it is false.
func (lw *lowerer) lowerShortCircuit(n *ast.BinaryExpr) val {
	lhs := lw.coerce(lw.lowerExpr(n.LHS), types.Bool)
	startBlk := lw.builder.GetInsertBlock()

	rhsBlk := lw.ctx.AddBasicBlock(lw.fn, lw.freshName("logic.rhs"))
	mergeBlk := lw.ctx.AddBasicBlock(lw.fn, lw.freshName("logic.merge"))

	if n.Op == ast.LAnd {
		lw.builder.CreateCondBr(lhs.V, rhsBlk, mergeBlk)
	} else {
		lw.builder.CreateCondBr(lhs.V, mergeBlk, rhsBlk)
	}

	lw.builder.SetInsertPointAtEnd(rhsBlk)
	rhs := lw.coerce(lw.lowerExpr(n.RHS), types.Bool)
	rhsEndBlk := lw.builder.GetInsertBlock()
	lw.builder.CreateBr(mergeBlk)

	lw.builder.SetInsertPointAtEnd(mergeBlk)
	phi := lw.builder.CreatePHI(lw.llvmScalarType(types.Bool), "logic.result")
	phi.AddIncoming([]llvm.Value{lhs.V, rhs.V}, []llvm.BasicBlock{startBlk, rhsEndBlk})
	return val{phi, types.Bool}
}

func (lw *lowerer) lowerUnary(n *ast.UnaryExpr) val {
	operand := lw.lowerExpr(n.Expr)
	switch n.Op {
	case ast.UnaryPlus:
		return operand
	case ast.UnaryMinus:
		calc := types.Clamp(operand.K, types.Int, types.Float)
		operand = lw.coerce(operand, calc)
		if calc == types.Float {
			return val{lw.builder.CreateFNeg(operand.V, "fneg"), types.Float}
		}
		return val{lw.builder.CreateNeg(operand.V, "neg"), types.Int}
	case ast.UnaryNot:
		operand = lw.coerce(operand, types.Bool)
		return val{lw.builder.CreateNot(operand.V, "not"), types.Bool}
	default:
		token.Fatal(token.InternalError, n.R.Begin, "unexpected unary operator %v", n.Op)
		return val{}
	}
}

// lowerCall resolves name in the single global function namespace,
// checks arity, coerces each argument (decaying whole or partial array
// arguments to a pointer instead of loading a scalar), and emits the
// call.
func (lw *lowerer) lowerCall(n *ast.FunctionCallExpr) val {
	sig, ok := lw.funcSigs[n.Name]
	if !ok {
		token.Fatal(token.ScopeError, n.R.Begin, "call to undeclared function %q", n.Name)
	}
	if len(n.Args) != len(sig.Params) {
		token.Fatal(token.ShapeError, n.R.Begin, "function %q expects %d argument(s), got %d", n.Name, len(sig.Params), len(n.Args))
	}
	function := lw.mod.NamedFunction(n.Name)
	fnType := lw.funcTypes[n.Name]

	args := make([]llvm.Value, len(n.Args))
	for i, argExpr := range n.Args {
		args[i] = lw.lowerCallArg(argExpr, sig.Params[i])
	}
	call := lw.builder.CreateCall(fnType, function, args, lw.callResultName(n.Name, sig.Ret))
	return val{call, sig.Ret}
}

func (lw *lowerer) callResultName(name string, ret types.Kind) string {
	if ret == types.Void {
		return ""
	}
	return lw.freshName(name + ".call")
}

// lowerCallArg lowers one call argument against the declared parameter
// shape. A scalar parameter evaluates and coerces the argument
// normally; an array parameter expects a bare VariableExpr naming an
// array (whole or partially indexed) and decays it to a pointer to its
// first remaining element, the same address-of-element-zero step C
// performs implicitly at a call boundary.
func (lw *lowerer) lowerCallArg(argExpr ast.Expr, want paramSig) llvm.Value {
	if !want.IsArray {
		return lw.coerce(lw.lowerExpr(argExpr), want.Elem).V
	}
	ve, ok := argExpr.(*ast.VariableExpr)
	if !ok {
		token.Fatal(token.ShapeError, argExpr.Range().Begin, "array argument must be a variable reference")
	}
	addr, _, curType, remaining := lw.getVariablePointer(ve.Name, ve.Indices, ve.R.Begin)
	if remaining == 0 {
		token.Fatal(token.ShapeError, ve.R.Begin, "%q is not an array", ve.Name)
	}
	if curType.TypeKind() == llvm.PointerTypeKind {
		return lw.builder.CreateLoad(curType, addr, lw.freshName(ve.Name+".decay"))
	}
	return lw.builder.CreateGEP(curType, addr, []llvm.Value{lw.constInt(0), lw.constInt(0)}, lw.freshName(ve.Name+".decay"))
}

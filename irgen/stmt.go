package irgen

import (
	"tinygo.org/x/go-llvm"

	"github.com/NKU-RuntimeError/SysY-compiler/ast"
	"github.com/NKU-RuntimeError/SysY-compiler/symtab"
	"github.com/NKU-RuntimeError/SysY-compiler/token"
	"github.com/NKU-RuntimeError/SysY-compiler/types"
)

// lowerBlockElements lowers a declaration/statement sequence in source
// order, matching constfold's foldElements dispatch over the same
// mixed Decl/Stmt item list.
func (lw *lowerer) lowerBlockElements(items []ast.Node) {
	for _, item := range items {
		switch n := item.(type) {
		case *ast.ConstVariableDecl:
			lw.lowerConstDecl(n)
		case *ast.VariableDecl:
			lw.lowerLocalVariableDecl(n)
		case ast.Stmt:
			lw.lowerStmt(n)
		default:
			token.Fatal(token.InternalError, item.Range().Begin, "unexpected block element %T", item)
		}
	}
}

func (lw *lowerer) lowerStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Block:
		if !lw.live {
			return
		}
		lw.syms.Push(symtab.BlockScope)
		lw.lowerBlockElements(n.Elements)
		lw.syms.Pop()
	case *ast.AssignStmt:
		lw.lowerAssign(n)
	case *ast.ExprStmt:
		if !lw.live {
			return
		}
		lw.lowerExpr(n.Expr)
	case *ast.NullStmt:
		// no-op
	case *ast.IfStmt:
		if !lw.live {
			return
		}
		lw.lowerIf(n)
	case *ast.WhileStmt:
		if !lw.live {
			return
		}
		lw.lowerWhile(n)
	case *ast.BreakStmt:
		lw.lowerBreak(n)
	case *ast.ContinueStmt:
		lw.lowerContinue(n)
	case *ast.ReturnStmt:
		lw.lowerReturn(n)
	default:
		token.Fatal(token.InternalError, s.Range().Begin, "unexpected statement node %T", s)
	}
}

// lowerAssign computes the lvalue's address, lowers the right-hand
// side, coerces it to the element's declared kind, and stores value
// then address, the canonical operand order.
func (lw *lowerer) lowerAssign(s *ast.AssignStmt) {
	if !lw.live {
		return
	}
	addr, elemType, _, remaining := lw.getVariablePointer(s.LValue.Name, s.LValue.Indices, s.R.Begin)
	if remaining != 0 {
		token.Fatal(token.ShapeError, s.R.Begin, "cannot assign to array %q directly", s.LValue.Name)
	}
	rhs := lw.coerce(lw.lowerExpr(s.RValue), elemType)
	lw.builder.CreateStore(rhs.V, addr)
}

// lowerIf creates the then/else/merge blocks up front (mirroring the
// teacher's createIfElseCont/createIfCont), lowers each arm, and joins
// them at merge. Whichever arm is absent branches straight to merge
// instead of getting a block of its own. If both arms end up dead
// (every path through them returned, broke, or continued), merge is
// given an `unreachable` terminator instead of ever being branched to,
// since nothing can fall through to it.
func (lw *lowerer) lowerIf(s *ast.IfStmt) {
	cond := lw.coerce(lw.lowerExpr(s.Cond), types.Bool)

	thenBlk := lw.ctx.AddBasicBlock(lw.fn, lw.freshName("if.then"))
	var elseBlk llvm.BasicBlock
	hasElse := s.Else != nil
	if hasElse {
		elseBlk = lw.ctx.AddBasicBlock(lw.fn, lw.freshName("if.else"))
	}
	mergeBlk := lw.ctx.AddBasicBlock(lw.fn, lw.freshName("if.merge"))

	if hasElse {
		lw.builder.CreateCondBr(cond.V, thenBlk, elseBlk)
	} else {
		lw.builder.CreateCondBr(cond.V, thenBlk, mergeBlk)
	}

	lw.builder.SetInsertPointAtEnd(thenBlk)
	lw.live = true
	lw.lowerStmt(s.Then)
	thenLive := lw.live
	if thenLive {
		lw.builder.CreateBr(mergeBlk)
	}

	elseLive := true
	if hasElse {
		lw.builder.SetInsertPointAtEnd(elseBlk)
		lw.live = true
		lw.lowerStmt(s.Else)
		elseLive = lw.live
		if elseLive {
			lw.builder.CreateBr(mergeBlk)
		}
	}

	lw.builder.SetInsertPointAtEnd(mergeBlk)
	if thenLive || elseLive {
		lw.live = true
	} else {
		lw.builder.CreateUnreachable()
		lw.live = false
	}
}

// lowerWhile wires the classic three-block loop: entry branches to
// cond, cond evaluates the condition and branches to body or cont,
// body is lowered with (cond, cont) pushed as this loop's
// continue/break targets and branches back to cond if still live, and
// lowering resumes at cont.
func (lw *lowerer) lowerWhile(s *ast.WhileStmt) {
	condBlk := lw.ctx.AddBasicBlock(lw.fn, lw.freshName("while.cond"))
	bodyBlk := lw.ctx.AddBasicBlock(lw.fn, lw.freshName("while.body"))
	contBlk := lw.ctx.AddBasicBlock(lw.fn, lw.freshName("while.cont"))

	if lw.live {
		lw.builder.CreateBr(condBlk)
	}

	lw.builder.SetInsertPointAtEnd(condBlk)
	lw.live = true
	cond := lw.coerce(lw.lowerExpr(s.Cond), types.Bool)
	lw.builder.CreateCondBr(cond.V, bodyBlk, contBlk)

	lw.loops = append(lw.loops, loopFrame{continueTarget: condBlk, breakTarget: contBlk})
	lw.builder.SetInsertPointAtEnd(bodyBlk)
	lw.live = true
	lw.lowerStmt(s.Body)
	if lw.live {
		lw.builder.CreateBr(condBlk)
	}
	lw.loops = lw.loops[:len(lw.loops)-1]

	lw.builder.SetInsertPointAtEnd(contBlk)
	lw.live = true
}

func (lw *lowerer) lowerBreak(s *ast.BreakStmt) {
	if !lw.live {
		return
	}
	if len(lw.loops) == 0 {
		token.Fatal(token.ScopeError, s.R.Begin, "break outside of a loop")
	}
	lw.builder.CreateBr(lw.loops[len(lw.loops)-1].breakTarget)
	lw.live = false
}

func (lw *lowerer) lowerContinue(s *ast.ContinueStmt) {
	if !lw.live {
		return
	}
	if len(lw.loops) == 0 {
		token.Fatal(token.ScopeError, s.R.Begin, "continue outside of a loop")
	}
	lw.builder.CreateBr(lw.loops[len(lw.loops)-1].continueTarget)
	lw.live = false
}

func (lw *lowerer) lowerReturn(s *ast.ReturnStmt) {
	if !lw.live {
		return
	}
	if s.Expr == nil {
		lw.builder.CreateRetVoid()
	} else {
		v := lw.coerce(lw.lowerExpr(s.Expr), lw.retType)
		lw.builder.CreateRet(v.V)
	}
	lw.live = false
}

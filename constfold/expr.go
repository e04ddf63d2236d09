package constfold

import (
	"github.com/NKU-RuntimeError/SysY-compiler/arena"
	"github.com/NKU-RuntimeError/SysY-compiler/ast"
	"github.com/NKU-RuntimeError/SysY-compiler/token"
	"github.com/NKU-RuntimeError/SysY-compiler/types"
)

// foldExpr recursively folds e, replacing any subtree it can prove
// constant with a literal NumberExpr. A VariableExpr with no indices
// folds to its bound value if one is visible; an indexed VariableExpr
// or a FunctionCallExpr is never folded, since this pass does not
// reason about array contents or callee bodies.
func (f *folder) foldExpr(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.NumberExpr:
		return n
	case *ast.UnaryExpr:
		return f.foldUnary(n)
	case *ast.BinaryExpr:
		return f.foldBinary(n)
	case *ast.VariableExpr:
		if len(n.Indices) == 0 {
			if lit, ok := f.consts.Get(n.Name); ok {
				return lit
			}
		}
		return n
	case *ast.FunctionCallExpr:
		return n
	default:
		token.Fatal(token.InternalError, e.Range().Begin, "unexpected expression node %T", e)
		return nil
	}
}

func (f *folder) foldUnary(n *ast.UnaryExpr) ast.Expr {
	n.Expr = f.foldExpr(n.Expr)
	switch n.Op {
	case ast.UnaryPlus:
		return n.Expr
	case ast.UnaryMinus:
		if lit, ok := n.Expr.(*ast.NumberExpr); ok {
			return negate(lit, f.a)
		}
		return n
	default: // ast.UnaryNot is never folded; its operand may still be folded above
		return n
	}
}

func negate(lit *ast.NumberExpr, a *arena.Arena) *ast.NumberExpr {
	out := arena.Make[ast.NumberExpr](a)
	out.R = lit.R
	out.Type = lit.Type
	if lit.Type == types.Float {
		out.FloatVal = -lit.FloatVal
	} else {
		out.IntVal = -lit.IntVal
	}
	return out
}

func (f *folder) foldBinary(n *ast.BinaryExpr) ast.Expr {
	n.LHS = f.foldExpr(n.LHS)
	n.RHS = f.foldExpr(n.RHS)
	lhs, okL := n.LHS.(*ast.NumberExpr)
	rhs, okR := n.RHS.(*ast.NumberExpr)
	if !okL || !okR {
		return n
	}
	return evalBinary(n.Op, lhs, rhs, n.R.Begin, f.a)
}

// evalBinary evaluates a binary operator over two already-folded
// literals, joining their types per the type lattice before computing.
// Integer division and remainder truncate toward zero; '%' on a
// float-joined pair is fatal, matching the operator table's legal
// operand kinds.
func evalBinary(op ast.BinaryOp, lhs, rhs *ast.NumberExpr, pos token.Position, a *arena.Arena) ast.Expr {
	joined := types.Join(lhs.Type, rhs.Type)

	if op.IsComparison() || op.IsLogical() {
		result := evalBool(op, lhs, rhs, joined, pos)
		out := arena.Make[ast.NumberExpr](a)
		out.Type = types.Int
		if result {
			out.IntVal = 1
		}
		return out
	}

	if joined == types.Float {
		if op == ast.Rem {
			token.Fatal(token.TypeError, pos, "the %% operator does not accept float operands")
		}
		l, r := asFloat64(lhs), asFloat64(rhs)
		out := arena.Make[ast.NumberExpr](a)
		out.Type = types.Float
		switch op {
		case ast.Add:
			out.FloatVal = float32(l + r)
		case ast.Sub:
			out.FloatVal = float32(l - r)
		case ast.Mul:
			out.FloatVal = float32(l * r)
		case ast.Quo:
			out.FloatVal = float32(l / r)
		default:
			token.Fatal(token.InternalError, pos, "unexpected arithmetic operator %v", op)
		}
		return out
	}

	l, r := int64(lhs.IntVal), int64(rhs.IntVal)
	out := arena.Make[ast.NumberExpr](a)
	out.Type = types.Int
	switch op {
	case ast.Add:
		out.IntVal = int32(l + r)
	case ast.Sub:
		out.IntVal = int32(l - r)
	case ast.Mul:
		out.IntVal = int32(l * r)
	case ast.Quo:
		if r == 0 {
			token.Fatal(token.ConstError, pos, "division by zero in a constant expression")
		}
		out.IntVal = int32(l / r)
	case ast.Rem:
		if r == 0 {
			token.Fatal(token.ConstError, pos, "division by zero in a constant expression")
		}
		out.IntVal = int32(l % r)
	default:
		token.Fatal(token.InternalError, pos, "unexpected arithmetic operator %v", op)
	}
	return out
}

func evalBool(op ast.BinaryOp, lhs, rhs *ast.NumberExpr, joined types.Kind, pos token.Position) bool {
	if op.IsLogical() {
		l, r := asFloat64(lhs) != 0, asFloat64(rhs) != 0
		if op == ast.LAnd {
			return l && r
		}
		return l || r
	}
	if joined == types.Float {
		l, r := asFloat64(lhs), asFloat64(rhs)
		return compare(op, l, r, pos)
	}
	l, r := int64(lhs.IntVal), int64(rhs.IntVal)
	return compare(op, float64(l), float64(r), pos)
}

func compare(op ast.BinaryOp, l, r float64, pos token.Position) bool {
	switch op {
	case ast.Lss:
		return l < r
	case ast.Leq:
		return l <= r
	case ast.Gtr:
		return l > r
	case ast.Geq:
		return l >= r
	case ast.Eql:
		return l == r
	case ast.Neq:
		return l != r
	default:
		token.Fatal(token.InternalError, pos, "unexpected comparison operator %v", op)
		return false
	}
}

func asFloat64(n *ast.NumberExpr) float64 {
	if n.Type == types.Float {
		return float64(n.FloatVal)
	}
	return float64(n.IntVal)
}

// foldDim folds a single array-dimension expression and asserts it is a
// non-negative integer literal, exactly the constExprCheck rule.
func foldDim(e ast.Expr, consts *ConstSymTable, a *arena.Arena) *ast.NumberExpr {
	f := &folder{a: a, consts: consts}
	folded := f.foldExpr(e)
	lit, ok := folded.(*ast.NumberExpr)
	if !ok {
		token.Fatal(token.ConstError, e.Range().Begin, "array dimension must be a compile-time constant")
	}
	if lit.Type != types.Int {
		token.Fatal(token.TypeError, e.Range().Begin, "array dimension must be an integer")
	}
	if lit.IntVal < 0 {
		token.Fatal(token.ShapeError, e.Range().Begin, "array dimension must be non-negative")
	}
	return lit
}

// castLiteral coerces lit to target, matching typeFix's int<->float
// static-cast semantics. It is only ever called between Int and Float;
// Void and Bool never appear as a literal's declared type.
func castLiteral(lit *ast.NumberExpr, target types.Kind, a *arena.Arena) *ast.NumberExpr {
	if lit.Type == target {
		return lit
	}
	out := arena.Make[ast.NumberExpr](a)
	out.R = lit.R
	out.Type = target
	switch target {
	case types.Float:
		out.FloatVal = float32(lit.IntVal)
	case types.Int:
		out.IntVal = int32(lit.FloatVal)
	default:
		token.Fatal(token.InternalError, lit.R.Begin, "unexpected initializer cast to %v", target)
	}
	return out
}

// Package ast defines the SysY syntax tree: every node carries an
// optional source Range and is one of a fixed set of declaration,
// statement, and expression variants, using a Node/Decl/Stmt/Expr
// interface split (ast.Node / ast.Decl / ast.Stmt / ast.Expr)
// generalized from a single token to a full Range, and from one
// switch-less type per node to the sum of variants named in the SysY
// grammar.
//
// Every node below is allocated through arena.Make, never with new or a
// composite literal taking its address directly, so that every node
// reachable from a CompileUnit is owned by exactly one arena.
package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/NKU-RuntimeError/SysY-compiler/token"
	"github.com/NKU-RuntimeError/SysY-compiler/types"
)

// Node is the common interface of every AST node: it carries the
// source range it was parsed from (the zero Range if synthesized by
// const-eval) and a debug rendering.
type Node interface {
	Range() token.Range
	String() string
}

// Decl is implemented by the two declaration-list item kinds that can
// appear at CompileUnit or Block level alongside statements.
type Decl interface {
	Node
	declNode()
}

// Stmt is implemented by every statement kind.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression kind.
type Expr interface {
	Node
	exprNode()
}

// base carries the Range every node embeds, so each variant only needs
// to set R once and gets Range() for free.
type base struct {
	R token.Range
}

func (b base) Range() token.Range { return b.R }

func joinStrings(nodes []Expr, sep string) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, sep)
}

// CompileUnit is the root of every parsed source file: an ordered
// sequence of top-level declarations and function definitions.
type CompileUnit struct {
	base
	Items []Node // Decl or *FunctionDef
}

func (u *CompileUnit) String() string {
	var out bytes.Buffer
	for _, item := range u.Items {
		out.WriteString(item.String())
		out.WriteString("\n")
	}
	return out.String()
}

// ConstVariableDecl is one `const <type> def, def, ...;` declaration.
type ConstVariableDecl struct {
	base
	Type types.Kind
	Defs []*ConstVariableDef
}

func (d *ConstVariableDecl) declNode() {}
func (d *ConstVariableDecl) String() string {
	defs := make([]string, len(d.Defs))
	for i, def := range d.Defs {
		defs[i] = def.String()
	}
	return "const " + d.Type.String() + " " + strings.Join(defs, ", ") + ";"
}

// ConstVariableDef is one `name[dims] = init` inside a const declaration.
// Init is never nil: a const without an initializer is rejected by the parser.
type ConstVariableDef struct {
	base
	Name string
	Dims []Expr
	Init InitializerElement
}

func (d *ConstVariableDef) String() string {
	var out bytes.Buffer
	out.WriteString(d.Name)
	for _, dim := range d.Dims {
		out.WriteString("[")
		out.WriteString(dim.String())
		out.WriteString("]")
	}
	out.WriteString(" = ")
	out.WriteString(d.Init.String())
	return out.String()
}

// VariableDecl is one `<type> def, def, ...;` declaration.
type VariableDecl struct {
	base
	Type types.Kind
	Defs []*VariableDef
}

func (d *VariableDecl) declNode() {}
func (d *VariableDecl) String() string {
	defs := make([]string, len(d.Defs))
	for i, def := range d.Defs {
		defs[i] = def.String()
	}
	return d.Type.String() + " " + strings.Join(defs, ", ") + ";"
}

// VariableDef is one `name[dims]` or `name[dims] = init` inside a
// variable declaration. Init is nil when the declaration has none.
type VariableDef struct {
	base
	Name string
	Dims []Expr
	Init InitializerElement
}

func (d *VariableDef) String() string {
	var out bytes.Buffer
	out.WriteString(d.Name)
	for _, dim := range d.Dims {
		out.WriteString("[")
		out.WriteString(dim.String())
		out.WriteString("]")
	}
	if d.Init != nil {
		out.WriteString(" = ")
		out.WriteString(d.Init.String())
	}
	return out.String()
}

// InitializerElement is either a scalar Expr or a nested InitializerList.
type InitializerElement interface {
	Node
	initializerNode()
}

func (e *NumberExpr) initializerNode()    {}
func (e *UnaryExpr) initializerNode()     {}
func (e *BinaryExpr) initializerNode()    {}
func (e *VariableExpr) initializerNode()  {}
func (e *FunctionCallExpr) initializerNode() {}

// InitializerList is a braced, possibly-nested list of initializer
// elements, written `{ e1, e2, ... }` in source.
type InitializerList struct {
	base
	Elements []InitializerElement
}

func (l *InitializerList) initializerNode() {}
func (l *InitializerList) String() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// FunctionDef is a top-level function definition.
type FunctionDef struct {
	base
	ReturnType types.Kind
	Name       string
	Args       []*FunctionArg
	Body       *Block
}

func (f *FunctionDef) String() string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.String()
	}
	return f.ReturnType.String() + " " + f.Name + "(" + strings.Join(args, ", ") + ") " + f.Body.String()
}

// FunctionArg is one formal parameter. When Dims is non-empty, Dims[0]
// is nil: the array's first dimension decays to a pointer per the C
// parameter-array rule, and only Dims[1:] carry concrete sizes.
type FunctionArg struct {
	base
	Type types.Kind
	Name string
	Dims []Expr
}

func (a *FunctionArg) String() string {
	var out bytes.Buffer
	out.WriteString(strings.ToLower(a.Type.String()))
	out.WriteString(" ")
	out.WriteString(a.Name)
	for _, d := range a.Dims {
		out.WriteString("[")
		if d != nil {
			out.WriteString(d.String())
		}
		out.WriteString("]")
	}
	return out.String()
}

// IsArray reports whether this argument was declared with any
// dimensions at all, i.e. it is an array-decayed parameter.
func (a *FunctionArg) IsArray() bool {
	return len(a.Dims) > 0
}

// Block is a brace-delimited sequence of declarations and statements
// that introduces its own scope.
type Block struct {
	base
	Elements []Node // Decl or Stmt
}

func (b *Block) stmtNode() {}
func (b *Block) String() string {
	var out bytes.Buffer
	out.WriteString("{\n")
	for _, e := range b.Elements {
		out.WriteString(e.String())
		out.WriteString("\n")
	}
	out.WriteString("}")
	return out.String()
}

// AssignStmt is `lvalue = rvalue;`.
type AssignStmt struct {
	base
	LValue *LValue
	RValue Expr
}

func (s *AssignStmt) stmtNode() {}
func (s *AssignStmt) String() string {
	return s.LValue.String() + " = " + s.RValue.String() + ";"
}

// ExprStmt is a bare expression statement, kept for its side effects
// (almost always a function call).
type ExprStmt struct {
	base
	Expr Expr
}

func (s *ExprStmt) stmtNode() {}
func (s *ExprStmt) String() string {
	return s.Expr.String() + ";"
}

// NullStmt is a lone `;`.
type NullStmt struct {
	base
}

func (s *NullStmt) stmtNode() {}
func (s *NullStmt) String() string { return ";" }

// IfStmt is `if (cond) then [else else]`. Else is nil when absent.
type IfStmt struct {
	base
	Cond Expr
	Then Stmt
	Else Stmt
}

func (s *IfStmt) stmtNode() {}
func (s *IfStmt) String() string {
	var out bytes.Buffer
	out.WriteString("if (")
	out.WriteString(s.Cond.String())
	out.WriteString(") ")
	out.WriteString(s.Then.String())
	if s.Else != nil {
		out.WriteString(" else ")
		out.WriteString(s.Else.String())
	}
	return out.String()
}

// WhileStmt is `while (cond) body`.
type WhileStmt struct {
	base
	Cond Expr
	Body Stmt
}

func (s *WhileStmt) stmtNode() {}
func (s *WhileStmt) String() string {
	return "while (" + s.Cond.String() + ") " + s.Body.String()
}

// BreakStmt is a lone `break;`.
type BreakStmt struct {
	base
}

func (s *BreakStmt) stmtNode() {}
func (s *BreakStmt) String() string { return "break;" }

// ContinueStmt is a lone `continue;`.
type ContinueStmt struct {
	base
}

func (s *ContinueStmt) stmtNode() {}
func (s *ContinueStmt) String() string { return "continue;" }

// ReturnStmt is `return [expr];`. Expr is nil for a void return.
type ReturnStmt struct {
	base
	Expr Expr
}

func (s *ReturnStmt) stmtNode() {}
func (s *ReturnStmt) String() string {
	if s.Expr == nil {
		return "return;"
	}
	return "return " + s.Expr.String() + ";"
}

// LValue is an assignable name, optionally indexed: `name` or
// `name[i][j]...`.
type LValue struct {
	base
	Name    string
	Indices []Expr
}

func (l *LValue) String() string {
	var out bytes.Buffer
	out.WriteString(l.Name)
	for _, idx := range l.Indices {
		out.WriteString("[")
		out.WriteString(idx.String())
		out.WriteString("]")
	}
	return out.String()
}

// UnaryOp enumerates the SysY prefix operators.
type UnaryOp int

const (
	UnaryPlus UnaryOp = iota
	UnaryMinus
	UnaryNot
)

func (op UnaryOp) String() string {
	switch op {
	case UnaryPlus:
		return "+"
	case UnaryMinus:
		return "-"
	case UnaryNot:
		return "!"
	default:
		return "?"
	}
}

// UnaryExpr is `op expr`.
type UnaryExpr struct {
	base
	Op   UnaryOp
	Expr Expr
}

func (e *UnaryExpr) exprNode() {}
func (e *UnaryExpr) String() string {
	return "(" + e.Op.String() + e.Expr.String() + ")"
}

// BinaryOp enumerates the SysY infix operators, in the grouping the
// lowering pass cares about: arithmetic, relational, equality, and the
// two short-circuit logical operators.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Quo
	Rem
	Lss
	Leq
	Gtr
	Geq
	Eql
	Neq
	LAnd
	LOr
)

var binaryOpNames = [...]string{
	Add: "+", Sub: "-", Mul: "*", Quo: "/", Rem: "%",
	Lss: "<", Leq: "<=", Gtr: ">", Geq: ">=", Eql: "==", Neq: "!=",
	LAnd: "&&", LOr: "||",
}

func (op BinaryOp) String() string {
	if int(op) >= 0 && int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return "?"
}

// IsComparison reports whether op produces a Bool result directly
// (relational or equality), as opposed to an arithmetic or logical op.
func (op BinaryOp) IsComparison() bool {
	return op >= Lss && op <= Neq
}

// IsLogical reports whether op is a short-circuit boolean operator.
func (op BinaryOp) IsLogical() bool {
	return op == LAnd || op == LOr
}

// BinaryExpr is `lhs op rhs`.
type BinaryExpr struct {
	base
	Op  BinaryOp
	LHS Expr
	RHS Expr
}

func (e *BinaryExpr) exprNode() {}
func (e *BinaryExpr) String() string {
	return "(" + e.LHS.String() + " " + e.Op.String() + " " + e.RHS.String() + ")"
}

// NumberExpr is a literal int or float value. Only one of the two
// fields is meaningful, selected by Type.
type NumberExpr struct {
	base
	Type     types.Kind // Int or Float
	IntVal   int32
	FloatVal float32
}

func (e *NumberExpr) exprNode() {}
func (e *NumberExpr) String() string {
	if e.Type == types.Float {
		return strconv.FormatFloat(float64(e.FloatVal), 'g', -1, 32)
	}
	return strconv.FormatInt(int64(e.IntVal), 10)
}

// VariableExpr is a named value read in an expression position,
// optionally indexed: `name` or `name[i][j]...`.
type VariableExpr struct {
	base
	Name    string
	Indices []Expr
}

func (e *VariableExpr) exprNode() {}
func (e *VariableExpr) String() string {
	var out bytes.Buffer
	out.WriteString(e.Name)
	for _, idx := range e.Indices {
		out.WriteString("[")
		out.WriteString(idx.String())
		out.WriteString("]")
	}
	return out.String()
}

// FunctionCallExpr is `name(args...)`.
type FunctionCallExpr struct {
	base
	Name string
	Args []Expr
}

func (e *FunctionCallExpr) exprNode() {}
func (e *FunctionCallExpr) String() string {
	return e.Name + "(" + joinStrings(e.Args, ", ") + ")"
}

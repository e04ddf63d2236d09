package irgen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/NKU-RuntimeError/SysY-compiler/arena"
	"github.com/NKU-RuntimeError/SysY-compiler/constfold"
	"github.com/NKU-RuntimeError/SysY-compiler/lexer"
	"github.com/NKU-RuntimeError/SysY-compiler/parser"
	"github.com/NKU-RuntimeError/SysY-compiler/token"
)

func lowerSource(t *testing.T, src string) string {
	t.Helper()
	a := arena.New()
	unit := parser.New(lexer.New(src), a).ParseCompileUnit()
	require.NoError(t, constfold.Fold(unit, a))
	mod, err := Lower(unit, "test")
	require.NoError(t, err)
	return mod.String()
}

// lowerSourceErr runs the full pipeline under a single recover, for the
// handful of scenarios that only the lowering pass itself rejects.
func lowerSourceErr(t *testing.T, src string) (err error) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*token.CompileError); ok {
				err = ce
				return
			}
			panic(r)
		}
	}()
	a := arena.New()
	unit := parser.New(lexer.New(src), a).ParseCompileUnit()
	if ferr := constfold.Fold(unit, a); ferr != nil {
		return ferr
	}
	_, err = Lower(unit, "test")
	return err
}

// S4: short-circuit && lowers to an extra block plus a phi, not a
// plain icmp/and sequence.
func TestLowerShortCircuitAndUsesPhi(t *testing.T) {
	ir := lowerSource(t, `
		int main() {
			int a;
			int b;
			if (a < 1 && b < 2) {
				return 1;
			}
			return 0;
		}`)
	require.Contains(t, ir, "logic.rhs")
	require.Contains(t, ir, "logic.merge")
	require.Contains(t, ir, "phi i1")
}

func TestLowerShortCircuitOrBranchesOppositeOfAnd(t *testing.T) {
	ir := lowerSource(t, `
		int main() {
			int a;
			int b;
			if (a < 1 || b < 2) {
				return 1;
			}
			return 0;
		}`)
	require.Contains(t, ir, "logic.rhs")
	require.Contains(t, ir, "phi i1")
}

// S5: break/continue branch to the loop's cont/cond blocks and every
// function still passes the verifier (Lower returns no error).
func TestLowerWhileBreakContinue(t *testing.T) {
	ir := lowerSource(t, `
		int main() {
			int i = 0;
			int sum = 0;
			while (i < 10) {
				i = i + 1;
				if (i == 5) {
					continue;
				}
				if (i == 8) {
					break;
				}
				sum = sum + i;
			}
			return sum;
		}`)
	require.Contains(t, ir, "while.cond")
	require.Contains(t, ir, "while.body")
	require.Contains(t, ir, "while.cont")
}

func TestLowerBreakOutsideLoopIsFatal(t *testing.T) {
	err := lowerSourceErr(t, `
		int main() {
			break;
			return 0;
		}`)
	require.Error(t, err)
}

// S6: passing a whole array, and a partially indexed row of a 2D
// array, both decay to a pointer GEP rather than a load.
func TestLowerArrayArgumentDecaysToPointer(t *testing.T) {
	ir := lowerSource(t, `
		void fill(int a[]) {
			a[0] = 1;
		}
		int main() {
			int xs[3];
			fill(xs);
			return xs[0];
		}`)
	require.Contains(t, ir, "define")
	require.Contains(t, ir, "call void @fill")
	require.NotContains(t, ir, "load [3 x i32]")
}

func TestLowerPartialIndexArrayArgumentDecays(t *testing.T) {
	ir := lowerSource(t, `
		void fill(int a[]) {
			a[0] = 1;
		}
		int main() {
			int xs[2][3];
			fill(xs[1]);
			return xs[1][0];
		}`)
	require.Contains(t, ir, "call void @fill")
}

func TestLowerCallingAlreadyDecayedParameterLoadsPointer(t *testing.T) {
	ir := lowerSource(t, `
		void inner(int a[]) {
			a[0] = 2;
		}
		void outer(int a[]) {
			inner(a);
		}
		int main() {
			int xs[3];
			outer(xs);
			return xs[0];
		}`)
	require.Contains(t, ir, "call void @inner")
}

// Global consts fold to internal constant globals; local consts get
// their underlying global qualified by the enclosing function's name.
func TestLowerGlobalConstBecomesInternalConstantGlobal(t *testing.T) {
	ir := lowerSource(t, `
		const int N = 7;
		int main() {
			return N;
		}`)
	require.Contains(t, ir, "@N = internal constant i32 7")
}

func TestLowerLocalConstQualifiesGlobalSymbol(t *testing.T) {
	ir := lowerSource(t, `
		int main() {
			const int N = 3;
			return N;
		}`)
	require.Contains(t, ir, "@main.N = internal constant i32 3")
}

// Recursive self-calls resolve even though the call textually precedes
// nothing else: predeclaration registers every function up front.
func TestLowerSelfRecursiveCallResolves(t *testing.T) {
	ir := lowerSource(t, `
		int fact(int n) {
			if (n <= 1) {
				return 1;
			}
			return n * fact(n - 1);
		}
		int main() {
			return fact(5);
		}`)
	require.Contains(t, ir, "call i32 @fact")
}

// A function may call one declared later in the same file: every
// function is predeclared before any body is lowered.
func TestLowerForwardCallToLaterFunctionResolves(t *testing.T) {
	ir := lowerSource(t, `
		int odd(int n) {
			if (n == 0) {
				return 0;
			}
			return even(n - 1);
		}
		int even(int n) {
			if (n == 0) {
				return 1;
			}
			return odd(n - 1);
		}
		int main() {
			return even(4);
		}`)
	require.Contains(t, ir, "call i32 @even")
	require.Contains(t, ir, "call i32 @odd")
}

// Implicit int/float casts around arithmetic and assignment go through
// the exact instruction the cast table names.
func TestLowerIntToFloatPromotionInsertsSIToFP(t *testing.T) {
	ir := lowerSource(t, `
		int main() {
			int a;
			float b;
			float x = a + b;
			return 0;
		}`)
	require.Contains(t, ir, "sitofp")
}

func TestLowerComparisonResultCoercedBackToInt(t *testing.T) {
	ir := lowerSource(t, `
		int main() {
			int a;
			int b;
			int x = a < b;
			return x;
		}`)
	require.Contains(t, ir, "icmp slt")
	require.Contains(t, ir, "zext")
}

func TestLowerModuloOnFloatOperandIsFatal(t *testing.T) {
	err := lowerSourceErr(t, `
		int main() {
			float x = 1.5;
			return x % 2;
		}`)
	require.Error(t, err)
}

// Every runtime function is declared up front, whether the source
// calls it or not, and a call against one resolves by name.
func TestLowerRuntimeCallResolvesAgainstDeclaredPrototype(t *testing.T) {
	ir := lowerSource(t, `
		int main() {
			putint(getint());
			return 0;
		}`)
	require.Contains(t, ir, "declare i32 @getint")
	require.Contains(t, ir, "declare void @putint(i32)")
	require.Contains(t, ir, "call i32 @getint")
	require.Contains(t, ir, "call void @putint")
}

// A statement after an unconditional return in the same block is
// unreachable and must not emit any instruction for it.
func TestLowerDeadCodeAfterReturnIsDropped(t *testing.T) {
	ir := lowerSource(t, `
		int main() {
			return 1;
			return 2;
		}`)
	require.Contains(t, ir, "ret i32 1")
	require.NotContains(t, ir, "ret i32 2")
}

// A declaration's initializer after a return still gets a stack slot
// (so nothing downstream breaks if something were to reference the
// name), but its side-effecting initializer expression is never
// lowered into the entry block.
func TestLowerDeadCodeInitializerSideEffectIsDropped(t *testing.T) {
	ir := lowerSource(t, `
		int get() {
			return 1;
		}
		int main() {
			return 0;
			int x = get();
		}`)
	require.NotContains(t, ir, "call i32 @get")
}

// A nested if or block reached after an unconditional return is dead
// code and must not be lowered into the already-terminated block: that
// would emit an instruction after a ret/br and fail IR verification on
// otherwise valid input.
func TestLowerDeadCodeIfAfterReturnIsSkipped(t *testing.T) {
	ir := lowerSource(t, `
		int g() {
			return 1;
		}
		int f() {
			return 0;
			if (g()) {
				return 2;
			}
		}`)
	require.NotContains(t, ir, "call i32 @g")
}

// Same hazard one level removed: a break inside a while body leaves
// that block terminated, and a sibling if/block statement after it
// must still be skipped rather than lowered into the terminated block.
func TestLowerDeadCodeIfAfterBreakIsSkipped(t *testing.T) {
	ir := lowerSource(t, `
		int d() {
			return 1;
		}
		int main() {
			int c;
			while (c) {
				break;
				if (d()) {
					c = 0;
				}
			}
			return 0;
		}`)
	require.NotContains(t, ir, "call i32 @d")
}

// A void function missing a return on some path still verifies: the
// fall-off block gets an implicit ret void.
func TestLowerVoidFunctionMissingReturnGetsImplicitRetVoid(t *testing.T) {
	ir := lowerSource(t, `
		void noop() {
			int x = 1;
		}
		int main() {
			noop();
			return 0;
		}`)
	require.Contains(t, ir, "define internal void @noop")
	require.Contains(t, ir, "ret void")
}

func TestLowerCallToUndeclaredFunctionIsFatal(t *testing.T) {
	err := lowerSourceErr(t, `
		int main() {
			return ghost(1);
		}`)
	require.Error(t, err)
}

func TestLowerCallArityMismatchIsFatal(t *testing.T) {
	err := lowerSourceErr(t, `
		int add(int a, int b) {
			return a + b;
		}
		int main() {
			return add(1);
		}`)
	require.Error(t, err)
}

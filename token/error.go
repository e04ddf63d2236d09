package token

import "fmt"

// Kind classifies a CompileError by the category of failure that
// produced it: every kind is fatal, none is recovered locally.
type Kind int

const (
	SyntaxError Kind = iota
	TypeError
	ShapeError
	ConstError
	ScopeError
	InternalError
)

func (k Kind) String() string {
	switch k {
	case SyntaxError:
		return "SyntaxError"
	case TypeError:
		return "TypeError"
	case ShapeError:
		return "ShapeError"
	case ConstError:
		return "ConstError"
	case ScopeError:
		return "ScopeError"
	case InternalError:
		return "InternalError"
	default:
		return "UnknownError"
	}
}

// CompileError is the one error type every pass in this module panics
// with on a fatal violation. constfold.Fold and irgen.Lower recover
// exactly one CompileError and return it; the parser has no recover of
// its own, so its caller recovers for it. Nothing else is recovered, so a
// programmer bug (e.g. a nil dereference) still crashes loudly.
type CompileError struct {
	Kind Kind
	Pos  Position
	Msg  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s at %d:%d: %s", e.Kind, e.Pos.Row, e.Pos.Col, e.Msg)
}

// Fatal panics with a *CompileError built from the given kind, position
// and formatted message. Every pass uses this instead of returning an
// error from deep call chains.
func Fatal(kind Kind, pos Position, format string, args ...any) {
	panic(&CompileError{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

// Recover must be deferred at a pass's entry point. It assigns *errp when
// the recovered value is a *CompileError, and re-panics otherwise so
// genuine programmer bugs are not swallowed.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	ce, ok := r.(*CompileError)
	if !ok {
		panic(r)
	}
	*errp = ce
}

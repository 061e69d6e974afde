// Package eval computes expression trees against an environment,
// producing values for the renderer.
package eval

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/stencil-lang/stencil/core/ast"
	"github.com/stencil-lang/stencil/core/invariant"
	"github.com/stencil-lang/stencil/core/value"
	"github.com/stencil-lang/stencil/runtime/environ"
)

// maxRepeatLen caps the result of string repetition.
const maxRepeatLen = 1 << 30

// Eval computes an expression against env. Operands evaluate left to
// right; `&&` and `||` evaluate both sides, so an unbound symbol on the
// right is an error even when the left side decides the outcome.
func Eval(e *ast.Expr, env *environ.Environ) (value.Value, error) {
	invariant.NotNil(e, "expr")
	invariant.NotNil(env, "env")

	var v value.Value
	switch e.Kind {
	case ast.ExprLiteral:
		v = e.Lit.Clone()
	case ast.ExprSymbol:
		bound, ok := env.Lookup(e.Symbol)
		if !ok {
			err := errorf(ErrSymbolNotFound, e.Pos, nil, "symbol %q not found", e.Symbol)
			err.Suggestion = suggestSymbol(e.Symbol, env)
			return value.Value{}, err
		}
		v = bound.Clone()
	case ast.ExprOp:
		var err error
		v, err = evalOp(e, env)
		if err != nil {
			return value.Value{}, err
		}
	}

	return applyIndexes(e, v, env)
}

// Bool projects a value to a boolean: nonempty arrays and strings,
// nonzero numbers. Projecting a filter is an InvalidOperand error.
func Bool(pos ast.Position, v value.Value) (bool, error) {
	b, err := v.Bool()
	if err != nil {
		return false, errorf(ErrInvalidOperand, pos, err, "%v", err)
	}
	return b, nil
}

// applyIndexes applies the node's index chain left to right. Each index
// must evaluate to a non-negative integer and the value under it must be
// an array with that position.
func applyIndexes(e *ast.Expr, v value.Value, env *environ.Environ) (value.Value, error) {
	for _, idxExpr := range e.Indexes {
		idx, err := Eval(idxExpr, env)
		if err != nil {
			return value.Value{}, err
		}
		if !idx.IsInt() {
			return value.Value{}, errorf(ErrInvalidOperand, idxExpr.Pos, nil, "index must be an integer, got a %s", idx.Kind())
		}
		if idx.Int() < 0 {
			return value.Value{}, errorf(ErrFailed, idxExpr.Pos, nil, "index must not be negative, got %d", idx.Int())
		}
		if !v.IsArray() {
			return value.Value{}, errorf(ErrInvalidOperand, idxExpr.Pos, nil, "cannot index a %s value", v.Kind())
		}
		elem, err := v.Index(int(idx.Int()))
		if err != nil {
			return value.Value{}, errorf(ErrFailed, idxExpr.Pos, err, "%v", err)
		}
		v = elem.Clone()
	}
	return v, nil
}

// evalOp evaluates a binary operator node, both operands first.
func evalOp(e *ast.Expr, env *environ.Environ) (value.Value, error) {
	// The filter pipe resolves its right side itself: the symbol must
	// name a filter, not be evaluated as a plain lookup-and-copy.
	if e.Op == ast.OpPipe {
		return evalPipe(e, env)
	}

	l, err := Eval(e.Left, env)
	if err != nil {
		return value.Value{}, err
	}
	r, err := Eval(e.Right, env)
	if err != nil {
		return value.Value{}, err
	}

	switch e.Op {
	case ast.OpPlus:
		return evalAdd(e.Pos, l, r)
	case ast.OpMinus:
		return evalSub(e.Pos, l, r)
	case ast.OpMul:
		return evalMul(e.Pos, l, r)
	case ast.OpDiv:
		return evalDiv(e.Pos, l, r)
	case ast.OpModulo:
		return evalModulo(e.Pos, l, r)
	case ast.OpEqual, ast.OpNEq, ast.OpInf, ast.OpSup, ast.OpInfEq, ast.OpSupEq:
		return evalCompare(e.Pos, e.Op, l, r)
	case ast.OpAnd, ast.OpOr:
		return evalLogic(e.Pos, e.Op, l, r)
	}
	return value.Value{}, errorf(ErrFailed, e.Pos, nil, "unknown operator %q", e.Op)
}

// evalPipe applies the filter named by the right-hand symbol to the
// left-hand value.
func evalPipe(e *ast.Expr, env *environ.Environ) (value.Value, error) {
	src, err := Eval(e.Left, env)
	if err != nil {
		return value.Value{}, err
	}
	if e.Right.Kind != ast.ExprSymbol {
		return value.Value{}, errorf(ErrInvalidOperand, e.Right.Pos, nil, "the right side of '|' must be a filter symbol")
	}
	bound, ok := env.Lookup(e.Right.Symbol)
	if !ok {
		fe := errorf(ErrSymbolNotFound, e.Right.Pos, nil, "filter %q not found", e.Right.Symbol)
		fe.Suggestion = suggestSymbol(e.Right.Symbol, env)
		return value.Value{}, fe
	}
	if !bound.IsFilter() {
		return value.Value{}, errorf(ErrInvalidOperand, e.Right.Pos, nil, "symbol %q is a %s, not a filter", e.Right.Symbol, bound.Kind())
	}
	out, err := bound.Filter().Fn(src, nil)
	if err != nil {
		return value.Value{}, errorf(ErrFailed, e.Pos, err, "filter %q failed: %v", e.Right.Symbol, err)
	}
	// Index chains on the pipe's right-hand node apply to the result.
	return applyIndexes(e.Right, out, env)
}

func evalAdd(pos ast.Position, l, r value.Value) (value.Value, error) {
	switch {
	case l.IsFilter() || r.IsFilter():
		return value.Value{}, errorf(ErrInvalidOperand, pos, nil, "cannot add a filter value")
	case l.IsArray():
		out := l.Clone()
		if r.IsArray() {
			for _, elem := range r.Array() {
				if err := out.Append(elem); err != nil {
					return value.Value{}, errorf(ErrFailed, pos, err, "%v", err)
				}
			}
			return out, nil
		}
		if err := out.Append(r); err != nil {
			return value.Value{}, errorf(ErrFailed, pos, err, "%v", err)
		}
		return out, nil
	case r.IsArray():
		out := value.Arr(l)
		for _, elem := range r.Array() {
			if err := out.Append(elem); err != nil {
				return value.Value{}, errorf(ErrFailed, pos, err, "%v", err)
			}
		}
		return out, nil
	case l.IsString() || r.IsString():
		ls, err := l.ToString()
		if err != nil {
			return value.Value{}, errorf(ErrInvalidOperand, pos, err, "%v", err)
		}
		rs, err := r.ToString()
		if err != nil {
			return value.Value{}, errorf(ErrInvalidOperand, pos, err, "%v", err)
		}
		return value.Str(ls + rs), nil
	case l.IsFloat() || r.IsFloat():
		return value.Float(l.Float() + r.Float()), nil
	default:
		return value.Int(l.Int() + r.Int()), nil
	}
}

func evalSub(pos ast.Position, l, r value.Value) (value.Value, error) {
	lf, err := toFloat(pos, l)
	if err != nil {
		return value.Value{}, err
	}
	rf, err := toFloat(pos, r)
	if err != nil {
		return value.Value{}, err
	}
	return value.Float(lf - rf), nil
}

func evalMul(pos ast.Position, l, r value.Value) (value.Value, error) {
	if l.IsArray() || r.IsArray() || l.IsFilter() || r.IsFilter() {
		return value.Value{}, errorf(ErrInvalidOperand, pos, nil, "cannot multiply %s and %s values", l.Kind(), r.Kind())
	}
	// String repetition: a string operand with an integer count.
	if l.IsString() || r.IsString() {
		str, count := l, r
		if r.IsString() {
			str, count = r, l
		}
		if !count.IsInt() {
			return value.Value{}, errorf(ErrInvalidOperand, pos, nil, "string repetition needs an integer count, got a %s", count.Kind())
		}
		return repeatString(pos, str.Str(), count.Int())
	}
	if l.IsFloat() || r.IsFloat() {
		return value.Float(l.Float() * r.Float()), nil
	}
	return value.Int(l.Int() * r.Int()), nil
}

func repeatString(pos ast.Position, s string, n int64) (value.Value, error) {
	if n < 1 || len(s) == 0 {
		return value.Str(""), nil
	}
	if n > maxRepeatLen || int64(len(s))*n > maxRepeatLen {
		return value.Value{}, errorf(ErrFailed, pos, nil, "string repetition result too large (%d x %d bytes)", n, len(s))
	}
	out := make([]byte, 0, int(n)*len(s))
	for i := int64(0); i < n; i++ {
		out = append(out, s...)
	}
	return value.Str(string(out)), nil
}

func evalDiv(pos ast.Position, l, r value.Value) (value.Value, error) {
	lf, err := toFloat(pos, l)
	if err != nil {
		return value.Value{}, err
	}
	rf, err := toFloat(pos, r)
	if err != nil {
		return value.Value{}, err
	}
	if value.AlmostEqual(rf, 0) {
		return value.Value{}, errorf(ErrFailed, pos, nil, "division by zero")
	}
	return value.Float(lf / rf), nil
}

func evalModulo(pos ast.Position, l, r value.Value) (value.Value, error) {
	li, err := toInt(pos, l)
	if err != nil {
		return value.Value{}, err
	}
	ri, err := toInt(pos, r)
	if err != nil {
		return value.Value{}, err
	}
	if ri == 0 {
		return value.Value{}, errorf(ErrFailed, pos, nil, "modulo by zero")
	}
	return value.Int(li % ri), nil
}

func evalCompare(pos ast.Position, op ast.Op, l, r value.Value) (value.Value, error) {
	c, err := l.Compare(r)
	if err != nil {
		return value.Value{}, errorf(ErrInvalidOperand, pos, err, "%v", err)
	}
	var out bool
	switch op {
	case ast.OpEqual:
		out = c == 0
	case ast.OpNEq:
		out = c != 0
	case ast.OpInf:
		out = c < 0
	case ast.OpSup:
		out = c > 0
	case ast.OpInfEq:
		out = c <= 0
	case ast.OpSupEq:
		out = c >= 0
	}
	return boolValue(out), nil
}

func evalLogic(pos ast.Position, op ast.Op, l, r value.Value) (value.Value, error) {
	lb, err := Bool(pos, l)
	if err != nil {
		return value.Value{}, err
	}
	rb, err := Bool(pos, r)
	if err != nil {
		return value.Value{}, err
	}
	if op == ast.OpAnd {
		return boolValue(lb && rb), nil
	}
	return boolValue(lb || rb), nil
}

func boolValue(b bool) value.Value {
	if b {
		return value.Int(1)
	}
	return value.Int(0)
}

// toFloat coerces an operand to float through the conversion rules, so
// numeric strings participate in subtraction and division.
func toFloat(pos ast.Position, v value.Value) (float64, error) {
	if v.IsFloat() {
		return v.Float(), nil
	}
	conv, err := v.Convert(value.KindFloat)
	if err != nil {
		return 0, errorf(ErrInvalidOperand, pos, err, "%v", err)
	}
	return conv.Float(), nil
}

// toInt coerces an operand to an integer through the conversion rules;
// fractional floats are rejected there.
func toInt(pos ast.Position, v value.Value) (int64, error) {
	if v.IsInt() {
		return v.Int(), nil
	}
	conv, err := v.Convert(value.KindInt)
	if err != nil {
		return 0, errorf(ErrInvalidOperand, pos, err, "%v", err)
	}
	return conv.Int(), nil
}

// suggestSymbol returns the bound symbol closest to name, or "".
func suggestSymbol(name string, env *environ.Environ) string {
	ranks := fuzzy.RankFindFold(name, env.Names())
	if len(ranks) == 0 {
		return ""
	}
	sort.Stable(ranks)
	return ranks[0].Target
}

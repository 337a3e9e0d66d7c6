// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package lowering

import (
	"go.luatran.dev/pkg/internal/luaast"
	"go.luatran.dev/pkg/internal/pyast"
)

func (c *Context) lowerExpressionList(exprs []luaast.Expression) ([]pyast.Expression, error) {
	out := make([]pyast.Expression, len(exprs))
	for i, e := range exprs {
		lowered, err := c.lowerExpression(e)
		if err != nil {
			return nil, err
		}
		out[i] = lowered
	}
	return out, nil
}

// lowerExpression dispatches on the Lua expression variant. Every case
// produces a [pyast.Expression]; an unhandled Go type is a fatal
// [UnknownNodeError].
func (c *Context) lowerExpression(e luaast.Expression) (pyast.Expression, error) {
	switch e := e.(type) {
	case nil:
		return pyast.NewConstant("None", pyast.KindOther), nil
	case *luaast.Nil:
		return pyast.NewConstant("None", pyast.KindOther), nil
	case *luaast.TrueExpr:
		return pyast.NewConstant("True", pyast.KindOther), nil
	case *luaast.FalseExpr:
		return pyast.NewConstant("False", pyast.KindOther), nil
	case *luaast.Number:
		return pyast.NewConstant(e.N, pyast.KindIntLiteral), nil
	case *luaast.String:
		return pyast.NewConstant(e.S, pyast.KindString), nil
	case *luaast.Varargs, *luaast.Dots:
		return pyast.NewStarred(pyast.NewName("args")), nil
	case *luaast.Name:
		return pyast.NewName(e.ID), nil
	case *luaast.Index:
		return c.lowerIndex(e)
	case *luaast.Table:
		return c.lowerTable(e)
	case *luaast.AnonymousFunction:
		return c.lowerAnonymousFunction(e)
	case *luaast.AriOpExpr:
		return c.lowerAriOp(e)
	case *luaast.BitOpExpr:
		return c.lowerBitOp(e)
	case *luaast.RelOpExpr:
		return c.lowerRelOp(e)
	case *luaast.LoOpExpr:
		return c.lowerLoOp(e)
	case *luaast.Concat:
		left, err := c.lowerExpression(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.lowerExpression(e.Right)
		if err != nil {
			return nil, err
		}
		return pyast.NewBinOp(pyast.OpAdd, left, right), nil
	case *luaast.UMinusOp:
		operand, err := c.lowerExpression(e.Operand)
		if err != nil {
			return nil, err
		}
		return pyast.NewUnaryOp(pyast.UnaryNeg, operand), nil
	case *luaast.UBNotOp:
		operand, err := c.lowerExpression(e.Operand)
		if err != nil {
			return nil, err
		}
		return pyast.NewUnaryOp(pyast.UnaryInvert, operand), nil
	case *luaast.ULNotOp:
		operand, err := c.lowerExpression(e.Operand)
		if err != nil {
			return nil, err
		}
		return pyast.NewUnaryOp(pyast.UnaryNot, operand), nil
	case *luaast.ULengthOP:
		operand, err := c.lowerExpression(e.Operand)
		if err != nil {
			return nil, err
		}
		return pyast.NewCall(pyast.NewName("len"), operand), nil
	case *luaast.Call:
		return c.lowerCall(e)
	case *luaast.Invoke:
		return c.lowerInvoke(e)
	default:
		return nil, &UnknownNodeError{Span: e.Span(), Kind: typeName(e)}
	}
}

func (c *Context) lowerIndex(e *luaast.Index) (pyast.Expression, error) {
	value, err := c.lowerExpression(e.Value)
	if err != nil {
		return nil, err
	}
	if e.Notation == luaast.DOT {
		key, ok := e.Idx.(*luaast.String)
		if !ok {
			// Parser only ever produces a String idx for DOT notation; a
			// non-string here indicates a malformed tree from a
			// hand-built test fixture.
			idx, err := c.lowerExpression(e.Idx)
			if err != nil {
				return nil, err
			}
			return pyast.NewSubscript(value, idx), nil
		}
		return pyast.NewAttribute(value, key.S), nil
	}
	idx, err := c.lowerExpression(e.Idx)
	if err != nil {
		return nil, err
	}
	return pyast.NewSubscript(value, idx), nil
}

// lowerTable maps a Table constructor to a List when every field is
// positional, otherwise to a Dict. A string-keyed field whose key is a
// bare Name has that name lifted to a string constant.
func (c *Context) lowerTable(e *luaast.Table) (pyast.Expression, error) {
	isList := true
	for _, f := range e.Fields {
		if f.Key != nil {
			isList = false
			break
		}
	}
	if isList {
		elts := make([]pyast.Expression, len(e.Fields))
		for i, f := range e.Fields {
			v, err := c.lowerExpression(f.Value)
			if err != nil {
				return nil, err
			}
			elts[i] = v
		}
		return pyast.NewList(elts...), nil
	}

	entries := make([]pyast.DictEntry, len(e.Fields))
	for i, f := range e.Fields {
		var key pyast.Expression
		if f.Key == nil {
			// Mixed list/map table: positional entries are keyed by their
			// 0-based index, the closest target-language analog of Lua's
			// implicit 1-based array part coexisting with named fields.
			key = pyast.NewConstant(itoa(i), pyast.KindIntLiteral)
		} else if name, ok := f.Key.(*luaast.Name); ok && !f.BetweenBrackets {
			key = pyast.NewConstant(name.ID, pyast.KindString)
		} else {
			k, err := c.lowerExpression(f.Key)
			if err != nil {
				return nil, err
			}
			key = k
		}
		v, err := c.lowerExpression(f.Value)
		if err != nil {
			return nil, err
		}
		entries[i] = pyast.DictEntry{Key: key, Value: v}
	}
	return pyast.NewDict(entries...), nil
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}

func (c *Context) lowerAriOp(e *luaast.AriOpExpr) (pyast.Expression, error) {
	left, err := c.lowerExpression(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.lowerExpression(e.Right)
	if err != nil {
		return nil, err
	}
	var op pyast.BinOpKind
	switch e.Op {
	case luaast.Add:
		op = pyast.OpAdd
	case luaast.Sub:
		op = pyast.OpSub
	case luaast.Mult:
		op = pyast.OpMul
	case luaast.FloatDiv:
		op = pyast.OpTrueDiv
	case luaast.FloorDiv:
		op = pyast.OpFloorDiv
	case luaast.Mod:
		op = pyast.OpMod
	case luaast.Expo:
		op = pyast.OpPow
	}
	return pyast.NewBinOp(op, left, right), nil
}

func (c *Context) lowerBitOp(e *luaast.BitOpExpr) (pyast.Expression, error) {
	left, err := c.lowerExpression(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.lowerExpression(e.Right)
	if err != nil {
		return nil, err
	}
	var op pyast.BinOpKind
	switch e.Op {
	case luaast.BAnd:
		op = pyast.OpBitAnd
	case luaast.BOr:
		op = pyast.OpBitOr
	case luaast.BXor:
		op = pyast.OpBitXor
	case luaast.ShiftL:
		op = pyast.OpShiftL
	case luaast.ShiftR:
		op = pyast.OpShiftR
	}
	return pyast.NewBinOp(op, left, right), nil
}

func (c *Context) lowerRelOp(e *luaast.RelOpExpr) (pyast.Expression, error) {
	left, err := c.lowerExpression(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.lowerExpression(e.Right)
	if err != nil {
		return nil, err
	}
	var op pyast.CompareOpKind
	switch e.Op {
	case luaast.Lt:
		op = pyast.CmpLt
	case luaast.Gt:
		op = pyast.CmpGt
	case luaast.LtE:
		op = pyast.CmpLtE
	case luaast.GtE:
		op = pyast.CmpGtE
	case luaast.Eq:
		op = pyast.CmpEq
	case luaast.NotEq:
		op = pyast.CmpNotEq
	}
	return pyast.NewCompare(left, op, right), nil
}

// lowerLoOp maps Lua's short-circuit `and`/`or`. `L or R` always becomes
// the ternary `L if L else R`, so L appears twice in the output and is
// evaluated twice when it is truthy; `L and R` maps directly to the
// target BoolOp.
func (c *Context) lowerLoOp(e *luaast.LoOpExpr) (pyast.Expression, error) {
	left, err := c.lowerExpression(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.lowerExpression(e.Right)
	if err != nil {
		return nil, err
	}
	if e.Op == luaast.OrLoOp {
		return pyast.NewIfExp(left, left, right), nil
	}
	return pyast.NewBoolOp(pyast.BoolAnd, left, right), nil
}

func (c *Context) lowerCall(e *luaast.Call) (pyast.Expression, error) {
	if req, ok := recognizeRequire(e); ok {
		return c.lowerRequireExpr(req)
	}
	fn, err := c.lowerExpression(e.Func)
	if err != nil {
		return nil, err
	}
	args, err := c.lowerExpressionList(e.Args)
	if err != nil {
		return nil, err
	}
	return pyast.NewCall(fn, args...), nil
}

// lowerInvoke maps `Source:Func(Args)` to `Call(Attribute(Source, Func),
// Args)`. If Func is "init" and Source names a known base class, rewrite
// to the superclass-initializer call; this recognition is performed
// inline because it needs the class map built up by earlier top-level
// statements.
func (c *Context) lowerInvoke(e *luaast.Invoke) (pyast.Expression, error) {
	if name, ok := nameOf(e.Source); ok {
		if _, isClass := c.classes[name]; isClass && e.Func == "init" {
			args, err := c.lowerExpressionList(e.Args)
			if err != nil {
				return nil, err
			}
			superCall := pyast.NewCall(pyast.NewName("super"))
			return pyast.NewCall(pyast.NewAttribute(superCall, ctorName), args...), nil
		}
	}
	source, err := c.lowerExpression(e.Source)
	if err != nil {
		return nil, err
	}
	args, err := c.lowerExpressionList(e.Args)
	if err != nil {
		return nil, err
	}
	return pyast.NewCall(pyast.NewAttribute(source, e.Func), args...), nil
}

// ctorName is the target language's canonical constructor method name.
const ctorName = "__init__"

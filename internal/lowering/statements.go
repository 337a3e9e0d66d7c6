// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package lowering

import (
	"fmt"

	"go.luatran.dev/pkg/internal/luaast"
	"go.luatran.dev/pkg/internal/pyast"
)

// lowerStatement dispatches on the Lua statement variant and returns the
// (possibly empty, possibly multi-statement) lowered sequence. Every
// variant has exactly one case; an unhandled Go type is a fatal
// [UnknownNodeError] (the dispatch table is exhaustive by construction: the
// default case is the only way to reach it).
func (c *Context) lowerStatement(s luaast.Statement) ([]pyast.Statement, error) {
	switch s := s.(type) {
	case *luaast.SemiColon:
		return nil, nil
	case *luaast.Break:
		return []pyast.Statement{&pyast.Break{}}, nil
	case *luaast.Return:
		return c.lowerReturn(s)
	case *luaast.Do:
		return c.lowerBlock(s.Body)
	case *luaast.While:
		return c.lowerWhile(s)
	case *luaast.Repeat:
		return c.lowerRepeat(s)
	case *luaast.If:
		stmt, err := c.lowerIf(s)
		if err != nil {
			return nil, err
		}
		return []pyast.Statement{stmt}, nil
	case *luaast.Fornum:
		return c.lowerFornum(s)
	case *luaast.Forin:
		return c.lowerForin(s)
	case *luaast.Label:
		return c.lowerLabel(s)
	case *luaast.Goto:
		return c.lowerGoto(s)
	case *luaast.Assign:
		return c.lowerAssign(s.Targets, s.Values, s.Span())
	case *luaast.LocalAssign:
		for _, t := range s.Targets {
			if n, ok := t.(*luaast.Name); ok {
				c.checkShadow(n.ID, s.Span())
			}
		}
		return c.lowerAssign(s.Targets, s.Values, s.Span())
	case *luaast.Function:
		return c.lowerFunction(s)
	case *luaast.LocalFunction:
		return c.lowerLocalFunction(s)
	case *luaast.Method:
		return c.lowerMethod(s)
	case *luaast.Call:
		e, err := c.lowerExpression(s)
		if err != nil {
			return nil, err
		}
		return []pyast.Statement{&pyast.Expr{Value: e}}, nil
	case *luaast.Invoke:
		e, err := c.lowerExpression(s)
		if err != nil {
			return nil, err
		}
		return []pyast.Statement{&pyast.Expr{Value: e}}, nil
	default:
		return nil, &UnknownNodeError{Span: s.Span(), Kind: typeName(s)}
	}
}

func (c *Context) lowerReturn(s *luaast.Return) ([]pyast.Statement, error) {
	if len(s.Values) == 0 {
		return []pyast.Statement{&pyast.Return{}}, nil
	}
	if len(s.Values) == 1 {
		v, err := c.lowerExpression(s.Values[0])
		if err != nil {
			return nil, err
		}
		return []pyast.Statement{&pyast.Return{Value: v}}, nil
	}
	vals, err := c.lowerExpressionList(s.Values)
	if err != nil {
		return nil, err
	}
	return []pyast.Statement{&pyast.Return{Value: pyast.NewTuple(vals...)}}, nil
}

func (c *Context) lowerWhile(s *luaast.While) ([]pyast.Statement, error) {
	test, err := c.lowerExpression(s.Test)
	if err != nil {
		return nil, err
	}
	c.loopDepth++
	body, err := c.lowerBlock(s.Body)
	c.loopDepth--
	if err != nil {
		return nil, err
	}
	return []pyast.Statement{&pyast.While{Test: test, Body: ensureNonEmpty(body)}}, nil
}

// lowerRepeat maps `repeat Body until Test` to `while True: Body; if Test:
// break`: Lua's repeat-until tests for termination, so the emitted if uses
// the same polarity, not its negation.
func (c *Context) lowerRepeat(s *luaast.Repeat) ([]pyast.Statement, error) {
	c.loopDepth++
	body, err := c.lowerBlock(s.Body)
	c.loopDepth--
	if err != nil {
		return nil, err
	}
	test, err := c.lowerExpression(s.Test)
	if err != nil {
		return nil, err
	}
	body = append(body, &pyast.If{Test: test, Body: []pyast.Statement{&pyast.Break{}}})
	trueConst := pyast.NewConstant("True", pyast.KindOther)
	return []pyast.Statement{&pyast.While{Test: trueConst, Body: ensureNonEmpty(body)}}, nil
}

func (c *Context) lowerIf(s *luaast.If) (pyast.Statement, error) {
	test, err := c.lowerExpression(s.Test)
	if err != nil {
		return nil, err
	}
	body, err := c.lowerBlock(s.Body)
	if err != nil {
		return nil, err
	}
	var orelse []pyast.Statement
	switch o := s.Orelse.(type) {
	case nil:
		// no else clause
	case *luaast.Block:
		orelse, err = c.lowerBlock(o)
		if err != nil {
			return nil, err
		}
	case *luaast.ElseIf:
		chained, err := c.lowerIf(&luaast.If{Test: o.Test, Body: o.Body, Orelse: o.Orelse})
		if err != nil {
			return nil, err
		}
		orelse = []pyast.Statement{chained}
	default:
		return nil, &UnknownNodeError{Span: s.Span(), Kind: typeName(s.Orelse)}
	}
	return &pyast.If{Test: test, Body: ensureNonEmpty(body), Orelse: orelse}, nil
}

// lowerFornum maps the numeric for loop onto target `for Target in
// range(start, stop+1[, step])`. The target language's range() is
// exclusive of its stop bound where Lua's is inclusive, so `+1` is added
// to the stop bound whatever the step is. That matches Lua's bounds for a
// positive integer step; for a negative step the emitted range ends before
// Lua's stop value is reached.
func (c *Context) lowerFornum(s *luaast.Fornum) ([]pyast.Statement, error) {
	start, err := c.lowerExpression(s.Start)
	if err != nil {
		return nil, err
	}
	stop, err := c.lowerExpression(s.Stop)
	if err != nil {
		return nil, err
	}
	stopInclusive := pyast.NewBinOp(pyast.OpAdd, stop, pyast.NewConstant("1", pyast.KindIntLiteral))
	rangeArgs := []pyast.Expression{start, stopInclusive}
	if s.Step != nil {
		step, err := c.lowerExpression(s.Step)
		if err != nil {
			return nil, err
		}
		rangeArgs = append(rangeArgs, step)
	}
	iter := pyast.NewCall(pyast.NewName("range"), rangeArgs...)
	c.loopDepth++
	body, err := c.lowerBlock(s.Body)
	c.loopDepth--
	if err != nil {
		return nil, err
	}
	target := pyast.NewName(s.Target.ID)
	return []pyast.Statement{&pyast.For{Target: target, Iter: iter, Body: ensureNonEmpty(body)}}, nil
}

// lowerForin maps the generic for loop onto target `for Target in Iter:
// Body`. Only the first iterator expression is kept: Lua's
// iterator/state/control triple collapses to the target's single iterable
// (the idiom rewriter further rewrites the ipairs/pairs special cases —
// see DESIGN.md for why that split is done there rather than here).
func (c *Context) lowerForin(s *luaast.Forin) ([]pyast.Statement, error) {
	var iterExpr luaast.Expression
	if len(s.Iter) > 0 {
		iterExpr = s.Iter[0]
	}
	iter, err := c.lowerExpression(iterExpr)
	if err != nil {
		return nil, err
	}
	var target pyast.Expression
	if len(s.Targets) == 1 {
		target = pyast.NewName(s.Targets[0].ID)
	} else {
		names := make([]pyast.Expression, len(s.Targets))
		for i, t := range s.Targets {
			names[i] = pyast.NewName(t.ID)
		}
		target = pyast.NewTuple(names...)
	}
	c.loopDepth++
	body, err := c.lowerBlock(s.Body)
	c.loopDepth--
	if err != nil {
		return nil, err
	}
	return []pyast.Statement{&pyast.For{Target: target, Iter: iter, Body: ensureNonEmpty(body)}}, nil
}

// lowerAssign handles both Assign and LocalAssign: the target language has
// no local/non-local distinction at statement-lowering level (scoping is
// resolved when the target language parses the emitted def), so both map
// to a plain [pyast.Assign]. A Constructor-shaped Assign is recognized
// here and registers a class instead of emitting an assignment statement.
func (c *Context) lowerAssign(targets []luaast.LValue, values []luaast.Expression, span luaast.Span) ([]pyast.Statement, error) {
	if stmt, ok, err := c.tryClassConstructor(targets, values, span); err != nil {
		return nil, err
	} else if ok {
		return stmt, nil
	}
	if stmt, ok := c.tryRequireImport(targets, values); ok {
		return stmt, nil
	}

	lowTargets := make([]pyast.Expression, len(targets))
	for i, t := range targets {
		e, err := c.lowerExpression(t)
		if err != nil {
			return nil, err
		}
		lowTargets[i] = e
	}

	var value pyast.Expression
	var err error
	if len(values) == 1 {
		value, err = c.lowerExpression(values[0])
	} else {
		vals, e2 := c.lowerExpressionList(values)
		err = e2
		if err == nil {
			value = pyast.NewTuple(vals...)
		}
	}
	if err != nil {
		return nil, err
	}

	if len(lowTargets) == 1 {
		return []pyast.Statement{&pyast.Assign{Targets: lowTargets, Value: value}}, nil
	}
	return []pyast.Statement{&pyast.Assign{Targets: []pyast.Expression{pyast.NewTuple(lowTargets...)}, Value: value}}, nil
}

func ensureNonEmpty(body []pyast.Statement) []pyast.Statement {
	if len(body) == 0 {
		return []pyast.Statement{&pyast.Pass{}}
	}
	return body
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}

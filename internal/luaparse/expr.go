// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package luaparse

import (
	"go.luatran.dev/pkg/internal/luaast"
	"go.luatran.dev/pkg/internal/lualex"
)

// priority mirrors internal/luacode's operatorPrecedence table: left/right
// binding power per binary operator, used for precedence-climbing parsing.
// Right < left marks a right-associative operator (Pow, Concat).
type priority struct{ left, right int }

var binaryPriority = map[lualex.TokenKind]priority{
	lualex.OrToken:       {1, 1},
	lualex.AndToken:      {2, 2},
	lualex.LessToken:     {3, 3},
	lualex.GreaterToken:  {3, 3},
	lualex.LessEqualToken:    {3, 3},
	lualex.GreaterEqualToken: {3, 3},
	lualex.NotEqualToken: {3, 3},
	lualex.EqualToken:    {3, 3},
	lualex.BitOrToken:    {4, 4},
	lualex.BitXorToken:   {5, 5},
	lualex.BitAndToken:   {6, 6},
	lualex.LShiftToken:   {7, 7},
	lualex.RShiftToken:   {7, 7},
	lualex.ConcatToken:   {9, 8},
	lualex.AddToken:      {10, 10},
	lualex.SubToken:      {10, 10},
	lualex.MulToken:      {11, 11},
	lualex.DivToken:      {11, 11},
	lualex.IntDivToken:   {11, 11},
	lualex.ModToken:      {11, 11},
	lualex.PowToken:      {14, 13},
}

const unaryPriority = 12

func (p *parser) expression() (luaast.Expression, error) {
	e, _, err := p.subExpression(0)
	return e, err
}

func (p *parser) expressionList() ([]luaast.Expression, error) {
	var list []luaast.Expression
	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	list = append(list, e)
	for {
		ok, err := p.accept(lualex.CommaToken)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, nil
}

func (p *parser) subExpression(limit int) (luaast.Expression, lualex.TokenKind, error) {
	var e luaast.Expression
	start := p.curr.Position
	if isUnaryOperatorToken(p.curr.Kind) {
		op := p.curr.Kind
		if err := p.advance(); err != nil {
			return nil, 0, err
		}
		operand, _, err := p.subExpression(unaryPriority)
		if err != nil {
			return nil, 0, err
		}
		e = applyUnary(op, operand, p.span(start))
	} else {
		var err error
		e, err = p.simpleExpression()
		if err != nil {
			return nil, 0, err
		}
	}

	op := p.curr.Kind
	pr, isBinary := binaryPriority[op]
	for isBinary && pr.left > limit {
		if err := p.advance(); err != nil {
			return nil, 0, err
		}
		rhs, nextOp, err := p.subExpression(pr.right)
		if err != nil {
			return nil, 0, err
		}
		e = applyBinary(op, e, rhs, p.span(start))
		op = nextOp
		pr, isBinary = binaryPriority[op]
	}
	return e, op, nil
}

func isUnaryOperatorToken(k lualex.TokenKind) bool {
	switch k {
	case lualex.NotToken, lualex.SubToken, lualex.LenToken, lualex.BitXorToken:
		return true
	default:
		return false
	}
}

func applyUnary(op lualex.TokenKind, operand luaast.Expression, sp luaast.Span) luaast.Expression {
	switch op {
	case lualex.NotToken:
		n := &luaast.ULNotOp{Operand: operand}
		n.WithSpan(sp)
		return n
	case lualex.SubToken:
		n := &luaast.UMinusOp{Operand: operand}
		n.WithSpan(sp)
		return n
	case lualex.LenToken:
		n := &luaast.ULengthOP{Operand: operand}
		n.WithSpan(sp)
		return n
	case lualex.BitXorToken:
		n := &luaast.UBNotOp{Operand: operand}
		n.WithSpan(sp)
		return n
	default:
		panic("not a unary operator")
	}
}

func applyBinary(op lualex.TokenKind, lhs, rhs luaast.Expression, sp luaast.Span) luaast.Expression {
	switch op {
	case lualex.AddToken:
		return ari(luaast.Add, lhs, rhs, sp)
	case lualex.SubToken:
		return ari(luaast.Sub, lhs, rhs, sp)
	case lualex.MulToken:
		return ari(luaast.Mult, lhs, rhs, sp)
	case lualex.DivToken:
		return ari(luaast.FloatDiv, lhs, rhs, sp)
	case lualex.IntDivToken:
		return ari(luaast.FloorDiv, lhs, rhs, sp)
	case lualex.ModToken:
		return ari(luaast.Mod, lhs, rhs, sp)
	case lualex.PowToken:
		return ari(luaast.Expo, lhs, rhs, sp)
	case lualex.BitAndToken:
		return bit(luaast.BAnd, lhs, rhs, sp)
	case lualex.BitOrToken:
		return bit(luaast.BOr, lhs, rhs, sp)
	case lualex.BitXorToken:
		return bit(luaast.BXor, lhs, rhs, sp)
	case lualex.LShiftToken:
		return bit(luaast.ShiftL, lhs, rhs, sp)
	case lualex.RShiftToken:
		return bit(luaast.ShiftR, lhs, rhs, sp)
	case lualex.LessToken:
		return rel(luaast.Lt, lhs, rhs, sp)
	case lualex.GreaterToken:
		return rel(luaast.Gt, lhs, rhs, sp)
	case lualex.LessEqualToken:
		return rel(luaast.LtE, lhs, rhs, sp)
	case lualex.GreaterEqualToken:
		return rel(luaast.GtE, lhs, rhs, sp)
	case lualex.EqualToken:
		return rel(luaast.Eq, lhs, rhs, sp)
	case lualex.NotEqualToken:
		return rel(luaast.NotEq, lhs, rhs, sp)
	case lualex.AndToken:
		n := &luaast.LoOpExpr{Op: luaast.AndLoOp, Left: lhs, Right: rhs}
		n.WithSpan(sp)
		return n
	case lualex.OrToken:
		n := &luaast.LoOpExpr{Op: luaast.OrLoOp, Left: lhs, Right: rhs}
		n.WithSpan(sp)
		return n
	case lualex.ConcatToken:
		n := &luaast.Concat{Left: lhs, Right: rhs}
		n.WithSpan(sp)
		return n
	default:
		panic("not a binary operator")
	}
}

func ari(op luaast.AriOp, lhs, rhs luaast.Expression, sp luaast.Span) luaast.Expression {
	n := &luaast.AriOpExpr{Op: op, Left: lhs, Right: rhs}
	n.WithSpan(sp)
	return n
}

func bit(op luaast.BitOp, lhs, rhs luaast.Expression, sp luaast.Span) luaast.Expression {
	n := &luaast.BitOpExpr{Op: op, Left: lhs, Right: rhs}
	n.WithSpan(sp)
	return n
}

func rel(op luaast.RelOp, lhs, rhs luaast.Expression, sp luaast.Span) luaast.Expression {
	n := &luaast.RelOpExpr{Op: op, Left: lhs, Right: rhs}
	n.WithSpan(sp)
	return n
}

// simpleExpression parses a literal, table constructor, anonymous function,
// or suffixed expression (name/index/call chain).
func (p *parser) simpleExpression() (luaast.Expression, error) {
	start := p.curr.Position
	switch p.curr.Kind {
	case lualex.NumeralToken:
		tok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		n := &luaast.Number{N: tok.Value}
		n.WithSpan(p.span(start))
		return n, nil
	case lualex.StringToken:
		tok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		n := &luaast.String{S: tok.Value, Delimiter: luaast.DoubleQuote}
		n.WithSpan(p.span(start))
		return n, nil
	case lualex.NilToken:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n := &luaast.Nil{}
		n.WithSpan(p.span(start))
		return n, nil
	case lualex.TrueToken:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n := &luaast.TrueExpr{}
		n.WithSpan(p.span(start))
		return n, nil
	case lualex.FalseToken:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n := &luaast.FalseExpr{}
		n.WithSpan(p.span(start))
		return n, nil
	case lualex.VarargToken:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n := &luaast.Varargs{}
		n.WithSpan(p.span(start))
		return n, nil
	case lualex.LBraceToken:
		return p.tableConstructor()
	case lualex.FunctionToken:
		if err := p.advance(); err != nil {
			return nil, err
		}
		args, body, err := p.functionBody()
		if err != nil {
			return nil, err
		}
		n := &luaast.AnonymousFunction{Args: args, Body: body}
		n.WithSpan(p.span(start))
		return n, nil
	default:
		return p.suffixedExpression()
	}
}

// suffixedExpression parses a prefixexp: Name | '(' expr ')', followed by
// any run of '.', '[', ':', or call-argument suffixes.
func (p *parser) suffixedExpression() (luaast.Expression, error) {
	start := p.curr.Position
	var e luaast.Expression
	switch p.curr.Kind {
	case lualex.LParenToken:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lualex.RParenToken); err != nil {
			return nil, err
		}
		e = inner
	case lualex.IdentifierToken:
		tok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		n := &luaast.Name{ID: tok.Value}
		n.WithSpan(p.span(start))
		e = n
	default:
		return nil, p.errorf("unexpected symbol %v", p.curr)
	}

	for {
		switch p.curr.Kind {
		case lualex.DotToken:
			if err := p.advance(); err != nil {
				return nil, err
			}
			tok, err := p.expect(lualex.IdentifierToken)
			if err != nil {
				return nil, err
			}
			idx := &luaast.String{S: tok.Value}
			idx.WithSpan(luaast.Span{Start: tok.Position, End: tok.Position})
			n := &luaast.Index{Value: e, Idx: idx, Notation: luaast.DOT}
			n.WithSpan(p.span(start))
			e = n
		case lualex.LBracketToken:
			if err := p.advance(); err != nil {
				return nil, err
			}
			idx, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lualex.RBracketToken); err != nil {
				return nil, err
			}
			n := &luaast.Index{Value: e, Idx: idx, Notation: luaast.SQUARE}
			n.WithSpan(p.span(start))
			e = n
		case lualex.ColonToken:
			if err := p.advance(); err != nil {
				return nil, err
			}
			tok, err := p.expect(lualex.IdentifierToken)
			if err != nil {
				return nil, err
			}
			args, err := p.callArgs()
			if err != nil {
				return nil, err
			}
			n := &luaast.Invoke{Source: e, Func: tok.Value, Args: args}
			n.WithSpan(p.span(start))
			e = n
		case lualex.LParenToken, lualex.StringToken, lualex.LBraceToken:
			args, err := p.callArgs()
			if err != nil {
				return nil, err
			}
			n := &luaast.Call{Func: e, Args: args}
			n.WithSpan(p.span(start))
			e = n
		default:
			return e, nil
		}
	}
}

func (p *parser) callArgs() ([]luaast.Expression, error) {
	switch p.curr.Kind {
	case lualex.StringToken:
		tok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		n := &luaast.String{S: tok.Value}
		n.WithSpan(luaast.Span{Start: tok.Position, End: tok.Position})
		return []luaast.Expression{n}, nil
	case lualex.LBraceToken:
		t, err := p.tableConstructor()
		if err != nil {
			return nil, err
		}
		return []luaast.Expression{t}, nil
	default:
		if _, err := p.expect(lualex.LParenToken); err != nil {
			return nil, err
		}
		if p.curr.Kind == lualex.RParenToken {
			if err := p.advance(); err != nil {
				return nil, err
			}
			return nil, nil
		}
		args, err := p.expressionList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lualex.RParenToken); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func (p *parser) tableConstructor() (luaast.Expression, error) {
	start := p.curr.Position
	if _, err := p.expect(lualex.LBraceToken); err != nil {
		return nil, err
	}
	var fields []luaast.Field
	for p.curr.Kind != lualex.RBraceToken {
		f, err := p.tableField()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
		if p.curr.Kind == lualex.CommaToken || p.curr.Kind == lualex.SemiToken {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(lualex.RBraceToken); err != nil {
		return nil, err
	}
	n := &luaast.Table{Fields: fields}
	n.WithSpan(p.span(start))
	return n, nil
}

func (p *parser) tableField() (luaast.Field, error) {
	switch {
	case p.curr.Kind == lualex.LBracketToken:
		if err := p.advance(); err != nil {
			return luaast.Field{}, err
		}
		key, err := p.expression()
		if err != nil {
			return luaast.Field{}, err
		}
		if _, err := p.expect(lualex.RBracketToken); err != nil {
			return luaast.Field{}, err
		}
		if _, err := p.expect(lualex.AssignToken); err != nil {
			return luaast.Field{}, err
		}
		value, err := p.expression()
		if err != nil {
			return luaast.Field{}, err
		}
		return luaast.Field{Key: key, Value: value, BetweenBrackets: true}, nil
	case p.curr.Kind == lualex.IdentifierToken:
		// Could be `name = value` or a positional expression starting with
		// a bare name; peek one token past it to disambiguate without
		// consuming curr.
		next, eof, err := p.peek()
		if err != nil {
			return luaast.Field{}, err
		}
		if !eof && next.Kind == lualex.AssignToken {
			name := p.curr
			if err := p.advance(); err != nil { // consume name
				return luaast.Field{}, err
			}
			if err := p.advance(); err != nil { // consume '='
				return luaast.Field{}, err
			}
			value, err := p.expression()
			if err != nil {
				return luaast.Field{}, err
			}
			key := &luaast.String{S: name.Value}
			key.WithSpan(luaast.Span{Start: name.Position, End: name.Position})
			return luaast.Field{Key: key, Value: value}, nil
		}
		value, err := p.expression()
		if err != nil {
			return luaast.Field{}, err
		}
		return luaast.Field{Value: value}, nil
	default:
		value, err := p.expression()
		if err != nil {
			return luaast.Field{}, err
		}
		return luaast.Field{Value: value}, nil
	}
}

// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

// Package luaparse is a recursive-descent parser that turns a Lua token
// stream into a [luaast] tree.
//
// The parser is an external collaborator to the translation core (the core
// takes a [*luaast.Chunk] as given); it is included here so the module is a
// complete, runnable pipeline rather than core logic plus an assumed input.
package luaparse

import (
	"errors"
	"fmt"
	"io"

	"go.luatran.dev/pkg/internal/luaast"
	"go.luatran.dev/pkg/internal/lualex"
)

// SyntaxError is returned for any malformed input. The core surfaces it
// unchanged.
type SyntaxError struct {
	Pos lualex.Position
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v: %s", e.Pos, e.Msg)
}

// Parse reads all of r as Lua source and returns the parsed chunk.
func Parse(r io.ByteScanner) (*luaast.Chunk, error) {
	p := &parser{sc: lualex.NewScanner(r)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	if p.curr.Kind != lualex.ErrorToken {
		return nil, p.errorf("unexpected %v", p.curr)
	}
	return &luaast.Chunk{Body: body}, nil
}

type parser struct {
	sc   *lualex.Scanner
	curr lualex.Token
	// atEOF is set once the underlying scanner reports io.EOF for curr.
	// curr then holds the zero Token, matching lualex's convention for end
	// of input.
	atEOF bool

	// One-token lookahead buffer, filled lazily by peek. Needed only to
	// disambiguate `name = value` from a bare positional expression inside
	// a table constructor.
	hasPeek  bool
	peekTok  lualex.Token
	peekEOF  bool
}

// scanOne reads one raw token from the scanner, translating io.EOF into the
// (zero Token, eof=true) convention used throughout this parser.
func (p *parser) scanOne() (lualex.Token, bool, error) {
	tok, err := p.sc.Scan()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return lualex.Token{}, true, nil
		}
		return lualex.Token{}, false, err
	}
	return tok, false, nil
}

func (p *parser) advance() error {
	if p.hasPeek {
		p.curr = p.peekTok
		p.atEOF = p.peekEOF
		p.hasPeek = false
		return nil
	}
	if p.atEOF {
		p.curr = lualex.Token{}
		return nil
	}
	tok, eof, err := p.scanOne()
	if err != nil {
		return err
	}
	p.curr, p.atEOF = tok, eof
	return nil
}

// peek returns the token following curr without consuming curr.
func (p *parser) peek() (lualex.Token, bool, error) {
	if p.hasPeek {
		return p.peekTok, p.peekEOF, nil
	}
	if p.atEOF {
		return lualex.Token{}, true, nil
	}
	tok, eof, err := p.scanOne()
	if err != nil {
		return lualex.Token{}, false, err
	}
	p.peekTok, p.peekEOF, p.hasPeek = tok, eof, true
	return tok, eof, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Pos: p.curr.Position, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) span(start lualex.Position) luaast.Span {
	return luaast.Span{Start: start, End: p.curr.Position}
}

func (p *parser) expect(kind lualex.TokenKind) (lualex.Token, error) {
	if p.curr.Kind != kind {
		return lualex.Token{}, p.errorf("expected %v, found %v", kind, p.curr)
	}
	tok := p.curr
	if err := p.advance(); err != nil {
		return lualex.Token{}, err
	}
	return tok, nil
}

func (p *parser) accept(kind lualex.TokenKind) (bool, error) {
	if p.curr.Kind != kind {
		return false, nil
	}
	return true, p.advance()
}

// ---- blocks & statements ----

func blockFollows(k lualex.TokenKind) bool {
	switch k {
	case lualex.ErrorToken, lualex.EndToken, lualex.ElseToken, lualex.ElseifToken, lualex.UntilToken:
		return true
	default:
		return false
	}
}

func (p *parser) block() (*luaast.Block, error) {
	start := p.curr.Position
	b := &luaast.Block{}
	for !blockFollows(p.curr.Kind) {
		if p.curr.Kind == lualex.ReturnToken {
			stmt, err := p.returnStatement()
			if err != nil {
				return nil, err
			}
			b.Body = append(b.Body, stmt)
			break
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			b.Body = append(b.Body, stmt)
		}
	}
	b.WithSpan(p.span(start))
	return b, nil
}

func (p *parser) statement() (luaast.Statement, error) {
	start := p.curr.Position
	switch p.curr.Kind {
	case lualex.SemiToken:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n := &luaast.SemiColon{}
		n.WithSpan(p.span(start))
		return n, nil
	case lualex.LabelToken:
		return p.labelStatement(start)
	case lualex.BreakToken:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n := &luaast.Break{}
		n.WithSpan(p.span(start))
		return n, nil
	case lualex.GotoToken:
		return p.gotoStatement(start)
	case lualex.DoToken:
		return p.doStatement(start)
	case lualex.WhileToken:
		return p.whileStatement(start)
	case lualex.RepeatToken:
		return p.repeatStatement(start)
	case lualex.IfToken:
		return p.ifStatement(start)
	case lualex.ForToken:
		return p.forStatement(start)
	case lualex.FunctionToken:
		return p.functionStatement(start)
	case lualex.LocalToken:
		return p.localStatement(start)
	default:
		return p.exprStatement(start)
	}
}

func (p *parser) labelStatement(start lualex.Position) (luaast.Statement, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	name, err := p.expect(lualex.IdentifierToken)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lualex.LabelToken); err != nil {
		return nil, err
	}
	n := &luaast.Label{ID: name.Value}
	n.WithSpan(p.span(start))
	return n, nil
}

func (p *parser) gotoStatement(start lualex.Position) (luaast.Statement, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	name, err := p.expect(lualex.IdentifierToken)
	if err != nil {
		return nil, err
	}
	n := &luaast.Goto{Label: name.Value}
	n.WithSpan(p.span(start))
	return n, nil
}

func (p *parser) doStatement(start lualex.Position) (luaast.Statement, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lualex.EndToken); err != nil {
		return nil, err
	}
	n := &luaast.Do{Body: body}
	n.WithSpan(p.span(start))
	return n, nil
}

func (p *parser) whileStatement(start lualex.Position) (luaast.Statement, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	test, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lualex.DoToken); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lualex.EndToken); err != nil {
		return nil, err
	}
	n := &luaast.While{Test: test, Body: body}
	n.WithSpan(p.span(start))
	return n, nil
}

func (p *parser) repeatStatement(start lualex.Position) (luaast.Statement, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lualex.UntilToken); err != nil {
		return nil, err
	}
	test, err := p.expression()
	if err != nil {
		return nil, err
	}
	n := &luaast.Repeat{Body: body, Test: test}
	n.WithSpan(p.span(start))
	return n, nil
}

func (p *parser) ifStatement(start lualex.Position) (luaast.Statement, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.ifClause(start)
}

// ifClause parses the part after "if" or "elseif" up to and including the
// matching "end", returning an *[luaast.If] (Orelse is nil, a *Block, or a
// chained *ElseIf).
func (p *parser) ifClause(start lualex.Position) (luaast.Statement, error) {
	test, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lualex.ThenToken); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	var orelse luaast.Statement
	switch p.curr.Kind {
	case lualex.ElseifToken:
		elseifStart := p.curr.Position
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.ifClause(elseifStart)
		if err != nil {
			return nil, err
		}
		asIf := inner.(*luaast.If)
		chained := &luaast.ElseIf{Test: asIf.Test, Body: asIf.Body, Orelse: asIf.Orelse}
		chained.WithSpan(asIf.Span())
		orelse = chained
		n := &luaast.If{Test: test, Body: body, Orelse: orelse}
		n.WithSpan(p.span(start))
		return n, nil
	case lualex.ElseToken:
		if err := p.advance(); err != nil {
			return nil, err
		}
		elseBody, err := p.block()
		if err != nil {
			return nil, err
		}
		orelse = elseBody
		if _, err := p.expect(lualex.EndToken); err != nil {
			return nil, err
		}
	default:
		if _, err := p.expect(lualex.EndToken); err != nil {
			return nil, err
		}
	}
	n := &luaast.If{Test: test, Body: body, Orelse: orelse}
	n.WithSpan(p.span(start))
	return n, nil
}

func (p *parser) forStatement(start lualex.Position) (luaast.Statement, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	firstTok, err := p.expect(lualex.IdentifierToken)
	if err != nil {
		return nil, err
	}
	first := luaast.Name{ID: firstTok.Value}
	first.WithSpan(luaast.Span{Start: firstTok.Position, End: firstTok.Position})

	if p.curr.Kind == lualex.AssignToken {
		return p.fornumStatement(start, first)
	}
	return p.forinStatement(start, first)
}

func (p *parser) fornumStatement(start lualex.Position, target luaast.Name) (luaast.Statement, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	from, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lualex.CommaToken); err != nil {
		return nil, err
	}
	to, err := p.expression()
	if err != nil {
		return nil, err
	}
	var step luaast.Expression
	if ok, err := p.accept(lualex.CommaToken); err != nil {
		return nil, err
	} else if ok {
		step, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lualex.DoToken); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lualex.EndToken); err != nil {
		return nil, err
	}
	n := &luaast.Fornum{Target: target, Start: from, Stop: to, Step: step, Body: body}
	n.WithSpan(p.span(start))
	return n, nil
}

func (p *parser) forinStatement(start lualex.Position, first luaast.Name) (luaast.Statement, error) {
	targets := []luaast.Name{first}
	for {
		ok, err := p.accept(lualex.CommaToken)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		tok, err := p.expect(lualex.IdentifierToken)
		if err != nil {
			return nil, err
		}
		name := luaast.Name{ID: tok.Value}
		name.WithSpan(luaast.Span{Start: tok.Position, End: tok.Position})
		targets = append(targets, name)
	}
	if _, err := p.expect(lualex.InToken); err != nil {
		return nil, err
	}
	var iter []luaast.Expression
	for {
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		iter = append(iter, e)
		ok, err := p.accept(lualex.CommaToken)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
	}
	if _, err := p.expect(lualex.DoToken); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lualex.EndToken); err != nil {
		return nil, err
	}
	n := &luaast.Forin{Targets: targets, Iter: iter, Body: body}
	n.WithSpan(p.span(start))
	return n, nil
}

func (p *parser) functionStatement(start lualex.Position) (luaast.Statement, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	nameStart := p.curr.Position
	first, err := p.expect(lualex.IdentifierToken)
	if err != nil {
		return nil, err
	}
	path := []string{first.Value}
	isMethod := false
	var methodName string
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
			path = append(path, tok.Value)
		case lualex.ColonToken:
			if err := p.advance(); err != nil {
				return nil, err
			}
			tok, err := p.expect(lualex.IdentifierToken)
			if err != nil {
				return nil, err
			}
			methodName = tok.Value
			isMethod = true
		}
		if isMethod || !(p.curr.Kind == lualex.DotToken || p.curr.Kind == lualex.ColonToken) {
			break
		}
	}

	args, body, err := p.functionBody()
	if err != nil {
		return nil, err
	}
	if isMethod {
		source := path[len(path)-1]
		n := &luaast.Method{Source: source, Name: methodName, Args: args, Body: body}
		n.WithSpan(p.span(start))
		return n, nil
	}
	fname := &luaast.FunctionName{Path: path}
	fname.WithSpan(luaast.Span{Start: nameStart, End: nameStart})
	n := &luaast.Function{Name: fname, Args: args, Body: body}
	n.WithSpan(p.span(start))
	return n, nil
}

func (p *parser) localStatement(start lualex.Position) (luaast.Statement, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if ok, err := p.accept(lualex.FunctionToken); err != nil {
		return nil, err
	} else if ok {
		tok, err := p.expect(lualex.IdentifierToken)
		if err != nil {
			return nil, err
		}
		args, body, err := p.functionBody()
		if err != nil {
			return nil, err
		}
		n := &luaast.LocalFunction{Name: tok.Value, Args: args, Body: body}
		n.WithSpan(p.span(start))
		return n, nil
	}

	var targets []luaast.LValue
	for {
		tok, err := p.expect(lualex.IdentifierToken)
		if err != nil {
			return nil, err
		}
		name := &luaast.Name{ID: tok.Value}
		name.WithSpan(luaast.Span{Start: tok.Position, End: tok.Position})
		targets = append(targets, name)
		// Lua also allows an "<attrib>" annotation here (<const>/<close>);
		// the target language has no equivalent, so it is accepted and
		// discarded rather than rejected.
		if ok, err := p.accept(lualex.LessToken); err != nil {
			return nil, err
		} else if ok {
			if _, err := p.expect(lualex.IdentifierToken); err != nil {
				return nil, err
			}
			if _, err := p.expect(lualex.GreaterToken); err != nil {
				return nil, err
			}
		}
		ok, err := p.accept(lualex.CommaToken)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
	}
	var values []luaast.Expression
	if ok, err := p.accept(lualex.AssignToken); err != nil {
		return nil, err
	} else if ok {
		values, err = p.expressionList()
		if err != nil {
			return nil, err
		}
	}
	n := &luaast.LocalAssign{Targets: targets, Values: values}
	n.WithSpan(p.span(start))
	return n, nil
}

func (p *parser) returnStatement() (luaast.Statement, error) {
	start := p.curr.Position
	if err := p.advance(); err != nil {
		return nil, err
	}
	var values []luaast.Expression
	if !blockFollows(p.curr.Kind) && p.curr.Kind != lualex.SemiToken {
		var err error
		values, err = p.expressionList()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.accept(lualex.SemiToken); err != nil {
		return nil, err
	}
	n := &luaast.Return{Values: values}
	n.WithSpan(p.span(start))
	return n, nil
}

// exprStatement parses an assignment or a bare call/invoke statement.
func (p *parser) exprStatement(start lualex.Position) (luaast.Statement, error) {
	first, err := p.suffixedExpression()
	if err != nil {
		return nil, err
	}
	if p.curr.Kind != lualex.AssignToken && p.curr.Kind != lualex.CommaToken {
		switch first.(type) {
		case *luaast.Call, *luaast.Invoke:
			stmt, _ := toStatement(first)
			return stmt, nil
		default:
			return nil, p.errorf("syntax error (expression used as statement)")
		}
	}

	targets := []luaast.LValue{mustLValue(first)}
	for p.curr.Kind == lualex.CommaToken {
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.suffixedExpression()
		if err != nil {
			return nil, err
		}
		targets = append(targets, mustLValue(next))
	}
	if _, err := p.expect(lualex.AssignToken); err != nil {
		return nil, err
	}
	values, err := p.expressionList()
	if err != nil {
		return nil, err
	}
	n := &luaast.Assign{Targets: targets, Values: values}
	n.WithSpan(p.span(start))
	return n, nil
}

func mustLValue(e luaast.Expression) luaast.LValue {
	lv, ok := e.(luaast.LValue)
	if !ok {
		panic("syntax error: not assignable")
	}
	return lv
}

// toStatement re-tags a Call/Invoke expression node as a statement. Both
// types implement luaStatement() directly, so this is a type assertion,
// not a conversion.
func toStatement(e luaast.Expression) (luaast.Statement, bool) {
	s, ok := e.(luaast.Statement)
	return s, ok
}

func (p *parser) functionBody() ([]luaast.Name, *luaast.Block, error) {
	if _, err := p.expect(lualex.LParenToken); err != nil {
		return nil, nil, err
	}
	var args []luaast.Name
	if p.curr.Kind != lualex.RParenToken {
		for {
			if p.curr.Kind == lualex.VarargToken {
				if err := p.advance(); err != nil {
					return nil, nil, err
				}
				name := luaast.Name{ID: "..."}
				args = append(args, name)
				break
			}
			tok, err := p.expect(lualex.IdentifierToken)
			if err != nil {
				return nil, nil, err
			}
			name := luaast.Name{ID: tok.Value}
			name.WithSpan(luaast.Span{Start: tok.Position, End: tok.Position})
			args = append(args, name)
			ok, err := p.accept(lualex.CommaToken)
			if err != nil {
				return nil, nil, err
			}
			if !ok {
				break
			}
		}
	}
	if _, err := p.expect(lualex.RParenToken); err != nil {
		return nil, nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, nil, err
	}
	if _, err := p.expect(lualex.EndToken); err != nil {
		return nil, nil, err
	}
	return args, body, nil
}

// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package lowering

import (
	"fmt"
	"strings"

	"go.luatran.dev/pkg/internal/luaast"
	"go.luatran.dev/pkg/internal/pyast"
	"go.luatran.dev/pkg/internal/unparse"
)

func paramsOf(names []luaast.Name) []pyast.Param {
	params := make([]pyast.Param, len(names))
	for i, n := range names {
		params[i] = pyast.Param{Name: n.ID}
	}
	return params
}

// lowerFunction maps `function Path() Body end`. A
// single-segment Path becomes an ordinary FunctionDef; a dotted path has no
// direct equivalent (the target language has no `def a.b.c():` form), so
// the body is hoisted under a synthetic name and bound to the attribute
// path with a trailing Assign.
func (c *Context) lowerFunction(s *luaast.Function) ([]pyast.Statement, error) {
	c.checkShadowNames(s.Args, s.Span())
	body, err := c.lowerFunctionBody(s.Args, s.Body)
	if err != nil {
		return nil, err
	}
	if len(s.Name.Path) == 1 {
		return []pyast.Statement{&pyast.FunctionDef{Name: s.Name.Path[0], Args: pyast.Arguments{Positional: paramsOf(s.Args)}, Body: body}}, nil
	}

	defName := strings.Join(s.Name.Path, "_")
	def := &pyast.FunctionDef{Name: defName, Args: pyast.Arguments{Positional: paramsOf(s.Args)}, Body: body}

	var target pyast.Expression = pyast.NewName(s.Name.Path[0])
	for _, seg := range s.Name.Path[1:] {
		target = pyast.NewAttribute(target, seg)
	}
	assign := &pyast.Assign{Targets: []pyast.Expression{target}, Value: pyast.NewName(defName)}
	return []pyast.Statement{def, assign}, nil
}

func (c *Context) lowerLocalFunction(s *luaast.LocalFunction) ([]pyast.Statement, error) {
	c.checkShadow(s.Name, s.Span())
	c.checkShadowNames(s.Args, s.Span())
	body, err := c.lowerFunctionBody(s.Args, s.Body)
	if err != nil {
		return nil, err
	}
	return []pyast.Statement{&pyast.FunctionDef{Name: s.Name, Args: pyast.Arguments{Positional: paramsOf(s.Args)}, Body: body}}, nil
}

// lowerMethod handles `function Source:Name(Args) Body end`: Args gets an
// implicit leading `self`, and the definition is queued rather than
// emitted directly, since its final placement (inside Source's class
// body, or as an orphaned top-level function) isn't known until
// drainPending runs.
func (c *Context) lowerMethod(s *luaast.Method) ([]pyast.Statement, error) {
	c.checkShadowNames(s.Args, s.Span())
	body, err := c.lowerFunctionBody(s.Args, s.Body)
	if err != nil {
		return nil, err
	}
	params := append([]pyast.Param{{Name: "self"}}, paramsOf(s.Args)...)
	isInit := s.Name == "init"
	name := s.Name
	if isInit {
		name = ctorName
	}
	def := &pyast.FunctionDef{Name: name, Args: pyast.Arguments{Positional: params}, Body: body}
	c.queueMethod(s.Source, isInit, def, s.Span())
	return nil, nil
}

// lowerFunctionBody lowers a function/method body in its own hoisting
// scope, so a nested anonymous function hoists to the top of this body
// rather than leaking into the enclosing scope.
func (c *Context) lowerFunctionBody(args []luaast.Name, b *luaast.Block) ([]pyast.Statement, error) {
	c.pushScope()
	body, err := c.lowerBlock(b)
	if err != nil {
		c.popScope()
		return nil, err
	}
	hoisted := c.popScope()
	return ensureNonEmpty(append(hoisted, body...)), nil
}

// lowerAnonymousFunction hoists an anonymous function into a named
// definition at the top of the enclosing scope, returning a reference to
// it. Structurally identical anonymous functions already hoisted in the
// same scope are deduplicated by signature rather than re-hoisted.
func (c *Context) lowerAnonymousFunction(e *luaast.AnonymousFunction) (pyast.Expression, error) {
	params := paramsOf(e.Args)
	c.pushScope()
	body, err := c.lowerBlock(e.Body)
	if err != nil {
		c.popScope()
		return nil, err
	}
	hoisted := c.popScope()
	fullBody := ensureNonEmpty(append(hoisted, body...))

	sig := lambdaSignature(params, fullBody)
	outer := c.currentScope()
	if name, ok := outer.seen[sig]; ok {
		return pyast.NewName(name), nil
	}

	c.lambdaCounter++
	name := fmt.Sprintf("lambda%d", c.lambdaCounter)
	if _, clash := outer.seen[name]; clash {
		name += "_" + c.idGen()
	}
	def := &pyast.FunctionDef{Name: name, Args: pyast.Arguments{Positional: params}, Body: fullBody}
	outer.head = append(outer.head, def)
	outer.seen[sig] = name
	return pyast.NewName(name), nil
}

// lambdaSignature produces a fingerprint of a hoisted function's
// parameters and body for deduplication purposes: the unparsed source text
// of the function, so two independently built but structurally equal
// bodies share a signature. A body the unparser rejects is keyed by the
// address of its statement slice, which no other body shares.
func lambdaSignature(params []pyast.Param, body []pyast.Statement) string {
	def := &pyast.FunctionDef{Args: pyast.Arguments{Positional: params}, Body: body}
	src, err := unparse.Module(&pyast.Module{Body: []pyast.Statement{def}})
	if err != nil {
		return fmt.Sprintf("%p", body)
	}
	return src
}

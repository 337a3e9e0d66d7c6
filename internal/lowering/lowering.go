// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

// Package lowering implements the AST-to-AST lowering engine: it turns a
// [luaast.Chunk] into a [pyast.Module], synthesizing classes from the Lua
// extend/metatable idiom, hoisting anonymous functions into named
// definitions, and resolving method-vs-function call shapes.
package lowering

import (
	"fmt"

	"github.com/google/uuid"

	"go.luatran.dev/pkg/internal/luaast"
	"go.luatran.dev/pkg/internal/pyast"
)

// WarningCategory names one of the recoverable diagnostic categories.
type WarningCategory string

const (
	// MalformedClassPattern is a Constructor-shaped assignment whose RHS
	// does not resolve to a named base.
	MalformedClassPattern WarningCategory = "MalformedClassPattern"
	// UnresolvedMethodOwner is a Method/Initializer whose source does not
	// match any declared class.
	UnresolvedMethodOwner WarningCategory = "UnresolvedMethodOwner"
	// ShadowedBuiltin is a local that shadows a Lua global or builtin
	// name; it is a non-fatal diagnostic surfaced only at -v and never
	// escalated by --strict.
	ShadowedBuiltin WarningCategory = "ShadowedBuiltin"
	// UnstructuredGoto is a goto whose target cannot be expressed as the
	// structured `continue` idiom (see DESIGN.md): only a goto reachable
	// from inside a loop is rewritten; anything else degrades to a no-op.
	UnstructuredGoto WarningCategory = "UnstructuredGoto"
)

// Warning is a recoverable diagnostic collected during lowering. Unlike a
// fatal error, a Warning never aborts lowering; in strict mode, the root
// package's TranslateAST and the CLI turn any warning other than
// ShadowedBuiltin into an error.
type Warning struct {
	Category WarningCategory
	Span     luaast.Span
	Message  string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Category, w.Message)
}

// UnknownNodeError reports a Lua AST variant with no registered lowering
// handler. It is always fatal.
type UnknownNodeError struct {
	Span luaast.Span
	Kind string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("%v: no lowering handler for %s", e.Span.Start, e.Kind)
}

// pendingMethod is a Method or Initializer not yet reattached to its
// class.
type pendingMethod struct {
	owner string // the "source" the method was declared against
	isInit bool
	def    *pyast.FunctionDef
	span   luaast.Span
}

// scope is one entry of the hoisting stack: the statement slice that a
// hoisted lambda or label function should be prepended to, plus a dedup
// cache of signatures already hoisted in this scope.
type scope struct {
	head []pyast.Statement // hoisted definitions in discovery order; returned by popScope
	seen map[string]string // signature -> already-hoisted function name
}

// Context carries all per-invocation lowering state: no package-level
// mutable state exists anywhere in this package.
type Context struct {
	Strict bool // promote-warnings-to-errors is decided by the caller; Context only records them

	classes  map[string]*pyast.ClassDef
	pending  []pendingMethod
	warnings []Warning

	lambdaCounter int
	labelCounter  int
	loopDepth     int
	scopes        []*scope

	// idGen produces the collision-proof suffix appended to a hoisted name
	// when the obvious name (lambda1, goto_foo) is already taken in scope.
	idGen func() string
}

// NewContext returns a fresh, empty lowering context.
func NewContext() *Context {
	return &Context{
		classes: make(map[string]*pyast.ClassDef),
		idGen: func() string {
			return uuid.New().String()[:8]
		},
	}
}

// Warnings returns the recoverable diagnostics collected so far.
func (c *Context) Warnings() []Warning { return c.warnings }

func (c *Context) warn(cat WarningCategory, span luaast.Span, format string, args ...any) {
	c.warnings = append(c.warnings, Warning{Category: cat, Span: span, Message: fmt.Sprintf(format, args...)})
}

// pushScope begins tracking a new hoisting scope; each call must be paired
// (in LIFO order) with a popScope that returns the scope's hoisted
// definitions.
func (c *Context) pushScope() {
	c.scopes = append(c.scopes, &scope{seen: make(map[string]string)})
}

// currentScope returns the innermost hoisting scope.
func (c *Context) currentScope() *scope {
	return c.scopes[len(c.scopes)-1]
}

// popScope ends the innermost hoisting scope and returns its accumulated
// hoisted definitions in discovery order, to be prepended to the caller's
// body: hoists are inserted at the head of the scope in discovery order.
func (c *Context) popScope() []pyast.Statement {
	s := c.scopes[len(c.scopes)-1]
	c.scopes = c.scopes[:len(c.scopes)-1]
	return s.head
}

// Lower converts a parsed Lua chunk into a target module. The returned
// module's body is the chunk-level hoisted definitions, then the top-level
// statements (with class methods already spliced into their ClassDefs),
// then any methods whose owner class was never declared; see LowerChunk
// for the phases.
func Lower(chunk *luaast.Chunk) (*pyast.Module, []Warning, error) {
	ctx := NewContext()
	mod, err := ctx.LowerChunk(chunk)
	if err != nil {
		return nil, ctx.warnings, err
	}
	return mod, ctx.warnings, nil
}

// LowerChunk runs the full two-phase lowering: phase 1 lowers top-level
// statements, registering classes and queuing methods; phase 2 drains the
// pending-methods list into each class's body, then phase 3 flushes any
// lambdas/label-functions hoisted into the chunk-level scope.
func (c *Context) LowerChunk(chunk *luaast.Chunk) (*pyast.Module, error) {
	c.pushScope()
	body, err := c.lowerStatements(chunk.Body.Body)
	if err != nil {
		return nil, err
	}
	orphans := c.drainPending()
	hoisted := c.popScope()
	body = append(body, orphans...)
	return &pyast.Module{Body: append(hoisted, body...)}, nil
}

// drainPending implements the class-method reattachment state machine:
// every pendingMethod whose owner resolves in c.classes has its super
// calls rewritten and is spliced into the class body; a method whose
// owner never resolves to a declared class produces a recoverable
// [UnresolvedMethodOwner] warning and is instead returned so the caller
// can emit it as a top-level function definition.
func (c *Context) drainPending() []pyast.Statement {
	var orphans []pyast.Statement
	for _, pm := range c.pending {
		cls, ok := c.classes[pm.owner]
		if !ok {
			c.warn(UnresolvedMethodOwner, pm.span, "method %q declared against unknown class %q; emitted as a top-level function", pm.def.Name, pm.owner)
			orphans = append(orphans, pm.def)
			continue
		}
		c.rewriteSuperCalls(pm.def, cls)
		cls.Body = append(cls.Body, pm.def)
	}
	return orphans
}

// lowerStatements lowers a Lua block's statements in order. Constructor and
// Require shapes are recognized inline, node by node, rather than in a
// separate whole-tree pass; ipairs/pairs loops are left to the idiom
// rewriter.
func (c *Context) lowerStatements(stmts []luaast.Statement) ([]pyast.Statement, error) {
	var out []pyast.Statement
	for _, s := range stmts {
		lowered, err := c.lowerStatement(s)
		if err != nil {
			return nil, err
		}
		out = append(out, lowered...)
	}
	return out, nil
}

// lowerBlock lowers a nested *luaast.Block, unwrapping Do.
func (c *Context) lowerBlock(b *luaast.Block) ([]pyast.Statement, error) {
	if b == nil {
		return nil, nil
	}
	return c.lowerStatements(b.Body)
}

func nameOf(e luaast.Expression) (string, bool) {
	n, ok := e.(*luaast.Name)
	if !ok {
		return "", false
	}
	return n.ID, true
}

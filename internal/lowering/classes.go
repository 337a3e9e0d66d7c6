// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package lowering

import (
	"strings"

	"go.luatran.dev/pkg/internal/luaast"
	"go.luatran.dev/pkg/internal/pyast"
)

// objectBase is the root sentinel of the extend idiom: it is never
// rewritten and never listed as a base.
const objectBase = "Object"

// tryClassConstructor recognizes the Constructor pattern: an
// Assign/LocalAssign of the shape `Cls = Base:extend()`. On match,
// it registers cls in c.classes and returns the single [pyast.ClassDef]
// statement (initially with an empty body; methods are spliced in later by
// drainPending).
func (c *Context) tryClassConstructor(targets []luaast.LValue, values []luaast.Expression, span luaast.Span) ([]pyast.Statement, bool, error) {
	if len(targets) != 1 || len(values) != 1 {
		return nil, false, nil
	}
	name, ok := targets[0].(*luaast.Name)
	if !ok {
		return nil, false, nil
	}
	invoke, ok := values[0].(*luaast.Invoke)
	if !ok || invoke.Func != "extend" {
		return nil, false, nil
	}

	var bases []string
	if baseName, ok := nameOf(invoke.Source); ok {
		if baseName != objectBase {
			bases = []string{baseName}
		}
	} else {
		c.warn(MalformedClassPattern, span, "class %q: extend() base does not resolve to a bare name; emitting class with no bases", name.ID)
	}

	cls := &pyast.ClassDef{Name: name.ID, Bases: bases}
	c.classes[name.ID] = cls
	return []pyast.Statement{cls}, true, nil
}

// queueMethod registers a parsed Method/Initializer to be reattached once
// drainPending runs.
func (c *Context) queueMethod(owner string, isInit bool, def *pyast.FunctionDef, span luaast.Span) {
	c.pending = append(c.pending, pendingMethod{owner: owner, isInit: isInit, def: def, span: span})
}

// rewriteSuperCalls walks a reattached method's body, rewriting calls of
// the form `Base.init(self, args)` or `Base:method(args)` — lowered to
// `Base.init(self, args)` / `Base.method(args)` calls by
// lowerCall/lowerInvoke — into `super().__init__(args)` /
// `super().method(args)` when Base is one of cls's bases; a leading
// `self` argument, when present, is dropped.
//
// `Base:init(...)` (colon syntax) is rewritten at expression-lowering time
// in lowerInvoke, since by the time a method body is lowered the
// surrounding class is already registered in c.classes; for init, this
// pass catches the dotted-call spelling `Base.init(self, ...)`, which
// lowers to an ordinary Call(Attribute(Name(Base), "init"), [self, ...]).
func (c *Context) rewriteSuperCalls(def *pyast.FunctionDef, cls *pyast.ClassDef) {
	bases := make(map[string]bool, len(cls.Bases))
	for _, b := range cls.Bases {
		bases[b] = true
	}
	def.Body = rewriteSuperStatements(def.Body, bases)
}

func rewriteSuperStatements(stmts []pyast.Statement, bases map[string]bool) []pyast.Statement {
	for i, s := range stmts {
		stmts[i] = rewriteSuperStatement(s, bases)
	}
	return stmts
}

func rewriteSuperStatement(s pyast.Statement, bases map[string]bool) pyast.Statement {
	switch s := s.(type) {
	case *pyast.Expr:
		s.Value = rewriteSuperExpr(s.Value, bases)
	case *pyast.Assign:
		s.Value = rewriteSuperExpr(s.Value, bases)
		for i, t := range s.Targets {
			s.Targets[i] = rewriteSuperExpr(t, bases)
		}
	case *pyast.Return:
		if s.Value != nil {
			s.Value = rewriteSuperExpr(s.Value, bases)
		}
	case *pyast.If:
		s.Test = rewriteSuperExpr(s.Test, bases)
		s.Body = rewriteSuperStatements(s.Body, bases)
		s.Orelse = rewriteSuperStatements(s.Orelse, bases)
	case *pyast.For:
		s.Iter = rewriteSuperExpr(s.Iter, bases)
		s.Body = rewriteSuperStatements(s.Body, bases)
	case *pyast.While:
		s.Test = rewriteSuperExpr(s.Test, bases)
		s.Body = rewriteSuperStatements(s.Body, bases)
	case *pyast.FunctionDef:
		s.Body = rewriteSuperStatements(s.Body, bases)
	}
	return s
}

func rewriteSuperExpr(e pyast.Expression, bases map[string]bool) pyast.Expression {
	if e == nil {
		return nil
	}
	call, ok := e.(*pyast.Call)
	if !ok {
		return e
	}
	if attr, ok := call.Func.(*pyast.Attribute); ok {
		if base, ok := attr.Value.(*pyast.Name); ok && bases[base.ID] {
			methodName := attr.Attr
			args := call.Args
			if methodName == "init" {
				methodName = ctorName
			}
			// Drop the explicit leading `self` argument: super().m(...)
			// does not repeat it the way Base.m(self, ...) must.
			if len(args) > 0 {
				if n, ok := args[0].(*pyast.Name); ok && n.ID == "self" {
					args = args[1:]
				}
			}
			superCall := pyast.NewCall(pyast.NewName("super"))
			return pyast.NewCall(pyast.NewAttribute(superCall, methodName), args...)
		}
	}
	// Recurse into common nested-expression positions so a super-call
	// buried in e.g. a boolean expression is still found.
	switch e := e.(type) {
	case *pyast.Call:
		for i, a := range e.Args {
			e.Args[i] = rewriteSuperExpr(a, bases)
		}
	case *pyast.BinOp:
		e.Left = rewriteSuperExpr(e.Left, bases)
		e.Right = rewriteSuperExpr(e.Right, bases)
	case *pyast.BoolOp:
		e.Left = rewriteSuperExpr(e.Left, bases)
		e.Right = rewriteSuperExpr(e.Right, bases)
	}
	return e
}

// recognizeRequire matches a Call to `require` with string-literal
// arguments.
func recognizeRequire(e *luaast.Call) (string, bool) {
	name, ok := nameOf(e.Func)
	if !ok || name != "require" || len(e.Args) != 1 {
		return "", false
	}
	str, ok := e.Args[0].(*luaast.String)
	if !ok {
		return "", false
	}
	return str.S, true
}

// splitRequirePath splits a require path on its delimiter, detected in
// priority order '/', '.', '\\'; the final segment becomes the imported
// name, earlier segments the module path.
func splitRequirePath(path string) (modulePath string, name string) {
	for _, delim := range []byte{'/', '.', '\\'} {
		if idx := strings.LastIndexByte(path, delim); idx >= 0 {
			segments := strings.Split(path, string(delim))
			name = segments[len(segments)-1]
			modulePath = strings.Join(segments[:len(segments)-1], ".")
			return modulePath, name
		}
	}
	return "", path
}

// lowerRequireExpr returns the expression that should stand in for a
// Require occurrence: a reference to the imported name. The import
// statement itself is only emitted when Require appears directly as a
// LocalAssign/Assign RHS (see lowerAssign); a Require nested deeper in an
// expression produces a dangling reference the import resolver cannot see,
// since it only recognizes standard-library module prefixes, not arbitrary
// required paths.
func (c *Context) lowerRequireExpr(path string) (pyast.Expression, error) {
	_, name := splitRequirePath(path)
	return pyast.NewName(name), nil
}

// tryRequireImport recognizes the dominant require idiom, `local foo =
// require("path")`, and lowers it straight to an Import/ImportFrom
// statement instead of an Assign-of-a-Name-reference. When the bound
// local name differs from the path's final segment, a trailing Assign
// binds it, since ImportFrom carries no per-name alias.
func (c *Context) tryRequireImport(targets []luaast.LValue, values []luaast.Expression) ([]pyast.Statement, bool) {
	if len(targets) != 1 || len(values) != 1 {
		return nil, false
	}
	target, ok := targets[0].(*luaast.Name)
	if !ok {
		return nil, false
	}
	call, ok := values[0].(*luaast.Call)
	if !ok {
		return nil, false
	}
	path, ok := recognizeRequire(call)
	if !ok {
		return nil, false
	}

	modulePath, name := splitRequirePath(path)
	var out []pyast.Statement
	if modulePath == "" {
		imp := &pyast.Import{Module: name}
		if target.ID != name {
			imp.Alias = target.ID
		}
		out = append(out, imp)
	} else {
		out = append(out, &pyast.ImportFrom{Module: modulePath, Names: []string{name}})
		if target.ID != name {
			out = append(out, &pyast.Assign{
				Targets: []pyast.Expression{pyast.NewName(target.ID)},
				Value:   pyast.NewName(name),
			})
		}
	}
	return out, true
}

// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

// Package idiom implements the post-lowering idiom rewriter: a post-order
// tree walk over a [pyast.Module] that applies narrow, variant-specific
// substitutions for standard-library call shapes and ipairs/pairs loop
// idioms. Rules are applied in a single pass: the rule set is idempotent
// and order-independent, so no rule ever produces another rule's input.
package idiom

import (
	"strings"

	"go.luatran.dev/pkg/internal/pyast"
)

// tableMethods maps a `table.m(recv, args...)` call to its target-language
// receiver-method equivalent.
var tableMethods = map[string]string{
	"insert": "append",
	"remove": "pop",
	"sort":   "sort",
	"concat": "join", // recv and args swap; see rewriteTableConcat
}

// stringMethods maps a `string.m(recv, args...)` call to its
// target-language receiver-method equivalent. `sub` maps to `replace`
// rather than a corrected slice expression; see DESIGN.md for the
// reasoning behind keeping that mapping.
var stringMethods = map[string]string{
	"upper":  "upper",
	"lower":  "lower",
	"find":   "find",
	"sub":    "replace",
	"rep":    "replace",
	"format": "format",
}

// builtinRenames maps a bare Lua builtin call to its direct target-language
// equivalent. `tonumber` picks `float` over `int`, since Lua numbers are
// themselves float-by-default and narrowing to int silently drops
// fractional input.
var builtinRenames = map[string]string{
	"tostring": "str",
	"tonumber": "float",
}

// mathRenames maps a `math.attr(...)` call to its target-language
// equivalent, per original_source/transpile/mapper.py's
// lua_to_python_math table. An attr with no entry here passes through
// unchanged (e.g. `math.floor` -> `math.floor`); a dotted value names the
// module and function the call is rewritten to (`math.degrees`,
// `random.random`); an undotted value becomes a bare builtin call.
var mathRenames = map[string]string{
	"abs":        "abs",
	"max":        "max",
	"min":        "min",
	"pow":        "pow",
	"deg":        "math.degrees",
	"rad":        "math.radians",
	"random":     "random.random",
	"randomseed": "random.seed",
}

// mathHuge is the target-language constant standing in for math.huge:
// Lua has no float literal for infinity.
const mathHuge = "float('inf')"

// osRenames maps an `os.attr(...)` call to its target-language
// equivalent, per original_source/transpile/mapper.py's
// lua_to_python_time table. Unlike math.*, none of these pass through by
// name: they all move to the time module.
var osRenames = map[string]string{
	"time":     "time.time",
	"clock":    "time.process_time",
	"difftime": "time.difftime",
	"date":     "time.strftime",
}

// Rewrite applies the idiom rules to every statement in mod in place and
// returns it.
func Rewrite(mod *pyast.Module) *pyast.Module {
	mod.Body = rewriteStatements(mod.Body)
	return mod
}

func rewriteStatements(stmts []pyast.Statement) []pyast.Statement {
	for i, s := range stmts {
		stmts[i] = rewriteStatement(s)
	}
	return stmts
}

func rewriteStatement(s pyast.Statement) pyast.Statement {
	switch s := s.(type) {
	case *pyast.FunctionDef:
		s.Body = rewriteStatements(s.Body)
	case *pyast.ClassDef:
		s.Body = rewriteStatements(s.Body)
	case *pyast.If:
		s.Test = rewriteExpr(s.Test)
		s.Body = rewriteStatements(s.Body)
		s.Orelse = rewriteStatements(s.Orelse)
	case *pyast.While:
		s.Test = rewriteExpr(s.Test)
		s.Body = rewriteStatements(s.Body)
	case *pyast.For:
		s.Iter = rewriteExpr(s.Iter)
		s.Body = rewriteStatements(s.Body)
		rewriteForTarget(s)
	case *pyast.Assign:
		s.Value = rewriteExpr(s.Value)
		for i, t := range s.Targets {
			s.Targets[i] = rewriteExpr(t)
		}
	case *pyast.AugAssign:
		s.Target = rewriteExpr(s.Target)
		s.Value = rewriteExpr(s.Value)
	case *pyast.Return:
		if s.Value != nil {
			s.Value = rewriteExpr(s.Value)
		}
	case *pyast.Expr:
		s.Value = rewriteExpr(s.Value)
	}
	return s
}

// rewriteForTarget implements the ipairs/pairs rewrites: a `for ab in
// ipairs(t)` becomes `for a, b in enumerate(t)` (the combined name is
// split, but references to it inside the body are left alone); a
// `for k in pairs(t)` (with iter already rewritten to a plain Name) or any
// `for ... in pairs(t)` becomes iteration over `t.items()`.
func rewriteForTarget(s *pyast.For) {
	call, ok := s.Iter.(*pyast.Call)
	if !ok || len(call.Args) != 1 {
		return
	}
	fn, ok := call.Func.(*pyast.Name)
	if !ok {
		return
	}
	switch fn.ID {
	case "ipairs":
		t := call.Args[0]
		switch target := s.Target.(type) {
		case *pyast.Name:
			a, b := splitLoopVar(target.ID)
			s.Target = pyast.NewTuple(pyast.NewName(a), pyast.NewName(b))
			s.Iter = pyast.NewCall(pyast.NewName("enumerate"), t)
		case *pyast.Tuple:
			// Supplemented rule: an already-split two-variable target
			// (`for i, v in ipairs(t)`) is common enough in real Lua
			// source that leaving it unrewritten would emit an invalid
			// `ipairs` reference; only the iterator needs rewriting.
			if len(target.Elts) == 2 {
				s.Iter = pyast.NewCall(pyast.NewName("enumerate"), t)
			}
		}
	case "pairs":
		s.Iter = pyast.NewCall(pyast.NewAttribute(call.Args[0], "items"))
	}
}

// splitLoopVar splits a combined ipairs loop variable: the first
// underscore after the first character splits there; otherwise the first
// character is the index binding and the remainder is the value binding.
// A one-character name is used for both bindings.
func splitLoopVar(name string) (a, b string) {
	if idx := strings.IndexByte(name, '_'); idx > 0 {
		return name[:idx], name[idx+1:]
	}
	if len(name) < 2 {
		return name, name
	}
	return name[:1], name[1:]
}

func rewriteExpr(e pyast.Expression) pyast.Expression {
	if e == nil {
		return nil
	}
	switch e := e.(type) {
	case *pyast.Call:
		return rewriteCall(e)
	case *pyast.BinOp:
		e.Left = rewriteExpr(e.Left)
		e.Right = rewriteExpr(e.Right)
	case *pyast.BoolOp:
		e.Left = rewriteExpr(e.Left)
		e.Right = rewriteExpr(e.Right)
	case *pyast.UnaryOp:
		e.Operand = rewriteExpr(e.Operand)
	case *pyast.Compare:
		e.Left = rewriteExpr(e.Left)
		for i, r := range e.Rights {
			e.Rights[i] = rewriteExpr(r)
		}
	case *pyast.IfExp:
		e.Test = rewriteExpr(e.Test)
		e.Body = rewriteExpr(e.Body)
		e.Orelse = rewriteExpr(e.Orelse)
	case *pyast.Attribute:
		e.Value = rewriteExpr(e.Value)
		if rewritten := rewriteMathHuge(e); rewritten != nil {
			return rewritten
		}
	case *pyast.Subscript:
		e.Value = rewriteExpr(e.Value)
		e.Slice = rewriteExpr(e.Slice)
	case *pyast.List:
		for i, el := range e.Elts {
			e.Elts[i] = rewriteExpr(el)
		}
	case *pyast.Tuple:
		for i, el := range e.Elts {
			e.Elts[i] = rewriteExpr(el)
		}
	case *pyast.Dict:
		for i, entry := range e.Entries {
			e.Entries[i] = pyast.DictEntry{Key: rewriteExpr(entry.Key), Value: rewriteExpr(entry.Value)}
		}
	case *pyast.Starred:
		e.Value = rewriteExpr(e.Value)
	}
	return e
}

// rewriteMathHuge recognizes math.huge, the one math.* reference that is
// an attribute access rather than a call, and rewrites it to the
// target-language constant mathHuge. It returns nil when e isn't a match,
// so the caller's rewritten-node fast path can be skipped.
func rewriteMathHuge(e *pyast.Attribute) pyast.Expression {
	if e.Attr != "huge" {
		return nil
	}
	if name, ok := e.Value.(*pyast.Name); ok && name.ID == "math" {
		return pyast.NewConstant(mathHuge, pyast.KindOther)
	}
	return nil
}

// rewriteCall applies the standard-library call rules. A `HEX(x)` call
// becomes `hex(x)`; `table.m(recv, args...)` and `string.m(recv, args...)`
// become `recv.m'(args...)` per the tables above.
func rewriteCall(call *pyast.Call) pyast.Expression {
	for i, a := range call.Args {
		call.Args[i] = rewriteExpr(a)
	}
	call.Func = rewriteExpr(call.Func)

	if name, ok := call.Func.(*pyast.Name); ok {
		switch name.ID {
		case "HEX":
			return pyast.NewCall(pyast.NewName("hex"), call.Args...)
		case "type":
			// type(x) -> type(x).__name__: Lua's type() returns a name
			// string directly, matching the target's __name__ attribute
			// rather than a class object.
			return pyast.NewAttribute(pyast.NewCall(pyast.NewName("type"), call.Args...), "__name__")
		default:
			if repl, ok := builtinRenames[name.ID]; ok {
				return pyast.NewCall(pyast.NewName(repl), call.Args...)
			}
		}
	}

	attr, ok := call.Func.(*pyast.Attribute)
	if !ok {
		return call
	}
	module, ok := attr.Value.(*pyast.Name)
	if !ok {
		return call
	}
	switch module.ID {
	case "table":
		if len(call.Args) == 0 {
			return call
		}
		if m, ok := tableMethods[attr.Attr]; ok {
			recv := call.Args[0]
			if attr.Attr == "concat" {
				return rewriteTableConcat(recv, call.Args[1:])
			}
			return pyast.NewCall(pyast.NewAttribute(recv, m), call.Args[1:]...)
		}
	case "string":
		if len(call.Args) == 0 {
			return call
		}
		if m, ok := stringMethods[attr.Attr]; ok {
			recv := call.Args[0]
			return pyast.NewCall(pyast.NewAttribute(recv, m), call.Args[1:]...)
		}
	case "math":
		// math.* calls carry no receiver to swap out, so no zero-args
		// guard is needed here the way table/string need one.
		if repl, ok := mathRenames[attr.Attr]; ok {
			return callFromDotted(repl, call.Args)
		}
	case "os":
		if repl, ok := osRenames[attr.Attr]; ok {
			return callFromDotted(repl, call.Args)
		}
	}
	return call
}

// callFromDotted builds a Call from a replacement name that may itself be
// dotted (e.g. "math.degrees", "random.random"): the part before the
// first dot becomes the receiver Name, the rest an Attribute access. A
// replacement with no dot becomes a bare Name call.
func callFromDotted(repl string, args []pyast.Expression) pyast.Expression {
	if i := strings.IndexByte(repl, '.'); i >= 0 {
		return pyast.NewCall(pyast.NewAttribute(pyast.NewName(repl[:i]), repl[i+1:]), args...)
	}
	return pyast.NewCall(pyast.NewName(repl), args...)
}

// rewriteTableConcat maps `table.concat(recv, sep)` to `sep.join(recv)`
// (falling back to the empty string when no separator was given) — the
// receiver and argument swap places, since the target's `join` is a
// string method rather than a sequence method.
func rewriteTableConcat(recv pyast.Expression, rest []pyast.Expression) pyast.Expression {
	sep := pyast.Expression(pyast.NewConstant("", pyast.KindString))
	if len(rest) > 0 {
		sep = rest[0]
	}
	return pyast.NewCall(pyast.NewAttribute(sep, "join"), recv)
}

// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package lowering

import (
	"go.luatran.dev/pkg/internal/luaast"
	"go.luatran.dev/pkg/internal/sets"
)

// luaBuiltins lists the global names a local declaration can shadow,
// grounded on original_source/transpile/vartracker.py's builtin table:
// the core library tables plus the free functions it tracks. A pure
// membership set is exactly what sets.Set[T] models, unlike
// internal/idiom's tableMethods/stringMethods tables (those carry a
// target-name value per key, not just membership).
var luaBuiltins = sets.New(
	"print", "pairs", "ipairs", "next",
	"table", "string", "math", "os", "io",
	"tostring", "tonumber", "type", "pcall",
	"xpcall", "error", "assert", "require",
	"select", "setmetatable", "getmetatable", "rawget",
	"rawset", "unpack",
)

// checkShadow warns with [ShadowedBuiltin] when a local binding reuses the
// name of a Lua global/builtin. It never affects the lowered output: the
// target language handles re-binding the name identically whether or not
// it shadows a builtin.
func (c *Context) checkShadow(name string, span luaast.Span) {
	if luaBuiltins.Has(name) {
		c.warn(ShadowedBuiltin, span, "local %q shadows a Lua builtin of the same name", name)
	}
}

func (c *Context) checkShadowNames(names []luaast.Name, span luaast.Span) {
	for _, n := range names {
		c.checkShadow(n.ID, span)
	}
}

// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package lowering

import (
	"go.luatran.dev/pkg/internal/luaast"
	"go.luatran.dev/pkg/internal/pyast"
)

// lowerLabel lowers a Label to a no-op: the label itself marks a jump
// target, which has no standalone meaning once gotos into it are resolved
// to either `continue` or dropped, so it degrades to Pass. A trailing Pass
// is harmless in any statement position.
func (c *Context) lowerLabel(s *luaast.Label) ([]pyast.Statement, error) {
	return []pyast.Statement{&pyast.Pass{}}, nil
}

// lowerGoto handles goto/label translation without full CPS-style
// restructuring, which is out of scope. The one pattern
// this handles structurally is the overwhelmingly common idiom of a goto
// used to emulate `continue` inside a loop (jumping to a label just before
// the loop's end); since the translator doesn't track per-label
// reachability across a whole block, it applies the coarser but safe rule
// that any goto lexically inside a loop becomes `continue`. A goto outside
// any loop has no structured equivalent and is dropped to a no-op, with a
// recoverable warning so --strict can catch it.
func (c *Context) lowerGoto(s *luaast.Goto) ([]pyast.Statement, error) {
	if c.loopDepth > 0 {
		return []pyast.Statement{&pyast.Continue{}}, nil
	}
	c.warn(UnstructuredGoto, s.Span(), "goto %q outside any loop has no structured equivalent; emitted as a no-op", s.Label)
	return []pyast.Statement{&pyast.Pass{}}, nil
}

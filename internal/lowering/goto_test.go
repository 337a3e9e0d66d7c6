// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package lowering

import (
	"testing"

	"go.luatran.dev/pkg/internal/luaast"
	"go.luatran.dev/pkg/internal/pyast"
)

func TestLowerGotoInsideLoopBecomesContinue(t *testing.T) {
	c := NewContext()
	c.loopDepth = 1

	stmts, err := c.lowerGoto(&luaast.Goto{Label: "continue"})
	if err != nil {
		t.Fatalf("lowerGoto(): %v", err)
	}
	if len(stmts) != 1 {
		t.Fatalf("lowerGoto() = %d statements, want 1", len(stmts))
	}
	if _, ok := stmts[0].(*pyast.Continue); !ok {
		t.Errorf("stmts[0] = %#v, want *pyast.Continue", stmts[0])
	}
	if len(c.Warnings()) != 0 {
		t.Errorf("Warnings() = %v, want none (in-loop goto is a clean rewrite)", c.Warnings())
	}
}

func TestLowerGotoOutsideLoopWarnsAndNoOps(t *testing.T) {
	c := NewContext()

	stmts, err := c.lowerGoto(&luaast.Goto{Label: "done"})
	if err != nil {
		t.Fatalf("lowerGoto(): %v", err)
	}
	if len(stmts) != 1 {
		t.Fatalf("lowerGoto() = %d statements, want 1", len(stmts))
	}
	if _, ok := stmts[0].(*pyast.Pass); !ok {
		t.Errorf("stmts[0] = %#v, want *pyast.Pass", stmts[0])
	}
	if len(c.Warnings()) != 1 || c.Warnings()[0].Category != UnstructuredGoto {
		t.Errorf("Warnings() = %v, want one UnstructuredGoto warning", c.Warnings())
	}
}

func TestLowerLabelIsPass(t *testing.T) {
	c := NewContext()
	stmts, err := c.lowerLabel(&luaast.Label{ID: "done"})
	if err != nil {
		t.Fatalf("lowerLabel(): %v", err)
	}
	if len(stmts) != 1 {
		t.Fatalf("lowerLabel() = %d statements, want 1", len(stmts))
	}
	if _, ok := stmts[0].(*pyast.Pass); !ok {
		t.Errorf("stmts[0] = %#v, want *pyast.Pass", stmts[0])
	}
}

func TestLoopDepthTrackedInWhileLoop(t *testing.T) {
	c := NewContext()

	_, err := c.lowerWhile(&luaast.While{
		Test: &luaast.TrueExpr{},
		Body: &luaast.Block{Body: []luaast.Statement{&luaast.Goto{Label: "x"}}},
	})
	if err != nil {
		t.Fatalf("lowerWhile(): %v", err)
	}
	if c.loopDepth != 0 {
		t.Errorf("loopDepth after lowerWhile = %d, want 0 (popped on exit)", c.loopDepth)
	}
	if len(c.Warnings()) != 0 {
		t.Errorf("Warnings() = %v, want none: the nested goto is inside the while loop", c.Warnings())
	}
}

// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package lowering

import (
	"testing"

	"go.luatran.dev/pkg/internal/luaast"
	"go.luatran.dev/pkg/internal/pyast"
)

// TestLowerAnonymousFunctionDedup covers the hoisting dedup rule: two
// structurally identical anonymous functions hoisted into the same scope
// share one definition.
func TestLowerAnonymousFunctionDedup(t *testing.T) {
	c := NewContext()
	c.pushScope()

	mkFn := func() *luaast.AnonymousFunction {
		return &luaast.AnonymousFunction{
			Args: []luaast.Name{{ID: "x"}},
			Body: &luaast.Block{Body: []luaast.Statement{
				&luaast.Return{Values: []luaast.Expression{&luaast.Name{ID: "x"}}},
			}},
		}
	}

	ref1, err := c.lowerAnonymousFunction(mkFn())
	if err != nil {
		t.Fatalf("lowerAnonymousFunction() #1: %v", err)
	}
	ref2, err := c.lowerAnonymousFunction(mkFn())
	if err != nil {
		t.Fatalf("lowerAnonymousFunction() #2: %v", err)
	}

	n1, ok := ref1.(*pyast.Name)
	if !ok {
		t.Fatalf("ref1 = %#v, want *pyast.Name", ref1)
	}
	n2, ok := ref2.(*pyast.Name)
	if !ok {
		t.Fatalf("ref2 = %#v, want *pyast.Name", ref2)
	}
	if n1.ID != n2.ID {
		t.Errorf("ref1.ID = %q, ref2.ID = %q, want the same hoisted name (structural dedup)", n1.ID, n2.ID)
	}

	hoisted := c.popScope()
	if len(hoisted) != 1 {
		t.Fatalf("popScope() = %d hoisted defs, want 1 (deduped)", len(hoisted))
	}
}

// TestLowerAnonymousFunctionDistinctBodiesNotDeduped ensures two
// structurally different anonymous functions each get their own hoisted
// definition.
func TestLowerAnonymousFunctionDistinctBodiesNotDeduped(t *testing.T) {
	c := NewContext()
	c.pushScope()

	_, err := c.lowerAnonymousFunction(&luaast.AnonymousFunction{
		Args: []luaast.Name{{ID: "x"}},
		Body: &luaast.Block{Body: []luaast.Statement{
			&luaast.Return{Values: []luaast.Expression{&luaast.Name{ID: "x"}}},
		}},
	})
	if err != nil {
		t.Fatalf("lowerAnonymousFunction() #1: %v", err)
	}
	_, err = c.lowerAnonymousFunction(&luaast.AnonymousFunction{
		Args: []luaast.Name{{ID: "y"}},
		Body: &luaast.Block{Body: []luaast.Statement{
			&luaast.Return{Values: []luaast.Expression{&luaast.Name{ID: "y"}}},
		}},
	})
	if err != nil {
		t.Fatalf("lowerAnonymousFunction() #2: %v", err)
	}

	hoisted := c.popScope()
	if len(hoisted) != 2 {
		t.Fatalf("popScope() = %d hoisted defs, want 2 (distinct bodies)", len(hoisted))
	}
}

// TestLowerAnonymousFunctionNameConvention covers the hoisted name shape
// itself: lambda{N}, not some other scheme the dedup/distinct tests above
// don't pin down.
func TestLowerAnonymousFunctionNameConvention(t *testing.T) {
	c := NewContext()
	c.pushScope()

	ref, err := c.lowerAnonymousFunction(&luaast.AnonymousFunction{
		Args: []luaast.Name{{ID: "y"}},
		Body: &luaast.Block{Body: []luaast.Statement{
			&luaast.Return{Values: []luaast.Expression{&luaast.Name{ID: "y"}}},
		}},
	})
	if err != nil {
		t.Fatalf("lowerAnonymousFunction(): %v", err)
	}
	n, ok := ref.(*pyast.Name)
	if !ok {
		t.Fatalf("ref = %#v, want *pyast.Name", ref)
	}
	if want := "lambda1"; n.ID != want {
		t.Errorf("ref.ID = %q, want %q", n.ID, want)
	}
}

func TestParamsOf(t *testing.T) {
	params := paramsOf([]luaast.Name{{ID: "a"}, {ID: "b"}})
	if len(params) != 2 || params[0].Name != "a" || params[1].Name != "b" {
		t.Errorf("paramsOf() = %v, want [a b]", params)
	}
}

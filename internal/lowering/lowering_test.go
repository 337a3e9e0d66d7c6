// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package lowering

import (
	"testing"

	"go.luatran.dev/pkg/internal/luaast"
	"go.luatran.dev/pkg/internal/pyast"
)

// TestLowerChunkClassAndMethod exercises the full method reattachment
// state machine: a Constructor-shaped Assign registers a class, a Method
// queued against it is spliced into the class body once LowerChunk drains
// the pending list.
func TestLowerChunkClassAndMethod(t *testing.T) {
	chunk := &luaast.Chunk{Body: &luaast.Block{Body: []luaast.Statement{
		&luaast.Assign{
			Targets: []luaast.LValue{&luaast.Name{ID: "Animal"}},
			Values:  []luaast.Expression{&luaast.Invoke{Source: &luaast.Name{ID: "Object"}, Func: "extend"}},
		},
		&luaast.Method{
			Source: "Animal",
			Name:   "speak",
			Args:   nil,
			Body:   &luaast.Block{Body: []luaast.Statement{&luaast.Return{Values: []luaast.Expression{&luaast.String{S: "..."}}}}},
		},
	}}}

	mod, err := NewContext().LowerChunk(chunk)
	if err != nil {
		t.Fatalf("LowerChunk(): %v", err)
	}
	if len(mod.Body) != 1 {
		t.Fatalf("mod.Body = %d statements, want 1 (the class)", len(mod.Body))
	}
	cls, ok := mod.Body[0].(*pyast.ClassDef)
	if !ok {
		t.Fatalf("mod.Body[0] = %#v, want *pyast.ClassDef", mod.Body[0])
	}
	if len(cls.Body) != 1 {
		t.Fatalf("cls.Body = %d statements, want 1 (the spliced method)", len(cls.Body))
	}
	method, ok := cls.Body[0].(*pyast.FunctionDef)
	if !ok || method.Name != "speak" {
		t.Fatalf("cls.Body[0] = %#v, want FunctionDef(speak)", cls.Body[0])
	}
	if len(method.Args.Positional) != 1 || method.Args.Positional[0].Name != "self" {
		t.Errorf("method.Args.Positional = %v, want [self] (implicit self)", method.Args.Positional)
	}
}

// TestLowerChunkOrphanMethodBecomesTopLevel covers the recovery branch of
// drainPending: a Method declared against a source that never resolves to
// a registered class is emitted as a top-level function instead of being
// silently dropped.
func TestLowerChunkOrphanMethodBecomesTopLevel(t *testing.T) {
	chunk := &luaast.Chunk{Body: &luaast.Block{Body: []luaast.Statement{
		&luaast.Method{
			Source: "Unknown",
			Name:   "speak",
			Body:   &luaast.Block{},
		},
	}}}

	ctx := NewContext()
	mod, err := ctx.LowerChunk(chunk)
	if err != nil {
		t.Fatalf("LowerChunk(): %v", err)
	}
	if len(mod.Body) != 1 {
		t.Fatalf("mod.Body = %d statements, want 1 (the orphaned function)", len(mod.Body))
	}
	fn, ok := mod.Body[0].(*pyast.FunctionDef)
	if !ok || fn.Name != "speak" {
		t.Fatalf("mod.Body[0] = %#v, want FunctionDef(speak)", mod.Body[0])
	}
	if len(ctx.Warnings()) != 1 || ctx.Warnings()[0].Category != UnresolvedMethodOwner {
		t.Errorf("Warnings() = %v, want one UnresolvedMethodOwner warning", ctx.Warnings())
	}
}

// TestLowerChunkSuperCallRewrite covers the super-call rewrite: an
// Initializer/Method body calling `Base.init(self, ...)` against a
// registered base class is rewritten to `super().__init__(...)`.
func TestLowerChunkSuperCallRewrite(t *testing.T) {
	chunk := &luaast.Chunk{Body: &luaast.Block{Body: []luaast.Statement{
		&luaast.Assign{
			Targets: []luaast.LValue{&luaast.Name{ID: "Base"}},
			Values:  []luaast.Expression{&luaast.Invoke{Source: &luaast.Name{ID: "Object"}, Func: "extend"}},
		},
		&luaast.Assign{
			Targets: []luaast.LValue{&luaast.Name{ID: "Derived"}},
			Values:  []luaast.Expression{&luaast.Invoke{Source: &luaast.Name{ID: "Base"}, Func: "extend"}},
		},
		&luaast.Method{
			Source: "Derived",
			Name:   "init",
			Body: &luaast.Block{Body: []luaast.Statement{
				&luaast.Call{
					Func: &luaast.Index{Value: &luaast.Name{ID: "Base"}, Idx: &luaast.String{S: "init"}, Notation: 0},
					Args: []luaast.Expression{&luaast.Name{ID: "self"}},
				},
			}},
		},
	}}}

	mod, err := NewContext().LowerChunk(chunk)
	if err != nil {
		t.Fatalf("LowerChunk(): %v", err)
	}
	var derived *pyast.ClassDef
	for _, s := range mod.Body {
		if cls, ok := s.(*pyast.ClassDef); ok && cls.Name == "Derived" {
			derived = cls
		}
	}
	if derived == nil {
		t.Fatal("no Derived class found in lowered module")
	}
	ctor, ok := derived.Body[0].(*pyast.FunctionDef)
	if !ok || ctor.Name != ctorName {
		t.Fatalf("derived.Body[0] = %#v, want FunctionDef(%s)", derived.Body[0], ctorName)
	}
	if len(ctor.Body) != 1 {
		t.Fatalf("ctor.Body = %d statements, want 1", len(ctor.Body))
	}
	expr, ok := ctor.Body[0].(*pyast.Expr)
	if !ok {
		t.Fatalf("ctor.Body[0] = %#v, want *pyast.Expr", ctor.Body[0])
	}
	call, ok := expr.Value.(*pyast.Call)
	if !ok {
		t.Fatalf("expr.Value = %#v, want *pyast.Call", expr.Value)
	}
	attr, ok := call.Func.(*pyast.Attribute)
	if !ok || attr.Attr != ctorName {
		t.Fatalf("call.Func = %#v, want Attribute(_, %s)", call.Func, ctorName)
	}
	superCall, ok := attr.Value.(*pyast.Call)
	if !ok {
		t.Fatalf("attr.Value = %#v, want a Call to super()", attr.Value)
	}
	if n, ok := superCall.Func.(*pyast.Name); !ok || n.ID != "super" {
		t.Errorf("attr.Value.Func = %#v, want Name(super)", superCall.Func)
	}
	if len(call.Args) != 0 {
		t.Errorf("call.Args = %v, want none (the explicit self was dropped)", call.Args)
	}
}

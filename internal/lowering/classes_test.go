// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package lowering

import (
	"testing"

	"go.luatran.dev/pkg/internal/luaast"
	"go.luatran.dev/pkg/internal/pyast"
)

func TestTryClassConstructor(t *testing.T) {
	c := NewContext()
	targets := []luaast.LValue{&luaast.Name{ID: "Animal"}}
	values := []luaast.Expression{&luaast.Invoke{Source: &luaast.Name{ID: "Base"}, Func: "extend"}}

	stmts, ok, err := c.tryClassConstructor(targets, values, luaast.Span{})
	if err != nil {
		t.Fatalf("tryClassConstructor(): %v", err)
	}
	if !ok {
		t.Fatal("tryClassConstructor() ok = false, want true")
	}
	if len(stmts) != 1 {
		t.Fatalf("tryClassConstructor() returned %d statements, want 1", len(stmts))
	}
	cls, ok := stmts[0].(*pyast.ClassDef)
	if !ok {
		t.Fatalf("stmts[0] = %#v, want *pyast.ClassDef", stmts[0])
	}
	if cls.Name != "Animal" {
		t.Errorf("cls.Name = %q, want %q", cls.Name, "Animal")
	}
	if len(cls.Bases) != 1 || cls.Bases[0] != "Base" {
		t.Errorf("cls.Bases = %v, want [Base]", cls.Bases)
	}
	if c.classes["Animal"] != cls {
		t.Error("class not registered in c.classes")
	}
}

func TestTryClassConstructorObjectBaseDropped(t *testing.T) {
	c := NewContext()
	targets := []luaast.LValue{&luaast.Name{ID: "Animal"}}
	values := []luaast.Expression{&luaast.Invoke{Source: &luaast.Name{ID: "Object"}, Func: "extend"}}

	stmts, ok, err := c.tryClassConstructor(targets, values, luaast.Span{})
	if err != nil || !ok {
		t.Fatalf("tryClassConstructor() = (%v, %v, %v)", stmts, ok, err)
	}
	cls := stmts[0].(*pyast.ClassDef)
	if len(cls.Bases) != 0 {
		t.Errorf("cls.Bases = %v, want empty (Object is the root sentinel)", cls.Bases)
	}
}

func TestTryClassConstructorMalformedBaseWarns(t *testing.T) {
	c := NewContext()
	targets := []luaast.LValue{&luaast.Name{ID: "Animal"}}
	values := []luaast.Expression{&luaast.Invoke{Source: &luaast.Call{Func: &luaast.Name{ID: "f"}}, Func: "extend"}}

	_, ok, err := c.tryClassConstructor(targets, values, luaast.Span{})
	if err != nil || !ok {
		t.Fatalf("tryClassConstructor() = (ok=%v, err=%v)", ok, err)
	}
	if len(c.Warnings()) != 1 || c.Warnings()[0].Category != MalformedClassPattern {
		t.Errorf("Warnings() = %v, want one MalformedClassPattern warning", c.Warnings())
	}
}

func TestTryClassConstructorNoMatch(t *testing.T) {
	c := NewContext()
	targets := []luaast.LValue{&luaast.Name{ID: "x"}}
	values := []luaast.Expression{&luaast.Name{ID: "y"}}

	_, ok, err := c.tryClassConstructor(targets, values, luaast.Span{})
	if err != nil {
		t.Fatalf("tryClassConstructor(): %v", err)
	}
	if ok {
		t.Error("tryClassConstructor() ok = true for a plain assignment, want false")
	}
}

func TestSplitRequirePath(t *testing.T) {
	tests := []struct {
		path           string
		wantModule     string
		wantName       string
	}{
		{path: "a/b/c", wantModule: "a.b", wantName: "c"},
		{path: "a.b.c", wantModule: "a.b", wantName: "c"},
		{path: `a\b\c`, wantModule: "a.b", wantName: "c"},
		{path: "solo", wantModule: "", wantName: "solo"},
	}
	for _, tt := range tests {
		mod, name := splitRequirePath(tt.path)
		if mod != tt.wantModule || name != tt.wantName {
			t.Errorf("splitRequirePath(%q) = (%q, %q), want (%q, %q)", tt.path, mod, name, tt.wantModule, tt.wantName)
		}
	}
}

func TestTryRequireImportSameName(t *testing.T) {
	c := NewContext()
	targets := []luaast.LValue{&luaast.Name{ID: "json"}}
	values := []luaast.Expression{&luaast.Call{
		Func: &luaast.Name{ID: "require"},
		Args: []luaast.Expression{&luaast.String{S: "json"}},
	}}

	stmts, ok := c.tryRequireImport(targets, values)
	if !ok {
		t.Fatal("tryRequireImport() ok = false, want true")
	}
	if len(stmts) != 1 {
		t.Fatalf("tryRequireImport() = %d statements, want 1", len(stmts))
	}
	imp, ok := stmts[0].(*pyast.Import)
	if !ok || imp.Module != "json" || imp.Alias != "" {
		t.Errorf("stmts[0] = %#v, want Import{Module: json, Alias: \"\"}", stmts[0])
	}
}

func TestTryRequireImportAliased(t *testing.T) {
	c := NewContext()
	targets := []luaast.LValue{&luaast.Name{ID: "j"}}
	values := []luaast.Expression{&luaast.Call{
		Func: &luaast.Name{ID: "require"},
		Args: []luaast.Expression{&luaast.String{S: "json"}},
	}}

	stmts, ok := c.tryRequireImport(targets, values)
	if !ok {
		t.Fatal("tryRequireImport() ok = false, want true")
	}
	imp, ok := stmts[0].(*pyast.Import)
	if !ok || imp.Module != "json" || imp.Alias != "j" {
		t.Errorf("stmts[0] = %#v, want Import{Module: json, Alias: j}", stmts[0])
	}
}

func TestTryRequireImportDottedPath(t *testing.T) {
	c := NewContext()
	targets := []luaast.LValue{&luaast.Name{ID: "helpers"}}
	values := []luaast.Expression{&luaast.Call{
		Func: &luaast.Name{ID: "require"},
		Args: []luaast.Expression{&luaast.String{S: "lib/helpers"}},
	}}

	stmts, ok := c.tryRequireImport(targets, values)
	if !ok {
		t.Fatal("tryRequireImport() ok = false, want true")
	}
	imp, ok := stmts[0].(*pyast.ImportFrom)
	if !ok || imp.Module != "lib" || len(imp.Names) != 1 || imp.Names[0] != "helpers" {
		t.Errorf("stmts[0] = %#v, want ImportFrom{Module: lib, Names: [helpers]}", stmts[0])
	}
}

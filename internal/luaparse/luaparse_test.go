// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package luaparse

import (
	"bufio"
	"strings"
	"testing"

	"go.luatran.dev/pkg/internal/luaast"
)

func parse(t *testing.T, src string) *luaast.Chunk {
	t.Helper()
	chunk, err := Parse(bufio.NewReader(strings.NewReader(src)))
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return chunk
}

func TestParseLocalAssign(t *testing.T) {
	chunk := parse(t, "local x = 1\n")
	if len(chunk.Body.Body) != 1 {
		t.Fatalf("chunk.Body.Body = %d statements, want 1", len(chunk.Body.Body))
	}
	assign, ok := chunk.Body.Body[0].(*luaast.LocalAssign)
	if !ok {
		t.Fatalf("chunk.Body.Body[0] = %#v, want *luaast.LocalAssign", chunk.Body.Body[0])
	}
	if len(assign.Targets) != 1 {
		t.Fatalf("assign.Targets = %v, want 1 target", assign.Targets)
	}
	name, ok := assign.Targets[0].(*luaast.Name)
	if !ok || name.ID != "x" {
		t.Errorf("assign.Targets[0] = %#v, want Name(x)", assign.Targets[0])
	}
	if len(assign.Values) != 1 {
		t.Fatalf("assign.Values = %v, want 1 value", assign.Values)
	}
	num, ok := assign.Values[0].(*luaast.Number)
	if !ok || num.N != "1" {
		t.Errorf("assign.Values[0] = %#v, want Number(1)", assign.Values[0])
	}
}

func TestParseCallStatement(t *testing.T) {
	chunk := parse(t, "print(x)\n")
	if len(chunk.Body.Body) != 1 {
		t.Fatalf("chunk.Body.Body = %d statements, want 1", len(chunk.Body.Body))
	}
	call, ok := chunk.Body.Body[0].(*luaast.Call)
	if !ok {
		t.Fatalf("chunk.Body.Body[0] = %#v, want *luaast.Call", chunk.Body.Body[0])
	}
	fn, ok := call.Func.(*luaast.Name)
	if !ok || fn.ID != "print" {
		t.Errorf("call.Func = %#v, want Name(print)", call.Func)
	}
	if len(call.Args) != 1 {
		t.Fatalf("call.Args = %v, want 1 arg", call.Args)
	}
}

func TestParseIfElse(t *testing.T) {
	chunk := parse(t, "if x then\n  y = 1\nelse\n  y = 2\nend\n")
	ifStmt, ok := chunk.Body.Body[0].(*luaast.If)
	if !ok {
		t.Fatalf("chunk.Body.Body[0] = %#v, want *luaast.If", chunk.Body.Body[0])
	}
	if len(ifStmt.Body.Body) != 1 {
		t.Fatalf("ifStmt.Body.Body = %d statements, want 1", len(ifStmt.Body.Body))
	}
	orelse, ok := ifStmt.Orelse.(*luaast.Block)
	if !ok {
		t.Fatalf("ifStmt.Orelse = %#v, want *luaast.Block", ifStmt.Orelse)
	}
	if len(orelse.Body) != 1 {
		t.Fatalf("orelse.Body = %d statements, want 1", len(orelse.Body))
	}
}

func TestParseForinIpairs(t *testing.T) {
	chunk := parse(t, "for i, v in ipairs(t) do\n  print(v)\nend\n")
	forin, ok := chunk.Body.Body[0].(*luaast.Forin)
	if !ok {
		t.Fatalf("chunk.Body.Body[0] = %#v, want *luaast.Forin", chunk.Body.Body[0])
	}
	if len(forin.Targets) != 2 || forin.Targets[0].ID != "i" || forin.Targets[1].ID != "v" {
		t.Errorf("forin.Targets = %v, want [i v]", forin.Targets)
	}
	if len(forin.Iter) != 1 {
		t.Fatalf("forin.Iter = %v, want 1 iterator expression", forin.Iter)
	}
	call, ok := forin.Iter[0].(*luaast.Call)
	if !ok {
		t.Fatalf("forin.Iter[0] = %#v, want *luaast.Call", forin.Iter[0])
	}
	fn, ok := call.Func.(*luaast.Name)
	if !ok || fn.ID != "ipairs" {
		t.Errorf("call.Func = %#v, want Name(ipairs)", call.Func)
	}
}

func TestParseBinaryPrecedence(t *testing.T) {
	chunk := parse(t, "x = a + b * c\n")
	assign, ok := chunk.Body.Body[0].(*luaast.Assign)
	if !ok {
		t.Fatalf("chunk.Body.Body[0] = %#v, want *luaast.Assign", chunk.Body.Body[0])
	}
	add, ok := assign.Values[0].(*luaast.AriOpExpr)
	if !ok || add.Op != luaast.Add {
		t.Fatalf("assign.Values[0] = %#v, want AriOpExpr(Add)", assign.Values[0])
	}
	if _, ok := add.Left.(*luaast.Name); !ok {
		t.Errorf("add.Left = %#v, want Name(a)", add.Left)
	}
	mul, ok := add.Right.(*luaast.AriOpExpr)
	if !ok || mul.Op != luaast.Mult {
		t.Fatalf("add.Right = %#v, want AriOpExpr(Mult) (* binds tighter than +)", add.Right)
	}
}

func TestParseRightAssociativePow(t *testing.T) {
	chunk := parse(t, "x = a ^ b ^ c\n")
	assign := chunk.Body.Body[0].(*luaast.Assign)
	outer, ok := assign.Values[0].(*luaast.AriOpExpr)
	if !ok || outer.Op != luaast.Expo {
		t.Fatalf("assign.Values[0] = %#v, want AriOpExpr(Expo)", assign.Values[0])
	}
	if _, ok := outer.Left.(*luaast.Name); !ok {
		t.Errorf("outer.Left = %#v, want Name(a) (right-associative: a ^ (b ^ c))", outer.Left)
	}
	inner, ok := outer.Right.(*luaast.AriOpExpr)
	if !ok || inner.Op != luaast.Expo {
		t.Fatalf("outer.Right = %#v, want AriOpExpr(Expo)", outer.Right)
	}
}

func TestParseMethodDefinition(t *testing.T) {
	chunk := parse(t, "function Animal:speak()\n  return 1\nend\n")
	method, ok := chunk.Body.Body[0].(*luaast.Method)
	if !ok {
		t.Fatalf("chunk.Body.Body[0] = %#v, want *luaast.Method", chunk.Body.Body[0])
	}
	if method.Source != "Animal" || method.Name != "speak" {
		t.Errorf("method = {Source: %q, Name: %q}, want {Animal, speak}", method.Source, method.Name)
	}
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse(bufio.NewReader(strings.NewReader("local x =\n")))
	if err == nil {
		t.Fatal("Parse(): want a *SyntaxError for a dangling assignment, got nil")
	}
	if _, ok := err.(*SyntaxError); !ok {
		t.Errorf("Parse() err = %#v, want *SyntaxError", err)
	}
}

// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package unparse

import (
	"testing"

	"go.luatran.dev/pkg/internal/pyast"
)

func TestModule(t *testing.T) {
	tests := []struct {
		name string
		mod  *pyast.Module
		want string
	}{
		{
			name: "empty",
			mod:  &pyast.Module{},
			want: "pass\n",
		},
		{
			name: "simple function",
			mod: &pyast.Module{Body: []pyast.Statement{
				&pyast.FunctionDef{
					Name: "greet",
					Args: pyast.Arguments{Positional: []pyast.Param{{Name: "name"}}},
					Body: []pyast.Statement{
						&pyast.Return{Value: pyast.NewName("name")},
					},
				},
			}},
			want: "def greet(name):\n    return name\n",
		},
		{
			name: "if/else",
			mod: &pyast.Module{Body: []pyast.Statement{
				&pyast.If{
					Test: pyast.NewCompare(pyast.NewName("x"), pyast.CmpGt, pyast.NewConstant("0", pyast.KindIntLiteral)),
					Body: []pyast.Statement{&pyast.Expr{Value: pyast.NewCall(pyast.NewName("print"), pyast.NewName("x"))}},
					Orelse: []pyast.Statement{
						&pyast.Pass{},
					},
				},
			}},
			want: "if x > 0:\n    print(x)\nelse:\n    pass\n",
		},
		{
			name: "import and import-from",
			mod: &pyast.Module{Body: []pyast.Statement{
				&pyast.Import{Module: "math"},
				&pyast.ImportFrom{Module: "pkg.sub", Names: []string{"thing"}},
			}},
			want: "import math\nfrom pkg.sub import thing\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Module(tt.mod)
			if err != nil {
				t.Fatalf("Module(): %v", err)
			}
			if got != tt.want {
				t.Errorf("Module() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBinOpPrecedence(t *testing.T) {
	tests := []struct {
		name string
		e    pyast.Expression
		want string
	}{
		{
			name: "a + b * c: no parens, mul binds tighter",
			e: pyast.NewBinOp(pyast.OpAdd, pyast.NewName("a"),
				pyast.NewBinOp(pyast.OpMul, pyast.NewName("b"), pyast.NewName("c"))),
			want: "a + b * c",
		},
		{
			name: "(a + b) * c: parens required, add binds looser",
			e: pyast.NewBinOp(pyast.OpMul,
				pyast.NewBinOp(pyast.OpAdd, pyast.NewName("a"), pyast.NewName("b")),
				pyast.NewName("c")),
			want: "(a + b) * c",
		},
		{
			name: "a ** b ** c: right-assoc, no parens on the right fold",
			e: pyast.NewBinOp(pyast.OpPow, pyast.NewName("a"),
				pyast.NewBinOp(pyast.OpPow, pyast.NewName("b"), pyast.NewName("c"))),
			want: "a ** b ** c",
		},
		{
			name: "(a ** b) ** c: left fold keeps parens",
			e: pyast.NewBinOp(pyast.OpPow,
				pyast.NewBinOp(pyast.OpPow, pyast.NewName("a"), pyast.NewName("b")),
				pyast.NewName("c")),
			want: "(a ** b) ** c",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod := &pyast.Module{Body: []pyast.Statement{&pyast.Expr{Value: tt.e}}}
			got, err := Module(mod)
			if err != nil {
				t.Fatalf("Module(): %v", err)
			}
			want := tt.want + "\n"
			if got != want {
				t.Errorf("Module() = %q, want %q", got, want)
			}
		})
	}
}

func TestQuoteString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "hello", want: `'hello'`},
		{in: "it's", want: `"it's"`},
		{in: `say "hi"`, want: `'say "hi"'`},
		{in: "bell\x07", want: `'bell\x07'`},
		{in: "del\x7f", want: `'del\x7f'`},
	}
	for _, tt := range tests {
		got := quoteString(tt.in)
		if got != tt.want {
			t.Errorf("quoteString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCompareMismatchedLengthsIsUnparseError(t *testing.T) {
	c := &pyast.Compare{Left: pyast.NewName("a"), Ops: []pyast.CompareOpKind{pyast.CmpEq}}
	mod := &pyast.Module{Body: []pyast.Statement{&pyast.Expr{Value: c}}}
	_, err := Module(mod)
	if err == nil {
		t.Fatal("Module(): want error for a Compare with one Op and no Rights, got nil")
	}
	if _, ok := err.(*UnparseError); !ok {
		t.Errorf("Module() err = %#v, want *UnparseError", err)
	}
}

// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package lowering

import (
	"testing"

	"go.luatran.dev/pkg/internal/luaast"
)

func TestCheckShadow(t *testing.T) {
	tests := []struct {
		name      string
		wantWarns int
	}{
		{name: "pairs", wantWarns: 1},
		{name: "table", wantWarns: 1},
		{name: "myLocal", wantWarns: 0},
	}
	for _, tt := range tests {
		c := NewContext()
		c.checkShadow(tt.name, luaast.Span{})
		if got := len(c.Warnings()); got != tt.wantWarns {
			t.Errorf("checkShadow(%q): got %d warnings, want %d", tt.name, got, tt.wantWarns)
		}
		if tt.wantWarns > 0 && c.Warnings()[0].Category != ShadowedBuiltin {
			t.Errorf("checkShadow(%q): category = %v, want ShadowedBuiltin", tt.name, c.Warnings()[0].Category)
		}
	}
}

func TestLowerLocalFunctionWarnsOnShadow(t *testing.T) {
	c := NewContext()
	_, err := c.lowerLocalFunction(&luaast.LocalFunction{
		Name: "print",
		Body: &luaast.Block{},
	})
	if err != nil {
		t.Fatalf("lowerLocalFunction(): %v", err)
	}
	if len(c.Warnings()) != 1 || c.Warnings()[0].Category != ShadowedBuiltin {
		t.Errorf("Warnings() = %v, want one ShadowedBuiltin warning", c.Warnings())
	}
}

// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

// Package luatran translates Lua source into an indentation-sensitive,
// Python-like target language. [TranslateSource] runs the whole pipeline
// end to end; [TranslateAST] and [Unparse] expose the intermediate stages
// for callers that need to inspect or reuse the lowered tree directly.
package luatran

import (
	"bufio"
	"fmt"
	"strings"

	"go.luatran.dev/pkg/internal/idiom"
	"go.luatran.dev/pkg/internal/imports"
	"go.luatran.dev/pkg/internal/luaast"
	"go.luatran.dev/pkg/internal/lowering"
	"go.luatran.dev/pkg/internal/luaparse"
	"go.luatran.dev/pkg/internal/pyast"
	"go.luatran.dev/pkg/internal/unparse"
)

// Warning re-exports [lowering.Warning]: a recoverable diagnostic recorded
// during translation. It never aborts translation on its own; strict mode
// turns its presence into an error at the caller's discretion.
type Warning = lowering.Warning

// StrictModeError reports that translation produced one or more warnings
// while running in strict mode, which promotes a recoverable warning to an
// error.
type StrictModeError struct {
	Warnings []Warning
}

func (e *StrictModeError) Error() string {
	msgs := make([]string, len(e.Warnings))
	for i, w := range e.Warnings {
		msgs[i] = w.String()
	}
	return fmt.Sprintf("%d warning(s) in strict mode:\n%s", len(e.Warnings), strings.Join(msgs, "\n"))
}

// TranslateSource runs the full pipeline, parsing, lowering, rewriting
// idioms, unparsing, and resolving imports, over Lua source text and
// returns the translated source text. When strict is true, any recoverable
// warning is escalated to a returned [*StrictModeError] instead of being
// merely reported.
func TranslateSource(src string, strict bool) (string, []Warning, error) {
	chunk, err := luaparse.Parse(bufio.NewReader(strings.NewReader(src)))
	if err != nil {
		return "", nil, err
	}
	mod, warnings, err := TranslateAST(chunk, strict)
	if err != nil {
		return "", warnings, err
	}
	out, err := Unparse(mod)
	if err != nil {
		return "", warnings, err
	}
	return out, warnings, nil
}

// TranslateAST lowers an already-parsed Lua chunk into a target module AST,
// running the idiom rewriter over the result.
func TranslateAST(chunk *luaast.Chunk, strict bool) (*pyast.Module, []Warning, error) {
	ctx := lowering.NewContext()
	ctx.Strict = strict
	mod, err := ctx.LowerChunk(chunk)
	if err != nil {
		return nil, ctx.Warnings(), err
	}
	warnings := ctx.Warnings()
	if strict {
		var promotable []lowering.Warning
		for _, w := range warnings {
			// ShadowedBuiltin is a style diagnostic surfaced only at -v and
			// is never escalated, even under --strict.
			if w.Category != lowering.ShadowedBuiltin {
				promotable = append(promotable, w)
			}
		}
		if len(promotable) > 0 {
			return nil, warnings, &StrictModeError{Warnings: promotable}
		}
	}
	idiom.Rewrite(mod)
	return mod, warnings, nil
}

// Unparse renders a target module AST to source text, followed by the
// import resolver's single textual pass.
func Unparse(mod *pyast.Module) (string, error) {
	src, err := unparse.Module(mod)
	if err != nil {
		return "", err
	}
	return imports.Resolve(src), nil
}

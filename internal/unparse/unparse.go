// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

// Package unparse renders a [pyast.Module] to source text. The output,
// re-parsed by the target language, yields a structurally equivalent AST
// modulo parenthesization and indentation.
package unparse

import (
	"fmt"
	"strings"

	"go.luatran.dev/pkg/internal/pyast"
)

// UnparseError reports a node the unparser cannot render: a node type with
// no handler, a nil expression, or a [pyast.Compare] whose Ops and Rights
// differ in length. Precedence tags are not checked against children; a
// child whose tag is below what its context requires is parenthesized. It
// is always fatal, and always indicates an internal bug rather than a
// malformed input.
type UnparseError struct {
	Detail string
}

func (e *UnparseError) Error() string {
	return fmt.Sprintf("unparse: %s", e.Detail)
}

const indentUnit = "    "

// Module renders mod to source text.
func Module(mod *pyast.Module) (string, error) {
	u := &unparser{}
	if err := u.statements(mod.Body); err != nil {
		return "", err
	}
	return u.b.String(), nil
}

type unparser struct {
	b     strings.Builder
	depth int
}

func (u *unparser) writeIndent() {
	u.b.WriteString(strings.Repeat(indentUnit, u.depth))
}

func (u *unparser) statements(stmts []pyast.Statement) error {
	if len(stmts) == 0 {
		u.writeIndent()
		u.b.WriteString("pass\n")
		return nil
	}
	for _, s := range stmts {
		if err := u.statement(s); err != nil {
			return err
		}
	}
	return nil
}

func (u *unparser) statement(s pyast.Statement) error {
	u.writeIndent()
	switch s := s.(type) {
	case *pyast.FunctionDef:
		return u.functionDef(s)
	case *pyast.ClassDef:
		return u.classDef(s)
	case *pyast.Assign:
		for i, t := range s.Targets {
			if i > 0 {
				u.b.WriteString(" = ")
			}
			if err := u.expr(t, pyast.PrecLambda); err != nil {
				return err
			}
		}
		u.b.WriteString(" = ")
		if err := u.expr(s.Value, pyast.PrecLambda); err != nil {
			return err
		}
		u.b.WriteString("\n")
	case *pyast.AugAssign:
		if err := u.expr(s.Target, pyast.PrecLambda); err != nil {
			return err
		}
		u.b.WriteString(" " + augOpText(s.Op) + "= ")
		if err := u.expr(s.Value, pyast.PrecLambda); err != nil {
			return err
		}
		u.b.WriteString("\n")
	case *pyast.Return:
		u.b.WriteString("return")
		if s.Value != nil {
			u.b.WriteString(" ")
			if err := u.expr(s.Value, pyast.PrecLambda); err != nil {
				return err
			}
		}
		u.b.WriteString("\n")
	case *pyast.If:
		u.b.WriteString("if ")
		if err := u.expr(s.Test, pyast.PrecLambda); err != nil {
			return err
		}
		u.b.WriteString(":\n")
		u.depth++
		if err := u.statements(s.Body); err != nil {
			return err
		}
		u.depth--
		if len(s.Orelse) > 0 {
			u.writeIndent()
			u.b.WriteString("else:\n")
			u.depth++
			if err := u.statements(s.Orelse); err != nil {
				return err
			}
			u.depth--
		}
	case *pyast.For:
		u.b.WriteString("for ")
		if tup, ok := s.Target.(*pyast.Tuple); ok && len(tup.Elts) > 1 {
			// A multi-name loop target is written bare: `for a, b in ...`.
			for i, el := range tup.Elts {
				if i > 0 {
					u.b.WriteString(", ")
				}
				if err := u.expr(el, pyast.PrecLambda); err != nil {
					return err
				}
			}
		} else if err := u.expr(s.Target, pyast.PrecLambda); err != nil {
			return err
		}
		u.b.WriteString(" in ")
		if err := u.expr(s.Iter, pyast.PrecLambda); err != nil {
			return err
		}
		u.b.WriteString(":\n")
		u.depth++
		if err := u.statements(s.Body); err != nil {
			return err
		}
		u.depth--
	case *pyast.While:
		u.b.WriteString("while ")
		if err := u.expr(s.Test, pyast.PrecLambda); err != nil {
			return err
		}
		u.b.WriteString(":\n")
		u.depth++
		if err := u.statements(s.Body); err != nil {
			return err
		}
		u.depth--
	case *pyast.Break:
		u.b.WriteString("break\n")
	case *pyast.Continue:
		u.b.WriteString("continue\n")
	case *pyast.Pass:
		u.b.WriteString("pass\n")
	case *pyast.Import:
		u.b.WriteString("import " + s.Module)
		if s.Alias != "" {
			u.b.WriteString(" as " + s.Alias)
		}
		u.b.WriteString("\n")
	case *pyast.ImportFrom:
		u.b.WriteString("from " + s.Module + " import " + strings.Join(s.Names, ", ") + "\n")
	case *pyast.Global:
		u.b.WriteString("global " + strings.Join(s.Names, ", ") + "\n")
	case *pyast.Expr:
		if err := u.expr(s.Value, pyast.PrecLambda); err != nil {
			return err
		}
		u.b.WriteString("\n")
	default:
		return &UnparseError{Detail: fmt.Sprintf("no unparse handler for statement %T", s)}
	}
	return nil
}

func augOpText(op pyast.AugOp) string {
	switch op {
	case pyast.AugAdd:
		return "+"
	case pyast.AugSub:
		return "-"
	case pyast.AugMul:
		return "*"
	default:
		return "+"
	}
}

func (u *unparser) decorators(decs []pyast.Decorator) error {
	for _, d := range decs {
		u.writeIndent()
		u.b.WriteString("@")
		if err := u.expr(d.Expr, pyast.PrecLambda); err != nil {
			return err
		}
		u.b.WriteString("\n")
	}
	return nil
}

func (u *unparser) functionDef(s *pyast.FunctionDef) error {
	if err := u.decorators(s.Decorators); err != nil {
		return err
	}
	u.writeIndent()
	u.b.WriteString("def " + s.Name + "(")
	if err := u.arguments(s.Args); err != nil {
		return err
	}
	u.b.WriteString("):\n")
	u.depth++
	err := u.statements(s.Body)
	u.depth--
	return err
}

func (u *unparser) classDef(s *pyast.ClassDef) error {
	if err := u.decorators(s.Decorators); err != nil {
		return err
	}
	u.writeIndent()
	u.b.WriteString("class " + s.Name)
	if len(s.Bases) > 0 {
		u.b.WriteString("(" + strings.Join(s.Bases, ", ") + ")")
	}
	u.b.WriteString(":\n")
	u.depth++
	err := u.statements(s.Body)
	u.depth--
	return err
}

// arguments emits the canonical order: positional with aligned defaults,
// then `*varargs`, then keyword-only with defaults, then `**kwargs`.
func (u *unparser) arguments(a pyast.Arguments) error {
	first := true
	writeSep := func() {
		if !first {
			u.b.WriteString(", ")
		}
		first = false
	}
	for _, p := range a.Positional {
		writeSep()
		if err := u.param(p); err != nil {
			return err
		}
	}
	if a.Vararg != "" {
		writeSep()
		u.b.WriteString("*" + a.Vararg)
	} else if len(a.KeywordOnly) > 0 {
		writeSep()
		u.b.WriteString("*")
	}
	for _, p := range a.KeywordOnly {
		writeSep()
		if err := u.param(p); err != nil {
			return err
		}
	}
	if a.KwargCatch != "" {
		writeSep()
		u.b.WriteString("**" + a.KwargCatch)
	}
	return nil
}

func (u *unparser) param(p pyast.Param) error {
	u.b.WriteString(p.Name)
	if p.Default != nil {
		u.b.WriteString("=")
		if err := u.expr(p.Default, pyast.PrecAtom); err != nil {
			return err
		}
	}
	return nil
}

// expr renders e, parenthesizing it if its intrinsic precedence is lower
// than required.
func (u *unparser) expr(e pyast.Expression, required pyast.Precedence) error {
	if e == nil {
		return &UnparseError{Detail: "nil expression"}
	}
	needsParens := e.Prec() < required
	if needsParens {
		u.b.WriteString("(")
	}
	if err := u.exprInner(e); err != nil {
		return err
	}
	if needsParens {
		u.b.WriteString(")")
	}
	return nil
}

func (u *unparser) exprInner(e pyast.Expression) error {
	switch e := e.(type) {
	case *pyast.Name:
		u.b.WriteString(e.ID)
	case *pyast.Constant:
		return u.constant(e)
	case *pyast.Call:
		return u.call(e)
	case *pyast.Attribute:
		if err := u.expr(e.Value, pyast.PrecAtom); err != nil {
			return err
		}
		u.b.WriteString("." + e.Attr)
	case *pyast.Subscript:
		if err := u.expr(e.Value, pyast.PrecAtom); err != nil {
			return err
		}
		u.b.WriteString("[")
		if err := u.expr(e.Slice, pyast.PrecLambda); err != nil {
			return err
		}
		u.b.WriteString("]")
	case *pyast.BinOp:
		return u.binOp(e)
	case *pyast.BoolOp:
		return u.boolOp(e)
	case *pyast.UnaryOp:
		return u.unaryOp(e)
	case *pyast.Compare:
		return u.compare(e)
	case *pyast.IfExp:
		if err := u.expr(e.Body, pyast.PrecOr+1); err != nil {
			return err
		}
		u.b.WriteString(" if ")
		if err := u.expr(e.Test, pyast.PrecOr+1); err != nil {
			return err
		}
		u.b.WriteString(" else ")
		return u.expr(e.Orelse, pyast.PrecOr)
	case *pyast.List:
		return u.sequence("[", "]", e.Elts)
	case *pyast.Tuple:
		return u.tuple(e)
	case *pyast.Dict:
		return u.dict(e)
	case *pyast.Starred:
		u.b.WriteString("*")
		return u.expr(e.Value, pyast.PrecAtom)
	case *pyast.Lambda:
		u.b.WriteString("lambda ")
		if err := u.arguments(e.Args); err != nil {
			return err
		}
		u.b.WriteString(": ")
		return u.expr(e.Body, pyast.PrecLambda)
	case *pyast.JoinedStr:
		return u.joinedStr(e)
	default:
		return &UnparseError{Detail: fmt.Sprintf("no unparse handler for expression %T", e)}
	}
	return nil
}

func (u *unparser) call(e *pyast.Call) error {
	if err := u.expr(e.Func, pyast.PrecAtom); err != nil {
		return err
	}
	u.b.WriteString("(")
	for i, a := range e.Args {
		if i > 0 {
			u.b.WriteString(", ")
		}
		if err := u.expr(a, pyast.PrecLambda); err != nil {
			return err
		}
	}
	for i, k := range e.Keywords {
		if i > 0 || len(e.Args) > 0 {
			u.b.WriteString(", ")
		}
		u.b.WriteString(k.Name + "=")
		if err := u.expr(k.Value, pyast.PrecLambda); err != nil {
			return err
		}
	}
	u.b.WriteString(")")
	return nil
}

func (u *unparser) sequence(open, close string, elts []pyast.Expression) error {
	u.b.WriteString(open)
	for i, el := range elts {
		if i > 0 {
			u.b.WriteString(", ")
		}
		if err := u.expr(el, pyast.PrecLambda); err != nil {
			return err
		}
	}
	u.b.WriteString(close)
	return nil
}

func (u *unparser) tuple(e *pyast.Tuple) error {
	u.b.WriteString("(")
	for i, el := range e.Elts {
		if i > 0 {
			u.b.WriteString(", ")
		}
		if err := u.expr(el, pyast.PrecLambda); err != nil {
			return err
		}
	}
	if len(e.Elts) == 1 {
		u.b.WriteString(",")
	}
	u.b.WriteString(")")
	return nil
}

func (u *unparser) dict(e *pyast.Dict) error {
	u.b.WriteString("{")
	for i, entry := range e.Entries {
		if i > 0 {
			u.b.WriteString(", ")
		}
		if err := u.expr(entry.Key, pyast.PrecLambda); err != nil {
			return err
		}
		u.b.WriteString(": ")
		if err := u.expr(entry.Value, pyast.PrecLambda); err != nil {
			return err
		}
	}
	u.b.WriteString("}")
	return nil
}

func binOpSymbol(op pyast.BinOpKind) string {
	switch op {
	case pyast.OpAdd:
		return "+"
	case pyast.OpSub:
		return "-"
	case pyast.OpMul:
		return "*"
	case pyast.OpTrueDiv:
		return "/"
	case pyast.OpFloorDiv:
		return "//"
	case pyast.OpMod:
		return "%"
	case pyast.OpPow:
		return "**"
	case pyast.OpBitAnd:
		return "&"
	case pyast.OpBitOr:
		return "|"
	case pyast.OpBitXor:
		return "^"
	case pyast.OpShiftL:
		return "<<"
	case pyast.OpShiftR:
		return ">>"
	default:
		return "?"
	}
}

// binOp renders a binary operator expression. Right-associative `**` gets
// an asymmetric precedence requirement on its left operand: the left side
// must bind tighter than PrecPow so that `(a ** b) ** c` keeps its
// parentheses while `a ** (b ** c)`, the natural right-fold, does not.
func (u *unparser) binOp(e *pyast.BinOp) error {
	prec := e.Prec()
	leftReq, rightReq := prec, prec+1
	if e.Op == pyast.OpPow {
		leftReq, rightReq = prec+1, prec
	}
	if err := u.expr(e.Left, leftReq); err != nil {
		return err
	}
	u.b.WriteString(" " + binOpSymbol(e.Op) + " ")
	return u.expr(e.Right, rightReq)
}

func (u *unparser) boolOp(e *pyast.BoolOp) error {
	sym := "and"
	if e.Op == pyast.BoolOr {
		sym = "or"
	}
	prec := e.Prec()
	if err := u.expr(e.Left, prec); err != nil {
		return err
	}
	u.b.WriteString(" " + sym + " ")
	return u.expr(e.Right, prec+1)
}

func (u *unparser) unaryOp(e *pyast.UnaryOp) error {
	var sym string
	switch e.Op {
	case pyast.UnaryNeg:
		sym = "-"
	case pyast.UnaryNot:
		sym = "not "
	case pyast.UnaryInvert:
		sym = "~"
	}
	u.b.WriteString(sym)
	return u.expr(e.Operand, e.Prec())
}

func compareSymbol(op pyast.CompareOpKind) string {
	switch op {
	case pyast.CmpLt:
		return "<"
	case pyast.CmpGt:
		return ">"
	case pyast.CmpLtE:
		return "<="
	case pyast.CmpGtE:
		return ">="
	case pyast.CmpEq:
		return "=="
	case pyast.CmpNotEq:
		return "!="
	default:
		return "?"
	}
}

func (u *unparser) compare(e *pyast.Compare) error {
	if len(e.Ops) != len(e.Rights) {
		return &UnparseError{Detail: "Compare has mismatched Ops/Rights lengths"}
	}
	if err := u.expr(e.Left, pyast.PrecCompare+1); err != nil {
		return err
	}
	for i, op := range e.Ops {
		u.b.WriteString(" " + compareSymbol(op) + " ")
		if err := u.expr(e.Rights[i], pyast.PrecCompare+1); err != nil {
			return err
		}
	}
	return nil
}

func (u *unparser) joinedStr(e *pyast.JoinedStr) error {
	u.b.WriteString(`f"`)
	for _, part := range e.Parts {
		if part.Expr == nil {
			u.b.WriteString(escapeJoinedLiteral(part.Literal))
			continue
		}
		u.b.WriteString("{")
		if err := u.expr(part.Expr, pyast.PrecLambda); err != nil {
			return err
		}
		u.b.WriteString("}")
	}
	u.b.WriteString(`"`)
	return nil
}

// escapeJoinedLiteral doubles unbraced `{`/`}` in a formatted-string
// literal run.
func escapeJoinedLiteral(s string) string {
	s = strings.ReplaceAll(s, "{", "{{")
	s = strings.ReplaceAll(s, "}", "}}")
	return strings.ReplaceAll(s, `"`, `\"`)
}

func (u *unparser) constant(c *pyast.Constant) error {
	switch c.Kind {
	case pyast.KindString:
		u.b.WriteString(quoteString(c.Value))
	case pyast.KindIntLiteral:
		u.b.WriteString(c.Value)
	default:
		u.b.WriteString(c.Value)
	}
	return nil
}

// quoteString selects the minimum-escape quote style among `'`, `"`,
// `'''`, `"""`, the one whose occurrences inside s are fewest; a
// multi-line value forces one of the triple-quote forms.
func quoteString(s string) string {
	hasNewline := strings.Contains(s, "\n")
	counts := map[string]int{
		`'`:   strings.Count(s, `'`),
		`"`:   strings.Count(s, `"`),
		`'''`: strings.Count(s, `'''`),
		`"""`: strings.Count(s, `"""`),
	}
	candidates := []string{`'`, `"`}
	if hasNewline {
		candidates = []string{`'''`, `"""`}
	}
	best := candidates[0]
	for _, q := range candidates[1:] {
		if counts[q] < counts[best] {
			best = q
		}
	}
	body := s
	if !hasNewline {
		body = escapeControlChars(s)
	}
	escaped := strings.ReplaceAll(body, best, `\`+best)
	return best + escaped + best
}

// escapeControlChars renders unprintable characters as escape sequences.
func escapeControlChars(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

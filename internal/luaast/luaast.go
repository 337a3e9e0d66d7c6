// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

// Package luaast defines the tagged-variant tree used to represent parsed
// Lua source: a [Chunk] at the root, statements and expressions beneath it.
//
// Every node carries an optional [Span] for diagnostics. Spans are not part
// of a node's identity: two nodes with identical fields but different spans
// are considered structurally equal by [lowering] and by tests in this
// module.
package luaast

import "go.luatran.dev/pkg/internal/lualex"

// Span locates a node in its originating source file. The zero Span means
// "no position information" and is never rendered in diagnostics.
type Span struct {
	Start lualex.Position
	End   lualex.Position
}

// IsValid reports whether the span carries real position information.
func (s Span) IsValid() bool {
	return s.Start.IsValid()
}

// Node is implemented by every member of the Lua AST.
type Node interface {
	Span() Span
}

// base is embedded by every node to carry its span without repeating the
// accessor method.
type base struct {
	span Span
}

func (b base) Span() Span { return b.span }

// WithSpan attaches sp to n's embedded base. Parsers call this once per
// node; lowering never needs it.
func (b *base) WithSpan(sp Span) { b.span = sp }

// Statement is implemented by every Lua statement node.
type Statement interface {
	Node
	luaStatement()
}

// Expression is implemented by every Lua expression node, including
// l-values.
type Expression interface {
	Node
	luaExpression()
}

// LValue is implemented by expressions that may appear as an assignment
// target: [Name] and [Index].
type LValue interface {
	Expression
	luaLValue()
}

// Chunk is a compilation unit: the root of one parsed Lua source file.
type Chunk struct {
	base
	Body *Block
}

// Block is an ordered sequence of statements forming a lexical scope.
type Block struct {
	base
	Body []Statement
}

func (*Block) luaStatement() {}

// ---- Statements ----

// Assign is `targets = values`, scoped at the nearest enclosing function or
// chunk (as opposed to [LocalAssign], which introduces block-local names).
type Assign struct {
	base
	Targets []LValue
	Values  []Expression
}

func (*Assign) luaStatement() {}

// LocalAssign is `local targets = values`. Shape matches [Assign]; only the
// scoping differs.
type LocalAssign struct {
	base
	Targets []LValue
	Values  []Expression
}

func (*LocalAssign) luaStatement() {}

// While is `while Test do Body end`.
type While struct {
	base
	Test Expression
	Body *Block
}

func (*While) luaStatement() {}

// Repeat is `repeat Body until Test`. Note Lua scopes Test inside Body.
type Repeat struct {
	base
	Body *Block
	Test Expression
}

func (*Repeat) luaStatement() {}

// Do is a bare `do Body end` block with no control flow of its own.
type Do struct {
	base
	Body *Block
}

func (*Do) luaStatement() {}

// If is `if Test then Body [else/elseif Orelse] end`.
//
// Orelse is one of: nil (no else clause), a *Block (a plain "else"), or an
// *ElseIf (a chained "elseif").
type If struct {
	base
	Test   Expression
	Body   *Block
	Orelse Statement
}

func (*If) luaStatement() {}

// ElseIf chains onto an enclosing [If]'s Orelse field.
type ElseIf struct {
	base
	Test   Expression
	Body   *Block
	Orelse Statement
}

func (*ElseIf) luaStatement() {}

// Fornum is the numeric for loop: `for Target = Start, Stop[, Step] do Body end`.
type Fornum struct {
	base
	Target Name
	Start  Expression
	Stop   Expression
	Step   Expression // nil if the literal step was omitted
	Body   *Block
}

func (*Fornum) luaStatement() {}

// Forin is the generic for loop: `for Targets in Iter do Body end`.
//
// Targets is never empty.
type Forin struct {
	base
	Targets []Name
	Iter    []Expression
	Body    *Block
}

func (*Forin) luaStatement() {}

// ForEnumerate is a [Forin] recognized as iterating via `ipairs(...)`.
// Populated only by the pre-lowering recognition step, never by the
// parser.
type ForEnumerate struct {
	base
	Target Name // the single, unsplit loop variable as written in source
	Iter   Expression
	Body   *Block
}

func (*ForEnumerate) luaStatement() {}

// Label is a goto target: `::id::`.
type Label struct {
	base
	ID string
}

func (*Label) luaStatement() {}

// Goto is `goto label`.
type Goto struct {
	base
	Label string
}

func (*Goto) luaStatement() {}

// Break is the `break` statement.
type Break struct{ base }

func (*Break) luaStatement() {}

// SemiColon is a bare `;` with no effect, preserved only because the
// grammar accepts it as a statement.
type SemiColon struct{ base }

func (*SemiColon) luaStatement() {}

// Return is `return Values`.
type Return struct {
	base
	Values []Expression
}

func (*Return) luaStatement() {}

// Function is `function Name(Args) Body end`, where Name may be a dotted
// path (`a.b.c = function...`).
type Function struct {
	base
	Name *FunctionName
	Args []Name
	Body *Block
}

func (*Function) luaStatement() {}

// LocalFunction is `local function Name(Args) Body end`.
type LocalFunction struct {
	base
	Name string
	Args []Name
	Body *Block
}

func (*LocalFunction) luaStatement() {}

// Method is `function Source:Name(Args) Body end` — declared with `:`,
// which implicitly prepends `self` to Args at call sites (not in Args
// itself; lowering adds it).
type Method struct {
	base
	Source string
	Name   string
	Args   []Name
	Body   *Block
}

func (*Method) luaStatement() {}

// Initializer is a [Method] whose Name is "init" — the constructor of the
// extend/metatable idiom. Populated only by the pre-lowering recognition
// step.
type Initializer struct {
	base
	Source string
	Args   []Name
	Body   *Block
}

func (*Initializer) luaStatement() {}

// FunctionName is a (possibly dotted) function declaration target, e.g.
// `a.b.c` in `function a.b.c() end`.
type FunctionName struct {
	base
	Path []string
}

// Call is `Func(Args)`.
type Call struct {
	base
	Func Expression
	Args []Expression
}

func (*Call) luaStatement() {}
func (*Call) luaExpression() {}

// Invoke is `Source:Func(Args)` — method-call syntax that passes Source as
// the implicit first argument.
type Invoke struct {
	base
	Source Expression
	Func   string
	Args   []Expression
}

func (*Invoke) luaStatement() {}
func (*Invoke) luaExpression() {}

// InstanceMethodCall is an [Invoke] recognized as dispatching to a method
// of a class synthesized from the extend idiom. Populated only by the
// pre-lowering recognition step.
type InstanceMethodCall struct {
	base
	Source Expression
	Method string
	Args   []Expression
}

func (*InstanceMethodCall) luaStatement() {}
func (*InstanceMethodCall) luaExpression() {}

// Require is a [Call] to `require` with string-literal arguments,
// recognized by the pre-lowering step.
type Require struct {
	base
	Args []string
}

func (*Require) luaStatement() {}
func (*Require) luaExpression() {}

// Constructor is an [Assign] (or [LocalAssign]) whose sole RHS is
// `Base:extend()`, recognized by the pre-lowering step. Bases is resolved
// to bare type names; it holds zero elements when [MalformedClassPattern]
// was reported and recovery produced a baseless class.
type Constructor struct {
	base
	Name  string
	Bases []string
}

func (*Constructor) luaStatement() {}

// ---- Expressions ----

// Nil is the `nil` literal.
type Nil struct{ base }

func (*Nil) luaExpression() {}

// TrueExpr is the `true` literal.
type TrueExpr struct{ base }

func (*TrueExpr) luaExpression() {}

// FalseExpr is the `false` literal.
type FalseExpr struct{ base }

func (*FalseExpr) luaExpression() {}

// Number is a numeric literal. N retains the exact source text so that
// lowering can preserve Lua's float-vs-integer lexical form.
type Number struct {
	base
	N string
}

func (*Number) luaExpression() {}

// StringDelimiter records which quoting style a [String] literal used in
// source, so round-tripping diagnostics can quote it the same way; it does
// not influence how the target unparser quotes the lowered value.
type StringDelimiter int

const (
	// DoubleQuote is the `"..."` form.
	DoubleQuote StringDelimiter = iota
	// SingleQuote is the `'...'` form.
	SingleQuote
	// LongBracket is the `[[...]]` form.
	LongBracket
)

// String is a string literal.
type String struct {
	base
	S         string
	Delimiter StringDelimiter
}

func (*String) luaExpression() {}

// Varargs is the `...` expression appearing as a statement-level spread in
// a call or table constructor.
type Varargs struct{ base }

func (*Varargs) luaExpression() {}

// Dots is `...` used as a plain expression (e.g. assigned to a local).
// Distinguished from [Varargs] only for parser symmetry with the source
// grammar; lowering treats them identically.
type Dots struct{ base }

func (*Dots) luaExpression() {}

// Name is a bare identifier reference, used both as an expression and (per
// [LValue]) an assignment target.
type Name struct {
	base
	ID string
}

func (*Name) luaExpression() {}
func (*Name) luaLValue()     {}

// IndexNotation selects how an [Index] was spelled in source.
type IndexNotation int

const (
	// DOT is `value.idx`.
	DOT IndexNotation = iota
	// SQUARE is `value[idx]`.
	SQUARE
)

// Index is a table index, either `value.idx` or `value[idx]` per invariant
// I1: Notation is always exactly one of DOT or SQUARE.
type Index struct {
	base
	Value    Expression
	Idx      Expression
	Notation IndexNotation
}

func (*Index) luaExpression() {}
func (*Index) luaLValue()     {}

// Field is one entry of a [Table] constructor. Key is nil for positional
// (list-part) entries.
type Field struct {
	Key            Expression // nil for a positional entry
	Value          Expression
	BetweenBrackets bool // true if Key was written as `[expr] = value`
}

// Table is a table constructor; a mapping whose Fields with Key == nil form
// the positional list part.
type Table struct {
	base
	Fields []Field
}

func (*Table) luaExpression() {}

// AnonymousFunction is a `function(Args) Body end` expression.
type AnonymousFunction struct {
	base
	Args []Name
	Body *Block
}

func (*AnonymousFunction) luaExpression() {}

// AriOp is an arithmetic binary operator.
type AriOp int

const (
	Add AriOp = iota
	Sub
	Mult
	FloatDiv
	FloorDiv
	Mod
	Expo
)

// BitOp is a bitwise binary operator. (Note: Lua's `and`/`or` are logical,
// not bitwise; BitOp here covers only the bit-manipulation operators. The
// short-circuit boolean operators live in [LoOp].)
type BitOp int

const (
	BAnd BitOp = iota
	BOr
	BXor
	ShiftL
	ShiftR
)

// RelOp is a relational (comparison) operator.
type RelOp int

const (
	Lt RelOp = iota
	Gt
	LtE
	GtE
	Eq
	NotEq
)

// LoOp is a short-circuit logical operator.
type LoOp int

const (
	AndLoOp LoOp = iota
	OrLoOp
)

// AriOpExpr is an arithmetic binary expression.
type AriOpExpr struct {
	base
	Op          AriOp
	Left, Right Expression
}

func (*AriOpExpr) luaExpression() {}

// BitOpExpr is a bitwise binary expression.
type BitOpExpr struct {
	base
	Op          BitOp
	Left, Right Expression
}

func (*BitOpExpr) luaExpression() {}

// RelOpExpr is a relational binary expression.
type RelOpExpr struct {
	base
	Op          RelOp
	Left, Right Expression
}

func (*RelOpExpr) luaExpression() {}

// LoOpExpr is a short-circuit logical binary expression.
type LoOpExpr struct {
	base
	Op          LoOp
	Left, Right Expression
}

func (*LoOpExpr) luaExpression() {}

// Concat is Lua's `..` string-concatenation operator.
type Concat struct {
	base
	Left, Right Expression
}

func (*Concat) luaExpression() {}

// UMinusOp is unary `-x`.
type UMinusOp struct {
	base
	Operand Expression
}

func (*UMinusOp) luaExpression() {}

// UBNotOp is unary bitwise-not `~x`.
type UBNotOp struct {
	base
	Operand Expression
}

func (*UBNotOp) luaExpression() {}

// ULNotOp is logical-not `not x`.
type ULNotOp struct {
	base
	Operand Expression
}

func (*ULNotOp) luaExpression() {}

// ULengthOP is the length operator `#x`.
type ULengthOP struct {
	base
	Operand Expression
}

func (*ULengthOP) luaExpression() {}

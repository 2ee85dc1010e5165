// Package grammar defines the token kinds a language is built from.
//
// A [Definition] is a named regular expression plus kind-specific parse
// behavior. The set of kinds is closed:
//
//   - [Token]: plain text with no parse action, usually ignorable whitespace
//   - [Operand]: a leaf built from the matched text
//   - [Operator]: a reduction with optional precedence and argument layout
//   - [BracketOpen]: grouping, or a function call when it carries [Call] data
//   - [BracketClose]: closes any of a declared set of [BracketOpen] kinds
//   - [ListDelimiter]: separates operands inside brackets
//
// Definitions are immutable once constructed and may be shared by any number
// of concurrent parses.
package grammar

import (
	"errors"
	"fmt"
	"regexp"
	"slices"

	"github.com/ardnew/prex/ir"
	"github.com/ardnew/prex/pkg"
)

// Configuration errors reported by [Validate].
var (
	ErrInvalidName    = errors.New("invalid definition name")
	ErrDuplicateName  = errors.New("duplicate definition name")
	ErrInvalidPattern = errors.New("invalid definition pattern")
	ErrEmptyMatch     = errors.New("definition pattern matches empty text")
	ErrNoDefinitions  = errors.New("no definitions")
)

var validName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Definition is a named, pattern-matched token kind.
type Definition interface {
	// Name identifies the definition. It is unique within a language and
	// consists of ASCII letters, digits and underscores.
	Name() string

	// Pattern is the regular expression matching the definition's text.
	Pattern() string

	// Ignore reports whether matched tokens are dropped by the tokenizer.
	Ignore() bool

	definition()
}

type base struct {
	name    string
	pattern string
	ignore  bool
}

func (b *base) Name() string    { return b.name }
func (b *base) Pattern() string { return b.pattern }
func (b *base) Ignore() bool    { return b.ignore }
func (*base) definition()       {}

func (b *base) String() string { return b.name }

// Token is a definition without parse behavior.
type Token struct{ base }

// NewToken returns a plain token definition.
func NewToken(name, pattern string) *Token {
	return &Token{base{name: name, pattern: pattern}}
}

// NewIgnore returns a token definition whose matches are dropped, such as
// whitespace or comments.
func NewIgnore(name, pattern string) *Token {
	return &Token{base{name: name, pattern: pattern, ignore: true}}
}

// OperandBuilder builds a leaf node from matched text. params are the
// placeholders given to the current parse.
type OperandBuilder func(text string, params []*ir.Param) (ir.Node, error)

// Operand is a definition producing a leaf node.
type Operand struct {
	base

	Build OperandBuilder
}

// NewOperand returns an operand definition.
func NewOperand(name, pattern string, build OperandBuilder) *Operand {
	return &Operand{base: base{name: name, pattern: pattern}, Build: build}
}

// Position places an operator argument relative to the operator.
type Position uint8

const (
	Left Position = iota
	Right
)

func (p Position) String() string {
	if p == Left {
		return "left"
	}

	return "right"
}

// OperatorBuilder builds a node from operator arguments in declaration order.
type OperatorBuilder func(args []ir.Node) (ir.Node, error)

// Operator is a definition reducing its positioned arguments to one node.
type Operator struct {
	base

	precedence    int
	hasPrecedence bool
	positions     []Position

	Build OperatorBuilder
}

// NewOperator returns an operator with the given precedence, where lower
// values bind tighter. positions declares the arity and the placement of each
// argument; the builder receives arguments in the same order.
func NewOperator(
	name, pattern string,
	precedence int,
	positions []Position,
	build OperatorBuilder,
) *Operator {
	return &Operator{
		base:          base{name: name, pattern: pattern},
		precedence:    precedence,
		hasPrecedence: true,
		positions:     slices.Clone(positions),
		Build:         build,
	}
}

// NewStructural returns an operator without precedence. Structural operators
// never trigger folding of earlier operators and reduce only when folded by
// a later one, a closing bracket, or the end of input.
func NewStructural(
	name, pattern string,
	positions []Position,
	build OperatorBuilder,
) *Operator {
	return &Operator{
		base:      base{name: name, pattern: pattern},
		positions: slices.Clone(positions),
		Build:     build,
	}
}

// NewBinary returns an infix operator.
func NewBinary(
	name, pattern string,
	precedence int,
	build func(l, r ir.Node) (ir.Node, error),
) *Operator {
	return NewOperator(name, pattern, precedence, []Position{Left, Right},
		func(args []ir.Node) (ir.Node, error) { return build(args[0], args[1]) })
}

// NewPrefix returns a unary operator preceding its operand.
func NewPrefix(
	name, pattern string,
	precedence int,
	build func(ir.Node) (ir.Node, error),
) *Operator {
	return NewOperator(name, pattern, precedence, []Position{Right},
		func(args []ir.Node) (ir.Node, error) { return build(args[0]) })
}

// Precedence returns the operator precedence, if it has one.
func (o *Operator) Precedence() (int, bool) { return o.precedence, o.hasPrecedence }

// Positions returns the argument layout.
func (o *Operator) Positions() []Position { return slices.Clone(o.positions) }

// Count returns the number of arguments at position p.
func (o *Operator) Count(p Position) int {
	n := 0

	for _, q := range o.positions {
		if q == p {
			n++
		}
	}

	return n
}

// CallBuilder builds a node from function arguments. A nil node with a nil
// error means the call produces no operand.
type CallBuilder func(args []ir.Node) (ir.Node, error)

// Call is the function-call payload of a [BracketOpen].
type Call struct {
	// ArgTypes are the declared argument types. Arguments are converted to
	// them implicitly before Build is invoked.
	ArgTypes []ir.Type

	// Checked reports whether ArgTypes is enforced. Unchecked calls accept
	// any number of arguments of any type.
	Checked bool

	Build CallBuilder
}

// BracketOpen opens a group. Plain brackets yield their single interior
// operand; brackets carrying a [Call] invoke it with the interior operands.
type BracketOpen struct {
	base

	call *Call
}

// NewBracket returns a plain grouping bracket.
func NewBracket(name, pattern string) *BracketOpen {
	return &BracketOpen{base: base{name: name, pattern: pattern}}
}

// NewFunction returns a function-call bracket with exactly the given
// argument types. The pattern usually includes the opening bracket, as in
// `max\(`.
func NewFunction(
	name, pattern string,
	build CallBuilder,
	argTypes ...ir.Type,
) *BracketOpen {
	return &BracketOpen{
		base: base{name: name, pattern: pattern},
		call: &Call{ArgTypes: slices.Clone(argTypes), Checked: true, Build: build},
	}
}

// NewVariadic returns a function-call bracket accepting any arguments.
func NewVariadic(name, pattern string, build CallBuilder) *BracketOpen {
	return &BracketOpen{
		base: base{name: name, pattern: pattern},
		call: &Call{Build: build},
	}
}

// Call returns the function-call payload, or nil for a plain bracket.
func (b *BracketOpen) Call() *Call { return b.call }

// ListDelimiter separates operands inside brackets.
type ListDelimiter struct{ base }

// NewListDelimiter returns a list delimiter definition.
func NewListDelimiter(name, pattern string) *ListDelimiter {
	return &ListDelimiter{base{name: name, pattern: pattern}}
}

// BracketClose closes any of a set of [BracketOpen] definitions.
type BracketClose struct {
	base

	opens     []*BracketOpen
	delimiter *ListDelimiter
}

// NewBracketClose returns a closing bracket matching opens. delimiter, which
// may be nil, separates operands inside the group.
func NewBracketClose(
	name, pattern string,
	delimiter *ListDelimiter,
	opens ...*BracketOpen,
) *BracketClose {
	return &BracketClose{
		base:      base{name: name, pattern: pattern},
		opens:     slices.Clone(opens),
		delimiter: delimiter,
	}
}

// Matches reports whether c closes o.
func (c *BracketClose) Matches(o *BracketOpen) bool {
	return slices.Contains(c.opens, o)
}

// Delimiter returns the list delimiter accepted inside the group, or nil.
func (c *BracketClose) Delimiter() *ListDelimiter { return c.delimiter }

// Opens returns the bracket kinds c closes.
func (c *BracketClose) Opens() []*BracketOpen { return slices.Clone(c.opens) }

// Validate checks a definition list for configuration errors: names outside
// [A-Za-z0-9_], duplicate names, patterns that do not compile, and patterns
// that match empty text.
func Validate(defs ...Definition) error {
	if len(defs) == 0 {
		return pkg.MakeError(ErrNoDefinitions)
	}

	seen := make(map[string]bool, len(defs))

	for _, d := range defs {
		name := d.Name()

		if !validName.MatchString(name) {
			return pkg.MakeError(ErrInvalidName).Wrapf("%q", name)
		}

		if seen[name] {
			return pkg.MakeError(ErrDuplicateName).Wrapf("%q", name)
		}

		seen[name] = true

		re, err := regexp.Compile(d.Pattern())
		if err != nil {
			return pkg.MakeError(ErrInvalidPattern).
				Wrapf("%s", name).
				Wrap(err)
		}

		if re.MatchString("") {
			return pkg.MakeError(ErrEmptyMatch).Wrapf("%s: %q", name, d.Pattern())
		}
	}

	return nil
}

// Kind returns a short name for the kind of d.
func Kind(d Definition) string {
	switch d := d.(type) {
	case *Token:
		return "token"
	case *Operand:
		return "operand"
	case *Operator:
		return "operator"
	case *BracketOpen:
		if d.call != nil {
			return "function"
		}

		return "bracket"
	case *BracketClose:
		return "close"
	case *ListDelimiter:
		return "delimiter"
	}

	return fmt.Sprintf("%T", d)
}

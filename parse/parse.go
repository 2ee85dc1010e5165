// Package parse implements the operator-precedence engine shared by every
// language.
//
// A [State] holds two stacks: built operands, each with the source span it
// covers, and pending entries awaiting reduction. Tokens are applied one at a
// time; pending entries are reduced when a later operator of equal or looser
// precedence arrives, when a closing bracket collects its group, or when the
// input ends. Well-formedness is checked while reducing, by comparing operand
// spans with the span of the entry being reduced, so every failure carries
// the exact location that caused it.
package parse

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/ardnew/prex/coerce"
	"github.com/ardnew/prex/diag"
	"github.com/ardnew/prex/grammar"
	"github.com/ardnew/prex/ir"
	"github.com/ardnew/prex/span"
	"github.com/ardnew/prex/token"
)

// Operand is a built subtree and the source it was built from.
type Operand struct {
	Node ir.Node
	Span span.Span
}

// Kind distinguishes pending entries.
type Kind uint8

const (
	// KindOperator is an operator awaiting its arguments.
	KindOperator Kind = iota
	// KindBracket is an open bracket awaiting its close.
	KindBracket
	// KindDelimiter is a list delimiter awaiting its close.
	KindDelimiter
)

func (k Kind) String() string {
	switch k {
	case KindOperator:
		return "operator"
	case KindBracket:
		return "bracket"
	case KindDelimiter:
		return "delimiter"
	}

	return fmt.Sprintf("Kind(%d)", k)
}

// Pending is a deferred reduction step. It holds data only; reducing it is
// the job of [State.Reduce].
type Pending struct {
	Kind       Kind
	Definition grammar.Definition
	Span       span.Span
}

// State is the working state of a single parse. It is not safe for
// concurrent use and must not be reused.
type State struct {
	src      *span.Source
	params   []*ir.Param
	operands []Operand
	pending  []Pending
}

// NewState returns an empty parse state for src. params are passed to every
// operand builder.
func NewState(src *span.Source, params ...*ir.Param) *State {
	return &State{src: src, params: params}
}

// Operands returns the operand stack, bottom first.
func (s *State) Operands() []Operand { return slices.Clone(s.operands) }

// Pending returns the pending stack, bottom first.
func (s *State) Pending() []Pending { return slices.Clone(s.pending) }

// Depth returns the heights of the operand and pending stacks.
func (s *State) Depth() (operands, pending int) { return len(s.operands), len(s.pending) }

// Parse applies every token of seq to a new state and folds the result.
func Parse(
	seq iter.Seq2[token.Token, error],
	src *span.Source,
	params ...*ir.Param,
) (ir.Node, error) {
	s := NewState(src, params...)

	for tok, err := range seq {
		if err != nil {
			return nil, err
		}

		if err := s.Apply(tok); err != nil {
			return nil, err
		}
	}

	return s.Fold()
}

// Apply advances the state by one token, dispatching on the kind of the
// token's definition.
func (s *State) Apply(tok token.Token) error {
	switch d := tok.Definition.(type) {
	case *grammar.Operand:
		return s.applyOperand(d, tok)
	case *grammar.Operator:
		return s.applyOperator(d, tok)
	case *grammar.BracketOpen:
		s.push(Pending{Kind: KindBracket, Definition: d, Span: tok.Span})
	case *grammar.ListDelimiter:
		s.push(Pending{Kind: KindDelimiter, Definition: d, Span: tok.Span})
	case *grammar.BracketClose:
		return s.applyClose(d, tok)
	case *grammar.Token:
		// no parse behavior
	default:
		return diag.New(diag.KindGrammarUnknown, tok.Span,
			"unsupported definition %T", tok.Definition)
	}

	return nil
}

// Fold reduces every pending entry and returns the single remaining operand.
func (s *State) Fold() (ir.Node, error) {
	for len(s.pending) > 0 {
		if err := s.Reduce(s.pop()); err != nil {
			return nil, err
		}
	}

	switch len(s.operands) {
	case 0:
		return nil, diag.New(diag.KindOperandExpected, s.src.Span(0, 0),
			"empty expression")
	case 1:
		return s.operands[0].Node, nil
	}

	return nil, diag.New(diag.KindOperandUnexpected, s.operands[1].Span,
		"expected end of expression")
}

// reducers maps each pending kind to its reduction.
var reducers = [...]func(*State, Pending) error{
	KindOperator:  (*State).reduceOperator,
	KindBracket:   (*State).reduceBracket,
	KindDelimiter: (*State).reduceDelimiter,
}

// Reduce executes a pending entry that has already been removed from the
// pending stack.
func (s *State) Reduce(p Pending) error {
	if int(p.Kind) >= len(reducers) {
		return diag.New(diag.KindOperationInvalid, p.Span, "invalid entry %s", p.Kind)
	}

	return reducers[p.Kind](s, p)
}

func (s *State) push(p Pending) { s.pending = append(s.pending, p) }

func (s *State) pop() Pending {
	p := s.pending[len(s.pending)-1]
	s.pending = s.pending[:len(s.pending)-1]

	return p
}

func (s *State) pushOperand(n ir.Node, sp span.Span) {
	s.operands = append(s.operands, Operand{Node: n, Span: sp})
}

// rightOf returns the index of the first operand of the trailing run that
// lies right of sp.
func (s *State) rightOf(sp span.Span) int {
	i := len(s.operands)
	for i > 0 && s.operands[i-1].Span.IsRightOf(sp) {
		i--
	}

	return i
}

// takeFrom removes and returns the operands from index i on.
func (s *State) takeFrom(i int) []Operand {
	out := slices.Clone(s.operands[i:])
	s.operands = s.operands[:i]

	return out
}

func (s *State) applyOperand(d *grammar.Operand, tok token.Token) error {
	n, err := build(func() (ir.Node, error) { return d.Build(tok.Value, s.params) })
	if err != nil {
		return buildError(err, tok.Span)
	}

	if n == nil {
		return diag.New(diag.KindOperationInvalid, tok.Span, "%s produced no value", d.Name())
	}

	s.pushOperand(n, tok.Span)

	return nil
}

// applyOperator folds earlier operators that bind at least as tightly and
// then defers d.
func (s *State) applyOperator(d *grammar.Operator, tok token.Token) error {
	prec, ok := d.Precedence()

	if ok && d.Count(grammar.Left) > 0 {
		for len(s.pending) > 0 {
			top := s.pending[len(s.pending)-1]
			if top.Kind != KindOperator {
				break
			}

			td := top.Definition.(*grammar.Operator)

			tp, ok := td.Precedence()
			if !ok || tp > prec || td.Count(grammar.Right) == 0 {
				break
			}

			if err := s.Reduce(s.pop()); err != nil {
				return err
			}
		}
	}

	s.push(Pending{Kind: KindOperator, Definition: d, Span: tok.Span})

	return nil
}

func (s *State) reduceOperator(p Pending) error {
	d := p.Definition.(*grammar.Operator)
	nLeft, nRight := d.Count(grammar.Left), d.Count(grammar.Right)

	right := s.operands[s.rightOf(p.Span):]

	switch {
	case len(right) < nRight:
		return diag.New(diag.KindOperandExpected, p.Span.After(),
			"%s expects an operand on its right", d.Name())
	case len(right) > nRight:
		return diag.New(diag.KindOperandUnexpected, right[nRight].Span,
			"%s takes %d operand(s) on its right", d.Name(), nRight)
	}

	right = s.takeFrom(len(s.operands) - nRight)

	j := len(s.operands)
	for j > 0 && len(s.operands)-j < nLeft {
		if len(s.pending) > 0 && !s.operands[j-1].Span.IsRightOf(s.pending[len(s.pending)-1].Span) {
			break
		}

		j--
	}

	if len(s.operands)-j < nLeft {
		return diag.New(diag.KindOperandExpected, p.Span.Before(),
			"%s expects an operand on its left", d.Name())
	}

	left := s.takeFrom(j)

	args := make([]ir.Node, 0, nLeft+nRight)
	spans := []span.Span{p.Span}

	li, ri := 0, 0

	for _, pos := range d.Positions() {
		var o Operand

		if pos == grammar.Left {
			o, li = left[li], li+1
		} else {
			o, ri = right[ri], ri+1
		}

		args = append(args, o.Node)
		spans = append(spans, o.Span)
	}

	sp := span.Encompass(spans...)

	n, err := build(func() (ir.Node, error) { return d.Build(args) })
	if err != nil {
		return buildError(err, sp)
	}

	if n == nil {
		return diag.New(diag.KindOperationInvalid, sp, "%s produced no value", d.Name())
	}

	s.pushOperand(n, sp)

	return nil
}

func (s *State) reduceBracket(p Pending) error {
	return diag.New(diag.KindBracketUnmatched, p.Span, "%q is never closed", p.Span.Text())
}

func (s *State) reduceDelimiter(p Pending) error {
	return diag.New(diag.KindListDelimiterNotWithinBrackets, p.Span,
		"%q outside brackets", p.Span.Text())
}

// applyClose reduces the group ended by tok and hands its operands to the
// matching open bracket.
func (s *State) applyClose(d *grammar.BracketClose, tok token.Token) error {
	var (
		args     []Operand // right to left
		boundary = tok.Span
	)

	// takeOne removes the single operand between sp and boundary.
	takeOne := func(sp span.Span, required bool) error {
		i := s.rightOf(sp)

		switch n := len(s.operands) - i; {
		case n == 0 && required:
			return diag.New(diag.KindOperandExpected, span.Between(sp, boundary),
				"expected an operand")
		case n > 1:
			return diag.New(diag.KindOperandUnexpected, s.operands[i+1].Span,
				"expected a delimiter or %q", tok.Value)
		case n == 1:
			args = append(args, s.takeFrom(i)...)
		}

		return nil
	}

	for {
		if len(s.pending) == 0 {
			return diag.New(diag.KindBracketUnmatched, tok.Span,
				"%q has no opening bracket", tok.Value)
		}

		p := s.pop()

		switch p.Kind {
		case KindOperator:
			if err := s.Reduce(p); err != nil {
				return err
			}

		case KindDelimiter:
			if dl := d.Delimiter(); dl == nil || p.Definition != grammar.Definition(dl) {
				return s.Reduce(p)
			}

			if err := takeOne(p.Span, true); err != nil {
				return err
			}

			boundary = p.Span

		case KindBracket:
			open := p.Definition.(*grammar.BracketOpen)
			if !d.Matches(open) {
				return s.Reduce(p)
			}

			if err := takeOne(p.Span, len(args) > 0); err != nil {
				return err
			}

			slices.Reverse(args)

			return s.applyBracket(open, p.Span, tok.Span, args)
		}
	}
}

func (s *State) applyBracket(
	open *grammar.BracketOpen,
	openSpan, closeSpan span.Span,
	args []Operand,
) error {
	sp := span.Encompass(openSpan, closeSpan)

	call := open.Call()
	if call == nil {
		switch len(args) {
		case 0:
			return diag.New(diag.KindOperandExpected, span.Between(openSpan, closeSpan),
				"empty brackets")
		case 1:
			s.pushOperand(args[0].Node, sp)

			return nil
		}

		return diag.New(diag.KindOperandUnexpected, args[1].Span,
			"brackets hold a single operand")
	}

	if call.Checked && len(args) != len(call.ArgTypes) {
		return diag.New(diag.KindFunctionArgumentCount, sp,
			"%s takes %d argument(s), got %d", open.Name(), len(call.ArgTypes), len(args))
	}

	nodes := make([]ir.Node, len(args))

	for i, a := range args {
		nodes[i] = a.Node

		if !call.Checked {
			continue
		}

		n, err := coerce.To(a.Node, call.ArgTypes[i])
		if err != nil {
			return diag.Wrap(diag.KindFunctionArgumentType, a.Span,
				fmt.Errorf("argument %d of %s: %w", i+1, open.Name(), err))
		}

		nodes[i] = n
	}

	n, err := build(func() (ir.Node, error) { return call.Build(nodes) })
	if err != nil {
		return buildError(err, sp)
	}

	if n != nil {
		s.pushOperand(n, sp)
	}

	return nil
}

// errPanic wraps a value recovered from a builder.
var errPanic = errors.New("builder panic")

// build invokes a builder, converting a panic into an error.
func build(fn func() (ir.Node, error)) (n ir.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = nil, fmt.Errorf("%w: %v", errPanic, r)
		}
	}()

	return fn()
}

// buildError locates a builder failure at sp. Located failures pass through
// and unlocated ones keep their kind.
func buildError(err error, sp span.Span) error {
	var de *diag.Error
	if errors.As(err, &de) {
		if !de.Span.IsZero() {
			return err
		}

		if error(de) == err {
			located := *de
			located.Span = sp

			return &located
		}
	}

	if errors.Is(err, diag.ErrEnumParse) {
		return diag.Wrap(diag.KindEnumParse, sp, err)
	}

	return diag.Wrap(diag.KindOperationInvalid, sp, err)
}

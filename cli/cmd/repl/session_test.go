package repl

import (
	"context"
	"errors"
	"slices"
	"strings"
)

// fakeSession evaluates sums of the form "a + b" and fails on anything
// containing "bad".
type fakeSession struct {
	words    []string
	sigs     map[string][]string
	bindings []Binding
	evals    []string
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		words: []string{"abs(", "max(", "min(", "rate"},
		sigs: map[string][]string{
			"abs": {"float64"},
			"max": {"...any"},
			"pow": {"float64", "float64"},
		},
		bindings: []Binding{{Name: "rate", Type: "int64", Value: "2"}},
	}
}

func (s *fakeSession) Name() string { return "fake" }

func (s *fakeSession) Eval(_ context.Context, text string) (string, error) {
	s.evals = append(s.evals, text)

	if strings.Contains(text, "bad") {
		return "", errors.New("operand expected")
	}

	return "ok:" + text, nil
}

func (s *fakeSession) Words() []string { return slices.Clone(s.words) }

func (s *fakeSession) Signature(name string) ([]string, bool) {
	p, ok := s.sigs[name]

	return p, ok
}

func (s *fakeSession) Bindings() []Binding { return s.bindings }

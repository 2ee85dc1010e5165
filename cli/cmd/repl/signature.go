package repl

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall is the innermost call enclosing the cursor.
type functionCall struct {
	name     string // function name without its bracket
	argIndex int    // 0-based index of the argument under the cursor
	inCall   bool
}

// detectFunctionCall finds the innermost unclosed call bracket before cursor,
// the function name preceding it and the index of the current argument.
// Brackets and commas inside string literals are not counted.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(max(cursor, 0), len(input))

	var (
		opens  []int // offsets of unclosed '('
		commas []int // argument count of each open bracket
		quote  rune
		escape bool
	)

	for i, r := range input[:cursor] {
		switch {
		case escape:
			escape = false
		case quote == '"' && r == '\\':
			escape = true
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			opens = append(opens, i)
			commas = append(commas, 0)
		case r == ')' && len(opens) > 0:
			opens, commas = opens[:len(opens)-1], commas[:len(commas)-1]
		case r == ',' && len(commas) > 0:
			commas[len(commas)-1]++
		}
	}

	if len(opens) == 0 {
		return functionCall{}
	}

	open := opens[len(opens)-1]
	start := open

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}

		start -= size
	}

	name := input[start:open]
	if name == "" {
		return functionCall{}
	}

	return functionCall{name: name, argIndex: commas[len(commas)-1], inCall: true}
}

// renderSignatureHint renders name(params...) with the parameter at argIdx
// highlighted. A parameter starting with "..." is variadic and stays
// highlighted for every later argument.
func renderSignatureHint(name string, params []string, argIdx int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(name))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		variadic := strings.HasPrefix(param, "...")
		if argIdx == i || (variadic && argIdx >= i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}

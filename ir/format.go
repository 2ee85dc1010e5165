package ir

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Format renders n as a parenthesized prefix expression, e.g.
// "(+ 2 (* 2 5))". Conversions render as the target type applied to the
// operand, members as "target.Field".
func Format(n Node) string {
	var sb strings.Builder

	format(&sb, n)

	return sb.String()
}

func format(sb *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Const:
		sb.WriteString(formatValue(n.value, n.typ))

	case *Param:
		sb.WriteString(n.name)

	case *Member:
		format(sb, n.target)
		sb.WriteByte('.')
		sb.WriteString(n.field.Name)

	case *Unary:
		list(sb, n.op.String(), n.operand)

	case *Binary:
		list(sb, n.op.String(), n.left, n.right)

	case *Convert:
		list(sb, n.typ.String(), n.operand)

	case *Call:
		list(sb, n.name, n.args...)

	default:
		fmt.Fprintf(sb, "<%T>", n)
	}
}

func list(sb *strings.Builder, head string, args ...Node) {
	sb.WriteByte('(')
	sb.WriteString(head)

	for _, a := range args {
		sb.WriteByte(' ')
		format(sb, a)
	}

	sb.WriteByte(')')
}

func formatValue(v any, t Type) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case float32:
		return floatString(float64(v), 32)
	case float64:
		return floatString(v, 64)
	case EnumValue:
		return t.String() + "." + v.String()
	}

	return fmt.Sprint(v)
}

// Equal reports whether two trees have the same shape, types, operators and
// constant values. Parameters and host functions compare by identity.
func Equal(a, b Node) bool {
	if a.Type() != b.Type() {
		return false
	}

	switch a := a.(type) {
	case *Const:
		bc, ok := b.(*Const)

		return ok && reflect.DeepEqual(a.value, bc.value)
	case *Param:
		return a == b
	case *Member:
		bm, ok := b.(*Member)

		return ok && a.field.Name == bm.field.Name && Equal(a.target, bm.target)
	case *Unary:
		bu, ok := b.(*Unary)

		return ok && a.op == bu.op && Equal(a.operand, bu.operand)
	case *Binary:
		bb, ok := b.(*Binary)

		return ok && a.op == bb.op &&
			Equal(a.left, bb.left) && Equal(a.right, bb.right)
	case *Convert:
		bc, ok := b.(*Convert)

		return ok && Equal(a.operand, bc.operand)
	case *Call:
		bc, ok := b.(*Call)
		if !ok || a.name != bc.name || len(a.args) != len(bc.args) {
			return false
		}

		for i := range a.args {
			if !Equal(a.args[i], bc.args[i]) {
				return false
			}
		}

		return true
	}

	return false
}

// ToMap returns a generic representation of n suitable for YAML or JSON
// encoding.
func ToMap(n Node) map[string]any {
	m := map[string]any{"type": n.Type().String()}

	switch n := n.(type) {
	case *Const:
		m["node"] = "const"
		m["value"] = formatValue(n.value, n.typ)
	case *Param:
		m["node"] = "param"
		m["name"] = n.name
	case *Member:
		m["node"] = "member"
		m["field"] = n.field.Name
	case *Unary:
		m["node"] = "unary"
		m["op"] = n.op.String()
	case *Binary:
		m["node"] = "binary"
		m["op"] = n.op.String()
	case *Convert:
		m["node"] = "convert"
	case *Call:
		m["node"] = "call"
		m["name"] = n.name
	}

	if cs := n.Children(); len(cs) > 0 {
		operands := make([]any, len(cs))
		for i, c := range cs {
			operands[i] = ToMap(c)
		}

		m["operands"] = operands
	}

	return m
}

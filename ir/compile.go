package ir

import "fmt"

// Program evaluates a compiled tree. Arguments bind positionally to the
// parameters given to [Compile] and are normalized to their declared types.
type Program func(args ...any) (any, error)

type eval func(env []any) (any, error)

// Compile returns a Program evaluating n as a tree of native closures.
// Every parameter referenced by n must appear in params.
//
// Null operands propagate through arithmetic, member access, conversion and
// negation. Ordering comparisons with a null operand are false, while
// equality treats null as a distinct value.
func Compile(n Node, params ...*Param) (Program, error) {
	index := make(map[*Param]int, len(params))
	for i, p := range params {
		index[p] = i
	}

	fn, err := compile(n, index)
	if err != nil {
		return nil, err
	}

	return func(args ...any) (any, error) {
		if len(args) != len(params) {
			return nil, fmt.Errorf("%w: got %d, want %d",
				ErrArgumentCount, len(args), len(params))
		}

		env := make([]any, len(args))

		for i, a := range args {
			v, err := Normalize(a, params[i].typ)
			if err != nil {
				return nil, fmt.Errorf("argument %s: %w", params[i].name, err)
			}

			env[i] = v
		}

		return fn(env)
	}, nil
}

func compile(n Node, index map[*Param]int) (eval, error) {
	switch n := n.(type) {
	case *Const:
		v := n.value

		return func([]any) (any, error) { return v, nil }, nil

	case *Param:
		i, ok := index[n]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnboundParam, n.name)
		}

		return func(env []any) (any, error) { return env[i], nil }, nil

	case *Member:
		return compileMember(n, index)

	case *Unary:
		return compileUnary(n, index)

	case *Binary:
		return compileBinary(n, index)

	case *Convert:
		operand, err := compile(n.operand, index)
		if err != nil {
			return nil, err
		}

		typ := n.typ

		return func(env []any) (any, error) {
			v, err := operand(env)
			if err != nil || v == nil {
				return v, err
			}

			return Normalize(v, typ)
		}, nil

	case *Call:
		return compileCall(n, index)
	}

	return nil, fmt.Errorf("%w: %T", ErrInvalidOp, n)
}

func compileMember(n *Member, index map[*Param]int) (eval, error) {
	target, err := compile(n.target, index)
	if err != nil {
		return nil, err
	}

	field := n.field

	return func(env []any) (any, error) {
		v, err := target(env)
		if err != nil || v == nil {
			return nil, err
		}

		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrNotRecord, v)
		}

		raw, ok := m[field.Name]
		if !ok && !field.Type.IsNullable() {
			return nil, fmt.Errorf("%w: missing %s", ErrInvalidValue, field.Name)
		}

		return Normalize(raw, field.Type)
	}, nil
}

func compileUnary(n *Unary, index map[*Param]int) (eval, error) {
	operand, err := compile(n.operand, index)
	if err != nil {
		return nil, err
	}

	if n.op == OpNot {
		return func(env []any) (any, error) {
			v, err := operand(env)
			if err != nil {
				return nil, err
			}

			return !v.(bool), nil
		}, nil
	}

	return func(env []any) (any, error) {
		v, err := operand(env)
		if err != nil || v == nil {
			return v, err
		}

		return negate(v)
	}, nil
}

func compileBinary(n *Binary, index map[*Param]int) (eval, error) {
	left, err := compile(n.left, index)
	if err != nil {
		return nil, err
	}

	right, err := compile(n.right, index)
	if err != nil {
		return nil, err
	}

	op := n.op

	if op.IsLogical() {
		return func(env []any) (any, error) {
			l, err := left(env)
			if err != nil {
				return nil, err
			}

			if l.(bool) == (op == OpOr) {
				return l, nil
			}

			return right(env)
		}, nil
	}

	return func(env []any) (any, error) {
		l, err := left(env)
		if err != nil {
			return nil, err
		}

		r, err := right(env)
		if err != nil {
			return nil, err
		}

		return apply(op, l, r)
	}, nil
}

func apply(op BinaryOp, l, r any) (any, error) {
	switch {
	case op == OpConcat:
		ls, _ := l.(string)
		rs, _ := r.(string)

		return ls + rs, nil

	case op == OpEq, op == OpNe:
		eq := l == r
		if l == nil || r == nil {
			eq = l == nil && r == nil
		}

		return eq == (op == OpEq), nil

	case l == nil || r == nil:
		if op.IsComparison() {
			return false, nil
		}

		return nil, nil

	case op.IsArithmetic():
		return arith(op, l, r)
	}

	c, err := compare(l, r)
	if err != nil {
		return nil, err
	}

	switch op {
	case OpLt:
		return c < 0, nil
	case OpLe:
		return c <= 0, nil
	case OpGt:
		return c > 0, nil
	case OpGe:
		return c >= 0, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrInvalidOp, op)
}

func compileCall(n *Call, index map[*Param]int) (eval, error) {
	args := make([]eval, len(n.args))

	for i, a := range n.args {
		fn, err := compile(a, index)
		if err != nil {
			return nil, err
		}

		args[i] = fn
	}

	fn, name, typ := n.fn, n.name, n.typ

	return func(env []any) (any, error) {
		vals := make([]any, len(args))

		for i, a := range args {
			v, err := a(env)
			if err != nil {
				return nil, err
			}

			vals[i] = v
		}

		v, err := fn(vals)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		if v == nil {
			if typ.IsNullable() {
				return nil, nil
			}

			return nil, fmt.Errorf("%s: %w", name, ErrNullOperand)
		}

		return Normalize(v, typ)
	}, nil
}

package ir

import (
	"fmt"
	"math"
	"strings"
)

type integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

type float interface{ ~float32 | ~float64 }

type number interface{ integer | float }

// Normalize converts a host value v to the runtime representation of t.
//
// Any Go numeric value converts to any numeric kind. Integers and member
// names (matched without regard to case) convert to enum values. Record
// values must be map[string]any; their known fields are normalized
// recursively and missing fields are left absent.
func Normalize(v any, t Type) (any, error) {
	if v == nil {
		if t.IsNullable() {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: null for %s", ErrInvalidValue, t)
	}

	invalid := func() error {
		return fmt.Errorf("%w: %T for %s", ErrInvalidValue, v, t)
	}

	k := t.Kind()

	switch {
	case k == KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}

	case k.IsNumeric():
		if n, ok := castNumber(v, k); ok {
			return n, nil
		}

	case k == KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}

	case k == KindEnum:
		return normalizeEnum(v, t.Enum(), invalid)

	case k == KindRecord:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, invalid()
		}

		out := make(map[string]any, len(m))

		for _, f := range t.Record().Fields() {
			raw, ok := m[f.Name]
			if !ok {
				continue
			}

			nv, err := Normalize(raw, f.Type)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", t.Record().Name(), f.Name, err)
			}

			out[f.Name] = nv
		}

		return out, nil
	}

	return nil, invalid()
}

func normalizeEnum(v any, e *Enum, invalid func() error) (any, error) {
	switch v := v.(type) {
	case EnumValue:
		if v.Enum == e {
			return v, nil
		}

		return EnumValue{Enum: e, Value: v.Value}, nil

	case string:
		n, ok := e.Parse(v, true)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a member of %s",
				ErrInvalidValue, v, e.Name())
		}

		return EnumValue{Enum: e, Value: n}, nil
	}

	n, ok := castNumber(v, KindInt64)
	if !ok {
		return nil, invalid()
	}

	return EnumValue{Enum: e, Value: n.(int64)}, nil
}

// castNumber converts a numeric host value (or an enum value) to kind k.
func castNumber(v any, k Kind) (any, bool) {
	switch v := v.(type) {
	case int:
		return castTo(v, k)
	case int8:
		return castTo(v, k)
	case int16:
		return castTo(v, k)
	case int32:
		return castTo(v, k)
	case int64:
		return castTo(v, k)
	case uint:
		return castTo(v, k)
	case uint8:
		return castTo(v, k)
	case uint16:
		return castTo(v, k)
	case uint32:
		return castTo(v, k)
	case uint64:
		return castTo(v, k)
	case float32:
		return castTo(v, k)
	case float64:
		return castTo(v, k)
	case EnumValue:
		return castTo(v.Value, k)
	}

	return nil, false
}

func castTo[T number | ~int | ~uint](n T, k Kind) (any, bool) {
	switch k {
	case KindInt8:
		return int8(n), true
	case KindInt16:
		return int16(n), true
	case KindInt32:
		return int32(n), true
	case KindInt64:
		return int64(n), true
	case KindUint8:
		return uint8(n), true
	case KindUint16:
		return uint16(n), true
	case KindUint32:
		return uint32(n), true
	case KindUint64:
		return uint64(n), true
	case KindFloat32:
		return float32(n), true
	case KindFloat64:
		return float64(n), true
	}

	return nil, false
}

func arith(op BinaryOp, a, b any) (any, error) {
	switch a := a.(type) {
	case int8:
		return intArith(op, a, b.(int8))
	case int16:
		return intArith(op, a, b.(int16))
	case int32:
		return intArith(op, a, b.(int32))
	case int64:
		return intArith(op, a, b.(int64))
	case uint8:
		return intArith(op, a, b.(uint8))
	case uint16:
		return intArith(op, a, b.(uint16))
	case uint32:
		return intArith(op, a, b.(uint32))
	case uint64:
		return intArith(op, a, b.(uint64))
	case float32:
		return floatArith(op, a, b.(float32))
	case float64:
		return floatArith(op, a, b.(float64))
	}

	return nil, fmt.Errorf("%w: %s on %T", ErrTypeMismatch, op, a)
}

func intArith[T integer](op BinaryOp, a, b T) (any, error) {
	switch op {
	case OpAdd:
		return a + b, nil
	case OpSub:
		return a - b, nil
	case OpMul:
		return a * b, nil
	case OpDiv:
		if b == 0 {
			return nil, ErrDivideByZero
		}

		return a / b, nil
	case OpMod:
		if b == 0 {
			return nil, ErrDivideByZero
		}

		return a % b, nil
	case OpPow:
		return ipow(a, b), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrInvalidOp, op)
}

// ipow returns a raised to b. Negative exponents truncate toward zero.
func ipow[T integer](a, b T) T {
	if b < 0 {
		return T(math.Pow(float64(a), float64(b)))
	}

	r := T(1)

	for ; b > 0; b >>= 1 {
		if b&1 == 1 {
			r *= a
		}

		a *= a
	}

	return r
}

func floatArith[T float](op BinaryOp, a, b T) (any, error) {
	switch op {
	case OpAdd:
		return a + b, nil
	case OpSub:
		return a - b, nil
	case OpMul:
		return a * b, nil
	case OpDiv:
		return a / b, nil
	case OpMod:
		return T(math.Mod(float64(a), float64(b))), nil
	case OpPow:
		return T(math.Pow(float64(a), float64(b))), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrInvalidOp, op)
}

func negate(v any) (any, error) {
	switch v := v.(type) {
	case int8:
		return -v, nil
	case int16:
		return -v, nil
	case int32:
		return -v, nil
	case int64:
		return -v, nil
	case float32:
		return -v, nil
	case float64:
		return -v, nil
	}

	return nil, fmt.Errorf("%w: neg %T", ErrTypeMismatch, v)
}

// compare orders two non-null runtime values of the same type.
func compare(a, b any) (int, error) {
	switch a := a.(type) {
	case int8:
		return ordered(a, b)
	case int16:
		return ordered(a, b)
	case int32:
		return ordered(a, b)
	case int64:
		return ordered(a, b)
	case uint8:
		return ordered(a, b)
	case uint16:
		return ordered(a, b)
	case uint32:
		return ordered(a, b)
	case uint64:
		return ordered(a, b)
	case float32:
		return ordered(a, b)
	case float64:
		return ordered(a, b)
	case string:
		bs, ok := b.(string)
		if !ok {
			break
		}

		return strings.Compare(a, bs), nil
	case EnumValue:
		be, ok := b.(EnumValue)
		if !ok {
			break
		}

		return ordered(a.Value, be.Value)
	}

	return 0, fmt.Errorf("%w: compare %T with %T", ErrTypeMismatch, a, b)
}

func ordered[T number](a T, b any) (int, error) {
	bt, ok := b.(T)
	if !ok {
		return 0, fmt.Errorf("%w: compare %T with %T", ErrTypeMismatch, a, b)
	}

	switch {
	case a < bt:
		return -1, nil
	case a > bt:
		return 1, nil
	}

	return 0, nil
}

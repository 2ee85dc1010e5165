package coerce

import (
	"errors"
	"testing"

	"github.com/ardnew/prex/diag"
	"github.com/ardnew/prex/ir"
)

var level = ir.NewEnum("Level", ir.KindInt32,
	ir.EnumMember{Name: "Low", Value: 0},
	ir.EnumMember{Name: "High", Value: 10},
)

func TestCommonType(t *testing.T) {
	tests := []struct {
		a, b ir.Type
		want ir.Type
		ok   bool
	}{
		{ir.Int32, ir.Int32, ir.Int32, true},
		{ir.Int32, ir.Int64, ir.Int64, true},
		{ir.Int64, ir.Int32, ir.Int64, true},
		{ir.Int32, ir.Float64, ir.Float64, true},
		// first match in a's order, not the narrowest
		{ir.Int32, ir.Uint32, ir.Int64, true},
		{ir.Uint8, ir.Int8, ir.Int16, true},
		{ir.Int8, ir.Uint8, ir.Int16, true},
		{ir.Int64, ir.Uint64, ir.Float32, true},
		{ir.Nullable(ir.Int32), ir.Float64, ir.Nullable(ir.Float64), true},
		{ir.Null, ir.Int32, ir.Nullable(ir.Int32), true},
		{level, ir.Null, ir.Nullable(level), true},
		{ir.Null, ir.Nullable(ir.String), ir.Nullable(ir.String), true},
		{ir.Null, ir.Null, ir.Null, true},
		{ir.String, ir.Nullable(ir.String), ir.Nullable(ir.String), true},
		{ir.String, ir.Int32, ir.Type{}, false},
		{ir.Bool, ir.Int32, ir.Type{}, false},
	}

	for _, tt := range tests {
		got, ok := CommonType(tt.a, tt.b)
		if got != tt.want || ok != tt.ok {
			t.Errorf("CommonType(%s, %s) = %s, %v, want %s, %v",
				tt.a, tt.b, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTo(t *testing.T) {
	i16 := ir.MustConstant(int16(7))

	tests := []struct {
		name string
		node ir.Node
		to   ir.Type
		ok   bool
	}{
		{"same", i16, ir.Int16, true},
		{"widen", i16, ir.Int64, true},
		{"float", i16, ir.Float32, true},
		{"narrow", i16, ir.Int8, false},
		{"unsigned", i16, ir.Uint16, false},
		{"nullable", i16, ir.Nullable(ir.Int16), true},
		{"null", ir.NullOf(ir.Null), ir.Nullable(ir.String), true},
		{"null to non-nullable", ir.NullOf(ir.Null), ir.String, false},
		{"int to enum", i16, level, true},
		{"string", ir.MustConstant("x"), ir.Int32, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := To(tt.node, tt.to)
			if !tt.ok {
				if !errors.Is(err, ErrNoConversion) {
					t.Fatalf("error = %v, want ErrNoConversion", err)
				}

				return
			}

			if err != nil {
				t.Fatal(err)
			}

			if got.Type() != tt.to {
				t.Errorf("Type() = %s, want %s", got.Type(), tt.to)
			}
		})
	}
}

func TestNumeric(t *testing.T) {
	l, r, ok := Numeric(ir.MustConstant(int32(2)), ir.MustConstant(1.5))
	if !ok {
		t.Fatal("int32 and float64 should have a common type")
	}

	if got := ir.Format(l); got != "(float64 2)" {
		t.Errorf("left = %s", got)
	}

	if r.Type() != ir.Float64 {
		t.Errorf("right type = %s", r.Type())
	}

	if _, _, ok := Numeric(ir.MustConstant("a"), ir.MustConstant(1)); ok {
		t.Error("string and int64 should not have a common type")
	}
}

func TestBool(t *testing.T) {
	b := ir.MustConstant(true)

	got, err := Bool(b)
	if err != nil || got != ir.Node(b) {
		t.Errorf("Bool(bool) = %v, %v, want unchanged", got, err)
	}

	nb := ir.NewParam("nb", ir.Nullable(ir.Bool))

	got, err = Bool(nb)
	if err != nil {
		t.Fatal(err)
	}

	if got.Type() != ir.Bool {
		t.Errorf("Bool(bool?) type = %s", got.Type())
	}

	if s := ir.Format(got); s != "(== nb (bool? true))" {
		t.Errorf("Bool(bool?) = %s", s)
	}

	if _, err := Bool(ir.MustConstant(int32(1))); !errors.Is(err, ErrNotBool) {
		t.Errorf("Bool(int32) error = %v, want ErrNotBool", err)
	}
}

func TestEnumNumber(t *testing.T) {
	p := ir.NewParam("lvl", level)

	l, r, ok := EnumNumber(p, ir.MustConstant(int64(10)))
	if !ok {
		t.Fatal("enum and integer should convert")
	}

	if l.Type() != level || r.Type() != level {
		t.Errorf("types = %s, %s, want Level", l.Type(), r.Type())
	}

	if _, _, ok := EnumNumber(p, ir.MustConstant(1.0)); ok {
		t.Error("enum and float should not convert")
	}
}

func TestEnumString(t *testing.T) {
	p := ir.NewParam("lvl", level)
	s := ir.NewParam("s", ir.String)

	tests := []struct {
		name     string
		text     ir.Node
		opts     []Option
		want     string
		wantKind bool
	}{
		{"exact", ir.MustConstant("High"), nil, "Level.High", false},
		{"fold", ir.MustConstant("high"), []Option{CaseInsensitive()}, "Level.High", false},
		{"case sensitive", ir.MustConstant("high"), nil, "", true},
		{"invalid", ir.MustConstant("Medium"), []Option{CaseInsensitive()}, "", true},
		{"not constant", s, []Option{CaseInsensitive()}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, r, ok, err := EnumString(p, tt.text, tt.opts...)
			if tt.wantKind {
				if !errors.Is(err, diag.ErrEnumParse) {
					t.Fatalf("error = %v, want enum parse error", err)
				}

				var ee *EnumError
				if !errors.As(err, &ee) || ee.Enum != "Level" {
					t.Errorf("error = %#v, want *EnumError naming Level", err)
				}

				return
			}

			if err != nil || !ok {
				t.Fatalf("EnumString = %v, %v", ok, err)
			}

			if got := ir.Format(r); got != tt.want {
				t.Errorf("operand = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEnumString_Null(t *testing.T) {
	p := ir.NewParam("lvl", ir.Nullable(level))

	l, r, ok, err := EnumString(p, ir.NullOf(ir.Null))
	if err != nil || !ok {
		t.Fatalf("EnumString = %v, %v", ok, err)
	}

	if l.Type() != ir.Nullable(level) || r.Type() != ir.Nullable(level) {
		t.Errorf("types = %s, %s, want Level?", l.Type(), r.Type())
	}

	if !ir.IsNull(r) {
		t.Error("right operand should be a null constant")
	}
}

func TestBinary(t *testing.T) {
	p := ir.NewParam("lvl", level)

	l, r, err := Binary(ir.MustConstant("low"), p, CaseInsensitive())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ir.NewBinary(ir.OpEq, l, r); err != nil {
		t.Errorf("coerced operands should compare: %v", err)
	}

	l, r, err = Binary(ir.MustConstant(int8(1)), ir.MustConstant(uint16(2)))
	if err != nil {
		t.Fatal(err)
	}

	if l.Type() != ir.Int32 || r.Type() != ir.Int32 {
		t.Errorf("types = %s, %s, want int32", l.Type(), r.Type())
	}

	str := ir.MustConstant("x")

	l, _, err = Binary(str, ir.MustConstant(true))
	if err != nil || l != ir.Node(str) {
		t.Errorf("unrelated operands should be unchanged, got %v, %v", l, err)
	}
}

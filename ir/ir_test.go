package ir

import (
	"errors"
	"math"
	"testing"
)

var (
	color = NewEnum("Color", KindInt32,
		EnumMember{"Red", 1},
		EnumMember{"Green", 2},
		EnumMember{"Blue", 4},
	)
	person = NewRecord("Person",
		Field{"Name", String},
		Field{"Age", Int32},
		Field{"Nick", Nullable(String)},
		Field{"Favorite", color},
	)
)

func mustBinary(t *testing.T, op BinaryOp, l, r Node) *Binary {
	t.Helper()

	b, err := NewBinary(op, l, r)
	if err != nil {
		t.Fatalf("NewBinary(%s): %v", op, err)
	}

	return b
}

func TestType_String(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{Int32, "int32"},
		{Nullable(Float64), "float64?"},
		{Null, "null"},
		{color, "Color"},
		{Nullable(person), "Person?"},
		{Primitive(KindEnum), "invalid"},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}

	if Nullable(Int8).NonNullable() != Int8 {
		t.Error("NonNullable should undo Nullable")
	}
}

func TestEnum_Parse(t *testing.T) {
	e := color.Enum()

	tests := []struct {
		in   string
		fold bool
		want int64
		ok   bool
	}{
		{"Red", false, 1, true},
		{"red", false, 0, false},
		{"red", true, 1, true},
		{"Red, Blue", false, 5, true},
		{"7", false, 7, true},
		{"Purple", true, 0, false},
		{"", true, 0, false},
	}

	for _, tt := range tests {
		got, ok := e.Parse(tt.in, tt.fold)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Parse(%q, %v) = %d, %v, want %d, %v",
				tt.in, tt.fold, got, ok, tt.want, tt.ok)
		}
	}

	if got := e.Format(2); got != "Green" {
		t.Errorf("Format(2) = %q", got)
	}

	if got := e.Format(3); got != "3" {
		t.Errorf("Format(3) = %q", got)
	}
}

func TestConstant(t *testing.T) {
	tests := []struct {
		in   any
		want Type
	}{
		{int(3), Int64},
		{uint(3), Uint64},
		{int16(3), Int16},
		{2.5, Float64},
		{"x", String},
		{true, Bool},
		{nil, Null},
	}

	for _, tt := range tests {
		c, err := Constant(tt.in)
		if err != nil {
			t.Fatalf("Constant(%v): %v", tt.in, err)
		}

		if c.Type() != tt.want {
			t.Errorf("Constant(%v).Type() = %s, want %s", tt.in, c.Type(), tt.want)
		}
	}

	if _, err := Constant([]int{1}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Constant(slice) error = %v, want ErrInvalidValue", err)
	}

	if _, err := TypedConstant(nil, Int32); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("TypedConstant(nil, int32) error = %v", err)
	}
}

func TestNewBinary_TypeCheck(t *testing.T) {
	i32 := MustConstant(int32(1))
	i64 := MustConstant(int64(1))
	str := MustConstant("a")
	b := MustConstant(true)

	tests := []struct {
		name    string
		op      BinaryOp
		l, r    Node
		want    Type
		wantErr bool
	}{
		{"add", OpAdd, i32, i32, Int32, false},
		{"add mixed", OpAdd, i32, i64, Type{}, true},
		{"add string", OpAdd, str, str, Type{}, true},
		{"concat", OpConcat, str, str, String, false},
		{"eq null", OpEq, i32, NullOf(Null), Bool, false},
		{"lt string", OpLt, str, str, Bool, false},
		{"lt bool", OpLt, b, b, Type{}, true},
		{"and", OpAnd, b, b, Bool, false},
		{"and int", OpAnd, i32, i32, Type{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewBinary(tt.op, tt.l, tt.r)
			if tt.wantErr {
				if !errors.Is(err, ErrTypeMismatch) {
					t.Fatalf("error = %v, want ErrTypeMismatch", err)
				}

				return
			}

			if err != nil {
				t.Fatal(err)
			}

			if got.Type() != tt.want {
				t.Errorf("Type() = %s, want %s", got.Type(), tt.want)
			}
		})
	}
}

func TestCanConvert(t *testing.T) {
	tests := []struct {
		from, to Type
		want     bool
	}{
		{Int32, Int64, true},
		{Int64, Float32, true},
		{Int32, Nullable(Int32), true},
		{Nullable(Int32), Int32, false},
		{Null, Nullable(color), true},
		{Null, color, false},
		{Int32, color, true},
		{color, Int64, true},
		{String, color, false},
		{person, person, true},
		{Bool, Int8, false},
	}

	for _, tt := range tests {
		if got := CanConvert(tt.from, tt.to); got != tt.want {
			t.Errorf("CanConvert(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestCompile(t *testing.T) {
	x := NewParam("x", Int64)
	p := NewParam("p", person)

	age, err := NewMember(p, "Age")
	if err != nil {
		t.Fatal(err)
	}

	nick, err := NewMember(p, "Nick")
	if err != nil {
		t.Fatal(err)
	}

	fav, err := NewMember(p, "Favorite")
	if err != nil {
		t.Fatal(err)
	}

	red, err := TypedConstant("red", color)
	if err != nil {
		t.Fatal(err)
	}

	two := MustConstant(int64(2))

	tests := []struct {
		name string
		node Node
		args []any
		want any
	}{
		{
			name: "arith",
			node: mustBinary(t, OpAdd, x, mustBinary(t, OpMul, two, x)),
			args: []any{int64(5), map[string]any{}},
			want: int64(15),
		},
		{
			name: "int division truncates",
			node: mustBinary(t, OpDiv, x, two),
			args: []any{-7, map[string]any{}},
			want: int64(-3),
		},
		{
			name: "pow",
			node: mustBinary(t, OpPow, two, x),
			args: []any{10, map[string]any{}},
			want: int64(1024),
		},
		{
			name: "member",
			node: age,
			args: []any{0, map[string]any{"Age": 30}},
			want: int32(30),
		},
		{
			name: "missing nullable member",
			node: mustBinary(t, OpEq, nick, NullOf(Null)),
			args: []any{0, map[string]any{"Age": 30}},
			want: true,
		},
		{
			name: "enum from name",
			node: mustBinary(t, OpEq, fav, red),
			args: []any{0, map[string]any{"Favorite": "Red"}},
			want: true,
		},
		{
			name: "or short circuit",
			node: mustBinary(t, OpOr, MustConstant(true),
				mustBinary(t, OpEq, mustBinary(t, OpDiv, x, MustConstant(int64(0))), two)),
			args: []any{1, map[string]any{}},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Compile(tt.node, x, p)
			if err != nil {
				t.Fatal(err)
			}

			got, err := prog(tt.args...)
			if err != nil {
				t.Fatal(err)
			}

			if got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	x := NewParam("x", Int32)
	div := mustBinary(t, OpDiv, x, MustConstant(int32(0)))

	if _, err := Compile(div); !errors.Is(err, ErrUnboundParam) {
		t.Errorf("Compile without params error = %v, want ErrUnboundParam", err)
	}

	prog, err := Compile(div, x)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := prog(1); !errors.Is(err, ErrDivideByZero) {
		t.Errorf("divide error = %v, want ErrDivideByZero", err)
	}

	if _, err := prog(); !errors.Is(err, ErrArgumentCount) {
		t.Errorf("arity error = %v, want ErrArgumentCount", err)
	}

	if _, err := prog("one"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("argument error = %v, want ErrInvalidValue", err)
	}
}

func TestCompile_NullPropagation(t *testing.T) {
	n := NewParam("n", Nullable(Float64))
	sum := mustBinary(t, OpAdd, n, asNullable(t, MustConstant(1.0)))
	lt := mustBinary(t, OpLt, n, asNullable(t, MustConstant(1.0)))

	for _, tt := range []struct {
		node Node
		want any
	}{
		{sum, nil},
		{lt, false},
	} {
		prog, err := Compile(tt.node, n)
		if err != nil {
			t.Fatal(err)
		}

		got, err := prog(nil)
		if err != nil {
			t.Fatal(err)
		}

		if got != tt.want {
			t.Errorf("%s = %v, want %v", Format(tt.node), got, tt.want)
		}
	}

	prog, err := Compile(sum, n)
	if err != nil {
		t.Fatal(err)
	}

	got, err := prog(math.Inf(1))
	if err != nil || got != math.Inf(1) {
		t.Errorf("Inf + 1 = %v, %v", got, err)
	}
}

func asNullable(t *testing.T, c Node) Node {
	t.Helper()

	n, err := NewConvert(c, Nullable(c.Type()))
	if err != nil {
		t.Fatal(err)
	}

	return n
}

func TestLocal(t *testing.T) {
	x := NewParam("x", Int64)
	local := mustBinary(t, OpMul, MustConstant(int64(6)), MustConstant(int64(7)))
	free := mustBinary(t, OpMul, local, x)

	if !IsLocal(local) {
		t.Error("constant tree should be local")
	}

	if IsLocal(free) {
		t.Error("tree with a parameter should not be local")
	}

	v, err := EvalLocal(local)
	if err != nil || v != int64(42) {
		t.Errorf("EvalLocal = %v, %v, want 42", v, err)
	}

	folded, err := Fold(local)
	if err != nil {
		t.Fatal(err)
	}

	if got := Format(folded); got != "42" {
		t.Errorf("Fold = %s, want 42", got)
	}

	if same, _ := Fold(free); same != Node(free) {
		t.Error("Fold should leave non-local trees unchanged")
	}
}

func TestFormat(t *testing.T) {
	p := NewParam("p", person)
	name, _ := NewMember(p, "Name")
	conv, _ := NewConvert(MustConstant(int32(2)), Float64)

	tests := []struct {
		node Node
		want string
	}{
		{mustBinary(t, OpAdd, MustConstant(int64(2)), MustConstant(int64(3))), "(+ 2 3)"},
		{mustBinary(t, OpEq, name, MustConstant("bob")), `(== p.Name "bob")`},
		{conv, "(float64 2)"},
		{MustConstant(1.0), "1.0"},
		{NullOf(String), "null"},
	}

	for _, tt := range tests {
		if got := Format(tt.node); got != tt.want {
			t.Errorf("Format = %s, want %s", got, tt.want)
		}
	}

	m := ToMap(tests[0].node)
	if m["node"] != "binary" || m["op"] != "+" || len(m["operands"].([]any)) != 2 {
		t.Errorf("ToMap = %v", m)
	}
}

func TestEqual(t *testing.T) {
	build := func() Node {
		return mustBinary(t, OpSub, MustConstant(int64(9)), MustConstant(int64(4)))
	}

	if !Equal(build(), build()) {
		t.Error("identically built trees should be equal")
	}

	other := mustBinary(t, OpAdd, MustConstant(int64(9)), MustConstant(int64(4)))
	if Equal(build(), other) {
		t.Error("trees with different operators should differ")
	}
}

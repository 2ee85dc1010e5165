package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the primitive category of a [Type].
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	KindEnum
	KindRecord
	KindNull
)

var kindName = [...]string{
	KindInvalid: "invalid",
	KindBool:    "bool",
	KindInt8:    "int8",
	KindInt16:   "int16",
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindUint8:   "uint8",
	KindUint16:  "uint16",
	KindUint32:  "uint32",
	KindUint64:  "uint64",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindString:  "string",
	KindEnum:    "enum",
	KindRecord:  "record",
	KindNull:    "null",
}

func (k Kind) String() string {
	if int(k) < len(kindName) {
		return kindName[k]
	}

	return fmt.Sprintf("Kind(%d)", k)
}

// IsInteger reports whether k is a signed or unsigned integer kind.
func (k Kind) IsInteger() bool { return k >= KindInt8 && k <= KindUint64 }

// IsUnsigned reports whether k is an unsigned integer kind.
func (k Kind) IsUnsigned() bool { return k >= KindUint8 && k <= KindUint64 }

// IsFloat reports whether k is a floating-point kind.
func (k Kind) IsFloat() bool { return k == KindFloat32 || k == KindFloat64 }

// IsNumeric reports whether k is an integer or floating-point kind.
func (k Kind) IsNumeric() bool { return k.IsInteger() || k.IsFloat() }

// Type is the static type of an expression node. Types are comparable values;
// enum and record types compare by the identity of their descriptors.
type Type struct {
	kind     Kind
	nullable bool
	enum     *Enum
	record   *Record
}

// Primitive types.
var (
	Bool    = Type{kind: KindBool}
	Int8    = Type{kind: KindInt8}
	Int16   = Type{kind: KindInt16}
	Int32   = Type{kind: KindInt32}
	Int64   = Type{kind: KindInt64}
	Uint8   = Type{kind: KindUint8}
	Uint16  = Type{kind: KindUint16}
	Uint32  = Type{kind: KindUint32}
	Uint64  = Type{kind: KindUint64}
	Float32 = Type{kind: KindFloat32}
	Float64 = Type{kind: KindFloat64}
	String  = Type{kind: KindString}

	// Null is the type of the untyped null literal.
	Null = Type{kind: KindNull, nullable: true}
)

// Primitive returns the non-nullable type of primitive kind k.
// Enum and record kinds need a descriptor and yield the invalid type.
func Primitive(k Kind) Type {
	switch k {
	case KindEnum, KindRecord:
		return Type{}
	case KindNull:
		return Null
	}

	return Type{kind: k}
}

// Nullable returns t, allowing null values.
func Nullable(t Type) Type {
	t.nullable = true

	return t
}

// Kind returns the kind of t.
func (t Type) Kind() Kind { return t.kind }

// IsValid reports whether t is a usable type.
func (t Type) IsValid() bool { return t.kind != KindInvalid }

// IsNullable reports whether t admits null values.
func (t Type) IsNullable() bool { return t.nullable }

// NonNullable returns t without null values. The null type is unchanged.
func (t Type) NonNullable() Type {
	if t.kind != KindNull {
		t.nullable = false
	}

	return t
}

// Enum returns the enumeration descriptor of an enum type, or nil.
func (t Type) Enum() *Enum { return t.enum }

// Record returns the record descriptor of a record type, or nil.
func (t Type) Record() *Record { return t.record }

// String returns the type name, with a "?" suffix if nullable.
func (t Type) String() string {
	var name string

	switch t.kind {
	case KindEnum:
		name = t.enum.name
	case KindRecord:
		name = t.record.name
	case KindNull:
		return "null"
	default:
		name = t.kind.String()
	}

	if t.nullable {
		return name + "?"
	}

	return name
}

// EnumMember is a named value of an [Enum].
type EnumMember struct {
	Name  string
	Value int64
}

// Enum describes an enumeration: a named integer type with named members.
type Enum struct {
	name       string
	underlying Kind
	members    []EnumMember
}

// NewEnum returns an enumeration type named name whose values are stored as
// the integer kind underlying.
func NewEnum(name string, underlying Kind, members ...EnumMember) Type {
	if !underlying.IsInteger() {
		underlying = KindInt32
	}

	return Type{
		kind: KindEnum,
		enum: &Enum{name: name, underlying: underlying, members: members},
	}
}

// Name returns the enumeration name.
func (e *Enum) Name() string { return e.name }

// Underlying returns the integer kind used to store values.
func (e *Enum) Underlying() Kind { return e.underlying }

// Members returns the named members in declaration order.
func (e *Enum) Members() []EnumMember { return e.members }

// Parse returns the value of the member named s. If fold is set, names are
// matched without regard to case. Comma-separated member lists combine their
// values, and decimal integers are accepted verbatim.
func (e *Enum) Parse(s string, fold bool) (int64, bool) {
	var (
		value int64
		found bool
	)

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return 0, false
		}

		v, ok := e.lookup(part, fold)
		if !ok {
			return 0, false
		}

		value |= v
		found = true
	}

	return value, found
}

func (e *Enum) lookup(name string, fold bool) (int64, bool) {
	for _, m := range e.members {
		if m.Name == name || (fold && strings.EqualFold(m.Name, name)) {
			return m.Value, true
		}
	}

	n, err := strconv.ParseInt(name, 10, 64)
	if err != nil {
		return 0, false
	}

	return n, true
}

// Format returns the member name of v, or its decimal value if no member has
// that value.
func (e *Enum) Format(v int64) string {
	for _, m := range e.members {
		if m.Value == v {
			return m.Name
		}
	}

	return strconv.FormatInt(v, 10)
}

// EnumValue is the runtime representation of an enumeration value.
type EnumValue struct {
	Enum  *Enum
	Value int64
}

func (v EnumValue) String() string { return v.Enum.Format(v.Value) }

// Field is a named, typed member of a [Record].
type Field struct {
	Name string
	Type Type
}

// Record describes a structured input with typed fields. At run time record
// values are represented as map[string]any keyed by field name.
type Record struct {
	name   string
	fields []Field
}

// NewRecord returns a record type named name with the given fields.
func NewRecord(name string, fields ...Field) Type {
	return Type{
		kind:   KindRecord,
		record: &Record{name: name, fields: fields},
	}
}

// Name returns the record name.
func (r *Record) Name() string { return r.name }

// Fields returns the fields in declaration order.
func (r *Record) Fields() []Field { return r.fields }

// Field returns the field named name.
func (r *Record) Field(name string) (Field, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f, true
		}
	}

	return Field{}, false
}

// TypeOf returns the static type describing a runtime value v.
// Only primitive values, nil, and [EnumValue] are recognized.
func TypeOf(v any) (Type, bool) {
	switch v := v.(type) {
	case nil:
		return Null, true
	case bool:
		return Bool, true
	case int8:
		return Int8, true
	case int16:
		return Int16, true
	case int32:
		return Int32, true
	case int64:
		return Int64, true
	case int:
		return Int64, true
	case uint8:
		return Uint8, true
	case uint16:
		return Uint16, true
	case uint32:
		return Uint32, true
	case uint64:
		return Uint64, true
	case uint:
		return Uint64, true
	case float32:
		return Float32, true
	case float64:
		return Float64, true
	case string:
		return String, true
	case EnumValue:
		return Type{kind: KindEnum, enum: v.Enum}, true
	}

	return Type{}, false
}

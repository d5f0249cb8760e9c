package configstore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	// KindNull is an absent or explicitly null value.
	KindNull Kind = iota
	// KindString is a string value. Binary secrets are strings too.
	KindString
	// KindInt is an integer value.
	KindInt
	// KindBool is a boolean value.
	KindBool
)

// String returns the lowercase kind name used in storage backends.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	default:
		return "null"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "null", "":
		return KindNull, nil
	case "string":
		return KindString, nil
	case "int":
		return KindInt, nil
	case "bool":
		return KindBool, nil
	}
	return KindNull, fmt.Errorf("unknown value kind %q", s)
}

// Value is a loosely typed configuration value.
//
// Settings written by hand mix strings, integers and booleans freely, and the
// checks that read them compare permissively. The coercions below spell those
// comparisons out: Truthy, AsInt and AsString are the only conversions.
type Value struct {
	kind Kind
	s    string
	i    int64
	b    bool
}

// NullValue returns the null Value.
func NullValue() Value { return Value{} }

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// IntValue returns an integer Value.
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// FromAny converts a decoded scalar (from YAML, JSON or SQL) into a Value.
// Nested maps and slices are rejected; stores flatten them into paths.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return t, nil
	case string:
		return StringValue(t), nil
	case []byte:
		return StringValue(string(t)), nil
	case bool:
		return BoolValue(t), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		i, err := cast.ToInt64E(t)
		if err != nil {
			return NullValue(), err
		}
		return IntValue(i), nil
	case float32, float64:
		// YAML and JSON decoders hand integers over as floats in some paths.
		f, err := cast.ToFloat64E(t)
		if err != nil {
			return NullValue(), err
		}
		if f == float64(int64(f)) {
			return IntValue(int64(f)), nil
		}
		return StringValue(strconv.FormatFloat(f, 'f', -1, 64)), nil
	}
	return NullValue(), fmt.Errorf("unsupported configuration value of type %T", v)
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Truthy is the loose boolean reading of v: null, false, 0, "" and "0" are
// false, everything else is true.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindString:
		return v.s != "" && v.s != "0"
	case KindInt:
		return v.i != 0
	case KindBool:
		return v.b
	default:
		return false
	}
}

// Empty is the negation of Truthy.
func (v Value) Empty() bool { return !v.Truthy() }

// AsInt is the loose integer reading of v. Strings contribute their leading
// decimal number ("1800s" is 1800, "abc" is 0); booleans are 1 or 0.
func (v Value) AsInt() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindString:
		return leadingInt(v.s)
	default:
		return 0
	}
}

// AsString is the loose string reading of v: true is "1", false and null are
// "", integers are decimal.
func (v Value) AsString() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindBool:
		if v.b {
			return "1"
		}
		return ""
	default:
		return ""
	}
}

// StringOK returns the string held by v and whether v is a string at all.
func (v Value) StringOK() (string, bool) {
	return v.s, v.kind == KindString
}

// Interface returns v as a plain Go value for encoders.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// Equal reports whether v and o hold the same kind and value.
func (v Value) Equal(o Value) bool {
	return v == o
}

// String implements fmt.Stringer for logging. String values are quoted.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.s)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNull:
		return "null"
	default:
		return v.AsString()
	}
}

func leadingInt(s string) int64 {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ValueKind тип скалярного значения поля
type ValueKind uint8

const (
	// ValueNull JSON null (нулевое значение Value)
	ValueNull ValueKind = iota
	// ValueString строка
	ValueString
	// ValueNumber число (JSON number, float64)
	ValueNumber
	// ValueBool булево значение
	ValueBool
)

// String returns the JSON type name of the kind.
func (k ValueKind) String() string {
	switch k {
	case ValueNull:
		return "null"
	case ValueString:
		return "string"
	case ValueNumber:
		return "number"
	case ValueBool:
		return "bool"
	default:
		return fmt.Sprintf("ValueKind(%d)", uint8(k))
	}
}

// Value is a closed JSON scalar: string, number, boolean or null.
// Arrays and objects are not representable; fields merge only as whole
// scalars under last-write-wins.
type Value struct {
	str  string
	num  float64
	kind ValueKind
	b    bool
}

// NullValue возвращает JSON null
func NullValue() Value {
	return Value{}
}

// StringValue создает строковое значение
func StringValue(s string) Value {
	return Value{kind: ValueString, str: s}
}

// NumberValue создает числовое значение
func NumberValue(n float64) Value {
	return Value{kind: ValueNumber, num: n}
}

// BoolValue создает булево значение
func BoolValue(b bool) Value {
	return Value{kind: ValueBool, b: b}
}

// Kind returns the variant tag.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool {
	return v.kind == ValueNull
}

// AsString returns the string payload and true if v is a string.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == ValueString
}

// AsNumber returns the numeric payload and true if v is a number.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == ValueNumber
}

// AsBool returns the boolean payload and true if v is a boolean.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == ValueBool
}

// Valid reports whether the value can be serialized. NaN and infinities
// have no JSON representation.
func (v Value) Valid() bool {
	if v.kind > ValueBool {
		return false
	}
	if v.kind == ValueNumber {
		return !math.IsNaN(v.num) && !math.IsInf(v.num, 0)
	}
	return true
}

// Equal сравнивает значения по типу и содержимому
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case ValueString:
		return v.str == other.str
	case ValueNumber:
		return v.num == other.num
	case ValueBool:
		return v.b == other.b
	default:
		return true
	}
}

// String renders the value as it appears in JSON.
func (v Value) String() string {
	data, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<invalid %s>", v.kind)
	}
	return string(data)
}

// CompareValues orders values by their canonical JSON bytes. It is only
// used to break ties between writes that carry identical write keys.
func CompareValues(a, b Value) int {
	ab, _ := a.MarshalJSON()
	bb, _ := b.MarshalJSON()
	return bytes.Compare(ab, bb)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueNull:
		return []byte("null"), nil
	case ValueString:
		return json.Marshal(v.str)
	case ValueNumber:
		if !v.Valid() {
			return nil, fmt.Errorf("%w: %v", ErrInvalidNumber, v.num)
		}
		return json.Marshal(v.num)
	case ValueBool:
		return strconv.AppendBool(nil, v.b), nil
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler. Arrays and objects are
// rejected with ErrNotScalar.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode value: %w", err)
	}

	parsed, err := ValueFromAny(raw)
	if err != nil {
		return err
	}

	*v = parsed
	return nil
}

// ValueFromAny converts a decoded JSON scalar into a Value.
func ValueFromAny(raw any) (Value, error) {
	switch val := raw.(type) {
	case nil:
		return NullValue(), nil
	case string:
		return StringValue(val), nil
	case float64:
		return NumberValue(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %s", ErrInvalidNumber, val)
		}
		return NumberValue(f), nil
	case int:
		return NumberValue(float64(val)), nil
	case int64:
		return NumberValue(float64(val)), nil
	case bool:
		return BoolValue(val), nil
	default:
		return Value{}, fmt.Errorf("%w: got %T", ErrNotScalar, raw)
	}
}

// ParseValue разбирает строку из командной строки в Value.
// Корректный JSON-скаляр ("42", "true", "null", "\"x\"") разбирается как JSON,
// все остальное считается строкой.
func ParseValue(s string) Value {
	var v Value
	if err := v.UnmarshalJSON([]byte(s)); err == nil {
		return v
	}
	return StringValue(s)
}

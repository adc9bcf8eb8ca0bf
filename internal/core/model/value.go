package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the scalar type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindText
	KindBool
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "boolean"
	case KindDate:
		return "date"
	default:
		return "null"
	}
}

// Value is a single typed cell. The zero Value is null.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
	t    time.Time
}

func Null() Value { return Value{} }
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }
func Text(s string) Value { return Value{kind: KindText, str: s} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func Date(t time.Time) Value { return Value{kind: KindDate, t: t} }
func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) Float() float64 { return v.num }
func (v Value) Time() time.Time { return v.t }
func (v Value) Boolean() bool { return v.b }

// String renders the value the way it appears in a comparison key.
// Null renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.str
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindDate:
		if v.t.Hour() == 0 && v.t.Minute() == 0 && v.t.Second() == 0 && v.t.Nanosecond() == 0 {
			return v.t.Format("2006-01-02")
		}
		return v.t.Format(time.RFC3339)
	default:
		return ""
	}
}

// IsBlank reports whether the value is null or only whitespace.
func (v Value) IsBlank() bool {
	return v.kind == KindNull || strings.TrimSpace(v.String()) == ""
}

// Equal is exact equality; null equals null.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindNumber:
		return v.num == o.num
	case KindText:
		return v.str == o.str
	case KindBool:
		return v.b == o.b
	case KindDate:
		return v.t.Equal(o.t)
	}
	return false
}

// key encodes v for hashing. Values are Equal exactly when their keys
// match.
func (v Value) key() string {
	var s string
	switch v.kind {
	case KindNumber:
		n := v.num
		if n == 0 {
			n = 0 // folds -0
		}
		s = strconv.FormatFloat(n, 'g', -1, 64)
	case KindDate:
		s = strconv.FormatInt(v.t.UnixNano(), 10)
	default:
		s = v.String()
	}
	return strconv.Itoa(int(v.kind)) + ":" + s
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.num)
	case KindText:
		return json.Marshal(v.str)
	case KindBool:
		return json.Marshal(v.b)
	case KindDate:
		return json.Marshal(v.String())
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON reads any JSON scalar. Dates come back as text.
func (v *Value) UnmarshalJSON(data []byte) error {
	var x any
	if err := json.Unmarshal(data, &x); err != nil {
		return err
	}
	*v = FromAny(x)
	return nil
}

// FromAny converts a decoded JSON scalar into a Value.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case float64:
		return Number(t)
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case bool:
		return Bool(t)
	case string:
		return Text(t)
	case time.Time:
		return Date(t)
	case Value:
		return t
	default:
		b, _ := json.Marshal(t)
		return Text(string(b))
	}
}

package dump

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindText
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "absent"
	}
}

// securityExceptionMarker flags values the collector could not read.
const securityExceptionMarker = "SecurityException"

// Value is a property value classified once at extraction time.
// The raw text is kept so string comparisons ("1", "true") stay exact.
type Value struct {
	kind Kind
	raw  string
	num  float64
	b    bool
}

// Absent returns the zero Value.
func Absent() Value { return Value{} }

// ParseValue classifies a raw property value. "null", blank input and
// values carrying a SecurityException marker are Absent.
func ParseValue(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" || strings.Contains(s, securityExceptionMarker) {
		return Value{}
	}

	switch s {
	case "true":
		return Value{kind: KindBool, raw: s, b: true}
	case "false":
		return Value{kind: KindBool, raw: s}
	}

	if f, err := cast.ToFloat64E(s); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Value{kind: KindNumber, raw: s, num: f}
	}

	return Value{kind: KindText, raw: s}
}

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// Present reports whether the value is not Absent.
func (v Value) Present() bool { return v.kind != KindAbsent }

// Text returns the raw text, or "" when absent.
func (v Value) Text() string { return v.raw }

// Float returns the numeric value when the variant is Number.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Int returns the value as an integer when it is an integral Number.
func (v Value) Int() (int64, bool) {
	if v.kind != KindNumber || v.num != math.Trunc(v.num) {
		return 0, false
	}
	return int64(v.num), true
}

// Bool returns the boolean when the variant is Bool.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Is reports whether the raw text equals s.
func (v Value) Is(s string) bool { return v.Present() && v.raw == s }

// Contains reports whether the raw text contains sub.
func (v Value) Contains(sub string) bool { return v.Present() && strings.Contains(v.raw, sub) }

// Properties maps property keys to classified values.
type Properties map[string]Value

// Get returns the value for key, Absent if missing.
func (p Properties) Get(key string) Value {
	if p == nil {
		return Value{}
	}
	return p[key]
}

// First returns the first present value among keys.
func (p Properties) First(keys ...string) Value {
	for _, k := range keys {
		if v := p.Get(k); v.Present() {
			return v
		}
	}
	return Value{}
}

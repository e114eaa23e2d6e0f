// Package match provides the predicate matchers applied to captured
// assertion values. Every matcher is a description paired with an evaluation
// function; there is no matcher hierarchy.
package match

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// M is a single matcher: a predicate over the actual value plus the
// expectation text used in failure messages.
type M struct {
	desc string
	fn   func(actual any) bool
}

// Match evaluates the predicate.
func (m M) Match(actual any) bool {
	if m.fn == nil {
		return false
	}
	return m.fn(actual)
}

func (m M) String() string {
	return m.desc
}

// New builds a matcher from a description and predicate function.
func New(desc string, fn func(actual any) bool) M {
	return M{desc: desc, fn: fn}
}

// Equal matches values that equal want. Numeric values compare by magnitude
// across integer and float kinds, so int64(3) equals float64(3); everything
// else compares with reflect.DeepEqual.
func Equal(want any) M {
	return M{
		desc: fmt.Sprintf("equal %v", want),
		fn:   func(actual any) bool { return equalValues(actual, want) },
	}
}

// BeTrue matches the boolean true.
func BeTrue() M {
	return M{desc: "be true", fn: func(actual any) bool {
		b, ok := actual.(bool)
		return ok && b
	}}
}

// BeFalse matches the boolean false.
func BeFalse() M {
	return M{desc: "be false", fn: func(actual any) bool {
		b, ok := actual.(bool)
		return ok && !b
	}}
}

// BeNil matches nil values, including typed nil pointers, maps, and slices.
func BeNil() M {
	return M{desc: "be nil", fn: func(actual any) bool {
		if actual == nil {
			return true
		}
		rv := reflect.ValueOf(actual)
		switch rv.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
			return rv.IsNil()
		}
		return false
	}}
}

// Contain matches a string containing want as a substring, or a slice/array
// containing an element equal to want.
func Contain(want any) M {
	return M{
		desc: fmt.Sprintf("contain %v", want),
		fn: func(actual any) bool {
			if s, ok := actual.(string); ok {
				return strings.Contains(s, fmt.Sprint(want))
			}
			rv := reflect.ValueOf(actual)
			if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
				return false
			}
			for i := 0; i < rv.Len(); i++ {
				if equalValues(rv.Index(i).Interface(), want) {
					return true
				}
			}
			return false
		},
	}
}

// BeGreaterThan matches numeric values strictly above want.
func BeGreaterThan(want any) M {
	return M{
		desc: fmt.Sprintf("be greater than %v", want),
		fn: func(actual any) bool {
			a, okA := toFloat(actual)
			w, okW := toFloat(want)
			return okA && okW && a > w
		},
	}
}

// BeLessThan matches numeric values strictly below want.
func BeLessThan(want any) M {
	return M{
		desc: fmt.Sprintf("be less than %v", want),
		fn: func(actual any) bool {
			a, okA := toFloat(actual)
			w, okW := toFloat(want)
			return okA && okW && a < w
		},
	}
}

// BeWithin matches numeric values in the inclusive range min..max.
func BeWithin(min, max any) M {
	return M{
		desc: fmt.Sprintf("be within %v..%v", min, max),
		fn: func(actual any) bool {
			a, okA := toFloat(actual)
			lo, okLo := toFloat(min)
			hi, okHi := toFloat(max)
			return okA && okLo && okHi && a >= lo && a <= hi
		},
	}
}

// HaveLength matches strings, slices, arrays, and maps of the given length.
func HaveLength(want int) M {
	return M{
		desc: fmt.Sprintf("have length %d", want),
		fn: func(actual any) bool {
			if actual == nil {
				return want == 0
			}
			rv := reflect.ValueOf(actual)
			switch rv.Kind() {
			case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
				return rv.Len() == want
			}
			return false
		},
	}
}

// MatchPattern matches strings against a regular expression.
func MatchPattern(pattern string) M {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return M{desc: fmt.Sprintf("match pattern %q (invalid: %v)", pattern, err)}
	}
	return M{
		desc: fmt.Sprintf("match pattern %q", pattern),
		fn: func(actual any) bool {
			s, ok := actual.(string)
			return ok && re.MatchString(s)
		},
	}
}

// Not inverts a matcher.
func Not(m M) M {
	return M{
		desc: "not " + m.String(),
		fn:   func(actual any) bool { return !m.Match(actual) },
	}
}

// AllOf matches when every given matcher matches.
func AllOf(ms ...M) M {
	descs := make([]string, len(ms))
	for i, m := range ms {
		descs[i] = m.String()
	}
	return M{
		desc: strings.Join(descs, " and "),
		fn: func(actual any) bool {
			for _, m := range ms {
				if !m.Match(actual) {
					return false
				}
			}
			return true
		},
	}
}

// AnyOf matches when at least one given matcher matches.
func AnyOf(ms ...M) M {
	descs := make([]string, len(ms))
	for i, m := range ms {
		descs[i] = m.String()
	}
	return M{
		desc: strings.Join(descs, " or "),
		fn: func(actual any) bool {
			for _, m := range ms {
				if m.Match(actual) {
					return true
				}
			}
			return false
		},
	}
}

func equalValues(a, b any) bool {
	if af, ok := toFloat(a); ok {
		if bf, okB := toFloat(b); okB {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

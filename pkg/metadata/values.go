package metadata

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Normalize converts a value into the canonical representation used for
// comparison: integers become int64 (uint64 when out of range), floats become
// float64, string kinds become string and slices or arrays become []any.
func Normalize(value any) any {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case string, bool, int64, float64:
		return v
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Normalize(item)
		}
		return out
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u <= math.MaxInt64 {
			return int64(u)
		}
		return u
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Slice:
		if rv.IsNil() {
			return []any{}
		}
		fallthrough
	case reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	default:
		return value
	}
}

// ListOf normalizes expected values into an ordered element list
func ListOf(values ...any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = Normalize(v)
	}
	return out
}

// IsList reports whether a value is multi-valued after normalization
func IsList(value any) bool {
	_, ok := Normalize(value).([]any)
	return ok
}

// Equal compares two values after normalization. Lists compare element by
// element; an integer equals a float of the same value.
func Equal(expected, actual any) bool {
	return equalNormalized(Normalize(expected), Normalize(actual))
}

func equalNormalized(expected, actual any) bool {
	el, expectedList := expected.([]any)
	al, actualList := actual.([]any)
	if expectedList || actualList {
		if !expectedList || !actualList || len(el) != len(al) {
			return false
		}
		for i := range el {
			if !equalNormalized(el[i], al[i]) {
				return false
			}
		}
		return true
	}
	if x, y, ok := mixedNumbers(expected, actual); ok {
		return x == y
	}
	return reflect.DeepEqual(expected, actual)
}

// mixedNumbers converts an integer and float pair to floats
func mixedNumbers(a, b any) (float64, float64, bool) {
	af, aFloat := a.(float64)
	bf, bFloat := b.(float64)
	if aFloat == bFloat {
		return 0, 0, false
	}
	if aFloat {
		f, ok := toFloat(b)
		return af, f, ok
	}
	f, ok := toFloat(a)
	return f, bf, ok
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// IsEmpty reports whether value is absent, an empty list or an empty string
func IsEmpty(value any) bool {
	switch v := Normalize(value).(type) {
	case nil:
		return true
	case []any:
		return len(v) == 0
	case string:
		return v == ""
	default:
		return false
	}
}

// Format renders a value for diagnostics
func Format(value any) string {
	switch v := Normalize(value).(type) {
	case nil:
		return "<none>"
	case string:
		return strconv.Quote(v)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = Format(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}

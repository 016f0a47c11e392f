package types

import (
	"strings"
	"time"
)

// Equal compares two canonical values. Lists are equal when they hold equal
// elements in the same order; integers and floats compare numerically.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case int64, float64:
		xf, _ := toFloat(a)
		yf, ok := toFloat(b)
		return ok && xf == yf
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	}
	return false
}

// Compare orders two canonical values of the same kind.
// ok is false when the values are not mutually ordered.
func Compare(a, b any) (cmp int, ok bool) {
	switch x := a.(type) {
	case int64, float64:
		xf, _ := toFloat(a)
		yf, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		return compareOrdered(xf, yf), true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		default:
			return 1, true
		}
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	case []any:
		y, ok := b.([]any)
		if !ok {
			return 0, false
		}
		for i := 0; i < len(x) && i < len(y); i++ {
			c, ok := Compare(x[i], y[i])
			if !ok {
				return 0, false
			}
			if c != 0 {
				return c, true
			}
		}
		return compareOrdered(len(x), len(y)), true
	}
	return 0, false
}

// Contains reports whether container holds needle: list membership for
// lists, substring match for strings.
func Contains(container, needle any) bool {
	switch c := container.(type) {
	case []any:
		for _, e := range c {
			if Equal(e, needle) {
				return true
			}
		}
	case string:
		if n, ok := needle.(string); ok {
			return strings.Contains(c, n)
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func compareOrdered[T int | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

package types

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// FieldType is the declared type of a tag's values.
// Scalar types come first; every scalar has a list counterpart at a fixed offset.
type FieldType int

const (
	FieldString FieldType = iota
	FieldInteger
	FieldFloat
	FieldBoolean
	FieldDate
	FieldDatetime
	FieldTime
	FieldListString
	FieldListInteger
	FieldListFloat
	FieldListBoolean
	FieldListDate
	FieldListDatetime
	FieldListTime
)

const listOffset = FieldListString - FieldString

// Layouts used to render and parse temporal values
const (
	DateLayout     = "2006-01-02"
	DatetimeLayout = time.RFC3339Nano
	TimeLayout     = "15:04:05.999999"
)

var fieldTypeNames = map[FieldType]string{
	FieldString:       "string",
	FieldInteger:      "int",
	FieldFloat:        "float",
	FieldBoolean:      "boolean",
	FieldDate:         "date",
	FieldDatetime:     "datetime",
	FieldTime:         "time",
	FieldListString:   "list_string",
	FieldListInteger:  "list_int",
	FieldListFloat:    "list_float",
	FieldListBoolean:  "list_boolean",
	FieldListDate:     "list_date",
	FieldListDatetime: "list_datetime",
	FieldListTime:     "list_time",
}

var fieldTypeAliases = map[string]FieldType{
	"str":          FieldString,
	"integer":      FieldInteger,
	"bool":         FieldBoolean,
	"list_str":     FieldListString,
	"list_integer": FieldListInteger,
	"list_bool":    FieldListBoolean,
}

// String returns the string representation of the FieldType
func (ft FieldType) String() string {
	if name, ok := fieldTypeNames[ft]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether ft is one of the declared field types
func (ft FieldType) Valid() bool {
	_, ok := fieldTypeNames[ft]
	return ok
}

// IsList reports whether values of this type are ordered sequences
func (ft FieldType) IsList() bool {
	return ft >= FieldListString && ft <= FieldListTime
}

// Elem returns the scalar type of a list type, or ft itself for scalars
func (ft FieldType) Elem() FieldType {
	if ft.IsList() {
		return ft - listOffset
	}
	return ft
}

// ListOf returns the list type whose elements are ft
func (ft FieldType) ListOf() FieldType {
	if ft.IsList() {
		return ft
	}
	return ft + listOffset
}

// IsNumeric reports whether the scalar type compares numerically
func (ft FieldType) IsNumeric() bool {
	e := ft.Elem()
	return e == FieldInteger || e == FieldFloat
}

// ParseFieldType resolves a type name such as "string" or "list_int"
func ParseFieldType(name string) (FieldType, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for ft, s := range fieldTypeNames {
		if s == n {
			return ft, nil
		}
	}
	if ft, ok := fieldTypeAliases[n]; ok {
		return ft, nil
	}
	return 0, fmt.Errorf("unknown field type %q", name)
}

// MarshalText implements encoding.TextMarshaler so schemas persist type names
func (ft FieldType) MarshalText() ([]byte, error) {
	if !ft.Valid() {
		return nil, fmt.Errorf("invalid field type %d", int(ft))
	}
	return []byte(ft.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (ft *FieldType) UnmarshalText(text []byte) error {
	parsed, err := ParseFieldType(string(text))
	if err != nil {
		return err
	}
	*ft = parsed
	return nil
}

// Coerce converts a value (typically freshly JSON or YAML decoded) into the
// canonical Go representation for this field type:
// string, int64, float64, bool, time.Time, or []any for lists.
func (ft FieldType) Coerce(v any) (any, error) {
	if v == nil {
		return nil, fmt.Errorf("cannot coerce nil to %s", ft)
	}
	if ft.IsList() {
		return ft.coerceList(v)
	}

	switch ft {
	case FieldString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case FieldInteger:
		return coerceInt(v)
	case FieldFloat:
		return coerceFloat(v)
	case FieldBoolean:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			return ft.Parse(b)
		}
	case FieldDate, FieldDatetime, FieldTime:
		switch t := v.(type) {
		case time.Time:
			return ft.normalizeTime(t), nil
		case string:
			return ft.Parse(t)
		}
	}
	return nil, fmt.Errorf("cannot coerce %T to %s", v, ft)
}

func (ft FieldType) coerceList(v any) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		if s, ok := v.(string); ok {
			return ft.Parse(s)
		}
		return nil, fmt.Errorf("cannot coerce %T to %s", v, ft)
	}
	elem := ft.Elem()
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		c, err := elem.Coerce(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

func coerceInt(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return nil, fmt.Errorf("%v is not an integer", n)
		}
		return int64(n), nil
	case float32:
		return coerceInt(float64(n))
	case json.Number:
		return n.Int64()
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid int %q", n)
		}
		return i, nil
	}
	return nil, fmt.Errorf("cannot coerce %T to int", v)
}

func coerceFloat(v any) (any, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q", n)
		}
		return f, nil
	}
	i, err := coerceInt(v)
	if err != nil {
		return nil, fmt.Errorf("cannot coerce %T to float", v)
	}
	return float64(i.(int64)), nil
}

func (ft FieldType) normalizeTime(t time.Time) time.Time {
	switch ft.Elem() {
	case FieldDate:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case FieldTime:
		return time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/1000*1000, time.UTC)
	}
	return t
}

// Parse reads the textual form of a value, as typed on a command line or
// written in a filter literal. List types accept "[a, b]" or "a,b".
func (ft FieldType) Parse(s string) (any, error) {
	if ft.IsList() {
		inner := strings.TrimSpace(s)
		inner = strings.TrimPrefix(inner, "[")
		inner = strings.TrimSuffix(inner, "]")
		out := []any{}
		if strings.TrimSpace(inner) == "" {
			return out, nil
		}
		for _, part := range strings.Split(inner, ",") {
			part = strings.Trim(strings.TrimSpace(part), `"'`)
			v, err := ft.Elem().Parse(part)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	switch ft {
	case FieldString:
		return s, nil
	case FieldInteger:
		return coerceInt(s)
	case FieldFloat:
		return coerceFloat(s)
	case FieldBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q", s)
		}
		return b, nil
	case FieldDate:
		return parseTime(s, ft, DateLayout)
	case FieldDatetime:
		return parseTime(s, ft, DatetimeLayout, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05")
	case FieldTime:
		return parseTime(s, ft, TimeLayout, "15:04")
	}
	return nil, fmt.Errorf("cannot parse value for field type %s", ft)
}

func parseTime(s string, ft FieldType, layouts ...string) (any, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return ft.normalizeTime(t), nil
		}
	}
	return nil, fmt.Errorf("invalid %s %q", ft, s)
}

// Format renders a canonical value as text. Lists render as "[a, b]".
func (ft FieldType) Format(v any) string {
	if v == nil {
		return ""
	}
	if list, ok := v.([]any); ok {
		parts := make([]string, len(list))
		for i, e := range list {
			parts[i] = ft.Elem().Format(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		switch ft.Elem() {
		case FieldDate:
			return x.Format(DateLayout)
		case FieldTime:
			return x.Format(TimeLayout)
		default:
			return x.Format(DatetimeLayout)
		}
	}
	return fmt.Sprintf("%v", v)
}

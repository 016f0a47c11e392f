// Package filter implements the tag filter expression language.
//
// Expressions reference tags in braces and compare them with literals:
//
//	(({PatientName} == "P1") AND ({Bricks} == [1, 2]))
//
// Build produces the conjunctive form used by the count table; Parse and
// Compile give the store its evaluation semantics, including the operators
// used by advanced search (!=, <, <=, >, >=, IN, CONTAINS, HAS VALUE,
// HAS NO VALUE) and OR / NOT composition.
//
// Values are interpolated verbatim: a double quote inside a value or a brace
// inside a tag name is not escaped and yields an expression that fails to parse.
package filter

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/arthur-debert/scanstore/types"
)

// Operator is a comparison operator of the filter grammar
type Operator string

const (
	OpEq         Operator = "=="
	OpNe         Operator = "!="
	OpGt         Operator = ">"
	OpGe         Operator = ">="
	OpLt         Operator = "<"
	OpLe         Operator = "<="
	OpIn         Operator = "IN"
	OpContains   Operator = "CONTAINS"
	OpHasValue   Operator = "HAS VALUE"
	OpHasNoValue Operator = "HAS NO VALUE"
)

// Pair is one (tag, value) equality constraint
type Pair struct {
	Tag   string
	Value any
}

// TypedPair builds a Pair whose temporal values are pre-rendered with the
// tag's layout, so the expression carries the same text the store formats.
func TypedPair(tag types.Tag, value any) Pair {
	switch v := value.(type) {
	case time.Time:
		return Pair{Tag: tag.Name, Value: tag.Type.Format(v)}
	case []any:
		if isTemporal(tag.Type) {
			out := make([]any, len(v))
			for i, e := range v {
				out[i] = tag.Type.Elem().Format(e)
			}
			return Pair{Tag: tag.Name, Value: out}
		}
	}
	return Pair{Tag: tag.Name, Value: value}
}

func isTemporal(ft types.FieldType) bool {
	switch ft.Elem() {
	case types.FieldDate, types.FieldDatetime, types.FieldTime:
		return true
	}
	return false
}

// Build renders pairs as a fully parenthesized conjunction:
//
//	[("PatientName","P1"), ("TimePoint","T1")] -> (({PatientName} == "P1") AND ({TimePoint} == "T1"))
//
// Scalars are quoted, sequences are rendered as unquoted list literals.
// An empty slice yields "()".
func Build(pairs []Pair) string {
	conjuncts := make([]string, len(pairs))
	for i, p := range pairs {
		conjuncts[i] = Condition(p.Tag, OpEq, p.Value)
	}
	return "(" + strings.Join(conjuncts, " AND ") + ")"
}

// Condition renders a single predicate such as ({Age} >= "30").
// The value is ignored for HAS VALUE and HAS NO VALUE.
func Condition(tag string, op Operator, value any) string {
	if op == OpHasValue || op == OpHasNoValue {
		return fmt.Sprintf("({%s} %s)", tag, op)
	}
	return fmt.Sprintf("({%s} %s %s)", tag, op, FormatLiteral(value))
}

// Join combines rendered expressions with AND or OR
func Join(op string, exprs ...string) string {
	return "(" + strings.Join(exprs, " "+op+" ") + ")"
}

// Not negates a rendered expression
func Not(expr string) string {
	return "(NOT " + expr + ")"
}

// FormatLiteral renders a value: sequences as [e1, e2] with bare numbers and
// booleans and quoted strings; any scalar as a double-quoted string.
func FormatLiteral(value any) string {
	if isSequence(value) {
		rv := reflect.ValueOf(value)
		parts := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts[i] = element(rv.Index(i).Interface())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return `"` + scalarText(value) + `"`
}

func isSequence(value any) bool {
	if value == nil {
		return false
	}
	if _, ok := value.([]byte); ok {
		return false
	}
	k := reflect.TypeOf(value).Kind()
	return k == reflect.Slice || k == reflect.Array
}

func element(v any) string {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
		return scalarText(v)
	}
	return `"` + scalarText(v) + `"`
}

func scalarText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(types.DatetimeLayout)
	}
	return fmt.Sprintf("%v", v)
}

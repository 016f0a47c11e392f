package filter

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/scanstore/types"
)

// TagResolver resolves tag definitions by name
type TagResolver interface {
	Lookup(name string) (types.Tag, error)
}

// Filter is a parsed expression bound to a tag schema, ready to evaluate
type Filter struct {
	expr  Expr
	tags  []string
	match func(types.Scan) bool
}

// Compile parses input and binds it against the schema in one step
func Compile(input string, tags TagResolver) (*Filter, error) {
	expr, err := Parse(input)
	if err != nil {
		return nil, err
	}
	return Bind(expr, tags)
}

// Bind resolves every tag referenced by expr and coerces its literals to the
// tag's field type. Unknown tags fail with an error wrapping types.ErrTagNotFound.
func Bind(expr Expr, tags TagResolver) (*Filter, error) {
	b := &binder{tags: tags, seen: make(map[string]bool)}
	match, err := b.bind(expr)
	if err != nil {
		return nil, err
	}
	return &Filter{expr: expr, tags: b.order, match: match}, nil
}

// Match reports whether the scan satisfies the expression.
// A tag that is not defined on the scan satisfies no comparison.
func (f *Filter) Match(scan types.Scan) bool {
	return f.match(scan)
}

// Tags returns the referenced tag names in first-use order
func (f *Filter) Tags() []string {
	return f.tags
}

func (f *Filter) String() string {
	return f.expr.String()
}

type binder struct {
	tags  TagResolver
	seen  map[string]bool
	order []string
}

func (b *binder) bind(expr Expr) (func(types.Scan) bool, error) {
	switch e := expr.(type) {
	case *MatchAll:
		return func(types.Scan) bool { return true }, nil
	case *AndExpr:
		terms, err := b.bindAll(e.Terms)
		if err != nil {
			return nil, err
		}
		return func(s types.Scan) bool {
			for _, t := range terms {
				if !t(s) {
					return false
				}
			}
			return true
		}, nil
	case *OrExpr:
		terms, err := b.bindAll(e.Terms)
		if err != nil {
			return nil, err
		}
		return func(s types.Scan) bool {
			for _, t := range terms {
				if t(s) {
					return true
				}
			}
			return false
		}, nil
	case *NotExpr:
		term, err := b.bind(e.Term)
		if err != nil {
			return nil, err
		}
		return func(s types.Scan) bool { return !term(s) }, nil
	case *Predicate:
		return b.bindPredicate(e)
	}
	return nil, fmt.Errorf("unsupported expression %T", expr)
}

func (b *binder) bindAll(exprs []Expr) ([]func(types.Scan) bool, error) {
	out := make([]func(types.Scan) bool, len(exprs))
	for i, e := range exprs {
		m, err := b.bind(e)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

func (b *binder) bindPredicate(p *Predicate) (func(types.Scan) bool, error) {
	tag, err := b.tags.Lookup(p.Tag)
	if err != nil {
		return nil, fmt.Errorf("binding {%s}: %w", p.Tag, err)
	}
	if !b.seen[tag.Name] {
		b.seen[tag.Name] = true
		b.order = append(b.order, tag.Name)
	}
	name := tag.Name

	switch p.Op {
	case OpHasValue:
		return func(s types.Scan) bool {
			_, ok := s.Value(name)
			return ok
		}, nil
	case OpHasNoValue:
		return func(s types.Scan) bool {
			_, ok := s.Value(name)
			return !ok
		}, nil
	case OpIn:
		return b.bindIn(tag, p.Value)
	case OpContains:
		return b.bindContains(tag, p.Value)
	}

	want, err := coerceLiteral(p.Value, tag.Type)
	if err != nil {
		return nil, fmt.Errorf("{%s} %s %s: %w", name, p.Op, p.Value, err)
	}

	var test func(v any) bool
	switch p.Op {
	case OpEq:
		test = func(v any) bool { return types.Equal(v, want) }
	case OpNe:
		test = func(v any) bool { return !types.Equal(v, want) }
	case OpGt, OpGe, OpLt, OpLe:
		op := p.Op
		test = func(v any) bool {
			c, ok := types.Compare(v, want)
			if !ok {
				return false
			}
			switch op {
			case OpGt:
				return c > 0
			case OpGe:
				return c >= 0
			case OpLt:
				return c < 0
			default:
				return c <= 0
			}
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidOperator, p.Op)
	}

	return func(s types.Scan) bool {
		v, ok := s.Value(name)
		return ok && test(v)
	}, nil
}

func (b *binder) bindIn(tag types.Tag, lit Literal) (func(types.Scan) bool, error) {
	elem := tag.Type.Elem()
	options := make([]any, len(lit.Elems))
	for i, e := range lit.Elems {
		v, err := coerceLiteral(e, elem)
		if err != nil {
			return nil, fmt.Errorf("{%s} IN %s: %w", tag.Name, lit, err)
		}
		options[i] = v
	}
	name := tag.Name
	isList := tag.Type.IsList()

	return func(s types.Scan) bool {
		v, ok := s.Value(name)
		if !ok {
			return false
		}
		candidates := []any{v}
		if isList {
			candidates, _ = v.([]any)
		}
		for _, c := range candidates {
			for _, o := range options {
				if types.Equal(c, o) {
					return true
				}
			}
		}
		return false
	}, nil
}

func (b *binder) bindContains(tag types.Tag, lit Literal) (func(types.Scan) bool, error) {
	name := tag.Name
	switch {
	case tag.Type.IsList():
		needle, err := coerceLiteral(lit, tag.Type.Elem())
		if err != nil {
			return nil, fmt.Errorf("{%s} CONTAINS %s: %w", name, lit, err)
		}
		return func(s types.Scan) bool {
			v, ok := s.Value(name)
			return ok && types.Contains(v, needle)
		}, nil
	case tag.Type == types.FieldString:
		if lit.Kind == LitList {
			return nil, fmt.Errorf("{%s} CONTAINS %s: %w", name, lit, ErrInvalidLiteral)
		}
		needle := lit.Text
		return func(s types.Scan) bool {
			v, ok := s.Value(name)
			if !ok {
				return false
			}
			str, isStr := v.(string)
			return isStr && strings.Contains(str, needle)
		}, nil
	}
	return nil, fmt.Errorf("%w: CONTAINS on %s tag %s", ErrInvalidOperator, tag.Type, name)
}

// coerceLiteral converts a literal to the canonical value of field type ft
func coerceLiteral(lit Literal, ft types.FieldType) (any, error) {
	if lit.Kind == LitList {
		if !ft.IsList() {
			return nil, fmt.Errorf("%w: list literal for %s tag", ErrInvalidLiteral, ft)
		}
		out := make([]any, len(lit.Elems))
		for i, e := range lit.Elems {
			v, err := coerceLiteral(e, ft.Elem())
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	v, err := ft.Parse(lit.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLiteral, err)
	}
	return v, nil
}

package filter

import "strings"

// Expr is the interface for all AST nodes.
// The marker method prevents external types from implementing Expr.
type Expr interface {
	expr()
	// String returns the expression in filter grammar form.
	String() string
}

// AndExpr represents logical AND of multiple expressions.
// Invariant: len(Terms) >= 2
type AndExpr struct {
	Terms []Expr
}

func (*AndExpr) expr() {}

func (a *AndExpr) String() string {
	return joinTerms(a.Terms, " AND ")
}

// OrExpr represents logical OR of multiple expressions.
// Invariant: len(Terms) >= 2
type OrExpr struct {
	Terms []Expr
}

func (*OrExpr) expr() {}

func (o *OrExpr) String() string {
	return joinTerms(o.Terms, " OR ")
}

// NotExpr represents logical negation.
type NotExpr struct {
	Term Expr
}

func (*NotExpr) expr() {}

func (n *NotExpr) String() string {
	return "(NOT " + n.Term.String() + ")"
}

// MatchAll is the empty conjunction "()".
type MatchAll struct{}

func (*MatchAll) expr() {}

func (*MatchAll) String() string { return "()" }

// Predicate compares one tag with a literal.
type Predicate struct {
	Tag   string
	Op    Operator
	Value Literal // unused for HAS VALUE / HAS NO VALUE
}

func (*Predicate) expr() {}

func (p *Predicate) String() string {
	if p.Op == OpHasValue || p.Op == OpHasNoValue {
		return "({" + p.Tag + "} " + string(p.Op) + ")"
	}
	return "({" + p.Tag + "} " + string(p.Op) + " " + p.Value.String() + ")"
}

// LiteralKind distinguishes quoted text, barewords and lists.
type LiteralKind int

const (
	LitString LiteralKind = iota // "text"
	LitBare                      // 12, 1.5, true
	LitList                      // [e1, e2]
)

// Literal is an unbound value; it is coerced to the tag's type by Compile.
type Literal struct {
	Kind  LiteralKind
	Text  string
	Elems []Literal
}

func (l Literal) String() string {
	switch l.Kind {
	case LitString:
		return `"` + l.Text + `"`
	case LitList:
		parts := make([]string, len(l.Elems))
		for i, e := range l.Elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return l.Text
	}
}

func joinTerms(terms []Expr, sep string) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

func flattenAnd(left, right Expr) Expr {
	var terms []Expr
	if a, ok := left.(*AndExpr); ok {
		terms = append(terms, a.Terms...)
	} else {
		terms = append(terms, left)
	}
	if a, ok := right.(*AndExpr); ok {
		terms = append(terms, a.Terms...)
	} else {
		terms = append(terms, right)
	}
	return &AndExpr{Terms: terms}
}

func flattenOr(left, right Expr) Expr {
	var terms []Expr
	if o, ok := left.(*OrExpr); ok {
		terms = append(terms, o.Terms...)
	} else {
		terms = append(terms, left)
	}
	if o, ok := right.(*OrExpr); ok {
		terms = append(terms, o.Terms...)
	} else {
		terms = append(terms, right)
	}
	return &OrExpr{Terms: terms}
}

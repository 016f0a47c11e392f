package filter

// parser is a recursive-descent parser over the filter grammar:
//
//	expr      = or_expr EOF
//	or_expr   = and_expr ( "OR" and_expr )*
//	and_expr  = unary ( "AND" unary )*
//	unary     = "NOT" unary | primary
//	primary   = "(" [ or_expr ] ")" | predicate
//	predicate = FIELD op literal
//	          | FIELD "IN" list
//	          | FIELD "CONTAINS" literal
//	          | FIELD "HAS" [ "NO" ] "VALUE"
//	literal   = STRING | WORD | list
//	list      = "[" [ literal ( "," literal )* ] "]"
//
// Precedence (highest to lowest): parentheses, NOT, AND, OR.
type parser struct {
	lex *Lexer
	cur Token
}

// Parse parses a filter expression into an AST.
func Parse(input string) (Expr, error) {
	p := &parser{lex: NewLexer(input)}

	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.Kind == TokEOF {
		return nil, newParseError(0, ErrEmptyQuery, "empty query")
	}

	expr, err := p.parseOrExpr()
	if err != nil {
		return nil, err
	}

	if p.cur.Kind != TokEOF {
		return nil, newParseError(p.cur.Pos, ErrUnexpectedToken, "unexpected token: %s", p.cur.Lit)
	}
	return expr, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *parser) expect(kind TokenKind, what string) error {
	if p.cur.Kind == TokEOF {
		return newParseError(p.cur.Pos, ErrUnexpectedEOF, "expected %s, got end of query", what)
	}
	if p.cur.Kind != kind {
		return newParseError(p.cur.Pos, ErrUnexpectedToken, "expected %s, got %s", what, p.cur.Kind)
	}
	return p.advance()
}

func (p *parser) parseOrExpr() (Expr, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == TokOr {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		left = flattenOr(left, right)
	}
	return left, nil
}

func (p *parser) parseAndExpr() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == TokAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = flattenAnd(left, right)
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.cur.Kind != TokNot {
		return p.parsePrimary()
	}
	pos := p.cur.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.Kind == TokEOF {
		return nil, newParseError(pos, ErrUnexpectedEOF, "expected expression after NOT")
	}
	term, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &NotExpr{Term: term}, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.cur.Kind {
	case TokLParen:
		open := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Kind == TokRParen {
			if err := p.advance(); err != nil {
				return nil, err
			}
			return &MatchAll{}, nil
		}
		expr, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		if p.cur.Kind != TokRParen {
			return nil, newParseError(open, ErrUnmatchedParen, "unmatched opening parenthesis")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return expr, nil
	case TokField:
		return p.parsePredicate()
	case TokEOF:
		return nil, newParseError(p.cur.Pos, ErrUnexpectedEOF, "unexpected end of query")
	case TokRParen:
		return nil, newParseError(p.cur.Pos, ErrUnmatchedParen, "unexpected closing parenthesis")
	default:
		return nil, newParseError(p.cur.Pos, ErrUnexpectedToken, "expected field reference, got %s", p.cur.Kind)
	}
}

func (p *parser) parsePredicate() (Expr, error) {
	tag := p.cur.Lit
	if err := p.advance(); err != nil {
		return nil, err
	}

	var op Operator
	switch p.cur.Kind {
	case TokOp:
		op = Operator(p.cur.Lit)
	case TokIn:
		op = OpIn
	case TokContains:
		op = OpContains
	case TokHas:
		return p.parseHas(tag)
	case TokEOF:
		return nil, newParseError(p.cur.Pos, ErrUnexpectedEOF, "expected operator after {%s}", tag)
	default:
		return nil, newParseError(p.cur.Pos, ErrUnexpectedToken, "expected operator after {%s}, got %s", tag, p.cur.Kind)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	lit, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	if op == OpIn && lit.Kind != LitList {
		return nil, newParseError(p.cur.Pos, ErrInvalidLiteral, "IN requires a list literal")
	}
	return &Predicate{Tag: tag, Op: op, Value: lit}, nil
}

func (p *parser) parseHas(tag string) (Expr, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	op := OpHasValue
	if p.cur.Kind == TokNo {
		op = OpHasNoValue
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(TokValue, "VALUE"); err != nil {
		return nil, err
	}
	return &Predicate{Tag: tag, Op: op}, nil
}

func (p *parser) parseLiteral() (Literal, error) {
	tok := p.cur
	switch tok.Kind {
	case TokString:
		if err := p.advance(); err != nil {
			return Literal{}, err
		}
		return Literal{Kind: LitString, Text: tok.Lit}, nil
	case TokWord:
		if err := p.advance(); err != nil {
			return Literal{}, err
		}
		return Literal{Kind: LitBare, Text: tok.Lit}, nil
	case TokLBracket:
		return p.parseList()
	case TokEOF:
		return Literal{}, newParseError(tok.Pos, ErrUnexpectedEOF, "expected literal, got end of query")
	default:
		return Literal{}, newParseError(tok.Pos, ErrUnexpectedToken, "expected literal, got %s", tok.Kind)
	}
}

func (p *parser) parseList() (Literal, error) {
	open := p.cur.Pos
	if err := p.advance(); err != nil {
		return Literal{}, err
	}
	list := Literal{Kind: LitList, Elems: []Literal{}}
	if p.cur.Kind == TokRBracket {
		return list, p.advance()
	}
	for {
		elem, err := p.parseLiteral()
		if err != nil {
			return Literal{}, err
		}
		list.Elems = append(list.Elems, elem)

		switch p.cur.Kind {
		case TokComma:
			if err := p.advance(); err != nil {
				return Literal{}, err
			}
		case TokRBracket:
			return list, p.advance()
		case TokEOF:
			return Literal{}, newParseError(open, ErrUnexpectedEOF, "unterminated list starting at position %d", open)
		default:
			return Literal{}, newParseError(p.cur.Pos, ErrUnexpectedToken, "expected , or ] in list, got %s", p.cur.Kind)
		}
	}
}

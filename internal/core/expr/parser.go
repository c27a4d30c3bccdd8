package expr

type parser struct {
	input  string
	tokens []token
	idx    int
}

func parse(input string) (node, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{input: input, tokens: tokens}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, p.errorf(tok, "unexpected token after expression")
	}
	return n, nil
}

func (p *parser) peek() token {
	return p.tokens[p.idx]
}

func (p *parser) next() token {
	tok := p.tokens[p.idx]
	if tok.kind != tokenEOF {
		p.idx++
	}
	return tok
}

func (p *parser) errorf(tok token, msg string) error {
	return &Error{Expr: p.input, Pos: tok.pos, Token: tok.String(), Msg: msg}
}

// Precedence: not > and > or.

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenOr {
		tok := p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = boolNode{at: tok.pos, op: opOr, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenAnd {
		tok := p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = boolNode{at: tok.pos, op: opAnd, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (node, error) {
	if p.peek().kind == tokenNot {
		tok := p.next()
		// "not in" belongs to a comparison, so only consume "not" here when
		// the operand that follows starts a new expression.
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return notNode{at: tok.pos, operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (node, error) {
	if p.peek().kind == tokenLParen {
		return p.parseGroup()
	}

	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	switch tok := p.peek(); tok.kind {
	case tokenEq, tokenNe:
		p.next()
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		op := opEq
		if tok.kind == tokenNe {
			op = opNe
		}
		return cmpNode{at: tok.pos, op: op, left: left, right: right}, nil
	case tokenIn:
		p.next()
		right, err := p.parseList()
		if err != nil {
			return nil, err
		}
		return cmpNode{at: tok.pos, op: opIn, left: left, right: right}, nil
	case tokenNot:
		p.next()
		inTok := p.peek()
		if inTok.kind != tokenIn {
			return nil, p.errorf(inTok, "expected 'in' after 'not'")
		}
		p.next()
		right, err := p.parseList()
		if err != nil {
			return nil, err
		}
		return cmpNode{at: tok.pos, op: opNotIn, left: left, right: right}, nil
	default:
		// A bare operand is only meaningful when it can carry a boolean
		// value on its own.
		switch n := left.(type) {
		case varNode:
			return n, nil
		case litNode:
			if _, ok := n.val.(bool); ok {
				return n, nil
			}
		}
		return nil, p.errorf(tok, "expected comparison operator (==, !=, in, not in)")
	}
}

// parseGroup handles a parenthesized sub-expression. Parentheses group
// boolean expressions only; tuple literals are accepted solely on the right
// side of a membership test.
func (p *parser) parseGroup() (node, error) {
	p.next() // consume "("
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	closing := p.peek()
	if closing.kind != tokenRParen {
		return nil, p.errorf(closing, "expected closing parenthesis")
	}
	p.next()
	return n, nil
}

func (p *parser) parseOperand() (node, error) {
	tok := p.next()
	switch tok.kind {
	case tokenString:
		return litNode{at: tok.pos, val: tok.text}, nil
	case tokenNumber:
		return litNode{at: tok.pos, val: tok.num}, nil
	case tokenTrue:
		return litNode{at: tok.pos, val: true}, nil
	case tokenFalse:
		return litNode{at: tok.pos, val: false}, nil
	case tokenIdent:
		return varNode{at: tok.pos, name: tok.text}, nil
	default:
		return nil, p.errorf(tok, "expected a literal or variable reference")
	}
}

// parseList parses a literal list ([a, b]) or tuple ((a, b)) of scalars.
func (p *parser) parseList() (node, error) {
	open := p.next()
	var closeKind tokenKind
	switch open.kind {
	case tokenLBracket:
		closeKind = tokenRBracket
	case tokenLParen:
		closeKind = tokenRParen
	default:
		return nil, p.errorf(open, "expected a literal list after 'in'")
	}

	list := listNode{at: open.pos}
	for {
		if p.peek().kind == closeKind {
			p.next()
			return list, nil
		}
		tok := p.next()
		switch tok.kind {
		case tokenString:
			list.elems = append(list.elems, litNode{at: tok.pos, val: tok.text})
		case tokenNumber:
			list.elems = append(list.elems, litNode{at: tok.pos, val: tok.num})
		case tokenTrue:
			list.elems = append(list.elems, litNode{at: tok.pos, val: true})
		case tokenFalse:
			list.elems = append(list.elems, litNode{at: tok.pos, val: false})
		default:
			return nil, p.errorf(tok, "list elements must be scalar literals")
		}
		switch sep := p.peek(); sep.kind {
		case tokenComma:
			p.next()
		case closeKind:
		default:
			return nil, p.errorf(sep, "expected ',' or closing bracket in list")
		}
	}
}

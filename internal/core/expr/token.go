package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenString
	tokenNumber
	tokenTrue
	tokenFalse
	tokenAnd
	tokenOr
	tokenNot
	tokenIn
	tokenEq
	tokenNe
	tokenLParen
	tokenRParen
	tokenLBracket
	tokenRBracket
	tokenComma
)

var keywords = map[string]tokenKind{
	"and":   tokenAnd,
	"or":    tokenOr,
	"not":   tokenNot,
	"in":    tokenIn,
	"true":  tokenTrue,
	"false": tokenFalse,
}

type token struct {
	kind tokenKind
	text string
	pos  int
	num  float64 // set for tokenNumber
}

func (t token) String() string {
	if t.kind == tokenEOF {
		return "end of expression"
	}
	return strconv.Quote(t.text)
}

// lex scans the full expression up front. Conditions are short, so there is
// no benefit to streaming tokens.
func lex(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokenLParen, text: "(", pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokenRParen, text: ")", pos: i})
			i++
		case c == '[':
			tokens = append(tokens, token{kind: tokenLBracket, text: "[", pos: i})
			i++
		case c == ']':
			tokens = append(tokens, token{kind: tokenRBracket, text: "]", pos: i})
			i++
		case c == ',':
			tokens = append(tokens, token{kind: tokenComma, text: ",", pos: i})
			i++
		case c == '=':
			if i+1 < len(input) && input[i+1] == '=' {
				tokens = append(tokens, token{kind: tokenEq, text: "==", pos: i})
				i += 2
				break
			}
			return nil, &Error{Expr: input, Pos: i, Token: "=", Msg: "assignment is not allowed, use =="}
		case c == '!':
			if i+1 < len(input) && input[i+1] == '=' {
				tokens = append(tokens, token{kind: tokenNe, text: "!=", pos: i})
				i += 2
				break
			}
			return nil, &Error{Expr: input, Pos: i, Token: "!", Msg: "unexpected character, use != or not"}
		case c == '"' || c == '\'':
			tok, next, err := lexString(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		case c >= '0' && c <= '9' || c == '-':
			tok, next, err := lexNumber(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		case isIdentStart(rune(c)):
			start := i
			for i < len(input) && isIdentPart(rune(input[i])) {
				i++
			}
			word := input[start:i]
			if kind, ok := keywords[word]; ok {
				tokens = append(tokens, token{kind: kind, text: word, pos: start})
				break
			}
			tokens = append(tokens, token{kind: tokenIdent, text: word, pos: start})
		default:
			return nil, &Error{Expr: input, Pos: i, Token: string(c), Msg: "unexpected character"}
		}
	}
	tokens = append(tokens, token{kind: tokenEOF, pos: len(input)})
	return tokens, nil
}

func lexString(input string, start int) (token, int, error) {
	quote := input[start]
	var sb strings.Builder
	i := start + 1
	for i < len(input) {
		c := input[i]
		switch c {
		case '\\':
			if i+1 >= len(input) {
				return token{}, 0, &Error{Expr: input, Pos: i, Token: `\`, Msg: "unterminated escape sequence"}
			}
			sb.WriteByte(input[i+1])
			i += 2
		case quote:
			return token{kind: tokenString, text: sb.String(), pos: start}, i + 1, nil
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return token{}, 0, &Error{Expr: input, Pos: start, Token: string(quote), Msg: "unterminated string literal"}
}

func lexNumber(input string, start int) (token, int, error) {
	i := start
	if input[i] == '-' {
		i++
	}
	digits := 0
	for i < len(input) && (input[i] >= '0' && input[i] <= '9') {
		i++
		digits++
	}
	if i < len(input) && input[i] == '.' {
		i++
		for i < len(input) && (input[i] >= '0' && input[i] <= '9') {
			i++
			digits++
		}
	}
	text := input[start:i]
	if digits == 0 {
		return token{}, 0, &Error{Expr: input, Pos: start, Token: text, Msg: "invalid number literal"}
	}
	num, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, 0, &Error{Expr: input, Pos: start, Token: text, Msg: fmt.Sprintf("invalid number literal: %v", err)}
	}
	return token{kind: tokenNumber, text: text, pos: start, num: num}, i, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

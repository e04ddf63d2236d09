// Package lexer turns SysY source text into a stream of token.Token
// values, using a read-rune/peek-rune lexer shape (lexer.New, NextToken,
// readRune/peekRune, readIdentifier/readNumber) generalized to SysY's
// richer literal grammar (hex/octal integers, decimal and hex float
// forms) and to line/column position tracking, which every diagnostic
// here needs.
package lexer

import (
	"strings"

	"github.com/NKU-RuntimeError/SysY-compiler/token"
)

type Lexer struct {
	input        []rune
	position     int
	readPosition int
	curr         rune

	row, col int
}

func New(input string) *Lexer {
	l := &Lexer{input: []rune(input), row: 1, col: 0}
	l.readRune()
	return l
}

// NextToken scans and returns the next token, skipping whitespace and
// comments. It returns a token.EOF token once the input is exhausted.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	startPos := token.Position{Row: l.row, Col: l.col}

	var tok token.Token
	switch l.curr {
	case '=':
		tok = l.twoRune('=', token.EQL, token.ASSIGN)
	case '+':
		tok = l.oneRune(token.ADD)
	case '-':
		tok = l.oneRune(token.SUB)
	case '*':
		tok = l.oneRune(token.MUL)
	case '/':
		tok = l.oneRune(token.QUO)
	case '%':
		tok = l.oneRune(token.REM)
	case '!':
		tok = l.twoRune('=', token.NEQ, token.NOT)
	case '&':
		if l.peekRune() == '&' {
			l.readRune()
			tok = token.Token{Type: token.AND, Literal: "&&", Pos: startPos}
		} else {
			tok = token.Token{Type: token.ILLEGAL, Literal: string(l.curr), Pos: startPos}
		}
	case '|':
		if l.peekRune() == '|' {
			l.readRune()
			tok = token.Token{Type: token.OR, Literal: "||", Pos: startPos}
		} else {
			tok = token.Token{Type: token.ILLEGAL, Literal: string(l.curr), Pos: startPos}
		}
	case '<':
		tok = l.twoRune('=', token.LEQ, token.LSS)
	case '>':
		tok = l.twoRune('=', token.GEQ, token.GTR)
	case '(':
		tok = l.oneRune(token.LPAREN)
	case ')':
		tok = l.oneRune(token.RPAREN)
	case '{':
		tok = l.oneRune(token.LBRACE)
	case '}':
		tok = l.oneRune(token.RBRACE)
	case '[':
		tok = l.oneRune(token.LBRACK)
	case ']':
		tok = l.oneRune(token.RBRACK)
	case ',':
		tok = l.oneRune(token.COMMA)
	case ';':
		tok = l.oneRune(token.SEMI)
	case 0:
		return token.Token{Type: token.EOF, Pos: startPos}
	default:
		if isLetter(l.curr) {
			lit := l.readIdentifier()
			return token.Token{Type: token.LookupIdent(lit), Literal: lit, Pos: startPos}
		}
		if isDigit(l.curr) {
			typ, lit := l.readNumber()
			return token.Token{Type: typ, Literal: lit, Pos: startPos}
		}
		tok = token.Token{Type: token.ILLEGAL, Literal: string(l.curr), Pos: startPos}
	}

	l.readRune()
	return tok
}

func (l *Lexer) oneRune(typ token.Type) token.Token {
	return token.Token{Type: typ, Literal: string(l.curr), Pos: token.Position{Row: l.row, Col: l.col}}
}

// twoRune handles the common "single char, or same char immediately
// followed by '=' to form a different token" pattern shared by
// ==, !=, <=, >=.
func (l *Lexer) twoRune(second rune, withSecond, without token.Type) token.Token {
	pos := token.Position{Row: l.row, Col: l.col}
	first := l.curr
	if l.peekRune() == second {
		l.readRune()
		return token.Token{Type: withSecond, Literal: string(first) + string(second), Pos: pos}
	}
	return token.Token{Type: without, Literal: string(first), Pos: pos}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.curr == ' ' || l.curr == '\t' || l.curr == '\n' || l.curr == '\r' {
			l.readRune()
		}
		if l.curr == '/' && l.peekRune() == '/' {
			for l.curr != '\n' && l.curr != 0 {
				l.readRune()
			}
			continue
		}
		if l.curr == '/' && l.peekRune() == '*' {
			l.readRune()
			l.readRune()
			for !(l.curr == '*' && l.peekRune() == '/') && l.curr != 0 {
				l.readRune()
			}
			l.readRune()
			l.readRune()
			continue
		}
		break
	}
}

func (l *Lexer) readRune() {
	if l.curr == '\n' {
		l.row++
		l.col = 0
	}
	if l.readPosition >= len(l.input) {
		l.curr = 0
	} else {
		l.curr = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.col++
}

func (l *Lexer) peekRune() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.curr) || isDigit(l.curr) {
		l.readRune()
	}
	return string(l.input[position:l.position])
}

// readNumber scans a decimal, hex (0x...), or octal (0...) integer
// literal, or a decimal/hex floating-point literal with an optional
// exponent, per the IEEE-754 textual forms SysY allows. It returns
// token.INT_CONST or token.FLOAT_CONST according to which it found.
func (l *Lexer) readNumber() (token.Type, string) {
	position := l.position

	if l.curr == '0' && (l.peekRune() == 'x' || l.peekRune() == 'X') {
		l.readRune()
		l.readRune()
		for isHexDigit(l.curr) {
			l.readRune()
		}
		if l.curr == '.' {
			l.readRune()
			for isHexDigit(l.curr) {
				l.readRune()
			}
		}
		if l.curr == 'p' || l.curr == 'P' {
			l.readRune()
			if l.curr == '+' || l.curr == '-' {
				l.readRune()
			}
			for isDigit(l.curr) {
				l.readRune()
			}
			return token.FLOAT_CONST, string(l.input[position:l.position])
		}
		lit := string(l.input[position:l.position])
		if strings.ContainsAny(lit, ".") {
			return token.FLOAT_CONST, lit
		}
		return token.INT_CONST, lit
	}

	isFloat := false
	for isDigit(l.curr) {
		l.readRune()
	}
	if l.curr == '.' {
		isFloat = true
		l.readRune()
		for isDigit(l.curr) {
			l.readRune()
		}
	}
	if l.curr == 'e' || l.curr == 'E' {
		isFloat = true
		l.readRune()
		if l.curr == '+' || l.curr == '-' {
			l.readRune()
		}
		for isDigit(l.curr) {
			l.readRune()
		}
	}

	lit := string(l.input[position:l.position])
	if isFloat {
		return token.FLOAT_CONST, lit
	}
	return token.INT_CONST, lit
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || 'a' <= ch && ch <= 'f' || 'A' <= ch && ch <= 'F'
}

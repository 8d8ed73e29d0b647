// Package ins parses the text instrument format: a file of patch
// blocks describing FM voices and operator parameters, loaded into
// synth.Patch values at startup.
package ins

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

type tokenType int

const (
	typeUnknown tokenType = iota
	typeInt
	typeIdentifier
	typeString
	typeOpenBrace
	typeCloseBrace
	typeSemicolon
	typeEOF
)

const eof = -1

var simpleTokens = map[rune]tokenType{
	'{': typeOpenBrace,
	'}': typeCloseBrace,
	';': typeSemicolon,
}

type token struct {
	typ  tokenType
	line int
	text string
}

func lex(input string) ([]token, error) {
	l := &lexer{input: input, line: 1}
	return l.lex()
}

type lexer struct {
	input string

	width int
	start int
	pos   int
	line  int

	tokens []token
	err    error
}

func (l *lexer) lex() ([]token, error) {
	for {
		switch r := l.next(); {
		case r == eof:
			l.yieldToken(typeEOF)
			return l.tokens, l.err
		case unicode.IsLetter(r):
			l.lexIdentifier()
		case isDigit(r) || r == '-':
			l.lexNumber()
		case r == '"':
			l.lexString()
		case r == '#':
			l.skipComment()
		case r == '\n':
			l.line++
			l.ignore()
		case r == ' ' || r == '\t' || r == '\r':
			l.ignore()
		default:
			if typ, ok := simpleTokens[r]; ok {
				l.yieldToken(typ)
			} else {
				l.invalidChar(r)
			}
		}
		if l.err != nil {
			return l.tokens, l.err
		}
	}
}

func (l *lexer) next() rune {
	if len(l.input) == l.pos {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += l.width
	return r
}

func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *lexer) backup() {
	l.pos -= l.width
}

func (l *lexer) ignore() {
	l.start = l.pos
}

func (l *lexer) yieldToken(t tokenType) {
	s := l.input[l.start:l.pos]
	l.tokens = append(l.tokens, token{t, l.line, s})
	l.start = l.pos
	l.width = 0
}

func (l *lexer) errorf(format string, args ...interface{}) {
	l.err = fmt.Errorf("line %d: "+format, append([]interface{}{l.line}, args...)...)
}

func (l *lexer) invalidChar(r rune) {
	l.errorf("unexpected character: %#U", r)
}

func (l *lexer) skipComment() {
	for {
		switch l.next() {
		case '\n':
			l.backup()
			l.ignore()
			return
		case eof:
			l.backup()
			l.ignore()
			return
		}
	}
}

func (l *lexer) lexIdentifier() {
	for {
		switch r := l.next(); {
		case unicode.IsLetter(r) || isDigit(r) || r == '_':
		default:
			l.backup()
			l.yieldToken(typeIdentifier)
			return
		}
	}
}

func (l *lexer) lexNumber() {
	for isDigit(l.peek()) {
		l.next()
	}
	if l.input[l.start:l.pos] == "-" {
		l.invalidChar('-')
		return
	}
	l.yieldToken(typeInt)
}

func (l *lexer) lexString() {
	for {
		switch l.next() {
		case '"':
			l.yieldToken(typeString)
			return
		case '\n', eof:
			l.errorf("unterminated string")
			return
		}
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

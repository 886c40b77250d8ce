package pdf

import "strconv"

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokOperator
	tokName
	tokString
	tokArray
	tokDict
)

type token struct {
	kind tokenKind
	num  float64
	text string
}

// lexer tokenizes a decoded PDF content stream. It understands just enough
// of the syntax (numbers, names, literal and hex strings, arrays, dicts,
// comments) to deliver operators with their numeric operands intact.
type lexer struct {
	data []byte
	pos  int
}

func newLexer(data []byte) *lexer { return &lexer{data: data} }

func isWhitespace(b byte) bool {
	switch b {
	case 0, 9, 10, 12, 13, 32:
		return true
	}
	return false
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (l *lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		switch {
		case isWhitespace(b):
			l.pos++
		case b == '%':
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) next() (token, bool) {
	l.skipWhitespaceAndComments()
	if l.pos >= len(l.data) {
		return token{}, false
	}

	b := l.data[l.pos]
	switch {
	case b == '/':
		return l.readName(), true
	case b == '(':
		return l.readLiteralString(), true
	case b == '<':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
			l.skipDict()
			return token{kind: tokDict}, true
		}
		return l.readHexString(), true
	case b == '[':
		l.skipArray()
		return token{kind: tokArray}, true
	case b == ']' || b == '>' || b == '{' || b == '}':
		l.pos++
		return l.next()
	case b == '+' || b == '-' || b == '.' || (b >= '0' && b <= '9'):
		return l.readNumber(), true
	default:
		return l.readOperator(), true
	}
}

func (l *lexer) readName() token {
	start := l.pos
	l.pos++ // consume '/'
	for l.pos < len(l.data) && !isWhitespace(l.data[l.pos]) && !isDelimiter(l.data[l.pos]) {
		l.pos++
	}
	return token{kind: tokName, text: string(l.data[start:l.pos])}
}

func (l *lexer) readNumber() token {
	start := l.pos
	l.pos++
	for l.pos < len(l.data) && !isWhitespace(l.data[l.pos]) && !isDelimiter(l.data[l.pos]) {
		l.pos++
	}
	text := string(l.data[start:l.pos])
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		// Malformed numeric-looking token; treat as an operator so that
		// the interpreter can ignore it.
		return token{kind: tokOperator, text: text}
	}
	return token{kind: tokNumber, num: v}
}

func (l *lexer) readOperator() token {
	start := l.pos
	for l.pos < len(l.data) && !isWhitespace(l.data[l.pos]) && !isDelimiter(l.data[l.pos]) {
		l.pos++
	}
	if l.pos == start { // lone delimiter, skip it
		l.pos++
	}
	return token{kind: tokOperator, text: string(l.data[start:l.pos])}
}

func (l *lexer) readLiteralString() token {
	l.pos++ // consume '('
	depth := 1
	for l.pos < len(l.data) && depth > 0 {
		switch l.data[l.pos] {
		case '\\':
			l.pos++ // skip escaped char
		case '(':
			depth++
		case ')':
			depth--
		}
		l.pos++
	}
	return token{kind: tokString}
}

func (l *lexer) readHexString() token {
	l.pos++ // consume '<'
	for l.pos < len(l.data) && l.data[l.pos] != '>' {
		l.pos++
	}
	if l.pos < len(l.data) {
		l.pos++
	}
	return token{kind: tokString}
}

func (l *lexer) skipArray() {
	depth := 0
	for l.pos < len(l.data) {
		switch l.data[l.pos] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				l.pos++
				return
			}
		case '(':
			l.readLiteralString()
			continue
		}
		l.pos++
	}
}

func (l *lexer) skipDict() {
	depth := 0
	for l.pos+1 < len(l.data) {
		if l.data[l.pos] == '<' && l.data[l.pos+1] == '<' {
			depth++
			l.pos += 2
			continue
		}
		if l.data[l.pos] == '>' && l.data[l.pos+1] == '>' {
			depth--
			l.pos += 2
			if depth == 0 {
				return
			}
			continue
		}
		if l.data[l.pos] == '(' {
			l.readLiteralString()
			continue
		}
		l.pos++
	}
	l.pos = len(l.data)
}

// skipUntilOperator consumes tokens until the named operator appears,
// used to bypass text objects (BT..ET).
func (l *lexer) skipUntilOperator(op string) {
	for {
		tok, ok := l.next()
		if !ok {
			return
		}
		if tok.kind == tokOperator && tok.text == op {
			return
		}
	}
}

// skipInlineImage advances past an inline image (BI .. ID <binary> EI).
// The binary payload cannot be tokenized, so it scans raw bytes for a
// whitespace-delimited EI marker.
func (l *lexer) skipInlineImage() {
	// First consume the image dictionary up to the ID operator.
	for {
		tok, ok := l.next()
		if !ok {
			return
		}
		if tok.kind == tokOperator && tok.text == "ID" {
			break
		}
	}
	// Scan for EI preceded by whitespace and followed by a boundary.
	for l.pos+1 < len(l.data) {
		if l.data[l.pos] == 'E' && l.data[l.pos+1] == 'I' &&
			(l.pos == 0 || isWhitespace(l.data[l.pos-1])) &&
			(l.pos+2 >= len(l.data) || isWhitespace(l.data[l.pos+2]) || isDelimiter(l.data[l.pos+2])) {
			l.pos += 2
			return
		}
		l.pos++
	}
	l.pos = len(l.data)
}

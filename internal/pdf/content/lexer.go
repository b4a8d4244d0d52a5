package content

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrUnterminated is returned when a string, array or dictionary runs past the end of the stream.
var ErrUnterminated = errors.New("unterminated object")

// Lexer reads content-stream objects from a byte slice.
type Lexer struct {
	data []byte
	pos  int
}

// NewLexer creates a lexer over data.
func NewLexer(data []byte) *Lexer {
	return &Lexer{data: data}
}

func isWhitespace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isRegular(c byte) bool {
	return !isWhitespace(c) && !isDelimiter(c)
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if isWhitespace(c) {
			l.pos++
			continue
		}
		if c == '%' {
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
			continue
		}
		return
	}
}

// Next returns the next object, or io.EOF when the stream is exhausted.
func (l *Lexer) Next() (Object, error) {
	l.skipWhitespace()
	if l.pos >= len(l.data) {
		return nil, io.EOF
	}

	c := l.data[l.pos]
	switch {
	case c == '/':
		l.pos++
		return l.readName(), nil
	case c == '(':
		l.pos++
		return l.readLiteralString()
	case c == '<':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
			l.pos += 2
			return l.readDict()
		}
		l.pos++
		return l.readHexString()
	case c == '[':
		l.pos++
		return l.readArray()
	case c == ']', c == '>', c == ')', c == '{', c == '}':
		// stray closers and calculator braces carry no geometry
		l.pos++
		return l.Next()
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return l.readNumber(), nil
	default:
		return l.readKeyword(), nil
	}
}

func (l *Lexer) readNumber() Object {
	start := l.pos
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9') {
			l.pos++
			continue
		}
		break
	}
	v, err := strconv.ParseFloat(string(l.data[start:l.pos]), 64)
	if err != nil {
		// malformed numbers such as "--1" read as zero, like most viewers
		return Number(0)
	}
	return Number(v)
}

func (l *Lexer) readKeyword() Object {
	start := l.pos
	for l.pos < len(l.data) && isRegular(l.data[l.pos]) {
		l.pos++
	}
	switch word := string(l.data[start:l.pos]); word {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	case "null":
		return Null{}
	default:
		return Keyword(word)
	}
}

func (l *Lexer) readName() Object {
	var buf []byte
	for l.pos < len(l.data) && isRegular(l.data[l.pos]) {
		c := l.data[l.pos]
		if c == '#' && l.pos+2 < len(l.data) {
			if v, err := strconv.ParseUint(string(l.data[l.pos+1:l.pos+3]), 16, 8); err == nil {
				buf = append(buf, byte(v))
				l.pos += 3
				continue
			}
		}
		buf = append(buf, c)
		l.pos++
	}
	return Name(buf)
}

func (l *Lexer) readLiteralString() (Object, error) {
	var buf []byte
	depth := 1
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		switch c {
		case '(':
			depth++
			buf = append(buf, c)
		case ')':
			depth--
			if depth == 0 {
				return String(buf), nil
			}
			buf = append(buf, c)
		case '\\':
			if l.pos >= len(l.data) {
				return nil, fmt.Errorf("literal string: %w", ErrUnterminated)
			}
			e := l.data[l.pos]
			l.pos++
			switch e {
			case 'n':
				buf = append(buf, '\n')
			case 'r':
				buf = append(buf, '\r')
			case 't':
				buf = append(buf, '\t')
			case 'b':
				buf = append(buf, '\b')
			case 'f':
				buf = append(buf, '\f')
			case '\r':
				if l.pos < len(l.data) && l.data[l.pos] == '\n' {
					l.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && l.pos < len(l.data); i++ {
						d := l.data[l.pos]
						if d < '0' || d > '7' {
							break
						}
						v = v*8 + int(d-'0')
						l.pos++
					}
					buf = append(buf, byte(v))
				} else {
					buf = append(buf, e)
				}
			}
		default:
			buf = append(buf, c)
		}
	}
	return nil, fmt.Errorf("literal string: %w", ErrUnterminated)
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func (l *Lexer) readHexString() (Object, error) {
	var buf []byte
	var hi byte
	odd := false
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		if c == '>' {
			if odd {
				buf = append(buf, hi<<4)
			}
			return String(buf), nil
		}
		v, ok := unhex(c)
		if !ok {
			continue
		}
		if odd {
			buf = append(buf, hi<<4|v)
		} else {
			hi = v
		}
		odd = !odd
	}
	return nil, fmt.Errorf("hex string: %w", ErrUnterminated)
}

func (l *Lexer) readArray() (Object, error) {
	arr := Array{}
	for {
		l.skipWhitespace()
		if l.pos >= len(l.data) {
			return nil, fmt.Errorf("array: %w", ErrUnterminated)
		}
		if l.data[l.pos] == ']' {
			l.pos++
			return arr, nil
		}
		obj, err := l.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("array: %w", ErrUnterminated)
			}
			return nil, err
		}
		arr = append(arr, obj)
	}
}

func (l *Lexer) readDict() (Object, error) {
	dict := Dict{}
	for {
		l.skipWhitespace()
		if l.pos >= len(l.data) {
			return nil, fmt.Errorf("dictionary: %w", ErrUnterminated)
		}
		if l.data[l.pos] == '>' {
			l.pos++
			if l.pos < len(l.data) && l.data[l.pos] == '>' {
				l.pos++
			}
			return dict, nil
		}
		key, err := l.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("dictionary: %w", ErrUnterminated)
			}
			return nil, err
		}
		val, err := l.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("dictionary: %w", ErrUnterminated)
			}
			return nil, err
		}
		if name, ok := key.(Name); ok {
			dict[string(name)] = val
		}
	}
}

// readInlineImageData consumes the binary data following an ID operator up to
// and including the closing EI, and returns the data.
func (l *Lexer) readInlineImageData() ([]byte, error) {
	if l.pos < len(l.data) && isWhitespace(l.data[l.pos]) {
		l.pos++
	}
	start := l.pos
	for i := start; i+1 < len(l.data); i++ {
		if l.data[i] != 'E' || l.data[i+1] != 'I' {
			continue
		}
		if i > start && !isWhitespace(l.data[i-1]) {
			continue
		}
		if i+2 < len(l.data) && !isWhitespace(l.data[i+2]) && !isDelimiter(l.data[i+2]) {
			continue
		}
		l.pos = i + 2
		return l.data[start:i], nil
	}
	return nil, fmt.Errorf("inline image: %w", ErrUnterminated)
}

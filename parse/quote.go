package parse

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"
)

var unescapes = map[rune]rune{
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
	'`':  '`',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'b':  '\b',
	'f':  '\f',
	'v':  '\v',
	'0':  0,
}

// unquoteString takes a quoted string literal (including the surrounding
// quotes, which may be ', " or `) and returns the unquoted string, along with
// any error encountered.  Unrecognized escapes stand for the escaped
// character itself.
func unquoteString(s string) (string, error) {
	n := len(s)
	if n < 2 {
		return "", errors.New("too short a string")
	}

	var quote = s[0]
	if !strings.ContainsRune("'\"`", rune(quote)) || quote != s[n-1] {
		return "", errors.New("string not surrounded by quotes")
	}

	s = s[1 : n-1]
	if strings.IndexByte(s, '\\') == -1 {
		return s, nil
	}

	var result = make([]rune, 0, len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if r != '\\' {
			result = append(result, r)
			continue
		}
		if i == len(s) {
			return "", errors.New("unterminated escape sequence")
		}

		r, size = utf8.DecodeRuneInString(s[i:])
		i += size
		switch r {
		case 'x':
			if i+2 > len(s) {
				return "", errors.New("error scanning hex escape, expect \\xNN")
			}
			num, err := strconv.ParseUint(s[i:i+2], 16, 8)
			if err != nil {
				return "", err
			}
			r = rune(num)
			i += 2
		case 'u':
			var digits string
			if strings.HasPrefix(s[i:], "{") {
				var end = strings.IndexByte(s[i:], '}')
				if end == -1 {
					return "", errors.New("error scanning unicode escape, expect \\u{N...}")
				}
				digits, i = s[i+1:i+end], i+end+1
			} else {
				if i+4 > len(s) {
					return "", errors.New("error scanning unicode escape, expect \\uNNNN")
				}
				digits, i = s[i:i+4], i+4
			}
			num, err := strconv.ParseUint(digits, 16, 32)
			if err != nil {
				return "", err
			}
			r = rune(num)
		case '\n':
			continue // line continuation
		default:
			if replacement, ok := unescapes[r]; ok {
				r = replacement
			}
		}
		result = append(result, r)
	}
	return string(result), nil
}

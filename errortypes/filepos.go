package errortypes

import (
	"errors"
	"strings"
)

// ErrFilePos extends the error interface to add details on the file position where the error occurred.
type ErrFilePos interface {
	error
	File() string
	Line() int
	Col() int
}

// ToErrFilePos returns the first error in err's chain that is an ErrFilePos,
// or nil if there is none.
func ToErrFilePos(err error) ErrFilePos {
	if err == nil {
		return nil
	}
	var out ErrFilePos
	if errors.As(err, &out) {
		return out
	}
	return nil
}

// LineCol converts a byte offset into 1-based line and column numbers.
func LineCol(input string, offset int) (line, col int) {
	if offset > len(input) {
		offset = len(input)
	}
	if offset < 0 {
		offset = 0
	}
	line = 1 + strings.Count(input[:offset], "\n")
	col = offset - strings.LastIndex(input[:offset], "\n")
	return line, col
}

// Caret renders the line of input containing offset, followed by a line with a
// caret under the offending column.
func Caret(input string, offset int) string {
	if offset > len(input) {
		offset = len(input)
	}
	if offset < 0 {
		offset = 0
	}
	var start = strings.LastIndex(input[:offset], "\n") + 1
	var end = strings.IndexByte(input[offset:], '\n')
	if end == -1 {
		end = len(input)
	} else {
		end += offset
	}
	var pad strings.Builder
	for _, ch := range input[start:offset] {
		if ch == '\t' {
			pad.WriteByte('\t')
		} else {
			pad.WriteByte(' ')
		}
	}
	return input[start:end] + "\n" + pad.String() + "^"
}

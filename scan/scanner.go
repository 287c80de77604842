// Package scan provides a cursor-based matcher over an immutable string.  It
// is the primitive the template tokenizer is built on.
package scan

import "regexp"

// Scanner matches regular expressions against its input at a moving cursor.
// It records the most recent match so callers can turn it into a token.
type Scanner struct {
	input   string
	pos     int
	matched string
	start   int
	end     int
}

// New returns a Scanner positioned at the start of input.
func New(input string) *Scanner {
	return &Scanner{input: input}
}

// Scan attempts to match re at the cursor.  On success the cursor advances
// past the match, which becomes the latest match.  On failure nothing changes.
//
// Patterns should be anchored with ^ so that a failed attempt does not search
// the rest of the input; an unanchored pattern only succeeds if its leftmost
// match begins at the cursor.
func (s *Scanner) Scan(re *regexp.Regexp) bool {
	var loc = re.FindStringIndex(s.input[s.pos:])
	if loc == nil || loc[0] != 0 {
		return false
	}
	s.record(s.pos, s.pos+loc[1])
	return true
}

// ScanUntil advances the cursor up to, but not including, the nearest
// occurrence of re at or after the cursor.  If re does not occur, the rest of
// the input is consumed.  The consumed run becomes the latest match.  It
// returns whether the cursor moved.
func (s *Scanner) ScanUntil(re *regexp.Regexp) bool {
	return s.ScanUntilFrom(re, 0)
}

// ScanUntilFrom is ScanUntil, but ignores occurrences of re that begin within
// skip bytes of the cursor.  It lets callers step over a character that would
// otherwise stop the scan immediately.
func (s *Scanner) ScanUntilFrom(re *regexp.Regexp, skip int) bool {
	var from = s.pos + skip
	if from > len(s.input) {
		from = len(s.input)
	}
	var end = len(s.input)
	if loc := re.FindStringIndex(s.input[from:]); loc != nil {
		end = from + loc[0]
	}
	if end == s.pos {
		return false
	}
	s.record(s.pos, end)
	return true
}

// Check reports whether re matches at the cursor without consuming anything.
func (s *Scanner) Check(re *regexp.Regexp) bool {
	var loc = re.FindStringIndex(s.input[s.pos:])
	return loc != nil && loc[0] == 0
}

func (s *Scanner) record(start, end int) {
	s.matched = s.input[start:end]
	s.start = start
	s.end = end
	s.pos = end
}

// EOF reports whether the cursor has reached the end of the input.
func (s *Scanner) EOF() bool {
	return s.pos >= len(s.input)
}

// Pos returns the cursor offset.
func (s *Scanner) Pos() int { return s.pos }

// Input returns the full input string.
func (s *Scanner) Input() string { return s.input }

// Rest returns the unconsumed input.
func (s *Scanner) Rest() string { return s.input[s.pos:] }

// Matched returns the text of the latest match.
func (s *Scanner) Matched() string { return s.matched }

// Start returns the offset where the latest match began.
func (s *Scanner) Start() int { return s.start }

// End returns the offset just past the latest match.
func (s *Scanner) End() int { return s.end }

package parse

import "regexp"

var (
	// loopHeader splits "<binding> of <iterable>".
	loopHeader = regexp.MustCompile(`^(?s)\s*(.+?)\s+of\s+(.+?)\s*$`)

	// loopBinding splits "<item>" or "(<item>, <index>)".
	loopBinding = regexp.MustCompile(`^(?:([A-Za-z_$][\w$]*)|\(\s*([A-Za-z_$][\w$]*)\s*,\s*([A-Za-z_$][\w$]*)\s*\))$`)
)

// forHeader is a parsed @for expression.
type forHeader struct {
	item, index    string
	iterable       string
	iterableOffset int // offset of iterable within the header
}

// parseForHeader splits a loop header such as "(battery, i) of batteries".
func parseForHeader(expr string) (forHeader, bool) {
	var m = loopHeader.FindStringSubmatchIndex(expr)
	if m == nil {
		return forHeader{}, false
	}
	var binding = loopBinding.FindStringSubmatch(expr[m[2]:m[3]])
	if binding == nil {
		return forHeader{}, false
	}
	var h = forHeader{
		item:           binding[1],
		iterable:       expr[m[4]:m[5]],
		iterableOffset: m[4],
	}
	if h.item == "" {
		h.item, h.index = binding[2], binding[3]
		if h.item == h.index {
			return forHeader{}, false
		}
	}
	if _, reserved := keywords[h.item]; reserved {
		return forHeader{}, false
	}
	if _, reserved := keywords[h.index]; reserved {
		return forHeader{}, false
	}
	return h, true
}

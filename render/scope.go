package render

import "github.com/glzr-io/zebar-sub000/data"

// scope is a stack of variable scopes.  The first element holds the variables
// passed to the render; loop iterations push onto it.
type scope []data.Map

func newScope(vars data.Map) scope {
	if vars == nil {
		vars = make(data.Map)
	}
	return scope{vars}
}

// push creates a new scope
func (s *scope) push() {
	*s = append(*s, make(data.Map, 2))
}

// pop discards the last scope pushed.
func (s *scope) pop() {
	*s = (*s)[:len(*s)-1]
}

// set adds a new binding to the deepest scope
func (s scope) set(k string, v data.Value) {
	s[len(s)-1][k] = v
}

// lookup checks the variable scopes, deepest out, for the given key
func (s scope) lookup(k string) (data.Value, bool) {
	for i := range s {
		var elem = s[len(s)-i-1]
		if val, ok := elem[k]; ok {
			return val, true
		}
	}
	return nil, false
}

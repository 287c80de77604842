// Package render evaluates a compiled template against a set of variables.
//
// Rendering walks the template tree in document order.  Text is written
// verbatim, interpolations are evaluated and written as strings, and the
// control flow tags select or repeat their bodies.  Identifiers resolve
// against the loop variables in scope, then the variables passed to the
// render, then the renderer's globals, and finally the built-in functions.
package render

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/language"

	"github.com/glzr-io/zebar-sub000/ast"
	"github.com/glzr-io/zebar-sub000/data"
)

// DefaultLocale is used for locale-sensitive formatting when none is set.
var DefaultLocale = language.AmericanEnglish

// Renderer provides parameters to template execution.
// At minimum, a parsed template is required.
type Renderer struct {
	tree          *ast.ListNode
	globals       data.Map
	maxIterations int
	locale        language.Tag
}

// New returns a renderer for the given parsed template.
func New(tree *ast.ListNode) *Renderer {
	return &Renderer{tree: tree, locale: DefaultLocale}
}

// WithGlobals makes the given values available to every render.  Variables
// passed to Execute take precedence over globals of the same name.
func (r *Renderer) WithGlobals(globals data.Map) *Renderer {
	r.globals = globals
	return r
}

// WithMaxIterations bounds the total number of loop iterations a single render
// may perform.  Zero means no limit.
func (r *Renderer) WithMaxIterations(n int) *Renderer {
	r.maxIterations = n
	return r
}

// WithLocale sets the locale used by toLocaleString.
func (r *Renderer) WithLocale(tag language.Tag) *Renderer {
	r.locale = tag
	return r
}

// Execute applies the template to the given variables and writes the
// untrimmed output to wr.
func (r Renderer) Execute(wr io.Writer, vars data.Map) (err error) {
	if r.tree == nil {
		return errors.New("template required")
	}
	var s = r.newState(wr, vars)
	defer s.errRecover(&err)
	s.walk(r.tree)
	return nil
}

// Render applies the template to the given variables and returns the output
// with leading and trailing whitespace removed.
func (r Renderer) Render(vars data.Map) (string, error) {
	var buf bytes.Buffer
	if err := r.Execute(&buf, vars); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func (r Renderer) newState(wr io.Writer, vars data.Map) *state {
	return &state{
		wr:            wr,
		context:       newScope(vars),
		globals:       r.globals,
		locale:        r.locale,
		maxIterations: r.maxIterations,
	}
}

// EvalExpr evaluates the given expression node against the given variables
// and returns the resulting value.
func EvalExpr(node ast.Node, vars data.Map) (val data.Value, err error) {
	var s = New(nil).newState(io.Discard, vars)
	s.expr = node.String()
	defer s.errRecover(&err)
	return s.eval(node), nil
}

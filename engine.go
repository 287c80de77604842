package zebar

import (
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/text/language"

	"github.com/glzr-io/zebar-sub000/ast"
	"github.com/glzr-io/zebar-sub000/data"
	"github.com/glzr-io/zebar-sub000/parse"
	"github.com/glzr-io/zebar-sub000/parsepasses"
	"github.com/glzr-io/zebar-sub000/render"
)

// Logger is used to report cache activity.  Replace it to redirect or
// silence the output.
var Logger = slog.Default()

// Engine compiles and renders templates.  Compiled templates are cached by
// their source text, so rendering the same string repeatedly only parses it
// once.  An Engine is safe for concurrent use.
type Engine struct {
	cache         cache
	globals       data.Map
	maxIterations int
	locale        language.Tag
	known         map[string]bool // if set, the only variables templates may read
}

// Option configures an Engine.
type Option func(*Engine) error

// New returns an engine configured with the given options.  By default every
// compiled template is cached for the lifetime of the engine.
func New(opts ...Option) (*Engine, error) {
	var e = newEngine()
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func newEngine() *Engine {
	return &Engine{
		cache:   newMapCache(),
		globals: make(data.Map),
		locale:  render.DefaultLocale,
	}
}

// WithCacheSize bounds the cache to the n most recently used templates.
func WithCacheSize(n int) Option {
	return func(e *Engine) error {
		var c, err = newLRUCache(n)
		if err != nil {
			return fmt.Errorf("cache size %d: %w", n, err)
		}
		e.cache = c
		return nil
	}
}

// WithoutCache disables caching; every render parses its template.
func WithoutCache() Option {
	return func(e *Engine) error {
		e.cache = noCache{}
		return nil
	}
}

// WithGlobals makes the given values available to every template.  Render
// variables of the same name take precedence.
func WithGlobals(globals map[string]any) Option {
	return func(e *Engine) error {
		for k, v := range globals {
			if err := e.addGlobal(k, data.New(v)); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithFuncs makes the given Go functions callable from every template.
func WithFuncs(funcs map[string]any) Option {
	return func(e *Engine) error {
		for name, fn := range funcs {
			var f, ok = data.New(fn).(*data.Func)
			if !ok {
				return fmt.Errorf("func %q: %T is not a function", name, fn)
			}
			if _, wrapped := fn.(*data.Func); !wrapped {
				f.Name = name
			}
			if err := e.addGlobal(name, f); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithMaxIterations bounds the loop iterations of a single render.
func WithMaxIterations(n int) Option {
	return func(e *Engine) error {
		if n < 0 {
			return fmt.Errorf("max iterations must not be negative, got %d", n)
		}
		e.maxIterations = n
		return nil
	}
}

// WithLocale sets the locale used by toLocaleString.
func WithLocale(tag language.Tag) Option {
	return func(e *Engine) error {
		e.locale = tag
		return nil
	}
}

// WithKnownVariables makes Compile reject templates that read any variable
// other than the named ones, the globals and the built-ins.  Without it, an
// undefined variable is only reported when a render reaches it.
func WithKnownVariables(names ...string) Option {
	return func(e *Engine) error {
		if e.known == nil {
			e.known = make(map[string]bool)
		}
		for _, name := range names {
			e.known[name] = true
		}
		return nil
	}
}

// defined reports whether the name resolves without any render variables.
func (e *Engine) defined(name string) bool {
	if _, ok := e.globals[name]; ok {
		return true
	}
	return render.IsBuiltin(name)
}

func (e *Engine) addGlobal(name string, val data.Value) error {
	if existing, ok := e.globals[name]; ok {
		return fmt.Errorf("global %q already defined as %v", name, existing)
	}
	e.globals[name] = val
	return nil
}

// Template is a compiled template bound to the engine that compiled it.
type Template struct {
	tree   *ast.ListNode
	engine *Engine
}

// Tree returns the parsed template.
func (t *Template) Tree() *ast.ListNode {
	return t.tree
}

// Variables returns the names of the variables the template reads, other
// than loop variables, globals and built-ins, in order of first use.
func (t *Template) Variables() []string {
	var names []string
	for _, name := range parsepasses.Names(parsepasses.FreeRefs(t.tree)) {
		if !t.engine.defined(name) {
			names = append(names, name)
		}
	}
	return names
}

// Compile parses the given source, or returns it from the cache.
func (e *Engine) Compile(source string) (*Template, error) {
	if tree, ok := e.cache.get(source); ok {
		return &Template{tree, e}, nil
	}
	var tree, err = parse.Template("", source)
	if err != nil {
		return nil, err
	}
	if e.known != nil {
		err = parsepasses.CheckRefs(tree, func(name string) bool {
			return e.known[name] || e.defined(name)
		})
		if err != nil {
			return nil, err
		}
	}
	e.cache.add(source, tree)
	Logger.Debug("compiled template", "bytes", len(source), "cached", e.cache.len())
	return &Template{tree, e}, nil
}

// Render compiles the given source and renders it against the variables.
func (e *Engine) Render(source string, variables map[string]any) (string, error) {
	var tmpl, err = e.Compile(source)
	if err != nil {
		return "", err
	}
	return tmpl.Render(variables)
}

// Render returns the template output with surrounding whitespace trimmed.
func (t *Template) Render(variables map[string]any) (string, error) {
	return t.renderer().Render(convertVars(variables))
}

// Execute writes the untrimmed template output to wr.
func (t *Template) Execute(wr io.Writer, variables map[string]any) error {
	return t.renderer().Execute(wr, convertVars(variables))
}

func (t *Template) renderer() *render.Renderer {
	return render.New(t.tree).
		WithGlobals(t.engine.globals).
		WithMaxIterations(t.engine.maxIterations).
		WithLocale(t.engine.locale)
}

func convertVars(variables map[string]any) data.Map {
	var vars = make(data.Map, len(variables))
	for k, v := range variables {
		vars[k] = data.New(v)
	}
	return vars
}

var defaultEngine = newEngine()

// Render renders the given template source on a shared engine with the
// default configuration.
func Render(source string, variables map[string]any) (string, error) {
	return defaultEngine.Render(source, variables)
}

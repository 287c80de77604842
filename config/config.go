// Package config loads widget configurations: YAML documents describing bars,
// their groups and the components within them, where any string property may
// be a template.
//
// A configuration looks like:
//
//	globals:
//	  unit: '%'
//	bars:
//	  main:
//	    class_name: bar
//	    groups:
//	      left:
//	        components:
//	          - template: '{{ cpu.usage.toFixed(0) }}{{ unit }}'
//
// Every template is compiled when the configuration is loaded, so syntax
// errors are reported up front along with the path of the offending property.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	zebar "github.com/glzr-io/zebar-sub000"
	"github.com/glzr-io/zebar-sub000/ast"
	"github.com/glzr-io/zebar-sub000/errortypes"
)

// Logger is used to report reloads and their failures.
var Logger = slog.Default()

// Config is a parsed widget configuration.
type Config struct {
	Globals map[string]any  `yaml:"globals"`
	Bars    map[string]*Bar `yaml:"bars"`

	engine     *zebar.Engine
	properties []*Property
}

// Bar is a top-level window.
type Bar struct {
	Groups     map[string]*Group `yaml:"groups"`
	Properties map[string]any    `yaml:",inline"`
}

// Group is a section of a bar.
type Group struct {
	Components []*Component   `yaml:"components"`
	Properties map[string]any `yaml:",inline"`
}

// Component is a single widget.
type Component struct {
	Properties map[string]any `yaml:",inline"`
}

// Property is a string property of a bar, group or component.
type Property struct {
	Path     string // e.g. bars.main.groups.left.components[0].template
	Source   string
	Template *zebar.Template
}

// IsTemplate reports whether the property contains any tags.
func (p *Property) IsTemplate() bool {
	var nodes = p.Template.Tree().Nodes
	if len(nodes) == 1 {
		_, text := nodes[0].(*ast.TextNode)
		return !text
	}
	return len(nodes) > 0
}

// PropertyError records a failure to compile or render a property.
type PropertyError struct {
	Path   string
	Source string
	Err    error
}

func (e *PropertyError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e *PropertyError) Unwrap() error {
	return e.Err
}

// File returns the path of the property.
func (e *PropertyError) File() string { return e.Path }

// Line and Col locate the failure within the property's template, or return
// 0 if the failure has no position.
func (e *PropertyError) Line() int {
	var line, _ = e.position()
	return line
}

func (e *PropertyError) Col() int {
	var _, col = e.position()
	return col
}

func (e *PropertyError) position() (line, col int) {
	if offset, ok := errortypes.Offset(e.Err); ok {
		return errortypes.LineCol(e.Source, offset)
	}
	return 0, 0
}

var _ errortypes.ErrFilePos = &PropertyError{}

// Output is the rendered value of a property.
type Output struct {
	Path  string
	Value string
}

// Load reads and compiles the configuration at the given path.  The options
// configure the engine used to compile and render it; the configuration's
// globals are added to them.
func Load(path string, opts ...zebar.Option) (*Config, error) {
	var src, err = os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(src, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and compiles the given YAML configuration.
func Parse(src []byte, opts ...zebar.Option) (*Config, error) {
	var cfg Config
	var dec = yaml.NewDecoder(bytes.NewReader(src))
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	var err error
	opts = append(opts[:len(opts):len(opts)], zebar.WithGlobals(cfg.Globals))
	if cfg.engine, err = zebar.New(opts...); err != nil {
		return nil, err
	}
	if err := cfg.compile(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// compile collects every property, in path order, and compiles it.
func (c *Config) compile() error {
	for _, barName := range sortedKeys(c.Bars) {
		var bar = c.Bars[barName]
		if bar == nil {
			return fmt.Errorf("bars.%s: bar is empty", barName)
		}
		var barPath = "bars." + barName
		if err := c.add(barPath, bar.Properties); err != nil {
			return err
		}
		for _, groupName := range sortedKeys(bar.Groups) {
			var group = bar.Groups[groupName]
			if group == nil {
				continue
			}
			var groupPath = barPath + ".groups." + groupName
			if err := c.add(groupPath, group.Properties); err != nil {
				return err
			}
			for i, component := range group.Components {
				if component == nil {
					continue
				}
				var path = fmt.Sprintf("%s.components[%d]", groupPath, i)
				if err := c.add(path, component.Properties); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// add compiles the string properties; other values are left alone.
func (c *Config) add(prefix string, props map[string]any) error {
	for _, key := range sortedKeys(props) {
		var source, ok = props[key].(string)
		if !ok {
			continue
		}
		var path = prefix + "." + key
		var tmpl, err = c.engine.Compile(source)
		if err != nil {
			return &PropertyError{path, source, err}
		}
		c.properties = append(c.properties, &Property{path, source, tmpl})
	}
	return nil
}

// Properties returns every property of the configuration, in path order.
func (c *Config) Properties() []*Property {
	return c.properties
}

// Variables returns the sorted names of the variables read by any property,
// such as the providers a configuration depends on.
func (c *Config) Variables() []string {
	var seen = make(map[string]bool)
	for _, p := range c.properties {
		for _, name := range p.Template.Variables() {
			seen[name] = true
		}
	}
	return sortedKeys(seen)
}

// Property returns the property at the given path.
func (c *Config) Property(path string) (*Property, bool) {
	for _, p := range c.properties {
		if p.Path == path {
			return p, true
		}
	}
	return nil, false
}

// Render renders the property at the given path.
func (c *Config) Render(path string, vars map[string]any) (string, error) {
	var p, ok = c.Property(path)
	if !ok {
		return "", fmt.Errorf("no property %s", path)
	}
	var out, err = p.Template.Render(vars)
	if err != nil {
		return "", &PropertyError{path, p.Source, err}
	}
	return out, nil
}

// RenderAll renders every templated property.  Rendering stops at the first
// failure.
func (c *Config) RenderAll(vars map[string]any) ([]Output, error) {
	var outputs []Output
	for _, p := range c.properties {
		if !p.IsTemplate() {
			continue
		}
		var out, err = p.Template.Render(vars)
		if err != nil {
			return nil, &PropertyError{p.Path, p.Source, err}
		}
		outputs = append(outputs, Output{p.Path, out})
	}
	return outputs, nil
}

// LoadVars reads a YAML document of provider variables, as passed to Render.
func LoadVars(path string) (map[string]any, error) {
	var src, err = os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var vars map[string]any
	if err := yaml.Unmarshal(src, &vars); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vars, nil
}

func sortedKeys[V any](m map[string]V) []string {
	var keys = make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String formats the outputs one per line, as path: value.
func String(outputs []Output) string {
	var b strings.Builder
	for _, o := range outputs {
		fmt.Fprintf(&b, "%s: %s\n", o.Path, o.Value)
	}
	return b.String()
}

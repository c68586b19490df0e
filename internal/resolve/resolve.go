// Package resolve builds the render context for a component and resolves
// template expressions nested inside descriptor values.
//
// Resolution is a single pass: every string value containing "{{" is
// evaluated once against the unresolved descriptor, the environment
// snapshot and the override variables. A value that fails to evaluate, or
// that still contains an expression afterwards, is recorded as Unresolved
// instead of being retried.
package resolve

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/cameronsjo/dockergen/internal/descriptor"
	"github.com/cameronsjo/dockergen/internal/environ"
)

// Reasons recorded for unresolved values.
const (
	ReasonNotSinglePass = "expression remains after a single resolution pass"
)

// Unresolved is a descriptor value whose expression could not be resolved.
type Unresolved struct {
	// Path is the dotted location of the value, e.g. "versions.delta.jar".
	Path string

	// Value is what was kept in the context.
	Value string

	// Reason explains why resolution stopped.
	Reason string
}

func (u Unresolved) Error() string {
	return fmt.Sprintf("unresolved expression at %s: %s", u.Path, u.Reason)
}

// Context is the data a component template is executed against.
type Context struct {
	data map[string]any
	env  *environ.Snapshot

	// Unresolved lists values left unresolved, sorted by path.
	Unresolved []Unresolved
}

// Option configures Build.
type Option func(*options)

type options struct {
	prefixes []string
}

// WithOverridePrefixes sets the variable prefixes copied into the
// "overrides" context key. Defaults to environ.DefaultOverridePrefixes.
func WithOverridePrefixes(prefixes ...string) Option {
	return func(o *options) {
		o.prefixes = prefixes
	}
}

// Build resolves the document's sections against env. The document is not
// modified.
func Build(doc *descriptor.Document, env *environ.Snapshot, opts ...Option) (*Context, error) {
	if doc == nil {
		return nil, errors.New("resolve: nil document")
	}

	o := options{prefixes: environ.DefaultOverridePrefixes}
	for _, opt := range opts {
		opt(&o)
	}

	raw := doc.Raw()
	delete(raw, KeyEnv)
	delete(raw, KeyOverrides)

	firstPass := make(map[string]any, len(raw)+2)
	for k, v := range raw {
		firstPass[k] = v
	}
	firstPass[KeyEnv] = env.Values()
	firstPass[KeyOverrides] = environ.Filter(env, o.prefixes...).Values()

	r := &resolver{data: firstPass}
	data := make(map[string]any, len(firstPass))
	for k, v := range firstPass {
		if k == KeyEnv || k == KeyOverrides {
			data[k] = v
			continue
		}
		data[k] = r.value(k, v)
	}

	sort.Slice(r.unresolved, func(i, j int) bool {
		return r.unresolved[i].Path < r.unresolved[j].Path
	})

	return &Context{data: data, env: env, Unresolved: r.unresolved}, nil
}

// Data returns the template data. Callers must not modify it.
func (c *Context) Data() map[string]any {
	return c.data
}

// Section returns one resolved top-level section, or nil.
func (c *Context) Section(name string) map[string]any {
	section, _ := c.data[name].(map[string]any)
	return section
}

// Roots returns the top-level context keys, sorted.
func (c *Context) Roots() []string {
	return Roots(c.data)
}

// Env returns the environment snapshot the context was built from.
func (c *Context) Env() *environ.Snapshot {
	return c.env
}

// Err returns every unresolved value as one error, or nil.
func (c *Context) Err() error {
	var result *multierror.Error
	for _, u := range c.Unresolved {
		result = multierror.Append(result, u)
	}
	return result.ErrorOrNil()
}

type resolver struct {
	data       map[string]any
	unresolved []Unresolved
}

func (r *resolver) value(path string, v any) any {
	switch val := v.(type) {
	case string:
		return r.expand(path, val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = r.value(path+"."+k, item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = r.value(path+"["+strconv.Itoa(i)+"]", item)
		}
		return out
	default:
		return v
	}
}

func (r *resolver) expand(path, s string) string {
	if !strings.Contains(s, "{{") {
		return s
	}

	out, err := Evaluate(path, s, r.data)
	if err != nil {
		r.unresolved = append(r.unresolved, Unresolved{Path: path, Value: s, Reason: err.Error()})
		return s
	}
	if strings.Contains(out, "{{") {
		r.unresolved = append(r.unresolved, Unresolved{Path: path, Value: out, Reason: ReasonNotSinglePass})
	}
	return out
}

// Evaluate executes a single expression string against data.
func Evaluate(name, expr string, data map[string]any) (string, error) {
	tmpl, err := NewTemplate(name, expr, Roots(data))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

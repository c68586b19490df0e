package resolve

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Top-level keys of the render context.
const (
	KeyVersions   = "versions"
	KeyComponents = "components"
	KeyEnv        = "env"
	KeyOverrides  = "overrides"
)

// DefaultRoots are the context keys every render context carries.
var DefaultRoots = []string{KeyVersions, KeyComponents, KeyEnv, KeyOverrides}

// actionPattern matches a template action, delimiters included.
var actionPattern = regexp.MustCompile(`(?s)\{\{.*?\}\}`)

var identPattern = regexp.MustCompile(`^[A-Za-z_]\w*$`)

// refPatterns caches the bare-reference pattern per root set.
var refPatterns sync.Map

// refPattern matches one of roots used without the leading dot, e.g.
// versions.scala.version inside an action.
func refPattern(roots []string) *regexp.Regexp {
	roots = lo.Uniq(lo.Filter(roots, func(r string, _ int) bool {
		return identPattern.MatchString(r)
	}))
	sort.Strings(roots)

	key := strings.Join(roots, "|")
	if p, ok := refPatterns.Load(key); ok {
		return p.(*regexp.Regexp)
	}
	if key == "" {
		return nil
	}
	p := regexp.MustCompile(`(^|[^\w.$"'])(` + key + `)\.`)
	refPatterns.Store(key, p)
	return p
}

// Normalize rewrites bare context references inside template actions to
// field references, so {{versions.spark}} becomes {{.versions.spark}}.
// Text outside actions and quoted literals inside them are left alone.
// roots names the context keys to recognize; none means DefaultRoots.
func Normalize(text string, roots ...string) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	if len(roots) == 0 {
		roots = DefaultRoots
	}
	pattern := refPattern(roots)
	if pattern == nil {
		return text
	}
	return actionPattern.ReplaceAllStringFunc(text, func(action string) string {
		return normalizeAction(action, pattern)
	})
}

// normalizeAction applies pattern to the unquoted parts of one action.
func normalizeAction(action string, pattern *regexp.Regexp) string {
	var b strings.Builder
	start := 0
	for i := 0; i < len(action); i++ {
		switch action[i] {
		case '"', '\'', '`':
		default:
			continue
		}
		b.WriteString(pattern.ReplaceAllString(action[start:i], "${1}.${2}."))
		end := closingQuote(action, i)
		b.WriteString(action[i:end])
		start = end
		i = end - 1
	}
	b.WriteString(pattern.ReplaceAllString(action[start:], "${1}.${2}."))
	return b.String()
}

// closingQuote returns the index just past the literal opened at s[i].
// Raw strings have no escapes.
func closingQuote(s string, i int) int {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		if s[j] == '\\' && q != '`' {
			j++
			continue
		}
		if s[j] == q {
			return j + 1
		}
	}
	return len(s)
}

// Roots returns the top-level keys of data, sorted.
func Roots(data map[string]any) []string {
	roots := lo.Keys(data)
	sort.Strings(roots)
	return roots
}

// FuncMap returns the functions available to expressions and templates.
func FuncMap() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["toYaml"] = func(v any) (string, error) {
		out, err := yaml.Marshal(v)
		if err != nil {
			return "", err
		}
		return strings.TrimSuffix(string(out), "\n"), nil
	}
	return funcs
}

// NewTemplate parses text as a template named name. Missing keys are errors.
// Bare references to roots are accepted (nil means DefaultRoots). Extra
// function maps are added after the defaults and may shadow them.
func NewTemplate(name, text string, roots []string, extra ...template.FuncMap) (*template.Template, error) {
	tmpl := template.New(name).
		Option("missingkey=error").
		Funcs(FuncMap())
	for _, funcs := range extra {
		tmpl = tmpl.Funcs(funcs)
	}
	return tmpl.Parse(Normalize(text, roots...))
}

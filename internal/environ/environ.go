// Package environ captures process environment variables as an immutable,
// ordered snapshot for template rendering.
//
// A snapshot is taken once per render so a template never observes the
// environment changing underneath it. Nothing in this package writes to the
// live process environment.
package environ

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/go-envparse"
	"github.com/samber/lo"
)

// DefaultOverridePrefixes are the variable prefixes recognized as overrides.
var DefaultOverridePrefixes = []string{"SPARK_", "HIVE_", "POSTGRES_", "AWS_", "MINIO_"}

type entry struct {
	key   string
	value string
}

// Snapshot is an ordered, read-only view of environment variables.
type Snapshot struct {
	entries []entry
	index   map[string]int
}

// Capture reads the current process environment. It always succeeds.
func Capture() *Snapshot {
	return FromPairs(os.Environ())
}

// FromPairs builds a snapshot from KEY=value strings, keeping their order.
// Entries without '=' are ignored; a repeated key keeps its first position
// and its last value, matching how the process environment resolves them.
func FromPairs(pairs []string) *Snapshot {
	s := &Snapshot{index: make(map[string]int, len(pairs))}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			continue
		}
		s.set(key, value)
	}
	return s
}

// FromMap builds a snapshot from a map. Keys are sorted so the order is stable.
func FromMap(m map[string]string) *Snapshot {
	keys := lo.Keys(m)
	sort.Strings(keys)

	s := &Snapshot{index: make(map[string]int, len(m))}
	for _, k := range keys {
		s.set(k, m[k])
	}
	return s
}

func (s *Snapshot) set(key, value string) {
	if i, ok := s.index[key]; ok {
		s.entries[i].value = value
		return
	}
	s.index[key] = len(s.entries)
	s.entries = append(s.entries, entry{key: key, value: value})
}

// Len returns the number of variables.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Get returns the value of key and whether it is set.
func (s *Snapshot) Get(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	i, ok := s.index[key]
	if !ok {
		return "", false
	}
	return s.entries[i].value, true
}

// Keys returns the variable names in snapshot order.
func (s *Snapshot) Keys() []string {
	if s == nil {
		return nil
	}
	return lo.Map(s.entries, func(e entry, _ int) string { return e.key })
}

// Pairs returns KEY=value strings in snapshot order.
func (s *Snapshot) Pairs() []string {
	if s == nil {
		return nil
	}
	return lo.Map(s.entries, func(e entry, _ int) string { return e.key + "=" + e.value })
}

// Map returns a copy of the variables as a map.
func (s *Snapshot) Map() map[string]string {
	m := make(map[string]string, s.Len())
	if s == nil {
		return m
	}
	for _, e := range s.entries {
		m[e.key] = e.value
	}
	return m
}

// Values returns the variables as map[string]any for template data.
func (s *Snapshot) Values() map[string]any {
	m := make(map[string]any, s.Len())
	if s == nil {
		return m
	}
	for _, e := range s.entries {
		m[e.key] = e.value
	}
	return m
}

// Filter returns the entries whose key starts with one of prefixes, in their
// original order. No prefixes yields an empty snapshot.
func Filter(s *Snapshot, prefixes ...string) *Snapshot {
	out := &Snapshot{index: make(map[string]int)}
	if s == nil {
		return out
	}
	for _, e := range s.entries {
		if hasAnyPrefix(e.key, prefixes) {
			out.set(e.key, e.value)
		}
	}
	return out
}

func hasAnyPrefix(key string, prefixes []string) bool {
	return lo.ContainsBy(prefixes, func(p string) bool {
		return p != "" && strings.HasPrefix(key, p)
	})
}

// WithDotEnv returns a new snapshot with the variables of a dotenv file
// appended. Variables already present keep their value. A missing file
// returns the snapshot unchanged.
func (s *Snapshot) WithDotEnv(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("open env file: %w", err)
	}
	defer f.Close()

	parsed, err := envparse.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse env file %s: %w", path, err)
	}

	out := FromPairs(s.Pairs())
	keys := lo.Keys(parsed)
	sort.Strings(keys)
	for _, k := range keys {
		if _, exists := out.index[k]; exists {
			continue
		}
		out.set(k, parsed[k])
	}
	return out, nil
}

// Package catalog enumerates and resolves the Dockerfile templates in a
// template root directory.
//
// Layout of a template root:
//
//	spark.tmpl            one template per renderable component
//	hive.tmpl
//	scripts/spark/*       auxiliary files copied for that component only
//	conf/*                shared files copied for every component
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// DefaultExtension is the file extension of template files.
const DefaultExtension = ".tmpl"

// Auxiliary directory names under the template root.
const (
	ScriptsDir = "scripts"
	ConfDir    = "conf"
)

// ErrNotFound indicates no template exists for a component name.
var ErrNotFound = errors.New("template not found")

// TemplateError describes a template that could not be resolved.
type TemplateError struct {
	Kind error
	Name string
	Root string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("%s: %s (in %s)", e.Kind, e.Name, e.Root)
}

// Unwrap returns the error kind.
func (e *TemplateError) Unwrap() error {
	return e.Kind
}

// Catalog looks up templates under a root directory.
type Catalog struct {
	root string
	ext  string
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithExtension sets the template file extension, including the leading dot.
func WithExtension(ext string) Option {
	return func(c *Catalog) {
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.ext = ext
	}
}

// New creates a Catalog rooted at root.
func New(root string, opts ...Option) *Catalog {
	c := &Catalog{root: root, ext: DefaultExtension}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the template root directory.
func (c *Catalog) Root() string {
	return c.root
}

// Extension returns the template file extension.
func (c *Catalog) Extension() string {
	return c.ext
}

// List returns the component names that have a template, sorted.
// Directories never contribute names, so scripts/<name> alone does not make
// a component renderable.
func (c *Catalog) List() ([]string, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("template directory not found: %s", c.root)
		}
		return nil, fmt.Errorf("read template directory: %w", err)
	}

	// Listed names are exactly the ones Resolve accepts, symlinks included.
	names := lo.FilterMap(entries, func(entry fs.DirEntry, _ int) (string, bool) {
		name := entry.Name()
		if filepath.Ext(name) != c.ext {
			return "", false
		}
		stem := strings.TrimSuffix(name, c.ext)
		return stem, c.Exists(stem)
	})

	names = lo.Uniq(names)
	sort.Strings(names)
	return names, nil
}

// Template is a resolved template file.
type Template struct {
	// Name is the component name.
	Name string

	// Path is the template file path.
	Path string
}

// Source reads the template text.
func (t *Template) Source() (string, error) {
	data, err := os.ReadFile(t.Path)
	if err != nil {
		return "", fmt.Errorf("read template %s: %w", t.Path, err)
	}
	return string(data), nil
}

// Resolve returns the template for name, or a *TemplateError wrapping
// ErrNotFound.
func (c *Catalog) Resolve(name string) (*Template, error) {
	notFound := &TemplateError{Kind: ErrNotFound, Name: name, Root: c.root}

	if !validName(name) {
		return nil, notFound
	}

	path := filepath.Join(c.root, name+c.ext)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, notFound
	}

	return &Template{Name: name, Path: path}, nil
}

// Exists reports whether a template exists for name.
func (c *Catalog) Exists(name string) bool {
	_, err := c.Resolve(name)
	return err == nil
}

// AuxDir pairs an auxiliary source directory with its place in the output tree.
type AuxDir struct {
	// Source is the directory under the template root.
	Source string

	// Dest is the path relative to the output root.
	Dest string
}

// AuxiliaryDirs returns the directories whose files accompany the named
// component: its own scripts directory and the shared conf directory.
// The directories may not exist.
func (c *Catalog) AuxiliaryDirs(name string) []AuxDir {
	scripts := filepath.Join(ScriptsDir, name)
	return []AuxDir{
		{Source: filepath.Join(c.root, scripts), Dest: scripts},
		{Source: filepath.Join(c.root, ConfDir), Dest: ConfDir},
	}
}

// validName rejects names that would escape the template root.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}

// Package render turns a component template into a build directory: the
// Dockerfile, a snapshot of the configuration it was rendered with, and the
// component's auxiliary files.
//
// Output layout for component c under the output root:
//
//	Dockerfile.c        rendered template plus the COPY trailer
//	config/c.yml        resolved versions, components and environment
//	scripts/c/...       copied from <templates>/scripts/c
//	conf/...            copied from <templates>/conf
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/dockergen/internal/catalog"
	"github.com/cameronsjo/dockergen/internal/descriptor"
	"github.com/cameronsjo/dockergen/internal/environ"
	"github.com/cameronsjo/dockergen/internal/fileutil"
	"github.com/cameronsjo/dockergen/internal/resolve"
)

// ConfigDir is the output subdirectory holding configuration snapshots.
const ConfigDir = "config"

// Artifact describes the files produced by one render.
type Artifact struct {
	Component  string
	Dockerfile string
	Config     string

	// Files are the copied auxiliary files, sorted.
	Files []string

	// Warnings are expressions left unresolved in non-strict mode.
	Warnings []resolve.Unresolved

	// Notices are non-fatal conditions, such as a missing auxiliary directory.
	Notices []string
}

// Renderer renders components of one descriptor from one template catalog.
// It holds no mutable state; rendering the same component concurrently into
// the same output directory is not safe.
type Renderer struct {
	doc         *descriptor.Document
	catalog     *catalog.Catalog
	outputDir   string
	logger      *zap.Logger
	environment func() *environ.Snapshot
	prefixes    []string
	strict      bool
	redact      bool
	dotEnv      string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithEnvironment sets the function that captures the environment. It is
// called once per render. Defaults to environ.Capture.
func WithEnvironment(capture func() *environ.Snapshot) Option {
	return func(r *Renderer) {
		if capture != nil {
			r.environment = capture
		}
	}
}

// WithOverridePrefixes sets the variable prefixes exposed as overrides.
func WithOverridePrefixes(prefixes ...string) Option {
	return func(r *Renderer) {
		r.prefixes = prefixes
	}
}

// WithStrict makes unresolved expressions fatal.
func WithStrict(strict bool) Option {
	return func(r *Renderer) {
		r.strict = strict
	}
}

// WithRedaction controls whether sensitive variables are masked in the
// configuration snapshot. Enabled by default.
func WithRedaction(redact bool) Option {
	return func(r *Renderer) {
		r.redact = redact
	}
}

// WithDotEnv adds variables from a dotenv file to each captured environment.
// Process variables take precedence and a missing file is ignored.
func WithDotEnv(path string) Option {
	return func(r *Renderer) {
		r.dotEnv = path
	}
}

// New creates a Renderer writing below outputDir.
func New(doc *descriptor.Document, cat *catalog.Catalog, outputDir string, opts ...Option) *Renderer {
	r := &Renderer{
		doc:         doc,
		catalog:     cat,
		outputDir:   outputDir,
		logger:      zap.NewNop(),
		environment: environ.Capture,
		prefixes:    environ.DefaultOverridePrefixes,
		redact:      true,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("render")
	return r
}

// OutputDir returns the output root.
func (r *Renderer) OutputDir() string {
	return r.outputDir
}

// Trailer returns the lines appended to every rendered Dockerfile.
func Trailer(component string) string {
	return "\n# Copy component config\n" +
		fmt.Sprintf("COPY %s/%s.yml /opt/%s/config/\n", ConfigDir, component, component) +
		fmt.Sprintf("COPY %s/%s /opt/%s/scripts/\n", catalog.ScriptsDir, component, component)
}

// Render renders one component. Nothing is written unless the component,
// its template and (in strict mode) every expression resolve.
func (r *Renderer) Render(component string) (*Artifact, error) {
	start := time.Now()
	log := r.logger.With(
		zap.String("render_id", uuid.NewString()),
		zap.String("component", component),
	)

	tmpl, err := r.catalog.Resolve(component)
	if err != nil {
		return nil, newError(ErrTemplateMissing, component, err)
	}

	if !r.doc.HasComponent(component) {
		return nil, newError(ErrComponentMissing, component,
			fmt.Errorf("%q is not listed under %s in %s", component, descriptor.SectionComponents, r.doc.Path()))
	}
	log = log.With(zap.String("template", tmpl.Path))

	env := r.environment()
	if r.dotEnv != "" {
		env, err = env.WithDotEnv(r.dotEnv)
		if err != nil {
			return nil, newError(ErrIOFailure, component, err)
		}
	}
	env, err = environ.WithSparkDefaults(env)
	if err != nil {
		return nil, newError(ErrInvalidEnvironment, component, err)
	}

	ctx, err := resolve.Build(r.doc, env, resolve.WithOverridePrefixes(r.prefixes...))
	if err != nil {
		return nil, newError(ErrTemplateFailure, component, err)
	}

	artifact := &Artifact{Component: component}
	if len(ctx.Unresolved) > 0 {
		if r.strict {
			return nil, newError(ErrUnresolvedExpression, component, ctx.Err())
		}
		for _, u := range ctx.Unresolved {
			log.Warn("unresolved expression",
				zap.String("path", u.Path),
				zap.String("value", u.Value),
				zap.String("reason", u.Reason))
		}
		artifact.Warnings = ctx.Unresolved
	}

	src, err := tmpl.Source()
	if err != nil {
		return nil, newError(ErrIOFailure, component, err)
	}
	parsed, err := resolve.NewTemplate(tmpl.Name, src, ctx.Roots(), r.funcs())
	if err != nil {
		return nil, newError(ErrTemplateFailure, component, err)
	}

	if err := r.prepareDirs(component); err != nil {
		return nil, newError(ErrIOFailure, component, err)
	}

	for _, aux := range r.catalog.AuxiliaryDirs(component) {
		files, err := fileutil.CopyDir(aux.Source, filepath.Join(r.outputDir, aux.Dest))
		if errors.Is(err, fs.ErrNotExist) {
			notice := fmt.Sprintf("no auxiliary files: %s does not exist", aux.Source)
			log.Info("auxiliary directory missing", zap.String("dir", aux.Source))
			artifact.Notices = append(artifact.Notices, notice)
			continue
		}
		if err != nil {
			return nil, newError(ErrIOFailure, component, err)
		}
		artifact.Files = append(artifact.Files, files...)
	}
	artifact.Files = lo.Uniq(artifact.Files)
	sort.Strings(artifact.Files)

	var out bytes.Buffer
	if err := parsed.Execute(&out, ctx.Data()); err != nil {
		return nil, newError(ErrTemplateFailure, component, err)
	}

	artifact.Dockerfile = filepath.Join(r.outputDir, "Dockerfile."+component)
	if err := fileutil.WriteFile(artifact.Dockerfile, out.Bytes(), 0644); err != nil {
		return nil, newError(ErrIOFailure, component, err)
	}

	snapshot, err := r.snapshot(ctx)
	if err != nil {
		return nil, newError(ErrIOFailure, component, err)
	}
	artifact.Config = filepath.Join(r.outputDir, ConfigDir, component+".yml")
	if err := fileutil.WriteFile(artifact.Config, snapshot, 0644); err != nil {
		return nil, newError(ErrIOFailure, component, err)
	}

	if err := fileutil.AppendFile(artifact.Dockerfile, []byte(Trailer(component))); err != nil {
		return nil, newError(ErrIOFailure, component, err)
	}

	log.Info("rendered",
		zap.String("dockerfile", artifact.Dockerfile),
		zap.Int("files", len(artifact.Files)),
		zap.Int("warnings", len(artifact.Warnings)),
		zap.Duration("duration", time.Since(start)))

	return artifact, nil
}

// RenderAll renders every component that has both a template and a
// descriptor entry, in name order. It stops at the first failure and returns
// the artifacts rendered so far.
func (r *Renderer) RenderAll() ([]*Artifact, error) {
	names, err := r.catalog.List()
	if err != nil {
		return nil, err
	}

	var artifacts []*Artifact
	for _, name := range lo.Intersect(names, r.doc.ComponentNames()) {
		artifact, err := r.Render(name)
		if err != nil {
			return artifacts, err
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, nil
}

func (r *Renderer) prepareDirs(component string) error {
	dirs := []string{
		r.outputDir,
		filepath.Join(r.outputDir, ConfigDir),
		filepath.Join(r.outputDir, catalog.ScriptsDir, component),
		filepath.Join(r.outputDir, catalog.ConfDir),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// snapshot serializes the resolved configuration. yaml.v3 sorts map keys,
// so equal inputs give identical bytes.
func (r *Renderer) snapshot(ctx *resolve.Context) ([]byte, error) {
	env := ctx.Env()
	if r.redact {
		env = env.Redacted()
	}

	data, err := yaml.Marshal(map[string]any{
		"env":        env.Map(),
		"versions":   ctx.Section(resolve.KeyVersions),
		"components": ctx.Section(resolve.KeyComponents),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal config snapshot: %w", err)
	}
	return data, nil
}

// funcs are template functions bound to the template root.
func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"include": func(name string) (string, error) {
			if !filepath.IsLocal(name) {
				return "", fmt.Errorf("include %s: path outside template directory", name)
			}
			data, err := os.ReadFile(filepath.Join(r.catalog.Root(), name))
			if err != nil {
				return "", fmt.Errorf("include %s: %w", name, err)
			}
			return string(data), nil
		},
	}
}

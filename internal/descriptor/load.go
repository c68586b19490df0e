package descriptor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/copystructure"
	"gopkg.in/yaml.v3"
)

// Document is a loaded, fully validated descriptor. It is never mutated after
// Load returns; accessors hand out copies.
type Document struct {
	path       string
	raw        map[string]any
	versions   VersionSet
	components Components
}

type loadOptions struct {
	overlays []string
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithOverlay deep-merges the values file at path onto the descriptor before
// validation. Overlays apply in the order given; later ones win.
func WithOverlay(path string) LoadOption {
	return func(o *loadOptions) {
		if path != "" {
			o.overlays = append(o.overlays, path)
		}
	}
}

// Load reads, parses, and validates the descriptor at path.
func Load(path string, opts ...LoadOption) (*Document, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	raw, err := readTree(path)
	if err != nil {
		return nil, err
	}

	for _, overlayPath := range o.overlays {
		overlay, err := readTree(overlayPath)
		if err != nil {
			return nil, err
		}
		raw = DeepMerge(raw, overlay)
	}

	return build(path, raw)
}

// Parse validates an in-memory YAML descriptor. name is only used in errors.
func Parse(data []byte, name string) (*Document, error) {
	raw, err := decodeYAML(data, name)
	if err != nil {
		return nil, err
	}
	return build(name, raw)
}

func build(path string, raw map[string]any) (*Document, error) {
	if err := validateStructure(path, raw); err != nil {
		return nil, err
	}

	doc := &Document{path: path, raw: raw}

	if err := decodeSection(raw, SectionVersions, &doc.versions); err != nil {
		return nil, newError(ErrInvalidValue, path, SectionVersions, err)
	}
	if err := decodeSection(raw, SectionComponents, &doc.components); err != nil {
		return nil, newError(ErrInvalidValue, path, SectionComponents, err)
	}

	if err := validateValues(path, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func readTree(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newError(ErrNotFound, path, "", nil)
		}
		return nil, newError(ErrUnreadable, path, "", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return decodeTOML(data, path)
	default:
		return decodeYAML(data, path)
	}
}

func decodeTOML(data []byte, path string) (map[string]any, error) {
	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return nil, newError(ErrParseFailure, path, "", err)
	}
	if len(tree) == 0 {
		return nil, newError(ErrEmpty, path, "", nil)
	}
	return tree, nil
}

func decodeYAML(data []byte, path string) (map[string]any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, newError(ErrParseFailure, path, "", err)
	}

	value, err := nodeValue(&root)
	if err != nil {
		return nil, newError(ErrParseFailure, path, "", err)
	}
	if value == nil {
		return nil, newError(ErrEmpty, path, "", nil)
	}

	tree, ok := value.(map[string]any)
	if !ok {
		return nil, newError(ErrParseFailure, path, "", fmt.Errorf("document root is %T, not a mapping", value))
	}
	if len(tree) == 0 {
		return nil, newError(ErrEmpty, path, "", nil)
	}

	return tree, nil
}

// nodeValue converts a YAML node to plain Go values. Floats keep their
// literal text so versions such as 2.10 are not collapsed to 2.1.
func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, child := range n.Content {
			v, err := nodeValue(child)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case yaml.MappingNode:
		return mappingValue(n)
	case yaml.ScalarNode:
		if n.ShortTag() == "!!float" {
			return n.Value, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported node kind %v", n.Line, n.Kind)
	}
}

func mappingValue(n *yaml.Node) (map[string]any, error) {
	result := make(map[string]any, len(n.Content)/2)
	var merges []*yaml.Node

	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping keys must be scalars", key.Line)
		}
		if key.ShortTag() == "!!merge" {
			merges = append(merges, val)
			continue
		}
		v, err := nodeValue(val)
		if err != nil {
			return nil, err
		}
		result[key.Value] = v
	}

	// Explicit keys win over merged (<<) ones regardless of position.
	for _, m := range merges {
		v, err := nodeValue(m)
		if err != nil {
			return nil, err
		}
		var sources []any
		if list, ok := v.([]any); ok {
			sources = list
		} else {
			sources = []any{v}
		}
		for _, src := range sources {
			srcMap, ok := src.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("line %d: merge value must be a mapping", m.Line)
			}
			for k, sv := range srcMap {
				if _, exists := result[k]; !exists {
					result[k] = sv
				}
			}
		}
	}

	return result, nil
}

// decodeSection round-trips one section of the raw tree into a typed record.
func decodeSection(raw map[string]any, section string, out any) error {
	data, err := yaml.Marshal(raw[section])
	if err != nil {
		return fmt.Errorf("marshal %s: %w", section, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return err
	}
	return nil
}

// Path returns the file the document was loaded from.
func (d *Document) Path() string {
	return d.path
}

// Versions returns the typed version set.
func (d *Document) Versions() VersionSet {
	return d.versions
}

// Components returns a copy of the typed component settings.
func (d *Document) Components() Components {
	return copystructure.Must(copystructure.Copy(d.components)).(Components)
}

// Raw returns a deep copy of the merged descriptor tree.
func (d *Document) Raw() map[string]any {
	return copystructure.Must(copystructure.Copy(d.raw)).(map[string]any)
}

// Section returns a deep copy of one top-level section.
func (d *Document) Section(name string) map[string]any {
	section, _ := d.raw[name].(map[string]any)
	if section == nil {
		return map[string]any{}
	}
	return copystructure.Must(copystructure.Copy(section)).(map[string]any)
}

// ComponentNames returns the declared component names, sorted.
func (d *Document) ComponentNames() []string {
	components, _ := d.raw[SectionComponents].(map[string]any)
	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasComponent reports whether the descriptor declares the named component.
func (d *Document) HasComponent(name string) bool {
	components, _ := d.raw[SectionComponents].(map[string]any)
	_, ok := components[name]
	return ok
}

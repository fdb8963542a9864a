// Package schemafile loads schemas declared in YAML (or JSON) documents:
//
//	class: Demo
//	kinds:
//	  - {name: country, parent: selector}
//	fields:
//	  - {name: name, kind: string, value: Demo}
//	  - {name: x, kind: number, value: 1.0, min: 0, max: 10, doc: Scale factor}
//	  - {name: country, kind: country, options: [UK, FR, {label: Spain, value: ES}]}
//	  - {name: data, kind: file-selector, path: "*.csv"}
//
// Behaviour that cannot be written down in a document (actions, view
// renderers) is looked up by name in registries passed to Build.
package schemafile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-paramform/pkg/schema"
	"github.com/goliatone/go-paramform/pkg/sources"
)

// Document is the decoded form of a schema file.
type Document struct {
	Class  string     `yaml:"class"`
	Kinds  []KindDef  `yaml:"kinds"`
	Fields []FieldDef `yaml:"fields"`

	// Dir is the directory of the file the document was read from. Path
	// patterns resolve relative to it.
	Dir string `yaml:"-"`
}

// KindDef declares a sub-kind.
type KindDef struct {
	Name   string `yaml:"name"`
	Parent string `yaml:"parent"`
}

// FieldDef declares one field.
type FieldDef struct {
	Name         string      `yaml:"name"`
	Label        string      `yaml:"label"`
	Kind         string      `yaml:"kind"`
	Value        any         `yaml:"value"`
	Doc          string      `yaml:"doc"`
	Min          any         `yaml:"min"`
	Max          any         `yaml:"max"`
	ExclusiveMin bool        `yaml:"exclusive_min"`
	ExclusiveMax bool        `yaml:"exclusive_max"`
	Options      []OptionDef `yaml:"options"`
	Precedence   *float64    `yaml:"precedence"`
	Constant     bool        `yaml:"constant"`
	AllowNone    bool        `yaml:"allow_none"`
	Pattern      string      `yaml:"pattern"`
	Length       int         `yaml:"length"`
	ItemLimit    *int        `yaml:"item_limit"`
	Path         string      `yaml:"path"`
	Action       string      `yaml:"action"`
	Render       string      `yaml:"render"`
}

// OptionDef is either a bare scalar, used as label and value, or a
// {label, value} mapping.
type OptionDef struct {
	Label string `yaml:"label"`
	Value any    `yaml:"value"`
}

// UnmarshalYAML accepts both option spellings.
func (o *OptionDef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var value any
		if err := node.Decode(&value); err != nil {
			return err
		}
		o.Value = value
		o.Label = schema.LabelOf(value)
		return nil
	}
	type plain OptionDef
	var decoded plain
	if err := node.Decode(&decoded); err != nil {
		return err
	}
	if decoded.Value == nil {
		decoded.Value = decoded.Label
	}
	if decoded.Label == "" {
		decoded.Label = schema.LabelOf(decoded.Value)
	}
	*o = OptionDef(decoded)
	return nil
}

// Parse decodes a document. name is used in error messages only.
func Parse(data []byte, name string) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("schemafile: parse %s: %w", name, err)
	}
	if strings.TrimSpace(doc.Class) == "" {
		return nil, fmt.Errorf("schemafile: %s: class is required", name)
	}
	return &doc, nil
}

// LoadFile reads and parses a document from disk.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schemafile: read %s: %w", path, err)
	}
	doc, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	doc.Dir = filepath.Dir(path)
	return doc, nil
}

// LoadFS reads and parses a document from fsys.
func LoadFS(fsys fs.FS, path string) (*Document, error) {
	if fsys == nil {
		return nil, errors.New("schemafile: fs is nil")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("schemafile: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Option configures Build.
type Option func(*buildConfig)

type buildConfig struct {
	kinds     *schema.KindTable
	actions   map[string]schema.ActionFunc
	renderers map[string]schema.ViewFunc
	resolver  func(dir string) schema.OptionResolver
}

// WithKinds builds against table instead of a fresh copy of the built-in
// hierarchy.
func WithKinds(table *schema.KindTable) Option {
	return func(c *buildConfig) {
		c.kinds = table
	}
}

// WithActions registers the actions fields may name.
func WithActions(actions map[string]schema.ActionFunc) Option {
	return func(c *buildConfig) {
		for name, fn := range actions {
			c.actions[name] = fn
		}
	}
}

// WithRenderers registers the view renderers fields may name.
func WithRenderers(renderers map[string]schema.ViewFunc) Option {
	return func(c *buildConfig) {
		for name, fn := range renderers {
			c.renderers[name] = fn
		}
	}
}

// WithResolver replaces the glob resolver used for path fields.
func WithResolver(fn func(dir string) schema.OptionResolver) Option {
	return func(c *buildConfig) {
		if fn != nil {
			c.resolver = fn
		}
	}
}

// Build turns the document into a schema.
func (d *Document) Build(options ...Option) (*schema.Schema, error) {
	if d == nil {
		return nil, errors.New("schemafile: document is nil")
	}
	cfg := buildConfig{
		actions:   make(map[string]schema.ActionFunc),
		renderers: make(map[string]schema.ViewFunc),
		resolver:  sources.Glob,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.kinds == nil {
		cfg.kinds = schema.NewKindTable()
	}
	for _, kind := range d.Kinds {
		if err := cfg.kinds.Define(schema.Tag(kind.Name), schema.Tag(kind.Parent)); err != nil {
			return nil, fmt.Errorf("schemafile: kind %q: %w", kind.Name, err)
		}
	}

	specs := make([]schema.ParameterSpec, 0, len(d.Fields))
	for _, def := range d.Fields {
		spec, err := d.spec(def, cfg)
		if err != nil {
			return nil, fmt.Errorf("schemafile: field %q: %w", def.Name, err)
		}
		specs = append(specs, spec)
	}
	return schema.NewWithKinds(cfg.kinds, d.Class, specs...)
}

func (d *Document) spec(def FieldDef, cfg buildConfig) (schema.ParameterSpec, error) {
	tag := schema.Tag(strings.TrimSpace(def.Kind))
	if tag == "" {
		tag = schema.TagParameter
	}
	kind := schema.Of(tag)
	if def.Constant {
		kind = schema.Constant(kind)
	}
	spec := schema.ParameterSpec{
		Name:       def.Name,
		Label:      def.Label,
		Kind:       kind,
		Value:      def.Value,
		Doc:        def.Doc,
		Bounds:     schema.Bounds{Min: def.Min, Max: def.Max, ExclusiveMin: def.ExclusiveMin, ExclusiveMax: def.ExclusiveMax},
		Precedence: def.Precedence,
		Constant:   def.Constant,
		AllowNone:  def.AllowNone,
		Pattern:    def.Pattern,
		Length:     def.Length,
		ItemLimit:  def.ItemLimit,
		Path:       def.Path,
	}
	for _, option := range def.Options {
		spec.Options = append(spec.Options, schema.Option{Label: option.Label, Value: option.Value})
	}

	if cfg.kinds.IsA(tag, schema.TagDate) {
		var err error
		if spec.Value, err = toTime(spec.Value); err != nil {
			return spec, err
		}
		if spec.Bounds.Min, err = toTime(spec.Bounds.Min); err != nil {
			return spec, err
		}
		if spec.Bounds.Max, err = toTime(spec.Bounds.Max); err != nil {
			return spec, err
		}
	}
	if cfg.kinds.IsA(tag, schema.TagListSelector) && spec.Value == nil {
		spec.Value = []any{}
	}

	if def.Action != "" {
		fn, ok := cfg.actions[def.Action]
		if !ok {
			return spec, fmt.Errorf("unknown action %q", def.Action)
		}
		spec.Value = fn
	}
	if def.Render != "" {
		fn, ok := cfg.renderers[def.Render]
		if !ok {
			return spec, fmt.Errorf("unknown renderer %q", def.Render)
		}
		spec.Render = fn
	}
	if def.Path != "" {
		spec.Resolve = cfg.resolver(d.Dir)
		options, err := spec.Resolve(def.Path)
		if err != nil {
			return spec, err
		}
		spec.Options = options
	}
	return spec, nil
}

func toTime(value any) (any, error) {
	text, ok := value.(string)
	if !ok {
		return value, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if ts, err := time.Parse(layout, text); err == nil {
			return ts, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", text)
}

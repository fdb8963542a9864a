// Package form turns a schema into an ordered tree of bound controls.
package form

import (
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/goliatone/go-paramform/pkg/binding"
	"github.com/goliatone/go-paramform/pkg/control"
	"github.com/goliatone/go-paramform/pkg/schema"
	"github.com/goliatone/go-paramform/pkg/widgets"
)

// Field is one built field.
type Field struct {
	Spec    schema.ParameterSpec
	Label   *control.Control
	Control *control.Control
	Row     *control.Control
	Binding *binding.Binding
}

// Form is the result of Build.
type Form struct {
	// Header shows the schema title. Nil when the schema has no name field.
	Header      *control.Control
	Fields      []*Field
	Outputs     []*Field
	RunButton   *control.Control
	CloseButton *control.Control
	Root        *control.Control

	LabelWidth string
	byName     map[string]*Field
}

// Field returns the built field called name.
func (f *Form) Field(name string) (*Field, bool) {
	if f == nil {
		return nil, false
	}
	field, ok := f.byName[name]
	return field, ok
}

// Binding returns the binding of name, or nil.
func (f *Form) Binding(name string) *binding.Binding {
	field, ok := f.Field(name)
	if !ok {
		return nil
	}
	return field.Binding
}

// Names returns the interactive field names in display order.
func (f *Form) Names() []string {
	if f == nil {
		return nil
	}
	out := make([]string, 0, len(f.Fields))
	for _, field := range f.Fields {
		out = append(out, field.Spec.Name)
	}
	return out
}

// Bindings returns every binding, fields first then outputs.
func (f *Form) Bindings() []*binding.Binding {
	if f == nil {
		return nil
	}
	out := make([]*binding.Binding, 0, len(f.Fields)+len(f.Outputs))
	for _, field := range f.Fields {
		out = append(out, field.Binding)
	}
	for _, field := range f.Outputs {
		out = append(out, field.Binding)
	}
	return out
}

// Close tears down every binding.
func (f *Form) Close() {
	for _, b := range f.Bindings() {
		b.Close()
	}
}

// Order stable-sorts specs by effective precedence. Equal precedence keeps
// declaration order.
func Order(specs []schema.ParameterSpec, fallback float64) []schema.ParameterSpec {
	out := append([]schema.ParameterSpec(nil), specs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectivePrecedence(fallback) < out[j].EffectivePrecedence(fallback)
	})
	return out
}

// Shown reports whether spec passes the display threshold. Fields without a
// declared precedence always pass.
func Shown(spec schema.ParameterSpec, threshold float64) bool {
	return spec.Precedence == nil || *spec.Precedence >= threshold
}

// EstimateLabelWidth approximates the CSS width of the longest label.
func EstimateLabelWidth(labels []string, minPixels int) string {
	longest := 0
	for _, label := range labels {
		if n := utf8.RuneCountInString(label); n > longest {
			longest = n
		}
	}
	px := int(float64(longest) * 7.5)
	if px < minPixels {
		px = minPixels
	}
	return fmt.Sprintf("%dpx", px)
}

// Build orders the fields of s, builds one control per field through reg and
// binds it. A field whose kind has no factory aborts the build with a
// *widgets.ConfigurationError.
func Build(s *schema.Schema, reg *widgets.Registry, options ...Option) (*Form, error) {
	if s == nil {
		return nil, errors.New("form: schema is nil")
	}
	if reg == nil {
		reg = widgets.NewRegistry(widgets.WithKinds(s.Kinds()))
	}
	cfg := defaultConfig()
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	kinds := s.Kinds()
	var interactive, outputs []schema.ParameterSpec
	for _, spec := range Order(s.Specs(), cfg.defaultPrecedence) {
		if kinds.IsA(spec.Kind.Tag(), schema.TagView) {
			outputs = append(outputs, spec)
			continue
		}
		if spec.Name == schema.TitleField || !Shown(spec, cfg.displayThreshold) {
			continue
		}
		interactive = append(interactive, spec)
	}

	form := &Form{byName: make(map[string]*Field)}
	if s.Has(schema.TitleField) {
		form.Header = &control.Control{
			ID:     cfg.idPrefix + "header",
			Widget: control.WidgetHeader,
			Text:   s.Title(),
		}
	}

	labels := make([]string, 0, len(interactive))
	for _, spec := range interactive {
		labels = append(labels, labelText(s, spec))
	}
	form.LabelWidth = EstimateLabelWidth(labels, cfg.minLabelPixels)
	if cfg.labelWidth != nil {
		form.LabelWidth = cfg.labelWidth(labels)
	}

	for _, spec := range interactive {
		field, err := buildField(s, reg, cfg, applyFirstOption(s, spec))
		if err != nil {
			form.Close()
			return nil, err
		}
		if cfg.showLabels {
			field.Label = &control.Control{
				ID:      cfg.idPrefix + spec.Name + "-label",
				Field:   spec.Name,
				Widget:  control.WidgetLabel,
				Text:    labelText(s, spec),
				Tooltip: field.Control.Tooltip,
				Layout:  control.Layout{Width: form.LabelWidth},
			}
		}
		field.Row = rowFor(field)
		form.Fields = append(form.Fields, field)
		form.byName[spec.Name] = field
	}
	for _, spec := range outputs {
		field, err := buildField(s, reg, cfg, spec)
		if err != nil {
			form.Close()
			return nil, err
		}
		field.Row = field.Control
		form.Outputs = append(form.Outputs, field)
		form.byName[spec.Name] = field
	}

	if cfg.closeButton {
		form.CloseButton = &control.Control{ID: cfg.idPrefix + "close", Widget: control.WidgetButton, Text: "Close"}
	}
	if cfg.runLabel != "" {
		form.RunButton = &control.Control{ID: cfg.idPrefix + "run", Widget: control.WidgetButton, Text: cfg.runLabel}
	}
	form.Root = assemble(form, cfg)
	return form, nil
}

// applyFirstOption gives an empty choice field its first option, or a list of
// it for multi-choice fields, through the validated write path.
func applyFirstOption(s *schema.Schema, spec schema.ParameterSpec) schema.ParameterSpec {
	kinds := s.Kinds()
	if spec.Value != nil || len(spec.Options) == 0 || !kinds.IsA(spec.Kind.Tag(), schema.TagSelector) {
		return spec
	}
	var value any = spec.Options[0].Value
	if kinds.IsA(spec.Kind.Tag(), schema.TagListSelector) {
		value = []any{value}
	}
	if err := s.Set(spec.Name, value); err != nil {
		return spec
	}
	updated, _ := s.Spec(spec.Name)
	return updated
}

func buildField(s *schema.Schema, reg *widgets.Registry, cfg config, spec schema.ParameterSpec) (*Field, error) {
	kinds := s.Kinds()
	factory, err := reg.ResolveWith(kinds, spec)
	if err != nil {
		return nil, err
	}
	ctrl, err := reg.Build(kinds, spec)
	if err != nil {
		return nil, err
	}
	ctrl.ID = cfg.idPrefix + spec.Name
	if cfg.tooltips {
		ctrl.Tooltip = spec.Doc
	}
	env := reg.Env()
	env.Kinds = kinds

	bindingOptions := append([]binding.Option{binding.WithFactory(factory, env)}, cfg.bindingOptions...)
	b, err := binding.New(s, ctrl, bindingOptions...)
	if err != nil {
		return nil, fmt.Errorf("form: bind %q: %w", spec.Name, err)
	}
	return &Field{Spec: spec, Control: ctrl, Binding: b}, nil
}

// labelText is empty for actions, whose button already carries the name.
func labelText(s *schema.Schema, spec schema.ParameterSpec) string {
	if s.Kinds().IsA(spec.Kind.Tag(), schema.TagAction) {
		return ""
	}
	return spec.DisplayLabel()
}

func rowFor(field *Field) *control.Control {
	body := field.Control
	if path := field.Binding.PathControl(); path != nil {
		body = &control.Control{
			ID:       field.Control.ID + "-box",
			Field:    field.Spec.Name,
			Widget:   control.WidgetColumn,
			Children: []*control.Control{path, field.Control},
		}
	}
	row := &control.Control{
		ID:     field.Control.ID + "-row",
		Field:  field.Spec.Name,
		Widget: control.WidgetRow,
	}
	if field.Label != nil {
		row.Children = append(row.Children, field.Label)
	}
	row.Children = append(row.Children, body)
	return row
}

func assemble(form *Form, cfg config) *control.Control {
	layout := control.Layout{}
	if cfg.closeButton {
		layout.Border = "solid 1px"
	}
	container := control.WidgetColumn
	if cfg.layout == LayoutRow {
		container = control.WidgetRow
	}

	fields := &control.Control{ID: cfg.idPrefix + "fields", Widget: container, Layout: layout}
	if form.Header != nil {
		fields.Children = append(fields.Children, form.Header)
	}
	for _, field := range form.Fields {
		fields.Children = append(fields.Children, field.Row)
	}
	if form.CloseButton != nil {
		fields.Children = append(fields.Children, form.CloseButton)
	}
	if form.RunButton != nil {
		fields.Children = append(fields.Children, form.RunButton)
	}
	if len(form.Outputs) == 0 {
		return fields
	}

	views := &control.Control{ID: cfg.idPrefix + "views", Widget: container, Layout: layout}
	for _, field := range form.Outputs {
		views.Children = append(views.Children, field.Row)
	}
	root := &control.Control{ID: cfg.idPrefix + "root", Widget: control.WidgetColumn}
	if cfg.viewPosition == ViewRight || cfg.viewPosition == ViewLeft {
		root.Widget = control.WidgetRow
	}
	if cfg.viewPosition == ViewBelow || cfg.viewPosition == ViewRight {
		root.Children = []*control.Control{fields, views}
	} else {
		root.Children = []*control.Control{views, fields}
	}
	return root
}

// Package html renders control trees as HTML fragments using pongo2
// templates. Container controls are laid out as nested divs; every leaf goes
// through templates/control.tmpl and the result is wrapped by form.tmpl.
package html

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	stdhtml "html"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-paramform/internal/literal"
	"github.com/goliatone/go-paramform/pkg/control"
	"github.com/goliatone/go-paramform/pkg/render"
	"github.com/goliatone/go-paramform/pkg/schema"
)

const (
	formTemplate    = "form.tmpl"
	controlTemplate = "control.tmpl"
)

// Option configures the renderer.
type Option func(*config)

type config struct {
	templateFS fs.FS
	policy     *bluemonday.Policy
	class      string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS. The bundle
// must provide form.tmpl and control.tmpl at its root.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithHTMLPolicy replaces the sanitiser applied to HTML views and outputs.
func WithHTMLPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.policy = policy
		}
	}
}

// WithFormClass sets the data-class attribute of the form element.
func WithFormClass(class string) Option {
	return func(cfg *config) {
		cfg.class = strings.TrimSpace(class)
	}
}

// Renderer paints control trees as HTML.
type Renderer struct {
	engine *engine
	policy *bluemonday.Policy
	class  string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the HTML renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.policy == nil {
		cfg.policy = markupPolicy()
	}

	eng, err := newEngine(cfg.templateFS)
	if err != nil {
		return nil, fmt.Errorf("html renderer: configure templates: %w", err)
	}
	return &Renderer{engine: eng, policy: cfg.policy, class: cfg.class}, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render implements render.Renderer.
func (r *Renderer) Render(_ context.Context, root *control.Control, options render.RenderOptions) ([]byte, error) {
	if r == nil || r.engine == nil {
		return nil, errors.New("html renderer: template engine is nil")
	}
	if root == nil {
		return nil, errors.New("html renderer: root control is nil")
	}

	palette := options.PaletteOrDefault()
	var body strings.Builder
	if err := r.node(&body, root, options, palette.Strong); err != nil {
		return nil, err
	}

	out, err := r.engine.render(formTemplate, pongo2.Context{
		"id":           root.ID,
		"class":        r.class,
		"form_errors":  options.FormErrors,
		"error_colour": palette.Strong,
		"body":         body.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("html renderer: %w", err)
	}
	return []byte(out), nil
}

func (r *Renderer) node(buf *strings.Builder, node *control.Control, options render.RenderOptions, errorColour string) error {
	if node == nil || node.Hidden {
		return nil
	}
	if isContainer(node.Widget) {
		fmt.Fprintf(buf, `<div class="pf-%s" id="%s"%s>`, node.Widget, stdhtml.EscapeString(node.ID), styleAttr(node.Layout))
		buf.WriteString("\n")
		for _, child := range node.Children {
			if err := r.node(buf, child, options, errorColour); err != nil {
				return err
			}
		}
		buf.WriteString("</div>\n")
		return nil
	}

	data := r.viewModel(node)
	data["error_colour"] = errorColour
	if node.Field != "" && node.Widget != control.WidgetLabel {
		data["errors"] = options.Errors[node.Field]
	}
	out, err := r.engine.render(controlTemplate, data)
	if err != nil {
		return fmt.Errorf("html renderer: control %q: %w", node.ID, err)
	}
	buf.WriteString(out)
	return nil
}

type optionView struct {
	Label    string
	Selected bool
}

func (r *Renderer) viewModel(node *control.Control) pongo2.Context {
	data := pongo2.Context{
		"id":         node.ID,
		"field":      node.Field,
		"widget":     string(node.Widget),
		"text":       node.Text,
		"tooltip":    sanitizeText(node.Tooltip),
		"style":      styleValue(node.Layout),
		"disabled":   node.Disabled,
		"editable":   node.Editable,
		"continuous": node.Continuous,
		"min":        scalar(node.Min),
		"max":        scalar(node.Max),
		"step":       scalar(node.Step),
		"value":      scalar(node.Value),
	}

	switch node.Widget {
	case control.WidgetHeader, control.WidgetButton:
		if node.Text == "" {
			data["text"] = node.Label
		}
	case control.WidgetLabel:
		data["text"] = node.Label
		if node.Label == "" {
			data["text"] = node.Text
		}
		data["target"] = strings.TrimSuffix(node.ID, "-label")
	case control.WidgetCheckbox:
		checked, _ := node.Value.(bool)
		data["checked"] = checked
	case control.WidgetIntRangeSlider, control.WidgetFloatRangeSlider:
		lo, hi := pair(node.Value, node.Min, node.Max)
		data["lo"], data["hi"] = lo, hi
	case control.WidgetDatePicker:
		data["value"] = dateText(node.Value, node.Text)
		data["min"] = dateText(node.Min, "")
		data["max"] = dateText(node.Max, "")
	case control.WidgetDropdown:
		data["options"] = optionViews(node.Options, selectedOne(node.Value))
	case control.WidgetSelectMultiple:
		data["options"] = optionViews(node.Options, selectedMany(node.Value))
	case control.WidgetCrossSelect:
		chosen := labels(node.Value)
		data["chosen"] = chosen
		data["available"] = without(node.Options, chosen)
	case control.WidgetHTML:
		text := node.Text
		if text == "" {
			text = scalar(node.Value)
		}
		data["html"] = r.policy.Sanitize(text)
	case control.WidgetOutput:
		value, width, height := unsize(node.Value)
		data["html"] = r.policy.Sanitize(scalar(value))
		data["width"], data["height"] = width, height
	case control.WidgetImage:
		value, width, height := unsize(node.Value)
		data["src"] = imageSource(value)
		data["width"], data["height"] = width, height
	}
	return data
}

func isContainer(w control.Widget) bool {
	return w == control.WidgetRow || w == control.WidgetColumn || w == control.WidgetBox
}

func styleValue(layout control.Layout) string {
	var parts []string
	if layout.Width != "" {
		parts = append(parts, "width: "+layout.Width)
	}
	if layout.MinWidth != "" {
		parts = append(parts, "min-width: "+layout.MinWidth)
	}
	if layout.MinHeight != "" {
		parts = append(parts, "min-height: "+layout.MinHeight)
	}
	if layout.Border != "" && layout.Border != "0px" {
		parts = append(parts, "border: "+layout.Border)
	}
	return strings.Join(parts, "; ")
}

func styleAttr(layout control.Layout) string {
	style := styleValue(layout)
	if style == "" {
		return ""
	}
	return ` style="` + stdhtml.EscapeString(style) + `"`
}

func scalar(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case time.Time:
		return typed.Format(time.DateOnly)
	case fmt.Stringer:
		return typed.String()
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, bool:
		return fmt.Sprint(typed)
	}
	return literal.Format(value)
}

func dateText(value any, fallback string) string {
	if ts, ok := value.(time.Time); ok {
		return ts.Format(time.DateOnly)
	}
	if fallback != "" {
		return fallback
	}
	return scalar(value)
}

func pair(value, lo, hi any) (string, string) {
	switch typed := value.(type) {
	case []any:
		if len(typed) == 2 {
			return scalar(typed[0]), scalar(typed[1])
		}
	case []float64:
		if len(typed) == 2 {
			return scalar(typed[0]), scalar(typed[1])
		}
	case []int:
		if len(typed) == 2 {
			return scalar(typed[0]), scalar(typed[1])
		}
	}
	return scalar(lo), scalar(hi)
}

func labels(value any) []string {
	switch typed := value.(type) {
	case []string:
		return typed
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			out = append(out, scalar(item))
		}
		return out
	}
	return nil
}

func selectedOne(value any) map[string]bool {
	label, ok := value.(string)
	if !ok {
		return nil
	}
	return map[string]bool{label: true}
}

func selectedMany(value any) map[string]bool {
	set := make(map[string]bool)
	for _, label := range labels(value) {
		set[label] = true
	}
	return set
}

func optionViews(options []string, selected map[string]bool) []optionView {
	out := make([]optionView, 0, len(options))
	for _, label := range options {
		out = append(out, optionView{Label: label, Selected: selected[label]})
	}
	return out
}

func without(all, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, label := range remove {
		drop[label] = struct{}{}
	}
	out := make([]string, 0, len(all))
	for _, label := range all {
		if _, ok := drop[label]; !ok {
			out = append(out, label)
		}
	}
	return out
}

func unsize(value any) (any, int, int) {
	if sized, ok := value.(schema.Sized); ok {
		return sized.Value, sized.Width, sized.Height
	}
	if sized, ok := value.(*schema.Sized); ok && sized != nil {
		return sized.Value, sized.Width, sized.Height
	}
	return value, 0, 0
}

// imageSource accepts a URL or raw PNG bytes.
func imageSource(value any) string {
	switch typed := value.(type) {
	case []byte:
		if len(typed) == 0 {
			return ""
		}
		return "data:image/png;base64," + base64.StdEncoding.EncodeToString(typed)
	case string:
		return typed
	}
	return ""
}

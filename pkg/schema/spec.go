package schema

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// DefaultPrecedence is applied to fields that do not declare one.
const DefaultPrecedence = 1e-8

// ParameterSpec declares one field of a schema.
type ParameterSpec struct {
	Name  string
	Label string
	Kind  Kind
	Value any
	Doc   string

	Bounds  Bounds
	Options Options

	// Precedence orders fields ascending. Nil means DefaultPrecedence and the
	// field is never hidden by a display threshold.
	Precedence *float64

	Constant  bool
	AllowNone bool

	// Pattern constrains string values.
	Pattern string
	// Length fixes the arity of tuple values. Ranges default to 2.
	Length int

	// Instantiate marks choice options as factories whose product becomes the
	// value once selected.
	Instantiate bool

	// ItemLimit overrides the dispatch threshold above which a multi-choice
	// field becomes a cross-select. Negative forces a cross-select.
	ItemLimit *int

	// Validate adds a field-specific constraint checked after the kind rules.
	Validate func(value any) error

	// Render converts a view field's value into displayable output.
	Render ViewFunc

	// Path and Resolve drive path-populated choice fields: Resolve maps the
	// current path pattern to the option set.
	Path    string
	Resolve OptionResolver
}

// Precedence returns a pointer usable as ParameterSpec.Precedence.
func Precedence(v float64) *float64 {
	return &v
}

// Limit returns a pointer usable as ParameterSpec.ItemLimit.
func Limit(n int) *int {
	return &n
}

// IsConstant reports whether the field is read-only.
func (p ParameterSpec) IsConstant() bool {
	return p.Constant || p.Kind.IsConstant()
}

// EffectivePrecedence returns the declared precedence or fallback.
func (p ParameterSpec) EffectivePrecedence(fallback float64) float64 {
	if p.Precedence == nil {
		return fallback
	}
	return *p.Precedence
}

// DisplayLabel returns Label, falling back to the field name.
func (p ParameterSpec) DisplayLabel() string {
	if strings.TrimSpace(p.Label) != "" {
		return p.Label
	}
	return p.Name
}

// ChoiceOptions returns the options a choice control offers. For
// instantiable fields holding a product, the product is offered under its
// type name so the current selection stays representable.
func (p ParameterSpec) ChoiceOptions() Options {
	out := append(Options(nil), p.Options...)
	if !p.Instantiate || p.Value == nil {
		return out
	}
	if _, isFactory := p.Value.(Factory); isFactory || out.Contains(p.Value) {
		return out
	}
	label := TypeName(p.Value)
	for i, option := range out {
		if option.Label == label {
			out[i].Value = p.Value
			return out
		}
	}
	return append(out, Option{Label: label, Value: p.Value})
}

// LabelFor derives a label from a field name: underscores become spaces and
// the first letter is capitalised.
func LabelFor(name string) string {
	label := strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
	if label == "" {
		return ""
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

// Bounds constrains numeric and date values. A nil side is unbounded.
type Bounds struct {
	Min          any
	Max          any
	ExclusiveMin bool
	ExclusiveMax bool
}

// Bounded reports whether both sides are set.
func (b Bounds) Bounded() bool {
	return b.Min != nil && b.Max != nil
}

// Option is a labelled choice.
type Option struct {
	Label string
	Value any
}

// Options is an ordered label to value mapping.
type Options []Option

// Named is implemented by values that carry their own display name.
type Named interface {
	Name() string
}

// NamedOptions labels each value by its Name method or its printed form.
func NamedOptions(values ...any) Options {
	out := make(Options, 0, len(values))
	for _, value := range values {
		out = append(out, Option{Label: LabelOf(value), Value: value})
	}
	return out
}

// LabelOf returns the display label for a single choice value.
func LabelOf(value any) string {
	switch typed := value.(type) {
	case Named:
		return typed.Name()
	case Factory:
		return TypeName(typed)
	case nil:
		return ""
	default:
		return fmt.Sprint(value)
	}
}

// Labels returns option labels in order.
func (o Options) Labels() []string {
	out := make([]string, len(o))
	for i, option := range o {
		out[i] = option.Label
	}
	return out
}

// Lookup returns the value for label.
func (o Options) Lookup(label string) (any, bool) {
	for _, option := range o {
		if option.Label == label {
			return option.Value, true
		}
	}
	return nil, false
}

// LabelFor returns the label of the first option holding value.
func (o Options) LabelFor(value any) (string, bool) {
	for _, option := range o {
		if Equal(option.Value, value) {
			return option.Label, true
		}
	}
	return "", false
}

// Contains reports whether value is one of the option values.
func (o Options) Contains(value any) bool {
	_, ok := o.LabelFor(value)
	return ok
}

// Values returns option values in order.
func (o Options) Values() []any {
	out := make([]any, len(o))
	for i, option := range o {
		out[i] = option.Value
	}
	return out
}

// Factory produces a fresh value when an instantiable option is selected.
type Factory interface {
	New() (any, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func() (any, error)

// New implements Factory.
func (f FactoryFunc) New() (any, error) {
	return f()
}

// Parameterized is implemented by values that expose an editable schema of
// their own, such as the product of an instantiable option.
type Parameterized interface {
	Schema() *Schema
}

// ActionFunc is the value of an action field.
type ActionFunc func(ctx context.Context, s *Schema) error

// ViewFunc renders a view field value.
type ViewFunc func(value any) (any, error)

// OptionResolver produces options for a path-driven choice field.
type OptionResolver func(pattern string) (Options, error)

// Sized attaches display dimensions to a view value.
type Sized struct {
	Value  any
	Width  int
	Height int
}

// TypeName reports a short type name for value.
func TypeName(value any) string {
	if value == nil {
		return ""
	}
	if named, ok := value.(Named); ok {
		return named.Name()
	}
	t := reflect.TypeOf(value)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// Equal compares two field values, falling back to deep equality for
// uncomparable values.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == tb {
		switch ta.Kind() {
		case reflect.Struct, reflect.Array, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		default:
			return a == b
		}
	}
	return reflect.DeepEqual(a, b)
}

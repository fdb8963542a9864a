package schema

import (
	"errors"
	"fmt"
	"strings"
)

// TitleField is the reserved field rendered as a form header.
const TitleField = "name"

// Observer receives committed values of a field.
type Observer func(name string, value any)

type observer struct {
	id int
	fn Observer
}

type field struct {
	spec      ParameterSpec
	value     any
	allowNone bool
	observers []observer
}

// Schema is an ordered set of typed fields with validated writes. Its shape is
// fixed at construction; only values (and choice options) change afterwards.
type Schema struct {
	class  string
	kinds  *KindTable
	order  []string
	fields map[string]*field
	nextID int
}

// New builds a schema over DefaultKinds.
func New(class string, specs ...ParameterSpec) (*Schema, error) {
	return NewWithKinds(DefaultKinds(), class, specs...)
}

// NewWithKinds builds a schema resolving kinds against table. Declared values
// are taken as-is; they are not checked against the field constraints.
func NewWithKinds(table *KindTable, class string, specs ...ParameterSpec) (*Schema, error) {
	if table == nil {
		table = DefaultKinds()
	}
	s := &Schema{
		class:  strings.TrimSpace(class),
		kinds:  table,
		order:  make([]string, 0, len(specs)),
		fields: make(map[string]*field, len(specs)),
	}
	for _, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return nil, errors.New("schema: field name is required")
		}
		if _, exists := s.fields[name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, name)
		}
		tag := spec.Kind.Tag()
		if !table.Known(tag) {
			return nil, fmt.Errorf("%w: %q on field %q", ErrUnknownKind, tag, name)
		}
		spec.Name = name
		spec.Options = append(Options(nil), spec.Options...)
		s.order = append(s.order, name)
		s.fields[name] = &field{
			spec:      spec,
			value:     spec.Value,
			allowNone: spec.AllowNone || spec.Value == nil,
		}
	}
	return s, nil
}

// MustNew panics when New fails.
func MustNew(class string, specs ...ParameterSpec) *Schema {
	s, err := New(class, specs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Class returns the schema class name.
func (s *Schema) Class() string {
	if s == nil {
		return ""
	}
	return s.class
}

// Kinds returns the table used to resolve field kinds.
func (s *Schema) Kinds() *KindTable {
	if s == nil {
		return DefaultKinds()
	}
	return s.kinds
}

// Names returns field names in declaration order.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Has reports whether name is declared.
func (s *Schema) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.fields[name]
	return ok
}

// Spec returns the declaration of name with its current value.
func (s *Schema) Spec(name string) (ParameterSpec, bool) {
	if s == nil {
		return ParameterSpec{}, false
	}
	f, ok := s.fields[name]
	if !ok {
		return ParameterSpec{}, false
	}
	spec := f.spec
	spec.Value = f.value
	spec.Options = append(Options(nil), f.spec.Options...)
	return spec, true
}

// Specs returns every declaration in order.
func (s *Schema) Specs() []ParameterSpec {
	if s == nil {
		return nil
	}
	out := make([]ParameterSpec, 0, len(s.order))
	for _, name := range s.order {
		spec, _ := s.Spec(name)
		out = append(out, spec)
	}
	return out
}

// Get returns the current value of name.
func (s *Schema) Get(name string) (any, bool) {
	if s == nil {
		return nil, false
	}
	f, ok := s.fields[name]
	if !ok {
		return nil, false
	}
	return f.value, true
}

// Values returns a snapshot of every field value.
func (s *Schema) Values() map[string]any {
	if s == nil {
		return nil
	}
	out := make(map[string]any, len(s.order))
	for _, name := range s.order {
		out[name] = s.fields[name].value
	}
	return out
}

// Title returns the value of the reserved name field, or "" when absent.
func (s *Schema) Title() string {
	value, ok := s.Get(TitleField)
	if !ok || value == nil {
		return ""
	}
	return fmt.Sprint(value)
}

// Check runs the constraint check for name without applying the value. It
// returns the value as it would be stored.
func (s *Schema) Check(name string, value any) (any, error) {
	if s == nil {
		return nil, errors.New("schema: schema is nil")
	}
	f, ok := s.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if f.spec.IsConstant() {
		return nil, &ValidationError{Field: name, Value: value, Err: ErrConstantField}
	}
	return s.normalize(f, value)
}

// Set validates value and stores it, notifying the field observers. A
// rejected value is returned as *ValidationError and leaves the field as-is.
func (s *Schema) Set(name string, value any) error {
	normalized, err := s.Check(name, value)
	if err != nil {
		return err
	}
	f := s.fields[name]
	f.value = normalized
	s.notify(name, f)
	return nil
}

// SetOptions replaces the option set of a choice field. The current value is
// left untouched.
func (s *Schema) SetOptions(name string, options Options) error {
	if s == nil {
		return errors.New("schema: schema is nil")
	}
	f, ok := s.fields[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if !s.kinds.IsA(f.spec.Kind.Tag(), TagSelector) {
		return fmt.Errorf("schema: field %q is not a choice field", name)
	}
	f.spec.Options = append(Options(nil), options...)
	return nil
}

// SetPath records the path pattern of a path-driven choice field.
func (s *Schema) SetPath(name, pattern string) error {
	if s == nil {
		return errors.New("schema: schema is nil")
	}
	f, ok := s.fields[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	f.spec.Path = pattern
	return nil
}

// Observe registers fn for committed values of name. The returned function
// removes the registration.
func (s *Schema) Observe(name string, fn Observer) (cancel func()) {
	if s == nil || fn == nil {
		return func() {}
	}
	f, ok := s.fields[name]
	if !ok {
		return func() {}
	}
	s.nextID++
	id := s.nextID
	f.observers = append(f.observers, observer{id: id, fn: fn})
	return func() {
		for i, entry := range f.observers {
			if entry.id == id {
				f.observers = append(f.observers[:i:i], f.observers[i+1:]...)
				return
			}
		}
	}
}

func (s *Schema) notify(name string, f *field) {
	if len(f.observers) == 0 {
		return
	}
	observers := append([]observer(nil), f.observers...)
	for _, entry := range observers {
		entry.fn(name, f.value)
	}
}

package widgets

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-paramform/pkg/control"
	"github.com/goliatone/go-paramform/pkg/schema"
)

// DefaultItemLimit is the option count above which a multi-choice field is
// rendered as a cross-select.
const DefaultItemLimit = 20

// DefaultRangeSteps divides a bounded float range into slider steps.
const DefaultRangeSteps = 50

// Factory builds the control for one field.
type Factory func(spec schema.ParameterSpec, env Env) (*control.Control, error)

// Env carries registry-wide settings into factories.
type Env struct {
	Kinds *schema.KindTable
	// ItemLimit is the cross-select threshold. Negative forces a cross-select.
	ItemLimit int
	// CrossSelect is false when cross-selects are disabled altogether.
	CrossSelect bool
	RangeSteps  int
	// Continuous makes sliders commit while they are dragged.
	Continuous bool
}

// IsA reports whether spec's kind descends from tag.
func (e Env) IsA(spec schema.ParameterSpec, tag schema.Tag) bool {
	kinds := e.Kinds
	if kinds == nil {
		kinds = schema.DefaultKinds()
	}
	return kinds.IsA(spec.Kind.Tag(), tag)
}

// ErrNoFactory is wrapped by ConfigurationError when dispatch finds nothing.
var ErrNoFactory = errors.New("widgets: no factory registered")

// ConfigurationError reports a field whose kind has no factory anywhere in its
// lineage. It aborts form building.
type ConfigurationError struct {
	Field string
	Kind  schema.Kind
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("widgets: field %q of kind %s: %v", e.Field, e.Kind, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Option customises a Registry.
type Option func(*Registry)

// WithKinds resolves lineages against table instead of schema.DefaultKinds.
func WithKinds(table *schema.KindTable) Option {
	return func(r *Registry) {
		if table != nil {
			r.kinds = table
		}
	}
}

// WithItemLimit sets the cross-select threshold. Negative values force a
// cross-select for every multi-choice field.
func WithItemLimit(limit int) Option {
	return func(r *Registry) {
		r.itemLimit = limit
		r.crossSelect = true
	}
}

// WithoutCrossSelect always renders multi-choice fields as plain lists.
func WithoutCrossSelect() Option {
	return func(r *Registry) {
		r.crossSelect = false
	}
}

// WithRangeSteps sets the number of slider steps for float ranges.
func WithRangeSteps(steps int) Option {
	return func(r *Registry) {
		if steps > 0 {
			r.rangeSteps = steps
		}
	}
}

// WithContinuousUpdate makes sliders commit on every drag step.
func WithContinuousUpdate(on bool) Option {
	return func(r *Registry) {
		r.continuous = on
	}
}

// Registry maps kind tags to control factories. Resolution walks the kind
// lineage most specific first; constant fields always use the display
// factory. Registrations may change at any time before a form is built.
type Registry struct {
	mu          sync.RWMutex
	kinds       *schema.KindTable
	factories   map[schema.Tag]Factory
	display     Factory
	itemLimit   int
	crossSelect bool
	rangeSteps  int
	continuous  bool
}

// NewRegistry constructs a registry with the built-in factories registered.
func NewRegistry(options ...Option) *Registry {
	reg := &Registry{
		kinds:       schema.DefaultKinds(),
		factories:   make(map[schema.Tag]Factory),
		display:     DisplayFactory,
		itemLimit:   DefaultItemLimit,
		crossSelect: true,
		rangeSteps:  DefaultRangeSteps,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(reg)
	}
	reg.registerBuiltins()
	return reg
}

// Register binds factory to tag, replacing any previous binding.
func (r *Registry) Register(tag schema.Tag, factory Factory) error {
	if r == nil {
		return errors.New("widgets: registry is nil")
	}
	if factory == nil {
		return errors.New("widgets: factory is required")
	}
	trimmed := schema.Tag(strings.TrimSpace(string(tag)))
	if trimmed == "" {
		return errors.New("widgets: kind tag is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[trimmed] = factory
	return nil
}

// RegisterDisplay replaces the read-only display factory used for constants.
func (r *Registry) RegisterDisplay(factory Factory) {
	if r == nil || factory == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.display = factory
}

// Unregister removes the binding for tag.
func (r *Registry) Unregister(tag schema.Tag) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, tag)
}

// Kinds returns the table used for lineage walks.
func (r *Registry) Kinds() *schema.KindTable {
	if r == nil {
		return schema.DefaultKinds()
	}
	return r.kinds
}

// Env returns the settings handed to factories.
func (r *Registry) Env() Env {
	if r == nil {
		return Env{Kinds: schema.DefaultKinds(), ItemLimit: DefaultItemLimit, CrossSelect: true, RangeSteps: DefaultRangeSteps}
	}
	return Env{
		Kinds:       r.kinds,
		ItemLimit:   r.itemLimit,
		CrossSelect: r.crossSelect,
		RangeSteps:  r.rangeSteps,
		Continuous:  r.continuous,
	}
}

// Resolve returns the factory for spec using the registry's kind table.
func (r *Registry) Resolve(spec schema.ParameterSpec) (Factory, error) {
	return r.ResolveWith(r.Kinds(), spec)
}

// ResolveWith returns the factory for spec, walking spec's lineage in kinds.
func (r *Registry) ResolveWith(kinds *schema.KindTable, spec schema.ParameterSpec) (Factory, error) {
	if r == nil {
		return nil, errors.New("widgets: registry is nil")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if spec.IsConstant() && r.display != nil {
		return r.display, nil
	}
	if kinds == nil {
		kinds = r.kinds
	}
	for _, tag := range kinds.Lineage(spec.Kind.Tag()) {
		if factory, ok := r.factories[tag]; ok {
			return factory, nil
		}
	}
	return nil, &ConfigurationError{Field: spec.Name, Kind: spec.Kind, Err: ErrNoFactory}
}

// Build resolves and invokes the factory for spec.
func (r *Registry) Build(kinds *schema.KindTable, spec schema.ParameterSpec) (*control.Control, error) {
	factory, err := r.ResolveWith(kinds, spec)
	if err != nil {
		return nil, err
	}
	env := r.Env()
	if kinds != nil {
		env.Kinds = kinds
	}
	ctrl, err := factory(spec, env)
	if err != nil {
		return nil, &ConfigurationError{Field: spec.Name, Kind: spec.Kind, Err: err}
	}
	if ctrl == nil {
		return nil, &ConfigurationError{Field: spec.Name, Kind: spec.Kind, Err: errors.New("factory returned no control")}
	}
	if ctrl.Field == "" {
		ctrl.Field = spec.Name
	}
	return ctrl, nil
}

func (r *Registry) registerBuiltins() {
	builtins := map[schema.Tag]Factory{
		schema.TagParameter:    TextFactory,
		schema.TagBoolean:      CheckboxFactory,
		schema.TagNumber:       NumberFactory,
		schema.TagInteger:      NumberFactory,
		schema.TagDate:         DateFactory,
		schema.TagString:       TextFactory,
		schema.TagColor:        ColorFactory,
		schema.TagDict:         TextFactory,
		schema.TagList:         TextFactory,
		schema.TagTuple:        TextFactory,
		schema.TagRange:        RangeFactory,
		schema.TagSelector:     DropdownFactory,
		schema.TagListSelector: MultiChoiceFactory,
		schema.TagAction:       ButtonFactory,
		schema.TagView:         OutputFactory,
		schema.TagImageView:    ImageFactory,
	}
	for tag, factory := range builtins {
		r.factories[tag] = factory
	}
}

// Package binding keeps one rendered control and one schema field in sync.
//
// Control to schema: Finalize decodes the control input, writes it through
// the schema's validated path and hands successful commits to the execution
// controller. Schema to control: writes made elsewhere are pushed to the
// control as in-place patches. A guard stops a write started by Finalize from
// echoing back into the control it came from.
package binding

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-paramform/internal/literal"
	"github.com/goliatone/go-paramform/pkg/control"
	"github.com/goliatone/go-paramform/pkg/crossselect"
	"github.com/goliatone/go-paramform/pkg/execution"
	"github.com/goliatone/go-paramform/pkg/schema"
	"github.com/goliatone/go-paramform/pkg/style"
	"github.com/goliatone/go-paramform/pkg/widgets"
)

// Phase is the edit state of a binding.
type Phase int

const (
	Idle Phase = iota
	Editing
	Validating
	Committed
	Failed
)

func (p Phase) String() string {
	switch p {
	case Editing:
		return "editing"
	case Validating:
		return "validating"
	case Committed:
		return "committed"
	case Failed:
		return "error"
	default:
		return "idle"
	}
}

// State is a snapshot of a binding.
type State struct {
	// RawInput is the last unparsed input, kept visible while in error.
	RawInput  string
	Committed any
	Err       error
	// Pending is true while a batched commit of this field awaits a flush.
	Pending bool
	Phase   Phase
}

// Updater receives in-place patches for rendered controls.
type Updater interface {
	Update(ctx context.Context, id string, patch control.Patch) error
}

// Editor opens a nested editing session for a choice value that has a schema
// of its own.
type Editor interface {
	Edit(ctx context.Context, s *schema.Schema) error
}

// EditorFunc adapts a function to Editor.
type EditorFunc func(ctx context.Context, s *schema.Schema) error

// Edit implements Editor.
func (f EditorFunc) Edit(ctx context.Context, s *schema.Schema) error {
	return f(ctx, s)
}

var (
	// ErrNotAction is returned by Click on fields that hold no action.
	ErrNotAction = errors.New("binding: field is not an action")
	// ErrNoEditor is returned by OpenEditor when nothing can edit the value.
	ErrNoEditor = errors.New("binding: no editor for value")
	// ErrNoPath is returned by EditPath on fields without a path resolver.
	ErrNoPath = errors.New("binding: field has no path resolver")
)

// Option customises a Binding.
type Option func(*Binding)

// WithFactory sets the factory used to refresh the control after a write.
func WithFactory(factory widgets.Factory, env widgets.Env) Option {
	return func(b *Binding) {
		b.factory = factory
		b.env = env
	}
}

// WithExecution routes commits to exec.
func WithExecution(exec *execution.Controller) Option {
	return func(b *Binding) {
		b.exec = exec
	}
}

// WithTarget forwards control patches to a render target.
func WithTarget(target Updater) Option {
	return func(b *Binding) {
		b.target = target
	}
}

// WithPalette sets the error border colours.
func WithPalette(palette style.Palette) Option {
	return func(b *Binding) {
		b.palette = palette
	}
}

// WithEditor sets the collaborator behind the dropdown edit affordance.
func WithEditor(editor Editor) Option {
	return func(b *Binding) {
		b.editor = editor
	}
}

// WithLogger sets the logger for rejected edits and target failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Binding) {
		b.logger = logger
	}
}

// Binding synchronises one field. It is driven from the event goroutine and
// is not safe for concurrent use.
type Binding struct {
	schema  *schema.Schema
	field   string
	ctrl    *control.Control
	path    *control.Control
	cross   *crossselect.Control
	factory widgets.Factory
	env     widgets.Env
	exec    *execution.Controller
	target  Updater
	palette style.Palette
	editor  Editor
	logger  zerolog.Logger

	state   State
	syncing bool
	cancel  func()
}

// New binds ctrl to the schema field named by ctrl.Field.
func New(s *schema.Schema, ctrl *control.Control, options ...Option) (*Binding, error) {
	if s == nil {
		return nil, errors.New("binding: schema is nil")
	}
	if ctrl == nil {
		return nil, errors.New("binding: control is nil")
	}
	spec, ok := s.Spec(ctrl.Field)
	if !ok {
		return nil, fmt.Errorf("%w: %q", schema.ErrUnknownField, ctrl.Field)
	}
	b := &Binding{
		schema:  s,
		field:   spec.Name,
		ctrl:    ctrl,
		env:     widgets.Env{Kinds: s.Kinds()},
		palette: style.DefaultPalette(),
		logger:  zerolog.Nop(),
		state:   State{Committed: spec.Value, RawInput: ctrl.Text},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(b)
	}

	if ctrl.Widget == control.WidgetCrossSelect {
		b.cross = crossselect.New(spec.ChoiceOptions())
		if items, ok := spec.Value.([]any); ok {
			b.cross.SetValues(items)
		}
		ctrl.Value = b.cross.Labels()
	}
	if spec.Path != "" && spec.Resolve != nil {
		b.path = &control.Control{
			ID:     pathID(ctrl.ID),
			Field:  spec.Name,
			Widget: control.WidgetText,
			Value:  spec.Path,
			Text:   spec.Path,
		}
	}
	if isView(ctrl.Widget) {
		if rendered, ok := b.renderView(spec); ok {
			ctrl.Value = rendered
		}
	}
	b.cancel = s.Observe(b.field, b.observe)
	return b, nil
}

func pathID(id string) string {
	if id == "" {
		return ""
	}
	return id + "-path"
}

func isView(w control.Widget) bool {
	return w == control.WidgetOutput || w == control.WidgetImage
}

// Field returns the bound field name.
func (b *Binding) Field() string {
	if b == nil {
		return ""
	}
	return b.field
}

// Control returns the bound control.
func (b *Binding) Control() *control.Control {
	if b == nil {
		return nil
	}
	return b.ctrl
}

// PathControl returns the companion path control of a path-driven choice
// field, or nil.
func (b *Binding) PathControl() *control.Control {
	if b == nil {
		return nil
	}
	return b.path
}

// CrossSelect returns the transfer state of a cross-select field, or nil.
func (b *Binding) CrossSelect() *crossselect.Control {
	if b == nil {
		return nil
	}
	return b.cross
}

// State returns a snapshot of the binding.
func (b *Binding) State() State {
	if b == nil {
		return State{}
	}
	state := b.state
	if b.exec != nil && b.exec.Mode() == execution.Batched {
		_, state.Pending = b.exec.Pending()[b.field]
	}
	return state
}

// Edit records raw input while the user is typing.
func (b *Binding) Edit(raw string) {
	if b == nil {
		return
	}
	b.state.Phase = Editing
	b.state.RawInput = raw
}

// Finalize validates input and commits it. Parse, instantiation and
// validation failures leave the binding in the error phase and are reported
// through State; the returned error is reserved for delivery and render
// target failures.
func (b *Binding) Finalize(ctx context.Context, input any) error {
	if b == nil {
		return errors.New("binding: binding is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	spec, _ := b.schema.Spec(b.field)
	b.state.Phase = Validating
	b.state.RawInput = rawText(input)

	value, err := b.decode(spec, input)
	if err == nil {
		b.syncing = true
		err = b.schema.Set(b.field, value)
		b.syncing = false
	}
	if err != nil {
		return b.fail(ctx, err)
	}
	return b.commit(ctx)
}

// Transfer commits the staged labels of a cross-select side and finalizes
// the resulting value.
func (b *Binding) Transfer(ctx context.Context, side crossselect.Side) error {
	if b == nil || b.cross == nil {
		return errors.New("binding: field is not a cross-select")
	}
	if !b.cross.CommitTransfer(side) {
		return nil
	}
	return b.Finalize(ctx, b.cross.Value())
}

// Click invokes the action held by the field.
func (b *Binding) Click(ctx context.Context) error {
	if b == nil {
		return errors.New("binding: binding is nil")
	}
	value, _ := b.schema.Get(b.field)
	switch fn := value.(type) {
	case schema.ActionFunc:
		return fn(ctx, b.schema)
	case func(*schema.Schema) error:
		return fn(b.schema)
	}
	return fmt.Errorf("%w: %q", ErrNotAction, b.field)
}

// OpenEditor hands the selected value's schema to the editor.
func (b *Binding) OpenEditor(ctx context.Context) error {
	if b == nil {
		return errors.New("binding: binding is nil")
	}
	value, _ := b.schema.Get(b.field)
	nested, ok := value.(schema.Parameterized)
	if !ok || b.editor == nil {
		return fmt.Errorf("%w: %q", ErrNoEditor, b.field)
	}
	return b.editor.Edit(ctx, nested.Schema())
}

// EditPath re-resolves the options of a path-driven choice field. A current
// value that is no longer offered is replaced by the first option, and the
// selection is finalized so immediate mode notifies.
func (b *Binding) EditPath(ctx context.Context, pattern string) error {
	if b == nil {
		return errors.New("binding: binding is nil")
	}
	spec, _ := b.schema.Spec(b.field)
	if spec.Resolve == nil {
		return fmt.Errorf("%w: %q", ErrNoPath, b.field)
	}
	options, err := spec.Resolve(pattern)
	if err != nil {
		return b.fail(ctx, &EvalError{Field: b.field, Input: pattern, Err: err})
	}
	if err := b.schema.SetPath(b.field, pattern); err != nil {
		return err
	}
	if err := b.schema.SetOptions(b.field, options); err != nil {
		return err
	}
	if b.path != nil {
		b.path.Apply(control.SetValue(pattern).Merge(control.SetText(pattern)))
	}

	patch := control.SetOptions(options.Labels()).Merge(control.SetDisabled(len(options) == 0))
	if err := b.push(ctx, patch); err != nil {
		return err
	}
	if len(options) == 0 {
		return nil
	}
	value := spec.Value
	if !options.Contains(value) {
		value = options[0].Value
	}
	return b.Finalize(ctx, value)
}

// Close stops mirroring schema writes into the control.
func (b *Binding) Close() {
	if b == nil || b.cancel == nil {
		return
	}
	b.cancel()
	b.cancel = nil
}

func (b *Binding) decode(spec schema.ParameterSpec, input any) (any, error) {
	is := func(tag schema.Tag) bool { return b.schema.Kinds().IsA(spec.Kind.Tag(), tag) }
	text, isText := input.(string)

	switch {
	case is(schema.TagListSelector):
		return b.decodeMulti(spec, input), nil
	case is(schema.TagSelector):
		return b.decodeChoice(spec, input)
	case is(schema.TagDict), is(schema.TagList), is(schema.TagTuple):
		if !isText {
			return input, nil
		}
		value, err := literal.Parse(text)
		if err != nil {
			return nil, &EvalError{Field: spec.Name, Input: text, Err: err}
		}
		return value, nil
	case !isText:
		return input, nil
	case is(schema.TagBoolean):
		value, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return nil, &EvalError{Field: spec.Name, Input: text, Err: err}
		}
		return value, nil
	case is(schema.TagDate):
		return input, nil
	case is(schema.TagInteger):
		value, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			return nil, &EvalError{Field: spec.Name, Input: text, Err: err}
		}
		return value, nil
	case is(schema.TagNumber):
		value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil, &EvalError{Field: spec.Name, Input: text, Err: err}
		}
		return value, nil
	}
	return input, nil
}

func (b *Binding) decodeChoice(spec schema.ParameterSpec, input any) (any, error) {
	value := input
	label := schema.LabelOf(input)
	if text, ok := input.(string); ok {
		if found, ok := spec.ChoiceOptions().Lookup(text); ok {
			value, label = found, text
		}
	}
	if !spec.Instantiate {
		return value, nil
	}
	factory, ok := value.(schema.Factory)
	if !ok {
		return value, nil
	}
	product, err := factory.New()
	if err != nil {
		return nil, &InstantiateError{Field: spec.Name, Option: label, Err: err}
	}
	return product, nil
}

func (b *Binding) decodeMulti(spec schema.ParameterSpec, input any) any {
	labels, ok := input.([]string)
	if !ok {
		return input
	}
	options := spec.ChoiceOptions()
	values := make([]any, 0, len(labels))
	for _, label := range labels {
		if value, found := options.Lookup(label); found {
			values = append(values, value)
			continue
		}
		values = append(values, label)
	}
	return values
}

func (b *Binding) commit(ctx context.Context) error {
	spec, _ := b.schema.Spec(b.field)
	b.state.Phase = Committed
	b.state.Committed = spec.Value
	b.state.Err = nil

	patch := b.refresh(spec).Merge(control.SetBorder(b.palette.Border(style.TierNone)))
	if err := b.push(ctx, patch); err != nil {
		return err
	}
	if b.exec == nil {
		return nil
	}
	return b.exec.Commit(ctx, b.field, spec.Value)
}

func (b *Binding) fail(ctx context.Context, err error) error {
	b.state.Phase = Failed
	b.state.Err = err
	b.logger.Debug().Err(err).Str("field", b.field).Str("tier", TierOf(err).String()).Msg("edit rejected")

	patch := control.SetBorder(b.palette.Border(TierOf(err)))
	if b.ctrl.Widget == control.WidgetText {
		patch = patch.Merge(control.SetText(b.state.RawInput))
	}
	return b.push(ctx, patch)
}

func (b *Binding) observe(_ string, value any) {
	if b.syncing {
		return
	}
	spec, _ := b.schema.Spec(b.field)
	spec.Value = value
	b.state = State{Phase: Committed, Committed: value}

	patch := b.refresh(spec).Merge(control.SetBorder(b.palette.Border(style.TierNone)))
	if err := b.push(context.Background(), patch); err != nil {
		b.logger.Warn().Err(err).Str("field", b.field).Msg("push schema update")
	}
}

// refresh derives the control state for spec's current value, reusing the
// factory that built the control.
func (b *Binding) refresh(spec schema.ParameterSpec) control.Patch {
	switch {
	case b.cross != nil:
		// A write that came from Transfer already matches the partitions;
		// rebuilding would replace the sorted order with option order.
		if items, _ := spec.Value.([]any); !schema.Equal(items, b.cross.Value()) {
			b.cross.SetValues(items)
		}
		return control.SetValue(b.cross.Labels())
	case isView(b.ctrl.Widget):
		if rendered, ok := b.renderView(spec); ok {
			return control.SetValue(rendered)
		}
		return control.Patch{}
	case b.factory == nil:
		return control.SetValue(spec.Value)
	}
	fresh, err := b.factory(spec, b.env)
	if err != nil || fresh == nil {
		b.logger.Warn().Err(err).Str("field", b.field).Msg("refresh control")
		return control.SetValue(spec.Value)
	}
	patch := control.SetValue(fresh.Value).
		Merge(control.SetText(fresh.Text)).
		Merge(control.SetDisabled(fresh.Disabled)).
		Merge(control.SetEditable(fresh.Editable))
	if fresh.Options != nil {
		patch = patch.Merge(control.SetOptions(fresh.Options))
	}
	return patch
}

// renderView runs the field renderer. Nil values are not rendered.
func (b *Binding) renderView(spec schema.ParameterSpec) (any, bool) {
	if spec.Value == nil {
		return nil, false
	}
	if spec.Render == nil {
		return spec.Value, true
	}
	rendered, err := spec.Render(spec.Value)
	if err != nil {
		b.logger.Warn().Err(err).Str("field", b.field).Msg("render view")
		return nil, false
	}
	return rendered, true
}

func (b *Binding) push(ctx context.Context, patch control.Patch) error {
	if patch.Empty() {
		return nil
	}
	b.ctrl.Apply(patch)
	if b.target == nil || b.ctrl.ID == "" {
		return nil
	}
	if err := b.target.Update(ctx, b.ctrl.ID, patch); err != nil {
		return fmt.Errorf("binding: update %q: %w", b.ctrl.ID, err)
	}
	return nil
}

func rawText(input any) string {
	switch typed := input.(type) {
	case nil:
		return ""
	case string:
		return typed
	case []string:
		return strings.Join(typed, ", ")
	}
	return literal.Format(input)
}

// Package session wires a schema, its form, the execution controller and a
// render target into one editing session.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-paramform/pkg/binding"
	"github.com/goliatone/go-paramform/pkg/control"
	"github.com/goliatone/go-paramform/pkg/execution"
	"github.com/goliatone/go-paramform/pkg/form"
	"github.com/goliatone/go-paramform/pkg/initializer"
	"github.com/goliatone/go-paramform/pkg/render"
	"github.com/goliatone/go-paramform/pkg/schema"
	"github.com/goliatone/go-paramform/pkg/style"
	"github.com/goliatone/go-paramform/pkg/widgets"
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session: closed")

// initErrorPrefix namespaces initializer issues in the error payload.
const initErrorPrefix = "init."

// Option customises a Session.
type Option func(*Session)

// WithID fixes the session id. Control ids are prefixed with it.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = strings.TrimSpace(id)
	}
}

// WithTarget sets where the form is displayed and patched.
func WithTarget(target render.Target) Option {
	return func(s *Session) {
		s.target = target
	}
}

// WithRenderers sets the registry used by Render.
func WithRenderers(registry *render.Registry) Option {
	return func(s *Session) {
		s.renderers = registry
	}
}

// WithWidgets sets the dispatch registry used to build controls.
func WithWidgets(registry *widgets.Registry) Option {
	return func(s *Session) {
		s.widgets = registry
	}
}

// WithInitializer applies initial values before the form is built.
func WithInitializer(init *initializer.Initializer) Option {
	return func(s *Session) {
		s.initializer = init
	}
}

// WithExecution passes options to the execution controller.
func WithExecution(options ...execution.Option) Option {
	return func(s *Session) {
		s.execOptions = append(s.execOptions, options...)
	}
}

// WithForm passes options to the form builder.
func WithForm(options ...form.Option) Option {
	return func(s *Session) {
		s.formOptions = append(s.formOptions, options...)
	}
}

// WithPalette sets the error border colours.
func WithPalette(palette style.Palette) Option {
	return func(s *Session) {
		s.palette = palette
	}
}

// WithEditor replaces the nested-session editor behind editable dropdowns.
func WithEditor(editor binding.Editor) Option {
	return func(s *Session) {
		s.editor = editor
	}
}

// WithCloseButton adds a button that closes the session.
func WithCloseButton() Option {
	return func(s *Session) {
		s.closeButton = true
	}
}

// WithOnInit executes the controller once after the first Show.
func WithOnInit() Option {
	return func(s *Session) {
		s.onInit = true
	}
}

// WithLogger sets the logger shared by the session and its parts.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// Session owns one form. Like its bindings it is driven from the event
// goroutine; only Wait may be called from elsewhere.
type Session struct {
	id          string
	schema      *schema.Schema
	form        *form.Form
	exec        *execution.Controller
	target      render.Target
	renderers   *render.Registry
	widgets     *widgets.Registry
	initializer *initializer.Initializer
	execOptions []execution.Option
	formOptions []form.Option
	palette     style.Palette
	editor      binding.Editor
	closeButton bool
	onInit      bool
	logger      zerolog.Logger

	parent   *Session
	children []*Session
	issues   []initializer.Issue
	shown    bool
	closed   bool
}

// New applies the initializer to s and builds its form. Missing
// collaborators fall back to an in-memory target, the built-in widgets and an
// editor that opens a nested session.
func New(s *schema.Schema, options ...Option) (*Session, error) {
	if s == nil {
		return nil, errors.New("session: schema is nil")
	}
	sess := &Session{
		schema: s,
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(sess)
	}
	sess.applyDefaults()

	if sess.initializer != nil {
		issues, err := sess.initializer.Apply(s)
		if err != nil {
			return nil, fmt.Errorf("session: initializer: %w", err)
		}
		sess.issues = issues
	}

	execOptions := append([]execution.Option{execution.WithLogger(sess.logger)}, sess.execOptions...)
	sess.exec = execution.New(s, execOptions...)

	formOptions := append([]form.Option{form.WithIDPrefix(sess.prefix())}, sess.formOptions...)
	if sess.exec.HasRunButton() {
		formOptions = append(formOptions, form.WithRunButton(sess.exec.RunLabel()))
	}
	if sess.closeButton {
		formOptions = append(formOptions, form.WithCloseButton())
	}
	formOptions = append(formOptions, form.WithBindingOptions(
		binding.WithExecution(sess.exec),
		binding.WithTarget(sess.target),
		binding.WithPalette(sess.palette),
		binding.WithEditor(sess.editor),
		binding.WithLogger(sess.logger),
	))

	built, err := form.Build(s, sess.widgets, formOptions...)
	if err != nil {
		return nil, fmt.Errorf("session: build form: %w", err)
	}
	sess.form = built
	sess.logger.Debug().
		Str("session", sess.id).
		Str("class", s.Class()).
		Int("fields", len(built.Fields)).
		Int("issues", len(sess.issues)).
		Msg("session built")
	return sess, nil
}

func (s *Session) applyDefaults() {
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.target == nil {
		s.target = render.NewRecorder()
	}
	if s.widgets == nil {
		s.widgets = widgets.NewRegistry(widgets.WithKinds(s.schema.Kinds()))
	}
	if s.palette == (style.Palette{}) {
		s.palette = style.DefaultPalette()
	}
	if s.editor == nil {
		s.editor = binding.EditorFunc(s.openNested)
	}
}

// prefix is the first block of the id, enough to keep nested sessions apart.
func (s *Session) prefix() string {
	head, _, _ := strings.Cut(s.id, "-")
	return head + "-"
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Schema returns the edited schema.
func (s *Session) Schema() *schema.Schema {
	return s.schema
}

// Form returns the built form.
func (s *Session) Form() *form.Form {
	return s.form
}

// Execution returns the controller commits are routed to.
func (s *Session) Execution() *execution.Controller {
	return s.exec
}

// Target returns the display target.
func (s *Session) Target() render.Target {
	return s.target
}

// Issues returns the initial values that could not be applied.
func (s *Session) Issues() []initializer.Issue {
	return append([]initializer.Issue(nil), s.issues...)
}

// Children returns the nested sessions opened from this one.
func (s *Session) Children() []*Session {
	return append([]*Session(nil), s.children...)
}

// Closed reports whether Close ran.
func (s *Session) Closed() bool {
	return s.closed
}

// Show displays the form. A nested session is shown inside its parent's
// tree. The first Show of a session created WithOnInit also executes the
// controller once with no changes.
func (s *Session) Show(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.display(ctx); err != nil {
		return err
	}
	if s.shown {
		return nil
	}
	s.shown = true
	if !s.onInit {
		return nil
	}
	if err := s.exec.Execute(ctx, nil); err != nil {
		return fmt.Errorf("session: on init: %w", err)
	}
	return nil
}

func (s *Session) display(ctx context.Context) error {
	if s.parent == nil {
		if err := s.target.Display(ctx, s.form.Root); err != nil {
			return fmt.Errorf("session: display: %w", err)
		}
		return nil
	}
	root := s.parent.form.Root
	if root.Find(s.form.Root.ID) == nil {
		root.Children = append(root.Children, s.form.Root)
	}
	return s.parent.display(ctx)
}

// Run flushes the pending changes, as the run button does.
func (s *Session) Run(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	return s.exec.Flush(ctx)
}

// Press dispatches a button press by control id: the run button, the close
// button or an action field.
func (s *Session) Press(ctx context.Context, id string) error {
	if s.closed {
		return ErrClosed
	}
	switch {
	case s.form.RunButton != nil && id == s.form.RunButton.ID:
		return s.Run(ctx)
	case s.form.CloseButton != nil && id == s.form.CloseButton.ID:
		return s.Close(ctx)
	}
	for _, field := range s.form.Fields {
		if field.Control.ID == id {
			return field.Binding.Click(ctx)
		}
	}
	for _, child := range s.children {
		if !child.closed && child.form.Root.Find(id) != nil {
			return child.Press(ctx, id)
		}
	}
	return fmt.Errorf("session: no button %q", id)
}

// Close unsubscribes every binding, hides the form, closes nested sessions
// and releases any waiter.
func (s *Session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	s.closed = true
	for _, child := range s.children {
		_ = child.Close(ctx)
	}
	s.form.Close()
	s.exec.Release()

	s.form.Root.Apply(control.SetHidden(true))
	if !s.shown {
		return nil
	}
	if err := s.target.Update(ctx, s.form.Root.ID, control.SetHidden(true)); err != nil && !errors.Is(err, render.ErrNotDisplayed) {
		s.logger.Warn().Err(err).Str("session", s.id).Msg("hide closed session")
		return fmt.Errorf("session: hide: %w", err)
	}
	s.logger.Debug().Str("session", s.id).Msg("session closed")
	return nil
}

// Wait raises the release flag and blocks until a delivery or Close clears
// it, or ctx ends.
func (s *Session) Wait(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	s.exec.Hold()
	return s.exec.Wait(ctx)
}

// Errors maps the binding errors and initializer issues onto the form:
// field messages keyed by field name and form-level messages for the rest.
func (s *Session) Errors() render.ErrorMapping {
	payload := make(map[string][]string)
	for _, b := range s.form.Bindings() {
		if err := b.State().Err; err != nil {
			payload[b.Field()] = append(payload[b.Field()], err.Error())
		}
	}
	for _, issue := range s.issues {
		key := initErrorPrefix + issue.Field
		payload[key] = append(payload[key], issue.String())
	}
	return render.MapErrorPayload(s.form.Root, payload)
}

// RenderOptions collects the palette and error messages for a static render.
func (s *Session) RenderOptions() render.RenderOptions {
	mapping := s.Errors()
	return render.RenderOptions{
		Palette:    s.palette,
		Errors:     mapping.Fields,
		FormErrors: mapping.Form,
	}
}

// Render paints the form with the named renderer.
func (s *Session) Render(ctx context.Context, name string) ([]byte, error) {
	if s.renderers == nil {
		return nil, errors.New("session: no renderer registry configured")
	}
	return s.renderers.Render(ctx, name, s.form.Root, s.RenderOptions())
}

// openNested edits child in a session shown inside this one, with a close
// button and the same collaborators.
func (s *Session) openNested(ctx context.Context, child *schema.Schema) error {
	nested, err := New(child,
		WithTarget(s.target),
		WithRenderers(s.renderers),
		WithPalette(s.palette),
		WithCloseButton(),
		WithLogger(s.logger),
	)
	if err != nil {
		return err
	}
	nested.parent = s
	s.children = append(s.children, nested)
	s.logger.Debug().Str("session", s.id).Str("nested", nested.id).Str("class", child.Class()).Msg("nested session opened")
	return nested.Show(ctx)
}

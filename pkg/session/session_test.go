package session_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-paramform/pkg/control"
	"github.com/goliatone/go-paramform/pkg/execution"
	"github.com/goliatone/go-paramform/pkg/initializer"
	"github.com/goliatone/go-paramform/pkg/render"
	"github.com/goliatone/go-paramform/pkg/renderers/term"
	"github.com/goliatone/go-paramform/pkg/schema"
	"github.com/goliatone/go-paramform/pkg/session"
	"github.com/goliatone/go-paramform/pkg/testsupport"
)

func demoSchema(t *testing.T) *schema.Schema {
	t.Helper()
	return testsupport.MustSchema(t, "Demo",
		schema.ParameterSpec{Name: "name", Kind: schema.String, Value: "Demo"},
		schema.ParameterSpec{Name: "x", Kind: schema.Number, Value: 1.0, Bounds: schema.Bounds{Min: 0.0, Max: 10.0}},
	)
}

func TestSession_BatchedRunButtonFlushes(t *testing.T) {
	t.Parallel()

	notes := &testsupport.Recorder{}
	recorder := render.NewRecorder()
	sess, err := session.New(demoSchema(t),
		session.WithID("demo"),
		session.WithTarget(recorder),
		session.WithExecution(execution.WithMode(execution.Batched), execution.WithCallback(notes.Callback)),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	if err := sess.Show(ctx); err != nil {
		t.Fatalf("show: %v", err)
	}
	if recorder.Displays() != 1 || recorder.Root().Find("demo-x") == nil {
		t.Fatalf("expected the form to be displayed with prefixed ids")
	}

	run := sess.Form().RunButton
	if run == nil || run.ID != "demo-run" || run.Text != sess.Execution().RunLabel() {
		t.Fatalf("unexpected run button %+v", run)
	}

	if err := sess.Form().Binding("x").Finalize(ctx, 5.0); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if len(notes.Calls()) != 0 {
		t.Fatalf("batched edits must wait for the run button")
	}
	if err := sess.Press(ctx, "demo-run"); err != nil {
		t.Fatalf("press run: %v", err)
	}
	if diff := cmp.Diff([]execution.Changes{{"x": 5.0}}, notes.Calls()); diff != "" {
		t.Fatalf("notifications mismatch (-want +got):\n%s", diff)
	}
	if err := sess.Press(ctx, "demo-missing"); err == nil {
		t.Fatalf("expected unknown button error")
	}
}

func TestSession_InitializerIssuesBecomeErrors(t *testing.T) {
	t.Parallel()

	loader := initializer.New(initializer.WithLookupEnv(func(string) (string, bool) {
		return `{"x": 99, "nme": "Other"}`, true
	}))
	sess, err := session.New(demoSchema(t), session.WithInitializer(loader))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if len(sess.Issues()) != 2 {
		t.Fatalf("expected two issues, got %v", sess.Issues())
	}
	if got, _ := sess.Schema().Get("x"); got != 1.0 {
		t.Fatalf("invalid initial value must be skipped, got %v", got)
	}

	mapping := sess.Errors()
	if len(mapping.Fields["x"]) != 1 {
		t.Fatalf("expected the x issue on the field, got %v", mapping.Fields)
	}
	if len(mapping.Form) != 1 || !strings.Contains(mapping.Form[0], `"name"`) {
		t.Fatalf("expected a form-level suggestion, got %v", mapping.Form)
	}

	if err := sess.Form().Binding("x").Finalize(context.Background(), 11.0); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if got := sess.Errors().Fields["x"]; len(got) != 2 {
		t.Fatalf("expected binding error next to the issue, got %v", got)
	}
}

func TestSession_OnInitExecutesOnce(t *testing.T) {
	t.Parallel()

	notes := &testsupport.Recorder{}
	sess, err := session.New(demoSchema(t),
		session.WithOnInit(),
		session.WithExecution(execution.WithCallback(notes.Callback)),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := sess.Show(ctx); err != nil {
			t.Fatalf("show: %v", err)
		}
	}
	if diff := cmp.Diff([]execution.Changes{{}}, notes.Calls()); diff != "" {
		t.Fatalf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_CloseButtonTearsDown(t *testing.T) {
	t.Parallel()

	recorder := render.NewRecorder()
	s := demoSchema(t)
	sess, err := session.New(s, session.WithID("demo"), session.WithTarget(recorder), session.WithCloseButton())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	if err := sess.Show(ctx); err != nil {
		t.Fatalf("show: %v", err)
	}
	if sess.Form().Root.Layout.Border == "" {
		t.Fatalf("closable forms are bordered")
	}
	if err := sess.Press(ctx, "demo-close"); err != nil {
		t.Fatalf("press close: %v", err)
	}
	if !sess.Closed() || !recorder.Root().Hidden {
		t.Fatalf("expected a hidden, closed session")
	}
	want := []testsupport.Node{
		{Depth: 0, ID: "demo-fields", Widget: control.WidgetColumn, Hidden: true},
		{Depth: 1, ID: "demo-header", Widget: control.WidgetHeader, Text: "Demo"},
		{Depth: 1, ID: "demo-x-row", Widget: control.WidgetRow},
		{Depth: 2, ID: "demo-x-label", Widget: control.WidgetLabel, Text: "x"},
		{Depth: 2, ID: "demo-x", Widget: control.WidgetFloatSlider},
		{Depth: 1, ID: "demo-close", Widget: control.WidgetButton, Text: "Close"},
	}
	if diff := cmp.Diff(want, testsupport.Outline(recorder.Root())); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}

	before := len(recorder.Updates())
	if err := s.Set("x", 3.0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(recorder.Updates()) != before {
		t.Fatalf("closed bindings must stop mirroring writes")
	}
	if err := sess.Run(ctx); !errors.Is(err, session.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestSession_WaitReleasedByRun(t *testing.T) {
	t.Parallel()

	notes := &testsupport.Recorder{}
	sess, err := session.New(demoSchema(t),
		session.WithExecution(execution.WithMode(execution.Batched), execution.WithCallback(notes.Callback)),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- sess.Wait(ctx) }()
	for !sess.Execution().Held() {
		time.Sleep(time.Millisecond)
	}
	if err := sess.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("wait: %v", err)
	}
}

type circle struct{ radius int }

func (c *circle) Schema() *schema.Schema {
	return schema.MustNew("circle", schema.ParameterSpec{Name: "radius", Kind: schema.Integer, Value: c.radius})
}

func TestSession_EditorOpensNestedSession(t *testing.T) {
	t.Parallel()

	s := schema.MustNew("Shapes", schema.ParameterSpec{
		Name:        "shape",
		Kind:        schema.Selector,
		Instantiate: true,
		Options: schema.Options{
			{Label: "circle", Value: schema.FactoryFunc(func() (any, error) { return &circle{radius: 2}, nil })},
		},
	})
	recorder := render.NewRecorder()
	sess, err := session.New(s, session.WithTarget(recorder))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	if err := sess.Show(ctx); err != nil {
		t.Fatalf("show: %v", err)
	}
	b := sess.Form().Binding("shape")
	if err := b.Finalize(ctx, "circle"); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if err := b.OpenEditor(ctx); err != nil {
		t.Fatalf("open editor: %v", err)
	}

	children := sess.Children()
	if len(children) != 1 || children[0].Schema().Class() != "circle" {
		t.Fatalf("expected one nested circle session, got %d", len(children))
	}
	nested := children[0]
	if recorder.Root().Find(nested.Form().Root.ID) == nil {
		t.Fatalf("nested form must be shown inside the parent")
	}
	closeButton := nested.Form().CloseButton
	if closeButton == nil {
		t.Fatalf("nested sessions carry a close button")
	}
	if err := sess.Press(ctx, closeButton.ID); err != nil {
		t.Fatalf("press nested close: %v", err)
	}
	if !nested.Closed() || sess.Closed() {
		t.Fatalf("only the nested session should close")
	}
	if !recorder.Root().Find(nested.Form().Root.ID).Hidden {
		t.Fatalf("closed nested form must be hidden")
	}
}

func TestSession_Render(t *testing.T) {
	t.Parallel()

	registry, err := render.NewRegistry(term.New())
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	sess, err := session.New(demoSchema(t), session.WithRenderers(registry))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := sess.Form().Binding("x").Finalize(context.Background(), 11.0); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	out, err := sess.Render(context.Background(), "term")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), "Demo") || !strings.Contains(string(out), "! ") {
		t.Fatalf("expected header and field error, got:\n%s", out)
	}
	if _, err := sess.Render(context.Background(), "pdf"); err == nil {
		t.Fatalf("expected unknown renderer error")
	}
}

package form

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-paramform/pkg/binding"
	"github.com/goliatone/go-paramform/pkg/control"
	"github.com/goliatone/go-paramform/pkg/execution"
	"github.com/goliatone/go-paramform/pkg/schema"
	"github.com/goliatone/go-paramform/pkg/widgets"
)

func TestBuild_DemoScenario(t *testing.T) {
	t.Parallel()

	s := schema.MustNew("Demo",
		schema.ParameterSpec{Name: "x", Kind: schema.Number, Value: 1.0, Bounds: schema.Bounds{Min: 0.0, Max: 10.0}},
		schema.ParameterSpec{Name: "name", Kind: schema.String, Value: "Demo"},
	)
	var calls []execution.Changes
	exec := execution.New(s, execution.WithCallback(func(_ context.Context, _ *schema.Schema, changed execution.Changes) error {
		calls = append(calls, changed)
		return nil
	}))

	form, err := Build(s, nil, WithBindingOptions(binding.WithExecution(exec)))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(form.Close)

	if form.Header == nil || form.Header.Text != "Demo" {
		t.Fatalf("expected Demo header, got %+v", form.Header)
	}
	if diff := cmp.Diff([]string{"x"}, form.Names()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	b := form.Binding("x")
	_ = b.Finalize(context.Background(), 11.0)
	var verr *schema.ValidationError
	if !errors.As(b.State().Err, &verr) {
		t.Fatalf("expected validation error, got %v", b.State().Err)
	}
	if got, _ := s.Get("x"); got != 1.0 {
		t.Fatalf("x changed to %v", got)
	}
	_ = b.Finalize(context.Background(), 5.0)
	if diff := cmp.Diff([]execution.Changes{{"x": 5.0}}, calls); diff != "" {
		t.Fatalf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_NoHeaderWithoutNameField(t *testing.T) {
	t.Parallel()

	s := schema.MustNew("C", schema.ParameterSpec{Name: "x", Kind: schema.Boolean, Value: true})
	form, err := Build(s, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if form.Header != nil {
		t.Fatalf("expected no header")
	}
	if form.Root.Children[0] != form.Fields[0].Row {
		t.Fatalf("expected first child to be the x row")
	}
}

func TestOrder_StableByPrecedence(t *testing.T) {
	t.Parallel()

	specs := []schema.ParameterSpec{
		{Name: "c", Precedence: schema.Precedence(2)},
		{Name: "a"},
		{Name: "z", Precedence: schema.Precedence(1)},
		{Name: "b"},
		{Name: "y", Precedence: schema.Precedence(1)},
		{Name: "first", Precedence: schema.Precedence(-1)},
	}
	got := Order(specs, schema.DefaultPrecedence)
	names := make([]string, 0, len(got))
	for _, spec := range got {
		names = append(names, spec.Name)
	}
	if diff := cmp.Diff([]string{"first", "a", "b", "z", "y", "c"}, names); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	swapped := []schema.ParameterSpec{specs[4], specs[1], specs[2], specs[3], specs[0], specs[5]}
	names = names[:0]
	for _, spec := range Order(swapped, schema.DefaultPrecedence) {
		names = append(names, spec.Name)
	}
	if diff := cmp.Diff([]string{"first", "a", "b", "y", "z", "c"}, names); diff != "" {
		t.Fatalf("equal precedence must keep declaration order (-want +got):\n%s", diff)
	}
}

func TestBuild_DisplayThreshold(t *testing.T) {
	t.Parallel()

	s := schema.MustNew("C",
		schema.ParameterSpec{Name: "hidden", Kind: schema.Integer, Value: 1, Precedence: schema.Precedence(-1)},
		schema.ParameterSpec{Name: "plain", Kind: schema.Integer, Value: 1},
		schema.ParameterSpec{Name: "shown", Kind: schema.Integer, Value: 1, Precedence: schema.Precedence(0.5)},
	)
	form, err := Build(s, nil, WithDisplayThreshold(0.5))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if diff := cmp.Diff([]string{"plain", "shown"}, form.Names()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if _, ok := form.Field("hidden"); ok {
		t.Fatalf("hidden field was built")
	}
}

func TestBuild_Labels(t *testing.T) {
	t.Parallel()

	s := schema.MustNew("C",
		schema.ParameterSpec{Name: "a_rather_long_field_name", Kind: schema.String, Value: "x", Doc: "help"},
		schema.ParameterSpec{Name: "go", Kind: schema.Action},
	)
	form, err := Build(s, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	field, _ := form.Field("a_rather_long_field_name")
	if field.Label == nil || field.Label.Text != "a_rather_long_field_name" {
		t.Fatalf("unexpected label %+v", field.Label)
	}
	if field.Label.Layout.Width != "180px" || form.LabelWidth != "180px" {
		t.Fatalf("expected estimated width 180px, got %q", field.Label.Layout.Width)
	}
	if field.Control.Tooltip != "help" {
		t.Fatalf("expected tooltip from doc, got %q", field.Control.Tooltip)
	}
	action, _ := form.Field("go")
	if action.Label.Text != "" || action.Control.Text != "go" {
		t.Fatalf("action label should be empty and button named, got %q / %q", action.Label.Text, action.Control.Text)
	}

	bare, err := Build(s, nil, WithLabels(false), WithTooltips(false))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if diff := cmp.Diff(form.Names(), bare.Names()); diff != "" {
		t.Fatalf("labels off changed order (-want +got):\n%s", diff)
	}
	for _, field := range bare.Fields {
		if field.Label != nil || len(field.Row.Children) != 1 {
			t.Fatalf("expected no label for %q", field.Spec.Name)
		}
		if field.Control.Tooltip != "" {
			t.Fatalf("expected tooltips off")
		}
	}
}

func TestEstimateLabelWidth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		labels []string
		min    int
		want   string
	}{
		{[]string{"a"}, 60, "60px"},
		{[]string{"ab", "twelve chars"}, 60, "90px"},
		{[]string{"abc"}, 10, "22px"},
		{[]string{"nine char"}, 60, "67px"},
		{nil, 60, "60px"},
	}
	for _, tt := range tests {
		if got := EstimateLabelWidth(tt.labels, tt.min); got != tt.want {
			t.Fatalf("labels %v: want %s, got %s", tt.labels, tt.want, got)
		}
	}
}

func TestBuild_LabelWidthOverrides(t *testing.T) {
	t.Parallel()

	s := schema.MustNew("C", schema.ParameterSpec{Name: "x", Kind: schema.Integer, Value: 1})
	form, _ := Build(s, nil, WithLabelWidth("10em"))
	if form.LabelWidth != "10em" {
		t.Fatalf("expected fixed width, got %q", form.LabelWidth)
	}
	form, _ = Build(s, nil, WithLabelWidthFunc(func(labels []string) string { return labels[0] + "-w" }))
	if form.LabelWidth != "x-w" {
		t.Fatalf("expected computed width, got %q", form.LabelWidth)
	}
}

func TestBuild_FirstOptionDefault(t *testing.T) {
	t.Parallel()

	s := schema.MustNew("C",
		schema.ParameterSpec{Name: "one", Kind: schema.Selector, Options: schema.NamedOptions("red", "blue")},
		schema.ParameterSpec{Name: "many", Kind: schema.ListSelector, Options: schema.NamedOptions("x", "y")},
		schema.ParameterSpec{Name: "none", Kind: schema.Selector},
	)
	form, err := Build(s, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got, _ := s.Get("one"); got != "red" {
		t.Fatalf("expected first option, got %v", got)
	}
	if got, _ := s.Get("many"); !cmp.Equal(got, []any{"x"}) {
		t.Fatalf("expected [first option], got %v", got)
	}
	one, _ := form.Field("one")
	if one.Control.Value != "red" {
		t.Fatalf("expected control to show the default, got %v", one.Control.Value)
	}
	none, _ := form.Field("none")
	if !none.Control.Disabled {
		t.Fatalf("expected empty selector to render disabled")
	}
}

func TestBuild_ConfigurationErrorAborts(t *testing.T) {
	t.Parallel()

	kinds := schema.NewKindTable()
	if err := kinds.Define("gauge", schema.TagParameter); err != nil {
		t.Fatalf("define: %v", err)
	}
	s, err := schema.NewWithKinds(kinds, "C", schema.ParameterSpec{Name: "g", Kind: schema.Of("gauge")})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	reg := widgets.NewRegistry(widgets.WithKinds(kinds))
	reg.Unregister(schema.TagParameter)

	_, err = Build(s, reg)
	var cfgErr *widgets.ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "g" {
		t.Fatalf("expected ConfigurationError for g, got %v", err)
	}
}

func TestBuild_ButtonsAndViews(t *testing.T) {
	t.Parallel()

	s := schema.MustNew("C",
		schema.ParameterSpec{Name: "n", Kind: schema.Integer, Value: 1},
		schema.ParameterSpec{Name: "plot", Kind: schema.View, Precedence: schema.Precedence(-5)},
	)
	tests := []struct {
		position   ViewPosition
		rootWidget control.Widget
		viewsFirst bool
	}{
		{ViewBelow, control.WidgetColumn, false},
		{ViewAbove, control.WidgetColumn, true},
		{ViewRight, control.WidgetRow, false},
		{ViewLeft, control.WidgetRow, true},
	}
	for _, tt := range tests {
		form, err := Build(s, nil, WithViewPosition(tt.position), WithRunButton("Run 2"), WithCloseButton(), WithIDPrefix("p-"))
		if err != nil {
			t.Fatalf("%s: build: %v", tt.position, err)
		}
		if form.Root.Widget != tt.rootWidget || len(form.Root.Children) != 2 {
			t.Fatalf("%s: unexpected root %+v", tt.position, form.Root)
		}
		views := form.Root.Children[1]
		if tt.viewsFirst {
			views = form.Root.Children[0]
		}
		if views.ID != "p-views" || views.Children[0].ID != "p-plot" {
			t.Fatalf("%s: expected view box, got %+v", tt.position, views)
		}
		if diff := cmp.Diff([]string{"n"}, form.Names()); diff != "" {
			t.Fatalf("%s: views must not be interactive (-want +got):\n%s", tt.position, diff)
		}
		fields := form.Root.Find("p-fields")
		last := fields.Children[len(fields.Children)-1]
		if last != form.RunButton || last.Text != "Run 2" {
			t.Fatalf("%s: expected run button last, got %+v", tt.position, last)
		}
		if fields.Children[len(fields.Children)-2] != form.CloseButton || fields.Layout.Border != "solid 1px" {
			t.Fatalf("%s: expected bordered form with close button", tt.position)
		}
		form.Close()
	}
}

func TestBuild_PathFieldGetsCompanionControl(t *testing.T) {
	t.Parallel()

	s := schema.MustNew("C", schema.ParameterSpec{
		Name:    "file",
		Kind:    schema.FileSelector,
		Options: schema.NamedOptions("a.csv"),
		Path:    "*.csv",
		Resolve: func(string) (schema.Options, error) { return schema.NamedOptions("a.csv"), nil },
	})
	form, err := Build(s, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	field, _ := form.Field("file")
	box := field.Row.Children[1]
	if box.Widget != control.WidgetColumn || len(box.Children) != 2 {
		t.Fatalf("expected path box, got %+v", box)
	}
	if box.Children[0] != field.Binding.PathControl() || box.Children[1] != field.Control {
		t.Fatalf("expected path control above the choice control")
	}
}

package widgets

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-paramform/pkg/control"
	"github.com/goliatone/go-paramform/pkg/schema"
)

func TestRegistry_ResolveBuiltins(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	many := make([]any, 25)
	for i := range many {
		many[i] = i
	}

	tests := []struct {
		name string
		spec schema.ParameterSpec
		want control.Widget
	}{
		{"boolean", schema.ParameterSpec{Name: "b", Kind: schema.Boolean}, control.WidgetCheckbox},
		{"bounded integer", schema.ParameterSpec{Name: "i", Kind: schema.Integer, Value: 1, Bounds: schema.Bounds{Min: 0, Max: 5}}, control.WidgetIntSlider},
		{"open integer", schema.ParameterSpec{Name: "i", Kind: schema.Integer, Value: 1, Bounds: schema.Bounds{Min: 0}}, control.WidgetIntText},
		{"bounded float", schema.ParameterSpec{Name: "f", Kind: schema.Number, Value: 0.5, Bounds: schema.Bounds{Min: 0.0, Max: 1.0}}, control.WidgetFloatSlider},
		{"open float", schema.ParameterSpec{Name: "f", Kind: schema.Number, Value: 0.5}, control.WidgetFloatText},
		{"string", schema.ParameterSpec{Name: "s", Kind: schema.String, Value: "x"}, control.WidgetText},
		{"dict", schema.ParameterSpec{Name: "d", Kind: schema.Dict, Value: map[string]any{}}, control.WidgetText},
		{"colour", schema.ParameterSpec{Name: "c", Kind: schema.Color}, control.WidgetColorPicker},
		{"date", schema.ParameterSpec{Name: "d", Kind: schema.Date}, control.WidgetDatePicker},
		{"int range", schema.ParameterSpec{Name: "r", Kind: schema.Range, Bounds: schema.Bounds{Min: 0, Max: 10}}, control.WidgetIntRangeSlider},
		{"float range", schema.ParameterSpec{Name: "r", Kind: schema.Range, Bounds: schema.Bounds{Min: 0.0, Max: 1.0}}, control.WidgetFloatRangeSlider},
		{"open range", schema.ParameterSpec{Name: "r", Kind: schema.Range, Value: []any{1, 2}}, control.WidgetText},
		{"selector", schema.ParameterSpec{Name: "s", Kind: schema.Selector, Options: schema.NamedOptions("a")}, control.WidgetDropdown},
		{"file selector", schema.ParameterSpec{Name: "s", Kind: schema.FileSelector}, control.WidgetDropdown},
		{"small multi", schema.ParameterSpec{Name: "m", Kind: schema.ListSelector, Options: schema.NamedOptions("a", "b")}, control.WidgetSelectMultiple},
		{"large multi", schema.ParameterSpec{Name: "m", Kind: schema.ListSelector, Options: schema.NamedOptions(many...)}, control.WidgetCrossSelect},
		{"forced multi", schema.ParameterSpec{Name: "m", Kind: schema.ListSelector, Options: schema.NamedOptions("a"), ItemLimit: schema.Limit(-1)}, control.WidgetCrossSelect},
		{"action", schema.ParameterSpec{Name: "go", Kind: schema.Action}, control.WidgetButton},
		{"html view", schema.ParameterSpec{Name: "v", Kind: schema.HTMLView}, control.WidgetOutput},
		{"image view", schema.ParameterSpec{Name: "v", Kind: schema.ImageView}, control.WidgetImage},
		{"constant integer", schema.ParameterSpec{Name: "c", Kind: schema.Constant(schema.Integer), Value: 3}, control.WidgetHTML},
		{"constant flag", schema.ParameterSpec{Name: "c", Kind: schema.Boolean, Constant: true}, control.WidgetHTML},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl, err := reg.Build(nil, tt.spec)
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if ctrl.Widget != tt.want {
				t.Fatalf("widget mismatch: want %s, got %s", tt.want, ctrl.Widget)
			}
			if ctrl.Field != tt.spec.Name {
				t.Fatalf("expected field %q, got %q", tt.spec.Name, ctrl.Field)
			}
		})
	}
}

func TestRegistry_CustomSubKindFallsBackToParent(t *testing.T) {
	t.Parallel()

	kinds := schema.NewKindTable()
	if err := kinds.Define("country", schema.TagSelector); err != nil {
		t.Fatalf("define: %v", err)
	}
	reg := NewRegistry(WithKinds(kinds))
	spec := schema.ParameterSpec{Name: "c", Kind: schema.Of("country"), Options: schema.NamedOptions("NZ")}

	ctrl, err := reg.Build(kinds, spec)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if ctrl.Widget != control.WidgetDropdown {
		t.Fatalf("expected parent dropdown, got %s", ctrl.Widget)
	}

	flags := func(schema.ParameterSpec, Env) (*control.Control, error) {
		return &control.Control{Widget: "flag-picker"}, nil
	}
	if err := reg.Register("country", flags); err != nil {
		t.Fatalf("register: %v", err)
	}
	ctrl, err = reg.Build(kinds, spec)
	if err != nil {
		t.Fatalf("build after register: %v", err)
	}
	if ctrl.Widget != "flag-picker" {
		t.Fatalf("expected most specific factory, got %s", ctrl.Widget)
	}
}

func TestRegistry_UnresolvableKindIsConfigurationError(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Unregister(schema.TagParameter)
	reg.Unregister(schema.TagView)

	_, err := reg.Resolve(schema.ParameterSpec{Name: "v", Kind: schema.HTMLView})
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cfgErr.Field != "v" || !errors.Is(err, ErrNoFactory) {
		t.Fatalf("unexpected configuration error %+v", cfgErr)
	}
}

func TestRegistry_ConstantOverridesCustomFactory(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	_ = reg.Register(schema.TagInteger, func(schema.ParameterSpec, Env) (*control.Control, error) {
		return &control.Control{Widget: "knob"}, nil
	})
	ctrl, err := reg.Build(nil, schema.ParameterSpec{Name: "n", Kind: schema.Constant(schema.Integer), Value: 4})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if ctrl.Widget != control.WidgetHTML || ctrl.Text != "4" {
		t.Fatalf("expected read-only display of 4, got %+v", ctrl)
	}
}

func TestUseCrossSelect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		env   Env
		spec  schema.ParameterSpec
		count int
		want  bool
	}{
		{"below limit", Env{ItemLimit: 20, CrossSelect: true}, schema.ParameterSpec{}, 20, false},
		{"above limit", Env{ItemLimit: 20, CrossSelect: true}, schema.ParameterSpec{}, 21, true},
		{"disabled", Env{ItemLimit: 20, CrossSelect: false}, schema.ParameterSpec{}, 500, false},
		{"negative forces", Env{ItemLimit: -1, CrossSelect: true}, schema.ParameterSpec{}, 1, true},
		{"field override", Env{CrossSelect: false}, schema.ParameterSpec{ItemLimit: schema.Limit(2)}, 3, true},
	}
	for _, tt := range tests {
		if got := UseCrossSelect(tt.spec, tt.env, tt.count); got != tt.want {
			t.Fatalf("%s: want %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestFactories_Values(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(WithRangeSteps(10))

	ctrl, _ := reg.Build(nil, schema.ParameterSpec{Name: "r", Kind: schema.Range, Bounds: schema.Bounds{Min: 0.0, Max: 1.0}})
	if step, _ := ctrl.Step.(float64); step != 0.1 {
		t.Fatalf("expected step 0.1, got %v", ctrl.Step)
	}

	ctrl, _ = reg.Build(nil, schema.ParameterSpec{Name: "d", Kind: schema.Dict, Value: map[string]any{"a": 1}})
	if ctrl.Text != `{"a": 1}` {
		t.Fatalf("expected literal text, got %q", ctrl.Text)
	}

	ctrl, _ = reg.Build(nil, schema.ParameterSpec{Name: "m", Kind: schema.ListSelector, Value: []any{"b", "z"}, Options: schema.NamedOptions("a", "b")})
	if diff := cmp.Diff([]string{"b"}, ctrl.Value); diff != "" {
		t.Fatalf("selected labels mismatch (-want +got):\n%s", diff)
	}

	ctrl, _ = reg.Build(nil, schema.ParameterSpec{Name: "s", Kind: schema.Selector})
	if !ctrl.Disabled {
		t.Fatalf("expected empty selector to render disabled")
	}

	ctrl, _ = reg.Build(nil, schema.ParameterSpec{Name: "run_now", Kind: schema.Action})
	if ctrl.Text != "run_now" {
		t.Fatalf("expected button text from field name, got %q", ctrl.Text)
	}
}

func TestFactories_ContinuousSliders(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(WithContinuousUpdate(true))
	bounded := schema.Bounds{Min: 0, Max: 10}

	ctrl, _ := reg.Build(nil, schema.ParameterSpec{Name: "n", Kind: schema.Integer, Value: 3, Bounds: bounded})
	if !ctrl.Continuous {
		t.Fatalf("expected bounded slider to update continuously")
	}
	ctrl, _ = reg.Build(nil, schema.ParameterSpec{Name: "f", Kind: schema.Number, Value: 3.0})
	if ctrl.Continuous {
		t.Fatalf("text inputs never update continuously")
	}
	ctrl, _ = NewRegistry().Build(nil, schema.ParameterSpec{Name: "n", Kind: schema.Integer, Value: 3, Bounds: bounded})
	if ctrl.Continuous {
		t.Fatalf("continuous update is off by default")
	}
}

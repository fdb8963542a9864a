package widgets

import (
	"fmt"
	"time"

	"github.com/goliatone/go-paramform/internal/literal"
	"github.com/goliatone/go-paramform/pkg/control"
	"github.com/goliatone/go-paramform/pkg/schema"
)

// DefaultColor is shown by colour pickers whose field has no value.
const DefaultColor = "#000000"

// CheckboxFactory renders booleans.
func CheckboxFactory(spec schema.ParameterSpec, _ Env) (*control.Control, error) {
	value, _ := spec.Value.(bool)
	return &control.Control{Widget: control.WidgetCheckbox, Value: value}, nil
}

// TextFactory renders a free-text control. Non-string values are shown as
// literal text.
func TextFactory(spec schema.ParameterSpec, _ Env) (*control.Control, error) {
	text := literal.Format(spec.Value)
	return &control.Control{Widget: control.WidgetText, Value: text, Text: text}, nil
}

// NumberFactory renders a slider when both bounds are set and a numeric text
// control otherwise.
func NumberFactory(spec schema.ParameterSpec, env Env) (*control.Control, error) {
	integer := env.IsA(spec, schema.TagInteger)
	ctrl := &control.Control{Value: spec.Value, Min: spec.Bounds.Min, Max: spec.Bounds.Max}
	switch {
	case integer && spec.Bounds.Bounded():
		ctrl.Widget = control.WidgetIntSlider
		ctrl.Step = 1
	case integer:
		ctrl.Widget = control.WidgetIntText
	case spec.Bounds.Bounded():
		ctrl.Widget = control.WidgetFloatSlider
	default:
		ctrl.Widget = control.WidgetFloatText
	}
	ctrl.Continuous = env.Continuous && spec.Bounds.Bounded()
	if ctrl.Value != nil {
		ctrl.Text = fmt.Sprint(ctrl.Value)
	}
	return ctrl, nil
}

// DateFactory renders a date picker, defaulting to the lower bound.
func DateFactory(spec schema.ParameterSpec, _ Env) (*control.Control, error) {
	value := spec.Value
	if value == nil {
		value = spec.Bounds.Min
	}
	ctrl := &control.Control{Widget: control.WidgetDatePicker, Value: value, Min: spec.Bounds.Min, Max: spec.Bounds.Max}
	if ts, ok := value.(time.Time); ok {
		ctrl.Text = ts.Format(time.DateOnly)
	}
	return ctrl, nil
}

// ColorFactory renders a colour picker.
func ColorFactory(spec schema.ParameterSpec, _ Env) (*control.Control, error) {
	value, _ := spec.Value.(string)
	if value == "" {
		value = DefaultColor
	}
	return &control.Control{Widget: control.WidgetColorPicker, Value: value, Text: value}, nil
}

// RangeFactory renders a two-handle slider when bounded and falls back to
// literal text otherwise. Integer bounds give an integer slider with step 1.
func RangeFactory(spec schema.ParameterSpec, env Env) (*control.Control, error) {
	if !spec.Bounds.Bounded() {
		return TextFactory(spec, env)
	}
	lo, okLo := schema.ToFloat(spec.Bounds.Min)
	hi, okHi := schema.ToFloat(spec.Bounds.Max)
	if !okLo || !okHi {
		return nil, fmt.Errorf("range bounds must be numeric, got %T and %T", spec.Bounds.Min, spec.Bounds.Max)
	}
	ctrl := &control.Control{Value: spec.Value, Min: spec.Bounds.Min, Max: spec.Bounds.Max, Continuous: env.Continuous}
	if isIntegral(spec.Bounds.Min) && isIntegral(spec.Bounds.Max) {
		ctrl.Widget = control.WidgetIntRangeSlider
		ctrl.Step = 1
	} else {
		steps := env.RangeSteps
		if steps <= 0 {
			steps = DefaultRangeSteps
		}
		ctrl.Widget = control.WidgetFloatRangeSlider
		ctrl.Step = (hi - lo) / float64(steps)
	}
	if spec.Value != nil {
		ctrl.Text = literal.Format(spec.Value)
	}
	return ctrl, nil
}

// DropdownFactory renders a single choice. The edit affordance is offered
// when the selected value has a schema of its own. An empty option set gives
// a disabled placeholder.
func DropdownFactory(spec schema.ParameterSpec, _ Env) (*control.Control, error) {
	options := spec.ChoiceOptions()
	ctrl := &control.Control{Widget: control.WidgetDropdown, Options: options.Labels()}
	if len(options) == 0 {
		ctrl.Disabled = true
		return ctrl, nil
	}
	if label, ok := options.LabelFor(spec.Value); ok {
		ctrl.Value = label
		ctrl.Text = label
	}
	_, ctrl.Editable = spec.Value.(schema.Parameterized)
	return ctrl, nil
}

// MultiChoiceFactory renders a plain multi-select for small option sets and a
// cross-select above the item limit.
func MultiChoiceFactory(spec schema.ParameterSpec, env Env) (*control.Control, error) {
	options := spec.ChoiceOptions()
	ctrl := &control.Control{Widget: control.WidgetSelectMultiple, Options: options.Labels()}
	if UseCrossSelect(spec, env, len(options)) {
		ctrl.Widget = control.WidgetCrossSelect
	}
	if len(options) == 0 {
		ctrl.Disabled = true
	}
	ctrl.Value = SelectedLabels(options, spec.Value)
	return ctrl, nil
}

// UseCrossSelect applies the item limit rule for a multi-choice field.
func UseCrossSelect(spec schema.ParameterSpec, env Env, count int) bool {
	limit, enabled := env.ItemLimit, env.CrossSelect
	if spec.ItemLimit != nil {
		limit, enabled = *spec.ItemLimit, true
	}
	if !enabled {
		return false
	}
	return limit < 0 || count > limit
}

// SelectedLabels maps a multi-choice value onto option labels, dropping
// values that are not options.
func SelectedLabels(options schema.Options, value any) []string {
	items, ok := value.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if label, ok := options.LabelFor(item); ok {
			out = append(out, label)
		}
	}
	return out
}

// ButtonFactory renders an action. The button carries the field label.
func ButtonFactory(spec schema.ParameterSpec, _ Env) (*control.Control, error) {
	return &control.Control{Widget: control.WidgetButton, Text: spec.DisplayLabel()}, nil
}

// OutputFactory renders a view output area.
func OutputFactory(_ schema.ParameterSpec, _ Env) (*control.Control, error) {
	return &control.Control{Widget: control.WidgetOutput}, nil
}

// ImageFactory renders an image view.
func ImageFactory(_ schema.ParameterSpec, _ Env) (*control.Control, error) {
	return &control.Control{Widget: control.WidgetImage}, nil
}

// DisplayFactory renders a constant field as read-only text.
func DisplayFactory(spec schema.ParameterSpec, _ Env) (*control.Control, error) {
	text := literal.Format(spec.Value)
	return &control.Control{Widget: control.WidgetHTML, Value: spec.Value, Text: text, Disabled: true}, nil
}

func isIntegral(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

// Package config reads form and session settings from a file and PARAMFORM_*
// environment variables, and turns them into session options.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	theme "github.com/goliatone/go-theme"
	"github.com/spf13/viper"

	"github.com/goliatone/go-paramform/pkg/execution"
	"github.com/goliatone/go-paramform/pkg/form"
	"github.com/goliatone/go-paramform/pkg/schema"
	"github.com/goliatone/go-paramform/pkg/session"
	"github.com/goliatone/go-paramform/pkg/style"
	"github.com/goliatone/go-paramform/pkg/widgets"
)

// EnvPrefix prefixes every environment override, e.g. PARAMFORM_FORM_LAYOUT.
const EnvPrefix = "PARAMFORM"

// Settings holds the configurable behaviour of a session.
type Settings struct {
	Form      FormSettings      `mapstructure:"form"`
	Execution ExecutionSettings `mapstructure:"execution"`
	Widgets   WidgetSettings    `mapstructure:"widgets"`
	Theme     ThemeSettings     `mapstructure:"theme"`
	Log       LogSettings       `mapstructure:"log"`
	Renderer  string            `mapstructure:"renderer"`
}

// FormSettings configure the form builder.
type FormSettings struct {
	DisplayThreshold  float64 `mapstructure:"display_threshold"`
	DefaultPrecedence float64 `mapstructure:"default_precedence"`
	ShowLabels        bool    `mapstructure:"show_labels"`
	Tooltips          bool    `mapstructure:"tooltips"`
	LabelWidth        string  `mapstructure:"label_width"`
	MinLabelPixels    int     `mapstructure:"min_label_pixels"`
	Layout            string  `mapstructure:"layout"`
	ViewPosition      string  `mapstructure:"view_position"`
	CloseButton       bool    `mapstructure:"close_button"`
}

// ExecutionSettings configure delivery.
type ExecutionSettings struct {
	// Button batches commits behind a run button.
	Button bool `mapstructure:"button"`
	// NextN is a unit count or "all".
	NextN  string `mapstructure:"next_n"`
	OnInit bool   `mapstructure:"on_init"`
}

// WidgetSettings configure the dispatch registry.
type WidgetSettings struct {
	ItemLimit        int  `mapstructure:"item_limit"`
	CrossSelect      bool `mapstructure:"cross_select"`
	ContinuousUpdate bool `mapstructure:"continuous_update"`
	RangeSteps       int  `mapstructure:"range_steps"`
}

// ThemeSettings describe the error palette as go-theme tokens. Variant
// tokens override the base tokens.
type ThemeSettings struct {
	Name     string                       `mapstructure:"name"`
	Variant  string                       `mapstructure:"variant"`
	Tokens   map[string]string            `mapstructure:"tokens"`
	Variants map[string]map[string]string `mapstructure:"variants"`
}

// LogSettings configure the command line logger.
type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Form: FormSettings{
			DefaultPrecedence: schema.DefaultPrecedence,
			ShowLabels:        true,
			Tooltips:          true,
			MinLabelPixels:    form.DefaultMinLabelPixels,
			Layout:            string(form.LayoutColumn),
			ViewPosition:      string(form.ViewBelow),
		},
		Execution: ExecutionSettings{NextN: "0"},
		Widgets: WidgetSettings{
			ItemLimit:   widgets.DefaultItemLimit,
			CrossSelect: true,
			RangeSteps:  widgets.DefaultRangeSteps,
		},
		Theme:    ThemeSettings{Name: "default"},
		Log:      LogSettings{Level: "info", Format: "console"},
		Renderer: "html",
	}
}

// Load reads path, or paramform.{toml,yaml,json} from the working directory
// and ~/.config/paramform when path is empty, and applies environment
// overrides. A missing default file is not an error; a missing explicit file
// is.
func Load(path string) (Settings, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("paramform")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "paramform"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("config: read: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return Settings{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func setDefaults(v *viper.Viper, d Settings) {
	v.SetDefault("form.display_threshold", d.Form.DisplayThreshold)
	v.SetDefault("form.default_precedence", d.Form.DefaultPrecedence)
	v.SetDefault("form.show_labels", d.Form.ShowLabels)
	v.SetDefault("form.tooltips", d.Form.Tooltips)
	v.SetDefault("form.label_width", d.Form.LabelWidth)
	v.SetDefault("form.min_label_pixels", d.Form.MinLabelPixels)
	v.SetDefault("form.layout", d.Form.Layout)
	v.SetDefault("form.view_position", d.Form.ViewPosition)
	v.SetDefault("form.close_button", d.Form.CloseButton)
	v.SetDefault("execution.button", d.Execution.Button)
	v.SetDefault("execution.next_n", d.Execution.NextN)
	v.SetDefault("execution.on_init", d.Execution.OnInit)
	v.SetDefault("widgets.item_limit", d.Widgets.ItemLimit)
	v.SetDefault("widgets.cross_select", d.Widgets.CrossSelect)
	v.SetDefault("widgets.continuous_update", d.Widgets.ContinuousUpdate)
	v.SetDefault("widgets.range_steps", d.Widgets.RangeSteps)
	v.SetDefault("theme.name", d.Theme.Name)
	v.SetDefault("theme.variant", d.Theme.Variant)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("renderer", d.Renderer)
}

// Validate checks the enumerated settings.
func (s Settings) Validate() error {
	switch form.Layout(s.Form.Layout) {
	case form.LayoutColumn, form.LayoutRow:
	default:
		return fmt.Errorf("config: form.layout must be row or column, got %q", s.Form.Layout)
	}
	switch form.ViewPosition(s.Form.ViewPosition) {
	case form.ViewBelow, form.ViewAbove, form.ViewLeft, form.ViewRight:
	default:
		return fmt.Errorf("config: form.view_position must be below, above, left or right, got %q", s.Form.ViewPosition)
	}
	if _, err := s.Execution.Units(); err != nil {
		return err
	}
	return nil
}

// Units parses NextN: a non-negative count, or "all".
func (e ExecutionSettings) Units() (int, error) {
	raw := strings.TrimSpace(e.NextN)
	if raw == "" {
		return 0, nil
	}
	if strings.EqualFold(raw, "all") {
		return execution.All, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("config: execution.next_n must be a count or \"all\", got %q", e.NextN)
	}
	return n, nil
}

// Palette builds the error palette from the theme tokens.
func (t ThemeSettings) Palette() style.Palette {
	if len(t.Tokens) == 0 && len(t.Variants) == 0 {
		return style.DefaultPalette()
	}
	manifest := &theme.Manifest{
		Name:     t.Name,
		Tokens:   t.Tokens,
		Variants: make(map[string]theme.Variant, len(t.Variants)),
	}
	for name, tokens := range t.Variants {
		manifest.Variants[name] = theme.Variant{Tokens: tokens}
	}
	return style.FromSelection(&theme.Selection{Theme: t.Name, Variant: t.Variant, Manifest: manifest})
}

// WidgetOptions translates the widget settings.
func (s Settings) WidgetOptions() []widgets.Option {
	options := []widgets.Option{
		widgets.WithItemLimit(s.Widgets.ItemLimit),
		widgets.WithRangeSteps(s.Widgets.RangeSteps),
		widgets.WithContinuousUpdate(s.Widgets.ContinuousUpdate),
	}
	if !s.Widgets.CrossSelect {
		options = append(options, widgets.WithoutCrossSelect())
	}
	return options
}

// FormOptions translates the form settings.
func (s Settings) FormOptions() []form.Option {
	return []form.Option{
		form.WithDisplayThreshold(s.Form.DisplayThreshold),
		form.WithDefaultPrecedence(s.Form.DefaultPrecedence),
		form.WithLabels(s.Form.ShowLabels),
		form.WithTooltips(s.Form.Tooltips),
		form.WithLabelWidth(s.Form.LabelWidth),
		form.WithMinLabelPixels(s.Form.MinLabelPixels),
		form.WithLayout(form.Layout(s.Form.Layout)),
		form.WithViewPosition(form.ViewPosition(s.Form.ViewPosition)),
	}
}

// SessionOptions translates every setting except the execution callback and
// hook, which callers pass alongside.
func (s Settings) SessionOptions(kinds *schema.KindTable) ([]session.Option, error) {
	n, err := s.Execution.Units()
	if err != nil {
		return nil, err
	}
	mode := execution.Immediate
	if s.Execution.Button {
		mode = execution.Batched
	}
	widgetOptions := append([]widgets.Option{widgets.WithKinds(kinds)}, s.WidgetOptions()...)

	options := []session.Option{
		session.WithForm(s.FormOptions()...),
		session.WithExecution(execution.WithMode(mode), execution.WithNextN(n)),
		session.WithWidgets(widgets.NewRegistry(widgetOptions...)),
		session.WithPalette(s.Theme.Palette()),
	}
	if s.Form.CloseButton {
		options = append(options, session.WithCloseButton())
	}
	if s.Execution.OnInit {
		options = append(options, session.WithOnInit())
	}
	return options, nil
}

// Package tui walks a built form in a terminal, asking for one field at a
// time with survey prompts. Every answer goes through the field's binding, so
// validation, error tiers and execution notifications behave exactly as they
// do for a graphical target.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-paramform/pkg/binding"
	"github.com/goliatone/go-paramform/pkg/control"
	"github.com/goliatone/go-paramform/pkg/form"
)

// Prompter drives a form through a PromptDriver.
type Prompter struct {
	driver      PromptDriver
	theme       Theme
	maxAttempts int
	pageSize    int
	run         RunFunc
	logger      zerolog.Logger
}

// New constructs a Prompter with the survey driver.
func New(options ...Option) *Prompter {
	p := &Prompter{
		driver:      NewSurveyDriver(nil),
		maxAttempts: DefaultMaxAttempts,
		theme:       Theme{ErrorPrefix: "! "},
		logger:      zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	return p
}

// Prompt asks for every interactive field of f in display order. Actions are
// offered as confirmations. When f has a Run button the user is asked to run
// afterwards.
func (p *Prompter) Prompt(ctx context.Context, f *form.Form) error {
	if ctx == nil {
		return errors.New("tui: context is required")
	}
	if f == nil {
		return errors.New("tui: form is nil")
	}
	if p.driver == nil {
		return errors.New("tui: prompt driver is nil")
	}
	if f.Header != nil && f.Header.Text != "" {
		if err := p.driver.Info(ctx, p.theme.InfoPrefix+f.Header.Text); err != nil {
			return err
		}
	}
	for _, field := range f.Fields {
		if err := p.promptField(ctx, field); err != nil {
			return err
		}
	}
	if f.RunButton == nil {
		return nil
	}
	confirmed, err := p.driver.Confirm(ctx, TogglePrompt{Message: f.RunButton.Text + "?", Default: true})
	if err != nil {
		return err
	}
	if !confirmed || p.run == nil {
		return nil
	}
	return p.run(ctx)
}

func (p *Prompter) promptField(ctx context.Context, field *form.Field) error {
	ctrl := field.Control
	b := field.Binding
	if ctrl == nil || b == nil || ctrl.Hidden {
		return nil
	}
	if ctrl.Disabled && b.PathControl() == nil {
		return nil
	}
	message := field.Spec.DisplayLabel()
	help := strings.TrimSpace(field.Spec.Doc)

	if ctrl.Widget == control.WidgetButton {
		run, err := p.driver.Confirm(ctx, TogglePrompt{Message: "Run " + message + "?", Help: help})
		if err != nil || !run {
			return err
		}
		if err := b.Click(ctx); err != nil {
			return p.report(ctx, message, err)
		}
		return nil
	}

	if path := b.PathControl(); path != nil {
		pattern, err := p.driver.Input(ctx, TextPrompt{Message: message + " path", Default: path.Text, Help: help})
		if err != nil {
			return err
		}
		if pattern != path.Text {
			if err := b.EditPath(ctx, pattern); err != nil {
				return err
			}
		}
		if ctrl.Disabled {
			return p.report(ctx, message, b.State().Err)
		}
	}

	for attempt := 1; ; attempt++ {
		answer, err := p.ask(ctx, ctrl, message, help)
		if err != nil {
			return err
		}
		if err := b.Finalize(ctx, answer); err != nil {
			return err
		}
		state := b.State()
		if state.Phase != binding.Failed {
			break
		}
		if err := p.report(ctx, message, state.Err); err != nil {
			return err
		}
		if attempt >= p.maxAttempts {
			return fmt.Errorf("%w: %s", ErrTooManyAttempts, field.Spec.Name)
		}
	}

	if ctrl.Editable {
		open, err := p.driver.Confirm(ctx, TogglePrompt{Message: "Edit " + message + " settings?"})
		if err != nil || !open {
			return err
		}
		return b.OpenEditor(ctx)
	}
	return nil
}

func (p *Prompter) ask(ctx context.Context, ctrl *control.Control, message, help string) (any, error) {
	switch ctrl.Widget {
	case control.WidgetCheckbox:
		checked, _ := ctrl.Value.(bool)
		return p.driver.Confirm(ctx, TogglePrompt{Message: message, Default: checked, Help: help})
	case control.WidgetDropdown:
		current, _ := ctrl.Value.(string)
		idx, err := p.driver.Select(ctx, ChoicePrompt{
			Message:  message,
			Options:  ctrl.Options,
			Current:  indexOf(ctrl.Options, current),
			Help:     help,
			PageSize: p.pageSize,
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(ctrl.Options) {
			return nil, fmt.Errorf("tui: selection %d out of range", idx)
		}
		return ctrl.Options[idx], nil
	case control.WidgetSelectMultiple, control.WidgetCrossSelect:
		chosen, _ := ctrl.Value.([]string)
		indices, err := p.driver.MultiSelect(ctx, ChoicePrompt{
			Message:  message,
			Options:  ctrl.Options,
			Chosen:   indicesOf(ctrl.Options, chosen),
			Help:     help,
			PageSize: p.pageSize,
		})
		if err != nil {
			return nil, err
		}
		return pick(ctrl.Options, indices), nil
	}

	text := ctrl.Text
	if text == "" {
		if s, ok := ctrl.Value.(string); ok {
			text = s
		}
	}
	if strings.Contains(text, "\n") {
		return p.driver.TextArea(ctx, MultilinePrompt{Message: message, Default: text, Help: help})
	}
	return p.driver.Input(ctx, TextPrompt{Message: message, Default: text, Help: help})
}

func (p *Prompter) report(ctx context.Context, message string, err error) error {
	if err == nil {
		return nil
	}
	p.logger.Debug().Err(err).Str("field", message).Msg("prompt rejected")
	return p.driver.Info(ctx, fmt.Sprintf("%sInvalid %s: %v", p.theme.ErrorPrefix, message, err))
}

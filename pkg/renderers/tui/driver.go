package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// TextPrompt asks for the edit text of a single-line field.
type TextPrompt struct {
	Message   string
	Default   string
	Help      string
	Validator func(string) error
}

// TogglePrompt asks for a boolean field or a yes/no decision such as running
// an action.
type TogglePrompt struct {
	Message string
	Default bool
	Help    string
}

// ChoicePrompt asks for the option labels of a choice field. Current is the
// label index preselected by Select; Chosen holds the indices preselected by
// MultiSelect.
type ChoicePrompt struct {
	Message  string
	Options  []string
	Current  int
	Chosen   []int
	Help     string
	PageSize int
}

// MultilinePrompt asks for the edit text of a field whose text spans lines.
type MultilinePrompt struct {
	Message string
	Default string
	Help    string
}

// PromptDriver reads one field answer at a time. The Prompter owns field
// order and validation; a driver only collects raw answers.
type PromptDriver interface {
	Input(ctx context.Context, cfg TextPrompt) (string, error)
	Confirm(ctx context.Context, cfg TogglePrompt) (bool, error)
	Select(ctx context.Context, cfg ChoicePrompt) (int, error)
	MultiSelect(ctx context.Context, cfg ChoicePrompt) ([]int, error)
	TextArea(ctx context.Context, cfg MultilinePrompt) (string, error)
	Info(ctx context.Context, msg string) error
}

// SurveyDriver prompts on the process terminal with survey.
type SurveyDriver struct {
	out io.Writer
}

// NewSurveyDriver returns a driver printing messages to out, or stdout when
// out is nil.
func NewSurveyDriver(out io.Writer) *SurveyDriver {
	if out == nil {
		out = os.Stdout
	}
	return &SurveyDriver{out: out}
}

func (d *SurveyDriver) Input(ctx context.Context, cfg TextPrompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Input{
		Message: cfg.Message,
		Help:    cfg.Help,
		Default: cfg.Default,
	}
	var opts []survey.AskOpt
	if cfg.Validator != nil {
		validator := cfg.Validator
		opts = append(opts, survey.WithValidator(func(ans any) error {
			text, _ := ans.(string)
			return validator(text)
		}))
	}
	if err := survey.AskOne(prompt, &out, opts...); err != nil {
		return "", abortOnInterrupt(err)
	}
	return out, nil
}

func (d *SurveyDriver) Confirm(ctx context.Context, cfg TogglePrompt) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	prompt := &survey.Confirm{
		Message: cfg.Message,
		Help:    cfg.Help,
		Default: cfg.Default,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return false, abortOnInterrupt(err)
	}
	return out, nil
}

func (d *SurveyDriver) Select(ctx context.Context, cfg ChoicePrompt) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var out string
	prompt := &survey.Select{
		Message: cfg.Message,
		Options: cfg.Options,
		Help:    cfg.Help,
	}
	if cfg.PageSize > 0 {
		prompt.PageSize = cfg.PageSize
	}
	if cfg.Current >= 0 && cfg.Current < len(cfg.Options) {
		prompt.Default = cfg.Options[cfg.Current]
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return 0, abortOnInterrupt(err)
	}
	return indexOf(cfg.Options, out), nil
}

func (d *SurveyDriver) MultiSelect(ctx context.Context, cfg ChoicePrompt) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []string
	prompt := &survey.MultiSelect{
		Message: cfg.Message,
		Options: cfg.Options,
		Help:    cfg.Help,
	}
	if cfg.PageSize > 0 {
		prompt.PageSize = cfg.PageSize
	}
	if len(cfg.Chosen) > 0 {
		prompt.Default = pick(cfg.Options, cfg.Chosen)
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return nil, abortOnInterrupt(err)
	}
	return indicesOf(cfg.Options, out), nil
}

func (d *SurveyDriver) TextArea(ctx context.Context, cfg MultilinePrompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Multiline{
		Message: cfg.Message,
		Help:    cfg.Help,
		Default: cfg.Default,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", abortOnInterrupt(err)
	}
	return out, nil
}

func (d *SurveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

// abortOnInterrupt maps Ctrl-C to ErrAborted so the Prompter stops without
// committing the field being edited.
func abortOnInterrupt(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

func indexOf(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	return -1
}

func indicesOf(options, values []string) []int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	var out []int
	for i, option := range options {
		if _, ok := seen[option]; ok {
			out = append(out, i)
		}
	}
	return out
}

func pick(options []string, indices []int) []string {
	var out []string
	for _, idx := range indices {
		if idx >= 0 && idx < len(options) {
			out = append(out, options[idx])
		}
	}
	return out
}

package tui

import (
	"context"

	"github.com/rs/zerolog"
)

// DefaultMaxAttempts bounds re-prompting of a field that keeps failing.
const DefaultMaxAttempts = 5

// Theme captures message prefixes the prompter applies.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// RunFunc is invoked when the user confirms the Run button.
type RunFunc func(ctx context.Context) error

// Option configures a Prompter.
type Option func(*Prompter)

// WithPromptDriver overrides the survey driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(p *Prompter) {
		if driver != nil {
			p.driver = driver
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(p *Prompter) {
		p.theme = theme
	}
}

// WithMaxAttempts bounds re-prompting per field. Values below one keep the
// default.
func WithMaxAttempts(n int) Option {
	return func(p *Prompter) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithPageSize sets the number of options shown per select page.
func WithPageSize(n int) Option {
	return func(p *Prompter) {
		if n > 0 {
			p.pageSize = n
		}
	}
}

// WithRun registers the handler of the form's Run button.
func WithRun(fn RunFunc) Option {
	return func(p *Prompter) {
		p.run = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Prompter) {
		p.logger = logger
	}
}

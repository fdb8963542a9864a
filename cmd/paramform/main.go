package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	paramform "github.com/goliatone/go-paramform"
	"github.com/goliatone/go-paramform/internal/logging"
	"github.com/goliatone/go-paramform/pkg/config"
	"github.com/goliatone/go-paramform/pkg/execution"
	"github.com/goliatone/go-paramform/pkg/initializer"
	"github.com/goliatone/go-paramform/pkg/openapi"
	"github.com/goliatone/go-paramform/pkg/renderers/term"
	"github.com/goliatone/go-paramform/pkg/renderers/tui"
	"github.com/goliatone/go-paramform/pkg/schema"
	"github.com/goliatone/go-paramform/pkg/schemafile"
	"github.com/goliatone/go-paramform/pkg/session"
)

const promptRenderer = "prompt"

type options struct {
	schemaPath  string
	openapiPath string
	component   string
	renderer    string
	output      string
	configPath  string
	initPath    string
	crossField  string
}

func main() {
	var opts options
	flag.StringVar(&opts.schemaPath, "schema", "", "YAML schema document")
	flag.StringVar(&opts.openapiPath, "openapi", "", "OpenAPI document holding the schema component")
	flag.StringVar(&opts.component, "component", "", "component schema name (with -openapi)")
	flag.StringVar(&opts.renderer, "renderer", "", "html, term or prompt (default from config)")
	flag.StringVar(&opts.output, "output", "", "output file (stdout if empty)")
	flag.StringVar(&opts.configPath, "config", "", "settings file")
	flag.StringVar(&opts.initPath, "init", "", "initial values file (overrides $"+initializer.DefaultEnvVar+")")
	flag.StringVar(&opts.crossField, "cross", "", "edit one multi-choice field with the interactive cross-select")
	flag.Parse()

	settings, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "paramform: %v\n", err)
		os.Exit(2)
	}
	logger, err := logging.New("paramform", settings.Log.Level, settings.Log.Format, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "paramform: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, settings, logger); err != nil {
		if errors.Is(err, tui.ErrAborted) || errors.Is(err, context.Canceled) {
			logger.Warn().Msg("aborted")
			os.Exit(130)
		}
		logger.Error().Err(err).Msg("paramform failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, settings config.Settings, logger zerolog.Logger) error {
	s, err := loadSchema(ctx, opts)
	if err != nil {
		return err
	}

	renderer := strings.TrimSpace(opts.renderer)
	if renderer == "" {
		renderer = settings.Renderer
	}
	registry, err := paramform.DefaultRenderers()
	if err != nil {
		return err
	}

	initOptions := []initializer.Option{initializer.WithLogger(logger)}
	if opts.initPath != "" {
		initOptions = append(initOptions, initializer.WithFile(opts.initPath))
	}
	sessionOptions, err := settings.SessionOptions(s.Kinds())
	if err != nil {
		return err
	}
	sessionOptions = append(sessionOptions,
		session.WithInitializer(initializer.New(initOptions...)),
		session.WithRenderers(registry),
		session.WithLogger(logger),
		session.WithExecution(execution.WithCallback(logChanges(logger))),
	)
	sess, err := session.New(s, sessionOptions...)
	if err != nil {
		return err
	}
	defer sess.Close(ctx)
	for _, issue := range sess.Issues() {
		fmt.Fprintf(os.Stderr, "skipped initial value %s\n", issue)
	}
	if err := sess.Show(ctx); err != nil {
		return err
	}

	switch {
	case opts.crossField != "":
		b := sess.Form().Binding(opts.crossField)
		if b == nil {
			return fmt.Errorf("unknown field %q", opts.crossField)
		}
		if err := term.RunCrossSelect(ctx, b); err != nil {
			return err
		}
		return printValues(os.Stdout, s)
	case renderer == promptRenderer:
		prompter := tui.New(tui.WithLogger(logger), tui.WithRun(sess.Run))
		if err := prompter.Prompt(ctx, sess.Form()); err != nil {
			return err
		}
		return printValues(os.Stdout, s)
	}

	out, err := sess.Render(ctx, renderer)
	if err != nil {
		return err
	}
	if opts.output == "" {
		_, err = os.Stdout.Write(append(out, '\n'))
		return err
	}
	if err := os.WriteFile(opts.output, out, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info().Str("output", opts.output).Str("renderer", renderer).Msg("form written")
	return nil
}

func loadSchema(ctx context.Context, opts options) (*schema.Schema, error) {
	switch {
	case opts.schemaPath != "" && opts.openapiPath != "":
		return nil, errors.New("use either -schema or -openapi")
	case opts.schemaPath != "":
		return paramform.LoadSchemaFile(opts.schemaPath, schemafile.WithActions(map[string]schema.ActionFunc{
			"print": func(_ context.Context, s *schema.Schema) error { return printValues(os.Stdout, s) },
		}))
	case opts.openapiPath != "":
		component := opts.component
		if component == "" {
			doc, err := openapi.LoadFile(ctx, opts.openapiPath)
			if err != nil {
				return nil, err
			}
			names := openapi.Components(doc)
			if len(names) != 1 {
				return nil, fmt.Errorf("-component is required, document has %d schemas", len(names))
			}
			return openapi.Schema(doc, names[0])
		}
		return paramform.LoadOpenAPISchema(ctx, opts.openapiPath, component)
	}
	return nil, errors.New("one of -schema or -openapi is required")
}

func logChanges(logger zerolog.Logger) execution.Callback {
	return func(_ context.Context, s *schema.Schema, changed execution.Changes) error {
		event := logger.Info().Str("class", s.Class())
		for name, value := range changed {
			event = event.Interface(name, value)
		}
		event.Msg("values changed")
		return nil
	}
}

func printValues(w io.Writer, s *schema.Schema) error {
	values := make(map[string]any)
	for name, value := range s.Values() {
		if _, isAction := value.(schema.ActionFunc); isAction {
			continue
		}
		values[name] = value
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

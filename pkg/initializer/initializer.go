// Package initializer sets schema values from an external mapping before a
// form is first shown. The mapping comes from an explicit file or from an
// environment variable holding either inline JSON or a path to a JSON, YAML
// or TOML file.
//
// A mapping may hold the values directly or nest them under a target key,
// which defaults to the schema class:
//
//	PARAMFORM_INIT='{"Demo": {"x": 5}}'
package initializer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/agnivade/levenshtein"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-paramform/pkg/schema"
)

// DefaultEnvVar names the environment variable read by default.
const DefaultEnvVar = "PARAMFORM_INIT"

// ErrNotMapping is returned when the decoded document is not a mapping.
var ErrNotMapping = errors.New("initializer: initial values must be a mapping")

// Issue describes one value that could not be applied.
type Issue struct {
	Field string
	// Suggestion is the closest known field name for unknown fields.
	Suggestion string
	Err        error
}

func (i Issue) String() string {
	if i.Suggestion != "" {
		return fmt.Sprintf("%s: %v (did you mean %q?)", i.Field, i.Err, i.Suggestion)
	}
	return fmt.Sprintf("%s: %v", i.Field, i.Err)
}

// Option configures an Initializer.
type Option func(*Initializer)

// WithEnvVar reads initial values from name instead of DefaultEnvVar.
func WithEnvVar(name string) Option {
	return func(i *Initializer) {
		if name != "" {
			i.envVar = name
		}
	}
}

// WithFile reads initial values from path. It takes precedence over the
// environment.
func WithFile(path string) Option {
	return func(i *Initializer) {
		i.file = path
	}
}

// WithTarget selects the key holding the values. The schema class is used
// when unset.
func WithTarget(key string) Option {
	return func(i *Initializer) {
		i.target = key
	}
}

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(i *Initializer) {
		if fn != nil {
			i.lookupEnv = fn
		}
	}
}

// WithLogger sets the logger used for skipped values.
func WithLogger(logger zerolog.Logger) Option {
	return func(i *Initializer) {
		i.logger = logger
	}
}

// Initializer applies an external value mapping to a schema.
type Initializer struct {
	envVar    string
	file      string
	target    string
	lookupEnv func(string) (string, bool)
	logger    zerolog.Logger
}

// New constructs an Initializer.
func New(options ...Option) *Initializer {
	i := &Initializer{
		envVar:    DefaultEnvVar,
		lookupEnv: os.LookupEnv,
		logger:    zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(i)
	}
	return i
}

// Load reads the initial values. It reports false when neither a file nor the
// environment variable is set.
func (i *Initializer) Load() (map[string]any, bool, error) {
	if i == nil {
		return nil, false, nil
	}
	if i.file != "" {
		spec, err := readFile(i.file)
		return spec, true, err
	}
	raw, ok := i.lookupEnv(i.envVar)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, false, nil
	}
	raw = strings.TrimSpace(raw)
	if _, known := decoders[strings.ToLower(filepath.Ext(raw))]; known && !strings.HasPrefix(raw, "{") {
		spec, err := readFile(raw)
		return spec, true, err
	}
	spec, err := decodeJSON([]byte(raw))
	if err != nil {
		return nil, true, fmt.Errorf("initializer: %s: %w", i.envVar, err)
	}
	return spec, true, nil
}

// Apply writes the configured values into s through Schema.Set. Values that
// fail validation and names the schema does not know are skipped, logged and
// returned as issues. The error is reserved for unreadable sources.
func (i *Initializer) Apply(s *schema.Schema) ([]Issue, error) {
	if s == nil {
		return nil, errors.New("initializer: schema is nil")
	}
	spec, ok, err := i.Load()
	if err != nil || !ok {
		return nil, err
	}

	target := i.target
	if target == "" {
		target = s.Class()
	}
	values := spec
	if nested, ok := spec[target]; ok {
		mapping, ok := asMapping(nested)
		if !ok {
			return nil, fmt.Errorf("%w: key %q", ErrNotMapping, target)
		}
		values = mapping
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var issues []Issue
	for _, name := range names {
		var issue *Issue
		if !s.Has(name) {
			issue = &Issue{Field: name, Err: schema.ErrUnknownField, Suggestion: closest(name, s.Names())}
		} else if err := s.Set(name, values[name]); err != nil {
			issue = &Issue{Field: name, Err: err}
		}
		if issue == nil {
			continue
		}
		i.logger.Warn().Str("field", name).Str("suggestion", issue.Suggestion).Err(issue.Err).Msg("initial value skipped")
		issues = append(issues, *issue)
	}
	return issues, nil
}

type decoder func([]byte) (map[string]any, error)

var decoders = map[string]decoder{
	".json": decodeJSON,
	".yaml": decodeYAML,
	".yml":  decodeYAML,
	".toml": decodeTOML,
}

func readFile(path string) (map[string]any, error) {
	decode, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		decode = decodeJSON
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("initializer: read %s: %w", path, err)
	}
	spec, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("initializer: parse %s: %w", path, err)
	}
	return spec, nil
}

func decodeJSON(data []byte) (map[string]any, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	spec, ok := asMapping(raw)
	if !ok {
		return nil, ErrNotMapping
	}
	return spec, nil
}

func decodeYAML(data []byte) (map[string]any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	spec, ok := asMapping(raw)
	if !ok {
		return nil, ErrNotMapping
	}
	return spec, nil
}

func decodeTOML(data []byte) (map[string]any, error) {
	spec := make(map[string]any)
	if _, err := toml.Decode(string(data), &spec); err != nil {
		return nil, err
	}
	return normalize(spec).(map[string]any), nil
}

func asMapping(value any) (map[string]any, bool) {
	switch typed := normalize(value).(type) {
	case map[string]any:
		return typed, true
	}
	return nil, false
}

// normalize converts decoder-specific containers into map[string]any and
// []any so values reach the schema in one shape.
func normalize(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[fmt.Sprint(key)] = normalize(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(typed))
		for idx, item := range typed {
			out[idx] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for idx, item := range typed {
			out[idx] = normalize(item)
		}
		return out
	}
	return value
}

// closest returns the candidate with the smallest edit distance to name, or
// "" when nothing is within half of name's length.
func closest(name string, candidates []string) string {
	best, bestDistance := "", -1
	for _, candidate := range candidates {
		distance := levenshtein.ComputeDistance(name, candidate)
		if bestDistance < 0 || distance < bestDistance {
			best, bestDistance = candidate, distance
		}
	}
	if bestDistance < 0 || bestDistance > max(len(name)/2, 1) {
		return ""
	}
	return best
}

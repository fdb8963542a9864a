// Package sources provides option resolvers for path-driven choice fields.
package sources

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-paramform/pkg/schema"
)

// Glob resolves a pattern against the file system below root. Labels are the
// matched paths relative to root; values are the full paths.
func Glob(root string) schema.OptionResolver {
	return func(pattern string) (schema.Options, error) {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			return schema.Options{}, nil
		}
		full := pattern
		if root != "" && !filepath.IsAbs(pattern) {
			full = filepath.Join(root, pattern)
		}
		matches, err := filepath.Glob(full)
		if err != nil {
			return nil, fmt.Errorf("sources: glob %q: %w", pattern, err)
		}
		sort.Strings(matches)
		options := make(schema.Options, 0, len(matches))
		for _, match := range matches {
			label := match
			if root != "" {
				if rel, err := filepath.Rel(root, match); err == nil {
					label = filepath.ToSlash(rel)
				}
			}
			options = append(options, schema.Option{Label: label, Value: match})
		}
		return options, nil
	}
}

// GlobFS resolves a pattern against fsys. Labels and values are the matched
// slash-separated names.
func GlobFS(fsys fs.FS) schema.OptionResolver {
	return func(pattern string) (schema.Options, error) {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			return schema.Options{}, nil
		}
		matches, err := fs.Glob(fsys, path.Clean(pattern))
		if err != nil {
			return nil, fmt.Errorf("sources: glob %q: %w", pattern, err)
		}
		sort.Strings(matches)
		options := make(schema.Options, 0, len(matches))
		for _, match := range matches {
			options = append(options, schema.Option{Label: match, Value: match})
		}
		return options, nil
	}
}

// Static always returns options, ignoring the pattern.
func Static(options schema.Options) schema.OptionResolver {
	return func(string) (schema.Options, error) {
		return append(schema.Options(nil), options...), nil
	}
}

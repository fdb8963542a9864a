package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-paramform/pkg/openapi"
	"github.com/goliatone/go-paramform/pkg/schema"
	"github.com/goliatone/go-paramform/pkg/schemafile"
)

type violation struct {
	file     string
	location string
	message  string
}

func main() {
	flag.Usage = func() {
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [paths...]\n", filepath.Base(os.Args[0])); err != nil {
			panic(err)
		}
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "\nLint schema documents and OpenAPI components used as form schemas.\n"); err != nil {
			panic(err)
		}
	}
	openapiMode := flag.Bool("openapi", false, "treat every path as an OpenAPI document")
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	var violations []violation
	for _, path := range paths {
		var (
			linted []violation
			err    error
		)
		if *openapiMode || isOpenAPI(path) {
			linted, err = lintOpenAPI(ctx, path)
		} else {
			linted, err = lintSchemaFile(path)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "lint %s: %v\n", path, err)
			os.Exit(1)
		}
		violations = append(violations, linted...)
	}

	if len(violations) > 0 {
		sort.Slice(violations, func(i, j int) bool {
			if violations[i].file == violations[j].file {
				if violations[i].location == violations[j].location {
					return violations[i].message < violations[j].message
				}
				return violations[i].location < violations[j].location
			}
			return violations[i].file < violations[j].file
		})
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "%s: %s -> %s\n", v.file, v.location, v.message)
		}
		os.Exit(1)
	}
}

// isOpenAPI sniffs the top-level openapi key.
func isOpenAPI(path string) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(raw), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "openapi:") || strings.HasPrefix(trimmed, `"openapi"`) {
			return true
		}
	}
	return false
}

func lintOpenAPI(ctx context.Context, path string) ([]violation, error) {
	doc, err := openapi.LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	var result []violation
	kinds := schema.NewKindTable()
	for _, name := range openapi.Components(doc) {
		base := []string{"components", "schemas", name}
		ref := doc.Components.Schemas[name]
		if ref == nil || ref.Value == nil {
			result = append(result, violation{file: path, location: formatLocation(base), message: "component has no schema"})
			continue
		}
		component := ref.Value
		props := make([]string, 0, len(component.Properties))
		for prop := range component.Properties {
			props = append(props, prop)
		}
		sort.Strings(props)
		for _, prop := range props {
			ref := component.Properties[prop]
			if ref == nil || ref.Value == nil {
				continue
			}
			result = append(result, lintExtensions(path, appendPath(base, "properties."+prop), ref.Value, kinds)...)
		}
		if _, err := openapi.Schema(doc, name); err != nil {
			result = append(result, violation{file: path, location: formatLocation(base), message: err.Error()})
		}
	}
	return result, nil
}

func lintExtensions(file string, path []string, src *openapi3.Schema, kinds *schema.KindTable) []violation {
	keys := make([]string, 0, len(src.Extensions))
	for key := range src.Extensions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var result []violation
	for _, key := range keys {
		value := src.Extensions[key]
		switch key {
		case openapi.ExtensionPrecedence, openapi.ExtensionItemLimit:
			if _, ok := value.(float64); !ok {
				result = append(result, violation{
					file:     file,
					location: formatLocation(path),
					message:  fmt.Sprintf("value for %q must be a number (got %T)", key, value),
				})
			}
		case openapi.ExtensionKind:
			tag, ok := value.(string)
			if !ok || !kinds.Known(schema.Tag(tag)) {
				result = append(result, violation{
					file:     file,
					location: formatLocation(path),
					message:  fmt.Sprintf("unknown kind %v for %q", value, key),
				})
			}
		default:
			result = append(result, violation{
				file:     file,
				location: formatLocation(path),
				message: fmt.Sprintf("unsupported extension key %q (supported: %s)", key, strings.Join([]string{
					openapi.ExtensionItemLimit, openapi.ExtensionKind, openapi.ExtensionPrecedence,
				}, ", ")),
			})
		}
	}
	return result
}

// lintSchemaFile builds the document with placeholder actions and renderers,
// so only the declarations themselves are checked.
func lintSchemaFile(path string) ([]violation, error) {
	doc, err := schemafile.LoadFile(path)
	if err != nil {
		return nil, err
	}
	actions := make(map[string]schema.ActionFunc)
	renderers := make(map[string]schema.ViewFunc)
	var result []violation
	for _, field := range doc.Fields {
		location := formatLocation([]string{"fields", field.Name})
		if strings.TrimSpace(field.Name) == "" {
			result = append(result, violation{file: path, location: "fields", message: "field name is empty"})
		}
		if field.Action != "" {
			actions[field.Action] = func(context.Context, *schema.Schema) error { return nil }
		}
		if field.Render != "" {
			renderers[field.Render] = func(value any) (any, error) { return value, nil }
		}
		if field.Path != "" {
			if _, err := filepath.Match(field.Path, ""); err != nil {
				result = append(result, violation{file: path, location: location, message: fmt.Sprintf("malformed path pattern %q", field.Path)})
			}
		}
	}
	if len(result) > 0 {
		return result, nil
	}

	_, err = doc.Build(
		schemafile.WithActions(actions),
		schemafile.WithRenderers(renderers),
		schemafile.WithResolver(func(string) schema.OptionResolver {
			return func(string) (schema.Options, error) { return schema.Options{}, nil }
		}),
	)
	if err != nil {
		result = append(result, violation{file: path, location: "class " + doc.Class, message: err.Error()})
	}
	return result, nil
}

func appendPath(path []string, segment string) []string {
	next := append([]string(nil), path...)
	next = append(next, segment)
	return next
}

func formatLocation(path []string) string {
	return strings.Join(path, " > ")
}

// Package openapi builds schemas from the component schemas of an OpenAPI 3
// document using kin-openapi. Each property becomes one field:
//
//	boolean                    -> boolean
//	integer / number           -> integer / number, minimum and maximum as bounds
//	string with enum           -> selector
//	string, format date(-time) -> date
//	string, format color       -> color
//	string                     -> string, pattern kept
//	array of enum items        -> list-selector
//	array, minItems = maxItems -> tuple
//	array                      -> list
//	object                     -> dict
//
// The vendor extensions x-precedence, x-item-limit and x-kind set the field
// precedence, the cross-select item limit and an explicit kind tag.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-paramform/pkg/schema"
)

// Extension keys read from property schemas.
const (
	ExtensionPrecedence = "x-precedence"
	ExtensionItemLimit  = "x-item-limit"
	ExtensionKind       = "x-kind"
)

// ErrComponentNotFound is returned for unknown component names.
var ErrComponentNotFound = errors.New("openapi: component schema not found")

// Load parses an OpenAPI document. External references are not followed.
func Load(ctx context.Context, data []byte) (*openapi3.T, error) {
	if len(data) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi: validate: %w", err)
	}
	return doc, nil
}

// LoadFile parses the document at path. Relative file references are
// followed.
func LoadFile(ctx context.Context, path string) (*openapi3.T, error) {
	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: true}
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("openapi: load %s: %w", path, err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi: validate %s: %w", path, err)
	}
	return doc, nil
}

// Components lists the component schema names in sorted order.
func Components(doc *openapi3.T) []string {
	if doc == nil || doc.Components == nil {
		return nil
	}
	names := make([]string, 0, len(doc.Components.Schemas))
	for name := range doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schema converts the component called name. Fields follow x-precedence and
// then property name. A component title becomes the reserved name field
// unless the component declares one itself.
func Schema(doc *openapi3.T, name string) (*schema.Schema, error) {
	if doc == nil || doc.Components == nil {
		return nil, fmt.Errorf("%w: %q", ErrComponentNotFound, name)
	}
	ref, ok := doc.Components.Schemas[name]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("%w: %q", ErrComponentNotFound, name)
	}
	component := ref.Value

	table := schema.NewKindTable()
	props := make([]string, 0, len(component.Properties))
	for prop := range component.Properties {
		props = append(props, prop)
	}
	sort.SliceStable(props, func(i, j int) bool {
		pi, _ := precedenceOf(component.Properties[props[i]])
		pj, _ := precedenceOf(component.Properties[props[j]])
		if pi != pj {
			return pi < pj
		}
		return props[i] < props[j]
	})

	specs := make([]schema.ParameterSpec, 0, len(props)+1)
	if title := strings.TrimSpace(component.Title); title != "" {
		if _, declared := component.Properties["name"]; !declared {
			specs = append(specs, schema.ParameterSpec{Name: "name", Kind: schema.String, Value: title})
		}
	}
	for _, prop := range props {
		spec, err := convert(table, prop, component.Properties[prop])
		if err != nil {
			return nil, fmt.Errorf("openapi: %s.%s: %w", name, prop, err)
		}
		specs = append(specs, spec)
	}
	return schema.NewWithKinds(table, name, specs...)
}

func convert(table *schema.KindTable, name string, ref *openapi3.SchemaRef) (schema.ParameterSpec, error) {
	spec := schema.ParameterSpec{Name: name}
	if ref == nil || ref.Value == nil {
		spec.Kind = schema.Of(schema.TagParameter)
		return spec, nil
	}
	src := ref.Value
	spec.Label = src.Title
	spec.Doc = src.Description
	spec.Value = src.Default
	spec.AllowNone = src.Nullable
	spec.Constant = src.ReadOnly
	if p, ok := precedenceOf(ref); ok {
		spec.Precedence = schema.Precedence(p)
	}
	if limit, ok := number(src.Extensions[ExtensionItemLimit]); ok {
		spec.ItemLimit = schema.Limit(int(limit))
	}

	tag := kindOf(src)
	if explicit, ok := src.Extensions[ExtensionKind].(string); ok && explicit != "" {
		if !table.Known(schema.Tag(explicit)) {
			return spec, fmt.Errorf("unknown kind %q", explicit)
		}
		tag = schema.Tag(explicit)
	}

	switch {
	case table.IsA(tag, schema.TagListSelector):
		if src.Items != nil && src.Items.Value != nil {
			spec.Options = schema.NamedOptions(src.Items.Value.Enum...)
		}
		if spec.Value == nil {
			spec.Value = []any{}
		}
	case table.IsA(tag, schema.TagSelector):
		spec.Options = schema.NamedOptions(src.Enum...)
	case table.IsA(tag, schema.TagDate):
		if text, ok := spec.Value.(string); ok {
			if ts, err := parseDate(text); err == nil {
				spec.Value = ts
			}
		}
	case table.IsA(tag, schema.TagNumber):
		if src.Min != nil {
			spec.Bounds.Min = bound(tag, *src.Min)
		}
		if src.Max != nil {
			spec.Bounds.Max = bound(tag, *src.Max)
		}
		spec.Bounds.ExclusiveMin = src.ExclusiveMin
		spec.Bounds.ExclusiveMax = src.ExclusiveMax
		if tag == schema.TagInteger {
			if f, ok := number(spec.Value); ok {
				spec.Value = int(f)
			}
		}
	case table.IsA(tag, schema.TagString):
		spec.Pattern = src.Pattern
	case table.IsA(tag, schema.TagTuple):
		if src.MaxItems != nil {
			spec.Length = int(*src.MaxItems)
		}
	}

	spec.Kind = schema.Of(tag)
	if spec.Constant {
		spec.Kind = schema.Constant(spec.Kind)
	}
	return spec, nil
}

func kindOf(src *openapi3.Schema) schema.Tag {
	switch firstType(src.Type) {
	case openapi3.TypeBoolean:
		return schema.TagBoolean
	case openapi3.TypeInteger:
		return schema.TagInteger
	case openapi3.TypeNumber:
		return schema.TagNumber
	case openapi3.TypeString:
		switch {
		case len(src.Enum) > 0:
			return schema.TagSelector
		case src.Format == "date" || src.Format == "date-time":
			return schema.TagDate
		case src.Format == "color":
			return schema.TagColor
		}
		return schema.TagString
	case openapi3.TypeArray:
		switch {
		case src.Items != nil && src.Items.Value != nil && len(src.Items.Value.Enum) > 0:
			return schema.TagListSelector
		case src.MaxItems != nil && src.MinItems == *src.MaxItems && src.MinItems > 0:
			return schema.TagTuple
		}
		return schema.TagList
	case openapi3.TypeObject:
		return schema.TagDict
	}
	return schema.TagParameter
}

func firstType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	for _, value := range types.Slice() {
		if value != openapi3.TypeNull {
			return value
		}
	}
	return ""
}

func precedenceOf(ref *openapi3.SchemaRef) (float64, bool) {
	if ref == nil || ref.Value == nil {
		return schema.DefaultPrecedence, false
	}
	if p, ok := number(ref.Value.Extensions[ExtensionPrecedence]); ok {
		return p, true
	}
	return schema.DefaultPrecedence, false
}

func parseDate(text string) (time.Time, error) {
	if ts, err := time.Parse(time.DateOnly, text); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, text)
}

func bound(tag schema.Tag, value float64) any {
	if tag == schema.TagInteger {
		return int(value)
	}
	return value
}

func number(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	}
	return 0, false
}

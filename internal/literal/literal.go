// Package literal parses and formats the structured-literal text used by
// dict, list and tuple fields. Parsing accepts HCL expression syntax (a
// superset of JSON) but evaluates without a context, so variables and
// function calls are rejected.
package literal

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// ErrEmpty is returned for blank input.
var ErrEmpty = errors.New("literal: empty input")

// Parse evaluates text as a literal. A parenthesised, comma-separated tuple
// is read as a list.
func Parse(text string) (any, error) {
	src := strings.TrimSpace(text)
	if src == "" {
		return nil, ErrEmpty
	}
	if strings.HasPrefix(src, "(") && strings.HasSuffix(src, ")") && strings.Contains(src, ",") {
		src = "[" + strings.TrimSuffix(strings.TrimPrefix(src, "("), ")") + "]"
	}

	expr, diags := hclsyntax.ParseExpression([]byte(src), "literal", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("literal: parse: %w", diags)
	}
	value, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("literal: evaluate: %w", diags)
	}
	return toNative(value)
}

func toNative(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() {
		return nil, errors.New("literal: value is not known")
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty == cty.Number:
		return numberToNative(v.AsBigFloat()), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, elem := it.Element()
			native, err := toNative(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			key, elem := it.Element()
			native, err := toNative(elem)
			if err != nil {
				return nil, fmt.Errorf("literal: key %q: %w", key.AsString(), err)
			}
			out[key.AsString()] = native
		}
		return out, nil
	default:
		return nil, fmt.Errorf("literal: unsupported type %s", ty.FriendlyName())
	}
}

func numberToNative(f *big.Float) any {
	if f.IsInt() {
		if i, acc := f.Int64(); acc == big.Exact {
			return int(i)
		}
	}
	out, _ := f.Float64()
	return out
}

// Format renders value as literal text that Parse reads back. Strings are
// returned unquoted so plain text fields show their content.
func Format(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case map[string]any:
		return formatMap(typed)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(payload)
}

func formatMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("{")
	for i, key := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		encodedKey, _ := json.Marshal(key)
		b.Write(encodedKey)
		b.WriteString(": ")
		b.WriteString(Quote(m[key]))
	}
	b.WriteString("}")
	return b.String()
}

// Quote is Format with strings quoted, for nested positions.
func Quote(value any) string {
	if str, ok := value.(string); ok {
		encoded, err := json.Marshal(str)
		if err != nil {
			return fmt.Sprintf("%q", str)
		}
		return string(encoded)
	}
	if value == nil {
		return "null"
	}
	return Format(value)
}

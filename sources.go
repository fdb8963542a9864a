package paramform

import (
	"context"

	"github.com/goliatone/go-paramform/pkg/openapi"
	"github.com/goliatone/go-paramform/pkg/schema"
	"github.com/goliatone/go-paramform/pkg/schemafile"
)

// LoadSchemaFile reads a YAML schema document and builds it.
func LoadSchemaFile(path string, options ...schemafile.Option) (*schema.Schema, error) {
	doc, err := schemafile.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return doc.Build(options...)
}

// LoadOpenAPISchema builds a schema from the named component of the OpenAPI
// document at path.
func LoadOpenAPISchema(ctx context.Context, path, component string) (*schema.Schema, error) {
	doc, err := openapi.LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return openapi.Schema(doc, component)
}

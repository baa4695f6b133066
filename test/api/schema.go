/*
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed schema/music-api.yaml
var musicAPIDocument []byte

// SchemaDocument validates decoded JSON against the component schemas of
// the music API's OpenAPI description.
type SchemaDocument struct {
	doc *openapi3.T
}

// LoadSchemaDocument parses and validates the embedded description.
func LoadSchemaDocument(ctx context.Context) (*SchemaDocument, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(musicAPIDocument)
	if err != nil {
		return nil, fmt.Errorf("loading openapi document: %w", err)
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validating openapi document: %w", err)
	}

	return &SchemaDocument{doc: doc}, nil
}

// Validate checks value, as produced by encoding/json, against the named schema.
func (d *SchemaDocument) Validate(name string, value any) error {
	ref, ok := d.doc.Components.Schemas[name]
	if !ok || ref.Value == nil {
		return fmt.Errorf("%w: schema %q", ErrUnknownVariant, name)
	}

	if err := ref.Value.VisitJSON(value); err != nil {
		return fmt.Errorf("%s schema: %w", name, err)
	}

	return nil
}

// ValidateResponse decodes the response body and validates it.
func (d *SchemaDocument) ValidateResponse(name string, resp *Response) error {
	var value any
	if err := json.Unmarshal(resp.Body, &value); err != nil {
		return fmt.Errorf("%w: %w", ErrUnexpectedShape, err)
	}

	return d.Validate(name, value)
}

package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-appinsights/components/tabular"
)

// RecordValidator validates create and update payloads against a collection schema.
type RecordValidator interface {
	Validate(schema CollectionSchema, record tabular.Record, partial bool) error
}

// JSONSchemaValidator compiles collection documents and validates payloads.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate ensures the payload satisfies the collection document. Partial
// payloads skip required-property checks.
func (v *JSONSchemaValidator) Validate(schema CollectionSchema, record tabular.Record, partial bool) error {
	doc := schema.Document
	key := schema.Name + ".create"
	if partial {
		doc = patchDocument(doc)
		key = schema.Name + ".patch"
	}
	if len(doc) == 0 {
		return nil
	}
	compiled, err := v.schemaFor(key, doc)
	if err != nil {
		return err
	}
	payload, err := normalizePayload(record)
	if err != nil {
		return fmt.Errorf("dashboard: normalize %s payload: %w", schema.Name, err)
	}
	if err := compiled.Validate(payload); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRecord, schema.Name, err)
	}
	return nil
}

func (v *JSONSchemaValidator) schemaFor(key string, doc map[string]any) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[key]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("dashboard: marshal schema %s: %w", key, err)
	}
	compiler := jsonschema.NewCompiler()
	name := key + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("dashboard: load schema %s: %w", key, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("dashboard: compile schema %s: %w", key, err)
	}
	v.mu.Lock()
	v.compiled[key] = compiled
	v.mu.Unlock()
	return compiled, nil
}

// normalizePayload round-trips through JSON so Go numeric types reach the
// validator as json.Number.
func normalizePayload(record tabular.Record) (any, error) {
	if record == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}

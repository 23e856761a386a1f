// Package schema wraps github.com/google/jsonschema-go to serve as the
// Validator dependency spec.md treats as external: the core only asserts the
// constraints listed in spec.md through this package, never implements
// schema validation itself.
package schema

import (
	"encoding/json"
	"fmt"

	jsonschema "github.com/google/jsonschema-go/jsonschema"
)

// Schema is a compiled, immutable JSON schema ready to validate documents.
type Schema struct {
	resolved *jsonschema.Resolved
}

// Compile parses and resolves a JSON-schema document.
func Compile(doc json.RawMessage) (*Schema, error) {
	var s jsonschema.Schema
	if err := json.Unmarshal(doc, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	resolved, err := s.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve schema: %w", err)
	}
	return &Schema{resolved: resolved}, nil
}

// Validate checks doc (a JSON document) against the compiled schema.
func (s *Schema) Validate(doc json.RawMessage) error {
	var v any
	if len(doc) == 0 {
		v = nil
	} else if err := json.Unmarshal(doc, &v); err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	return s.resolved.Validate(v)
}

// Store is a name-keyed collection of compiled schemas. A Store is built once
// per module at load time and is read-only afterward — safe to share across
// worker goroutines (spec.md §5: "schema validators ... registered at load
// time, then read-only").
type Store struct {
	schemas map[string]*Schema
}

// NewStore returns an empty schema store.
func NewStore() *Store {
	return &Store{schemas: make(map[string]*Schema)}
}

// Register compiles doc and stores it under name. Re-registering an existing
// name is rejected (spec.md §9 open question, decided: reject over
// overwrite) rather than silently clobbering a prior registration.
func (s *Store) Register(name string, doc json.RawMessage) error {
	if _, exists := s.schemas[name]; exists {
		return fmt.Errorf("schema %q already registered", name)
	}
	compiled, err := Compile(doc)
	if err != nil {
		return fmt.Errorf("schema %q: %w", name, err)
	}
	s.schemas[name] = compiled
	return nil
}

// Validate validates doc against the schema registered under name.
func (s *Store) Validate(name string, doc json.RawMessage) error {
	compiled, ok := s.schemas[name]
	if !ok {
		return fmt.Errorf("no schema registered for %q", name)
	}
	return compiled.Validate(doc)
}

// Has reports whether a schema is registered under name.
func (s *Store) Has(name string) bool {
	_, ok := s.schemas[name]
	return ok
}

// moduleMetadataSchemaDoc is the schema from spec.md §6.1. It is compiled
// once at startup (spec.md §9: "realize as an immutable value constructed at
// startup and injected into each module-loader invocation") and never
// mutated afterward.
var moduleMetadataSchemaDoc = json.RawMessage(`{
	"type": "object",
	"required": ["description", "actions"],
	"properties": {
		"description": {"type": "string"},
		"configuration": {"type": "object"},
		"actions": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "input", "results"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"description": {"type": "string"},
					"input": {"type": "object"},
					"results": {"type": "object"}
				}
			}
		}
	}
}`)

// ModuleMetadataSchema compiles spec.md's module-metadata schema. Call it
// once at startup and pass the result into every moduleloader.Load call;
// never store it as a package-level mutable global (spec.md §9).
func ModuleMetadataSchema() (*Schema, error) {
	return Compile(moduleMetadataSchemaDoc)
}

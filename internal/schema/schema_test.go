package schema

import (
	"encoding/json"
	"testing"
)

func TestModuleMetadataSchema_ValidDocument(t *testing.T) {
	s, err := ModuleMetadataSchema()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := json.RawMessage(`{
		"description": "pings",
		"actions": [
			{"name": "ping", "input": {"type":"object"}, "results": {"type":"object"}}
		]
	}`)
	if err := s.Validate(doc); err != nil {
		t.Fatalf("expected valid document, got error: %v", err)
	}
}

func TestModuleMetadataSchema_MissingDescription(t *testing.T) {
	s, err := ModuleMetadataSchema()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := json.RawMessage(`{"actions": []}`)
	if err := s.Validate(doc); err == nil {
		t.Fatal("expected validation failure for missing description")
	}
}

func TestStore_RejectsDuplicateRegistration(t *testing.T) {
	store := NewStore()
	doc := json.RawMessage(`{"type":"object"}`)
	if err := store.Register("ping.input", doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Register("ping.input", doc); err == nil {
		t.Fatal("expected rejection of duplicate schema registration")
	}
}

func TestStore_ValidateUnknownSchema(t *testing.T) {
	store := NewStore()
	if err := store.Validate("missing", json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error validating against unregistered schema")
	}
}

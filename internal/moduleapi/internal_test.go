package moduleapi

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/relayforge/nodeagent/internal/request"
)

func TestInternalModule_Ping(t *testing.T) {
	m, err := NewInternalModule(time.Now().Add(-time.Minute), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req, err := request.New("id1", "tx1", "broker", "agent", "ping", request.Blocking, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outc, err := m.Call(context.Background(), "ping", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outc.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", outc.ExitCode)
	}
	var got map[string]any
	if err := json.Unmarshal(outc.Results, &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["pong"] != true {
		t.Fatalf("expected pong=true, got %v", got)
	}
}

func TestInternalModule_RegistryInfoBeforeWiring(t *testing.T) {
	m, err := NewInternalModule(time.Now(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req, err := request.New("id1", "tx1", "broker", "agent", "registry_info", request.Blocking, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outc, err := m.Call(context.Background(), "registry_info", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(outc.Results, &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["modules"] != nil {
		t.Fatalf("expected nil modules before wiring, got %v", got["modules"])
	}
}

func TestInternalModule_RegistryInfoAfterWiring(t *testing.T) {
	m, err := NewInternalModule(time.Now(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.SetListNames(func() []string { return []string{"agent", "echo"} })

	req, err := request.New("id1", "tx1", "broker", "agent", "registry_info", request.Blocking, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outc, err := m.Call(context.Background(), "registry_info", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got struct {
		Modules []string `json:"modules"`
	}
	if err := json.Unmarshal(outc.Results, &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Modules) != 2 {
		t.Fatalf("expected 2 modules, got %v", got.Modules)
	}
}

func TestInternalModule_UnknownAction(t *testing.T) {
	m, err := NewInternalModule(time.Now(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.HasAction("nonexistent") {
		t.Fatal("expected HasAction(nonexistent) to be false")
	}
}

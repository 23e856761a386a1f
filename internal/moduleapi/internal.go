package moduleapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/relayforge/nodeagent/internal/outcome"
	"github.com/relayforge/nodeagent/internal/request"
	"github.com/relayforge/nodeagent/internal/schema"
)

// InternalModule is a built-in module whose actions dispatch to in-process
// Go functions rather than a child executable, per spec.md §4.2: outcomes
// carry exit_code 0 on success and wrap a failure as exit_code 1 with the
// failure message in StderrText.
type InternalModule struct {
	name      string
	startedAt time.Time
	schemas   *schema.Store
	listNames func() []string
	fns       map[string]func(ctx context.Context, params json.RawMessage) (json.RawMessage, error)
}

var emptySchemaDoc = json.RawMessage(`{"type":"object"}`)

// NewInternalModule builds the "agent" internal module exposing "ping" and
// "registry_info". listNames is called lazily on each registry_info
// invocation so it can be wired to the registry after the registry itself
// is populated.
func NewInternalModule(startedAt time.Time, listNames func() []string) (*InternalModule, error) {
	m := &InternalModule{
		name:      "agent",
		startedAt: startedAt,
		schemas:   schema.NewStore(),
		listNames: listNames,
		fns:       make(map[string]func(ctx context.Context, params json.RawMessage) (json.RawMessage, error)),
	}

	m.fns["ping"] = m.ping
	m.fns["registry_info"] = m.registryInfo

	for _, action := range []string{"ping", "registry_info"} {
		if err := m.schemas.Register(action+".input", emptySchemaDoc); err != nil {
			return nil, fmt.Errorf("register input schema for %s: %w", action, err)
		}
		if err := m.schemas.Register(action+".results", emptySchemaDoc); err != nil {
			return nil, fmt.Errorf("register result schema for %s: %w", action, err)
		}
	}

	return m, nil
}

// SetListNames wires the registry_info action to a name-listing function
// after the registry has been built — NewInternalModule runs before the
// registry exists, since the registry is built from the module list that
// includes this module.
func (m *InternalModule) SetListNames(listNames func() []string) {
	m.listNames = listNames
}

func (m *InternalModule) Name() string { return m.name }

func (m *InternalModule) Actions() []string {
	names := make([]string, 0, len(m.fns))
	for name := range m.fns {
		names = append(names, name)
	}
	return names
}

func (m *InternalModule) HasAction(action string) bool {
	_, ok := m.fns[action]
	return ok
}

func (m *InternalModule) ValidateInput(action string, params json.RawMessage) error {
	return m.schemas.Validate(action+".input", params)
}

func (m *InternalModule) ValidateResult(action string, results json.RawMessage) error {
	return m.schemas.Validate(action+".results", results)
}

func (m *InternalModule) Call(ctx context.Context, action string, req *request.ActionRequest) (*outcome.ActionOutcome, error) {
	fn, ok := m.fns[action]
	if !ok {
		return nil, fmt.Errorf("internal module %s has no action %s", m.name, action)
	}
	results, err := fn(ctx, req.Params)
	if err != nil {
		return &outcome.ActionOutcome{
			ExitCode:   1,
			StderrText: err.Error(),
			Results:    json.RawMessage("null"),
		}, nil
	}
	return &outcome.ActionOutcome{
		ExitCode: 0,
		Results:  results,
	}, nil
}

func (m *InternalModule) ping(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	uptime := time.Since(m.startedAt).Seconds()
	return json.Marshal(map[string]any{
		"pong":     true,
		"uptime_s": uptime,
	})
}

func (m *InternalModule) registryInfo(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var names []string
	if m.listNames != nil {
		names = m.listNames()
	}
	return json.Marshal(map[string]any{
		"modules": names,
	})
}

// Package moduleapi defines the Module contract every built-in or external
// module satisfies, per spec.md §3/§4.
package moduleapi

import (
	"context"
	"encoding/json"

	"github.com/relayforge/nodeagent/internal/outcome"
	"github.com/relayforge/nodeagent/internal/request"
)

// Module is the uniform interface the registry and processor deal in,
// regardless of whether the action runs in-process or as a child executable.
type Module interface {
	// Name returns the module's registered name.
	Name() string

	// Actions returns the names of the actions this module exposes.
	Actions() []string

	// HasAction reports whether action is one of Actions().
	HasAction(action string) bool

	// ValidateInput checks params against the action's registered input
	// schema.
	ValidateInput(action string, params json.RawMessage) error

	// ValidateResult checks a parsed result document against the action's
	// registered result schema.
	ValidateResult(action string, results json.RawMessage) error

	// Call dispatches action for req and returns its outcome. The module
	// itself performs no schema validation here; the processor validates
	// input before calling and results after.
	Call(ctx context.Context, action string, req *request.ActionRequest) (*outcome.ActionOutcome, error)
}

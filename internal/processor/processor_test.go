package processor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/relayforge/nodeagent/internal/connector"
	"github.com/relayforge/nodeagent/internal/logging"
	"github.com/relayforge/nodeagent/internal/moduleapi"
	"github.com/relayforge/nodeagent/internal/outcome"
	"github.com/relayforge/nodeagent/internal/registry"
	"github.com/relayforge/nodeagent/internal/request"
)

// reflectModule is a test double advertising a single "reflect" action
// that echoes its string input back under "y" — the spec.md §8 scenario 1
// "echo" module.
type reflectModule struct {
	callCount int
}

func (m *reflectModule) Name() string                { return "echo" }
func (m *reflectModule) Actions() []string            { return []string{"reflect"} }
func (m *reflectModule) HasAction(action string) bool { return action == "reflect" }

func (m *reflectModule) ValidateInput(action string, params json.RawMessage) error {
	var in struct {
		X string `json:"x"`
	}
	return json.Unmarshal(params, &in)
}

func (m *reflectModule) ValidateResult(action string, results json.RawMessage) error {
	return nil
}

func (m *reflectModule) Call(ctx context.Context, action string, req *request.ActionRequest) (*outcome.ActionOutcome, error) {
	m.callCount++
	var in struct {
		X string `json:"x"`
	}
	if err := json.Unmarshal(req.Params, &in); err != nil {
		return nil, err
	}
	results, _ := json.Marshal(map[string]string{"y": in.X})
	return &outcome.ActionOutcome{ExitCode: 0, Results: results}, nil
}

func newTestProcessor(t *testing.T, mod moduleapi.Module) (*Processor, *connector.Loopback) {
	t.Helper()
	reg, err := registry.NewFromModules([]moduleapi.Module{mod})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	conn := connector.NewLoopback(10)
	log := logging.New("test")
	return New(reg, conn, log, 2), conn
}

// runUntilSentCount starts p.Run, waits for conn to accumulate want sent
// messages (or times out), then cancels the processor and waits for Run to
// return.
func runUntilSentCount(t *testing.T, p *Processor, conn *connector.Loopback, want int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for len(conn.Sent) < want && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done
}

func TestProcessor_BlockingHappyPath(t *testing.T) {
	mod := &reflectModule{}
	p, conn := newTestProcessor(t, mod)

	env := envelopeFor(t, map[string]any{
		"id":             "r1",
		"transaction_id": "t1",
		"module":         "echo",
		"action":         "reflect",
		"type":           "blocking",
		"params":         map[string]string{"x": "hi"},
	})
	conn.Push(env)

	runUntilSentCount(t, p, conn, 1)

	if len(conn.Sent) != 1 {
		t.Fatalf("expected exactly 1 sent message, got %d: %+v", len(conn.Sent), conn.Sent)
	}
	sent := conn.Sent[0]
	if sent.Kind != "blocking_response" {
		t.Fatalf("expected blocking_response, got %s", sent.Kind)
	}
	resp := sent.Msg.(connector.BlockingResponse)
	if resp.TransactionID != "t1" {
		t.Fatalf("expected transaction_id t1, got %s", resp.TransactionID)
	}
	var results struct {
		Y string `json:"y"`
	}
	if err := json.Unmarshal(resp.Results, &results); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results.Y != "hi" {
		t.Fatalf("expected y=hi, got %q", results.Y)
	}
}

func TestProcessor_NonBlockingSendsProvisionalThenFinal(t *testing.T) {
	mod := &reflectModule{}
	p, conn := newTestProcessor(t, mod)

	env := envelopeFor(t, map[string]any{
		"id":             "r2",
		"transaction_id": "t2",
		"module":         "echo",
		"action":         "reflect",
		"type":           "non_blocking",
		"params":         map[string]string{"x": "hi"},
		"results_dir":    "/tmp/whatever/t2",
	})
	conn.Push(env)

	runUntilSentCount(t, p, conn, 2)

	if len(conn.Sent) != 2 {
		t.Fatalf("expected provisional then final, got %d messages: %+v", len(conn.Sent), conn.Sent)
	}
	if conn.Sent[0].Kind != "provisional" {
		t.Fatalf("expected provisional first, got %s", conn.Sent[0].Kind)
	}
	if conn.Sent[1].Kind != "non_blocking_response" {
		t.Fatalf("expected non_blocking_response second, got %s", conn.Sent[1].Kind)
	}
	resp := conn.Sent[1].Msg.(connector.NonBlockingResponse)
	if resp.TransactionID != "t2" {
		t.Fatalf("expected transaction_id t2, got %s", resp.TransactionID)
	}
	if resp.JobID == "" {
		t.Fatal("expected a non-empty agent-assigned job id")
	}
}

func TestProcessor_SchemaInvalidInputEmitsPXPError(t *testing.T) {
	mod := &reflectModule{}
	p, conn := newTestProcessor(t, mod)

	env := envelopeFor(t, map[string]any{
		"id":             "r3",
		"transaction_id": "t3",
		"module":         "echo",
		"action":         "reflect",
		"type":           "blocking",
		"params":         map[string]any{"x": 42},
	})
	conn.Push(env)

	runUntilSentCount(t, p, conn, 1)

	if mod.callCount != 0 {
		t.Fatalf("expected no child dispatch for schema-invalid input, got %d calls", mod.callCount)
	}
	if len(conn.Sent) != 1 || conn.Sent[0].Kind != "pxp_error" {
		t.Fatalf("expected a single pxp_error, got %+v", conn.Sent)
	}
	errMsg := conn.Sent[0].Msg.(connector.PXPError)
	if errMsg.TransactionID != "t3" || errMsg.ID != "r3" {
		t.Fatalf("unexpected pxp error fields: %+v", errMsg)
	}
}

func TestProcessor_UnrecognizedEnvelopeEmitsPCPError(t *testing.T) {
	mod := &reflectModule{}
	p, conn := newTestProcessor(t, mod)

	conn.Push(&connector.Envelope{Raw: json.RawMessage(`{"not_a_request": true}`)})

	runUntilSentCount(t, p, conn, 1)

	if len(conn.Sent) != 1 || conn.Sent[0].Kind != "pcp_error" {
		t.Fatalf("expected a single pcp_error, got %+v", conn.Sent)
	}
}

func TestProcessor_UnknownModuleEmitsPXPError(t *testing.T) {
	mod := &reflectModule{}
	p, conn := newTestProcessor(t, mod)

	env := envelopeFor(t, map[string]any{
		"id":             "r4",
		"transaction_id": "t4",
		"module":         "does-not-exist",
		"action":         "reflect",
		"type":           "blocking",
		"params":         map[string]string{"x": "hi"},
	})
	conn.Push(env)

	runUntilSentCount(t, p, conn, 1)

	if len(conn.Sent) != 1 || conn.Sent[0].Kind != "pxp_error" {
		t.Fatalf("expected a single pxp_error, got %+v", conn.Sent)
	}
}

func TestProcessor_UnrecognizedTypeEmitsPXPError(t *testing.T) {
	mod := &reflectModule{}
	p, conn := newTestProcessor(t, mod)

	env := envelopeFor(t, map[string]any{
		"id":             "r5",
		"transaction_id": "t5",
		"module":         "echo",
		"action":         "reflect",
		"type":           "sideways",
		"params":         map[string]string{"x": "hi"},
	})
	conn.Push(env)

	runUntilSentCount(t, p, conn, 1)

	if mod.callCount != 0 {
		t.Fatalf("expected no child dispatch for an unrecognized type, got %d calls", mod.callCount)
	}
	if len(conn.Sent) != 1 || conn.Sent[0].Kind != "pxp_error" {
		t.Fatalf("expected a single pxp_error, got %+v", conn.Sent)
	}
	errMsg := conn.Sent[0].Msg.(connector.PXPError)
	if errMsg.TransactionID != "t5" || errMsg.ID != "r5" {
		t.Fatalf("unexpected pxp error fields: %+v", errMsg)
	}
}

func envelopeFor(t *testing.T, body map[string]any) *connector.Envelope {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return &connector.Envelope{Raw: raw}
}

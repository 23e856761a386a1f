// Package connector defines the boundary between the agent and the broker
// link. The transport itself (the WebSocket/TLS Connector named in spec.md)
// is out of scope; this package only defines the interface and message
// shapes the processor emits through it, plus an in-memory test double.
package connector

import (
	"context"
	"encoding/json"
	"time"
)

// DefaultSendTimeout is the default per-message send timeout (spec.md §6.3:
// "All sends default to a 2-second timeout").
const DefaultSendTimeout = 2 * time.Second

// Envelope is an inbound message as received from the broker, before it is
// interpreted as an action request. Chunks carries parsed_chunks per
// spec.md §3 — opaque debug data plus an invalid-chunk count, kept for
// logging only.
type Envelope struct {
	Raw            json.RawMessage
	Chunks         []json.RawMessage
	InvalidChunks  int
}

// Provisional acknowledges receipt of a non-blocking request before its
// child process is spawned.
type Provisional struct {
	TransactionID string `json:"transaction_id"`
}

// BlockingResponse carries a blocking action's result in a single message.
type BlockingResponse struct {
	TransactionID string          `json:"transaction_id"`
	Results       json.RawMessage `json:"results"`
}

// NonBlockingResponse carries a non-blocking action's final result, sent
// after the child has exited and its output has been parsed.
type NonBlockingResponse struct {
	TransactionID string          `json:"transaction_id"`
	JobID         string          `json:"job_id"`
	Results       json.RawMessage `json:"results"`
}

// PXPError reports an action-dispatch failure tied to a specific
// transaction: schema validation, unknown module/action, or a
// ProcessingError.
type PXPError struct {
	TransactionID string `json:"transaction_id"`
	ID            string `json:"id"`
	Description   string `json:"description"`
}

// PCPError reports a failure at the envelope level, before a transaction
// could even be identified (an unparseable envelope).
type PCPError struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Connector is the boundary the processor sends responses through and
// receives requests from. Implementations own framing, routing, and
// transport-level retries; the processor only deals in the five message
// shapes above.
type Connector interface {
	// Next blocks until the next inbound envelope is available or ctx is
	// done.
	Next(ctx context.Context) (*Envelope, error)

	// SendProvisional, SendBlockingResponse, SendNonBlockingResponse,
	// SendPXPError and SendPCPError each emit one message kind. All sends
	// respect DefaultSendTimeout unless ctx carries a shorter deadline.
	SendProvisional(ctx context.Context, msg Provisional) error
	SendBlockingResponse(ctx context.Context, msg BlockingResponse) error
	SendNonBlockingResponse(ctx context.Context, msg NonBlockingResponse) error
	SendPXPError(ctx context.Context, msg PXPError) error
	SendPCPError(ctx context.Context, msg PCPError) error
}

package connector

import (
	"context"
	"fmt"
)

// Sent records one message emitted through a Loopback connector, tagged by
// kind so tests can assert both ordering and content.
type Sent struct {
	Kind string
	Msg  any
}

// Loopback is an in-memory Connector used by tests and by the serve command
// in place of a real broker link. Inbound envelopes are fed via Push; sent
// messages accumulate in Sent for assertions.
type Loopback struct {
	inbox chan *Envelope
	Sent  []Sent
}

// NewLoopback creates a Loopback with the given inbound envelope buffer size.
func NewLoopback(bufferSize int) *Loopback {
	return &Loopback{inbox: make(chan *Envelope, bufferSize)}
}

// Push enqueues an inbound envelope for a later Next call.
func (l *Loopback) Push(env *Envelope) {
	l.inbox <- env
}

// Close signals that no more envelopes will be pushed.
func (l *Loopback) Close() {
	close(l.inbox)
}

func (l *Loopback) Next(ctx context.Context) (*Envelope, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case env, ok := <-l.inbox:
		if !ok {
			return nil, fmt.Errorf("loopback connector closed")
		}
		return env, nil
	}
}

func (l *Loopback) SendProvisional(ctx context.Context, msg Provisional) error {
	l.Sent = append(l.Sent, Sent{Kind: "provisional", Msg: msg})
	return nil
}

func (l *Loopback) SendBlockingResponse(ctx context.Context, msg BlockingResponse) error {
	l.Sent = append(l.Sent, Sent{Kind: "blocking_response", Msg: msg})
	return nil
}

func (l *Loopback) SendNonBlockingResponse(ctx context.Context, msg NonBlockingResponse) error {
	l.Sent = append(l.Sent, Sent{Kind: "non_blocking_response", Msg: msg})
	return nil
}

func (l *Loopback) SendPXPError(ctx context.Context, msg PXPError) error {
	l.Sent = append(l.Sent, Sent{Kind: "pxp_error", Msg: msg})
	return nil
}

func (l *Loopback) SendPCPError(ctx context.Context, msg PCPError) error {
	l.Sent = append(l.Sent, Sent{Kind: "pcp_error", Msg: msg})
	return nil
}

var _ Connector = (*Loopback)(nil)

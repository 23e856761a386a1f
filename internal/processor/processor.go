// Package processor implements the request-processing pipeline of spec.md
// §4.4: turning inbound Connector envelopes into module calls and emitting
// the right response kind. The worker pool shape is grounded on chainwatch's
// InboxWatcher.Run — a fixed goroutine pool draining a buffered channel, the
// only goroutines besides the intake loop.
package processor

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/relayforge/nodeagent/internal/agenterr"
	"github.com/relayforge/nodeagent/internal/connector"
	"github.com/relayforge/nodeagent/internal/logging"
	"github.com/relayforge/nodeagent/internal/registry"
	"github.com/relayforge/nodeagent/internal/request"
)

// envelopeBody is the shape a recognized request envelope decodes into.
type envelopeBody struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transaction_id"`
	Sender        string          `json:"sender"`
	Module        string          `json:"module"`
	Action        string          `json:"action"`
	Type          string          `json:"type"`
	Params        json.RawMessage `json:"params"`
	ResultsDir    string          `json:"results_dir"`
}

// QueueSize bounds how many accepted envelopes may wait for a free worker.
const QueueSize = 200

// Processor dispatches inbound envelopes to registry modules and emits
// responses through a Connector.
type Processor struct {
	registry *registry.Registry
	conn     connector.Connector
	log      *logging.Logger
	workers  int
}

// New builds a Processor. workers sizes the fixed worker pool Run spawns.
func New(reg *registry.Registry, conn connector.Connector, log *logging.Logger, workers int) *Processor {
	if workers <= 0 {
		workers = 1
	}
	return &Processor{registry: reg, conn: conn, log: log.With("processor"), workers: workers}
}

// Run reads envelopes from the Connector and dispatches them across a fixed
// worker pool until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) error {
	queue := make(chan *connector.Envelope, QueueSize)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for env := range queue {
				p.handle(ctx, env)
			}
		}()
	}

	defer func() {
		close(queue)
		wg.Wait()
	}()

	for {
		env, err := p.conn.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.log.Errorf("connector read failed: %v", err)
			continue
		}
		select {
		case queue <- env:
		case <-ctx.Done():
			return nil
		}
	}
}

// handle implements the eight-step pipeline of spec.md §4.4 for one envelope.
func (p *Processor) handle(ctx context.Context, env *connector.Envelope) {
	if env.InvalidChunks > 0 {
		p.log.Warnf("envelope carried %d invalid debug chunks", env.InvalidChunks)
	}

	var body envelopeBody
	if err := json.Unmarshal(env.Raw, &body); err != nil || body.ID == "" {
		p.sendPCPError(ctx, body.ID, "envelope could not be interpreted as a recognized request message")
		return
	}

	kind, err := parseType(body.Type)
	if err != nil {
		p.sendPXPError(ctx, body.TransactionID, body.ID, err.Error())
		return
	}

	req, err := p.buildRequest(body, kind)
	if err != nil {
		p.sendPXPError(ctx, body.TransactionID, body.ID, err.Error())
		return
	}

	mod, ok := p.registry.Lookup(req.Module)
	if !ok || !mod.HasAction(req.Action) {
		p.sendPXPError(ctx, req.TransactionID, req.ID, "unknown module or action: "+req.Module+"/"+req.Action)
		return
	}

	if err := mod.ValidateInput(req.Action, req.Params); err != nil {
		p.sendPXPError(ctx, req.TransactionID, req.ID, "input validation failed: "+err.Error())
		return
	}

	if req.Kind == request.NonBlocking {
		if err := p.conn.SendProvisional(ctx, connector.Provisional{TransactionID: req.TransactionID}); err != nil {
			p.log.Errorf("failed to send provisional response for %s: %v", req.PrettyLabel(), err)
		}
	}

	outc, err := mod.Call(ctx, req.Action, req)
	if err != nil {
		p.sendPXPError(ctx, req.TransactionID, req.ID, err.Error())
		return
	}

	if err := mod.ValidateResult(req.Action, outc.Results); err != nil {
		p.sendPXPError(ctx, req.TransactionID, req.ID, "result validation failed: "+err.Error())
		return
	}

	switch req.Kind {
	case request.Blocking:
		if err := p.conn.SendBlockingResponse(ctx, connector.BlockingResponse{
			TransactionID: req.TransactionID,
			Results:       outc.Results,
		}); err != nil {
			p.log.Errorf("failed to send blocking response for %s: %v", req.PrettyLabel(), err)
		}
	case request.NonBlocking:
		if err := p.conn.SendNonBlockingResponse(ctx, connector.NonBlockingResponse{
			TransactionID: req.TransactionID,
			JobID:         uuid.NewString(),
			Results:       outc.Results,
		}); err != nil {
			p.log.Errorf("failed to send non-blocking response for %s: %v", req.PrettyLabel(), err)
		}
	}
}

func (p *Processor) buildRequest(body envelopeBody, kind request.Type) (*request.ActionRequest, error) {
	if body.Module == "" || body.Action == "" || body.TransactionID == "" {
		return nil, agenterr.EnvelopeError("request %s is missing required fields", body.ID)
	}
	return request.New(body.ID, body.TransactionID, body.Sender, body.Module, body.Action, kind, body.Params, body.ResultsDir)
}

func parseType(t string) (request.Type, error) {
	switch t {
	case string(request.Blocking):
		return request.Blocking, nil
	case string(request.NonBlocking):
		return request.NonBlocking, nil
	default:
		return "", agenterr.EnvelopeError("unrecognized request type %q", t)
	}
}

func (p *Processor) sendPCPError(ctx context.Context, id, description string) {
	if err := p.conn.SendPCPError(ctx, connector.PCPError{ID: id, Description: description}); err != nil {
		p.log.Errorf("failed to send PCP error: %v", err)
	}
}

func (p *Processor) sendPXPError(ctx context.Context, transactionID, id, description string) {
	if err := p.conn.SendPXPError(ctx, connector.PXPError{
		TransactionID: transactionID,
		ID:            id,
		Description:   description,
	}); err != nil {
		p.log.Errorf("failed to send PXP error: %v", err)
	}
}

// Package request defines the immutable ActionRequest value built from an
// inbound envelope before it reaches a module.
package request

import (
	"encoding/json"
	"fmt"
)

// Type distinguishes a blocking action request from a non-blocking one.
type Type string

const (
	// Blocking requests return their result in the same response message.
	Blocking Type = "blocking"
	// NonBlocking requests return a provisional ack, then write their
	// result to files under ResultsDir before sending a final response.
	NonBlocking Type = "non_blocking"
)

// ActionRequest is the immutable request an envelope is turned into once it
// has passed the envelope checks. Its Params are validated against the
// action's input schema afterwards, by the processor. Nothing downstream
// mutates it.
type ActionRequest struct {
	ID            string
	TransactionID string
	Sender        string
	Module        string
	Action        string
	Kind          Type
	Params        json.RawMessage
	ResultsDir    string
}

// New constructs an ActionRequest, enforcing spec.md's invariant that a
// non-blocking request carries a non-empty results directory and a blocking
// request does not depend on one.
func New(id, transactionID, sender, module, action string, kind Type, params json.RawMessage, resultsDir string) (*ActionRequest, error) {
	if kind == NonBlocking && resultsDir == "" {
		return nil, fmt.Errorf("non-blocking request %s/%s requires a results directory", module, action)
	}
	return &ActionRequest{
		ID:            id,
		TransactionID: transactionID,
		Sender:        sender,
		Module:        module,
		Action:        action,
		Kind:          kind,
		Params:        params,
		ResultsDir:    resultsDir,
	}, nil
}

// PrettyLabel is the computed string outcome-parse failures and other log
// lines embed: "<type> request <id> for <module> <action>".
func (r *ActionRequest) PrettyLabel() string {
	return fmt.Sprintf("%s request %s for %s %s", r.Kind, r.ID, r.Module, r.Action)
}

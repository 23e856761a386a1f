// Package outcome turns a child process's (exit code, stdout, stderr) triple
// into a typed ActionOutcome, per spec.md §4.3.
package outcome

import (
	"encoding/json"

	"github.com/relayforge/nodeagent/internal/agenterr"
	"github.com/relayforge/nodeagent/internal/request"
)

// ActionOutcome is the immutable result of running (or dispatching
// in-process) a single action.
type ActionOutcome struct {
	ExitCode   int
	StdoutText string
	StderrText string
	Results    json.RawMessage
}

// Parse implements spec.md §4.3: empty stdout with exit code 0 is treated as
// the JSON value null; empty stdout with a non-zero exit code is a
// ProcessingError ("returned no output"), and a stdout that is non-empty but
// not valid JSON is a ProcessingError ("returned invalid JSON"). Parse never
// validates Results against an action's result schema — that is the caller's
// job.
func Parse(req *request.ActionRequest, exitCode int, outText, errText string) (*ActionOutcome, error) {
	if outText == "" && exitCode != 0 {
		return nil, agenterr.ProcessingError(
			"The task executed for the %s returned no output on stdout - stderr:%s",
			req.PrettyLabel(), errText,
		)
	}

	parseText := outText
	if parseText == "" {
		parseText = "null"
	}

	var results json.RawMessage
	if err := json.Unmarshal([]byte(parseText), &results); err != nil {
		return nil, agenterr.ProcessingError(
			"The task executed for the %s returned invalid JSON on stdout - stderr:%s",
			req.PrettyLabel(), errText,
		)
	}

	return &ActionOutcome{
		ExitCode:   exitCode,
		StdoutText: outText,
		StderrText: errText,
		Results:    results,
	}, nil
}

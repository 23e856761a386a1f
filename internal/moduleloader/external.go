// Package moduleloader discovers external module executables on disk,
// probes their metadata, and builds ExternalModule values ready for the
// registry, per spec.md §4.1.
package moduleloader

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/relayforge/nodeagent/internal/agenterr"
	"github.com/relayforge/nodeagent/internal/logging"
	"github.com/relayforge/nodeagent/internal/outcome"
	"github.com/relayforge/nodeagent/internal/procrunner"
	"github.com/relayforge/nodeagent/internal/request"
	"github.com/relayforge/nodeagent/internal/resultsdir"
	"github.com/relayforge/nodeagent/internal/schema"
)

type actionMeta struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Input       json.RawMessage `json:"input"`
	Results     json.RawMessage `json:"results"`
}

type moduleMeta struct {
	Description   string          `json:"description"`
	Configuration json.RawMessage `json:"configuration"`
	Actions       []actionMeta    `json:"actions"`
}

// ExternalModule wraps an on-disk executable discovered by Load.
type ExternalModule struct {
	name       string
	path       string
	config     json.RawMessage
	actions    map[string]actionMeta
	schemas    *schema.Store
	log        *logging.Logger
	hasConfig  bool
	configName string
}

// Load implements spec.md §4.1's seven-step external-module load sequence.
// metadataSchema is the once-compiled module-metadata schema, constructed at
// startup and injected here rather than read from a package-level global.
func Load(ctx context.Context, path string, config json.RawMessage, metadataSchema *schema.Schema, log *logging.Logger) (*ExternalModule, error) {
	name := moduleNameFromPath(path)

	metaOut, metaErr, exitCode, err := probeMetadata(ctx, path)
	if err != nil {
		return nil, agenterr.LoadingError("failed to load external module metadata: %v", err)
	}
	if metaErr != "" {
		return nil, agenterr.LoadingError("failed to load external module metadata")
	}
	_ = exitCode

	raw := json.RawMessage(metaOut)

	var meta moduleMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, agenterr.LoadingError("metadata is not in a valid JSON format: %v", err)
	}

	if err := metadataSchema.Validate(raw); err != nil {
		return nil, agenterr.LoadingError("metadata validation failure: %v", err)
	}

	m := &ExternalModule{
		name:    name,
		path:    path,
		config:  config,
		actions: make(map[string]actionMeta, len(meta.Actions)),
		schemas: schema.NewStore(),
		log:     log.With("module." + name),
	}

	if len(config) > 0 && len(meta.Configuration) > 0 {
		configSchemaName := name + ".configuration"
		if err := m.schemas.Register(configSchemaName, meta.Configuration); err != nil {
			return nil, agenterr.LoadingError("invalid configuration schema: %v", err)
		}
		if err := m.schemas.Validate(configSchemaName, config); err != nil {
			return nil, agenterr.LoadingError("configuration failed validation: %v", err)
		}
		m.hasConfig = true
		m.configName = configSchemaName
	}

	for _, action := range meta.Actions {
		if action.Name == "" {
			return nil, agenterr.LoadingError("module %s has an action with an empty name", name)
		}
		if _, exists := m.actions[action.Name]; exists {
			return nil, agenterr.LoadingError("module %s declares action %q more than once", name, action.Name)
		}
		if err := m.schemas.Register(action.Name+".input", action.Input); err != nil {
			return nil, agenterr.LoadingError("module %s action %s: invalid input schema: %v", name, action.Name, err)
		}
		if err := m.schemas.Register(action.Name+".results", action.Results); err != nil {
			return nil, agenterr.LoadingError("module %s action %s: invalid results schema: %v", name, action.Name, err)
		}
		m.actions[action.Name] = action
	}

	return m, nil
}

func moduleNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// probeMetadata launches the module with the single argument "metadata" and
// an empty stdin, inheriting the parent environment, with no timeout.
func probeMetadata(ctx context.Context, path string) (stdout, stderr string, exitCode int, err error) {
	res, runErr := procrunner.Run(ctx, procrunner.Spec{
		Path:  path,
		Args:  []string{"metadata"},
		Env:   os.Environ(),
		Stdin: nil,
	})
	if runErr != nil {
		return "", "", res.ExitCode, runErr
	}
	return res.Stdout, res.Stderr, res.ExitCode, nil
}

func (m *ExternalModule) Name() string { return m.name }

func (m *ExternalModule) Actions() []string {
	names := make([]string, 0, len(m.actions))
	for name := range m.actions {
		names = append(names, name)
	}
	return names
}

func (m *ExternalModule) HasAction(action string) bool {
	_, ok := m.actions[action]
	return ok
}

func (m *ExternalModule) ValidateInput(action string, params json.RawMessage) error {
	return m.schemas.Validate(action+".input", params)
}

func (m *ExternalModule) ValidateResult(action string, results json.RawMessage) error {
	return m.schemas.Validate(action+".results", results)
}

// actionArguments is the document fed to the child on stdin, per spec.md §6.2.
type actionArguments struct {
	Input         json.RawMessage `json:"input"`
	Configuration json.RawMessage `json:"configuration,omitempty"`
	OutputFiles   *outputFiles    `json:"output_files,omitempty"`
}

type outputFiles struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode string `json:"exitcode"`
}

func (m *ExternalModule) buildArguments(req *request.ActionRequest, files *outputFiles) ([]byte, error) {
	args := actionArguments{Input: req.Params, OutputFiles: files}
	if m.hasConfig {
		args.Configuration = m.config
	}
	return json.Marshal(args)
}

// Call dispatches to the blocking or non-blocking execution path per
// req.Kind, per spec.md §4.1.
func (m *ExternalModule) Call(ctx context.Context, action string, req *request.ActionRequest) (*outcome.ActionOutcome, error) {
	if req.Kind == request.NonBlocking {
		return m.callNonBlocking(ctx, action, req)
	}
	return m.callBlocking(ctx, action, req)
}

func (m *ExternalModule) callBlocking(ctx context.Context, action string, req *request.ActionRequest) (*outcome.ActionOutcome, error) {
	payload, err := m.buildArguments(req, nil)
	if err != nil {
		return nil, agenterr.ProcessingError("failed to build action arguments: %v", err)
	}

	res, err := procrunner.Run(ctx, procrunner.Spec{
		Path:  m.path,
		Args:  []string{action},
		Env:   os.Environ(),
		Stdin: payload,
	})
	if err != nil {
		return nil, agenterr.ProcessingError("failed to launch module %s: %v", m.name, err)
	}

	return outcome.Parse(req, res.ExitCode, res.Stdout, res.Stderr)
}

const reservedExitOutputWriteFailed = 5

func (m *ExternalModule) callNonBlocking(ctx context.Context, action string, req *request.ActionRequest) (*outcome.ActionOutcome, error) {
	if req.ResultsDir == "" {
		return nil, agenterr.ProcessingError("non-blocking call for %s requires a results directory", req.PrettyLabel())
	}

	dir, err := resultsdir.Open(req.ResultsDir)
	if err != nil {
		return nil, agenterr.ProcessingError("failed to create results directory: %v", err)
	}

	payload, err := m.buildArguments(req, &outputFiles{
		Stdout:   dir.StdoutPath(),
		Stderr:   dir.StderrPath(),
		ExitCode: dir.ExitCodePath(),
	})
	if err != nil {
		return nil, agenterr.ProcessingError("failed to build action arguments: %v", err)
	}

	res, err := procrunner.Run(ctx, procrunner.Spec{
		Path:  m.path,
		Args:  []string{action},
		Env:   os.Environ(),
		Stdin: payload,
		OnPID: func(pid int) {
			if err := dir.WritePID(pid); err != nil {
				m.log.Errorf("failed to write pid file: %v", err)
			}
		},
	})
	if err != nil {
		return nil, agenterr.ProcessingError("failed to launch module %s: %v", m.name, err)
	}

	if res.ExitCode == reservedExitOutputWriteFailed {
		m.log.Debugf("child exit 5 discarded captured stdout=%q stderr=%q", res.Stdout, res.Stderr)
		return nil, agenterr.ProcessingError("failed to write output on file")
	}

	outText, missing, err := dir.ReadStdout()
	if err != nil {
		return nil, agenterr.ProcessingError("failed to read: %v", err)
	}
	if missing {
		m.log.Debugf("stdout file absent for %s, treating as empty", req.PrettyLabel())
	}

	errText, err := dir.ReadStderr()
	if err != nil {
		m.log.Warnf("failed to read stderr file (non-fatal): %v", err)
		errText = ""
	}

	return outcome.Parse(req, res.ExitCode, outText, errText)
}

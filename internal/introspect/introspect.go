// Package introspect exposes the loaded module registry over an MCP stdio
// server for operator debugging. It is a supplemented operation — not named
// in spec.md, not excluded by its Non-goals — grounded on chainwatch's own
// MCP tool-registration pattern (internal/mcp/server.go, handlers.go), wired
// only to the read-only registry: it cannot execute actions.
package introspect

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/relayforge/nodeagent/internal/registry"
)

// Server wraps the MCP SDK server with read-only registry introspection
// tools.
type Server struct {
	mcpServer *mcpsdk.Server
	registry  *registry.Registry
}

// New builds an introspection server over reg.
func New(reg *registry.Registry) *Server {
	s := &Server{
		registry: reg,
		mcpServer: mcpsdk.NewServer(
			&mcpsdk.Implementation{
				Name:    "nodeagent-introspect",
				Version: "0.1.0",
			},
			nil,
		),
	}
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport. Blocks until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_modules",
		Description: "List the names of every module currently loaded in the agent's registry.",
	}, s.handleListModules)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "describe_module",
		Description: "Describe a loaded module: its name and the actions it exposes.",
	}, s.handleDescribeModule)
}

// ListModulesInput takes no parameters; it is a struct purely so AddTool's
// generic input binding has a concrete type to decode into.
type ListModulesInput struct{}

// ListModulesOutput lists every registered module name.
type ListModulesOutput struct {
	Modules []string `json:"modules"`
}

func (s *Server) handleListModules(ctx context.Context, req *mcpsdk.CallToolRequest, input ListModulesInput) (*mcpsdk.CallToolResult, ListModulesOutput, error) {
	return nil, ListModulesOutput{Modules: s.registry.Names()}, nil
}

// DescribeModuleInput names the module to describe.
type DescribeModuleInput struct {
	Name string `json:"name" jsonschema:"module name"`
}

// DescribeModuleOutput describes a module's actions.
type DescribeModuleOutput struct {
	Found   bool     `json:"found"`
	Actions []string `json:"actions,omitempty"`
}

func (s *Server) handleDescribeModule(ctx context.Context, req *mcpsdk.CallToolRequest, input DescribeModuleInput) (*mcpsdk.CallToolResult, DescribeModuleOutput, error) {
	mod, ok := s.registry.Lookup(input.Name)
	if !ok {
		return nil, DescribeModuleOutput{Found: false}, nil
	}
	return nil, DescribeModuleOutput{Found: true, Actions: mod.Actions()}, nil
}

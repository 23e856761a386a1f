package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/relayforge/nodeagent/internal/config"
	"github.com/relayforge/nodeagent/internal/connector"
	"github.com/relayforge/nodeagent/internal/introspect"
	"github.com/relayforge/nodeagent/internal/logging"
	"github.com/relayforge/nodeagent/internal/moduleapi"
	"github.com/relayforge/nodeagent/internal/moduleloader"
	"github.com/relayforge/nodeagent/internal/processor"
	"github.com/relayforge/nodeagent/internal/registry"
	"github.com/relayforge/nodeagent/internal/schema"
)

var (
	serveConfigPath string
	serveIntrospect bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "path to agent config YAML")
	serveCmd.Flags().BoolVar(&serveIntrospect, "introspect", false, "also run the registry introspection MCP server on stdio")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load modules and start serving action requests",
	Long:  "Loads the module registry, brings up the request processor, and serves until interrupted.\nThe broker transport (Connector) is out of this agent's scope; serve runs against an in-memory loopback until a transport is wired in.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.New("agent")

	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return err
	}

	metadataSchema, err := schema.ModuleMetadataSchema()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	externalModules, err := moduleloader.LoadAll(ctx, cfg.ModuleDir, cfg.ModuleConfig, metadataSchema, log)
	if err != nil {
		log.Warnf("module directory %s could not be scanned: %v", cfg.ModuleDir, err)
	}

	internalModule, err := moduleapi.NewInternalModule(time.Now(), nil)
	if err != nil {
		return err
	}

	modules := make([]moduleapi.Module, 0, len(externalModules)+1)
	modules = append(modules, internalModule)
	for _, m := range externalModules {
		modules = append(modules, m)
	}

	reg, err := registry.NewFromModules(modules)
	if err != nil {
		return err
	}
	internalModule.SetListNames(reg.Names)

	if err := moduleloader.Watch(ctx, cfg.ModuleDir, cfg.PollMode, func() {}, log); err != nil {
		log.Warnf("module directory watch disabled: %v", err)
	}

	conn := connector.NewLoopback(processor.QueueSize)
	proc := processor.New(reg, conn, log, cfg.WorkerPoolSize)

	if serveIntrospect {
		introspectSrv := introspect.New(reg)
		go func() {
			if err := introspectSrv.Run(ctx); err != nil {
				log.Errorf("introspection server stopped: %v", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Infof("shutting down")
		cancel()
	}()

	log.Infof("serving %d modules from %s", len(reg.Names()), cfg.ModuleDir)
	return proc.Run(ctx)
}

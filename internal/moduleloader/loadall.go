package moduleloader

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/relayforge/nodeagent/internal/logging"
	"github.com/relayforge/nodeagent/internal/moduleapi"
	"github.com/relayforge/nodeagent/internal/schema"
)

// LoadAll scans dir for executable files and loads each as an external
// module. A single module's loading failure is logged and skipped — per
// spec.md §7, a LoadingError for one module never stops the agent from
// serving the rest.
func LoadAll(ctx context.Context, dir string, configs map[string]json.RawMessage, metadataSchema *schema.Schema, log *logging.Logger) ([]moduleapi.Module, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var modules []moduleapi.Module
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.Warnf("stat %s: %v", entry.Name(), err)
			continue
		}
		if info.Mode()&0111 == 0 {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		config := configs[moduleNameFromPath(path)]

		mod, err := Load(ctx, path, config, metadataSchema, log)
		if err != nil {
			log.Errorf("failed to load module %s: %v", path, err)
			continue
		}
		modules = append(modules, mod)
		log.Infof("loaded module %s from %s", mod.Name(), path)
	}

	return modules, nil
}

package moduleloader

import (
	"context"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/relayforge/nodeagent/internal/logging"
)

// Watch observes dir for file changes and calls onChange after a debounce
// period, so operators and logs can see that the module set on disk no
// longer matches what the registry loaded at startup. This is purely
// informational: the agent never hot-reloads its module registry (spec.md
// §3: "no dynamic add/remove after the agent begins serving").
//
// When pollMode is true, dir is watched by polling its listing on an
// interval instead of relying on fsnotify/inotify, for filesystems (NFS,
// some container overlays) where inotify events don't propagate.
//
// Grounded on the debounced fsnotify loop chainwatch's policy reloader uses,
// minus the reload action itself.
func Watch(ctx context.Context, dir string, pollMode bool, onChange func(), log *logging.Logger) error {
	if pollMode {
		go pollWatch(ctx, dir, onChange, log)
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					if debounce != nil {
						debounce.Stop()
					}
					debounce = time.AfterFunc(500*time.Millisecond, func() {
						log.Warnf("module directory %s changed on disk; restart the agent to pick up the new module set", dir)
						if onChange != nil {
							onChange()
						}
					})
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnf("module directory watch error: %v", err)
			}
		}
	}()

	return nil
}

// pollInterval is a var, not a const, so tests can shrink it.
var pollInterval = 2 * time.Second

// pollWatch re-lists dir every pollInterval and compares the listing
// (name, size, mod time) against the previous snapshot, firing onChange on
// any difference. No debounce: a poll tick is already a natural debounce.
func pollWatch(ctx context.Context, dir string, onChange func(), log *logging.Logger) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	prev, err := snapshotDir(dir)
	if err != nil {
		log.Warnf("module directory poll watch could not list %s: %v", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur, err := snapshotDir(dir)
			if err != nil {
				log.Warnf("module directory poll watch could not list %s: %v", dir, err)
				continue
			}
			if !sameSnapshot(prev, cur) {
				log.Warnf("module directory %s changed on disk; restart the agent to pick up the new module set", dir)
				if onChange != nil {
					onChange()
				}
			}
			prev = cur
		}
	}
}

type dirEntry struct {
	size    int64
	modTime time.Time
}

func snapshotDir(dir string) (map[string]dirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	snap := make(map[string]dirEntry, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		snap[e.Name()] = dirEntry{size: info.Size(), modTime: info.ModTime()}
	}
	return snap, nil
}

func sameSnapshot(a, b map[string]dirEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for name, ea := range a {
		eb, ok := b[name]
		if !ok || ea != eb {
			return false
		}
	}
	return true
}

package moduleloader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/relayforge/nodeagent/internal/logging"
)

func TestWatch_PollModeDetectsNewFile(t *testing.T) {
	dir := t.TempDir()

	savedInterval := pollInterval
	pollInterval = 20 * time.Millisecond
	defer func() { pollInterval = savedInterval }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	if err := Watch(ctx, dir, true, func() { changed <- struct{}{} }, logging.New("test")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "newmodule"), []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("expected poll watch to notice the new file")
	}
}

func TestWatch_PollModeIgnoresQuietDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "stable"), []byte("x"), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	savedInterval := pollInterval
	pollInterval = 20 * time.Millisecond
	defer func() { pollInterval = savedInterval }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	if err := Watch(ctx, dir, true, func() { changed <- struct{}{} }, logging.New("test")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-changed:
		t.Fatal("did not expect onChange for an unmodified directory")
	case <-time.After(200 * time.Millisecond):
	}
}

package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Yulia51188/fish-house/internal/config"
	"github.com/Yulia51188/fish-house/internal/paths"
	"github.com/Yulia51188/fish-house/internal/session/filestore"
)

func TestOpenSessionStore_FileDefaultsToDataDir(t *testing.T) {
	dir := t.TempDir()
	p := paths.Paths{SessionFile: filepath.Join(dir, "sessions.json")}
	cfg := &config.Config{Session: config.Session{Backend: config.BackendFile}}

	store, closeStore, err := openSessionStore(context.Background(), cfg, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeStore()

	if _, ok := store.(*filestore.Store); !ok {
		t.Fatalf("expected *filestore.Store, got %T", store)
	}
	if err := store.Init(context.Background(), 1, "MENU"); err != nil {
		t.Fatalf("init: %v", err)
	}
	reopened := filestore.New(p.SessionFile)
	if got, err := reopened.State(context.Background(), 1); err != nil || got != "MENU" {
		t.Errorf("expected MENU persisted at %s, got %q (%v)", p.SessionFile, got, err)
	}
}

func TestOpenSessionStore_UnknownBackend(t *testing.T) {
	cfg := &config.Config{Session: config.Session{Backend: "memcached"}}

	_, closeStore, err := openSessionStore(context.Background(), cfg, paths.Paths{})
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	closeStore()
}

func TestVersionString(t *testing.T) {
	if got := versionString(); got != "dev (unknown, unknown)" {
		t.Errorf("unexpected version string %q", got)
	}
}

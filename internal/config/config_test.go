package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Transport != "tcp" {
		t.Errorf("expected default transport 'tcp', got %q", cfg.Transport)
	}
	if cfg.CryptoEnabled {
		t.Error("expected crypto disabled by default")
	}
	if cfg.DiagAddr == "" {
		t.Error("expected a non-empty default diag address")
	}
	if cfg.Name == "" {
		t.Error("expected a non-empty default client name")
	}
}

func TestManagerLoadMissingFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	m := &Manager{configPath: filepath.Join(dir, "config.json"), config: DefaultConfig()}

	if err := m.Load(); err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if m.Get().Transport != "tcp" {
		t.Errorf("expected defaults to survive a missing config file, got transport %q", m.Get().Transport)
	}
}

func TestManagerSaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	m := &Manager{configPath: path, config: DefaultConfig()}

	m.Set(&Config{Name: "desk-a", ServerAddress: "10.0.0.5:24800", Transport: "ws"})
	if err := m.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m2 := &Manager{configPath: path, config: DefaultConfig()}
	if err := m2.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := m2.Get()
	if got.Name != "desk-a" || got.ServerAddress != "10.0.0.5:24800" || got.Transport != "ws" {
		t.Errorf("round-tripped config mismatch: %+v", got)
	}
}

func TestManagerSetNotifiesChangeCallback(t *testing.T) {
	dir := t.TempDir()
	m := &Manager{configPath: filepath.Join(dir, "config.json"), config: DefaultConfig()}

	called := false
	m.RegisterChangeCallback(func() { called = true })
	m.Set(DefaultConfig())

	if !called {
		t.Error("expected Set to invoke the registered change callback")
	}
}

func TestManagerSaveWritesIndentedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	m := &Manager{configPath: path, config: DefaultConfig()}

	if err := m.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var out Config
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("saved file is not valid JSON: %v", err)
	}
	if !bytes.Contains(data, []byte("\n  \"name\"")) {
		t.Errorf("expected two-space indented JSON, got %s", data)
	}
}

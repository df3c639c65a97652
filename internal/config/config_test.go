package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefaultsUnknownOpcodeToNOP(t *testing.T) {
	cfg := New()
	if cfg.UnknownOpcode != "nop" {
		t.Fatalf("UnknownOpcode = %q, want %q", cfg.UnknownOpcode, "nop")
	}
	if cfg.Trace {
		t.Fatal("Trace should default to false")
	}
}

func TestLoadFromFileCreatesDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.json")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.UnknownOpcode != "nop" {
		t.Fatalf("UnknownOpcode = %q, want %q", cfg.UnknownOpcode, "nop")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config to be written to %s: %v", path, err)
	}
}

func TestLoadFromFileRejectsBadUnknownOpcodeValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	data, _ := json.Marshal(map[string]string{"unknown_opcode": "explode"})
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("expected error for invalid unknown_opcode value")
	}
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")

	cfg := New()
	cfg.Trace = true
	cfg.TraceFile = "trace.log"
	stop := uint16(0xC000)
	cfg.StopPC = &stop
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	reloaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if !reloaded.Trace || reloaded.TraceFile != "trace.log" {
		t.Fatalf("reloaded config mismatch: %+v", reloaded)
	}
	if reloaded.StopPC == nil || *reloaded.StopPC != 0xC000 {
		t.Fatalf("StopPC round-trip failed: %+v", reloaded.StopPC)
	}
}

package utils

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Riboost-Studio/aep-printer-client/internal/model"
)

func TestLoadConfigDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aepctl.toml")
	data := `target = "192.168.0.123"
request_timeout = "3s"
log_level = "debug"

[[printers]]
name = "Kitchen"
ip = "192.168.0.50"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	ctx := context.WithValue(context.Background(), model.ContextConfigFile, path)

	cfg, err := LoadConfig(ctx)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Target != "192.168.0.123" {
		t.Fatalf("unexpected target: %q", cfg.Target)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Fatalf("unexpected request timeout: %v", cfg.RequestTimeout)
	}
	if cfg.HandshakeTimeout != 10*time.Second {
		t.Fatalf("default handshake timeout not kept: %v", cfg.HandshakeTimeout)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.LogLevel)
	}
	p, ok := cfg.FindPrinter("Kitchen")
	if !ok || p.IP != "192.168.0.50" {
		t.Fatalf("unexpected printer: %+v %v", p, ok)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	ctx := context.WithValue(context.Background(), model.ContextConfigFile, filepath.Join(t.TempDir(), "none.toml"))
	cfg, err := LoadConfig(ctx)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Target != "localhost" || cfg.RequestTimeout != 10*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfigBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	os.WriteFile(path, []byte(`request_timeout = "soon"`), 0644)
	ctx := context.WithValue(context.Background(), model.ContextConfigFile, path)
	if _, err := LoadConfig(ctx); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSavePrintersMergesByIP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "aepctl.toml")
	if err := SavePrinters(path, []model.Printer{{Name: "Kitchen", IP: "10.0.0.2"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := SavePrinters(path, []model.Printer{
		{Name: "Kitchen again", IP: "10.0.0.2"},
		{Name: "Bar", IP: "10.0.0.3"},
	}); err != nil {
		t.Fatalf("save again: %v", err)
	}

	ctx := context.WithValue(context.Background(), model.ContextConfigFile, path)
	cfg, err := LoadConfig(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Printers) != 2 {
		t.Fatalf("expected 2 printers, got %+v", cfg.Printers)
	}
	if cfg.Printers[0].Name != "Kitchen" || cfg.Printers[1].IP != "10.0.0.3" {
		t.Fatalf("unexpected printers: %+v", cfg.Printers)
	}
}

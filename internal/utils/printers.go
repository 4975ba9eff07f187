package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Riboost-Studio/aep-printer-client/internal/model"
)

type fileConfig struct {
	Target           string          `toml:"target"`
	RequestTimeout   string          `toml:"request_timeout"`
	HandshakeTimeout string          `toml:"handshake_timeout"`
	LogLevel         string          `toml:"log_level"`
	Printers         []model.Printer `toml:"printers"`
}

// LoadConfig reads the file named by model.ContextConfigFile on top of
// model.DefaultConfig. A missing file yields the defaults.
func LoadConfig(ctx context.Context) (model.Config, error) {
	cfg := model.DefaultConfig()
	configFile, _ := ctx.Value(model.ContextConfigFile).(string)
	if configFile == "" {
		return cfg, nil
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(configFile, &raw)
	if err != nil {
		return model.Config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("target") {
		if t := strings.TrimSpace(raw.Target); t != "" {
			cfg.Target = t
		}
	}
	if meta.IsDefined("request_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.RequestTimeout))
		if err != nil {
			return model.Config{}, fmt.Errorf("parse request_timeout: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if meta.IsDefined("handshake_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.HandshakeTimeout))
		if err != nil {
			return model.Config{}, fmt.Errorf("parse handshake_timeout: %w", err)
		}
		cfg.HandshakeTimeout = d
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("printers") {
		cfg.Printers = raw.Printers
	}
	return cfg, nil
}

// SavePrinters merges printers into the [[printers]] list of configFile,
// keyed by IP. Other keys in the file are preserved.
func SavePrinters(configFile string, printers []model.Printer) error {
	// Ensure config directory exists
	configDir := filepath.Dir(configFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	doc := map[string]any{}
	if _, err := os.Stat(configFile); err == nil {
		if _, err := toml.DecodeFile(configFile, &doc); err != nil {
			return fmt.Errorf("failed to read existing config: %w", err)
		}
	}

	var existing []model.Printer
	if _, ok := doc["printers"]; ok {
		var raw fileConfig
		if _, err := toml.DecodeFile(configFile, &raw); err != nil {
			return fmt.Errorf("failed to read existing printers: %w", err)
		}
		existing = raw.Printers
	}

	known := make(map[string]bool, len(existing))
	for _, p := range existing {
		known[p.IP] = true
	}
	for _, p := range printers {
		if !known[p.IP] {
			existing = append(existing, p)
			known[p.IP] = true
		}
	}
	doc["printers"] = existing

	f, err := os.Create(configFile)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(doc)
}

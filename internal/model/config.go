package model

import "time"

// --- Configuration Structures ---

type Config struct {
	Target           string        `toml:"target"`
	RequestTimeout   time.Duration `toml:"-"`
	HandshakeTimeout time.Duration `toml:"-"`
	LogLevel         string        `toml:"log_level"`
	Printers         []Printer     `toml:"printers"`
}

type Printer struct {
	Name        string `toml:"name"`
	IP          string `toml:"ip"`
	Description string `toml:"description,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Target:           "localhost",
		RequestTimeout:   10 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		LogLevel:         "info",
	}
}

// FindPrinter returns the printer registered under name, matching either the
// name or the IP.
func (c Config) FindPrinter(name string) (Printer, bool) {
	for _, p := range c.Printers {
		if p.Name == name || p.IP == name {
			return p, true
		}
	}
	return Printer{}, false
}

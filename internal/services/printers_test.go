package services

import (
	"context"
	"testing"
	"time"
)

func TestDiscoverPrinters(t *testing.T) {
	orig := probe
	defer func() { probe = orig }()
	probe = func(ip string, port int, timeout time.Duration) bool {
		return port == 443 && (ip == "10.1.2.20" || ip == "10.1.2.3")
	}

	printers, err := DiscoverPrinters(context.Background(), DiscoveryConfig{Subnet: "10.1.2"})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(printers) != 2 {
		t.Fatalf("expected 2 printers, got %+v", printers)
	}
	if printers[0].IP != "10.1.2.3" || printers[1].IP != "10.1.2.20" {
		t.Fatalf("unexpected order: %+v", printers)
	}
	if printers[0].Name != "printer-10-1-2-3" {
		t.Fatalf("unexpected name: %q", printers[0].Name)
	}
}

func TestDiscoverPrintersInvalidSubnet(t *testing.T) {
	if _, err := DiscoverPrinters(context.Background(), DiscoveryConfig{Subnet: "not.a"}); err == nil {
		t.Fatalf("expected error for invalid subnet")
	}
}

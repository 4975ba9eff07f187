package services

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Riboost-Studio/aep-printer-client/internal/model"
	"github.com/Riboost-Studio/aep-printer-client/internal/utils"
)

// DiscoveryConfig controls a subnet scan.
type DiscoveryConfig struct {
	// Subnet is the first three octets, e.g. "192.168.0". Empty means the
	// subnet of the first non-loopback interface.
	Subnet  string
	Port    int
	Workers int
	Timeout time.Duration
}

func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{Port: 443, Workers: 50, Timeout: 300 * time.Millisecond}
}

var probe = utils.Probe

// --- Discovery Logic ---

// DiscoverPrinters probes every host of a /24 and returns those accepting
// connections on cfg.Port, ordered by address.
func DiscoverPrinters(ctx context.Context, cfg DiscoveryConfig) ([]model.Printer, error) {
	def := DefaultDiscoveryConfig()
	if cfg.Port == 0 {
		cfg.Port = def.Port
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	subnet := cfg.Subnet
	if subnet == "" {
		localIP, err := utils.DetectLocalIP()
		if err != nil {
			return nil, fmt.Errorf("detect subnet: %w", err)
		}
		parts := strings.Split(localIP, ".")
		subnet = strings.Join(parts[:3], ".")
	}
	if ip := net.ParseIP(subnet + ".1"); ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("invalid subnet %q", subnet)
	}
	log.Info().Str("subnet", subnet+".0/24").Int("port", cfg.Port).Msg("Scanning subnet")

	var (
		mu    sync.Mutex
		found []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := 1; i <= 254; i++ {
		ip := fmt.Sprintf("%s.%d", subnet, i)
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if probe(ip, cfg.Port, cfg.Timeout) {
				mu.Lock()
				found = append(found, ip)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool {
		return ipLess(net.ParseIP(found[i]), net.ParseIP(found[j]))
	})
	printers := make([]model.Printer, 0, len(found))
	for _, ip := range found {
		printers = append(printers, model.Printer{
			Name:        "printer-" + strings.ReplaceAll(ip, ".", "-"),
			IP:          ip,
			Description: fmt.Sprintf("discovered on port %d", cfg.Port),
		})
	}
	return printers, nil
}

func ipLess(a, b net.IP) bool {
	a, b = a.To4(), b.To4()
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

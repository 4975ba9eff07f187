package utils

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

const pushPath = "/statusd"

// Target is a resolved printer address.
type Target struct {
	Host   string // host[:port] as dialed
	Secure bool
	// Local is set when the client runs on the printer itself.
	Local bool
}

// BaseURL is the root of the request/response channel.
func (t Target) BaseURL() string {
	if t.Secure {
		return "https://" + t.Host
	}
	return "http://" + t.Host
}

// PushURL is the websocket status channel.
func (t Target) PushURL() string {
	if t.Secure {
		return "wss://" + t.Host + pushPath
	}
	return "ws://" + t.Host + pushPath
}

var interfaceAddrs = net.InterfaceAddrs

// ResolveTarget picks the channel schemes for a printer address. Loopback
// and addresses owned by this machine use plaintext, everything else uses
// TLS.
func ResolveTarget(target string) (Target, error) {
	target = strings.TrimSpace(target)
	if i := strings.Index(target, "://"); i >= 0 {
		u, err := url.Parse(target)
		if err != nil {
			return Target{}, fmt.Errorf("parse target %q: %w", target, err)
		}
		target = u.Host
	}
	target = strings.TrimSuffix(target, "/")
	if target == "" {
		return Target{}, fmt.Errorf("empty target")
	}

	host, port, err := net.SplitHostPort(target)
	if err != nil {
		host, port = strings.Trim(target, "[]"), ""
	}
	if strings.EqualFold(host, "localhost") {
		host = "127.0.0.1"
	}

	local := false
	if ip := net.ParseIP(host); ip != nil {
		local = ip.IsLoopback() || isLocalAddress(ip)
	}

	hostPort := host
	if port != "" {
		hostPort = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		hostPort = "[" + host + "]"
	}
	return Target{Host: hostPort, Secure: !local, Local: local}, nil
}

func isLocalAddress(ip net.IP) bool {
	addrs, err := interfaceAddrs()
	if err != nil {
		return false
	}
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.Equal(ip) {
			return true
		}
	}
	return false
}

// --- Utility Functions ---

func DetectLocalIP() (string, error) {
	addrs, err := interfaceAddrs()
	if err != nil {
		return "", err
	}
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String(), nil
		}
	}
	return "", fmt.Errorf("no local IPv4 address found")
}

func Probe(ip string, port int, timeout time.Duration) bool {
	addr := net.JoinHostPort(ip, fmt.Sprint(port))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

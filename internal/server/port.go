package server

import (
	"fmt"
	"net"
	"strconv"
)

// DefaultPort is the first port tried.
const DefaultPort = 8000

// DefaultPortRange is how many consecutive ports are tried.
const DefaultPortRange = 50

// Listen binds the first free port in [start, start+attempts).
func Listen(host string, start, attempts int) (net.Listener, error) {
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for port := start; port < start+attempts; port++ {
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err == nil {
			return ln, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no available ports in range %d-%d: %w", start, start+attempts-1, lastErr)
}

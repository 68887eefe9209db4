// Package shutdown notifies the local companion server that the learner quit.
package shutdown

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/url"
	"sync"

	"go.uber.org/zap"
)

// Path is the companion server's shutdown endpoint.
const Path = "/shutdown"

var localHosts = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"::1":       {},
}

// IsLocalHost reports whether host (optionally with port) names the local machine.
func IsLocalHost(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if len(host) > 1 && host[0] == '[' && host[len(host)-1] == ']' {
		host = host[1 : len(host)-1]
	}
	_, ok := localHosts[host]
	return ok
}

// Beacon sends a single fire-and-forget shutdown request, only after an
// intentional quit.
type Beacon struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger

	mu          sync.Mutex
	intentional bool
	sent        bool
}

// NewBeacon returns a beacon targeting base. A nil base, or one that is not a
// local host, yields a disabled beacon.
func NewBeacon(base *url.URL, client *http.Client, logger *zap.Logger) *Beacon {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		client = http.DefaultClient
	}
	b := &Beacon{client: client, logger: logger}
	if base != nil && IsLocalHost(base.Host) {
		target := *base
		target.Path = Path
		target.RawQuery = ""
		b.endpoint = target.String()
	}
	return b
}

// Enabled reports whether a companion server endpoint exists.
func (b *Beacon) Enabled() bool {
	return b.endpoint != ""
}

// MarkIntentionalQuit arms the beacon.
func (b *Beacon) MarkIntentionalQuit() {
	b.mu.Lock()
	b.intentional = true
	b.mu.Unlock()
}

// Send posts an empty JSON body to the shutdown endpoint when armed. It fires
// at most once; delivery failures are ignored. It reports whether a request was
// attempted.
func (b *Beacon) Send(ctx context.Context) bool {
	b.mu.Lock()
	if !b.Enabled() || b.sent || !b.intentional {
		b.mu.Unlock()
		return false
	}
	b.sent = true
	b.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader([]byte("{}")))
	if err != nil {
		b.logger.Debug("shutdown beacon request failed", zap.Error(err))
		return true
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.client.Do(req)
	if err != nil {
		b.logger.Debug("shutdown beacon not delivered", zap.String("endpoint", b.endpoint), zap.Error(err))
		return true
	}
	_ = resp.Body.Close()
	b.logger.Debug("shutdown beacon sent", zap.String("endpoint", b.endpoint), zap.Int("status", resp.StatusCode))
	return true
}

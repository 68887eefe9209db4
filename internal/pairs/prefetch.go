package pairs

import (
	"context"
	"errors"
	"sync"

	"github.com/verte-zerg/minipair/internal/model"
)

// ErrClosed is returned by a closed Prefetcher.
var ErrClosed = errors.New("prefetcher closed")

// FetchFunc loads one record.
type FetchFunc func(ctx context.Context) (model.Record, error)

type slot struct {
	done   chan struct{}
	cancel context.CancelFunc
	rec    model.Record
	err    error
}

// Prefetcher keeps a single slot holding the fetch of the record after the
// active one. At most one prefetch is pending at any time.
type Prefetcher struct {
	fetch FetchFunc
	base  context.Context
	stop  context.CancelFunc
	wg    sync.WaitGroup

	mu      sync.Mutex
	pending *slot
	awaited *slot
	gen     uint64
	closed  bool
}

// NewPrefetcher starts the first prefetch immediately.
func NewPrefetcher(ctx context.Context, fetch FetchFunc) *Prefetcher {
	base, stop := context.WithCancel(ctx)
	p := &Prefetcher{fetch: fetch, base: base, stop: stop}
	p.mu.Lock()
	p.pending = p.startLocked()
	p.mu.Unlock()
	return p
}

func (p *Prefetcher) startLocked() *slot {
	ctx, cancel := context.WithCancel(p.base)
	s := &slot{done: make(chan struct{}), cancel: cancel}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		s.rec, s.err = p.fetch(ctx)
		close(s.done)
	}()
	return s
}

// Next consumes the pending slot, waiting for it if needed, and starts the
// following prefetch. An empty or invalidated slot is replaced by one direct
// fetch so that a filter change is honored immediately.
func (p *Prefetcher) Next(ctx context.Context) (model.Record, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return model.Record{}, ErrClosed
	}
	s := p.pending
	p.pending = nil
	p.awaited = s
	gen := p.gen
	p.mu.Unlock()

	var rec model.Record
	var err error
	stale, canceled := false, false
	if s != nil {
		select {
		case <-s.done:
			rec, err = s.rec, s.err
		case <-ctx.Done():
			s.cancel()
			canceled = true
		}
		p.mu.Lock()
		if p.awaited == s {
			p.awaited = nil
		}
		stale = p.gen != gen
		p.mu.Unlock()
		if canceled {
			return model.Record{}, ctx.Err()
		}
	}
	// A slot taken before an Invalidate was selected under the old filters.
	if s == nil || stale || errors.Is(err, ErrNoCandidates) {
		rec, err = p.fetch(ctx)
	}

	p.mu.Lock()
	if !p.closed && p.pending == nil {
		p.pending = p.startLocked()
	}
	p.mu.Unlock()
	return rec, err
}

// PeekNext returns the pending result without consuming it. ready is false
// while the fetch is in flight or when nothing is pending.
func (p *Prefetcher) PeekNext() (rec model.Record, ready bool, err error) {
	p.mu.Lock()
	s := p.pending
	p.mu.Unlock()
	if s == nil {
		return model.Record{}, false, nil
	}
	select {
	case <-s.done:
		return s.rec, true, s.err
	default:
		return model.Record{}, false, nil
	}
}

// Invalidate drops the pending slot, including one a Next call is already
// waiting on. The next call to Next fetches directly.
func (p *Prefetcher) Invalidate() {
	p.mu.Lock()
	p.gen++
	if p.awaited != nil {
		p.awaited.cancel()
		p.awaited = nil
	}
	if p.pending != nil {
		p.pending.cancel()
		p.pending = nil
	}
	p.mu.Unlock()
}

// Close cancels any pending fetch and waits for it to return.
func (p *Prefetcher) Close() {
	p.mu.Lock()
	p.closed = true
	if p.pending != nil {
		p.pending.cancel()
		p.pending = nil
	}
	p.mu.Unlock()
	p.stop()
	p.wg.Wait()
}

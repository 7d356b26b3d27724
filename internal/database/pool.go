package database

import (
	"context"
	"sync"
	"time"
)

// AdapterFactory builds a new, not-yet-connected adapter. The pool invokes
// it only when growing below capacity, and drives Connect itself.
type AdapterFactory func() (Adapter, error)

// Process-wide registry of pools, keyed by the exact DSN string. The
// registry mutex guards insertion only; it is never held while a pool's
// own mutex is held, so the two locks cannot deadlock.
var (
	registryMu sync.Mutex
	registry   = make(map[string]*Pool)
)

// Pool is a bounded set of reusable adapters for one exact DSN string.
// Growth is lazy: adapters are created on demand up to the capacity, never
// pre-warmed, because most DSNs serve a handful of ad-hoc queries.
type Pool struct {
	dsn   string
	size  int
	idle  chan Adapter
	freed chan struct{} // signals a capacity slot freed by Discard or an overflow close
	audit *Auditor

	mu   sync.Mutex
	live int // total adapters alive (idle + checked out); never exceeds size
}

func newPool(dsn string, size int, audit *Auditor) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	if audit == nil {
		audit = NopAuditor()
	}
	return &Pool{
		dsn:   dsn,
		size:  size,
		idle:  make(chan Adapter, size),
		freed: make(chan struct{}, size),
		audit: audit,
	}
}

// GetOrCreatePool returns the pool registered for dsn, creating it lazily
// and idempotently. The size applies only on first creation.
func GetOrCreatePool(dsn string, size int, audit *Auditor) *Pool {
	registryMu.Lock()
	defer registryMu.Unlock()
	if p, ok := registry[dsn]; ok {
		return p
	}
	p := newPool(dsn, size, audit)
	registry[dsn] = p
	return p
}

// CloseAllPools drains every registered pool and empties the registry.
// Intended for process shutdown; not safe while acquisitions are in flight.
func CloseAllPools() {
	registryMu.Lock()
	pools := make([]*Pool, 0, len(registry))
	for _, p := range registry {
		pools = append(pools, p)
	}
	registry = make(map[string]*Pool)
	registryMu.Unlock()

	for _, p := range pools {
		p.CloseAll()
	}
}

// Size returns the configured capacity.
func (p *Pool) Size() int { return p.size }

// Live returns the current number of live adapters.
func (p *Pool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

// Acquire returns an adapter owned exclusively by the caller until Release
// or Discard. It pops an idle adapter when one is available, grows the pool
// when below capacity, and otherwise blocks up to timeout for a concurrent
// Release or for capacity freed by a Discard; only when the window elapses
// with the pool still full does it fail with a PoolExhausted-kind error.
//
// Growing before blocking deviates from waiting out the full timeout first:
// a fresh pool would otherwise stall every first acquisition for the whole
// wait window.
func (p *Pool) Acquire(ctx context.Context, factory AdapterFactory, timeout time.Duration) (Adapter, error) {
	select {
	case a := <-p.idle:
		p.audit.Pool(p.dsn, "acquire", p.size, p.Live())
		return a, nil
	default:
	}

	if a, grown, err := p.tryGrow(ctx, factory); grown {
		return a, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case a := <-p.idle:
			p.audit.Pool(p.dsn, "acquire", p.size, p.Live())
			return a, nil
		case <-p.freed:
			// A Discard opened a slot; the signal can be stale when the
			// slot was already retaken, in which case keep waiting.
			if a, grown, err := p.tryGrow(ctx, factory); grown {
				return a, err
			}
		case <-timer.C:
			if a, grown, err := p.tryGrow(ctx, factory); grown {
				return a, err
			}
			return nil, errPoolExhausted(p.dsn, p.size)
		case <-ctx.Done():
			return nil, errTimeout("connection acquisition cancelled", ctx.Err())
		}
	}
}

// tryGrow claims a capacity slot and connects a fresh adapter. grown is
// false when the pool is at capacity; when the factory or Connect fails
// the slot is handed back and the failure propagates with grown true.
func (p *Pool) tryGrow(ctx context.Context, factory AdapterFactory) (Adapter, bool, error) {
	p.mu.Lock()
	if p.live >= p.size {
		p.mu.Unlock()
		return nil, false, nil
	}
	p.live++
	p.mu.Unlock()

	a, err := p.connectNew(ctx, factory)
	if err != nil {
		p.mu.Lock()
		p.live--
		p.mu.Unlock()
		p.signalFreed()
		return nil, true, err
	}
	p.audit.Pool(p.dsn, "acquire", p.size, p.Live())
	return a, true, nil
}

func (p *Pool) signalFreed() {
	select {
	case p.freed <- struct{}{}:
	default:
	}
}

func (p *Pool) connectNew(ctx context.Context, factory AdapterFactory) (Adapter, error) {
	a, err := factory()
	if err != nil {
		return nil, err
	}
	if err := a.Connect(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Release returns an adapter to the idle queue. When the queue is full the
// adapter is closed and the live count decremented instead, so capacity is
// never leaked. Release never blocks.
//
// Callers must not Release an adapter whose last query timed out; its
// connection state is not verified clean. Use Discard.
func (p *Pool) Release(a Adapter) {
	if a == nil {
		return
	}
	select {
	case p.idle <- a:
	default:
		a.Close()
		p.mu.Lock()
		p.live--
		p.mu.Unlock()
		p.signalFreed()
	}
	p.audit.Pool(p.dsn, "release", p.size, p.Live())
}

// Discard closes an adapter without returning it to the pool, freeing its
// capacity slot for a future Acquire.
func (p *Pool) Discard(a Adapter) {
	if a == nil {
		return
	}
	a.Close()
	p.mu.Lock()
	p.live--
	p.mu.Unlock()
	p.signalFreed()
	p.audit.Pool(p.dsn, "discard", p.size, p.Live())
}

// CloseAll drains the idle queue, closes every adapter and resets the live
// count. Intended for shutdown; not safe while acquisitions are in flight.
func (p *Pool) CloseAll() {
	for {
		select {
		case a := <-p.idle:
			a.Close()
		default:
			p.mu.Lock()
			p.live = 0
			p.mu.Unlock()
			p.audit.Pool(p.dsn, "close_all", p.size, 0)
			return
		}
	}
}

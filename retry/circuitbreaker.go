package retry

import (
	"context"
	"sync"
	"time"

	"github.com/flowlinego/flowline/errs"
)

// BreakerState is one of the three circuit breaker states.
type BreakerState int

const (
	// Closed allows calls through, counting failures toward the threshold.
	Closed BreakerState = iota
	// Open rejects calls immediately until Timeout has elapsed.
	Open
	// HalfOpen allows exactly one trial call through to decide whether to
	// return to Closed or back to Open.
	HalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures one per-key breaker.
type BreakerConfig struct {
	FailureThreshold int
	Timeout          time.Duration
}

// DefaultBreakerConfig trips after 5 consecutive failures and waits 30s
// before allowing a half-open trial.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 5, Timeout: 30 * time.Second}
}

// breaker is the per-key state machine.
type breaker struct {
	mu          sync.Mutex
	cfg         BreakerConfig
	state       BreakerState
	failures    int
	openedAt    time.Time
	lastAccess  time.Time
}

func newBreaker(cfg BreakerConfig) *breaker {
	return &breaker{cfg: cfg, state: Closed, lastAccess: time.Now()}
}

// Execute implements the breaker's gate-keeping around fn, transitioning
// state on success/failure and tripping to Open once FailureThreshold
// consecutive failures are observed.
func (b *breaker) Execute(ctx context.Context, nodeID string, fn func(ctx context.Context) error) error {
	b.mu.Lock()
	b.lastAccess = time.Now()
	switch b.state {
	case Open:
		if time.Since(b.openedAt) >= b.cfg.Timeout {
			b.state = HalfOpen
		} else {
			b.mu.Unlock()
			return &errs.CircuitOpenError{NodeID: nodeID}
		}
	case HalfOpen:
		// A trial call is already in flight.
		b.mu.Unlock()
		return &errs.CircuitOpenError{NodeID: nodeID}
	}
	b.mu.Unlock()

	err := fn(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.failures++
		if b.state == HalfOpen || b.failures >= b.cfg.FailureThreshold {
			b.state = Open
			b.openedAt = time.Now()
		}
		return err
	}
	b.failures = 0
	b.state = Closed
	return nil
}

func (b *breaker) snapshotState() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Table manages one breaker per key (typically a node id), bounded in
// memory by MaxEntries and InactivityTTL: a background goroutine periodically
// evicts breakers that have not been touched within InactivityTTL, so a
// pipeline that creates many short-lived node ids over its lifetime does not
// leak breaker state indefinitely.
type Table struct {
	mu              sync.Mutex
	cfg             BreakerConfig
	breakers        map[string]*breaker
	maxEntries      int
	inactivityTTL   time.Duration
	cleanupInterval time.Duration
	cleanupTimeout  time.Duration

	stop chan struct{}
	once sync.Once
}

// TableOptions configures Table's bounded-memory behaviour. CleanupTimeout
// must be > 0; a background sweep that overruns it is abandoned rather than
// left to block a concurrent Execute call indefinitely.
type TableOptions struct {
	MaxEntries      int
	InactivityTTL   time.Duration
	CleanupInterval time.Duration
	CleanupTimeout  time.Duration
}

// DefaultTableOptions bounds the table to 10,000 entries, evicting breakers
// unused for 1 hour, swept every 5 minutes with a 30s cleanup budget.
func DefaultTableOptions() TableOptions {
	return TableOptions{
		MaxEntries:      10000,
		InactivityTTL:   time.Hour,
		CleanupInterval: 5 * time.Minute,
		CleanupTimeout:  30 * time.Second,
	}
}

// NewTable creates a Table and starts its background eviction sweep.
func NewTable(cfg BreakerConfig, opts TableOptions) *Table {
	if opts.CleanupTimeout <= 0 {
		opts.CleanupTimeout = 30 * time.Second
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 5 * time.Minute
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 10000
	}
	t := &Table{
		cfg:             cfg,
		breakers:        make(map[string]*breaker),
		maxEntries:      opts.MaxEntries,
		inactivityTTL:   opts.InactivityTTL,
		cleanupInterval: opts.CleanupInterval,
		cleanupTimeout:  opts.CleanupTimeout,
		stop:            make(chan struct{}),
	}
	go t.sweepLoop()
	return t
}

// Execute runs fn through the breaker registered for key, creating one with
// this table's config on first use.
func (t *Table) Execute(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	b := t.getOrCreate(key)
	return b.Execute(ctx, key, fn)
}

// State reports the current state of the breaker for key, or Closed if none
// exists yet.
func (t *Table) State(key string) BreakerState {
	t.mu.Lock()
	b, ok := t.breakers[key]
	t.mu.Unlock()
	if !ok {
		return Closed
	}
	return b.snapshotState()
}

func (t *Table) getOrCreate(key string) *breaker {
	t.mu.Lock()
	defer t.mu.Unlock()
	if b, ok := t.breakers[key]; ok {
		return b
	}
	if len(t.breakers) >= t.maxEntries {
		t.evictOldestLocked()
	}
	b := newBreaker(t.cfg)
	t.breakers[key] = b
	return b
}

func (t *Table) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, b := range t.breakers {
		b.mu.Lock()
		last := b.lastAccess
		b.mu.Unlock()
		if first || last.Before(oldest) {
			oldestKey, oldest, first = k, last, false
		}
	}
	if !first {
		delete(t.breakers, oldestKey)
	}
}

func (t *Table) sweepLoop() {
	ticker := time.NewTicker(t.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.sweepOnce()
		case <-t.stop:
			return
		}
	}
}

func (t *Table) sweepOnce() {
	deadline := time.Now().Add(t.cleanupTimeout)
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, b := range t.breakers {
		if time.Now().After(deadline) {
			return
		}
		b.mu.Lock()
		stale := time.Since(b.lastAccess) > t.inactivityTTL
		b.mu.Unlock()
		if stale {
			delete(t.breakers, k)
		}
	}
}

// Close stops the background eviction sweep.
func (t *Table) Close() {
	t.once.Do(func() { close(t.stop) })
}

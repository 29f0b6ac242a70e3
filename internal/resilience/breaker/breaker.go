// Package breaker implements a per-named-dependency circuit breaker
// state machine (closed -> open -> half-open), per spec.md section 4.8
// and the invariants in spec.md section 8 item 5.
package breaker

import (
	"sync"
	"time"
)

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Config parameterizes a Breaker.
type Config struct {
	FailureThreshold int           // consecutive failures to trip from closed
	RecoveryTimeout  time.Duration // time in open before allowing a probe
	SuccessThreshold int           // consecutive half-open successes to close
}

func DefaultConfig() Config {
	return Config{FailureThreshold: 5, RecoveryTimeout: 30 * time.Second, SuccessThreshold: 2}
}

// Breaker is a single named circuit, guarded by an internal lock.
type Breaker struct {
	name   string
	cfg    Config
	mu     sync.Mutex
	state  State
	fails  int
	succ   int
	openedAt time.Time
}

func New(name string, cfg Config) *Breaker {
	return &Breaker{name: name, cfg: cfg, state: Closed}
}

// RetryAfter is returned by Allow when the breaker rejects a call fast.
type RetryAfter struct {
	Duration time.Duration
}

func (RetryAfter) Error() string { return "circuit breaker open" }

// Allow reports whether a call may proceed. If the breaker is open and
// the recovery timeout hasn't elapsed, it returns a *RetryAfter error
// (spec.md section 4.8's typed CircuitOpen). If the recovery timeout has
// elapsed, it transitions to half-open and allows the call through.
// While half-open every call is allowed, until a failure reopens the
// breaker or SuccessThreshold successes close it.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return nil
	case HalfOpen:
		return nil
	case Open:
		elapsed := time.Since(b.openedAt)
		if elapsed >= b.cfg.RecoveryTimeout {
			b.state = HalfOpen
			b.succ = 0
			return nil
		}
		return &RetryAfter{Duration: b.cfg.RecoveryTimeout - elapsed}
	}
	return nil
}

// RecordSuccess registers a successful call.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case HalfOpen:
		b.succ++
		if b.succ >= b.cfg.SuccessThreshold {
			b.state = Closed
			b.fails = 0
			b.succ = 0
		}
	case Closed:
		b.fails = 0
	}
}

// RecordFailure registers a failed call. Every failure counts; the
// breaker does not filter errors by class. From half-open, a single
// failure reopens the circuit.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case HalfOpen:
		b.state = Open
		b.openedAt = time.Now()
		b.fails = 0
	case Closed:
		b.fails++
		if b.fails >= b.cfg.FailureThreshold {
			b.state = Open
			b.openedAt = time.Now()
		}
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Do runs fn if the breaker allows it, recording the outcome.
func (b *Breaker) Do(fn func() error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	err := fn()
	if err != nil {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return nil
}

// Registry is a process-wide singleton holder of named breakers,
// replacing the source's module-level cache pattern with an explicit
// owned map guarded by its own lock (spec.md section 9 design note).
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*Breaker
	cfg      Config
}

func NewRegistry(cfg Config) *Registry {
	return &Registry{breakers: make(map[string]*Breaker), cfg: cfg}
}

// Get returns the named breaker, creating it on first use.
func (r *Registry) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.breakers[name]
	if !ok {
		b = New(name, r.cfg)
		r.breakers[name] = b
	}
	return b
}

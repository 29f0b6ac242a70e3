// Package batcher implements the per-session message batcher of spec.md
// section 4.10: inbound messages accumulate per session and flush on
// size or timer, under a session-scoped lock, with a batch re-prepended
// on flush failure.
package batcher

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FlushFunc persists a batch of messages for a session. A non-nil error
// means the batch must be re-prepended and surfaced (spec.md section
// 4.10).
type FlushFunc func(ctx context.Context, sessionID string, messages []any) error

// Config controls batch size and flush timer.
type Config struct {
	BatchSize    int
	FlushTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{BatchSize: 10, FlushTimeout: 2 * time.Second}
}

type session struct {
	mu       sync.Mutex
	pending  []any
	timer    *time.Timer
}

// Batcher owns one session map, each guarded by its own lock so flushes
// on different sessions never block each other (spec.md section 5:
// "the only allowed interleaving is between distinct decisions"/
// sessions).
type Batcher struct {
	cfg      Config
	flush    FlushFunc
	mu       sync.Mutex // guards the sessions map itself, not each session's state
	sessions map[string]*session
}

func New(cfg Config, flush FlushFunc) *Batcher {
	return &Batcher{cfg: cfg, flush: flush, sessions: make(map[string]*session)}
}

func (b *Batcher) getOrCreate(sessionID string) *session {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[sessionID]
	if !ok {
		s = &session{}
		b.sessions[sessionID] = s
	}
	return s
}

// Enqueue appends msg to the session's pending batch, preserving
// arrival order. Flushes immediately if the batch reaches BatchSize;
// otherwise (re-)schedules a delayed flush at FlushTimeout.
func (b *Batcher) Enqueue(ctx context.Context, sessionID string, msg any) error {
	s := b.getOrCreate(sessionID)

	s.mu.Lock()
	s.pending = append(s.pending, msg)
	full := len(s.pending) >= b.cfg.BatchSize
	if s.timer != nil {
		s.timer.Stop()
	}
	if !full {
		s.timer = time.AfterFunc(b.cfg.FlushTimeout, func() {
			_ = b.flushSession(context.Background(), sessionID, s)
		})
	}
	s.mu.Unlock()

	if full {
		return b.flushSession(ctx, sessionID, s)
	}
	return nil
}

func (b *Batcher) flushSession(ctx context.Context, sessionID string, s *session) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	if err := b.flush(ctx, sessionID, batch); err != nil {
		// Re-prepend on failure so no message is lost.
		s.mu.Lock()
		s.pending = append(batch, s.pending...)
		s.mu.Unlock()
		return fmt.Errorf("batcher: flush session %s: %w", sessionID, err)
	}
	return nil
}

// CompleteSession force-flushes and forgets sessionID.
func (b *Batcher) CompleteSession(ctx context.Context, sessionID string) error {
	b.mu.Lock()
	s, ok := b.sessions[sessionID]
	if ok {
		delete(b.sessions, sessionID)
	}
	b.mu.Unlock()
	if !ok {
		return nil
	}
	return b.flushSession(ctx, sessionID, s)
}

// FlushAll force-flushes every session, used on graceful shutdown.
// Drains to zero pending messages across all sessions (spec.md section
// 8 invariant 7), collecting and returning any flush errors together.
func (b *Batcher) FlushAll(ctx context.Context) error {
	b.mu.Lock()
	ids := make([]string, 0, len(b.sessions))
	for id := range b.sessions {
		ids = append(ids, id)
	}
	b.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := b.CompleteSession(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("batcher: flush_all had %d failures: %v", len(errs), errs[0])
	}
	return nil
}

// PendingCount returns the number of pending messages across all
// sessions, used by tests asserting FlushAll drains to zero.
func (b *Batcher) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, s := range b.sessions {
		s.mu.Lock()
		total += len(s.pending)
		s.mu.Unlock()
	}
	return total
}

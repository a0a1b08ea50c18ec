// Package sketchbank owns an ordered collection of Count-Min Sketches, each
// paired with a behavior profile, the set of event codes it applies to, and
// an optional periodic reset. It is the shared resource the dispatch loop,
// the extract path, and the background reset workers all touch, so its
// locking discipline is the one piece of this core that most needs a
// documented answer (see Bank's doc comment).
package sketchbank

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/FedeDP/plugins/src/cms"
	"github.com/FedeDP/plugins/src/errs"
	"github.com/FedeDP/plugins/src/ppme"
	"github.com/FedeDP/plugins/src/profile"
)

// ResetState mirrors the per-sketch state machine of spec §4.6: a sketch is
// Periodic if it has a live reset worker, Idle otherwise.
type ResetState int

const (
	Idle ResetState = iota
	Periodic
)

// minResetPeriod is the threshold below which a configured reset period is
// coerced to 0 (no worker spawned).
const minResetPeriod = 100 * time.Millisecond

// Entry bundles one sketch with its matching rule and reset behavior. The
// bank's public index into its slice of Entries is the stable identifier
// extract requests use (anomaly.count_min_sketch[i]).
type Entry struct {
	Sketch      *cms.Sketch
	Profile     []profile.Selector
	EventCodes  map[ppme.Code]struct{}
	ResetPeriod time.Duration
	state       ResetState
}

// Matches reports whether code is one of this entry's configured event
// codes.
func (e *Entry) Matches(code ppme.Code) bool {
	_, ok := e.EventCodes[code]
	return ok
}

// State returns the entry's current {Idle, Periodic} state.
func (e *Entry) State() ResetState { return e.state }

// Bank is the ordered, indexable collection of sketch Entries plus the
// goroutines resetting them on a timer.
//
// Concurrency: Bank uses a single coarse sync.RWMutex guarding the slice of
// *Entry pointers (the "coarse granularity" choice named in spec §5).
// Get/Estimate/Update on an already-resolved *Entry go straight to the
// Sketch's own lock (cms.Sketch is independently thread-safe), so the bank
// lock is only ever held for the short pointer-slice lookup, never across a
// sketch operation or a timer sleep.
type Bank struct {
	mu      sync.RWMutex
	entries []*Entry

	stop   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// New builds a Bank from a fixed, ordered list of entries, coercing each
// entry's reset period per spec (<=100ms -> 0, i.e. Idle) and spawning one
// reset goroutine per remaining non-zero period.
func New(entries []*Entry) *Bank {
	b := &Bank{
		entries: entries,
		stop:    make(chan struct{}),
	}
	for _, e := range entries {
		if e.ResetPeriod > 0 && e.ResetPeriod <= minResetPeriod {
			log.Warnf("anomaly plugin: reset_timer_ms %v is <= 100ms, coercing to 0 (no reset worker)", e.ResetPeriod)
			e.ResetPeriod = 0
		}
		if e.ResetPeriod > minResetPeriod {
			e.state = Periodic
			b.wg.Add(1)
			go b.resetLoop(e, b.stop)
		} else {
			e.state = Idle
		}
	}
	return b
}

func (b *Bank) resetLoop(e *Entry, stop chan struct{}) {
	defer b.wg.Done()
	ticker := time.NewTicker(e.ResetPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.Sketch.Reset()
		case <-stop:
			return
		}
	}
}

// Len returns the number of sketches in the bank.
func (b *Bank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Get returns the ith entry, bounds-checked.
func (b *Bank) Get(i int) (*Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i < 0 || i >= len(b.entries) {
		return nil, fmt.Errorf("%w: sketch index %d (bank has %d)", errs.ErrExtractOutOfBounds, i, len(b.entries))
	}
	return b.entries[i], nil
}

// All returns a snapshot slice of the bank's entries, for iteration by the
// dispatch loop.
func (b *Bank) All() []*Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// ClearAll tears down every sketch and terminates and drains all reset
// workers before returning, so a caller doing a hot reload can safely build
// a brand new Bank immediately afterward.
func (b *Bank) ClearAll() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	close(b.stop)
	b.wg.Wait()

	b.mu.Lock()
	for _, e := range b.entries {
		e.state = Idle
	}
	b.entries = nil
	b.mu.Unlock()
}
